package knowledge

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Chunk 表示分块后的文本结构
type Chunk struct {
	Content    string
	Section    string
	Subsection string
	Index      int
}

// SectionChunker 章节感知的文本分块器
//
// 先按标题特征切分章节，超长章节再按句子边界二次切分。
// 同一段规范化文本的分块结果是确定的。
type SectionChunker struct {
	minSectionLength int // 低于该长度的章节被丢弃
	maxSectionLength int // 超过该长度的章节按句子二次切分
	maxChunkLength   int // 二次切分的子块上限
}

// NewSectionChunker 创建分块器
func NewSectionChunker(minSection, maxSection, maxChunk int) *SectionChunker {
	if minSection <= 0 {
		minSection = 50
	}
	if maxSection <= 0 {
		maxSection = 1000
	}
	if maxChunk <= 0 || maxChunk > maxSection {
		maxChunk = 800
	}
	return &SectionChunker{
		minSectionLength: minSection,
		maxSectionLength: maxSection,
		maxChunkLength:   maxChunk,
	}
}

var (
	// 1. Section Title 形式的编号标题
	numberedHeadingRe = regexp.MustCompile(`^\d+\.\s+\S`)
	// SECTION TITLE 形式的全大写标题
	allCapsHeadingRe = regexp.MustCompile(`^[A-Z][A-Z0-9 ,&\-]{2,}$`)
	// Section Title: 形式的冒号标题
	colonHeadingRe = regexp.MustCompile(`^[A-Z][A-Za-z ]{2,}:\s*$`)

	numberedTitleRe = regexp.MustCompile(`^\d+\.`)
	sentenceSplitRe = regexp.MustCompile(`[.!?]+`)
)

// Chunk 将文本切分为多个语义块
func (c *SectionChunker) Chunk(text string) []Chunk {
	clean := normalizeText(text)
	if clean == "" {
		return nil
	}

	sections := splitSections(clean)

	var chunks []Chunk
	for _, section := range sections {
		section = strings.TrimSpace(section)
		// 过短的片段没有可检索的信号，丢弃
		if len(section) < c.minSectionLength {
			continue
		}

		title, body := c.extractSectionTitle(section)
		if strings.TrimSpace(body) == "" {
			continue
		}

		if len(body) > c.maxSectionLength {
			parts := c.splitBySentence(body)
			for j, part := range parts {
				subsection := ""
				if j > 0 {
					subsection = fmt.Sprintf("Part %d", j+1)
				}
				chunks = append(chunks, Chunk{
					Content:    part,
					Section:    title,
					Subsection: subsection,
					Index:      len(chunks),
				})
			}
		} else {
			chunks = append(chunks, Chunk{
				Content: body,
				Section: title,
				Index:   len(chunks),
			})
		}
	}

	return chunks
}

// extractSectionTitle 提取章节标题
// 首个非空行较短（<100字符）或以编号开头时视为标题，否则整段作为正文。
func (c *SectionChunker) extractSectionTitle(section string) (title, body string) {
	lines := strings.Split(section, "\n")
	firstIdx := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			firstIdx = i
			break
		}
	}
	if firstIdx < 0 {
		return "", ""
	}

	first := strings.TrimSpace(lines[firstIdx])
	if numberedTitleRe.MatchString(first) || len(first) < 100 {
		rest := strings.TrimSpace(strings.Join(lines[firstIdx+1:], "\n"))
		if rest != "" {
			return first, rest
		}
		// 只有一行的章节：该行同时就是正文
		return "", first
	}
	return "", strings.TrimSpace(section)
}

// splitBySentence 按句子边界切分长文本
// 逐句累加直到超过上限，绝不在句中切断。
func (c *SectionChunker) splitBySentence(text string) []string {
	sentences := sentenceSplitRe.Split(text, -1)

	var parts []string
	var current strings.Builder
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(sentence) > c.maxChunkLength {
			parts = append(parts, strings.TrimSpace(current.String()))
			current.Reset()
			current.WriteString(sentence)
			continue
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		parts = append(parts, strings.TrimSpace(current.String()))
	}
	return parts
}

// splitSections 按标题行切分章节
// 未检测到任何标题时整个文本作为单一章节。
func splitSections(text string) []string {
	lines := strings.Split(text, "\n")

	var sections []string
	var current []string
	for _, line := range lines {
		if isHeadingLine(line) && len(current) > 0 {
			sections = append(sections, strings.Join(current, "\n"))
			current = current[:0]
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		sections = append(sections, strings.Join(current, "\n"))
	}
	return sections
}

func isHeadingLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || len(trimmed) > 120 {
		return false
	}
	if numberedHeadingRe.MatchString(trimmed) {
		return true
	}
	if colonHeadingRe.MatchString(trimmed) {
		return true
	}
	if allCapsHeadingRe.MatchString(trimmed) && hasLetter(trimmed) {
		return true
	}
	return false
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// normalizeText 规范化空白字符
// 行内空白折叠为单个空格，保留换行以便识别标题行。
func normalizeText(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var builder strings.Builder
	var prevBlank bool
	for _, line := range lines {
		collapsed := collapseSpaces(line)
		if collapsed == "" {
			if prevBlank {
				continue
			}
			prevBlank = true
		} else {
			prevBlank = false
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(collapsed)
	}
	return strings.TrimSpace(builder.String())
}

func collapseSpaces(s string) string {
	var builder strings.Builder
	builder.Grow(len(s))

	var prevSpace bool
	for _, r := range s {
		if unicode.IsSpace(r) {
			if prevSpace {
				continue
			}
			builder.WriteRune(' ')
			prevSpace = true
			continue
		}
		builder.WriteRune(r)
		prevSpace = false
	}
	return strings.TrimSpace(builder.String())
}
