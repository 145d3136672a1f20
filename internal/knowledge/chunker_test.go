package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSectionChunkerNumberedHeadings(t *testing.T) {
	chunker := NewSectionChunker(50, 1000, 800)

	text := `1. Introduction
This policy manual describes the employment terms that apply to all staff members of the company.

2. Working Hours
Standard working hours are nine to five, Monday through Friday. Flexible arrangements require manager approval in advance.`

	chunks := chunker.Chunk(text)

	assert.Len(t, chunks, 2)
	assert.Equal(t, "1. Introduction", chunks[0].Section)
	assert.Equal(t, "2. Working Hours", chunks[1].Section)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[1].Index)
	assert.Empty(t, chunks[0].Subsection)
	assert.Contains(t, chunks[1].Content, "Flexible arrangements")
}

func TestSectionChunkerLongSectionSplit(t *testing.T) {
	chunker := NewSectionChunker(50, 1000, 800)

	// 约1300字符的章节，超过上限后按句子二次切分
	body := strings.TrimSpace(strings.Repeat("Employees accrue paid time off at a fixed monthly rate each year. ", 20))
	text := "3. Paid Time Off\n" + body

	chunks := chunker.Chunk(text)

	assert.Len(t, chunks, 2)
	for _, chunk := range chunks {
		assert.Equal(t, "3. Paid Time Off", chunk.Section)
		assert.LessOrEqual(t, len(chunk.Content), 800)
		assert.NotEmpty(t, chunk.Content)
	}
	assert.Empty(t, chunks[0].Subsection)
	assert.Equal(t, "Part 2", chunks[1].Subsection)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[1].Index)
}

func TestSectionChunkerNoHeadings(t *testing.T) {
	chunker := NewSectionChunker(50, 1000, 800)

	// 无任何标题特征的文本应作为单一章节整体入块
	text := "all employees must complete security awareness training within thirty days of joining and renew the certification annually thereafter without exception"

	chunks := chunker.Chunk(text)

	assert.Len(t, chunks, 1)
	assert.Empty(t, chunks[0].Section)
	assert.Equal(t, 0, chunks[0].Index)
}

func TestSectionChunkerDiscardsShortSections(t *testing.T) {
	chunker := NewSectionChunker(50, 1000, 800)

	text := `1. Stub
Too short.

2. Real Section
This section carries enough content to clear the minimum length threshold and therefore must be kept.`

	chunks := chunker.Chunk(text)

	assert.Len(t, chunks, 1)
	assert.Equal(t, "2. Real Section", chunks[0].Section)
}

func TestSectionChunkerCapsAndColonHeadings(t *testing.T) {
	chunker := NewSectionChunker(50, 1000, 800)

	text := `CODE OF CONDUCT
Employees are expected to act with integrity in all business dealings and report violations promptly.

Remote Work:
Requests for remote work must be submitted through the portal and approved by the direct supervisor.`

	chunks := chunker.Chunk(text)

	assert.Len(t, chunks, 2)
	assert.Equal(t, "CODE OF CONDUCT", chunks[0].Section)
	assert.Equal(t, "Remote Work:", chunks[1].Section)
}

func TestSectionChunkerDeterministic(t *testing.T) {
	chunker := NewSectionChunker(50, 1000, 800)

	text := `1. Benefits Overview
The company offers health insurance, retirement contributions and an annual wellness stipend to every full time employee.

2. Leave Policy
` + strings.TrimSpace(strings.Repeat("Annual leave must be requested at least two weeks in advance through the portal. ", 18))

	first := chunker.Chunk(text)
	second := chunker.Chunk(text)

	assert.Equal(t, first, second)
}

func TestSectionChunkerEmptyInput(t *testing.T) {
	chunker := NewSectionChunker(50, 1000, 800)

	assert.Empty(t, chunker.Chunk(""))
	assert.Empty(t, chunker.Chunk("   \n\n  \t "))
}

func TestSectionChunkerWhitespaceNormalization(t *testing.T) {
	chunker := NewSectionChunker(50, 1000, 800)

	text := "1. Expenses\nReimbursement   claims \t must include itemized receipts and be filed within thirty days of the purchase date."

	chunks := chunker.Chunk(text)

	assert.Len(t, chunks, 1)
	assert.NotContains(t, chunks[0].Content, "  ")
	assert.Contains(t, chunks[0].Content, "Reimbursement claims must")
}
