package knowledge

import (
	"sort"
	"strings"
)

// FormRecord 表单目录条目
type FormRecord struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	FileURL     string `json:"file_url"`
}

// ScoredForm 带相关度评分的表单推荐
type ScoredForm struct {
	FormRecord
	RelevanceScore float64 `json:"relevance_score"`
}

// stopWords 关键词提取时过滤的常见词
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "by": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "have": {}, "has": {}, "had": {}, "do": {},
	"does": {}, "did": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "may": {}, "might": {}, "can": {}, "must": {},
}

// FormRecommender 基于关键词与分类匹配的表单推荐器
type FormRecommender struct {
	threshold float64
	topN      int
}

// NewFormRecommender 创建表单推荐器
func NewFormRecommender() *FormRecommender {
	return &FormRecommender{
		threshold: 0.3,
		topN:      3,
	}
}

// Recommend 根据问题关键词和召回片段的分类为表单打分
//
// 每个命中关键词加0.1，每个分类匹配的召回片段加0.2，总分封顶1.0。
// 只保留得分超过阈值的表单，按得分降序返回前若干条，
// 得分相同时保持目录原顺序。
func (r *FormRecommender) Recommend(question string, forms []FormRecord, retrieved []RetrievalResult) []ScoredForm {
	keywords := ExtractKeywords(question)

	scored := make([]ScoredForm, 0, len(forms))
	for _, form := range forms {
		score := r.scoreForm(form, keywords, retrieved)
		if score > r.threshold {
			scored = append(scored, ScoredForm{
				FormRecord:     form,
				RelevanceScore: score,
			})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})

	if len(scored) > r.topN {
		scored = scored[:r.topN]
	}
	return scored
}

func (r *FormRecommender) scoreForm(form FormRecord, keywords []string, retrieved []RetrievalResult) float64 {
	score := 0.0

	formText := strings.ToLower(form.Name + " " + form.Description + " " + form.Category)
	for _, keyword := range keywords {
		if strings.Contains(formText, keyword) {
			score += 0.1
		}
	}

	for _, result := range retrieved {
		if result.Chunk.Metadata.Category == form.Category {
			score += 0.2
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// ExtractKeywords 提取问题关键词，过滤停用词和短词
func ExtractKeywords(text string) []string {
	words := strings.Fields(strings.ToLower(text))
	keywords := make([]string, 0, len(words))
	for _, word := range words {
		if _, ok := stopWords[word]; ok {
			continue
		}
		if len(word) <= 2 {
			continue
		}
		keywords = append(keywords, word)
	}
	return keywords
}
