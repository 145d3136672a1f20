package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func formCatalog() []FormRecord {
	return []FormRecord{
		{ID: 1, Name: "Vacation Request Form", Description: "Request paid vacation days", Category: "benefits"},
		{ID: 2, Name: "Expense Report", Description: "Claim business expense reimbursement", Category: "finance"},
		{ID: 3, Name: "Remote Work Agreement", Description: "Apply for a remote work arrangement", Category: "conduct"},
	}
}

func benefitsRetrieval() []RetrievalResult {
	return []RetrievalResult{
		{Chunk: RetrievedChunk{Metadata: ChunkMetadata{Category: "benefits"}}, Similarity: 0.8, Rank: 1},
		{Chunk: RetrievedChunk{Metadata: ChunkMetadata{Category: "benefits"}}, Similarity: 0.7, Rank: 2},
	}
}

func TestRecommenderScoringAndThreshold(t *testing.T) {
	recommender := NewFormRecommender()

	// "request" "vacation" "days"命中表单文本(+0.3)，两个benefits片段分类匹配(+0.4)
	scored := recommender.Recommend("how do I request vacation days", formCatalog(), benefitsRetrieval())

	require.Len(t, scored, 1)
	assert.Equal(t, uint(1), scored[0].ID)
	assert.InDelta(t, 0.7, scored[0].RelevanceScore, 1e-9)
}

func TestRecommenderBelowThresholdExcluded(t *testing.T) {
	recommender := NewFormRecommender()

	// 仅关键词命中，得分不超过0.3的表单不推荐
	scored := recommender.Recommend("vacation", formCatalog(), nil)
	assert.Empty(t, scored)
}

func TestRecommenderStopWordsIgnored(t *testing.T) {
	keywords := ExtractKeywords("How do I request the vacation days for my team")

	assert.NotContains(t, keywords, "the")
	assert.NotContains(t, keywords, "for")
	assert.NotContains(t, keywords, "do")
	// 两个字符以下的词被过滤
	assert.NotContains(t, keywords, "i")
	assert.NotContains(t, keywords, "my")
	assert.Contains(t, keywords, "vacation")
	assert.Contains(t, keywords, "request")
}

func TestRecommenderTopThreeDescending(t *testing.T) {
	recommender := NewFormRecommender()

	forms := []FormRecord{
		{ID: 1, Name: "Leave Form", Category: "benefits"},
		{ID: 2, Name: "Leave Balance Form", Category: "benefits"},
		{ID: 3, Name: "Leave Transfer Form", Category: "benefits"},
		{ID: 4, Name: "Leave Donation Form", Category: "benefits"},
	}
	retrieved := []RetrievalResult{
		{Chunk: RetrievedChunk{Metadata: ChunkMetadata{Category: "benefits"}}},
		{Chunk: RetrievedChunk{Metadata: ChunkMetadata{Category: "benefits"}}},
	}

	// "leave balance"命中ID=2两个关键词，其余各命中一个
	scored := recommender.Recommend("leave balance", forms, retrieved)

	require.Len(t, scored, 3)
	assert.Equal(t, uint(2), scored[0].ID)
	// 同分表单保持目录原顺序
	assert.Equal(t, uint(1), scored[1].ID)
	assert.Equal(t, uint(3), scored[2].ID)
	assert.GreaterOrEqual(t, scored[0].RelevanceScore, scored[1].RelevanceScore)
	assert.GreaterOrEqual(t, scored[1].RelevanceScore, scored[2].RelevanceScore)
}

func TestRecommenderScoreCapped(t *testing.T) {
	recommender := NewFormRecommender()

	forms := []FormRecord{{ID: 1, Name: "vacation leave holiday absence time off form", Category: "benefits"}}
	retrieved := make([]RetrievalResult, 6)
	for i := range retrieved {
		retrieved[i] = RetrievalResult{Chunk: RetrievedChunk{Metadata: ChunkMetadata{Category: "benefits"}}}
	}

	scored := recommender.Recommend("vacation leave holiday absence time off", forms, retrieved)
	require.Len(t, scored, 1)
	assert.Equal(t, 1.0, scored[0].RelevanceScore)
}
