package knowledge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubChatClient 记录调用次数的测试对话客户端
type stubChatClient struct {
	answer     string
	err        error
	calls      int
	lastPrompt string
}

func (s *stubChatClient) Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	s.calls++
	s.lastPrompt = userPrompt
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func (s *stubChatClient) Ready() bool { return true }

func retrievedFixture() []RetrievalResult {
	return []RetrievalResult{
		{
			Chunk: RetrievedChunk{
				Content: "Employees accrue 1.5 days of paid leave per month.",
				Metadata: ChunkMetadata{
					Title:      "Leave Policy",
					Section:    "3. Paid Time Off",
					Subsection: "Part 2",
					Category:   "benefits",
				},
			},
			Similarity: 0.82,
			Rank:       1,
		},
	}
}

func TestComposerEmptyRetrievalSkipsModel(t *testing.T) {
	chat := &stubChatClient{answer: "should not be used"}
	composer := NewAnswerComposer(chat)

	result := composer.Compose(context.Background(), "how much leave do I get", nil, "")

	assert.Equal(t, NoResultsAnswer, result.Answer)
	assert.Equal(t, 0.0, result.Confidence)
	assert.False(t, result.Degraded)
	assert.Equal(t, 0, chat.calls)
}

func TestComposerModelFailureDegrades(t *testing.T) {
	chat := &stubChatClient{err: errors.New("upstream timeout")}
	composer := NewAnswerComposer(chat)

	result := composer.Compose(context.Background(), "how much leave do I get", retrievedFixture(), "")

	assert.Equal(t, DegradedAnswer, result.Answer)
	assert.Equal(t, 0.0, result.Confidence)
	assert.True(t, result.Degraded)
	assert.Equal(t, 1, chat.calls)
}

func TestComposerConfidenceFromLength(t *testing.T) {
	cases := []struct {
		answer     string
		confidence float64
	}{
		{strings.Repeat("a", 10), 0.1},
		{strings.Repeat("a", 100), 0.5},
		{strings.Repeat("a", 200), 0.9},
		{strings.Repeat("a", 500), 0.9},
	}

	for _, tc := range cases {
		chat := &stubChatClient{answer: tc.answer}
		composer := NewAnswerComposer(chat)

		result := composer.Compose(context.Background(), "q", retrievedFixture(), "")
		assert.InDelta(t, tc.confidence, result.Confidence, 1e-9)
		assert.False(t, result.Degraded)
	}
}

func TestComposerPromptContainsContext(t *testing.T) {
	chat := &stubChatClient{answer: "You accrue 1.5 days per month."}
	composer := NewAnswerComposer(chat)

	composer.Compose(context.Background(), "how much leave do I get", retrievedFixture(), "employee is full time")

	assert.Contains(t, chat.lastPrompt, "Source: Leave Policy")
	assert.Contains(t, chat.lastPrompt, "Section: 3. Paid Time Off - Part 2")
	assert.Contains(t, chat.lastPrompt, "Content: Employees accrue 1.5 days")
	assert.Contains(t, chat.lastPrompt, "Additional Context: employee is full time")
	assert.Contains(t, chat.lastPrompt, "Question: how much leave do I get")
}

func TestComposerContextBlockSeparator(t *testing.T) {
	retrieved := append(retrievedFixture(), RetrievalResult{
		Chunk: RetrievedChunk{
			Content:  "Unused leave does not roll over between years.",
			Metadata: ChunkMetadata{Title: "Leave Policy"},
		},
		Similarity: 0.6,
		Rank:       2,
	})

	block := buildContextBlock(retrieved, "")
	assert.Equal(t, 2, strings.Count(block, "Source: Leave Policy"))
	assert.Contains(t, block, "\n---\n")
	// 无章节信息时不输出Section行
	parts := strings.Split(block, "\n---\n")
	require.Len(t, parts, 2)
	assert.NotContains(t, parts[1], "Section:")
}
