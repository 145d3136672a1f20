package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hrhub/backend-go/internal/errors"
)

// stubEmbedder 返回固定向量的测试向量化器
type stubEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.vector, nil
}

func (s *stubEmbedder) Dimensions() int { return len(s.vector) }
func (s *stubEmbedder) Ready() bool     { return true }

// stubVectorStore 返回预置结果的测试存储
type stubVectorStore struct {
	matches      []VectorMatch
	err          error
	lastTopK     int
	lastCategory string
}

func (s *stubVectorStore) Upsert(ctx context.Context, entries []IndexEntry) error { return nil }
func (s *stubVectorStore) DeletePolicy(ctx context.Context, policyID uint) error  { return nil }
func (s *stubVectorStore) Rebuild(ctx context.Context, entries []IndexEntry) error {
	return nil
}
func (s *stubVectorStore) Ready() bool { return true }

func (s *stubVectorStore) Query(ctx context.Context, vector []float32, topK int, category string) ([]VectorMatch, error) {
	s.lastTopK = topK
	s.lastCategory = category
	if s.err != nil {
		return nil, s.err
	}
	return s.matches, nil
}

func TestRetrieverSimilarityFromDistance(t *testing.T) {
	store := &stubVectorStore{
		matches: []VectorMatch{
			{EmbeddingID: "a", Distance: 0.2},
			{EmbeddingID: "b", Distance: 0.7},
		},
	}
	retriever := NewRetriever(&stubEmbedder{vector: []float32{1, 0}}, store, 5)

	results, err := retriever.Retrieve(context.Background(), "vacation policy", "")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.InDelta(t, 0.8, results[0].Similarity, 1e-9)
	assert.InDelta(t, 0.3, results[1].Similarity, 1e-9)
	assert.Equal(t, 1, results[0].Rank)
	assert.Equal(t, 2, results[1].Rank)
}

func TestRetrieverClampsSimilarity(t *testing.T) {
	// 负距离和超过1的距离都被钳制到[0,1]
	store := &stubVectorStore{
		matches: []VectorMatch{
			{EmbeddingID: "over", Distance: -0.5},
			{EmbeddingID: "under", Distance: 1.8},
		},
	}
	retriever := NewRetriever(&stubEmbedder{vector: []float32{1, 0}}, store, 5)

	results, err := retriever.Retrieve(context.Background(), "q", "")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1.0, results[0].Similarity)
	assert.Equal(t, 0.0, results[1].Similarity)
}

func TestRetrieverPassesCategoryFilter(t *testing.T) {
	store := &stubVectorStore{}
	embedder := &stubEmbedder{vector: []float32{1, 0}}
	retriever := NewRetriever(embedder, store, 7)

	_, err := retriever.Retrieve(context.Background(), "dress code", "conduct")
	require.NoError(t, err)
	assert.Equal(t, 7, store.lastTopK)
	assert.Equal(t, "conduct", store.lastCategory)
	assert.Equal(t, 1, embedder.calls)
}

func TestRetrieverEmptyIndex(t *testing.T) {
	retriever := NewRetriever(&stubEmbedder{vector: []float32{1, 0}}, &stubVectorStore{}, 5)

	results, err := retriever.Retrieve(context.Background(), "anything", "")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieverIndexUnavailable(t *testing.T) {
	store := &stubVectorStore{err: errors.New("connection refused")}
	retriever := NewRetriever(&stubEmbedder{vector: []float32{1, 0}}, store, 5)

	_, err := retriever.Retrieve(context.Background(), "q", "")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeIndexUnavailable))
}

func TestRetrieverEmbedFailure(t *testing.T) {
	embedder := &stubEmbedder{err: errors.New("rate limited")}
	retriever := NewRetriever(embedder, &stubVectorStore{}, 5)

	_, err := retriever.Retrieve(context.Background(), "q", "")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeModelCallFailure))
}
