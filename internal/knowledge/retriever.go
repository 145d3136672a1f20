package knowledge

import (
	"context"

	"go.uber.org/zap"

	apperrors "github.com/hrhub/backend-go/internal/errors"
	"github.com/hrhub/backend-go/internal/logger"
)

// RetrievedChunk 召回的政策片段
type RetrievedChunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// RetrievalResult 单条检索结果
type RetrievalResult struct {
	Chunk      RetrievedChunk `json:"chunk"`
	Similarity float64        `json:"similarity"`
	Rank       int            `json:"rank"`
}

// Retriever 语义检索服务
//
// 将问题向量化后在向量索引中做近邻搜索，
// 相似度 = clamp(1 - 距离, 0, 1)。
type Retriever struct {
	embedder Embedder
	store    VectorStore
	topK     int
}

// NewRetriever 创建检索服务
func NewRetriever(embedder Embedder, store VectorStore, topK int) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{
		embedder: embedder,
		store:    store,
		topK:     topK,
	}
}

// Retrieve 检索与问题最相关的政策片段
//
// category 非空时只在该分类内检索。索引不可用时返回 IndexUnavailable，
// 空索引返回空结果。
func (r *Retriever) Retrieve(ctx context.Context, question string, category string) ([]RetrievalResult, error) {
	vector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, apperrors.NewModelCallFailure(err)
	}
	if len(vector) == 0 {
		return []RetrievalResult{}, nil
	}

	matches, err := r.store.Query(ctx, vector, r.topK, category)
	if err != nil {
		logger.Error("vector store query failed", zap.Error(err))
		return nil, apperrors.NewIndexUnavailable(err)
	}

	results := make([]RetrievalResult, 0, len(matches))
	for i, match := range matches {
		results = append(results, RetrievalResult{
			Chunk: RetrievedChunk{
				Content:  match.Content,
				Metadata: match.Metadata,
			},
			Similarity: clampSimilarity(1 - match.Distance),
			Rank:       i + 1,
		})
	}
	return results, nil
}

func clampSimilarity(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
