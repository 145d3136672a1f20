package knowledge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hrhub/backend-go/internal/errors"
)

// flakyEmbedder 在指定次数调用后开始失败
type flakyEmbedder struct {
	vector    []float32
	failAfter int
	calls     int
}

func (f *flakyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.failAfter > 0 && f.calls > f.failAfter {
		return nil, errors.New("embedding service unavailable")
	}
	return f.vector, nil
}

func (f *flakyEmbedder) Dimensions() int { return len(f.vector) }
func (f *flakyEmbedder) Ready() bool     { return true }

// wrongWidthEmbedder 声明的维度与实际返回不一致
type wrongWidthEmbedder struct{}

func (w *wrongWidthEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 2, 3}, nil
}

func (w *wrongWidthEmbedder) Dimensions() int { return 8 }
func (w *wrongWidthEmbedder) Ready() bool     { return true }

func ingestFixtureText() string {
	return `1. Leave Policy
Employees accrue one and a half days of paid leave per month of continuous service with the company.

2. Expense Policy
All business expenses require itemized receipts and must be submitted within thirty days of purchase.`
}

func newTestIngestor(embedder Embedder, store VectorStore) *Ingestor {
	return NewIngestor(NewParserRegistry(), NewSectionChunker(50, 1000, 800), embedder, store)
}

func TestIngestorUnsupportedFormat(t *testing.T) {
	ingestor := newTestIngestor(&stubEmbedder{vector: []float32{1, 0}}, NewMemoryVectorStore())

	_, err := ingestor.IngestDocument(context.Background(), PolicyDocument{
		PolicyID: 1,
		Title:    "Handbook",
		FilePath: "/tmp/handbook.txt",
	})

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnsupportedFormat))
}

func TestIngestorIndexesAllChunks(t *testing.T) {
	store := NewMemoryVectorStore()
	ingestor := newTestIngestor(&stubEmbedder{vector: []float32{1, 0}}, store)

	doc := PolicyDocument{
		PolicyID:    7,
		Title:       "Employee Handbook",
		Category:    "benefits",
		Description: "General HR policies",
		FilePath:    "/uploads/handbook.pdf",
	}

	count, err := ingestor.IngestText(context.Background(), doc, ingestFixtureText())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	matches, err := store.Query(context.Background(), []float32{1, 0}, 10, "")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, match := range matches {
		assert.Equal(t, uint(7), match.Metadata.PolicyID)
		assert.Equal(t, "Employee Handbook", match.Metadata.Title)
		assert.Equal(t, "benefits", match.Metadata.Category)
		assert.NotEmpty(t, match.EmbeddingID)
	}
}

func TestIngestorAtomicOnEmbedFailure(t *testing.T) {
	store := NewMemoryVectorStore()
	// 第一个片段成功，第二个片段失败，整个文档不得入库
	embedder := &flakyEmbedder{vector: []float32{1, 0}, failAfter: 1}
	ingestor := newTestIngestor(embedder, store)

	_, err := ingestor.IngestText(context.Background(), PolicyDocument{PolicyID: 1, Title: "Handbook"}, ingestFixtureText())

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeModelCallFailure))

	matches, qerr := store.Query(context.Background(), []float32{1, 0}, 10, "")
	require.NoError(t, qerr)
	assert.Empty(t, matches)
}

func TestIngestorDimensionMismatch(t *testing.T) {
	store := NewMemoryVectorStore()
	ingestor := newTestIngestor(&wrongWidthEmbedder{}, store)

	_, err := ingestor.IngestText(context.Background(), PolicyDocument{PolicyID: 1, Title: "Handbook"}, ingestFixtureText())

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDimensionMismatch))

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Message, "8")
	assert.Contains(t, appErr.Message, "3")

	matches, qerr := store.Query(context.Background(), []float32{1, 1, 1}, 10, "")
	require.NoError(t, qerr)
	assert.Empty(t, matches)
}

func TestIngestorEmptyTextNoChunks(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{1, 0}}
	ingestor := newTestIngestor(embedder, NewMemoryVectorStore())

	count, err := ingestor.IngestText(context.Background(), PolicyDocument{PolicyID: 1}, "   ")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, embedder.calls)
}

func TestIngestorRemovePolicy(t *testing.T) {
	store := NewMemoryVectorStore()
	ingestor := newTestIngestor(&stubEmbedder{vector: []float32{1, 0}}, store)

	_, err := ingestor.IngestText(context.Background(), PolicyDocument{PolicyID: 3, Title: "Old Policy"}, ingestFixtureText())
	require.NoError(t, err)

	require.NoError(t, ingestor.RemovePolicy(context.Background(), 3))

	matches, err := store.Query(context.Background(), []float32{1, 0}, 10, "")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestParserRegistryParsePath(t *testing.T) {
	registry := NewParserRegistry()

	// 不支持的扩展名在打开文件之前即失败，文件不存在也不影响判定
	_, err := registry.ParsePath("/nonexistent/handbook.txt")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnsupportedFormat))

	// 受支持的扩展名才会走到文件读取
	_, err = registry.ParsePath("/nonexistent/handbook.pdf")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeExtractionError))
}

func TestParserRegistrySupportedFormats(t *testing.T) {
	registry := NewParserRegistry()

	assert.ElementsMatch(t, []string{".pdf", ".docx"}, registry.SupportedFormats())
	assert.True(t, registry.Supports("Handbook.PDF"))
	assert.True(t, registry.Supports("policy.docx"))
	assert.False(t, registry.Supports("legacy.doc"))
	assert.False(t, registry.Supports("notes.txt"))
	assert.False(t, registry.Supports(strings.Repeat("x", 10)))
}
