package knowledge

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/hrhub/backend-go/internal/errors"
	"github.com/hrhub/backend-go/internal/logger"
)

// PolicyDocument 待入库的政策文档
type PolicyDocument struct {
	PolicyID    uint
	Title       string
	Category    string
	Description string
	FilePath    string
}

// Ingestor 文档入库流水线
//
// 解析、分块、向量化后批量写入索引。单文档写入是原子的，
// 任一片段向量化失败则整个文档不写入。
type Ingestor struct {
	parsers  *ParserRegistry
	chunker  *SectionChunker
	embedder Embedder
	store    VectorStore
}

// NewIngestor 创建入库流水线
func NewIngestor(parsers *ParserRegistry, chunker *SectionChunker, embedder Embedder, store VectorStore) *Ingestor {
	return &Ingestor{
		parsers:  parsers,
		chunker:  chunker,
		embedder: embedder,
		store:    store,
	}
}

// IngestDocument 解析文件并写入向量索引，返回写入的片段数
func (in *Ingestor) IngestDocument(ctx context.Context, doc PolicyDocument) (int, error) {
	text, err := in.parsers.ParsePath(doc.FilePath)
	if err != nil {
		return 0, err
	}
	return in.IngestText(ctx, doc, text)
}

// IngestText 将已提取的文本分块向量化后写入索引
func (in *Ingestor) IngestText(ctx context.Context, doc PolicyDocument, text string) (int, error) {
	entries, err := in.BuildEntries(ctx, doc, text)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		logger.Warn("document produced no indexable chunks",
			zap.Uint("policy_id", doc.PolicyID),
			zap.String("title", doc.Title))
		return 0, nil
	}

	if err := in.store.Upsert(ctx, entries); err != nil {
		return 0, apperrors.NewIndexUnavailable(err)
	}

	logger.Info("document indexed",
		zap.Uint("policy_id", doc.PolicyID),
		zap.String("title", doc.Title),
		zap.Int("chunks", len(entries)))
	return len(entries), nil
}

// BuildEntries 分块并向量化，不写入索引
//
// 全部片段向量化成功后才返回，供重建索引时聚合多文档条目复用。
func (in *Ingestor) BuildEntries(ctx context.Context, doc PolicyDocument, text string) ([]IndexEntry, error) {
	chunks := in.chunker.Chunk(text)
	if len(chunks) == 0 {
		return nil, nil
	}

	want := in.embedder.Dimensions()
	entries := make([]IndexEntry, 0, len(chunks))
	for _, chunk := range chunks {
		vector, err := in.embedder.Embed(ctx, chunk.Content)
		if err != nil {
			return nil, apperrors.NewModelCallFailure(err)
		}
		if want > 0 && len(vector) != want {
			return nil, apperrors.NewDimensionMismatch(want, len(vector))
		}

		entries = append(entries, IndexEntry{
			EmbeddingID: uuid.NewString(),
			Vector:      vector,
			Content:     chunk.Content,
			Metadata: ChunkMetadata{
				PolicyID:    doc.PolicyID,
				Title:       doc.Title,
				Category:    doc.Category,
				Description: doc.Description,
				Section:     chunk.Section,
				Subsection:  chunk.Subsection,
				ChunkIndex:  chunk.Index,
				SourcePath:  doc.FilePath,
			},
		})
	}
	return entries, nil
}

// RemovePolicy 删除某政策的全部索引条目
func (in *Ingestor) RemovePolicy(ctx context.Context, policyID uint) error {
	if err := in.store.DeletePolicy(ctx, policyID); err != nil {
		return apperrors.NewIndexUnavailable(err)
	}
	return nil
}
