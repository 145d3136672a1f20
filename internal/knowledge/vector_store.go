package knowledge

import "context"

// ChunkMetadata 入库块的元数据
type ChunkMetadata struct {
	PolicyID    uint   `json:"policy_id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Section     string `json:"section,omitempty"`
	Subsection  string `json:"subsection,omitempty"`
	ChunkIndex  int    `json:"chunk_index"`
	SourcePath  string `json:"source_path,omitempty"`
}

// IndexEntry 向量索引条目
// 条目不可原地修改，更新等价于删除后重新插入。
type IndexEntry struct {
	EmbeddingID string
	Vector      []float32
	Metadata    ChunkMetadata
	Content     string
}

// VectorMatch 向量检索命中结果
type VectorMatch struct {
	EmbeddingID string
	Content     string
	Metadata    ChunkMetadata
	Distance    float64
}

// VectorStore 向量存储抽象
//
// Query 结果按距离升序排列，距离相同时按插入顺序。
// 空索引查询返回空结果而非错误。
// Rebuild 在新集合中构建后原子切换，失败时保留旧集合。
type VectorStore interface {
	Upsert(ctx context.Context, entries []IndexEntry) error
	DeletePolicy(ctx context.Context, policyID uint) error
	Rebuild(ctx context.Context, entries []IndexEntry) error
	Query(ctx context.Context, vector []float32, topK int, category string) ([]VectorMatch, error)
	Ready() bool
}
