package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"go.uber.org/zap"

	"github.com/hrhub/backend-go/internal/logger"
)

// MilvusOptions Milvus客户端配置
type MilvusOptions struct {
	Address    string
	Username   string
	Password   string
	Collection string
	VectorSize int
	Distance   string
	Database   string
	UseTLS     bool
	Timeout    time.Duration
}

type milvusVectorStore struct {
	milvusClient client.Client
	alias        string
	vectorSize   int
	distance     string
	database     string
}

// NewMilvusVectorStore 创建Milvus向量存储
//
// Collection 名称作为别名使用，实际集合带版本后缀，
// Rebuild 通过别名切换实现原子重建。
func NewMilvusVectorStore(opts MilvusOptions) (VectorStore, error) {
	if opts.Address == "" {
		opts.Address = "localhost:19530"
	}
	if opts.Collection == "" {
		opts.Collection = "hr_policy_chunks"
	}
	if opts.VectorSize == 0 {
		opts.VectorSize = 1536
	}
	if opts.Distance == "" {
		opts.Distance = "COSINE"
	}
	if opts.Database == "" {
		opts.Database = "default"
	}

	// 解析地址
	host := opts.Address
	port := "19530"
	if strings.Contains(opts.Address, ":") {
		parts := strings.Split(opts.Address, ":")
		host = parts[0]
		port = parts[1]
	}

	milvusClient, err := client.NewClient(
		context.Background(),
		client.Config{
			Address:       fmt.Sprintf("%s:%s", host, port),
			DBName:        opts.Database,
			Username:      opts.Username,
			Password:      opts.Password,
			EnableTLSAuth: opts.UseTLS,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	store := &milvusVectorStore{
		milvusClient: milvusClient,
		alias:        opts.Collection,
		vectorSize:   opts.VectorSize,
		distance:     formatMilvusDistance(opts.Distance),
		database:     opts.Database,
	}

	if err := store.ensureAlias(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func formatMilvusDistance(value string) string {
	switch strings.ToUpper(value) {
	case "DOT", "IP", "INNER_PRODUCT":
		return "IP"
	case "L2", "EUCLIDEAN":
		return "L2"
	default:
		return "COSINE"
	}
}

// ensureAlias 确保别名指向一个可用集合，首次启动时创建初始版本
func (s *milvusVectorStore) ensureAlias(ctx context.Context) error {
	hasCollection, err := s.milvusClient.HasCollection(ctx, s.alias)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if hasCollection {
		return nil
	}

	name, err := s.createVersionedCollection(ctx)
	if err != nil {
		return err
	}
	if err := s.milvusClient.CreateAlias(ctx, name, s.alias); err != nil {
		return fmt.Errorf("failed to create alias: %w", err)
	}
	return nil
}

// createVersionedCollection 创建带时间戳后缀的新集合并建索引加载
func (s *milvusVectorStore) createVersionedCollection(ctx context.Context) (string, error) {
	name := fmt.Sprintf("%s_v%d", s.alias, time.Now().UnixNano())

	schema := &entity.Schema{
		CollectionName: name,
		Description:    "HR policy document chunks",
		Fields: []*entity.Field{
			{
				Name:       "embedding_id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{"max_length": "64"},
			},
			{
				Name:     "policy_id",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:       "title",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "512"},
			},
			{
				Name:       "category",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "128"},
			},
			{
				Name:       "description",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "2048"},
			},
			{
				Name:       "section",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "512"},
			},
			{
				Name:       "subsection",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "128"},
			},
			{
				Name:     "chunk_index",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:       "source_path",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "1024"},
			},
			{
				Name:       "content",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "65535"},
			},
			{
				Name:       "vector",
				DataType:   entity.FieldTypeFloatVector,
				TypeParams: map[string]string{"dim": fmt.Sprintf("%d", s.vectorSize)},
			},
		},
	}

	if err := s.milvusClient.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return "", fmt.Errorf("failed to create collection: %w", err)
	}

	// 创建索引 - 根据距离类型选择索引
	var index entity.Index
	var indexErr error
	switch s.distance {
	case "COSINE":
		index, indexErr = entity.NewIndexHNSW(entity.COSINE, 8, 64)
	case "IP":
		index, indexErr = entity.NewIndexHNSW(entity.IP, 8, 64)
	default:
		index, indexErr = entity.NewIndexHNSW(entity.L2, 8, 64)
	}
	if indexErr != nil {
		// 如果HNSW失败，尝试使用IVF_FLAT
		switch s.distance {
		case "COSINE":
			index, indexErr = entity.NewIndexIvfFlat(entity.COSINE, 128)
		case "IP":
			index, indexErr = entity.NewIndexIvfFlat(entity.IP, 128)
		default:
			index, indexErr = entity.NewIndexIvfFlat(entity.L2, 128)
		}
		if indexErr != nil {
			return "", fmt.Errorf("failed to create index: %w", indexErr)
		}
	}

	if err := s.milvusClient.CreateIndex(ctx, name, "vector", index, false); err != nil {
		logger.Warn("failed to create index for collection", zap.String("collection", name), zap.Error(err))
	}

	if err := s.milvusClient.LoadCollection(ctx, name, false); err != nil {
		return "", fmt.Errorf("failed to load collection: %w", err)
	}

	return name, nil
}

func (s *milvusVectorStore) insert(ctx context.Context, collectionName string, entries []IndexEntry) error {
	ids := make([]string, 0, len(entries))
	policyIDs := make([]int64, 0, len(entries))
	titles := make([]string, 0, len(entries))
	categories := make([]string, 0, len(entries))
	descriptions := make([]string, 0, len(entries))
	sections := make([]string, 0, len(entries))
	subsections := make([]string, 0, len(entries))
	chunkIndexes := make([]int64, 0, len(entries))
	sourcePaths := make([]string, 0, len(entries))
	contents := make([]string, 0, len(entries))
	vectors := make([][]float32, 0, len(entries))

	for _, entry := range entries {
		if len(entry.Vector) != s.vectorSize {
			return fmt.Errorf("vector dimension mismatch: expected %d, got %d", s.vectorSize, len(entry.Vector))
		}
		ids = append(ids, entry.EmbeddingID)
		policyIDs = append(policyIDs, int64(entry.Metadata.PolicyID))
		titles = append(titles, entry.Metadata.Title)
		categories = append(categories, entry.Metadata.Category)
		descriptions = append(descriptions, entry.Metadata.Description)
		sections = append(sections, entry.Metadata.Section)
		subsections = append(subsections, entry.Metadata.Subsection)
		chunkIndexes = append(chunkIndexes, int64(entry.Metadata.ChunkIndex))
		sourcePaths = append(sourcePaths, entry.Metadata.SourcePath)
		contents = append(contents, entry.Content)
		vectors = append(vectors, entry.Vector)
	}

	_, err := s.milvusClient.Upsert(ctx, collectionName, "",
		entity.NewColumnVarChar("embedding_id", ids),
		entity.NewColumnInt64("policy_id", policyIDs),
		entity.NewColumnVarChar("title", titles),
		entity.NewColumnVarChar("category", categories),
		entity.NewColumnVarChar("description", descriptions),
		entity.NewColumnVarChar("section", sections),
		entity.NewColumnVarChar("subsection", subsections),
		entity.NewColumnInt64("chunk_index", chunkIndexes),
		entity.NewColumnVarChar("source_path", sourcePaths),
		entity.NewColumnVarChar("content", contents),
		entity.NewColumnFloatVector("vector", s.vectorSize, vectors),
	)
	if err != nil {
		return fmt.Errorf("milvus upsert failed: %w", err)
	}

	if err := s.milvusClient.Flush(ctx, collectionName, false); err != nil {
		logger.Warn("failed to flush collection", zap.String("collection", collectionName), zap.Error(err))
	}
	return nil
}

func (s *milvusVectorStore) Upsert(ctx context.Context, entries []IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return s.insert(ctx, s.alias, entries)
}

func (s *milvusVectorStore) DeletePolicy(ctx context.Context, policyID uint) error {
	expr := fmt.Sprintf("policy_id == %d", policyID)
	if err := s.milvusClient.Delete(ctx, s.alias, "", expr); err != nil {
		return fmt.Errorf("milvus delete failed: %w", err)
	}
	if err := s.milvusClient.Flush(ctx, s.alias, false); err != nil {
		logger.Warn("failed to flush after delete", zap.Error(err))
	}
	return nil
}

// Rebuild 在新集合中写入全量数据后切换别名，失败时旧集合不受影响
func (s *milvusVectorStore) Rebuild(ctx context.Context, entries []IndexEntry) error {
	name, err := s.createVersionedCollection(ctx)
	if err != nil {
		return err
	}

	if len(entries) > 0 {
		if err := s.insert(ctx, name, entries); err != nil {
			if dropErr := s.milvusClient.DropCollection(ctx, name); dropErr != nil {
				logger.Warn("failed to drop abandoned collection", zap.String("collection", name), zap.Error(dropErr))
			}
			return err
		}
	}

	// 记录旧集合以便切换后清理
	old, err := s.currentCollections(ctx)
	if err != nil {
		logger.Warn("failed to list collections before alias switch", zap.Error(err))
	}

	if err := s.milvusClient.AlterAlias(ctx, name, s.alias); err != nil {
		if dropErr := s.milvusClient.DropCollection(ctx, name); dropErr != nil {
			logger.Warn("failed to drop abandoned collection", zap.String("collection", name), zap.Error(dropErr))
		}
		return fmt.Errorf("failed to switch alias: %w", err)
	}

	for _, coll := range old {
		if coll == name {
			continue
		}
		if err := s.milvusClient.DropCollection(ctx, coll); err != nil {
			logger.Warn("failed to drop old collection", zap.String("collection", coll), zap.Error(err))
		}
	}
	return nil
}

// currentCollections 列出本别名前缀下的版本化集合
func (s *milvusVectorStore) currentCollections(ctx context.Context) ([]string, error) {
	collections, err := s.milvusClient.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	prefix := s.alias + "_v"
	names := make([]string, 0, len(collections))
	for _, coll := range collections {
		if strings.HasPrefix(coll.Name, prefix) {
			names = append(names, coll.Name)
		}
	}
	return names, nil
}

func (s *milvusVectorStore) Query(ctx context.Context, vector []float32, topK int, category string) ([]VectorMatch, error) {
	if len(vector) == 0 {
		return []VectorMatch{}, nil
	}
	if topK <= 0 {
		topK = 5
	}

	expr := ""
	if category != "" {
		expr = fmt.Sprintf("category == %q", category)
	}

	sp, _ := entity.NewIndexHNSWSearchParam(64)
	searchResults, err := s.milvusClient.Search(
		ctx,
		s.alias,
		[]string{},
		expr,
		[]string{"policy_id", "title", "category", "description", "section", "subsection", "chunk_index", "source_path", "content"},
		[]entity.Vector{entity.FloatVector(vector)},
		"vector",
		entity.MetricType(s.distance),
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("milvus search failed: %w", err)
	}

	if len(searchResults) == 0 {
		return []VectorMatch{}, nil
	}
	result := searchResults[0]
	if result.Err != nil {
		return nil, fmt.Errorf("milvus search error: %w", result.Err)
	}
	if result.ResultCount == 0 {
		return []VectorMatch{}, nil
	}

	var ids []string
	if idCol, ok := result.IDs.(*entity.ColumnVarChar); ok {
		ids = idCol.Data()
	}

	var policyIDs, chunkIndexes []int64
	var titles, categories, descriptions, sections, subsections, sourcePaths, contents []string
	for _, field := range result.Fields {
		switch field.Name() {
		case "policy_id":
			if val, ok := field.(*entity.ColumnInt64); ok {
				policyIDs = val.Data()
			}
		case "chunk_index":
			if val, ok := field.(*entity.ColumnInt64); ok {
				chunkIndexes = val.Data()
			}
		case "title":
			if val, ok := field.(*entity.ColumnVarChar); ok {
				titles = val.Data()
			}
		case "category":
			if val, ok := field.(*entity.ColumnVarChar); ok {
				categories = val.Data()
			}
		case "description":
			if val, ok := field.(*entity.ColumnVarChar); ok {
				descriptions = val.Data()
			}
		case "section":
			if val, ok := field.(*entity.ColumnVarChar); ok {
				sections = val.Data()
			}
		case "subsection":
			if val, ok := field.(*entity.ColumnVarChar); ok {
				subsections = val.Data()
			}
		case "source_path":
			if val, ok := field.(*entity.ColumnVarChar); ok {
				sourcePaths = val.Data()
			}
		case "content":
			if val, ok := field.(*entity.ColumnVarChar); ok {
				contents = val.Data()
			}
		}
	}

	at := func(values []string, i int) string {
		if i < len(values) {
			return values[i]
		}
		return ""
	}

	matches := make([]VectorMatch, 0, result.ResultCount)
	for i := 0; i < result.ResultCount; i++ {
		meta := ChunkMetadata{
			Title:       at(titles, i),
			Category:    at(categories, i),
			Description: at(descriptions, i),
			Section:     at(sections, i),
			Subsection:  at(subsections, i),
			SourcePath:  at(sourcePaths, i),
		}
		if i < len(policyIDs) {
			meta.PolicyID = uint(policyIDs[i])
		}
		if i < len(chunkIndexes) {
			meta.ChunkIndex = int(chunkIndexes[i])
		}

		// COSINE 度量返回相似度分值，统一转换为距离
		distance := float64(1)
		if i < len(result.Scores) {
			score := float64(result.Scores[i])
			if s.distance == "L2" {
				distance = score
			} else {
				distance = 1 - score
			}
		}

		matches = append(matches, VectorMatch{
			EmbeddingID: at(ids, i),
			Content:     at(contents, i),
			Metadata:    meta,
			Distance:    distance,
		})
	}

	return matches, nil
}

func (s *milvusVectorStore) Ready() bool {
	if s.milvusClient == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := s.milvusClient.ListCollections(ctx)
	return err == nil
}
