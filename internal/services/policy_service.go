package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/hrhub/backend-go/internal/errors"
	"github.com/hrhub/backend-go/internal/knowledge"
	"github.com/hrhub/backend-go/internal/logger"
	"github.com/hrhub/backend-go/internal/metrics"
	"github.com/hrhub/backend-go/internal/models"
	"github.com/hrhub/backend-go/internal/repository"
	"github.com/hrhub/backend-go/internal/storage"
)

// CreatePolicyRequest 创建政策请求
type CreatePolicyRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Category    string `json:"category" validate:"required,max=100"`
	Description string `json:"description" validate:"max=2000"`
	Content     string `json:"content"`
}

// UpdatePolicyRequest 更新政策请求
type UpdatePolicyRequest struct {
	Title       string  `json:"title" validate:"max=255"`
	Category    string  `json:"category" validate:"max=100"`
	Description string  `json:"description" validate:"max=2000"`
	Content     *string `json:"content"`
	IsActive    *bool   `json:"is_active"`
}

// PolicyService 政策文档服务
//
// 负责政策的增删改查、文档上传入库和索引重建。
type PolicyService struct {
	policyRepo repository.PolicyRepository
	ingestor   *knowledge.Ingestor
	store      knowledge.VectorStore
	parsers    *knowledge.ParserRegistry
	chunker    *knowledge.SectionChunker
	minio      *storage.MinIOService
	uploadDir  string
}

// NewPolicyService 创建政策服务
func NewPolicyService(
	policyRepo repository.PolicyRepository,
	ingestor *knowledge.Ingestor,
	store knowledge.VectorStore,
	parsers *knowledge.ParserRegistry,
	chunker *knowledge.SectionChunker,
	minio *storage.MinIOService,
	uploadDir string,
) *PolicyService {
	if uploadDir == "" {
		uploadDir = os.TempDir()
	}
	return &PolicyService{
		policyRepo: policyRepo,
		ingestor:   ingestor,
		store:      store,
		parsers:    parsers,
		chunker:    chunker,
		minio:      minio,
		uploadDir:  uploadDir,
	}
}

// Create 创建纯文本政策并入库
func (s *PolicyService) Create(ctx context.Context, req CreatePolicyRequest) (*models.Policy, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	policy := &models.Policy{
		Title:       req.Title,
		Category:    req.Category,
		Description: req.Description,
		Content:     req.Content,
		Version:     "1.0",
		IsActive:    true,
	}
	if err := s.policyRepo.Create(ctx, policy); err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to create policy").WithCause(err)
	}

	if req.Content != "" {
		if err := s.indexPolicy(ctx, policy, req.Content); err != nil {
			return nil, err
		}
	}
	return policy, nil
}

// Upload 上传政策文档文件，提取文本后入库
//
// 单文档入库是原子的：任何阶段失败都不会留下部分索引。
func (s *PolicyService) Upload(ctx context.Context, req CreatePolicyRequest, file multipart.File, header *multipart.FileHeader) (*models.Policy, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	// 先校验扩展名，不支持的格式不落盘
	if !s.parsers.Supports(header.Filename) {
		return nil, apperrors.NewUnsupportedFormat(header.Filename)
	}

	localPath, err := s.saveUpload(file, header)
	if err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeInternalServer, "failed to save uploaded file").WithCause(err)
	}
	defer os.Remove(localPath)

	text, err := s.parsers.ParsePath(localPath)
	if err != nil {
		return nil, err
	}

	policy := &models.Policy{
		Title:       req.Title,
		Category:    req.Category,
		Description: req.Description,
		Content:     text,
		Version:     "1.0",
		IsActive:    true,
	}
	if err := s.policyRepo.Create(ctx, policy); err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to create policy").WithCause(err)
	}

	if s.minio != nil {
		objectKey := storage.PolicyObjectKey(policy.ID, header.Filename)
		if err := s.uploadOriginal(ctx, localPath, objectKey, header); err != nil {
			logger.Warn("failed to archive original document",
				zap.Uint("policy_id", policy.ID), zap.Error(err))
		} else {
			policy.FilePath = objectKey
			_ = s.policyRepo.Update(ctx, policy.ID, map[string]interface{}{"file_path": objectKey})
		}
	}

	if err := s.indexPolicy(ctx, policy, text); err != nil {
		return nil, err
	}
	return policy, nil
}

// indexPolicy 分块向量化写入索引，并同步分块记录到数据库
func (s *PolicyService) indexPolicy(ctx context.Context, policy *models.Policy, text string) error {
	doc := knowledge.PolicyDocument{
		PolicyID:    policy.ID,
		Title:       policy.Title,
		Category:    policy.Category,
		Description: policy.Description,
		FilePath:    policy.FilePath,
	}

	entries, err := s.ingestor.BuildEntries(ctx, doc, text)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		logger.Warn("policy produced no indexable chunks", zap.Uint("policy_id", policy.ID))
		return nil
	}

	if err := s.store.Upsert(ctx, entries); err != nil {
		return apperrors.NewIndexUnavailable(err)
	}

	chunks := make([]models.PolicyChunk, 0, len(entries))
	for _, entry := range entries {
		chunks = append(chunks, models.PolicyChunk{
			PolicyID:    policy.ID,
			Content:     entry.Content,
			Section:     entry.Metadata.Section,
			Subsection:  entry.Metadata.Subsection,
			ChunkIndex:  entry.Metadata.ChunkIndex,
			EmbeddingID: entry.EmbeddingID,
		})
	}
	if err := s.policyRepo.ReplaceChunks(ctx, policy.ID, chunks); err != nil {
		logger.Error("failed to persist chunk records", zap.Uint("policy_id", policy.ID), zap.Error(err))
	}

	metrics.DocumentsIndexedTotal.Inc()
	metrics.ChunksIndexedTotal.Add(float64(len(entries)))

	logger.Info("policy indexed",
		zap.Uint("policy_id", policy.ID),
		zap.String("title", policy.Title),
		zap.Int("chunks", len(entries)))
	return nil
}

func (s *PolicyService) saveUpload(file multipart.File, header *multipart.FileHeader) (string, error) {
	localPath := filepath.Join(s.uploadDir, fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(header.Filename)))

	dst, err := os.Create(localPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := dst.ReadFrom(file); err != nil {
		os.Remove(localPath)
		return "", err
	}
	return localPath, nil
}

func (s *PolicyService) uploadOriginal(ctx context.Context, localPath, objectKey string, header *multipart.FileHeader) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	return s.minio.UploadFile(ctx, objectKey, f, info.Size(), header.Header.Get("Content-Type"))
}

// Get 获取政策详情
func (s *PolicyService) Get(ctx context.Context, id uint) (*models.Policy, error) {
	policy, err := s.policyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewBusinessError(apperrors.ErrCodeNotFound, "policy not found").WithCause(err)
	}
	return policy, nil
}

// List 分页获取政策列表
func (s *PolicyService) List(ctx context.Context, category string, activeOnly bool, page, limit int) ([]models.Policy, int64, error) {
	return s.policyRepo.List(ctx, category, activeOnly, page, limit)
}

// Update 更新政策元信息，分类变化时重新入库
func (s *PolicyService) Update(ctx context.Context, id uint, req UpdatePolicyRequest) (*models.Policy, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	policy, err := s.policyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewBusinessError(apperrors.ErrCodeNotFound, "policy not found").WithCause(err)
	}

	updates := map[string]interface{}{}
	reindex := false
	if req.Title != "" && req.Title != policy.Title {
		updates["title"] = req.Title
		policy.Title = req.Title
		reindex = true
	}
	if req.Category != "" && req.Category != policy.Category {
		updates["category"] = req.Category
		policy.Category = req.Category
		reindex = true
	}
	if req.Description != "" && req.Description != policy.Description {
		updates["description"] = req.Description
		policy.Description = req.Description
		reindex = true
	}
	if req.Content != nil && *req.Content != policy.Content {
		updates["content"] = *req.Content
		policy.Content = *req.Content
		reindex = true
	}
	if req.IsActive != nil && *req.IsActive != policy.IsActive {
		updates["is_active"] = *req.IsActive
		policy.IsActive = *req.IsActive
	}

	if len(updates) == 0 {
		return policy, nil
	}
	if err := s.policyRepo.Update(ctx, id, updates); err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to update policy").WithCause(err)
	}

	// 索引里的元数据随分块一起存储，元信息变化需要重建该政策的条目
	if reindex && policy.IsActive && policy.Content != "" {
		if err := s.ingestor.RemovePolicy(ctx, id); err != nil {
			return nil, err
		}
		if err := s.indexPolicy(ctx, policy, policy.Content); err != nil {
			return nil, err
		}
	}
	if req.IsActive != nil && !*req.IsActive {
		if err := s.ingestor.RemovePolicy(ctx, id); err != nil {
			return nil, err
		}
	}
	return policy, nil
}

// Delete 删除政策及其全部索引条目
func (s *PolicyService) Delete(ctx context.Context, id uint) error {
	if _, err := s.policyRepo.GetByID(ctx, id); err != nil {
		return apperrors.NewBusinessError(apperrors.ErrCodeNotFound, "policy not found").WithCause(err)
	}

	if err := s.ingestor.RemovePolicy(ctx, id); err != nil {
		return err
	}
	if err := s.policyRepo.Delete(ctx, id); err != nil {
		return apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to delete policy").WithCause(err)
	}
	return nil
}

// ReindexAll 全量重建向量索引
//
// 在新集合中构建全部条目后原子切换，重建期间旧索引继续服务查询，
// 失败时旧索引保持不变。
func (s *PolicyService) ReindexAll(ctx context.Context) (int, error) {
	policies, err := s.policyRepo.ListActive(ctx)
	if err != nil {
		return 0, apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to list policies").WithCause(err)
	}

	var entries []knowledge.IndexEntry
	for i := range policies {
		policy := &policies[i]
		if policy.Content == "" {
			continue
		}
		doc := knowledge.PolicyDocument{
			PolicyID:    policy.ID,
			Title:       policy.Title,
			Category:    policy.Category,
			Description: policy.Description,
			FilePath:    policy.FilePath,
		}
		policyEntries, err := s.ingestor.BuildEntries(ctx, doc, policy.Content)
		if err != nil {
			return 0, err
		}
		entries = append(entries, policyEntries...)
	}

	if err := s.store.Rebuild(ctx, entries); err != nil {
		return 0, apperrors.NewIndexUnavailable(err)
	}

	// 切换成功后同步分块记录
	for i := range policies {
		policy := &policies[i]
		var chunks []models.PolicyChunk
		for _, entry := range entries {
			if entry.Metadata.PolicyID != policy.ID {
				continue
			}
			chunks = append(chunks, models.PolicyChunk{
				PolicyID:    policy.ID,
				Content:     entry.Content,
				Section:     entry.Metadata.Section,
				Subsection:  entry.Metadata.Subsection,
				ChunkIndex:  entry.Metadata.ChunkIndex,
				EmbeddingID: entry.EmbeddingID,
			})
		}
		if err := s.policyRepo.ReplaceChunks(ctx, policy.ID, chunks); err != nil {
			logger.Error("failed to sync chunk records after reindex",
				zap.Uint("policy_id", policy.ID), zap.Error(err))
		}
	}

	logger.Info("reindex completed",
		zap.Int("policies", len(policies)),
		zap.Int("entries", len(entries)))
	return len(entries), nil
}
