package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hrhub/backend-go/internal/config"
	"github.com/hrhub/backend-go/internal/database"
	apperrors "github.com/hrhub/backend-go/internal/errors"
	"github.com/hrhub/backend-go/internal/logger"
	"github.com/hrhub/backend-go/internal/models"
	"github.com/hrhub/backend-go/internal/repository"
)

const formCacheKeyPrefix = "hrhub:forms:"

// CreateFormRequest 创建表单请求
type CreateFormRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"required,max=100"`
	FilePath    string `json:"file_path" validate:"max=500"`
	FileURL     string `json:"file_url" validate:"max=500"`
}

// UpdateFormRequest 更新表单请求
type UpdateFormRequest struct {
	Name        string `json:"name" validate:"max=255"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"max=100"`
	FileURL     string `json:"file_url" validate:"max=500"`
	IsActive    *bool  `json:"is_active"`
}

// FormService HR表单服务
//
// 表单目录读多写少，列表结果走Redis缓存，写操作统一失效。
type FormService struct {
	formRepo repository.FormRepository
	cache    *redis.Client
	cacheTTL time.Duration
}

// NewFormService 创建表单服务
func NewFormService(formRepo repository.FormRepository) *FormService {
	ttl := 300
	if config.AppConfig != nil && config.AppConfig.Redis.TTL > 0 {
		ttl = config.AppConfig.Redis.TTL
	}
	return &FormService{
		formRepo: formRepo,
		cache:    database.RedisClient,
		cacheTTL: time.Duration(ttl) * time.Second,
	}
}

// Create 创建表单
func (s *FormService) Create(ctx context.Context, req CreateFormRequest) (*models.Form, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	form := &models.Form{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		FilePath:    req.FilePath,
		FileURL:     req.FileURL,
		IsActive:    true,
	}
	if err := s.formRepo.Create(ctx, form); err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to create form").WithCause(err)
	}
	s.invalidateCache(ctx)
	return form, nil
}

// Get 获取表单详情
func (s *FormService) Get(ctx context.Context, id uint) (*models.Form, error) {
	form, err := s.formRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewBusinessError(apperrors.ErrCodeNotFound, "form not found").WithCause(err)
	}
	return form, nil
}

// List 获取表单列表，优先命中缓存
func (s *FormService) List(ctx context.Context, category string, activeOnly bool) ([]models.Form, error) {
	cacheKey := fmt.Sprintf("%s%s:%t", formCacheKeyPrefix, category, activeOnly)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var forms []models.Form
			if err := json.Unmarshal([]byte(cached), &forms); err == nil {
				return forms, nil
			}
		}
	}

	forms, err := s.formRepo.List(ctx, category, activeOnly)
	if err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to list forms").WithCause(err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(forms); err == nil {
			if err := s.cache.Set(ctx, cacheKey, data, s.cacheTTL).Err(); err != nil {
				logger.Warn("failed to cache form list", zap.Error(err))
			}
		}
	}
	return forms, nil
}

// Search 按关键字检索表单
func (s *FormService) Search(ctx context.Context, keyword string) ([]models.Form, error) {
	if keyword == "" {
		return s.List(ctx, "", true)
	}
	forms, err := s.formRepo.Search(ctx, keyword)
	if err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to search forms").WithCause(err)
	}
	return forms, nil
}

// Update 更新表单
func (s *FormService) Update(ctx context.Context, id uint, req UpdateFormRequest) (*models.Form, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}
	if _, err := s.formRepo.GetByID(ctx, id); err != nil {
		return nil, apperrors.NewBusinessError(apperrors.ErrCodeNotFound, "form not found").WithCause(err)
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Category != "" {
		updates["category"] = req.Category
	}
	if req.FileURL != "" {
		updates["file_url"] = req.FileURL
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) > 0 {
		if err := s.formRepo.Update(ctx, id, updates); err != nil {
			return nil, apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to update form").WithCause(err)
		}
		s.invalidateCache(ctx)
	}
	return s.formRepo.GetByID(ctx, id)
}

// Delete 删除表单
func (s *FormService) Delete(ctx context.Context, id uint) error {
	if _, err := s.formRepo.GetByID(ctx, id); err != nil {
		return apperrors.NewBusinessError(apperrors.ErrCodeNotFound, "form not found").WithCause(err)
	}
	if err := s.formRepo.Delete(ctx, id); err != nil {
		return apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to delete form").WithCause(err)
	}
	s.invalidateCache(ctx)
	return nil
}

// LinkPolicy 关联表单到政策
func (s *FormService) LinkPolicy(ctx context.Context, policyID, formID uint, relevance float64) error {
	if _, err := s.formRepo.GetByID(ctx, formID); err != nil {
		return apperrors.NewBusinessError(apperrors.ErrCodeNotFound, "form not found").WithCause(err)
	}
	if relevance <= 0 || relevance > 1 {
		relevance = 1.0
	}
	link := &models.PolicyForm{PolicyID: policyID, FormID: formID, RelevanceScore: relevance}
	if err := s.formRepo.LinkPolicy(ctx, link); err != nil {
		return apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to link form to policy").WithCause(err)
	}
	return nil
}

// UnlinkPolicy 解除表单与政策的关联
func (s *FormService) UnlinkPolicy(ctx context.Context, policyID, formID uint) error {
	if err := s.formRepo.UnlinkPolicy(ctx, policyID, formID); err != nil {
		return apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to unlink form").WithCause(err)
	}
	return nil
}

// GetByPolicy 获取政策关联的表单
func (s *FormService) GetByPolicy(ctx context.Context, policyID uint) ([]models.Form, error) {
	forms, err := s.formRepo.GetByPolicyID(ctx, policyID)
	if err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to get policy forms").WithCause(err)
	}
	return forms, nil
}

func (s *FormService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	iter := s.cache.Scan(ctx, 0, formCacheKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		if err := s.cache.Del(ctx, keys...).Err(); err != nil {
			logger.Warn("failed to invalidate form cache", zap.Error(err))
		}
	}
}
