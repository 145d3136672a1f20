package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/hrhub/backend-go/internal/models"
)

// policyRepository 政策仓库实现
type policyRepository struct {
	db *gorm.DB
}

// NewPolicyRepository 创建政策仓库
func NewPolicyRepository(db *gorm.DB) PolicyRepository {
	return &policyRepository{db: db}
}

func (r *policyRepository) GetDB() *gorm.DB {
	return r.db
}

// Create 创建政策
func (r *policyRepository) Create(ctx context.Context, policy *models.Policy) error {
	return r.db.WithContext(ctx).Create(policy).Error
}

// GetByID 根据ID获取政策
func (r *policyRepository) GetByID(ctx context.Context, id uint) (*models.Policy, error) {
	var policy models.Policy
	if err := r.db.WithContext(ctx).First(&policy, id).Error; err != nil {
		return nil, err
	}
	return &policy, nil
}

// List 分页获取政策列表
func (r *policyRepository) List(ctx context.Context, category string, activeOnly bool, page, limit int) ([]models.Policy, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	query := r.db.WithContext(ctx).Model(&models.Policy{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var policies []models.Policy
	err := query.Order("create_time DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&policies).Error
	if err != nil {
		return nil, 0, err
	}
	return policies, total, nil
}

// ListActive 获取全部启用的政策，用于索引重建
func (r *policyRepository) ListActive(ctx context.Context) ([]models.Policy, error) {
	var policies []models.Policy
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&policies).Error
	if err != nil {
		return nil, err
	}
	return policies, nil
}

// Update 更新政策字段
func (r *policyRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&models.Policy{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Delete 删除政策及其分块记录
func (r *policyRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("policy_id = ?", id).Delete(&models.PolicyChunk{}).Error; err != nil {
			return err
		}
		if err := tx.Where("policy_id = ?", id).Delete(&models.PolicyForm{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Policy{}, id).Error
	})
}

// ReplaceChunks 替换政策的全部分块记录
func (r *policyRepository) ReplaceChunks(ctx context.Context, policyID uint, chunks []models.PolicyChunk) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("policy_id = ?", policyID).Delete(&models.PolicyChunk{}).Error; err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}
		return tx.Create(&chunks).Error
	})
}

// GetChunks 获取政策的分块记录
func (r *policyRepository) GetChunks(ctx context.Context, policyID uint) ([]models.PolicyChunk, error) {
	var chunks []models.PolicyChunk
	err := r.db.WithContext(ctx).
		Where("policy_id = ?", policyID).
		Order("chunk_index ASC").
		Find(&chunks).Error
	if err != nil {
		return nil, err
	}
	return chunks, nil
}
