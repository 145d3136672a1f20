package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/hrhub/backend-go/internal/models"
)

// formRepository 表单仓库实现
type formRepository struct {
	db *gorm.DB
}

// NewFormRepository 创建表单仓库
func NewFormRepository(db *gorm.DB) FormRepository {
	return &formRepository{db: db}
}

func (r *formRepository) GetDB() *gorm.DB {
	return r.db
}

// Create 创建表单
func (r *formRepository) Create(ctx context.Context, form *models.Form) error {
	return r.db.WithContext(ctx).Create(form).Error
}

// GetByID 根据ID获取表单
func (r *formRepository) GetByID(ctx context.Context, id uint) (*models.Form, error) {
	var form models.Form
	if err := r.db.WithContext(ctx).First(&form, id).Error; err != nil {
		return nil, err
	}
	return &form, nil
}

// List 获取表单列表
func (r *formRepository) List(ctx context.Context, category string, activeOnly bool) ([]models.Form, error) {
	query := r.db.WithContext(ctx).Model(&models.Form{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var forms []models.Form
	if err := query.Order("id ASC").Find(&forms).Error; err != nil {
		return nil, err
	}
	return forms, nil
}

// Search 按名称和描述模糊检索启用的表单
func (r *formRepository) Search(ctx context.Context, keyword string) ([]models.Form, error) {
	pattern := "%" + keyword + "%"
	var forms []models.Form
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("name ILIKE ? OR description ILIKE ?", pattern, pattern).
		Order("id ASC").
		Find(&forms).Error
	if err != nil {
		return nil, err
	}
	return forms, nil
}

// Update 更新表单字段
func (r *formRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&models.Form{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Delete 删除表单及其政策关联
func (r *formRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("form_id = ?", id).Delete(&models.PolicyForm{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Form{}, id).Error
	})
}

// LinkPolicy 建立政策与表单的关联
func (r *formRepository) LinkPolicy(ctx context.Context, link *models.PolicyForm) error {
	return r.db.WithContext(ctx).Create(link).Error
}

// UnlinkPolicy 解除政策与表单的关联
func (r *formRepository) UnlinkPolicy(ctx context.Context, policyID, formID uint) error {
	return r.db.WithContext(ctx).
		Where("policy_id = ? AND form_id = ?", policyID, formID).
		Delete(&models.PolicyForm{}).Error
}

// GetByPolicyID 获取与政策关联的表单
func (r *formRepository) GetByPolicyID(ctx context.Context, policyID uint) ([]models.Form, error) {
	var forms []models.Form
	err := r.db.WithContext(ctx).
		Joins("JOIN policy_form ON policy_form.form_id = form.id").
		Where("policy_form.policy_id = ?", policyID).
		Find(&forms).Error
	if err != nil {
		return nil, err
	}
	return forms, nil
}
