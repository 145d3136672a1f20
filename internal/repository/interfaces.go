package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/hrhub/backend-go/internal/models"
)

// Repository 基础仓库接口
type Repository interface {
	GetDB() *gorm.DB
}

// PolicyRepository 政策仓库接口
type PolicyRepository interface {
	Repository
	Create(ctx context.Context, policy *models.Policy) error
	GetByID(ctx context.Context, id uint) (*models.Policy, error)
	List(ctx context.Context, category string, activeOnly bool, page, limit int) ([]models.Policy, int64, error)
	ListActive(ctx context.Context) ([]models.Policy, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}) error
	Delete(ctx context.Context, id uint) error

	ReplaceChunks(ctx context.Context, policyID uint, chunks []models.PolicyChunk) error
	GetChunks(ctx context.Context, policyID uint) ([]models.PolicyChunk, error)
}

// FormRepository 表单仓库接口
type FormRepository interface {
	Repository
	Create(ctx context.Context, form *models.Form) error
	GetByID(ctx context.Context, id uint) (*models.Form, error)
	List(ctx context.Context, category string, activeOnly bool) ([]models.Form, error)
	Search(ctx context.Context, keyword string) ([]models.Form, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}) error
	Delete(ctx context.Context, id uint) error

	LinkPolicy(ctx context.Context, link *models.PolicyForm) error
	UnlinkPolicy(ctx context.Context, policyID, formID uint) error
	GetByPolicyID(ctx context.Context, policyID uint) ([]models.Form, error)
}

// QueryRepository 问答记录仓库接口
type QueryRepository interface {
	Repository
	Create(ctx context.Context, record *models.QueryRecord) error
	GetByID(ctx context.Context, id uint) (*models.QueryRecord, error)
	GetHistory(ctx context.Context, userID string, limit int) ([]models.QueryRecord, error)
	SaveFeedback(ctx context.Context, feedback *models.QueryFeedback) error
	SaveSuggestedForms(ctx context.Context, forms []models.QueryForm) error

	CountSince(ctx context.Context, since time.Time) (int64, error)
	AverageConfidence(ctx context.Context) (float64, error)
	AverageResponseTime(ctx context.Context) (float64, error)
	CountLowConfidence(ctx context.Context, threshold float64) (int64, error)
	Recent(ctx context.Context, limit int) ([]models.QueryRecord, error)
	FeedbackStats(ctx context.Context) (total int64, helpful int64, avgRating float64, err error)
}

// UserRepository 用户仓库接口
type UserRepository interface {
	Repository
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmployeeID(ctx context.Context, employeeID string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, page, limit int) ([]models.User, int64, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}) error
}
