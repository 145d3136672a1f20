package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/hrhub/backend-go/internal/models"
)

// queryRepository 问答记录仓库实现
type queryRepository struct {
	db *gorm.DB
}

// NewQueryRepository 创建问答记录仓库
func NewQueryRepository(db *gorm.DB) QueryRepository {
	return &queryRepository{db: db}
}

func (r *queryRepository) GetDB() *gorm.DB {
	return r.db
}

// Create 保存问答记录
func (r *queryRepository) Create(ctx context.Context, record *models.QueryRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// GetByID 根据ID获取问答记录
func (r *queryRepository) GetByID(ctx context.Context, id uint) (*models.QueryRecord, error) {
	var record models.QueryRecord
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// GetHistory 获取用户最近的问答记录
func (r *queryRepository) GetHistory(ctx context.Context, userID string, limit int) ([]models.QueryRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	var records []models.QueryRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("create_time DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// SaveFeedback 保存问答反馈
func (r *queryRepository) SaveFeedback(ctx context.Context, feedback *models.QueryFeedback) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}

// SaveSuggestedForms 保存推荐表单记录
func (r *queryRepository) SaveSuggestedForms(ctx context.Context, forms []models.QueryForm) error {
	if len(forms) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&forms).Error
}

// CountSince 统计某时间之后的提问数
func (r *queryRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.QueryRecord{}).
		Where("create_time >= ?", since).
		Count(&count).Error
	return count, err
}

// AverageConfidence 计算全部回答的平均置信度
func (r *queryRepository) AverageConfidence(ctx context.Context) (float64, error) {
	var avg *float64
	err := r.db.WithContext(ctx).
		Model(&models.QueryRecord{}).
		Select("AVG(confidence_score)").
		Scan(&avg).Error
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

// AverageResponseTime 计算平均响应耗时（毫秒）
func (r *queryRepository) AverageResponseTime(ctx context.Context) (float64, error) {
	var avg *float64
	err := r.db.WithContext(ctx).
		Model(&models.QueryRecord{}).
		Select("AVG(response_time_ms)").
		Scan(&avg).Error
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

// CountLowConfidence 统计置信度低于阈值的回答数
func (r *queryRepository) CountLowConfidence(ctx context.Context, threshold float64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.QueryRecord{}).
		Where("confidence_score < ?", threshold).
		Count(&count).Error
	return count, err
}

// Recent 获取最近的问答记录
func (r *queryRepository) Recent(ctx context.Context, limit int) ([]models.QueryRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	var records []models.QueryRecord
	err := r.db.WithContext(ctx).
		Order("create_time DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// FeedbackStats 统计反馈总量、有用数与平均评分
func (r *queryRepository) FeedbackStats(ctx context.Context) (total int64, helpful int64, avgRating float64, err error) {
	db := r.db.WithContext(ctx).Model(&models.QueryFeedback{})

	if err = db.Count(&total).Error; err != nil {
		return
	}
	if err = r.db.WithContext(ctx).
		Model(&models.QueryFeedback{}).
		Where("is_helpful = ?", true).
		Count(&helpful).Error; err != nil {
		return
	}

	var avg *float64
	if err = r.db.WithContext(ctx).
		Model(&models.QueryFeedback{}).
		Select("AVG(rating)").
		Scan(&avg).Error; err != nil {
		return
	}
	if avg != nil {
		avgRating = *avg
	}
	return
}
