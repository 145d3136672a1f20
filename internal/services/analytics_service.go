package services

import (
	"context"
	"time"

	apperrors "github.com/hrhub/backend-go/internal/errors"
	"github.com/hrhub/backend-go/internal/models"
	"github.com/hrhub/backend-go/internal/repository"
)

// 低于该置信度的回答视为低质量
const lowConfidenceThreshold = 0.3

// UsageStats 问答使用统计
type UsageStats struct {
	TotalQueries       int64   `json:"total_queries"`
	QueriesToday       int64   `json:"queries_today"`
	QueriesThisWeek    int64   `json:"queries_this_week"`
	AverageConfidence  float64 `json:"average_confidence"`
	AverageResponseMs  float64 `json:"average_response_ms"`
	LowConfidenceCount int64   `json:"low_confidence_count"`
	LowConfidenceRate  float64 `json:"low_confidence_rate"`
}

// FeedbackSummary 反馈统计
type FeedbackSummary struct {
	TotalFeedback int64   `json:"total_feedback"`
	HelpfulCount  int64   `json:"helpful_count"`
	HelpfulRate   float64 `json:"helpful_rate"`
	AverageRating float64 `json:"average_rating"`
}

// AnalyticsService 统计分析服务
type AnalyticsService struct {
	queryRepo repository.QueryRepository
}

// NewAnalyticsService 创建统计服务
func NewAnalyticsService(queryRepo repository.QueryRepository) *AnalyticsService {
	return &AnalyticsService{queryRepo: queryRepo}
}

// GetUsageStats 获取问答量和平均置信度
func (s *AnalyticsService) GetUsageStats(ctx context.Context) (*UsageStats, error) {
	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := todayStart.AddDate(0, 0, -int(todayStart.Weekday()))

	total, err := s.queryRepo.CountSince(ctx, time.Time{})
	if err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to count queries").WithCause(err)
	}
	today, err := s.queryRepo.CountSince(ctx, todayStart)
	if err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to count queries").WithCause(err)
	}
	week, err := s.queryRepo.CountSince(ctx, weekStart)
	if err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to count queries").WithCause(err)
	}
	avgConfidence, err := s.queryRepo.AverageConfidence(ctx)
	if err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to compute confidence").WithCause(err)
	}
	avgResponse, err := s.queryRepo.AverageResponseTime(ctx)
	if err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to compute response time").WithCause(err)
	}
	lowConfidence, err := s.queryRepo.CountLowConfidence(ctx, lowConfidenceThreshold)
	if err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to count low confidence answers").WithCause(err)
	}

	stats := &UsageStats{
		TotalQueries:       total,
		QueriesToday:       today,
		QueriesThisWeek:    week,
		AverageConfidence:  avgConfidence,
		AverageResponseMs:  avgResponse,
		LowConfidenceCount: lowConfidence,
	}
	if total > 0 {
		stats.LowConfidenceRate = float64(lowConfidence) / float64(total)
	}
	return stats, nil
}

// GetRecentQueries 获取最近的问答记录
func (s *AnalyticsService) GetRecentQueries(ctx context.Context, limit int) ([]models.QueryRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	records, err := s.queryRepo.Recent(ctx, limit)
	if err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to load recent queries").WithCause(err)
	}
	return records, nil
}

// GetFeedbackSummary 获取反馈统计
func (s *AnalyticsService) GetFeedbackSummary(ctx context.Context) (*FeedbackSummary, error) {
	total, helpful, avgRating, err := s.queryRepo.FeedbackStats(ctx)
	if err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to compute feedback stats").WithCause(err)
	}

	summary := &FeedbackSummary{
		TotalFeedback: total,
		HelpfulCount:  helpful,
		AverageRating: avgRating,
	}
	if total > 0 {
		summary.HelpfulRate = float64(helpful) / float64(total)
	}
	return summary, nil
}
