package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrhub/backend-go/internal/models"
)

func TestAnalyticsUsageStats(t *testing.T) {
	queryRepo := &queryRepoStub{}
	for i := 0; i < 4; i++ {
		require.NoError(t, queryRepo.Create(context.Background(), &models.QueryRecord{
			Question: "q", UserID: "emp-001", ConfidenceScore: 0.5,
		}))
	}

	svc := NewAnalyticsService(queryRepo)
	stats, err := svc.GetUsageStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.TotalQueries)
	assert.Equal(t, 0.0, stats.LowConfidenceRate)
}

func TestAnalyticsFeedbackSummaryEmpty(t *testing.T) {
	svc := NewAnalyticsService(&queryRepoStub{})

	summary, err := svc.GetFeedbackSummary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.TotalFeedback)
	assert.Zero(t, summary.HelpfulRate)
}

func TestFormServiceSearchFallsBackToList(t *testing.T) {
	repo := &formRepoStub{forms: ptoFormCatalog()}
	svc := NewFormService(repo)

	// 空关键字等价于列出全部启用表单
	forms, err := svc.Search(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, forms, 2)
}
