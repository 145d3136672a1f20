package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/hrhub/backend-go/internal/errors"
	"github.com/hrhub/backend-go/internal/kafka"
	"github.com/hrhub/backend-go/internal/knowledge"
	"github.com/hrhub/backend-go/internal/logger"
	"github.com/hrhub/backend-go/internal/metrics"
	"github.com/hrhub/backend-go/internal/models"
	"github.com/hrhub/backend-go/internal/repository"
)

// AskRequest 提问请求
type AskRequest struct {
	Question string `json:"question" validate:"required,min=1,max=1000"`
	UserID   string `json:"user_id" validate:"max=100"`
	Category string `json:"category" validate:"max=100"`
	Context  string `json:"context" validate:"max=2000"`
}

// FeedbackRequest 反馈请求
type FeedbackRequest struct {
	QueryID   uint   `json:"query_id" validate:"required"`
	Rating    int    `json:"rating" validate:"min=0,max=5"`
	IsHelpful bool   `json:"is_helpful"`
	Comments  string `json:"comments" validate:"max=2000"`
}

// SuggestedForm 推荐表单响应项
type SuggestedForm struct {
	ID             uint    `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Category       string  `json:"category"`
	FileURL        string  `json:"file_url"`
	RelevanceScore float64 `json:"relevance_score"`
}

// AnswerRecord 一次问答的完整结果
type AnswerRecord struct {
	QueryID         uint            `json:"query_id,omitempty"`
	Question        string          `json:"question"`
	Answer          string          `json:"answer"`
	ConfidenceScore float64         `json:"confidence_score"`
	Sources         []string        `json:"sources"`
	SuggestedForms  []SuggestedForm `json:"suggested_forms"`
	Degraded        bool            `json:"degraded,omitempty"`
	ResponseTimeMs  int             `json:"response_time_ms"`
}

// QueryService 问答编排服务
//
// 检索、生成、表单推荐组成一次问答。持久化与事件投递失败
// 不影响响应，索引不可用是唯一向调用方传播的错误。
type QueryService struct {
	retriever   *knowledge.Retriever
	composer    *knowledge.AnswerComposer
	recommender *knowledge.FormRecommender
	formRepo    repository.FormRepository
	queryRepo   repository.QueryRepository
	timeout     time.Duration
}

// NewQueryService 创建问答服务
func NewQueryService(
	retriever *knowledge.Retriever,
	composer *knowledge.AnswerComposer,
	recommender *knowledge.FormRecommender,
	formRepo repository.FormRepository,
	queryRepo repository.QueryRepository,
	timeout time.Duration,
) *QueryService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &QueryService{
		retriever:   retriever,
		composer:    composer,
		recommender: recommender,
		formRepo:    formRepo,
		queryRepo:   queryRepo,
		timeout:     timeout,
	}
}

// Ask 回答一个问题
func (s *QueryService) Ask(ctx context.Context, req AskRequest) (*AnswerRecord, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var composed knowledge.ComposedAnswer
	retrieved, err := s.retriever.Retrieve(ctx, req.Question, req.Category)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeIndexUnavailable) {
			metrics.QueriesTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		// 向量化等模型侧故障走降级回答，不向调用方抛错
		logger.Warn("retrieval failed, falling back to degraded answer", zap.Error(err))
		retrieved = nil
		composed = knowledge.ComposedAnswer{Answer: knowledge.DegradedAnswer, Degraded: true}
	} else {
		composed = s.composer.Compose(ctx, req.Question, retrieved, req.Context)
	}

	record := &AnswerRecord{
		Question:        req.Question,
		Answer:          composed.Answer,
		ConfidenceScore: composed.Confidence,
		Sources:         dedupSources(retrieved),
		SuggestedForms:  s.suggestForms(ctx, req.Question, retrieved),
		Degraded:        composed.Degraded,
	}
	record.ResponseTimeMs = int(time.Since(start).Milliseconds())

	s.persist(req.UserID, record)

	metrics.QueryDuration.Observe(time.Since(start).Seconds())
	metrics.QueriesTotal.WithLabelValues(queryStatus(retrieved, composed)).Inc()

	return record, nil
}

func queryStatus(retrieved []knowledge.RetrievalResult, composed knowledge.ComposedAnswer) string {
	switch {
	case composed.Degraded:
		return "degraded"
	case len(retrieved) == 0:
		return "no_results"
	default:
		return "ok"
	}
}

// dedupSources 去重来源标题，保持首次出现的顺序
func dedupSources(retrieved []knowledge.RetrievalResult) []string {
	seen := make(map[string]struct{}, len(retrieved))
	sources := make([]string, 0, len(retrieved))
	for _, result := range retrieved {
		title := result.Chunk.Metadata.Title
		if title == "" {
			continue
		}
		if _, ok := seen[title]; ok {
			continue
		}
		seen[title] = struct{}{}
		sources = append(sources, title)
	}
	return sources
}

func (s *QueryService) suggestForms(ctx context.Context, question string, retrieved []knowledge.RetrievalResult) []SuggestedForm {
	forms, err := s.formRepo.List(ctx, "", true)
	if err != nil {
		logger.Warn("failed to load form catalog", zap.Error(err))
		return []SuggestedForm{}
	}

	catalog := make([]knowledge.FormRecord, 0, len(forms))
	for _, form := range forms {
		catalog = append(catalog, knowledge.FormRecord{
			ID:          form.ID,
			Name:        form.Name,
			Description: form.Description,
			Category:    form.Category,
			FileURL:     form.FileURL,
		})
	}

	scored := s.recommender.Recommend(question, catalog, retrieved)
	suggested := make([]SuggestedForm, 0, len(scored))
	for _, sf := range scored {
		suggested = append(suggested, SuggestedForm{
			ID:             sf.ID,
			Name:           sf.Name,
			Description:    sf.Description,
			Category:       sf.Category,
			FileURL:        sf.FileURL,
			RelevanceScore: sf.RelevanceScore,
		})
	}
	return suggested
}

// persist 保存问答记录并投递事件
// 记录写入失败只会丢失query_id，不影响已生成的回答。
func (s *QueryService) persist(userID string, record *AnswerRecord) {
	dbCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	queryRecord := &models.QueryRecord{
		UserID:          userID,
		Question:        record.Question,
		Answer:          record.Answer,
		ConfidenceScore: record.ConfidenceScore,
		ResponseTimeMs:  record.ResponseTimeMs,
	}
	if err := s.queryRepo.Create(dbCtx, queryRecord); err != nil {
		logger.Error("failed to persist query record", zap.Error(err))
		return
	}
	record.QueryID = queryRecord.ID

	suggested := make([]models.QueryForm, 0, len(record.SuggestedForms))
	formIDs := make([]uint, 0, len(record.SuggestedForms))
	for _, form := range record.SuggestedForms {
		suggested = append(suggested, models.QueryForm{
			QueryID:        queryRecord.ID,
			FormID:         form.ID,
			RelevanceScore: form.RelevanceScore,
		})
		formIDs = append(formIDs, form.ID)
	}

	// 关联记录与事件投递异步完成，不阻塞响应
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.queryRepo.SaveSuggestedForms(ctx, suggested); err != nil {
			logger.Error("failed to persist suggested forms", zap.Error(err))
		}

		if err := kafka.SendQueryEvent(&kafka.QueryEventMessage{
			QueryID:         queryRecord.ID,
			UserID:          userID,
			Question:        record.Question,
			ConfidenceScore: record.ConfidenceScore,
			ResponseTimeMs:  record.ResponseTimeMs,
			Sources:         record.Sources,
			SuggestedForms:  formIDs,
			Degraded:        record.Degraded,
		}); err != nil {
			logger.Warn("failed to send query event", zap.Error(err))
		}
	}()
}

// SubmitFeedback 提交问答反馈
func (s *QueryService) SubmitFeedback(ctx context.Context, req FeedbackRequest) error {
	if err := ValidateStruct(req); err != nil {
		return err
	}

	if _, err := s.queryRepo.GetByID(ctx, req.QueryID); err != nil {
		return apperrors.NewBusinessError(apperrors.ErrCodeNotFound, "query record not found").WithCause(err)
	}

	return s.queryRepo.SaveFeedback(ctx, &models.QueryFeedback{
		QueryID:   req.QueryID,
		Rating:    req.Rating,
		IsHelpful: req.IsHelpful,
		Comments:  req.Comments,
	})
}

// GetHistory 获取用户问答历史
func (s *QueryService) GetHistory(ctx context.Context, userID string, limit int) ([]models.QueryRecord, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("user_id is required")
	}
	return s.queryRepo.GetHistory(ctx, userID, limit)
}
