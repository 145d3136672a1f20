package services

import (
	"context"
	"errors"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "github.com/hrhub/backend-go/internal/errors"
	"github.com/hrhub/backend-go/internal/knowledge"
	"github.com/hrhub/backend-go/internal/models"
)

// ---- 测试桩 ----

type fixedEmbedder struct {
	vector []float32
	err    error
}

func (f *fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fixedEmbedder) Dimensions() int { return len(f.vector) }
func (f *fixedEmbedder) Ready() bool     { return true }

type failingStore struct{}

func (f *failingStore) Upsert(ctx context.Context, entries []knowledge.IndexEntry) error {
	return errors.New("connection refused")
}
func (f *failingStore) DeletePolicy(ctx context.Context, policyID uint) error {
	return errors.New("connection refused")
}
func (f *failingStore) Rebuild(ctx context.Context, entries []knowledge.IndexEntry) error {
	return errors.New("connection refused")
}
func (f *failingStore) Query(ctx context.Context, vector []float32, topK int, category string) ([]knowledge.VectorMatch, error) {
	return nil, errors.New("connection refused")
}
func (f *failingStore) Ready() bool { return false }

type recordingChat struct {
	answer string
	calls  int
}

func (r *recordingChat) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	r.calls++
	return r.answer, nil
}

func (r *recordingChat) Ready() bool { return true }

type formRepoStub struct {
	forms []models.Form
	err   error
}

func (f *formRepoStub) GetDB() *gorm.DB { return nil }
func (f *formRepoStub) Create(ctx context.Context, form *models.Form) error {
	return nil
}
func (f *formRepoStub) GetByID(ctx context.Context, id uint) (*models.Form, error) {
	for i := range f.forms {
		if f.forms[i].ID == id {
			return &f.forms[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *formRepoStub) List(ctx context.Context, category string, activeOnly bool) ([]models.Form, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.forms, nil
}
func (f *formRepoStub) Search(ctx context.Context, keyword string) ([]models.Form, error) {
	return f.forms, nil
}
func (f *formRepoStub) Update(ctx context.Context, id uint, updates map[string]interface{}) error {
	return nil
}
func (f *formRepoStub) Delete(ctx context.Context, id uint) error { return nil }
func (f *formRepoStub) LinkPolicy(ctx context.Context, link *models.PolicyForm) error {
	return nil
}
func (f *formRepoStub) UnlinkPolicy(ctx context.Context, policyID, formID uint) error {
	return nil
}
func (f *formRepoStub) GetByPolicyID(ctx context.Context, policyID uint) ([]models.Form, error) {
	return nil, nil
}

type queryRepoStub struct {
	records   []*models.QueryRecord
	feedback  []*models.QueryFeedback
	suggested []models.QueryForm
	nextID    uint
}

func (q *queryRepoStub) GetDB() *gorm.DB { return nil }
func (q *queryRepoStub) Create(ctx context.Context, record *models.QueryRecord) error {
	q.nextID++
	record.ID = q.nextID
	q.records = append(q.records, record)
	return nil
}
func (q *queryRepoStub) GetByID(ctx context.Context, id uint) (*models.QueryRecord, error) {
	for _, r := range q.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (q *queryRepoStub) GetHistory(ctx context.Context, userID string, limit int) ([]models.QueryRecord, error) {
	var out []models.QueryRecord
	for _, r := range q.records {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}
func (q *queryRepoStub) SaveFeedback(ctx context.Context, feedback *models.QueryFeedback) error {
	q.feedback = append(q.feedback, feedback)
	return nil
}
func (q *queryRepoStub) SaveSuggestedForms(ctx context.Context, forms []models.QueryForm) error {
	q.suggested = append(q.suggested, forms...)
	return nil
}
func (q *queryRepoStub) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return int64(len(q.records)), nil
}
func (q *queryRepoStub) AverageConfidence(ctx context.Context) (float64, error) { return 0, nil }
func (q *queryRepoStub) AverageResponseTime(ctx context.Context) (float64, error) {
	return 0, nil
}
func (q *queryRepoStub) CountLowConfidence(ctx context.Context, threshold float64) (int64, error) {
	return 0, nil
}
func (q *queryRepoStub) Recent(ctx context.Context, limit int) ([]models.QueryRecord, error) {
	var out []models.QueryRecord
	for _, r := range q.records {
		out = append(out, *r)
	}
	return out, nil
}
func (q *queryRepoStub) FeedbackStats(ctx context.Context) (int64, int64, float64, error) {
	return 0, 0, 0, nil
}

// ---- 测试夹具 ----

func ptoVectorStore(t *testing.T) knowledge.VectorStore {
	t.Helper()
	store := knowledge.NewMemoryVectorStore()
	err := store.Upsert(context.Background(), []knowledge.IndexEntry{
		{
			EmbeddingID: "pto-1",
			Vector:      []float32{1, 0, 0},
			Content:     "Employees accrue 1.5 days of paid time off per month of service.",
			Metadata: knowledge.ChunkMetadata{
				PolicyID:   1,
				Title:      "Leave Policy",
				Category:   "benefits",
				Section:    "3. Paid Time Off",
				ChunkIndex: 0,
			},
		},
	})
	require.NoError(t, err)
	return store
}

func ptoFormCatalog() []models.Form {
	return []models.Form{
		{ID: 10, Name: "Vacation Request Form", Description: "Request vacation days or paid time off.", Category: "benefits", FileURL: "/forms/vacation.pdf", IsActive: true},
		{ID: 11, Name: "Expense Report", Description: "Submit receipts for reimbursement.", Category: "finance", IsActive: true},
	}
}

func newTestQueryService(store knowledge.VectorStore, embedder knowledge.Embedder, chat knowledge.ChatClient, formRepo *formRepoStub, queryRepo *queryRepoStub) *QueryService {
	retriever := knowledge.NewRetriever(embedder, store, 5)
	composer := knowledge.NewAnswerComposer(chat)
	return NewQueryService(retriever, composer, knowledge.NewFormRecommender(), formRepo, queryRepo, 5*time.Second)
}

// ---- 测试 ----

func TestQueryServiceAskAnswersFromIndex(t *testing.T) {
	chat := &recordingChat{answer: "You accrue 1.5 days of paid time off per month. Unused days carry over up to a limit of 10 days per year."}
	formRepo := &formRepoStub{forms: ptoFormCatalog()}
	queryRepo := &queryRepoStub{}
	svc := newTestQueryService(ptoVectorStore(t), &fixedEmbedder{vector: []float32{1, 0, 0}}, chat, formRepo, queryRepo)

	record, err := svc.Ask(context.Background(), AskRequest{
		Question: "How do I request vacation days and how is paid time off accrued?",
		UserID:   "emp-001",
		Category: "benefits",
	})
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, chat.answer, record.Answer)
	assert.Equal(t, 1, chat.calls)
	assert.False(t, record.Degraded)

	wantConfidence := float64(utf8.RuneCountInString(chat.answer)) / 200
	assert.InDelta(t, wantConfidence, record.ConfidenceScore, 1e-9)
	assert.Greater(t, record.ConfidenceScore, 0.1)

	assert.Equal(t, []string{"Leave Policy"}, record.Sources)

	// 目录里只有休假表单与问题相关
	require.Len(t, record.SuggestedForms, 1)
	assert.Equal(t, uint(10), record.SuggestedForms[0].ID)
	assert.Greater(t, record.SuggestedForms[0].RelevanceScore, 0.3)

	// 同步写入的问答记录
	require.Len(t, queryRepo.records, 1)
	assert.Equal(t, record.QueryID, queryRepo.records[0].ID)
	assert.Equal(t, "emp-001", queryRepo.records[0].UserID)
}

func TestQueryServiceAskEmptyIndex(t *testing.T) {
	chat := &recordingChat{answer: "should not be called"}
	svc := newTestQueryService(knowledge.NewMemoryVectorStore(), &fixedEmbedder{vector: []float32{1, 0, 0}}, chat, &formRepoStub{}, &queryRepoStub{})

	record, err := svc.Ask(context.Background(), AskRequest{Question: "What is the dress code?"})
	require.NoError(t, err)

	assert.Equal(t, knowledge.NoResultsAnswer, record.Answer)
	assert.Equal(t, 0.0, record.ConfidenceScore)
	assert.Empty(t, record.Sources)
	assert.Empty(t, record.SuggestedForms)
	assert.Equal(t, 0, chat.calls, "model must not be called without retrieved context")
}

func TestQueryServiceAskIndexUnavailable(t *testing.T) {
	chat := &recordingChat{answer: "unused"}
	svc := newTestQueryService(&failingStore{}, &fixedEmbedder{vector: []float32{1, 0, 0}}, chat, &formRepoStub{}, &queryRepoStub{})

	record, err := svc.Ask(context.Background(), AskRequest{Question: "How many sick days do I get?"})
	require.Error(t, err)
	assert.Nil(t, record)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeIndexUnavailable))
}

func TestQueryServiceAskEmbedderFailureDegrades(t *testing.T) {
	chat := &recordingChat{answer: "unused"}
	queryRepo := &queryRepoStub{}
	svc := newTestQueryService(ptoVectorStore(t), &fixedEmbedder{err: errors.New("rate limited")}, chat, &formRepoStub{}, queryRepo)

	record, err := svc.Ask(context.Background(), AskRequest{Question: "How is paid time off accrued?"})
	require.NoError(t, err, "model failures must not surface to the caller")

	assert.Equal(t, knowledge.DegradedAnswer, record.Answer)
	assert.Equal(t, 0.0, record.ConfidenceScore)
	assert.True(t, record.Degraded)
	assert.Equal(t, 0, chat.calls)
	assert.Len(t, queryRepo.records, 1, "degraded answers are still recorded")
}

func TestQueryServiceAskValidation(t *testing.T) {
	svc := newTestQueryService(knowledge.NewMemoryVectorStore(), &fixedEmbedder{vector: []float32{1}}, &recordingChat{}, &formRepoStub{}, &queryRepoStub{})

	_, err := svc.Ask(context.Background(), AskRequest{Question: ""})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed))
}

func TestQueryServiceSubmitFeedback(t *testing.T) {
	queryRepo := &queryRepoStub{}
	svc := newTestQueryService(knowledge.NewMemoryVectorStore(), &fixedEmbedder{vector: []float32{1}}, &recordingChat{}, &formRepoStub{}, queryRepo)

	err := svc.SubmitFeedback(context.Background(), FeedbackRequest{QueryID: 99, Rating: 4})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))

	require.NoError(t, queryRepo.Create(context.Background(), &models.QueryRecord{Question: "q", UserID: "emp-001"}))

	err = svc.SubmitFeedback(context.Background(), FeedbackRequest{QueryID: 1, Rating: 5, IsHelpful: true, Comments: "great"})
	require.NoError(t, err)
	require.Len(t, queryRepo.feedback, 1)
	assert.Equal(t, uint(1), queryRepo.feedback[0].QueryID)
	assert.True(t, queryRepo.feedback[0].IsHelpful)
}

func TestQueryServiceGetHistory(t *testing.T) {
	queryRepo := &queryRepoStub{}
	svc := newTestQueryService(knowledge.NewMemoryVectorStore(), &fixedEmbedder{vector: []float32{1}}, &recordingChat{}, &formRepoStub{}, queryRepo)

	require.NoError(t, queryRepo.Create(context.Background(), &models.QueryRecord{Question: "q1", UserID: "emp-001"}))
	require.NoError(t, queryRepo.Create(context.Background(), &models.QueryRecord{Question: "q2", UserID: "emp-002"}))

	history, err := svc.GetHistory(context.Background(), "emp-001", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "q1", history[0].Question)

	_, err = svc.GetHistory(context.Background(), "", 10)
	require.Error(t, err)
}
