package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"customermind/internal/models/doc_models"
	"customermind/internal/realtime"
	"customermind/pkg/config"
	"customermind/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHealthService(customers *MockCustomerStore, store *MockHealthStore, llm utils.LLMClientInterface, pub Publisher) *HealthService {
	svc := NewHealthService(customers, store, nil, llm, pub, nil, config.HealthConfig{}, zap.NewNop()).(*HealthService)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestHealthScoreFallbackRaisesCriticalAlert(t *testing.T) {
	ctx := context.Background()
	customers := new(MockCustomerStore)
	store := new(MockHealthStore)
	pub := &recordingPublisher{}
	svc := newTestHealthService(customers, store, nil, pub)

	c := dormantCustomer()
	customers.On("FindByID", ctx, "tenant-1", c.ID.Hex()).Return(c, nil)
	store.On("InsertScore", ctx, mock.MatchedBy(func(s *doc_models.CustomerHealthScore) bool {
		return s.Source == doc_models.SourceFallback && s.Status == doc_models.HealthCritical &&
			s.ExpiresAt.Equal(testNow.Add(24*time.Hour))
	})).Return(nil)
	store.On("InsertAlert", ctx, mock.MatchedBy(func(a *doc_models.HealthAlert) bool {
		return a.Severity == doc_models.AlertCritical && a.CustomerName == c.Name
	})).Return(nil)

	score, err := svc.Score(ctx, "tenant-1", c.ID.Hex())
	require.NoError(t, err)
	assert.Less(t, score.Score, 40)
	assert.Equal(t, []string{realtime.EventHealthScore, realtime.EventHealthAlert}, pub.types())
	store.AssertExpectations(t)
}

func TestHealthScoreFromModel(t *testing.T) {
	ctx := context.Background()
	customers := new(MockCustomerStore)
	store := new(MockHealthStore)
	llm := new(MockLLMClient)
	pub := &recordingPublisher{}
	svc := newTestHealthService(customers, store, llm, pub)

	c := loyalCustomer()
	customers.On("FindByID", ctx, "tenant-1", c.ID.Hex()).Return(c, nil)
	llm.On("CompleteJSON", ctx, healthSystemPrompt, mock.Anything).
		Return("```json\n{\"score\": 85, \"factors\": [\"recent purchase\"], \"recommendations\": [\"upsell\"]}\n```", nil)
	store.On("InsertScore", ctx, mock.Anything).Return(nil)

	score, err := svc.Score(ctx, "tenant-1", c.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 85, score.Score)
	assert.Equal(t, doc_models.SourceAI, score.Source)
	assert.Equal(t, doc_models.HealthHealthy, score.Status)
	assert.Equal(t, []string{realtime.EventHealthScore}, pub.types())
	store.AssertNotCalled(t, "InsertAlert", mock.Anything, mock.Anything)
}

func TestHealthScoreRejectsOutOfRangeModelAnswer(t *testing.T) {
	ctx := context.Background()
	customers := new(MockCustomerStore)
	store := new(MockHealthStore)
	llm := new(MockLLMClient)
	svc := newTestHealthService(customers, store, llm, &recordingPublisher{})

	c := loyalCustomer()
	customers.On("FindByID", ctx, "tenant-1", c.ID.Hex()).Return(c, nil)
	llm.On("CompleteJSON", ctx, healthSystemPrompt, mock.Anything).Return(`{"score": 150}`, nil)
	store.On("InsertScore", ctx, mock.Anything).Return(nil)

	score, err := svc.Score(ctx, "tenant-1", c.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, doc_models.SourceFallback, score.Source)
	assert.LessOrEqual(t, score.Score, 100)
}

func TestHealthScoreUnknownCustomer(t *testing.T) {
	ctx := context.Background()
	customers := new(MockCustomerStore)
	svc := newTestHealthService(customers, new(MockHealthStore), nil, &recordingPublisher{})

	customers.On("FindByID", ctx, "tenant-1", "missing").Return(nil, nil)

	_, err := svc.Score(ctx, "tenant-1", "missing")
	assert.ErrorIs(t, err, utils.ErrCustomerNotFound)
}

func TestHealthRefreshCountsFailures(t *testing.T) {
	ctx := context.Background()
	customers := new(MockCustomerStore)
	store := new(MockHealthStore)
	pub := &recordingPublisher{}
	svc := newTestHealthService(customers, store, nil, pub)

	broken := loyalCustomer()
	broken.Name = "Broken"
	list := []doc_models.Customer{*loyalCustomer(), *dormantCustomer(), *broken}
	customers.On("ListAll", ctx, "tenant-1").Return(list, nil)
	store.On("InsertScore", mock.Anything, mock.MatchedBy(func(s *doc_models.CustomerHealthScore) bool {
		return s.CustomerName == "Broken"
	})).Return(errors.New("write conflict"))
	store.On("InsertScore", mock.Anything, mock.Anything).Return(nil)
	store.On("InsertAlert", mock.Anything, mock.Anything).Return(nil)

	res, err := svc.Refresh(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Scored)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Alerts)
	assert.Len(t, pub.types(), 3)
}

func TestHealthOverview(t *testing.T) {
	ctx := context.Background()
	store := new(MockHealthStore)
	svc := newTestHealthService(new(MockCustomerStore), store, nil, &recordingPublisher{})

	store.On("LatestScores", ctx, "tenant-1", testNow).Return([]doc_models.CustomerHealthScore{
		{Score: 90, Status: doc_models.HealthHealthy},
		{Score: 55, Status: doc_models.HealthAtRisk},
		{Score: 20, Status: doc_models.HealthCritical},
	}, nil)

	o, err := svc.Overview(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, 1, o.Healthy)
	assert.Equal(t, 1, o.AtRisk)
	assert.Equal(t, 1, o.Critical)
	assert.Equal(t, 55.0, o.Average)
}

func TestAcknowledgeUnknownAlert(t *testing.T) {
	ctx := context.Background()
	store := new(MockHealthStore)
	svc := newTestHealthService(new(MockCustomerStore), store, nil, &recordingPublisher{})

	store.On("AcknowledgeAlert", ctx, "tenant-1", "nope", "user-1", testNow).Return(nil, nil)

	_, err := svc.Acknowledge(ctx, "tenant-1", "nope", "user-1")
	assert.ErrorIs(t, err, utils.ErrAlertNotFound)
}
