package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"customermind/internal/models/doc_models"
	mem "customermind/pkg/memcache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestIntelligenceService(customers *MockCustomerStore, analyses *MockAnalysisStore, llm *MockLLMClient) *IntelligenceService {
	svc := NewIntelligenceService(customers, analyses, nil, mem.NewMemoryStore(), zap.NewNop()).(*IntelligenceService)
	if llm != nil {
		svc.llm = llm
	}
	svc.now = func() time.Time { return testNow }
	return svc
}

const modelAnalysis = `{"segment":"Loyal","purchase_pattern":"monthly","churn_risk":0.12,
"predicted_ltv_minor":2500000,"next_best_action":"Offer annual plan","recommendations":["a","b"]}`

func TestAnalyzeUsesModelAndCaches(t *testing.T) {
	ctx := context.Background()
	customers := new(MockCustomerStore)
	analyses := new(MockAnalysisStore)
	llm := new(MockLLMClient)
	svc := newTestIntelligenceService(customers, analyses, llm)

	c := loyalCustomer()
	customers.On("FindByID", ctx, "tenant-1", c.ID.Hex()).Return(c, nil)
	llm.On("CompleteJSON", ctx, analysisSystemPrompt, mock.Anything).Return(modelAnalysis, nil).Once()
	analyses.On("Insert", ctx, mock.Anything).Return(nil).Once()

	first, err := svc.Analyze(ctx, "tenant-1", c.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "loyal", first.Segment)
	assert.Equal(t, doc_models.SourceAI, first.Source)
	assert.Equal(t, int64(2500000), first.PredictedLTVMinor)

	second, err := svc.Analyze(ctx, "tenant-1", c.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, first.NextBestAction, second.NextBestAction)

	llm.AssertNumberOfCalls(t, "CompleteJSON", 1)
	analyses.AssertNumberOfCalls(t, "Insert", 1)
}

func TestAnalyzeFallsBackOnModelError(t *testing.T) {
	ctx := context.Background()
	customers := new(MockCustomerStore)
	analyses := new(MockAnalysisStore)
	llm := new(MockLLMClient)
	svc := newTestIntelligenceService(customers, analyses, llm)

	c := dormantCustomer()
	customers.On("FindByID", ctx, "tenant-1", c.ID.Hex()).Return(c, nil)
	llm.On("CompleteJSON", ctx, analysisSystemPrompt, mock.Anything).Return("", errors.New("rate limited"))
	analyses.On("Insert", ctx, mock.Anything).Return(errors.New("mongo down"))

	a, err := svc.Analyze(ctx, "tenant-1", c.ID.Hex())
	require.NoError(t, err, "a storage failure must not fail the analysis")
	assert.Equal(t, doc_models.SourceFallback, a.Source)
	assert.Equal(t, SegmentAtRisk, a.Segment)
}

func TestAnalyzeRejectsInvalidChurn(t *testing.T) {
	ctx := context.Background()
	customers := new(MockCustomerStore)
	analyses := new(MockAnalysisStore)
	llm := new(MockLLMClient)
	svc := newTestIntelligenceService(customers, analyses, llm)

	c := loyalCustomer()
	customers.On("FindByID", ctx, "tenant-1", c.ID.Hex()).Return(c, nil)
	llm.On("CompleteJSON", ctx, analysisSystemPrompt, mock.Anything).Return(`{"segment":"loyal","churn_risk":3}`, nil)
	analyses.On("Insert", ctx, mock.Anything).Return(nil)

	a, err := svc.Analyze(ctx, "tenant-1", c.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, doc_models.SourceFallback, a.Source)
}

func TestDashboardFallsBackToSample(t *testing.T) {
	ctx := context.Background()
	customers := new(MockCustomerStore)
	svc := newTestIntelligenceService(customers, new(MockAnalysisStore), nil)

	customers.On("ListAll", ctx, "tenant-1").Return(nil, errors.New("no reachable servers"))

	d := svc.Dashboard(ctx, "tenant-1")
	assert.Equal(t, doc_models.SourceFallback, d.Source)
	assert.NotZero(t, d.TotalCustomers)
}

func TestDashboardAggregatesTenantData(t *testing.T) {
	ctx := context.Background()
	customers := new(MockCustomerStore)
	analyses := new(MockAnalysisStore)
	svc := newTestIntelligenceService(customers, analyses, nil)

	list := []doc_models.Customer{*loyalCustomer(), *dormantCustomer()}
	customers.On("ListAll", ctx, "tenant-1").Return(list, nil)
	analyses.On("Latest", ctx, "tenant-1", int64(recentAnalyses)).Return([]doc_models.CustomerAnalysis{{Segment: SegmentLoyal}}, nil)

	d := svc.Dashboard(ctx, "tenant-1")
	assert.Equal(t, 2, d.TotalCustomers)
	assert.Equal(t, 1, d.AtRiskCustomers)
	assert.Len(t, d.RecentAnalyses, 1)
	assert.Equal(t, doc_models.SourceAI, d.Source)
}
