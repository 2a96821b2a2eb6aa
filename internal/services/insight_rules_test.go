package services

import (
	"testing"
	"time"

	"customermind/internal/models/db_models"
	"customermind/internal/models/doc_models"
	"customermind/internal/repositories"
	"customermind/pkg/config"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func daysBefore(d int) *time.Time {
	t := testNow.AddDate(0, 0, -d)
	return &t
}

func loyalCustomer() *doc_models.Customer {
	return &doc_models.Customer{
		ID:              primitive.NewObjectID(),
		TenantID:        "tenant-1",
		Name:            "Sarah Johnson",
		TotalSpentMinor: 1254000,
		OrderCount:      24,
		FirstPurchaseAt: daysBefore(720),
		LastPurchaseAt:  daysBefore(6),
		SupportTickets:  1,
		EngagementScore: 92,
		Products:        []string{"Analytics Suite"},
	}
}

func dormantCustomer() *doc_models.Customer {
	return &doc_models.Customer{
		ID:              primitive.NewObjectID(),
		TenantID:        "tenant-1",
		Name:            "James Rodriguez",
		TotalSpentMinor: 98000,
		OrderCount:      2,
		FirstPurchaseAt: daysBefore(260),
		LastPurchaseAt:  daysBefore(210),
		SupportTickets:  6,
		EngagementScore: 18,
	}
}

func TestHeuristicAnalysis(t *testing.T) {
	loyal := HeuristicAnalysis(loyalCustomer(), testNow)
	assert.Equal(t, SegmentChampion, loyal.Segment)
	assert.Less(t, loyal.ChurnRisk, atRiskChurn)
	assert.Greater(t, loyal.PredictedLTVMinor, int64(1254000))
	assert.Equal(t, doc_models.SourceFallback, loyal.Source)
	assert.NotEmpty(t, loyal.NextBestAction)

	dormant := HeuristicAnalysis(dormantCustomer(), testNow)
	assert.Equal(t, SegmentAtRisk, dormant.Segment)
	assert.Equal(t, 1.0, dormant.ChurnRisk)
	assert.Contains(t, dormant.Recommendations, "Review open support issues")
}

func TestHeuristicSegmentNewCustomer(t *testing.T) {
	c := &doc_models.Customer{OrderCount: 1, TotalSpentMinor: 35000, LastPurchaseAt: daysBefore(14), EngagementScore: 60}
	churn := HeuristicChurn(c, testNow)
	assert.Equal(t, SegmentNew, HeuristicSegment(c, churn))
	assert.Equal(t, "single purchase", purchasePattern(c))
}

func TestPurchasePattern(t *testing.T) {
	c := &doc_models.Customer{OrderCount: 5, FirstPurchaseAt: daysBefore(100), LastPurchaseAt: daysBefore(0)}
	assert.Equal(t, "buys roughly every 25 days", purchasePattern(c))
	assert.Equal(t, "no purchases yet", purchasePattern(&doc_models.Customer{}))
}

func TestCustomerFingerprint(t *testing.T) {
	c := loyalCustomer()
	before := CustomerFingerprint(c)

	c.Name = "Renamed"
	assert.Equal(t, before, CustomerFingerprint(c), "name is not part of the analysis facts")

	c.Products = []string{"Data Connector", "Analytics Suite"}
	changed := CustomerFingerprint(c)
	assert.NotEqual(t, before, changed)

	c.Products = []string{"Analytics Suite", "Data Connector"}
	assert.Equal(t, changed, CustomerFingerprint(c), "product order does not matter")
}

func TestHeuristicHealth(t *testing.T) {
	score, factors, recs := HeuristicHealth(loyalCustomer(), testNow)
	assert.GreaterOrEqual(t, score, 70)
	assert.Contains(t, factors, "purchased in the last 30 days")
	assert.NotEmpty(t, recs)

	score, factors, recs = HeuristicHealth(dormantCustomer(), testNow)
	assert.Less(t, score, 40)
	assert.Contains(t, factors, "low engagement")
	assert.Contains(t, recs, "Start a win-back campaign")
}

func TestHealthThresholds(t *testing.T) {
	cfg := config.HealthConfig{HealthyThreshold: 70, WarningThreshold: 60, CriticalThreshold: 40}

	cases := []struct {
		score    int
		status   doc_models.HealthStatus
		severity doc_models.AlertSeverity
		alert    bool
	}{
		{100, doc_models.HealthHealthy, "", false},
		{70, doc_models.HealthHealthy, "", false},
		{69, doc_models.HealthAtRisk, "", false},
		{60, doc_models.HealthAtRisk, "", false},
		{59, doc_models.HealthAtRisk, doc_models.AlertWarning, true},
		{40, doc_models.HealthAtRisk, doc_models.AlertWarning, true},
		{39, doc_models.HealthCritical, doc_models.AlertCritical, true},
		{0, doc_models.HealthCritical, doc_models.AlertCritical, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, HealthStatusFor(tc.score, cfg), "score %d", tc.score)
		severity, alert := AlertSeverityFor(tc.score, cfg)
		assert.Equal(t, tc.alert, alert, "score %d", tc.score)
		assert.Equal(t, tc.severity, severity, "score %d", tc.score)
	}
}

func TestBuildIntelligenceDashboard(t *testing.T) {
	customers := DemoCustomers("tenant-1", testNow)
	d := BuildIntelligenceDashboard(customers, testNow)

	var revenue int64
	var orders int
	for _, c := range customers {
		revenue += c.TotalSpentMinor
		orders += c.OrderCount
	}
	assert.Equal(t, len(customers), d.TotalCustomers)
	assert.Equal(t, revenue, d.TotalRevenueMinor)
	assert.Equal(t, revenue/int64(orders), d.AverageOrderValue)
	assert.Len(t, d.TopCustomers, topCustomerCount)
	assert.Equal(t, "Sarah Johnson", d.TopCustomers[0].Name)
	assert.Equal(t, doc_models.SourceAI, d.Source)

	total := 0
	for i, s := range d.Segments {
		total += s.Count
		if i > 0 {
			assert.GreaterOrEqual(t, d.Segments[i-1].Count, s.Count)
		}
	}
	assert.Equal(t, len(customers), total)
}

func TestBuildIntelligenceDashboardEmpty(t *testing.T) {
	d := BuildIntelligenceDashboard(nil, testNow)
	assert.Zero(t, d.TotalCustomers)
	assert.Zero(t, d.AverageOrderValue)
	assert.NotNil(t, d.Segments)
	assert.NotNil(t, d.TopCustomers)
}

func TestSampleDashboardIsFallback(t *testing.T) {
	assert.Equal(t, doc_models.SourceFallback, SampleDashboard(testNow).Source)
}

func TestDemoCustomers(t *testing.T) {
	customers := DemoCustomers("tenant-9", testNow)
	require.Len(t, customers, 8)
	for _, c := range customers {
		assert.True(t, c.IsDemo)
		assert.Equal(t, doc_models.SourceDemo, c.Source)
		assert.Equal(t, "tenant-9", c.TenantID)
	}
}

func TestMeanVector(t *testing.T) {
	v, ok := MeanVector([]pgvector.Vector{
		pgvector.NewVector([]float32{1, 2, 3}),
		pgvector.NewVector([]float32{3, 4, 5}),
		pgvector.NewVector([]float32{9}),
		pgvector.NewVector(nil),
	})
	require.True(t, ok)
	assert.Equal(t, []float32{2, 3, 4}, v.Slice())

	_, ok = MeanVector(nil)
	assert.False(t, ok)
}

func TestRankBySimilarity(t *testing.T) {
	c := loyalCustomer()
	candidates := []repositories.ProductMatch{
		{ProductEmbedding: db_models.ProductEmbedding{Name: "Data Connector", PriceMinor: 20000}, Similarity: 0.91},
		{ProductEmbedding: db_models.ProductEmbedding{Name: "Support Plus", PriceMinor: 10000}, Similarity: 1.4},
	}
	candidates[0].ID = uuid.New()
	candidates[1].ID = uuid.New()

	ops := RankBySimilarity(c, candidates, testNow)
	require.Len(t, ops, 2)
	assert.Equal(t, 0.91, ops[0].Confidence)
	assert.Equal(t, int64(18200), ops[0].ExpectedRevenueMinor)
	assert.Equal(t, 1.0, ops[1].Confidence)
	assert.Equal(t, doc_models.SourceFallback, ops[0].Source)
	assert.Equal(t, c.ID.Hex(), ops[0].CustomerID)
	assert.Equal(t, candidates[0].ID.String(), ops[0].ProductID)
}
