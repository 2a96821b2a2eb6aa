package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"customermind/internal/models/doc_models"
	resp "customermind/internal/models/response_models"
	"customermind/internal/repositories"
	mem "customermind/pkg/memcache"
	"customermind/pkg/utils"

	"go.uber.org/zap"
)

type IntelligenceServiceInterface interface {
	// Analyze returns a cached analysis while the customer's facts are unchanged.
	Analyze(ctx context.Context, tenantID, customerID string) (*doc_models.CustomerAnalysis, error)
	// Dashboard never fails; a store outage yields the sample payload.
	Dashboard(ctx context.Context, tenantID string) *resp.IntelligenceDashboard
}

type IntelligenceService struct {
	customers repositories.CustomerStore
	analyses  repositories.AnalysisStore
	llm       utils.LLMClientInterface
	cache     mem.Cache
	log       *zap.Logger
	now       func() time.Time
}

const (
	analysisCacheTTL = time.Hour
	topCustomerCount = 5
	recentAnalyses   = 10
)

const analysisSystemPrompt = `You are a customer analytics assistant for a B2B SaaS company.
Answer with a single JSON object and nothing else, using exactly these keys:
{"segment": one of "champion","loyal","developing","new","at_risk",
 "purchase_pattern": short phrase,
 "churn_risk": number between 0 and 1,
 "predicted_ltv_minor": integer in minor currency units,
 "next_best_action": short imperative sentence,
 "recommendations": array of 2 to 4 short strings}`

type analysisAnswer struct {
	Segment           string   `json:"segment"`
	PurchasePattern   string   `json:"purchase_pattern"`
	ChurnRisk         float64  `json:"churn_risk"`
	PredictedLTVMinor int64    `json:"predicted_ltv_minor"`
	NextBestAction    string   `json:"next_best_action"`
	Recommendations   []string `json:"recommendations"`
}

// NewIntelligenceService accepts a nil llm, in which case every analysis uses the heuristic.
func NewIntelligenceService(
	customers repositories.CustomerStore,
	analyses repositories.AnalysisStore,
	llm utils.LLMClientInterface,
	cache mem.Cache,
	log *zap.Logger,
) IntelligenceServiceInterface {
	return &IntelligenceService{
		customers: customers,
		analyses:  analyses,
		llm:       llm,
		cache:     cache,
		log:       log,
		now:       time.Now,
	}
}

func analysisCacheKey(tenantID, customerID, fingerprint string) string {
	return "analysis:" + tenantID + ":" + customerID + ":" + fingerprint
}

func (s *IntelligenceService) Analyze(ctx context.Context, tenantID, customerID string) (*doc_models.CustomerAnalysis, error) {
	c, err := s.customers.FindByID(ctx, tenantID, customerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if c == nil {
		return nil, utils.ErrCustomerNotFound
	}

	key := analysisCacheKey(tenantID, customerID, CustomerFingerprint(c))
	var cached doc_models.CustomerAnalysis
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		s.log.Warn("analysis cache read failed", zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	now := s.now().UTC()
	analysis, err := s.askModel(ctx, c, now)
	if err != nil {
		s.log.Info("analysis falls back to heuristic",
			zap.String("tenant_id", tenantID),
			zap.String("customer_id", customerID),
			zap.Error(err))
		h := HeuristicAnalysis(c, now)
		analysis = &h
	}

	if err := s.analyses.Insert(ctx, analysis); err != nil {
		s.log.Warn("analysis not stored", zap.String("customer_id", customerID), zap.Error(err))
	}
	if err := s.cache.SetJSON(ctx, key, analysis, analysisCacheTTL); err != nil {
		s.log.Warn("analysis cache write failed", zap.Error(err))
	}
	return analysis, nil
}

func (s *IntelligenceService) askModel(ctx context.Context, c *doc_models.Customer, now time.Time) (*doc_models.CustomerAnalysis, error) {
	if s.llm == nil {
		return nil, fmt.Errorf("%w: no model configured", utils.ErrUnexpectedBehaviorOfAI)
	}

	answer, err := s.llm.CompleteJSON(ctx, analysisSystemPrompt, "Analyse this customer:\n"+customerFacts(c, now))
	if err != nil {
		return nil, err
	}
	var out analysisAnswer
	if err := utils.DecodeJSONAnswer(answer, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Segment) == "" || out.ChurnRisk < 0 || out.ChurnRisk > 1 || out.PredictedLTVMinor < 0 {
		return nil, fmt.Errorf("%w: analysis out of range", utils.ErrUnexpectedBehaviorOfAI)
	}

	return &doc_models.CustomerAnalysis{
		TenantID:          c.TenantID,
		CustomerID:        c.ID.Hex(),
		Segment:           strings.ToLower(strings.TrimSpace(out.Segment)),
		PurchasePattern:   out.PurchasePattern,
		ChurnRisk:         round2(out.ChurnRisk),
		PredictedLTVMinor: out.PredictedLTVMinor,
		NextBestAction:    out.NextBestAction,
		Recommendations:   out.Recommendations,
		Source:            doc_models.SourceAI,
		CreatedAt:         now,
	}, nil
}

func (s *IntelligenceService) Dashboard(ctx context.Context, tenantID string) *resp.IntelligenceDashboard {
	now := s.now().UTC()
	customers, err := s.customers.ListAll(ctx, tenantID)
	if err != nil {
		s.log.Warn("intelligence dashboard uses sample data", zap.String("tenant_id", tenantID), zap.Error(err))
		return SampleDashboard(now)
	}

	d := BuildIntelligenceDashboard(customers, now)
	recent, err := s.analyses.Latest(ctx, tenantID, recentAnalyses)
	if err != nil {
		s.log.Warn("recent analyses unavailable", zap.String("tenant_id", tenantID), zap.Error(err))
	} else {
		d.RecentAnalyses = recent
	}
	return d
}

// BuildIntelligenceDashboard aggregates segments and revenue with the heuristic model.
func BuildIntelligenceDashboard(customers []doc_models.Customer, now time.Time) *resp.IntelligenceDashboard {
	d := &resp.IntelligenceDashboard{
		TotalCustomers: len(customers),
		Segments:       []resp.SegmentCount{},
		TopCustomers:   []resp.TopCustomer{},
		RecentAnalyses: []doc_models.CustomerAnalysis{},
		Source:         doc_models.SourceAI,
		GeneratedAt:    now,
	}

	segments := map[string]int{}
	var orders int
	var engagement float64
	for i := range customers {
		c := &customers[i]
		churn := HeuristicChurn(c, now)
		segments[HeuristicSegment(c, churn)]++
		if churn >= atRiskChurn {
			d.AtRiskCustomers++
		}
		d.TotalRevenueMinor += c.TotalSpentMinor
		orders += c.OrderCount
		engagement += c.EngagementScore
	}
	if orders > 0 {
		d.AverageOrderValue = d.TotalRevenueMinor / int64(orders)
	}
	if len(customers) > 0 {
		d.AverageEngagement = round2(engagement / float64(len(customers)))
	}

	for name, n := range segments {
		d.Segments = append(d.Segments, resp.SegmentCount{Segment: name, Count: n})
	}
	sort.Slice(d.Segments, func(i, j int) bool {
		if d.Segments[i].Count != d.Segments[j].Count {
			return d.Segments[i].Count > d.Segments[j].Count
		}
		return d.Segments[i].Segment < d.Segments[j].Segment
	})

	sorted := append([]doc_models.Customer(nil), customers...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TotalSpentMinor > sorted[j].TotalSpentMinor })
	for i := 0; i < len(sorted) && i < topCustomerCount; i++ {
		c := sorted[i]
		d.TopCustomers = append(d.TopCustomers, resp.TopCustomer{
			ID:              c.ID.Hex(),
			Name:            c.Name,
			TotalSpentMinor: c.TotalSpentMinor,
			OrderCount:      c.OrderCount,
			EngagementScore: c.EngagementScore,
		})
	}
	return d
}

// SampleDashboard is the static payload served when tenant data cannot be read.
func SampleDashboard(now time.Time) *resp.IntelligenceDashboard {
	return &resp.IntelligenceDashboard{
		TotalCustomers:    1247,
		TotalRevenueMinor: 284750000,
		AverageOrderValue: 22830,
		AverageEngagement: 67.4,
		AtRiskCustomers:   89,
		Segments: []resp.SegmentCount{
			{Segment: SegmentLoyal, Count: 412},
			{Segment: SegmentDeveloping, Count: 356},
			{Segment: SegmentNew, Count: 243},
			{Segment: SegmentChampion, Count: 147},
			{Segment: SegmentAtRisk, Count: 89},
		},
		TopCustomers: []resp.TopCustomer{
			{ID: "sample-1", Name: "Sarah Johnson", TotalSpentMinor: 1254000, OrderCount: 24, EngagementScore: 92},
			{ID: "sample-2", Name: "Sophia Martinez", TotalSpentMinor: 921000, OrderCount: 17, EngagementScore: 66},
			{ID: "sample-3", Name: "Michael Chen", TotalSpentMinor: 683000, OrderCount: 12, EngagementScore: 78},
		},
		RecentAnalyses: []doc_models.CustomerAnalysis{},
		Source:         doc_models.SourceFallback,
		GeneratedAt:    now,
	}
}
