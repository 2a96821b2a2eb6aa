package response_models

import (
	"time"

	"customermind/internal/models/doc_models"
)

type SegmentCount struct {
	Segment string `json:"segment"`
	Count   int    `json:"count"`
}

type TopCustomer struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	TotalSpentMinor int64   `json:"total_spent_minor"`
	OrderCount      int     `json:"order_count"`
	EngagementScore float64 `json:"engagement_score"`
}

type IntelligenceDashboard struct {
	TotalCustomers    int                           `json:"total_customers"`
	TotalRevenueMinor int64                         `json:"total_revenue_minor"`
	AverageOrderValue int64                         `json:"average_order_value_minor"`
	AverageEngagement float64                       `json:"average_engagement"`
	AtRiskCustomers   int                           `json:"at_risk_customers"`
	Segments          []SegmentCount                `json:"segments"`
	TopCustomers      []TopCustomer                 `json:"top_customers"`
	RecentAnalyses    []doc_models.CustomerAnalysis `json:"recent_analyses"`
	Source            doc_models.InsightSource      `json:"source"`
	GeneratedAt       time.Time                     `json:"generated_at"`
}

type ProductResponse struct {
	ID          string   `json:"id"`
	SKU         string   `json:"sku,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	PriceMinor  int64    `json:"price_minor"`
	Currency    string   `json:"currency"`
	Tags        []string `json:"tags,omitempty"`
}

type HealthOverview struct {
	Scores   []doc_models.CustomerHealthScore `json:"scores"`
	Healthy  int                              `json:"healthy"`
	AtRisk   int                              `json:"at_risk"`
	Critical int                              `json:"critical"`
	Average  float64                          `json:"average_score"`
}

type HealthRefreshResult struct {
	Scored int `json:"scored"`
	Failed int `json:"failed"`
	Alerts int `json:"alerts"`
}

type OdooSyncResult struct {
	Fetched  int `json:"fetched"`
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	// Skipped counts new CRM customers dropped because the plan's contact limit was reached.
	Skipped int `json:"skipped"`
}
