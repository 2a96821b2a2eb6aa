package doc_models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InsightSource tells whether a document came from the model or the heuristic fallback.
type InsightSource string

const (
	SourceAI       InsightSource = "ai"
	SourceFallback InsightSource = "fallback"
)

type CustomerAnalysis struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID          string             `bson:"tenant_id" json:"tenant_id"`
	CustomerID        string             `bson:"customer_id" json:"customer_id"`
	Segment           string             `bson:"segment" json:"segment"`
	PurchasePattern   string             `bson:"purchase_pattern" json:"purchase_pattern"`
	ChurnRisk         float64            `bson:"churn_risk" json:"churn_risk"`
	PredictedLTVMinor int64              `bson:"predicted_ltv_minor" json:"predicted_ltv_minor"`
	NextBestAction    string             `bson:"next_best_action" json:"next_best_action"`
	Recommendations   []string           `bson:"recommendations" json:"recommendations"`
	Source            InsightSource      `bson:"source" json:"source"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
}

type CrossSellOpportunity struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID             string             `bson:"tenant_id" json:"tenant_id"`
	CustomerID           string             `bson:"customer_id" json:"customer_id"`
	ProductID            string             `bson:"product_id" json:"product_id"`
	ProductName          string             `bson:"product_name" json:"product_name"`
	Confidence           float64            `bson:"confidence" json:"confidence"`
	Reason               string             `bson:"reason" json:"reason"`
	ExpectedRevenueMinor int64              `bson:"expected_revenue_minor" json:"expected_revenue_minor"`
	Source               InsightSource      `bson:"source" json:"source"`
	CreatedAt            time.Time          `bson:"created_at" json:"created_at"`
	ExpiresAt            time.Time          `bson:"expires_at" json:"expires_at"`
}

type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthAtRisk   HealthStatus = "at_risk"
	HealthCritical HealthStatus = "critical"
)

type CustomerHealthScore struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID        string             `bson:"tenant_id" json:"tenant_id"`
	CustomerID      string             `bson:"customer_id" json:"customer_id"`
	CustomerName    string             `bson:"customer_name" json:"customer_name"`
	Score           int                `bson:"score" json:"score"`
	Status          HealthStatus       `bson:"status" json:"status"`
	Factors         []string           `bson:"factors" json:"factors"`
	Recommendations []string           `bson:"recommendations" json:"recommendations"`
	Source          InsightSource      `bson:"source" json:"source"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	ExpiresAt       time.Time          `bson:"expires_at" json:"expires_at"`
}

type AlertSeverity string

const (
	AlertWarning  AlertSeverity = "warning"
	AlertCritical AlertSeverity = "critical"
)

type HealthAlert struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID       string             `bson:"tenant_id" json:"tenant_id"`
	CustomerID     string             `bson:"customer_id" json:"customer_id"`
	CustomerName   string             `bson:"customer_name" json:"customer_name"`
	Score          int                `bson:"score" json:"score"`
	Severity       AlertSeverity      `bson:"severity" json:"severity"`
	Message        string             `bson:"message" json:"message"`
	Acknowledged   bool               `bson:"acknowledged" json:"acknowledged"`
	AcknowledgedBy string             `bson:"acknowledged_by,omitempty" json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time         `bson:"acknowledged_at,omitempty" json:"acknowledged_at,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}
