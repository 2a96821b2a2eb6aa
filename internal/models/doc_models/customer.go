package doc_models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CustomerSource string

const (
	SourceDemo   CustomerSource = "demo"
	SourceManual CustomerSource = "manual"
	SourceOdoo   CustomerSource = "odoo"
)

// Customer is a tenant's end customer. TenantID is the owning account's UUID string.
type Customer struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID   string             `bson:"tenant_id" json:"tenant_id"`
	ExternalID string             `bson:"external_id,omitempty" json:"external_id,omitempty"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	Company    string             `bson:"company,omitempty" json:"company,omitempty"`

	TotalSpentMinor int64      `bson:"total_spent_minor" json:"total_spent_minor"`
	OrderCount      int        `bson:"order_count" json:"order_count"`
	FirstPurchaseAt *time.Time `bson:"first_purchase_at,omitempty" json:"first_purchase_at,omitempty"`
	LastPurchaseAt  *time.Time `bson:"last_purchase_at,omitempty" json:"last_purchase_at,omitempty"`
	SupportTickets  int        `bson:"support_tickets" json:"support_tickets"`
	EngagementScore float64    `bson:"engagement_score" json:"engagement_score"` // 0..100
	Products        []string   `bson:"products,omitempty" json:"products,omitempty"`

	Source CustomerSource `bson:"source" json:"source"`
	IsDemo bool           `bson:"is_demo" json:"is_demo"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// DaysSinceLastPurchase returns -1 when the customer never purchased.
func (c *Customer) DaysSinceLastPurchase(now time.Time) int {
	if c.LastPurchaseAt == nil {
		return -1
	}
	return int(now.Sub(*c.LastPurchaseAt).Hours() / 24)
}
