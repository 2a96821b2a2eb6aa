package request_models

import "time"

type CustomerRequest struct {
	Name            string     `json:"name" binding:"required,max=200"`
	Email           string     `json:"email" binding:"required,email"`
	Company         string     `json:"company" binding:"max=200"`
	TotalSpentMinor int64      `json:"total_spent_minor" binding:"gte=0"`
	OrderCount      int        `json:"order_count" binding:"gte=0"`
	FirstPurchaseAt *time.Time `json:"first_purchase_at"`
	LastPurchaseAt  *time.Time `json:"last_purchase_at"`
	SupportTickets  int        `json:"support_tickets" binding:"gte=0"`
	EngagementScore float64    `json:"engagement_score" binding:"gte=0,lte=100"`
	Products        []string   `json:"products"`
}

type ListCustomersQuery struct {
	Search string `form:"search"`
	Source string `form:"source" binding:"omitempty,oneof=demo manual odoo"`
	Limit  int64  `form:"limit,default=50" binding:"min=1,max=500"`
	Offset int64  `form:"offset" binding:"min=0"`
}

type ProductRequest struct {
	SKU         string   `json:"sku" binding:"max=64"`
	Name        string   `json:"name" binding:"required,max=200"`
	Description string   `json:"description" binding:"max=2000"`
	Category    string   `json:"category" binding:"max=120"`
	PriceMinor  int64    `json:"price_minor" binding:"gte=0"`
	Currency    string   `json:"currency" binding:"omitempty,len=3"`
	Tags        []string `json:"tags"`
}

type AlertsQuery struct {
	Unacknowledged bool  `form:"unacknowledged"`
	Limit          int64 `form:"limit,default=100" binding:"min=1,max=500"`
}
