package response_models

import (
	"github.com/google/uuid"
)

type SubscriptionPlan struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"` // e.g. "growth_monthly"
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Tier        string    `json:"tier"`
	Period      string    `json:"period"` // "month" | "year"
	Price       int64     `json:"price"`  // minor units
	Currency    string    `json:"currency"`
	TrialDays   int32     `json:"trial_days"`
	IsActive    bool      `json:"is_active"`
	Features    []string  `json:"features,omitempty"`
}

type CreateCheckoutResponse struct {
	OrderCode    int64  `json:"order_code"`
	Amount       int64  `json:"amount"`
	PaymentURL   string `json:"payment_url"`
	ProviderName string `json:"provider"`
}

type SubscriptionStatusResponse struct {
	AccountID  uuid.UUID         `json:"account_id"`
	Tier       string            `json:"tier"`
	Plan       *SubscriptionPlan `json:"plan,omitempty"`
	Status     string            `json:"status"`
	StartsAt   int64             `json:"starts_at,omitempty"`
	EndsAt     int64             `json:"ends_at,omitempty"`
	AutoRenew  bool              `json:"auto_renew"`
	CanceledAt *int64            `json:"canceled_at,omitempty"`
}

type TransactionResponse struct {
	ID            uuid.UUID  `json:"id"`
	AccountID     uuid.UUID  `json:"account_id"`
	AccountEmail  string     `json:"account_email,omitempty"`
	PlanID        *uuid.UUID `json:"plan_id,omitempty"`
	AmountMinor   int64      `json:"amount_minor"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	Provider      string     `json:"provider"`
	ProviderTxnID string     `json:"provider_txn_id"`
	PaidAt        *int64     `json:"paid_at,omitempty"`
	RefundedAt    *int64     `json:"refunded_at,omitempty"`
	CreatedAt     int64      `json:"created_at"`
}

type RefundResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Commission  *CommissionResponse `json:"commission,omitempty"`
}
