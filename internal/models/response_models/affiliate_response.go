package response_models

import "github.com/google/uuid"

type AffiliateResponse struct {
	ID              uuid.UUID  `json:"id"`
	AccountID       *uuid.UUID `json:"account_id,omitempty"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	ReferralCode    string     `json:"referral_code"`
	Status          string     `json:"status"`
	CommissionRate  float64    `json:"commission_rate"`
	IsFlagged       bool       `json:"is_flagged"`
	FlagReason      string     `json:"flag_reason,omitempty"`
	CommissionCount int64      `json:"commission_count"`
	RefundedCount   int64      `json:"refunded_count"`
	RefundRate      float64    `json:"refund_rate"`
	AutoPaused      bool       `json:"auto_paused"`
	PausedReason    string     `json:"paused_reason,omitempty"`
	PausedAt        *int64     `json:"paused_at,omitempty"`
	CreatedAt       int64      `json:"created_at"`
}

type CommissionResponse struct {
	ID                uuid.UUID  `json:"id"`
	AffiliateID       uuid.UUID  `json:"affiliate_id"`
	ReferredAccountID *uuid.UUID `json:"referred_account_id,omitempty"`
	TransactionID     *uuid.UUID `json:"transaction_id,omitempty"`
	SaleAmountMinor   int64      `json:"sale_amount_minor"`
	Currency          string     `json:"currency"`
	Rate              float64    `json:"rate"`
	HoldbackPercent   int        `json:"holdback_percent"`
	TotalMinor        int64      `json:"total_minor"`
	AvailableMinor    int64      `json:"available_minor"`
	HeldMinor         int64      `json:"held_minor"`
	RefundedMinor     int64      `json:"refunded_minor"`
	Status            string     `json:"status"`
	ReleaseAt         int64      `json:"release_at"`
	ReleasedAt        *int64     `json:"released_at,omitempty"`
	RefundedAt        *int64     `json:"refunded_at,omitempty"`
	RefundReason      string     `json:"refund_reason,omitempty"`
	CreatedAt         int64      `json:"created_at"`
}

type CommissionBalances struct {
	AvailableMinor int64 `json:"available_minor"`
	HeldMinor      int64 `json:"held_minor"`
	RefundedMinor  int64 `json:"refunded_minor"`
	LifetimeMinor  int64 `json:"lifetime_minor"`
	Count          int64 `json:"count"`
}

type AffiliateDashboard struct {
	Affiliate AffiliateResponse  `json:"affiliate"`
	Balances  CommissionBalances `json:"balances"`
	ShareURL  string             `json:"share_url"`
}
