package db_models

import "github.com/google/uuid"

type AffiliateStatus string

const (
	AffiliateActive AffiliateStatus = "active"
	AffiliatePaused AffiliateStatus = "paused"
)

type Affiliate struct {
	BaseModel
	AccountID      *uuid.UUID      `gorm:"type:uuid;uniqueIndex"`
	Name           string
	Email          string          `gorm:"index"`
	ReferralCode   string          `gorm:"uniqueIndex"`
	Status         AffiliateStatus `gorm:"type:varchar(16);default:'active';index"`
	CommissionRate float64

	IsFlagged  bool `gorm:"default:false;index"`
	FlagReason string

	CommissionCount int64
	RefundedCount   int64
	RefundRate      float64

	AutoPaused   bool
	PausedReason string
	PausedAt     *int64
}

// AffiliateSettings is a singleton row (ID = AffiliateSettingsID).
type AffiliateSettings struct {
	ID                      int     `gorm:"primaryKey"`
	HoldbackPercent         int     `json:"holdback_percent"`
	HoldbackDays            int     `json:"holdback_days"`
	FlagRefundRate          float64 `json:"flag_refund_rate"`
	PauseRefundRate         float64 `json:"pause_refund_rate"`
	MinCommissionsForAction int64   `json:"min_commissions_for_action"`
	DefaultCommissionRate   float64 `json:"default_commission_rate"`
	UpdatedAt               int64   `gorm:"autoUpdateTime" json:"updated_at"`
}

const AffiliateSettingsID = 1

type CommissionStatus string

const (
	CommissionHoldback CommissionStatus = "holdback"
	CommissionReleased CommissionStatus = "released"
	CommissionRefunded CommissionStatus = "refunded"
)

// Commission amounts are minor units; AvailableMinor + HeldMinor + RefundedMinor == TotalMinor.
type Commission struct {
	BaseModel
	AffiliateID       uuid.UUID  `gorm:"type:uuid;index"`
	ReferredAccountID *uuid.UUID `gorm:"type:uuid;index"`
	TransactionID     *uuid.UUID `gorm:"type:uuid;uniqueIndex"`

	SaleAmountMinor int64
	Currency        string `gorm:"size:3"`
	Rate            float64
	HoldbackPercent int

	TotalMinor     int64
	AvailableMinor int64
	HeldMinor      int64
	RefundedMinor  int64

	Status       CommissionStatus `gorm:"type:varchar(16);index"`
	ReleaseAt    int64            `gorm:"index"`
	ReleasedAt   *int64
	RefundedAt   *int64
	RefundReason string
}
