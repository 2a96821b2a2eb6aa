package request_models

type RegisterAffiliateRequest struct {
	Name         string `json:"name" binding:"omitempty,max=120"`
	Email        string `json:"email" binding:"omitempty,email"`
	ReferralCode string `json:"referral_code" binding:"omitempty,alphanum,min=4,max=32"`
}

type AdminCreateAffiliateRequest struct {
	Name           string   `json:"name" binding:"required,max=120"`
	Email          string   `json:"email" binding:"required,email"`
	ReferralCode   string   `json:"referral_code" binding:"omitempty,alphanum,min=4,max=32"`
	CommissionRate *float64 `json:"commission_rate" binding:"omitempty,gt=0,lte=1"`
}

type CreateCommissionRequest struct {
	AffiliateID       string `json:"affiliate_id" binding:"required,uuid"`
	SaleAmountMinor   int64  `json:"sale_amount_minor" binding:"required,gt=0"`
	Currency          string `json:"currency" binding:"omitempty,len=3"`
	TransactionID     string `json:"transaction_id" binding:"omitempty,uuid"`
	ReferredAccountID string `json:"referred_account_id" binding:"omitempty,uuid"`
}

type RefundCommissionRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

type PauseAffiliateRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

type ListAffiliatesQuery struct {
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"page_size,default=20" binding:"min=1,max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=active paused"`
	Flagged  *bool  `form:"flagged"`
	Search   string `form:"search"`
}

type AffiliateSettingsRequest struct {
	HoldbackPercent         int     `json:"holdback_percent" binding:"min=0,max=100"`
	HoldbackDays            int     `json:"holdback_days" binding:"min=0"`
	FlagRefundRate          float64 `json:"flag_refund_rate" binding:"min=0,max=1"`
	PauseRefundRate         float64 `json:"pause_refund_rate" binding:"min=0,max=1"`
	MinCommissionsForAction int64   `json:"min_commissions_for_action" binding:"min=0"`
	DefaultCommissionRate   float64 `json:"default_commission_rate" binding:"gt=0,max=1"`
}
