package request_models

type CreatePaymentRequest struct {
	PlanCode string `json:"plan_code" binding:"required"`
}

type RefundTransactionRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type PlanRequest struct {
	Code        string   `json:"code" binding:"required,max=64"`
	Name        string   `json:"name" binding:"required,max=120"`
	Description *string  `json:"description"`
	Tier        string   `json:"tier" binding:"required,oneof=free launch growth scale white_label custom"`
	Period      string   `json:"period" binding:"required,oneof=month year"`
	PriceMinor  int64    `json:"price_minor" binding:"gte=0"`
	Currency    string   `json:"currency" binding:"required,len=3"`
	TrialDays   int32    `json:"trial_days" binding:"gte=0"`
	IsActive    *bool    `json:"is_active"`
	Features    []string `json:"features"`
}
