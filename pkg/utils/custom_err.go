package utils

import "errors"

var (
	ErrInvalidPage     = errors.New("invalid page parameter")
	ErrInvalidPageSize = errors.New("invalid page size parameter")
	ErrDatabaseError   = errors.New("database error")
	ErrInvalidInput    = errors.New("invalid input")
	RecordNotFound     = errors.New("record not found")

	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrAccountLocked      = errors.New("account locked")
	ErrAccountInactive    = errors.New("account inactive")
	ErrTooManyAttempts    = errors.New("too many login attempts")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrForbidden          = errors.New("forbidden")
	ErrFeatureNotInPlan   = errors.New("feature not available in current plan")

	ErrPlanNotFound         = errors.New("plan not found")
	ErrPlanNotBillable      = errors.New("plan is not billable")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrNoActiveSubscription = errors.New("no active subscription")
	ErrPaymentProvider      = errors.New("payment provider error")
	ErrInvalidWebhook       = errors.New("invalid payment webhook")
	ErrTransactionNotPaid   = errors.New("transaction is not paid")

	ErrCampaignNotFound       = errors.New("campaign not found")
	ErrCampaignNotDraft       = errors.New("campaign is not a draft")
	ErrRecipientLimitExceeded = errors.New("recipient limit exceeded for plan")
	ErrNoRecipients           = errors.New("campaign has no recipients")
	ErrNoEmailProvider        = errors.New("no email provider configured")

	ErrAffiliateNotFound         = errors.New("affiliate not found")
	ErrAffiliateExists           = errors.New("affiliate already registered")
	ErrReferralCodeTaken         = errors.New("referral code already taken")
	ErrAffiliatePaused           = errors.New("affiliate is paused")
	ErrCommissionNotFound        = errors.New("commission not found")
	ErrCommissionAlreadyRefunded = errors.New("commission already refunded")
	ErrInvalidAffiliateSettings  = errors.New("invalid affiliate settings")

	ErrCustomerNotFound    = errors.New("customer not found")
	ErrDemoRecordImmutable = errors.New("demo records cannot be deleted")
	ErrCRMUnavailable      = errors.New("crm unavailable")
	ErrAlertNotFound       = errors.New("alert not found")
	ErrContactLimit        = errors.New("contact limit reached for plan")
	ErrProductNotFound     = errors.New("product not found")

	ErrUnexpectedBehaviorOfAI = errors.New("unexpected behavior of AI service")
)
