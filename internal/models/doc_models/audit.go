package doc_models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event categories
const (
	AuditCategoryAuth      = "auth"
	AuditCategoryAdmin     = "admin"
	AuditCategoryBilling   = "billing"
	AuditCategoryAffiliate = "affiliate"
	AuditCategoryData      = "data"
)

// Event types
const (
	EventLoginSuccess             = "login_success"
	EventLoginFailedUserNotFound  = "login_failed_user_not_found"
	EventLoginFailedWrongPassword = "login_failed_wrong_password"
	EventLoginFailedUserDisabled  = "login_failed_user_disabled"
	EventLoginFailedLocked        = "login_failed_locked"
	EventAccountLocked            = "account_locked"
	EventPasswordChanged          = "password_changed"
	EventPasswordReset            = "password_reset"

	EventUserUpdated     = "user_updated"
	EventUserDeactivated = "user_deactivated"
	EventUserUnlocked    = "user_unlocked"
	EventPlanSaved       = "plan_saved"

	EventPaymentReceived     = "payment_received"
	EventTransactionRefunded = "transaction_refunded"

	EventAffiliateCreated    = "affiliate_created"
	EventAffiliatePaused     = "affiliate_paused"
	EventAffiliateAutoPaused = "affiliate_auto_paused"
	EventAffiliateFlagged    = "affiliate_flagged"
	EventAffiliateUnflagged  = "affiliate_unflagged"
	EventAffiliateResumed    = "affiliate_resumed"
	EventCommissionRefunded  = "commission_refunded"
	EventSettingsUpdated     = "affiliate_settings_updated"

	EventCRMSynced = "crm_synced"
)

type AuditEvent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	Category  string             `bson:"category" json:"category"`
	EventType string             `bson:"event_type" json:"event_type"`

	ActorID   string `bson:"actor_id,omitempty" json:"actor_id,omitempty"`
	SubjectID string `bson:"subject_id,omitempty" json:"subject_id,omitempty"`

	IP            string            `bson:"ip,omitempty" json:"ip,omitempty"`
	Success       bool              `bson:"success" json:"success"`
	FailureReason string            `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`
	Details       map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

type AuditFilter struct {
	Category  string
	EventType string
	ActorID   string
	SubjectID string
	Start     *time.Time
	End       *time.Time
	Limit     int64
	Offset    int64
}
