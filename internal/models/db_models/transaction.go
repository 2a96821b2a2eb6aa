package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TransactionStatus string

const (
	TxnStatusPending  TransactionStatus = "pending"
	TxnStatusPaid     TransactionStatus = "paid"
	TxnStatusFailed   TransactionStatus = "failed"
	TxnStatusRefunded TransactionStatus = "refunded"
)

type Transaction struct {
	BaseModel
	AccountID      uuid.UUID         `gorm:"type:uuid;index"`
	PlanID         *uuid.UUID        `gorm:"type:uuid;index"`
	SubscriptionID *uuid.UUID        `gorm:"type:uuid;index"` // set once the payment activates a subscription
	AmountMinor    int64             // e.g., 999 = $9.99
	Currency       string            `gorm:"size:3"` // ISO 4217 (e.g., "USD","VND")
	Status         TransactionStatus `gorm:"type:varchar(16);index"`

	// Gateway fields
	Provider         string `gorm:"index"`
	ProviderTxnID    string `gorm:"uniqueIndex"` // idempotency across webhooks
	PaymentMethodRef string

	// Important timestamps (unix seconds)
	PaidAt     *int64
	RefundedAt *int64

	Receipt  datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	Metadata datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	Account Account `gorm:"foreignKey:AccountID"`
}
