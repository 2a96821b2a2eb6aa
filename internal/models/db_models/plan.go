package db_models

import (
	"gorm.io/datatypes"
)

type Plan struct {
	BaseModel
	Code        string `gorm:"uniqueIndex"` // e.g., "launch_monthly", "growth_yearly"
	Name        string
	Description *string
	Tier        Tier           `gorm:"type:varchar(32);index"`
	Period      BillingPeriod  `gorm:"type:varchar(16)"` // "month" | "year"
	PriceMinor  int64          // 999 = $9.99
	Currency    string         `gorm:"size:3"` // "USD", "VND"
	TrialDays   int32          `gorm:"default:0"`
	IsActive    bool           `gorm:"default:true"`
	Features    datatypes.JSON `gorm:"type:jsonb;default:'[]'"`
}
