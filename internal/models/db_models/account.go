package db_models

import "gorm.io/datatypes"

type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type Tier string

const (
	TierFree       Tier = "free"
	TierLaunch     Tier = "launch"
	TierGrowth     Tier = "growth"
	TierScale      Tier = "scale"
	TierWhiteLabel Tier = "white_label"
	TierCustom     Tier = "custom"
)

func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierLaunch, TierGrowth, TierScale, TierWhiteLabel, TierCustom:
		return true
	}
	return false
}

// Account is a tenant login. Deactivation is soft via IsActive.
type Account struct {
	BaseModel
	Name         string
	Email        string `gorm:"uniqueIndex"`
	PasswordHash string
	Role         Role `gorm:"type:varchar(32);default:'user';index"`
	Tier         Tier `gorm:"type:varchar(32);default:'free';index"`
	IsActive     bool `gorm:"default:true"`

	FailedLoginAttempts int `gorm:"default:0"`
	LockedUntil         *int64
	LastLoginAt         *int64

	ReferredByCode string `gorm:"index"`

	SubscriptionSnapshot datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
}

func (a *Account) IsLocked(now int64) bool {
	return a.LockedUntil != nil && *a.LockedUntil > now
}
