package services

import (
	dbm "customermind/internal/models/db_models"
	"customermind/internal/permissions"
)

// Tenant identifies the calling account. Every tenant-scoped document is keyed by ID.
type Tenant struct {
	ID   string
	Role dbm.Role
	Tier dbm.Tier
}

// ContactLimit is the tier's contact cap; admin roles are unlimited.
func (t Tenant) ContactLimit() int {
	if t.Role.IsAdmin() {
		return permissions.Unlimited
	}
	return permissions.ContactLimit(t.Tier)
}

func (t Tenant) WithinContactLimit(n int) bool {
	if t.Role.IsAdmin() {
		return true
	}
	return permissions.WithinContactLimit(t.Tier, n)
}

func (t Tenant) Can(feature permissions.Feature) bool {
	return permissions.CanUseFeature(t.Role, t.Tier, feature)
}
