package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	dbm "customermind/internal/models/db_models"
)

func TestTierFeatures(t *testing.T) {
	assert.True(t, HasFeature(dbm.TierFree, FeatureCustomerIntelligence))
	assert.False(t, HasFeature(dbm.TierFree, FeatureEmailCampaigns))
	assert.True(t, HasFeature(dbm.TierLaunch, FeatureEmailCampaigns))
	assert.False(t, HasFeature(dbm.TierLaunch, FeatureCustomerHealth))
	assert.True(t, HasFeature(dbm.TierGrowth, FeatureCustomerHealth))
	assert.False(t, HasFeature(dbm.TierGrowth, FeatureOdooIntegration))
	assert.True(t, HasFeature(dbm.TierScale, FeatureOdooIntegration))
	assert.True(t, HasFeature(dbm.TierWhiteLabel, FeatureWhiteLabelBranding))
	assert.False(t, HasFeature(dbm.Tier("bogus"), FeatureCustomerIntelligence))
}

func TestAdminsBypassTierGates(t *testing.T) {
	assert.True(t, CanUseFeature(dbm.RoleAdmin, dbm.TierFree, FeatureOdooIntegration))
	assert.False(t, CanUseFeature(dbm.RoleUser, dbm.TierFree, FeatureOdooIntegration))
}

func TestContactLimits(t *testing.T) {
	assert.Equal(t, 1000, ContactLimit(dbm.TierLaunch))
	assert.Equal(t, Unlimited, ContactLimit(dbm.TierCustom))
	assert.True(t, WithinContactLimit(dbm.TierLaunch, 1000))
	assert.False(t, WithinContactLimit(dbm.TierLaunch, 1001))
	assert.True(t, WithinContactLimit(dbm.TierWhiteLabel, 1_000_000))
	assert.False(t, WithinContactLimit(dbm.Tier("bogus"), 1))
}

func TestRolePermissions(t *testing.T) {
	assert.True(t, HasPermission(dbm.RoleSuperAdmin, PermManageRoles))
	assert.False(t, HasPermission(dbm.RoleAdmin, PermManageRoles))
	assert.True(t, HasPermission(dbm.RoleAdmin, PermRefundPayments))
	assert.False(t, HasPermission(dbm.RoleUser, PermViewDashboard))
}

func TestFeaturesReturnsCopy(t *testing.T) {
	f := Features(dbm.TierLaunch)
	f[0] = "mutated"
	assert.Equal(t, FeatureCustomerIntelligence, Features(dbm.TierLaunch)[0])
}

func TestTiersWithFeature(t *testing.T) {
	assert.Equal(t,
		[]dbm.Tier{dbm.TierScale, dbm.TierWhiteLabel, dbm.TierCustom},
		TiersWithFeature(FeatureOdooIntegration))
	assert.Equal(t, dbm.TierFree, TiersWithFeature(FeatureCustomerIntelligence)[0])
}
