// Package permissions holds the static role and tier tables.
package permissions

import dbm "customermind/internal/models/db_models"

type Feature string

const (
	FeatureCustomerIntelligence Feature = "customer_intelligence"
	FeatureEmailCampaigns       Feature = "email_campaigns"
	FeatureWebsiteIntelligence  Feature = "website_intelligence"
	FeatureCrossSell            Feature = "cross_sell"
	FeatureCustomerHealth       Feature = "customer_health"
	FeatureAffiliateProgram     Feature = "affiliate_program"
	FeatureGrowthInsights       Feature = "growth_insights"
	FeatureOdooIntegration      Feature = "odoo_integration"
	FeatureAPIAccess            Feature = "api_access"
	FeatureWhiteLabelBranding   Feature = "white_label_branding"
)

type Permission string

const (
	PermManageUsers      Permission = "users:manage"
	PermManageRoles      Permission = "roles:manage"
	PermManagePlans      Permission = "plans:manage"
	PermViewDashboard    Permission = "dashboard:view"
	PermManageAffiliates Permission = "affiliates:manage"
	PermRefundPayments   Permission = "payments:refund"
	PermViewAudit        Permission = "audit:view"
	PermUseProduct       Permission = "product:use"
)

// Unlimited marks tiers without a contact cap.
const Unlimited = -1

type TierLimits struct {
	Features     []Feature
	ContactLimit int
}

var tierTable = map[dbm.Tier]TierLimits{
	dbm.TierFree: {
		Features:     []Feature{FeatureCustomerIntelligence},
		ContactLimit: 100,
	},
	dbm.TierLaunch: {
		Features: []Feature{
			FeatureCustomerIntelligence, FeatureEmailCampaigns, FeatureWebsiteIntelligence,
		},
		ContactLimit: 1000,
	},
	dbm.TierGrowth: {
		Features: []Feature{
			FeatureCustomerIntelligence, FeatureEmailCampaigns, FeatureWebsiteIntelligence,
			FeatureCrossSell, FeatureCustomerHealth, FeatureAffiliateProgram,
		},
		ContactLimit: 5000,
	},
	dbm.TierScale: {
		Features: []Feature{
			FeatureCustomerIntelligence, FeatureEmailCampaigns, FeatureWebsiteIntelligence,
			FeatureCrossSell, FeatureCustomerHealth, FeatureAffiliateProgram,
			FeatureGrowthInsights, FeatureOdooIntegration, FeatureAPIAccess,
		},
		ContactLimit: 25000,
	},
	dbm.TierWhiteLabel: {
		Features:     allFeatures,
		ContactLimit: Unlimited,
	},
	dbm.TierCustom: {
		Features:     allFeatures,
		ContactLimit: Unlimited,
	},
}

var allFeatures = []Feature{
	FeatureCustomerIntelligence, FeatureEmailCampaigns, FeatureWebsiteIntelligence,
	FeatureCrossSell, FeatureCustomerHealth, FeatureAffiliateProgram,
	FeatureGrowthInsights, FeatureOdooIntegration, FeatureAPIAccess, FeatureWhiteLabelBranding,
}

var roleTable = map[dbm.Role][]Permission{
	dbm.RoleUser: {PermUseProduct},
	dbm.RoleAdmin: {
		PermUseProduct, PermManageUsers, PermManagePlans, PermViewDashboard,
		PermManageAffiliates, PermRefundPayments, PermViewAudit,
	},
	dbm.RoleSuperAdmin: {
		PermUseProduct, PermManageUsers, PermManageRoles, PermManagePlans, PermViewDashboard,
		PermManageAffiliates, PermRefundPayments, PermViewAudit,
	},
}

func HasFeature(tier dbm.Tier, feature Feature) bool {
	for _, f := range tierTable[tier].Features {
		if f == feature {
			return true
		}
	}
	return false
}

// CanUseFeature applies the tier table; admin roles bypass it.
func CanUseFeature(role dbm.Role, tier dbm.Tier, feature Feature) bool {
	return role.IsAdmin() || HasFeature(tier, feature)
}

// tierOrder is the upgrade path, cheapest first.
var tierOrder = []dbm.Tier{
	dbm.TierFree, dbm.TierLaunch, dbm.TierGrowth, dbm.TierScale, dbm.TierWhiteLabel, dbm.TierCustom,
}

// TiersWithFeature lists the tiers that include feature, cheapest first.
func TiersWithFeature(feature Feature) []dbm.Tier {
	var out []dbm.Tier
	for _, t := range tierOrder {
		if HasFeature(t, feature) {
			out = append(out, t)
		}
	}
	return out
}

func Features(tier dbm.Tier) []Feature {
	return append([]Feature(nil), tierTable[tier].Features...)
}

// ContactLimit returns the tier's contact cap, or Unlimited. Unknown tiers get 0.
func ContactLimit(tier dbm.Tier) int {
	limits, ok := tierTable[tier]
	if !ok {
		return 0
	}
	return limits.ContactLimit
}

func WithinContactLimit(tier dbm.Tier, n int) bool {
	limit := ContactLimit(tier)
	return limit == Unlimited || n <= limit
}

func HasPermission(role dbm.Role, perm Permission) bool {
	for _, p := range roleTable[role] {
		if p == perm {
			return true
		}
	}
	return false
}
