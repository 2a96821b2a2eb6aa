package services

import (
	"fmt"
	"math"

	dbm "customermind/internal/models/db_models"
	"customermind/pkg/utils"
)

// CommissionTotal is round(sale * rate) in minor units.
func CommissionTotal(saleMinor int64, rate float64) int64 {
	return int64(math.Round(float64(saleMinor) * rate))
}

// SplitCommission returns (available, held) with held = round(total * percent / 100).
func SplitCommission(totalMinor int64, holdbackPercent int) (available, held int64) {
	held = int64(math.Round(float64(totalMinor) * float64(holdbackPercent) / 100))
	if held > totalMinor {
		held = totalMinor
	}
	return totalMinor - held, held
}

// NewCommission builds a holdback commission for a sale.
func NewCommission(a *dbm.Affiliate, s *dbm.AffiliateSettings, saleMinor int64, currency string, now int64) *dbm.Commission {
	total := CommissionTotal(saleMinor, a.CommissionRate)
	available, held := SplitCommission(total, s.HoldbackPercent)

	c := &dbm.Commission{
		AffiliateID:     a.ID,
		SaleAmountMinor: saleMinor,
		Currency:        currency,
		Rate:            a.CommissionRate,
		HoldbackPercent: s.HoldbackPercent,
		TotalMinor:      total,
		AvailableMinor:  available,
		HeldMinor:       held,
		Status:          dbm.CommissionHoldback,
		ReleaseAt:       now + int64(s.HoldbackDays)*86400,
	}
	if held == 0 {
		c.Status = dbm.CommissionReleased
		c.ReleasedAt = &now
	}
	return c
}

// ApplyCommissionRefund moves everything not yet refunded into RefundedMinor.
func ApplyCommissionRefund(c *dbm.Commission, reason string, now int64) error {
	if c.Status == dbm.CommissionRefunded {
		return utils.ErrCommissionAlreadyRefunded
	}
	c.RefundedMinor += c.AvailableMinor + c.HeldMinor
	c.AvailableMinor = 0
	c.HeldMinor = 0
	c.Status = dbm.CommissionRefunded
	c.RefundedAt = &now
	c.RefundReason = reason
	return nil
}

// ReleaseHoldback moves the held amount into available once release time has passed.
func ReleaseHoldback(c *dbm.Commission, now int64) bool {
	if c.Status != dbm.CommissionHoldback || c.ReleaseAt > now {
		return false
	}
	c.AvailableMinor += c.HeldMinor
	c.HeldMinor = 0
	c.Status = dbm.CommissionReleased
	c.ReleasedAt = &now
	return true
}

type AffiliateStanding string

const (
	StandingUnchanged  AffiliateStanding = ""
	StandingFlagged    AffiliateStanding = "flagged"
	StandingUnflagged  AffiliateStanding = "unflagged"
	StandingAutoPaused AffiliateStanding = "auto_paused"
)

// EvaluateRefundRate recomputes the refund rate and applies the flag and
// auto-pause thresholds once enough commissions exist.
func EvaluateRefundRate(a *dbm.Affiliate, s *dbm.AffiliateSettings, now int64) AffiliateStanding {
	if a.CommissionCount > 0 {
		a.RefundRate = float64(a.RefundedCount) / float64(a.CommissionCount)
	} else {
		a.RefundRate = 0
	}

	if a.CommissionCount < s.MinCommissionsForAction {
		return StandingUnchanged
	}

	switch {
	case a.RefundRate >= s.PauseRefundRate:
		if a.Status == dbm.AffiliatePaused {
			// Manual pauses keep their reason but still carry the flag.
			if a.IsFlagged {
				return StandingUnchanged
			}
			a.IsFlagged = true
			a.FlagReason = fmt.Sprintf("refund rate %.0f%% reached auto-pause threshold %.0f%%",
				a.RefundRate*100, s.PauseRefundRate*100)
			return StandingFlagged
		}
		a.Status = dbm.AffiliatePaused
		a.AutoPaused = true
		a.IsFlagged = true
		a.PausedAt = &now
		a.PausedReason = fmt.Sprintf("refund rate %.0f%% reached auto-pause threshold %.0f%%",
			a.RefundRate*100, s.PauseRefundRate*100)
		a.FlagReason = a.PausedReason
		return StandingAutoPaused
	case a.RefundRate >= s.FlagRefundRate:
		if a.IsFlagged {
			return StandingUnchanged
		}
		a.IsFlagged = true
		a.FlagReason = fmt.Sprintf("refund rate %.0f%% reached flag threshold %.0f%%",
			a.RefundRate*100, s.FlagRefundRate*100)
		return StandingFlagged
	default:
		if !a.IsFlagged {
			return StandingUnchanged
		}
		a.IsFlagged = false
		a.FlagReason = ""
		return StandingUnflagged
	}
}

func ValidateAffiliateSettings(s *dbm.AffiliateSettings) error {
	switch {
	case s.HoldbackPercent < 0 || s.HoldbackPercent > 100:
		return fmt.Errorf("%w: holdback_percent must be within 0..100", utils.ErrInvalidAffiliateSettings)
	case s.HoldbackDays < 0:
		return fmt.Errorf("%w: holdback_days must be >= 0", utils.ErrInvalidAffiliateSettings)
	case s.FlagRefundRate < 0 || s.FlagRefundRate > 1 || s.PauseRefundRate < 0 || s.PauseRefundRate > 1:
		return fmt.Errorf("%w: refund thresholds must be within 0..1", utils.ErrInvalidAffiliateSettings)
	case s.PauseRefundRate < s.FlagRefundRate:
		return fmt.Errorf("%w: pause threshold must be >= flag threshold", utils.ErrInvalidAffiliateSettings)
	case s.MinCommissionsForAction < 0:
		return fmt.Errorf("%w: min_commissions_for_action must be >= 0", utils.ErrInvalidAffiliateSettings)
	case s.DefaultCommissionRate <= 0 || s.DefaultCommissionRate > 1:
		return fmt.Errorf("%w: default_commission_rate must be within (0, 1]", utils.ErrInvalidAffiliateSettings)
	}
	return nil
}
