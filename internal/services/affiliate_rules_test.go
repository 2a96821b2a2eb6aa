package services

import (
	"testing"

	dbm "customermind/internal/models/db_models"
	"customermind/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultSettings() *dbm.AffiliateSettings {
	return &dbm.AffiliateSettings{
		HoldbackPercent:         20,
		HoldbackDays:            30,
		FlagRefundRate:          0.10,
		PauseRefundRate:         0.20,
		MinCommissionsForAction: 5,
		DefaultCommissionRate:   0.30,
	}
}

func TestNewCommissionSplitsHoldback(t *testing.T) {
	a := &dbm.Affiliate{CommissionRate: 0.30}
	now := int64(1_700_000_000)

	c := NewCommission(a, defaultSettings(), 9900, "USD", now)

	assert.Equal(t, int64(2970), c.TotalMinor)
	assert.Equal(t, int64(594), c.HeldMinor)
	assert.Equal(t, int64(2376), c.AvailableMinor)
	assert.Equal(t, c.TotalMinor, c.AvailableMinor+c.HeldMinor)
	assert.Equal(t, dbm.CommissionHoldback, c.Status)
	assert.Equal(t, now+30*86400, c.ReleaseAt)
}

func TestNewCommissionWithoutHoldbackIsReleased(t *testing.T) {
	s := defaultSettings()
	s.HoldbackPercent = 0

	c := NewCommission(&dbm.Affiliate{CommissionRate: 0.5}, s, 1000, "USD", 42)

	assert.Equal(t, int64(500), c.AvailableMinor)
	assert.Zero(t, c.HeldMinor)
	assert.Equal(t, dbm.CommissionReleased, c.Status)
	require.NotNil(t, c.ReleasedAt)
	assert.Equal(t, int64(42), *c.ReleasedAt)
}

func TestSplitCommissionFullHoldback(t *testing.T) {
	available, held := SplitCommission(1001, 100)
	assert.Zero(t, available)
	assert.Equal(t, int64(1001), held)
}

func TestApplyCommissionRefundOnlyOnce(t *testing.T) {
	c := &dbm.Commission{AvailableMinor: 800, HeldMinor: 200, Status: dbm.CommissionHoldback}

	require.NoError(t, ApplyCommissionRefund(c, "chargeback", 100))
	assert.Equal(t, int64(1000), c.RefundedMinor)
	assert.Zero(t, c.AvailableMinor)
	assert.Zero(t, c.HeldMinor)
	assert.Equal(t, dbm.CommissionRefunded, c.Status)
	assert.Equal(t, "chargeback", c.RefundReason)

	err := ApplyCommissionRefund(c, "again", 200)
	assert.ErrorIs(t, err, utils.ErrCommissionAlreadyRefunded)
	assert.Equal(t, int64(1000), c.RefundedMinor)
}

func TestReleaseHoldback(t *testing.T) {
	c := &dbm.Commission{AvailableMinor: 80, HeldMinor: 20, Status: dbm.CommissionHoldback, ReleaseAt: 1000}

	assert.False(t, ReleaseHoldback(c, 999))
	assert.Equal(t, int64(20), c.HeldMinor)

	assert.True(t, ReleaseHoldback(c, 1000))
	assert.Equal(t, int64(100), c.AvailableMinor)
	assert.Zero(t, c.HeldMinor)
	assert.Equal(t, dbm.CommissionReleased, c.Status)

	assert.False(t, ReleaseHoldback(c, 2000))
}

func TestEvaluateRefundRate(t *testing.T) {
	s := defaultSettings()

	t.Run("below minimum commissions nothing happens", func(t *testing.T) {
		a := &dbm.Affiliate{Status: dbm.AffiliateActive, CommissionCount: 4, RefundedCount: 4}
		assert.Equal(t, StandingUnchanged, EvaluateRefundRate(a, s, 1))
		assert.Equal(t, 1.0, a.RefundRate)
		assert.False(t, a.IsFlagged)
		assert.Equal(t, dbm.AffiliateActive, a.Status)
	})

	t.Run("flag threshold", func(t *testing.T) {
		a := &dbm.Affiliate{Status: dbm.AffiliateActive, CommissionCount: 10, RefundedCount: 1}
		assert.Equal(t, StandingFlagged, EvaluateRefundRate(a, s, 1))
		assert.True(t, a.IsFlagged)
		assert.NotEmpty(t, a.FlagReason)
		assert.Equal(t, dbm.AffiliateActive, a.Status)
	})

	t.Run("pause threshold", func(t *testing.T) {
		a := &dbm.Affiliate{Status: dbm.AffiliateActive, CommissionCount: 10, RefundedCount: 2}
		assert.Equal(t, StandingAutoPaused, EvaluateRefundRate(a, s, 7))
		assert.Equal(t, dbm.AffiliatePaused, a.Status)
		assert.True(t, a.AutoPaused)
		require.NotNil(t, a.PausedAt)
		assert.Equal(t, int64(7), *a.PausedAt)
	})

	t.Run("manually paused affiliate is still flagged", func(t *testing.T) {
		a := &dbm.Affiliate{Status: dbm.AffiliatePaused, PausedReason: "under review", CommissionCount: 10, RefundedCount: 3}
		assert.Equal(t, StandingFlagged, EvaluateRefundRate(a, s, 9))
		assert.True(t, a.IsFlagged)
		assert.NotEmpty(t, a.FlagReason)
		assert.False(t, a.AutoPaused)
		assert.Equal(t, "under review", a.PausedReason)

		assert.Equal(t, StandingUnchanged, EvaluateRefundRate(a, s, 10))
	})

	t.Run("flag clears when rate drops", func(t *testing.T) {
		a := &dbm.Affiliate{Status: dbm.AffiliateActive, CommissionCount: 20, RefundedCount: 1, IsFlagged: true, FlagReason: "x"}
		assert.Equal(t, StandingUnflagged, EvaluateRefundRate(a, s, 1))
		assert.False(t, a.IsFlagged)
		assert.Empty(t, a.FlagReason)
	})
}

func TestValidateAffiliateSettings(t *testing.T) {
	require.NoError(t, ValidateAffiliateSettings(defaultSettings()))

	bad := []func(s *dbm.AffiliateSettings){
		func(s *dbm.AffiliateSettings) { s.HoldbackPercent = 101 },
		func(s *dbm.AffiliateSettings) { s.HoldbackDays = -1 },
		func(s *dbm.AffiliateSettings) { s.FlagRefundRate = 1.5 },
		func(s *dbm.AffiliateSettings) { s.PauseRefundRate = 0.05 },
		func(s *dbm.AffiliateSettings) { s.DefaultCommissionRate = 0 },
	}
	for i, mutate := range bad {
		s := defaultSettings()
		mutate(s)
		assert.ErrorIs(t, ValidateAffiliateSettings(s), utils.ErrInvalidAffiliateSettings, "case %d", i)
	}
}
