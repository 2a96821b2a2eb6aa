package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	dbm "customermind/internal/models/db_models"
	"customermind/internal/models/request_models"
	resp "customermind/internal/models/response_models"
	"customermind/internal/repositories"
	"customermind/pkg/utils"
)

type MockDashboardRepository struct {
	mock.Mock
}

func (m *MockDashboardRepository) Counts(ctx context.Context, start, end time.Time) (repositories.DashboardCounts, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).(repositories.DashboardCounts), args.Error(1)
}

func (m *MockDashboardRepository) Series(ctx context.Context, metric repositories.SeriesMetric, start, end time.Time, interval, tz string) ([]repositories.BucketSum, error) {
	args := m.Called(ctx, metric, start, end, interval, tz)
	rows, _ := args.Get(0).([]repositories.BucketSum)
	return rows, args.Error(1)
}

func (m *MockDashboardRepository) LiveSubscriptions(ctx context.Context, at time.Time) ([]repositories.LiveSubscriptionRow, error) {
	args := m.Called(ctx, at)
	rows, _ := args.Get(0).([]repositories.LiveSubscriptionRow)
	return rows, args.Error(1)
}

func (m *MockDashboardRepository) TierMix(ctx context.Context) ([]repositories.TierRow, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]repositories.TierRow)
	return rows, args.Error(1)
}

func (m *MockDashboardRepository) RecentPaidTransactions(ctx context.Context, limit int) ([]repositories.RecentPaymentRow, error) {
	args := m.Called(ctx, limit)
	rows, _ := args.Get(0).([]repositories.RecentPaymentRow)
	return rows, args.Error(1)
}

type stubCommissionTotals struct {
	balances repositories.CommissionBalances
	err      error
}

func (s stubCommissionTotals) Balances(context.Context, *uuid.UUID) (repositories.CommissionBalances, error) {
	return s.balances, s.err
}

func TestNormalizeRange(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	r := NormalizeRange(resp.TimeRange{}, now)
	assert.Equal(t, "day", r.Interval)
	assert.Equal(t, "UTC", r.Timezone)
	assert.Equal(t, now, r.End)
	assert.Equal(t, now.AddDate(0, 0, -30), r.Start)

	swapped := NormalizeRange(resp.TimeRange{Start: now, End: now.AddDate(0, 0, -7), Interval: "week"}, now)
	assert.True(t, swapped.Start.Before(swapped.End))
	assert.Equal(t, "week", swapped.Interval)
}

func TestRecurringRevenue(t *testing.T) {
	growth := uuid.NewString()
	scale := uuid.NewString()
	rows := []repositories.LiveSubscriptionRow{
		{PlanID: growth, PlanCode: "growth_month", Period: "month", PriceMinor: 9900},
		{PlanID: growth, PlanCode: "growth_month", Period: "month", PriceMinor: 9900},
		{PlanID: scale, PlanCode: "scale_year", Period: "year", PriceMinor: 240000},
	}

	mrr, arpu, mix := RecurringRevenue(rows)

	assert.Equal(t, int64(9900+9900+20000), mrr)
	assert.InDelta(t, float64(mrr)/3, arpu, 0.001)
	require.Len(t, mix, 2)
	assert.Equal(t, "growth_month", mix[0].PlanCode)
	assert.Equal(t, int64(2), mix[0].Count)
	assert.InDelta(t, 66.67, mix[0].Percent, 0.01)
	assert.Equal(t, scale, mix[1].PlanID.String())

	mrr, arpu, mix = RecurringRevenue(nil)
	assert.Zero(t, mrr)
	assert.Zero(t, arpu)
	assert.Empty(t, mix)
}

func TestMonthlyEquivalent(t *testing.T) {
	assert.Equal(t, int64(9900), MonthlyEquivalent(9900, string(dbm.PeriodMonth)))
	assert.Equal(t, int64(1000), MonthlyEquivalent(12000, string(dbm.PeriodYear)))
	assert.Zero(t, MonthlyEquivalent(5000, "week"))
}

func newTestDashboard(repo *MockDashboardRepository, totals CommissionTotals) *dashboardService {
	svc := NewDashboardService(repo, totals).(*dashboardService)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestBuildDashboardAssemblesReport(t *testing.T) {
	ctx := context.Background()
	repo := new(MockDashboardRepository)
	planID := uuid.NewString()
	txnID := uuid.NewString()
	day := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)

	repo.On("Counts", mock.Anything, mock.Anything, mock.Anything).Return(repositories.DashboardCounts{
		TotalAccounts:      40,
		NewAccounts:        6,
		SubscriptionStatus: map[dbm.SubscriptionStatus]int64{dbm.SubStatusActive: 10, dbm.SubStatusCanceled: 2},
		CanceledInRange:    1,
		SubscribersAtStart: 8,
		ActiveAffiliates:   3,
		FlaggedAffiliates:  1,
	}, nil)
	repo.On("Series", mock.Anything, repositories.MetricRevenue, mock.Anything, mock.Anything, "day", "UTC").
		Return([]repositories.BucketSum{{Bucket: day, Sum: 9900}, {Bucket: day.AddDate(0, 0, 1), Sum: 19800}}, nil)
	repo.On("Series", mock.Anything, repositories.MetricNewAccounts, mock.Anything, mock.Anything, "day", "UTC").
		Return([]repositories.BucketSum{{Bucket: day, Sum: 4}}, nil)
	repo.On("Series", mock.Anything, repositories.MetricNewSubscriptions, mock.Anything, mock.Anything, "day", "UTC").
		Return([]repositories.BucketSum{}, nil)
	repo.On("LiveSubscriptions", mock.Anything, testNow).
		Return([]repositories.LiveSubscriptionRow{{PlanID: planID, PlanCode: "growth_month", Period: "month", PriceMinor: 9900}}, nil)
	repo.On("TierMix", mock.Anything).Return([]repositories.TierRow{{Tier: "growth", Count: 10}}, nil)
	repo.On("RecentPaidTransactions", mock.Anything, recentPaymentsLimit).
		Return([]repositories.RecentPaymentRow{{ID: txnID, AmountMinor: 9900, Currency: "USD", Status: "paid"}}, nil)

	svc := newTestDashboard(repo, stubCommissionTotals{balances: repositories.CommissionBalances{AvailableMinor: 2376, HeldMinor: 594, Count: 1}})

	report, err := svc.BuildDashboard(ctx, resp.TimeRange{}, "USD")
	require.NoError(t, err)

	assert.Equal(t, int64(40), report.KPIs.TotalAccounts)
	assert.Equal(t, int64(10), report.KPIs.ActiveSubscriptions)
	assert.Equal(t, int64(2), report.KPIs.CanceledSubscriptions)
	assert.Equal(t, int64(9900), report.KPIs.MRRMinor)
	assert.Equal(t, int64(9900*12), report.KPIs.ARRMinor)
	assert.InDelta(t, 12.5, report.KPIs.ChurnPct, 0.001)
	assert.Equal(t, int64(29700), report.Revenue.TotalMinor)
	assert.Len(t, report.NewUsers.Points, 1)
	assert.Empty(t, report.NewSubs.Points)
	assert.Equal(t, int64(3), report.Affiliates.Active)
	assert.Equal(t, int64(594), report.Affiliates.HeldMinor)
	require.Len(t, report.RecentPayments, 1)
	assert.Equal(t, txnID, report.RecentPayments[0].ID.String())
	assert.Equal(t, testNow.AddDate(0, 0, -30), report.Range.Start)
	repo.AssertExpectations(t)
}

func TestBuildDashboardFailsWhenASectionFails(t *testing.T) {
	repo := new(MockDashboardRepository)
	repo.On("Counts", mock.Anything, mock.Anything, mock.Anything).Return(repositories.DashboardCounts{}, nil).Maybe()
	repo.On("Series", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil).Maybe()
	repo.On("LiveSubscriptions", mock.Anything, mock.Anything).Return(nil, nil).Maybe()
	repo.On("TierMix", mock.Anything).Return(nil, errors.New("connection reset")).Maybe()
	repo.On("RecentPaidTransactions", mock.Anything, mock.Anything).Return(nil, nil).Maybe()

	svc := newTestDashboard(repo, stubCommissionTotals{})

	_, err := svc.BuildFromQuery(context.Background(), request_models.DashboardQuery{})
	assert.ErrorIs(t, err, utils.ErrDatabaseError)
}

func TestBuildFromQueryRejectsUnknownTimezone(t *testing.T) {
	svc := newTestDashboard(new(MockDashboardRepository), stubCommissionTotals{})

	_, err := svc.BuildFromQuery(context.Background(), request_models.DashboardQuery{Timezone: "Mars/Olympus"})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
}
