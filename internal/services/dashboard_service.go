package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	dbm "customermind/internal/models/db_models"
	"customermind/internal/models/request_models"
	resp "customermind/internal/models/response_models"
	"customermind/internal/repositories"
	"customermind/pkg/utils"
)

const (
	defaultDashboardDays = 30
	recentPaymentsLimit  = 10
)

type DashboardService interface {
	BuildDashboard(ctx context.Context, rng resp.TimeRange, currency string) (*resp.DashboardReport, error)
	BuildFromQuery(ctx context.Context, q request_models.DashboardQuery) (*resp.DashboardReport, error)
}

// CommissionTotals is the slice of the affiliate store the dashboard reads.
type CommissionTotals interface {
	Balances(ctx context.Context, affiliateID *uuid.UUID) (repositories.CommissionBalances, error)
}

type dashboardService struct {
	repo        repositories.DashboardRepository
	commissions CommissionTotals
	now         func() time.Time
}

func NewDashboardService(repo repositories.DashboardRepository, commissions CommissionTotals) DashboardService {
	return &dashboardService{repo: repo, commissions: commissions, now: time.Now}
}

func (s *dashboardService) BuildFromQuery(ctx context.Context, q request_models.DashboardQuery) (*resp.DashboardReport, error) {
	rng := resp.TimeRange{Interval: q.Interval, Timezone: q.Timezone}
	if q.Start > 0 {
		rng.Start = utils.FromUnixSeconds(q.Start)
	}
	if q.End > 0 {
		rng.End = utils.FromUnixSeconds(q.End)
	}
	if rng.Timezone != "" {
		if _, err := time.LoadLocation(rng.Timezone); err != nil {
			return nil, fmt.Errorf("%w: unknown timezone %q", utils.ErrInvalidInput, rng.Timezone)
		}
	}
	currency := strings.ToUpper(q.Currency)
	if currency == "" {
		currency = "USD"
	}
	report, err := s.BuildDashboard(ctx, rng, currency)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	return report, nil
}

// NormalizeRange fills the default 30 day window ending at now and orders the bounds.
func NormalizeRange(r resp.TimeRange, now time.Time) resp.TimeRange {
	if r.Interval == "" {
		r.Interval = "day"
	}
	if r.Timezone == "" {
		r.Timezone = "UTC"
	}
	if r.End.IsZero() {
		r.End = now.UTC()
	}
	if r.Start.IsZero() {
		r.Start = r.End.AddDate(0, 0, -defaultDashboardDays)
	}
	if r.Start.After(r.End) {
		r.Start, r.End = r.End, r.Start
	}
	return r
}

// MonthlyEquivalent floors yearly prices to a monthly amount.
func MonthlyEquivalent(priceMinor int64, period string) int64 {
	switch dbm.BillingPeriod(period) {
	case dbm.PeriodMonth:
		return priceMinor
	case dbm.PeriodYear:
		return priceMinor / 12
	default:
		return 0
	}
}

// RecurringRevenue derives MRR, ARPU and the plan mix from the live subscriptions.
func RecurringRevenue(rows []repositories.LiveSubscriptionRow) (mrr int64, arpu float64, mix []resp.PlanMixItem) {
	byPlan := map[string]*resp.PlanMixItem{}
	for _, r := range rows {
		mrr += MonthlyEquivalent(r.PriceMinor, r.Period)
		item, ok := byPlan[r.PlanID]
		if !ok {
			id, _ := uuid.Parse(r.PlanID)
			item = &resp.PlanMixItem{
				PlanID:     id,
				PlanCode:   r.PlanCode,
				PlanName:   r.PlanName,
				Period:     r.Period,
				PriceMinor: r.PriceMinor,
			}
			byPlan[r.PlanID] = item
		}
		item.Count++
	}
	if len(rows) > 0 {
		arpu = float64(mrr) / float64(len(rows))
	}

	mix = make([]resp.PlanMixItem, 0, len(byPlan))
	for _, item := range byPlan {
		item.Percent = float64(item.Count) * 100 / float64(len(rows))
		mix = append(mix, *item)
	}
	sort.Slice(mix, func(i, j int) bool {
		if mix[i].Count != mix[j].Count {
			return mix[i].Count > mix[j].Count
		}
		return mix[i].PlanCode < mix[j].PlanCode
	})
	return mrr, arpu, mix
}

func toSeriesPoints(rows []repositories.BucketSum) ([]resp.SeriesPoint, int64) {
	points := make([]resp.SeriesPoint, 0, len(rows))
	var total int64
	for _, r := range rows {
		points = append(points, resp.SeriesPoint{Bucket: r.Bucket, Value: r.Sum})
		total += r.Sum
	}
	return points, total
}

func (s *dashboardService) BuildDashboard(ctx context.Context, rng resp.TimeRange, currency string) (*resp.DashboardReport, error) {
	now := s.now()
	rng = NormalizeRange(rng, now)

	var (
		counts                     repositories.DashboardCounts
		revenue, newUsers, newSubs []repositories.BucketSum
		live                       []repositories.LiveSubscriptionRow
		tiers                      []repositories.TierRow
		payments                   []repositories.RecentPaymentRow
		balances                   repositories.CommissionBalances
	)
	loadSeries := func(ctx context.Context, metric repositories.SeriesMetric, dst *[]repositories.BucketSum) func() error {
		return func() (err error) {
			*dst, err = s.repo.Series(ctx, metric, rng.Start, rng.End, rng.Interval, rng.Timezone)
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		counts, err = s.repo.Counts(gctx, rng.Start, rng.End)
		return err
	})
	g.Go(loadSeries(gctx, repositories.MetricRevenue, &revenue))
	g.Go(loadSeries(gctx, repositories.MetricNewAccounts, &newUsers))
	g.Go(loadSeries(gctx, repositories.MetricNewSubscriptions, &newSubs))
	g.Go(func() (err error) {
		live, err = s.repo.LiveSubscriptions(gctx, now)
		return err
	})
	g.Go(func() (err error) {
		tiers, err = s.repo.TierMix(gctx)
		return err
	})
	g.Go(func() (err error) {
		payments, err = s.repo.RecentPaidTransactions(gctx, recentPaymentsLimit)
		return err
	})
	g.Go(func() (err error) {
		balances, err = s.commissions.Balances(gctx, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	revenuePoints, revenueTotal := toSeriesPoints(revenue)
	newUserPoints, _ := toSeriesPoints(newUsers)
	newSubPoints, _ := toSeriesPoints(newSubs)

	mrr, arpu, mix := RecurringRevenue(live)
	var churnPct float64
	if counts.SubscribersAtStart > 0 {
		churnPct = float64(counts.CanceledInRange) * 100 / float64(counts.SubscribersAtStart)
	}

	tierMix := make([]resp.TierMixItem, 0, len(tiers))
	for _, t := range tiers {
		tierMix = append(tierMix, resp.TierMixItem{Tier: t.Tier, Count: t.Count})
	}

	recent := make([]resp.RecentPayment, 0, len(payments))
	for _, p := range payments {
		id, err := uuid.Parse(p.ID)
		if err != nil {
			return nil, fmt.Errorf("recent payment %q: %w", p.ID, err)
		}
		recent = append(recent, resp.RecentPayment{
			ID:            id,
			PaidAt:        p.PaidAt,
			AmountMinor:   p.AmountMinor,
			Currency:      p.Currency,
			Status:        p.Status,
			Provider:      p.Provider,
			ProviderTxnID: p.ProviderTxnID,
			AccountEmail:  p.AccountEmail,
		})
	}

	return &resp.DashboardReport{
		Range: rng,
		KPIs: resp.KPIBlock{
			TotalAccounts:         counts.TotalAccounts,
			NewAccounts:           counts.NewAccounts,
			ActiveSubscriptions:   counts.SubscriptionStatus[dbm.SubStatusActive],
			TrialingSubscriptions: counts.SubscriptionStatus[dbm.SubStatusTrialing],
			CanceledSubscriptions: counts.SubscriptionStatus[dbm.SubStatusCanceled],
			ExpiredSubscriptions:  counts.SubscriptionStatus[dbm.SubStatusExpired],
			MRRMinor:              mrr,
			ARRMinor:              mrr * 12,
			ARPUMinor:             arpu,
			ChurnPct:              churnPct,
		},
		Revenue:  resp.RevenueSeries{Currency: currency, Points: revenuePoints, TotalMinor: revenueTotal},
		NewUsers: resp.CountSeries{Points: newUserPoints},
		NewSubs:  resp.CountSeries{Points: newSubPoints},
		PlanMix:  resp.PlanMix{Items: mix},
		TierMix:  tierMix,
		Affiliates: resp.AffiliateTotals{
			Active:          counts.ActiveAffiliates,
			Paused:          counts.PausedAffiliates,
			Flagged:         counts.FlaggedAffiliates,
			AvailableMinor:  balances.AvailableMinor,
			HeldMinor:       balances.HeldMinor,
			RefundedMinor:   balances.RefundedMinor,
			CommissionCount: balances.Count,
		},
		RecentPayments: recent,
	}, nil
}
