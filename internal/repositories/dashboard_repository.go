package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	dbm "customermind/internal/models/db_models"
)

// SeriesMetric names a bucketed aggregate over one of the billing tables.
type SeriesMetric string

const (
	MetricRevenue          SeriesMetric = "revenue"
	MetricNewAccounts      SeriesMetric = "new_accounts"
	MetricNewSubscriptions SeriesMetric = "new_subscriptions"
)

type seriesSource struct {
	table     string
	column    string // unix seconds
	aggregate string
	scope     func(*gorm.DB) *gorm.DB
}

var seriesSources = map[SeriesMetric]seriesSource{
	MetricRevenue: {
		table: "transactions", column: "paid_at", aggregate: "SUM(amount_minor)",
		scope: func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ? AND paid_at IS NOT NULL", dbm.TxnStatusPaid)
		},
	},
	MetricNewAccounts:      {table: "accounts", column: "created_at", aggregate: "COUNT(*)"},
	MetricNewSubscriptions: {table: "subscriptions", column: "starts_at", aggregate: "COUNT(*)"},
}

type DashboardRepository interface {
	Counts(ctx context.Context, start, end time.Time) (DashboardCounts, error)
	Series(ctx context.Context, metric SeriesMetric, start, end time.Time, interval, tz string) ([]BucketSum, error)
	// LiveSubscriptions lists subscriptions whose window contains at, joined with their plan.
	LiveSubscriptions(ctx context.Context, at time.Time) ([]LiveSubscriptionRow, error)
	TierMix(ctx context.Context) ([]TierRow, error)
	RecentPaidTransactions(ctx context.Context, limit int) ([]RecentPaymentRow, error)
}

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

type DashboardCounts struct {
	TotalAccounts      int64
	NewAccounts        int64
	SubscriptionStatus map[dbm.SubscriptionStatus]int64
	// CanceledInRange and SubscribersAtStart feed the churn rate.
	CanceledInRange    int64
	SubscribersAtStart int64
	ActiveAffiliates   int64
	PausedAffiliates   int64
	FlaggedAffiliates  int64
}

type BucketSum struct {
	Bucket time.Time `gorm:"column:bucket"`
	Sum    int64     `gorm:"column:sum"`
}

type LiveSubscriptionRow struct {
	SubscriptionID string `gorm:"column:subscription_id"`
	PlanID         string `gorm:"column:plan_id"`
	PlanCode       string `gorm:"column:plan_code"`
	PlanName       string `gorm:"column:plan_name"`
	Period         string `gorm:"column:period"`
	PriceMinor     int64  `gorm:"column:price_minor"`
	Status         string `gorm:"column:status"`
}

type TierRow struct {
	Tier  string `gorm:"column:tier"`
	Count int64  `gorm:"column:count"`
}

type RecentPaymentRow struct {
	ID            string     `gorm:"column:id"`
	PaidAt        *time.Time `gorm:"column:paid_at"`
	AmountMinor   int64      `gorm:"column:amount_minor"`
	Currency      string     `gorm:"column:currency"`
	Status        string     `gorm:"column:status"`
	Provider      string     `gorm:"column:provider"`
	ProviderTxnID string     `gorm:"column:provider_txn_id"`
	AccountEmail  string     `gorm:"column:email"`
}

type statusCount struct {
	Status string `gorm:"column:status"`
	Count  int64  `gorm:"column:count"`
}

func (r *dashboardRepository) count(ctx context.Context, model any, query string, args ...any) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	err := q.Count(&n).Error
	return n, err
}

func (r *dashboardRepository) Counts(ctx context.Context, start, end time.Time) (DashboardCounts, error) {
	out := DashboardCounts{SubscriptionStatus: map[dbm.SubscriptionStatus]int64{}}
	from, to := start.Unix(), end.Unix()

	counters := []struct {
		dst   *int64
		model any
		query string
		args  []any
	}{
		{&out.TotalAccounts, &dbm.Account{}, "", nil},
		{&out.NewAccounts, &dbm.Account{}, "created_at BETWEEN ? AND ?", []any{from, to}},
		{&out.CanceledInRange, &dbm.Subscription{}, "status = ? AND canceled_at BETWEEN ? AND ?", []any{dbm.SubStatusCanceled, from, to}},
		{&out.SubscribersAtStart, &dbm.Subscription{}, "starts_at <= ? AND ends_at >= ?", []any{from, from}},
		{&out.ActiveAffiliates, &dbm.Affiliate{}, "status = ?", []any{dbm.AffiliateActive}},
		{&out.PausedAffiliates, &dbm.Affiliate{}, "status = ?", []any{dbm.AffiliatePaused}},
		{&out.FlaggedAffiliates, &dbm.Affiliate{}, "is_flagged = ?", []any{true}},
	}
	for _, c := range counters {
		n, err := r.count(ctx, c.model, c.query, c.args...)
		if err != nil {
			return out, err
		}
		*c.dst = n
	}

	var rows []statusCount
	if err := r.db.WithContext(ctx).
		Model(&dbm.Subscription{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Find(&rows).Error; err != nil {
		return out, err
	}
	for _, row := range rows {
		out.SubscriptionStatus[dbm.SubscriptionStatus(row.Status)] = row.Count
	}
	return out, nil
}

func (r *dashboardRepository) Series(ctx context.Context, metric SeriesMetric, start, end time.Time, interval, tz string) ([]BucketSum, error) {
	src, ok := seriesSources[metric]
	if !ok {
		return nil, fmt.Errorf("unknown series metric %q", metric)
	}

	bucket := "date_trunc(?, to_timestamp(" + src.column + "))"
	args := []any{interval}
	if tz != "" {
		bucket = "date_trunc(?, timezone(?, to_timestamp(" + src.column + ")))"
		args = append(args, tz)
	}

	q := r.db.WithContext(ctx).
		Table(src.table).
		Select(bucket+" AS bucket, "+src.aggregate+" AS sum", args...).
		Where(src.column+" BETWEEN ? AND ?", start.Unix(), end.Unix())
	if src.scope != nil {
		q = src.scope(q)
	}

	var rows []BucketSum
	err := q.Group("bucket").Order("bucket ASC").Find(&rows).Error
	return rows, err
}

func (r *dashboardRepository) LiveSubscriptions(ctx context.Context, at time.Time) ([]LiveSubscriptionRow, error) {
	var rows []LiveSubscriptionRow
	ts := at.Unix()
	err := r.db.WithContext(ctx).
		Table("subscriptions s").
		Select("s.id AS subscription_id, s.plan_id, p.code AS plan_code, p.name AS plan_name, p.period, p.price_minor, s.status").
		Joins("JOIN plans p ON p.id = s.plan_id").
		Where("s.starts_at <= ? AND s.ends_at >= ?", ts, ts).
		Where("s.status IN ?", liveSubscriptionStatuses).
		Find(&rows).Error
	return rows, err
}

func (r *dashboardRepository) TierMix(ctx context.Context) ([]TierRow, error) {
	var rows []TierRow
	err := r.db.WithContext(ctx).
		Model(&dbm.Account{}).
		Select("tier, COUNT(*) AS count").
		Where("is_active = ?", true).
		Group("tier").
		Order("count DESC").
		Find(&rows).Error
	return rows, err
}

func (r *dashboardRepository) RecentPaidTransactions(ctx context.Context, limit int) ([]RecentPaymentRow, error) {
	var rows []RecentPaymentRow
	err := r.db.WithContext(ctx).
		Table("transactions t").
		Select("t.id, to_timestamp(t.paid_at) AT TIME ZONE 'UTC' AS paid_at, t.amount_minor, t.currency, t.status, t.provider, t.provider_txn_id, a.email").
		Joins("LEFT JOIN accounts a ON a.id = t.account_id").
		Where("t.status = ? AND t.paid_at IS NOT NULL", dbm.TxnStatusPaid).
		Order("t.paid_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
