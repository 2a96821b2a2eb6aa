package repositories

import (
	"context"
	"errors"
	"strings"

	"customermind/internal/infra"
	dbm "customermind/internal/models/db_models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AffiliateRepository interface {
	// Transaction runs fn against a repository bound to one database transaction.
	Transaction(ctx context.Context, fn func(repo AffiliateRepository) error) error

	CreateAffiliate(ctx context.Context, a *dbm.Affiliate) error
	FindAffiliateByID(ctx context.Context, id string) (*dbm.Affiliate, error)
	FindAffiliateByAccountID(ctx context.Context, accountID uuid.UUID) (*dbm.Affiliate, error)
	FindAffiliateByReferralCode(ctx context.Context, code string) (*dbm.Affiliate, error)
	// LockAffiliate reads the affiliate row FOR UPDATE; use inside Transaction.
	LockAffiliate(ctx context.Context, id uuid.UUID) (*dbm.Affiliate, error)
	SaveAffiliate(ctx context.Context, a *dbm.Affiliate) error
	ListAffiliates(ctx context.Context, f AffiliateFilter) ([]dbm.Affiliate, int64, error)

	GetSettings(ctx context.Context, defaults dbm.AffiliateSettings) (*dbm.AffiliateSettings, error)
	SaveSettings(ctx context.Context, s *dbm.AffiliateSettings) error

	CreateCommission(ctx context.Context, c *dbm.Commission) error
	FindCommissionByID(ctx context.Context, id string) (*dbm.Commission, error)
	FindCommissionByTransactionID(ctx context.Context, txnID uuid.UUID) (*dbm.Commission, error)
	LockCommission(ctx context.Context, id uuid.UUID) (*dbm.Commission, error)
	SaveCommission(ctx context.Context, c *dbm.Commission) error
	ListCommissions(ctx context.Context, f CommissionFilter) ([]dbm.Commission, int64, error)
	// DueHoldbacks returns commissions still in holdback whose release time has passed.
	DueHoldbacks(ctx context.Context, now int64, limit int) ([]dbm.Commission, error)
	Balances(ctx context.Context, affiliateID *uuid.UUID) (CommissionBalances, error)
}

type AffiliateFilter struct {
	Status   dbm.AffiliateStatus
	Flagged  *bool
	Search   string
	Page     int
	PageSize int
}

type CommissionFilter struct {
	AffiliateID *uuid.UUID
	Status      dbm.CommissionStatus
	Page        int
	PageSize    int
}

type CommissionBalances struct {
	AvailableMinor int64 `gorm:"column:available_minor"`
	HeldMinor      int64 `gorm:"column:held_minor"`
	RefundedMinor  int64 `gorm:"column:refunded_minor"`
	TotalMinor     int64 `gorm:"column:total_minor"`
	Count          int64 `gorm:"column:count"`
}

type affiliateRepository struct {
	db *gorm.DB
}

func NewAffiliateRepository(db *gorm.DB) AffiliateRepository {
	return &affiliateRepository{db: db}
}

func (r *affiliateRepository) Transaction(ctx context.Context, fn func(repo AffiliateRepository) error) error {
	return infra.WithTransaction(ctx, r.db, func(tx *gorm.DB) error {
		return fn(&affiliateRepository{db: tx})
	})
}

func (r *affiliateRepository) CreateAffiliate(ctx context.Context, a *dbm.Affiliate) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *affiliateRepository) first(ctx context.Context, out interface{}, query string, args ...interface{}) error {
	return r.db.WithContext(ctx).Where(query, args...).First(out).Error
}

func (r *affiliateRepository) findAffiliate(ctx context.Context, query string, args ...interface{}) (*dbm.Affiliate, error) {
	var a dbm.Affiliate
	if err := r.first(ctx, &a, query, args...); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *affiliateRepository) FindAffiliateByID(ctx context.Context, id string) (*dbm.Affiliate, error) {
	return r.findAffiliate(ctx, "id = ?", id)
}

func (r *affiliateRepository) FindAffiliateByAccountID(ctx context.Context, accountID uuid.UUID) (*dbm.Affiliate, error) {
	return r.findAffiliate(ctx, "account_id = ?", accountID)
}

func (r *affiliateRepository) FindAffiliateByReferralCode(ctx context.Context, code string) (*dbm.Affiliate, error) {
	return r.findAffiliate(ctx, "referral_code = ?", strings.ToUpper(code))
}

func (r *affiliateRepository) LockAffiliate(ctx context.Context, id uuid.UUID) (*dbm.Affiliate, error) {
	var a dbm.Affiliate
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&a, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *affiliateRepository) SaveAffiliate(ctx context.Context, a *dbm.Affiliate) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *affiliateRepository) ListAffiliates(ctx context.Context, f AffiliateFilter) ([]dbm.Affiliate, int64, error) {
	f.Page, f.PageSize = normalizePage(f.Page, f.PageSize)
	q := r.db.WithContext(ctx).Model(&dbm.Affiliate{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Flagged != nil {
		q = q.Where("is_flagged = ?", *f.Flagged)
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(referral_code) LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []dbm.Affiliate
	err := q.Order("created_at DESC").
		Offset((f.Page - 1) * f.PageSize).
		Limit(f.PageSize).
		Find(&out).Error
	return out, total, err
}

// GetSettings returns the singleton settings row, inserting defaults on first use.
func (r *affiliateRepository) GetSettings(ctx context.Context, defaults dbm.AffiliateSettings) (*dbm.AffiliateSettings, error) {
	defaults.ID = dbm.AffiliateSettingsID
	s := defaults
	err := r.db.WithContext(ctx).
		Where(dbm.AffiliateSettings{ID: dbm.AffiliateSettingsID}).
		Attrs(defaults).
		FirstOrCreate(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *affiliateRepository) SaveSettings(ctx context.Context, s *dbm.AffiliateSettings) error {
	s.ID = dbm.AffiliateSettingsID
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *affiliateRepository) CreateCommission(ctx context.Context, c *dbm.Commission) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *affiliateRepository) findCommission(ctx context.Context, query string, args ...interface{}) (*dbm.Commission, error) {
	var c dbm.Commission
	if err := r.first(ctx, &c, query, args...); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *affiliateRepository) FindCommissionByID(ctx context.Context, id string) (*dbm.Commission, error) {
	return r.findCommission(ctx, "id = ?", id)
}

func (r *affiliateRepository) FindCommissionByTransactionID(ctx context.Context, txnID uuid.UUID) (*dbm.Commission, error) {
	return r.findCommission(ctx, "transaction_id = ?", txnID)
}

func (r *affiliateRepository) LockCommission(ctx context.Context, id uuid.UUID) (*dbm.Commission, error) {
	var c dbm.Commission
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&c, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *affiliateRepository) SaveCommission(ctx context.Context, c *dbm.Commission) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *affiliateRepository) ListCommissions(ctx context.Context, f CommissionFilter) ([]dbm.Commission, int64, error) {
	f.Page, f.PageSize = normalizePage(f.Page, f.PageSize)
	q := r.db.WithContext(ctx).Model(&dbm.Commission{})
	if f.AffiliateID != nil {
		q = q.Where("affiliate_id = ?", *f.AffiliateID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []dbm.Commission
	err := q.Order("created_at DESC").
		Offset((f.Page - 1) * f.PageSize).
		Limit(f.PageSize).
		Find(&out).Error
	return out, total, err
}

func (r *affiliateRepository) DueHoldbacks(ctx context.Context, now int64, limit int) ([]dbm.Commission, error) {
	var out []dbm.Commission
	err := r.db.WithContext(ctx).
		Where("status = ? AND release_at <= ?", dbm.CommissionHoldback, now).
		Order("release_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *affiliateRepository) Balances(ctx context.Context, affiliateID *uuid.UUID) (CommissionBalances, error) {
	var b CommissionBalances
	q := r.db.WithContext(ctx).
		Model(&dbm.Commission{}).
		Select(`
			COALESCE(SUM(available_minor), 0) AS available_minor,
			COALESCE(SUM(held_minor), 0) AS held_minor,
			COALESCE(SUM(refunded_minor), 0) AS refunded_minor,
			COALESCE(SUM(total_minor), 0) AS total_minor,
			COUNT(*) AS count`)
	if affiliateID != nil {
		q = q.Where("affiliate_id = ?", *affiliateID)
	}
	err := q.Scan(&b).Error
	return b, err
}
