package repositories

import (
	"context"
	"errors"
	"time"

	"customermind/internal/infra"
	dbm "customermind/internal/models/db_models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAlreadyApplied is returned when a state transition was already recorded.
var ErrAlreadyApplied = errors.New("already applied")

var liveSubscriptionStatuses = []dbm.SubscriptionStatus{
	dbm.SubStatusActive, dbm.SubStatusTrialing, dbm.SubStatusPastDue,
}

type BillingRepository interface {
	CreateTransaction(ctx context.Context, txn *dbm.Transaction) error
	UpdateTransaction(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	FindTransactionByID(ctx context.Context, id string) (*dbm.Transaction, error)
	FindTransactionByProviderTxnID(ctx context.Context, providerTxnID string) (*dbm.Transaction, error)
	ListTransactions(ctx context.Context, status dbm.TransactionStatus, page, pageSize int) ([]dbm.Transaction, int64, error)

	CurrentSubscription(ctx context.Context, accountID uuid.UUID) (*dbm.Subscription, error)
	// ActivatePaidTransaction marks txn paid, stores sub and moves the account
	// to tier in one database transaction. ErrAlreadyApplied when txn is already paid.
	ActivatePaidTransaction(ctx context.Context, txnID uuid.UUID, paidAt int64, sub *dbm.Subscription, tier dbm.Tier) error
	CancelSubscription(ctx context.Context, subID uuid.UUID, at int64) error
	// RefundTransaction marks txn refunded, cancels the subscription it paid for
	// and drops the account to the free tier. ErrAlreadyApplied when already refunded.
	RefundTransaction(ctx context.Context, txnID uuid.UUID, at int64) (*dbm.Transaction, error)
	ExpireSubscriptions(ctx context.Context, now time.Time, grace time.Duration) (ExpiryResult, error)
}

type ExpiryResult struct {
	PastDue    int64
	Expired    int64
	Downgraded []uuid.UUID
}

type billingRepository struct {
	db *gorm.DB
}

func NewBillingRepository(db *gorm.DB) BillingRepository {
	return &billingRepository{db: db}
}

func (r *billingRepository) CreateTransaction(ctx context.Context, txn *dbm.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *billingRepository) UpdateTransaction(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&dbm.Transaction{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *billingRepository) FindTransactionByID(ctx context.Context, id string) (*dbm.Transaction, error) {
	var txn dbm.Transaction
	err := r.db.WithContext(ctx).First(&txn, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

func (r *billingRepository) FindTransactionByProviderTxnID(ctx context.Context, providerTxnID string) (*dbm.Transaction, error) {
	var txn dbm.Transaction
	err := r.db.WithContext(ctx).First(&txn, "provider_txn_id = ?", providerTxnID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

func (r *billingRepository) ListTransactions(ctx context.Context, status dbm.TransactionStatus, page, pageSize int) ([]dbm.Transaction, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	q := r.db.WithContext(ctx).Model(&dbm.Transaction{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txns []dbm.Transaction
	err := q.Preload("Account").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&txns).Error
	return txns, total, err
}

func (r *billingRepository) CurrentSubscription(ctx context.Context, accountID uuid.UUID) (*dbm.Subscription, error) {
	var sub dbm.Subscription
	err := r.db.WithContext(ctx).
		Preload("Plan").
		Where("account_id = ? AND status IN ?", accountID, liveSubscriptionStatuses).
		Order("ends_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *billingRepository) ActivatePaidTransaction(ctx context.Context, txnID uuid.UUID, paidAt int64, sub *dbm.Subscription, tier dbm.Tier) error {
	return infra.WithTransaction(ctx, r.db, func(tx *gorm.DB) error {
		var txn dbm.Transaction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&txn, "id = ?", txnID).Error; err != nil {
			return err
		}
		if txn.Status == dbm.TxnStatusPaid || txn.Status == dbm.TxnStatusRefunded {
			return ErrAlreadyApplied
		}

		if err := tx.Create(sub).Error; err != nil {
			return err
		}

		if err := tx.Model(&txn).Updates(map[string]interface{}{
			"status":          dbm.TxnStatusPaid,
			"paid_at":         paidAt,
			"subscription_id": sub.ID,
		}).Error; err != nil {
			return err
		}

		return tx.Model(&dbm.Account{}).
			Where("id = ?", txn.AccountID).
			Updates(map[string]interface{}{
				"tier":                  tier,
				"subscription_snapshot": jsonRaw(sub),
			}).Error
	})
}

func (r *billingRepository) CancelSubscription(ctx context.Context, subID uuid.UUID, at int64) error {
	return r.db.WithContext(ctx).
		Model(&dbm.Subscription{}).
		Where("id = ?", subID).
		Updates(map[string]interface{}{
			"auto_renew":  false,
			"canceled_at": at,
		}).Error
}

func (r *billingRepository) RefundTransaction(ctx context.Context, txnID uuid.UUID, at int64) (*dbm.Transaction, error) {
	var txn dbm.Transaction
	err := infra.WithTransaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&txn, "id = ?", txnID).Error; err != nil {
			return err
		}
		if txn.Status == dbm.TxnStatusRefunded {
			return ErrAlreadyApplied
		}

		if err := tx.Model(&txn).Updates(map[string]interface{}{
			"status":      dbm.TxnStatusRefunded,
			"refunded_at": at,
		}).Error; err != nil {
			return err
		}

		if txn.SubscriptionID != nil {
			if err := tx.Model(&dbm.Subscription{}).
				Where("id = ?", *txn.SubscriptionID).
				Updates(map[string]interface{}{
					"status":      dbm.SubStatusCanceled,
					"canceled_at": at,
					"auto_renew":  false,
				}).Error; err != nil {
				return err
			}
		}

		return tx.Model(&dbm.Account{}).
			Where("id = ?", txn.AccountID).
			Update("tier", dbm.TierFree).Error
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// ExpireSubscriptions moves lapsed auto-renewing subscriptions to past_due
// for the grace window and expires everything older. Accounts left with no
// live subscription drop to the free tier.
func (r *billingRepository) ExpireSubscriptions(ctx context.Context, now time.Time, grace time.Duration) (ExpiryResult, error) {
	var out ExpiryResult
	nowUnix := now.Unix()
	graceStart := now.Add(-grace).Unix()

	err := infra.WithTransaction(ctx, r.db, func(tx *gorm.DB) error {
		res := tx.Model(&dbm.Subscription{}).
			Where("status IN ?", []dbm.SubscriptionStatus{dbm.SubStatusActive, dbm.SubStatusTrialing}).
			Where("auto_renew = ? AND ends_at < ? AND ends_at >= ?", true, nowUnix, graceStart).
			Update("status", dbm.SubStatusPastDue)
		if res.Error != nil {
			return res.Error
		}
		out.PastDue = res.RowsAffected

		var expiring []dbm.Subscription
		if err := tx.
			Where("status IN ?", liveSubscriptionStatuses).
			Where("(auto_renew = ? AND ends_at < ?) OR (auto_renew = ? AND ends_at < ?)",
				true, graceStart, false, nowUnix).
			Find(&expiring).Error; err != nil {
			return err
		}
		if len(expiring) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, 0, len(expiring))
		accounts := make(map[uuid.UUID]struct{}, len(expiring))
		for _, s := range expiring {
			ids = append(ids, s.ID)
			accounts[s.AccountID] = struct{}{}
		}
		res = tx.Model(&dbm.Subscription{}).
			Where("id IN ?", ids).
			Update("status", dbm.SubStatusExpired)
		if res.Error != nil {
			return res.Error
		}
		out.Expired = res.RowsAffected

		for accountID := range accounts {
			var live int64
			if err := tx.Model(&dbm.Subscription{}).
				Where("account_id = ? AND status IN ? AND ends_at >= ?", accountID, liveSubscriptionStatuses, nowUnix).
				Count(&live).Error; err != nil {
				return err
			}
			if live > 0 {
				continue
			}
			if err := tx.Model(&dbm.Account{}).
				Where("id = ?", accountID).
				Update("tier", dbm.TierFree).Error; err != nil {
				return err
			}
			out.Downgraded = append(out.Downgraded, accountID)
		}
		return nil
	})
	return out, err
}
