package repositories

import (
	"context"
	"errors"
	"strings"

	"customermind/internal/infra"
	"customermind/internal/models/db_models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AccountRepository interface {
	InsertTx(account *db_models.Account, ctx context.Context) error
	FindById(ctx context.Context, id string) (*db_models.Account, error)
	FindByEmail(ctx context.Context, email string) (*db_models.Account, error)
	List(ctx context.Context, filter AccountFilter) ([]db_models.Account, int64, error)

	RecordFailedLogin(ctx context.Context, id uuid.UUID, maxAttempts int, lockUntil int64) (*db_models.Account, error)
	RecordSuccessfulLogin(ctx context.Context, id uuid.UUID, at int64) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	SetTier(ctx context.Context, id uuid.UUID, tier db_models.Tier) error
}

type AccountFilter struct {
	Search   string
	Role     db_models.Role
	Tier     db_models.Tier
	Active   *bool
	Page     int
	PageSize int
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{
		db: db,
	}
}

func (a *accountRepository) FindByEmail(ctx context.Context, email string) (*db_models.Account, error) {

	var account db_models.Account
	err := a.db.WithContext(ctx).First(&account, "email = ?", strings.ToLower(email)).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &account, nil
}

func (a *accountRepository) InsertTx(account *db_models.Account, ctx context.Context) error {
	return a.db.WithContext(ctx).Create(account).Error
}

func (a *accountRepository) FindById(ctx context.Context, id string) (*db_models.Account, error) {
	var account db_models.Account
	err := a.db.WithContext(ctx).First(&account, "id = ?", id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &account, nil
}

func (a *accountRepository) List(ctx context.Context, f AccountFilter) ([]db_models.Account, int64, error) {
	f.Page, f.PageSize = normalizePage(f.Page, f.PageSize)
	q := a.db.WithContext(ctx).Model(&db_models.Account{})
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR email LIKE ?", like, like)
	}
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Tier != "" {
		q = q.Where("tier = ?", f.Tier)
	}
	if f.Active != nil {
		q = q.Where("is_active = ?", *f.Active)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var accounts []db_models.Account
	err := q.Order("created_at DESC").
		Offset((f.Page - 1) * f.PageSize).
		Limit(f.PageSize).
		Find(&accounts).Error
	if err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// RecordFailedLogin bumps the attempt counter under a row lock and sets
// LockedUntil once maxAttempts is reached.
func (a *accountRepository) RecordFailedLogin(ctx context.Context, id uuid.UUID, maxAttempts int, lockUntil int64) (*db_models.Account, error) {
	var account db_models.Account
	err := infra.WithTransaction(ctx, a.db, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&account, "id = ?", id).Error; err != nil {
			return err
		}

		account.FailedLoginAttempts++
		updates := map[string]interface{}{"failed_login_attempts": account.FailedLoginAttempts}
		if account.FailedLoginAttempts >= maxAttempts {
			account.LockedUntil = &lockUntil
			updates["locked_until"] = lockUntil
		}
		return tx.Model(&account).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (a *accountRepository) RecordSuccessfulLogin(ctx context.Context, id uuid.UUID, at int64) error {
	return a.db.WithContext(ctx).
		Model(&db_models.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"failed_login_attempts": 0,
			"locked_until":          nil,
			"last_login_at":         at,
		}).Error
}

func (a *accountRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return a.UpdateFields(ctx, id, map[string]interface{}{
		"password_hash":         hash,
		"failed_login_attempts": 0,
		"locked_until":          nil,
	})
}

func (a *accountRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	res := a.db.WithContext(ctx).
		Model(&db_models.Account{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (a *accountRepository) SetTier(ctx context.Context, id uuid.UUID, tier db_models.Tier) error {
	return a.UpdateFields(ctx, id, map[string]interface{}{"tier": tier})
}
