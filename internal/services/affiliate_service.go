package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	dbm "customermind/internal/models/db_models"
	"customermind/internal/models/doc_models"
	"customermind/internal/models/request_models"
	resp "customermind/internal/models/response_models"
	"customermind/internal/repositories"
	"customermind/pkg/config"
	"customermind/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	referralCodeLength = 8
	releaseBatchSize   = 200
)

type AffiliateServiceInterface interface {
	Register(ctx context.Context, accountID string, req request_models.RegisterAffiliateRequest) (*resp.AffiliateResponse, error)
	AdminCreate(ctx context.Context, actorID string, req request_models.AdminCreateAffiliateRequest) (*resp.AffiliateResponse, error)
	Dashboard(ctx context.Context, accountID string) (*resp.AffiliateDashboard, error)
	MyCommissions(ctx context.Context, accountID string, page, pageSize int) (*resp.Page[resp.CommissionResponse], error)

	CreateCommission(ctx context.Context, req request_models.CreateCommissionRequest) (*resp.CommissionResponse, error)
	// CommissionForSale credits the affiliate owning referralCode for a paid
	// transaction. Unknown or paused affiliates yield (nil, nil).
	CommissionForSale(ctx context.Context, referralCode string, txn *dbm.Transaction) (*resp.CommissionResponse, error)
	RefundCommission(ctx context.Context, actorID, commissionID, reason string) (*resp.CommissionResponse, error)
	// RefundForTransaction refunds the commission attached to txnID, if any.
	RefundForTransaction(ctx context.Context, actorID string, txnID uuid.UUID, reason string) (*resp.CommissionResponse, error)
	ReleaseDueHoldbacks(ctx context.Context) (int, error)

	GetSettings(ctx context.Context) (*dbm.AffiliateSettings, error)
	UpdateSettings(ctx context.Context, actorID string, req request_models.AffiliateSettingsRequest) (*dbm.AffiliateSettings, error)

	List(ctx context.Context, q request_models.ListAffiliatesQuery) (*resp.Page[resp.AffiliateResponse], error)
	Get(ctx context.Context, id string) (*resp.AffiliateDashboard, error)
	ListCommissions(ctx context.Context, affiliateID string, q request_models.PageQuery) (*resp.Page[resp.CommissionResponse], error)
	Pause(ctx context.Context, actorID, id, reason string) (*resp.AffiliateResponse, error)
	Resume(ctx context.Context, actorID, id string) (*resp.AffiliateResponse, error)
}

type AffiliateService struct {
	repo       repositories.AffiliateRepository
	accounts   repositories.AccountRepository
	audit      AuditServiceInterface
	defaults   dbm.AffiliateSettings
	appBaseURL string
	log        *zap.Logger
	now        func() time.Time
}

func NewAffiliateService(
	repo repositories.AffiliateRepository,
	accounts repositories.AccountRepository,
	audit AuditServiceInterface,
	cfg *config.Config,
	log *zap.Logger,
) AffiliateServiceInterface {
	return &AffiliateService{
		repo:       repo,
		accounts:   accounts,
		audit:      audit,
		defaults:   SettingsFromConfig(cfg.Affiliate),
		appBaseURL: strings.TrimRight(cfg.Email.AppBaseURL, "/"),
		log:        log,
		now:        time.Now,
	}
}

func SettingsFromConfig(d config.AffiliateDefaults) dbm.AffiliateSettings {
	return dbm.AffiliateSettings{
		ID:                      dbm.AffiliateSettingsID,
		HoldbackPercent:         d.HoldbackPercent,
		HoldbackDays:            d.HoldbackDays,
		FlagRefundRate:          d.FlagRefundRate,
		PauseRefundRate:         d.PauseRefundRate,
		MinCommissionsForAction: int64(d.MinCommissionsForAction),
		DefaultCommissionRate:   d.DefaultCommissionRate,
	}
}

// ------------------- Registration -------------------

func (s *AffiliateService) Register(ctx context.Context, accountID string, req request_models.RegisterAffiliateRequest) (*resp.AffiliateResponse, error) {
	account, err := s.accounts.FindById(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if account == nil {
		return nil, utils.ErrAccountNotFound
	}

	existing, err := s.repo.FindAffiliateByAccountID(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if existing != nil {
		return nil, utils.ErrAffiliateExists
	}

	name := firstNonEmpty(req.Name, account.Name)
	email := firstNonEmpty(req.Email, account.Email)
	a, err := s.create(ctx, &account.ID, name, email, req.ReferralCode, nil)
	if err != nil {
		return nil, err
	}
	out := toAffiliateResponse(a)
	return &out, nil
}

func (s *AffiliateService) AdminCreate(ctx context.Context, actorID string, req request_models.AdminCreateAffiliateRequest) (*resp.AffiliateResponse, error) {
	a, err := s.create(ctx, nil, req.Name, req.Email, req.ReferralCode, req.CommissionRate)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, doc_models.AuditEvent{
		Category:  doc_models.AuditCategoryAffiliate,
		EventType: doc_models.EventAffiliateCreated,
		ActorID:   actorID,
		SubjectID: a.ID.String(),
		Success:   true,
	})
	out := toAffiliateResponse(a)
	return &out, nil
}

func (s *AffiliateService) create(ctx context.Context, accountID *uuid.UUID, name, email, code string, rate *float64) (*dbm.Affiliate, error) {
	settings, err := s.repo.GetSettings(ctx, s.defaults)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	code, err = s.referralCode(ctx, code)
	if err != nil {
		return nil, err
	}

	a := &dbm.Affiliate{
		AccountID:      accountID,
		Name:           name,
		Email:          strings.ToLower(strings.TrimSpace(email)),
		ReferralCode:   code,
		Status:         dbm.AffiliateActive,
		CommissionRate: settings.DefaultCommissionRate,
	}
	if rate != nil {
		a.CommissionRate = *rate
	}
	if err := s.repo.CreateAffiliate(ctx, a); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	s.log.Info("affiliate registered",
		zap.String("affiliate_id", a.ID.String()),
		zap.String("referral_code", a.ReferralCode))
	return a, nil
}

// referralCode validates a requested custom code or generates a free one.
func (s *AffiliateService) referralCode(ctx context.Context, requested string) (string, error) {
	if requested != "" {
		code := strings.ToUpper(strings.TrimSpace(requested))
		taken, err := s.repo.FindAffiliateByReferralCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
		}
		if taken != nil {
			return "", utils.ErrReferralCodeTaken
		}
		return code, nil
	}

	for i := 0; i < 5; i++ {
		code, err := utils.GenerateCode(referralCodeLength)
		if err != nil {
			return "", err
		}
		taken, err := s.repo.FindAffiliateByReferralCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
		}
		if taken == nil {
			return code, nil
		}
	}
	return "", utils.ErrReferralCodeTaken
}

// ------------------- Affiliate self-service -------------------

func (s *AffiliateService) myAffiliate(ctx context.Context, accountID string) (*dbm.Affiliate, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil, utils.ErrAccountNotFound
	}
	a, err := s.repo.FindAffiliateByAccountID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if a == nil {
		return nil, utils.ErrAffiliateNotFound
	}
	return a, nil
}

func (s *AffiliateService) Dashboard(ctx context.Context, accountID string) (*resp.AffiliateDashboard, error) {
	a, err := s.myAffiliate(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.dashboard(ctx, a)
}

func (s *AffiliateService) dashboard(ctx context.Context, a *dbm.Affiliate) (*resp.AffiliateDashboard, error) {
	b, err := s.repo.Balances(ctx, &a.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	return &resp.AffiliateDashboard{
		Affiliate: toAffiliateResponse(a),
		Balances: resp.CommissionBalances{
			AvailableMinor: b.AvailableMinor,
			HeldMinor:      b.HeldMinor,
			RefundedMinor:  b.RefundedMinor,
			LifetimeMinor:  b.TotalMinor,
			Count:          b.Count,
		},
		ShareURL: fmt.Sprintf("%s/signup?ref=%s", s.appBaseURL, a.ReferralCode),
	}, nil
}

func (s *AffiliateService) MyCommissions(ctx context.Context, accountID string, page, pageSize int) (*resp.Page[resp.CommissionResponse], error) {
	a, err := s.myAffiliate(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.commissions(ctx, repositories.CommissionFilter{AffiliateID: &a.ID, Page: page, PageSize: pageSize})
}

func (s *AffiliateService) commissions(ctx context.Context, f repositories.CommissionFilter) (*resp.Page[resp.CommissionResponse], error) {
	rows, total, err := s.repo.ListCommissions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	items := make([]resp.CommissionResponse, 0, len(rows))
	for i := range rows {
		items = append(items, toCommissionResponse(&rows[i]))
	}
	return &resp.Page[resp.CommissionResponse]{Items: items, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

// ------------------- Commissions -------------------

func (s *AffiliateService) CreateCommission(ctx context.Context, req request_models.CreateCommissionRequest) (*resp.CommissionResponse, error) {
	affiliateID, err := uuid.Parse(req.AffiliateID)
	if err != nil {
		return nil, utils.ErrAffiliateNotFound
	}
	sale := commissionSale{
		affiliateID: affiliateID,
		amountMinor: req.SaleAmountMinor,
		currency:    strings.ToUpper(firstNonEmpty(req.Currency, "USD")),
	}
	if req.TransactionID != "" {
		id := uuid.MustParse(req.TransactionID)
		sale.transactionID = &id
	}
	if req.ReferredAccountID != "" {
		id := uuid.MustParse(req.ReferredAccountID)
		sale.referredAccountID = &id
	}

	c, err := s.recordSale(ctx, sale)
	if err != nil {
		return nil, err
	}
	out := toCommissionResponse(c)
	return &out, nil
}

func (s *AffiliateService) CommissionForSale(ctx context.Context, referralCode string, txn *dbm.Transaction) (*resp.CommissionResponse, error) {
	if referralCode == "" || txn == nil {
		return nil, nil
	}
	a, err := s.repo.FindAffiliateByReferralCode(ctx, referralCode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if a == nil || a.Status != dbm.AffiliateActive {
		return nil, nil
	}
	if a.AccountID != nil && *a.AccountID == txn.AccountID {
		return nil, nil
	}

	txnID := txn.ID
	referred := txn.AccountID
	c, err := s.recordSale(ctx, commissionSale{
		affiliateID:       a.ID,
		amountMinor:       txn.AmountMinor,
		currency:          txn.Currency,
		transactionID:     &txnID,
		referredAccountID: &referred,
	})
	if err != nil {
		return nil, err
	}
	out := toCommissionResponse(c)
	return &out, nil
}

type commissionSale struct {
	affiliateID       uuid.UUID
	amountMinor       int64
	currency          string
	transactionID     *uuid.UUID
	referredAccountID *uuid.UUID
}

func (s *AffiliateService) recordSale(ctx context.Context, sale commissionSale) (*dbm.Commission, error) {
	var (
		out      *dbm.Commission
		standing AffiliateStanding
	)
	now := s.now().Unix()

	err := s.repo.Transaction(ctx, func(repo repositories.AffiliateRepository) error {
		if sale.transactionID != nil {
			existing, err := repo.FindCommissionByTransactionID(ctx, *sale.transactionID)
			if err != nil {
				return err
			}
			if existing != nil {
				out = existing
				return nil
			}
		}

		a, err := repo.LockAffiliate(ctx, sale.affiliateID)
		if err != nil {
			return err
		}
		if a == nil {
			return utils.ErrAffiliateNotFound
		}
		if a.Status == dbm.AffiliatePaused {
			return utils.ErrAffiliatePaused
		}

		settings, err := repo.GetSettings(ctx, s.defaults)
		if err != nil {
			return err
		}

		c := NewCommission(a, settings, sale.amountMinor, sale.currency, now)
		c.TransactionID = sale.transactionID
		c.ReferredAccountID = sale.referredAccountID
		if err := repo.CreateCommission(ctx, c); err != nil {
			return err
		}

		a.CommissionCount++
		standing = EvaluateRefundRate(a, settings, now)
		if err := repo.SaveAffiliate(ctx, a); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, wrapAffiliateErr(err)
	}

	s.recordStanding(ctx, "", sale.affiliateID, standing)
	s.log.Info("commission recorded",
		zap.String("affiliate_id", sale.affiliateID.String()),
		zap.String("commission_id", out.ID.String()),
		zap.Int64("total_minor", out.TotalMinor),
		zap.Int64("held_minor", out.HeldMinor))
	return out, nil
}

func (s *AffiliateService) RefundCommission(ctx context.Context, actorID, commissionID, reason string) (*resp.CommissionResponse, error) {
	id, err := uuid.Parse(commissionID)
	if err != nil {
		return nil, utils.ErrCommissionNotFound
	}
	c, err := s.refund(ctx, actorID, id, reason)
	if err != nil {
		return nil, err
	}
	out := toCommissionResponse(c)
	return &out, nil
}

func (s *AffiliateService) RefundForTransaction(ctx context.Context, actorID string, txnID uuid.UUID, reason string) (*resp.CommissionResponse, error) {
	existing, err := s.repo.FindCommissionByTransactionID(ctx, txnID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if existing == nil {
		return nil, nil
	}
	if existing.Status == dbm.CommissionRefunded {
		out := toCommissionResponse(existing)
		return &out, nil
	}
	c, err := s.refund(ctx, actorID, existing.ID, reason)
	if err != nil {
		return nil, err
	}
	out := toCommissionResponse(c)
	return &out, nil
}

func (s *AffiliateService) refund(ctx context.Context, actorID string, commissionID uuid.UUID, reason string) (*dbm.Commission, error) {
	var (
		out      *dbm.Commission
		standing AffiliateStanding
	)
	now := s.now().Unix()

	err := s.repo.Transaction(ctx, func(repo repositories.AffiliateRepository) error {
		c, err := repo.LockCommission(ctx, commissionID)
		if err != nil {
			return err
		}
		if c == nil {
			return utils.ErrCommissionNotFound
		}
		if err := ApplyCommissionRefund(c, reason, now); err != nil {
			return err
		}
		if err := repo.SaveCommission(ctx, c); err != nil {
			return err
		}

		a, err := repo.LockAffiliate(ctx, c.AffiliateID)
		if err != nil {
			return err
		}
		if a == nil {
			return utils.ErrAffiliateNotFound
		}
		settings, err := repo.GetSettings(ctx, s.defaults)
		if err != nil {
			return err
		}
		a.RefundedCount++
		standing = EvaluateRefundRate(a, settings, now)
		if err := repo.SaveAffiliate(ctx, a); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, wrapAffiliateErr(err)
	}

	s.audit.Record(ctx, doc_models.AuditEvent{
		Category:  doc_models.AuditCategoryAffiliate,
		EventType: doc_models.EventCommissionRefunded,
		ActorID:   actorID,
		SubjectID: out.ID.String(),
		Success:   true,
		Details:   map[string]string{"reason": reason},
	})
	s.recordStanding(ctx, actorID, out.AffiliateID, standing)
	return out, nil
}

func (s *AffiliateService) ReleaseDueHoldbacks(ctx context.Context) (int, error) {
	now := s.now().Unix()
	due, err := s.repo.DueHoldbacks(ctx, now, releaseBatchSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	released := 0
	for _, d := range due {
		changed := false
		err := s.repo.Transaction(ctx, func(repo repositories.AffiliateRepository) error {
			c, err := repo.LockCommission(ctx, d.ID)
			if err != nil || c == nil {
				return err
			}
			if !ReleaseHoldback(c, now) {
				return nil
			}
			changed = true
			return repo.SaveCommission(ctx, c)
		})
		if err != nil {
			s.log.Error("holdback release failed", zap.String("commission_id", d.ID.String()), zap.Error(err))
			return released, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
		}
		if changed {
			released++
		}
	}

	if released > 0 {
		s.log.Info("holdbacks released", zap.Int("count", released))
	}
	return released, nil
}

// ------------------- Settings -------------------

func (s *AffiliateService) GetSettings(ctx context.Context) (*dbm.AffiliateSettings, error) {
	settings, err := s.repo.GetSettings(ctx, s.defaults)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	return settings, nil
}

func (s *AffiliateService) UpdateSettings(ctx context.Context, actorID string, req request_models.AffiliateSettingsRequest) (*dbm.AffiliateSettings, error) {
	settings := &dbm.AffiliateSettings{
		ID:                      dbm.AffiliateSettingsID,
		HoldbackPercent:         req.HoldbackPercent,
		HoldbackDays:            req.HoldbackDays,
		FlagRefundRate:          req.FlagRefundRate,
		PauseRefundRate:         req.PauseRefundRate,
		MinCommissionsForAction: req.MinCommissionsForAction,
		DefaultCommissionRate:   req.DefaultCommissionRate,
	}
	if err := ValidateAffiliateSettings(settings); err != nil {
		return nil, err
	}
	if err := s.repo.SaveSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	s.audit.Record(ctx, doc_models.AuditEvent{
		Category:  doc_models.AuditCategoryAffiliate,
		EventType: doc_models.EventSettingsUpdated,
		ActorID:   actorID,
		Success:   true,
		Details: map[string]string{
			"holdback_percent":  fmt.Sprint(settings.HoldbackPercent),
			"holdback_days":     fmt.Sprint(settings.HoldbackDays),
			"flag_refund_rate":  fmt.Sprint(settings.FlagRefundRate),
			"pause_refund_rate": fmt.Sprint(settings.PauseRefundRate),
		},
	})
	return settings, nil
}

// ------------------- Admin -------------------

func (s *AffiliateService) List(ctx context.Context, q request_models.ListAffiliatesQuery) (*resp.Page[resp.AffiliateResponse], error) {
	f := repositories.AffiliateFilter{
		Status:   dbm.AffiliateStatus(q.Status),
		Flagged:  q.Flagged,
		Search:   strings.TrimSpace(q.Search),
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	rows, total, err := s.repo.ListAffiliates(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	items := make([]resp.AffiliateResponse, 0, len(rows))
	for i := range rows {
		items = append(items, toAffiliateResponse(&rows[i]))
	}
	return &resp.Page[resp.AffiliateResponse]{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

func (s *AffiliateService) find(ctx context.Context, id string) (*dbm.Affiliate, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, utils.ErrAffiliateNotFound
	}
	a, err := s.repo.FindAffiliateByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if a == nil {
		return nil, utils.ErrAffiliateNotFound
	}
	return a, nil
}

func (s *AffiliateService) Get(ctx context.Context, id string) (*resp.AffiliateDashboard, error) {
	a, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.dashboard(ctx, a)
}

func (s *AffiliateService) ListCommissions(ctx context.Context, affiliateID string, q request_models.PageQuery) (*resp.Page[resp.CommissionResponse], error) {
	a, err := s.find(ctx, affiliateID)
	if err != nil {
		return nil, err
	}
	return s.commissions(ctx, repositories.CommissionFilter{AffiliateID: &a.ID, Page: q.Page, PageSize: q.PageSize})
}

func (s *AffiliateService) Pause(ctx context.Context, actorID, id, reason string) (*resp.AffiliateResponse, error) {
	return s.setStatus(ctx, actorID, id, func(a *dbm.Affiliate, _ *dbm.AffiliateSettings, now int64) string {
		a.Status = dbm.AffiliatePaused
		a.AutoPaused = false
		a.PausedReason = reason
		a.PausedAt = &now
		return doc_models.EventAffiliatePaused
	})
}

// Resume reactivates the affiliate. The flag is re-derived from the current refund rate.
func (s *AffiliateService) Resume(ctx context.Context, actorID, id string) (*resp.AffiliateResponse, error) {
	return s.setStatus(ctx, actorID, id, func(a *dbm.Affiliate, settings *dbm.AffiliateSettings, _ int64) string {
		a.Status = dbm.AffiliateActive
		a.AutoPaused = false
		a.PausedReason = ""
		a.PausedAt = nil
		a.IsFlagged = a.CommissionCount >= settings.MinCommissionsForAction && a.RefundRate >= settings.FlagRefundRate
		if !a.IsFlagged {
			a.FlagReason = ""
		}
		return doc_models.EventAffiliateResumed
	})
}

func (s *AffiliateService) setStatus(
	ctx context.Context,
	actorID, id string,
	apply func(a *dbm.Affiliate, settings *dbm.AffiliateSettings, now int64) string,
) (*resp.AffiliateResponse, error) {
	affiliateID, err := uuid.Parse(id)
	if err != nil {
		return nil, utils.ErrAffiliateNotFound
	}

	var (
		out   *dbm.Affiliate
		event string
	)
	err = s.repo.Transaction(ctx, func(repo repositories.AffiliateRepository) error {
		a, err := repo.LockAffiliate(ctx, affiliateID)
		if err != nil {
			return err
		}
		if a == nil {
			return utils.ErrAffiliateNotFound
		}
		settings, err := repo.GetSettings(ctx, s.defaults)
		if err != nil {
			return err
		}
		event = apply(a, settings, s.now().Unix())
		out = a
		return repo.SaveAffiliate(ctx, a)
	})
	if err != nil {
		return nil, wrapAffiliateErr(err)
	}

	s.audit.Record(ctx, doc_models.AuditEvent{
		Category:  doc_models.AuditCategoryAffiliate,
		EventType: event,
		ActorID:   actorID,
		SubjectID: out.ID.String(),
		Success:   true,
		Details:   map[string]string{"reason": out.PausedReason},
	})
	res := toAffiliateResponse(out)
	return &res, nil
}

func (s *AffiliateService) recordStanding(ctx context.Context, actorID string, affiliateID uuid.UUID, standing AffiliateStanding) {
	var event string
	switch standing {
	case StandingAutoPaused:
		event = doc_models.EventAffiliateAutoPaused
	case StandingFlagged:
		event = doc_models.EventAffiliateFlagged
	case StandingUnflagged:
		event = doc_models.EventAffiliateUnflagged
	default:
		return
	}
	s.log.Warn("affiliate standing changed",
		zap.String("affiliate_id", affiliateID.String()),
		zap.String("standing", string(standing)))
	s.audit.Record(ctx, doc_models.AuditEvent{
		Category:  doc_models.AuditCategoryAffiliate,
		EventType: event,
		ActorID:   actorID,
		SubjectID: affiliateID.String(),
		Success:   true,
	})
}

// wrapAffiliateErr passes domain errors through and marks everything else as a database failure.
func wrapAffiliateErr(err error) error {
	for _, domain := range []error{
		utils.ErrAffiliateNotFound,
		utils.ErrAffiliatePaused,
		utils.ErrCommissionNotFound,
		utils.ErrCommissionAlreadyRefunded,
	} {
		if errors.Is(err, domain) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
}

func toAffiliateResponse(a *dbm.Affiliate) resp.AffiliateResponse {
	return resp.AffiliateResponse{
		ID:              a.ID,
		AccountID:       a.AccountID,
		Name:            a.Name,
		Email:           a.Email,
		ReferralCode:    a.ReferralCode,
		Status:          string(a.Status),
		CommissionRate:  a.CommissionRate,
		IsFlagged:       a.IsFlagged,
		FlagReason:      a.FlagReason,
		CommissionCount: a.CommissionCount,
		RefundedCount:   a.RefundedCount,
		RefundRate:      a.RefundRate,
		AutoPaused:      a.AutoPaused,
		PausedReason:    a.PausedReason,
		PausedAt:        a.PausedAt,
		CreatedAt:       a.CreatedAt,
	}
}

func toCommissionResponse(c *dbm.Commission) resp.CommissionResponse {
	return resp.CommissionResponse{
		ID:                c.ID,
		AffiliateID:       c.AffiliateID,
		ReferredAccountID: c.ReferredAccountID,
		TransactionID:     c.TransactionID,
		SaleAmountMinor:   c.SaleAmountMinor,
		Currency:          c.Currency,
		Rate:              c.Rate,
		HoldbackPercent:   c.HoldbackPercent,
		TotalMinor:        c.TotalMinor,
		AvailableMinor:    c.AvailableMinor,
		HeldMinor:         c.HeldMinor,
		RefundedMinor:     c.RefundedMinor,
		Status:            string(c.Status),
		ReleaseAt:         c.ReleaseAt,
		ReleasedAt:        c.ReleasedAt,
		RefundedAt:        c.RefundedAt,
		RefundReason:      c.RefundReason,
		CreatedAt:         c.CreatedAt,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
