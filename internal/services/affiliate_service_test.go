package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	dbm "customermind/internal/models/db_models"
	"customermind/internal/models/doc_models"
	"customermind/internal/models/request_models"
	"customermind/internal/repositories"
	"customermind/pkg/config"
	"customermind/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memAffiliateRepo keeps affiliates and commissions in maps. Rows are copied
// on the way in and out so the service only sees what it saved.
type memAffiliateRepo struct {
	mu          sync.Mutex
	affiliates  map[uuid.UUID]dbm.Affiliate
	commissions map[uuid.UUID]dbm.Commission
	settings    *dbm.AffiliateSettings
}

func newMemAffiliateRepo() *memAffiliateRepo {
	return &memAffiliateRepo{
		affiliates:  map[uuid.UUID]dbm.Affiliate{},
		commissions: map[uuid.UUID]dbm.Commission{},
	}
}

func (r *memAffiliateRepo) Transaction(ctx context.Context, fn func(repo repositories.AffiliateRepository) error) error {
	return fn(r)
}

func (r *memAffiliateRepo) CreateAffiliate(_ context.Context, a *dbm.Affiliate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.affiliates[a.ID] = *a
	return nil
}

func (r *memAffiliateRepo) findAffiliate(match func(a dbm.Affiliate) bool) *dbm.Affiliate {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.affiliates {
		if match(a) {
			cp := a
			return &cp
		}
	}
	return nil
}

func (r *memAffiliateRepo) FindAffiliateByID(_ context.Context, id string) (*dbm.Affiliate, error) {
	return r.findAffiliate(func(a dbm.Affiliate) bool { return a.ID.String() == id }), nil
}

func (r *memAffiliateRepo) FindAffiliateByAccountID(_ context.Context, accountID uuid.UUID) (*dbm.Affiliate, error) {
	return r.findAffiliate(func(a dbm.Affiliate) bool { return a.AccountID != nil && *a.AccountID == accountID }), nil
}

func (r *memAffiliateRepo) FindAffiliateByReferralCode(_ context.Context, code string) (*dbm.Affiliate, error) {
	return r.findAffiliate(func(a dbm.Affiliate) bool { return strings.EqualFold(a.ReferralCode, code) }), nil
}

func (r *memAffiliateRepo) LockAffiliate(_ context.Context, id uuid.UUID) (*dbm.Affiliate, error) {
	return r.findAffiliate(func(a dbm.Affiliate) bool { return a.ID == id }), nil
}

func (r *memAffiliateRepo) SaveAffiliate(ctx context.Context, a *dbm.Affiliate) error {
	return r.CreateAffiliate(ctx, a)
}

func (r *memAffiliateRepo) ListAffiliates(context.Context, repositories.AffiliateFilter) ([]dbm.Affiliate, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]dbm.Affiliate, 0, len(r.affiliates))
	for _, a := range r.affiliates {
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (r *memAffiliateRepo) GetSettings(_ context.Context, defaults dbm.AffiliateSettings) (*dbm.AffiliateSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settings == nil {
		return &defaults, nil
	}
	cp := *r.settings
	return &cp, nil
}

func (r *memAffiliateRepo) SaveSettings(_ context.Context, s *dbm.AffiliateSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.settings = &cp
	return nil
}

func (r *memAffiliateRepo) CreateCommission(_ context.Context, c *dbm.Commission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.commissions[c.ID] = *c
	return nil
}

func (r *memAffiliateRepo) findCommission(match func(c dbm.Commission) bool) *dbm.Commission {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.commissions {
		if match(c) {
			cp := c
			return &cp
		}
	}
	return nil
}

func (r *memAffiliateRepo) FindCommissionByID(_ context.Context, id string) (*dbm.Commission, error) {
	return r.findCommission(func(c dbm.Commission) bool { return c.ID.String() == id }), nil
}

func (r *memAffiliateRepo) FindCommissionByTransactionID(_ context.Context, txnID uuid.UUID) (*dbm.Commission, error) {
	return r.findCommission(func(c dbm.Commission) bool { return c.TransactionID != nil && *c.TransactionID == txnID }), nil
}

func (r *memAffiliateRepo) LockCommission(_ context.Context, id uuid.UUID) (*dbm.Commission, error) {
	return r.findCommission(func(c dbm.Commission) bool { return c.ID == id }), nil
}

func (r *memAffiliateRepo) SaveCommission(ctx context.Context, c *dbm.Commission) error {
	return r.CreateCommission(ctx, c)
}

func (r *memAffiliateRepo) ListCommissions(_ context.Context, f repositories.CommissionFilter) ([]dbm.Commission, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []dbm.Commission
	for _, c := range r.commissions {
		if f.AffiliateID == nil || c.AffiliateID == *f.AffiliateID {
			out = append(out, c)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memAffiliateRepo) DueHoldbacks(_ context.Context, now int64, limit int) ([]dbm.Commission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []dbm.Commission
	for _, c := range r.commissions {
		if c.Status == dbm.CommissionHoldback && c.ReleaseAt <= now && len(out) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memAffiliateRepo) Balances(_ context.Context, affiliateID *uuid.UUID) (repositories.CommissionBalances, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var b repositories.CommissionBalances
	for _, c := range r.commissions {
		if affiliateID != nil && c.AffiliateID != *affiliateID {
			continue
		}
		b.AvailableMinor += c.AvailableMinor
		b.HeldMinor += c.HeldMinor
		b.RefundedMinor += c.RefundedMinor
		b.TotalMinor += c.TotalMinor
		b.Count++
	}
	return b, nil
}

func (r *memAffiliateRepo) affiliate(t *testing.T, id uuid.UUID) dbm.Affiliate {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.affiliates[id]
	require.True(t, ok)
	return a
}

func testAffiliateConfig() *config.Config {
	return &config.Config{
		Affiliate: config.AffiliateDefaults{
			HoldbackPercent:         20,
			HoldbackDays:            30,
			FlagRefundRate:          0.10,
			PauseRefundRate:         0.20,
			MinCommissionsForAction: 5,
			DefaultCommissionRate:   0.30,
		},
		Email: config.EmailConfig{AppBaseURL: "https://app.example.com/"},
	}
}

func newTestAffiliateService(repo *memAffiliateRepo, audit *MockAuditService) *AffiliateService {
	svc := NewAffiliateService(repo, new(MockAccountRepository), audit, testAffiliateConfig(), zap.NewNop()).(*AffiliateService)
	svc.now = func() time.Time { return testNow }
	return svc
}

func seedAffiliate(repo *memAffiliateRepo, mutate func(a *dbm.Affiliate)) *dbm.Affiliate {
	a := &dbm.Affiliate{
		Name:           "Partner",
		Email:          "partner@example.com",
		ReferralCode:   "PARTNER1",
		Status:         dbm.AffiliateActive,
		CommissionRate: 0.30,
	}
	if mutate != nil {
		mutate(a)
	}
	_ = repo.CreateAffiliate(context.Background(), a)
	return a
}

func TestCreateCommissionRejectsPausedAffiliate(t *testing.T) {
	ctx := context.Background()
	repo := newMemAffiliateRepo()
	svc := newTestAffiliateService(repo, new(MockAuditService))
	a := seedAffiliate(repo, func(a *dbm.Affiliate) { a.Status = dbm.AffiliatePaused })

	_, err := svc.CreateCommission(ctx, request_models.CreateCommissionRequest{AffiliateID: a.ID.String(), SaleAmountMinor: 9900})
	assert.ErrorIs(t, err, utils.ErrAffiliatePaused)
	assert.Empty(t, repo.commissions)

	c, err := svc.CommissionForSale(ctx, a.ReferralCode, &dbm.Transaction{BaseModel: dbm.BaseModel{ID: uuid.New()}, AccountID: uuid.New(), AmountMinor: 9900})
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestCommissionForSaleIsIdempotentPerTransaction(t *testing.T) {
	ctx := context.Background()
	repo := newMemAffiliateRepo()
	svc := newTestAffiliateService(repo, new(MockAuditService))
	a := seedAffiliate(repo, nil)
	txn := &dbm.Transaction{BaseModel: dbm.BaseModel{ID: uuid.New()}, AccountID: uuid.New(), AmountMinor: 9900, Currency: "USD"}

	first, err := svc.CommissionForSale(ctx, "partner1", txn)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, int64(2970), first.TotalMinor)
	assert.Equal(t, int64(594), first.HeldMinor)
	assert.Equal(t, txn.AccountID, *first.ReferredAccountID)

	again, err := svc.CommissionForSale(ctx, "PARTNER1", txn)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Len(t, repo.commissions, 1)
	assert.Equal(t, int64(1), repo.affiliate(t, a.ID).CommissionCount)
}

func TestCommissionForSaleSkipsSelfReferral(t *testing.T) {
	ctx := context.Background()
	repo := newMemAffiliateRepo()
	svc := newTestAffiliateService(repo, new(MockAuditService))
	owner := uuid.New()
	seedAffiliate(repo, func(a *dbm.Affiliate) { a.AccountID = &owner })

	c, err := svc.CommissionForSale(ctx, "PARTNER1", &dbm.Transaction{BaseModel: dbm.BaseModel{ID: uuid.New()}, AccountID: owner, AmountMinor: 9900})
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.Empty(t, repo.commissions)
}

func TestRefundCommissionAutoPausesAtThreshold(t *testing.T) {
	ctx := context.Background()
	repo := newMemAffiliateRepo()
	audit := new(MockAuditService)
	audit.On("Record", ctx, mock.Anything).Return()
	svc := newTestAffiliateService(repo, audit)

	a := seedAffiliate(repo, func(a *dbm.Affiliate) {
		a.CommissionCount = 9
		a.RefundedCount = 1
	})
	txnID := uuid.New()
	c := &dbm.Commission{AffiliateID: a.ID, TransactionID: &txnID, TotalMinor: 1000, AvailableMinor: 800, HeldMinor: 200, Status: dbm.CommissionHoldback}
	require.NoError(t, repo.CreateCommission(ctx, c))

	out, err := svc.RefundForTransaction(ctx, "admin-1", txnID, "chargeback")
	require.NoError(t, err)
	assert.Equal(t, string(dbm.CommissionRefunded), out.Status)
	assert.Equal(t, int64(1000), out.RefundedMinor)

	stored := repo.affiliate(t, a.ID)
	assert.Equal(t, int64(2), stored.RefundedCount)
	assert.Equal(t, dbm.AffiliatePaused, stored.Status)
	assert.True(t, stored.AutoPaused)
	assert.True(t, stored.IsFlagged)
	audit.AssertCalled(t, "Record", ctx, mock.MatchedBy(func(e doc_models.AuditEvent) bool {
		return e.EventType == doc_models.EventAffiliateAutoPaused && e.SubjectID == a.ID.String()
	}))

	again, err := svc.RefundForTransaction(ctx, "admin-1", txnID, "chargeback")
	require.NoError(t, err)
	assert.Equal(t, out.ID, again.ID)
	assert.Equal(t, int64(2), repo.affiliate(t, a.ID).RefundedCount)

	_, err = svc.RefundCommission(ctx, "admin-1", c.ID.String(), "again")
	assert.ErrorIs(t, err, utils.ErrCommissionAlreadyRefunded)
}

func TestResumeRederivesFlag(t *testing.T) {
	ctx := context.Background()
	repo := newMemAffiliateRepo()
	audit := new(MockAuditService)
	audit.On("Record", ctx, mock.Anything).Return()
	svc := newTestAffiliateService(repo, audit)

	paused := int64(1)
	risky := seedAffiliate(repo, func(a *dbm.Affiliate) {
		a.ReferralCode = "RISKY"
		a.Status = dbm.AffiliatePaused
		a.AutoPaused = true
		a.PausedAt = &paused
		a.CommissionCount = 10
		a.RefundedCount = 2
		a.RefundRate = 0.2
		a.IsFlagged = true
		a.FlagReason = "refund rate"
	})
	clean := seedAffiliate(repo, func(a *dbm.Affiliate) {
		a.ReferralCode = "CLEAN"
		a.Status = dbm.AffiliatePaused
		a.CommissionCount = 20
		a.RefundedCount = 1
		a.RefundRate = 0.05
		a.IsFlagged = true
		a.FlagReason = "manual"
	})

	out, err := svc.Resume(ctx, "admin-1", risky.ID.String())
	require.NoError(t, err)
	assert.Equal(t, string(dbm.AffiliateActive), out.Status)
	assert.True(t, out.IsFlagged)
	assert.NotEmpty(t, out.FlagReason)
	assert.False(t, out.AutoPaused)
	assert.Nil(t, out.PausedAt)

	out, err = svc.Resume(ctx, "admin-1", clean.ID.String())
	require.NoError(t, err)
	assert.False(t, out.IsFlagged)
	assert.Empty(t, out.FlagReason)

	_, err = svc.Resume(ctx, "admin-1", "not-a-uuid")
	assert.ErrorIs(t, err, utils.ErrAffiliateNotFound)
}

func TestReleaseDueHoldbacksMovesHeldToAvailable(t *testing.T) {
	ctx := context.Background()
	repo := newMemAffiliateRepo()
	svc := newTestAffiliateService(repo, new(MockAuditService))
	a := seedAffiliate(repo, nil)

	due := &dbm.Commission{AffiliateID: a.ID, AvailableMinor: 80, HeldMinor: 20, Status: dbm.CommissionHoldback, ReleaseAt: testNow.Unix() - 1}
	later := &dbm.Commission{AffiliateID: a.ID, AvailableMinor: 80, HeldMinor: 20, Status: dbm.CommissionHoldback, ReleaseAt: testNow.Unix() + 3600}
	require.NoError(t, repo.CreateCommission(ctx, due))
	require.NoError(t, repo.CreateCommission(ctx, later))

	n, err := svc.ReleaseDueHoldbacks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	b, err := repo.Balances(ctx, &a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(180), b.AvailableMinor)
	assert.Equal(t, int64(20), b.HeldMinor)
}
