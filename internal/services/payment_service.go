package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	dbm "customermind/internal/models/db_models"
	"customermind/internal/models/doc_models"
	"customermind/internal/models/response_models"
	"customermind/internal/repositories"
	"customermind/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// payOS sends this order code when a merchant confirms the webhook URL.
const payOSConfirmOrderCode = 123

const subscriptionGrace = 72 * time.Hour

type PaymentService interface {
	CreateCheckoutForPlan(ctx context.Context, accountID string, planCode string) (*response_models.CreateCheckoutResponse, error)
	// HandleWebhook verifies and applies a gateway callback. Replays are no-ops.
	HandleWebhook(ctx context.Context, body []byte) error
	MySubscription(ctx context.Context, accountID string) (*response_models.SubscriptionStatusResponse, error)
	CancelSubscription(ctx context.Context, accountID string) (*response_models.SubscriptionStatusResponse, error)
	RefundTransaction(ctx context.Context, actorID, txnID, reason string) (*response_models.RefundResponse, error)
	ListTransactions(ctx context.Context, status string, page, pageSize int) (*response_models.Page[response_models.TransactionResponse], error)
	ExpireSubscriptions(ctx context.Context) (repositories.ExpiryResult, error)
}

type paymentService struct {
	billing    repositories.BillingRepository
	plans      repositories.IPlanRepository
	accounts   repositories.AccountRepository
	affiliates AffiliateServiceInterface
	gateway    PaymentGateway
	mail       IMailService
	audit      AuditServiceInterface
	log        *zap.Logger
	now        func() time.Time
}

func NewPaymentService(
	billing repositories.BillingRepository,
	plans repositories.IPlanRepository,
	accounts repositories.AccountRepository,
	affiliates AffiliateServiceInterface,
	gateway PaymentGateway,
	mail IMailService,
	audit AuditServiceInterface,
	log *zap.Logger,
) PaymentService {
	return &paymentService{
		billing:    billing,
		plans:      plans,
		accounts:   accounts,
		affiliates: affiliates,
		gateway:    gateway,
		mail:       mail,
		audit:      audit,
		log:        log,
		now:        time.Now,
	}
}

func providerTxnID(orderCode int64) string {
	return fmt.Sprintf("payos:%d", orderCode)
}

func (p *paymentService) CreateCheckoutForPlan(ctx context.Context, accountID string, planCode string) (*response_models.CreateCheckoutResponse, error) {
	account, err := p.accounts.FindById(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if account == nil {
		return nil, utils.ErrAccountNotFound
	}

	plan, err := p.plans.GetPlanByCode(ctx, planCode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if plan == nil || !plan.IsActive {
		return nil, utils.ErrPlanNotFound
	}

	// Amount is in minor units (e.g., VND has 0 decimals, still treat as int64)
	amount := plan.PriceMinor
	if amount <= 0 {
		return nil, fmt.Errorf("%w: %s", utils.ErrPlanNotBillable, planCode)
	}

	// payOS expects a positive int64 order code; millis plus a short random suffix.
	orderCode := p.now().UnixMilli()%1_000_000_000_000*10 + int64(rand.Intn(10))

	planID := plan.ID
	txn := &dbm.Transaction{
		AccountID:     account.ID,
		PlanID:        &planID,
		AmountMinor:   amount,
		Currency:      strings.ToUpper(plan.Currency),
		Status:        dbm.TxnStatusPending,
		Provider:      p.gateway.Name(),
		ProviderTxnID: providerTxnID(orderCode),
		Metadata: jsonRaw(map[string]any{
			"plan_id":   plan.ID,
			"plan_code": plan.Code,
		}),
	}
	if err := p.billing.CreateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	link, err := p.gateway.CreatePaymentLink(ctx, PaymentLinkRequest{
		OrderCode:   orderCode,
		AmountMinor: amount,
		ItemName:    fmt.Sprintf("%s (%s)", plan.Name, plan.Code),
		Description: fmt.Sprintf("Sub %s", plan.Code),
	})
	if err != nil {
		if uerr := p.billing.UpdateTransaction(ctx, txn.ID, map[string]interface{}{"status": dbm.TxnStatusFailed}); uerr != nil {
			p.log.Warn("failed to mark transaction failed", zap.String("txn_id", txn.ID.String()), zap.Error(uerr))
		}
		return nil, err
	}

	// Store provider payload snapshot for traceability
	if err := p.billing.UpdateTransaction(ctx, txn.ID, map[string]interface{}{
		"receipt": jsonRaw(link.Raw),
	}); err != nil {
		p.log.Warn("checkout receipt not stored", zap.String("txn_id", txn.ID.String()), zap.Error(err))
	}

	p.log.Info("checkout created",
		zap.String("user_id", accountID),
		zap.String("plan_code", plan.Code),
		zap.Int64("order_code", orderCode))

	return &response_models.CreateCheckoutResponse{
		OrderCode:    orderCode,
		Amount:       amount,
		PaymentURL:   link.CheckoutURL,
		ProviderName: p.gateway.Name(),
	}, nil
}

func (p *paymentService) HandleWebhook(ctx context.Context, body []byte) error {
	data, err := p.gateway.VerifyWebhook(body)
	if err != nil {
		p.log.Warn("webhook rejected", zap.Error(err))
		return err
	}
	if data.OrderCode == payOSConfirmOrderCode {
		return nil
	}

	txn, err := p.billing.FindTransactionByProviderTxnID(ctx, providerTxnID(data.OrderCode))
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if txn == nil {
		// Ack unknown orders so the gateway stops retrying.
		p.log.Warn("webhook for unknown order", zap.Int64("order_code", data.OrderCode))
		return nil
	}
	if txn.Status == dbm.TxnStatusPaid || txn.Status == dbm.TxnStatusRefunded {
		return nil
	}
	if data.AmountMinor != txn.AmountMinor {
		p.log.Error("webhook amount mismatch",
			zap.String("txn_id", txn.ID.String()),
			zap.Int64("expected", txn.AmountMinor),
			zap.Int64("received", data.AmountMinor))
		return fmt.Errorf("%w: amount mismatch", utils.ErrInvalidWebhook)
	}

	plan, err := p.planForTransaction(ctx, txn)
	if err != nil {
		return err
	}

	now := p.now()
	sub, err := p.nextSubscription(ctx, txn, plan, now, data)
	if err != nil {
		return err
	}

	err = p.billing.ActivatePaidTransaction(ctx, txn.ID, now.Unix(), sub, plan.Tier)
	if errors.Is(err, repositories.ErrAlreadyApplied) {
		return nil
	}
	if err != nil {
		p.log.Error("webhook: failed to activate subscription",
			zap.Int64("order_code", data.OrderCode), zap.Error(err))
		return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	paidAt := now.Unix()
	txn.Status = dbm.TxnStatusPaid
	txn.PaidAt = &paidAt

	p.audit.Record(ctx, doc_models.AuditEvent{
		Category:  doc_models.AuditCategoryBilling,
		EventType: doc_models.EventPaymentReceived,
		ActorID:   txn.AccountID.String(),
		SubjectID: txn.ID.String(),
		Success:   true,
		Details: map[string]string{
			"plan_code":    plan.Code,
			"amount_minor": fmt.Sprint(txn.AmountMinor),
			"reference":    data.Reference,
		},
	})

	p.afterPayment(ctx, txn, plan, sub)
	return nil
}

// afterPayment credits the referring affiliate and notifies the account.
// Failures here are logged only; the payment itself is already applied.
func (p *paymentService) afterPayment(ctx context.Context, txn *dbm.Transaction, plan *dbm.Plan, sub *dbm.Subscription) {
	account, err := p.accounts.FindById(ctx, txn.AccountID.String())
	if err != nil || account == nil {
		p.log.Warn("paid account not loaded", zap.String("txn_id", txn.ID.String()), zap.Error(err))
		return
	}

	if account.ReferredByCode != "" {
		commission, err := p.affiliates.CommissionForSale(ctx, account.ReferredByCode, txn)
		if err != nil {
			p.log.Error("commission not recorded",
				zap.String("txn_id", txn.ID.String()),
				zap.String("referral_code", account.ReferredByCode),
				zap.Error(err))
		} else if commission != nil {
			p.log.Info("commission recorded for sale",
				zap.String("txn_id", txn.ID.String()),
				zap.String("commission_id", commission.ID.String()))
		}
	}

	ends := time.Unix(sub.EndsAt, 0).UTC().Format("Jan 2, 2006")
	if err := p.mail.SendMailToNotifyUser(ctx, account.Email,
		fmt.Sprintf("Your %s plan is active", plan.Name),
		fmt.Sprintf("Thanks for your payment. Your subscription is active until %s.", ends),
		"", ""); err != nil {
		p.log.Warn("payment receipt email not sent", zap.String("user_id", account.ID.String()), zap.Error(err))
	}
}

func (p *paymentService) planForTransaction(ctx context.Context, txn *dbm.Transaction) (*dbm.Plan, error) {
	var planID string
	if txn.PlanID != nil {
		planID = txn.PlanID.String()
	} else {
		var meta struct {
			PlanID uuid.UUID `json:"plan_id"`
		}
		if err := json.Unmarshal(txn.Metadata, &meta); err != nil || meta.PlanID == uuid.Nil {
			return nil, fmt.Errorf("%w: missing plan info on transaction %s", utils.ErrPlanNotFound, txn.ID)
		}
		planID = meta.PlanID.String()
	}

	plan, err := p.plans.GetPlanInfoById(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if plan == nil {
		return nil, utils.ErrPlanNotFound
	}
	return plan, nil
}

// nextSubscription extends from the current end when an active auto-renewing
// subscription is still running, otherwise starts now.
func (p *paymentService) nextSubscription(ctx context.Context, txn *dbm.Transaction, plan *dbm.Plan, now time.Time, data *VerifiedPayment) (*dbm.Subscription, error) {
	current, err := p.billing.CurrentSubscription(ctx, txn.AccountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	starts := now
	if current != nil && current.Status == dbm.SubStatusActive && current.AutoRenew && current.EndsAt > now.Unix() {
		starts = time.Unix(current.EndsAt, 0)
	}

	return &dbm.Subscription{
		AccountID: txn.AccountID,
		PlanID:    plan.ID,
		Status:    dbm.SubStatusActive,
		StartsAt:  starts.Unix(),
		EndsAt:    SubscriptionEnd(starts, plan.Period).Unix(),
		AutoRenew: true,

		Provider:      p.gateway.Name(),
		ProviderSubID: fmt.Sprintf("%s:%s", txn.ProviderTxnID, txn.ID),

		Metadata: jsonRaw(map[string]any{
			"activated_by_txn": txn.ID,
			"amount_minor":     txn.AmountMinor,
			"currency":         txn.Currency,
			"reference":        data.Reference,
		}),
	}, nil
}

func SubscriptionEnd(starts time.Time, period dbm.BillingPeriod) time.Time {
	if period == dbm.PeriodYear {
		return starts.AddDate(1, 0, 0)
	}
	return starts.AddDate(0, 1, 0)
}

func (p *paymentService) MySubscription(ctx context.Context, accountID string) (*response_models.SubscriptionStatusResponse, error) {
	account, err := p.accounts.FindById(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if account == nil {
		return nil, utils.ErrAccountNotFound
	}

	sub, err := p.billing.CurrentSubscription(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	return toSubscriptionStatus(account, sub), nil
}

func (p *paymentService) CancelSubscription(ctx context.Context, accountID string) (*response_models.SubscriptionStatusResponse, error) {
	account, err := p.accounts.FindById(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if account == nil {
		return nil, utils.ErrAccountNotFound
	}

	sub, err := p.billing.CurrentSubscription(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if sub == nil {
		return nil, utils.ErrNoActiveSubscription
	}

	now := p.now().Unix()
	if err := p.billing.CancelSubscription(ctx, sub.ID, now); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	sub.AutoRenew = false
	sub.CanceledAt = &now

	p.log.Info("subscription canceled", zap.String("user_id", accountID), zap.String("subscription_id", sub.ID.String()))
	return toSubscriptionStatus(account, sub), nil
}

// RefundTransaction records a refund for a paid transaction, drops the account
// to free and refunds any affiliate commission earned on it. The money movement
// itself happens in the gateway's merchant console.
func (p *paymentService) RefundTransaction(ctx context.Context, actorID, txnID, reason string) (*response_models.RefundResponse, error) {
	if _, err := uuid.Parse(txnID); err != nil {
		return nil, utils.ErrTransactionNotFound
	}
	txn, err := p.billing.FindTransactionByID(ctx, txnID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if txn == nil {
		return nil, utils.ErrTransactionNotFound
	}
	if txn.Status != dbm.TxnStatusPaid && txn.Status != dbm.TxnStatusRefunded {
		return nil, utils.ErrTransactionNotPaid
	}

	refunded, err := p.billing.RefundTransaction(ctx, txn.ID, p.now().Unix())
	switch {
	case errors.Is(err, repositories.ErrAlreadyApplied):
		refunded = txn
	case err != nil:
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	default:
		p.audit.Record(ctx, doc_models.AuditEvent{
			Category:  doc_models.AuditCategoryBilling,
			EventType: doc_models.EventTransactionRefunded,
			ActorID:   actorID,
			SubjectID: txn.ID.String(),
			Success:   true,
			Details:   map[string]string{"reason": reason},
		})
	}

	if reason == "" {
		reason = "transaction refunded"
	}
	commission, err := p.affiliates.RefundForTransaction(ctx, actorID, txn.ID, reason)
	if err != nil {
		return nil, err
	}

	return &response_models.RefundResponse{
		Transaction: ToTransactionResponse(refunded),
		Commission:  commission,
	}, nil
}

func (p *paymentService) ListTransactions(ctx context.Context, status string, page, pageSize int) (*response_models.Page[response_models.TransactionResponse], error) {
	rows, total, err := p.billing.ListTransactions(ctx, dbm.TransactionStatus(status), page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	items := make([]response_models.TransactionResponse, 0, len(rows))
	for i := range rows {
		items = append(items, ToTransactionResponse(&rows[i]))
	}
	return &response_models.Page[response_models.TransactionResponse]{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func (p *paymentService) ExpireSubscriptions(ctx context.Context) (repositories.ExpiryResult, error) {
	res, err := p.billing.ExpireSubscriptions(ctx, p.now(), subscriptionGrace)
	if err != nil {
		return res, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if res.PastDue > 0 || res.Expired > 0 {
		p.log.Info("subscriptions swept",
			zap.Int64("past_due", res.PastDue),
			zap.Int64("expired", res.Expired),
			zap.Int("downgraded", len(res.Downgraded)))
	}
	return res, nil
}

func toSubscriptionStatus(account *dbm.Account, sub *dbm.Subscription) *response_models.SubscriptionStatusResponse {
	out := &response_models.SubscriptionStatusResponse{
		AccountID: account.ID,
		Tier:      string(account.Tier),
		Status:    "none",
	}
	if sub == nil {
		return out
	}
	out.Status = string(sub.Status)
	out.StartsAt = sub.StartsAt
	out.EndsAt = sub.EndsAt
	out.AutoRenew = sub.AutoRenew
	out.CanceledAt = sub.CanceledAt
	if sub.Plan.ID != uuid.Nil {
		plan := ToPlanResponse(&sub.Plan)
		out.Plan = &plan
	}
	return out
}

func ToTransactionResponse(t *dbm.Transaction) response_models.TransactionResponse {
	return response_models.TransactionResponse{
		ID:            t.ID,
		AccountID:     t.AccountID,
		AccountEmail:  t.Account.Email,
		PlanID:        t.PlanID,
		AmountMinor:   t.AmountMinor,
		Currency:      t.Currency,
		Status:        string(t.Status),
		Provider:      t.Provider,
		ProviderTxnID: t.ProviderTxnID,
		PaidAt:        t.PaidAt,
		RefundedAt:    t.RefundedAt,
		CreatedAt:     t.CreatedAt,
	}
}

func jsonRaw(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}
