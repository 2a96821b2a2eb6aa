package services

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"customermind/internal/models/doc_models"
	"customermind/internal/models/request_models"
	resp "customermind/internal/models/response_models"
	"customermind/internal/repositories"
	"customermind/pkg/utils"

	"go.uber.org/zap"
)

type CampaignServiceInterface interface {
	Create(ctx context.Context, tenant Tenant, req request_models.CreateCampaignRequest) (*doc_models.EmailCampaign, error)
	List(ctx context.Context, tenantID string, q request_models.PageQuery) (*resp.Page[doc_models.EmailCampaign], error)
	Get(ctx context.Context, tenantID, id string) (*doc_models.EmailCampaign, error)
	Delete(ctx context.Context, tenantID, id string) error
	// Send moves a draft to sending and delivers it in the background.
	Send(ctx context.Context, tenantID, id string) (*doc_models.EmailCampaign, error)
	Logs(ctx context.Context, tenantID, id string, limit int64) ([]doc_models.EmailLog, error)
	Providers() []string
	// Wait blocks until in-flight sends finish or ctx is done.
	Wait(ctx context.Context) error
}

type CampaignService struct {
	store       repositories.CampaignStore
	dispatcher  EmailDispatcherInterface
	sendTimeout time.Duration
	log         *zap.Logger
	now         func() time.Time
	inflight    sync.WaitGroup
}

func NewCampaignService(store repositories.CampaignStore, dispatcher EmailDispatcherInterface, sendTimeout time.Duration, log *zap.Logger) *CampaignService {
	if sendTimeout <= 0 {
		sendTimeout = 30 * time.Minute
	}
	return &CampaignService{
		store:       store,
		dispatcher:  dispatcher,
		sendTimeout: sendTimeout,
		log:         log,
		now:         time.Now,
	}
}

// NormalizeRecipients lower-cases and trims addresses and drops duplicates, keeping the first name seen.
func NormalizeRecipients(in []request_models.RecipientRequest) []doc_models.Recipient {
	seen := make(map[string]struct{}, len(in))
	out := make([]doc_models.Recipient, 0, len(in))
	for _, r := range in {
		email := strings.ToLower(strings.TrimSpace(r.Email))
		if email == "" {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, doc_models.Recipient{Email: email, Name: strings.TrimSpace(r.Name)})
	}
	return out
}

func (s *CampaignService) Create(ctx context.Context, tenant Tenant, req request_models.CreateCampaignRequest) (*doc_models.EmailCampaign, error) {
	recipients := NormalizeRecipients(req.Recipients)
	if len(recipients) == 0 {
		return nil, utils.ErrNoRecipients
	}
	if !tenant.WithinContactLimit(len(recipients)) {
		return nil, fmt.Errorf("%w: %d recipients, limit %d", utils.ErrRecipientLimitExceeded, len(recipients), tenant.ContactLimit())
	}

	c := &doc_models.EmailCampaign{
		TenantID:        tenant.ID,
		Name:            strings.TrimSpace(req.Name),
		Subject:         req.Subject,
		HTMLContent:     req.HTMLContent,
		TextContent:     req.TextContent,
		Recipients:      recipients,
		Status:          doc_models.CampaignDraft,
		TotalRecipients: len(recipients),
		CreatedAt:       s.now().UTC(),
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	return c, nil
}

func (s *CampaignService) List(ctx context.Context, tenantID string, q request_models.PageQuery) (*resp.Page[doc_models.EmailCampaign], error) {
	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	items, total, err := s.store.List(ctx, tenantID, int64(size), int64((page-1)*size))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	return &resp.Page[doc_models.EmailCampaign]{Items: items, Total: total, Page: page, PageSize: size}, nil
}

func (s *CampaignService) Get(ctx context.Context, tenantID, id string) (*doc_models.EmailCampaign, error) {
	c, err := s.store.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if c == nil {
		return nil, utils.ErrCampaignNotFound
	}
	return c, nil
}

func (s *CampaignService) Delete(ctx context.Context, tenantID, id string) error {
	deleted, err := s.store.DeleteDraft(ctx, tenantID, id)
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if deleted {
		return nil
	}
	if _, err := s.Get(ctx, tenantID, id); err != nil {
		return err
	}
	return utils.ErrCampaignNotDraft
}

func (s *CampaignService) Send(ctx context.Context, tenantID, id string) (*doc_models.EmailCampaign, error) {
	c, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if c.Status != doc_models.CampaignDraft {
		return nil, utils.ErrCampaignNotDraft
	}
	if len(c.Recipients) == 0 {
		return nil, utils.ErrNoRecipients
	}
	if len(s.dispatcher.Providers()) == 0 {
		return nil, utils.ErrNoEmailProvider
	}

	started := s.now().UTC()
	ok, err := s.store.MarkSending(ctx, tenantID, c.ID, started)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if !ok {
		return nil, utils.ErrCampaignNotDraft
	}
	c.Status = doc_models.CampaignSending
	c.StartedAt = &started
	c.SentCount, c.FailedCount = 0, 0

	// The request context ends with the response; delivery gets its own deadline.
	snapshot := *c
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		runCtx, cancel := context.WithTimeout(context.Background(), s.sendTimeout)
		defer cancel()
		s.deliver(runCtx, &snapshot)
	}()

	s.log.Info("campaign sending",
		zap.String("tenant_id", tenantID),
		zap.String("campaign_id", c.ID.Hex()),
		zap.Int("recipients", len(c.Recipients)))
	return c, nil
}

// deliver sends to each recipient and records one log per recipient. Recipients
// left when ctx expires are counted as failed so the totals always add up.
func (s *CampaignService) deliver(ctx context.Context, c *doc_models.EmailCampaign) {
	sent, failed := 0, 0
	campaignID := c.ID

	// Store writes must outlive the send deadline.
	storeCtx := context.WithoutCancel(ctx)

	for _, r := range c.Recipients {
		entry := &doc_models.EmailLog{
			CampaignID: &campaignID,
			TenantID:   c.TenantID,
			Recipient:  r.Email,
			Subject:    personalize(c.Subject, r, false),
			Kind:       "campaign",
		}

		if ctx.Err() != nil {
			entry.Status = doc_models.EmailLogFailed
			entry.Error = ctx.Err().Error()
		} else {
			res, err := s.dispatcher.Send(ctx, EmailMessage{
				To:      r.Email,
				ToName:  r.Name,
				Subject: entry.Subject,
				HTML:    personalize(c.HTMLContent, r, true),
				Text:    personalize(c.TextContent, r, false),
			})
			entry.Provider = res.Provider
			entry.AttemptedProviders = res.Attempted
			entry.ProviderMessageID = res.MessageID
			entry.Status = doc_models.EmailLogSent
			if err != nil {
				entry.Status = doc_models.EmailLogFailed
				entry.Error = err.Error()
			}
		}
		entry.SentAt = s.now().UTC()

		if err := s.store.InsertLog(storeCtx, entry); err != nil {
			s.log.Warn("campaign log not stored", zap.String("campaign_id", campaignID.Hex()), zap.Error(err))
		}

		ds, df := 1, 0
		if entry.Status == doc_models.EmailLogFailed {
			ds, df = 0, 1
		}
		sent += ds
		failed += df
		if err := s.store.IncrementCounts(storeCtx, campaignID, ds, df, entry.Provider); err != nil {
			s.log.Warn("campaign counters not updated", zap.String("campaign_id", campaignID.Hex()), zap.Error(err))
		}
	}

	status := doc_models.FinalStatus(sent, failed)
	if err := s.store.Complete(storeCtx, campaignID, status, s.now().UTC()); err != nil {
		s.log.Error("campaign completion not stored", zap.String("campaign_id", campaignID.Hex()), zap.Error(err))
	}
	s.log.Info("campaign finished",
		zap.String("campaign_id", campaignID.Hex()),
		zap.String("status", string(status)),
		zap.Int("sent", sent),
		zap.Int("failed", failed))
}

func personalize(content string, r doc_models.Recipient, escape bool) string {
	if content == "" {
		return ""
	}
	name := r.Name
	if name == "" {
		name = "there"
	}
	email := r.Email
	if escape {
		name = html.EscapeString(name)
		email = html.EscapeString(email)
	}
	return strings.NewReplacer("{{name}}", name, "{{email}}", email).Replace(content)
}

func (s *CampaignService) Logs(ctx context.Context, tenantID, id string, limit int64) ([]doc_models.EmailLog, error) {
	c, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	logs, err := s.store.ListLogs(ctx, tenantID, c.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	return logs, nil
}

func (s *CampaignService) Providers() []string {
	return s.dispatcher.Providers()
}

func (s *CampaignService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ CampaignServiceInterface = (*CampaignService)(nil)
