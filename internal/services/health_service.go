package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"customermind/internal/models/doc_models"
	resp "customermind/internal/models/response_models"
	"customermind/internal/permissions"
	"customermind/internal/realtime"
	"customermind/internal/repositories"
	"customermind/pkg/config"
	"customermind/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Publisher pushes an event to a tenant's live subscribers.
type Publisher interface {
	Publish(tenantID, eventType string, data any)
}

type HealthServiceInterface interface {
	Score(ctx context.Context, tenantID, customerID string) (*doc_models.CustomerHealthScore, error)
	// Refresh scores every customer of the tenant with bounded concurrency.
	Refresh(ctx context.Context, tenantID string) (*resp.HealthRefreshResult, error)
	// RefreshEligible refreshes each tenant whose plan includes customer health.
	RefreshEligible(ctx context.Context) (int, error)
	Overview(ctx context.Context, tenantID string) (*resp.HealthOverview, error)
	Alerts(ctx context.Context, tenantID string, unacknowledgedOnly bool, limit int64) ([]doc_models.HealthAlert, error)
	Acknowledge(ctx context.Context, tenantID, alertID, by string) (*doc_models.HealthAlert, error)
}

type HealthService struct {
	customers repositories.CustomerStore
	store     repositories.HealthStore
	accounts  repositories.AccountRepository
	llm       utils.LLMClientInterface
	hub       Publisher
	mail      IMailService
	cfg       config.HealthConfig
	log       *zap.Logger
	now       func() time.Time
}

const healthSystemPrompt = `You assess the health of a B2B SaaS customer relationship.
Answer with a single JSON object and nothing else:
{"score": integer 0-100 where 100 is healthiest,
 "factors": array of short strings explaining the score,
 "recommendations": array of 1 to 3 short actions}`

type healthAnswer struct {
	Score           *int     `json:"score"`
	Factors         []string `json:"factors"`
	Recommendations []string `json:"recommendations"`
}

func NewHealthService(
	customers repositories.CustomerStore,
	store repositories.HealthStore,
	accounts repositories.AccountRepository,
	llm utils.LLMClientInterface,
	hub Publisher,
	mail IMailService,
	cfg config.HealthConfig,
	log *zap.Logger,
) HealthServiceInterface {
	if cfg.HealthyThreshold == 0 {
		cfg.HealthyThreshold = 70
	}
	if cfg.WarningThreshold == 0 {
		cfg.WarningThreshold = 60
	}
	if cfg.CriticalThreshold == 0 {
		cfg.CriticalThreshold = 40
	}
	if cfg.ScoreTTL <= 0 {
		cfg.ScoreTTL = 24 * time.Hour
	}
	if cfg.RefreshWorkers <= 0 {
		cfg.RefreshWorkers = 4
	}
	return &HealthService{
		customers: customers,
		store:     store,
		accounts:  accounts,
		llm:       llm,
		hub:       hub,
		mail:      mail,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

func (s *HealthService) Score(ctx context.Context, tenantID, customerID string) (*doc_models.CustomerHealthScore, error) {
	c, err := s.customers.FindByID(ctx, tenantID, customerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if c == nil {
		return nil, utils.ErrCustomerNotFound
	}
	score, _, err := s.scoreCustomer(ctx, c)
	return score, err
}

// scoreCustomer stores and publishes the score and, below the warning threshold, an alert.
func (s *HealthService) scoreCustomer(ctx context.Context, c *doc_models.Customer) (*doc_models.CustomerHealthScore, *doc_models.HealthAlert, error) {
	now := s.now().UTC()
	hs := &doc_models.CustomerHealthScore{
		TenantID:     c.TenantID,
		CustomerID:   c.ID.Hex(),
		CustomerName: c.Name,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.cfg.ScoreTTL),
	}

	if err := s.askModel(ctx, c, now, hs); err != nil {
		s.log.Debug("health score falls back to heuristic", zap.String("customer_id", hs.CustomerID), zap.Error(err))
		hs.Score, hs.Factors, hs.Recommendations = HeuristicHealth(c, now)
		hs.Source = doc_models.SourceFallback
	}
	hs.Status = HealthStatusFor(hs.Score, s.cfg)

	if err := s.store.InsertScore(ctx, hs); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	s.hub.Publish(c.TenantID, realtime.EventHealthScore, hs)

	severity, alerting := AlertSeverityFor(hs.Score, s.cfg)
	if !alerting {
		return hs, nil, nil
	}
	alert := &doc_models.HealthAlert{
		TenantID:     c.TenantID,
		CustomerID:   hs.CustomerID,
		CustomerName: c.Name,
		Score:        hs.Score,
		Severity:     severity,
		Message:      alertMessage(c.Name, hs),
		CreatedAt:    now,
	}
	if err := s.store.InsertAlert(ctx, alert); err != nil {
		return hs, nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	s.hub.Publish(c.TenantID, realtime.EventHealthAlert, alert)
	return hs, alert, nil
}

func alertMessage(name string, hs *doc_models.CustomerHealthScore) string {
	msg := fmt.Sprintf("%s health score dropped to %d", name, hs.Score)
	if len(hs.Factors) > 0 {
		msg += ": " + strings.Join(hs.Factors, ", ")
	}
	return msg
}

func (s *HealthService) askModel(ctx context.Context, c *doc_models.Customer, now time.Time, hs *doc_models.CustomerHealthScore) error {
	if s.llm == nil {
		return fmt.Errorf("%w: no model configured", utils.ErrUnexpectedBehaviorOfAI)
	}
	answer, err := s.llm.CompleteJSON(ctx, healthSystemPrompt, "Score this customer:\n"+customerFacts(c, now))
	if err != nil {
		return err
	}
	var out healthAnswer
	if err := utils.DecodeJSONAnswer(answer, &out); err != nil {
		return err
	}
	if out.Score == nil || *out.Score < 0 || *out.Score > 100 {
		return fmt.Errorf("%w: score out of range", utils.ErrUnexpectedBehaviorOfAI)
	}
	hs.Score = *out.Score
	hs.Factors = out.Factors
	hs.Recommendations = out.Recommendations
	hs.Source = doc_models.SourceAI
	return nil
}

func (s *HealthService) Refresh(ctx context.Context, tenantID string) (*resp.HealthRefreshResult, error) {
	result, _, err := s.refresh(ctx, tenantID)
	return result, err
}

func (s *HealthService) refresh(ctx context.Context, tenantID string) (*resp.HealthRefreshResult, []doc_models.HealthAlert, error) {
	customers, err := s.customers.ListAll(ctx, tenantID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	var (
		mu     sync.Mutex
		result resp.HealthRefreshResult
		alerts []doc_models.HealthAlert
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.RefreshWorkers)
	for i := range customers {
		c := &customers[i]
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			_, alert, err := s.scoreCustomer(gctx, c)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				s.log.Warn("health refresh failed for customer", zap.String("customer_id", c.ID.Hex()), zap.Error(err))
				return nil
			}
			result.Scored++
			if alert != nil {
				result.Alerts++
				alerts = append(alerts, *alert)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return &result, alerts, err
	}

	s.log.Info("health refresh finished",
		zap.String("tenant_id", tenantID),
		zap.Int("scored", result.Scored),
		zap.Int("failed", result.Failed),
		zap.Int("alerts", result.Alerts))
	return &result, alerts, nil
}

func (s *HealthService) RefreshEligible(ctx context.Context) (int, error) {
	tenants, err := s.customers.Tenants(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	refreshed := 0
	for _, tenantID := range tenants {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}
		account, err := s.accounts.FindById(ctx, tenantID)
		if err != nil || account == nil || !account.IsActive {
			continue
		}
		tenant := Tenant{ID: tenantID, Role: account.Role, Tier: account.Tier}
		if !tenant.Can(permissions.FeatureCustomerHealth) {
			continue
		}

		_, alerts, err := s.refresh(ctx, tenantID)
		if err != nil {
			s.log.Warn("scheduled health refresh failed", zap.String("tenant_id", tenantID), zap.Error(err))
			continue
		}
		refreshed++
		if len(alerts) > 0 && s.mail != nil {
			if err := s.mail.SendHealthAlertDigest(ctx, account.Email, alerts); err != nil {
				s.log.Warn("health alert digest not sent", zap.String("tenant_id", tenantID), zap.Error(err))
			}
		}
	}
	return refreshed, nil
}

func (s *HealthService) Overview(ctx context.Context, tenantID string) (*resp.HealthOverview, error) {
	scores, err := s.store.LatestScores(ctx, tenantID, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	out := &resp.HealthOverview{Scores: scores}
	total := 0
	for _, sc := range scores {
		total += sc.Score
		switch sc.Status {
		case doc_models.HealthHealthy:
			out.Healthy++
		case doc_models.HealthAtRisk:
			out.AtRisk++
		default:
			out.Critical++
		}
	}
	if len(scores) > 0 {
		out.Average = round2(float64(total) / float64(len(scores)))
	}
	return out, nil
}

func (s *HealthService) Alerts(ctx context.Context, tenantID string, unacknowledgedOnly bool, limit int64) ([]doc_models.HealthAlert, error) {
	alerts, err := s.store.ListAlerts(ctx, tenantID, unacknowledgedOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	return alerts, nil
}

func (s *HealthService) Acknowledge(ctx context.Context, tenantID, alertID, by string) (*doc_models.HealthAlert, error) {
	alert, err := s.store.AcknowledgeAlert(ctx, tenantID, alertID, by, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if alert == nil {
		return nil, utils.ErrAlertNotFound
	}
	return alert, nil
}
