package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"customermind/internal/models/db_models"
	"customermind/internal/models/doc_models"
	"customermind/internal/models/request_models"
	"customermind/internal/models/response_models"
	"customermind/internal/permissions"
	"customermind/internal/repositories"
	"customermind/pkg/utils"

	"go.uber.org/zap"
)

type PlanServiceInterface interface {
	GetPlans(ctx context.Context) ([]response_models.SubscriptionPlan, error)
	GetAllPlans(ctx context.Context) ([]response_models.SubscriptionPlan, error)
	GetPlanInfoById(ctx context.Context, planId string) (response_models.SubscriptionPlan, error)
	CreatePlan(ctx context.Context, actorID string, req request_models.PlanRequest) (*response_models.SubscriptionPlan, error)
	UpdatePlan(ctx context.Context, actorID, planID string, req request_models.PlanRequest) (*response_models.SubscriptionPlan, error)
	// SeedCatalog inserts the default plans that do not exist yet.
	SeedCatalog(ctx context.Context) error
}

func NewPlanService(planRepo repositories.IPlanRepository, audit AuditServiceInterface, log *zap.Logger) PlanServiceInterface {
	return &PlanService{
		planRepo: planRepo,
		audit:    audit,
		log:      log,
	}
}

type PlanService struct {
	planRepo repositories.IPlanRepository
	audit    AuditServiceInterface
	log      *zap.Logger
}

func (p *PlanService) GetPlans(ctx context.Context) ([]response_models.SubscriptionPlan, error) {
	return p.list(ctx, true)
}

func (p *PlanService) GetAllPlans(ctx context.Context) ([]response_models.SubscriptionPlan, error) {
	return p.list(ctx, false)
}

func (p *PlanService) list(ctx context.Context, activeOnly bool) ([]response_models.SubscriptionPlan, error) {
	plans, err := p.planRepo.GetAllPlans(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	out := make([]response_models.SubscriptionPlan, 0, len(plans))
	for i := range plans {
		out = append(out, ToPlanResponse(&plans[i]))
	}
	return out, nil
}

func (p *PlanService) GetPlanInfoById(ctx context.Context, planId string) (response_models.SubscriptionPlan, error) {

	plan, err := p.planRepo.GetPlanInfoById(ctx, planId)
	if err != nil {
		return response_models.SubscriptionPlan{}, utils.ErrDatabaseError
	}

	if plan == nil {
		return response_models.SubscriptionPlan{}, utils.ErrPlanNotFound
	}

	return ToPlanResponse(plan), nil
}

func (p *PlanService) CreatePlan(ctx context.Context, actorID string, req request_models.PlanRequest) (*response_models.SubscriptionPlan, error) {
	existing, err := p.planRepo.GetPlanByCode(ctx, req.Code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: plan code %q already exists", utils.ErrInvalidInput, req.Code)
	}

	plan := &db_models.Plan{}
	if err := applyPlanRequest(plan, req); err != nil {
		return nil, err
	}
	if err := p.planRepo.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	p.recordSaved(ctx, actorID, plan)

	out := ToPlanResponse(plan)
	return &out, nil
}

func (p *PlanService) UpdatePlan(ctx context.Context, actorID, planID string, req request_models.PlanRequest) (*response_models.SubscriptionPlan, error) {
	plan, err := p.planRepo.GetPlanInfoById(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if plan == nil {
		return nil, utils.ErrPlanNotFound
	}
	if err := applyPlanRequest(plan, req); err != nil {
		return nil, err
	}
	if err := p.planRepo.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	p.recordSaved(ctx, actorID, plan)

	out := ToPlanResponse(plan)
	return &out, nil
}

func (p *PlanService) recordSaved(ctx context.Context, actorID string, plan *db_models.Plan) {
	p.audit.Record(ctx, doc_models.AuditEvent{
		Category:  doc_models.AuditCategoryAdmin,
		EventType: doc_models.EventPlanSaved,
		ActorID:   actorID,
		SubjectID: plan.ID.String(),
		Success:   true,
		Details: map[string]string{
			"code":        plan.Code,
			"tier":        string(plan.Tier),
			"price_minor": fmt.Sprint(plan.PriceMinor),
		},
	})
}

func applyPlanRequest(plan *db_models.Plan, req request_models.PlanRequest) error {
	tier := db_models.Tier(req.Tier)
	if !tier.Valid() {
		return fmt.Errorf("%w: unknown tier %q", utils.ErrInvalidInput, req.Tier)
	}

	features := req.Features
	if len(features) == 0 {
		for _, f := range permissions.Features(tier) {
			features = append(features, string(f))
		}
	}
	raw, err := json.Marshal(features)
	if err != nil {
		return err
	}

	plan.Code = strings.ToLower(strings.TrimSpace(req.Code))
	plan.Name = req.Name
	plan.Description = req.Description
	plan.Tier = tier
	plan.Period = db_models.BillingPeriod(req.Period)
	plan.PriceMinor = req.PriceMinor
	plan.Currency = strings.ToUpper(req.Currency)
	plan.TrialDays = req.TrialDays
	plan.IsActive = req.IsActive == nil || *req.IsActive
	plan.Features = raw
	return nil
}

func (p *PlanService) SeedCatalog(ctx context.Context) error {
	if err := p.planRepo.UpsertByCode(ctx, DefaultPlanCatalog()); err != nil {
		return fmt.Errorf("seed plans: %w", err)
	}
	return nil
}

// DefaultPlanCatalog returns monthly and yearly plans for every paid tier.
// Yearly plans cost ten months.
func DefaultPlanCatalog() []db_models.Plan {
	type priced struct {
		tier  db_models.Tier
		name  string
		price int64
	}
	tiers := []priced{
		{db_models.TierLaunch, "Launch", 4900},
		{db_models.TierGrowth, "Growth", 9900},
		{db_models.TierScale, "Scale", 19900},
		{db_models.TierWhiteLabel, "White Label", 49900},
	}

	plans := []db_models.Plan{newCatalogPlan("free", "Free", db_models.TierFree, db_models.PeriodMonth, 0)}
	for _, t := range tiers {
		plans = append(plans,
			newCatalogPlan(string(t.tier)+"_monthly", t.name, t.tier, db_models.PeriodMonth, t.price),
			newCatalogPlan(string(t.tier)+"_yearly", t.name+" (yearly)", t.tier, db_models.PeriodYear, t.price*10),
		)
	}
	return plans
}

func newCatalogPlan(code, name string, tier db_models.Tier, period db_models.BillingPeriod, price int64) db_models.Plan {
	features := make([]string, 0)
	for _, f := range permissions.Features(tier) {
		features = append(features, string(f))
	}
	raw, _ := json.Marshal(features)
	return db_models.Plan{
		Code:       code,
		Name:       name,
		Tier:       tier,
		Period:     period,
		PriceMinor: price,
		Currency:   "USD",
		IsActive:   true,
		Features:   raw,
	}
}

func ToPlanResponse(plan *db_models.Plan) response_models.SubscriptionPlan {
	var features []string
	if len(plan.Features) > 0 {
		_ = json.Unmarshal(plan.Features, &features)
	}
	return response_models.SubscriptionPlan{
		ID:          plan.ID,
		Code:        plan.Code,
		Name:        plan.Name,
		Description: plan.Description,
		Tier:        string(plan.Tier),
		Price:       plan.PriceMinor,
		Currency:    plan.Currency,
		Period:      string(plan.Period),
		TrialDays:   plan.TrialDays,
		IsActive:    plan.IsActive,
		Features:    features,
	}
}
