package repositories

import (
	"context"
	"errors"

	"customermind/internal/models/db_models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IPlanRepository interface {
	GetPlanInfoById(ctx context.Context, planID string) (*db_models.Plan, error)
	GetPlanByCode(ctx context.Context, code string) (*db_models.Plan, error)
	GetAllPlans(ctx context.Context, activeOnly bool) ([]db_models.Plan, error)
	Create(ctx context.Context, plan *db_models.Plan) error
	Update(ctx context.Context, plan *db_models.Plan) error
	// UpsertByCode inserts missing catalog plans without touching edited ones.
	UpsertByCode(ctx context.Context, plans []db_models.Plan) error
}

type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) IPlanRepository {
	return &PlanRepository{db: db}
}

func (p PlanRepository) GetPlanInfoById(ctx context.Context, planID string) (*db_models.Plan, error) {

	var plan db_models.Plan
	err := p.db.WithContext(ctx).First(&plan, "id = ?", planID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &plan, nil
}

func (p PlanRepository) GetPlanByCode(ctx context.Context, code string) (*db_models.Plan, error) {

	var plan db_models.Plan
	err := p.db.WithContext(ctx).First(&plan, "code = ?", code).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &plan, nil
}

func (p PlanRepository) GetAllPlans(ctx context.Context, activeOnly bool) ([]db_models.Plan, error) {

	var plans []db_models.Plan
	q := p.db.WithContext(ctx).Order("price_minor ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	if err := q.Find(&plans).Error; err != nil {
		return nil, err
	}

	return plans, nil
}

func (p PlanRepository) Create(ctx context.Context, plan *db_models.Plan) error {
	return p.db.WithContext(ctx).Create(plan).Error
}

func (p PlanRepository) Update(ctx context.Context, plan *db_models.Plan) error {
	return p.db.WithContext(ctx).Save(plan).Error
}

func (p PlanRepository) UpsertByCode(ctx context.Context, plans []db_models.Plan) error {
	if len(plans) == 0 {
		return nil
	}
	return p.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).
		Create(&plans).Error
}
