package repositories

import (
	"context"

	"customermind/internal/models/db_models"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IProductRepository interface {
	CreateProduct(ctx context.Context, p *db_models.ProductEmbedding) error
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]db_models.ProductEmbedding, error)
	FindByNames(ctx context.Context, tenantID uuid.UUID, names []string) ([]db_models.ProductEmbedding, error)
	// Nearest returns catalog products embedded by source, ordered by cosine distance to vector.
	Nearest(ctx context.Context, tenantID uuid.UUID, vector pgvector.Vector, source string, exclude []uuid.UUID, limit int) ([]ProductMatch, error)
}

type ProductMatch struct {
	db_models.ProductEmbedding
	Similarity float64 `gorm:"column:similarity"`
}

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) IProductRepository {
	return &ProductRepository{
		db: db,
	}
}

func (p *ProductRepository) CreateProduct(ctx context.Context, product *db_models.ProductEmbedding) error {
	return p.db.WithContext(ctx).Create(product).Error
}

func (p *ProductRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]db_models.ProductEmbedding, error) {
	var products []db_models.ProductEmbedding
	err := p.db.WithContext(ctx).
		Omit("embedding").
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&products).Error
	return products, err
}

func (p *ProductRepository) FindByNames(ctx context.Context, tenantID uuid.UUID, names []string) ([]db_models.ProductEmbedding, error) {
	var products []db_models.ProductEmbedding
	if len(names) == 0 {
		return products, nil
	}
	err := p.db.WithContext(ctx).
		Where("tenant_id = ? AND (name IN ? OR sku IN ?)", tenantID, names, names).
		Find(&products).Error
	return products, err
}

func (p *ProductRepository) Nearest(ctx context.Context, tenantID uuid.UUID, vector pgvector.Vector, source string, exclude []uuid.UUID, limit int) ([]ProductMatch, error) {
	var results []ProductMatch

	q := p.db.WithContext(ctx).
		Table("product_embeddings").
		Select("*, (1 - (embedding <=> ?)) AS similarity", vector).
		Where("tenant_id = ? AND embedding_source = ?", tenantID, source)
	if len(exclude) > 0 {
		q = q.Where("id NOT IN ?", exclude)
	}

	// Cosine distance: closer to 0 is better.
	err := q.Clauses(clause.OrderBy{
		Expression: clause.Expr{SQL: "embedding <=> ?", Vars: []interface{}{vector}},
	}).
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
