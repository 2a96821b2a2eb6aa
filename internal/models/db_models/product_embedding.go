package db_models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// ProductEmbedding is a tenant catalog entry used for cross-sell similarity search.
type ProductEmbedding struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID        uuid.UUID       `gorm:"type:uuid;index"`
	SKU             string          `gorm:"index"`
	Name            string
	Description     string
	Category        string
	PriceMinor      int64
	Currency        string          `gorm:"size:3"`
	Tags            pq.StringArray  `gorm:"type:text[]"`
	Embedding       pgvector.Vector `gorm:"type:vector(1536)"`
	// EmbeddingSource names the vector space; only same-source vectors are compared.
	EmbeddingSource string    `gorm:"size:64;index"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
}

func (p *ProductEmbedding) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
