package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"customermind/internal/models/db_models"
	"customermind/internal/models/doc_models"
	"customermind/internal/models/request_models"
	"customermind/internal/repositories"
	"customermind/pkg/utils"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) CreateProduct(ctx context.Context, p *db_models.ProductEmbedding) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProductRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]db_models.ProductEmbedding, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]db_models.ProductEmbedding), args.Error(1)
}

func (m *MockProductRepository) FindByNames(ctx context.Context, tenantID uuid.UUID, names []string) ([]db_models.ProductEmbedding, error) {
	args := m.Called(ctx, tenantID, names)
	return args.Get(0).([]db_models.ProductEmbedding), args.Error(1)
}

func (m *MockProductRepository) Nearest(ctx context.Context, tenantID uuid.UUID, vector pgvector.Vector, source string, exclude []uuid.UUID, limit int) ([]repositories.ProductMatch, error) {
	args := m.Called(ctx, tenantID, vector, source, exclude, limit)
	return args.Get(0).([]repositories.ProductMatch), args.Error(1)
}

type stubCrossSellStore struct {
	replaced []doc_models.CrossSellOpportunity
}

func (s *stubCrossSellStore) EnsureIndexes(context.Context) error { return nil }

func (s *stubCrossSellStore) Replace(_ context.Context, _, _ string, ops []doc_models.CrossSellOpportunity) error {
	s.replaced = ops
	return nil
}

func (s *stubCrossSellStore) ListActive(context.Context, string, time.Time, int64) ([]doc_models.CrossSellOpportunity, error) {
	return s.replaced, nil
}

func newTestGrowthService(products *MockProductRepository, customers *MockCustomerStore, llm utils.LLMClientInterface) (*GrowthService, *stubCrossSellStore) {
	store := &stubCrossSellStore{}
	svc := NewGrowthService(products, customers, store, llm, zap.NewNop()).(*GrowthService)
	svc.now = func() time.Time { return testNow }
	return svc, store
}

func sameVector(want pgvector.Vector) interface{} {
	return mock.MatchedBy(func(v pgvector.Vector) bool {
		return assert.ObjectsAreEqual(want.Slice(), v.Slice())
	})
}

func TestAddProductRecordsEmbeddingSource(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.NewString()

	t.Run("model embedding", func(t *testing.T) {
		products := new(MockProductRepository)
		llm := new(MockLLMClient)
		svc, _ := newTestGrowthService(products, new(MockCustomerStore), llm)

		llm.On("GetEmbedding", ctx, mock.Anything).Return(pgvector.NewVector([]float32{1, 0, 0}), nil)
		products.On("CreateProduct", ctx, mock.MatchedBy(func(p *db_models.ProductEmbedding) bool {
			return p.EmbeddingSource == "mock"
		})).Return(nil)

		_, err := svc.AddProduct(ctx, tenant, request_models.ProductRequest{Name: "Data Connector"})
		require.NoError(t, err)
		products.AssertExpectations(t)
	})

	t.Run("model failure falls back to hashed", func(t *testing.T) {
		products := new(MockProductRepository)
		llm := new(MockLLMClient)
		svc, _ := newTestGrowthService(products, new(MockCustomerStore), llm)

		llm.On("GetEmbedding", ctx, mock.Anything).Return(pgvector.Vector{}, errors.New("quota exceeded"))
		products.On("CreateProduct", ctx, mock.MatchedBy(func(p *db_models.ProductEmbedding) bool {
			return p.EmbeddingSource == utils.EmbeddingSourceHashed && len(p.Embedding.Slice()) == utils.EmbeddingDimensions
		})).Return(nil)

		_, err := svc.AddProduct(ctx, tenant, request_models.ProductRequest{Name: "Data Connector"})
		require.NoError(t, err)
		products.AssertExpectations(t)
	})
}

func TestCrossSellComparesOnlySameSourceVectors(t *testing.T) {
	ctx := context.Background()
	tid := uuid.New()
	products := new(MockProductRepository)
	customers := new(MockCustomerStore)
	svc, store := newTestGrowthService(products, customers, nil)

	c := &doc_models.Customer{ID: primitive.NewObjectID(), TenantID: tid.String(), Company: "Acme", Products: []string{"Analytics", "Seats"}}
	hashed := db_models.ProductEmbedding{ID: uuid.New(), Name: "Analytics", Embedding: utils.HashedEmbedding("analytics"), EmbeddingSource: utils.EmbeddingSourceHashed}
	foreign := db_models.ProductEmbedding{ID: uuid.New(), Name: "Seats", Embedding: pgvector.NewVector(make([]float32, utils.EmbeddingDimensions)), EmbeddingSource: "openai:text-embedding-3-small"}

	customers.On("FindByID", ctx, tid.String(), c.ID.Hex()).Return(c, nil)
	products.On("FindByNames", ctx, tid, c.Products).Return([]db_models.ProductEmbedding{hashed, foreign}, nil)
	products.On("Nearest", ctx, tid, sameVector(hashed.Embedding), utils.EmbeddingSourceHashed, []uuid.UUID{hashed.ID, foreign.ID}, crossSellCandidates).
		Return([]repositories.ProductMatch{{ProductEmbedding: db_models.ProductEmbedding{ID: uuid.New(), Name: "Forecasting", PriceMinor: 10000}, Similarity: 0.8}}, nil)

	ops, err := svc.CrossSell(ctx, tid.String(), c.ID.Hex())
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "Forecasting", ops[0].ProductName)
	assert.Equal(t, doc_models.SourceFallback, ops[0].Source)
	assert.Equal(t, ops, store.replaced)
	products.AssertExpectations(t)
}

func TestCrossSellReembedsWhenOwnedVectorsComeFromAnotherSource(t *testing.T) {
	ctx := context.Background()
	tid := uuid.New()
	products := new(MockProductRepository)
	customers := new(MockCustomerStore)
	llm := new(MockLLMClient)
	svc, _ := newTestGrowthService(products, customers, llm)

	c := &doc_models.Customer{ID: primitive.NewObjectID(), TenantID: tid.String(), Company: "Acme", Products: []string{"Analytics"}}
	old := db_models.ProductEmbedding{ID: uuid.New(), Name: "Analytics", Embedding: utils.HashedEmbedding("analytics"), EmbeddingSource: utils.EmbeddingSourceHashed}
	fresh := pgvector.NewVector([]float32{0, 1, 0})

	customers.On("FindByID", ctx, tid.String(), c.ID.Hex()).Return(c, nil)
	products.On("FindByNames", ctx, tid, c.Products).Return([]db_models.ProductEmbedding{old}, nil)
	llm.On("GetEmbedding", ctx, "Acme Analytics").Return(fresh, nil)
	products.On("Nearest", ctx, tid, sameVector(fresh), "mock", []uuid.UUID{old.ID}, crossSellCandidates).
		Return([]repositories.ProductMatch{}, nil)

	ops, err := svc.CrossSell(ctx, tid.String(), c.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, ops)
	products.AssertExpectations(t)
	llm.AssertExpectations(t)
}
