package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"customermind/internal/models/db_models"
	"customermind/internal/models/doc_models"
	"customermind/internal/models/request_models"
	resp "customermind/internal/models/response_models"
	"customermind/internal/repositories"
	"customermind/pkg/utils"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

type GrowthServiceInterface interface {
	AddProduct(ctx context.Context, tenantID string, req request_models.ProductRequest) (*resp.ProductResponse, error)
	ListProducts(ctx context.Context, tenantID string) ([]resp.ProductResponse, error)
	// CrossSell replaces the customer's stored opportunities with a fresh set.
	CrossSell(ctx context.Context, tenantID, customerID string) ([]doc_models.CrossSellOpportunity, error)
	Opportunities(ctx context.Context, tenantID string, limit int64) ([]doc_models.CrossSellOpportunity, error)
}

type GrowthService struct {
	products  repositories.IProductRepository
	customers repositories.CustomerStore
	crossSell repositories.CrossSellStore
	llm       utils.LLMClientInterface
	log       *zap.Logger
	now       func() time.Time
}

const (
	crossSellCandidates = 5
	crossSellTTL        = 7 * 24 * time.Hour
)

const crossSellSystemPrompt = `You recommend cross-sell products for a B2B SaaS customer.
Pick only from the candidate list. Answer with a single JSON object:
{"recommendations": [{"product": exact candidate name, "confidence": number between 0 and 1, "reason": one sentence}]}`

type crossSellAnswer struct {
	Recommendations []struct {
		Product    string  `json:"product"`
		Confidence float64 `json:"confidence"`
		Reason     string  `json:"reason"`
	} `json:"recommendations"`
}

// NewGrowthService accepts a nil llm; embeddings then use the hashed vector and picks rank by similarity.
func NewGrowthService(
	products repositories.IProductRepository,
	customers repositories.CustomerStore,
	crossSell repositories.CrossSellStore,
	llm utils.LLMClientInterface,
	log *zap.Logger,
) GrowthServiceInterface {
	return &GrowthService{
		products:  products,
		customers: customers,
		crossSell: crossSell,
		llm:       llm,
		log:       log,
		now:       time.Now,
	}
}

func tenantUUID(tenantID string) (uuid.UUID, error) {
	id, err := uuid.Parse(tenantID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: tenant id", utils.ErrInvalidInput)
	}
	return id, nil
}

// embed returns the vector and the source it belongs to.
func (s *GrowthService) embed(ctx context.Context, text string) (pgvector.Vector, string) {
	if s.llm != nil {
		v, err := s.llm.GetEmbedding(ctx, text)
		if err == nil {
			return v, s.llm.EmbeddingSource()
		}
		s.log.Warn("embedding falls back to hashed vector", zap.Error(err))
	}
	return utils.HashedEmbedding(text), utils.EmbeddingSourceHashed
}

func (s *GrowthService) preferredSource() string {
	if s.llm != nil {
		return s.llm.EmbeddingSource()
	}
	return utils.EmbeddingSourceHashed
}

func productText(p *db_models.ProductEmbedding) string {
	parts := []string{p.Name, p.Category, p.Description}
	parts = append(parts, p.Tags...)
	return strings.Join(parts, " ")
}

func (s *GrowthService) AddProduct(ctx context.Context, tenantID string, req request_models.ProductRequest) (*resp.ProductResponse, error) {
	tid, err := tenantUUID(tenantID)
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = "USD"
	}
	p := &db_models.ProductEmbedding{
		TenantID:    tid,
		SKU:         strings.TrimSpace(req.SKU),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Category:    req.Category,
		PriceMinor:  req.PriceMinor,
		Currency:    currency,
		Tags:        req.Tags,
	}
	p.Embedding, p.EmbeddingSource = s.embed(ctx, productText(p))

	if err := s.products.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	out := toProductResponse(p)
	return &out, nil
}

func (s *GrowthService) ListProducts(ctx context.Context, tenantID string) ([]resp.ProductResponse, error) {
	tid, err := tenantUUID(tenantID)
	if err != nil {
		return nil, err
	}
	rows, err := s.products.ListByTenant(ctx, tid)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	out := make([]resp.ProductResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toProductResponse(&rows[i]))
	}
	return out, nil
}

func (s *GrowthService) CrossSell(ctx context.Context, tenantID, customerID string) ([]doc_models.CrossSellOpportunity, error) {
	tid, err := tenantUUID(tenantID)
	if err != nil {
		return nil, err
	}
	c, err := s.customers.FindByID(ctx, tenantID, customerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if c == nil {
		return nil, utils.ErrCustomerNotFound
	}

	owned, err := s.products.FindByNames(ctx, tid, c.Products)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	source := s.preferredSource()
	exclude := make([]uuid.UUID, 0, len(owned))
	vectors := make([]pgvector.Vector, 0, len(owned))
	for _, p := range owned {
		exclude = append(exclude, p.ID)
		if p.EmbeddingSource == source {
			vectors = append(vectors, p.Embedding)
		}
	}
	query, ok := MeanVector(vectors)
	if !ok {
		query, source = s.embed(ctx, strings.Join(append([]string{c.Company}, c.Products...), " "))
	}

	candidates, err := s.products.Nearest(ctx, tid, query, source, exclude, crossSellCandidates)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	now := s.now().UTC()
	ops, err := s.pickWithModel(ctx, c, candidates, now)
	if err != nil {
		s.log.Info("cross-sell ranks by similarity", zap.String("customer_id", customerID), zap.Error(err))
		ops = RankBySimilarity(c, candidates, now)
	}
	for i := range ops {
		ops[i].ExpiresAt = now.Add(crossSellTTL)
	}

	if err := s.crossSell.Replace(ctx, tenantID, c.ID.Hex(), ops); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	return ops, nil
}

func (s *GrowthService) pickWithModel(ctx context.Context, c *doc_models.Customer, candidates []repositories.ProductMatch, now time.Time) ([]doc_models.CrossSellOpportunity, error) {
	if s.llm == nil {
		return nil, fmt.Errorf("%w: no model configured", utils.ErrUnexpectedBehaviorOfAI)
	}
	if len(candidates) == 0 {
		return []doc_models.CrossSellOpportunity{}, nil
	}

	var b strings.Builder
	b.WriteString(customerFacts(c, now))
	b.WriteString("\nCandidates:\n")
	byName := make(map[string]*repositories.ProductMatch, len(candidates))
	for i := range candidates {
		p := &candidates[i]
		byName[strings.ToLower(p.Name)] = p
		fmt.Fprintf(&b, "- %s (%s, %d %s): %s\n", p.Name, p.Category, p.PriceMinor, p.Currency, p.Description)
	}

	answer, err := s.llm.CompleteJSON(ctx, crossSellSystemPrompt, b.String())
	if err != nil {
		return nil, err
	}
	var out crossSellAnswer
	if err := utils.DecodeJSONAnswer(answer, &out); err != nil {
		return nil, err
	}

	ops := make([]doc_models.CrossSellOpportunity, 0, len(out.Recommendations))
	seen := map[string]bool{}
	for _, r := range out.Recommendations {
		key := strings.ToLower(strings.TrimSpace(r.Product))
		p, ok := byName[key]
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		confidence := round2(clamp(r.Confidence, 0, 1))
		ops = append(ops, newOpportunity(c, p, confidence, r.Reason, doc_models.SourceAI, now))
	}
	if len(ops) == 0 {
		return nil, fmt.Errorf("%w: no usable picks", utils.ErrUnexpectedBehaviorOfAI)
	}
	return ops, nil
}

// RankBySimilarity turns nearest-neighbour candidates into opportunities without the model.
func RankBySimilarity(c *doc_models.Customer, candidates []repositories.ProductMatch, now time.Time) []doc_models.CrossSellOpportunity {
	ops := make([]doc_models.CrossSellOpportunity, 0, len(candidates))
	for i := range candidates {
		p := &candidates[i]
		reason := "Similar to products this customer already uses"
		if len(c.Products) == 0 {
			reason = "Popular match for this customer's profile"
		}
		ops = append(ops, newOpportunity(c, p, round2(clamp(p.Similarity, 0, 1)), reason, doc_models.SourceFallback, now))
	}
	return ops
}

func newOpportunity(c *doc_models.Customer, p *repositories.ProductMatch, confidence float64, reason string, source doc_models.InsightSource, now time.Time) doc_models.CrossSellOpportunity {
	return doc_models.CrossSellOpportunity{
		TenantID:             c.TenantID,
		CustomerID:           c.ID.Hex(),
		ProductID:            p.ID.String(),
		ProductName:          p.Name,
		Confidence:           confidence,
		Reason:               reason,
		ExpectedRevenueMinor: int64(math.Round(float64(p.PriceMinor) * confidence)),
		Source:               source,
		CreatedAt:            now,
	}
}

// MeanVector averages equally sized vectors; ok is false when there is nothing to average.
func MeanVector(vectors []pgvector.Vector) (pgvector.Vector, bool) {
	var sum []float32
	n := 0
	for _, v := range vectors {
		s := v.Slice()
		if len(s) == 0 {
			continue
		}
		if sum == nil {
			sum = make([]float32, len(s))
		}
		if len(s) != len(sum) {
			continue
		}
		for i, x := range s {
			sum[i] += x
		}
		n++
	}
	if n == 0 {
		return pgvector.Vector{}, false
	}
	for i := range sum {
		sum[i] /= float32(n)
	}
	return pgvector.NewVector(sum), true
}

func (s *GrowthService) Opportunities(ctx context.Context, tenantID string, limit int64) ([]doc_models.CrossSellOpportunity, error) {
	ops, err := s.crossSell.ListActive(ctx, tenantID, s.now().UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	return ops, nil
}

func toProductResponse(p *db_models.ProductEmbedding) resp.ProductResponse {
	return resp.ProductResponse{
		ID:          p.ID.String(),
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		PriceMinor:  p.PriceMinor,
		Currency:    p.Currency,
		Tags:        p.Tags,
	}
}
