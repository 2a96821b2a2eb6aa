package repositories

import (
	"context"
	"time"

	"customermind/internal/models/doc_models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CustomerStore interface {
	Indexer
	Create(ctx context.Context, c *doc_models.Customer) error
	InsertMany(ctx context.Context, customers []doc_models.Customer) error
	FindByID(ctx context.Context, tenantID, id string) (*doc_models.Customer, error)
	List(ctx context.Context, tenantID string, f CustomerFilter) ([]doc_models.Customer, int64, error)
	ListAll(ctx context.Context, tenantID string) ([]doc_models.Customer, error)
	Update(ctx context.Context, c *doc_models.Customer) error
	Delete(ctx context.Context, tenantID, id string) (bool, error)
	Count(ctx context.Context, tenantID string) (int64, error)
	// UpsertExternal inserts or refreshes a CRM-sourced customer keyed by external id.
	UpsertExternal(ctx context.Context, c *doc_models.Customer) (bool, error)
	HasExternal(ctx context.Context, tenantID, externalID string) (bool, error)
	Tenants(ctx context.Context) ([]string, error)
}

type CustomerFilter struct {
	Search string
	Source doc_models.CustomerSource
	Limit  int64
	Offset int64
}

type customerStore struct {
	c *mongo.Collection
}

func NewCustomerStore(db *mongo.Database) CustomerStore {
	return &customerStore{c: db.Collection("customers")}
}

func (s *customerStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "email", Value: 1}}},
		{
			Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "external_id", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"external_id": bson.M{"$gt": ""}}),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

func (s *customerStore) Create(ctx context.Context, c *doc_models.Customer) error {
	now := time.Now().UTC()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, c)
	return err
}

func (s *customerStore) InsertMany(ctx context.Context, customers []doc_models.Customer) error {
	if len(customers) == 0 {
		return nil
	}
	docs := make([]interface{}, len(customers))
	for i := range customers {
		docs[i] = customers[i]
	}
	_, err := s.c.InsertMany(ctx, docs)
	return err
}

func (s *customerStore) FindByID(ctx context.Context, tenantID, id string) (*doc_models.Customer, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, nil
	}
	var c doc_models.Customer
	err := s.c.FindOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID}).Decode(&c)
	if isNoDocuments(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *customerStore) List(ctx context.Context, tenantID string, f CustomerFilter) ([]doc_models.Customer, int64, error) {
	query := bson.M{"tenant_id": tenantID}
	if f.Search != "" {
		re := containsPattern(f.Search)
		query["$or"] = bson.A{
			bson.M{"name": re},
			bson.M{"email": re},
			bson.M{"company": re},
		}
	}
	if f.Source != "" {
		query["source"] = f.Source
	}

	total, err := s.c.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(f.Offset)

	cursor, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	customers := []doc_models.Customer{}
	if err := cursor.All(ctx, &customers); err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

func (s *customerStore) ListAll(ctx context.Context, tenantID string) ([]doc_models.Customer, error) {
	cursor, err := s.c.Find(ctx, bson.M{"tenant_id": tenantID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	customers := []doc_models.Customer{}
	if err := cursor.All(ctx, &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

func (s *customerStore) Update(ctx context.Context, c *doc_models.Customer) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": c.ID, "tenant_id": c.TenantID}, c)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *customerStore) Delete(ctx context.Context, tenantID, id string) (bool, error) {
	oid, ok := objectID(id)
	if !ok {
		return false, nil
	}
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (s *customerStore) Count(ctx context.Context, tenantID string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"tenant_id": tenantID})
}

func (s *customerStore) HasExternal(ctx context.Context, tenantID, externalID string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"tenant_id": tenantID, "external_id": externalID}, options.Count().SetLimit(1))
	return n > 0, err
}

func (s *customerStore) UpsertExternal(ctx context.Context, c *doc_models.Customer) (bool, error) {
	now := time.Now().UTC()
	filter := bson.M{"tenant_id": c.TenantID, "external_id": c.ExternalID}
	update := bson.M{
		"$set": bson.M{
			"name":              c.Name,
			"email":             c.Email,
			"company":           c.Company,
			"total_spent_minor": c.TotalSpentMinor,
			"order_count":       c.OrderCount,
			"first_purchase_at": c.FirstPurchaseAt,
			"last_purchase_at":  c.LastPurchaseAt,
			"source":            c.Source,
			"updated_at":        now,
		},
		"$setOnInsert": bson.M{
			"tenant_id":        c.TenantID,
			"external_id":      c.ExternalID,
			"support_tickets":  0,
			"engagement_score": c.EngagementScore,
			"is_demo":          false,
			"created_at":       now,
		},
	}
	res, err := s.c.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

func (s *customerStore) Tenants(ctx context.Context) ([]string, error) {
	values, err := s.c.Distinct(ctx, "tenant_id", bson.M{})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			out = append(out, id)
		}
	}
	return out, nil
}
