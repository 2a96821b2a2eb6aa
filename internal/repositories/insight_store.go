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

type AnalysisStore interface {
	Indexer
	Insert(ctx context.Context, a *doc_models.CustomerAnalysis) error
	Latest(ctx context.Context, tenantID string, limit int64) ([]doc_models.CustomerAnalysis, error)
}

type CrossSellStore interface {
	Indexer
	// Replace deletes the customer's previous opportunities and stores ops.
	Replace(ctx context.Context, tenantID, customerID string, ops []doc_models.CrossSellOpportunity) error
	ListActive(ctx context.Context, tenantID string, now time.Time, limit int64) ([]doc_models.CrossSellOpportunity, error)
}

type HealthStore interface {
	Indexer
	InsertScore(ctx context.Context, s *doc_models.CustomerHealthScore) error
	// LatestScores returns the newest unexpired score per customer.
	LatestScores(ctx context.Context, tenantID string, now time.Time) ([]doc_models.CustomerHealthScore, error)
	InsertAlert(ctx context.Context, a *doc_models.HealthAlert) error
	ListAlerts(ctx context.Context, tenantID string, unacknowledgedOnly bool, limit int64) ([]doc_models.HealthAlert, error)
	AcknowledgeAlert(ctx context.Context, tenantID, alertID, by string, at time.Time) (*doc_models.HealthAlert, error)
}

type analysisStore struct {
	c *mongo.Collection
}

func NewAnalysisStore(db *mongo.Database) AnalysisStore {
	return &analysisStore{c: db.Collection("customer_analyses")}
}

func (s *analysisStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "customer_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

func (s *analysisStore) Insert(ctx context.Context, a *doc_models.CustomerAnalysis) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	_, err := s.c.InsertOne(ctx, a)
	return err
}

func (s *analysisStore) Latest(ctx context.Context, tenantID string, limit int64) ([]doc_models.CustomerAnalysis, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	cursor, err := s.c.Find(ctx, bson.M{"tenant_id": tenantID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []doc_models.CustomerAnalysis{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type crossSellStore struct {
	c *mongo.Collection
}

func NewCrossSellStore(db *mongo.Database) CrossSellStore {
	return &crossSellStore{c: db.Collection("cross_sell_opportunities")}
}

func (s *crossSellStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "customer_id", Value: 1}}},
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "confidence", Value: -1}}},
		// TTL: documents are removed once expires_at passes.
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
	return err
}

func (s *crossSellStore) Replace(ctx context.Context, tenantID, customerID string, ops []doc_models.CrossSellOpportunity) error {
	if _, err := s.c.DeleteMany(ctx, bson.M{"tenant_id": tenantID, "customer_id": customerID}); err != nil {
		return err
	}
	if len(ops) == 0 {
		return nil
	}
	docs := make([]interface{}, len(ops))
	for i := range ops {
		if ops[i].ID.IsZero() {
			ops[i].ID = primitive.NewObjectID()
		}
		docs[i] = ops[i]
	}
	_, err := s.c.InsertMany(ctx, docs)
	return err
}

func (s *crossSellStore) ListActive(ctx context.Context, tenantID string, now time.Time, limit int64) ([]doc_models.CrossSellOpportunity, error) {
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "confidence", Value: -1}}).
		SetLimit(limit)

	// The TTL monitor runs about once a minute, so expired documents are filtered here too.
	cursor, err := s.c.Find(ctx, bson.M{"tenant_id": tenantID, "expires_at": bson.M{"$gt": now}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []doc_models.CrossSellOpportunity{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type healthStore struct {
	scores *mongo.Collection
	alerts *mongo.Collection
}

func NewHealthStore(db *mongo.Database) HealthStore {
	return &healthStore{
		scores: db.Collection("customer_health_scores"),
		alerts: db.Collection("health_alerts"),
	}
}

func (s *healthStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.scores.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "customer_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}); err != nil {
		return err
	}
	_, err := s.alerts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "acknowledged", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

func (s *healthStore) InsertScore(ctx context.Context, hs *doc_models.CustomerHealthScore) error {
	if hs.ID.IsZero() {
		hs.ID = primitive.NewObjectID()
	}
	_, err := s.scores.InsertOne(ctx, hs)
	return err
}

func (s *healthStore) LatestScores(ctx context.Context, tenantID string, now time.Time) ([]doc_models.CustomerHealthScore, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"tenant_id": tenantID, "expires_at": bson.M{"$gt": now}}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
		{{Key: "$group", Value: bson.M{"_id": "$customer_id", "doc": bson.M{"$first": "$$ROOT"}}}},
		{{Key: "$replaceRoot", Value: bson.M{"newRoot": "$doc"}}},
		{{Key: "$sort", Value: bson.D{{Key: "score", Value: 1}}}},
	}
	cursor, err := s.scores.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []doc_models.CustomerHealthScore{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *healthStore) InsertAlert(ctx context.Context, a *doc_models.HealthAlert) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	_, err := s.alerts.InsertOne(ctx, a)
	return err
}

func (s *healthStore) ListAlerts(ctx context.Context, tenantID string, unacknowledgedOnly bool, limit int64) ([]doc_models.HealthAlert, error) {
	query := bson.M{"tenant_id": tenantID}
	if unacknowledgedOnly {
		query["acknowledged"] = false
	}
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.alerts.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []doc_models.HealthAlert{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *healthStore) AcknowledgeAlert(ctx context.Context, tenantID, alertID, by string, at time.Time) (*doc_models.HealthAlert, error) {
	oid, ok := objectID(alertID)
	if !ok {
		return nil, nil
	}
	var a doc_models.HealthAlert
	err := s.alerts.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "tenant_id": tenantID},
		bson.M{"$set": bson.M{
			"acknowledged":    true,
			"acknowledged_by": by,
			"acknowledged_at": at,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if isNoDocuments(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
