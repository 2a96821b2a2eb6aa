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

type AuditStore interface {
	Indexer
	Log(ctx context.Context, event doc_models.AuditEvent) error
	Query(ctx context.Context, filter doc_models.AuditFilter) ([]doc_models.AuditEvent, int64, error)
}

type auditStore struct {
	c *mongo.Collection
}

func NewAuditStore(db *mongo.Database) AuditStore {
	return &auditStore{c: db.Collection("audit_events")}
}

func (s *auditStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// Query by time range (most recent first)
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "actor_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

func (s *auditStore) Log(ctx context.Context, event doc_models.AuditEvent) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

func (s *auditStore) Query(ctx context.Context, filter doc_models.AuditFilter) ([]doc_models.AuditEvent, int64, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.EventType != "" {
		query["event_type"] = filter.EventType
	}
	if filter.ActorID != "" {
		query["actor_id"] = filter.ActorID
	}
	if filter.SubjectID != "" {
		query["subject_id"] = filter.SubjectID
	}
	if filter.Start != nil || filter.End != nil {
		timeQuery := bson.M{}
		if filter.Start != nil {
			timeQuery["$gte"] = *filter.Start
		}
		if filter.End != nil {
			timeQuery["$lte"] = *filter.End
		}
		query["timestamp"] = timeQuery
	}

	total, err := s.c.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	events := []doc_models.AuditEvent{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}
