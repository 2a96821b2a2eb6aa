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

type CampaignStore interface {
	Indexer
	Create(ctx context.Context, c *doc_models.EmailCampaign) error
	FindByID(ctx context.Context, tenantID, id string) (*doc_models.EmailCampaign, error)
	List(ctx context.Context, tenantID string, limit, offset int64) ([]doc_models.EmailCampaign, int64, error)
	// DeleteDraft removes the campaign only while it is still a draft.
	DeleteDraft(ctx context.Context, tenantID, id string) (bool, error)
	// MarkSending moves a draft to sending; false when it was not a draft.
	MarkSending(ctx context.Context, tenantID string, id primitive.ObjectID, at time.Time) (bool, error)
	IncrementCounts(ctx context.Context, id primitive.ObjectID, sent, failed int, provider string) error
	Complete(ctx context.Context, id primitive.ObjectID, status doc_models.CampaignStatus, at time.Time) error

	InsertLog(ctx context.Context, l *doc_models.EmailLog) error
	ListLogs(ctx context.Context, tenantID string, campaignID primitive.ObjectID, limit int64) ([]doc_models.EmailLog, error)
}

type campaignStore struct {
	campaigns *mongo.Collection
	logs      *mongo.Collection
}

func NewCampaignStore(db *mongo.Database) CampaignStore {
	return &campaignStore{
		campaigns: db.Collection("email_campaigns"),
		logs:      db.Collection("email_logs"),
	}
}

func (s *campaignStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.campaigns.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}); err != nil {
		return err
	}
	_, err := s.logs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "campaign_id", Value: 1}, {Key: "sent_at", Value: -1}}},
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "sent_at", Value: -1}}},
	})
	return err
}

func (s *campaignStore) Create(ctx context.Context, c *doc_models.EmailCampaign) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.campaigns.InsertOne(ctx, c)
	return err
}

func (s *campaignStore) FindByID(ctx context.Context, tenantID, id string) (*doc_models.EmailCampaign, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, nil
	}
	var c doc_models.EmailCampaign
	err := s.campaigns.FindOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID}).Decode(&c)
	if isNoDocuments(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *campaignStore) List(ctx context.Context, tenantID string, limit, offset int64) ([]doc_models.EmailCampaign, int64, error) {
	query := bson.M{"tenant_id": tenantID}
	total, err := s.campaigns.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 50
	}

	// Recipient lists can be large; listing omits them.
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset).
		SetProjection(bson.M{"recipients": 0, "html_content": 0, "text_content": 0})

	cursor, err := s.campaigns.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	out := []doc_models.EmailCampaign{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *campaignStore) DeleteDraft(ctx context.Context, tenantID, id string) (bool, error) {
	oid, ok := objectID(id)
	if !ok {
		return false, nil
	}
	res, err := s.campaigns.DeleteOne(ctx, bson.M{
		"_id":       oid,
		"tenant_id": tenantID,
		"status":    doc_models.CampaignDraft,
	})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (s *campaignStore) MarkSending(ctx context.Context, tenantID string, id primitive.ObjectID, at time.Time) (bool, error) {
	res, err := s.campaigns.UpdateOne(ctx,
		bson.M{"_id": id, "tenant_id": tenantID, "status": doc_models.CampaignDraft},
		bson.M{"$set": bson.M{
			"status":       doc_models.CampaignSending,
			"started_at":   at,
			"sent_count":   0,
			"failed_count": 0,
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (s *campaignStore) IncrementCounts(ctx context.Context, id primitive.ObjectID, sent, failed int, provider string) error {
	update := bson.M{"$inc": bson.M{"sent_count": sent, "failed_count": failed}}
	if provider != "" {
		update["$set"] = bson.M{"provider_used": provider}
	}
	_, err := s.campaigns.UpdateByID(ctx, id, update)
	return err
}

func (s *campaignStore) Complete(ctx context.Context, id primitive.ObjectID, status doc_models.CampaignStatus, at time.Time) error {
	_, err := s.campaigns.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":       status,
		"completed_at": at,
	}})
	return err
}

func (s *campaignStore) InsertLog(ctx context.Context, l *doc_models.EmailLog) error {
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	if l.SentAt.IsZero() {
		l.SentAt = time.Now().UTC()
	}
	_, err := s.logs.InsertOne(ctx, l)
	return err
}

func (s *campaignStore) ListLogs(ctx context.Context, tenantID string, campaignID primitive.ObjectID, limit int64) ([]doc_models.EmailLog, error) {
	if limit <= 0 {
		limit = 500
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "sent_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.logs.Find(ctx, bson.M{"tenant_id": tenantID, "campaign_id": campaignID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []doc_models.EmailLog{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
