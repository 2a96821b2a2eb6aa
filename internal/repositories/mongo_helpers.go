package repositories

import (
	"context"
	"errors"
	"regexp"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Indexer is implemented by every Mongo store.
type Indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// EnsureIndexes creates indexes for all stores, stopping at the first failure.
func EnsureIndexes(ctx context.Context, stores ...Indexer) error {
	for _, s := range stores {
		if err := s.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}

// objectID parses hex ids; ok is false for malformed input so callers can
// report not found instead of a server error.
func objectID(hex string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(hex)
	return id, err == nil
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func containsPattern(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}
