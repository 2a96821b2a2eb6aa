package infra

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"customermind/pkg/config"
)

func InitMongo(ctx context.Context, cfg *config.Config, log *zap.Logger) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	log.Info("MongoDB connected", zap.String("database", cfg.Mongo.Database))
	return client, nil
}

func CloseMongo(ctx context.Context, client *mongo.Client, log *zap.Logger) {
	if err := client.Disconnect(ctx); err != nil {
		log.Error("Error disconnecting MongoDB", zap.Error(err))
		return
	}
	log.Info("MongoDB connection closed")
}
