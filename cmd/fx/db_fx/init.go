package db_fx

import (
	"context"

	"customermind/internal/infra"
	"customermind/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Provide(
	provideDB, provideMongoClient, provideMongoDatabase, provideRedis)

func provideDB(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := infra.InitPostgresql(cfg, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			infra.ClosePostgresql(db, log)
			return nil
		},
	})
	return db, nil
}

func provideMongoClient(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*mongo.Client, error) {
	client, err := infra.InitMongo(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			infra.CloseMongo(ctx, client, log)
			return nil
		},
	})
	return client, nil
}

func provideMongoDatabase(client *mongo.Client, cfg *config.Config) *mongo.Database {
	return client.Database(cfg.Mongo.Database)
}

// provideRedis returns nil when Redis is disabled.
func provideRedis(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	client := infra.InitRedis(context.Background(), cfg, log)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client
}
