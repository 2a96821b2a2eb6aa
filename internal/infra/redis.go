package infra

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"customermind/pkg/config"
)

func InitRedis(ctx context.Context, cfg *config.Config, log *zap.Logger) *redis.Client {
	addr := strings.TrimPrefix(strings.TrimPrefix(cfg.Redis.Addr, "redis://"), "rediss://")

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Redis outages degrade caching and rate limiting only, so startup continues.
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis ping failed on initialization", zap.String("addr", addr), zap.Error(err))
	} else {
		log.Info("Redis connected", zap.String("addr", addr))
	}
	return client
}
