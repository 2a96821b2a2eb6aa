package memcache_fx

import (
	"customermind/pkg/config"
	mem "customermind/pkg/memcache"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Provide(
	provideResetTokens, provideCache, provideRateLimiter)

// With Redis disabled the process keeps tokens, cache entries and
// rate-limit windows in memory, which only suits a single instance.
func provideResetTokens(cfg *config.Config, client *redis.Client, log *zap.Logger) mem.ResetTokenStore {
	if !cfg.Redis.Enabled {
		log.Warn("redis disabled; reset tokens kept in memory")
		return mem.NewResetTokens()
	}
	return mem.NewRedisStore(client)
}

func provideCache(cfg *config.Config, client *redis.Client) mem.Cache {
	if !cfg.Redis.Enabled {
		return mem.NewMemoryStore()
	}
	return mem.NewRedisStore(client)
}

func provideRateLimiter(cfg *config.Config, client *redis.Client) mem.RateLimiter {
	if !cfg.Redis.Enabled {
		return mem.NewMemoryStore()
	}
	return mem.NewRedisStore(client)
}
