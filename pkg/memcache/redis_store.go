package mem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	resetTokenPrefix = "cm:reset:"
	rateLimitPrefix  = "cm:rl:"
	cachePrefix      = "cm:cache:"
)

// Cache stores JSON-encoded values with a TTL.
type Cache interface {
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

// RateLimiter counts hits per key in a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Set(ctx context.Context, token string, accountEmail string, ttl time.Duration) error {
	return s.client.Set(ctx, resetTokenPrefix+token, accountEmail, ttl).Err()
}

func (s *RedisStore) Consume(ctx context.Context, token string) (string, error) {
	email, err := s.client.GetDel(ctx, resetTokenPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("consume reset token: %w", err)
	}
	return email, nil
}

func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	k := rateLimitPrefix + key
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("rate limit: %w", err)
	}
	return incr.Val() <= int64(limit), nil
}

func (s *RedisStore) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, err := s.client.Get(ctx, cachePrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisStore) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, cachePrefix+key, raw, ttl).Err()
}
