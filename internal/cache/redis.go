package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisTimeout = 500 * time.Millisecond

// Redis adapts a go-redis client to Cache. Errors are logged and reported
// as misses; the cache is never authoritative.
type Redis struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedis(client *redis.Client, logger *zap.Logger) *Redis {
	return &Redis{client: client, logger: logger}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	v, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("redis get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return v, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.logger.Warn("redis set failed", zap.String("key", key), zap.Error(err))
	}
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Compile-time interface verification
var _ Cache = (*Redis)(nil)
