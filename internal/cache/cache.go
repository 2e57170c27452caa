package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache stores opaque values with a time-to-live. Implementations must be
// safe for concurrent use.
type Cache interface {
	// Get returns the value and true, or nil and false when the key is
	// absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores value under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// New returns a Redis-backed cache when redisAddr is set, otherwise an
// in-memory one.
func New(redisAddr string, logger *zap.Logger) Cache {
	if redisAddr != "" {
		logger.Info("using redis cache", zap.String("addr", redisAddr))
		return NewRedis(redis.NewClient(&redis.Options{Addr: redisAddr}), logger)
	}
	logger.Info("using in-memory cache")
	return NewMemory()
}
