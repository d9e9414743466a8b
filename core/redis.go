package core

import (
	"context"
	"fmt"
	"time"

	"todoapi/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitKeyPrefix namespaces the request counters kept in Redis
const RateLimitKeyPrefix = "ratelimit:"

// RedisCounter keeps fixed-window request counters in Redis so that several
// API instances share one limit per client.
type RedisCounter struct {
	client *redis.Client
	logger *zap.SugaredLogger
}

// NewRedisCounter creates a new Redis counter instance
func NewRedisCounter(addr, password string, db, poolSize int, logger *zap.SugaredLogger) *RedisCounter {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: poolSize,
	})

	return &RedisCounter{
		client: client,
		logger: logger,
	}
}

// Ping tests the Redis connection
func (rc *RedisCounter) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (rc *RedisCounter) Close() error {
	return rc.client.Close()
}

// Incr increments the counter for key and returns the new value. The window
// starts on the first hit; the key expires when it ends. A counter found
// without an expiry gets one on the next hit.
func (rc *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := rc.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		metrics.RedisErrors.WithLabelValues("incr").Inc()
		return 0, fmt.Errorf("failed to increment %s: %w", key, err)
	}

	count := incr.Val()
	// TTL reports -1 for a key that exists without an expiry
	if ttl.Val() < 0 {
		if err := rc.client.Expire(ctx, key, window).Err(); err != nil {
			metrics.RedisErrors.WithLabelValues("expire").Inc()
			rc.logger.Warnw("Failed to set counter expiry", "key", key, "count", count, "error", err)
			return count, fmt.Errorf("failed to set expiry on %s: %w", key, err)
		}
	}

	return count, nil
}

// GetRateLimitKey generates a counter key for a client
func GetRateLimitKey(client string) string {
	return RateLimitKeyPrefix + client
}
