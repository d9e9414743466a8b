package api

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"todoapi/core"
	"todoapi/metrics"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL         = 10 * time.Minute
	limiterCleanupInterval = time.Minute
)

// rateLimiterEntry holds a rate limiter with last seen time
type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per client key. With a Redis counter the limit
// is shared across instances as a fixed window; otherwise each client gets an
// in-memory token bucket. Redis failures fall back to memory, and repeated
// failures suspend Redis calls for the breaker cooldown.
type RateLimiter struct {
	rps       float64
	burst     int
	window    time.Duration
	limit     int64
	limiters  map[string]*rateLimiterEntry
	mu        sync.Mutex
	redis     *core.RedisCounter
	breaker   *core.CircuitBreaker
	logger    *zap.SugaredLogger
	stopCh    chan struct{}
	stopOnce  sync.Once
	cleanupWg sync.WaitGroup
}

// NewRateLimiter creates a rate limiter allowing rps requests per second with
// the given burst. redis may be nil.
func NewRateLimiter(rps float64, burst int, redis *core.RedisCounter, logger *zap.SugaredLogger) *RateLimiter {
	// Fixed window with the same average rate and burst as the token bucket.
	// Redis expiry has one second resolution.
	window := time.Duration(float64(burst) / rps * float64(time.Second))
	if window < time.Second {
		window = time.Second
	}
	limit := int64(math.Max(float64(burst), math.Floor(rps*window.Seconds())))

	rl := &RateLimiter{
		rps:      rps,
		burst:    burst,
		window:   window,
		limit:    limit,
		limiters: make(map[string]*rateLimiterEntry),
		redis:    redis,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}

	if redis != nil {
		// DefaultBreakerConfig is always valid
		rl.breaker, _ = core.NewCircuitBreaker(core.DefaultBreakerConfig())
	}

	rl.cleanupWg.Add(1)
	go rl.cleanup()

	return rl
}

// Allow checks if a request from the given key is allowed
func (rl *RateLimiter) Allow(ctx context.Context, key string) bool {
	if rl.redis != nil {
		return rl.allowRedis(ctx, key)
	}
	return rl.allowMemory(key)
}

// allowMemory checks rate limit using in-memory storage
func (rl *RateLimiter) allowMemory(key string) bool {
	rl.mu.Lock()
	entry, exists := rl.limiters[key]
	if !exists {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(rate.Limit(rl.rps), rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = time.Now()
	// Capture limiter reference while holding lock; cleanup may delete the entry
	limiter := entry.limiter
	rl.mu.Unlock()

	allowed := limiter.Allow()
	if !allowed {
		metrics.RateLimitRejections.WithLabelValues("memory").Inc()
	}
	return allowed
}

// allowRedis checks rate limit using Redis for distributed state
func (rl *RateLimiter) allowRedis(ctx context.Context, key string) bool {
	if rl.breaker.Allow() != nil {
		return rl.allowMemory(key)
	}

	count, err := rl.redis.Incr(ctx, core.GetRateLimitKey(key), rl.window)
	if err != nil {
		rl.logger.Warnw("Redis rate limit check failed, falling back to memory", "key", key, "error", err)
		if rl.breaker.RecordFailure() == core.BreakerOpen {
			rl.logger.Warnw("Redis rate limiting suspended", "cooldown", core.DefaultBreakerConfig().Cooldown)
		}
		return rl.allowMemory(key)
	}
	if prev := rl.breaker.RecordSuccess(); prev != core.BreakerClosed {
		rl.logger.Info("Redis rate limiting resumed")
	}

	if count > rl.limit {
		metrics.RateLimitRejections.WithLabelValues("redis").Inc()
		return false
	}
	return true
}

// cleanup periodically removes inactive in-memory limiters
func (rl *RateLimiter) cleanup() {
	defer rl.cleanupWg.Done()
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) evictIdle(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(rl.limiters, key)
		}
	}
}

// Close stops the rate limiter cleanup goroutine
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
	rl.cleanupWg.Wait()
}

// rateLimitMiddleware provides rate limiting per client IP
func (a *API) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.rateLimiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		ip := getRealIP(r, a.config.API.TrustProxy, a.config.API.TrustedProxyNetworks)
		if !a.rateLimiter.Allow(r.Context(), ip) {
			a.writeRateLimitResponse(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeRateLimitResponse writes a 429 Too Many Requests response with rate limit headers
func (a *API) writeRateLimitResponse(w http.ResponseWriter) {
	w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(a.rateLimiter.limit, 10))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.Header().Set("Retry-After", fmt.Sprintf("%d", int(math.Ceil(a.rateLimiter.window.Seconds()))))
	a.writeMessage(w, http.StatusTooManyRequests, "Too many requests")
}
