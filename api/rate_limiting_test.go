package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"todoapi/core"
	"todoapi/service"
	"todoapi/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestRateLimiter_Memory(t *testing.T) {
	rl := NewRateLimiter(1, 3, nil, zap.NewNop().Sugar())
	defer rl.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow(ctx, "1.2.3.4"), "request %d", i)
	}
	assert.False(t, rl.Allow(ctx, "1.2.3.4"))

	// other clients have their own bucket
	assert.True(t, rl.Allow(ctx, "5.6.7.8"))
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil, zap.NewNop().Sugar())
	defer rl.Close()

	rl.Allow(context.Background(), "1.2.3.4")
	rl.evictIdle(time.Now())
	assert.Len(t, rl.limiters, 1)

	rl.evictIdle(time.Now().Add(limiterIdleTTL + time.Second))
	assert.Empty(t, rl.limiters)
}

func TestRateLimiter_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	counter := core.NewRedisCounter(mr.Addr(), "", 0, 5, zap.NewNop().Sugar())
	defer counter.Close()

	rl := NewRateLimiter(2, 2, counter, zap.NewNop().Sugar())
	defer rl.Close()
	assert.Equal(t, time.Second, rl.window)
	assert.Equal(t, int64(2), rl.limit)

	ctx := context.Background()
	assert.True(t, rl.Allow(ctx, "1.2.3.4"))
	assert.True(t, rl.Allow(ctx, "1.2.3.4"))
	assert.False(t, rl.Allow(ctx, "1.2.3.4"))

	// state lives in redis, not in memory
	assert.Empty(t, rl.limiters)
	assert.True(t, mr.Exists(core.GetRateLimitKey("1.2.3.4")))

	mr.FastForward(2 * time.Second)
	assert.True(t, rl.Allow(ctx, "1.2.3.4"))
}

func TestRateLimiter_RedisFailureFallsBackToMemory(t *testing.T) {
	mr := miniredis.RunT(t)
	counter := core.NewRedisCounter(mr.Addr(), "", 0, 5, zap.NewNop().Sugar())
	defer counter.Close()

	rl := NewRateLimiter(1, 1, counter, zap.NewNop().Sugar())
	defer rl.Close()

	mr.Close()

	ctx := context.Background()
	assert.True(t, rl.Allow(ctx, "1.2.3.4"))
	assert.False(t, rl.Allow(ctx, "1.2.3.4"))
	assert.Len(t, rl.limiters, 1)
}

func TestRateLimiter_RedisBreakerOpensAfterRepeatedFailures(t *testing.T) {
	mr := miniredis.RunT(t)
	counter := core.NewRedisCounter(mr.Addr(), "", 0, 5, zap.NewNop().Sugar())
	defer counter.Close()

	rl := NewRateLimiter(100, 100, counter, zap.NewNop().Sugar())
	defer rl.Close()
	require.NotNil(t, rl.breaker)

	mr.Close()

	ctx := context.Background()
	maxFailures := int(core.DefaultBreakerConfig().MaxFailures)
	for i := 0; i < maxFailures; i++ {
		assert.True(t, rl.Allow(ctx, "1.2.3.4"))
	}
	assert.Equal(t, core.BreakerOpen, rl.breaker.State())

	// while open, requests are limited in memory without touching Redis
	assert.True(t, rl.Allow(ctx, "1.2.3.4"))
	assert.Equal(t, core.BreakerOpen, rl.breaker.State())
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := newTestConfig()
	cfg.API.RateLimit.Enabled = true
	cfg.API.RateLimit.RequestsPerSecond = 1
	cfg.API.RateLimit.Burst = 2

	logger := zaptest.NewLogger(t).Sugar()
	api := NewAPI(service.NewTodoService(storage.NewMockTodoStorage(), logger), nil, cfg, nil, logger)
	t.Cleanup(func() { _ = api.Stop(context.Background()) })

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/todos", nil)
		req.RemoteAddr = "192.0.2.10:5555"
		rr := httptest.NewRecorder()
		api.Handler().ServeHTTP(rr, req)
		return rr
	}

	require.Equal(t, http.StatusOK, send().Code)
	require.Equal(t, http.StatusOK, send().Code)

	rr := send()
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "Too many requests", decodeMessage(t, rr))
	assert.Equal(t, "2", rr.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
}

func TestRateLimitMiddleware_AppliesToUnroutedRequests(t *testing.T) {
	cfg := newTestConfig()
	cfg.API.RateLimit.Enabled = true
	cfg.API.RateLimit.RequestsPerSecond = 1
	cfg.API.RateLimit.Burst = 1

	logger := zaptest.NewLogger(t).Sugar()
	api := NewAPI(service.NewTodoService(storage.NewMockTodoStorage(), logger), nil, cfg, nil, logger)
	t.Cleanup(func() { _ = api.Stop(context.Background()) })

	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPatch, "/todos", nil)
		req.RemoteAddr = "192.0.2.11:5555"
		rr := httptest.NewRecorder()
		api.Handler().ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	assert.Equal(t, http.StatusMethodNotAllowed, codes[0])
	assert.Contains(t, codes[1:], http.StatusTooManyRequests)
}

func TestRateLimiter_CloseIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil, zap.NewNop().Sugar())
	rl.Close()
	rl.Close()
}
