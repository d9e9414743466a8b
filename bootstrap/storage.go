package bootstrap

import (
	"context"
	"fmt"
	"os"

	"todoapi/config"
	"todoapi/core"
	"todoapi/storage"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// InitMongoDB connects to MongoDB and pings it. There is no retry: a store that
// does not answer within the connect timeout aborts startup.
func InitMongoDB(cfg *config.Config, sugar *zap.SugaredLogger) (*storage.MongoDB, error) {
	addr := MongoHosts(cfg.MongoDB.URI)
	sugar.Infow("Connecting to MongoDB",
		"hosts", addr,
		"timeout", cfg.MongoDB.ConnectTimeout)

	mongoDB, err := storage.NewMongoDB(
		cfg.MongoDB.URI,
		cfg.MongoDB.Database,
		cfg.MongoDB.MaxPoolSize,
		cfg.MongoDB.ConnectTimeout,
		sugar,
	)
	if err != nil {
		errMsg := ClassifyConnectionError(err, addr)
		fmt.Fprintf(os.Stderr, "\n========================================\n")
		fmt.Fprintf(os.Stderr, "FATAL: MongoDB Connection Failed\n")
		fmt.Fprintf(os.Stderr, "========================================\n")
		fmt.Fprintf(os.Stderr, "%s\n", errMsg)
		fmt.Fprintf(os.Stderr, "========================================\n\n")
		sugar.Errorw("MongoDB connection failed", "hosts", addr, "error", err)
		return nil, err
	}

	return mongoDB, nil
}

// InitTodoStorage builds the todo collection accessor on an open connection.
func InitTodoStorage(mongoDB *storage.MongoDB, cfg *config.Config, tracer trace.Tracer, sugar *zap.SugaredLogger) *storage.TodoStorage {
	todoStorage := storage.NewTodoStorage(mongoDB, cfg.MongoDB.Collection, tracer, sugar)
	sugar.Infow("Todo storage ready", "collection", cfg.MongoDB.Collection)
	return todoStorage
}

// InitRedisCounter connects the shared rate limit counter. It returns nil when
// Redis is disabled or unreachable; the API then limits in memory.
func InitRedisCounter(ctx context.Context, cfg *config.Config, sugar *zap.SugaredLogger) *core.RedisCounter {
	rl := cfg.API.RateLimit
	if !rl.Enabled || !rl.Redis.Enabled {
		return nil
	}

	counter := core.NewRedisCounter(rl.Redis.Addr, rl.Redis.Password, rl.Redis.DB, rl.Redis.PoolSize, sugar)
	if err := counter.Ping(ctx); err != nil {
		sugar.Warnw("Redis unreachable, rate limiting falls back to memory",
			"addr", rl.Redis.Addr,
			"error", err)
		_ = counter.Close()
		return nil
	}

	sugar.Infow("Connected to Redis for rate limiting", "addr", rl.Redis.Addr)
	return counter
}
