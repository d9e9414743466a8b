package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"todoapi/api"
	"todoapi/config"
	"todoapi/core"
	"todoapi/docs"
	"todoapi/service"
	"todoapi/storage"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// DefaultShutdownTimeout bounds the HTTP server drain when api.shutdown_timeout is unset
const DefaultShutdownTimeout = 10 * time.Second

// App represents the todo service with all its components.
type App struct {
	// Configuration
	Config *config.Config
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger

	// Storage
	MongoDB     *storage.MongoDB
	TodoStorage *storage.TodoStorage
	Redis       *core.RedisCounter

	// Services
	TodoService    *service.TodoServiceImpl
	TracerProvider *sdktrace.TracerProvider
	APIServer      *api.API

	// Lifecycle
	listener  net.Listener
	serviceWg sync.WaitGroup
	serverErr chan error
	closeOnce sync.Once
}

// NewApp creates a new application instance and initializes all components.
// It fails, without opening the HTTP listener, when the store cannot be reached.
func NewApp(ctx context.Context) (*App, error) {
	logger, sugar, err := InitLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	sugar.Info("Todo API starting...")

	cfg, err := InitConfig(sugar)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:    cfg,
		Logger:    logger,
		Sugar:     sugar,
		serverErr: make(chan error, 1),
	}

	tp, tracer := InitTracing(cfg, sugar)
	app.TracerProvider = tp

	mongoDB, err := InitMongoDB(cfg, sugar)
	if err != nil {
		app.shutdownTracing()
		return nil, err
	}
	app.MongoDB = mongoDB

	app.TodoStorage = InitTodoStorage(mongoDB, cfg, tracer, sugar)
	app.TodoService = service.NewTodoService(app.TodoStorage, sugar)
	app.Redis = InitRedisCounter(ctx, cfg, sugar)

	docs.SwaggerInfo.Host = "localhost:" + strconv.Itoa(cfg.API.Port)
	app.APIServer = api.NewAPI(app.TodoService, mongoDB, cfg, app.Redis, sugar)

	return app, nil
}

// Start opens the listener and serves the API in the background.
func (a *App) Start(ctx context.Context) error {
	if a.APIServer == nil {
		return errors.New("API server is not initialized")
	}
	if a.serverErr == nil {
		a.serverErr = make(chan error, 1)
	}

	addr := a.Config.Addr()
	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	a.listener = listener

	a.serviceWg.Add(1)
	go func() {
		defer a.serviceWg.Done()
		defer func() {
			if r := recover(); r != nil {
				a.Sugar.Errorw("API server panicked", "panic", r)
			}
		}()
		if err := a.APIServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Sugar.Errorw("API server failed", "error", err)
			a.serverErr <- err
		}
	}()

	a.Sugar.Infow("Server is running", "addr", listener.Addr().String())
	return nil
}

// Addr returns the address the API is listening on, or nil before Start.
func (a *App) Addr() net.Addr {
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}

// WaitForShutdown blocks until a shutdown signal is received or the server
// stops on its own. The latter is returned as an error.
func (a *App) WaitForShutdown() error {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)

	select {
	case sig := <-c:
		a.Sugar.Infow("Shutdown signal received", "signal", sig.String())
		return nil
	case err := <-a.serverErr:
		return fmt.Errorf("API server stopped: %w", err)
	}
}

// Shutdown gracefully shuts down all components. It is safe to call more than once.
func (a *App) Shutdown() {
	a.closeOnce.Do(a.shutdown)
}

func (a *App) shutdown() {
	a.Sugar.Info("Shutting down...")

	timeout := a.Config.API.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}

	// Phase 1 - Stop accepting requests and drain in-flight ones
	a.Sugar.Info("Phase 1: Stopping API server...")
	if a.APIServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		if err := a.APIServer.Stop(ctx); err != nil {
			a.Sugar.Errorw("Failed to stop API server", "error", err)
		}
		cancel()
	}
	a.serviceWg.Wait()

	// Phase 2 - Flush spans
	a.Sugar.Info("Phase 2: Flushing traces...")
	a.shutdownTracing()

	// Phase 3 - Close connections
	a.Sugar.Info("Phase 3: Closing database connections...")
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Sugar.Errorw("Failed to close Redis connection", "error", err)
		}
	}
	if a.MongoDB != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		if err := a.MongoDB.Close(ctx); err != nil {
			a.Sugar.Errorw("Failed to close MongoDB connection", "error", err)
		}
		cancel()
	}

	a.Sugar.Info("Shutdown complete")
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
}

func (a *App) shutdownTracing() {
	if a.TracerProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.TracerProvider.Shutdown(ctx); err != nil {
		a.Sugar.Errorw("Failed to shut down tracer provider", "error", err)
	}
}
