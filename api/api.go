// Package api Todo API
//
//	@title			Todo API
//	@version		1.0
//	@description	A simple CRUD API for managing todo items stored in MongoDB
//
// @license.name	MIT
// @license.url	https://opensource.org/licenses/MIT
//
// @host		localhost:8080
// @BasePath	/
package api

import (
	"context"
	"net"
	"net/http"

	"todoapi/config"
	"todoapi/core"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// API holds the API server
type API struct {
	router      *mux.Router
	server      *http.Server
	todoService core.TodoService
	health      HealthChecker
	config      *config.Config
	logger      *zap.SugaredLogger
	rateLimiter *RateLimiter
}

// NewAPI creates a new API server. health and redis may be nil; a nil redis
// counter keeps rate limit state in memory.
func NewAPI(todoService core.TodoService, health HealthChecker, cfg *config.Config, redis *core.RedisCounter, logger *zap.SugaredLogger) *API {
	if todoService == nil {
		panic("todoService is required")
	}
	if cfg == nil {
		panic("config is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	api := &API{
		router:      mux.NewRouter(),
		todoService: todoService,
		health:      health,
		config:      cfg,
		logger:      logger,
	}

	if cfg.API.RateLimit.Enabled {
		api.rateLimiter = NewRateLimiter(cfg.API.RateLimit.RequestsPerSecond, cfg.API.RateLimit.Burst, redis, logger)
	}

	api.setupRoutes()
	return api
}

// setupRoutes sets up the API routes
func (a *API) setupRoutes() {
	a.router.Use(a.metricsMiddleware)

	// Registered with and without the trailing slash
	for _, path := range []string{"/todos", "/todos/"} {
		a.router.HandleFunc(path, a.getTodos).Methods("GET")
		a.router.HandleFunc(path, a.createTodo).Methods("POST")
	}
	a.router.HandleFunc("/todos/{id}", a.getTodo).Methods("GET")
	a.router.HandleFunc("/todos/{id}", a.updateTodo).Methods("PUT")
	a.router.HandleFunc("/todos/{id}", a.deleteTodo).Methods("DELETE")

	a.router.HandleFunc("/health", a.healthCheck).Methods("GET")
	a.router.Handle("/metrics", promhttp.Handler())

	// Swagger UI
	a.router.HandleFunc("/swagger", a.swaggerRedirect).Methods("GET")
	a.router.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	// router.Use does not reach these, so they are wrapped directly
	a.router.NotFoundHandler = a.metricsMiddleware(http.HandlerFunc(a.notFound))
	a.router.MethodNotAllowedHandler = a.metricsMiddleware(http.HandlerFunc(a.methodNotAllowed))
}

// Handler returns the router wrapped in the request-scoped middleware chain
func (a *API) Handler() http.Handler {
	return a.requestIDMiddleware(a.errorRecoveryMiddleware(a.corsMiddleware(a.rateLimitMiddleware(a.router))))
}

// Serve serves on an existing listener
func (a *API) Serve(listener net.Listener) error {
	a.server = &http.Server{
		Handler: a.Handler(),
	}
	return a.server.Serve(listener)
}

// Stop stops the API server
func (a *API) Stop(ctx context.Context) error {
	if a.rateLimiter != nil {
		a.rateLimiter.Close()
	}
	if a.server != nil {
		return a.server.Shutdown(ctx)
	}
	return nil
}
