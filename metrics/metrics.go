package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoapi_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "todoapi_http_request_duration_seconds",
			Help:    "Time taken to serve HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "todoapi_storage_operation_duration_seconds",
			Help:    "Time taken by MongoDB operations on the todos collection",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)

	TodosCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "todoapi_todos_created_total",
			Help: "Total number of todos created",
		},
	)

	TodosDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "todoapi_todos_deleted_total",
			Help: "Total number of todos deleted",
		},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoapi_rate_limit_rejections_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"backend"},
	)

	RedisErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoapi_redis_errors_total",
			Help: "Total number of Redis command failures",
		},
		[]string{"operation"},
	)
)
