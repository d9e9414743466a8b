package bootstrap

import (
	"context"

	"todoapi/config"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// DefaultServiceName names the tracer when tracing.service_name is unset
const DefaultServiceName = "todoapi"

// InitTracing builds the tracer provider. When tracing is disabled it returns a
// nil provider and a no-op tracer.
func InitTracing(cfg *config.Config, sugar *zap.SugaredLogger) (*sdktrace.TracerProvider, trace.Tracer) {
	name := cfg.Tracing.ServiceName
	if name == "" {
		name = DefaultServiceName
	}

	if !cfg.Tracing.Enabled {
		sugar.Info("Tracing disabled by configuration")
		return nil, noop.NewTracerProvider().Tracer(name)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(NewLogSpanExporter(sugar)),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", name))),
	)

	sugar.Infow("Tracing enabled", "service_name", name)
	return tp, tp.Tracer(name)
}

// LogSpanExporter writes finished spans to the debug log.
type LogSpanExporter struct {
	logger *zap.SugaredLogger
}

// NewLogSpanExporter creates an exporter that logs through logger
func NewLogSpanExporter(logger *zap.SugaredLogger) *LogSpanExporter {
	return &LogSpanExporter{logger: logger}
}

// ExportSpans logs one line per span
func (e *LogSpanExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		status := span.Status()
		e.logger.Debugw("span",
			"name", span.Name(),
			"trace_id", span.SpanContext().TraceID().String(),
			"span_id", span.SpanContext().SpanID().String(),
			"duration", span.EndTime().Sub(span.StartTime()),
			"status", status.Code.String(),
			"status_description", status.Description,
		)
	}
	return nil
}

// Shutdown flushes nothing; spans are written as they are exported
func (e *LogSpanExporter) Shutdown(ctx context.Context) error {
	return nil
}

var _ sdktrace.SpanExporter = (*LogSpanExporter)(nil)
