package observability

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mcp-shark/sharkctl/internal/config"
)

const instrumentationName = "github.com/mcp-shark/sharkctl"

// TracingManager hands out spans for lifecycle operations, analyses and bridge
// requests. A nil or disabled manager returns the span already in the context,
// so callers never check whether tracing is on.
type TracingManager struct {
	logger   *zap.SugaredLogger
	tracer   oteltrace.Tracer
	provider *sdktrace.TracerProvider
}

// NewTracingManager exports spans over OTLP/HTTP when cfg.Enabled is set
func NewTracingManager(logger *zap.SugaredLogger, cfg config.TracingConfig, version string) (*TracingManager, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if !cfg.Enabled {
		logger.Debug("OpenTelemetry tracing disabled")
		return &TracingManager{logger: logger}, nil
	}

	exporter, err := otlptracehttp.New(context.Background(),
		otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	logger.Infow("OpenTelemetry tracing enabled",
		"service_name", cfg.ServiceName,
		"otlp_endpoint", cfg.OTLPEndpoint,
		"sample_rate", cfg.SampleRate)

	return newTracingManager(logger, provider), nil
}

func newTracingManager(logger *zap.SugaredLogger, provider *sdktrace.TracerProvider) *TracingManager {
	return &TracingManager{
		logger:   logger,
		tracer:   provider.Tracer(instrumentationName),
		provider: provider,
	}
}

// Close flushes pending spans
func (tm *TracingManager) Close(ctx context.Context) error {
	if !tm.IsEnabled() {
		return nil
	}
	tm.logger.Debug("Flushing OpenTelemetry spans")
	return tm.provider.Shutdown(ctx)
}

// IsEnabled reports whether spans are recorded
func (tm *TracingManager) IsEnabled() bool {
	return tm != nil && tm.provider != nil
}

func (tm *TracingManager) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, oteltrace.Span) {
	if !tm.IsEnabled() {
		return ctx, oteltrace.SpanFromContext(ctx)
	}
	return tm.tracer.Start(ctx, name, oteltrace.WithAttributes(attrs...))
}

// TraceLifecycle starts a span for a lifecycle operation such as
// ensure_running or stop against the server on port
func (tm *TracingManager) TraceLifecycle(ctx context.Context, operation string, port int) (context.Context, oteltrace.Span) {
	return tm.start(ctx, "lifecycle."+operation,
		attribute.String("lifecycle.operation", operation),
		attribute.Int("shark.port", port),
	)
}

// TraceAnalysis starts a span for one LLM analysis. Only sizes are recorded,
// never the prompt or the traffic itself.
func (tm *TracingManager) TraceAnalysis(ctx context.Context, promptLen, contextLen int) (context.Context, oteltrace.Span) {
	return tm.start(ctx, "llm.analyze",
		attribute.Int("llm.prompt_length", promptLen),
		attribute.Int("llm.context_length", contextLen),
	)
}

// SetSpanError marks the span in ctx as failed
func (tm *TracingManager) SetSpanError(ctx context.Context, err error) {
	if !tm.IsEnabled() || err == nil {
		return
	}
	span := oteltrace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// HTTPMiddleware continues the caller's trace for each bridge request
func (tm *TracingManager) HTTPMiddleware() func(http.Handler) http.Handler {
	if !tm.IsEnabled() {
		return func(next http.Handler) http.Handler { return next }
	}

	propagator := propagation.TraceContext{}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tm.tracer.Start(ctx, "bridge "+r.Method+" "+r.URL.Path,
				oteltrace.WithSpanKind(oteltrace.SpanKindServer),
				oteltrace.WithAttributes(
					semconv.HTTPMethodKey.String(r.Method),
					semconv.HTTPTargetKey.String(r.URL.Path),
				),
			)
			defer span.End()

			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r.WithContext(ctx))

			span.SetAttributes(semconv.HTTPStatusCodeKey.Int(ww.statusCode))
			if ww.statusCode >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(ww.statusCode))
			}
		})
	}
}
