package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"

	"github.com/mcp-shark/sharkctl/internal/config"
)

func TestRecordProbeClassifiesStatus(t *testing.T) {
	mm := NewMetricsManager(nil)

	mm.RecordProbe(http.StatusOK, 10*time.Millisecond)
	mm.RecordProbe(http.StatusServiceUnavailable, 10*time.Millisecond)
	mm.RecordProbe(0, time.Second)
	mm.RecordProbe(0, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(mm.probes.WithLabelValues(ProbeReachable)))
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.probes.WithLabelValues(ProbeUnreachable)))
	assert.Equal(t, 2.0, testutil.ToFloat64(mm.probes.WithLabelValues(ProbeFailed)))
}

func TestRecordLifecycleCounters(t *testing.T) {
	mm := NewMetricsManager(nil)

	mm.RecordFetch("settings", nil)
	mm.RecordFetch("settings", errors.New("boom"))
	mm.RecordPhaseTransition("probing", "running")
	mm.RecordStart("started", 4)
	mm.RecordStart("declined", 0)
	mm.RecordStop("already_stopped")
	mm.RecordLaunch("observed", nil)
	mm.RecordRoute("traffic")

	assert.Equal(t, 1.0, testutil.ToFloat64(mm.fetches.WithLabelValues("settings", StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.fetches.WithLabelValues("settings", StatusError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.phaseTransitions.WithLabelValues("probing", "running")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.startAttempts.WithLabelValues("started")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.startAttempts.WithLabelValues("declined")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.stopAttempts.WithLabelValues("already_stopped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.launches.WithLabelValues("observed", StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.routeDecisions.WithLabelValues("traffic")))
}

func TestNilMetricsManagerIsNoop(t *testing.T) {
	var mm *MetricsManager
	assert.NotPanics(t, func() {
		mm.RecordProbe(200, time.Millisecond)
		mm.RecordFetch("settings", nil)
		mm.RecordPhaseTransition("a", "b")
		mm.RecordStart("started", 1)
		mm.RecordStop("stopped")
		mm.RecordLaunch("silent", nil)
		mm.RecordRoute("setup")
		mm.RecordAnalysis("m", nil, time.Second)
		mm.UpdateUptime()
	})
}

func TestMetricsHTTPMiddleware(t *testing.T) {
	mm := NewMetricsManager(nil)
	handler := mm.HTTPMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.httpRequests.WithLabelValues("POST", "/analyze", "418")))
}

func TestMetricsHandlerExposesSharkMetrics(t *testing.T) {
	mm := NewMetricsManager(nil)
	mm.RecordStop("stopped")

	rec := httptest.NewRecorder()
	mm.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `sharkctl_stop_attempts_total{outcome="stopped"} 1`)
}

func TestHealthManager(t *testing.T) {
	hm := NewHealthManager(nil)
	hm.AddHealthChecker(CheckFunc("bridge", func(context.Context) error { return nil }))
	hm.AddReadinessChecker(CheckFunc("mcp-shark", func(context.Context) error {
		return errors.New("server not reachable")
	}))

	rec := httptest.NewRecorder()
	hm.HealthzHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	hm.ReadyzHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, statusNotReady, body.Status)
	require.Len(t, body.Components, 1)
	assert.Equal(t, "mcp-shark", body.Components[0].Name)
	assert.Equal(t, "server not reachable", body.Components[0].Error)
}

func TestDisabledTracingReturnsNoopSpans(t *testing.T) {
	tm, err := NewTracingManager(nil, config.TracingConfig{Enabled: false}, "test")
	require.NoError(t, err)
	assert.False(t, tm.IsEnabled())

	ctx := context.Background()
	spanCtx, span := tm.TraceLifecycle(ctx, "ensure_running", 9853)
	assert.Equal(t, ctx, spanCtx)
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	tm.SetSpanError(ctx, errors.New("ignored"))
	assert.NoError(t, tm.Close(ctx))

	var nilTM *TracingManager
	assert.False(t, nilTM.IsEnabled())
	assert.NoError(t, nilTM.Close(ctx))
}

func TestManagerMountsHandlers(t *testing.T) {
	m, err := NewManager(nil, config.DefaultConfig(), "test")
	require.NoError(t, err)

	router := chi.NewRouter()
	m.Mount(router)
	handler := m.HTTPMiddleware()(router)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	m.Metrics().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.True(t, strings.Contains(rec.Body.String(), `sharkctl_http_requests_total{method="GET",path="/healthz",status="200"} 1`))
	assert.NoError(t, m.Close(context.Background()))
}

func TestTracingRecordsLifecycleSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tm := newTracingManager(zap.NewNop().Sugar(), sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	require.True(t, tm.IsEnabled())

	ctx, span := tm.TraceLifecycle(context.Background(), "stop", 9853)
	tm.SetSpanError(ctx, errors.New("still running"))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "lifecycle.stop", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.Int("shark.port", 9853))
	assert.NoError(t, tm.Close(context.Background()))
}

func TestTracingMiddlewareMarksServerErrors(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tm := newTracingManager(zap.NewNop().Sugar(), sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))

	handler := tm.HTTPMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/analyze", nil))

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "bridge POST /analyze", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
}
