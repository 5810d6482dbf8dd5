package observability

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mcp-shark/sharkctl/internal/config"
)

// Manager bundles the health, metrics and tracing of one sharkctl process
type Manager struct {
	logger  *zap.SugaredLogger
	health  *HealthManager
	metrics *MetricsManager
	tracing *TracingManager
}

// NewManager builds the observability components from cfg. Metrics are
// always collected; only the bridge exposes them.
func NewManager(logger *zap.SugaredLogger, cfg *config.Config, version string) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	tracing, err := NewTracingManager(logger, cfg.Tracing, version)
	if err != nil {
		return nil, err
	}

	return &Manager{
		logger:  logger,
		health:  NewHealthManager(logger),
		metrics: NewMetricsManager(logger),
		tracing: tracing,
	}, nil
}

// Health returns the health manager
func (m *Manager) Health() *HealthManager {
	return m.health
}

// Metrics returns the metrics manager
func (m *Manager) Metrics() *MetricsManager {
	return m.metrics
}

// Tracing returns the tracing manager
func (m *Manager) Tracing() *TracingManager {
	return m.tracing
}

// Mount serves /healthz, /readyz and /metrics on r
func (m *Manager) Mount(r chi.Router) {
	r.Get("/healthz", m.health.HealthzHandler())
	r.Get("/readyz", m.health.ReadyzHandler())

	metrics := m.metrics.Handler()
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		m.metrics.UpdateUptime()
		metrics.ServeHTTP(w, req)
	})
}

// HTTPMiddleware measures and traces each request, metrics outermost
func (m *Manager) HTTPMiddleware() func(http.Handler) http.Handler {
	measure := m.metrics.HTTPMiddleware()
	trace := m.tracing.HTTPMiddleware()
	return func(next http.Handler) http.Handler {
		return measure(trace(next))
	}
}

// Close flushes traces
func (m *Manager) Close(ctx context.Context) error {
	if err := m.tracing.Close(ctx); err != nil {
		m.logger.Warnw("Failed to flush traces", "error", err)
		return err
	}
	return nil
}
