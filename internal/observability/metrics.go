package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Outcome label values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Probe result label values
const (
	ProbeReachable   = "reachable"
	ProbeUnreachable = "unreachable"
	ProbeFailed      = "failed"
)

// MetricsManager manages Prometheus metrics. A nil *MetricsManager is valid
// and records nothing.
type MetricsManager struct {
	logger   *zap.SugaredLogger
	registry *prometheus.Registry

	startTime time.Time

	uptime prometheus.Gauge

	// Server probes and document fetches
	probes        *prometheus.CounterVec
	probeDuration prometheus.Histogram
	fetches       *prometheus.CounterVec

	// Lifecycle
	phaseTransitions *prometheus.CounterVec
	startAttempts    *prometheus.CounterVec
	startPolls       prometheus.Histogram
	stopAttempts     *prometheus.CounterVec
	launches         *prometheus.CounterVec
	routeDecisions   *prometheus.CounterVec

	// LLM bridge
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	analyses         *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
}

// NewMetricsManager creates a new metrics manager
func NewMetricsManager(logger *zap.SugaredLogger) *MetricsManager {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	mm := &MetricsManager{
		logger:    logger,
		registry:  prometheus.NewRegistry(),
		startTime: time.Now(),
	}

	mm.initMetrics()
	mm.registerMetrics()

	return mm
}

// initMetrics initializes all Prometheus metrics
func (mm *MetricsManager) initMetrics() {
	mm.uptime = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sharkctl_uptime_seconds",
		Help: "Time since the controller started",
	})

	mm.probes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharkctl_probes_total",
			Help: "Reachability probes by result",
		},
		[]string{"result"},
	)

	mm.probeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sharkctl_probe_duration_seconds",
		Help:    "Reachability probe duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
	})

	mm.fetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharkctl_fetches_total",
			Help: "JSON document fetches by document and status",
		},
		[]string{"document", "status"},
	)

	mm.phaseTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharkctl_phase_transitions_total",
			Help: "Lifecycle phase transitions",
		},
		[]string{"from", "to"},
	)

	mm.startAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharkctl_start_attempts_total",
			Help: "ensure-running attempts by outcome",
		},
		[]string{"outcome"},
	)

	mm.startPolls = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sharkctl_start_poll_attempts",
		Help:    "Readiness polls needed before the server answered",
		Buckets: []float64{1, 2, 3, 5, 10, 20, 30},
	})

	mm.stopAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharkctl_stop_attempts_total",
			Help: "Stop attempts by outcome",
		},
		[]string{"outcome"},
	)

	mm.launches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharkctl_launches_total",
			Help: "Server process spawns by mode and status",
		},
		[]string{"mode", "status"},
	)

	mm.routeDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharkctl_route_decisions_total",
			Help: "Panel route decisions",
		},
		[]string{"route"},
	)

	mm.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharkctl_http_requests_total",
			Help: "Total number of bridge HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	mm.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sharkctl_http_request_duration_seconds",
			Help:    "Bridge HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	mm.analyses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharkctl_llm_analyses_total",
			Help: "LLM analysis requests by model and status",
		},
		[]string{"model", "status"},
	)

	mm.analysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sharkctl_llm_analysis_duration_seconds",
			Help:    "LLM analysis duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"status"},
	)
}

// registerMetrics registers all metrics with the registry
func (mm *MetricsManager) registerMetrics() {
	mm.registry.MustRegister(
		mm.uptime,
		mm.probes,
		mm.probeDuration,
		mm.fetches,
		mm.phaseTransitions,
		mm.startAttempts,
		mm.startPolls,
		mm.stopAttempts,
		mm.launches,
		mm.routeDecisions,
		mm.httpRequests,
		mm.httpDuration,
		mm.analyses,
		mm.analysisDuration,
	)

	mm.registry.MustRegister(collectors.NewGoCollector())
	mm.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Registry returns the Prometheus registry
func (mm *MetricsManager) Registry() *prometheus.Registry {
	return mm.registry
}

// Handler returns the Prometheus metrics HTTP handler
func (mm *MetricsManager) Handler() http.Handler {
	return promhttp.HandlerFor(mm.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// UpdateUptime refreshes the uptime gauge
func (mm *MetricsManager) UpdateUptime() {
	if mm == nil {
		return
	}
	mm.uptime.Set(time.Since(mm.startTime).Seconds())
}

// RecordProbe records one reachability probe; status 0 means the request failed
func (mm *MetricsManager) RecordProbe(status int, duration time.Duration) {
	if mm == nil {
		return
	}
	result := ProbeUnreachable
	switch {
	case status == http.StatusOK:
		result = ProbeReachable
	case status == 0:
		result = ProbeFailed
	}
	mm.probes.WithLabelValues(result).Inc()
	mm.probeDuration.Observe(duration.Seconds())
}

// RecordFetch records one JSON document fetch
func (mm *MetricsManager) RecordFetch(document string, err error) {
	if mm == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	mm.fetches.WithLabelValues(document, status).Inc()
}

// RecordPhaseTransition records a lifecycle phase change
func (mm *MetricsManager) RecordPhaseTransition(from, to string) {
	if mm == nil {
		return
	}
	mm.phaseTransitions.WithLabelValues(from, to).Inc()
}

// RecordStart records the outcome of an ensure-running attempt. polls is the
// number of readiness polls issued and is only observed when positive.
func (mm *MetricsManager) RecordStart(outcome string, polls int) {
	if mm == nil {
		return
	}
	mm.startAttempts.WithLabelValues(outcome).Inc()
	if polls > 0 {
		mm.startPolls.Observe(float64(polls))
	}
}

// RecordStop records the outcome of a stop attempt
func (mm *MetricsManager) RecordStop(outcome string) {
	if mm == nil {
		return
	}
	mm.stopAttempts.WithLabelValues(outcome).Inc()
}

// RecordLaunch records a process spawn
func (mm *MetricsManager) RecordLaunch(mode string, err error) {
	if mm == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	mm.launches.WithLabelValues(mode, status).Inc()
}

// RecordRoute records a panel route decision
func (mm *MetricsManager) RecordRoute(route string) {
	if mm == nil {
		return
	}
	mm.routeDecisions.WithLabelValues(route).Inc()
}

// RecordAnalysis records one LLM analysis request
func (mm *MetricsManager) RecordAnalysis(model string, err error, duration time.Duration) {
	if mm == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	if model == "" {
		model = "none"
	}
	mm.analyses.WithLabelValues(model, status).Inc()
	mm.analysisDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordHTTPRequest records an HTTP request metric
func (mm *MetricsManager) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if mm == nil {
		return
	}
	mm.httpRequests.WithLabelValues(method, path, status).Inc()
	mm.httpDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// HTTPMiddleware returns middleware that records HTTP metrics
func (mm *MetricsManager) HTTPMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapper := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapper, r)

			mm.RecordHTTPRequest(r.Method, r.URL.Path, strconv.Itoa(wrapper.statusCode), time.Since(start))
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
