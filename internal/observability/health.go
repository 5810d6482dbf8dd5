// Package observability provides health checks, metrics, and tracing capabilities
package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusReady     = "ready"
	statusNotReady  = "not_ready"
)

// Checker reports the health of one component: nil when healthy
type Checker interface {
	Check(ctx context.Context) error
	Name() string
}

type checkFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func (c checkFunc) Check(ctx context.Context) error { return c.fn(ctx) }
func (c checkFunc) Name() string                    { return c.name }

// CheckFunc adapts a function to a named Checker
func CheckFunc(name string, fn func(ctx context.Context) error) Checker {
	return checkFunc{name: name, fn: fn}
}

// ComponentStatus represents the status of a single component
type ComponentStatus struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Response is the body of /healthz and /readyz
type Response struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components []ComponentStatus `json:"components"`
}

// HealthManager runs liveness and readiness checks
type HealthManager struct {
	logger  *zap.SugaredLogger
	timeout time.Duration

	mu        sync.RWMutex
	liveness  []Checker
	readiness []Checker
}

// NewHealthManager creates a new health manager
func NewHealthManager(logger *zap.SugaredLogger) *HealthManager {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &HealthManager{
		logger:  logger,
		timeout: 5 * time.Second,
	}
}

// SetTimeout sets the timeout applied to one round of checks
func (hm *HealthManager) SetTimeout(timeout time.Duration) {
	hm.timeout = timeout
}

// AddHealthChecker registers a liveness checker
func (hm *HealthManager) AddHealthChecker(c Checker) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.liveness = append(hm.liveness, c)
}

// AddReadinessChecker registers a readiness checker
func (hm *HealthManager) AddReadinessChecker(c Checker) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.readiness = append(hm.readiness, c)
}

// CheckHealth runs every liveness checker
func (hm *HealthManager) CheckHealth(ctx context.Context) Response {
	hm.mu.RLock()
	checkers := append([]Checker(nil), hm.liveness...)
	hm.mu.RUnlock()
	return hm.run(ctx, checkers, statusHealthy, statusUnhealthy)
}

// CheckReadiness runs every readiness checker
func (hm *HealthManager) CheckReadiness(ctx context.Context) Response {
	hm.mu.RLock()
	checkers := append([]Checker(nil), hm.readiness...)
	hm.mu.RUnlock()
	return hm.run(ctx, checkers, statusReady, statusNotReady)
}

func (hm *HealthManager) run(ctx context.Context, checkers []Checker, ok, failed string) Response {
	ctx, cancel := context.WithTimeout(ctx, hm.timeout)
	defer cancel()

	response := Response{
		Status:     ok,
		Timestamp:  time.Now(),
		Components: make([]ComponentStatus, 0, len(checkers)),
	}

	for _, checker := range checkers {
		start := time.Now()
		status := ComponentStatus{Name: checker.Name(), Status: ok}

		if err := checker.Check(ctx); err != nil {
			status.Status = failed
			status.Error = err.Error()
			response.Status = failed
			hm.logger.Debugw("Check failed",
				"component", checker.Name(),
				"error", err)
		}

		status.Latency = time.Since(start).String()
		response.Components = append(response.Components, status)
	}

	return response
}

// HealthzHandler returns an HTTP handler for the /healthz endpoint
func (hm *HealthManager) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := hm.CheckHealth(r.Context())
		hm.writeJSON(w, response, statusHealthy)
	}
}

// ReadyzHandler returns an HTTP handler for the /readyz endpoint
func (hm *HealthManager) ReadyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := hm.CheckReadiness(r.Context())
		hm.writeJSON(w, response, statusReady)
	}
}

func (hm *HealthManager) writeJSON(w http.ResponseWriter, response Response, ok string) {
	statusCode := http.StatusOK
	if response.Status != ok {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		hm.logger.Errorw("Failed to encode health response", "error", err)
	}
}
