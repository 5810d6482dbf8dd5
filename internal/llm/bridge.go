package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/mcp-shark/sharkctl/internal/observability"
)

const (
	maxRequestBytes = 1 << 20

	// RequestIDHeader carries the id assigned to each bridge request
	RequestIDHeader = "X-Request-Id"
)

// AnalyzeFunc runs one analysis
type AnalyzeFunc func(ctx context.Context, prompt, contextText string) Outcome

// AnalyzeRequest is the body of POST /analyze
type AnalyzeRequest struct {
	Prompt  string `json:"prompt"`
	Context string `json:"context"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Bridge is the HTTP server MCP Shark calls to run local analysis
type Bridge struct {
	logger        *zap.SugaredLogger
	analyze       AnalyzeFunc
	observability *observability.Manager
	router        *chi.Mux

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// NewBridge creates a bridge answering POST /analyze with analyze. With a
// non-nil observability manager, requests are measured and /healthz, /readyz
// and /metrics are served as well.
func NewBridge(analyze AnalyzeFunc, obs *observability.Manager, logger *zap.SugaredLogger) *Bridge {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	b := &Bridge{
		logger:        logger,
		analyze:       analyze,
		observability: obs,
		router:        chi.NewRouter(),
	}
	b.setupRoutes()
	return b
}

// Handler returns the bridge's HTTP handler
func (b *Bridge) Handler() http.Handler {
	return b.router
}

func (b *Bridge) setupRoutes() {
	if b.observability != nil {
		b.router.Use(b.observability.HTTPMiddleware())
	}
	b.router.Use(middleware.Recoverer)
	b.router.Use(b.loggingMiddleware())
	b.router.Use(corsMiddleware)

	if b.observability != nil {
		b.observability.Mount(b.router)
	}

	b.router.Post("/analyze", b.handleAnalyze)
	b.router.NotFound(b.handleNotFound)
	b.router.MethodNotAllowed(b.handleNotFound)
}

// corsMiddleware allows browser callers and answers preflight requests
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
		w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (b *Bridge) loggingMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = ulid.Make().String()
			}
			w.Header().Set(RequestIDHeader, id)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			b.logger.Debugw("Bridge request",
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start))
		})
	}
}

func (b *Bridge) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	b.writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found. Use POST /analyze"})
}

func (b *Bridge) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		b.writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid JSON body"})
		return
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		data = []byte("{}")
	}

	// Decode loosely so that non-string fields count as empty
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		b.writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid JSON body"})
		return
	}

	prompt, _ := payload["prompt"].(string)
	contextText, _ := payload["context"].(string)
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		b.writeJSON(w, http.StatusBadRequest, errorBody{Error: "Missing or empty 'prompt' in body"})
		return
	}

	outcome := b.analyze(r.Context(), prompt, contextText)
	b.writeJSON(w, http.StatusOK, outcome)
}

func (b *Bridge) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		b.logger.Errorw("Failed to encode JSON response", "error", err)
	}
}

// Start listens on host:port and serves in the background. Port 0 picks a
// free port; Addr reports the bound address.
func (b *Bridge) Start(host string, port int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.httpServer != nil {
		return errors.New("bridge already started")
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	b.listener = ln
	b.httpServer = &http.Server{
		Handler:           b.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	b.logger.Infow("LLM bridge listening", "address", ln.Addr().String())
	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			b.logger.Errorw("LLM bridge stopped unexpectedly", "error", err)
		}
	}(b.httpServer)
	return nil
}

// Addr returns the bound address, or "" before Start
func (b *Bridge) Addr() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listener == nil {
		return ""
	}
	return b.listener.Addr().String()
}

// Shutdown stops the server, waiting for in-flight requests until ctx is done
func (b *Bridge) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	srv := b.httpServer
	b.httpServer = nil
	b.listener = nil
	b.mu.Unlock()

	if srv == nil {
		return nil
	}

	b.logger.Info("Shutting down LLM bridge")
	if err := srv.Shutdown(ctx); err != nil {
		b.logger.Warnw("LLM bridge forced shutdown", "error", err)
		return srv.Close()
	}
	return nil
}
