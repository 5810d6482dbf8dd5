package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcp-shark/sharkctl/internal/config"
	"github.com/mcp-shark/sharkctl/internal/observability"
)

func echoAnalyze(_ context.Context, prompt, contextText string) Outcome {
	return Outcome{Result: prompt + "|" + contextText}
}

func serve(t *testing.T, b *Bridge, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	b.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestBridgeAnalyze(t *testing.T) {
	b := NewBridge(echoAnalyze, nil, nil)

	rec := serve(t, b, http.MethodPost, "/analyze", `{"prompt":"  explain  ","context":"traffic"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, map[string]string{"result": "explain|traffic"}, decodeBody(t, rec))
}

func TestBridgeRequestID(t *testing.T) {
	b := NewBridge(echoAnalyze, nil, nil)

	first := serve(t, b, http.MethodPost, "/analyze", `{"prompt":"a"}`).Header().Get(RequestIDHeader)
	second := serve(t, b, http.MethodPost, "/analyze", `{"prompt":"b"}`).Header().Get(RequestIDHeader)
	assert.Len(t, first, 26)
	assert.NotEqual(t, first, second)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{"prompt":"c"}`))
	req.Header.Set(RequestIDHeader, "caller-id")
	b.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "caller-id", rec.Header().Get(RequestIDHeader))
}

func TestBridgeErrors(t *testing.T) {
	b := NewBridge(echoAnalyze, nil, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		error  string
	}{
		{"invalid json", http.MethodPost, "/analyze", "{not json", http.StatusBadRequest, "Invalid JSON body"},
		{"empty body", http.MethodPost, "/analyze", "", http.StatusBadRequest, "Missing or empty 'prompt' in body"},
		{"blank prompt", http.MethodPost, "/analyze", `{"prompt":"   "}`, http.StatusBadRequest, "Missing or empty 'prompt' in body"},
		{"non-string prompt", http.MethodPost, "/analyze", `{"prompt":42}`, http.StatusBadRequest, "Missing or empty 'prompt' in body"},
		{"wrong method", http.MethodGet, "/analyze", "", http.StatusNotFound, "Not found. Use POST /analyze"},
		{"unknown path", http.MethodPost, "/other", "{}", http.StatusNotFound, "Not found. Use POST /analyze"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, b, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, map[string]string{"error": tt.error}, decodeBody(t, rec))
		})
	}
}

func TestBridgePreflight(t *testing.T) {
	b := NewBridge(echoAnalyze, nil, nil)

	for _, path := range []string{"/analyze", "/anything"} {
		rec := serve(t, b, http.MethodOptions, path, "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
	}
}

func TestBridgeServesMetricsWithObservability(t *testing.T) {
	obs, err := observability.NewManager(nil, config.DefaultConfig(), "test")
	require.NoError(t, err)
	b := NewBridge(echoAnalyze, obs, nil)

	serve(t, b, http.MethodPost, "/analyze", `{"prompt":"x"}`)
	rec := serve(t, b, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `sharkctl_http_requests_total{method="POST",path="/analyze",status="200"} 1`)
}

func TestBridgeStartAndShutdown(t *testing.T) {
	b := NewBridge(echoAnalyze, nil, nil)
	require.NoError(t, b.Start("127.0.0.1", 0))
	assert.Error(t, b.Start("127.0.0.1", 0))

	resp, err := http.Post("http://"+b.Addr()+"/analyze", "application/json", strings.NewReader(`{"prompt":"live"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, b.Shutdown(ctx))
	assert.Empty(t, b.Addr())
	assert.NoError(t, b.Shutdown(ctx))
}
