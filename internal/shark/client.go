package shark

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mcp-shark/sharkctl/internal/config"
)

const (
	DefaultProbeTimeout = 1 * time.Second
	DefaultFetchTimeout = 2 * time.Second

	maxResponseSize = 4 << 20
)

// Recorder receives probe and fetch outcomes for metrics
type Recorder interface {
	RecordProbe(status int, duration time.Duration)
	RecordFetch(document string, err error)
}

// SetupStatus is the setup-status document
type SetupStatus struct {
	Running bool   `json:"running" yaml:"running"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Client probes and fetches documents from the MCP Shark server.
// Probes are never retried and never cached.
type Client struct {
	endpoint     Endpoint
	httpClient   *http.Client
	logger       *zap.SugaredLogger
	recorder     Recorder
	probeTimeout time.Duration
	fetchTimeout time.Duration
	now          func() time.Time
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for every request
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRecorder reports probe and fetch outcomes to r
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithTimeouts overrides the probe and fetch timeouts
func WithTimeouts(lc config.LifecycleConfig) Option {
	return func(c *Client) {
		if lc.ProbeTimeout > 0 {
			c.probeTimeout = lc.ProbeTimeout
		}
		if lc.FetchTimeout > 0 {
			c.fetchTimeout = lc.FetchTimeout
		}
	}
}

// WithClock overrides the clock used to stamp cached settings
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a client for endpoint
func NewClient(endpoint Endpoint, logger *zap.SugaredLogger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	c := &Client{
		endpoint:     endpoint,
		httpClient:   &http.Client{},
		logger:       logger,
		probeTimeout: DefaultProbeTimeout,
		fetchTimeout: DefaultFetchTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the server endpoint this client talks to
func (c *Client) Endpoint() Endpoint { return c.endpoint }

// StatusCode issues a GET and returns the response status, or 0 on any
// network error, malformed response or timeout.
func (c *Client) StatusCode(ctx context.Context, url string, timeout time.Duration) int {
	start := time.Now()
	status := c.statusCode(ctx, url, timeout)
	if c.recorder != nil {
		c.recorder.RecordProbe(status, time.Since(start))
	}
	return status
}

func (c *Client) statusCode(ctx context.Context, url string, timeout time.Duration) int {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, http.NoBody)
	if err != nil {
		c.logger.Debugw("Probe request could not be built", "url", url, "error", err)
		return 0
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debugw("Probe failed", "url", url, "error", err)
		return 0
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))

	return resp.StatusCode
}

// GetJSON fetches url and decodes the body into out. An empty body decodes as {}.
// Every failure is a *FetchError.
func (c *Client) GetJSON(ctx context.Context, url string, timeout time.Duration, out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return &FetchError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transportError(reqCtx, url, timeout, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return c.transportError(reqCtx, url, timeout, err)
	}

	if !isSuccess(resp.StatusCode) {
		return &FetchError{URL: url, StatusCode: resp.StatusCode, Body: snippet(body)}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &FetchError{URL: url, StatusCode: resp.StatusCode, Body: snippet(body), Err: err}
	}
	return nil
}

func (c *Client) transportError(reqCtx context.Context, url string, timeout time.Duration, err error) error {
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return &FetchError{URL: url, Timeout: timeout, Err: err}
}

// IsRunning reports whether the probe URL answers 200 within the probe timeout
func (c *Client) IsRunning(ctx context.Context) bool {
	return c.StatusCode(ctx, c.endpoint.ProbeURL(), c.probeTimeout) == http.StatusOK
}

// FetchSettings fetches the settings document and, on success only, stores it
// in cache. Any JSON value is accepted, including arrays, scalars and null.
func (c *Client) FetchSettings(ctx context.Context, cache *SettingsCache) (any, error) {
	var settings any
	err := c.GetJSON(ctx, c.endpoint.SettingsURL(), c.fetchTimeout, &settings)
	if c.recorder != nil {
		c.recorder.RecordFetch("settings", err)
	}
	if err != nil {
		c.logger.Debugw("Settings fetch failed", "error", err)
		return nil, err
	}
	if cache != nil {
		cache.Store(settings, c.now())
	}
	return settings, nil
}

// FetchSetupStatus fetches the setup-status document. Running is true only
// when the document's running field is the JSON boolean true.
func (c *Client) FetchSetupStatus(ctx context.Context) (SetupStatus, error) {
	var doc map[string]any
	err := c.GetJSON(ctx, c.endpoint.StatusURL(), c.fetchTimeout, &doc)
	if c.recorder != nil {
		c.recorder.RecordFetch("setup_status", err)
	}
	if err != nil {
		return SetupStatus{}, err
	}

	var status SetupStatus
	if running, ok := doc["running"].(bool); ok {
		status.Running = running
	}
	if msg, ok := doc["message"].(string); ok {
		status.Message = msg
	}
	return status, nil
}

// IsSetupComplete fails closed: any fetch or parse failure reports false
func (c *Client) IsSetupComplete(ctx context.Context) bool {
	status, err := c.FetchSetupStatus(ctx)
	if err != nil {
		c.logger.Debugw("Setup status unavailable", "error", err)
		return false
	}
	return status.Running
}
