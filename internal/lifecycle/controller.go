// Package lifecycle starts, watches and stops the MCP Shark server.
//
// Every operation is best-effort: failures are logged and reported to the user
// through notifications, and callers only ever see booleans or a StopOutcome.
package lifecycle

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mcp-shark/sharkctl/internal/config"
	"github.com/mcp-shark/sharkctl/internal/monitor"
	"github.com/mcp-shark/sharkctl/internal/observability"
	"github.com/mcp-shark/sharkctl/internal/shark"
	"github.com/mcp-shark/sharkctl/internal/state"
)

// User-facing messages
const (
	MsgStartPrompt    = "MCP Shark server is not running. Start it now?"
	MsgStarted        = "MCP Shark server started successfully!"
	MsgStopPrompt     = "Are you sure you want to stop the MCP Shark server?"
	MsgAlreadyStopped = "MCP Shark server is not running."
	MsgStopped        = "MCP Shark server stopped successfully."
	MsgStillRunning   = "MCP Shark server may still be running. Please stop it manually."
)

// Start outcomes, used as metric labels
const (
	startAlreadyRunning = "already_running"
	startDeclined       = "declined"
	startStarted        = "started"
	startTimeout        = "timeout"
	startSpawnError     = "spawn_error"
	startAbandoned      = "abandoned"
)

// ConfirmFunc asks the user a yes/no question. A nil ConfirmFunc confirms.
type ConfirmFunc func(ctx context.Context, message string) bool

// Server is the view of the MCP Shark HTTP API the controller needs
type Server interface {
	IsRunning(ctx context.Context) bool
	FetchSettings(ctx context.Context, cache *shark.SettingsCache) (any, error)
	IsSetupComplete(ctx context.Context) bool
}

// Launcher spawns the server and routes its output
type Launcher interface {
	Launch(spec monitor.LaunchSpec, mode monitor.Mode) (*monitor.Session, error)
	Subscribe(o monitor.Observer) *monitor.Subscription
	HasObserver() bool
	Emit(e monitor.Event)
}

// Terminator stops whatever process owns a port
type Terminator interface {
	Terminate(ctx context.Context, port int) bool
}

// Notifier shows messages to the user
type Notifier interface {
	Info(message string)
	Warning(message string)
	Error(message string)
}

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Option configures a Controller
type Option func(*Controller)

// WithNotifier sets where user-facing messages go
func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// WithTracker records lifecycle phases in t
func WithTracker(t *state.Tracker) Option {
	return func(c *Controller) { c.tracker = t }
}

// WithMetrics records start and stop outcomes
func WithMetrics(m *observability.MetricsManager) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithTracing wraps lifecycle operations in spans
func WithTracing(t *observability.TracingManager) Option {
	return func(c *Controller) { c.tracing = t }
}

// WithSleeper replaces the timer used for settle delays and polling
func WithSleeper(s Sleeper) Option {
	return func(c *Controller) { c.sleep = s }
}

// WithCache shares an existing settings cache
func WithCache(cache *shark.SettingsCache) Option {
	return func(c *Controller) { c.cache = cache }
}

// Controller owns the settings cache and orchestrates the prober, launcher
// and terminator.
type Controller struct {
	logger     *zap.SugaredLogger
	server     Server
	launcher   Launcher
	terminator Terminator
	notifier   Notifier
	tracker    *state.Tracker
	metrics    *observability.MetricsManager
	tracing    *observability.TracingManager
	sleep      Sleeper

	cache *shark.SettingsCache

	spec          monitor.LaunchSpec
	manualCommand string
	port          int
	timings       config.LifecycleConfig

	starts singleflight.Group
}

// NewController creates a controller for the server described by cfg
func NewController(cfg *config.Config, server Server, launcher Launcher, terminator Terminator, logger *zap.SugaredLogger, opts ...Option) *Controller {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	c := &Controller{
		logger:        logger,
		server:        server,
		launcher:      launcher,
		terminator:    terminator,
		sleep:         Sleep,
		cache:         &shark.SettingsCache{},
		spec:          monitor.SpecFromConfig(cfg.Launch),
		manualCommand: cfg.ManualStartCommand(),
		port:          cfg.Server.Port,
		timings:       cfg.Lifecycle,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracker == nil {
		c.tracker = state.NewTracker(logger, c.metrics)
	}
	return c
}

// StartTimeoutMessage is shown when the server never answered after a launch
func (c *Controller) StartTimeoutMessage() string {
	return "MCP Shark server may not have started. Please start it manually with: " + c.manualCommand
}

// IsRunning probes the server once
func (c *Controller) IsRunning(ctx context.Context) bool {
	c.tracker.Set(state.PhaseProbing)
	running := c.server.IsRunning(ctx)
	c.settle(running)
	return running
}

func (c *Controller) settle(running bool) {
	if running {
		c.tracker.Set(state.PhaseRunning)
	} else {
		c.tracker.Set(state.PhaseNotRunning)
	}
}

// IsSetupComplete reports whether the server has finished first-time setup
func (c *Controller) IsSetupComplete(ctx context.Context) bool {
	return c.server.IsSetupComplete(ctx)
}

// Phase returns the last observed lifecycle phase
func (c *Controller) Phase() state.Phase {
	return c.tracker.Phase()
}

// Tracker exposes the phase tracker for subscribers
func (c *Controller) Tracker() *state.Tracker {
	return c.tracker
}

// CachedSettings returns the last successfully fetched settings document and
// when it was fetched. Both are zero until the first successful fetch.
func (c *Controller) CachedSettings() (any, time.Time) {
	return c.cache.Snapshot()
}

// RefreshSettings fetches the settings document, updating the cache on success
func (c *Controller) RefreshSettings(ctx context.Context) (any, error) {
	return c.server.FetchSettings(ctx, c.cache)
}

// refreshSettings is the best-effort form used inside lifecycle flows
func (c *Controller) refreshSettings(ctx context.Context) {
	if _, err := c.server.FetchSettings(ctx, c.cache); err != nil {
		c.logger.Debugw("Settings refresh failed, keeping cached value", "error", err)
	}
}

// EnsureRunning returns true if the server is reachable, starting it first if
// needed and confirmed. With a sink the process output is observed; sink is
// attached to the launcher unless another observer already is. Concurrent
// callers share one launch. Cancelling ctx stops this caller waiting but the
// launched process and its poll loop are left to finish on their own.
func (c *Controller) EnsureRunning(ctx context.Context, confirm ConfirmFunc, sink monitor.Observer) bool {
	ctx, span := c.tracing.TraceLifecycle(ctx, "ensure_running", c.port)
	defer span.End()

	if c.IsRunning(ctx) {
		c.refreshSettings(ctx)
		c.metrics.RecordStart(startAlreadyRunning, 0)
		return true
	}

	if confirm != nil && !confirm(ctx, MsgStartPrompt) {
		c.logger.Infow("User declined to start MCP Shark server")
		c.metrics.RecordStart(startDeclined, 0)
		return false
	}

	ch := c.starts.DoChan("start", func() (interface{}, error) {
		return c.start(context.WithoutCancel(ctx), sink), nil
	})

	select {
	case res := <-ch:
		started, _ := res.Val.(bool)
		if res.Shared {
			c.logger.Debugw("Joined in-flight start", "started", started)
		}
		span.SetAttributes(attribute.Bool("lifecycle.started", started))
		return started
	case <-ctx.Done():
		c.logger.Infow("Stopped waiting for MCP Shark server to start", "error", ctx.Err())
		c.metrics.RecordStart(startAbandoned, 0)
		return false
	}
}

// start launches the server and polls until it answers or the budget runs out
func (c *Controller) start(ctx context.Context, sink monitor.Observer) bool {
	mode := monitor.ModeSilent
	if sink != nil {
		mode = monitor.ModeObserved
		if !c.launcher.HasObserver() {
			sub := c.launcher.Subscribe(sink)
			defer func() {
				c.logger.Debug("Releasing start output observer")
				sub.Cancel()
			}()
		}
		c.launcher.Emit(monitor.OutputLine(monitor.StreamStdout, "Starting MCP Shark server..."))
		c.launcher.Emit(monitor.OutputLine(monitor.StreamStdout, "$ "+c.spec.CommandLine()))
	}

	c.tracker.Set(state.PhaseLaunching)
	session, err := c.launcher.Launch(c.spec, mode)
	c.metrics.RecordLaunch(mode.String(), err)
	if err != nil {
		c.tracker.Set(state.PhaseStartFailed)
		c.tracing.SetSpanError(ctx, err)
		c.metrics.RecordStart(startSpawnError, 0)
		c.notify().Error("Failed to start MCP Shark server: " + err.Error())
		return false
	}

	c.logger.Infow("Waiting for MCP Shark server to answer",
		"session_id", session.ID,
		"pid", session.PID,
		"settle_delay", c.timings.SettleDelay,
		"poll_interval", c.timings.PollInterval,
		"max_attempts", c.timings.MaxPollAttempts)

	c.tracker.Set(state.PhasePolling)
	_ = c.sleep(ctx, c.timings.SettleDelay)

	for attempt := 1; attempt <= c.timings.MaxPollAttempts; attempt++ {
		_ = c.sleep(ctx, c.timings.PollInterval)

		if c.server.IsRunning(ctx) {
			c.tracker.Set(state.PhaseRunning)
			c.refreshSettings(ctx)
			c.logger.Infow("MCP Shark server is ready", "attempts", attempt, "session_id", session.ID)
			c.metrics.RecordStart(startStarted, attempt)
			if sink != nil {
				c.launcher.Emit(monitor.OutputLine(monitor.StreamStdout, "MCP Shark server is ready."))
			}
			c.notify().Info(MsgStarted)
			return true
		}
		c.logger.Debugw("MCP Shark server not answering yet", "attempt", attempt)
	}

	c.tracker.Set(state.PhaseStartFailed)
	c.logger.Warnw("MCP Shark server did not answer in time",
		"attempts", c.timings.MaxPollAttempts,
		"session_id", session.ID)
	c.metrics.RecordStart(startTimeout, c.timings.MaxPollAttempts)
	c.notify().Warning(c.StartTimeoutMessage())
	return false
}

// StopServer stops the server if it is running and confirmed. It is not
// cancellable; it is bounded by the stop settle delay and one probe.
func (c *Controller) StopServer(ctx context.Context, confirm ConfirmFunc) StopOutcome {
	ctx = context.WithoutCancel(ctx)
	ctx, span := c.tracing.TraceLifecycle(ctx, "stop", c.port)
	defer span.End()

	outcome := c.stop(ctx, confirm)
	span.SetAttributes(attribute.String("lifecycle.outcome", string(outcome)))
	c.metrics.RecordStop(string(outcome))
	return outcome
}

func (c *Controller) stop(ctx context.Context, confirm ConfirmFunc) StopOutcome {
	if !c.IsRunning(ctx) {
		c.notify().Info(MsgAlreadyStopped)
		return StopAlreadyStopped
	}

	if confirm != nil && !confirm(ctx, MsgStopPrompt) {
		c.logger.Infow("User declined to stop MCP Shark server")
		return StopDeclined
	}

	c.tracker.Set(state.PhaseStopping)
	if !c.terminator.Terminate(ctx, c.port) {
		c.logger.Infow("Stop command did not signal any process", "port", c.port)
	}

	_ = c.sleep(ctx, c.timings.StopSettleDelay)

	if c.IsRunning(ctx) {
		c.logger.Warnw("MCP Shark server still answering after stop", "port", c.port)
		c.notify().Warning(MsgStillRunning)
		return StopStillRunning
	}

	c.logger.Infow("MCP Shark server stopped", "port", c.port)
	c.notify().Info(MsgStopped)
	return StopStopped
}

func (c *Controller) notify() Notifier {
	if c.notifier == nil {
		return logNotifier{c.logger}
	}
	return c.notifier
}

// logNotifier is used when no notifier is configured
type logNotifier struct {
	logger *zap.SugaredLogger
}

func (n logNotifier) Info(message string)    { n.logger.Info(message) }
func (n logNotifier) Warning(message string) { n.logger.Warn(message) }
func (n logNotifier) Error(message string)   { n.logger.Error(message) }
