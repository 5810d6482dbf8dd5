package panel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mcp-shark/sharkctl/internal/config"
	"github.com/mcp-shark/sharkctl/internal/lifecycle"
	"github.com/mcp-shark/sharkctl/internal/llm"
	"github.com/mcp-shark/sharkctl/internal/monitor"
)

// Messages shown by the panel
const (
	MsgStartingOutput = "Starting server..."
	MsgStillStarting  = "Server may still be starting. Please wait a moment and try again."
	MsgServerGone     = "MCP Shark server stopped. Please start it again."
	MsgServerStopped  = "MCP Shark server has been stopped."
	MsgNoAnalyzer     = "Language model analysis is not available."
)

// Commands a panel accepts
const (
	CmdStartServer        = "startServer"
	CmdCheckStatus        = "checkStatus"
	CmdStopServer         = "stopServer"
	CmdRequestLlmAnalysis = "requestLlmAnalysis"
)

// Replies a panel posts back to its host
const (
	ReplyStatusUpdate    = "statusUpdate"
	ReplyAnalysisResult  = "requestLlmAnalysisResult"
	defaultOutputLines   = 500
	defaultStartRecheck  = 3 * time.Second
	defaultStopRecheck   = 2 * time.Second
	defaultCheckInterval = 5 * time.Second
)

// Controller is the lifecycle API the panel drives
type Controller interface {
	IsRunning(ctx context.Context) bool
	IsSetupComplete(ctx context.Context) bool
	EnsureRunning(ctx context.Context, confirm lifecycle.ConfirmFunc, sink monitor.Observer) bool
	StopServer(ctx context.Context, confirm lifecycle.ConfirmFunc) lifecycle.StopOutcome
}

// Analyzer runs LLM analysis requests
type Analyzer interface {
	Analyze(ctx context.Context, prompt, contextText string) llm.Outcome
}

// OutputSource delivers server output to one observer at a time
type OutputSource interface {
	Subscribe(o monitor.Observer) *monitor.Subscription
}

// RouteRecorder counts route decisions
type RouteRecorder interface {
	RecordRoute(route string)
}

// Message is a request from the panel's host
type Message struct {
	Command string `json:"command"`
	Prompt  string `json:"prompt,omitempty"`
	Context string `json:"context,omitempty"`
}

// Reply is posted to the host without changing the view
type Reply struct {
	Command string `json:"command"`
	Running *bool  `json:"running,omitempty"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OutputLine is one captured line of server output
type OutputLine struct {
	Stream monitor.Stream
	Text   string
	Time   time.Time
}

// View is everything a host needs to draw the panel
type View struct {
	Route      Route
	Message    string
	ShowOutput bool
	Output     []OutputLine
}

// Renderer draws a panel. Calls may come from several goroutines.
type Renderer interface {
	Render(v View)
	AppendOutput(line OutputLine)
	Post(r Reply)
}

// Option configures a Panel
type Option func(*Panel)

// WithConfirm sets the confirmation hook used before starting and stopping
func WithConfirm(confirm lifecycle.ConfirmFunc) Option {
	return func(p *Panel) { p.confirm = confirm }
}

// WithAnalyzer enables requestLlmAnalysis
func WithAnalyzer(a Analyzer) Option {
	return func(p *Panel) { p.analyzer = a }
}

// WithOutputSource subscribes the panel to server output while it is open
func WithOutputSource(src OutputSource) Option {
	return func(p *Panel) { p.output = src }
}

// WithTimings sets the recheck delays and output buffer size
func WithTimings(t config.PanelConfig) Option {
	return func(p *Panel) { p.timings = t }
}

// WithSleeper replaces the timer used for recheck delays
func WithSleeper(s lifecycle.Sleeper) Option {
	return func(p *Panel) { p.sleep = s }
}

// WithLogger sets the panel logger
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(p *Panel) { p.logger = logger }
}

// WithRouteRecorder counts every route the panel shows
func WithRouteRecorder(r RouteRecorder) Option {
	return func(p *Panel) { p.recorder = r }
}

// Panel is the host-independent model of the MCP Shark panel
type Panel struct {
	id       string
	ctrl     Controller
	renderer Renderer
	analyzer Analyzer
	output   OutputSource
	confirm  lifecycle.ConfirmFunc
	recorder RouteRecorder
	timings  config.PanelConfig
	sleep    lifecycle.Sleeper
	logger   *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	route      Route
	message    string
	showOutput bool
	lines      []OutputLine
	sub        *monitor.Subscription
	disposed   bool
	onDispose  []func()
}

// New creates a closed panel; call Open to evaluate and render it
func New(ctrl Controller, renderer Renderer, opts ...Option) *Panel {
	p := &Panel{
		id:       uuid.NewString(),
		ctrl:     ctrl,
		renderer: renderer,
		sleep:    lifecycle.Sleep,
		logger:   zap.NewNop().Sugar(),
		route:    RouteNotStarted,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.timings.OutputLines <= 0 {
		p.timings.OutputLines = defaultOutputLines
	}
	if p.timings.StartRecheckDelay <= 0 {
		p.timings.StartRecheckDelay = defaultStartRecheck
	}
	if p.timings.StopRecheckDelay <= 0 {
		p.timings.StopRecheckDelay = defaultStopRecheck
	}
	if p.timings.StatusCheckInterval <= 0 {
		p.timings.StatusCheckInterval = defaultCheckInterval
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())
	return p
}

// ID identifies the panel in logs
func (p *Panel) ID() string { return p.id }

// Route returns the route currently shown
func (p *Panel) Route() Route {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.route
}

// View returns a snapshot of what the panel shows
func (p *Panel) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewLocked()
}

func (p *Panel) viewLocked() View {
	return View{
		Route:      p.route,
		Message:    p.message,
		ShowOutput: p.showOutput,
		Output:     append([]OutputLine(nil), p.lines...),
	}
}

// Disposed reports whether Dispose has been called
func (p *Panel) Disposed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disposed
}

// Open attaches the panel to server output and renders the initial route
func (p *Panel) Open(ctx context.Context) Route {
	if p.output != nil {
		sub := p.output.Subscribe(p)
		p.mu.Lock()
		p.sub = sub
		p.mu.Unlock()
	}

	ctx, done := p.scope(ctx)
	defer done()

	p.logger.Debugw("Opening panel", "panel_id", p.id)
	if !p.ctrl.IsRunning(ctx) {
		p.show(RouteNotStarted, "", false)
		return RouteNotStarted
	}
	route := Decide(true, p.ctrl.IsSetupComplete(ctx))
	p.show(route, "", false)
	return route
}

// Handle runs one host request to completion
func (p *Panel) Handle(ctx context.Context, msg Message) {
	if p.Disposed() {
		return
	}
	ctx, done := p.scope(ctx)
	defer done()

	p.logger.Debugw("Panel message", "panel_id", p.id, "command", msg.Command)
	switch msg.Command {
	case CmdStartServer:
		p.startServer(ctx)
	case CmdCheckStatus:
		p.evaluate(ctx)
	case CmdStopServer:
		p.stopServer(ctx)
	case CmdRequestLlmAnalysis:
		p.requestAnalysis(ctx, msg)
	default:
		p.logger.Debugw("Ignoring unknown panel command", "command", msg.Command)
	}
}

// Evaluate re-classifies the server and updates the view; it is the periodic
// status-check trigger
func (p *Panel) Evaluate(ctx context.Context) Route {
	if p.Disposed() {
		return p.Route()
	}
	ctx, done := p.scope(ctx)
	defer done()
	return p.evaluate(ctx)
}

func (p *Panel) evaluate(ctx context.Context) Route {
	if p.ctrl.IsRunning(ctx) {
		route := Decide(true, p.ctrl.IsSetupComplete(ctx))
		p.show(route, "", false)
		return route
	}

	current := p.Route()
	if current == RouteNotStarted || current == RouteStarting {
		running := false
		p.post(Reply{Command: ReplyStatusUpdate, Running: &running})
		return current
	}

	p.show(RouteNotStarted, MsgServerGone, false)
	return RouteNotStarted
}

func (p *Panel) startServer(ctx context.Context) {
	p.mu.Lock()
	p.lines = nil
	p.mu.Unlock()
	p.appendLine(OutputLine{Stream: monitor.StreamStdout, Text: MsgStartingOutput, Time: time.Now()}, false)
	p.show(RouteStarting, "", true)

	started := p.ctrl.EnsureRunning(ctx, p.confirm, p)
	p.logger.Debugw("Start flow finished", "panel_id", p.id, "started", started)

	if err := p.sleep(ctx, p.timings.StartRecheckDelay); err != nil {
		return
	}

	if p.ctrl.IsRunning(ctx) {
		p.show(Decide(true, p.ctrl.IsSetupComplete(ctx)), "", false)
		return
	}
	p.show(RouteNotStarted, MsgStillStarting, true)
}

func (p *Panel) stopServer(ctx context.Context) {
	outcome := p.ctrl.StopServer(ctx, p.confirm)
	if outcome == lifecycle.StopDeclined {
		return
	}

	if err := p.sleep(ctx, p.timings.StopRecheckDelay); err != nil {
		return
	}

	if !p.ctrl.IsRunning(ctx) {
		p.show(RouteNotStarted, MsgServerStopped, false)
		return
	}
	p.evaluate(ctx)
}

func (p *Panel) requestAnalysis(ctx context.Context, msg Message) {
	if p.analyzer == nil {
		p.post(Reply{Command: ReplyAnalysisResult, Error: MsgNoAnalyzer})
		return
	}
	outcome := p.analyzer.Analyze(ctx, msg.Prompt, msg.Context)
	p.post(Reply{Command: ReplyAnalysisResult, Result: outcome.Result, Error: outcome.Error})
}

// OnEvent receives server output while the panel is subscribed
func (p *Panel) OnEvent(e monitor.Event) {
	line := OutputLine{Stream: e.Stream, Text: e.Line, Time: e.Timestamp}
	if line.Stream == "" {
		line.Stream = monitor.StreamStdout
	}
	if e.Type == monitor.EventStarted {
		line.Text = fmt.Sprintf("Process started (PID %d)", e.PID)
	}
	if line.Text == "" {
		return
	}
	p.appendLine(line, true)
}

func (p *Panel) appendLine(line OutputLine, render bool) {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}
	p.lines = append(p.lines, line)
	if over := len(p.lines) - p.timings.OutputLines; over > 0 {
		p.lines = append([]OutputLine(nil), p.lines[over:]...)
	}
	p.mu.Unlock()

	if render {
		p.renderer.AppendOutput(line)
	}
}

func (p *Panel) show(route Route, message string, showOutput bool) {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}
	p.route = route
	p.message = message
	p.showOutput = showOutput
	view := p.viewLocked()
	p.mu.Unlock()

	if p.recorder != nil {
		p.recorder.RecordRoute(string(route))
	}
	p.logger.Debugw("Panel route", "panel_id", p.id, "route", route, "message", message)
	p.renderer.Render(view)
}

func (p *Panel) post(r Reply) {
	if p.Disposed() {
		return
	}
	p.renderer.Post(r)
}

// scope returns ctx cancelled also when the panel is disposed
func (p *Panel) scope(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(p.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// OnDispose registers fn to run when the panel is disposed
func (p *Panel) OnDispose(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onDispose = append(p.onDispose, fn)
}

// Dispose detaches the panel from server output and cancels its pending
// flows. The server itself is left running.
func (p *Panel) Dispose() {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}
	p.disposed = true
	sub := p.sub
	callbacks := p.onDispose
	p.onDispose = nil
	p.mu.Unlock()

	p.cancel()
	if sub != nil {
		sub.Cancel()
	}
	for _, fn := range callbacks {
		fn()
	}
	p.logger.Debugw("Panel disposed", "panel_id", p.id)
}

// StatusCheckInterval is how often the host should call Evaluate
func (p *Panel) StatusCheckInterval() time.Duration {
	return p.timings.StatusCheckInterval
}
