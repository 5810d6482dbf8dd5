package tray

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mcp-shark/sharkctl/internal/panel"
)

// Panel is the panel API the tray drives. The panel is already open.
type Panel interface {
	Handle(ctx context.Context, msg panel.Message)
	Evaluate(ctx context.Context) panel.Route
	StatusCheckInterval() time.Duration
	Dispose()
}

// menu is the tray surface a menuState is applied to
type menu interface {
	apply(s menuState)
}

// App represents the system tray application
type App struct {
	build        func(panel.Renderer) Panel
	inspectorURL string
	configPath   string
	logger       *zap.SugaredLogger

	mu    sync.Mutex
	view  panel.View
	busy  bool
	menu  menu
	panel Panel
}

// New creates a tray application. build creates and opens the panel the menu
// drives; the App is passed in as its renderer.
func New(build func(panel.Renderer) Panel, inspectorURL, configPath string, logger *zap.SugaredLogger) *App {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &App{
		build:        build,
		inspectorURL: inspectorURL,
		configPath:   configPath,
		logger:       logger,
		view:         panel.View{Route: panel.RouteNotStarted},
	}
}

// Render implements panel.Renderer
func (a *App) Render(v panel.View) {
	a.mu.Lock()
	a.view = v
	a.mu.Unlock()
	a.refresh()
}

// AppendOutput implements panel.Renderer; the tray does not show output
func (a *App) AppendOutput(panel.OutputLine) {}

// Post implements panel.Renderer
func (a *App) Post(r panel.Reply) {
	if r.Command == panel.ReplyStatusUpdate && r.Running != nil {
		a.logger.Debugw("Status update from panel", "running", *r.Running)
	}
}

func (a *App) state() menuState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return stateFor(a.view, a.busy, a.inspectorURL)
}

func (a *App) refresh() {
	a.mu.Lock()
	m := a.menu
	a.mu.Unlock()
	if m != nil {
		m.apply(a.state())
	}
}

// attach binds the menu and builds the panel
func (a *App) attach(m menu) Panel {
	a.mu.Lock()
	a.menu = m
	a.mu.Unlock()

	p := a.build(a)

	a.mu.Lock()
	a.panel = p
	a.mu.Unlock()
	a.refresh()
	return p
}

// handle runs one panel flow, keeping the menu disabled until it finishes
func (a *App) handle(ctx context.Context, command string) {
	a.mu.Lock()
	if a.busy || a.panel == nil {
		a.mu.Unlock()
		return
	}
	a.busy = true
	p := a.panel
	a.mu.Unlock()
	a.refresh()

	a.logger.Infow("Tray command", "command", command)
	p.Handle(ctx, panel.Message{Command: command})

	a.mu.Lock()
	a.busy = false
	a.mu.Unlock()
	a.refresh()
}

func (a *App) dispose() {
	a.mu.Lock()
	p := a.panel
	a.panel = nil
	a.menu = nil
	a.mu.Unlock()
	if p != nil {
		p.Dispose()
	}
}
