//go:build !nogui && !headless

package tray

import (
	"context"
	"runtime"

	"fyne.io/systray"
	"go.uber.org/zap"

	"github.com/mcp-shark/sharkctl/internal/panel"
)

// systrayMenu holds the menu items that change with the panel view
type systrayMenu struct {
	status *systray.MenuItem
	start  *systray.MenuItem
	stop   *systray.MenuItem
	open   *systray.MenuItem

	lastRoute panel.Route
	iconSet   bool
	logger    *zap.SugaredLogger
}

func setEnabled(item *systray.MenuItem, enabled bool) {
	if enabled {
		item.Enable()
	} else {
		item.Disable()
	}
}

func (m *systrayMenu) apply(s menuState) {
	m.status.SetTitle(s.Status)
	systray.SetTooltip(s.Tooltip)
	setEnabled(m.start, s.CanStart)
	setEnabled(m.stop, s.CanStop)
	setEnabled(m.open, s.CanOpen)

	if m.iconSet && s.Route == m.lastRoute {
		return
	}
	icon, err := Icon(s.Route, runtime.GOOS)
	if err != nil {
		m.logger.Warnw("Failed to render tray icon", "error", err)
		return
	}
	systray.SetIcon(icon)
	m.lastRoute, m.iconSet = s.Route, true
}

// Run shows the tray until ctx is done or Quit is chosen
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		systray.Quit()
	}()

	systray.Run(func() { a.onReady(ctx, cancel) }, a.dispose)
	return nil
}

func (a *App) onReady(ctx context.Context, cancel context.CancelFunc) {
	if ctx.Err() != nil {
		systray.Quit()
		return
	}

	if runtime.GOOS == "darwin" {
		systray.SetTitle("shark")
	}

	m := &systrayMenu{logger: a.logger}
	m.status = systray.AddMenuItem("MCP Shark: checking...", "MCP Shark server status")
	m.status.Disable()
	systray.AddSeparator()
	m.start = systray.AddMenuItem("Start Server", "Start the MCP Shark server")
	m.stop = systray.AddMenuItem("Stop Server", "Stop the MCP Shark server")
	m.open = systray.AddMenuItem("Open Inspector", "Open the traffic inspector in the browser")
	systray.AddSeparator()
	mConfig := systray.AddMenuItem("Open Config", "Open the sharkctl configuration file")
	if a.configPath == "" {
		mConfig.Hide()
	}
	mQuit := systray.AddMenuItem("Quit", "Quit sharkctl tray")

	p := a.attach(m)

	go panel.NewWatcher(p, p.StatusCheckInterval(), a.logger).Run(ctx)

	go func() {
		for {
			select {
			case <-m.start.ClickedCh:
				go a.handle(ctx, panel.CmdStartServer)
			case <-m.stop.ClickedCh:
				go a.handle(ctx, panel.CmdStopServer)
			case <-m.open.ClickedCh:
				if err := OpenURL(a.inspectorURL); err != nil {
					a.logger.Errorw("Failed to open inspector", "error", err)
				}
			case <-mConfig.ClickedCh:
				if err := OpenURL(a.configPath); err != nil {
					a.logger.Errorw("Failed to open config file", "error", err)
				}
			case <-mQuit.ClickedCh:
				a.logger.Info("Quit requested from tray")
				cancel()
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}
