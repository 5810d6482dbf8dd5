package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/mcp-shark/sharkctl/internal/monitor"
	"github.com/mcp-shark/sharkctl/internal/panel"
)

// Semantic color palette using AdaptiveColor for light/dark terminal support
var (
	colorHealthy   = lipgloss.AdaptiveColor{Light: "28", Dark: "42"}   // green
	colorPending   = lipgloss.AdaptiveColor{Light: "136", Dark: "214"} // yellow
	colorUnhealthy = lipgloss.AdaptiveColor{Light: "160", Dark: "196"} // red
	colorDisabled  = lipgloss.AdaptiveColor{Light: "245", Dark: "243"} // gray
	colorAccent    = lipgloss.AdaptiveColor{Light: "25", Dark: "75"}   // blue
	colorMuted     = lipgloss.AdaptiveColor{Light: "245", Dark: "244"} // light gray
	colorBgDark    = lipgloss.AdaptiveColor{Light: "254", Dark: "236"} // dark bg
)

var (
	// TitleStyle renders top-level titles with bold accent background
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "255", Dark: "255"}).
			Background(colorAccent).
			Padding(0, 1)

	// HeaderStyle renders section headers
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	// MutedStyle renders secondary text
	MutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	// ErrorStyle renders error messages
	ErrorStyle = lipgloss.NewStyle().
			Foreground(colorUnhealthy).
			Bold(true)

	// SuccessStyle renders success messages
	SuccessStyle = lipgloss.NewStyle().
			Foreground(colorHealthy)

	// StatusBarStyle renders the bottom status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Background(colorBgDark).
			Padding(0, 1)

	// HelpStyle renders keybinding hints
	HelpStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	// OutputBoxStyle frames the server output
	OutputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)

	runningStyle  = lipgloss.NewStyle().Foreground(colorHealthy)
	pendingStyle  = lipgloss.NewStyle().Foreground(colorPending)
	stoppedStyle  = lipgloss.NewStyle().Foreground(colorUnhealthy)
	disabledStyle = lipgloss.NewStyle().Foreground(colorDisabled)
	stderrStyle   = lipgloss.NewStyle().Foreground(colorUnhealthy)
)

// RenderTitle wraps text with TitleStyle
func RenderTitle(text string) string {
	return TitleStyle.Render(text)
}

// RenderError formats an error message with ErrorStyle
func RenderError(msg string) string {
	if msg == "" {
		return ""
	}
	return ErrorStyle.Render(fmt.Sprintf("Error: %s", msg))
}

// RenderHelp wraps help text with HelpStyle
func RenderHelp(text string) string {
	return HelpStyle.Render(text)
}

func routeIndicator(route panel.Route) string {
	switch route {
	case panel.RouteTraffic:
		return runningStyle.Render("●")
	case panel.RouteSetup:
		return pendingStyle.Render("◐")
	case panel.RouteStarting:
		return pendingStyle.Render("◌")
	default:
		return stoppedStyle.Render("○")
	}
}

func routeLabel(route panel.Route) string {
	switch route {
	case panel.RouteTraffic:
		return "Running, capturing traffic"
	case panel.RouteSetup:
		return "Running, setup required"
	case panel.RouteStarting:
		return "Starting"
	default:
		return "Not running"
	}
}

func outputStyle(stream monitor.Stream) lipgloss.Style {
	if stream == monitor.StreamStderr {
		return stderrStyle
	}
	return lipgloss.NewStyle()
}
