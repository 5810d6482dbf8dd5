package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/mcp-shark/sharkctl/internal/panel"
)

func renderView(m model) string {
	var b strings.Builder

	b.WriteString(RenderTitle(" MCP Shark "))
	b.WriteString("\n\n")

	b.WriteString(renderRoute(m))
	b.WriteString("\n")

	// Output pane gets whatever height is left after the fixed rows
	fixed := 10
	if m.analysis != "" || m.analysisErr != "" {
		fixed += 4
	}
	if m.view.ShowOutput {
		b.WriteString("\n")
		b.WriteString(renderOutput(m, m.height-fixed))
		b.WriteString("\n")
	}

	if s := renderAnalysis(m); s != "" {
		b.WriteString("\n")
		b.WriteString(s)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderStatusBar(m))
	b.WriteString("\n")

	b.WriteString(renderHelp(m))

	return b.String()
}

func renderRoute(m model) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s %s\n", routeIndicator(m.view.Route), HeaderStyle.Render(routeLabel(m.view.Route))))

	switch m.view.Route {
	case panel.RouteNotStarted:
		b.WriteString(MutedStyle.Render("  Press s to start the MCP Shark server."))
		b.WriteString("\n")
	case panel.RouteSetup:
		b.WriteString(MutedStyle.Render("  Finish setup in the MCP Shark UI to start capturing traffic."))
		b.WriteString("\n")
	}
	if m.view.Route.Ready() && m.inspectorURL != "" {
		b.WriteString(fmt.Sprintf("  Traffic inspector: %s\n", m.inspectorURL))
	}

	if m.view.Message != "" {
		b.WriteString("  ")
		b.WriteString(pendingStyle.Render(m.view.Message))
		b.WriteString("\n")
	}

	b.WriteString(renderItems(m.view.Route.Ready()))
	return b.String()
}

func renderItems(running bool) string {
	var parts []string
	for _, item := range panel.StatusItems(running) {
		if item.Command == "" {
			continue
		}
		label := item.Label
		if !item.Enabled {
			label = disabledStyle.Render(fmt.Sprintf("%s (%s)", label, item.Description))
		}
		parts = append(parts, label)
	}
	return MutedStyle.Render("  Actions: ") + strings.Join(parts, MutedStyle.Render(" · "))
}

func renderOutput(m model, maxHeight int) string {
	if maxHeight < 3 {
		maxHeight = 3
	}

	lines := m.output
	if len(lines) > maxHeight {
		lines = lines[len(lines)-maxHeight:]
	}

	width := m.width - 4
	if width < 20 {
		width = 20
	}

	rendered := make([]string, 0, len(lines))
	for _, l := range lines {
		rendered = append(rendered, outputStyle(l.Stream).Render(truncateString(l.Text, width)))
	}
	if len(rendered) == 0 {
		rendered = append(rendered, MutedStyle.Render("No output yet"))
	}

	return OutputBoxStyle.Width(width).Render(strings.Join(rendered, "\n"))
}

func renderAnalysis(m model) string {
	switch {
	case m.analysisErr != "":
		return RenderError(m.analysisErr)
	case m.analysis != "":
		return HeaderStyle.Render("Analysis") + "\n" + m.analysis
	}
	return ""
}

func renderStatusBar(m model) string {
	left := fmt.Sprintf(" [%s]", m.view.Route)
	if m.busy != "" {
		left = fmt.Sprintf("%s %s %s", left, m.spinner.View(), m.busy)
	} else if m.notice != "" {
		left = fmt.Sprintf("%s %s", left, m.notice)
	}

	var right string
	if !m.lastUpdate.IsZero() {
		right = fmt.Sprintf("Updated %s ago ", formatDuration(time.Since(m.lastUpdate)))
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return StatusBarStyle.Width(m.width).Render(bar)
}

func renderHelp(m model) string {
	var help string
	switch m.mode {
	case modeConfirmStop:
		help = "Are you sure you want to stop the MCP Shark server? y: stop  any other key: cancel"
	case modePrompt:
		help = m.input.View() + "  enter: send  esc: cancel"
	default:
		help = "q: quit  r: refresh  a: analyze  c: clear"
		if m.analysis != "" {
			help += "  y: copy analysis"
		}
		if m.view.Route.Ready() {
			help += "  x: stop server"
		} else {
			help += "  s: start server"
		}
	}
	return RenderHelp(" " + help)
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}

// truncateString truncates s to maxWidth terminal columns, appending "..."
// if truncated. Wide characters count as two columns.
func truncateString(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}
