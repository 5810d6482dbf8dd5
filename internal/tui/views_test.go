package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mcp-shark/sharkctl/internal/panel"
)

func TestRenderViewLoading(t *testing.T) {
	m, _ := newTestModel(panel.RouteNotStarted)
	m.width = 0
	assert.Equal(t, "Loading...", m.View())
}

func TestRenderRoutes(t *testing.T) {
	tests := []struct {
		route    panel.Route
		contains []string
		absent   []string
	}{
		{panel.RouteNotStarted, []string{"Not running", "s: start server", "Server not running"}, []string{"Traffic inspector"}},
		{panel.RouteSetup, []string{"setup required", "Traffic inspector: http://localhost:9853", "x: stop server"}, nil},
		{panel.RouteTraffic, []string{"capturing traffic", "Stop MCP Shark Server"}, []string{"s: start server"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.route), func(t *testing.T) {
			m, _ := newTestModel(tt.route)
			out := m.View()
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestRenderOutputAndMessage(t *testing.T) {
	m, _ := newTestModel(panel.RouteNotStarted)
	m.view = panel.View{Route: panel.RouteNotStarted, Message: panel.MsgStillStarting, ShowOutput: true}
	m.output = []panel.OutputLine{{Text: "Starting server..."}}

	out := m.View()
	assert.Contains(t, out, panel.MsgStillStarting)
	assert.Contains(t, out, "Starting server...")
}

func TestRenderHelpModes(t *testing.T) {
	m, _ := newTestModel(panel.RouteTraffic)
	m.mode = modeConfirmStop
	assert.Contains(t, renderHelp(m), "Are you sure you want to stop")

	m.mode = modePrompt
	m.input.SetValue("why")
	assert.Contains(t, renderHelp(m), "Ask: why")
}

func TestRenderAnalysis(t *testing.T) {
	m, _ := newTestModel(panel.RouteTraffic)
	assert.Empty(t, renderAnalysis(m))

	m.analysisErr = "Language model analysis is not available."
	assert.Contains(t, renderAnalysis(m), "Error: Language model analysis is not available.")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "5s", formatDuration(5*time.Second))
	assert.Equal(t, "3m", formatDuration(3*time.Minute))
	assert.Equal(t, "2h5m", formatDuration(2*time.Hour+5*time.Minute))
	assert.Equal(t, "2d", formatDuration(49*time.Hour))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcd...", truncateString("abcdefghij", 7))
	assert.Equal(t, "ab", truncateString("abcdef", 2))
	assert.Equal(t, "日本...", truncateString("日本語テキスト", 7))
}
