package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcp-shark/sharkctl/internal/monitor"
	"github.com/mcp-shark/sharkctl/internal/panel"
)

// MockPanel records the requests the model makes
type MockPanel struct {
	mu        sync.Mutex
	route     panel.Route
	messages  []panel.Message
	evaluated int
	disposed  bool
}

func (p *MockPanel) Handle(_ context.Context, msg panel.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
}

func (p *MockPanel) Evaluate(context.Context) panel.Route {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evaluated++
	return p.route
}

func (p *MockPanel) StatusCheckInterval() time.Duration { return 5 * time.Second }

func (p *MockPanel) Dispose() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disposed = true
}

func (p *MockPanel) Messages() []panel.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]panel.Message(nil), p.messages...)
}

func newTestModel(route panel.Route) (model, *MockPanel) {
	p := &MockPanel{route: route}
	m := NewModel(context.Background(), p, "http://localhost:9853", 3)
	m.width, m.height = 100, 40
	m.view = panel.View{Route: route}
	return m, p
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelInit(t *testing.T) {
	m, _ := newTestModel(panel.RouteNotStarted)
	assert.NotNil(t, m.Init())
	assert.Equal(t, 5*time.Second, m.refreshInterval)
}

func TestStartKey(t *testing.T) {
	t.Run("starts when not running", func(t *testing.T) {
		m, p := newTestModel(panel.RouteNotStarted)
		updated, cmd := m.Update(key("s"))
		require.NotNil(t, cmd)
		assert.NotEmpty(t, updated.(model).busy)

		done := cmd()
		assert.Equal(t, doneMsg{command: panel.CmdStartServer}, done)
		require.Len(t, p.Messages(), 1)

		final, _ := updated.Update(done)
		assert.Empty(t, final.(model).busy)
	})

	t.Run("ignored when running", func(t *testing.T) {
		m, _ := newTestModel(panel.RouteTraffic)
		_, cmd := m.Update(key("s"))
		assert.Nil(t, cmd)
	})
}

func TestStopRequiresConfirmation(t *testing.T) {
	m, p := newTestModel(panel.RouteTraffic)

	updated, cmd := m.Update(key("x"))
	assert.Nil(t, cmd)
	assert.Equal(t, modeConfirmStop, updated.(model).mode)

	declined, cmd := updated.Update(key("n"))
	assert.Nil(t, cmd)
	assert.Equal(t, modeNormal, declined.(model).mode)

	updated, _ = m.Update(key("x"))
	confirmed, cmd := updated.Update(key("y"))
	require.NotNil(t, cmd)
	assert.Equal(t, modeNormal, confirmed.(model).mode)
	cmd()
	require.Len(t, p.Messages(), 1)
	assert.Equal(t, panel.CmdStopServer, p.Messages()[0].Command)
}

func TestAnalysisPrompt(t *testing.T) {
	m, p := newTestModel(panel.RouteTraffic)
	m.output = []panel.OutputLine{{Text: "line one"}, {Text: "line two"}}

	updated, _ := m.Update(key("a"))
	assert.Equal(t, modePrompt, updated.(model).mode)

	for _, k := range []tea.KeyMsg{key("why"), {Type: tea.KeySpace, Runes: []rune{' '}}, key("slow"), key("x"), {Type: tea.KeyBackspace}} {
		updated, _ = updated.Update(k)
	}
	assert.Equal(t, "why slow", updated.(model).input.Value())

	updated, cmd := updated.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, modeNormal, updated.(model).mode)
	cmd()

	msgs := p.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, panel.CmdRequestLlmAnalysis, msgs[0].Command)
	assert.Equal(t, "why slow", msgs[0].Prompt)
	assert.Equal(t, "line one\nline two", msgs[0].Context)

	replied, _ := updated.Update(replyMsg{reply: panel.Reply{Command: panel.ReplyAnalysisResult, Result: "all good"}})
	assert.Equal(t, "all good", replied.(model).analysis)
}

func TestEmptyPromptIsNotSent(t *testing.T) {
	m, p := newTestModel(panel.RouteTraffic)
	updated, _ := m.Update(key("a"))
	_, cmd := updated.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, p.Messages())
}

func TestOutputIsBounded(t *testing.T) {
	m, _ := newTestModel(panel.RouteStarting)
	var updated tea.Model = m
	for _, text := range []string{"a", "b", "c", "d"} {
		updated, _ = updated.Update(outputMsg{line: panel.OutputLine{Stream: monitor.StreamStdout, Text: text}})
	}
	out := updated.(model).output
	require.Len(t, out, 3)
	assert.Equal(t, "b", out[0].Text)
}

func TestViewMsgReplacesState(t *testing.T) {
	m, _ := newTestModel(panel.RouteNotStarted)
	v := panel.View{Route: panel.RouteStarting, ShowOutput: true, Output: []panel.OutputLine{{Text: "Starting server..."}}}

	updated, _ := m.Update(viewMsg{view: v})
	got := updated.(model)
	assert.Equal(t, panel.RouteStarting, got.view.Route)
	assert.Len(t, got.output, 1)
	assert.False(t, got.lastUpdate.IsZero())
}

func TestTickSkipsEvaluationWhileBusy(t *testing.T) {
	m, p := newTestModel(panel.RouteTraffic)
	m.busy = "Stopping MCP Shark server..."

	_, cmd := m.Update(tickMsg(time.Now()))
	require.NotNil(t, cmd)
	assert.Equal(t, 0, p.evaluated)

	m.busy = ""
	_, cmd = m.Update(tickMsg(time.Now()))
	assert.NotNil(t, cmd)
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(panel.RouteNotStarted)
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
