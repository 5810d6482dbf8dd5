package tui

import (
	"context"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mcp-shark/sharkctl/internal/panel"
)

const (
	defaultOutputLimit = 500
	analysisContext    = 50
	promptCharLimit    = 500
)

// Panel is the panel API the TUI drives. The panel is already open.
type Panel interface {
	Handle(ctx context.Context, msg panel.Message)
	Evaluate(ctx context.Context) panel.Route
	StatusCheckInterval() time.Duration
	Dispose()
}

// uiMode tracks which input the keyboard is feeding
type uiMode int

const (
	modeNormal uiMode = iota
	modeConfirmStop
	modePrompt
)

// model is the main Bubble Tea model
type model struct {
	panel Panel
	ctx   context.Context

	// UI state
	mode    uiMode
	input   textinput.Model
	spinner spinner.Model
	busy    string
	notice  string
	width   int
	height  int

	// Data
	view         panel.View
	output       []panel.OutputLine
	outputLimit  int
	inspectorURL string
	analysis     string
	analysisErr  string
	lastUpdate   time.Time

	refreshInterval time.Duration
}

// Messages

type viewMsg struct {
	view panel.View
}

type outputMsg struct {
	line panel.OutputLine
}

type replyMsg struct {
	reply panel.Reply
}

type doneMsg struct {
	command string
}

type evaluatedMsg struct {
	route panel.Route
}

type tickMsg time.Time

// Commands

func handleCmd(ctx context.Context, p Panel, msg panel.Message) tea.Cmd {
	return func() tea.Msg {
		p.Handle(ctx, msg)
		return doneMsg{command: msg.Command}
	}
}

func evaluateCmd(ctx context.Context, p Panel) tea.Cmd {
	return func() tea.Msg {
		return evaluatedMsg{route: p.Evaluate(ctx)}
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// NewModel creates a model driving p. inspectorURL is shown once the server
// is running; outputLimit bounds the output pane.
func NewModel(ctx context.Context, p Panel, inspectorURL string, outputLimit int) model {
	if outputLimit <= 0 {
		outputLimit = defaultOutputLimit
	}

	input := textinput.New()
	input.Prompt = "Ask: "
	input.Placeholder = "what is slowing this server down?"
	input.CharLimit = promptCharLimit

	return model{
		panel:           p,
		ctx:             ctx,
		input:           input,
		spinner:         spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(SuccessStyle)),
		view:            panel.View{Route: panel.RouteNotStarted},
		outputLimit:     outputLimit,
		inspectorURL:    inspectorURL,
		refreshInterval: p.StatusCheckInterval(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		evaluateCmd(m.ctx, m.panel),
		tickCmd(m.refreshInterval),
		m.spinner.Tick,
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case viewMsg:
		m.view = msg.view
		m.output = msg.view.Output
		m.lastUpdate = time.Now()
		return m, nil

	case outputMsg:
		m.output = append(m.output, msg.line)
		if over := len(m.output) - m.outputLimit; over > 0 {
			m.output = append([]panel.OutputLine(nil), m.output[over:]...)
		}
		return m, nil

	case replyMsg:
		switch msg.reply.Command {
		case panel.ReplyStatusUpdate:
			m.lastUpdate = time.Now()
		case panel.ReplyAnalysisResult:
			m.notice = ""
			m.analysis = msg.reply.Result
			m.analysisErr = msg.reply.Error
		}
		return m, nil

	case doneMsg:
		m.busy = ""
		return m, nil

	case evaluatedMsg:
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		// Leave a running flow alone; it re-evaluates when it finishes
		if m.busy != "" {
			return m, tickCmd(m.refreshInterval)
		}
		return m, tea.Batch(
			evaluateCmd(m.ctx, m.panel),
			tickCmd(m.refreshInterval),
		)
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeConfirmStop:
		return m.handleConfirmKey(msg)
	case modePrompt:
		return m.handlePromptKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "s":
		if m.busy == "" && !m.view.Route.Ready() {
			m.busy = "Starting MCP Shark server..."
			return m, handleCmd(m.ctx, m.panel, panel.Message{Command: panel.CmdStartServer})
		}

	case "x":
		if m.busy == "" && m.view.Route.Ready() {
			m.mode = modeConfirmStop
		}

	case "r":
		if m.busy == "" {
			return m, handleCmd(m.ctx, m.panel, panel.Message{Command: panel.CmdCheckStatus})
		}

	case "a":
		if m.busy == "" {
			m.mode = modePrompt
			m.input.Reset()
			return m, m.input.Focus()
		}

	case "c":
		m.analysis = ""
		m.analysisErr = ""
		m.notice = ""

	case "y":
		if m.analysis == "" {
			return m, nil
		}
		if err := clipboard.WriteAll(m.analysis); err != nil {
			m.notice = "Copy failed: " + err.Error()
		} else {
			m.notice = "Analysis copied to clipboard"
		}
	}

	return m, nil
}

func (m model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeNormal
	switch msg.String() {
	case "y", "Y", "enter":
		m.busy = "Stopping MCP Shark server..."
		return m, handleCmd(m.ctx, m.panel, panel.Message{Command: panel.CmdStopServer})
	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyEsc:
		m.mode = modeNormal
		m.input.Reset()
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		prompt := strings.TrimSpace(m.input.Value())
		m.mode = modeNormal
		m.input.Reset()
		m.input.Blur()
		if prompt == "" {
			return m, nil
		}
		m.busy = "Analyzing..."
		m.analysis = ""
		m.analysisErr = ""
		return m, handleCmd(m.ctx, m.panel, panel.Message{
			Command: panel.CmdRequestLlmAnalysis,
			Prompt:  prompt,
			Context: m.recentOutput(analysisContext),
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// recentOutput joins the last n output lines for use as analysis context
func (m model) recentOutput(n int) string {
	lines := m.output
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	texts := make([]string, 0, len(lines))
	for _, l := range lines {
		texts = append(texts, l.Text)
	}
	return strings.Join(texts, "\n")
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	return renderView(m)
}
