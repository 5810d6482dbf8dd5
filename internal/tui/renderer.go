package tui

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mcp-shark/sharkctl/internal/panel"
)

// Renderer forwards panel updates into a running Bubble Tea program.
// Updates sent before Attach are dropped.
type Renderer struct {
	mu      sync.RWMutex
	program *tea.Program
}

// NewRenderer creates a detached renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Attach routes later updates to p
func (r *Renderer) Attach(p *tea.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.program = p
}

func (r *Renderer) send(msg tea.Msg) {
	r.mu.RLock()
	p := r.program
	r.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

// Render implements panel.Renderer
func (r *Renderer) Render(v panel.View) { r.send(viewMsg{view: v}) }

// AppendOutput implements panel.Renderer
func (r *Renderer) AppendOutput(line panel.OutputLine) { r.send(outputMsg{line: line}) }

// Post implements panel.Renderer
func (r *Renderer) Post(reply panel.Reply) { r.send(replyMsg{reply: reply}) }

// Run shows the panel opened by build in the terminal until the user quits or
// ctx is cancelled. The panel is disposed on return; the server keeps running.
func Run(ctx context.Context, build func(panel.Renderer) Panel, inspectorURL string, outputLimit int, opts ...tea.ProgramOption) error {
	renderer := NewRenderer()
	p := build(renderer)
	defer p.Dispose()

	all := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	program := tea.NewProgram(NewModel(ctx, p, inspectorURL, outputLimit), all...)
	renderer.Attach(program)

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
