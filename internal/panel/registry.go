package panel

import (
	"context"
	"sync"
)

// Registry keeps at most one open panel
type Registry struct {
	mu     sync.Mutex
	active *Panel
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Show reveals the open panel, re-evaluating it, or opens a new one built by
// create. The boolean is true when a new panel was opened.
func (r *Registry) Show(ctx context.Context, create func() *Panel) (*Panel, bool) {
	r.mu.Lock()
	if existing := r.active; existing != nil && !existing.Disposed() {
		r.mu.Unlock()
		existing.Evaluate(ctx)
		return existing, false
	}

	p := create()
	r.active = p
	r.mu.Unlock()

	p.OnDispose(func() { r.release(p) })
	p.Open(ctx)
	return p, true
}

// Active returns the open panel or nil
func (r *Registry) Active() *Panel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *Registry) release(p *Panel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == p {
		r.active = nil
	}
}
