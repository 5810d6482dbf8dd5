package panel

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mcp-shark/sharkctl/internal/config"
	"github.com/mcp-shark/sharkctl/internal/lifecycle"
	"github.com/mcp-shark/sharkctl/internal/llm"
	"github.com/mcp-shark/sharkctl/internal/monitor"
)

type fakeController struct {
	running     atomic.Bool
	setup       atomic.Bool
	ensureCalls atomic.Int32
	stopCalls   atomic.Int32
	onEnsure    func(ctx context.Context, sink monitor.Observer) bool
	stopOutcome lifecycle.StopOutcome
	onStop      func()
}

func (c *fakeController) IsRunning(context.Context) bool       { return c.running.Load() }
func (c *fakeController) IsSetupComplete(context.Context) bool { return c.setup.Load() }

func (c *fakeController) EnsureRunning(ctx context.Context, _ lifecycle.ConfirmFunc, sink monitor.Observer) bool {
	c.ensureCalls.Add(1)
	if c.onEnsure != nil {
		return c.onEnsure(ctx, sink)
	}
	return c.running.Load()
}

func (c *fakeController) StopServer(context.Context, lifecycle.ConfirmFunc) lifecycle.StopOutcome {
	c.stopCalls.Add(1)
	if c.onStop != nil {
		c.onStop()
	}
	if c.stopOutcome == "" {
		return lifecycle.StopStopped
	}
	return c.stopOutcome
}

type fakeRenderer struct {
	mu      sync.Mutex
	views   []View
	lines   []OutputLine
	replies []Reply
}

func (r *fakeRenderer) Render(v View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
}

func (r *fakeRenderer) AppendOutput(line OutputLine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

func (r *fakeRenderer) Post(reply Reply) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, reply)
}

func (r *fakeRenderer) Views() []View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]View(nil), r.views...)
}

func (r *fakeRenderer) Last() View {
	views := r.Views()
	if len(views) == 0 {
		return View{}
	}
	return views[len(views)-1]
}

func (r *fakeRenderer) Replies() []Reply {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Reply(nil), r.replies...)
}

func (r *fakeRenderer) Lines() []OutputLine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]OutputLine(nil), r.lines...)
}

type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.sleeps = append(s.sleeps, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) Sleeps() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.sleeps...)
}

type fakeAnalyzer struct {
	prompt, context string
}

func (a *fakeAnalyzer) Analyze(_ context.Context, prompt, contextText string) llm.Outcome {
	a.prompt, a.context = prompt, contextText
	return llm.Outcome{Result: "looks fine"}
}

type recordedRoutes struct {
	mu     sync.Mutex
	routes []string
}

func (r *recordedRoutes) RecordRoute(route string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

func newTestPanel(t *testing.T, ctrl *fakeController, opts ...Option) (*Panel, *fakeRenderer, *sleepRecorder) {
	t.Helper()
	renderer := &fakeRenderer{}
	sleeper := &sleepRecorder{}
	all := append([]Option{
		WithTimings(config.DefaultConfig().Panel),
		WithSleeper(sleeper.Sleep),
	}, opts...)
	p := New(ctrl, renderer, all...)
	t.Cleanup(p.Dispose)
	return p, renderer, sleeper
}

func TestDecide(t *testing.T) {
	tests := []struct {
		reachable, setup bool
		want             Route
	}{
		{false, false, RouteNotStarted},
		{false, true, RouteNotStarted},
		{true, false, RouteSetup},
		{true, true, RouteTraffic},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Decide(tt.reachable, tt.setup), "reachable=%v setup=%v", tt.reachable, tt.setup)
	}
}

func TestDecideProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		reachable := rapid.Bool().Draw(t, "reachable")
		setup := rapid.Bool().Draw(t, "setup")

		route := Decide(reachable, setup)
		if route == RouteStarting {
			t.Fatalf("Decide never returns %q", RouteStarting)
		}
		if route != Decide(reachable, setup) {
			t.Fatalf("Decide is not deterministic")
		}
		if route.Ready() != reachable {
			t.Fatalf("Ready()=%v for reachable=%v", route.Ready(), reachable)
		}
		if reachable && (route == RouteTraffic) != setup {
			t.Fatalf("traffic shown with setup=%v", setup)
		}
	})
}

func TestOpenRendersInitialRoute(t *testing.T) {
	tests := []struct {
		name           string
		running, setup bool
		want           Route
	}{
		{"not running", false, true, RouteNotStarted},
		{"setup pending", true, false, RouteSetup},
		{"ready", true, true, RouteTraffic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &fakeController{}
			ctrl.running.Store(tt.running)
			ctrl.setup.Store(tt.setup)
			routes := &recordedRoutes{}
			p, renderer, _ := newTestPanel(t, ctrl, WithRouteRecorder(routes))

			assert.Equal(t, tt.want, p.Open(context.Background()))
			assert.Equal(t, tt.want, renderer.Last().Route)
			assert.False(t, renderer.Last().ShowOutput)
			assert.Equal(t, []string{string(tt.want)}, routes.routes)
		})
	}
}

func TestStartServerFlow(t *testing.T) {
	ctrl := &fakeController{}
	ctrl.setup.Store(true)
	ctrl.onEnsure = func(_ context.Context, sink monitor.Observer) bool {
		sink.OnEvent(monitor.OutputLine(monitor.StreamStdout, "listening on 9853"))
		ctrl.running.Store(true)
		return true
	}
	p, renderer, sleeper := newTestPanel(t, ctrl)
	p.Open(context.Background())

	p.Handle(context.Background(), Message{Command: CmdStartServer})

	views := renderer.Views()
	require.Len(t, views, 3)
	starting := views[1]
	assert.Equal(t, RouteStarting, starting.Route)
	assert.True(t, starting.ShowOutput)
	require.Len(t, starting.Output, 1)
	assert.Equal(t, MsgStartingOutput, starting.Output[0].Text)

	assert.Equal(t, RouteTraffic, views[2].Route)
	assert.Equal(t, []time.Duration{3 * time.Second}, sleeper.Sleeps())

	lines := renderer.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "listening on 9853", lines[0].Text)
	assert.Len(t, p.View().Output, 2)
}

func TestStartServerStillStarting(t *testing.T) {
	ctrl := &fakeController{}
	p, renderer, _ := newTestPanel(t, ctrl)
	p.Open(context.Background())

	p.Handle(context.Background(), Message{Command: CmdStartServer})

	last := renderer.Last()
	assert.Equal(t, RouteNotStarted, last.Route)
	assert.Equal(t, MsgStillStarting, last.Message)
	assert.True(t, last.ShowOutput)
	assert.Equal(t, int32(1), ctrl.ensureCalls.Load())
}

func TestCheckStatus(t *testing.T) {
	t.Run("not started posts a status update", func(t *testing.T) {
		ctrl := &fakeController{}
		p, renderer, _ := newTestPanel(t, ctrl)
		p.Open(context.Background())

		p.Handle(context.Background(), Message{Command: CmdCheckStatus})

		assert.Len(t, renderer.Views(), 1)
		replies := renderer.Replies()
		require.Len(t, replies, 1)
		assert.Equal(t, ReplyStatusUpdate, replies[0].Command)
		require.NotNil(t, replies[0].Running)
		assert.False(t, *replies[0].Running)
	})

	t.Run("server went away", func(t *testing.T) {
		ctrl := &fakeController{}
		ctrl.running.Store(true)
		p, renderer, _ := newTestPanel(t, ctrl)
		p.Open(context.Background())
		ctrl.running.Store(false)

		p.Handle(context.Background(), Message{Command: CmdCheckStatus})

		assert.Equal(t, RouteNotStarted, renderer.Last().Route)
		assert.Equal(t, MsgServerGone, renderer.Last().Message)
	})

	t.Run("server appeared", func(t *testing.T) {
		ctrl := &fakeController{}
		p, renderer, _ := newTestPanel(t, ctrl)
		p.Open(context.Background())
		ctrl.running.Store(true)

		assert.Equal(t, RouteSetup, p.Evaluate(context.Background()))
		assert.Equal(t, RouteSetup, renderer.Last().Route)
	})
}

func TestStopServer(t *testing.T) {
	t.Run("stopped", func(t *testing.T) {
		ctrl := &fakeController{}
		ctrl.running.Store(true)
		ctrl.onStop = func() { ctrl.running.Store(false) }
		p, renderer, sleeper := newTestPanel(t, ctrl)
		p.Open(context.Background())

		p.Handle(context.Background(), Message{Command: CmdStopServer})

		assert.Equal(t, RouteNotStarted, renderer.Last().Route)
		assert.Equal(t, MsgServerStopped, renderer.Last().Message)
		assert.Equal(t, []time.Duration{2 * time.Second}, sleeper.Sleeps())
	})

	t.Run("declined", func(t *testing.T) {
		ctrl := &fakeController{stopOutcome: lifecycle.StopDeclined}
		ctrl.running.Store(true)
		p, renderer, sleeper := newTestPanel(t, ctrl)
		p.Open(context.Background())

		p.Handle(context.Background(), Message{Command: CmdStopServer})

		assert.Len(t, renderer.Views(), 1)
		assert.Empty(t, sleeper.Sleeps())
	})

	t.Run("still running", func(t *testing.T) {
		ctrl := &fakeController{stopOutcome: lifecycle.StopStillRunning}
		ctrl.running.Store(true)
		ctrl.setup.Store(true)
		p, renderer, _ := newTestPanel(t, ctrl)
		p.Open(context.Background())

		p.Handle(context.Background(), Message{Command: CmdStopServer})

		assert.Equal(t, RouteTraffic, renderer.Last().Route)
	})
}

func TestRequestAnalysis(t *testing.T) {
	t.Run("without analyzer", func(t *testing.T) {
		p, renderer, _ := newTestPanel(t, &fakeController{})
		p.Handle(context.Background(), Message{Command: CmdRequestLlmAnalysis, Prompt: "why?"})

		replies := renderer.Replies()
		require.Len(t, replies, 1)
		assert.Equal(t, ReplyAnalysisResult, replies[0].Command)
		assert.Equal(t, MsgNoAnalyzer, replies[0].Error)
	})

	t.Run("with analyzer", func(t *testing.T) {
		analyzer := &fakeAnalyzer{}
		p, renderer, _ := newTestPanel(t, &fakeController{}, WithAnalyzer(analyzer))
		p.Handle(context.Background(), Message{Command: CmdRequestLlmAnalysis, Prompt: "why?", Context: "trace"})

		replies := renderer.Replies()
		require.Len(t, replies, 1)
		assert.Equal(t, "looks fine", replies[0].Result)
		assert.Empty(t, replies[0].Error)
		assert.Equal(t, "why?", analyzer.prompt)
		assert.Equal(t, "trace", analyzer.context)
	})
}

func TestOutputBufferIsBounded(t *testing.T) {
	timings := config.DefaultConfig().Panel
	timings.OutputLines = 3
	p, renderer, _ := newTestPanel(t, &fakeController{}, WithTimings(timings))

	for _, line := range []string{"a", "b", "c", "d", "e"} {
		p.OnEvent(monitor.OutputLine(monitor.StreamStdout, line))
	}
	p.OnEvent(monitor.Event{Type: monitor.EventStarted, PID: 7})

	out := p.View().Output
	require.Len(t, out, 3)
	assert.Equal(t, "d", out[0].Text)
	assert.Equal(t, "Process started (PID 7)", out[2].Text)
	assert.Len(t, renderer.Lines(), 6)
}

func TestDisposeDetachesOutput(t *testing.T) {
	launcher := monitor.NewLauncher(nil)
	defer launcher.Close()

	ctrl := &fakeController{}
	p, renderer, _ := newTestPanel(t, ctrl, WithOutputSource(launcher))
	p.Open(context.Background())
	require.True(t, launcher.HasObserver())

	p.Dispose()
	p.Dispose()

	assert.False(t, launcher.HasObserver())
	assert.True(t, p.Disposed())

	ctrl.running.Store(true)
	p.Evaluate(context.Background())
	p.OnEvent(monitor.OutputLine(monitor.StreamStdout, "late"))
	assert.Len(t, renderer.Views(), 1)
	assert.Empty(t, renderer.Lines())
}

func TestDisposeCancelsPendingStart(t *testing.T) {
	ctrl := &fakeController{}
	entered := make(chan struct{})
	ctrl.onEnsure = func(ctx context.Context, _ monitor.Observer) bool {
		close(entered)
		<-ctx.Done()
		return false
	}
	p, renderer, _ := newTestPanel(t, ctrl, WithSleeper(lifecycle.Sleep))
	p.Open(context.Background())

	done := make(chan struct{})
	go func() {
		p.Handle(context.Background(), Message{Command: CmdStartServer})
		close(done)
	}()

	<-entered
	p.Dispose()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("start flow did not return after dispose")
	}
	assert.Equal(t, RouteStarting, renderer.Last().Route)
}

func TestRegistryKeepsOnePanel(t *testing.T) {
	ctrl := &fakeController{}
	registry := NewRegistry()
	created := 0
	create := func() *Panel {
		created++
		return New(ctrl, &fakeRenderer{})
	}

	first, opened := registry.Show(context.Background(), create)
	assert.True(t, opened)
	second, opened := registry.Show(context.Background(), create)
	assert.False(t, opened)
	assert.Same(t, first, second)
	assert.Equal(t, 1, created)
	assert.Same(t, first, registry.Active())

	first.Dispose()
	assert.Nil(t, registry.Active())

	third, opened := registry.Show(context.Background(), create)
	assert.True(t, opened)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, created)
	third.Dispose()
}

type countingEvaluator struct {
	calls atomic.Int32
}

func (e *countingEvaluator) Evaluate(context.Context) Route {
	if e.calls.Add(1)%2 == 0 {
		return RouteTraffic
	}
	return RouteNotStarted
}

func TestWatcherTicksUntilCancelled(t *testing.T) {
	target := &countingEvaluator{}
	w := NewWatcher(target, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return target.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
