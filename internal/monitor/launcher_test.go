package monitor

import (
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcp-shark/sharkctl/internal/config"
)

// recorder collects events delivered to an observer
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recorder) lines(stream Stream) []string {
	var out []string
	for _, e := range r.snapshot() {
		if e.Type == EventOutput && e.Stream == stream {
			out = append(out, e.Line)
		}
	}
	return out
}

func (r *recorder) waitFor(t *testing.T, typ EventType) Event {
	t.Helper()
	var found Event
	require.Eventually(t, func() bool {
		for _, e := range r.snapshot() {
			if e.Type == typ {
				found = e
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
	return found
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit")
	}
}

func TestSpecFromConfig(t *testing.T) {
	spec := SpecFromConfig(config.DefaultConfig().Launch)
	assert.Equal(t, "npx -y @mcp-shark/mcp-shark", spec.CommandLine())
	assert.True(t, spec.Shell)

	name, args := spec.argv()
	if runtime.GOOS == "windows" {
		assert.Equal(t, "cmd", name)
		assert.Equal(t, []string{"/C", "npx -y @mcp-shark/mcp-shark"}, args)
	} else {
		assert.Equal(t, "/bin/sh", name)
		assert.Equal(t, []string{"-c", "npx -y @mcp-shark/mcp-shark"}, args)
	}

	spec.Shell = false
	name, args = spec.argv()
	assert.Equal(t, "npx", name)
	assert.Equal(t, []string{"-y", "@mcp-shark/mcp-shark"}, args)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "silent", ModeSilent.String())
	assert.Equal(t, "observed", ModeObserved.String())
}

func TestObservedLaunchDeliversTaggedLinesInOrder(t *testing.T) {
	skipOnWindows(t)

	l := NewLauncher(nil)
	defer l.Close()
	rec := &recorder{}
	sub := l.Subscribe(rec)
	defer sub.Cancel()

	spec := LaunchSpec{
		Command: "for i in 1 2 3; do echo out$i; echo err$i >&2; done",
		Shell:   true,
	}
	session, err := l.Launch(spec, ModeObserved)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Positive(t, session.PID)

	waitDone(t, session)
	exited := rec.waitFor(t, EventExited)
	assert.Equal(t, 0, exited.ExitCode)

	assert.Equal(t, []string{"out1", "out2", "out3"}, rec.lines(StreamStdout))
	assert.Equal(t, []string{"err1", "err2", "err3"}, rec.lines(StreamStderr))

	events := rec.snapshot()
	assert.Equal(t, EventStarted, events[0].Type)
	assert.Equal(t, EventExited, events[len(events)-1].Type)
	for _, e := range events {
		assert.Equal(t, session.ID, e.SessionID)
	}
}

func TestNonZeroExitEmitsError(t *testing.T) {
	skipOnWindows(t)

	l := NewLauncher(nil)
	defer l.Close()
	rec := &recorder{}
	l.Subscribe(rec)

	session, err := l.Launch(LaunchSpec{Command: "exit 3", Shell: true}, ModeObserved)
	require.NoError(t, err)
	waitDone(t, session)

	ev := rec.waitFor(t, EventError)
	assert.Equal(t, 3, ev.ExitCode)
	require.NotNil(t, session.ExitInfo())
	assert.Equal(t, 3, session.ExitInfo().Code)
}

func TestSilentLaunchCapturesNothing(t *testing.T) {
	skipOnWindows(t)

	l := NewLauncher(nil)
	defer l.Close()
	rec := &recorder{}
	l.Subscribe(rec)

	session, err := l.Launch(LaunchSpec{Command: "echo hidden", Shell: true}, ModeSilent)
	require.NoError(t, err)
	waitDone(t, session)
	rec.waitFor(t, EventExited)

	assert.Empty(t, rec.lines(StreamStdout))
	assert.Equal(t, ModeSilent, session.Mode)
}

func TestSpawnErrorIsReturnedAndEmitted(t *testing.T) {
	l := NewLauncher(nil)
	defer l.Close()
	rec := &recorder{}
	l.Subscribe(rec)

	session, err := l.Launch(LaunchSpec{Command: "/definitely/not/a/binary-mcp-shark"}, ModeObserved)
	require.Error(t, err)
	assert.Nil(t, session)

	var spawnErr *SpawnError
	require.True(t, errors.As(err, &spawnErr))
	assert.Equal(t, "/definitely/not/a/binary-mcp-shark", spawnErr.Command)

	ev := rec.waitFor(t, EventError)
	assert.Equal(t, StreamStderr, ev.Stream)
	assert.ErrorAs(t, ev.Err, &spawnErr)
}

func TestEmitPreservesOrder(t *testing.T) {
	l := NewLauncher(nil)
	defer l.Close()
	rec := &recorder{}
	l.Subscribe(rec)

	for i := 0; i < 100; i++ {
		stream := StreamStdout
		if i%2 == 1 {
			stream = StreamStderr
		}
		l.Emit(OutputLine(stream, string(rune('a'+i%26))))
	}

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 100 }, time.Second, 5*time.Millisecond)
	for i, e := range rec.snapshot() {
		assert.Equal(t, string(rune('a'+i%26)), e.Line)
		if i%2 == 1 {
			assert.Equal(t, StreamStderr, e.Stream)
		} else {
			assert.Equal(t, StreamStdout, e.Stream)
		}
	}
}

func TestEventsWithoutObserverAreDropped(t *testing.T) {
	l := NewLauncher(nil)
	defer l.Close()

	assert.False(t, l.HasObserver())
	l.Emit(OutputLine(StreamStdout, "lost"))

	rec := &recorder{}
	l.Subscribe(rec)
	l.Emit(OutputLine(StreamStdout, "kept"))

	require.Eventually(t, func() bool { return len(rec.snapshot()) >= 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"kept"}, rec.lines(StreamStdout))
}

func TestSubscriptionCancelOnlyClearsOwnSlot(t *testing.T) {
	l := NewLauncher(nil)
	defer l.Close()

	first := &recorder{}
	second := &recorder{}

	subFirst := l.Subscribe(first)
	subSecond := l.Subscribe(second)

	// A stale subscription must not remove its replacement
	subFirst.Cancel()
	assert.True(t, l.HasObserver())

	l.Emit(OutputLine(StreamStdout, "to-second"))
	require.Eventually(t, func() bool { return len(second.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, first.snapshot())

	subSecond.Cancel()
	subSecond.Cancel()
	assert.False(t, l.HasObserver())
}

func TestObserverFunc(t *testing.T) {
	l := NewLauncher(nil)
	defer l.Close()

	got := make(chan Event, 1)
	l.Subscribe(ObserverFunc(func(e Event) { got <- e }))
	l.Emit(OutputLine(StreamStderr, "x"))

	select {
	case e := <-got:
		assert.Equal(t, "x", e.Line)
		assert.False(t, e.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestEmitAfterCloseDoesNotBlock(t *testing.T) {
	l := NewLauncher(nil)
	l.Close()
	l.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < eventBufferSize*2; i++ {
			l.Emit(OutputLine(StreamStdout, "x"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked after Close")
	}
}

// stuckObserver blocks on every event until released
type stuckObserver struct {
	release chan struct{}
}

func (o *stuckObserver) OnEvent(Event) { <-o.release }

func TestSlowObserverDoesNotStallServerOutput(t *testing.T) {
	skipOnWindows(t)

	l := NewLauncher(nil)
	obs := &stuckObserver{release: make(chan struct{})}
	t.Cleanup(func() {
		close(obs.release)
		l.Close()
	})
	l.Subscribe(obs)

	// Far more output than the event queue and the pipe buffer hold together
	spec := LaunchSpec{
		Command: `i=0; while [ $i -lt 20000 ]; do echo "line $i of server output padded to roughly eighty five bytes......"; i=$((i+1)); done`,
		Shell:   true,
	}
	session, err := l.Launch(spec, ModeObserved)
	require.NoError(t, err)

	select {
	case <-session.Done():
	case <-time.After(15 * time.Second):
		t.Fatal("server blocked on its output while the observer was stuck")
	}
	assert.Positive(t, l.Dropped())
}

func TestEmitDropsWhenQueueIsFull(t *testing.T) {
	l := NewLauncher(nil)
	obs := &stuckObserver{release: make(chan struct{})}
	t.Cleanup(func() {
		close(obs.release)
		l.Close()
	})
	l.Subscribe(obs)

	done := make(chan struct{})
	go func() {
		for i := 0; i < eventBufferSize*4; i++ {
			l.Emit(OutputLine(StreamStdout, "x"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full queue")
	}
	// One event is held by the stuck observer, the queue holds the rest
	assert.GreaterOrEqual(t, l.Dropped(), int64(eventBufferSize*4-eventBufferSize-1))
}
