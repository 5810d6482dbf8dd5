// Package monitor spawns the MCP Shark server, routes its output to a single
// observer and terminates whatever process owns the server port.
package monitor

import (
	"bufio"
	"errors"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mcp-shark/sharkctl/internal/config"
)

const (
	eventBufferSize = 256
	maxLineSize     = 1 << 20
)

// LaunchSpec is the command line used to spawn the server
type LaunchSpec struct {
	Command    string
	Args       []string
	Shell      bool
	Env        []string
	WorkingDir string
}

// SpecFromConfig converts launch configuration into a LaunchSpec
func SpecFromConfig(cfg config.LaunchConfig) LaunchSpec {
	env := make([]string, 0, len(cfg.Env))
	for k, v := range cfg.Env {
		env = append(env, k+"="+v)
	}
	return LaunchSpec{
		Command:    cfg.Command,
		Args:       append([]string(nil), cfg.Args...),
		Shell:      cfg.Shell,
		Env:        env,
		WorkingDir: cfg.WorkingDir,
	}
}

// CommandLine returns the command followed by its shell-quoted arguments
func (s LaunchSpec) CommandLine() string {
	return config.ShellJoin(s.Command, s.Args)
}

func (s LaunchSpec) argv() (string, []string) {
	if !s.Shell {
		return s.Command, s.Args
	}
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C", strings.Join(append([]string{s.Command}, s.Args...), " ")}
	}
	return "/bin/sh", []string{"-c", s.CommandLine()}
}

// Session is one spawn attempt
type Session struct {
	ID        string
	PID       int
	Mode      Mode
	Command   string
	StartedAt time.Time

	done chan struct{}
	mu   sync.RWMutex
	exit *ExitInfo
}

func newSession(mode Mode, command string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Mode:      mode,
		Command:   command,
		StartedAt: time.Now(),
		done:      make(chan struct{}),
	}
}

// Done is closed once the process has exited
func (s *Session) Done() <-chan struct{} { return s.done }

// ExitInfo returns nil while the process is still running
func (s *Session) ExitInfo() *ExitInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exit
}

func (s *Session) finish(info *ExitInfo) {
	s.mu.Lock()
	s.exit = info
	s.mu.Unlock()
	close(s.done)
}

// Subscription is the handle returned by Launcher.Subscribe
type Subscription struct {
	launcher *Launcher
	id       uint64
	once     sync.Once
}

// Cancel clears the observer slot if this subscription still holds it.
// It is safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		l := s.launcher
		if l == nil {
			return
		}
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.activeSub == s.id {
			l.observer = nil
			l.activeSub = 0
		}
	})
}

// LauncherOption configures a Launcher
type LauncherOption func(*Launcher)

// WithOutputLog records every captured line to logger
func WithOutputLog(logger *zap.Logger) LauncherOption {
	return func(l *Launcher) { l.outputLog = logger }
}

// Launcher spawns processes and delivers their events to at most one observer.
// Events reach the observer in the order they arrived; events arriving while no
// observer is registered are dropped.
type Launcher struct {
	logger    *zap.SugaredLogger
	outputLog *zap.Logger

	mu        sync.Mutex
	observer  Observer
	activeSub uint64
	nextSub   uint64

	events    chan Event
	dropped   atomic.Int64
	closed    chan struct{}
	closeOnce sync.Once
}

// NewLauncher creates a launcher and starts its dispatcher
func NewLauncher(logger *zap.SugaredLogger, opts ...LauncherOption) *Launcher {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	l := &Launcher{
		logger: logger,
		events: make(chan Event, eventBufferSize),
		closed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	go l.dispatch()
	return l
}

// Subscribe registers o as the only observer, replacing any previous one
func (l *Launcher) Subscribe(o Observer) *Subscription {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextSub++
	l.observer = o
	l.activeSub = l.nextSub
	return &Subscription{launcher: l, id: l.nextSub}
}

// HasObserver reports whether an observer is registered
func (l *Launcher) HasObserver() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.observer != nil
}

// Emit queues an event for the observer behind any events already queued.
// It never blocks. When the queue is full the event is dropped and counted,
// so a slow observer cannot stall the server's output pipes.
func (l *Launcher) Emit(e Event) {
	if !l.HasObserver() {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	select {
	case <-l.closed:
		return
	default:
	}
	select {
	case l.events <- e:
	default:
		dropped := l.dropped.Add(1)
		l.logger.Debugw("Event queue full, dropping event",
			"type", e.Type,
			"session_id", e.SessionID,
			"dropped_total", dropped)
	}
}

// Dropped returns how many events were discarded because the queue was full
func (l *Launcher) Dropped() int64 {
	return l.dropped.Load()
}

// Close stops event delivery. Running processes are left alone.
func (l *Launcher) Close() {
	l.closeOnce.Do(func() { close(l.closed) })
}

func (l *Launcher) dispatch() {
	for {
		select {
		case e := <-l.events:
			l.mu.Lock()
			obs := l.observer
			l.mu.Unlock()
			if obs != nil {
				obs.OnEvent(e)
			}
		case <-l.closed:
			return
		}
	}
}

// Launch spawns spec without blocking. The child is placed in its own process
// group and is never killed by the launcher. A spawn failure is returned as a
// *SpawnError and also emitted as an error event.
func (l *Launcher) Launch(spec LaunchSpec, mode Mode) (*Session, error) {
	name, args := spec.argv()
	session := newSession(mode, spec.CommandLine())

	cmd := exec.Command(name, args...)
	if spec.WorkingDir != "" {
		cmd.Dir = spec.WorkingDir
	}
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	detach(cmd)

	l.logger.Infow("Starting MCP Shark server",
		"command", session.Command,
		"mode", mode,
		"session_id", session.ID,
		"working_dir", spec.WorkingDir)

	var stdout, stderr io.ReadCloser
	if mode == ModeObserved {
		var err error
		if stdout, err = cmd.StdoutPipe(); err != nil {
			return nil, l.spawnFailed(session, err)
		}
		if stderr, err = cmd.StderrPipe(); err != nil {
			return nil, l.spawnFailed(session, err)
		}
	}

	if err := cmd.Start(); err != nil {
		return nil, l.spawnFailed(session, err)
	}

	session.PID = cmd.Process.Pid
	l.logger.Infow("MCP Shark server process started",
		"pid", session.PID,
		"session_id", session.ID)

	l.Emit(Event{Type: EventStarted, SessionID: session.ID, PID: session.PID})

	var readers sync.WaitGroup
	if mode == ModeObserved {
		readers.Add(2)
		go l.capture(session, stdout, StreamStdout, &readers)
		go l.capture(session, stderr, StreamStderr, &readers)
	}

	go l.wait(cmd, session, &readers)

	return session, nil
}

func (l *Launcher) spawnFailed(session *Session, err error) error {
	spawnErr := &SpawnError{Command: session.Command, Err: err}
	l.logger.Errorw("Failed to start MCP Shark server",
		"command", session.Command,
		"session_id", session.ID,
		"error", err)

	l.Emit(Event{
		Type:      EventError,
		SessionID: session.ID,
		Stream:    StreamStderr,
		Line:      spawnErr.Error(),
		Err:       spawnErr,
	})
	session.finish(&ExitInfo{Code: -1, Err: spawnErr, Timestamp: time.Now()})
	return spawnErr
}

// capture splits a pipe into lines and emits each as an output event
func (l *Launcher) capture(session *Session, pipe io.ReadCloser, stream Stream, done *sync.WaitGroup) {
	defer done.Done()
	defer pipe.Close()

	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		l.Emit(Event{
			Type:      EventOutput,
			SessionID: session.ID,
			PID:       session.PID,
			Stream:    stream,
			Line:      line,
		})

		if l.outputLog != nil {
			l.outputLog.Info(line, zap.String("stream", string(stream)), zap.String("session_id", session.ID))
		}
		l.logger.Debugw("Server output", "stream", stream, "line", line)
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		l.logger.Warnw("Error reading server output", "stream", stream, "error", err)
	}
}

// wait reaps the process once its output has been drained
func (l *Launcher) wait(cmd *exec.Cmd, session *Session, readers *sync.WaitGroup) {
	readers.Wait()
	err := cmd.Wait()

	info := &ExitInfo{Timestamp: time.Now(), Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		info.Code = exitErr.ExitCode()
		info.Signal = exitSignal(exitErr)
	} else if err != nil {
		info.Code = -1
	}

	event := Event{
		SessionID: session.ID,
		PID:       session.PID,
		ExitCode:  info.Code,
		Err:       err,
	}
	if err == nil {
		event.Type = EventExited
		event.Line = "MCP Shark server process exited"
		l.logger.Infow("MCP Shark server process exited normally",
			"pid", session.PID,
			"runtime", time.Since(session.StartedAt))
	} else {
		event.Type = EventError
		event.Stream = StreamStderr
		event.Line = "MCP Shark server process exited: " + err.Error()
		l.logger.Warnw("MCP Shark server process exited with error",
			"pid", session.PID,
			"exit_code", info.Code,
			"signal", info.Signal,
			"error", err,
			"runtime", time.Since(session.StartedAt))
	}

	l.Emit(event)
	session.finish(info)
}
