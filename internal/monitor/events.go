package monitor

import (
	"fmt"
	"time"
)

// EventType identifies what happened to a launch session
type EventType string

const (
	EventOutput  EventType = "output"
	EventStarted EventType = "started"
	EventExited  EventType = "exited"
	EventError   EventType = "error"
)

// Stream tags an output line with the pipe it arrived on
type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

// Event is delivered to the registered observer in arrival order
type Event struct {
	Type      EventType
	SessionID string
	Line      string
	Stream    Stream
	PID       int
	ExitCode  int
	Err       error
	Timestamp time.Time
}

// OutputLine builds a synthetic output event, e.g. progress lines emitted by the controller
func OutputLine(stream Stream, line string) Event {
	return Event{Type: EventOutput, Stream: stream, Line: line, Timestamp: time.Now()}
}

// Observer receives launcher events. OnEvent is called from a single goroutine.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

// Mode selects how a process is spawned
type Mode int

const (
	// ModeSilent detaches the process and discards its output
	ModeSilent Mode = iota
	// ModeObserved pipes stdout/stderr to the registered observer
	ModeObserved
)

func (m Mode) String() string {
	switch m {
	case ModeSilent:
		return "silent"
	case ModeObserved:
		return "observed"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ExitInfo contains information about process exit
type ExitInfo struct {
	Code      int
	Signal    string
	Err       error
	Timestamp time.Time
}

// SpawnError is returned when the OS could not create the process
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %q: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }
