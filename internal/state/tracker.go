package state

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Transition represents a phase change
type Transition struct {
	From      Phase
	To        Phase
	Expected  bool
	Timestamp time.Time
}

// Recorder receives every transition, e.g. for metrics
type Recorder interface {
	RecordPhaseTransition(from, to string)
}

// Tracker records the current phase. Overlapping operations may interleave,
// so unexpected transitions are logged and applied rather than rejected.
type Tracker struct {
	mu       sync.RWMutex
	current  Phase
	since    time.Time
	logger   *zap.SugaredLogger
	recorder Recorder

	subscribersMu sync.RWMutex
	subscribers   []chan Transition
}

// NewTracker creates a tracker in PhaseUnknown
func NewTracker(logger *zap.SugaredLogger, recorder Recorder) *Tracker {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Tracker{
		current:  PhaseUnknown,
		since:    time.Now(),
		logger:   logger,
		recorder: recorder,
	}
}

// Current returns the current phase and when it was entered
func (t *Tracker) Current() (Phase, time.Time) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current, t.since
}

// Phase returns the current phase
func (t *Tracker) Phase() Phase {
	p, _ := t.Current()
	return p
}

// Set moves the tracker to phase. Setting the current phase again is a no-op.
func (t *Tracker) Set(phase Phase) {
	t.mu.Lock()
	from := t.current
	if from == phase {
		t.mu.Unlock()
		return
	}
	t.current = phase
	t.since = time.Now()
	t.mu.Unlock()

	tr := Transition{
		From:      from,
		To:        phase,
		Expected:  CanTransition(from, phase),
		Timestamp: time.Now(),
	}

	if tr.Expected {
		t.logger.Debugw("Lifecycle phase changed", "from", from, "to", phase)
	} else {
		t.logger.Debugw("Unexpected lifecycle phase change", "from", from, "to", phase)
	}

	if t.recorder != nil {
		t.recorder.RecordPhaseTransition(string(from), string(phase))
	}
	t.notifySubscribers(tr)
}

// Subscribe returns a channel receiving transitions. Slow subscribers miss
// transitions rather than blocking the tracker.
func (t *Tracker) Subscribe() <-chan Transition {
	t.subscribersMu.Lock()
	defer t.subscribersMu.Unlock()

	ch := make(chan Transition, 10)
	t.subscribers = append(t.subscribers, ch)
	return ch
}

func (t *Tracker) notifySubscribers(tr Transition) {
	t.subscribersMu.RLock()
	defer t.subscribersMu.RUnlock()

	for _, ch := range t.subscribers {
		select {
		case ch <- tr:
		default:
			t.logger.Debugw("Phase subscriber channel full, dropping transition", "to", tr.To)
		}
	}
}
