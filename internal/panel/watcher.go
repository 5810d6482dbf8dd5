package panel

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Evaluator is re-checked on every watcher tick
type Evaluator interface {
	Evaluate(ctx context.Context) Route
}

// Watcher periodically re-evaluates a panel so that it follows the server
// when it is started or stopped from elsewhere
type Watcher struct {
	target   Evaluator
	interval time.Duration
	logger   *zap.SugaredLogger
}

// NewWatcher creates a watcher ticking every interval
func NewWatcher(target Evaluator, interval time.Duration, logger *zap.SugaredLogger) *Watcher {
	if interval <= 0 {
		interval = defaultCheckInterval
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Watcher{target: target, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	last := Route("")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			route := w.target.Evaluate(ctx)
			if route != last {
				w.logger.Debugw("Panel route changed", "from", last, "to", route)
				last = route
			}
		}
	}
}
