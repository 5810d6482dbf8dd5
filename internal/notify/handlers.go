package notify

import (
	"sync"

	"github.com/gen2brain/beeep"
	"go.uber.org/zap"
)

// LogHandler writes notifications to the log
type LogHandler struct {
	logger *zap.SugaredLogger
}

// NewLogHandler creates a log handler
func NewLogHandler(logger *zap.SugaredLogger) *LogHandler {
	return &LogHandler{logger: logger}
}

func (h *LogHandler) SendNotification(n *Notification) {
	switch n.Level {
	case LevelError:
		h.logger.Errorw(n.Message, "title", n.Title)
	case LevelWarning:
		h.logger.Warnw(n.Message, "title", n.Title)
	default:
		h.logger.Infow(n.Message, "title", n.Title)
	}
}

// DesktopHandler shows notifications with the OS notification service.
// Delivery happens in the background; failures are logged.
type DesktopHandler struct {
	logger *zap.SugaredLogger
	notify func(title, message string) error
	alert  func(title, message string) error
}

// NewDesktopHandler creates a handler backed by beeep
func NewDesktopHandler(logger *zap.SugaredLogger) *DesktopHandler {
	beeep.AppName = defaultTitle
	return &DesktopHandler{
		logger: logger,
		notify: func(title, message string) error { return beeep.Notify(title, message, "") },
		alert:  func(title, message string) error { return beeep.Alert(title, message, "") },
	}
}

func (h *DesktopHandler) SendNotification(n *Notification) {
	show := h.notify
	if n.Level != LevelInfo {
		show = h.alert
	}
	title, message := n.Title, n.Message
	go func() {
		if err := show(title, message); err != nil {
			h.logger.Debugw("Desktop notification failed", "error", err)
		}
	}()
}

// Recorder keeps every notification it receives
type Recorder struct {
	mu            sync.Mutex
	notifications []Notification
}

func (r *Recorder) SendNotification(n *Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, *n)
}

// All returns a copy of the received notifications
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notifications...)
}

// Messages returns the messages received at level
func (r *Recorder) Messages(level Level) []string {
	var out []string
	for _, n := range r.All() {
		if n.Level == level {
			out = append(out, n.Message)
		}
	}
	return out
}
