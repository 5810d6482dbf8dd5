// Package notify delivers user-facing lifecycle messages.
package notify

import (
	"sync"
	"time"
)

// Level represents the level of a notification
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

// String returns the string representation of the notification level
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "Info"
	case LevelWarning:
		return "Warning"
	case LevelError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Notification is a message shown to the user
type Notification struct {
	Level     Level     `json:"level"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler displays notifications
type Handler interface {
	SendNotification(n *Notification)
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(n *Notification)

func (f HandlerFunc) SendNotification(n *Notification) { f(n) }

const defaultTitle = "MCP Shark"

// Manager fans notifications out to every registered handler, in registration order
type Manager struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewManager creates a manager with the given handlers
func NewManager(handlers ...Handler) *Manager {
	return &Manager{handlers: handlers}
}

// AddHandler adds a notification handler
func (m *Manager) AddHandler(h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, h)
}

// SendNotification stamps n and passes it to every handler
func (m *Manager) SendNotification(n *Notification) {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	if n.Title == "" {
		n.Title = defaultTitle
	}

	m.mu.RLock()
	handlers := append([]Handler(nil), m.handlers...)
	m.mu.RUnlock()

	for _, h := range handlers {
		h.SendNotification(n)
	}
}

// Info sends an informational message
func (m *Manager) Info(message string) {
	m.SendNotification(&Notification{Level: LevelInfo, Message: message})
}

// Warning sends a warning message
func (m *Manager) Warning(message string) {
	m.SendNotification(&Notification{Level: LevelWarning, Message: message})
}

// Error sends an error message
func (m *Manager) Error(message string) {
	m.SendNotification(&Notification{Level: LevelError, Message: message})
}
