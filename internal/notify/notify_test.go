package notify

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLevelString(t *testing.T) {
	assert.Equal(t, "Info", LevelInfo.String())
	assert.Equal(t, "Warning", LevelWarning.String())
	assert.Equal(t, "Error", LevelError.String())
	assert.Equal(t, "Unknown", Level(42).String())
}

func TestManagerFansOut(t *testing.T) {
	first, second := &Recorder{}, &Recorder{}
	m := NewManager(first)
	m.AddHandler(second)

	m.Info("MCP Shark server started successfully!")
	m.Warning("MCP Shark server may still be running. Please stop it manually.")

	for _, r := range []*Recorder{first, second} {
		all := r.All()
		require.Len(t, all, 2)
		assert.Equal(t, "MCP Shark", all[0].Title)
		assert.False(t, all[0].Timestamp.IsZero())
		assert.Equal(t, []string{"MCP Shark server started successfully!"}, r.Messages(LevelInfo))
		assert.Len(t, r.Messages(LevelWarning), 1)
	}
}

func TestLogHandler(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	h := NewLogHandler(zap.New(core).Sugar())

	m := NewManager(h)
	m.Info("info message")
	m.Warning("warn message")
	m.Error("error message")

	entries := recorded.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "warn message", entries[1].Message)
}

func TestDesktopHandlerUsesAlertForWarnings(t *testing.T) {
	var mu sync.Mutex
	var notified, alerted []string
	done := make(chan struct{}, 2)

	h := &DesktopHandler{
		logger: zap.NewNop().Sugar(),
		notify: func(_, message string) error {
			mu.Lock()
			notified = append(notified, message)
			mu.Unlock()
			done <- struct{}{}
			return nil
		},
		alert: func(_, message string) error {
			mu.Lock()
			alerted = append(alerted, message)
			mu.Unlock()
			done <- struct{}{}
			return errors.New("no notification daemon")
		},
	}

	h.SendNotification(&Notification{Level: LevelInfo, Message: "started"})
	h.SendNotification(&Notification{Level: LevelWarning, Message: "timeout"})

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("desktop notification not delivered")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"started"}, notified)
	assert.Equal(t, []string{"timeout"}, alerted)
}
