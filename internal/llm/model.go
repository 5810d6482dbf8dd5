// Package llm runs analysis prompts against a locally available chat model
// and exposes them to MCP Shark through a small HTTP bridge.
package llm

import (
	"context"
	"errors"
	"strings"
)

// Chat roles
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatModel is a model that can answer a chat request
type ChatModel interface {
	ID() string
	Vendor() string
	Send(ctx context.Context, messages []Message) (string, error)
}

// ModelSource lists available chat models. An empty vendor selects every model.
type ModelSource interface {
	Models(ctx context.Context, vendor string) ([]ChatModel, error)
}

// ModelError is an error reported by a model endpoint
type ModelError struct {
	Model      string
	StatusCode int
	Code       string
	Message    string
}

func (e *ModelError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Language model request failed."
}

// IsModelNotSupported reports whether err means the selected model cannot
// serve the request, in which case the next model is tried.
func IsModelNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var modelErr *ModelError
	if errors.As(err, &modelErr) && modelErr.Code == "model_not_supported" {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "model is not supported") || strings.Contains(msg, "model_not_supported")
}
