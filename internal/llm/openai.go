package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const maxResponseBytes = 4 << 20

// chatRequest is an OpenAI chat completion request
type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// chatResponse is an OpenAI chat completion response
type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int     `json:"index"`
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
}

// modelList is the response of GET /models
type modelList struct {
	Data []struct {
		ID      string `json:"id"`
		OwnedBy string `json:"owned_by"`
	} `json:"data"`
}

// errorResponse is the OpenAI error envelope
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Param   string `json:"param"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// OpenAISource lists and talks to models behind an OpenAI-compatible API,
// such as a local Ollama, LM Studio or llama.cpp server.
type OpenAISource struct {
	baseURL string
	apiKey  string
	models  []string
	client  *http.Client
	logger  *zap.SugaredLogger
}

// NewOpenAISource creates a source for baseURL (e.g. http://127.0.0.1:11434/v1).
// When models is non-empty only those models are offered and /models is not queried.
func NewOpenAISource(baseURL, apiKey string, models []string, timeout time.Duration, logger *zap.SugaredLogger) *OpenAISource {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OpenAISource{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		models:  append([]string(nil), models...),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Models returns the available models whose owner matches vendor
func (s *OpenAISource) Models(ctx context.Context, vendor string) ([]ChatModel, error) {
	var out []ChatModel
	if len(s.models) > 0 {
		for _, id := range s.models {
			m := &openAIModel{source: s, id: id, vendor: vendorOf(id, "")}
			if matchesVendor(m.vendor, vendor) {
				out = append(out, m)
			}
		}
		return out, nil
	}

	var list modelList
	if err := s.do(ctx, http.MethodGet, "/models", nil, &list, ""); err != nil {
		return nil, err
	}
	for _, d := range list.Data {
		m := &openAIModel{source: s, id: d.ID, vendor: vendorOf(d.ID, d.OwnedBy)}
		if matchesVendor(m.vendor, vendor) {
			out = append(out, m)
		}
	}
	return out, nil
}

// vendorOf prefers the owner reported by the server, then a "vendor/model" prefix
func vendorOf(id, ownedBy string) string {
	if ownedBy != "" {
		return ownedBy
	}
	if i := strings.Index(id, "/"); i > 0 {
		return id[:i]
	}
	return ""
}

func matchesVendor(modelVendor, filter string) bool {
	return filter == "" || strings.EqualFold(modelVendor, filter)
}

func (s *OpenAISource) do(ctx context.Context, method, path string, body any, out any, model string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", s.baseURL+path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseModelError(model, resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid response from %s: %w", s.baseURL+path, err)
	}
	return nil
}

func parseModelError(model string, status int, body []byte) *ModelError {
	modelErr := &ModelError{Model: model, StatusCode: status}

	var envelope errorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		modelErr.Message = envelope.Error.Message
		switch code := envelope.Error.Code.(type) {
		case string:
			modelErr.Code = code
		case float64:
			modelErr.Code = fmt.Sprintf("%d", int(code))
		}
		if modelErr.Code == "" && envelope.Error.Param == "model_not_supported" {
			modelErr.Code = envelope.Error.Param
		}
		return modelErr
	}

	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	if text == "" {
		text = http.StatusText(status)
	}
	modelErr.Message = fmt.Sprintf("HTTP %d: %s", status, text)
	return modelErr
}

type openAIModel struct {
	source *OpenAISource
	id     string
	vendor string
}

func (m *openAIModel) ID() string     { return m.id }
func (m *openAIModel) Vendor() string { return m.vendor }

// Send runs a non-streaming chat completion and returns the first choice
func (m *openAIModel) Send(ctx context.Context, messages []Message) (string, error) {
	var resp chatResponse
	req := chatRequest{Model: m.id, Messages: messages}
	if err := m.source.do(ctx, http.MethodPost, "/chat/completions", req, &resp, m.id); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
