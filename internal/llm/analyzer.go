package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mcp-shark/sharkctl/internal/observability"
)

const (
	systemInstruction = "You are helping analyze MCP (Model Context Protocol) traffic and tool usage. Be concise and focus on security, correctness, and clarity."
	emptyResponse     = "(No response)"

	errNoModels = "No language model is available. Start a local OpenAI-compatible model server or set bridge.model_base_url."
)

// ErrNoModels is recorded when no model is available
var ErrNoModels = errors.New("no language model available")

// Outcome is the result of one analysis: exactly one of Result or Error is set
type Outcome struct {
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Analyzer sends analysis prompts to the first model that accepts them
type Analyzer struct {
	source  ModelSource
	vendor  string
	logger  *zap.SugaredLogger
	metrics *observability.MetricsManager
	tracing *observability.TracingManager
	limiter *ContextLimiter
}

// AnalyzerOption configures an Analyzer
type AnalyzerOption func(*Analyzer)

// WithVendor restricts model selection to vendor when it has any models
func WithVendor(vendor string) AnalyzerOption {
	return func(a *Analyzer) { a.vendor = strings.TrimSpace(vendor) }
}

// WithMetrics records analysis counts and durations
func WithMetrics(m *observability.MetricsManager) AnalyzerOption {
	return func(a *Analyzer) { a.metrics = m }
}

// WithTracing wraps each analysis in a span
func WithTracing(t *observability.TracingManager) AnalyzerOption {
	return func(a *Analyzer) { a.tracing = t }
}

// WithContextLimit trims the context to the limiter's token budget before sending
func WithContextLimit(l *ContextLimiter) AnalyzerOption {
	return func(a *Analyzer) { a.limiter = l }
}

// NewAnalyzer creates an analyzer over source
func NewAnalyzer(source ModelSource, logger *zap.SugaredLogger, opts ...AnalyzerOption) *Analyzer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	a := &Analyzer{source: source, logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BuildMessages frames prompt and optional context for the model
func BuildMessages(prompt, contextText string) []Message {
	content := prompt
	if contextText != "" {
		content = "Context:\n" + contextText + "\n\nRequest:\n" + prompt
	}
	return []Message{
		{Role: RoleSystem, Content: systemInstruction},
		{Role: RoleUser, Content: content},
	}
}

// Analyze runs prompt against the available models. Models rejecting the
// request as unsupported are skipped; any other failure ends the attempt.
func (a *Analyzer) Analyze(ctx context.Context, prompt, contextText string) Outcome {
	ctx, span := a.tracing.TraceAnalysis(ctx, len(prompt), len(contextText))
	defer span.End()

	start := time.Now()
	model, outcome, err := a.analyze(ctx, prompt, contextText)
	a.metrics.RecordAnalysis(model, err, time.Since(start))
	if err != nil {
		a.tracing.SetSpanError(ctx, err)
	}
	return outcome
}

func (a *Analyzer) analyze(ctx context.Context, prompt, contextText string) (string, Outcome, error) {
	models, err := a.selectModels(ctx)
	if err != nil {
		a.logger.Warnw("Failed to list language models", "error", err)
		return "", Outcome{Error: "Language model API is not available: " + err.Error()}, err
	}
	if len(models) == 0 {
		return "", Outcome{Error: errNoModels}, ErrNoModels
	}

	messages := BuildMessages(prompt, a.limiter.Limit(contextText))

	var lastErr error
	var lastModel string
	for _, model := range models {
		lastModel = model.ID()
		text, err := model.Send(ctx, messages)
		if err == nil {
			result := strings.TrimSpace(text)
			if result == "" {
				result = emptyResponse
			}
			a.logger.Debugw("Analysis completed", "model", model.ID(), "length", len(result))
			return model.ID(), Outcome{Result: result}, nil
		}

		lastErr = err
		if IsModelNotSupported(err) {
			a.logger.Debugw("Model does not support request, trying next", "model", model.ID(), "error", err)
			continue
		}
		a.logger.Warnw("Language model request failed", "model", model.ID(), "error", err)
		break
	}

	return lastModel, Outcome{Error: lastErr.Error()}, lastErr
}

// selectModels applies the vendor filter, falling back to every model when
// the vendor has none
func (a *Analyzer) selectModels(ctx context.Context) ([]ChatModel, error) {
	models, err := a.source.Models(ctx, a.vendor)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 && a.vendor != "" {
		a.logger.Debugw("No models for vendor, using all models", "vendor", a.vendor)
		return a.source.Models(ctx, "")
	}
	return models, nil
}
