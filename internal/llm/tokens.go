package llm

import (
	"sync"
	"unicode/utf8"

	tiktoken "github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

const (
	// DefaultEncoding is used by most OpenAI-compatible chat models
	DefaultEncoding = "cl100k_base"

	// approxCharsPerToken is the fallback ratio when no encoding can be loaded
	approxCharsPerToken = 4

	truncatedMarker = "[earlier context truncated]\n"
)

// tokenCodec is the subset of *tiktoken.Tiktoken the limiter needs
type tokenCodec interface {
	Encode(text string, allowedSpecial []string, disallowedSpecial []string) []int
	Decode(tokens []int) string
}

// ContextLimiter keeps the newest part of an analysis context within a token
// budget. A nil limiter or a non-positive budget leaves the context unchanged.
type ContextLimiter struct {
	maxTokens int
	encoding  string
	logger    *zap.SugaredLogger

	once  sync.Once
	load  func(encoding string) (tokenCodec, error)
	codec tokenCodec
}

// NewContextLimiter creates a limiter for maxTokens using the named tiktoken encoding
func NewContextLimiter(maxTokens int, encoding string, logger *zap.SugaredLogger) *ContextLimiter {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if encoding == "" {
		encoding = DefaultEncoding
	}
	return &ContextLimiter{
		maxTokens: maxTokens,
		encoding:  encoding,
		logger:    logger,
		load:      loadEncoding,
	}
}

func loadEncoding(encoding string) (tokenCodec, error) {
	return tiktoken.GetEncoding(encoding)
}

// getCodec loads the encoding once; nil means the character estimate is used
func (l *ContextLimiter) getCodec() tokenCodec {
	l.once.Do(func() {
		codec, err := l.load(l.encoding)
		if err != nil {
			l.logger.Warnw("Token encoding unavailable, estimating context size by characters",
				"encoding", l.encoding, "error", err)
			return
		}
		l.codec = codec
	})
	return l.codec
}

// Limit returns text unchanged when it fits the budget, otherwise its tail
// prefixed with a truncation marker
func (l *ContextLimiter) Limit(text string) string {
	if l == nil || l.maxTokens <= 0 || text == "" {
		return text
	}

	if codec := l.getCodec(); codec != nil {
		tokens := codec.Encode(text, nil, nil)
		if len(tokens) <= l.maxTokens {
			return text
		}
		l.logger.Debugw("Truncating analysis context", "tokens", len(tokens), "max_tokens", l.maxTokens)
		return truncatedMarker + codec.Decode(tokens[len(tokens)-l.maxTokens:])
	}

	maxBytes := l.maxTokens * approxCharsPerToken
	if len(text) <= maxBytes {
		return text
	}
	cut := len(text) - maxBytes
	for cut < len(text) && !utf8.RuneStart(text[cut]) {
		cut++
	}
	return truncatedMarker + text[cut:]
}
