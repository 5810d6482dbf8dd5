package logs

import (
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap/zapcore"
)

var keyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bsk-[A-Za-z0-9\-_]{20,}\b`),
	regexp.MustCompile(`\bBearer\s+[A-Za-z0-9\-\._~\+\/]{8,}=*`),
}

// secretSet is shared between a Redactor and the children created by With
type secretSet struct {
	mu     sync.RWMutex
	values []string
}

// Redactor wraps a zapcore.Core and masks model API keys and registered secrets
type Redactor struct {
	zapcore.Core
	secrets *secretSet
}

// NewRedactor creates a redacting core around core
func NewRedactor(core zapcore.Core) *Redactor {
	return &Redactor{Core: core, secrets: &secretSet{}}
}

// Register adds a literal value to mask. Values shorter than 8 characters are ignored.
func (r *Redactor) Register(value string) {
	if len(value) < 8 {
		return
	}
	r.secrets.mu.Lock()
	r.secrets.values = append(r.secrets.values, value)
	r.secrets.mu.Unlock()
}

func (r *Redactor) redact(s string) string {
	r.secrets.mu.RLock()
	for _, v := range r.secrets.values {
		s = strings.ReplaceAll(s, v, mask(v))
	}
	r.secrets.mu.RUnlock()

	for _, re := range keyPatterns {
		s = re.ReplaceAllStringFunc(s, mask)
	}
	return s
}

func (r *Redactor) redactField(f zapcore.Field) zapcore.Field {
	switch f.Type {
	case zapcore.StringType:
		f.String = r.redact(f.String)
	case zapcore.ErrorType:
		if err, ok := f.Interface.(error); ok {
			if s := r.redact(err.Error()); s != err.Error() {
				return zapcore.Field{Key: f.Key, Type: zapcore.StringType, String: s}
			}
		}
	}
	return f
}

func (r *Redactor) redactFields(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		out[i] = r.redactField(f)
	}
	return out
}

// With creates a redacting child core
func (r *Redactor) With(fields []zapcore.Field) zapcore.Core {
	return &Redactor{Core: r.Core.With(r.redactFields(fields)), secrets: r.secrets}
}

// Check delegates to the wrapped core
func (r *Redactor) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if r.Enabled(entry.Level) {
		return ce.AddCore(entry, r)
	}
	return ce
}

// Write redacts the entry before writing
func (r *Redactor) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	entry.Message = r.redact(entry.Message)
	return r.Core.Write(entry, r.redactFields(fields))
}

// mask keeps the first 3 and last 2 characters of a secret
func mask(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:3] + "***" + value[len(value)-2:]
}
