// Package prompt implements the yes/no confirmation hook used before starting
// or stopping the server.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/term"
)

// ErrNotInteractive is returned when no terminal is available to ask the user
var ErrNotInteractive = errors.New("stdin is not a terminal; pass --yes to confirm")

// Confirmer asks the user a yes/no question
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// Func adapts a Confirmer to the boolean hook the lifecycle controller calls.
// Any error is logged and treated as a decline.
func Func(c Confirmer, logger *zap.SugaredLogger) func(ctx context.Context, message string) bool {
	return func(ctx context.Context, message string) bool {
		ok, err := c.Confirm(ctx, message)
		if err != nil {
			if logger != nil {
				logger.Warnw("Confirmation failed", "message", message, "error", err)
			}
			return false
		}
		return ok
	}
}

// ConsoleConfirmer prompts on a terminal
type ConsoleConfirmer struct {
	in         *bufio.Reader
	out        io.Writer
	isTerminal func() bool
}

// NewConsoleConfirmer creates a confirmer reading os.Stdin and writing os.Stderr
func NewConsoleConfirmer() *ConsoleConfirmer {
	return &ConsoleConfirmer{
		in:         bufio.NewReader(os.Stdin),
		out:        os.Stderr,
		isTerminal: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
	}
}

// NewReaderConfirmer creates a confirmer over arbitrary streams, treated as interactive
func NewReaderConfirmer(in io.Reader, out io.Writer) *ConsoleConfirmer {
	return &ConsoleConfirmer{
		in:         bufio.NewReader(in),
		out:        out,
		isTerminal: func() bool { return true },
	}
}

// Confirm prints message with a [y/N] suffix and reads one line.
// Only y or yes (any case) confirms.
func (p *ConsoleConfirmer) Confirm(ctx context.Context, message string) (bool, error) {
	if !p.isTerminal() {
		return false, ErrNotInteractive
	}

	fmt.Fprintf(p.out, "%s [y/N]: ", message)

	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		ch <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return false, ctx.Err()
	case r := <-ch:
		if r.err != nil && !(errors.Is(r.err, io.EOF) && r.line != "") {
			return false, r.err
		}
		answer := strings.ToLower(strings.TrimSpace(r.line))
		return answer == "y" || answer == "yes", nil
	}
}

// AutoConfirmer answers every question the same way, e.g. for --yes
type AutoConfirmer struct {
	Answer bool
}

func (a AutoConfirmer) Confirm(context.Context, string) (bool, error) {
	return a.Answer, nil
}

// MockConfirmer returns preset answers and records every question asked
type MockConfirmer struct {
	mu       sync.Mutex
	answers  map[string]bool
	fallback bool
	asked    []string
}

// NewMockConfirmer creates a mock answering fallback to unknown questions
func NewMockConfirmer(fallback bool) *MockConfirmer {
	return &MockConfirmer{answers: make(map[string]bool), fallback: fallback}
}

// SetAnswer sets the answer for a given message
func (m *MockConfirmer) SetAnswer(message string, answer bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers[message] = answer
}

func (m *MockConfirmer) Confirm(_ context.Context, message string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.asked = append(m.asked, message)
	if answer, ok := m.answers[message]; ok {
		return answer, nil
	}
	return m.fallback, nil
}

// Asked returns the questions asked so far
func (m *MockConfirmer) Asked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.asked...)
}
