package monitor

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// CommandRunner runs an external command and returns its stdout
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// SignalFunc delivers a graceful termination signal to pid
type SignalFunc func(pid int) error

// Terminator stops whatever process is bound to the server port. It is
// best-effort: callers confirm the result by probing the server afterwards.
type Terminator struct {
	logger *zap.SugaredLogger
	run    CommandRunner
	signal SignalFunc
	goos   string
}

// TerminatorOption configures a Terminator
type TerminatorOption func(*Terminator)

// WithRunner replaces the command runner used for lsof, netstat and taskkill
func WithRunner(run CommandRunner) TerminatorOption {
	return func(t *Terminator) { t.run = run }
}

// WithSignal replaces the function used to signal POSIX processes
func WithSignal(signal SignalFunc) TerminatorOption {
	return func(t *Terminator) { t.signal = signal }
}

// WithOS overrides runtime.GOOS
func WithOS(goos string) TerminatorOption {
	return func(t *Terminator) { t.goos = goos }
}

// NewTerminator creates a terminator for the current platform
func NewTerminator(logger *zap.SugaredLogger, opts ...TerminatorOption) *Terminator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	t := &Terminator{
		logger: logger,
		run:    ExecRunner,
		signal: terminateSignal,
		goos:   runtime.GOOS,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Terminate signals the processes listening on port. It returns true when at
// least one process was signalled without error.
func (t *Terminator) Terminate(ctx context.Context, port int) bool {
	if t.goos == "windows" {
		return t.terminateWindows(ctx, port)
	}
	return t.terminatePOSIX(ctx, port)
}

func (t *Terminator) terminatePOSIX(ctx context.Context, port int) bool {
	out, err := t.run(ctx, "lsof", "-ti:"+strconv.Itoa(port))
	if err != nil {
		// lsof exits 1 when nothing matches
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || len(bytes.TrimSpace(out)) == 0 {
			t.logger.Debugw("No process found on port", "port", port, "error", err)
			return false
		}
	}

	pids := ParseLsofPIDs(out)
	if len(pids) == 0 {
		t.logger.Debugw("No process found on port", "port", port)
		return false
	}

	signalled := false
	for _, pid := range pids {
		if err := t.signal(pid); err != nil {
			if isProcessGone(err) {
				continue
			}
			t.logger.Warnw("Failed to send SIGTERM", "pid", pid, "port", port, "error", err)
			continue
		}
		t.logger.Infow("Sent SIGTERM to MCP Shark server", "pid", pid, "port", port)
		signalled = true
	}
	return signalled
}

func (t *Terminator) terminateWindows(ctx context.Context, port int) bool {
	out, err := t.run(ctx, "netstat", "-aon")
	if err != nil {
		t.logger.Warnw("Failed to list connections", "error", err)
		return false
	}

	pids := ParseNetstatPIDs(out, port)
	if len(pids) == 0 {
		t.logger.Debugw("No process found on port", "port", port)
		return false
	}

	killed := false
	for _, pid := range pids {
		if _, err := t.run(ctx, "taskkill", "/PID", strconv.Itoa(pid), "/T", "/F"); err != nil {
			t.logger.Warnw("taskkill failed", "pid", pid, "port", port, "error", err)
			continue
		}
		t.logger.Infow("Killed MCP Shark server process tree", "pid", pid, "port", port)
		killed = true
	}
	return killed
}

// ParseLsofPIDs parses `lsof -t` output: one PID per line
func ParseLsofPIDs(out []byte) []int {
	var pids []int
	seen := map[int]bool{}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		pid, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err != nil || pid <= 0 || seen[pid] {
			continue
		}
		seen[pid] = true
		pids = append(pids, pid)
	}
	return pids
}

// ParseNetstatPIDs returns the owning PIDs of connections whose local address
// uses port, from `netstat -aon` output.
func ParseNetstatPIDs(out []byte, port int) []int {
	suffix := ":" + strconv.Itoa(port)
	var pids []int
	seen := map[int]bool{}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		// Proto  Local Address  Foreign Address  State  PID (UDP rows have no state)
		if len(fields) < 4 {
			continue
		}
		proto := strings.ToUpper(fields[0])
		if proto != "TCP" && proto != "UDP" {
			continue
		}
		if !strings.HasSuffix(fields[1], suffix) {
			continue
		}
		pid, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil || pid <= 0 || seen[pid] {
			continue
		}
		seen[pid] = true
		pids = append(pids, pid)
	}
	return pids
}
