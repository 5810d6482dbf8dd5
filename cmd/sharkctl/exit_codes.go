package main

import (
	"errors"
	"fmt"
)

// Exit codes let scripts tell why a lifecycle command failed

const (
	// ExitCodeSuccess indicates normal program termination
	ExitCodeSuccess = 0

	// ExitCodeGeneralError indicates a generic error (default)
	ExitCodeGeneralError = 1

	// ExitCodeNotRunning indicates the server is not reachable
	ExitCodeNotRunning = 2

	// ExitCodeStartFailed indicates the server did not come up within the poll budget
	ExitCodeStartFailed = 3

	// ExitCodeStillRunning indicates the server still answered after a stop
	ExitCodeStillRunning = 4

	// ExitCodeConfigError indicates configuration loading or validation failed
	ExitCodeConfigError = 5

	// ExitCodeDeclined indicates the user did not confirm the action
	ExitCodeDeclined = 6
)

// exitCodeDescription returns a human-readable description of the exit code
func exitCodeDescription(code int) string {
	switch code {
	case ExitCodeSuccess:
		return "Success"
	case ExitCodeGeneralError:
		return "General error"
	case ExitCodeNotRunning:
		return "MCP Shark server is not running"
	case ExitCodeStartFailed:
		return "MCP Shark server did not start"
	case ExitCodeStillRunning:
		return "MCP Shark server is still running"
	case ExitCodeConfigError:
		return "Configuration error"
	case ExitCodeDeclined:
		return "Cancelled by user"
	default:
		return "Unknown error"
	}
}

// exitError carries a specific exit code out of a command
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return exitCodeDescription(e.code)
}

func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// exitCodeFor maps a command error onto a process exit code
func exitCodeFor(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitCodeGeneralError
}

// silentExit ends the command with code without printing an error line
func silentExit(code int) error {
	return withExitCode(code, nil)
}

func configError(err error) error {
	return withExitCode(ExitCodeConfigError, fmt.Errorf("failed to load configuration: %w", err))
}
