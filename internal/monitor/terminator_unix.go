//go:build !windows

package monitor

import (
	"errors"

	"golang.org/x/sys/unix"
)

func terminateSignal(pid int) error {
	return unix.Kill(pid, unix.SIGTERM)
}

func isProcessGone(err error) bool {
	return errors.Is(err, unix.ESRCH)
}
