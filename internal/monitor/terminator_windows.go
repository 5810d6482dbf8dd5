//go:build windows

package monitor

import (
	"errors"
	"os"
)

// terminateSignal is unused on Windows, where taskkill ends the process tree
func terminateSignal(int) error {
	return errors.New("signals are not supported on windows")
}

func isProcessGone(err error) bool {
	return errors.Is(err, os.ErrProcessDone)
}
