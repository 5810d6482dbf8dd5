//go:build windows

package monitor

import (
	"os/exec"
	"syscall"
)

// detach starts the child in a new process group so console signals sent to
// the caller do not reach it
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
		HideWindow:    true,
	}
}

func exitSignal(*exec.ExitError) string { return "" }
