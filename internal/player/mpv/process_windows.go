//go:build windows

package mpv

import (
	"os/exec"
	"syscall"
)

// setupProcessAttributes detaches mpv from the console so it cannot steal
// the terminal's Ctrl+C handler or keyboard input.
func setupProcessAttributes(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}
