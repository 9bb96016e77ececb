//go:build windows

package tools

import (
	"os/exec"
	"strconv"
	"syscall"
)

// killTree makes cancel take down every descendant. pacman started from the
// MSYS2 login shell is a separate Windows process and would otherwise
// survive bash.
func killTree(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		kill := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(cmd.Process.Pid))
		kill.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
		if err := kill.Run(); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
}
