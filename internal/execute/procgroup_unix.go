//go:build !windows

package execute

import (
	"os/exec"
	"syscall"
)

// setupProcessGroup puts the child in its own process group and overrides
// cmd.Cancel to SIGKILL the entire group when the timeout context fires.
// Killing only the direct child would leave grandchildren (e.g. a JVM forked
// by a wrapper script) running past the deadline.
func setupProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process != nil {
			return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		return nil
	}
}
