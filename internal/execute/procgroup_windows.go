//go:build windows

package execute

import "os/exec"

// setupProcessGroup is a no-op on Windows where Setpgid is unavailable.
// Cleanup relies on the default exec.CommandContext behavior of killing the
// direct child process on context cancellation.
func setupProcessGroup(cmd *exec.Cmd) {}
