//go:build unix

package runner

import (
	"os/exec"
	"syscall"
)

// setProcessGroup places the child in its own process group so that a
// terminal Ctrl+C does not reach it directly; the runner owns the shutdown
// sequence.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// interruptProcessGroup asks the child's whole process group to shut down
// gracefully. aria2c finalizes its control file on SIGINT.
func interruptProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGINT)
}
