//go:build unix

package process

import (
	"os/exec"
	"syscall"
)

func setProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// signalGroup signals the process group led by cmd, falling back to the leader alone.
func signalGroup(cmd *exec.Cmd, sig syscall.Signal) {
	if cmd.Process == nil {
		return
	}
	pid := cmd.Process.Pid
	if err := syscall.Kill(-pid, sig); err != nil {
		if err == syscall.ESRCH {
			return
		}
		_ = cmd.Process.Signal(sig)
	}
}

func signalTerm(cmd *exec.Cmd) {
	signalGroup(cmd, syscall.SIGTERM)
}

func signalKill(cmd *exec.Cmd) {
	signalGroup(cmd, syscall.SIGKILL)
}
