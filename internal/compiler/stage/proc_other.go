//go:build !linux

package stage

import (
	"os"
	"os/exec"
)

func setProcessGroup(cmd *exec.Cmd) {}

func killProcessGroup(pid int) {
	if proc, err := os.FindProcess(pid); err == nil {
		_ = proc.Kill()
	}
}

func maxRSSBytes(state *os.ProcessState) int64 {
	return 0
}
