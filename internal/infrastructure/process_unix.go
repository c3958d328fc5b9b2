//go:build !windows

package infrastructure

import (
	"os/exec"
	"syscall"
)

// configureProcessGroup runs the command in its own process group so that
// cancellation also kills helpers it spawned (ffmpeg under yt-dlp)
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
