//go:build windows

package infrastructure

import "os/exec"

// configureProcessGroup keeps exec's default cancellation, which kills the process
func configureProcessGroup(cmd *exec.Cmd) {}
