//go:build windows

package process

import "os/exec"

// configureCommand keeps the default exec.CommandContext behaviour (Process.Kill).
func configureCommand(cmd *exec.Cmd) {}
