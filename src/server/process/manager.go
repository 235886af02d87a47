// Package process runs the short-lived helper programs that compute outlines.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"lsp-folding/src/internal/common"
	"lsp-folding/src/internal/constants"
)

// CommandSpec describes one invocation of a helper program
type CommandSpec struct {
	Command    string
	Args       []string
	WorkingDir string
	Env        []string
}

// Result is what a finished helper produced
type Result struct {
	Stdout   []byte
	Stderr   string
	Duration time.Duration
}

// ExitError reports a helper that ran but exited unsuccessfully
type ExitError struct {
	Command string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Command, e.Code)
}

// ProcessManager runs helper programs to completion
type ProcessManager interface {
	Run(ctx context.Context, spec CommandSpec, stdin []byte) (*Result, error)
}

// LSPProcessManager implements ProcessManager with os/exec. Cancelling the context kills
// the helper (and, on Unix, its whole process group).
type LSPProcessManager struct{}

// NewLSPProcessManager creates a new process manager
func NewLSPProcessManager() *LSPProcessManager {
	return &LSPProcessManager{}
}

// Run starts spec, feeds stdin, and waits for it to exit. A cancelled or expired context
// is returned as the context error.
func (pm *LSPProcessManager) Run(ctx context.Context, spec CommandSpec, stdin []byte) (*Result, error) {
	if spec.Command == "" {
		return nil, common.ParameterValidationError("command", "command is required")
	}

	cmd := exec.CommandContext(ctx, spec.Command, spec.Args...)
	cmd.Dir = spec.WorkingDir
	if len(spec.Env) > 0 {
		cmd.Env = append(cmd.Environ(), spec.Env...)
	}
	cmd.Stdin = bytes.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = constants.ProcessWaitDelay
	configureCommand(cmd)

	start := time.Now()
	err := cmd.Run()
	result := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		common.LSPLogger.Debug("Helper %s stopped after %v: %v", spec.Command, result.Duration, ctxErr)
		return result, ctxErr
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return result, &ExitError{Command: spec.Command, Code: exitErr.ExitCode(), Stderr: result.Stderr}
		}
		return result, fmt.Errorf("failed to run %s: %w", spec.Command, err)
	}

	common.LSPLogger.Debug("Helper %s finished in %v (%d bytes)", spec.Command, result.Duration, len(result.Stdout))
	return result, nil
}
