//go:build !windows

package process

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "lsp-folding/src/internal/errors"
)

func TestRunPipesStdin(t *testing.T) {
	pm := NewLSPProcessManager()

	res, err := pm.Run(context.Background(), CommandSpec{Command: "cat"}, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(res.Stdout))
}

func TestRunCapturesStderrOnFailure(t *testing.T) {
	pm := NewLSPProcessManager()

	_, err := pm.Run(context.Background(), CommandSpec{
		Command: "sh",
		Args:    []string{"-c", "echo broken >&2; exit 3"},
	}, nil)
	require.Error(t, err)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.Code)
	assert.Equal(t, "broken", exitErr.Stderr)
}

func TestRunPassesEnv(t *testing.T) {
	pm := NewLSPProcessManager()

	res, err := pm.Run(context.Background(), CommandSpec{
		Command: "sh",
		Args:    []string{"-c", "printf %s \"$OUTLINE_MODE\""},
		Env:     []string{"OUTLINE_MODE=json"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "json", string(res.Stdout))
}

func TestRunCancelledKillsHelper(t *testing.T) {
	pm := NewLSPProcessManager()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := pm.Run(ctx, CommandSpec{Command: "sleep", Args: []string{"10"}}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunDeadline(t *testing.T) {
	pm := NewLSPProcessManager()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := pm.Run(ctx, CommandSpec{Command: "sleep", Args: []string{"10"}}, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunValidatesCommand(t *testing.T) {
	_, err := NewLSPProcessManager().Run(context.Background(), CommandSpec{}, nil)
	assert.True(t, ferrors.IsValidationError(err))
}

func TestRunMissingBinary(t *testing.T) {
	_, err := NewLSPProcessManager().Run(context.Background(), CommandSpec{Command: "definitely-not-a-real-outliner"}, nil)
	require.Error(t, err)
	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr))
}
