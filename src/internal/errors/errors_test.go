package errors

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("uri", "URI cannot be empty")

	assert.Equal(t, "validation error for parameter 'uri': URI cannot be empty", err.Error())
	assert.True(t, IsValidationError(WrapWithContext("decode params", err)))
	assert.False(t, IsValidationError(fmt.Errorf("plain")))
}

func TestOutlineErrorMessage(t *testing.T) {
	cause := fmt.Errorf("exit status 2")
	err := NewOutlineError("csharp", "roslyn-outline", cause)
	err.Stderr = "bad input"

	assert.Equal(t, "outline provider for csharp (roslyn-outline) failed: exit status 2 [stderr: bad input]", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsOutlineError(err))
	assert.False(t, IsOutlineTimeout(err))

	err.Timeout = 2 * time.Second
	assert.Contains(t, err.Error(), "timed out after 2s")
	assert.True(t, IsTimeoutError(err))
}

func TestSnapshotMismatchError(t *testing.T) {
	err := &SnapshotMismatchError{URI: "file:///a.cs", OutlineVersion: 3, TextVersion: 4}

	assert.Contains(t, err.Error(), "version 3")
	assert.True(t, IsSnapshotMismatch(fmt.Errorf("fold: %w", err)))
}

func TestCancellationAndTimeoutClassification(t *testing.T) {
	assert.True(t, IsCancellationError(fmt.Errorf("outline: %w", context.Canceled)))
	assert.False(t, IsCancellationError(context.DeadlineExceeded))
	assert.True(t, IsTimeoutError(context.DeadlineExceeded))
	assert.False(t, IsTimeoutError(nil))
}

func TestWrapWithContextNil(t *testing.T) {
	assert.NoError(t, WrapWithContext("noop", nil))
}

func TestGetErrorCodeDescription(t *testing.T) {
	assert.Equal(t, "Request cancelled", GetErrorCodeDescription(RequestCancelled))
	assert.Equal(t, "Unknown error", GetErrorCodeDescription(12345))
}
