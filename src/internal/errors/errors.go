package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"
)

// ValidationError represents parameter validation errors
type ValidationError struct {
	Parameter string `json:"parameter"`
	Message   string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for parameter '%s': %s", e.Parameter, e.Message)
}

// NewValidationError creates a new validation error for the specified parameter
func NewValidationError(parameter, message string) *ValidationError {
	return &ValidationError{Parameter: parameter, Message: message}
}

// OutlineError reports a failing outline provider for a language
type OutlineError struct {
	Language string        `json:"language"`
	Command  string        `json:"command,omitempty"`
	Stderr   string        `json:"stderr,omitempty"`
	Timeout  time.Duration `json:"timeout,omitempty"`
	Cause    error         `json:"cause,omitempty"`
}

func (e *OutlineError) Error() string {
	msg := fmt.Sprintf("outline provider for %s", e.Language)
	if e.Command != "" {
		msg += fmt.Sprintf(" (%s)", e.Command)
	}
	if e.Timeout > 0 {
		msg += fmt.Sprintf(" timed out after %v", e.Timeout)
	} else {
		msg += " failed"
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf(" [stderr: %s]", e.Stderr)
	}
	return msg
}

func (e *OutlineError) Unwrap() error {
	return e.Cause
}

// NewOutlineError creates an OutlineError
func NewOutlineError(language, command string, cause error) *OutlineError {
	return &OutlineError{Language: language, Command: command, Cause: cause}
}

// SnapshotMismatchError is returned when an outline was computed against a different
// document version than the text used to translate its offsets
type SnapshotMismatchError struct {
	URI            string `json:"uri"`
	OutlineVersion int32  `json:"outlineVersion"`
	TextVersion    int32  `json:"textVersion"`
}

func (e *SnapshotMismatchError) Error() string {
	return fmt.Sprintf("snapshot mismatch for %s: outline computed on version %d, text is version %d",
		e.URI, e.OutlineVersion, e.TextVersion)
}

// MethodNotSupportedError represents an unsupported LSP method
type MethodNotSupportedError struct {
	Method string
}

func (e *MethodNotSupportedError) Error() string {
	return fmt.Sprintf("method '%s' is not supported", e.Method)
}

// NewMethodNotSupportedError creates a new MethodNotSupportedError
func NewMethodNotSupportedError(method string) error {
	return &MethodNotSupportedError{Method: method}
}

// WrapWithContext adds operation context to err, keeping it unwrappable
func WrapWithContext(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", operation, err)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	var target *ValidationError
	return stderrors.As(err, &target)
}

// IsOutlineError checks if the error came from an outline provider
func IsOutlineError(err error) bool {
	var target *OutlineError
	return stderrors.As(err, &target)
}

// IsOutlineTimeout reports whether err is an outline provider timeout
func IsOutlineTimeout(err error) bool {
	var target *OutlineError
	return stderrors.As(err, &target) && target.Timeout > 0
}

// IsSnapshotMismatch checks if the error is a SnapshotMismatchError
func IsSnapshotMismatch(err error) bool {
	var target *SnapshotMismatchError
	return stderrors.As(err, &target)
}

// IsMethodNotSupportedError checks if the error indicates an unsupported method
func IsMethodNotSupportedError(err error) bool {
	var target *MethodNotSupportedError
	return stderrors.As(err, &target)
}

// IsCancellationError checks if the error is a context cancellation
func IsCancellationError(err error) bool {
	return stderrors.Is(err, context.Canceled)
}

// IsTimeoutError checks if the error is a deadline or provider timeout
func IsTimeoutError(err error) bool {
	return stderrors.Is(err, context.DeadlineExceeded) || IsOutlineTimeout(err)
}
