package common

import (
	"strings"

	"lsp-folding/src/internal/errors"
)

const maxLoggedErrorLen = 200

// WrapProcessingError wraps an error with operation context for better error messages
func WrapProcessingError(operation string, err error) error {
	return errors.WrapWithContext(operation, err)
}

// ParameterValidationError creates a formatted parameter validation error
func ParameterValidationError(parameter, msg string) error {
	return errors.NewValidationError(parameter, msg)
}

// GetErrorCategory returns a category string for error classification
func GetErrorCategory(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.IsCancellationError(err):
		return "cancellation"
	case errors.IsTimeoutError(err):
		return "timeout"
	case errors.IsValidationError(err):
		return "validation"
	case errors.IsSnapshotMismatch(err):
		return "snapshot"
	case errors.IsOutlineError(err):
		return "outline"
	case errors.IsMethodNotSupportedError(err):
		return "unsupported"
	default:
		return "general"
	}
}

// SanitizeErrorForLogging keeps the first line of an error and truncates it
func SanitizeErrorForLogging(v interface{}) string {
	if v == nil {
		return ""
	}
	var msg string
	switch e := v.(type) {
	case error:
		msg = e.Error()
	case string:
		msg = e
	default:
		return ""
	}
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	if len(msg) > maxLoggedErrorLen {
		msg = msg[:maxLoggedErrorLen] + "..."
	}
	return msg
}
