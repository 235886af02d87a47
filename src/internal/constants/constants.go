package constants

import "time"

// Timeout constants for folding requests
const (
	// DefaultOutlineTimeout bounds one run of an outline program
	DefaultOutlineTimeout = 10 * time.Second

	// DefaultRequestTimeout bounds a single HTTP JSON-RPC request
	DefaultRequestTimeout = 30 * time.Second

	// WriteTimeout is added to the request timeout for HTTP responses
	WriteTimeout = 10 * time.Second

	// ProcessWaitDelay bounds how long Wait blocks on pipes after a helper was killed
	ProcessWaitDelay = 2 * time.Second

	// ShutdownTimeout bounds a graceful HTTP shutdown
	ShutdownTimeout = 30 * time.Second
)

// HTTP server constants
const (
	ReadHeaderTimeout = 5 * time.Second
	IdleTimeout       = 60 * time.Second
)
