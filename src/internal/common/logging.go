package common

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LogDebug LogLevel = iota
	LogInfo
	LogWarn
	LogError
	LogFatal
)

var logLevelNames = map[LogLevel]string{
	LogDebug: "DEBUG",
	LogInfo:  "INFO",
	LogWarn:  "WARN",
	LogError: "ERROR",
	LogFatal: "FATAL",
}

// String returns the upper-case level name
func (l LogLevel) String() string {
	if name, ok := logLevelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseLogLevel converts a config or env value into a LogLevel
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogDebug, nil
	case "", "info":
		return LogInfo, nil
	case "warn", "warning":
		return LogWarn, nil
	case "error":
		return LogError, nil
	case "fatal":
		return LogFatal, nil
	}
	return LogInfo, fmt.Errorf("unknown log level %q", s)
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LogDebug:
		return zerolog.DebugLevel
	case LogWarn:
		return zerolog.WarnLevel
	case LogError:
		return zerolog.ErrorLevel
	case LogFatal:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// output is shared by every SafeLogger. Stdout carries the LSP stream, so logs never go there.
var (
	outputMu sync.RWMutex
	output   io.Writer = os.Stderr
)

// SetLogOutput redirects all loggers; tests use it to capture output
func SetLogOutput(w io.Writer) {
	outputMu.Lock()
	defer outputMu.Unlock()
	output = w
}

type lockedWriter struct{}

func (lockedWriter) Write(p []byte) (int, error) {
	outputMu.RLock()
	defer outputMu.RUnlock()
	return output.Write(p)
}

// SafeLogger provides STDIO-safe logging that only writes to stderr
type SafeLogger struct {
	prefix string
	mu     sync.RWMutex
	level  LogLevel
	zl     zerolog.Logger
}

// NewSafeLogger creates a new safe logger with the given prefix
func NewSafeLogger(prefix string) *SafeLogger {
	level := LogInfo
	if os.Getenv("LSP_FOLDING_DEBUG") == trueStr {
		level = LogDebug
	}

	writer := zerolog.ConsoleWriter{
		Out:        lockedWriter{},
		NoColor:    true,
		TimeFormat: "2006/01/02 15:04:05",
	}
	return &SafeLogger{
		prefix: prefix,
		level:  level,
		zl:     zerolog.New(writer).With().Timestamp().Logger(),
	}
}

// SetLevel sets the minimum log level
func (l *SafeLogger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level returns the minimum log level
func (l *SafeLogger) Level() LogLevel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

func (l *SafeLogger) log(level LogLevel, format string, args ...interface{}) {
	if level < l.Level() {
		return
	}
	// Fatal goes through WithLevel so zerolog does not exit before our own handling.
	l.zl.WithLevel(level.zerolog()).Msg(l.prefix + ": " + fmt.Sprintf(format, args...))
}

// Debug logs a debug message
func (l *SafeLogger) Debug(format string, args ...interface{}) {
	l.log(LogDebug, format, args...)
}

// Info logs an info message
func (l *SafeLogger) Info(format string, args ...interface{}) {
	l.log(LogInfo, format, args...)
}

// Warn logs a warning message
func (l *SafeLogger) Warn(format string, args ...interface{}) {
	l.log(LogWarn, format, args...)
}

// Error logs an error message
func (l *SafeLogger) Error(format string, args ...interface{}) {
	l.log(LogError, format, args...)
}

// Fatal logs a fatal message and exits
func (l *SafeLogger) Fatal(format string, args ...interface{}) {
	l.log(LogFatal, format, args...)
	os.Exit(1)
}

// Global logger instances for convenience
var (
	LSPLogger     = NewSafeLogger("LSP")
	GatewayLogger = NewSafeLogger("Gateway")
	CLILogger     = NewSafeLogger("CLI")
)

// SetGlobalLevel applies level to every global logger
func SetGlobalLevel(level LogLevel) {
	for _, l := range []*SafeLogger{LSPLogger, GatewayLogger, CLILogger} {
		l.SetLevel(level)
	}
}
