// Package log provides a structured logging interface for optimazing fitting
// operations.
//
// The package defines a minimal logging interface with a zerolog-backed
// default implementation. Fit progress that would be print-style verbosity in
// other libraries is emitted here as Debug-level structured events, so
// callers opt in through the log level instead of a verbose flag.
//
// Key features:
//   - Implementation-agnostic Logger interface with field chaining
//   - Fit-specific structured attribute keys (function, loss, parameters)
//   - zerolog default backend with configurable level and output
//   - Test-friendly capture logger for assertions on log output
//
// Example usage:
//
//	logger := log.GetLoggerWithName("fit").With(
//	    log.FunctionKey, "linear",
//	)
//	logger.Info("fit finished",
//	    log.OperationKey, log.OperationFit,
//	    log.ConvergedKey, true,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface.
//
// The interface supports contextual field chaining through With, allowing
// creation of loggers with pre-populated fields. Fields are alternating
// key/value pairs, keys being strings.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	// If the first field is an error, stack trace information extracted from
	// it is attached to the event.
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits records at the given level.
	// Use it to avoid building expensive fields that would be discarded.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, value-compatible with slog.Level.
type Level int

// Standard logging levels.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
