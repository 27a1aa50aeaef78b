// Package log provides testing utilities for structured logging.
//
// This file contains a capture logger used to verify the log output of
// fitting and minimization code in tests without touching the process-global
// logger.

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// TestLogger is a Logger implementation that records every emitted entry in
// memory. Entries are kept both as structured maps, for field assertions
// against the attribute keys in this package, and as JSON lines in a buffer.
type TestLogger struct {
	buffer  *bytes.Buffer
	level   Level
	bound   []any
	entries *[]map[string]interface{}
}

// NewTestLogger creates a TestLogger with the given minimum level. The
// returned buffer holds the JSON rendering of every captured entry.
//
// Example:
//
//	logger, _ := log.NewTestLogger(log.LevelDebug)
//	logger.Info("fit finished", log.FunctionKey, "linear")
//	entries := logger.FunctionEvents("linear")
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buffer := &bytes.Buffer{}
	return &TestLogger{
		buffer:  buffer,
		level:   level,
		entries: &[]map[string]interface{}{},
	}, buffer
}

// Debug implements Logger.Debug.
func (t *TestLogger) Debug(msg string, fields ...any) {
	t.emit(LevelDebug, "DEBUG", msg, fields)
}

// Info implements Logger.Info.
func (t *TestLogger) Info(msg string, fields ...any) {
	t.emit(LevelInfo, "INFO", msg, fields)
}

// Warn implements Logger.Warn.
func (t *TestLogger) Warn(msg string, fields ...any) {
	t.emit(LevelWarn, "WARN", msg, fields)
}

// Error implements Logger.Error.
func (t *TestLogger) Error(msg string, fields ...any) {
	t.emit(LevelError, "ERROR", msg, fields)
}

// With implements Logger.With. The child shares the parent's capture, so
// entries logged through it remain visible on the parent.
func (t *TestLogger) With(fields ...any) Logger {
	child := *t
	child.bound = append(append([]any{}, t.bound...), fields...)
	return &child
}

// Enabled implements Logger.Enabled.
func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	return t.level <= level
}

func (t *TestLogger) emit(at Level, label, msg string, fields []any) {
	if t.level > at {
		return
	}
	entry := map[string]interface{}{
		"level":   label,
		"message": msg,
	}
	collectFields(entry, t.bound)
	collectFields(entry, fields)
	*t.entries = append(*t.entries, entry)

	line, _ := json.Marshal(entry)
	t.buffer.Write(line)
	t.buffer.WriteByte('\n')
}

// collectFields folds alternating key/value pairs into entry. Errors are
// flattened to their message, mirroring the zerolog backend.
func collectFields(entry map[string]interface{}, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		if err, ok := fields[i+1].(error); ok {
			entry[key] = err.Error()
			continue
		}
		entry[key] = fields[i+1]
	}
}

// Entries returns the captured entries in emission order.
func (t *TestLogger) Entries() []map[string]interface{} {
	return *t.entries
}

// LastEntry returns the most recent entry, or nil when nothing was captured.
func (t *TestLogger) LastEntry() map[string]interface{} {
	entries := *t.entries
	if len(entries) == 0 {
		return nil
	}
	return entries[len(entries)-1]
}

// EntriesWith returns the entries whose field under key equals value.
func (t *TestLogger) EntriesWith(key string, value interface{}) []map[string]interface{} {
	var matched []map[string]interface{}
	for _, entry := range *t.entries {
		if entry[key] == value {
			matched = append(matched, entry)
		}
	}
	return matched
}

// FunctionEvents returns the entries tagged with the given fit function
// name under FunctionKey.
func (t *TestLogger) FunctionEvents(function string) []map[string]interface{} {
	return t.EntriesWith(FunctionKey, function)
}

// ComponentEvents returns the entries logged by the named component under
// ComponentKey, such as "fit" or "minimize".
func (t *TestLogger) ComponentEvents(component string) []map[string]interface{} {
	return t.EntriesWith(ComponentKey, component)
}

// ContainsMessage reports whether any captured entry's message contains the
// given text.
func (t *TestLogger) ContainsMessage(message string) bool {
	for _, entry := range *t.entries {
		msg, ok := entry["message"].(string)
		if ok && strings.Contains(msg, message) {
			return true
		}
	}
	return false
}
