// Package log provides the zerolog-backed default Logger implementation.

package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	optErrors "github.com/thoinka/optimazing/pkg/errors"
)

var (
	rootMutex sync.RWMutex
	rootLevel = zerolog.WarnLevel
	rootOut   io.Writer = os.Stderr
)

func init() {
	// Route library warnings (e.g. ConvergenceWarning) through zerolog as
	// structured events.
	optErrors.SetZerologWarnFunc(func(warning error) {
		l := rootLogger()
		ev := l.Warn()
		if marshaler, ok := warning.(zerolog.LogObjectMarshaler); ok {
			ev = ev.EmbedObject(marshaler)
		}
		ev.Msg(warning.Error())
	})
}

func rootLogger() zerolog.Logger {
	rootMutex.RLock()
	defer rootMutex.RUnlock()
	return zerolog.New(rootOut).With().Timestamp().Logger().Level(rootLevel)
}

// SetLevel sets the minimum level emitted by loggers obtained from GetLogger
// and GetLoggerWithName. The default is LevelWarn, keeping fits quiet unless
// asked otherwise.
func SetLevel(level Level) {
	rootMutex.Lock()
	defer rootMutex.Unlock()
	rootLevel = toZerologLevel(level)
}

// SetOutput redirects log output. The default is os.Stderr.
func SetOutput(w io.Writer) {
	rootMutex.Lock()
	defer rootMutex.Unlock()
	rootOut = w
}

// GetLogger returns the default logger.
func GetLogger() Logger {
	return &zerologLogger{zl: rootLogger()}
}

// GetLoggerWithName returns a logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	l := rootLogger().With().Str(ComponentKey, name).Logger()
	return &zerologLogger{zl: l}
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// zerologLogger implements Logger on top of a zerolog.Logger.
type zerologLogger struct {
	zl zerolog.Logger
}

// Debug implements Logger.Debug.
func (z *zerologLogger) Debug(msg string, fields ...any) {
	z.emit(z.zl.Debug(), msg, fields)
}

// Info implements Logger.Info.
func (z *zerologLogger) Info(msg string, fields ...any) {
	z.emit(z.zl.Info(), msg, fields)
}

// Warn implements Logger.Warn.
func (z *zerologLogger) Warn(msg string, fields ...any) {
	z.emit(z.zl.Warn(), msg, fields)
}

// Error implements Logger.Error.
func (z *zerologLogger) Error(msg string, fields ...any) {
	z.emit(z.zl.Error(), msg, fields)
}

// With implements Logger.With.
func (z *zerologLogger) With(fields ...any) Logger {
	ctx := z.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", fields[i])
		}
		ctx = ctx.Interface(key, fields[i+1])
	}
	return &zerologLogger{zl: ctx.Logger()}
}

// Enabled implements Logger.Enabled.
func (z *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return toZerologLevel(level) >= z.zl.GetLevel()
}

func (z *zerologLogger) emit(ev *zerolog.Event, msg string, fields []any) {
	if ev == nil {
		return
	}
	i := 0
	// A leading bare error gets special treatment: attach it, plus any stack
	// trace cockroachdb/errors recorded.
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			ev = ev.Err(err)
			if st := stacktrace(err); st != "" {
				ev = ev.Str("stacktrace", st)
			}
			if marshaler, ok := err.(zerolog.LogObjectMarshaler); ok {
				ev = ev.EmbedObject(marshaler)
			}
			i = 1
		}
	}
	for ; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", fields[i])
		}
		ev = ev.Interface(key, fields[i+1])
	}
	ev.Msg(msg)
}

func stacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}
