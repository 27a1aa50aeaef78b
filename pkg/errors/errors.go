// Package errors provides error handling and warnings for the optimazing
// fitting library.
//
// Every failure a fit can produce is a structured error type raised at the
// point of detection, never retried or swallowed:
//
//   - ConstructionError: bad function schema, reserved or invalid names
//   - ConfigurationError: unknown or conflicting freeze/bound keys
//   - InputResolutionError: missing column, target or initial value, bad shape
//   - LossNotFoundError: unknown loss name
//   - FitPreconditionError: nothing left to fit
//
// Non-convergence of the minimizer is deliberately not an error: a
// non-converged result is still returned, and a ConvergenceWarning is emitted
// through the process-global warning handler instead.
package errors

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================

var (
	warningMutex sync.Mutex
	// warningHandler is nil until a caller installs one; an installed
	// handler takes precedence over the zerolog sink.
	warningHandler func(w error)
	// zerolog hook, lazily injected by pkg/log to avoid an import cycle.
	zerologWarnFunc func(warning error)
)

// SetWarningHandler sets the library-wide warning handler, controlling how
// warnings such as ConvergenceWarning are processed.
//
// Example:
//
//	errors.SetWarningHandler(func(w error) {
//	    // ignore warnings
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc injects a zerolog-backed warning sink. Called by pkg/log
// so that warnings become structured log events without a circular import.
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn emits a warning. An explicitly installed handler runs first; without
// one, the zerolog sink handles the warning, and without either the warning
// goes to the standard logger.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if warningHandler != nil {
		warningHandler(w)
		return
	}
	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}
	log.Printf("optimazing-Warning: %v\n", w)
}

// ===========================================================================
//
//	Warning types
//
// ===========================================================================

// ConvergenceWarning is emitted when the minimizer stops without reaching its
// convergence criteria. The fit result is still valid and returned; the raw
// minimizer status is available on the result's diagnostics.
type ConvergenceWarning struct {
	Function   string
	Status     string
	Iterations int
}

func (w *ConvergenceWarning) Error() string {
	return fmt.Sprintf("fit of %s did not converge after %d iterations (status: %s). Inspect result diagnostics or adjust minimizer options.",
		w.Function, w.Iterations, w.Status)
}

// MarshalZerologObject adds structured warning information to a zerolog event.
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("function", w.Function).
		Str("status", w.Status).
		Int("iterations", w.Iterations).
		Str("type", "ConvergenceWarning")
}

// NewConvergenceWarning creates a new ConvergenceWarning.
func NewConvergenceWarning(function, status string, iterations int) *ConvergenceWarning {
	return &ConvergenceWarning{Function: function, Status: status, Iterations: iterations}
}

// ===========================================================================
//
//	Structured error types
//
// ===========================================================================

// ConstructionError reports an invalid function schema: missing arguments or
// parameters, a name carrying the internal reserved marker, or a collision
// with a reserved name.
type ConstructionError struct {
	Function string
	Reason   string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("optimazing: %s is not a valid optimizable function: %s", e.Function, e.Reason)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *ConstructionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("function", e.Function).
		Str("reason", e.Reason).
		Str("type", "ConstructionError")
}

// NewConstructionError creates a new ConstructionError with a stack trace.
func NewConstructionError(function, reason string) error {
	err := &ConstructionError{Function: function, Reason: reason}
	return errors.WithStack(err)
}

// ConfigurationError reports an unknown or conflicting freeze/bound key, or an
// attempt to re-specify an already-frozen parameter.
type ConfigurationError struct {
	Op     string
	Param  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("optimazing: %s: parameter %q: %s", e.Op, e.Param, e.Reason)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *ConfigurationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("param", e.Param).
		Str("reason", e.Reason).
		Str("type", "ConfigurationError")
}

// NewConfigurationError creates a new ConfigurationError with a stack trace.
func NewConfigurationError(op, param, reason string) error {
	err := &ConfigurationError{Op: op, Param: param, Reason: reason}
	return errors.WithStack(err)
}

// InputResolutionError reports a failure to resolve fit inputs: a referenced
// column that the table does not carry, a missing target or initial value, a
// non-numeric initial value, or a shape mismatch.
type InputResolutionError struct {
	Op     string
	Name   string
	Reason string
}

func (e *InputResolutionError) Error() string {
	return fmt.Sprintf("optimazing: %s: %q: %s", e.Op, e.Name, e.Reason)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *InputResolutionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("name", e.Name).
		Str("reason", e.Reason).
		Str("type", "InputResolutionError")
}

// NewInputResolutionError creates a new InputResolutionError with a stack trace.
func NewInputResolutionError(op, name, reason string) error {
	err := &InputResolutionError{Op: op, Name: name, Reason: reason}
	return errors.WithStack(err)
}

// LossNotFoundError reports a loss name that is not in the registry. The
// message lists every registered name.
type LossNotFoundError struct {
	Name       string
	Registered []string
}

func (e *LossNotFoundError) Error() string {
	names := append([]string{}, e.Registered...)
	sort.Strings(names)
	return fmt.Sprintf("optimazing: loss %q is not registered. Registered losses are: %s",
		e.Name, strings.Join(names, ", "))
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *LossNotFoundError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("loss", e.Name).
		Strs("registered", e.Registered).
		Str("type", "LossNotFoundError")
}

// NewLossNotFoundError creates a new LossNotFoundError with a stack trace.
func NewLossNotFoundError(name string, registered []string) error {
	err := &LossNotFoundError{Name: name, Registered: registered}
	return errors.WithStack(err)
}

// FitPreconditionError reports a fit call that cannot start, such as a fully
// frozen parameter set leaving nothing to optimize.
type FitPreconditionError struct {
	Function string
	Reason   string
}

func (e *FitPreconditionError) Error() string {
	return fmt.Sprintf("optimazing: cannot fit %s: %s", e.Function, e.Reason)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *FitPreconditionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("function", e.Function).
		Str("reason", e.Reason).
		Str("type", "FitPreconditionError")
}

// NewFitPreconditionError creates a new FitPreconditionError with a stack trace.
func NewFitPreconditionError(function, reason string) error {
	err := &FitPreconditionError{Function: function, Reason: reason}
	return errors.WithStack(err)
}

// ValueError reports an argument whose value is unusable, such as a negative
// shape dimension or mismatched data length.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("optimazing: %s: %s", e.Op, e.Message)
}

// NewValueError creates a new ValueError with a stack trace.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// DimensionError reports a size mismatch between two sequences that must be
// elementwise compatible.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("optimazing: %s: length mismatch. Expected %d, got %d", e.Op, e.Expected, e.Got)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Str("type", "DimensionError")
}

// NewDimensionError creates a new DimensionError with a stack trace.
func NewDimensionError(op string, expected, got int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As reports whether err can be cast into target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an existing error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an existing error with a format string.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates an error with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Common error values
//
// ===========================================================================

var (
	// ErrEmptyData is returned when empty data is passed.
	ErrEmptyData = New("empty data")
)
