package errors

import (
	"strings"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "construction",
			err:  NewConstructionError("linear", "no parameters found"),
			want: []string{"linear", "not a valid optimizable function", "no parameters found"},
		},
		{
			name: "configuration",
			err:  NewConfigurationError("Freeze", "b", "parameter is frozen"),
			want: []string{"Freeze", `"b"`, "parameter is frozen"},
		},
		{
			name: "input resolution",
			err:  NewInputResolutionError("Fit", "a", "missing initial value"),
			want: []string{"Fit", `"a"`, "missing initial value"},
		},
		{
			name: "loss not found",
			err:  NewLossNotFoundError("huber", []string{"laplace", "chi_squared"}),
			want: []string{`"huber"`, "not registered", "chi_squared, laplace"},
		},
		{
			name: "fit precondition",
			err:  NewFitPreconditionError("linear", "no free parameters left to fit"),
			want: []string{"cannot fit linear", "no free parameters"},
		},
		{
			name: "value",
			err:  NewValueError("Minimize", "objective must not be nil"),
			want: []string{"Minimize", "objective must not be nil"},
		},
		{
			name: "dimension",
			err:  NewDimensionError("Fit: weights", 3, 2),
			want: []string{"Fit: weights", "Expected 3", "got 2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.want {
				if !strings.Contains(msg, want) {
					t.Errorf("message %q does not contain %q", msg, want)
				}
			}
		})
	}
}

func TestErrorAs(t *testing.T) {
	// Constructors attach a stack, so matching must go through As.
	wrapped := Wrap(NewConfigurationError("Bound", "a", "unknown parameter"), "outer")

	var cfg *ConfigurationError
	if !As(wrapped, &cfg) {
		t.Fatal("As failed through WithStack and Wrap")
	}
	if cfg.Param != "a" {
		t.Errorf("Param = %q, want %q", cfg.Param, "a")
	}
}

func TestErrorIs(t *testing.T) {
	err := Wrap(ErrEmptyData, "Fit: target")
	if !Is(err, ErrEmptyData) {
		t.Error("Is(wrapped, ErrEmptyData) = false")
	}
}

func TestConvergenceWarningMessage(t *testing.T) {
	w := NewConvergenceWarning("linear", "IterationLimit", 100)
	msg := w.Error()
	for _, want := range []string{"linear", "did not converge", "100", "IterationLimit"} {
		if !strings.Contains(msg, want) {
			t.Errorf("warning %q does not contain %q", msg, want)
		}
	}
}

func TestWarnHandlerPrecedence(t *testing.T) {
	var viaHandler, viaSink []error

	SetZerologWarnFunc(func(w error) { viaSink = append(viaSink, w) })
	defer SetZerologWarnFunc(nil)

	// Without an explicit handler the sink receives the warning.
	Warn(NewConvergenceWarning("f", "Failure", 1))
	if len(viaSink) != 1 {
		t.Fatalf("sink received %d warnings, want 1", len(viaSink))
	}

	// An installed handler takes precedence over the sink.
	SetWarningHandler(func(w error) { viaHandler = append(viaHandler, w) })
	defer SetWarningHandler(nil)

	Warn(NewConvergenceWarning("g", "Failure", 2))
	if len(viaHandler) != 1 {
		t.Errorf("handler received %d warnings, want 1", len(viaHandler))
	}
	if len(viaSink) != 1 {
		t.Errorf("sink received %d warnings after handler install, want 1", len(viaSink))
	}
}

func TestRecover(t *testing.T) {
	fail := func() (err error) {
		defer Recover(&err, "Call")
		panic("model function exploded")
	}

	err := fail()
	if err == nil {
		t.Fatal("expected a recovered error")
	}
	var pe *PanicError
	if !As(err, &pe) {
		t.Fatalf("error type = %T, want PanicError", err)
	}
	if pe.Operation != "Call" {
		t.Errorf("Operation = %q, want %q", pe.Operation, "Call")
	}
	if pe.StackTrace == "" {
		t.Error("StackTrace is empty")
	}
}

func TestRecoverNoPanic(t *testing.T) {
	ok := func() (err error) {
		defer Recover(&err, "Call")
		return nil
	}
	if err := ok(); err != nil {
		t.Errorf("err = %v, want nil", err)
	}
}
