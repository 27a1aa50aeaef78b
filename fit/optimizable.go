// Package fit provides the optimizable function wrapper: a declarative layer
// that turns a plain model function into something whose parameters can be
// frozen to constants, bounded to intervals, and fit against observed data.
//
// A model function declares its schema explicitly at construction: an ordered
// list of positional argument names and an ordered list of parameter names.
// The wrapper validates the schema, layers freeze/bound constraints
// immutably, and drives fits through a pluggable numerical minimizer.
//
// Example:
//
//	linear, err := fit.New("linear",
//	    func(args [][]float64, p fit.Values) []float64 {
//	        x := args[0]
//	        a, b := p.Float("a"), p.Float("b")
//	        out := make([]float64, len(x))
//	        for i := range x {
//	            out[i] = a*x[i] + b
//	        }
//	        return out
//	    },
//	    []string{"x"}, []string{"a", "b"},
//	)
//
//	result, err := linear.Fit(
//	    [][]float64{{0, 1, 2}},
//	    []float64{0.123, 0.938, 2.123},
//	    fit.Init{"a": 1.0, "b": 0.0},
//	)
//
// Freeze and Bound return new wrappers and never mutate the receiver, so a
// base wrapper and its derivations can fit concurrently without coordination.
package fit

import (
	"fmt"
	"strings"

	"github.com/thoinka/optimazing/core/tensor"
	"github.com/thoinka/optimazing/pkg/errors"
	"github.com/thoinka/optimazing/pkg/log"
)

// reservedMarker prefixes names kept for internal use; no argument or
// parameter may start with it.
const reservedMarker = "_"

// reservedNames collide with fit-call inputs and cannot be parameter names.
var reservedNames = map[string]bool{
	"loss":    true,
	"sigma":   true,
	"weights": true,
	"args":    true,
	"options": true,
	"target":  true,
}

// OptimizableFunction binds a model function to its schema and to layered
// freeze/bound constraints. It is immutable: Freeze and Bound derive new
// instances.
type OptimizableFunction struct {
	name       string
	fn         ModelFunc
	arguments  []string
	parameters []string
	frozen     map[string]*tensor.Tensor
	bounds     map[string]Bound
	logger     log.Logger
}

// New wraps a model function into an OptimizableFunction.
//
// Parameters:
//   - name: the function's name, used in rendering and as the default target
//     column for tabular fits
//   - fn: the model function
//   - arguments: ordered positional argument names (at least one)
//   - parameters: ordered parameter names (at least one)
//
// Returns:
//   - *OptimizableFunction: the wrapper
//   - error: a ConstructionError if the schema is not fittable: no arguments,
//     no parameters, duplicate names, names starting with the reserved
//     marker, or parameter names colliding with reserved names
func New(name string, fn ModelFunc, arguments, parameters []string) (*OptimizableFunction, error) {
	if fn == nil {
		return nil, errors.NewConstructionError(name, "model function must not be nil")
	}
	if len(arguments) == 0 {
		return nil, errors.NewConstructionError(name,
			"no arguments found. Declare at least one positional argument")
	}
	if len(parameters) == 0 {
		return nil, errors.NewConstructionError(name,
			"no parameters found. Declare at least one parameter")
	}

	seen := make(map[string]bool, len(arguments)+len(parameters))
	for _, a := range arguments {
		if strings.HasPrefix(a, reservedMarker) {
			return nil, errors.NewConstructionError(name,
				fmt.Sprintf("argument %q must not begin with %q", a, reservedMarker))
		}
		if seen[a] {
			return nil, errors.NewConstructionError(name, fmt.Sprintf("duplicate name %q", a))
		}
		seen[a] = true
	}
	for _, p := range parameters {
		if strings.HasPrefix(p, reservedMarker) {
			return nil, errors.NewConstructionError(name,
				fmt.Sprintf("parameter %q must not begin with %q", p, reservedMarker))
		}
		if reservedNames[p] {
			return nil, errors.NewConstructionError(name,
				fmt.Sprintf("parameter %q collides with a reserved name", p))
		}
		if seen[p] {
			return nil, errors.NewConstructionError(name, fmt.Sprintf("duplicate name %q", p))
		}
		seen[p] = true
	}

	return &OptimizableFunction{
		name:       name,
		fn:         fn,
		arguments:  append([]string{}, arguments...),
		parameters: append([]string{}, parameters...),
		frozen:     map[string]*tensor.Tensor{},
		bounds:     map[string]Bound{},
		logger: log.GetLoggerWithName("fit").With(
			log.FunctionKey, name,
		),
	}, nil
}

// MustNew is New, panicking on error. Intended for package-level wrappers
// whose schema is statically known to be valid.
func MustNew(name string, fn ModelFunc, arguments, parameters []string) *OptimizableFunction {
	f, err := New(name, fn, arguments, parameters)
	if err != nil {
		panic(err)
	}
	return f
}

// Name returns the function's name.
func (f *OptimizableFunction) Name() string {
	return f.name
}

// NumArgs returns the number of declared positional arguments.
func (f *OptimizableFunction) NumArgs() int {
	return len(f.arguments)
}

// NumParams returns the number of declared parameters.
func (f *OptimizableFunction) NumParams() int {
	return len(f.parameters)
}

// IsFrozen reports whether any parameter is frozen.
func (f *OptimizableFunction) IsFrozen() bool {
	return len(f.frozen) > 0
}

// IsBounded reports whether any parameter is bounded.
func (f *OptimizableFunction) IsBounded() bool {
	return len(f.bounds) > 0
}

// checkParameters validates that every key names a declared parameter that is
// not frozen.
func (f *OptimizableFunction) checkParameters(op string, keys []string) error {
	for _, key := range keys {
		if !f.isParameter(key) {
			return errors.NewConfigurationError(op, key, "unknown parameter")
		}
		if _, frozen := f.frozen[key]; frozen {
			return errors.NewConfigurationError(op, key, "parameter is frozen")
		}
	}
	return nil
}

func (f *OptimizableFunction) isParameter(name string) bool {
	for _, p := range f.parameters {
		if p == name {
			return true
		}
	}
	return false
}

// Freeze returns a new wrapper with the given parameters fixed to constant
// values, layered onto the existing frozen set.
//
// Freezing fails with a ConfigurationError if a key is not a declared
// parameter, is already frozen, or carries a bound (resolve the conflict by
// not bounding what you freeze).
//
// Example:
//
//	throughOrigin, err := linear.Freeze(fit.Frozen{"b": 0.0})
func (f *OptimizableFunction) Freeze(values Frozen) (*OptimizableFunction, error) {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	if err := f.checkParameters("Freeze", keys); err != nil {
		return nil, err
	}
	for _, key := range keys {
		if _, bounded := f.bounds[key]; bounded {
			return nil, errors.NewConfigurationError("Freeze", key,
				"parameter is bounded; a frozen parameter cannot carry a bound")
		}
	}

	frozen := make(map[string]*tensor.Tensor, len(f.frozen)+len(values))
	for k, v := range f.frozen {
		frozen[k] = v
	}
	for key, value := range values {
		t, err := tensor.FromAny(value)
		if err != nil {
			return nil, errors.NewConfigurationError("Freeze", key,
				fmt.Sprintf("value must be numeric scalar or array, got %T", value))
		}
		frozen[key] = t
	}
	return f.derive(frozen, f.bounds), nil
}

// MustFreeze is Freeze, panicking on error.
func (f *OptimizableFunction) MustFreeze(values Frozen) *OptimizableFunction {
	derived, err := f.Freeze(values)
	if err != nil {
		panic(err)
	}
	return derived
}

// Bound returns a new wrapper with the given interval constraints layered
// onto the existing bound set; re-bounding a parameter replaces its bound.
// On an array-shaped parameter the bound applies elementwise.
//
// Bounding fails with a ConfigurationError if a key is not a declared
// parameter, is frozen, or has min > max.
//
// Example:
//
//	positiveSlope, err := linear.Bound(fit.BoundSet{"a": fit.AtLeast(0)})
func (f *OptimizableFunction) Bound(bounds BoundSet) (*OptimizableFunction, error) {
	keys := make([]string, 0, len(bounds))
	for key := range bounds {
		keys = append(keys, key)
	}
	if err := f.checkParameters("Bound", keys); err != nil {
		return nil, err
	}

	merged := make(map[string]Bound, len(f.bounds)+len(bounds))
	for k, v := range f.bounds {
		merged[k] = v
	}
	for key, b := range bounds {
		if b.Min > b.Max {
			return nil, errors.NewConfigurationError("Bound", key,
				fmt.Sprintf("invalid interval: min %g > max %g", b.Min, b.Max))
		}
		merged[key] = b
	}
	return f.derive(f.frozen, merged), nil
}

// MustBound is Bound, panicking on error.
func (f *OptimizableFunction) MustBound(bounds BoundSet) *OptimizableFunction {
	derived, err := f.Bound(bounds)
	if err != nil {
		panic(err)
	}
	return derived
}

// derive builds a sibling wrapper sharing the schema with new constraint
// sets. The maps are stored as-is; callers pass freshly built copies.
func (f *OptimizableFunction) derive(frozen map[string]*tensor.Tensor, bounds map[string]Bound) *OptimizableFunction {
	return &OptimizableFunction{
		name:       f.name,
		fn:         f.fn,
		arguments:  f.arguments,
		parameters: f.parameters,
		frozen:     frozen,
		bounds:     bounds,
		logger:     f.logger,
	}
}

// Call evaluates the model function directly. Every declared non-frozen
// parameter must be supplied in params; frozen values are merged in.
//
// Returns the raw model output, or an error for unknown parameter names,
// re-specified frozen parameters, missing parameters, or argument count or
// length mismatches.
func (f *OptimizableFunction) Call(args [][]float64, params map[string]interface{}) (estimate []float64, err error) {
	defer errors.Recover(&err, "Call")

	if len(args) != len(f.arguments) {
		return nil, errors.NewDimensionError("Call: arguments", len(f.arguments), len(args))
	}
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	if err := f.checkParameters("Call", keys); err != nil {
		return nil, err
	}

	values := make(Values, len(f.parameters))
	for key, value := range params {
		t, convErr := tensor.FromAny(value)
		if convErr != nil {
			return nil, errors.NewInputResolutionError("Call", key,
				fmt.Sprintf("value must be numeric scalar or array, got %T", value))
		}
		values[key] = t
	}
	for k, v := range f.frozen {
		values[k] = v
	}
	for _, p := range f.parameters {
		if _, ok := values[p]; !ok {
			return nil, errors.NewInputResolutionError("Call", p, "parameter value missing")
		}
	}
	return f.fn(args, values), nil
}

// String renders the schema as name(arg1, ...; param1, ...).
func (f *OptimizableFunction) String() string {
	return fmt.Sprintf("%s(%s; %s)",
		f.name,
		strings.Join(f.arguments, ", "),
		strings.Join(f.parameters, ", "),
	)
}
