package fit

import (
	"fmt"
	"strings"

	"github.com/thoinka/optimazing/core/tensor"
	"github.com/thoinka/optimazing/minimize"
	"github.com/thoinka/optimazing/pkg/errors"
)

// ParamValue is one fitted parameter: its value and, when the minimizer
// provided an inverse-Hessian diagonal, its uncertainty. A nil Uncertainty
// means unknown, not zero; frozen parameters always carry nil.
type ParamValue struct {
	Value       *tensor.Tensor
	Uncertainty *tensor.Tensor
}

// String renders value±uncertainty, omitting the uncertainty when unknown.
func (p ParamValue) String() string {
	if p.Uncertainty == nil {
		return p.Value.String()
	}
	return p.Value.String() + "±" + p.Uncertainty.String()
}

// OptimizationResult is the immutable outcome of one fit: resolved parameter
// values (fitted and frozen), uncertainties, the objective value at the
// optimum, and the raw minimizer diagnostics. It can also re-evaluate the
// original model function at new inputs using the fitted values.
type OptimizationResult struct {
	name       string
	fn         ModelFunc
	arguments  []string
	parameters []string
	values     map[string]ParamValue
	diag       *minimize.Result
}

// newResult assembles a result from the fit's resolved values and the
// minimizer outcome. Parameters missing from the uncertainty map (frozen
// ones, or all of them when no inverse Hessian was available) report nil.
func newResult(f *OptimizableFunction, values, uncertainties map[string]*tensor.Tensor, diag *minimize.Result) *OptimizationResult {
	resolved := make(map[string]ParamValue, len(values))
	for name, value := range values {
		resolved[name] = ParamValue{
			Value:       value,
			Uncertainty: uncertainties[name],
		}
	}
	return &OptimizationResult{
		name:       f.name,
		fn:         f.fn,
		arguments:  f.arguments,
		parameters: f.parameters,
		values:     resolved,
		diag:       diag,
	}
}

// Param returns a parameter's fitted value and uncertainty. An unknown name
// fails with a ConfigurationError rather than returning a default.
func (r *OptimizationResult) Param(name string) (ParamValue, error) {
	p, ok := r.values[name]
	if !ok {
		return ParamValue{}, errors.NewConfigurationError("Param", name, "unknown parameter")
	}
	return p, nil
}

// Value returns a parameter's fitted value.
func (r *OptimizationResult) Value(name string) (*tensor.Tensor, error) {
	p, err := r.Param(name)
	if err != nil {
		return nil, err
	}
	return p.Value, nil
}

// Float returns a scalar parameter's fitted value.
func (r *OptimizationResult) Float(name string) (float64, error) {
	v, err := r.Value(name)
	if err != nil {
		return 0, err
	}
	if !v.IsScalar() {
		return 0, errors.NewValueError("Float", fmt.Sprintf("parameter %q has shape %v", name, v.Shape()))
	}
	return v.Float(), nil
}

// Uncertainty returns a parameter's uncertainty, nil when unknown.
func (r *OptimizationResult) Uncertainty(name string) (*tensor.Tensor, error) {
	p, err := r.Param(name)
	if err != nil {
		return nil, err
	}
	return p.Uncertainty, nil
}

// ObjectiveValue returns the objective value at the optimum.
func (r *OptimizationResult) ObjectiveValue() float64 {
	return r.diag.F
}

// Converged reports whether the minimizer met its convergence criteria.
func (r *OptimizationResult) Converged() bool {
	return r.diag.Converged
}

// Diagnostics returns the raw minimizer result for advanced inspection.
func (r *OptimizationResult) Diagnostics() *minimize.Result {
	return r.diag
}

// Evaluate re-invokes the original model function at new argument values,
// substituting the fitted values for all parameters. This is a pure
// re-evaluation; nothing is refit.
func (r *OptimizationResult) Evaluate(args [][]float64) (estimate []float64, err error) {
	defer errors.Recover(&err, "Evaluate")

	if len(args) != len(r.arguments) {
		return nil, errors.NewDimensionError("Evaluate: arguments", len(r.arguments), len(args))
	}
	values := make(Values, len(r.values))
	for name, p := range r.values {
		values[name] = p.Value
	}
	return r.fn(args, values), nil
}

// String renders the result as name(arg1, ...; param1=value1±unc1, ...),
// omitting ±uncertainty where it is unknown. Parameters appear in
// declaration order.
func (r *OptimizationResult) String() string {
	rendered := make([]string, 0, len(r.parameters))
	for _, name := range r.parameters {
		if p, ok := r.values[name]; ok {
			rendered = append(rendered, fmt.Sprintf("%s=%s", name, p))
		}
	}
	return fmt.Sprintf("%s(%s; %s)",
		r.name,
		strings.Join(r.arguments, ", "),
		strings.Join(rendered, ", "),
	)
}
