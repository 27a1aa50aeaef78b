package fit

import (
	"fmt"

	"github.com/thoinka/optimazing/core/tensor"
	"github.com/thoinka/optimazing/minimize"
)

// ModelFunc is a user model function. args holds one slice per declared
// positional argument, each with one value per observation; params holds one
// tensor per declared parameter. The returned slice is the model estimate,
// one value per observation.
type ModelFunc func(args [][]float64, params Values) []float64

// Values maps parameter names to their current values. Inside a ModelFunc
// every declared parameter is guaranteed present, so the accessors do not
// return errors.
type Values map[string]*tensor.Tensor

// Float returns a scalar parameter's value. It panics on an undeclared name
// or a non-scalar parameter; both are programming errors inside a ModelFunc.
func (v Values) Float(name string) float64 {
	return v.Get(name).Float()
}

// Get returns a parameter tensor by name, panicking on an undeclared name.
func (v Values) Get(name string) *tensor.Tensor {
	t, ok := v[name]
	if !ok {
		panic(fmt.Sprintf("fit: parameter %q not present in Values", name))
	}
	return t
}

// At returns one element of an array-shaped parameter.
func (v Values) At(name string, indices ...int) float64 {
	return v.Get(name).At(indices...)
}

// Init supplies initial values for free parameters, keyed by parameter name.
// Accepted value types are numeric scalars (float64, float32, int variants),
// []float64, [][]float64 and *tensor.Tensor; anything else is rejected at fit
// time with an error naming the parameter and the offending type.
type Init map[string]interface{}

// Frozen supplies fixed values for frozen parameters, keyed by parameter
// name. The same value types as Init are accepted.
type Frozen map[string]interface{}

// Bound is a closed interval constraint on a parameter; infinities leave an
// end open. On an array-shaped parameter a bound applies elementwise.
type Bound = minimize.Bound

// BoundSet supplies bounds keyed by parameter name.
type BoundSet map[string]Bound

// Between bounds a parameter to [lo, hi].
func Between(lo, hi float64) Bound {
	return Bound{Min: lo, Max: hi}
}

// AtLeast bounds a parameter from below, leaving the upper end open.
func AtLeast(lo float64) Bound {
	b := minimize.Unbounded()
	b.Min = lo
	return b
}

// AtMost bounds a parameter from above, leaving the lower end open.
func AtMost(hi float64) Bound {
	b := minimize.Unbounded()
	b.Max = hi
	return b
}

// Unbounded returns a bound with both ends open.
func Unbounded() Bound {
	return minimize.Unbounded()
}
