// Package minimize provides the numerical minimization capability consumed by
// parameter fitting.
//
// The fitting layer treats minimization as a black box behind the Minimizer
// interface: it hands over an objective, an initial flat vector and optional
// box bounds, and gets back an optimum, the objective value there, and,
// when the backend can provide one, the diagonal of an inverse-Hessian
// approximation for uncertainty estimation.
//
// The default backend wraps gonum.org/v1/gonum/optimize; see Gonum. A
// non-converged run is not an error — the result carries the backend's
// termination status for the caller to inspect.
package minimize

import (
	"math"
)

// Objective is a scalar function over one flat parameter vector.
type Objective func(x []float64) float64

// Bound is a closed interval constraint on one flat vector element.
// Negative and positive infinity leave the respective end open.
type Bound struct {
	Min float64
	Max float64
}

// Unbounded returns a bound with both ends open.
func Unbounded() Bound {
	return Bound{Min: math.Inf(-1), Max: math.Inf(1)}
}

// Clamp projects v into the bound.
func (b Bound) Clamp(v float64) float64 {
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

// Contains reports whether v lies within the bound, inclusive.
func (b Bound) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Problem is one minimization task.
type Problem struct {
	// Objective is the function to minimize.
	Objective Objective

	// X0 is the initial flat vector.
	X0 []float64

	// Bounds constrains each element of the vector; nil means unbounded.
	// When non-nil its length must equal len(X0).
	Bounds []Bound
}

// Options tunes a minimization. Caller-supplied X0 or Bounds override the
// ones derived on the Problem, last write wins.
type Options struct {
	// Method selects the minimization method by name. The gonum backend
	// understands "bfgs" (default), "lbfgs", "newton", "nelder-mead" and
	// "gradient". An empty string selects the backend default.
	Method string

	// MaxIterations caps the number of major iterations. Zero leaves the
	// backend default in place.
	MaxIterations int

	// Tolerance sets the gradient threshold for convergence. Zero leaves
	// the backend default in place.
	Tolerance float64

	// X0 overrides Problem.X0 when non-nil.
	X0 []float64

	// Bounds overrides Problem.Bounds when non-nil.
	Bounds []Bound
}

// Result is the outcome of one minimization.
type Result struct {
	// X is the optimum found, projected into bounds when bounds were set.
	X []float64

	// F is the objective value at X.
	F float64

	// HessInvDiag is the diagonal of an inverse-Hessian approximation at X,
	// or nil when the backend could not provide one. Unknown, not zero.
	HessInvDiag []float64

	// Converged reports whether the backend met a convergence criterion,
	// as opposed to stopping on an iteration or evaluation limit.
	Converged bool

	// Status is the backend's termination status in text form.
	Status string

	// Iterations and Evaluations count major iterations and objective
	// evaluations performed.
	Iterations  int
	Evaluations int

	// Raw holds backend-specific diagnostics for advanced inspection; the
	// gonum backend stores the *optimize.Result here.
	Raw interface{}
}

// Minimizer is the black-box minimization capability.
type Minimizer interface {
	// Minimize runs one minimization. It returns an error only when the
	// problem is malformed or the backend fails outright; stopping without
	// convergence yields a Result with Converged == false.
	Minimize(problem Problem, opts Options) (*Result, error)
}
