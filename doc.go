// Package optimazing provides a declarative convenience layer for nonlinear
// least-squares and maximum-likelihood parameter fitting.
//
// A user-defined model function with positional arguments and named parameters
// is wrapped into an optimizable function whose parameters can be frozen to
// constants, bounded to intervals, and fit against observed data by minimizing
// a configurable loss (chi-squared, Laplace/L1, Poisson deviance).
//
// # Packages
//
//   - fit: the optimizable function wrapper and fit results
//   - losses: built-in loss functions and the loss registry
//   - params: flattening of named, shaped parameters into one flat vector
//   - minimize: the numerical minimizer capability (gonum-backed by default)
//   - table: a small columnar table for name-addressed fit inputs
//   - core/tensor: scalar and array-shaped numeric values
//
// # Quick Start
//
// Fitting a straight line:
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
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := linear.Fit(
//	    [][]float64{{0, 1, 2}},
//	    []float64{0.123, 0.938, 2.123},
//	    fit.Init{"a": 1.0, "b": 0.0},
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result) // linear(x; a=1±0.29, b=0.0613±0.37)
//
// Parameters can be frozen or bounded before fitting; both derivations return
// a new wrapper and never mutate the original:
//
//	throughOrigin := linear.MustFreeze(fit.Frozen{"b": 0.0})
//	positiveSlope := linear.MustBound(fit.BoundSet{"a": fit.AtLeast(0)})
//
// The underlying minimizer is treated as a black box; see package minimize for
// swapping in a different backend or tuning the default gonum one.
package optimazing
