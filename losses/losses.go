// Package losses provides loss functions for parameter fitting.
//
// A loss maps (target, estimate, weights, sigma) to a scalar and always
// returns the mean over the observation axis, not the sum, so that loss
// magnitudes stay independent of sample count.
//
// Built-in losses:
//   - chi_squared (aliases: mse, l2, chi2): mean(w·(target−estimate)²/σ²)
//   - laplace (alias: l1):                  mean(w·|target−estimate|/σ)
//   - poisson:                              mean(w·(estimate − target·ln(estimate+ε)))
//
// Losses are looked up by case-insensitive name:
//
//	loss, err := losses.Get("Chi2")
//
// A loss may carry hyperparameters; deriving a variant never mutates the
// original:
//
//	tight := losses.Poisson.With(map[string]float64{"epsilon": 1e-12})
//
// Custom losses are plain values built with losses.New and passed to a fit
// directly; the registry itself is assembled once at init and read-only
// afterwards.
package losses

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/thoinka/optimazing/pkg/errors"
)

// Func is the computational core of a loss. All four inputs have equal
// length; hyper carries the loss's bound hyperparameters.
type Func func(target, estimate, weights, sigma []float64, hyper map[string]float64) float64

// Loss is a named loss function with bound hyperparameters. The zero value is
// not usable; construct with New or look one up with Get.
type Loss struct {
	name  string
	fn    Func
	hyper map[string]float64
}

// New creates a loss from a name, a computation and optional default
// hyperparameters.
func New(name string, fn Func, hyper map[string]float64) Loss {
	h := make(map[string]float64, len(hyper))
	for k, v := range hyper {
		h[k] = v
	}
	return Loss{name: name, fn: fn, hyper: h}
}

// Name returns the loss's canonical name.
func (l Loss) Name() string {
	return l.name
}

// With returns a copy of the loss with the given hyperparameters layered over
// the existing ones. The receiver is left untouched.
//
// Example:
//
//	eps := losses.Poisson.With(map[string]float64{"epsilon": 1e-12})
func (l Loss) With(hyper map[string]float64) Loss {
	merged := make(map[string]float64, len(l.hyper)+len(hyper))
	for k, v := range l.hyper {
		merged[k] = v
	}
	for k, v := range hyper {
		merged[k] = v
	}
	return Loss{name: l.name, fn: l.fn, hyper: merged}
}

// Hyperparameter returns a bound hyperparameter by name.
func (l Loss) Hyperparameter(name string) (float64, bool) {
	v, ok := l.hyper[name]
	return v, ok
}

// Evaluate computes the loss over one set of observations.
//
// Parameters:
//   - target: observed values
//   - estimate: model output at the same observations
//   - weights: per-observation weights
//   - sigma: per-observation uncertainties
//
// Returns:
//   - float64: the mean loss across observations
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ErrEmptyData: if target is empty
//   - DimensionError: if any input's length differs from target's
func (l Loss) Evaluate(target, estimate, weights, sigma []float64) (float64, error) {
	n := len(target)
	if n == 0 {
		return 0, errors.Wrap(errors.ErrEmptyData, l.name)
	}
	if len(estimate) != n {
		return 0, errors.NewDimensionError(l.name+": estimate", n, len(estimate))
	}
	if len(weights) != n {
		return 0, errors.NewDimensionError(l.name+": weights", n, len(weights))
	}
	if len(sigma) != n {
		return 0, errors.NewDimensionError(l.name+": sigma", n, len(sigma))
	}
	return l.fn(target, estimate, weights, sigma, l.hyper), nil
}

// String renders the loss's call signature.
func (l Loss) String() string {
	return fmt.Sprintf("%s(target, estimate, weights, sigma)", l.name)
}

// Built-in losses.
var (
	// ChiSquared is the weighted mean squared error scaled by sigma, the
	// default loss for fitting.
	ChiSquared = New("chi_squared", func(target, estimate, weights, sigma []float64, _ map[string]float64) float64 {
		var sum float64
		for i := range target {
			diff := target[i] - estimate[i]
			sum += weights[i] * diff * diff / (sigma[i] * sigma[i])
		}
		return sum / float64(len(target))
	}, nil)

	// Laplace is the weighted mean absolute error scaled by sigma, more
	// robust to outliers than ChiSquared.
	Laplace = New("laplace", func(target, estimate, weights, sigma []float64, _ map[string]float64) float64 {
		var sum float64
		for i := range target {
			sum += weights[i] * math.Abs(target[i]-estimate[i]) / sigma[i]
		}
		return sum / float64(len(target))
	}, nil)

	// Poisson is the mean Poisson deviance. The epsilon hyperparameter
	// guards the logarithm against zero estimates; it defaults to 1e-8.
	Poisson = New("poisson", func(target, estimate, weights, _ []float64, hyper map[string]float64) float64 {
		epsilon := hyper["epsilon"]
		var sum float64
		for i := range target {
			sum += weights[i] * (estimate[i] - target[i]*math.Log(estimate[i]+epsilon))
		}
		return sum / float64(len(target))
	}, map[string]float64{"epsilon": 1e-8})
)

// registry maps case-insensitive names and aliases to losses. Built once
// here; treated as read-only afterwards.
var registry = map[string]Loss{
	"chi_squared": ChiSquared,
	"chi2":        ChiSquared,
	"mse":         ChiSquared,
	"l2":          ChiSquared,
	"laplace":     Laplace,
	"l1":          Laplace,
	"poisson":     Poisson,
}

// Get looks up a loss by name, case-insensitively.
//
// Returns:
//   - Loss: the registered loss
//   - error: a LossNotFoundError listing registered names if the name is unknown
func Get(name string) (Loss, error) {
	l, ok := registry[strings.ToLower(name)]
	if !ok {
		return Loss{}, errors.NewLossNotFoundError(name, Names())
	}
	return l, nil
}

// Names returns every registered loss name and alias, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
