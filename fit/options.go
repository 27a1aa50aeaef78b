package fit

import (
	"github.com/thoinka/optimazing/losses"
	"github.com/thoinka/optimazing/minimize"
)

// Option configures one fit call.
type Option func(*fitConfig)

// fitConfig collects per-call configuration; the zero value plus defaults in
// newFitConfig is a plain chi-squared fit with all-ones weights and sigma.
type fitConfig struct {
	lossName   string
	customLoss *losses.Loss

	weights    []float64
	sigma      []float64
	weightsCol string
	sigmaCol   string

	minimizer minimize.Minimizer
	minOpts   minimize.Options
}

func newFitConfig(opts []Option) *fitConfig {
	cfg := &fitConfig{lossName: "chi_squared"}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithLoss selects a registered loss by case-insensitive name.
// The default is "chi_squared".
func WithLoss(name string) Option {
	return func(cfg *fitConfig) {
		cfg.lossName = name
		cfg.customLoss = nil
	}
}

// WithLossFunc supplies a loss value directly, bypassing the registry.
// Use it for custom losses or for built-ins with adjusted hyperparameters.
func WithLossFunc(loss losses.Loss) Option {
	return func(cfg *fitConfig) {
		cfg.customLoss = &loss
	}
}

// WithWeights supplies per-observation weights. The default is all ones.
func WithWeights(weights []float64) Option {
	return func(cfg *fitConfig) {
		cfg.weights = weights
		cfg.weightsCol = ""
	}
}

// WithSigma supplies per-observation uncertainties. The default is all ones.
func WithSigma(sigma []float64) Option {
	return func(cfg *fitConfig) {
		cfg.sigma = sigma
		cfg.sigmaCol = ""
	}
}

// WithWeightsColumn reads weights from a named table column.
// Only valid with FitTable.
func WithWeightsColumn(name string) Option {
	return func(cfg *fitConfig) {
		cfg.weightsCol = name
		cfg.weights = nil
	}
}

// WithSigmaColumn reads sigma from a named table column.
// Only valid with FitTable.
func WithSigmaColumn(name string) Option {
	return func(cfg *fitConfig) {
		cfg.sigmaCol = name
		cfg.sigma = nil
	}
}

// WithMinimizer swaps the minimizer backend. The default is minimize.NewGonum().
func WithMinimizer(m minimize.Minimizer) Option {
	return func(cfg *fitConfig) {
		cfg.minimizer = m
	}
}

// WithMinimizeOptions passes extra options to the minimizer. Options carrying
// an explicit X0 or Bounds override the ones the fit derives, last write
// wins.
func WithMinimizeOptions(opts minimize.Options) Option {
	return func(cfg *fitConfig) {
		cfg.minOpts = opts
	}
}
