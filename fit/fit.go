package fit

import (
	"fmt"
	"math"
	"time"

	"github.com/thoinka/optimazing/core/tensor"
	"github.com/thoinka/optimazing/losses"
	"github.com/thoinka/optimazing/minimize"
	"github.com/thoinka/optimazing/params"
	"github.com/thoinka/optimazing/pkg/errors"
	"github.com/thoinka/optimazing/pkg/log"
	"github.com/thoinka/optimazing/table"
)

// Fit fits all free parameters against explicit argument arrays and target
// values.
//
// Parameters:
//   - args: one slice per declared positional argument, in declaration
//     order, each holding one value per observation
//   - target: observed values to fit against
//   - init: initial values for every free parameter; mandatory, there is no
//     silent default
//   - opts: loss, weights, sigma and minimizer configuration
//
// Returns:
//   - *OptimizationResult: fitted values, uncertainties and diagnostics. A
//     non-converged minimization still returns a result; its status is on
//     the diagnostics and a ConvergenceWarning is emitted through the
//     warning handler.
//   - error: a validation error raised before the minimizer runs — unknown
//     parameter name, re-specified frozen parameter, missing or non-numeric
//     initial value, unknown loss name, or no free parameters left
//
// Example:
//
//	result, err := linear.Fit(
//	    [][]float64{{0, 1, 2}},
//	    []float64{0.123, 0.938, 2.123},
//	    fit.Init{"a": 1.0, "b": 0.0},
//	)
func (f *OptimizableFunction) Fit(args [][]float64, target []float64, init Init, opts ...Option) (*OptimizationResult, error) {
	cfg := newFitConfig(opts)
	if cfg.weightsCol != "" {
		return nil, errors.NewInputResolutionError("Fit", cfg.weightsCol,
			"weights column requires tabular data; use FitTable or WithWeights")
	}
	if cfg.sigmaCol != "" {
		return nil, errors.NewInputResolutionError("Fit", cfg.sigmaCol,
			"sigma column requires tabular data; use FitTable or WithSigma")
	}
	if len(args) != len(f.arguments) {
		return nil, errors.NewDimensionError("Fit: arguments", len(f.arguments), len(args))
	}
	return f.fitResolved(args, target, cfg.weights, cfg.sigma, cfg, init)
}

// FitTable fits all free parameters against a columnar table, selecting
// argument columns by their declared names.
//
// Parameters:
//   - tbl: the observation table
//   - target: the target column name; empty selects the column named after
//     the function itself
//   - init, opts: as for Fit; weights and sigma may additionally be given as
//     column names via WithWeightsColumn and WithSigmaColumn
//
// A referenced column the table does not carry fails with an
// InputResolutionError naming the column.
func (f *OptimizableFunction) FitTable(tbl *table.Table, target string, init Init, opts ...Option) (*OptimizationResult, error) {
	if tbl == nil {
		return nil, errors.NewValueError("FitTable", "table must not be nil")
	}
	cfg := newFitConfig(opts)

	args := make([][]float64, len(f.arguments))
	for i, name := range f.arguments {
		col, err := tbl.Column(name)
		if err != nil {
			return nil, errors.Wrapf(err, "FitTable: argument %q", name)
		}
		args[i] = col
	}

	if target == "" {
		target = f.name
	}
	targetCol, err := tbl.Column(target)
	if err != nil {
		return nil, errors.Wrapf(err, "FitTable: target %q", target)
	}

	weights := cfg.weights
	if cfg.weightsCol != "" {
		if weights, err = tbl.Column(cfg.weightsCol); err != nil {
			return nil, errors.Wrapf(err, "FitTable: weights %q", cfg.weightsCol)
		}
	}
	sigma := cfg.sigma
	if cfg.sigmaCol != "" {
		if sigma, err = tbl.Column(cfg.sigmaCol); err != nil {
			return nil, errors.Wrapf(err, "FitTable: sigma %q", cfg.sigmaCol)
		}
	}

	return f.fitResolved(args, targetCol, weights, sigma, cfg, init)
}

// fitResolved runs the fit pipeline on fully resolved inputs: validate,
// build the layout and objective, minimize, and assemble the result.
func (f *OptimizableFunction) fitResolved(args [][]float64, target, weights, sigma []float64, cfg *fitConfig, init Init) (result *OptimizationResult, err error) {
	defer errors.Recover(&err, "Fit")
	start := time.Now()

	n := len(target)
	if n == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "Fit: target")
	}
	for i, arg := range args {
		if len(arg) != n {
			return nil, errors.NewDimensionError("Fit: argument "+f.arguments[i], n, len(arg))
		}
	}
	if weights == nil {
		weights = ones(n)
	} else if len(weights) != n {
		return nil, errors.NewDimensionError("Fit: weights", n, len(weights))
	}
	if sigma == nil {
		sigma = ones(n)
	} else if len(sigma) != n {
		return nil, errors.NewDimensionError("Fit: sigma", n, len(sigma))
	}

	loss, err := f.resolveLoss(cfg)
	if err != nil {
		return nil, err
	}

	free := f.freeParameters()
	if len(free) == 0 {
		return nil, errors.NewFitPreconditionError(f.name, "no free parameters left to fit")
	}
	initValues, err := f.resolveInit(free, init)
	if err != nil {
		return nil, err
	}

	layout, err := params.FromValues(free, initValues)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("fit configured",
		log.OperationKey, log.OperationFit,
		log.LossKey, loss.Name(),
		log.ObservationsKey, n,
		log.FreeParamsKey, free,
		log.FrozenParamsKey, frozenNames(f.frozen),
		log.FlatSizeKey, layout.Len(),
	)

	objective := f.buildObjective(layout, args, target, weights, sigma, loss)

	x0, err := layout.Flatten(initValues)
	if err != nil {
		return nil, err
	}
	problem := minimize.Problem{Objective: objective, X0: x0}
	if f.IsBounded() {
		problem.Bounds = f.flattenBounds(layout)
	}

	minimizer := cfg.minimizer
	if minimizer == nil {
		minimizer = minimize.NewGonum()
	}
	res, err := minimizer.Minimize(problem, cfg.minOpts)
	if err != nil {
		return nil, errors.Wrap(err, "Fit")
	}
	if !res.Converged {
		errors.Warn(errors.NewConvergenceWarning(f.name, res.Status, res.Iterations))
	}

	values, uncertainties, err := f.extractResults(layout, res)
	if err != nil {
		return nil, err
	}

	f.logger.Info("fit finished",
		log.OperationKey, log.OperationFit,
		log.LossKey, loss.Name(),
		log.ObjectiveKey, res.F,
		log.ConvergedKey, res.Converged,
		log.IterationsKey, res.Iterations,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	return newResult(f, values, uncertainties, res), nil
}

// freeParameters returns the declared parameters minus the frozen ones, in
// declaration order.
func (f *OptimizableFunction) freeParameters() []string {
	free := make([]string, 0, len(f.parameters))
	for _, p := range f.parameters {
		if _, frozen := f.frozen[p]; !frozen {
			free = append(free, p)
		}
	}
	return free
}

// resolveLoss turns the configured loss into a losses.Loss value.
func (f *OptimizableFunction) resolveLoss(cfg *fitConfig) (losses.Loss, error) {
	if cfg.customLoss != nil {
		return *cfg.customLoss, nil
	}
	return losses.Get(cfg.lossName)
}

// resolveInit validates the initial values: every key must be a free
// parameter, every free parameter must have a numeric value.
func (f *OptimizableFunction) resolveInit(free []string, init Init) (map[string]*tensor.Tensor, error) {
	for key := range init {
		if !f.isParameter(key) {
			return nil, errors.NewConfigurationError("Fit", key, "unknown parameter")
		}
		if _, frozen := f.frozen[key]; frozen {
			return nil, errors.NewConfigurationError("Fit", key,
				"parameter is frozen; remove its initial value")
		}
	}
	values := make(map[string]*tensor.Tensor, len(free))
	for _, p := range free {
		raw, ok := init[p]
		if !ok {
			return nil, errors.NewInputResolutionError("Fit", p, "missing initial value")
		}
		t, err := tensor.FromAny(raw)
		if err != nil {
			return nil, errors.NewInputResolutionError("Fit", p,
				fmt.Sprintf("initial value must be numeric scalar or array, got %T", raw))
		}
		values[p] = t
	}
	return values, nil
}

// buildObjective constructs the closure handed to the minimizer: unflatten
// the free values, merge frozen ones, evaluate the model, score with the
// loss. The closure captures its inputs by reference for the duration of one
// fit call and performs no caching.
func (f *OptimizableFunction) buildObjective(layout *params.Layout, args [][]float64, target, weights, sigma []float64, loss losses.Loss) minimize.Objective {
	return func(x []float64) float64 {
		values, err := layout.Unflatten(x)
		if err != nil {
			panic(err)
		}
		for k, v := range f.frozen {
			values[k] = v
		}
		estimate := f.fn(args, Values(values))
		out, err := loss.Evaluate(target, estimate, weights, sigma)
		if err != nil {
			panic(err)
		}
		return out
	}
}

// flattenBounds broadcasts each free parameter's bound over its shape and
// concatenates them in layout order. Unbounded parameters contribute open
// intervals.
func (f *OptimizableFunction) flattenBounds(layout *params.Layout) []minimize.Bound {
	flat := make([]minimize.Bound, 0, layout.Len())
	for _, p := range layout.Names() {
		b, ok := f.bounds[p]
		if !ok {
			b = minimize.Unbounded()
		}
		shape, _ := layout.Shape(p)
		size := 1
		for _, s := range shape {
			size *= s
		}
		for i := 0; i < size; i++ {
			flat = append(flat, b)
		}
	}
	return flat
}

// extractResults unflattens the optimum into named values, merges frozen
// ones, and derives per-parameter uncertainties from the inverse-Hessian
// diagonal when the minimizer exposed one. Frozen parameters always report
// nil uncertainty; so does every free parameter when the diagonal is
// unavailable.
func (f *OptimizableFunction) extractResults(layout *params.Layout, res *minimize.Result) (map[string]*tensor.Tensor, map[string]*tensor.Tensor, error) {
	values, err := layout.Unflatten(res.X)
	if err != nil {
		return nil, nil, err
	}
	for k, v := range f.frozen {
		values[k] = v.Copy()
	}

	uncertainties := make(map[string]*tensor.Tensor, len(f.parameters))
	if res.HessInvDiag != nil {
		unc := make([]float64, len(res.HessInvDiag))
		for i, d := range res.HessInvDiag {
			unc[i] = math.Sqrt(d)
		}
		byName, err := layout.Unflatten(unc)
		if err != nil {
			return nil, nil, err
		}
		for k, v := range byName {
			uncertainties[k] = v
		}
	}
	return values, uncertainties, nil
}

func frozenNames(frozen map[string]*tensor.Tensor) []string {
	names := make([]string, 0, len(frozen))
	for k := range frozen {
		names = append(names, k)
	}
	return names
}

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
