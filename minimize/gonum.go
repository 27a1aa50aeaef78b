package minimize

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/thoinka/optimazing/pkg/errors"
	"github.com/thoinka/optimazing/pkg/log"
)

// boundsPenalty scales the quadratic penalty applied to evaluations outside
// the feasible box. The base objective is always evaluated at the projected
// point, so the penalty only has to make leaving the box unattractive.
const boundsPenalty = 1e6

// stallGradientTolerance is the gradient norm under which a Failure
// termination is reclassified as converged. Forward-difference gradients
// carry noise around 1e-8 near an optimum, so gonum's default threshold is
// unreachable for them; this one is not.
const stallGradientTolerance = 1e-6

// Gonum is the default Minimizer, backed by gonum.org/v1/gonum/optimize.
//
// Gradients and Hessians the selected method needs are computed by finite
// differences, so objectives never have to provide derivatives. Box bounds
// are enforced by projection: the objective is evaluated at the clamped
// point plus a quadratic penalty on the violation, and the reported optimum
// is clamped into the box, so results always satisfy the bounds inclusively.
type Gonum struct {
	logger log.Logger
}

// NewGonum creates a gonum-backed minimizer.
func NewGonum() *Gonum {
	return &Gonum{
		logger: log.GetLoggerWithName("minimize"),
	}
}

// Minimize implements Minimizer.
func (g *Gonum) Minimize(problem Problem, opts Options) (*Result, error) {
	if problem.Objective == nil {
		return nil, errors.NewValueError("Minimize", "objective must not be nil")
	}

	x0 := problem.X0
	if opts.X0 != nil {
		x0 = opts.X0
	}
	if len(x0) == 0 {
		return nil, errors.NewValueError("Minimize", "initial vector must not be empty")
	}

	bounds := problem.Bounds
	if opts.Bounds != nil {
		bounds = opts.Bounds
	}
	if bounds != nil {
		if len(bounds) != len(x0) {
			return nil, errors.NewDimensionError("Minimize: bounds", len(x0), len(bounds))
		}
		for i, b := range bounds {
			if b.Min > b.Max {
				return nil, errors.Newf("minimize: bound %d has min %g > max %g", i, b.Min, b.Max)
			}
		}
		// Start inside the box.
		clamped := make([]float64, len(x0))
		for i, v := range x0 {
			clamped[i] = bounds[i].Clamp(v)
		}
		x0 = clamped
	}

	objective := problem.Objective
	if bounds != nil {
		objective = penalized(problem.Objective, bounds)
	}

	method, err := toGonumMethod(opts.Method)
	if err != nil {
		return nil, err
	}

	p := optimize.Problem{
		Func: objective,
		Grad: func(grad, x []float64) {
			fd.Gradient(grad, objective, x, nil)
		},
		Hess: func(dst *mat.SymDense, x []float64) {
			fd.Hessian(dst, objective, x, nil)
		},
	}

	settings := &optimize.Settings{}
	if opts.MaxIterations > 0 {
		settings.MajorIterations = opts.MaxIterations
	}
	if opts.Tolerance > 0 {
		settings.GradientThreshold = opts.Tolerance
	}

	g.logger.Debug("starting minimization",
		log.MethodKey, methodName(opts.Method),
		log.FlatSizeKey, len(x0),
	)

	res, runErr := optimize.Minimize(p, x0, settings, method)
	if res == nil {
		return nil, errors.Wrap(runErr, "minimize: gonum backend failed")
	}

	x := append([]float64{}, res.X...)
	if bounds != nil {
		for i := range x {
			x[i] = bounds[i].Clamp(x[i])
		}
	}

	result := &Result{
		X:           x,
		F:           problem.Objective(x),
		Converged:   runErr == nil && converged(res.Status),
		Status:      res.Status.String(),
		Iterations:  res.Stats.MajorIterations,
		Evaluations: res.Stats.FuncEvaluations,
		Raw:         res,
	}
	if !result.Converged && res.Status == optimize.Failure {
		// Line searches over finite-difference gradients can stall right at
		// the optimum, which gonum reports as Failure. Reclassify when the
		// final point is stationary to within tolerance.
		tol := opts.Tolerance
		if tol <= 0 {
			tol = stallGradientTolerance
		}
		result.Converged = stationary(objective, res.X, tol)
	}
	result.HessInvDiag = hessInvDiag(problem.Objective, x)

	g.logger.Debug("minimization finished",
		log.MethodKey, methodName(opts.Method),
		log.IterationsKey, result.Iterations,
		log.EvaluationsKey, result.Evaluations,
		log.ConvergedKey, result.Converged,
		log.ObjectiveKey, result.F,
	)
	return result, nil
}

// penalized evaluates the base objective at the projection of x into the
// feasible box and adds a quadratic penalty on the violation distance.
func penalized(objective Objective, bounds []Bound) Objective {
	return func(x []float64) float64 {
		projected := make([]float64, len(x))
		for i, v := range x {
			projected[i] = bounds[i].Clamp(v)
		}
		violation := floats.Distance(x, projected, 2)
		return objective(projected) + boundsPenalty*violation*violation
	}
}

// toGonumMethod maps a method name onto a gonum optimize.Method.
func toGonumMethod(name string) (optimize.Method, error) {
	switch strings.ToLower(name) {
	case "", "bfgs":
		return &optimize.BFGS{}, nil
	case "lbfgs":
		return &optimize.LBFGS{}, nil
	case "newton":
		return &optimize.Newton{}, nil
	case "nelder-mead", "neldermead":
		return &optimize.NelderMead{}, nil
	case "gradient", "gradient-descent":
		return &optimize.GradientDescent{}, nil
	default:
		return nil, errors.NewValueError("Minimize",
			"unknown method "+name+" (known: bfgs, lbfgs, newton, nelder-mead, gradient)")
	}
}

func methodName(name string) string {
	if name == "" {
		return "bfgs"
	}
	return strings.ToLower(name)
}

// converged reports whether a termination status indicates a met convergence
// criterion rather than an exhausted budget.
func converged(status optimize.Status) bool {
	switch status {
	case optimize.NotTerminated,
		optimize.Failure,
		optimize.IterationLimit,
		optimize.FunctionEvaluationLimit,
		optimize.GradientEvaluationLimit,
		optimize.HessianEvaluationLimit,
		optimize.RuntimeLimit:
		return false
	default:
		return true
	}
}

// stationary reports whether the gradient norm of the objective at x is
// within tol.
func stationary(objective Objective, x []float64, tol float64) bool {
	grad := fd.Gradient(nil, objective, x, nil)
	return floats.Norm(grad, math.Inf(1)) <= tol
}

// hessInvDiag numerically estimates the Hessian of the objective at x and
// returns the diagonal of its inverse, or nil when the Hessian is not
// positive definite there.
func hessInvDiag(objective Objective, x []float64) []float64 {
	n := len(x)
	hess := mat.NewSymDense(n, nil)
	fd.Hessian(hess, objective, x, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if math.IsNaN(hess.At(i, j)) || math.IsInf(hess.At(i, j), 0) {
				return nil
			}
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(hess); !ok {
		return nil
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil
	}

	diag := make([]float64, n)
	for i := 0; i < n; i++ {
		diag[i] = inv.At(i, i)
	}
	return diag
}
