// Package log defines standard attribute keys for fitting operations.
//
// Using these keys consistently across the library keeps fit logs filterable:
// every event carries which function was fit, with which loss, over how many
// observations, and how the minimizer ended.

package log

// Function and operation context.
const (
	// FunctionKey identifies the optimizable function by name.
	FunctionKey = "fit.function"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "evaluate", "freeze", "bound"
	OperationKey = "fit.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "fit", "minimize", "losses"
	ComponentKey = "fit.component"
)

// Standard OperationKey values.
const (
	OperationFit      = "fit"
	OperationEvaluate = "evaluate"
)

// Fit inputs and configuration.
const (
	// LossKey names the loss function in use.
	LossKey = "fit.loss"

	// ObservationsKey is the number of observations fit against.
	ObservationsKey = "data.observations"

	// ArgumentsKey is the number of positional arguments of the function.
	ArgumentsKey = "fit.arguments"

	// FreeParamsKey lists the free (optimized) parameter names.
	FreeParamsKey = "fit.free_params"

	// FrozenParamsKey lists the frozen parameter names.
	FrozenParamsKey = "fit.frozen_params"

	// FlatSizeKey is the length of the flat optimization vector.
	FlatSizeKey = "fit.flat_size"

	// MethodKey names the minimization method.
	MethodKey = "minimize.method"
)

// Outcome and performance.
const (
	// ConvergedKey reports whether the minimizer met its convergence criteria.
	ConvergedKey = "fit.converged"

	// ObjectiveKey is the objective value at the optimum.
	ObjectiveKey = "fit.objective"

	// IterationsKey is the number of minimizer iterations performed.
	IterationsKey = "minimize.iterations"

	// EvaluationsKey is the number of objective evaluations performed.
	EvaluationsKey = "minimize.evaluations"

	// DurationMsKey records execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)
