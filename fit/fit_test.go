package fit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoinka/optimazing/losses"
	"github.com/thoinka/optimazing/minimize"
	optErrors "github.com/thoinka/optimazing/pkg/errors"
	"github.com/thoinka/optimazing/table"
)

var (
	fitX = []float64{0, 1, 2}
	fitY = []float64{0.123, 0.938, 2.123}
)

// Closed-form least squares solution for fitY over fitX.
const (
	wantSlope     = 1.0
	wantIntercept = 0.0613
)

func TestFitLinear(t *testing.T) {
	linear := newLinear(t)

	var warnings []error
	optErrors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer optErrors.SetWarningHandler(nil)

	result, err := linear.Fit([][]float64{fitX}, fitY, Init{"a": 1.0, "b": 0.0})
	require.NoError(t, err)
	require.True(t, result.Converged())
	assert.Empty(t, warnings)

	a, err := result.Float("a")
	require.NoError(t, err)
	b, err := result.Float("b")
	require.NoError(t, err)
	assert.InDelta(t, wantSlope, a, 1e-4)
	assert.InDelta(t, wantIntercept, b, 1e-4)

	// The chi-squared objective is smooth here, so uncertainties are
	// available for every free parameter.
	unc, err := result.Uncertainty("a")
	require.NoError(t, err)
	assert.NotNil(t, unc)
	assert.Greater(t, unc.Float(), 0.0)
}

func TestFitFrozen(t *testing.T) {
	throughOrigin := newLinear(t).MustFreeze(Frozen{"b": 0.0})

	result, err := throughOrigin.Fit([][]float64{fitX}, fitY, Init{"a": 1.0})
	require.NoError(t, err)

	// Constrained least squares through the origin: a = sum(xy)/sum(x^2).
	wantA := (1*0.938 + 2*2.123) / 5.0
	a, err := result.Float("a")
	require.NoError(t, err)
	assert.InDelta(t, wantA, a, 1e-4)

	// The frozen value is reported verbatim, with no uncertainty.
	b, err := result.Float("b")
	require.NoError(t, err)
	assert.Equal(t, 0.0, b)
	unc, err := result.Uncertainty("b")
	require.NoError(t, err)
	assert.Nil(t, unc)
}

func TestFitFullyFrozen(t *testing.T) {
	constant := newLinear(t).MustFreeze(Frozen{"a": 1.0, "b": 0.0})

	_, err := constant.Fit([][]float64{fitX}, fitY, Init{})
	require.Error(t, err)
	var pre *optErrors.FitPreconditionError
	assert.ErrorAs(t, err, &pre)
}

func TestFitBounded(t *testing.T) {
	// The unconstrained optimum has a == 1; cap it below that and the fit
	// must land on the boundary.
	capped := newLinear(t).MustBound(BoundSet{"a": Between(0, 0.5)})

	result, err := capped.Fit([][]float64{fitX}, fitY, Init{"a": 0.2, "b": 0.0})
	require.NoError(t, err)

	a, err := result.Float("a")
	require.NoError(t, err)
	assert.LessOrEqual(t, a, 0.5)
	assert.InDelta(t, 0.5, a, 1e-3)
}

func TestFitTableMatchesFit(t *testing.T) {
	linear := newLinear(t)

	tbl, err := table.FromColumns(map[string][]float64{
		"x": fitX,
		"y": fitY,
	})
	require.NoError(t, err)

	fromArrays, err := linear.Fit([][]float64{fitX}, fitY, Init{"a": 1.0, "b": 0.0})
	require.NoError(t, err)
	fromTable, err := linear.FitTable(tbl, "y", Init{"a": 1.0, "b": 0.0})
	require.NoError(t, err)

	aArr, _ := fromArrays.Float("a")
	aTbl, _ := fromTable.Float("a")
	assert.InDelta(t, aArr, aTbl, 1e-10)
	bArr, _ := fromArrays.Float("b")
	bTbl, _ := fromTable.Float("b")
	assert.InDelta(t, bArr, bTbl, 1e-10)
}

func TestFitTableDefaultTarget(t *testing.T) {
	// An empty target name selects the column named after the function.
	linear := newLinear(t)
	tbl, err := table.FromColumns(map[string][]float64{
		"x":      fitX,
		"linear": fitY,
	})
	require.NoError(t, err)

	result, err := linear.FitTable(tbl, "", Init{"a": 1.0, "b": 0.0})
	require.NoError(t, err)
	a, err := result.Float("a")
	require.NoError(t, err)
	assert.InDelta(t, wantSlope, a, 1e-4)
}

func TestFitTableColumns(t *testing.T) {
	linear := newLinear(t)
	tbl, err := table.FromColumns(map[string][]float64{
		"x": fitX,
		"y": fitY,
		"w": {1, 1, 1},
		"s": {1, 1, 1},
	})
	require.NoError(t, err)

	// All-ones weight and sigma columns must reproduce the plain fit.
	result, err := linear.FitTable(tbl, "y", Init{"a": 1.0, "b": 0.0},
		WithWeightsColumn("w"), WithSigmaColumn("s"))
	require.NoError(t, err)
	a, err := result.Float("a")
	require.NoError(t, err)
	assert.InDelta(t, wantSlope, a, 1e-4)

	_, err = linear.FitTable(tbl, "y", Init{"a": 1.0, "b": 0.0},
		WithWeightsColumn("missing"))
	require.Error(t, err)
	var res *optErrors.InputResolutionError
	assert.ErrorAs(t, err, &res)
}

func TestFitTableMissingColumns(t *testing.T) {
	linear := newLinear(t)
	tbl, err := table.FromColumns(map[string][]float64{"y": fitY})
	require.NoError(t, err)

	// The argument column "x" is absent.
	_, err = linear.FitTable(tbl, "y", Init{"a": 1.0, "b": 0.0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "x")

	tbl2, err := table.FromColumns(map[string][]float64{"x": fitX})
	require.NoError(t, err)
	_, err = linear.FitTable(tbl2, "y", Init{"a": 1.0, "b": 0.0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "y")
}

func TestFitRejectsColumnOptions(t *testing.T) {
	linear := newLinear(t)

	_, err := linear.Fit([][]float64{fitX}, fitY, Init{"a": 1.0, "b": 0.0},
		WithWeightsColumn("w"))
	require.Error(t, err)

	_, err = linear.Fit([][]float64{fitX}, fitY, Init{"a": 1.0, "b": 0.0},
		WithSigmaColumn("s"))
	require.Error(t, err)
}

func TestFitInitValidation(t *testing.T) {
	linear := newLinear(t)
	frozen := linear.MustFreeze(Frozen{"b": 0.0})

	tests := []struct {
		name string
		f    *OptimizableFunction
		init Init
		as   interface{}
	}{
		{
			name: "missing initial value",
			f:    linear,
			init: Init{"a": 1.0},
			as:   new(*optErrors.InputResolutionError),
		},
		{
			name: "unknown parameter",
			f:    linear,
			init: Init{"a": 1.0, "b": 0.0, "c": 1.0},
			as:   new(*optErrors.ConfigurationError),
		},
		{
			name: "frozen parameter initialized",
			f:    frozen,
			init: Init{"a": 1.0, "b": 0.0},
			as:   new(*optErrors.ConfigurationError),
		},
		{
			name: "non-numeric initial value",
			f:    linear,
			init: Init{"a": 1.0, "b": "zero"},
			as:   new(*optErrors.InputResolutionError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.f.Fit([][]float64{fitX}, fitY, tt.init)
			require.Error(t, err)
			assert.ErrorAs(t, err, tt.as)
		})
	}
}

func TestFitInputValidation(t *testing.T) {
	linear := newLinear(t)
	init := Init{"a": 1.0, "b": 0.0}

	_, err := linear.Fit([][]float64{fitX}, nil, init)
	assert.ErrorIs(t, err, optErrors.ErrEmptyData)

	_, err = linear.Fit([][]float64{fitX, fitX}, fitY, init)
	assert.Error(t, err, "argument count mismatch")

	_, err = linear.Fit([][]float64{{0, 1}}, fitY, init)
	assert.Error(t, err, "argument length mismatch")

	_, err = linear.Fit([][]float64{fitX}, fitY, init, WithWeights([]float64{1}))
	assert.Error(t, err, "weights length mismatch")

	_, err = linear.Fit([][]float64{fitX}, fitY, init, WithSigma([]float64{1}))
	assert.Error(t, err, "sigma length mismatch")
}

func TestFitUnknownLoss(t *testing.T) {
	linear := newLinear(t)

	_, err := linear.Fit([][]float64{fitX}, fitY, Init{"a": 1.0, "b": 0.0},
		WithLoss("huber"))
	require.Error(t, err)
	var notFound *optErrors.LossNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestFitLossSelection(t *testing.T) {
	linear := newLinear(t)
	init := Init{"a": 1.0, "b": 0.0}

	// Registry aliases and a directly supplied loss value all run.
	for _, name := range []string{"chi_squared", "mse", "laplace"} {
		_, err := linear.Fit([][]float64{fitX}, fitY, init, WithLoss(name))
		assert.NoError(t, err, name)
	}

	result, err := linear.Fit([][]float64{fitX}, fitY, init,
		WithLossFunc(losses.ChiSquared))
	require.NoError(t, err)
	a, err := result.Float("a")
	require.NoError(t, err)
	assert.InDelta(t, wantSlope, a, 1e-4)
}

func TestFitWithSigma(t *testing.T) {
	linear := newLinear(t)

	// Inflating sigma scales the objective but not the optimum location.
	result, err := linear.Fit([][]float64{fitX}, fitY, Init{"a": 1.0, "b": 0.0},
		WithSigma([]float64{10, 10, 10}))
	require.NoError(t, err)
	a, err := result.Float("a")
	require.NoError(t, err)
	assert.InDelta(t, wantSlope, a, 1e-3)
}

func TestFitArrayParameter(t *testing.T) {
	// poly evaluates c[0] + c[1]*x with one array-shaped parameter.
	poly := MustNew("poly", func(args [][]float64, p Values) []float64 {
		x := args[0]
		out := make([]float64, len(x))
		for i := range x {
			out[i] = p.At("c", 0) + p.At("c", 1)*x[i]
		}
		return out
	}, []string{"x"}, []string{"c"})

	x := []float64{0, 1, 2, 3}
	y := []float64{0.5, 2.5, 4.5, 6.5} // 0.5 + 2x, exact

	result, err := poly.Fit([][]float64{x}, y,
		Init{"c": []float64{0.0, 1.0}})
	require.NoError(t, err)

	c, err := result.Value("c")
	require.NoError(t, err)
	require.Equal(t, []int{2}, c.Shape())
	assert.InDelta(t, 0.5, c.At(0), 1e-4)
	assert.InDelta(t, 2.0, c.At(1), 1e-4)
}

func TestFitConvergenceWarning(t *testing.T) {
	var captured []error
	optErrors.SetWarningHandler(func(w error) {
		captured = append(captured, w)
	})
	defer optErrors.SetWarningHandler(nil)

	linear := newLinear(t)
	result, err := linear.Fit([][]float64{fitX}, fitY, Init{"a": -50.0, "b": 80.0},
		WithMinimizeOptions(minimize.Options{MaxIterations: 1}))
	require.NoError(t, err, "a non-converged fit is not an error")
	require.NotNil(t, result)
	assert.False(t, result.Converged())

	require.Len(t, captured, 1)
	var warn *optErrors.ConvergenceWarning
	require.ErrorAs(t, captured[0], &warn)
	assert.Equal(t, "linear", warn.Function)
}

func TestFitMinimizeMethod(t *testing.T) {
	linear := newLinear(t)

	result, err := linear.Fit([][]float64{fitX}, fitY, Init{"a": 1.0, "b": 0.0},
		WithMinimizeOptions(minimize.Options{Method: "nelder-mead"}))
	require.NoError(t, err)
	a, err := result.Float("a")
	require.NoError(t, err)
	assert.InDelta(t, wantSlope, a, 1e-3)

	_, err = linear.Fit([][]float64{fitX}, fitY, Init{"a": 1.0, "b": 0.0},
		WithMinimizeOptions(minimize.Options{Method: "annealing"}))
	assert.Error(t, err)
}
