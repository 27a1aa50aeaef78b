package minimize

import (
	"math"
	"testing"
)

// quadratic returns sum(a_i * (x_i - c_i)^2), minimized at c.
func quadratic(a, c []float64) Objective {
	return func(x []float64) float64 {
		var sum float64
		for i := range x {
			d := x[i] - c[i]
			sum += a[i] * d * d
		}
		return sum
	}
}

func TestMinimizeQuadratic(t *testing.T) {
	tests := []struct {
		name   string
		method string
	}{
		{name: "default"},
		{name: "bfgs", method: "bfgs"},
		{name: "lbfgs", method: "lbfgs"},
		{name: "nelder-mead", method: "nelder-mead"},
	}

	center := []float64{1.5, -2.0}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewGonum()
			res, err := m.Minimize(Problem{
				Objective: quadratic([]float64{1, 3}, center),
				X0:        []float64{0, 0},
			}, Options{Method: tt.method})
			if err != nil {
				t.Fatal(err)
			}
			if !res.Converged {
				t.Errorf("Converged = false, status %q", res.Status)
			}
			for i, c := range center {
				if math.Abs(res.X[i]-c) > 1e-4 {
					t.Errorf("X[%d] = %v, want %v", i, res.X[i], c)
				}
			}
			if res.F > 1e-6 {
				t.Errorf("F = %v, want ~0", res.F)
			}
			if res.Evaluations == 0 {
				t.Error("Evaluations = 0")
			}
		})
	}
}

func TestMinimizeConvergedAfterLineSearchStall(t *testing.T) {
	// BFGS over finite-difference gradients stalls its final line search on
	// this least-squares objective and gonum reports Failure even though the
	// optimum is reached. The run must still classify as converged.
	xs := []float64{0, 1, 2}
	ys := []float64{0.123, 0.938, 2.123}
	sumSquares := func(p []float64) float64 {
		var sum float64
		for i := range xs {
			d := p[0]*xs[i] + p[1] - ys[i]
			sum += d * d
		}
		return sum
	}

	m := NewGonum()
	res, err := m.Minimize(Problem{
		Objective: sumSquares,
		X0:        []float64{1, 0},
	}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Converged {
		t.Fatalf("Converged = false, status %q", res.Status)
	}
	if math.Abs(res.X[0]-1.0) > 1e-4 {
		t.Errorf("X[0] = %v, want 1.0", res.X[0])
	}
	if math.Abs(res.X[1]-0.0613) > 1e-3 {
		t.Errorf("X[1] = %v, want 0.0613", res.X[1])
	}
}

func TestMinimizeBounded(t *testing.T) {
	// The unconstrained minimum at x=3 lies outside the box [0, 2];
	// the bounded optimum is the boundary.
	m := NewGonum()
	res, err := m.Minimize(Problem{
		Objective: quadratic([]float64{1}, []float64{3}),
		X0:        []float64{1},
		Bounds:    []Bound{{Min: 0, Max: 2}},
	}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.X[0] < 0 || res.X[0] > 2 {
		t.Fatalf("X = %v outside bounds [0, 2]", res.X[0])
	}
	if math.Abs(res.X[0]-2) > 1e-3 {
		t.Errorf("X = %v, want 2 (boundary)", res.X[0])
	}
}

func TestMinimizeClampsInitialPoint(t *testing.T) {
	// An out-of-box start is projected inside before the run.
	m := NewGonum()
	res, err := m.Minimize(Problem{
		Objective: quadratic([]float64{1}, []float64{0.5}),
		X0:        []float64{10},
		Bounds:    []Bound{{Min: 0, Max: 1}},
	}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.X[0]-0.5) > 1e-4 {
		t.Errorf("X = %v, want 0.5", res.X[0])
	}
}

func TestMinimizeOptionsOverride(t *testing.T) {
	// Options.X0 and Options.Bounds take precedence over the problem's.
	m := NewGonum()
	res, err := m.Minimize(Problem{
		Objective: quadratic([]float64{1}, []float64{5}),
		X0:        []float64{100},
		Bounds:    []Bound{{Min: 90, Max: 110}},
	}, Options{
		X0:     []float64{0},
		Bounds: []Bound{{Min: -1, Max: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.X[0]-1) > 1e-3 {
		t.Errorf("X = %v, want 1 (override bound boundary)", res.X[0])
	}
}

func TestMinimizeHessInvDiag(t *testing.T) {
	// For f = sum(a_i x_i^2) the Hessian is diag(2 a_i), so the inverse
	// diagonal is 1/(2 a_i).
	a := []float64{1, 2, 4}
	m := NewGonum()
	res, err := m.Minimize(Problem{
		Objective: quadratic(a, []float64{0, 0, 0}),
		X0:        []float64{1, 1, 1},
	}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.HessInvDiag == nil {
		t.Fatal("HessInvDiag = nil, want values")
	}
	for i, ai := range a {
		want := 1 / (2 * ai)
		if math.Abs(res.HessInvDiag[i]-want) > 1e-4 {
			t.Errorf("HessInvDiag[%d] = %v, want %v", i, res.HessInvDiag[i], want)
		}
	}
}

func TestMinimizeErrors(t *testing.T) {
	m := NewGonum()

	tests := []struct {
		name    string
		problem Problem
		opts    Options
	}{
		{
			name:    "nil objective",
			problem: Problem{X0: []float64{0}},
		},
		{
			name:    "empty x0",
			problem: Problem{Objective: quadratic([]float64{1}, []float64{0})},
		},
		{
			name: "bounds length mismatch",
			problem: Problem{
				Objective: quadratic([]float64{1, 1}, []float64{0, 0}),
				X0:        []float64{0, 0},
				Bounds:    []Bound{{Min: 0, Max: 1}},
			},
		},
		{
			name: "inverted bound",
			problem: Problem{
				Objective: quadratic([]float64{1}, []float64{0}),
				X0:        []float64{0},
				Bounds:    []Bound{{Min: 1, Max: 0}},
			},
		},
		{
			name: "unknown method",
			problem: Problem{
				Objective: quadratic([]float64{1}, []float64{0}),
				X0:        []float64{0},
			},
			opts: Options{Method: "simulated-annealing"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Minimize(tt.problem, tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestMinimizeIterationLimit(t *testing.T) {
	// A tight iteration cap on a hard start must not be reported as an
	// error; it shows up as Converged == false.
	m := NewGonum()
	res, err := m.Minimize(Problem{
		Objective: func(x []float64) float64 {
			// Rosenbrock, slow to converge from the standard start.
			a := 1 - x[0]
			b := x[1] - x[0]*x[0]
			return a*a + 100*b*b
		},
		X0: []float64{-1.2, 1},
	}, Options{MaxIterations: 2})
	if err != nil {
		t.Fatal(err)
	}
	if res.Converged {
		t.Errorf("Converged = true with a 2-iteration cap, status %q", res.Status)
	}
}

func TestBound(t *testing.T) {
	b := Bound{Min: -1, Max: 2}
	if got := b.Clamp(-3); got != -1 {
		t.Errorf("Clamp(-3) = %v, want -1", got)
	}
	if got := b.Clamp(5); got != 2 {
		t.Errorf("Clamp(5) = %v, want 2", got)
	}
	if got := b.Clamp(0.5); got != 0.5 {
		t.Errorf("Clamp(0.5) = %v, want 0.5", got)
	}
	if !b.Contains(2) || !b.Contains(-1) || b.Contains(2.1) {
		t.Error("Contains boundary handling wrong")
	}

	u := Unbounded()
	if !u.Contains(math.Inf(1)) || !u.Contains(-1e300) {
		t.Error("Unbounded() should contain everything")
	}
}
