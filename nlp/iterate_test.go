// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nlp

import (
	"math"
	"testing"

	"github.com/curioloop/sqpkit/linalg"
)

func circleProblem() *Problem {
	return &Problem{
		Name:             "circle",
		N:                2,
		M:                1,
		VariableBounds:   []Bounds{FreeBounds(), FreeBounds()},
		ConstraintBounds: []Bounds{{Lower: 2, Upper: 2}},
		ObjectiveSign:    1,
		EvalObjective:    func(x []float64) float64 { return x[0] + x[1] },
		EvalConstraints:  func(x, c []float64) { c[0] = x[0]*x[0] + x[1]*x[1] },
		EvalObjectiveGradient: func(_ []float64, g *linalg.SparseVector) {
			g.Insert(0, 1)
			g.Insert(1, 1)
		},
		EvalConstraintJacobian: func(x []float64, jac *linalg.RectangularMatrix) {
			jac.Row(0).Insert(0, 2*x[0])
			jac.Row(0).Insert(1, 2*x[1])
		},
		InitialPrimal: []float64{0, 0},
	}
}

func TestBoundClassification(t *testing.T) {
	inf := math.Inf(1)
	cases := []struct {
		bounds Bounds
		want   BoundType
	}{
		{Bounds{1, 1}, EqualBounds},
		{Bounds{0, 1}, BoundedBothSides},
		{Bounds{0, inf}, BoundedLower},
		{Bounds{-inf, 1}, BoundedUpper},
		{Bounds{-inf, inf}, Unbounded},
	}
	for k, c := range cases {
		if got := c.bounds.Type(); got != c.want {
			t.Fatalf("case %d: got %v, want %v", k, got, c.want)
		}
	}
}

func TestBoundViolation(t *testing.T) {
	b := Bounds{Lower: -1, Upper: 2}
	switch {
	case b.Violation(0) != 0:
		t.Fatal("interior point has violation")
	case b.Violation(-3) != 2:
		t.Fatal("lower violation wrong")
	case b.Violation(5) != 3:
		t.Fatal("upper violation wrong")
	}
}

func TestIterateLazyCache(t *testing.T) {
	p := circleProblem()
	counts := &EvalCounts{}
	it := NewIterate(2, 1)
	it.X[0], it.X[1] = 1, 2

	if err := it.EvaluateObjective(p, counts); err != nil {
		t.Fatal(err)
	}
	if err := it.EvaluateObjective(p, counts); err != nil {
		t.Fatal(err)
	}
	if counts.Objective != 1 {
		t.Fatalf("objective evaluated %d times, want 1", counts.Objective)
	}
	if it.Objective != 3 {
		t.Fatalf("objective: got %v, want 3", it.Objective)
	}

	if err := it.EvaluateConstraints(p, counts); err != nil {
		t.Fatal(err)
	}
	first := it.Constraints[0]

	// clear + recompute yields bit-identical results on a pure problem
	it.Clear()
	if err := it.EvaluateConstraints(p, counts); err != nil {
		t.Fatal(err)
	}
	if it.Constraints[0] != first {
		t.Fatal("recomputed constraint differs from cached value")
	}
	if counts.Constraints != 2 {
		t.Fatalf("constraints evaluated %d times, want 2", counts.Constraints)
	}
}

func TestIterateNonFiniteDetected(t *testing.T) {
	p := circleProblem()
	p.EvalObjective = func(x []float64) float64 { return math.NaN() }
	it := NewIterate(2, 1)
	if err := it.EvaluateObjective(p, &EvalCounts{}); err == nil {
		t.Fatal("NaN objective not reported")
	}
}

func TestLagrangianGradientAtKKTPoint(t *testing.T) {
	p := circleProblem()
	counts := &EvalCounts{}
	it := NewIterate(2, 1)
	it.X[0], it.X[1] = -1, -1
	it.Multipliers.Constraints[0] = -0.5

	if err := ComputeResiduals(p, it, counts, 1, NormL1); err != nil {
		t.Fatal(err)
	}
	switch {
	case it.Residuals.KKT > 1e-14:
		t.Fatalf("KKT residual at solution: %v", it.Residuals.KKT)
	case it.Residuals.Constraints > 1e-14:
		t.Fatalf("feasibility at solution: %v", it.Residuals.Constraints)
	case it.Residuals.Complementarity != 0:
		t.Fatalf("complementarity at solution: %v", it.Residuals.Complementarity)
	case it.Residuals.FritzJohn == 0:
		t.Fatal("Fritz-John residual should not vanish at a regular KKT point")
	}
}

func TestProjectInBounds(t *testing.T) {
	p := circleProblem()
	p.VariableBounds = []Bounds{{0, 1}, {0, 1}}
	x := []float64{-3, 7}
	p.ProjectInBounds(x)
	if x[0] != 0 || x[1] != 1 {
		t.Fatalf("projection: got %v", x)
	}
}

func TestNegatedProblem(t *testing.T) {
	p := circleProblem()
	p.ObjectiveSign = -1
	q := p.Negated()
	if q.ObjectiveSign != 1 {
		t.Fatal("negated sign not reset")
	}
	if got := q.EvalObjective([]float64{1, 2}); got != -3 {
		t.Fatalf("negated objective: got %v, want -3", got)
	}
}

func TestNormOf(t *testing.T) {
	v := []float64{3, -4}
	cases := []struct {
		norm Norm
		want float64
	}{
		{NormL1, 7},
		{NormL2, 5},
		{NormL2Squared, 25},
		{NormInf, 4},
	}
	for _, c := range cases {
		if got := c.norm.Of(v); math.Abs(got-c.want) > 1e-14 {
			t.Fatalf("norm %v: got %v, want %v", c.norm, got, c.want)
		}
	}
}
