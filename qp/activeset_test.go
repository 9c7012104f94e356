// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import (
	"math"
	"testing"

	"github.com/curioloop/sqpkit/linalg"
	"github.com/curioloop/sqpkit/nlp"
)

func freeBounds(n int) []nlp.Bounds {
	b := make([]nlp.Bounds, n)
	for i := range b {
		b[i] = nlp.FreeBounds()
	}
	return b
}

func identity(n int) *linalg.COOSymmetricMatrix {
	h := linalg.NewCOOSymmetricMatrix(n, n)
	h.AddIdentityMultiple(1)
	return h
}

func almostEqual(got, want []float64, tol float64) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if math.Abs(got[i]-want[i]) > tol {
			return false
		}
	}
	return true
}

func TestActiveSetUnconstrained(t *testing.T) {
	// min ½‖x‖² - x₁ - 2x₂ → x = (1, 2)
	g := linalg.NewSparseVector(2)
	g.Insert(0, -1)
	g.Insert(1, -2)
	sol, err := NewActiveSetQP().Solve(freeBounds(2), nil, g,
		linalg.NewRectangularMatrix(0, 2), identity(2), make([]float64, 2))
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != Optimal {
		t.Fatalf("status: %v", sol.Status)
	}
	if !almostEqual(sol.X, []float64{1, 2}, 1e-9) {
		t.Fatalf("solution: %v", sol.X)
	}
	if math.Abs(sol.Objective-(-2.5)) > 1e-9 {
		t.Fatalf("objective: %v, want -2.5", sol.Objective)
	}
}

func TestActiveSetBoundActive(t *testing.T) {
	// min ½‖x‖² - 2x₁ with x₁ ≤ 1 → x₁ = 1, multiplier -1 at the
	// upper bound.
	g := linalg.NewSparseVector(1)
	g.Insert(0, -2)
	bounds := []nlp.Bounds{{Lower: math.Inf(-1), Upper: 1}}
	sol, err := NewActiveSetQP().Solve(bounds, nil, g,
		linalg.NewRectangularMatrix(0, 1), identity(1), make([]float64, 1))
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(sol.X, []float64{1}, 1e-9) {
		t.Fatalf("solution: %v", sol.X)
	}
	if math.Abs(sol.UpperBoundMultipliers[0]-(-1)) > 1e-9 {
		t.Fatalf("upper bound multiplier: %v, want -1", sol.UpperBoundMultipliers[0])
	}
	if len(sol.ActiveUpper) != 1 || sol.ActiveUpper[0] != 0 {
		t.Fatalf("active upper set: %v", sol.ActiveUpper)
	}
}

func TestActiveSetEqualityConstraint(t *testing.T) {
	// min ½‖x‖² s.t. x₁ + x₂ = 2 → x = (1, 1), λ = 1.
	jac := linalg.NewRectangularMatrix(1, 2)
	jac.Row(0).Insert(0, 1)
	jac.Row(0).Insert(1, 1)
	con := []nlp.Bounds{{Lower: 2, Upper: 2}}
	sol, err := NewActiveSetQP().Solve(freeBounds(2), con,
		linalg.NewSparseVector(0), jac, identity(2), make([]float64, 2))
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(sol.X, []float64{1, 1}, 1e-9) {
		t.Fatalf("solution: %v", sol.X)
	}
	if math.Abs(sol.ConstraintMultipliers[0]-1) > 1e-9 {
		t.Fatalf("multiplier: %v, want 1", sol.ConstraintMultipliers[0])
	}
}

func TestActiveSetInequalityActive(t *testing.T) {
	// min ½‖x - (2,0)‖² s.t. x₁ + x₂ ≤ 1 → x = (1.5, -0.5)
	g := linalg.NewSparseVector(2)
	g.Insert(0, -2)
	jac := linalg.NewRectangularMatrix(1, 2)
	jac.Row(0).Insert(0, 1)
	jac.Row(0).Insert(1, 1)
	con := []nlp.Bounds{{Lower: math.Inf(-1), Upper: 1}}
	sol, err := NewActiveSetQP().Solve(freeBounds(2), con, g, jac, identity(2), make([]float64, 2))
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(sol.X, []float64{1.5, -0.5}, 1e-9) {
		t.Fatalf("solution: %v", sol.X)
	}
	if sol.ConstraintMultipliers[0] > 1e-9 {
		t.Fatalf("upper-active multiplier must be nonpositive: %v", sol.ConstraintMultipliers[0])
	}
}

func TestActiveSetInactiveConstraintIgnored(t *testing.T) {
	// Same as above but the constraint does not bind.
	g := linalg.NewSparseVector(2)
	g.Insert(0, -2)
	jac := linalg.NewRectangularMatrix(1, 2)
	jac.Row(0).Insert(0, 1)
	jac.Row(0).Insert(1, 1)
	con := []nlp.Bounds{{Lower: math.Inf(-1), Upper: 10}}
	sol, err := NewActiveSetQP().Solve(freeBounds(2), con, g, jac, identity(2), make([]float64, 2))
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(sol.X, []float64{2, 0}, 1e-9) {
		t.Fatalf("solution: %v", sol.X)
	}
	if sol.ConstraintMultipliers[0] != 0 {
		t.Fatalf("inactive multiplier: %v, want 0", sol.ConstraintMultipliers[0])
	}
}

func TestActiveSetInfeasiblePartition(t *testing.T) {
	// x ≥ 1 and x ≤ 0 cannot hold: expect an Infeasible status with
	// a partition whose infeasible set is the disjoint union of the
	// signed sets.
	jac := linalg.NewRectangularMatrix(2, 1)
	jac.Row(0).Insert(0, 1)
	jac.Row(1).Insert(0, 1)
	con := []nlp.Bounds{
		{Lower: 1, Upper: math.Inf(1)},
		{Lower: math.Inf(-1), Upper: 0},
	}
	sol, err := NewActiveSetQP().Solve(freeBounds(1), con,
		linalg.NewSparseVector(0), jac, identity(1), make([]float64, 1))
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != Infeasible {
		t.Fatalf("status: %v, want infeasible", sol.Status)
	}
	cp := sol.ConstraintPartition
	if cp == nil || !cp.HasInfeasible() {
		t.Fatal("missing constraint partition")
	}
	if len(cp.Infeasible) != len(cp.LowerBoundInfeasible)+len(cp.UpperBoundInfeasible) {
		t.Fatal("infeasible set is not the disjoint union of the signed sets")
	}
	if len(cp.Feasible)+len(cp.Infeasible) != 2 {
		t.Fatal("partition does not cover all constraints")
	}
}

func TestActiveSetElasticAlwaysFeasible(t *testing.T) {
	// The same inconsistent rows, relaxed by two elastics
	// (coefficient ∓1, unit cost, lower bound zero): now solvable
	// with total elastic value 1.
	jac := linalg.NewRectangularMatrix(2, 3)
	jac.Row(0).Insert(0, 1)
	jac.Row(0).Insert(2, 1) // negative elastic on the lower-bounded row
	jac.Row(1).Insert(0, 1)
	jac.Row(1).Insert(1, -1) // positive elastic on the upper-bounded row
	g := linalg.NewSparseVector(3)
	g.Insert(1, 1)
	g.Insert(2, 1)
	varBounds := []nlp.Bounds{
		nlp.FreeBounds(),
		{Lower: 0, Upper: math.Inf(1)},
		{Lower: 0, Upper: math.Inf(1)},
	}
	con := []nlp.Bounds{
		{Lower: 1, Upper: math.Inf(1)},
		{Lower: math.Inf(-1), Upper: 0},
	}
	sol, err := NewActiveSetQP().Solve(varBounds, con, g, jac, identity(3), make([]float64, 3))
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != Optimal {
		t.Fatalf("status: %v, want optimal", sol.Status)
	}
	if total := sol.X[1] + sol.X[2]; math.Abs(total-1) > 1e-6 {
		t.Fatalf("elastic sum: %v, want 1", total)
	}
}
