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

func TestSimplexBoundedLP(t *testing.T) {
	// min -x₁ - x₂ s.t. x₁ + x₂ ≤ 3, 0 ≤ x ≤ 2 → optimum on the
	// constraint with value -3.
	g := linalg.NewSparseVector(2)
	g.Insert(0, -1)
	g.Insert(1, -1)
	jac := linalg.NewRectangularMatrix(1, 2)
	jac.Row(0).Insert(0, 1)
	jac.Row(0).Insert(1, 1)
	varBounds := []nlp.Bounds{{Lower: 0, Upper: 2}, {Lower: 0, Upper: 2}}
	con := []nlp.Bounds{{Lower: math.Inf(-1), Upper: 3}}

	sol, err := NewSimplexLP().Solve(varBounds, con, g, jac, nil, make([]float64, 2))
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != Optimal {
		t.Fatalf("status: %v", sol.Status)
	}
	if math.Abs(sol.Objective-(-3)) > 1e-9 {
		t.Fatalf("objective: %v, want -3", sol.Objective)
	}
	if v := sol.X[0] + sol.X[1]; math.Abs(v-3) > 1e-9 {
		t.Fatalf("constraint value: %v, want 3", v)
	}
}

func TestSimplexDetachedVariable(t *testing.T) {
	// x₂ appears in no constraint row: it moves to the bound its
	// cost points at.
	g := linalg.NewSparseVector(2)
	g.Insert(0, 1)
	g.Insert(1, 1)
	jac := linalg.NewRectangularMatrix(1, 2)
	jac.Row(0).Insert(0, 1)
	varBounds := []nlp.Bounds{{Lower: -1, Upper: 1}, {Lower: -4, Upper: 4}}
	con := []nlp.Bounds{{Lower: 0, Upper: math.Inf(1)}}

	sol, err := NewSimplexLP().Solve(varBounds, con, g, jac, nil, make([]float64, 2))
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != Optimal {
		t.Fatalf("status: %v", sol.Status)
	}
	if math.Abs(sol.X[0]) > 1e-9 || math.Abs(sol.X[1]-(-4)) > 1e-9 {
		t.Fatalf("solution: %v, want [0 -4]", sol.X)
	}
}

func TestSimplexInfeasible(t *testing.T) {
	jac := linalg.NewRectangularMatrix(2, 1)
	jac.Row(0).Insert(0, 1)
	jac.Row(1).Insert(0, 1)
	con := []nlp.Bounds{
		{Lower: 1, Upper: math.Inf(1)},
		{Lower: math.Inf(-1), Upper: 0},
	}
	g := linalg.NewSparseVector(1)
	g.Insert(0, 1)
	sol, err := NewSimplexLP().Solve(freeBounds(1), con, g, jac, nil, make([]float64, 1))
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != Infeasible {
		t.Fatalf("status: %v, want infeasible", sol.Status)
	}
}

func TestSimplexUnbounded(t *testing.T) {
	// min x with x free and no binding row below.
	g := linalg.NewSparseVector(1)
	g.Insert(0, 1)
	jac := linalg.NewRectangularMatrix(1, 1)
	jac.Row(0).Insert(0, 1)
	con := []nlp.Bounds{{Lower: math.Inf(-1), Upper: 5}}
	sol, err := NewSimplexLP().Solve(freeBounds(1), con, g, jac, nil, make([]float64, 1))
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != Unbounded {
		t.Fatalf("status: %v, want unbounded", sol.Status)
	}
}

func TestMinimumViolationPoint(t *testing.T) {
	// The inconsistent pair x ≥ 1, x ≤ 0 has minimal ℓ1 violation 1.
	jac := linalg.NewRectangularMatrix(2, 1)
	jac.Row(0).Insert(0, 1)
	jac.Row(1).Insert(0, 1)
	con := []nlp.Bounds{
		{Lower: 1, Upper: math.Inf(1)},
		{Lower: math.Inf(-1), Upper: 0},
	}
	dp := newDenseProblem(freeBounds(1), con, linalg.NewSparseVector(0), jac, nil)
	_, violation, err := minimumViolationPoint(dp)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(violation-1) > 1e-8 {
		t.Fatalf("violation: %v, want 1", violation)
	}
}
