// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package models

import (
	"math"

	"github.com/curioloop/sqpkit/linalg"
	"github.com/curioloop/sqpkit/nlp"
)

func init() {
	Register("quadratic2", Quadratic2)
	Register("equality-circle", EqualityCircle)
	Register("infeasible-bounds", InfeasibleBounds)
	Register("restoration-parabola", RestorationParabola)
	Register("hs71", HS71)
}

// Quadratic2 is the unconstrained quadratic ½‖𝐱 - (1,2)‖².
// Solution: (1, 2) with objective 0.
func Quadratic2() *nlp.Problem {
	return &nlp.Problem{
		Name:           "quadratic2",
		N:              2,
		VariableBounds: []nlp.Bounds{nlp.FreeBounds(), nlp.FreeBounds()},
		ObjectiveSign:  1,
		EvalObjective: func(x []float64) float64 {
			return 0.5 * ((x[0]-1)*(x[0]-1) + (x[1]-2)*(x[1]-2))
		},
		EvalObjectiveGradient: func(x []float64, gradient *linalg.SparseVector) {
			gradient.Insert(0, x[0]-1)
			gradient.Insert(1, x[1]-2)
		},
		EvalLagrangianHessian: func(_ []float64, sigma float64, _ []float64, hessian *linalg.COOSymmetricMatrix) {
			hessian.Insert(0, 0, sigma)
			hessian.Insert(1, 1, sigma)
		},
		InitialPrimal:   []float64{0, 0},
		HessianCapacity: 2,
	}
}

// EqualityCircle is min x₁+x₂ subject to x₁²+x₂² = 2.
// Solution: (-1, -1) with objective -2 and multiplier -½.
func EqualityCircle() *nlp.Problem {
	return &nlp.Problem{
		Name:             "equality-circle",
		N:                2,
		M:                1,
		VariableBounds:   []nlp.Bounds{nlp.FreeBounds(), nlp.FreeBounds()},
		ConstraintBounds: []nlp.Bounds{{Lower: 2, Upper: 2}},
		ObjectiveSign:    1,
		EvalObjective: func(x []float64) float64 {
			return x[0] + x[1]
		},
		EvalConstraints: func(x, c []float64) {
			c[0] = x[0]*x[0] + x[1]*x[1]
		},
		EvalObjectiveGradient: func(_ []float64, gradient *linalg.SparseVector) {
			gradient.Insert(0, 1)
			gradient.Insert(1, 1)
		},
		EvalConstraintJacobian: func(x []float64, jacobian *linalg.RectangularMatrix) {
			jacobian.Row(0).Insert(0, 2*x[0])
			jacobian.Row(0).Insert(1, 2*x[1])
		},
		EvalLagrangianHessian: func(_ []float64, _ float64, multipliers []float64, hessian *linalg.COOSymmetricMatrix) {
			hessian.Insert(0, 0, -2*multipliers[0])
			hessian.Insert(1, 1, -2*multipliers[0])
		},
		InitialPrimal:   []float64{0, 0},
		HessianCapacity: 2,
	}
}

// InfeasibleBounds is min x₁ subject to the inconsistent constraints
// x₁ ≥ 1 and x₁ ≤ 0. Every point in [0, 1] is a stationary point of
// the violation with unit violation.
func InfeasibleBounds() *nlp.Problem {
	return &nlp.Problem{
		Name:           "infeasible-bounds",
		N:              1,
		M:              2,
		VariableBounds: []nlp.Bounds{nlp.FreeBounds()},
		ConstraintBounds: []nlp.Bounds{
			{Lower: 1, Upper: math.Inf(1)},
			{Lower: math.Inf(-1), Upper: 0},
		},
		ObjectiveSign: 1,
		EvalObjective: func(x []float64) float64 {
			return x[0]
		},
		EvalConstraints: func(x, c []float64) {
			c[0] = x[0]
			c[1] = x[0]
		},
		EvalObjectiveGradient: func(_ []float64, gradient *linalg.SparseVector) {
			gradient.Insert(0, 1)
		},
		EvalConstraintJacobian: func(_ []float64, jacobian *linalg.RectangularMatrix) {
			jacobian.Row(0).Insert(0, 1)
			jacobian.Row(1).Insert(0, 1)
		},
		EvalLagrangianHessian: func(_ []float64, _ float64, _ []float64, _ *linalg.COOSymmetricMatrix) {
		},
		InitialPrimal:   []float64{0.5},
		HessianCapacity: 1,
	}
}

// RestorationParabola is min (x₁-2)² subject to x₁² ≤ 1, started at
// x₁ = 5 where the linearization is poor. Solution: x₁ = 1 with
// multiplier -1.
func RestorationParabola() *nlp.Problem {
	return &nlp.Problem{
		Name:             "restoration-parabola",
		N:                1,
		M:                1,
		VariableBounds:   []nlp.Bounds{nlp.FreeBounds()},
		ConstraintBounds: []nlp.Bounds{{Lower: math.Inf(-1), Upper: 1}},
		ObjectiveSign:    1,
		EvalObjective: func(x []float64) float64 {
			return (x[0] - 2) * (x[0] - 2)
		},
		EvalConstraints: func(x, c []float64) {
			c[0] = x[0] * x[0]
		},
		EvalObjectiveGradient: func(x []float64, gradient *linalg.SparseVector) {
			gradient.Insert(0, 2*(x[0]-2))
		},
		EvalConstraintJacobian: func(x []float64, jacobian *linalg.RectangularMatrix) {
			jacobian.Row(0).Insert(0, 2*x[0])
		},
		EvalLagrangianHessian: func(_ []float64, sigma float64, multipliers []float64, hessian *linalg.COOSymmetricMatrix) {
			hessian.Insert(0, 0, 2*sigma-2*multipliers[0])
		},
		InitialPrimal:   []float64{5},
		HessianCapacity: 1,
	}
}

// HS71 is problem 71 of the Hock-Schittkowski collection:
//
//	min x₁x₄(x₁+x₂+x₃) + x₃
//	s.t. x₁x₂x₃x₄ ≥ 25, x₁²+x₂²+x₃²+x₄² = 40, 1 ≤ x ≤ 5
//
// Solution: (1, 4.74299963, 3.82114998, 1.37940829), objective
// 17.0140173.
func HS71() *nlp.Problem {
	bounds := make([]nlp.Bounds, 4)
	for i := range bounds {
		bounds[i] = nlp.Bounds{Lower: 1, Upper: 5}
	}
	return &nlp.Problem{
		Name:           "hs71",
		N:              4,
		M:              2,
		VariableBounds: bounds,
		ConstraintBounds: []nlp.Bounds{
			{Lower: 25, Upper: math.Inf(1)},
			{Lower: 40, Upper: 40},
		},
		ObjectiveSign: 1,
		EvalObjective: func(x []float64) float64 {
			return x[0]*x[3]*(x[0]+x[1]+x[2]) + x[2]
		},
		EvalConstraints: func(x, c []float64) {
			c[0] = x[0] * x[1] * x[2] * x[3]
			c[1] = x[0]*x[0] + x[1]*x[1] + x[2]*x[2] + x[3]*x[3]
		},
		EvalObjectiveGradient: func(x []float64, gradient *linalg.SparseVector) {
			gradient.Insert(0, x[3]*(2*x[0]+x[1]+x[2]))
			gradient.Insert(1, x[0]*x[3])
			gradient.Insert(2, x[0]*x[3]+1)
			gradient.Insert(3, x[0]*(x[0]+x[1]+x[2]))
		},
		EvalConstraintJacobian: func(x []float64, jacobian *linalg.RectangularMatrix) {
			jacobian.Row(0).Insert(0, x[1]*x[2]*x[3])
			jacobian.Row(0).Insert(1, x[0]*x[2]*x[3])
			jacobian.Row(0).Insert(2, x[0]*x[1]*x[3])
			jacobian.Row(0).Insert(3, x[0]*x[1]*x[2])
			jacobian.Row(1).Insert(0, 2*x[0])
			jacobian.Row(1).Insert(1, 2*x[1])
			jacobian.Row(1).Insert(2, 2*x[2])
			jacobian.Row(1).Insert(3, 2*x[3])
		},
		EvalLagrangianHessian: func(x []float64, sigma float64, multipliers []float64, hessian *linalg.COOSymmetricMatrix) {
			l1, l2 := multipliers[0], multipliers[1]
			hessian.Insert(0, 0, sigma*2*x[3]-l2*2)
			hessian.Insert(1, 0, sigma*x[3]-l1*x[2]*x[3])
			hessian.Insert(2, 0, sigma*x[3]-l1*x[1]*x[3])
			hessian.Insert(3, 0, sigma*(2*x[0]+x[1]+x[2])-l1*x[1]*x[2])
			hessian.Insert(1, 1, -l2*2)
			hessian.Insert(2, 1, -l1*x[0]*x[3])
			hessian.Insert(3, 1, sigma*x[0]-l1*x[0]*x[2])
			hessian.Insert(2, 2, -l2*2)
			hessian.Insert(3, 2, sigma*x[0]-l1*x[0]*x[1])
			hessian.Insert(3, 3, -l2*2)
		},
		InitialPrimal:   []float64{1, 5, 5, 1},
		InitialDual:     []float64{0, 0},
		HessianCapacity: 10,
	}
}
