// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqp

import (
	"math"

	"github.com/curioloop/sqpkit/nlp"
	"github.com/curioloop/sqpkit/qp"
)

// ActiveSet lists the indices active in a subproblem solution.
type ActiveSet struct {
	AtLowerBound []int
	AtUpperBound []int
	Constraints  []int
}

// Direction is the solution of one subproblem: a primal displacement,
// multiplier displacements and the active set, plus the model value
// of the subproblem.
type Direction struct {
	X           []float64
	Multipliers nlp.Multipliers
	ActiveSet   ActiveSet

	// Objective is the subproblem model value at X.
	Objective float64
	// ObjectiveMultiplier is the σ carried by the direction: the
	// penalty parameter for the ℓ1 relaxation, 0 for a feasibility
	// direction, 1 otherwise.
	ObjectiveMultiplier float64
	// Norm is the ∞-norm of the primal displacement.
	Norm float64

	Status qp.Status

	// ConstraintPartition is present when the subproblem detected an
	// inconsistent linearization.
	ConstraintPartition *nlp.ConstraintPartition
}

// computeNorm refreshes Norm from the first n entries of X.
func (d *Direction) computeNorm(n int) {
	norm := 0.0
	for _, v := range d.X[:n] {
		norm = math.Max(norm, math.Abs(v))
	}
	d.Norm = norm
}

// ElasticPair maps a constraint index to the subproblem variable
// index of its elastic.
type ElasticPair struct {
	Constraint int
	Variable   int
}

// ElasticVariables tracks the nonnegative auxiliary variables added
// to a subproblem to absorb linearized constraint violation.
// Positive elastics absorb violation above the upper bound, negative
// elastics violation below the lower bound. They never survive a
// solve: the relaxation strategies strip them from the subproblem and
// from the returned direction.
type ElasticVariables struct {
	Positive []ElasticPair
	Negative []ElasticPair
}

// linearizedResidual sums the elastic values of a full (untrimmed)
// subproblem solution.
func (ev *ElasticVariables) linearizedResidual(x []float64) float64 {
	residual := 0.0
	for _, p := range ev.Positive {
		residual += x[p.Variable]
	}
	for _, p := range ev.Negative {
		residual += x[p.Variable]
	}
	return residual
}

// PredictedReductionModel is a two-stage lazy model of the predicted
// decrease of a subproblem as a function of the step length. The
// value at α = 1 is available immediately; the quadratic coefficients
// are precomputed once on the first evaluation at α ≠ 1, so that the
// line search pays O(1) per trial step.
type PredictedReductionModel struct {
	fullStepValue float64
	precompute    func() (linear, quadratic float64)

	computed  bool
	linear    float64
	quadratic float64
}

// NewPredictedReductionModel builds a model from the value at α = 1
// and a deferred coefficient computation.
func NewPredictedReductionModel(fullStepValue float64, precompute func() (linear, quadratic float64)) *PredictedReductionModel {
	return &PredictedReductionModel{fullStepValue: fullStepValue, precompute: precompute}
}

// Evaluate returns the predicted decrease for a step of length α.
func (m *PredictedReductionModel) Evaluate(stepLength float64) float64 {
	if stepLength == 1 {
		return m.fullStepValue
	}
	if !m.computed {
		m.linear, m.quadratic = m.precompute()
		m.computed = true
	}
	return -stepLength * (m.linear + stepLength*m.quadratic)
}
