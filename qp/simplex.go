// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/curioloop/sqpkit/linalg"
	"github.com/curioloop/sqpkit/nlp"
)

// SimplexLP solves the linear subproblems through the gonum simplex
// solver. The bounded-variable formulation is converted to equality
// standard form first; multipliers are recovered afterwards from the
// rows active at the optimum, since the simplex interface does not
// expose duals.
type SimplexLP struct{}

// NewSimplexLP returns an LP solver.
func NewSimplexLP() *SimplexLP {
	return &SimplexLP{}
}

// Solve implements the Solver interface. The Hessian must be nil.
func (s *SimplexLP) Solve(varBounds, conBounds []nlp.Bounds,
	g *linalg.SparseVector, jac *linalg.RectangularMatrix,
	hess *linalg.COOSymmetricMatrix, initial []float64) (*Solution, error) {

	if hess != nil {
		return nil, errors.New("simplex: linear solver cannot handle a Hessian")
	}
	dp := newDenseProblem(varBounds, conBounds, g, jac, nil)

	sf := newStandardForm(dp, false)
	x, _, err := sf.solve()
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return &Solution{Status: Infeasible}, nil
	case errors.Is(err, lp.ErrUnbounded):
		return &Solution{Status: Unbounded}, nil
	case err != nil:
		return nil, errors.Wrap(err, "simplex: solve failed")
	}

	out := &Solution{
		Status:                Optimal,
		X:                     x,
		Objective:             dp.objective(x),
		ConstraintMultipliers: make([]float64, dp.m),
		LowerBoundMultipliers: make([]float64, dp.n),
		UpperBoundMultipliers: make([]float64, dp.n),
	}
	dp.recoverMultipliers(x, dp.g, out)
	return out, nil
}
