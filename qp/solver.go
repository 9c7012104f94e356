// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package qp provides the quadratic and linear programming solvers
// behind the SQP subproblems. Both operate on the sparse containers
// of the engine but solve densely: the subproblems are small local
// models, not the full nonlinear program.
package qp

import (
	"github.com/curioloop/sqpkit/linalg"
	"github.com/curioloop/sqpkit/nlp"
)

// Status is the outcome of a subproblem solve.
type Status int

const (
	// Optimal means a solution satisfying the optimality conditions
	// was found.
	Optimal Status = iota
	// Infeasible means the constraints admit no solution.
	Infeasible
	// Unbounded means the objective decreases without bound on the
	// feasible set.
	Unbounded
	// Failed means the solver broke down.
	Failed
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "optimal"
	case Infeasible:
		return "infeasible"
	case Unbounded:
		return "unbounded"
	}
	return "failed"
}

// Solution is the output of a subproblem solver. The memory layout of
// the caller's inputs is preserved: X has one entry per subproblem
// variable, in the caller's ordering.
type Solution struct {
	Status Status

	X         []float64
	Objective float64

	ConstraintMultipliers []float64
	LowerBoundMultipliers []float64
	UpperBoundMultipliers []float64

	ActiveLower       []int
	ActiveUpper       []int
	ActiveConstraints []int

	// ConstraintPartition is present when Status is Infeasible and
	// the solver located a minimal-violation point.
	ConstraintPartition *nlp.ConstraintPartition
}

// Solver solves min gᵀx + ½xᵀHx subject to variable bounds and
// linearized constraint bounds on the rows of the Jacobian. A nil
// Hessian denotes a linear program.
type Solver interface {
	Solve(varBounds, conBounds []nlp.Bounds,
		g *linalg.SparseVector, jac *linalg.RectangularMatrix,
		hess *linalg.COOSymmetricMatrix, initial []float64) (*Solution, error)
}

const (
	feasTol = 1e-8
	dualTol = 1e-9
)

// classifyRows partitions the constraints by their violation at x.
func classifyRows(dp *denseProblem, x []float64) *nlp.ConstraintPartition {
	cp := &nlp.ConstraintPartition{}
	for j := 0; j < dp.m; j++ {
		y := dp.rowValue(dp.n+j, x)
		b := dp.conBounds[j]
		switch {
		case y < b.Lower-feasTol:
			cp.LowerBoundInfeasible = append(cp.LowerBoundInfeasible, j)
			cp.Infeasible = append(cp.Infeasible, j)
		case y > b.Upper+feasTol:
			cp.UpperBoundInfeasible = append(cp.UpperBoundInfeasible, j)
			cp.Infeasible = append(cp.Infeasible, j)
		default:
			cp.Feasible = append(cp.Feasible, j)
		}
	}
	return cp
}
