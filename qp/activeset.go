// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/sqpkit/linalg"
	"github.com/curioloop/sqpkit/nlp"
)

// ActiveSetQP is a primal active-set solver for convex quadratic
// programs with variable bounds and two-sided linear constraints.
// Feasibility is established first by an elastic phase-1 linear
// program; phase 2 then tracks a working set of active rows and
// solves one equality-constrained QP per change of the set.
//
// The Hessian is expected positive definite on the non-elastic
// variables; the SQP engine guarantees this through its convexified
// Hessian models.
type ActiveSetQP struct {
	// MaxIterations bounds the number of working-set changes.
	// Zero selects a dimension-dependent default.
	MaxIterations int
}

// NewActiveSetQP returns a solver with default settings.
func NewActiveSetQP() *ActiveSetQP {
	return &ActiveSetQP{}
}

type workRow struct {
	row  int
	side int // +1 lower, -1 upper, 0 equality
}

// Solve implements the Solver interface. A nil Hessian is rejected;
// linear programs go through SimplexLP.
func (s *ActiveSetQP) Solve(varBounds, conBounds []nlp.Bounds,
	g *linalg.SparseVector, jac *linalg.RectangularMatrix,
	hess *linalg.COOSymmetricMatrix, initial []float64) (*Solution, error) {

	if hess == nil {
		return nil, errors.New("activeset: quadratic solver requires a Hessian")
	}
	dp := newDenseProblem(varBounds, conBounds, g, jac, hess)
	n, m := dp.n, dp.m

	x := make([]float64, n)
	copy(x, initial)
	dp.projectIntoBox(x)

	// Phase 1: locate a feasible point, or report infeasibility with
	// a minimal-violation point and its constraint partition.
	if !dp.feasible(x, feasTol) {
		point, violation, err := minimumViolationPoint(dp)
		if err != nil {
			return nil, errors.Wrap(err, "activeset: phase-1 solve failed")
		}
		if violation > 0 {
			return &Solution{
				Status:              Infeasible,
				X:                   point,
				ConstraintPartition: classifyRows(dp, point),
			}, nil
		}
		x = point
	}

	maxIter := s.MaxIterations
	if maxIter == 0 {
		maxIter = 100 + 20*(n+m)
	}

	active := make([]workRow, 0, n)
	inSet := make([]bool, n+m)
	for r := 0; r < n+m; r++ {
		if dp.rowBounds(r).Type() == nlp.EqualBounds {
			active = append(active, workRow{r, 0})
			inSet[r] = true
		}
	}

	grad := make([]float64, n)
	row := make([]float64, n)

	for iter := 0; iter < maxIter; iter++ {
		dp.gradient(x, grad)

		// Equality-constrained step on the working set:
		//   [H Aᵀ][p]   [-grad]
		//   [A 0 ][ν] = [  0  ]   with λ = -ν.
		k := len(active)
		kkt := mat.NewDense(n+k, n+k, nil)
		rhs := mat.NewVecDense(n+k, nil)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				kkt.Set(i, j, dp.hess.At(i, j))
			}
			rhs.SetVec(i, -grad[i])
		}
		for c, wr := range active {
			dp.rowInto(wr.row, row)
			for i := 0; i < n; i++ {
				kkt.Set(i, n+c, row[i])
				kkt.Set(n+c, i, row[i])
			}
		}
		var sol mat.VecDense
		if err := sol.SolveVec(kkt, rhs); err != nil {
			if _, ok := err.(mat.Condition); !ok {
				return nil, errors.Wrap(err, "activeset: singular KKT system")
			}
		}

		stepNorm := 0.0
		for i := 0; i < n; i++ {
			stepNorm = math.Max(stepNorm, math.Abs(sol.AtVec(i)))
		}
		scale := math.Max(1, mat.Norm(mat.NewVecDense(n, x), math.Inf(1)))

		if stepNorm <= 1e-11*scale {
			// Stationary on the working set: check multiplier signs.
			worst, worstViolation := -1, dualTol
			for c, wr := range active {
				lambda := -sol.AtVec(n + c)
				var violation float64
				switch {
				case wr.side > 0 && lambda < 0:
					violation = -lambda
				case wr.side < 0 && lambda > 0:
					violation = lambda
				}
				if violation > worstViolation {
					worst, worstViolation = c, violation
				}
			}
			if worst < 0 {
				dp.projectIntoBox(x)
				out := &Solution{
					Status:                Optimal,
					X:                     x,
					Objective:             dp.objective(x),
					ConstraintMultipliers: make([]float64, m),
					LowerBoundMultipliers: make([]float64, n),
					UpperBoundMultipliers: make([]float64, n),
				}
				for c, wr := range active {
					storeMultiplier(dp, wr.row, -sol.AtVec(n+c), out)
				}
				return out, nil
			}
			inSet[active[worst].row] = false
			active = append(active[:worst], active[worst+1:]...)
			continue
		}

		// Ratio test against the inactive rows.
		p := make([]float64, n)
		for i := 0; i < n; i++ {
			p[i] = sol.AtVec(i)
		}
		alpha, blockRow, blockSide := 1.0, -1, 0
		for r := 0; r < n+m; r++ {
			if inSet[r] {
				continue
			}
			delta := dp.rowDot(r, p)
			b := dp.rowBounds(r)
			v := dp.rowValue(r, x)
			switch {
			case delta < -1e-12 && !math.IsInf(b.Lower, -1):
				if a := math.Max(0, (b.Lower-v)/delta); a < alpha {
					alpha, blockRow, blockSide = a, r, +1
				}
			case delta > 1e-12 && !math.IsInf(b.Upper, 1):
				if a := math.Max(0, (b.Upper-v)/delta); a < alpha {
					alpha, blockRow, blockSide = a, r, -1
				}
			}
		}
		for i := 0; i < n; i++ {
			x[i] += alpha * p[i]
		}
		if blockRow >= 0 {
			active = append(active, workRow{blockRow, blockSide})
			inSet[blockRow] = true
		}
	}
	return nil, errors.New("activeset: iteration limit exceeded")
}
