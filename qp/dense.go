// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/sqpkit/linalg"
	"github.com/curioloop/sqpkit/nlp"
)

// denseProblem is the dense view of one subproblem. Rows 0…n-1 are
// the variable bounds, rows n…n+m-1 the linearized constraints.
type denseProblem struct {
	n, m int

	g    []float64
	hess *mat.SymDense // nil for an LP
	jac  *mat.Dense    // m×n, nil when m == 0

	varBounds []nlp.Bounds
	conBounds []nlp.Bounds
}

// elasticDiagonal regularizes columns without curvature (elastic
// variables) so the KKT systems stay nonsingular.
const elasticDiagonal = 1e-10

func newDenseProblem(varBounds, conBounds []nlp.Bounds,
	g *linalg.SparseVector, jac *linalg.RectangularMatrix,
	hess *linalg.COOSymmetricMatrix) *denseProblem {

	n, m := len(varBounds), len(conBounds)
	dp := &denseProblem{
		n: n, m: m,
		g:         make([]float64, n),
		varBounds: varBounds,
		conBounds: conBounds,
	}
	g.AddToDense(dp.g, 1)
	if m > 0 {
		dp.jac = mat.NewDense(m, n, nil)
		for j := 0; j < m; j++ {
			jac.Row(j).ForEach(func(i int, v float64) {
				dp.jac.Set(j, i, dp.jac.At(j, i)+v)
			})
		}
	}
	if hess != nil {
		dp.hess = mat.NewSymDense(n, nil)
		hess.ForEach(func(i, j int, v float64) {
			dp.hess.SetSym(i, j, dp.hess.At(i, j)+v)
		})
		for i := 0; i < n; i++ {
			if dp.hess.At(i, i) == 0 {
				dp.hess.SetSym(i, i, elasticDiagonal)
			}
		}
	}
	return dp
}

// rowBounds returns the bounds of row r.
func (dp *denseProblem) rowBounds(r int) nlp.Bounds {
	if r < dp.n {
		return dp.varBounds[r]
	}
	return dp.conBounds[r-dp.n]
}

// rowValue returns aᵣᵀx.
func (dp *denseProblem) rowValue(r int, x []float64) float64 {
	if r < dp.n {
		return x[r]
	}
	v := 0.0
	for i := 0; i < dp.n; i++ {
		v += dp.jac.At(r-dp.n, i) * x[i]
	}
	return v
}

// rowDot returns aᵣᵀp.
func (dp *denseProblem) rowDot(r int, p []float64) float64 {
	return dp.rowValue(r, p)
}

// rowInto writes aᵣ into the dense target.
func (dp *denseProblem) rowInto(r int, target []float64) {
	for i := range target {
		target[i] = 0
	}
	if r < dp.n {
		target[r] = 1
		return
	}
	for i := 0; i < dp.n; i++ {
		target[i] = dp.jac.At(r-dp.n, i)
	}
}

// gradient writes g + Hx into target.
func (dp *denseProblem) gradient(x, target []float64) {
	copy(target, dp.g)
	if dp.hess == nil {
		return
	}
	for i := 0; i < dp.n; i++ {
		v := 0.0
		for j := 0; j < dp.n; j++ {
			v += dp.hess.At(i, j) * x[j]
		}
		target[i] += v
	}
}

// objective returns gᵀx + ½xᵀHx.
func (dp *denseProblem) objective(x []float64) float64 {
	v := 0.0
	for i := 0; i < dp.n; i++ {
		v += dp.g[i] * x[i]
	}
	if dp.hess != nil {
		q := 0.0
		for i := 0; i < dp.n; i++ {
			for j := 0; j < dp.n; j++ {
				q += x[i] * dp.hess.At(i, j) * x[j]
			}
		}
		v += q / 2
	}
	return v
}

// feasible reports whether every row is satisfied at x within tol.
func (dp *denseProblem) feasible(x []float64, tol float64) bool {
	for r := 0; r < dp.n+dp.m; r++ {
		if dp.rowBounds(r).Violation(dp.rowValue(r, x)) > tol {
			return false
		}
	}
	return true
}

// projectIntoBox clamps x into the variable bounds.
func (dp *denseProblem) projectIntoBox(x []float64) {
	for i, b := range dp.varBounds {
		x[i] = b.Project(x[i])
	}
}

// recoverMultipliers solves the stationarity system grad = A_Wᵀλ in
// the least-squares sense over the rows active at x and distributes
// the multipliers with the usual sign convention (lower-active
// nonnegative, upper-active nonpositive). Used by the LP path, where
// the simplex solver does not expose duals.
func (dp *denseProblem) recoverMultipliers(x, grad []float64, sol *Solution) {
	type activeRow struct {
		row  int
		side int // +1 lower, -1 upper, 0 equality
	}
	var active []activeRow
	// Equality constraint rows first so they are never dropped when
	// the active set is trimmed to n rows.
	for j := 0; j < dp.m; j++ {
		if dp.conBounds[j].Type() == nlp.EqualBounds {
			active = append(active, activeRow{dp.n + j, 0})
		}
	}
	for r := 0; r < dp.n+dp.m; r++ {
		b := dp.rowBounds(r)
		if b.Type() == nlp.EqualBounds {
			if r >= dp.n {
				continue // already added
			}
			active = append(active, activeRow{r, 0})
			continue
		}
		v := dp.rowValue(r, x)
		switch {
		case !math.IsInf(b.Lower, -1) && v-b.Lower <= feasTol:
			active = append(active, activeRow{r, +1})
		case !math.IsInf(b.Upper, 1) && b.Upper-v <= feasTol:
			active = append(active, activeRow{r, -1})
		}
	}
	if len(active) > dp.n {
		active = active[:dp.n]
	}
	k := len(active)
	if k == 0 {
		return
	}
	at := mat.NewDense(dp.n, k, nil)
	row := make([]float64, dp.n)
	for c, ar := range active {
		dp.rowInto(ar.row, row)
		for i := 0; i < dp.n; i++ {
			at.Set(i, c, row[i])
		}
	}
	var lambda mat.VecDense
	if err := lambda.SolveVec(at, mat.NewVecDense(dp.n, grad)); err != nil {
		if _, ok := err.(mat.Condition); !ok {
			return
		}
	}
	for c, ar := range active {
		l := lambda.AtVec(c)
		switch {
		case ar.side > 0 && l < 0:
			l = 0
		case ar.side < 0 && l > 0:
			l = 0
		}
		storeMultiplier(dp, ar.row, l, sol)
	}
}

// storeMultiplier records the multiplier of an active row in the
// solution, together with its active-set membership.
func storeMultiplier(dp *denseProblem, row int, lambda float64, sol *Solution) {
	if row < dp.n {
		if lambda >= 0 {
			sol.LowerBoundMultipliers[row] = lambda
			sol.ActiveLower = append(sol.ActiveLower, row)
		} else {
			sol.UpperBoundMultipliers[row] = lambda
			sol.ActiveUpper = append(sol.ActiveUpper, row)
		}
		return
	}
	j := row - dp.n
	sol.ConstraintMultipliers[j] = lambda
	sol.ActiveConstraints = append(sol.ActiveConstraints, j)
}
