// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// standardForm converts a bounded-variable problem with two-sided
// rows into the equality standard form min cᵀz, Az = b, z ≥ 0
// consumed by the simplex solver. Variables are shifted by a finite
// bound or split into positive and negative parts; rows gain surplus,
// slack and range columns, plus elastic columns in phase-1 mode.
//
// Variables that appear in no constraint row would produce zero
// columns, which the simplex solver rejects; they are kept out of the
// standard form and recovered analytically from their own bounds.
type standardForm struct {
	dp      *denseProblem
	elastic bool

	cols int
	rows int

	kinds    []int // per original variable
	colOf    []int // -1 for detached variables
	colOf2   []int
	offsets  []float64
	detached []bool

	elasticCols []int

	// cap rows: left column +1, cap column +1, rhs value
	capLeft []int
	capCol  []int
	capRHS  []float64

	// inconsistent marks a coefficient-free row whose bounds exclude
	// zero, detected while building a non-elastic form.
	inconsistent bool

	a *mat.Dense
	b []float64
	c []float64
}

const (
	kindShiftLower = iota
	kindShiftUpper
	kindSplit
)

func newStandardForm(dp *denseProblem, elastic bool) *standardForm {
	sf := &standardForm{
		dp:       dp,
		elastic:  elastic,
		kinds:    make([]int, dp.n),
		colOf:    make([]int, dp.n),
		colOf2:   make([]int, dp.n),
		offsets:  make([]float64, dp.n),
		detached: make([]bool, dp.n),
	}
	sf.build()
	return sf
}

func (sf *standardForm) build() {
	dp := sf.dp
	col := 0

	// A variable participates when a row with at least one finite
	// bound carries a nonzero coefficient for it.
	participates := make([]bool, dp.n)
	for j := 0; j < dp.m; j++ {
		b := dp.conBounds[j]
		if math.IsInf(b.Lower, -1) && math.IsInf(b.Upper, 1) {
			continue
		}
		for i := 0; i < dp.n; i++ {
			if dp.jac.At(j, i) != 0 {
				participates[i] = true
			}
		}
	}

	// Variable columns.
	for i, b := range dp.varBounds {
		if !participates[i] {
			sf.detached[i] = true
			sf.colOf[i] = -1
			continue
		}
		lower := !math.IsInf(b.Lower, -1)
		upper := !math.IsInf(b.Upper, 1)
		switch {
		case lower:
			sf.kinds[i] = kindShiftLower
			sf.offsets[i] = b.Lower
			sf.colOf[i] = col
			col++
			if upper {
				// p + s = u - l caps the shifted variable.
				capCol := col
				col++
				sf.capLeft = append(sf.capLeft, sf.colOf[i])
				sf.capCol = append(sf.capCol, capCol)
				sf.capRHS = append(sf.capRHS, b.Upper-b.Lower)
			}
		case upper:
			sf.kinds[i] = kindShiftUpper
			sf.offsets[i] = b.Upper
			sf.colOf[i] = col
			col++
		default:
			sf.kinds[i] = kindSplit
			sf.colOf[i] = col
			sf.colOf2[i] = col + 1
			col += 2
		}
	}

	// Row layout. Unbounded rows are dropped.
	type rowSpec struct {
		j        int
		rhs      float64
		surplus  int // column of -1 entry, -1 if none
		slack    int // column of +1 entry, -1 if none
		eNeg     int
		ePos     int
		capRange float64 // > 0 when the surplus column is capped
	}
	var specs []rowSpec
	for j := 0; j < dp.m; j++ {
		b := dp.conBounds[j]
		lower := !math.IsInf(b.Lower, -1)
		upper := !math.IsInf(b.Upper, 1)
		if !lower && !upper {
			continue
		}
		hasColumn := false
		for i := 0; i < dp.n; i++ {
			if dp.jac.At(j, i) != 0 && !sf.detached[i] {
				hasColumn = true
				break
			}
		}
		if !hasColumn && !sf.elastic {
			// The row value is identically zero.
			if b.Violation(0) > feasTol {
				sf.inconsistent = true
			}
			continue
		}
		spec := rowSpec{j: j, surplus: -1, slack: -1, eNeg: -1, ePos: -1}
		switch {
		case lower && upper && b.Lower == b.Upper:
			spec.rhs = b.Lower
		case lower && upper:
			// Σ - r = l with 0 ≤ r ≤ u - l.
			spec.rhs = b.Lower
			spec.surplus = col
			col++
			spec.capRange = b.Upper - b.Lower
		case lower:
			spec.rhs = b.Lower
			spec.surplus = col
			col++
		default:
			spec.rhs = b.Upper
			spec.slack = col
			col++
		}
		if sf.elastic {
			if lower {
				spec.eNeg = col
				sf.elasticCols = append(sf.elasticCols, col)
				col++
			}
			if upper {
				spec.ePos = col
				sf.elasticCols = append(sf.elasticCols, col)
				col++
			}
		}
		if spec.capRange > 0 {
			capCol := col
			col++
			sf.capLeft = append(sf.capLeft, spec.surplus)
			sf.capCol = append(sf.capCol, capCol)
			sf.capRHS = append(sf.capRHS, spec.capRange)
		}
		specs = append(specs, spec)
	}

	sf.cols = col
	sf.rows = len(specs) + len(sf.capCol)
	if sf.rows == 0 || sf.cols == 0 {
		sf.rows, sf.cols = 0, 0
		return
	}
	sf.a = mat.NewDense(sf.rows, sf.cols, nil)
	sf.b = make([]float64, sf.rows)
	sf.c = make([]float64, sf.cols)

	for r, spec := range specs {
		rhs := spec.rhs
		for i := 0; i < dp.n; i++ {
			coeff := dp.jac.At(spec.j, i)
			if coeff == 0 || sf.detached[i] {
				continue
			}
			switch sf.kinds[i] {
			case kindShiftLower:
				sf.a.Set(r, sf.colOf[i], sf.a.At(r, sf.colOf[i])+coeff)
				rhs -= coeff * sf.offsets[i]
			case kindShiftUpper:
				sf.a.Set(r, sf.colOf[i], sf.a.At(r, sf.colOf[i])-coeff)
				rhs -= coeff * sf.offsets[i]
			default:
				sf.a.Set(r, sf.colOf[i], sf.a.At(r, sf.colOf[i])+coeff)
				sf.a.Set(r, sf.colOf2[i], sf.a.At(r, sf.colOf2[i])-coeff)
			}
		}
		if spec.surplus >= 0 {
			sf.a.Set(r, spec.surplus, -1)
		}
		if spec.slack >= 0 {
			sf.a.Set(r, spec.slack, 1)
		}
		if spec.eNeg >= 0 {
			sf.a.Set(r, spec.eNeg, 1)
		}
		if spec.ePos >= 0 {
			sf.a.Set(r, spec.ePos, -1)
		}
		sf.b[r] = rhs
	}
	for k := range sf.capCol {
		r := len(specs) + k
		sf.a.Set(r, sf.capLeft[k], 1)
		sf.a.Set(r, sf.capCol[k], 1)
		sf.b[r] = sf.capRHS[k]
	}

	if sf.elastic {
		for _, e := range sf.elasticCols {
			sf.c[e] = 1
		}
	} else {
		for i := 0; i < dp.n; i++ {
			g := dp.g[i]
			if g == 0 || sf.detached[i] {
				continue
			}
			switch sf.kinds[i] {
			case kindShiftLower:
				sf.c[sf.colOf[i]] += g
			case kindShiftUpper:
				sf.c[sf.colOf[i]] -= g
			default:
				sf.c[sf.colOf[i]] += g
				sf.c[sf.colOf2[i]] -= g
			}
		}
	}
}

// recoverDetached fixes the variables outside the standard form. In
// elastic mode the objective ignores them; otherwise each moves to
// the bound its cost coefficient points at.
func (sf *standardForm) recoverDetached(x []float64) error {
	for i, d := range sf.detached {
		if !d {
			continue
		}
		b := sf.dp.varBounds[i]
		g := sf.dp.g[i]
		if sf.elastic || g == 0 {
			x[i] = b.Project(0)
			continue
		}
		if g > 0 {
			if math.IsInf(b.Lower, -1) {
				return lp.ErrUnbounded
			}
			x[i] = b.Lower
		} else {
			if math.IsInf(b.Upper, 1) {
				return lp.ErrUnbounded
			}
			x[i] = b.Upper
		}
	}
	return nil
}

// solve runs the simplex solver and maps the solution back to the
// original variables. In elastic mode the returned value is the
// minimal ℓ1 row violation, otherwise the optimal objective.
func (sf *standardForm) solve() (x []float64, optF float64, err error) {
	dp := sf.dp
	if sf.inconsistent {
		return nil, 0, lp.ErrInfeasible
	}
	x = make([]float64, dp.n)
	if sf.rows == 0 {
		for i := range sf.detached {
			sf.detached[i] = true
		}
		if err = sf.recoverDetached(x); err != nil {
			return nil, 0, err
		}
		return x, 0, nil
	}
	optF, z, err := lp.Simplex(sf.c, sf.a, sf.b, 0, nil)
	if err != nil {
		return nil, 0, err
	}
	for i := 0; i < dp.n; i++ {
		if sf.detached[i] {
			continue
		}
		switch sf.kinds[i] {
		case kindShiftLower:
			x[i] = sf.offsets[i] + z[sf.colOf[i]]
		case kindShiftUpper:
			x[i] = sf.offsets[i] - z[sf.colOf[i]]
		default:
			x[i] = z[sf.colOf[i]] - z[sf.colOf2[i]]
		}
	}
	if err = sf.recoverDetached(x); err != nil {
		return nil, 0, err
	}
	dp.projectIntoBox(x)
	if sf.elastic {
		sum := 0.0
		for _, e := range sf.elasticCols {
			sum += z[e]
		}
		optF = sum
	}
	return x, optF, nil
}

// minimumViolationPoint solves the elastic phase-1 program and
// returns a point of minimal ℓ1 row violation together with that
// violation.
func minimumViolationPoint(dp *denseProblem) (x []float64, violation float64, err error) {
	sf := newStandardForm(dp, true)
	x, violation, err = sf.solve()
	if err != nil {
		return nil, 0, err
	}
	scale := 1.0
	if len(x) > 0 {
		scale = math.Max(1, floats.Norm(x, math.Inf(1)))
	}
	if violation <= feasTol*scale {
		violation = 0
	}
	return x, violation, nil
}
