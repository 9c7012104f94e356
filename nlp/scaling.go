// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nlp

import (
	"math"

	"github.com/curioloop/sqpkit/linalg"
)

// Scaling holds the multiplicative factors applied to the objective
// and to each constraint, computed from the gradients at the initial
// point. A factor is min(1, threshold/‖gradient‖∞), so well-scaled
// functions are left untouched.
type Scaling struct {
	Objective   float64
	Constraints []float64
}

// ComputeScaling derives the factors from the objective gradient and
// the constraint Jacobian evaluated at the initial point.
func ComputeScaling(gradient *linalg.SparseVector, jacobian *linalg.RectangularMatrix, n, m int, threshold float64) Scaling {
	scratch := make([]float64, n)
	infNorm := func(v *linalg.SparseVector) float64 {
		for i := range scratch {
			scratch[i] = 0
		}
		v.AddToDense(scratch, 1)
		nrm := 0.0
		for _, x := range scratch {
			nrm = math.Max(nrm, math.Abs(x))
		}
		return nrm
	}
	factor := func(nrm float64) float64 {
		if nrm <= threshold {
			return 1
		}
		return threshold / nrm
	}
	s := Scaling{
		Objective:   factor(infNorm(gradient)),
		Constraints: make([]float64, m),
	}
	for j := 0; j < m; j++ {
		s.Constraints[j] = factor(infNorm(jacobian.Row(j)))
	}
	return s
}

// Apply returns a scaled view of the problem: the objective and each
// constraint (with its bounds) are multiplied by their factor. The
// original problem is untouched.
func (s Scaling) Apply(p *Problem) *Problem {
	q := *p
	of := s.Objective
	q.EvalObjective = func(x []float64) float64 { return of * p.EvalObjective(x) }
	if p.EvalObjectiveGradient != nil {
		q.EvalObjectiveGradient = func(x []float64, gradient *linalg.SparseVector) {
			p.EvalObjectiveGradient(x, gradient)
			gradient.Scale(of)
		}
	}
	if p.M > 0 {
		q.ConstraintBounds = make([]Bounds, p.M)
		for j, b := range p.ConstraintBounds {
			q.ConstraintBounds[j] = Bounds{Lower: s.Constraints[j] * b.Lower, Upper: s.Constraints[j] * b.Upper}
		}
		q.EvalConstraints = func(x, c []float64) {
			p.EvalConstraints(x, c)
			for j := range c {
				c[j] *= s.Constraints[j]
			}
		}
		if p.EvalConstraintJacobian != nil {
			q.EvalConstraintJacobian = func(x []float64, jacobian *linalg.RectangularMatrix) {
				p.EvalConstraintJacobian(x, jacobian)
				for j := 0; j < p.M; j++ {
					jacobian.Row(j).Scale(s.Constraints[j])
				}
			}
		}
	}
	if p.EvalLagrangianHessian != nil {
		scratch := make([]float64, p.M)
		q.EvalLagrangianHessian = func(x []float64, objectiveMultiplier float64, multipliers []float64, hessian *linalg.COOSymmetricMatrix) {
			for j := range scratch {
				scratch[j] = multipliers[j] * s.Constraints[j]
			}
			p.EvalLagrangianHessian(x, objectiveMultiplier*of, scratch, hessian)
		}
	}
	return &q
}

// UnscaleMultipliers maps multipliers of the scaled problem back to
// the original one in place.
func (s Scaling) UnscaleMultipliers(m *Multipliers) {
	for j := range m.Constraints {
		m.Constraints[j] *= s.Constraints[j] / s.Objective
	}
	for i := range m.LowerBounds {
		m.LowerBounds[i] /= s.Objective
		m.UpperBounds[i] /= s.Objective
	}
}
