// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nlp

import (
	"github.com/curioloop/sqpkit/linalg"
)

// Residuals are the first-order optimality measures of an iterate.
type Residuals struct {
	// Constraints is the constraint infeasibility.
	Constraints float64
	// KKT is the norm of the Lagrangian gradient.
	KKT float64
	// FritzJohn is the norm of the Lagrangian gradient with a zero
	// objective multiplier.
	FritzJohn float64
	// Complementarity aggregates min(|slack|, |multiplier|) over all
	// bounds and constraints.
	Complementarity float64
}

// Progress is the (feasibility, objective) pair consumed by the
// globalization strategies.
type Progress struct {
	Feasibility float64
	Objective   float64
}

// Iterate is a primal-dual point together with a lazy cache of its
// function evaluations. Once a cached evaluation is populated it
// stays consistent with X until Clear is called.
type Iterate struct {
	X           []float64
	Multipliers Multipliers

	Objective         float64
	objectiveComputed bool

	Constraints         []float64
	constraintsComputed bool

	ObjectiveGradient         *linalg.SparseVector
	objectiveGradientComputed bool

	ConstraintJacobian *linalg.RectangularMatrix
	jacobianComputed   bool

	// LagrangianGradient is the dense 𝜵ₓL, cached when requested.
	LagrangianGradient []float64

	Residuals Residuals
	Progress  Progress
}

// NewIterate allocates an iterate for n variables and m constraints.
func NewIterate(n, m int) *Iterate {
	return &Iterate{
		X:                  make([]float64, n),
		Multipliers:        NewMultipliers(n, m),
		Constraints:        make([]float64, m),
		ObjectiveGradient:  linalg.NewSparseVector(n),
		ConstraintJacobian: linalg.NewRectangularMatrix(m, n),
		LagrangianGradient: make([]float64, n),
	}
}

// Clear invalidates the evaluation cache. Call it whenever X changes.
func (it *Iterate) Clear() {
	it.objectiveComputed = false
	it.constraintsComputed = false
	it.objectiveGradientComputed = false
	it.jacobianComputed = false
}

// ObjectiveComputed reports whether the objective cache is populated.
func (it *Iterate) ObjectiveComputed() bool { return it.objectiveComputed }

// ConstraintsComputed reports whether the constraint cache is populated.
func (it *Iterate) ConstraintsComputed() bool { return it.constraintsComputed }

// EvaluateObjective populates the objective cache.
func (it *Iterate) EvaluateObjective(p *Problem, counts *EvalCounts) error {
	if it.objectiveComputed {
		return nil
	}
	it.Objective = p.EvalObjective(it.X)
	counts.Objective++
	if err := checkFinite(it.Objective); err != nil {
		return err
	}
	it.objectiveComputed = true
	return nil
}

// EvaluateConstraints populates the constraint cache.
func (it *Iterate) EvaluateConstraints(p *Problem, counts *EvalCounts) error {
	if it.constraintsComputed || p.M == 0 {
		it.constraintsComputed = true
		return nil
	}
	p.EvalConstraints(it.X, it.Constraints)
	counts.Constraints++
	if err := checkFiniteSlice(it.Constraints); err != nil {
		return err
	}
	it.constraintsComputed = true
	return nil
}

// EvaluateObjectiveGradient populates the sparse gradient cache.
func (it *Iterate) EvaluateObjectiveGradient(p *Problem, counts *EvalCounts) error {
	if it.objectiveGradientComputed {
		return nil
	}
	it.ObjectiveGradient.Clear()
	p.EvalObjectiveGradient(it.X, it.ObjectiveGradient)
	counts.Gradient++
	var err error
	it.ObjectiveGradient.ForEach(func(_ int, v float64) {
		if e := checkFinite(v); e != nil {
			err = e
		}
	})
	if err != nil {
		return err
	}
	it.objectiveGradientComputed = true
	return nil
}

// EvaluateConstraintJacobian populates the sparse Jacobian cache.
func (it *Iterate) EvaluateConstraintJacobian(p *Problem, counts *EvalCounts) error {
	if it.jacobianComputed || p.M == 0 {
		it.jacobianComputed = true
		return nil
	}
	it.ConstraintJacobian.Clear()
	p.EvalConstraintJacobian(it.X, it.ConstraintJacobian)
	counts.Jacobian++
	var err error
	for j := 0; j < p.M; j++ {
		it.ConstraintJacobian.Row(j).ForEach(func(_ int, v float64) {
			if e := checkFinite(v); e != nil {
				err = e
			}
		})
	}
	if err != nil {
		return err
	}
	it.jacobianComputed = true
	return nil
}

// EvaluateLagrangianGradient computes and caches the dense
// σ𝜵𝒇 − Σ𝛌ⱼ𝜵𝒄ⱼ − 𝛌_L − 𝛌_U at the iterate.
func (it *Iterate) EvaluateLagrangianGradient(p *Problem, counts *EvalCounts, objectiveMultiplier float64, multipliers Multipliers) ([]float64, error) {
	if err := it.EvaluateObjectiveGradient(p, counts); err != nil {
		return nil, err
	}
	if err := it.EvaluateConstraintJacobian(p, counts); err != nil {
		return nil, err
	}
	grad := it.LagrangianGradient
	for i := range grad {
		grad[i] = 0
	}
	if objectiveMultiplier != 0 {
		it.ObjectiveGradient.AddToDense(grad, objectiveMultiplier)
	}
	for j := 0; j < p.M; j++ {
		if lambda := multipliers.Constraints[j]; lambda != 0 {
			it.ConstraintJacobian.Row(j).AddToDense(grad, -lambda)
		}
	}
	for i := range grad {
		grad[i] -= multipliers.LowerBounds[i] + multipliers.UpperBounds[i]
	}
	return grad, nil
}
