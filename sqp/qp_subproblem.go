// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqp

import (
	"math"

	"github.com/pkg/errors"

	"github.com/curioloop/sqpkit/nlp"
	"github.com/curioloop/sqpkit/qp"
)

// QPSubproblem models the nonlinear program by a quadratic program
//
//	min 𝛔𝜵𝒇ᵀ𝐝 + ½𝐝ᵀ𝐇𝐝 subject to the linearized constraints
//
// with 𝐇 produced by the configured Hessian model.
type QPSubproblem struct {
	subproblemBase
	hessianModel HessianModel
	solver       qp.Solver
}

// Build implements the Subproblem interface.
func (sp *QPSubproblem) Build(p *nlp.Problem, stats *Statistics, it *nlp.Iterate, objectiveMultiplier, radius float64, multipliers []float64) error {
	if err := sp.hessianModel.Evaluate(p, stats, it.X, objectiveMultiplier, multipliers); err != nil {
		return err
	}
	return sp.buildCommon(p, stats, it, objectiveMultiplier, radius)
}

// RebuildObjective refreshes gradient and Hessian for a new σ.
// Constraint rows and bounds stay as built.
func (sp *QPSubproblem) RebuildObjective(p *nlp.Problem, stats *Statistics, it *nlp.Iterate, objectiveMultiplier float64, multipliers []float64) error {
	if sp.elastics != nil {
		panic("subproblem: objective rebuilt while elastic variables are present")
	}
	if err := sp.hessianModel.Evaluate(p, stats, it.X, objectiveMultiplier, multipliers); err != nil {
		return err
	}
	sp.buildGradient(it, objectiveMultiplier)
	return nil
}

// Solve invokes the external QP solver.
func (sp *QPSubproblem) Solve(stats *Statistics, p *nlp.Problem, it *nlp.Iterate) (*Direction, error) {
	sol, err := sp.solver.Solve(sp.variableBounds, sp.constraintBounds,
		sp.objectiveGradient, sp.jacobian, sp.hessianModel.Hessian(), sp.initialPoint)
	stats.SubproblemSolves++
	if err != nil {
		return nil, numerical("QP solve", err)
	}
	switch sol.Status {
	case qp.Unbounded:
		return nil, numerical("QP solve", errors.New("subproblem is unbounded"))
	case qp.Failed:
		return nil, numerical("QP solve", errors.New("solver breakdown"))
	}
	return sp.directionFromSolution(sol, it), nil
}

// GeneratePredictedReductionModel returns the lazy quadratic model
// -α𝜵𝒇ᵀ𝐝 - ½α²𝐝ᵀ𝐇𝐝.
func (sp *QPSubproblem) GeneratePredictedReductionModel(d *Direction) *PredictedReductionModel {
	return NewPredictedReductionModel(-d.Objective, func() (linear, quadratic float64) {
		linear = sp.objectiveGradient.Dot(d.X)
		quadratic = sp.hessianModel.Hessian().QuadraticProduct(d.X, d.X) / 2
		return linear, quadratic
	})
}

// AddProximalTerm adds the diagonal c·min(1, 1/|xᵢ|)² to the Hessian.
// A zero component contributes the full weight c.
func (sp *QPSubproblem) AddProximalTerm(coefficient float64, x []float64) {
	if coefficient == 0 {
		return
	}
	hessian := sp.hessianModel.Hessian()
	for i := 0; i < sp.n; i++ {
		weight := 1.0
		if x[i] != 0 {
			weight = math.Min(1, 1/math.Abs(x[i]))
		}
		hessian.Insert(i, i, coefficient*weight*weight)
	}
}

// RegisterAcceptedIterate forwards the accepted step to the Hessian
// model.
func (sp *QPSubproblem) RegisterAcceptedIterate(p *nlp.Problem, stats *Statistics, it *nlp.Iterate) error {
	return sp.hessianModel.RegisterAcceptedIterate(p, stats, it)
}
