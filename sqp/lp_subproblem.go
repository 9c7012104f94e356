// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqp

import (
	"github.com/pkg/errors"

	"github.com/curioloop/sqpkit/nlp"
	"github.com/curioloop/sqpkit/qp"
)

// LPSubproblem models the nonlinear program by a linear program: the
// Hessian is left empty and the model is 𝛔𝜵𝒇ᵀ𝐝 over the linearized
// constraints. Useful with a trust region, which bounds the step.
type LPSubproblem struct {
	subproblemBase
	solver qp.Solver
}

// Build implements the Subproblem interface.
func (sp *LPSubproblem) Build(p *nlp.Problem, stats *Statistics, it *nlp.Iterate, objectiveMultiplier, radius float64, _ []float64) error {
	return sp.buildCommon(p, stats, it, objectiveMultiplier, radius)
}

// RebuildObjective refreshes the gradient for a new σ.
func (sp *LPSubproblem) RebuildObjective(p *nlp.Problem, stats *Statistics, it *nlp.Iterate, objectiveMultiplier float64, _ []float64) error {
	if sp.elastics != nil {
		panic("subproblem: objective rebuilt while elastic variables are present")
	}
	sp.buildGradient(it, objectiveMultiplier)
	return nil
}

// Solve invokes the external LP solver.
func (sp *LPSubproblem) Solve(stats *Statistics, p *nlp.Problem, it *nlp.Iterate) (*Direction, error) {
	sol, err := sp.solver.Solve(sp.variableBounds, sp.constraintBounds,
		sp.objectiveGradient, sp.jacobian, nil, sp.initialPoint)
	stats.SubproblemSolves++
	if err != nil {
		return nil, numerical("LP solve", err)
	}
	switch sol.Status {
	case qp.Unbounded:
		return nil, numerical("LP solve", errors.New("subproblem is unbounded"))
	case qp.Failed:
		return nil, numerical("LP solve", errors.New("solver breakdown"))
	}
	return sp.directionFromSolution(sol, it), nil
}

// GeneratePredictedReductionModel returns the lazy linear model
// -α𝜵𝒇ᵀ𝐝.
func (sp *LPSubproblem) GeneratePredictedReductionModel(d *Direction) *PredictedReductionModel {
	return NewPredictedReductionModel(-d.Objective, func() (linear, quadratic float64) {
		return sp.objectiveGradient.Dot(d.X), 0
	})
}

// AddProximalTerm is a no-op: the linear model carries no curvature.
func (sp *LPSubproblem) AddProximalTerm(float64, []float64) {}

// RegisterAcceptedIterate is a no-op for the linear model.
func (sp *LPSubproblem) RegisterAcceptedIterate(*nlp.Problem, *Statistics, *nlp.Iterate) error {
	return nil
}
