// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqp

import (
	"github.com/pkg/errors"

	"github.com/curioloop/sqpkit/nlp"
)

// ConstraintRelaxation copes with infeasible linearizations: it owns
// the subproblem, decides how to relax its constraints (ℓ1 penalty or
// two-phase restoration) and applies the acceptance test through its
// globalization strategy.
type ConstraintRelaxation interface {
	// Initialize computes the measures of the first iterate and
	// prepares the strategies.
	Initialize(stats *Statistics, p *nlp.Problem, first *nlp.Iterate) error
	// CreateCurrentSubproblem builds the local model at the iterate
	// with the given trust-region radius (+∞ without a trust region).
	CreateCurrentSubproblem(stats *Statistics, p *nlp.Problem, it *nlp.Iterate, radius float64) error
	// ComputeFeasibleDirection solves the subproblem, relaxing the
	// constraints when the linearization is inconsistent. Elastic
	// variables never appear in the returned direction.
	ComputeFeasibleDirection(stats *Statistics, p *nlp.Problem, it *nlp.Iterate) (*Direction, error)
	// ComputeSecondOrderCorrection resolves the subproblem with the
	// constraint bounds taken at the trial iterate.
	ComputeSecondOrderCorrection(stats *Statistics, p *nlp.Problem, trial *nlp.Iterate) (*Direction, error)
	// GeneratePredictedReductionModel forwards to the subproblem.
	GeneratePredictedReductionModel(d *Direction) *PredictedReductionModel
	// IsAcceptable applies the acceptance test to the trial iterate
	// and, on success, refreshes its residuals.
	IsAcceptable(stats *Statistics, p *nlp.Problem, current, trial *nlp.Iterate, d *Direction, model *PredictedReductionModel, stepLength float64) (bool, error)
	// RegisterAcceptedIterate lets the subproblem models observe the
	// accepted step.
	RegisterAcceptedIterate(p *nlp.Problem, stats *Statistics, it *nlp.Iterate) error
}

// NewConstraintRelaxation dispatches on the constraint-relaxation
// option value.
func NewConstraintRelaxation(name string, p *nlp.Problem, opts Options) (ConstraintRelaxation, error) {
	subproblem, err := NewSubproblem(opts["subproblem"], p, opts)
	if err != nil {
		return nil, err
	}
	norm, err := nlp.ParseNorm(opts["residual_norm"])
	if err != nil {
		return nil, err
	}
	base := relaxationBase{subproblem: subproblem, residualNorm: norm}
	switch name {
	case "l1-relaxation":
		strategy, err := NewGlobalizationStrategy(opts["strategy"], opts)
		if err != nil {
			return nil, err
		}
		return &l1Relaxation{
			relaxationBase:   base,
			strategy:         strategy,
			penaltyParameter: opts.Float("l1_relaxation_initial_parameter"),
			decreaseFactor:   opts.Float("l1_relaxation_decrease_factor"),
			epsilon1:         opts.Float("l1_relaxation_epsilon1"),
			epsilon2:         opts.Float("l1_relaxation_epsilon2"),
			penaltyThreshold: opts.Float("l1_relaxation_penalty_threshold"),
		}, nil
	case "feasibility-restoration":
		phase1, err := NewGlobalizationStrategy(opts["strategy"], opts)
		if err != nil {
			return nil, err
		}
		phase2, err := NewGlobalizationStrategy(opts["strategy"], opts)
		if err != nil {
			return nil, err
		}
		return &feasibilityRestoration{
			relaxationBase:      base,
			phase1:              phase1,
			phase2:              phase2,
			phase:               optimalityPhase,
			useProximal:         opts.Bool("use_proximal_term"),
			proximalCoefficient: opts.Float("proximal_coefficient"),
		}, nil
	}
	return nil, errors.Errorf("unknown constraint relaxation %q", name)
}

// smallStepNorm is the step size below which a direction is accepted
// without a strategy test: the subproblem cannot move anymore.
const smallStepNorm = 1e-12

type relaxationBase struct {
	subproblem   Subproblem
	residualNorm nlp.Norm
}

func (b *relaxationBase) GeneratePredictedReductionModel(d *Direction) *PredictedReductionModel {
	return b.subproblem.GeneratePredictedReductionModel(d)
}

func (b *relaxationBase) RegisterAcceptedIterate(p *nlp.Problem, stats *Statistics, it *nlp.Iterate) error {
	return b.subproblem.RegisterAcceptedIterate(p, stats, it)
}

// progressMeasures evaluates the standard progress measures of an
// iterate, converting evaluation failures into numerical errors.
func (b *relaxationBase) progressMeasures(p *nlp.Problem, stats *Statistics, it *nlp.Iterate) error {
	if err := nlp.ComputeProgressMeasures(p, it, &stats.Evals); err != nil {
		return numerical("progress measures", err)
	}
	return nil
}

// residuals refreshes the optimality residuals of an iterate.
func (b *relaxationBase) residuals(p *nlp.Problem, stats *Statistics, it *nlp.Iterate, objectiveMultiplier float64) error {
	if err := nlp.ComputeResiduals(p, it, &stats.Evals, objectiveMultiplier, b.residualNorm); err != nil {
		return numerical("residuals", err)
	}
	return nil
}
