// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqp

import (
	"github.com/pkg/errors"

	"github.com/curioloop/sqpkit/nlp"
)

// GlobalizationMechanism drives the relaxation strategy until an
// acceptable trial iterate is produced: the trust region shrinks its
// radius, the line search backtracks its step length.
type GlobalizationMechanism interface {
	Initialize(stats *Statistics, p *nlp.Problem, first *nlp.Iterate) error
	// ComputeAcceptableIterate returns the accepted trial iterate and
	// the norm of the accepted step.
	ComputeAcceptableIterate(stats *Statistics, p *nlp.Problem, current *nlp.Iterate) (*nlp.Iterate, float64, error)
}

// NewMechanism dispatches on the mechanism option value.
func NewMechanism(name string, relaxation ConstraintRelaxation, opts Options) (GlobalizationMechanism, error) {
	switch name {
	case "TR":
		return &trustRegion{
			relaxation:        relaxation,
			radius:            opts.Float("TR_radius"),
			increaseFactor:    opts.Float("TR_increase_factor"),
			decreaseFactor:    opts.Float("TR_decrease_factor"),
			minRadius:         opts.Float("TR_min_radius"),
			activityTolerance: opts.Float("TR_activity_tolerance"),
		}, nil
	case "LS":
		return &lineSearch{
			relaxation:        relaxation,
			backtrackingRatio: opts.Float("LS_backtracking_ratio"),
			maxIterations:     opts.Int("LS_max_iterations"),
			minStepLength:     opts.Float("LS_min_step_length"),
			useSOC:            opts.Bool("use_second_order_correction"),
		}, nil
	}
	return nil, errors.Errorf("unknown globalization mechanism %q", name)
}

// assembleTrialIterate forms current + α·d, projects the primals into
// the variable bounds and evaluates objective and constraints.
func assembleTrialIterate(p *nlp.Problem, stats *Statistics, current *nlp.Iterate, d *Direction, stepLength float64) (*nlp.Iterate, error) {
	trial := nlp.NewIterate(p.N, p.M)
	for i := range trial.X {
		trial.X[i] = current.X[i] + stepLength*d.X[i]
	}
	p.ProjectInBounds(trial.X)
	copy(trial.Multipliers.Constraints, current.Multipliers.Constraints)
	copy(trial.Multipliers.LowerBounds, current.Multipliers.LowerBounds)
	copy(trial.Multipliers.UpperBounds, current.Multipliers.UpperBounds)
	trial.Multipliers.AddScaled(d.Multipliers, stepLength)

	if err := trial.EvaluateObjective(p, &stats.Evals); err != nil {
		return nil, numerical("objective evaluation", err)
	}
	if err := trial.EvaluateConstraints(p, &stats.Evals); err != nil {
		return nil, numerical("constraint evaluation", err)
	}
	return trial, nil
}
