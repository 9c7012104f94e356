// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqp

import (
	"math"

	"github.com/curioloop/sqpkit/nlp"
)

// lineSearch backtracks along one fixed direction: the step length
// starts at 1 and is multiplied by the backtracking ratio until the
// trial is accepted. An optional second-order correction is tried
// once after the first rejected full step.
type lineSearch struct {
	relaxation ConstraintRelaxation

	backtrackingRatio float64
	maxIterations     int
	minStepLength     float64
	useSOC            bool
}

func (ls *lineSearch) Initialize(stats *Statistics, p *nlp.Problem, first *nlp.Iterate) error {
	stats.AddColumn("alpha", 12)
	stats.AddColumn("inner", 7)
	return ls.relaxation.Initialize(stats, p, first)
}

func (ls *lineSearch) ComputeAcceptableIterate(stats *Statistics, p *nlp.Problem, current *nlp.Iterate) (*nlp.Iterate, float64, error) {
	if err := ls.relaxation.CreateCurrentSubproblem(stats, p, current, math.Inf(1)); err != nil {
		return nil, 0, err
	}
	d, err := ls.relaxation.ComputeFeasibleDirection(stats, p, current)
	if err != nil {
		return nil, 0, err
	}
	model := ls.relaxation.GeneratePredictedReductionModel(d)

	alpha := 1.0
	socTried := false
	for inner := 1; inner <= ls.maxIterations && alpha >= ls.minStepLength; inner++ {
		trial, err := assembleTrialIterate(p, stats, current, d, alpha)
		if err != nil {
			if !IsNumerical(err) {
				return nil, 0, err
			}
			alpha *= ls.backtrackingRatio
			continue
		}
		accept, err := ls.relaxation.IsAcceptable(stats, p, current, trial, d, model, alpha)
		if err != nil {
			if !IsNumerical(err) {
				return nil, 0, err
			}
			alpha *= ls.backtrackingRatio
			continue
		}
		if accept {
			stats.Set("alpha", alpha)
			stats.Set("inner", inner)
			if err := ls.relaxation.RegisterAcceptedIterate(p, stats, trial); err != nil {
				return nil, 0, err
			}
			return trial, alpha * d.Norm, nil
		}

		if ls.useSOC && !socTried && alpha == 1 {
			socTried = true
			if accepted, stepNorm, ok := ls.trySecondOrderCorrection(stats, p, current, trial); ok {
				stats.Set("alpha", 1.0)
				stats.Set("inner", inner)
				return accepted, stepNorm, nil
			}
		}
		alpha *= ls.backtrackingRatio
	}
	return nil, 0, ErrLineSearchFailed
}

// trySecondOrderCorrection resolves the subproblem with the
// constraint bounds shifted to the rejected trial and tests the
// corrected full step once.
func (ls *lineSearch) trySecondOrderCorrection(stats *Statistics, p *nlp.Problem, current, trial *nlp.Iterate) (*nlp.Iterate, float64, bool) {
	soc, err := ls.relaxation.ComputeSecondOrderCorrection(stats, p, trial)
	if err != nil || soc == nil {
		return nil, 0, false
	}
	socModel := ls.relaxation.GeneratePredictedReductionModel(soc)
	socTrial, err := assembleTrialIterate(p, stats, current, soc, 1)
	if err != nil {
		return nil, 0, false
	}
	accept, err := ls.relaxation.IsAcceptable(stats, p, current, socTrial, soc, socModel, 1)
	if err != nil || !accept {
		return nil, 0, false
	}
	if err := ls.relaxation.RegisterAcceptedIterate(p, stats, socTrial); err != nil {
		return nil, 0, false
	}
	return socTrial, soc.Norm, true
}
