// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqp

import (
	"math"

	"github.com/curioloop/sqpkit/nlp"
)

// trustRegion bounds each step by a displacement box of radius Δ.
// A rejected direction shrinks the radius below the direction norm; a
// numerical error shrinks it outright; acceptance at the box boundary
// expands it.
type trustRegion struct {
	relaxation ConstraintRelaxation

	radius            float64
	increaseFactor    float64
	decreaseFactor    float64
	minRadius         float64
	activityTolerance float64
}

func (tr *trustRegion) Initialize(stats *Statistics, p *nlp.Problem, first *nlp.Iterate) error {
	stats.AddColumn("radius", 12)
	stats.AddColumn("inner", 7)
	return tr.relaxation.Initialize(stats, p, first)
}

// rectifyActiveSet removes the bound activities caused by the trust
// region itself: where |dᵢ| reaches the radius the real bound is not
// active, so the index leaves the active set and the trial bound
// multiplier is zeroed.
func rectifyActiveSet(d *Direction, current *nlp.Iterate, radius, tol float64) {
	if radius <= 0 {
		panic("trust region: nonpositive radius")
	}
	keepLower := d.ActiveSet.AtLowerBound[:0]
	for _, i := range d.ActiveSet.AtLowerBound {
		if math.Abs(d.X[i]+radius) <= tol {
			d.Multipliers.LowerBounds[i] = -current.Multipliers.LowerBounds[i]
			continue
		}
		keepLower = append(keepLower, i)
	}
	d.ActiveSet.AtLowerBound = keepLower
	keepUpper := d.ActiveSet.AtUpperBound[:0]
	for _, i := range d.ActiveSet.AtUpperBound {
		if math.Abs(d.X[i]-radius) <= tol {
			d.Multipliers.UpperBounds[i] = -current.Multipliers.UpperBounds[i]
			continue
		}
		keepUpper = append(keepUpper, i)
	}
	d.ActiveSet.AtUpperBound = keepUpper
}

func (tr *trustRegion) ComputeAcceptableIterate(stats *Statistics, p *nlp.Problem, current *nlp.Iterate) (*nlp.Iterate, float64, error) {
	inner := 0
	for tr.radius >= tr.minRadius {
		inner++

		shrink := func(factor float64) {
			tr.radius /= factor
		}

		if err := tr.relaxation.CreateCurrentSubproblem(stats, p, current, tr.radius); err != nil {
			if !IsNumerical(err) {
				return nil, 0, err
			}
			shrink(tr.decreaseFactor)
			continue
		}
		d, err := tr.relaxation.ComputeFeasibleDirection(stats, p, current)
		if err != nil {
			if !IsNumerical(err) {
				return nil, 0, err
			}
			shrink(tr.decreaseFactor)
			continue
		}
		rectifyActiveSet(d, current, tr.radius, tr.activityTolerance)

		trial, err := assembleTrialIterate(p, stats, current, d, 1)
		if err != nil {
			if !IsNumerical(err) {
				return nil, 0, err
			}
			shrink(tr.decreaseFactor)
			continue
		}

		model := tr.relaxation.GeneratePredictedReductionModel(d)
		accept, err := tr.relaxation.IsAcceptable(stats, p, current, trial, d, model, 1)
		if err != nil {
			if !IsNumerical(err) {
				return nil, 0, err
			}
			shrink(tr.decreaseFactor)
			continue
		}
		if accept {
			stats.Set("radius", tr.radius)
			stats.Set("inner", inner)
			if d.Norm >= tr.radius-tr.activityTolerance {
				tr.radius *= tr.increaseFactor
			}
			if err := tr.relaxation.RegisterAcceptedIterate(p, stats, trial); err != nil {
				return nil, 0, err
			}
			return trial, d.Norm, nil
		}
		// A rejected direction bounds the next radius.
		tr.radius = math.Min(tr.radius, d.Norm) / tr.decreaseFactor
	}
	return nil, 0, ErrTrustRegionTooSmall
}
