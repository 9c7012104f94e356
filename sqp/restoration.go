// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqp

import (
	"github.com/pkg/errors"

	"github.com/curioloop/sqpkit/nlp"
	"github.com/curioloop/sqpkit/qp"
)

type phase int

const (
	optimalityPhase phase = iota
	restorationPhase
)

// feasibilityRestoration is the two-phase relaxation: phase 2 solves
// the optimality subproblem, and when its linearization turns out
// inconsistent, phase 1 minimizes the constraint violation instead.
// Each phase owns its globalization strategy.
type feasibilityRestoration struct {
	relaxationBase
	phase1 GlobalizationStrategy
	phase2 GlobalizationStrategy
	phase  phase

	useProximal         bool
	proximalCoefficient float64
}

func (r *feasibilityRestoration) Initialize(stats *Statistics, p *nlp.Problem, first *nlp.Iterate) error {
	stats.AddColumn("phase", 7)
	if err := r.progressMeasures(p, stats, first); err != nil {
		return err
	}
	if err := r.residuals(p, stats, first, 1); err != nil {
		return err
	}
	r.phase1.Initialize(stats, first)
	r.phase2.Initialize(stats, first)
	return nil
}

func (r *feasibilityRestoration) CreateCurrentSubproblem(stats *Statistics, p *nlp.Problem, it *nlp.Iterate, radius float64) error {
	return r.subproblem.Build(p, stats, it, 1, radius, it.Multipliers.Constraints)
}

func (r *feasibilityRestoration) ComputeFeasibleDirection(stats *Statistics, p *nlp.Problem, it *nlp.Iterate) (*Direction, error) {
	d, err := r.subproblem.Solve(stats, p, it)
	if err != nil {
		return nil, err
	}
	d.ObjectiveMultiplier = 1
	if d.Status == qp.Infeasible {
		// The optimality subproblem is inconsistent: minimize the
		// constraint violation instead, warm-started from the
		// minimal-violation point of the failed solve.
		d, err = r.solveFeasibilityProblem(stats, p, it, d.X, d.ConstraintPartition)
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

// setRestorationMultipliers installs the ±1 multipliers derived from
// the KKT conditions of the feasibility problem.
func setRestorationMultipliers(constraintMultipliers []float64, cp *nlp.ConstraintPartition) {
	for _, j := range cp.LowerBoundInfeasible {
		constraintMultipliers[j] = 1
	}
	for _, j := range cp.UpperBoundInfeasible {
		constraintMultipliers[j] = -1
	}
}

// solveFeasibilityProblem forms and solves the restoration
// subproblem, either from the constraint partition reported by the
// solver, or with elastic variables when no partition is available.
func (r *feasibilityRestoration) solveFeasibilityProblem(stats *Statistics, p *nlp.Problem, it *nlp.Iterate, phase2Primal []float64, cp *nlp.ConstraintPartition) (*Direction, error) {
	if cp.HasInfeasible() {
		patched := make([]float64, p.M)
		copy(patched, it.Multipliers.Constraints)
		setRestorationMultipliers(patched, cp)

		if err := r.subproblem.RebuildObjective(p, stats, it, 0, patched); err != nil {
			return nil, err
		}
		if r.useProximal {
			r.subproblem.AddProximalTerm(r.proximalCoefficient, it.X)
		}
		r.subproblem.BuildFeasibilityObjective(cp)
		r.subproblem.BuildFeasibilityBounds(p, it.Constraints, cp)
		if phase2Primal != nil {
			r.subproblem.SetInitialPoint(phase2Primal)
		}

		d, err := r.subproblem.Solve(stats, p, it)
		if err != nil {
			return nil, err
		}
		if d.Status == qp.Infeasible {
			return nil, numerical("feasibility restoration", errors.New("restoration subproblem reported infeasible"))
		}
		d.ObjectiveMultiplier = 0
		d.ConstraintPartition = cp
		return d, nil
	}

	// No partition: relax every constraint with elastics.
	if err := r.subproblem.RebuildObjective(p, stats, it, 0, make([]float64, p.M)); err != nil {
		return nil, err
	}
	if r.useProximal {
		r.subproblem.AddProximalTerm(r.proximalCoefficient, it.X)
	}
	r.subproblem.AddElasticVariables()
	defer r.subproblem.RemoveElasticVariables()
	if phase2Primal != nil {
		r.subproblem.SetInitialPoint(phase2Primal)
	}
	d, err := r.subproblem.Solve(stats, p, it)
	if err != nil {
		return nil, err
	}
	if d.Status == qp.Infeasible {
		return nil, numerical("feasibility restoration", errors.New("elastic restoration subproblem reported infeasible"))
	}
	r.subproblem.TrimDirection(d)
	d.ObjectiveMultiplier = 0
	return d, nil
}

func (r *feasibilityRestoration) ComputeSecondOrderCorrection(stats *Statistics, p *nlp.Problem, trial *nlp.Iterate) (*Direction, error) {
	if err := trial.EvaluateConstraints(p, &stats.Evals); err != nil {
		return nil, numerical("constraint evaluation", err)
	}
	r.subproblem.SetLinearizedBounds(p, trial.Constraints)
	d, err := r.subproblem.Solve(stats, p, trial)
	if err != nil {
		return nil, err
	}
	if d.Status == qp.Infeasible {
		return nil, numerical("second-order correction", errors.New("corrected subproblem reported infeasible"))
	}
	d.ObjectiveMultiplier = 1
	return d, nil
}

// computeInfeasibilityMeasures sets the restoration-phase progress:
// feasibility is the violation of all constraints, the objective
// measure the violation of the linearly infeasible ones.
func (r *feasibilityRestoration) computeInfeasibilityMeasures(p *nlp.Problem, stats *Statistics, it *nlp.Iterate, cp *nlp.ConstraintPartition) error {
	if err := it.EvaluateConstraints(p, &stats.Evals); err != nil {
		return numerical("constraint evaluation", err)
	}
	if cp.HasInfeasible() {
		feasibility := p.ConstraintViolation(it.Constraints, r.residualNorm)
		objective := r.residualNorm.OfFunc(len(cp.Infeasible), func(k int) float64 {
			j := cp.Infeasible[k]
			return p.ComponentViolation(it.Constraints[j], j)
		})
		it.Progress = nlp.Progress{Feasibility: feasibility, Objective: objective}
		return nil
	}
	// Without a partition the restoration objective is the total
	// violation itself, which equals the elastic sum at the solution.
	if err := r.progressMeasures(p, stats, it); err != nil {
		return err
	}
	it.Progress.Objective = it.Progress.Feasibility
	return nil
}

// addProximalToProgress augments the trial objective measure with the
// weighted squared distance to the current iterate.
func (r *feasibilityRestoration) addProximalToProgress(current, trial *nlp.Iterate) {
	total := 0.0
	for i := range current.X {
		weight := 1.0
		if current.X[i] != 0 {
			if w := 1 / abs(current.X[i]); w < 1 {
				weight = w
			}
		}
		dx := weight * (trial.X[i] - current.X[i])
		total += dx * dx
	}
	trial.Progress.Objective += r.proximalCoefficient * total
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// switchPhase applies the phase transition rules and evaluates the
// trial progress measures for the resulting phase.
func (r *feasibilityRestoration) switchPhase(stats *Statistics, p *nlp.Problem, current, trial *nlp.Iterate, d *Direction) (GlobalizationStrategy, error) {
	if r.phase == restorationPhase && d.ObjectiveMultiplier > 0 {
		r.phase = optimalityPhase
		if err := r.progressMeasures(p, stats, current); err != nil {
			return nil, err
		}
	} else if r.phase == optimalityPhase && d.ObjectiveMultiplier == 0 {
		r.phase = restorationPhase
		r.phase2.Notify(current)
		r.phase1.Reset()
		if err := r.computeInfeasibilityMeasures(p, stats, current, d.ConstraintPartition); err != nil {
			return nil, err
		}
		r.phase1.Notify(current)
	}

	if r.phase == optimalityPhase {
		if err := r.progressMeasures(p, stats, trial); err != nil {
			return nil, err
		}
		return r.phase2, nil
	}
	if err := r.computeInfeasibilityMeasures(p, stats, trial, d.ConstraintPartition); err != nil {
		return nil, err
	}
	if r.useProximal {
		r.addProximalToProgress(current, trial)
	}
	return r.phase1, nil
}

func (r *feasibilityRestoration) IsAcceptable(stats *Statistics, p *nlp.Problem, current, trial *nlp.Iterate, d *Direction, model *PredictedReductionModel, stepLength float64) (bool, error) {
	accept := false
	if d.Norm <= smallStepNorm {
		if err := r.progressMeasures(p, stats, trial); err != nil {
			return false, err
		}
		accept = true
	} else {
		strategy, err := r.switchPhase(stats, p, current, trial, d)
		if err != nil {
			return false, err
		}
		predicted := model.Evaluate(stepLength)
		accept = strategy.CheckAcceptance(stats, current.Progress, trial.Progress, d.ObjectiveMultiplier, predicted)
	}
	if accept {
		if r.phase == optimalityPhase {
			stats.Set("phase", 2)
		} else {
			stats.Set("phase", 1)
		}
		if d.ObjectiveMultiplier == 0 && d.ConstraintPartition.HasInfeasible() {
			setRestorationMultipliers(trial.Multipliers.Constraints, d.ConstraintPartition)
		}
		if err := r.residuals(p, stats, trial, d.ObjectiveMultiplier); err != nil {
			return false, err
		}
	}
	return accept, nil
}
