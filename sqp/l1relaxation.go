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

// l1Relaxation solves the penalty problem
//
//	min 𝛔𝒇(𝐱) + ‖𝒄violation(𝐱)‖₁
//
// where the ℓ1 term is carried by elastic variables in the
// subproblem. The penalty parameter 𝛔 is steered with Byrd's rules:
// whenever the linearization had to be relaxed, 𝛔 is decreased until
// the step achieves a fraction of the best possible linear
// feasibility gain (C1) and of the best possible model decrease (C2).
type l1Relaxation struct {
	relaxationBase
	strategy GlobalizationStrategy

	penaltyParameter float64
	decreaseFactor   float64
	epsilon1         float64
	epsilon2         float64
	penaltyThreshold float64
}

func (r *l1Relaxation) Initialize(stats *Statistics, p *nlp.Problem, first *nlp.Iterate) error {
	stats.AddColumn("penalty", 12)
	if err := r.progressMeasures(p, stats, first); err != nil {
		return err
	}
	if err := r.residuals(p, stats, first, r.penaltyParameter); err != nil {
		return err
	}
	r.strategy.Initialize(stats, first)
	return nil
}

// seedMultipliers derives the constraint multipliers of the violated
// constraints from the KKT conditions of the ℓ1 problem: +1 below the
// lower bound, -1 above the upper bound.
func (r *l1Relaxation) seedMultipliers(p *nlp.Problem, it *nlp.Iterate) []float64 {
	seeded := make([]float64, p.M)
	copy(seeded, it.Multipliers.Constraints)
	for j, b := range p.ConstraintBounds {
		switch {
		case it.Constraints[j] < b.Lower:
			seeded[j] = 1
		case it.Constraints[j] > b.Upper:
			seeded[j] = -1
		}
	}
	return seeded
}

func (r *l1Relaxation) CreateCurrentSubproblem(stats *Statistics, p *nlp.Problem, it *nlp.Iterate, radius float64) error {
	if err := it.EvaluateConstraints(p, &stats.Evals); err != nil {
		return numerical("constraint evaluation", err)
	}
	return r.subproblem.Build(p, stats, it, r.penaltyParameter, radius, r.seedMultipliers(p, it))
}

// solveRelaxedSubproblem adds the elastics, solves, measures the
// linearized residual and strips the elastics again.
func (r *l1Relaxation) solveRelaxedSubproblem(stats *Statistics, p *nlp.Problem, it *nlp.Iterate, objectiveMultiplier float64) (*Direction, float64, error) {
	ev := r.subproblem.AddElasticVariables()
	defer r.subproblem.RemoveElasticVariables()

	d, err := r.subproblem.Solve(stats, p, it)
	if err != nil {
		return nil, 0, err
	}
	if d.Status == qp.Infeasible {
		return nil, 0, numerical("l1 relaxation", errors.New("elastic subproblem reported infeasible"))
	}
	residual := ev.linearizedResidual(d.X)
	if residual < 1e-11 {
		// Roundoff in elastics at their zero bound.
		residual = 0
	}
	r.subproblem.TrimDirection(d)
	d.ObjectiveMultiplier = objectiveMultiplier
	return d, residual, nil
}

// resolveSubproblem rebuilds the objective for a new σ and solves the
// relaxed subproblem again.
func (r *l1Relaxation) resolveSubproblem(stats *Statistics, p *nlp.Problem, it *nlp.Iterate, objectiveMultiplier float64) (*Direction, float64, error) {
	if err := r.subproblem.RebuildObjective(p, stats, it, objectiveMultiplier, r.seedMultipliers(p, it)); err != nil {
		return nil, 0, err
	}
	return r.solveRelaxedSubproblem(stats, p, it, objectiveMultiplier)
}

func (r *l1Relaxation) ComputeFeasibleDirection(stats *Statistics, p *nlp.Problem, it *nlp.Iterate) (*Direction, error) {
	d, err := r.solveWithSteeringRule(stats, p, it)
	if err != nil {
		return nil, err
	}
	stats.Set("penalty", r.penaltyParameter)
	return d, nil
}

// solveWithSteeringRule updates the penalty parameter with Byrd's
// steering rules while computing the direction. σ never increases
// within one invocation.
func (r *l1Relaxation) solveWithSteeringRule(stats *Statistics, p *nlp.Problem, it *nlp.Iterate) (*Direction, error) {
	d, residual, err := r.solveRelaxedSubproblem(stats, p, it, r.penaltyParameter)
	if err != nil {
		return nil, err
	}
	if r.penaltyParameter == 0 || residual == 0 {
		return d, nil
	}

	currentPenalty := r.penaltyParameter
	violation := p.ConstraintViolation(it.Constraints, nlp.NormL1)

	// Lowest possible linearized violation: solve with σ = 0.
	ideal, idealResidual, err := r.resolveSubproblem(stats, p, it, 0)
	if err != nil {
		return nil, err
	}

	// Nothing improves when even the pure feasibility step keeps the
	// full linearized violation.
	if !(violation > 0 && nearlyEqual(idealResidual, violation)) {
		idealError, err := r.computeError(stats, p, it, ideal.Multipliers, 0)
		if err != nil {
			return nil, err
		}
		if idealError == 0 {
			r.penaltyParameter = 0
			d, residual = ideal, idealResidual
		} else {
			term := idealError / math.Max(1, violation)
			r.penaltyParameter = math.Min(r.penaltyParameter, term*term)
			if r.penaltyParameter < currentPenalty {
				if r.penaltyParameter == 0 {
					d, residual = ideal, idealResidual
				} else if d, residual, err = r.resolveSubproblem(stats, p, it, r.penaltyParameter); err != nil {
					return nil, err
				}
			}

			// Decrease σ until the step reaches a fraction of the
			// ideal linear decrease (C1) and of the ideal predicted
			// merit decrease (C2).
			condition1, condition2 := false, false
			for !condition2 {
				if !condition1 {
					if (idealResidual == 0 && residual == 0) ||
						(idealResidual != 0 && violation-residual >= r.epsilon1*(violation-idealResidual)) {
						condition1 = true
					}
				}
				if condition1 && violation-d.Objective >= r.epsilon2*(violation-ideal.Objective) {
					condition2 = true
				}
				if !condition2 {
					r.penaltyParameter /= r.decreaseFactor
					if r.penaltyParameter < r.penaltyThreshold {
						r.penaltyParameter = 0
						d, residual = ideal, idealResidual
						condition2 = true
					} else if d, residual, err = r.resolveSubproblem(stats, p, it, r.penaltyParameter); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	if r.penaltyParameter < currentPenalty {
		r.strategy.Reset()
	}
	d.ObjectiveMultiplier = r.penaltyParameter
	return d, nil
}

// nearlyEqual compares steering quantities up to roundoff.
func nearlyEqual(a, b float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= 1e-10*scale
}

// computeError is the ideal error measure of Byrd's rules: the
// complementarity error plus the ℓ1 norm of the Lagrangian gradient,
// both with the combined multipliers of the candidate direction.
func (r *l1Relaxation) computeError(stats *Statistics, p *nlp.Problem, it *nlp.Iterate, displacements nlp.Multipliers, objectiveMultiplier float64) (float64, error) {
	combined := nlp.NewMultipliers(p.N, p.M)
	for i := range combined.LowerBounds {
		combined.LowerBounds[i] = it.Multipliers.LowerBounds[i] + displacements.LowerBounds[i]
		combined.UpperBounds[i] = it.Multipliers.UpperBounds[i] + displacements.UpperBounds[i]
	}
	for j := range combined.Constraints {
		combined.Constraints[j] = it.Multipliers.Constraints[j] + displacements.Constraints[j]
	}
	errValue := nlp.ComplementarityError(p, it, combined, nlp.NormL1)
	grad, err := it.EvaluateLagrangianGradient(p, &stats.Evals, objectiveMultiplier, combined)
	if err != nil {
		return 0, numerical("lagrangian gradient", err)
	}
	return errValue + nlp.NormL1.Of(grad), nil
}

func (r *l1Relaxation) ComputeSecondOrderCorrection(stats *Statistics, p *nlp.Problem, trial *nlp.Iterate) (*Direction, error) {
	if err := trial.EvaluateConstraints(p, &stats.Evals); err != nil {
		return nil, numerical("constraint evaluation", err)
	}
	r.subproblem.SetLinearizedBounds(p, trial.Constraints)
	d, _, err := r.solveRelaxedSubproblem(stats, p, trial, r.penaltyParameter)
	return d, err
}

// computePredictedReduction combines the subproblem model decrease
// with the predicted gain in linearized constraint violation.
func (r *l1Relaxation) computePredictedReduction(p *nlp.Problem, current *nlp.Iterate, d *Direction, model *PredictedReductionModel, stepLength float64) float64 {
	violation := p.ConstraintViolation(current.Constraints, nlp.NormL1)
	if stepLength == 1 {
		return violation + model.Evaluate(1)
	}
	linearized := nlp.NormL1.OfFunc(p.M, func(j int) float64 {
		component := current.Constraints[j] + stepLength*current.ConstraintJacobian.Row(j).Dot(d.X)
		return p.ComponentViolation(component, j)
	})
	return violation - linearized + model.Evaluate(stepLength)
}

func (r *l1Relaxation) IsAcceptable(stats *Statistics, p *nlp.Problem, current, trial *nlp.Iterate, d *Direction, model *PredictedReductionModel, stepLength float64) (bool, error) {
	accept := false
	if d.Norm <= smallStepNorm {
		if err := r.progressMeasures(p, stats, trial); err != nil {
			return false, err
		}
		accept = true
	} else {
		if err := r.progressMeasures(p, stats, trial); err != nil {
			return false, err
		}
		predicted := r.computePredictedReduction(p, current, d, model, stepLength)
		accept = r.strategy.CheckAcceptance(stats, current.Progress, trial.Progress, r.penaltyParameter, predicted)
	}
	if accept {
		if err := r.residuals(p, stats, trial, d.ObjectiveMultiplier); err != nil {
			return false, err
		}
	}
	return accept, nil
}
