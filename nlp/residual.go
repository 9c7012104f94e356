// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nlp

import "math"

// ComputeProgressMeasures fills the (feasibility, objective) pair of
// the iterate: feasibility is the ℓ1 constraint violation, objective
// is the objective value.
func ComputeProgressMeasures(p *Problem, it *Iterate, counts *EvalCounts) error {
	if err := it.EvaluateObjective(p, counts); err != nil {
		return err
	}
	if err := it.EvaluateConstraints(p, counts); err != nil {
		return err
	}
	it.Progress = Progress{
		Feasibility: p.ConstraintViolation(it.Constraints, NormL1),
		Objective:   it.Objective,
	}
	return nil
}

// ComplementarityError aggregates min(|slack|, |multiplier|) over the
// variable bounds and the constraints in the given norm. Equality
// constraints contribute nothing.
func ComplementarityError(p *Problem, it *Iterate, multipliers Multipliers, norm Norm) float64 {
	components := make([]float64, 0, 2*p.N+p.M)
	for i, b := range p.VariableBounds {
		if lambda := multipliers.LowerBounds[i]; lambda != 0 && !math.IsInf(b.Lower, -1) {
			components = append(components, math.Min(math.Abs(it.X[i]-b.Lower), math.Abs(lambda)))
		}
		if lambda := multipliers.UpperBounds[i]; lambda != 0 && !math.IsInf(b.Upper, 1) {
			components = append(components, math.Min(math.Abs(b.Upper-it.X[i]), math.Abs(lambda)))
		}
	}
	for j, b := range p.ConstraintBounds {
		lambda := multipliers.Constraints[j]
		if lambda == 0 || b.Type() == EqualBounds {
			continue
		}
		if lambda > 0 {
			components = append(components, math.Min(math.Abs(it.Constraints[j]-b.Lower), lambda))
		} else {
			components = append(components, math.Min(math.Abs(b.Upper-it.Constraints[j]), -lambda))
		}
	}
	return norm.Of(components)
}

// ComputeResiduals fills the optimality residuals of the iterate:
// stationarity at the given objective multiplier, constraint
// infeasibility, complementarity, and the Fritz-John measure
// (stationarity with a zero objective multiplier).
func ComputeResiduals(p *Problem, it *Iterate, counts *EvalCounts, objectiveMultiplier float64, norm Norm) error {
	if err := it.EvaluateConstraints(p, counts); err != nil {
		return err
	}
	grad, err := it.EvaluateLagrangianGradient(p, counts, objectiveMultiplier, it.Multipliers)
	if err != nil {
		return err
	}
	it.Residuals.KKT = norm.Of(grad)
	grad, err = it.EvaluateLagrangianGradient(p, counts, 0, it.Multipliers)
	if err != nil {
		return err
	}
	it.Residuals.FritzJohn = norm.Of(grad)
	it.Residuals.Constraints = p.ConstraintViolation(it.Constraints, norm)
	it.Residuals.Complementarity = ComplementarityError(p, it, it.Multipliers, norm)
	return nil
}
