// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqp

import (
	"math"

	"github.com/pkg/errors"

	"github.com/curioloop/sqpkit/linalg"
	"github.com/curioloop/sqpkit/nlp"
	"github.com/curioloop/sqpkit/qp"
)

// Subproblem builds and solves the local model of the nonlinear
// program around the current iterate. The constraint relaxation
// strategies own it and may extend it with elastic variables between
// a build and a solve.
type Subproblem interface {
	// Build assembles the model at the iterate: scaled objective
	// gradient, constraint Jacobian, variable displacement bounds
	// (problem bounds intersected with a trust-region box) and
	// linearized constraint bounds. The multipliers feed the Hessian
	// evaluation.
	Build(p *nlp.Problem, stats *Statistics, it *nlp.Iterate, objectiveMultiplier, radius float64, multipliers []float64) error
	// RebuildObjective refreshes the objective gradient and the
	// Hessian for a new objective multiplier, leaving the constraint
	// rows and bounds untouched.
	RebuildObjective(p *nlp.Problem, stats *Statistics, it *nlp.Iterate, objectiveMultiplier float64, multipliers []float64) error
	// Solve invokes the external solver and returns the direction
	// with multiplier displacements and active sets. Elastic
	// variables, if any, are still present in the result.
	Solve(stats *Statistics, p *nlp.Problem, it *nlp.Iterate) (*Direction, error)
	// GeneratePredictedReductionModel returns the two-stage lazy
	// model of the subproblem decrease along the direction.
	GeneratePredictedReductionModel(d *Direction) *PredictedReductionModel

	AddElasticVariables() *ElasticVariables
	RemoveElasticVariables()
	SetInitialPoint(x []float64)
	// SetLinearizedBounds recomputes the linearized constraint
	// bounds from the given constraint values.
	SetLinearizedBounds(p *nlp.Problem, c []float64)
	// BuildFeasibilityObjective assembles the linear objective of a
	// partitioned feasibility problem: the sum of the gradients of
	// the infeasible constraints, signed by violation direction.
	BuildFeasibilityObjective(cp *nlp.ConstraintPartition)
	// BuildFeasibilityBounds relaxes the bounds of the infeasible
	// constraints to encode the feasibility problem.
	BuildFeasibilityBounds(p *nlp.Problem, c []float64, cp *nlp.ConstraintPartition)
	// AddProximalTerm adds a diagonal proximal regularization around
	// x to the model, when the model carries curvature.
	AddProximalTerm(coefficient float64, x []float64)
	// TrimDirection removes the elastic components from a direction.
	TrimDirection(d *Direction)
	// RegisterAcceptedIterate notifies the model of an accepted step.
	RegisterAcceptedIterate(p *nlp.Problem, stats *Statistics, it *nlp.Iterate) error

	VariableCount() int
}

// NewSubproblem dispatches on the subproblem option value.
func NewSubproblem(name string, p *nlp.Problem, opts Options) (Subproblem, error) {
	switch name {
	case "QP":
		model, err := NewHessianModel(opts["hessian_model"], p)
		if err != nil {
			return nil, err
		}
		return &QPSubproblem{
			subproblemBase: newSubproblemBase(p),
			hessianModel:   model,
			solver:         qp.NewActiveSetQP(),
		}, nil
	case "LP":
		return &LPSubproblem{
			subproblemBase: newSubproblemBase(p),
			solver:         qp.NewSimplexLP(),
		}, nil
	case "barrier":
		return nil, errors.New("the barrier subproblem is not built into this release")
	}
	return nil, errors.Errorf("unknown subproblem %q", name)
}

// subproblemBase holds the arrays shared by the QP and LP
// subproblems. The first n variables are the displacements of the
// problem variables; elastic variables, when present, occupy the
// columns from n on and are stripped again after each solve.
type subproblemBase struct {
	n, m int

	objectiveGradient *linalg.SparseVector
	jacobian          *linalg.RectangularMatrix
	variableBounds    []nlp.Bounds
	constraintBounds  []nlp.Bounds
	initialPoint      []float64

	elastics *ElasticVariables
}

func newSubproblemBase(p *nlp.Problem) subproblemBase {
	return subproblemBase{
		n:                 p.N,
		m:                 p.M,
		objectiveGradient: linalg.NewSparseVector(p.N),
		jacobian:          linalg.NewRectangularMatrix(p.M, p.N),
		variableBounds:    make([]nlp.Bounds, p.N, p.N+2*p.M),
		constraintBounds:  make([]nlp.Bounds, p.M),
		initialPoint:      make([]float64, p.N, p.N+2*p.M),
	}
}

func (b *subproblemBase) VariableCount() int { return len(b.variableBounds) }

// buildCommon evaluates the iterate and assembles gradient, Jacobian
// and bounds. radius may be +∞ (no trust region).
func (b *subproblemBase) buildCommon(p *nlp.Problem, stats *Statistics, it *nlp.Iterate, objectiveMultiplier, radius float64) error {
	if radius <= 0 {
		panic("subproblem: nonpositive trust-region radius")
	}
	if err := it.EvaluateObjectiveGradient(p, &stats.Evals); err != nil {
		return numerical("objective gradient", err)
	}
	if err := it.EvaluateConstraints(p, &stats.Evals); err != nil {
		return numerical("constraint evaluation", err)
	}
	if err := it.EvaluateConstraintJacobian(p, &stats.Evals); err != nil {
		return numerical("constraint jacobian", err)
	}

	b.elastics = nil
	b.buildGradient(it, objectiveMultiplier)
	b.jacobian.CopyFrom(it.ConstraintJacobian)

	b.variableBounds = b.variableBounds[:b.n]
	b.initialPoint = b.initialPoint[:b.n]
	for i, bounds := range p.VariableBounds {
		b.variableBounds[i] = nlp.Bounds{
			Lower: math.Max(bounds.Lower-it.X[i], -radius),
			Upper: math.Min(bounds.Upper-it.X[i], radius),
		}
		b.initialPoint[i] = 0
	}
	b.SetLinearizedBounds(p, it.Constraints)
	return nil
}

// buildGradient stores the objective gradient scaled by σ; a zero σ
// zeroes the model objective.
func (b *subproblemBase) buildGradient(it *nlp.Iterate, objectiveMultiplier float64) {
	b.objectiveGradient.Clear()
	if objectiveMultiplier == 0 {
		return
	}
	b.objectiveGradient.CopyFrom(it.ObjectiveGradient)
	if objectiveMultiplier != 1 {
		b.objectiveGradient.Scale(objectiveMultiplier)
	}
}

func (b *subproblemBase) SetLinearizedBounds(p *nlp.Problem, c []float64) {
	for j, bounds := range p.ConstraintBounds {
		b.constraintBounds[j] = nlp.Bounds{
			Lower: bounds.Lower - c[j],
			Upper: bounds.Upper - c[j],
		}
	}
}

func (b *subproblemBase) SetInitialPoint(x []float64) {
	copy(b.initialPoint, x)
}

// AddElasticVariables appends one nonnegative elastic per finite
// constraint side: coefficient ∓1 in the Jacobian row, a unit
// coefficient in the objective and a lower bound of zero.
func (b *subproblemBase) AddElasticVariables() *ElasticVariables {
	ev := &ElasticVariables{}
	col := len(b.variableBounds)
	addColumn := func() int {
		b.variableBounds = append(b.variableBounds, nlp.Bounds{Lower: 0, Upper: math.Inf(1)})
		b.initialPoint = append(b.initialPoint, 0)
		c := col
		col++
		return c
	}
	for j, bounds := range b.constraintBounds {
		if !math.IsInf(bounds.Upper, 1) {
			c := addColumn()
			ev.Positive = append(ev.Positive, ElasticPair{Constraint: j, Variable: c})
			b.jacobian.Row(j).Insert(c, -1)
			b.objectiveGradient.Insert(c, 1)
		}
		if !math.IsInf(bounds.Lower, -1) {
			c := addColumn()
			ev.Negative = append(ev.Negative, ElasticPair{Constraint: j, Variable: c})
			b.jacobian.Row(j).Insert(c, 1)
			b.objectiveGradient.Insert(c, 1)
		}
	}
	b.elastics = ev
	return ev
}

// RemoveElasticVariables strips every elastic column from the
// subproblem state. Elastics never persist across solves.
func (b *subproblemBase) RemoveElasticVariables() {
	if b.elastics == nil {
		return
	}
	keep := func(index int) bool { return index < b.n }
	b.objectiveGradient.Filter(keep)
	for j := 0; j < b.m; j++ {
		b.jacobian.Row(j).Filter(keep)
	}
	b.variableBounds = b.variableBounds[:b.n]
	b.initialPoint = b.initialPoint[:b.n]
	b.elastics = nil
}

func (b *subproblemBase) BuildFeasibilityObjective(cp *nlp.ConstraintPartition) {
	for _, j := range cp.UpperBoundInfeasible {
		b.jacobian.Row(j).ForEach(func(i int, v float64) {
			b.objectiveGradient.Insert(i, v)
		})
	}
	for _, j := range cp.LowerBoundInfeasible {
		b.jacobian.Row(j).ForEach(func(i int, v float64) {
			b.objectiveGradient.Insert(i, -v)
		})
	}
}

func (b *subproblemBase) BuildFeasibilityBounds(p *nlp.Problem, c []float64, cp *nlp.ConstraintPartition) {
	for _, j := range cp.LowerBoundInfeasible {
		b.constraintBounds[j] = nlp.Bounds{
			Lower: math.Inf(-1),
			Upper: p.ConstraintBounds[j].Lower - c[j],
		}
	}
	for _, j := range cp.UpperBoundInfeasible {
		b.constraintBounds[j] = nlp.Bounds{
			Lower: p.ConstraintBounds[j].Upper - c[j],
			Upper: math.Inf(1),
		}
	}
}

// directionFromSolution maps a solver solution into a Direction with
// multiplier displacements relative to the iterate.
func (b *subproblemBase) directionFromSolution(sol *qp.Solution, it *nlp.Iterate) *Direction {
	nvar := len(b.variableBounds)
	d := &Direction{
		Status:              sol.Status,
		ConstraintPartition: sol.ConstraintPartition,
	}
	if sol.Status == qp.Infeasible {
		d.X = sol.X
		if d.X == nil {
			d.X = make([]float64, nvar)
		}
		d.computeNorm(b.n)
		return d
	}
	d.X = sol.X
	d.Objective = sol.Objective
	d.Multipliers = nlp.NewMultipliers(nvar, b.m)
	for j := 0; j < b.m; j++ {
		d.Multipliers.Constraints[j] = sol.ConstraintMultipliers[j] - it.Multipliers.Constraints[j]
	}
	for i := 0; i < nvar; i++ {
		var lower, upper float64
		if i < b.n {
			lower, upper = it.Multipliers.LowerBounds[i], it.Multipliers.UpperBounds[i]
		}
		d.Multipliers.LowerBounds[i] = sol.LowerBoundMultipliers[i] - lower
		d.Multipliers.UpperBounds[i] = sol.UpperBoundMultipliers[i] - upper
	}
	d.ActiveSet = ActiveSet{
		AtLowerBound: sol.ActiveLower,
		AtUpperBound: sol.ActiveUpper,
		Constraints:  sol.ActiveConstraints,
	}
	d.computeNorm(b.n)
	return d
}

// TrimDirection drops the elastic components from a direction so
// the primal dimension observed outside the relaxation layer is n.
func (b *subproblemBase) TrimDirection(d *Direction) {
	if len(d.X) > b.n {
		d.X = d.X[:b.n]
	}
	if len(d.Multipliers.LowerBounds) > b.n {
		d.Multipliers.LowerBounds = d.Multipliers.LowerBounds[:b.n]
		d.Multipliers.UpperBounds = d.Multipliers.UpperBounds[:b.n]
	}
	filter := func(indices []int) []int {
		out := indices[:0]
		for _, i := range indices {
			if i < b.n {
				out = append(out, i)
			}
		}
		return out
	}
	d.ActiveSet.AtLowerBound = filter(d.ActiveSet.AtLowerBound)
	d.ActiveSet.AtUpperBound = filter(d.ActiveSet.AtUpperBound)
	d.computeNorm(b.n)
}
