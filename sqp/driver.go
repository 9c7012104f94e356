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

// TerminationStatus classifies the outcome of a solve.
type TerminationStatus int

const (
	// NotOptimal means no termination test has triggered yet.
	NotOptimal TerminationStatus = iota
	// KKTPoint is a first-order stationary point.
	KKTPoint
	// FJPoint is an infeasible stationary point of the constraint
	// violation.
	FJPoint
	// FeasibleSmallStep means the steps became negligible at a
	// feasible iterate.
	FeasibleSmallStep
	// InfeasibleSmallStep means the steps became negligible at an
	// infeasible iterate.
	InfeasibleSmallStep
	// MaxIterations means the iteration cap was reached.
	MaxIterations
	// MechanismFailure means the globalization mechanism gave up.
	MechanismFailure
)

func (s TerminationStatus) String() string {
	switch s {
	case KKTPoint:
		return "KKT point"
	case FJPoint:
		return "Fritz-John point (infeasible stationary)"
	case FeasibleSmallStep:
		return "feasible small step"
	case InfeasibleSmallStep:
		return "infeasible small step"
	case MaxIterations:
		return "maximum number of iterations reached"
	case MechanismFailure:
		return "globalization mechanism failure"
	}
	return "not optimal"
}

// Result is the outcome of a solve, expressed on the original
// (unscaled, un-negated) problem.
type Result struct {
	Status      TerminationStatus
	X           []float64
	Multipliers nlp.Multipliers
	Objective   float64
	Residuals   nlp.Residuals
	Iterations  int
	// Message carries the mechanism failure context, if any.
	Message string
}

// Solver is the outer fixed-point loop: it invokes the globalization
// mechanism once per outer iteration and applies the termination
// tests to the accepted iterate.
type Solver struct {
	options Options
}

// NewSolver validates the options and creates a solver.
func NewSolver(options Options) (*Solver, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	return &Solver{options: options}, nil
}

// Solve runs the solver on the problem. Configuration and setup
// failures return an error; numerical outcomes, including mechanism
// failures, are reported through the Result status.
func (s *Solver) Solve(problem *nlp.Problem, stats *Statistics) (*Result, error) {
	if stats == nil {
		stats = NewStatistics(nil)
	}
	if err := problem.Validate(); err != nil {
		return nil, err
	}
	opts := s.options
	tolerance := opts.Float("tolerance")

	p := problem
	if p.ObjectiveSign < 0 {
		p = p.Negated()
	}

	it := nlp.NewIterate(p.N, p.M)
	if p.InitialPrimal != nil {
		copy(it.X, p.InitialPrimal)
	}
	p.ProjectInBounds(it.X)
	if p.InitialDual != nil {
		copy(it.Multipliers.Constraints, p.InitialDual)
	}

	var scaling *nlp.Scaling
	if opts.Bool("scale_functions") {
		if err := it.EvaluateObjectiveGradient(p, &stats.Evals); err != nil {
			return nil, errors.Wrap(err, "scaling evaluation failed")
		}
		if err := it.EvaluateConstraintJacobian(p, &stats.Evals); err != nil {
			return nil, errors.Wrap(err, "scaling evaluation failed")
		}
		factors := nlp.ComputeScaling(it.ObjectiveGradient, it.ConstraintJacobian, p.N, p.M, opts.Float("scaling_threshold"))
		p = factors.Apply(p)
		it.Clear()
		scaling = &factors
	}

	if opts.Bool("enforce_linear_constraints") && len(p.LinearConstraints) > 0 {
		if err := enforceLinearConstraints(p, stats, it); err != nil && !IsNumerical(err) {
			return nil, err
		}
	}

	relaxation, err := NewConstraintRelaxation(opts["constraint-relaxation"], p, opts)
	if err != nil {
		return nil, err
	}
	mechanism, err := NewMechanism(opts["mechanism"], relaxation, opts)
	if err != nil {
		return nil, err
	}

	stats.AddColumn("iter", 6)
	stats.AddColumn("objective", 13)
	stats.AddColumn("infeas", 12)
	stats.AddColumn("stationarity", 14)
	stats.AddColumn("step", 12)
	if err := mechanism.Initialize(stats, p, it); err != nil {
		return nil, err
	}

	status := MaxIterations
	message := ""
	iterations := 0
	maxIterations := opts.Int("max_iterations")
	for k := 1; k <= maxIterations; k++ {
		trial, stepNorm, err := mechanism.ComputeAcceptableIterate(stats, p, it)
		if err != nil {
			status = MechanismFailure
			message = err.Error()
			break
		}
		it = trial
		iterations = k

		stats.Set("iter", k)
		stats.Set("objective", it.Objective)
		stats.Set("infeas", it.Residuals.Constraints)
		stats.Set("stationarity", it.Residuals.KKT)
		stats.Set("step", stepNorm)
		stats.Flush()

		if st := checkTermination(it, stepNorm, tolerance); st != NotOptimal {
			status = st
			break
		}
	}

	if scaling != nil {
		scaling.UnscaleMultipliers(&it.Multipliers)
	}
	objective := it.Objective
	if scaling != nil {
		objective /= scaling.Objective
	}
	objective *= problem.ObjectiveSign

	return &Result{
		Status:      status,
		X:           it.X,
		Multipliers: it.Multipliers,
		Objective:   objective,
		Residuals:   it.Residuals,
		Iterations:  iterations,
		Message:     message,
	}, nil
}

// checkTermination applies the driver termination tests in order:
// KKT point, Fritz-John point, then small steps.
func checkTermination(it *nlp.Iterate, stepNorm, tolerance float64) TerminationStatus {
	res := it.Residuals
	multiplierNorm := 0.0
	for _, l := range it.Multipliers.Constraints {
		multiplierNorm = math.Max(multiplierNorm, math.Abs(l))
	}
	switch {
	case res.KKT <= tolerance && res.Constraints <= tolerance && res.Complementarity <= tolerance:
		return KKTPoint
	case res.FritzJohn <= tolerance && res.Constraints > tolerance && multiplierNorm > tolerance:
		return FJPoint
	case stepNorm <= tolerance && res.Constraints <= tolerance:
		return FeasibleSmallStep
	case stepNorm <= tolerance:
		return InfeasibleSmallStep
	}
	return NotOptimal
}

// enforceLinearConstraints projects the initial point onto the linear
// constraints by a least-displacement QP within the variable bounds.
func enforceLinearConstraints(p *nlp.Problem, stats *Statistics, it *nlp.Iterate) error {
	if err := it.EvaluateConstraints(p, &stats.Evals); err != nil {
		return numerical("constraint evaluation", err)
	}
	if err := it.EvaluateConstraintJacobian(p, &stats.Evals); err != nil {
		return numerical("constraint jacobian", err)
	}

	varBounds := make([]nlp.Bounds, p.N)
	for i, b := range p.VariableBounds {
		varBounds[i] = nlp.Bounds{Lower: b.Lower - it.X[i], Upper: b.Upper - it.X[i]}
	}
	conBounds := make([]nlp.Bounds, len(p.LinearConstraints))
	jac := linalg.NewRectangularMatrix(len(p.LinearConstraints), p.N)
	for k, j := range p.LinearConstraints {
		conBounds[k] = nlp.Bounds{
			Lower: p.ConstraintBounds[j].Lower - it.Constraints[j],
			Upper: p.ConstraintBounds[j].Upper - it.Constraints[j],
		}
		jac.Row(k).CopyFrom(it.ConstraintJacobian.Row(j))
	}
	hess := linalg.NewCOOSymmetricMatrix(p.N, p.N)
	hess.AddIdentityMultiple(1)

	sol, err := qp.NewActiveSetQP().Solve(varBounds, conBounds,
		linalg.NewSparseVector(0), jac, hess, make([]float64, p.N))
	stats.SubproblemSolves++
	if err != nil {
		return numerical("linear constraint presolve", err)
	}
	if sol.Status != qp.Optimal {
		return nil
	}
	for i := range it.X {
		it.X[i] += sol.X[i]
	}
	p.ProjectInBounds(it.X)
	it.Clear()
	return nil
}
