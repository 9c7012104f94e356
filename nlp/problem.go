// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nlp

import (
	"math"

	"github.com/pkg/errors"

	"github.com/curioloop/sqpkit/linalg"
)

// EvalCounts records the number of function evaluations performed on
// a problem. It is threaded explicitly through the call stack; there
// is no global state.
type EvalCounts struct {
	Objective   int
	Constraints int
	Gradient    int
	Jacobian    int
	Hessian     int
}

// Problem is the external view of a nonlinear program
//
//	minimize 𝒇(𝐱) subject to 𝒄_L ≤ 𝒄(𝐱) ≤ 𝒄_U and 𝐱_L ≤ 𝐱 ≤ 𝐱_U
//
// with 𝐱 ∈ ℝⁿ and 𝒄 : ℝⁿ → ℝᵐ. It is immutable within a solve.
//
// EvalLagrangianHessian fills the Hessian of the Lagrangian
// L(𝐱,𝛌) = σ𝒇(𝐱) − 𝛌ᵀ𝒄(𝐱); the sign convention matches the
// stationarity residual σ𝜵𝒇 − Σ𝛌ⱼ𝜵𝒄ⱼ − 𝛌_L − 𝛌_U.
type Problem struct {
	Name string
	N, M int

	VariableBounds   []Bounds
	ConstraintBounds []Bounds

	// ObjectiveSign is +1 for minimization and -1 for maximization.
	ObjectiveSign float64

	EvalObjective          func(x []float64) float64
	EvalConstraints        func(x, c []float64)
	EvalObjectiveGradient  func(x []float64, gradient *linalg.SparseVector)
	EvalConstraintJacobian func(x []float64, jacobian *linalg.RectangularMatrix)
	EvalLagrangianHessian  func(x []float64, objectiveMultiplier float64, multipliers []float64, hessian *linalg.COOSymmetricMatrix)

	InitialPrimal []float64
	InitialDual   []float64

	// LinearConstraints lists the indices of constraints known to be
	// linear, used by the optional presolve that satisfies them at
	// the initial point.
	LinearConstraints []int

	// HessianCapacity is the maximum number of Lagrangian Hessian
	// nonzeros, diagonal regularization terms excluded.
	HessianCapacity int
}

// Validate checks dimensions and bound consistency. Failures are
// configuration errors, reported before any iteration.
func (p *Problem) Validate() error {
	switch {
	case p.N <= 0:
		return errors.New("problem dimension must be positive")
	case p.M < 0:
		return errors.New("number of constraints must not be negative")
	case len(p.VariableBounds) != p.N:
		return errors.Errorf("expected %d variable bounds, got %d", p.N, len(p.VariableBounds))
	case len(p.ConstraintBounds) != p.M:
		return errors.Errorf("expected %d constraint bounds, got %d", p.M, len(p.ConstraintBounds))
	case p.EvalObjective == nil:
		return errors.New("objective function is required")
	case p.M > 0 && p.EvalConstraints == nil:
		return errors.New("constraint function is required")
	case p.ObjectiveSign != 1 && p.ObjectiveSign != -1:
		return errors.New("objective sign must be +1 or -1")
	}
	for i, b := range p.VariableBounds {
		if b.Lower > b.Upper {
			return errors.Errorf("inconsistent bounds for variable %d", i)
		}
	}
	for j, b := range p.ConstraintBounds {
		if b.Lower > b.Upper {
			return errors.Errorf("inconsistent bounds for constraint %d", j)
		}
	}
	if p.InitialPrimal != nil && len(p.InitialPrimal) != p.N {
		return errors.New("initial primal point dimension mismatch")
	}
	if p.InitialDual != nil && len(p.InitialDual) != p.M {
		return errors.New("initial dual point dimension mismatch")
	}
	return nil
}

// EqualityConstraints returns the indices with equal bounds.
func (p *Problem) EqualityConstraints() []int {
	var idx []int
	for j, b := range p.ConstraintBounds {
		if b.Type() == EqualBounds {
			idx = append(idx, j)
		}
	}
	return idx
}

// InequalityConstraints returns the indices with non-equal bounds.
func (p *Problem) InequalityConstraints() []int {
	var idx []int
	for j, b := range p.ConstraintBounds {
		if b.Type() != EqualBounds {
			idx = append(idx, j)
		}
	}
	return idx
}

// ComponentViolation returns the violation of constraint j at value.
func (p *Problem) ComponentViolation(value float64, j int) float64 {
	return p.ConstraintBounds[j].Violation(value)
}

// ConstraintViolation aggregates the componentwise violations of c in
// the given norm.
func (p *Problem) ConstraintViolation(c []float64, norm Norm) float64 {
	return norm.OfFunc(p.M, func(j int) float64 {
		return p.ComponentViolation(c[j], j)
	})
}

// ProjectInBounds clamps x into the variable bounds in place.
func (p *Problem) ProjectInBounds(x []float64) {
	for i, b := range p.VariableBounds {
		x[i] = b.Project(x[i])
	}
}

// Negated returns a minimization view of a maximization problem:
// the objective, its derivatives and the Hessian contribution of the
// objective are negated and the sign is reset to +1.
func (p *Problem) Negated() *Problem {
	q := *p
	q.ObjectiveSign = 1
	q.EvalObjective = func(x []float64) float64 { return -p.EvalObjective(x) }
	if p.EvalObjectiveGradient != nil {
		q.EvalObjectiveGradient = func(x []float64, gradient *linalg.SparseVector) {
			p.EvalObjectiveGradient(x, gradient)
			gradient.Scale(-1)
		}
	}
	if p.EvalLagrangianHessian != nil {
		q.EvalLagrangianHessian = func(x []float64, objectiveMultiplier float64, multipliers []float64, hessian *linalg.COOSymmetricMatrix) {
			p.EvalLagrangianHessian(x, -objectiveMultiplier, multipliers, hessian)
		}
	}
	return &q
}

// ErrNonFinite is returned when a user function produces NaN or ±∞.
var ErrNonFinite = errors.New("function evaluation produced a non-finite value")

func checkFinite(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrNonFinite
	}
	return nil
}

func checkFiniteSlice(v []float64) error {
	for _, x := range v {
		if err := checkFinite(x); err != nil {
			return err
		}
	}
	return nil
}
