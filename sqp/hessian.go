// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqp

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/sqpkit/linalg"
	"github.com/curioloop/sqpkit/nlp"
)

// HessianModel produces the Hessian of the subproblem objective.
type HessianModel interface {
	// Evaluate refreshes the Hessian at x for the given objective
	// multiplier and constraint multipliers.
	Evaluate(p *nlp.Problem, stats *Statistics, x []float64, objectiveMultiplier float64, constraintMultipliers []float64) error
	// Hessian returns the current matrix. Callers may append entries
	// (diagonal regularization, proximal terms); the next Evaluate
	// rebuilds it.
	Hessian() *linalg.COOSymmetricMatrix
	// RegisterAcceptedIterate lets quasi-Newton models observe the
	// accepted step.
	RegisterAcceptedIterate(p *nlp.Problem, stats *Statistics, it *nlp.Iterate) error
}

// NewHessianModel dispatches on the hessian_model option value.
func NewHessianModel(name string, p *nlp.Problem) (HessianModel, error) {
	switch name {
	case "exact":
		if p.EvalLagrangianHessian == nil {
			return nil, errors.New("exact Hessian model requires second derivatives")
		}
		return &exactHessian{hessian: newHessianMatrix(p)}, nil
	case "convexified":
		if p.EvalLagrangianHessian == nil {
			return nil, errors.New("convexified Hessian model requires second derivatives")
		}
		return &convexifiedHessian{
			exactHessian: exactHessian{hessian: newHessianMatrix(p)},
			solver:       linalg.NewLDLT(),
		}, nil
	case "BFGS":
		return newBFGSHessian(p), nil
	}
	return nil, errors.Errorf("unknown Hessian model %q", name)
}

func newHessianMatrix(p *nlp.Problem) *linalg.COOSymmetricMatrix {
	// Extra room for diagonal inertia correction terms.
	return linalg.NewCOOSymmetricMatrix(p.N, p.HessianCapacity+2*p.N)
}

// exactHessian evaluates the Lagrangian Hessian through the problem.
type exactHessian struct {
	hessian *linalg.COOSymmetricMatrix
}

func (h *exactHessian) Evaluate(p *nlp.Problem, stats *Statistics, x []float64, objectiveMultiplier float64, constraintMultipliers []float64) error {
	h.hessian.Reset()
	p.EvalLagrangianHessian(x, objectiveMultiplier, constraintMultipliers, h.hessian)
	stats.Evals.Hessian++
	stats.HessianEvaluations++
	var bad error
	h.hessian.ForEach(func(_, _ int, v float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			bad = nlp.ErrNonFinite
		}
	})
	if bad != nil {
		return numerical("hessian evaluation", bad)
	}
	return nil
}

func (h *exactHessian) Hessian() *linalg.COOSymmetricMatrix { return h.hessian }

func (h *exactHessian) RegisterAcceptedIterate(*nlp.Problem, *Statistics, *nlp.Iterate) error {
	return nil
}

// convexifiedHessian wraps an exact model with inertia correction:
// after each evaluation a multiple of the identity is added until a
// symmetric-indefinite factorization reports a nonsingular matrix
// with zero negative eigenvalues (Nocedal and Wright, p51).
type convexifiedHessian struct {
	exactHessian
	solver linalg.DirectSolver
}

// inertiaBeta is the initial regularization magnitude.
const inertiaBeta = 1e-4

func (h *convexifiedHessian) Evaluate(p *nlp.Problem, stats *Statistics, x []float64, objectiveMultiplier float64, constraintMultipliers []float64) error {
	if err := h.exactHessian.Evaluate(p, stats, x, objectiveMultiplier, constraintMultipliers); err != nil {
		return err
	}
	return h.correctInertia()
}

func (h *convexifiedHessian) correctInertia() error {
	matrix := h.hessian
	delta := math.Max(0, inertiaBeta-matrix.SmallestDiagonalEntry())
	if delta > 0 {
		matrix.AddIdentityMultiple(delta)
	}
	h.solver.SymbolicFactorization(matrix)
	if err := h.solver.NumericalFactorization(matrix); err != nil {
		return numerical("hessian factorization", err)
	}
	for attempt := 0; attempt < 100; attempt++ {
		if !h.solver.Singular() && h.solver.NegativeEigenvalues() == 0 {
			return nil
		}
		previous := delta
		if delta == 0 {
			delta = inertiaBeta
		} else {
			delta *= 2
		}
		matrix.AddIdentityMultiple(delta - previous)
		if err := h.solver.NumericalFactorization(matrix); err != nil {
			return numerical("hessian factorization", err)
		}
	}
	return numerical("inertia correction", errors.New("regularization did not converge"))
}

// bfgsHessian maintains a dense damped BFGS approximation of the
// Lagrangian Hessian, for problems without second derivatives. The
// damping keeps the approximation positive definite:
//
//	𝛈 = 𝜵L(𝐱ᵏ⁺¹,𝛌) - 𝜵L(𝐱ᵏ,𝛌)
//	𝐪 = 𝛉𝛈 + (1-𝛉)𝐁𝐬 with 𝛉 = 1 if 𝐬ᵀ𝛈 ≥ ⅕𝐬ᵀ𝐁𝐬,
//	𝛉 = ⅘𝐬ᵀ𝐁𝐬/(𝐬ᵀ𝐁𝐬 - 𝐬ᵀ𝛈) otherwise
//	𝐁 ← 𝐁 - 𝐁𝐬𝐬ᵀ𝐁/𝐬ᵀ𝐁𝐬 + 𝐪𝐪ᵀ/𝐬ᵀ𝐪
type bfgsHessian struct {
	n       int
	b       *mat.SymDense
	hessian *linalg.COOSymmetricMatrix

	havePrevious bool
	prevX        []float64
	prevGrad     []float64
}

func newBFGSHessian(p *nlp.Problem) *bfgsHessian {
	h := &bfgsHessian{
		n:        p.N,
		b:        mat.NewSymDense(p.N, nil),
		hessian:  linalg.NewCOOSymmetricMatrix(p.N, p.N*(p.N+1)/2+2*p.N),
		prevX:    make([]float64, p.N),
		prevGrad: make([]float64, p.N),
	}
	for i := 0; i < p.N; i++ {
		h.b.SetSym(i, i, 1)
	}
	return h
}

func (h *bfgsHessian) Evaluate(*nlp.Problem, *Statistics, []float64, float64, []float64) error {
	// The approximation is updated on accepted iterates; evaluation
	// only republishes it in coordinate form.
	h.hessian.Reset()
	for i := 0; i < h.n; i++ {
		for j := 0; j <= i; j++ {
			if v := h.b.At(i, j); v != 0 {
				h.hessian.Insert(i, j, v)
			}
		}
	}
	return nil
}

func (h *bfgsHessian) Hessian() *linalg.COOSymmetricMatrix { return h.hessian }

func (h *bfgsHessian) RegisterAcceptedIterate(p *nlp.Problem, stats *Statistics, it *nlp.Iterate) error {
	grad, err := it.EvaluateLagrangianGradient(p, &stats.Evals, 1, it.Multipliers)
	if err != nil {
		return numerical("lagrangian gradient", err)
	}
	if !h.havePrevious {
		copy(h.prevX, it.X)
		copy(h.prevGrad, grad)
		h.havePrevious = true
		return nil
	}

	n := h.n
	s := make([]float64, n)
	eta := make([]float64, n)
	bs := make([]float64, n)
	floats.SubTo(s, it.X, h.prevX)
	floats.SubTo(eta, grad, h.prevGrad)
	copy(h.prevX, it.X)
	copy(h.prevGrad, grad)

	for i := 0; i < n; i++ {
		v := 0.0
		for j := 0; j < n; j++ {
			v += h.b.At(i, j) * s[j]
		}
		bs[i] = v
	}
	sBs := floats.Dot(s, bs)
	sEta := floats.Dot(s, eta)
	if sBs <= 0 {
		return nil
	}
	q := eta
	sq := sEta
	if sEta < 0.2*sBs {
		theta := 0.8 * sBs / (sBs - sEta)
		for i := range q {
			q[i] = theta*eta[i] + (1-theta)*bs[i]
		}
		sq = floats.Dot(s, q)
	}
	if sq <= 0 {
		return nil
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			v := h.b.At(i, j) - bs[i]*bs[j]/sBs + q[i]*q[j]/sq
			h.b.SetSym(i, j, v)
		}
	}
	return nil
}
