// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linalg

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// DirectSolver factorizes a symmetric indefinite matrix and reports
// its inertia. It is the contract the inertia-correction loop relies
// on: a successful factorization with zero negative eigenvalues means
// the matrix is positive definite.
type DirectSolver interface {
	// SymbolicFactorization prepares the workspace for a matrix with
	// the sparsity pattern of m.
	SymbolicFactorization(m *COOSymmetricMatrix)
	// NumericalFactorization factorizes m. A breakdown marks the
	// matrix singular rather than returning an error.
	NumericalFactorization(m *COOSymmetricMatrix) error
	// Solve computes result = m⁻¹ rhs using the current factors.
	Solve(rhs, result []float64) error
	// NegativeEigenvalues returns the number of negative eigenvalues
	// of the last factorized matrix.
	NegativeEigenvalues() int
	// Singular reports whether the last factorization broke down.
	Singular() bool
	// Rank returns the numerical rank of the last factorized matrix.
	Rank() int
}

// LDLT is a dense LDLᵀ factorization without pivoting. A zero pivot
// marks the matrix singular; the sign count of D gives the inertia by
// Sylvester's law. The factorization may break down on strongly
// indefinite matrices, which the inertia-correction driver treats the
// same way as a singular matrix.
type LDLT struct {
	n          int
	dense      *mat.SymDense
	factors    *mat.Dense
	d          []float64
	factorized bool
	singular   bool
	negative   int
	rank       int
}

// NewLDLT creates an unfactorized solver.
func NewLDLT() *LDLT {
	return &LDLT{}
}

// SymbolicFactorization allocates dense workspace for the dimension of m.
func (s *LDLT) SymbolicFactorization(m *COOSymmetricMatrix) {
	if n := m.Dimension(); n != s.n {
		s.n = n
		s.dense = mat.NewSymDense(n, nil)
		s.factors = mat.NewDense(n, n, nil)
		s.d = make([]float64, n)
	}
	s.factorized = false
}

// NumericalFactorization scatters m into dense storage (duplicates
// summed) and computes the LDLᵀ factors.
func (s *LDLT) NumericalFactorization(m *COOSymmetricMatrix) error {
	if s.dense == nil || m.Dimension() != s.n {
		s.SymbolicFactorization(m)
	}
	n := s.n
	s.dense.Zero()
	scale := 1.0
	m.ForEach(func(i, j int, v float64) {
		s.dense.SetSym(i, j, s.dense.At(i, j)+v)
		scale = math.Max(scale, math.Abs(v))
	})

	s.factorized = false
	s.singular = false
	s.negative = 0
	s.rank = 0
	pivotTol := 1e-14 * scale

	l := s.factors
	l.Zero()
	for j := 0; j < n; j++ {
		dj := s.dense.At(j, j)
		for k := 0; k < j; k++ {
			ljk := l.At(j, k)
			dj -= ljk * ljk * s.d[k]
		}
		if math.Abs(dj) <= pivotTol || math.IsNaN(dj) {
			s.singular = true
			return nil
		}
		s.d[j] = dj
		if dj < 0 {
			s.negative++
		}
		l.Set(j, j, 1)
		for i := j + 1; i < n; i++ {
			lij := s.dense.At(i, j)
			for k := 0; k < j; k++ {
				lij -= l.At(i, k) * l.At(j, k) * s.d[k]
			}
			l.Set(i, j, lij/dj)
		}
		s.rank++
	}
	s.factorized = true
	return nil
}

// Solve computes result = m⁻¹ rhs by forward and backward substitution.
func (s *LDLT) Solve(rhs, result []float64) error {
	if !s.factorized || s.singular {
		return errors.New("ldlt: matrix is singular or not factorized")
	}
	n := s.n
	if len(rhs) != n || len(result) != n {
		panic("ldlt: dimension mismatch")
	}
	l := s.factors
	// L z = rhs
	for i := 0; i < n; i++ {
		z := rhs[i]
		for k := 0; k < i; k++ {
			z -= l.At(i, k) * result[k]
		}
		result[i] = z
	}
	// D w = z
	for i := 0; i < n; i++ {
		result[i] /= s.d[i]
	}
	// Lᵀ x = w
	for i := n - 1; i >= 0; i-- {
		x := result[i]
		for k := i + 1; k < n; k++ {
			x -= l.At(k, i) * result[k]
		}
		result[i] = x
	}
	return nil
}

// NegativeEigenvalues returns the number of negative entries of D.
func (s *LDLT) NegativeEigenvalues() int {
	return s.negative
}

// Singular reports whether the last factorization broke down.
func (s *LDLT) Singular() bool {
	return s.singular
}

// Rank returns the number of accepted pivots.
func (s *LDLT) Rank() int {
	return s.rank
}
