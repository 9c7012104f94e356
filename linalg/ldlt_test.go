// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linalg

import (
	"math"
	"testing"
)

func factorize(t *testing.T, m *COOSymmetricMatrix) *LDLT {
	t.Helper()
	s := NewLDLT()
	s.SymbolicFactorization(m)
	if err := s.NumericalFactorization(m); err != nil {
		t.Fatalf("factorization error: %v", err)
	}
	return s
}

func TestLDLTPositiveDefinite(t *testing.T) {
	// M = [4 1; 1 3]
	m := NewCOOSymmetricMatrix(2, 4)
	m.Insert(0, 0, 4)
	m.Insert(1, 0, 1)
	m.Insert(1, 1, 3)
	s := factorize(t, m)
	switch {
	case s.Singular():
		t.Fatal("positive definite matrix reported singular")
	case s.NegativeEigenvalues() != 0:
		t.Fatalf("negative eigenvalues: got %d, want 0", s.NegativeEigenvalues())
	case s.Rank() != 2:
		t.Fatalf("rank: got %d, want 2", s.Rank())
	}

	// Solve M x = [5, 4]; solution is [1, 1].
	x := make([]float64, 2)
	if err := s.Solve([]float64{5, 4}, x); err != nil {
		t.Fatal(err)
	}
	if math.Abs(x[0]-1) > 1e-12 || math.Abs(x[1]-1) > 1e-12 {
		t.Fatalf("solve: got %v, want [1 1]", x)
	}
}

func TestLDLTIndefinite(t *testing.T) {
	m := NewCOOSymmetricMatrix(2, 2)
	m.Insert(0, 0, 1)
	m.Insert(1, 1, -2)
	s := factorize(t, m)
	if s.Singular() {
		t.Fatal("nonsingular diagonal matrix reported singular")
	}
	if s.NegativeEigenvalues() != 1 {
		t.Fatalf("negative eigenvalues: got %d, want 1", s.NegativeEigenvalues())
	}
}

func TestLDLTSingular(t *testing.T) {
	m := NewCOOSymmetricMatrix(2, 2)
	m.Insert(0, 0, 1)
	// zero second diagonal entry
	s := NewLDLT()
	s.SymbolicFactorization(m)
	if err := s.NumericalFactorization(m); err != nil {
		t.Fatal(err)
	}
	if !s.Singular() {
		t.Fatal("singular matrix not detected")
	}
	if err := s.Solve([]float64{1, 1}, make([]float64, 2)); err == nil {
		t.Fatal("solve with singular factors should fail")
	}
}

func TestLDLTDuplicateEntriesSummed(t *testing.T) {
	m := NewCOOSymmetricMatrix(1, 2)
	m.Insert(0, 0, -3)
	m.Insert(0, 0, 5)
	s := factorize(t, m)
	if s.NegativeEigenvalues() != 0 || s.Singular() {
		t.Fatal("duplicate entries must be summed before factorization")
	}
	x := make([]float64, 1)
	if err := s.Solve([]float64{4}, x); err != nil {
		t.Fatal(err)
	}
	if math.Abs(x[0]-2) > 1e-14 {
		t.Fatalf("solve: got %v, want 2", x[0])
	}
}
