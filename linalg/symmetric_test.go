// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linalg

import "testing"

func TestCOOInsertMaintainsLowerTriangle(t *testing.T) {
	m := NewCOOSymmetricMatrix(3, 4)
	m.Insert(0, 2, 5) // stored as (2, 0)
	m.ForEach(func(i, j int, v float64) {
		if j > i {
			t.Fatalf("entry (%d, %d) violates row ≥ column", i, j)
		}
	})
}

func TestCOOQuadraticProduct(t *testing.T) {
	// M = [2 1; 1 3]
	m := NewCOOSymmetricMatrix(2, 4)
	m.Insert(0, 0, 2)
	m.Insert(1, 0, 1)
	m.Insert(1, 1, 3)
	x := []float64{1, 2}
	// xᵀMx = 2 + 2*2 + 3*4 = 18
	if got := m.QuadraticProduct(x, x); got != 18 {
		t.Fatalf("QuadraticProduct: got %v, want 18", got)
	}
}

func TestCOODuplicateEntriesSummed(t *testing.T) {
	m := NewCOOSymmetricMatrix(2, 4)
	m.Insert(0, 0, 1)
	m.Insert(0, 0, 2)
	x := []float64{1, 0}
	if got := m.QuadraticProduct(x, x); got != 3 {
		t.Fatalf("duplicates not summed: got %v, want 3", got)
	}
	if got := m.SmallestDiagonalEntry(); got != 3 {
		t.Fatalf("SmallestDiagonalEntry with duplicates: got %v, want 3", got)
	}
}

func TestCOOAddIdentityMultiple(t *testing.T) {
	m := NewCOOSymmetricMatrix(3, 8)
	m.Insert(0, 0, -1)
	m.AddIdentityMultiple(2)
	if got := m.NumNonzeros(); got != 4 {
		t.Fatalf("NumNonzeros: got %d, want 4", got)
	}
	if got := m.SmallestDiagonalEntry(); got != 1 {
		// entry (0,0) sums to -1+2 = 1, the others are 2
		t.Fatalf("SmallestDiagonalEntry: got %v, want 1", got)
	}
}

func TestCOOEmptyDiagonal(t *testing.T) {
	m := NewCOOSymmetricMatrix(2, 2)
	if got := m.SmallestDiagonalEntry(); got != 0 {
		t.Fatalf("empty diagonal: got %v, want 0", got)
	}
}
