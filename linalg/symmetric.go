// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linalg

import "math"

// COOSymmetricMatrix is a symmetric matrix in coordinate form.
// Only the lower triangle is stored (row ≥ column). Entries are
// appended in insertion order and duplicates are interpreted as
// summed by every consumer.
type COOSymmetricMatrix struct {
	dimension int
	rows      []int
	cols      []int
	values    []float64
}

// NewCOOSymmetricMatrix creates an empty n×n symmetric matrix with
// the given nonzero capacity.
func NewCOOSymmetricMatrix(dimension, capacity int) *COOSymmetricMatrix {
	return &COOSymmetricMatrix{
		dimension: dimension,
		rows:      make([]int, 0, capacity),
		cols:      make([]int, 0, capacity),
		values:    make([]float64, 0, capacity),
	}
}

// Dimension returns n.
func (m *COOSymmetricMatrix) Dimension() int {
	return m.dimension
}

// NumNonzeros returns the number of stored entries, duplicates included.
func (m *COOSymmetricMatrix) NumNonzeros() int {
	return len(m.values)
}

// Reset removes all entries but keeps the backing storage.
func (m *COOSymmetricMatrix) Reset() {
	m.rows = m.rows[:0]
	m.cols = m.cols[:0]
	m.values = m.values[:0]
}

// Insert appends the entry (i, j, value), swapping indices if needed
// to maintain the row ≥ column convention.
func (m *COOSymmetricMatrix) Insert(i, j int, value float64) {
	if j > i {
		i, j = j, i
	}
	m.rows = append(m.rows, i)
	m.cols = append(m.cols, j)
	m.values = append(m.values, value)
}

// ForEach visits the stored entries in insertion order.
func (m *COOSymmetricMatrix) ForEach(f func(i, j int, value float64)) {
	for k, i := range m.rows {
		f(i, m.cols[k], m.values[k])
	}
}

// AddIdentityMultiple appends n diagonal entries with value multiple.
func (m *COOSymmetricMatrix) AddIdentityMultiple(multiple float64) {
	for i := 0; i < m.dimension; i++ {
		m.Insert(i, i, multiple)
	}
}

// SmallestDiagonalEntry returns the smallest diagonal value, summing
// duplicate diagonal entries, or 0 when the diagonal is empty.
func (m *COOSymmetricMatrix) SmallestDiagonalEntry() float64 {
	diag := make([]float64, m.dimension)
	present := make([]bool, m.dimension)
	for k, i := range m.rows {
		if i == m.cols[k] {
			diag[i] += m.values[k]
			present[i] = true
		}
	}
	smallest := math.Inf(1)
	for i, p := range present {
		if p {
			smallest = math.Min(smallest, diag[i])
		}
	}
	if math.IsInf(smallest, 1) {
		return 0
	}
	return smallest
}

// QuadraticProduct computes xᵀMy. Off-diagonal entries contribute to
// both symmetric positions; duplicates sum naturally.
func (m *COOSymmetricMatrix) QuadraticProduct(x, y []float64) float64 {
	product := 0.0
	for k, i := range m.rows {
		j, v := m.cols[k], m.values[k]
		if i == j {
			product += v * x[i] * y[i]
		} else {
			product += v * (x[i]*y[j] + x[j]*y[i])
		}
	}
	return product
}

// CopyFrom replaces the content with a copy of other.
func (m *COOSymmetricMatrix) CopyFrom(other *COOSymmetricMatrix) {
	m.dimension = other.dimension
	m.rows = append(m.rows[:0], other.rows...)
	m.cols = append(m.cols[:0], other.cols...)
	m.values = append(m.values[:0], other.values...)
}
