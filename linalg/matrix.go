// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linalg

// RectangularMatrix is a sparse rectangular matrix stored as one
// sparse vector per row. Rows are preallocated with the column
// capacity so that Jacobian evaluation does not allocate.
type RectangularMatrix struct {
	rows []*SparseVector
	cols int
}

// NewRectangularMatrix creates an m×n matrix with empty rows.
func NewRectangularMatrix(m, n int) *RectangularMatrix {
	rows := make([]*SparseVector, m)
	for j := range rows {
		rows[j] = NewSparseVector(n)
	}
	return &RectangularMatrix{rows: rows, cols: n}
}

// NumRows returns the number of rows.
func (m *RectangularMatrix) NumRows() int {
	return len(m.rows)
}

// NumColumns returns the nominal number of columns.
func (m *RectangularMatrix) NumColumns() int {
	return m.cols
}

// Row returns the j-th row. The caller may mutate it.
func (m *RectangularMatrix) Row(j int) *SparseVector {
	return m.rows[j]
}

// Clear empties every row.
func (m *RectangularMatrix) Clear() {
	for _, row := range m.rows {
		row.Clear()
	}
}

// CopyFrom replaces the content with a deep copy of other.
// Both matrices must have the same number of rows.
func (m *RectangularMatrix) CopyFrom(other *RectangularMatrix) {
	if len(m.rows) != len(other.rows) {
		panic("rectangular matrix dimension mismatch")
	}
	m.cols = other.cols
	for j, row := range other.rows {
		m.rows[j].CopyFrom(row)
	}
}
