// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package linalg provides the sparse containers of the SQP engine
// (sparse vectors, rectangular Jacobians and symmetric matrices in
// coordinate form) and a dense LDLᵀ factorization of symmetric
// indefinite matrices with inertia reporting.
package linalg

// SparseVector stores (index, value) pairs in insertion order.
// Entries are neither deduplicated nor sorted: consumers must
// interpret duplicate indices as summed.
type SparseVector struct {
	indices []int
	values  []float64
}

// NewSparseVector creates an empty sparse vector with the given capacity.
func NewSparseVector(capacity int) *SparseVector {
	return &SparseVector{
		indices: make([]int, 0, capacity),
		values:  make([]float64, 0, capacity),
	}
}

// Insert appends the pair (index, value). No attempt is made to merge
// with an existing entry at the same index.
func (v *SparseVector) Insert(index int, value float64) {
	v.indices = append(v.indices, index)
	v.values = append(v.values, value)
}

// Len returns the number of stored pairs, duplicates included.
func (v *SparseVector) Len() int {
	return len(v.indices)
}

// Clear removes all pairs but keeps the backing storage.
func (v *SparseVector) Clear() {
	v.indices = v.indices[:0]
	v.values = v.values[:0]
}

// ForEach visits the stored pairs in insertion order.
func (v *SparseVector) ForEach(f func(index int, value float64)) {
	for k, i := range v.indices {
		f(i, v.values[k])
	}
}

// Dot returns the inner product with a dense vector.
// Duplicate indices contribute additively.
func (v *SparseVector) Dot(x []float64) float64 {
	dot := 0.0
	for k, i := range v.indices {
		dot += v.values[k] * x[i]
	}
	return dot
}

// AddToDense accumulates scale*v into the dense target.
func (v *SparseVector) AddToDense(target []float64, scale float64) {
	for k, i := range v.indices {
		target[i] += scale * v.values[k]
	}
}

// Scale multiplies every stored value by factor.
func (v *SparseVector) Scale(factor float64) {
	for k := range v.values {
		v.values[k] *= factor
	}
}

// Filter keeps only the pairs whose index satisfies keep,
// preserving insertion order.
func (v *SparseVector) Filter(keep func(index int) bool) {
	n := 0
	for k, i := range v.indices {
		if keep(i) {
			v.indices[n] = i
			v.values[n] = v.values[k]
			n++
		}
	}
	v.indices = v.indices[:n]
	v.values = v.values[:n]
}

// CopyFrom replaces the content with a copy of other.
func (v *SparseVector) CopyFrom(other *SparseVector) {
	v.indices = append(v.indices[:0], other.indices...)
	v.values = append(v.values[:0], other.values...)
}
