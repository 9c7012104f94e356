// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package nlp defines the view of a nonlinear program consumed by the
// SQP engine: dimensions, bounds, evaluation callbacks, multipliers
// and the optimization iterate with its lazy evaluation cache.
package nlp

import "math"

// BoundType classifies a closed bound pair with ±∞ permitted.
type BoundType int

const (
	// EqualBounds l = u.
	EqualBounds BoundType = iota
	// BoundedBothSides -∞ < l < u < +∞.
	BoundedBothSides
	// BoundedLower -∞ < l, u = +∞.
	BoundedLower
	// BoundedUpper l = -∞, u < +∞.
	BoundedUpper
	// Unbounded l = -∞, u = +∞.
	Unbounded
)

// Bounds is a closed interval [Lower, Upper] with ±∞ permitted.
type Bounds struct {
	Lower, Upper float64
}

// FreeBounds is the unbounded interval.
func FreeBounds() Bounds {
	return Bounds{Lower: math.Inf(-1), Upper: math.Inf(1)}
}

// Type classifies the bound pair.
func (b Bounds) Type() BoundType {
	lower := !math.IsInf(b.Lower, -1)
	upper := !math.IsInf(b.Upper, 1)
	switch {
	case lower && upper && b.Lower == b.Upper:
		return EqualBounds
	case lower && upper:
		return BoundedBothSides
	case lower:
		return BoundedLower
	case upper:
		return BoundedUpper
	}
	return Unbounded
}

// Violation returns max(0, l-v, v-u), the distance of v to the interval.
func (b Bounds) Violation(v float64) float64 {
	return math.Max(0, math.Max(b.Lower-v, v-b.Upper))
}

// Contains reports whether v lies in [l-tol, u+tol].
func (b Bounds) Contains(v, tol float64) bool {
	return b.Lower-tol <= v && v <= b.Upper+tol
}

// Project clamps v into the interval.
func (b Bounds) Project(v float64) float64 {
	if v < b.Lower {
		return b.Lower
	}
	if v > b.Upper {
		return b.Upper
	}
	return v
}
