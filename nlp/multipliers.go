// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nlp

import "gonum.org/v1/gonum/floats"

// Multipliers holds the dual variables of a nonlinear program.
// Sign convention: lower-bound and constraint lower-active multipliers
// are nonnegative, upper-active multipliers are nonpositive.
type Multipliers struct {
	Constraints []float64 // length m
	LowerBounds []float64 // length n
	UpperBounds []float64 // length n
}

// NewMultipliers allocates zero multipliers for n variables and m
// constraints.
func NewMultipliers(n, m int) Multipliers {
	return Multipliers{
		Constraints: make([]float64, m),
		LowerBounds: make([]float64, n),
		UpperBounds: make([]float64, n),
	}
}

// Clone returns a deep copy.
func (m Multipliers) Clone() Multipliers {
	c := NewMultipliers(len(m.LowerBounds), len(m.Constraints))
	copy(c.Constraints, m.Constraints)
	copy(c.LowerBounds, m.LowerBounds)
	copy(c.UpperBounds, m.UpperBounds)
	return c
}

// AddScaled accumulates scale*other into m.
func (m Multipliers) AddScaled(other Multipliers, scale float64) {
	floats.AddScaled(m.Constraints, scale, other.Constraints)
	floats.AddScaled(m.LowerBounds, scale, other.LowerBounds)
	floats.AddScaled(m.UpperBounds, scale, other.UpperBounds)
}
