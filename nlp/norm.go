// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nlp

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Norm selects the vector norm used to aggregate residuals.
type Norm int

const (
	// NormL1 is the 1-norm.
	NormL1 Norm = iota
	// NormL2 is the Euclidean norm.
	NormL2
	// NormL2Squared is the squared Euclidean norm.
	NormL2Squared
	// NormInf is the ∞-norm.
	NormInf
)

// ParseNorm maps an option value to a Norm.
func ParseNorm(name string) (Norm, error) {
	switch name {
	case "L1":
		return NormL1, nil
	case "L2":
		return NormL2, nil
	case "L2_squared":
		return NormL2Squared, nil
	case "Inf":
		return NormInf, nil
	}
	return 0, errors.Errorf("unknown residual norm %q", name)
}

// Of returns the norm of a dense vector.
func (n Norm) Of(v []float64) float64 {
	switch n {
	case NormL1:
		return floats.Norm(v, 1)
	case NormL2:
		return floats.Norm(v, 2)
	case NormL2Squared:
		nrm := floats.Norm(v, 2)
		return nrm * nrm
	case NormInf:
		return floats.Norm(v, math.Inf(1))
	}
	panic("unknown norm")
}

// OfFunc aggregates the m component values f(0), …, f(m-1) without
// materializing them.
func (n Norm) OfFunc(m int, f func(j int) float64) float64 {
	total := 0.0
	for j := 0; j < m; j++ {
		v := math.Abs(f(j))
		switch n {
		case NormL1:
			total += v
		case NormL2, NormL2Squared:
			total += v * v
		case NormInf:
			total = math.Max(total, v)
		}
	}
	if n == NormL2 {
		return math.Sqrt(total)
	}
	return total
}
