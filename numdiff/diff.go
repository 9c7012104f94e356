// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package numdiff estimates derivatives by finite differences. The
// model library uses it to supply gradients and Jacobians for
// problems registered without hand-coded derivatives.
package numdiff

import (
	"math"

	"github.com/pkg/errors"
)

var (
	sqrtEps = math.Sqrt(math.Nextafter(1, 2) - 1)
	cubeEps = math.Pow(math.Nextafter(1, 2)-1, 1.0/3)
)

// Method selects the finite difference scheme.
type Method int

const (
	// Forward uses the first order accuracy forward difference.
	Forward Method = iota
	// Central uses the second order accuracy central difference.
	Central
)

// step computes the absolute step h = relStep · sign(x) · max(1, |x|).
func (m Method) step(x float64) float64 {
	rel := sqrtEps
	if m == Central {
		rel = cubeEps
	}
	sign := 1.0
	if x < 0 {
		sign = -1
	}
	return rel * sign * math.Max(1, math.Abs(x))
}

// Gradient approximates the derivative of a scalar function at x and
// stores it into grad.
func Gradient(f func(x []float64) float64, x []float64, method Method, grad []float64) error {
	if len(grad) != len(x) {
		return errors.New("numdiff: gradient dimension mismatch")
	}
	point := make([]float64, len(x))
	copy(point, x)
	f0 := math.NaN()
	if method == Forward {
		f0 = f(point)
	}
	for i := range x {
		h := method.step(x[i])
		switch method {
		case Forward:
			point[i] = x[i] + h
			grad[i] = (f(point) - f0) / h
		case Central:
			point[i] = x[i] + h
			fp := f(point)
			point[i] = x[i] - h
			fm := f(point)
			grad[i] = (fp - fm) / (2 * h)
		}
		point[i] = x[i]
	}
	return nil
}

// Jacobian approximates the m×n derivative of a vector function at x
// and stores it row-major into jac.
func Jacobian(c func(x, y []float64), m int, x []float64, method Method, jac []float64) error {
	n := len(x)
	if len(jac) != m*n {
		return errors.New("numdiff: jacobian dimension mismatch")
	}
	point := make([]float64, n)
	copy(point, x)
	y0 := make([]float64, m)
	yp := make([]float64, m)
	ym := make([]float64, m)
	if method == Forward {
		c(point, y0)
	}
	for i := 0; i < n; i++ {
		h := method.step(x[i])
		switch method {
		case Forward:
			point[i] = x[i] + h
			c(point, yp)
			for j := 0; j < m; j++ {
				jac[j*n+i] = (yp[j] - y0[j]) / h
			}
		case Central:
			point[i] = x[i] + h
			c(point, yp)
			point[i] = x[i] - h
			c(point, ym)
			for j := 0; j < m; j++ {
				jac[j*n+i] = (yp[j] - ym[j]) / (2 * h)
			}
		}
		point[i] = x[i]
	}
	return nil
}
