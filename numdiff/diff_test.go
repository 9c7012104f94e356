// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numdiff

import (
	"math"
	"testing"
)

func TestGradientForward(t *testing.T) {
	f := func(x []float64) float64 { return x[0]*x[0] + 3*x[1] }
	x := []float64{2, -1}
	grad := make([]float64, 2)
	if err := Gradient(f, x, Forward, grad); err != nil {
		t.Fatal(err)
	}
	if math.Abs(grad[0]-4) > 1e-6 || math.Abs(grad[1]-3) > 1e-6 {
		t.Fatalf("gradient: %v, want [4 3]", grad)
	}
}

func TestGradientCentral(t *testing.T) {
	f := func(x []float64) float64 { return math.Sin(x[0]) }
	x := []float64{0.5}
	grad := make([]float64, 1)
	if err := Gradient(f, x, Central, grad); err != nil {
		t.Fatal(err)
	}
	if math.Abs(grad[0]-math.Cos(0.5)) > 1e-8 {
		t.Fatalf("gradient: %v, want cos(0.5)", grad[0])
	}
}

func TestJacobianCentral(t *testing.T) {
	c := func(x, y []float64) {
		y[0] = x[0] * x[1]
		y[1] = x[0] - x[1]
	}
	x := []float64{3, 4}
	jac := make([]float64, 4)
	if err := Jacobian(c, 2, x, Central, jac); err != nil {
		t.Fatal(err)
	}
	want := []float64{4, 3, 1, -1}
	for k := range want {
		if math.Abs(jac[k]-want[k]) > 1e-7 {
			t.Fatalf("jacobian[%d]: %v, want %v", k, jac[k], want[k])
		}
	}
}

func TestDimensionChecks(t *testing.T) {
	if err := Gradient(func([]float64) float64 { return 0 }, []float64{1}, Forward, make([]float64, 2)); err == nil {
		t.Fatal("gradient dimension mismatch not detected")
	}
	if err := Jacobian(func(x, y []float64) {}, 2, []float64{1}, Forward, make([]float64, 3)); err == nil {
		t.Fatal("jacobian dimension mismatch not detected")
	}
}
