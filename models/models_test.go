// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package models

import (
	"math"
	"testing"

	"github.com/curioloop/sqpkit/linalg"
	"github.com/curioloop/sqpkit/nlp"
	"github.com/curioloop/sqpkit/numdiff"
)

func TestRegistry(t *testing.T) {
	if _, err := Get("hs71"); err != nil {
		t.Fatal(err)
	}
	if _, err := Get("no-such-problem"); err == nil {
		t.Fatal("unknown problem not reported")
	}
	names := Names()
	if len(names) == 0 {
		t.Fatal("registry is empty")
	}
	for k := 1; k < len(names); k++ {
		if names[k-1] >= names[k] {
			t.Fatal("names are not sorted")
		}
	}
}

// checkGradients compares the hand-coded derivatives of a problem
// against central differences at its initial point.
func checkGradients(t *testing.T, p *nlp.Problem, tol float64) {
	t.Helper()
	x := p.InitialPrimal

	grad := linalg.NewSparseVector(p.N)
	p.EvalObjectiveGradient(x, grad)
	dense := make([]float64, p.N)
	grad.AddToDense(dense, 1)
	fd := make([]float64, p.N)
	if err := numdiff.Gradient(p.EvalObjective, x, numdiff.Central, fd); err != nil {
		t.Fatal(err)
	}
	for i := range dense {
		if math.Abs(dense[i]-fd[i]) > tol {
			t.Fatalf("%s: objective gradient component %d: %v vs %v", p.Name, i, dense[i], fd[i])
		}
	}

	if p.M == 0 {
		return
	}
	jac := linalg.NewRectangularMatrix(p.M, p.N)
	p.EvalConstraintJacobian(x, jac)
	fdJac := make([]float64, p.M*p.N)
	if err := numdiff.Jacobian(p.EvalConstraints, p.M, x, numdiff.Central, fdJac); err != nil {
		t.Fatal(err)
	}
	for j := 0; j < p.M; j++ {
		row := make([]float64, p.N)
		jac.Row(j).AddToDense(row, 1)
		for i := 0; i < p.N; i++ {
			if math.Abs(row[i]-fdJac[j*p.N+i]) > tol {
				t.Fatalf("%s: jacobian entry (%d, %d): %v vs %v", p.Name, j, i, row[i], fdJac[j*p.N+i])
			}
		}
	}
}

func TestHandCodedDerivatives(t *testing.T) {
	for _, name := range Names() {
		p, err := Get(name)
		if err != nil {
			t.Fatal(err)
		}
		checkGradients(t, p, 1e-5)
	}
}

func TestHS71Values(t *testing.T) {
	p, _ := Get("hs71")
	x := p.InitialPrimal
	if got := p.EvalObjective(x); math.Abs(got-16) > 1e-12 {
		t.Fatalf("objective at start: %v, want 16", got)
	}
	c := make([]float64, 2)
	p.EvalConstraints(x, c)
	if math.Abs(c[0]-25) > 1e-12 || math.Abs(c[1]-52) > 1e-12 {
		t.Fatalf("constraints at start: %v, want [25 52]", c)
	}
}

func TestWithFiniteDifferences(t *testing.T) {
	p, _ := Get("hs71")
	stripped := *p
	stripped.EvalObjectiveGradient = nil
	stripped.EvalConstraintJacobian = nil
	q := WithFiniteDifferences(&stripped)

	x := p.InitialPrimal
	exact := linalg.NewSparseVector(p.N)
	p.EvalObjectiveGradient(x, exact)
	approx := linalg.NewSparseVector(p.N)
	q.EvalObjectiveGradient(x, approx)

	de := make([]float64, p.N)
	da := make([]float64, p.N)
	exact.AddToDense(de, 1)
	approx.AddToDense(da, 1)
	for i := range de {
		if math.Abs(de[i]-da[i]) > 1e-5 {
			t.Fatalf("fd gradient component %d: %v vs %v", i, da[i], de[i])
		}
	}
}
