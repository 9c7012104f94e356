// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqp

import (
	"math"
	"testing"
)

func TestPredictedReductionModelTwoStage(t *testing.T) {
	calls := 0
	// model: linear = -5, quadratic = 1 → pr(α) = α(5 - α)
	m := NewPredictedReductionModel(4, func() (float64, float64) {
		calls++
		return -5, 1
	})

	if got := m.Evaluate(1); got != 4 {
		t.Fatalf("full step value: %v, want 4", got)
	}
	if calls != 0 {
		t.Fatal("coefficients computed for the full step")
	}

	if got := m.Evaluate(0.5); math.Abs(got-2.25) > 1e-15 {
		t.Fatalf("pr(0.5): %v, want 2.25", got)
	}
	if got := m.Evaluate(0.25); math.Abs(got-1.1875) > 1e-15 {
		t.Fatalf("pr(0.25): %v, want 1.1875", got)
	}
	if calls != 1 {
		t.Fatalf("coefficients computed %d times, want 1", calls)
	}
}

func TestDirectionNorm(t *testing.T) {
	d := &Direction{X: []float64{1, -3, 2, 100}}
	d.computeNorm(3) // elastic tail excluded
	if d.Norm != 3 {
		t.Fatalf("norm: %v, want 3", d.Norm)
	}
}

func TestElasticLinearizedResidual(t *testing.T) {
	ev := &ElasticVariables{
		Positive: []ElasticPair{{Constraint: 0, Variable: 2}},
		Negative: []ElasticPair{{Constraint: 1, Variable: 3}},
	}
	x := []float64{7, 8, 0.25, 0.5}
	if got := ev.linearizedResidual(x); got != 0.75 {
		t.Fatalf("residual: %v, want 0.75", got)
	}
}
