// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package models

import (
	"github.com/curioloop/sqpkit/linalg"
	"github.com/curioloop/sqpkit/nlp"
	"github.com/curioloop/sqpkit/numdiff"
)

// WithFiniteDifferences fills the missing first derivatives of a
// problem with central difference approximations. Second derivatives
// are left absent: such problems need the BFGS Hessian model, since the
// exact and convexified models reject a problem without them.
func WithFiniteDifferences(p *nlp.Problem) *nlp.Problem {
	q := *p
	if q.EvalObjectiveGradient == nil {
		grad := make([]float64, p.N)
		q.EvalObjectiveGradient = func(x []float64, gradient *linalg.SparseVector) {
			if err := numdiff.Gradient(p.EvalObjective, x, numdiff.Central, grad); err != nil {
				panic(err)
			}
			for i, v := range grad {
				if v != 0 {
					gradient.Insert(i, v)
				}
			}
		}
	}
	if q.EvalConstraintJacobian == nil && p.M > 0 {
		jac := make([]float64, p.M*p.N)
		q.EvalConstraintJacobian = func(x []float64, jacobian *linalg.RectangularMatrix) {
			if err := numdiff.Jacobian(p.EvalConstraints, p.M, x, numdiff.Central, jac); err != nil {
				panic(err)
			}
			for j := 0; j < p.M; j++ {
				for i := 0; i < p.N; i++ {
					if v := jac[j*p.N+i]; v != 0 {
						jacobian.Row(j).Insert(i, v)
					}
				}
			}
		}
	}
	return &q
}
