// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sqp implements the SQP iteration engine: subproblem
// construction, constraint relaxation, globalization strategies and
// mechanisms, and the outer driver loop.
package sqp

import (
	"fmt"

	"github.com/pkg/errors"
)

// NumericalError wraps a failure of a function evaluation, a
// factorization or a subproblem solve. The globalization mechanisms
// recover from it locally by shrinking the trust region or
// backtracking; anything else propagates it to the driver.
type NumericalError struct {
	Op  string
	Err error
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("numerical error in %s: %v", e.Op, e.Err)
}

func (e *NumericalError) Unwrap() error { return e.Err }

// numerical wraps err as a NumericalError.
func numerical(op string, err error) error {
	return &NumericalError{Op: op, Err: err}
}

// IsNumerical reports whether err is (or wraps) a NumericalError.
func IsNumerical(err error) bool {
	var ne *NumericalError
	return errors.As(err, &ne)
}

// Terminal mechanism failures. They surface to the driver, which
// converts them into the MechanismFailure status.
var (
	ErrTrustRegionTooSmall = errors.New("trust-region radius became too small")
	ErrLineSearchFailed    = errors.New("line search failed to make progress")
)
