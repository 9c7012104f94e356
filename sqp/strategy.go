// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqp

import (
	"github.com/pkg/errors"

	"github.com/curioloop/sqpkit/nlp"
)

// GlobalizationStrategy decides whether a trial iterate makes enough
// progress over the current one, based on the (feasibility,
// objective) progress measures and the predicted reduction of the
// subproblem model.
type GlobalizationStrategy interface {
	// Initialize records the progress of the first iterate.
	Initialize(stats *Statistics, first *nlp.Iterate)
	// Reset clears the acceptance state; invoked when the subproblem
	// definition changes (penalty update, phase switch).
	Reset()
	// Notify adds an iterate to the acceptance state, e.g. to the
	// filter, without an acceptance test.
	Notify(it *nlp.Iterate)
	// CheckAcceptance applies the acceptance test.
	CheckAcceptance(stats *Statistics, current, trial nlp.Progress, objectiveMultiplier, predictedReduction float64) bool
}

// NewGlobalizationStrategy dispatches on the strategy option value.
func NewGlobalizationStrategy(name string, opts Options) (GlobalizationStrategy, error) {
	switch name {
	case "penalty":
		return &meritStrategy{
			decreaseFraction: opts.Float("armijo_decrease_fraction"),
		}, nil
	case "filter":
		return newFilterStrategy(opts, 0), nil
	case "nonmonotone-filter":
		return newFilterStrategy(opts, opts.Int("nonmonotone_memory")), nil
	}
	return nil, errors.Errorf("unknown globalization strategy %q", name)
}
