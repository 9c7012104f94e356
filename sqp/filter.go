// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqp

import (
	"math"

	"github.com/curioloop/sqpkit/nlp"
)

// filter is a set of mutually nondominated (feasibility, objective)
// pairs with an envelope: a point dominates another when the other
// improves neither measure beyond the margins β and γ.
type filter struct {
	beta    float64
	gamma   float64
	entries []nlp.Progress

	initialFeasibility float64
	upperBound         float64
}

func (f *filter) initialize(first nlp.Progress) {
	f.entries = f.entries[:0]
	f.initialFeasibility = first.Feasibility
	f.upperBound = 1e4 * math.Max(1, first.Feasibility)
}

func (f *filter) reset() {
	f.entries = f.entries[:0]
	f.upperBound = 1e4 * math.Max(1, f.initialFeasibility)
}

// dominates reports whether the reference pair blocks the trial
// within the envelope.
func (f *filter) dominates(reference, trial nlp.Progress) bool {
	improvesFeasibility := trial.Feasibility < f.beta*reference.Feasibility
	improvesObjective := trial.Objective < reference.Objective-f.gamma*trial.Feasibility
	return !improvesFeasibility && !improvesObjective
}

// acceptable reports whether the trial is blocked neither by the
// upper bound nor by any stored pair.
func (f *filter) acceptable(trial nlp.Progress) bool {
	if trial.Feasibility >= f.upperBound {
		return false
	}
	for _, entry := range f.entries {
		if f.dominates(entry, trial) {
			return false
		}
	}
	return true
}

// add inserts a pair and drops the entries it dominates outright.
func (f *filter) add(pair nlp.Progress) {
	kept := f.entries[:0]
	for _, entry := range f.entries {
		if entry.Feasibility >= pair.Feasibility && entry.Objective >= pair.Objective {
			continue
		}
		kept = append(kept, entry)
	}
	f.entries = append(kept, pair)
}

// filterStrategy is the filter acceptance test. A trial must be
// acceptable to the filter and to the current iterate; when the
// switching condition holds the objective must additionally satisfy
// an Armijo decrease, otherwise the current pair joins the filter.
//
// With a positive memory the strategy is nonmonotone: the reference
// pair is the average of the last K current pairs instead of the
// current one.
type filterStrategy struct {
	filter filter

	decreaseFraction   float64
	switchingThreshold float64

	memory  int
	history []nlp.Progress
}

func newFilterStrategy(opts Options, memory int) *filterStrategy {
	return &filterStrategy{
		filter: filter{
			beta:  opts.Float("filter_beta"),
			gamma: opts.Float("filter_gamma"),
		},
		decreaseFraction:   opts.Float("armijo_decrease_fraction"),
		switchingThreshold: 1e-4,
		memory:             memory,
	}
}

func (s *filterStrategy) Initialize(_ *Statistics, first *nlp.Iterate) {
	s.filter.initialize(first.Progress)
	s.history = s.history[:0]
}

func (s *filterStrategy) Reset() {
	s.filter.reset()
	s.history = s.history[:0]
}

func (s *filterStrategy) Notify(it *nlp.Iterate) {
	s.filter.add(it.Progress)
}

// reference returns the pair the trial competes against: the current
// pair, or the nonmonotone average over the recent history.
func (s *filterStrategy) reference(current nlp.Progress) nlp.Progress {
	if s.memory == 0 {
		return current
	}
	s.history = append(s.history, current)
	if len(s.history) > s.memory {
		s.history = s.history[len(s.history)-s.memory:]
	}
	avg := nlp.Progress{}
	for _, h := range s.history {
		avg.Feasibility += h.Feasibility
		avg.Objective += h.Objective
	}
	avg.Feasibility /= float64(len(s.history))
	avg.Objective /= float64(len(s.history))
	return avg
}

func (s *filterStrategy) CheckAcceptance(_ *Statistics, current, trial nlp.Progress, _, predictedReduction float64) bool {
	if !s.filter.acceptable(trial) {
		return false
	}
	reference := s.reference(current)
	if s.filter.dominates(reference, trial) {
		return false
	}
	// Switching condition: the model promises a reduction that is
	// not small relative to the current infeasibility.
	switching := predictedReduction > 0 &&
		predictedReduction >= s.switchingThreshold*current.Feasibility*current.Feasibility
	if switching {
		return reference.Objective-trial.Objective >= s.decreaseFraction*predictedReduction
	}
	// φ-step: remember the current pair in the filter.
	s.filter.add(current)
	return true
}
