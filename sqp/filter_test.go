// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqp

import (
	"testing"

	"github.com/curioloop/sqpkit/nlp"
)

func iterateWithProgress(feasibility, objective float64) *nlp.Iterate {
	it := nlp.NewIterate(1, 0)
	it.Progress = nlp.Progress{Feasibility: feasibility, Objective: objective}
	return it
}

func TestFilterDominance(t *testing.T) {
	f := filter{beta: 0.999, gamma: 0.001}
	f.initialize(nlp.Progress{Feasibility: 10, Objective: 5})
	f.add(nlp.Progress{Feasibility: 1, Objective: 2})

	// Strictly worse in both measures: dominated.
	if f.acceptable(nlp.Progress{Feasibility: 2, Objective: 3}) {
		t.Fatal("dominated pair accepted")
	}
	// Better feasibility beyond the envelope: acceptable.
	if !f.acceptable(nlp.Progress{Feasibility: 0.5, Objective: 100}) {
		t.Fatal("feasibility-improving pair rejected")
	}
	// Better objective beyond the margin: acceptable.
	if !f.acceptable(nlp.Progress{Feasibility: 2, Objective: 1}) {
		t.Fatal("objective-improving pair rejected")
	}
	// Beyond the upper bound on infeasibility: rejected.
	if f.acceptable(nlp.Progress{Feasibility: 1e6, Objective: -100}) {
		t.Fatal("pair above the upper bound accepted")
	}
}

func TestFilterAddPrunesDominatedEntries(t *testing.T) {
	f := filter{beta: 0.999, gamma: 0.001}
	f.initialize(nlp.Progress{Feasibility: 10, Objective: 10})
	f.add(nlp.Progress{Feasibility: 4, Objective: 4})
	f.add(nlp.Progress{Feasibility: 2, Objective: 2}) // dominates the first
	if len(f.entries) != 1 {
		t.Fatalf("entries: %d, want 1", len(f.entries))
	}
}

func TestFilterStrategyAcceptance(t *testing.T) {
	s := newFilterStrategy(DefaultOptions(), 0)
	s.Initialize(nil, iterateWithProgress(1, 10))

	current := nlp.Progress{Feasibility: 1, Objective: 10}
	improving := nlp.Progress{Feasibility: 0.1, Objective: 9}
	if !s.CheckAcceptance(nil, current, improving, 1, 0.5) {
		t.Fatal("improving trial rejected")
	}
	worse := nlp.Progress{Feasibility: 1.5, Objective: 11}
	if s.CheckAcceptance(nil, current, worse, 1, 0.5) {
		t.Fatal("worse trial accepted")
	}
}

func TestFilterSwitchingCondition(t *testing.T) {
	s := newFilterStrategy(DefaultOptions(), 0)
	s.Initialize(nil, iterateWithProgress(2, 10))
	current := nlp.Progress{Feasibility: 2, Objective: 10}
	trial := nlp.Progress{Feasibility: 1, Objective: 10}

	// Tiny predicted reduction: switching fails, the current pair
	// enters the filter, and the trial is accepted as a φ-step.
	if !s.CheckAcceptance(nil, current, trial, 1, 1e-9) {
		t.Fatal("φ-step rejected")
	}
	if len(s.filter.entries) == 0 {
		t.Fatal("current pair not added to the filter on a φ-step")
	}

	// Large predicted reduction without objective decrease: rejected.
	stall := nlp.Progress{Feasibility: 1.5, Objective: 10}
	if s.CheckAcceptance(nil, current, stall, 1, 10) {
		t.Fatal("Armijo test not applied under the switching condition")
	}
}

func TestNonmonotoneFilterAveragesReferences(t *testing.T) {
	opts := DefaultOptions()
	s := newFilterStrategy(opts, 2)
	s.Initialize(nil, iterateWithProgress(0, 10))

	// After observing objectives 10 and 2, the averaged reference
	// objective is 6: a trial at 5 is acceptable even though it is
	// worse than the most recent pair.
	if !s.CheckAcceptance(nil, nlp.Progress{Feasibility: 0, Objective: 10}, nlp.Progress{Feasibility: 0, Objective: 2}, 1, 8) {
		t.Fatal("first trial rejected")
	}
	if !s.CheckAcceptance(nil, nlp.Progress{Feasibility: 0, Objective: 2}, nlp.Progress{Feasibility: 0, Objective: 5}, 1, 1) {
		t.Fatal("nonmonotone acceptance failed")
	}
}

func TestMeritStrategy(t *testing.T) {
	s := &meritStrategy{decreaseFraction: 1e-8}
	current := nlp.Progress{Feasibility: 2, Objective: 5}
	trial := nlp.Progress{Feasibility: 1, Objective: 4.5}

	// merit decreases from 7 to 5.5 with σ = 1
	if !s.CheckAcceptance(nil, current, trial, 1, 1.0) {
		t.Fatal("decreasing merit rejected")
	}
	// nonpositive predicted reduction: reject
	if s.CheckAcceptance(nil, current, trial, 1, 0) {
		t.Fatal("accepted without positive predicted reduction")
	}
	// merit increases: reject
	worse := nlp.Progress{Feasibility: 3, Objective: 6}
	if s.CheckAcceptance(nil, current, worse, 1, 1.0) {
		t.Fatal("increasing merit accepted")
	}
}
