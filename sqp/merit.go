// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqp

import (
	"github.com/curioloop/sqpkit/nlp"
)

// meritStrategy accepts a trial iterate when the ℓ1 merit function
// φ_σ(𝐱) = σ𝒇(𝐱) + φ(𝐱) decreases by at least a fraction of the
// predicted reduction (an Armijo-type test).
type meritStrategy struct {
	decreaseFraction float64
}

func (s *meritStrategy) Initialize(*Statistics, *nlp.Iterate) {}

func (s *meritStrategy) Reset() {}

func (s *meritStrategy) Notify(*nlp.Iterate) {}

func (s *meritStrategy) CheckAcceptance(_ *Statistics, current, trial nlp.Progress, objectiveMultiplier, predictedReduction float64) bool {
	if predictedReduction <= 0 {
		return false
	}
	currentMerit := objectiveMultiplier*current.Objective + current.Feasibility
	trialMerit := objectiveMultiplier*trial.Objective + trial.Feasibility
	actualReduction := currentMerit - trialMerit
	return actualReduction >= s.decreaseFraction*predictedReduction
}
