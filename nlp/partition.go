// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nlp

// ConstraintPartition splits the constraint indices of an infeasible
// linearization into four disjoint subsets. Infeasible is the
// disjoint union of the two signed infeasibility sets, and the union
// of all four sets is {0, …, m-1}.
type ConstraintPartition struct {
	Feasible             []int
	LowerBoundInfeasible []int
	UpperBoundInfeasible []int
	Infeasible           []int
}

// HasInfeasible reports whether any constraint is infeasible.
func (cp *ConstraintPartition) HasInfeasible() bool {
	return cp != nil && len(cp.Infeasible) > 0
}
