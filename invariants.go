// Copyright 2025 Contriboss
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package smtcore

import "fmt"

// InvariantViolation reports a failed quantified invariant. It is a plain
// error, not one of the fatal error kinds in errors.go: invariant checks are
// an opt-in debugging harness, not something the core itself ever raises.
type InvariantViolation struct {
	Name   string
	Detail string
}

// Error implements the error interface.
func (v *InvariantViolation) Error() string {
	return fmt.Sprintf("%s violated: %s", v.Name, v.Detail)
}

// CheckLevelAgreement verifies I1: the number of open decision levels on the
// trail equals the context's level.
func CheckLevelAgreement(core *SmtCore) error {
	decisions := core.trail.NumDecisions()
	level := core.ctx.Level()
	if decisions != level {
		return &InvariantViolation{Name: "I1", Detail: fmt.Sprintf("trail has %d open decisions but context is at level %d", decisions, level)}
	}
	return nil
}

// CheckTrailCoherence verifies I2: every entry's DecisionLevel equals the
// count of decisions at or before it, and the first entry at each level
// above 0 is a decision. Level 0 holds only root-level implications.
func CheckTrailCoherence(core *SmtCore) error {
	entries := core.trail.All()
	seenLevel := 0
	firstAtLevel := map[int]bool{}
	for i, e := range entries {
		if e.IsDecision {
			seenLevel++
		}
		if e.DecisionLevel != seenLevel {
			return &InvariantViolation{Name: "I2", Detail: fmt.Sprintf("entry %d has decisionLevel %d, expected %d", i, e.DecisionLevel, seenLevel)}
		}
		if e.DecisionLevel > 0 && !firstAtLevel[e.DecisionLevel] {
			firstAtLevel[e.DecisionLevel] = true
			if !e.IsDecision {
				return &InvariantViolation{Name: "I2", Detail: fmt.Sprintf("first entry at level %d (index %d) is not a decision", e.DecisionLevel, i)}
			}
		}
	}
	return nil
}

// ConstraintSnapshot captures one constraint's context-dependent state for
// comparison across a push/pop pair.
type ConstraintSnapshot struct {
	Active          bool
	Phase           PhaseStatus
	InfeasibleCases []PhaseStatus
}

// SnapshotConstraint captures c's current CDO-backed state.
func SnapshotConstraint(c PwlConstraint) ConstraintSnapshot {
	cases := c.InfeasibleCases()
	cp := make([]PhaseStatus, len(cases))
	copy(cp, cases)
	return ConstraintSnapshot{Active: c.Active(), Phase: c.Phase(), InfeasibleCases: cp}
}

// CheckBacktrackSoundness verifies I3 for one popped decision: before is the
// constraint's snapshot taken immediately before the original pushDecision,
// after is its state once BacktrackAndContinue has popped that level and
// called MarkInfeasible(triedPhase). Every field must match before except
// that triedPhase must now be present in InfeasibleCases.
func CheckBacktrackSoundness(before, after ConstraintSnapshot, triedPhase PhaseStatus) error {
	if before.Active != after.Active {
		return &InvariantViolation{Name: "I3", Detail: "active flag did not restore across backtrack"}
	}
	if before.Phase != after.Phase {
		return &InvariantViolation{Name: "I3", Detail: "phase did not restore across backtrack"}
	}
	if len(after.InfeasibleCases) != len(before.InfeasibleCases)+1 {
		return &InvariantViolation{Name: "I3", Detail: "infeasibleCases did not gain exactly the tried phase"}
	}
	found := false
	for _, p := range after.InfeasibleCases {
		if p == triedPhase {
			found = true
			break
		}
	}
	if !found {
		return &InvariantViolation{Name: "I3", Detail: "tried phase not present in infeasibleCases after backtrack"}
	}
	return nil
}

// BoundSnapshot holds the [lo, hi] pairs of the variables SnapshotBounds
// was asked for, indexed by variable.
type BoundSnapshot []struct{ Lo, Hi float64 }

// SnapshotBounds captures the current [lo, hi] of the first n variables.
func SnapshotBounds(bm *BoundManager, n int) BoundSnapshot {
	snap := make(BoundSnapshot, n)
	for i := 0; i < n; i++ {
		v := Variable(i)
		snap[i] = struct{ Lo, Hi float64 }{bm.GetLowerBound(v), bm.GetUpperBound(v)}
	}
	return snap
}

// CheckBoundMonotonicity verifies I4 between a push() and its matching
// pop(): lo is non-decreasing and hi is non-increasing, comparing a
// snapshot taken right after push against one taken right before pop.
func CheckBoundMonotonicity(atPush, beforePop BoundSnapshot) error {
	if len(atPush) != len(beforePop) {
		return &InvariantViolation{Name: "I4", Detail: "snapshot length mismatch"}
	}
	for i := range atPush {
		if beforePop[i].Lo < atPush[i].Lo {
			return &InvariantViolation{Name: "I4", Detail: fmt.Sprintf("variable %d lower bound decreased within a level", i)}
		}
		if beforePop[i].Hi > atPush[i].Hi {
			return &InvariantViolation{Name: "I4", Detail: fmt.Sprintf("variable %d upper bound increased within a level", i)}
		}
	}
	return nil
}

// CheckPopRestoration verifies I5: after context.pop(), every variable's
// [lo, hi] equals the value it had immediately before the matching push().
func CheckPopRestoration(beforePush, afterPop BoundSnapshot) error {
	if len(beforePush) != len(afterPop) {
		return &InvariantViolation{Name: "I5", Detail: "snapshot length mismatch"}
	}
	for i := range beforePush {
		if beforePush[i] != afterPop[i] {
			return &InvariantViolation{Name: "I5", Detail: fmt.Sprintf("variable %d bounds did not restore across pop", i)}
		}
	}
	return nil
}

// CheckFeasibleCaseProgress verifies I6: after markInfeasible(p),
// numFeasibleCases decreased by exactly one and p is now in infeasibleCases.
func CheckFeasibleCaseProgress(before, after int, c PwlConstraint, p PhaseStatus) error {
	if after != before-1 {
		return &InvariantViolation{Name: "I6", Detail: fmt.Sprintf("numFeasibleCases went from %d to %d, expected %d", before, after, before-1)}
	}
	for _, x := range c.InfeasibleCases() {
		if x == p {
			return nil
		}
	}
	return &InvariantViolation{Name: "I6", Detail: "marked phase not present in infeasibleCases"}
}
