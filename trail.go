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

// TrailEntry records one asserted case, decision or implication.
// Constraint is a non-owning handle into the Engine's stable constraint
// collection; the constraint's lifetime strictly exceeds the trail's.
type TrailEntry struct {
	Constraint    PwlConstraint
	Phase         PhaseStatus
	IsDecision    bool
	DecisionLevel int
	// Alternatives holds the remaining cases not yet tried, captured at the
	// moment this decision was pushed. Empty for implications.
	Alternatives []PhaseStatus
}

// Trail is the context-dependent, append-only log of asserted cases. The
// decision index is a second context-dependent list holding one trail
// position per open decision level; decisions.At(k-1) is the position of
// the entry that opened level k. Both lists shrink automatically on pop,
// truncating back to the index recorded at the matching decision level.
type Trail struct {
	entries   *CDOList[TrailEntry]
	decisions *CDOList[int]
}

// NewTrail creates an empty trail bound to ctx.
func NewTrail(ctx *Context) *Trail {
	t := &Trail{entries: NewCDOList[TrailEntry](), decisions: NewCDOList[int]()}
	t.entries.Initialize(ctx)
	t.decisions.Initialize(ctx)
	return t
}

// Len returns the number of live trail entries.
func (t *Trail) Len() int {
	return t.entries.Len()
}

// At returns the entry at index i. Callers must not retain it across a Pop.
func (t *Trail) At(i int) TrailEntry {
	return t.entries.At(i)
}

// All returns the live trail entries. Callers must not retain the returned
// slice across a Pop.
func (t *Trail) All() []TrailEntry {
	return t.entries.All()
}

// NumDecisions returns the number of open decision levels — equal to
// Context.Level() whenever invariant I1 holds.
func (t *Trail) NumDecisions() int {
	return t.decisions.Len()
}

// AppendDecision appends a decision entry and records its position in the
// decision index.
func (t *Trail) AppendDecision(c PwlConstraint, phase PhaseStatus, level int, alternatives []PhaseStatus) {
	t.entries.PushBack(TrailEntry{
		Constraint: c, Phase: phase, IsDecision: true,
		DecisionLevel: level, Alternatives: alternatives,
	})
	t.decisions.PushBack(t.entries.Len() - 1)
}

// AppendImplication appends an implication entry. It does not open a new
// decision level.
func (t *Trail) AppendImplication(c PwlConstraint, phase PhaseStatus, level int) {
	t.entries.PushBack(TrailEntry{Constraint: c, Phase: phase, IsDecision: false, DecisionLevel: level})
}

// LastDecision returns the most recently opened decision level's entry.
// Precondition: NumDecisions() > 0.
func (t *Trail) LastDecision() TrailEntry {
	idx := t.decisions.At(t.decisions.Len() - 1)
	return t.entries.At(idx)
}
