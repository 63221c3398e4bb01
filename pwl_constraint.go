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

// ConstraintKind tags a PwlConstraint's family.
type ConstraintKind int

const (
	KindReLU ConstraintKind = iota
	KindAbs
	KindMax
	KindDisjunction
)

// String implements fmt.Stringer.
func (k ConstraintKind) String() string {
	switch k {
	case KindReLU:
		return "ReLU"
	case KindAbs:
		return "Abs"
	case KindMax:
		return "Max"
	case KindDisjunction:
		return "Disjunction"
	default:
		return "Unknown"
	}
}

// VariableFix is a candidate (variable, value) assignment a constraint
// proposes to restore satisfaction without a full case split.
type VariableFix struct {
	Variable Variable
	Value    float64
}

// CostTerm is one constraint's contribution to a convex relaxation
// objective: Coefficient * Variable. Empty when the constraint is satisfied
// or inactive.
type CostTerm struct {
	Variable    Variable
	Coefficient float64
}

// Tableau is the subset of the Engine's tableau surface a PwlConstraint
// needs: variable-watcher notifications plus the getters smartFixes uses to
// propose a cheaper repair than a full case split.
type Tableau interface {
	NotifyLowerBound(v Variable, value float64)
	NotifyUpperBound(v Variable, value float64)
	NotifyVariableValue(v Variable, value float64)
	ValueOf(v Variable) float64
}

// PwlConstraint is the polymorphic contract every piecewise-linear
// constraint family (ReLU, Abs, Max, Disjunction, ...) implements. SmtCore
// only ever sees this interface: it never knows which concrete family a
// given constraint belongs to.
type PwlConstraint interface {
	Kind() ConstraintKind
	ParticipatingVariables() []Variable
	Participates(v Variable) bool

	AllCases() []PhaseStatus
	NumCases() int
	CaseSplit(phase PhaseStatus) CaseSplit
	Satisfied() bool
	PhaseFixed() bool
	ValidCaseSplit() CaseSplit

	PossibleFixes() []VariableFix
	SmartFixes(tab Tableau) []VariableFix
	EntailedTightenings() []Tightening

	EliminateVariable(v Variable, fixedValue float64)
	UpdateVariableIndex(oldVar, newVar Variable)
	Obsolete() bool

	NotifyVariableValue(v Variable, value float64)
	NotifyLowerBound(v Variable, value float64)
	NotifyUpperBound(v Variable, value float64)

	CostComponent() []CostTerm

	InitializeCDOs(ctx *Context)
	CDOCleanup()
	Active() bool
	SetActive(active bool)
	Phase() PhaseStatus
	SetPhase(phase PhaseStatus)
	MarkInfeasible(phase PhaseStatus)
	InfeasibleCases() []PhaseStatus
	NumFeasibleCases() int
	IsFeasible() bool
	IsImplication() bool
	NextFeasibleCase() PhaseStatus

	Score() float64
	SetScore(score float64)

	Duplicate(ctx *Context) PwlConstraint
}

// baseConstraint holds the context-dependent bookkeeping (active, phase,
// infeasibleCases) and the score/bound-manager plumbing shared by every
// concrete constraint family, factoring the bookkeeping shared by every
// case-splitting term out of the family-specific logic. Concrete families
// embed this and implement only the case-enumeration and satisfaction
// semantics the base cannot know.
type baseConstraint struct {
	active          *CDO[bool]
	phase           *CDO[PhaseStatus]
	infeasibleCases *CDOList[PhaseStatus]

	numCases int
	score    float64
	obsolete bool

	// tableau and boundManager are non-owning weak references: the base
	// constraint reads through them (for satisfied() and
	// entailedTightenings()) but never mutates their lifecycle.
	tableau      Tableau
	boundManager *BoundManager
}

// SetTableau installs the non-owning tableau reference used for variable
// value/bound lookups and watcher callbacks.
func (b *baseConstraint) SetTableau(t Tableau) {
	b.tableau = t
}

// SetBoundManager installs the non-owning bound manager reference used by
// EntailedTightenings and PhaseFixed to read participating variables'
// current [lo, hi].
func (b *baseConstraint) SetBoundManager(bm *BoundManager) {
	b.boundManager = bm
}

// InitializeCDOs allocates and binds the constraint's context-dependent
// state to ctx. Calling it again with a new, non-nil context re-homes the
// existing active/phase/infeasibleCases CDOs, preserving their current
// contents. A clone made by Duplicate starts with empty infeasibleCases
// because its CDOs are freshly allocated, not because of re-initialization.
func (b *baseConstraint) InitializeCDOs(ctx *Context) {
	if b.active == nil {
		b.active = NewCDO(true)
	}
	b.active.Initialize(ctx)

	if b.phase == nil {
		b.phase = NewCDO(PhaseNotFixed)
	}
	b.phase.Initialize(ctx)

	if b.infeasibleCases == nil {
		b.infeasibleCases = NewCDOList[PhaseStatus]()
	}
	b.infeasibleCases.Initialize(ctx)
}

// CDOCleanup releases the constraint's context-dependent state. It is
// idempotent: calling it twice, or before InitializeCDOs, is a no-op.
func (b *baseConstraint) CDOCleanup() {
	b.active = nil
	b.phase = nil
	b.infeasibleCases = nil
}

func (b *baseConstraint) requireInitialized(constraint PwlConstraint, op string) {
	if b.active == nil || b.phase == nil || b.infeasibleCases == nil {
		panic(&NotInitializedError{Constraint: constraint, Operation: op})
	}
}

// Active reports whether the constraint is still eligible for splitting.
func (b *baseConstraint) Active() bool {
	return b.active.Get()
}

// SetActive sets the active flag.
func (b *baseConstraint) SetActive(active bool) {
	b.active.Set(active)
}

// Phase returns the currently asserted case, or PhaseNotFixed.
func (b *baseConstraint) Phase() PhaseStatus {
	return b.phase.Get()
}

// SetPhase asserts a case as currently active.
func (b *baseConstraint) SetPhase(phase PhaseStatus) {
	b.phase.Set(phase)
}

// MarkInfeasible records phase as ruled out in the current sub-tree. It is
// a no-op if phase is already present: the original engine appends
// unconditionally, which would let a caller that (mis)calls it twice on the
// same phase violate I6 (numFeasibleCases decreasing by exactly one).
func (b *baseConstraint) MarkInfeasible(phase PhaseStatus) {
	if b.infeasibleCases.Contains(phase, func(a, c PhaseStatus) bool { return a == c }) {
		return
	}
	b.infeasibleCases.PushBack(phase)
}

// InfeasibleCases returns the cases ruled out at the current sub-tree.
func (b *baseConstraint) InfeasibleCases() []PhaseStatus {
	return b.infeasibleCases.All()
}

// NumFeasibleCases returns numCases minus the number of infeasible cases.
func (b *baseConstraint) NumFeasibleCases() int {
	return b.numCases - b.infeasibleCases.Len()
}

// IsFeasible reports whether at least one case remains.
func (b *baseConstraint) IsFeasible() bool {
	return b.NumFeasibleCases() > 0
}

// IsImplication reports whether exactly one case remains.
func (b *baseConstraint) IsImplication() bool {
	return b.NumFeasibleCases() == 1
}

// Score returns the heuristic split priority; negative means ineligible.
func (b *baseConstraint) Score() float64 {
	return b.score
}

// SetScore sets the heuristic split priority.
func (b *baseConstraint) SetScore(score float64) {
	b.score = score
}

// Obsolete reports whether preprocessing has eliminated this constraint's
// last free variable, making it permanently ineligible for splitting.
func (b *baseConstraint) Obsolete() bool {
	return b.obsolete
}

// NotifyVariableValue is a no-op default; families that need to react to
// value updates (none of the four built-in families do — they read the
// tableau lazily in Satisfied/PhaseFixed instead) define their own method of
// the same name, which shadows this one.
func (b *baseConstraint) NotifyVariableValue(Variable, float64) {}

// NotifyLowerBound is a no-op default; see NotifyVariableValue.
func (b *baseConstraint) NotifyLowerBound(Variable, float64) {}

// NotifyUpperBound is a no-op default; see NotifyVariableValue.
func (b *baseConstraint) NotifyUpperBound(Variable, float64) {}

// PossibleFixes returns no candidate fixes by default. Only Max overrides
// this; ReLU, Abs and Disjunction return none.
func (b *baseConstraint) PossibleFixes() []VariableFix { return nil }

// SmartFixes returns no candidate fixes by default.
func (b *baseConstraint) SmartFixes(Tableau) []VariableFix { return nil }

// CostComponent contributes nothing to the relaxation objective by default;
// this core does not implement optimization objectives, so every family
// uses this default.
func (b *baseConstraint) CostComponent() []CostTerm { return nil }

// EliminateVariable is a no-op default for families with no elimination
// bookkeeping of their own.
func (b *baseConstraint) EliminateVariable(Variable, float64) {}

// firstFeasibleCase returns the first case in allCases not yet marked
// infeasible, or PhaseNotFixed if none remain. Concrete families use this
// for the "not already pinned by bounds" branch of NextFeasibleCase; the
// "pinned by bounds" branch is family-specific (it is whatever
// ValidCaseSplit's phase would be), so it is not handled here.
func (b *baseConstraint) firstFeasibleCase(allCases []PhaseStatus) PhaseStatus {
	for _, c := range allCases {
		if !b.infeasibleCases.Contains(c, func(a, x PhaseStatus) bool { return a == x }) {
			return c
		}
	}
	return PhaseNotFixed
}
