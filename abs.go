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

import "math"

// Abs phases: positive means f = b with b >= 0; negative means f = -b with
// b <= 0.
const (
	AbsPositive PhaseStatus = iota + 1
	AbsNegative
)

// AbsConstraint asserts f == |b| for an input variable B and output
// variable F.
type AbsConstraint struct {
	baseConstraint
	b, f Variable
}

// NewAbsConstraint creates an unregistered absolute-value constraint over
// input b and output f. Call InitializeCDOs before using it with an
// SmtCore.
func NewAbsConstraint(b, f Variable) *AbsConstraint {
	return &AbsConstraint{b: b, f: f, baseConstraint: baseConstraint{numCases: 2}}
}

// Kind implements PwlConstraint.
func (a *AbsConstraint) Kind() ConstraintKind { return KindAbs }

// ParticipatingVariables implements PwlConstraint.
func (a *AbsConstraint) ParticipatingVariables() []Variable { return []Variable{a.b, a.f} }

// Participates implements PwlConstraint.
func (a *AbsConstraint) Participates(v Variable) bool { return v == a.b || v == a.f }

// AllCases implements PwlConstraint.
func (a *AbsConstraint) AllCases() []PhaseStatus { return []PhaseStatus{AbsPositive, AbsNegative} }

// NumCases implements PwlConstraint.
func (a *AbsConstraint) NumCases() int { return a.numCases }

// CaseSplit implements PwlConstraint.
func (a *AbsConstraint) CaseSplit(phase PhaseStatus) CaseSplit {
	switch phase {
	case AbsPositive:
		return CaseSplit{
			Tightenings: []Tightening{
				{Variable: a.b, Value: 0, Kind: LowerBound, Source: ComputedByConstraint},
			},
			Equations: []Equation{
				{Coefficients: map[Variable]float64{a.f: 1, a.b: -1}, Scalar: 0},
			},
			Phase: AbsPositive,
		}
	case AbsNegative:
		return CaseSplit{
			Tightenings: []Tightening{
				{Variable: a.b, Value: 0, Kind: UpperBound, Source: ComputedByConstraint},
			},
			Equations: []Equation{
				{Coefficients: map[Variable]float64{a.f: 1, a.b: 1}, Scalar: 0},
			},
			Phase: AbsNegative,
		}
	default:
		panic(&UnreachableError{Detail: "Abs CaseSplit requested for a phase outside {AbsPositive, AbsNegative}"})
	}
}

// Satisfied implements PwlConstraint.
func (a *AbsConstraint) Satisfied() bool {
	if a.tableau == nil {
		return true
	}
	bVal := a.tableau.ValueOf(a.b)
	fVal := a.tableau.ValueOf(a.f)
	return math.Abs(fVal-math.Abs(bVal)) < satisfactionEpsilon
}

// PhaseFixed implements PwlConstraint.
func (a *AbsConstraint) PhaseFixed() bool {
	if a.boundManager == nil {
		return false
	}
	lo := a.boundManager.GetLowerBound(a.b)
	hi := a.boundManager.GetUpperBound(a.b)
	return lo >= 0 || hi <= 0
}

// ValidCaseSplit implements PwlConstraint. Precondition: PhaseFixed().
func (a *AbsConstraint) ValidCaseSplit() CaseSplit {
	if a.boundManager == nil {
		panic(&UnreachableError{Detail: "Abs ValidCaseSplit called without a bound manager"})
	}
	if a.boundManager.GetLowerBound(a.b) >= 0 {
		return a.CaseSplit(AbsPositive)
	}
	return a.CaseSplit(AbsNegative)
}

// EntailedTightenings implements PwlConstraint.
func (a *AbsConstraint) EntailedTightenings() []Tightening {
	if a.boundManager == nil {
		return nil
	}
	bLo := a.boundManager.GetLowerBound(a.b)
	bHi := a.boundManager.GetUpperBound(a.b)

	candidates := []float64{math.Abs(bLo), math.Abs(bHi)}
	fLo := math.Min(candidates[0], candidates[1])
	fHi := math.Max(candidates[0], candidates[1])
	if bLo <= 0 && bHi >= 0 {
		fLo = 0
	}
	return []Tightening{
		{Variable: a.f, Value: fLo, Kind: LowerBound, Source: ComputedByConstraint},
		{Variable: a.f, Value: fHi, Kind: UpperBound, Source: ComputedByConstraint},
	}
}

// NextFeasibleCase implements PwlConstraint.
func (a *AbsConstraint) NextFeasibleCase() PhaseStatus {
	if a.PhaseFixed() {
		return a.ValidCaseSplit().Phase
	}
	return a.firstFeasibleCase(a.AllCases())
}

// UpdateVariableIndex implements PwlConstraint.
func (a *AbsConstraint) UpdateVariableIndex(oldVar, newVar Variable) {
	if a.b == oldVar {
		a.b = newVar
	}
	if a.f == oldVar {
		a.f = newVar
	}
}

// Duplicate implements PwlConstraint.
func (a *AbsConstraint) Duplicate(ctx *Context) PwlConstraint {
	clone := &AbsConstraint{b: a.b, f: a.f}
	clone.numCases = a.numCases
	clone.score = a.score
	clone.obsolete = a.obsolete
	clone.tableau = a.tableau
	clone.boundManager = a.boundManager
	clone.InitializeCDOs(ctx)
	clone.SetActive(a.Active())
	clone.SetPhase(a.Phase())
	return clone
}

var _ PwlConstraint = (*AbsConstraint)(nil)
