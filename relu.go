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

// ReLU phases: active means f = b with b >= 0; inactive means f = 0 with
// b <= 0.
const (
	ReluActive PhaseStatus = iota + 1
	ReluInactive
)

const satisfactionEpsilon = 1e-8

// ReLUConstraint asserts f == max(0, b) for an input variable B and output
// variable F.
type ReLUConstraint struct {
	baseConstraint
	b, f       Variable
	eliminated map[Variable]bool
}

// NewReLUConstraint creates an unregistered ReLU constraint over input b
// and output f. Call InitializeCDOs before using it with an SmtCore.
func NewReLUConstraint(b, f Variable) *ReLUConstraint {
	return &ReLUConstraint{b: b, f: f, baseConstraint: baseConstraint{numCases: 2}}
}

// Kind implements PwlConstraint.
func (r *ReLUConstraint) Kind() ConstraintKind { return KindReLU }

// ParticipatingVariables implements PwlConstraint.
func (r *ReLUConstraint) ParticipatingVariables() []Variable { return []Variable{r.b, r.f} }

// Participates implements PwlConstraint.
func (r *ReLUConstraint) Participates(v Variable) bool { return v == r.b || v == r.f }

// AllCases implements PwlConstraint.
func (r *ReLUConstraint) AllCases() []PhaseStatus { return []PhaseStatus{ReluActive, ReluInactive} }

// NumCases implements PwlConstraint.
func (r *ReLUConstraint) NumCases() int { return r.numCases }

// CaseSplit implements PwlConstraint.
func (r *ReLUConstraint) CaseSplit(phase PhaseStatus) CaseSplit {
	switch phase {
	case ReluActive:
		return CaseSplit{
			Tightenings: []Tightening{
				{Variable: r.b, Value: 0, Kind: LowerBound, Source: ComputedByConstraint},
			},
			Equations: []Equation{
				{Coefficients: map[Variable]float64{r.f: 1, r.b: -1}, Scalar: 0},
			},
			Phase: ReluActive,
		}
	case ReluInactive:
		return CaseSplit{
			Tightenings: []Tightening{
				{Variable: r.b, Value: 0, Kind: UpperBound, Source: ComputedByConstraint},
				{Variable: r.f, Value: 0, Kind: LowerBound, Source: ComputedByConstraint},
				{Variable: r.f, Value: 0, Kind: UpperBound, Source: ComputedByConstraint},
			},
			Phase: ReluInactive,
		}
	default:
		panic(&UnreachableError{Detail: "ReLU CaseSplit requested for a phase outside {ReluActive, ReluInactive}"})
	}
}

// Satisfied implements PwlConstraint.
func (r *ReLUConstraint) Satisfied() bool {
	if r.tableau == nil {
		return true
	}
	bVal := r.tableau.ValueOf(r.b)
	fVal := r.tableau.ValueOf(r.f)
	return math.Abs(fVal-math.Max(0, bVal)) < satisfactionEpsilon
}

// PhaseFixed implements PwlConstraint: true once b's bounds alone pin one
// side of zero.
func (r *ReLUConstraint) PhaseFixed() bool {
	if r.boundManager == nil {
		return false
	}
	lo := r.boundManager.GetLowerBound(r.b)
	hi := r.boundManager.GetUpperBound(r.b)
	return lo >= 0 || hi <= 0
}

// ValidCaseSplit implements PwlConstraint. Precondition: PhaseFixed().
func (r *ReLUConstraint) ValidCaseSplit() CaseSplit {
	if r.boundManager == nil {
		panic(&UnreachableError{Detail: "ReLU ValidCaseSplit called without a bound manager"})
	}
	if r.boundManager.GetLowerBound(r.b) >= 0 {
		return r.CaseSplit(ReluActive)
	}
	return r.CaseSplit(ReluInactive)
}

// EntailedTightenings implements PwlConstraint: f's bounds entailed by b's
// current [lo, hi] under f = max(0, b).
func (r *ReLUConstraint) EntailedTightenings() []Tightening {
	if r.boundManager == nil {
		return nil
	}
	bLo := r.boundManager.GetLowerBound(r.b)
	bHi := r.boundManager.GetUpperBound(r.b)
	fLo := math.Max(0, bLo)
	fHi := math.Max(0, bHi)
	return []Tightening{
		{Variable: r.f, Value: fLo, Kind: LowerBound, Source: ComputedByConstraint},
		{Variable: r.f, Value: fHi, Kind: UpperBound, Source: ComputedByConstraint},
	}
}

// EliminateVariable implements PwlConstraint: preprocessing has fixed v to
// fixedValue and will no longer report its bounds. Once both participating
// variables have been eliminated this way, the constraint has nothing left
// to split on and is marked obsolete.
func (r *ReLUConstraint) EliminateVariable(v Variable, fixedValue float64) {
	if !r.Participates(v) {
		return
	}
	if r.eliminated == nil {
		r.eliminated = make(map[Variable]bool, 2)
	}
	r.eliminated[v] = true
	if r.eliminated[r.b] && r.eliminated[r.f] {
		r.obsolete = true
	}
}

// NextFeasibleCase implements PwlConstraint.
func (r *ReLUConstraint) NextFeasibleCase() PhaseStatus {
	if r.PhaseFixed() {
		return r.ValidCaseSplit().Phase
	}
	return r.firstFeasibleCase(r.AllCases())
}

// UpdateVariableIndex implements PwlConstraint.
func (r *ReLUConstraint) UpdateVariableIndex(oldVar, newVar Variable) {
	if r.b == oldVar {
		r.b = newVar
	}
	if r.f == oldVar {
		r.f = newVar
	}
}

// Duplicate implements PwlConstraint.
func (r *ReLUConstraint) Duplicate(ctx *Context) PwlConstraint {
	clone := &ReLUConstraint{b: r.b, f: r.f}
	if r.eliminated != nil {
		clone.eliminated = make(map[Variable]bool, len(r.eliminated))
		for k, v := range r.eliminated {
			clone.eliminated[k] = v
		}
	}
	clone.numCases = r.numCases
	clone.score = r.score
	clone.obsolete = r.obsolete
	clone.tableau = r.tableau
	clone.boundManager = r.boundManager
	clone.InitializeCDOs(ctx)
	clone.SetActive(r.Active())
	clone.SetPhase(r.Phase())
	return clone
}

var _ PwlConstraint = (*ReLUConstraint)(nil)
