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

// MaxConstraint asserts f == max(inputs...). Its phase is the 1-based index
// into inputs of the input currently asserted to be the maximum.
type MaxConstraint struct {
	baseConstraint
	inputs []Variable
	f      Variable
}

// NewMaxConstraint creates an unregistered max constraint over the given
// inputs and output f. Call InitializeCDOs before using it with an
// SmtCore.
func NewMaxConstraint(f Variable, inputs []Variable) *MaxConstraint {
	cp := make([]Variable, len(inputs))
	copy(cp, inputs)
	return &MaxConstraint{f: f, inputs: cp, baseConstraint: baseConstraint{numCases: len(cp)}}
}

// Kind implements PwlConstraint.
func (m *MaxConstraint) Kind() ConstraintKind { return KindMax }

// ParticipatingVariables implements PwlConstraint.
func (m *MaxConstraint) ParticipatingVariables() []Variable {
	out := make([]Variable, 0, len(m.inputs)+1)
	out = append(out, m.inputs...)
	return append(out, m.f)
}

// Participates implements PwlConstraint.
func (m *MaxConstraint) Participates(v Variable) bool {
	if v == m.f {
		return true
	}
	for _, x := range m.inputs {
		if x == v {
			return true
		}
	}
	return false
}

// AllCases implements PwlConstraint: one case per input, in input order.
func (m *MaxConstraint) AllCases() []PhaseStatus {
	cases := make([]PhaseStatus, len(m.inputs))
	for i := range m.inputs {
		cases[i] = PhaseStatus(i + 1)
	}
	return cases
}

// NumCases implements PwlConstraint.
func (m *MaxConstraint) NumCases() int { return m.numCases }

// CaseSplit implements PwlConstraint.
func (m *MaxConstraint) CaseSplit(phase PhaseStatus) CaseSplit {
	idx := int(phase) - 1
	if idx < 0 || idx >= len(m.inputs) {
		panic(&UnreachableError{Detail: "Max CaseSplit requested for an out-of-range phase"})
	}
	return CaseSplit{
		Equations: []Equation{
			{Coefficients: map[Variable]float64{m.f: 1, m.inputs[idx]: -1}, Scalar: 0},
		},
		Phase: phase,
	}
}

// Satisfied implements PwlConstraint.
func (m *MaxConstraint) Satisfied() bool {
	if m.tableau == nil {
		return true
	}
	fVal := m.tableau.ValueOf(m.f)
	maxVal := math.Inf(-1)
	for _, x := range m.inputs {
		if v := m.tableau.ValueOf(x); v > maxVal {
			maxVal = v
		}
	}
	return math.Abs(fVal-maxVal) < satisfactionEpsilon
}

// dominantIndex returns the index of the input whose lower bound is
// strictly above every other input's upper bound — the only input that can still be
// the maximum given current bounds — using the same totally-ordered bound
// comparison the bound/interval algebra provides for case-heavy families.
func (m *MaxConstraint) dominantIndex() (int, bool) {
	if m.boundManager == nil {
		return -1, false
	}
	n := len(m.inputs)
	los := make([]floatBound, n)
	his := make([]floatBound, n)
	for i, x := range m.inputs {
		los[i] = newLowerBound(m.boundManager.GetLowerBound(x), true)
		his[i] = newUpperBound(m.boundManager.GetUpperBound(x), true)
	}
	for i := 0; i < n; i++ {
		dominant := true
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			if !upperLessThanLower(his[j], los[i]) {
				dominant = false
				break
			}
		}
		if dominant {
			return i, true
		}
	}
	return -1, false
}

// PhaseFixed implements PwlConstraint.
func (m *MaxConstraint) PhaseFixed() bool {
	_, ok := m.dominantIndex()
	return ok
}

// ValidCaseSplit implements PwlConstraint. Precondition: PhaseFixed().
func (m *MaxConstraint) ValidCaseSplit() CaseSplit {
	idx, ok := m.dominantIndex()
	if !ok {
		panic(&UnreachableError{Detail: "Max ValidCaseSplit called without a dominant input"})
	}
	return m.CaseSplit(PhaseStatus(idx + 1))
}

// EntailedTightenings implements PwlConstraint: f's bounds are the max of
// the inputs' respective lower and upper bounds.
func (m *MaxConstraint) EntailedTightenings() []Tightening {
	if m.boundManager == nil {
		return nil
	}
	loMax, hiMax := negInf, negInf
	for _, x := range m.inputs {
		if lo := m.boundManager.GetLowerBound(x); lo > loMax {
			loMax = lo
		}
		if hi := m.boundManager.GetUpperBound(x); hi > hiMax {
			hiMax = hi
		}
	}
	return []Tightening{
		{Variable: m.f, Value: loMax, Kind: LowerBound, Source: ComputedByConstraint},
		{Variable: m.f, Value: hiMax, Kind: UpperBound, Source: ComputedByConstraint},
	}
}

// PossibleFixes implements PwlConstraint: propose raising each input to f's
// current value, or lowering f to the current maximum input.
func (m *MaxConstraint) PossibleFixes() []VariableFix {
	if m.tableau == nil {
		return nil
	}
	fVal := m.tableau.ValueOf(m.f)
	maxVal := math.Inf(-1)
	fixes := make([]VariableFix, 0, len(m.inputs)+1)
	for _, x := range m.inputs {
		if v := m.tableau.ValueOf(x); v > maxVal {
			maxVal = v
		}
		fixes = append(fixes, VariableFix{Variable: x, Value: fVal})
	}
	return append(fixes, VariableFix{Variable: m.f, Value: maxVal})
}

// SmartFixes implements PwlConstraint: propose only the single cheapest
// repair — pulling f and the current argmax input together.
func (m *MaxConstraint) SmartFixes(tab Tableau) []VariableFix {
	if tab == nil {
		return m.PossibleFixes()
	}
	fVal := tab.ValueOf(m.f)
	maxVal := math.Inf(-1)
	var argmax Variable
	for _, x := range m.inputs {
		if v := tab.ValueOf(x); v > maxVal {
			maxVal = v
			argmax = x
		}
	}
	if math.Abs(fVal-maxVal) < satisfactionEpsilon {
		return nil
	}
	return []VariableFix{{Variable: m.f, Value: maxVal}, {Variable: argmax, Value: fVal}}
}

// NextFeasibleCase implements PwlConstraint.
func (m *MaxConstraint) NextFeasibleCase() PhaseStatus {
	if m.PhaseFixed() {
		return m.ValidCaseSplit().Phase
	}
	return m.firstFeasibleCase(m.AllCases())
}

// UpdateVariableIndex implements PwlConstraint.
func (m *MaxConstraint) UpdateVariableIndex(oldVar, newVar Variable) {
	if m.f == oldVar {
		m.f = newVar
	}
	for i, x := range m.inputs {
		if x == oldVar {
			m.inputs[i] = newVar
		}
	}
}

// Duplicate implements PwlConstraint.
func (m *MaxConstraint) Duplicate(ctx *Context) PwlConstraint {
	cp := make([]Variable, len(m.inputs))
	copy(cp, m.inputs)
	clone := &MaxConstraint{f: m.f, inputs: cp}
	clone.numCases = m.numCases
	clone.score = m.score
	clone.obsolete = m.obsolete
	clone.tableau = m.tableau
	clone.boundManager = m.boundManager
	clone.InitializeCDOs(ctx)
	clone.SetActive(m.Active())
	clone.SetPhase(m.Phase())
	return clone
}

var _ PwlConstraint = (*MaxConstraint)(nil)
