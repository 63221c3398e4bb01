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

// DisjunctionConstraint asserts that at least one of a fixed list of case
// splits holds. Unlike ReLU/Abs/Max, a disjunction's cases are not derived
// from a fixed arithmetic shape — they are supplied directly as CaseSplits
// at construction, which is what lets this one family subsume arbitrary
// piecewise-linear case structure the other three don't cover.
type DisjunctionConstraint struct {
	baseConstraint
	variables []Variable
	splits    []CaseSplit
}

// NewDisjunctionConstraint creates an unregistered disjunction over the
// given splits, one per case; their Phase fields are overwritten with
// 1-based case indices. variables is the full set of variables referenced
// across all splits. Call InitializeCDOs before using it with an SmtCore.
func NewDisjunctionConstraint(variables []Variable, splits []CaseSplit) *DisjunctionConstraint {
	vs := make([]Variable, len(variables))
	copy(vs, variables)

	cp := make([]CaseSplit, len(splits))
	for i, s := range splits {
		s.Phase = PhaseStatus(i + 1)
		cp[i] = s
	}

	return &DisjunctionConstraint{variables: vs, splits: cp, baseConstraint: baseConstraint{numCases: len(cp)}}
}

// Kind implements PwlConstraint.
func (d *DisjunctionConstraint) Kind() ConstraintKind { return KindDisjunction }

// ParticipatingVariables implements PwlConstraint.
func (d *DisjunctionConstraint) ParticipatingVariables() []Variable {
	out := make([]Variable, len(d.variables))
	copy(out, d.variables)
	return out
}

// Participates implements PwlConstraint.
func (d *DisjunctionConstraint) Participates(v Variable) bool {
	for _, x := range d.variables {
		if x == v {
			return true
		}
	}
	return false
}

// AllCases implements PwlConstraint.
func (d *DisjunctionConstraint) AllCases() []PhaseStatus {
	cases := make([]PhaseStatus, len(d.splits))
	for i := range d.splits {
		cases[i] = PhaseStatus(i + 1)
	}
	return cases
}

// NumCases implements PwlConstraint.
func (d *DisjunctionConstraint) NumCases() int { return d.numCases }

// CaseSplit implements PwlConstraint.
func (d *DisjunctionConstraint) CaseSplit(phase PhaseStatus) CaseSplit {
	idx := int(phase) - 1
	if idx < 0 || idx >= len(d.splits) {
		panic(&UnreachableError{Detail: "Disjunction CaseSplit requested for an out-of-range phase"})
	}
	return d.splits[idx]
}

func evaluateEquation(e Equation, tab Tableau) float64 {
	sum := 0.0
	for v, c := range e.Coefficients {
		sum += c * tab.ValueOf(v)
	}
	return sum
}

func (d *DisjunctionConstraint) splitHolds(s CaseSplit) bool {
	for _, t := range s.Tightenings {
		v := d.tableau.ValueOf(t.Variable)
		switch t.Kind {
		case LowerBound:
			if v < t.Value-satisfactionEpsilon {
				return false
			}
		case UpperBound:
			if v > t.Value+satisfactionEpsilon {
				return false
			}
		}
	}
	for _, e := range s.Equations {
		if math.Abs(evaluateEquation(e, d.tableau)-e.Scalar) > satisfactionEpsilon {
			return false
		}
	}
	return true
}

// Satisfied implements PwlConstraint.
func (d *DisjunctionConstraint) Satisfied() bool {
	if d.tableau == nil {
		return true
	}
	for _, s := range d.splits {
		if d.splitHolds(s) {
			return true
		}
	}
	return false
}

// splitFeasible reports whether s's tightenings are still consistent with
// the current [lo, hi] of the variables they mention, using the interval
// algebra to intersect the currently allowed range against the range s
// would impose.
func (d *DisjunctionConstraint) splitFeasible(s CaseSplit) bool {
	if d.boundManager == nil {
		return true
	}
	for _, t := range s.Tightenings {
		lo := d.boundManager.GetLowerBound(t.Variable)
		hi := d.boundManager.GetUpperBound(t.Variable)
		current, ok := newInterval(newLowerBound(lo, true), newUpperBound(hi, true))
		if !ok {
			return false
		}

		var required floatInterval
		switch t.Kind {
		case LowerBound:
			required = floatInterval{lower: newLowerBound(t.Value, true), upper: positiveInfinityBound()}
		case UpperBound:
			required = floatInterval{lower: negativeInfinityBound(), upper: newUpperBound(t.Value, true)}
		}

		if _, ok := intersectInterval(current, required); !ok {
			return false
		}
	}
	return true
}

func (d *DisjunctionConstraint) feasibleIndices() []int {
	var out []int
	for i, s := range d.splits {
		if d.splitFeasible(s) {
			out = append(out, i)
		}
	}
	return out
}

// PhaseFixed implements PwlConstraint.
func (d *DisjunctionConstraint) PhaseFixed() bool {
	return len(d.feasibleIndices()) == 1
}

// ValidCaseSplit implements PwlConstraint. Precondition: PhaseFixed().
func (d *DisjunctionConstraint) ValidCaseSplit() CaseSplit {
	idxs := d.feasibleIndices()
	if len(idxs) != 1 {
		panic(&UnreachableError{Detail: "Disjunction ValidCaseSplit called without exactly one feasible case"})
	}
	return d.splits[idxs[0]]
}

// EntailedTightenings implements PwlConstraint: for each variable, the
// union (over every still-feasible case) of the range that case would
// impose, via floatIntervalSet.
func (d *DisjunctionConstraint) EntailedTightenings() []Tightening {
	idxs := d.feasibleIndices()
	if len(idxs) == 0 {
		return nil
	}

	perVar := make(map[Variable]*floatIntervalSet, len(d.variables))
	for _, v := range d.variables {
		perVar[v] = emptyFloatIntervalSet()
	}

	for _, i := range idxs {
		s := d.splits[i]
		touched := make(map[Variable]floatInterval, len(d.variables))
		for _, v := range d.variables {
			touched[v] = floatInterval{lower: negativeInfinityBound(), upper: positiveInfinityBound()}
		}
		for _, t := range s.Tightenings {
			cur := touched[t.Variable]
			switch t.Kind {
			case LowerBound:
				cur.lower = maxBound(cur.lower, newLowerBound(t.Value, true), compareLower)
			case UpperBound:
				cur.upper = minBound(cur.upper, newUpperBound(t.Value, true), compareUpper)
			}
			touched[t.Variable] = cur
		}
		for v, iv := range touched {
			perVar[v] = perVar[v].Union(newFloatIntervalSet([]floatInterval{iv}))
		}
	}

	var out []Tightening
	for _, v := range d.variables {
		lo, hi, ok := perVar[v].Bounds()
		if !ok {
			continue
		}
		if lo > negInf {
			out = append(out, Tightening{Variable: v, Value: lo, Kind: LowerBound, Source: ComputedByConstraint})
		}
		if hi < posInf {
			out = append(out, Tightening{Variable: v, Value: hi, Kind: UpperBound, Source: ComputedByConstraint})
		}
	}
	return out
}

// NextFeasibleCase implements PwlConstraint.
func (d *DisjunctionConstraint) NextFeasibleCase() PhaseStatus {
	if d.PhaseFixed() {
		return d.ValidCaseSplit().Phase
	}
	return d.firstFeasibleCase(d.AllCases())
}

// UpdateVariableIndex implements PwlConstraint.
func (d *DisjunctionConstraint) UpdateVariableIndex(oldVar, newVar Variable) {
	for i, v := range d.variables {
		if v == oldVar {
			d.variables[i] = newVar
		}
	}
	for i := range d.splits {
		for j := range d.splits[i].Tightenings {
			if d.splits[i].Tightenings[j].Variable == oldVar {
				d.splits[i].Tightenings[j].Variable = newVar
			}
		}
		for j := range d.splits[i].Equations {
			eq := d.splits[i].Equations[j]
			if c, ok := eq.Coefficients[oldVar]; ok {
				delete(eq.Coefficients, oldVar)
				eq.Coefficients[newVar] = c
			}
		}
	}
}

// Duplicate implements PwlConstraint.
func (d *DisjunctionConstraint) Duplicate(ctx *Context) PwlConstraint {
	vs := make([]Variable, len(d.variables))
	copy(vs, d.variables)

	splits := make([]CaseSplit, len(d.splits))
	for i, s := range d.splits {
		tc := make([]Tightening, len(s.Tightenings))
		copy(tc, s.Tightenings)

		ec := make([]Equation, len(s.Equations))
		for j, e := range s.Equations {
			coeffs := make(map[Variable]float64, len(e.Coefficients))
			for k, v := range e.Coefficients {
				coeffs[k] = v
			}
			ec[j] = Equation{Coefficients: coeffs, Scalar: e.Scalar}
		}
		splits[i] = CaseSplit{Tightenings: tc, Equations: ec, Phase: s.Phase}
	}

	clone := &DisjunctionConstraint{variables: vs, splits: splits}
	clone.numCases = d.numCases
	clone.score = d.score
	clone.obsolete = d.obsolete
	clone.tableau = d.tableau
	clone.boundManager = d.boundManager
	clone.InitializeCDOs(ctx)
	clone.SetActive(d.Active())
	clone.SetPhase(d.Phase())
	return clone
}

var _ PwlConstraint = (*DisjunctionConstraint)(nil)
