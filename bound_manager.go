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

import (
	"log/slog"
	"math"
)

// BoundManager is the single source of truth for every variable's [lo, hi]
// pair. All readers — the tableau, constraint propagators, split handlers —
// consult it directly; no component is allowed to cache a bound across
// decision levels, since every pair is a CDO that rewinds on its own.
type BoundManager struct {
	ctx    *Context
	logger *slog.Logger

	lower []*CDO[float64]
	upper []*CDO[float64]

	tableau Tableau
	pending []Tightening

	firstInconsistent *CDO[int]

	localBounds map[Variable]localBoundPair
}

type localBoundPair struct {
	lo, hi float64
}

// NewBoundManager creates an empty bound manager bound to ctx. logger may be
// nil, in which case tightening decisions are not logged.
func NewBoundManager(ctx *Context, logger *slog.Logger) *BoundManager {
	fi := NewCDO(-1)
	fi.Initialize(ctx)
	return &BoundManager{ctx: ctx, logger: logger, firstInconsistent: fi}
}

// RegisterNewVariable grows storage by one variable, initialized to
// (-∞, +∞), and returns its index.
func (bm *BoundManager) RegisterNewVariable() Variable {
	idx := Variable(len(bm.lower))
	lo := NewCDO(negInf)
	hi := NewCDO(posInf)
	lo.Initialize(bm.ctx)
	hi.Initialize(bm.ctx)
	bm.lower = append(bm.lower, lo)
	bm.upper = append(bm.upper, hi)
	return idx
}

// Initialize registers n fresh variables, equivalent to n calls to
// RegisterNewVariable.
func (bm *BoundManager) Initialize(n int) {
	for i := 0; i < n; i++ {
		bm.RegisterNewVariable()
	}
}

// RegisterTableau installs the non-owning callback target notified by the
// tighten* operations.
func (bm *BoundManager) RegisterTableau(tab Tableau) {
	bm.tableau = tab
}

// GetLowerBound returns v's current lower bound.
func (bm *BoundManager) GetLowerBound(v Variable) float64 {
	return bm.lower[v].Get()
}

// GetUpperBound returns v's current upper bound.
func (bm *BoundManager) GetUpperBound(v Variable) float64 {
	return bm.upper[v].Get()
}

// SetLowerBound updates v's lower bound if x is strictly tighter than the
// current one. It does not notify the tableau.
func (bm *BoundManager) SetLowerBound(v Variable, x float64) bool {
	return bm.tighten(v, x, LowerBound, false)
}

// SetUpperBound updates v's upper bound if x is strictly tighter than the
// current one. It does not notify the tableau.
func (bm *BoundManager) SetUpperBound(v Variable, x float64) bool {
	return bm.tighten(v, x, UpperBound, false)
}

// TightenLowerBound behaves like SetLowerBound but additionally notifies the
// registered tableau so it can adjust the assignment and basic/non-basic
// partition.
func (bm *BoundManager) TightenLowerBound(v Variable, x float64) bool {
	return bm.tighten(v, x, LowerBound, true)
}

// TightenUpperBound behaves like SetUpperBound but additionally notifies the
// registered tableau.
func (bm *BoundManager) TightenUpperBound(v Variable, x float64) bool {
	return bm.tighten(v, x, UpperBound, true)
}

func (bm *BoundManager) tighten(v Variable, x float64, kind TighteningKind, notify bool) bool {
	if math.IsNaN(x) {
		return false
	}

	var accepted bool
	switch kind {
	case LowerBound:
		if x <= bm.lower[v].Get() {
			accepted = false
		} else {
			bm.lower[v].Set(x)
			accepted = true
		}
	case UpperBound:
		if x >= bm.upper[v].Get() {
			accepted = false
		} else {
			bm.upper[v].Set(x)
			accepted = true
		}
	}

	if !accepted {
		bm.debug("tightening rejected", v, x, kind)
		return false
	}

	bm.pending = append(bm.pending, Tightening{Variable: v, Value: x, Kind: kind, Source: ComputedByEngine})

	if bm.lower[v].Get() > bm.upper[v].Get() {
		bm.recordInconsistency(v)
	}

	if notify && bm.tableau != nil {
		switch kind {
		case LowerBound:
			bm.tableau.NotifyLowerBound(v, x)
		case UpperBound:
			bm.tableau.NotifyUpperBound(v, x)
		}
	}

	bm.debug("tightening accepted", v, x, kind)
	return true
}

func (bm *BoundManager) debug(msg string, v Variable, x float64, kind TighteningKind) {
	if bm.logger == nil {
		return
	}
	bm.logger.Debug(msg, "variable", v, "value", x, "kind", kind.String())
}

func (bm *BoundManager) recordInconsistency(v Variable) {
	if bm.firstInconsistent.Get() == -1 {
		bm.firstInconsistent.Set(int(v))
	}
}

// FirstInconsistency returns the first variable observed with lo > hi at
// the current level, and true if one exists. It automatically reverts to
// (0, false) once the level that caused it is popped, since the underlying
// flag is itself a CDO.
func (bm *BoundManager) FirstInconsistency() (Variable, bool) {
	v := bm.firstInconsistent.Get()
	if v == -1 {
		return 0, false
	}
	return Variable(v), true
}

// ConsistentBounds reports whether every variable has lo <= hi.
func (bm *BoundManager) ConsistentBounds() bool {
	for i := range bm.lower {
		if bm.lower[i].Get() > bm.upper[i].Get() {
			return false
		}
	}
	return true
}

// ConsistentBound reports whether v has lo <= hi.
func (bm *BoundManager) ConsistentBound(v Variable) bool {
	return bm.lower[v].Get() <= bm.upper[v].Get()
}

// GetTightenings drains and returns the tightenings recorded since the last
// call.
func (bm *BoundManager) GetTightenings() []Tightening {
	out := bm.pending
	bm.pending = nil
	return out
}

// StoreLocalBounds snapshots every variable's current bounds into a plain
// map, orthogonal to the context stack. Used by speculative propagation
// passes that want to try several tightenings and cheaply roll back without
// pushing a real decision level.
func (bm *BoundManager) StoreLocalBounds() {
	bm.localBounds = make(map[Variable]localBoundPair, len(bm.lower))
	for i := range bm.lower {
		v := Variable(i)
		bm.localBounds[v] = localBoundPair{lo: bm.lower[i].Get(), hi: bm.upper[i].Get()}
	}
}

// RestoreLocalBounds writes back the snapshot taken by StoreLocalBounds.
func (bm *BoundManager) RestoreLocalBounds() {
	for v, pair := range bm.localBounds {
		bm.lower[v].Set(pair.lo)
		bm.upper[v].Set(pair.hi)
	}
}

// ClearLocalBoundsHashMap discards the stored snapshot.
func (bm *BoundManager) ClearLocalBoundsHashMap() {
	bm.localBounds = nil
}
