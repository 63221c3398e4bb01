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
	"fmt"

	"github.com/google/uuid"
)

// debugEpsilon is the slack used when checking an asserted bound tightening
// against a stored debugging-solution witness; it exists only to absorb the
// same floating-point noise the tightening arithmetic itself produces.
const debugEpsilon = 1e-9

// SmtCore orchestrates the split/decide/backtrack loop. It owns the trail
// and decision index, and delegates every piece of state it must rewind on
// backtrack to the Context, BoundManager, and PwlConstraints it was
// constructed with; it never rewinds anything itself beyond calling
// Context.Pop.
//
// State machine (per search node): Idle -> Violating -> NeedSplit ->
// Decided -> (Sat | Unsat-local) -> Backtracking -> Decided | Terminated.
// Transitions are driven exclusively by ReportViolatedConstraint, the
// Engine's satisfiability results, Decide, and BacktrackAndContinue.
type SmtCore struct {
	ctx          *Context
	engine       Engine
	boundManager *BoundManager
	trail        *Trail

	config    Config
	sessionID uuid.UUID

	violationCounts  map[PwlConstraint]int
	needToSplit      bool
	chosenConstraint PwlConstraint

	decisionsOpened int
}

// NewSmtCore creates a search core bound to ctx, driving engine, consulting
// boundManager for the bounds an Engine decision affects.
func NewSmtCore(ctx *Context, engine Engine, boundManager *BoundManager, opts ...Option) *SmtCore {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	core := &SmtCore{
		ctx:             ctx,
		engine:          engine,
		boundManager:    boundManager,
		trail:           NewTrail(ctx),
		config:          cfg,
		sessionID:       uuid.New(),
		violationCounts: make(map[PwlConstraint]int),
	}
	core.log("session started", "violationThreshold", cfg.ViolationThreshold, "heuristic", cfg.SplittingHeuristic)
	return core
}

func (s *SmtCore) log(msg string, args ...any) {
	if s.config.Logger == nil {
		return
	}
	s.config.Logger.With("session", s.sessionID.String()).Debug(msg, args...)
}

// Trail exposes the underlying trail for read-only inspection (e.g. by an
// invariant checker or diagnostic line).
func (s *SmtCore) Trail() *Trail {
	return s.trail
}

// StoreDebuggingSolution installs a witness solution; the path of asserted
// splits is checked against it after every ImplyValidSplit, pushDecision,
// and pushImplication.
func (s *SmtCore) StoreDebuggingSolution(solution map[Variable]float64) {
	s.config.DebugSolution = solution
}

// ReportViolatedConstraint records one violation of c and, once c's
// accumulated count crosses the configured threshold, marks the core as
// needing to split and chooses the constraint to split on.
//
// Precondition (not defended against, per design): callers must not report
// a constraint for which c.PhaseFixed() is true.
func (s *SmtCore) ReportViolatedConstraint(c PwlConstraint) {
	s.violationCounts[c]++
	if !c.Active() {
		return
	}

	count := s.violationCounts[c]
	if count < s.config.ViolationThreshold {
		return
	}

	s.needToSplit = true
	s.chosenConstraint = s.pickSplitPLConstraint(c)
	s.log("violation threshold crossed", "kind", c.Kind().String(), "count", count, "chosen", s.chosenConstraint.Kind().String())
}

// pickSplitPLConstraint implements the split-constraint heuristic: under
// SplittingHeuristicReLUViolation it is always the reported constraint;
// under SplittingHeuristicEngine it asks the Engine for its preferred
// constraint, falling back to reported if the Engine declines.
func (s *SmtCore) pickSplitPLConstraint(reported PwlConstraint) PwlConstraint {
	if s.config.SplittingHeuristic != SplittingHeuristicEngine {
		return reported
	}
	if picked, ok := s.engine.PickSplitPLConstraint(); ok && picked != nil {
		return picked
	}
	return reported
}

// PickLeastViolated implements the least-fix heuristic: among candidates,
// pick the one with the smallest violation count so far, ties broken by
// iteration order. Meant for a driver that wants to try a cheap repair
// (PossibleFixes/SmartFixes) before falling back to a full case split, when
// Config.UseLeastFix is enabled.
func (s *SmtCore) PickLeastViolated(candidates []PwlConstraint) (PwlConstraint, bool) {
	if len(candidates) == 0 {
		return nil, false
	}
	best := candidates[0]
	bestCount := s.violationCounts[best]
	for _, c := range candidates[1:] {
		if count := s.violationCounts[c]; count < bestCount {
			best = c
			bestCount = count
		}
	}
	return best, true
}

// Decide asserts the chosen constraint's first case as a decision, leaving
// its remaining cases as alternatives. Precondition: NeedToSplit().
func (s *SmtCore) Decide() error {
	if !s.needToSplit {
		panic(&UnreachableError{Detail: "Decide called without a pending split"})
	}

	c := s.chosenConstraint
	if !c.Active() || c.Obsolete() {
		delete(s.violationCounts, c)
		s.chosenConstraint = nil
		s.needToSplit = false
		s.log("decide: chosen constraint no longer eligible", "kind", c.Kind().String(), "active", c.Active(), "obsolete", c.Obsolete())
		return nil
	}

	s.needToSplit = false
	c.SetActive(false)

	cases := c.AllCases()
	if len(cases) < 2 {
		panic(&UnreachableError{Detail: "constraint offered fewer than two cases at decide time"})
	}
	decisionPhase := cases[0]
	alternatives := cases[1:]
	return s.pushDecision(c, decisionPhase, alternatives)
}

// NeedToSplit reports whether the core currently needs a decision.
func (s *SmtCore) NeedToSplit() bool {
	return s.needToSplit
}

// ChosenConstraint returns the constraint ReportViolatedConstraint selected
// for the pending split, or nil.
func (s *SmtCore) ChosenConstraint() PwlConstraint {
	return s.chosenConstraint
}

func (s *SmtCore) pushDecision(c PwlConstraint, phase PhaseStatus, alternatives []PhaseStatus) error {
	if s.trail.NumDecisions() != s.ctx.Level() {
		panic(&UnreachableError{Detail: "decision index out of sync with context level"})
	}
	if s.config.MaxDecisions > 0 && s.decisionsOpened >= s.config.MaxDecisions {
		return &IterationLimitError{MaxDecisions: s.config.MaxDecisions}
	}
	s.decisionsOpened++

	s.ctx.Push()
	s.trail.AppendDecision(c, phase, s.ctx.Level(), alternatives)
	split := c.CaseSplit(phase)
	s.checkDebugSolution(c, phase, split)
	s.engine.ApplySplit(split)
	s.log("decision pushed", "kind", c.Kind().String(), "phase", int(phase), "level", s.ctx.Level())
	return nil
}

func (s *SmtCore) pushImplication(c PwlConstraint, phase PhaseStatus) {
	level := s.ctx.Level()
	s.trail.AppendImplication(c, phase, level)
	split := c.CaseSplit(phase)
	s.checkDebugSolution(c, phase, split)
	s.engine.ApplySplit(split)
	s.log("implication pushed", "kind", c.Kind().String(), "phase", int(phase), "level", level)
}

// ImplyValidSplit asserts a split entailed by c's current bounds without
// opening a new decision level. It is recorded on the trail as a
// non-decision entry, so it is discarded automatically when the enclosing
// level is popped.
func (s *SmtCore) ImplyValidSplit(c PwlConstraint, split CaseSplit) {
	level := s.ctx.Level()
	s.trail.AppendImplication(c, split.Phase, level)
	s.checkDebugSolution(c, split.Phase, split)
	s.engine.ApplySplit(split)
	s.log("valid split implied", "kind", c.Kind().String(), "phase", int(split.Phase), "level", level)
}

// BacktrackAndContinue is called by the Engine when it detects
// infeasibility at the current node. It pops decision levels until it
// finds one with a remaining, still-feasible alternative, marks every
// popped decision's tried phase infeasible on its constraint, and asserts
// the next alternative — as an implication if it is the only one left,
// otherwise as a new decision. It returns false once level 0 is reached
// with nothing left to try.
func (s *SmtCore) BacktrackAndContinue() (bool, error) {
	if s.ctx.Level() == 0 {
		return false, nil
	}

	lastDecision := s.trail.LastDecision()
	s.ctx.Pop()
	c := lastDecision.Constraint
	c.MarkInfeasible(lastDecision.Phase)
	remaining := remainingAlternatives(lastDecision.Alternatives, c)

	for len(remaining) == 0 {
		if s.ctx.Level() == 0 {
			return false, nil
		}
		lastDecision = s.trail.LastDecision()
		s.ctx.Pop()
		c = lastDecision.Constraint
		c.MarkInfeasible(lastDecision.Phase)
		remaining = remainingAlternatives(lastDecision.Alternatives, c)
	}

	if len(remaining) == 1 {
		s.pushImplication(c, remaining[0])
		s.log("backtrack: implied remaining case", "kind", c.Kind().String(), "level", s.ctx.Level())
		return true, nil
	}

	chosen := remaining[0]
	others := remaining[1:]
	if err := s.pushDecision(c, chosen, others); err != nil {
		return false, err
	}
	s.log("backtrack: decided next alternative", "kind", c.Kind().String(), "level", s.ctx.Level())
	return true, nil
}

func remainingAlternatives(alternatives []PhaseStatus, c PwlConstraint) []PhaseStatus {
	infeasible := c.InfeasibleCases()
	out := make([]PhaseStatus, 0, len(alternatives))
	for _, p := range alternatives {
		if !containsPhase(infeasible, p) {
			out = append(out, p)
		}
	}
	return out
}

func containsPhase(xs []PhaseStatus, p PhaseStatus) bool {
	for _, x := range xs {
		if x == p {
			return true
		}
	}
	return false
}

func (s *SmtCore) checkDebugSolution(c PwlConstraint, phase PhaseStatus, split CaseSplit) {
	if s.config.DebugSolution == nil {
		return
	}
	for _, t := range split.Tightenings {
		witness, ok := s.config.DebugSolution[t.Variable]
		if !ok {
			continue
		}
		switch t.Kind {
		case LowerBound:
			if witness < t.Value-debugEpsilon {
				panic(&DebuggingError{
					Constraint: c, Phase: phase,
					Detail: fmt.Sprintf("variable %d witness %.6f falls below asserted lower bound %.6f", t.Variable, witness, t.Value),
				})
			}
		case UpperBound:
			if witness > t.Value+debugEpsilon {
				panic(&DebuggingError{
					Constraint: c, Phase: phase,
					Detail: fmt.Sprintf("variable %d witness %.6f exceeds asserted upper bound %.6f", t.Variable, witness, t.Value),
				})
			}
		}
	}
}
