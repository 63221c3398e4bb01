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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noopEngine never proposes a preferred split and never snapshots; it
// exists so tests can drive SmtCore without a real tableau.
type noopEngine struct {
	applied []CaseSplit
}

func (e *noopEngine) ApplySplit(split CaseSplit)                        { e.applied = append(e.applied, split) }
func (e *noopEngine) StoreState(bool) EngineState                       { return nil }
func (e *noopEngine) RestoreState(EngineState)                          {}
func (e *noopEngine) PickSplitPLConstraint() (PwlConstraint, bool)      { return nil, false }

func reportNTimes(core *SmtCore, c PwlConstraint, n int) {
	for i := 0; i < n; i++ {
		core.ReportViolatedConstraint(c)
	}
}

// TestScenarioS1SimpleDecideThenBacktrack: a two-case constraint is decided,
// the engine reports infeasibility, and backtracking implies the sole
// remaining case at level 0.
func TestScenarioS1SimpleDecideThenBacktrack(t *testing.T) {
	ctx := NewContext()
	bm := NewBoundManager(ctx, nil)
	engine := &noopEngine{}
	core := NewSmtCore(ctx, engine, bm, WithViolationThreshold(3))

	c := NewDisjunctionConstraint(nil, []CaseSplit{{}, {}})
	c.InitializeCDOs(ctx)

	reportNTimes(core, c, 3)
	require.True(t, core.NeedToSplit())
	require.NoError(t, core.Decide())
	require.Equal(t, 1, ctx.Level())

	ok, err := core.BacktrackAndContinue()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, ctx.Level())

	require.Equal(t, 1, core.Trail().Len())
	entry := core.Trail().At(0)
	assert.False(t, entry.IsDecision)
	assert.Equal(t, PhaseStatus(2), entry.Phase)
	assert.Equal(t, 0, entry.DecisionLevel)
	assert.Equal(t, PhaseStatus(2), c.NextFeasibleCase())
}

// TestScenarioS2DeepBacktrackWithExhaustion: two nested decisions are both
// exhausted by backtracking, draining the search back to level 0.
func TestScenarioS2DeepBacktrackWithExhaustion(t *testing.T) {
	ctx := NewContext()
	bm := NewBoundManager(ctx, nil)
	engine := &noopEngine{}
	core := NewSmtCore(ctx, engine, bm, WithViolationThreshold(1))

	c1 := NewDisjunctionConstraint(nil, []CaseSplit{{}, {}})
	c1.InitializeCDOs(ctx)
	c2 := NewDisjunctionConstraint(nil, []CaseSplit{{}, {}})
	c2.InitializeCDOs(ctx)

	core.ReportViolatedConstraint(c1)
	require.NoError(t, core.Decide())
	require.Equal(t, 1, ctx.Level())

	core.ReportViolatedConstraint(c2)
	require.NoError(t, core.Decide())
	require.Equal(t, 2, ctx.Level())

	ok, err := core.BacktrackAndContinue()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, ctx.Level())
	assert.True(t, containsPhase(c2.InfeasibleCases(), PhaseStatus(1)))

	ok, err = core.BacktrackAndContinue()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, ctx.Level())
	assert.True(t, containsPhase(c1.InfeasibleCases(), PhaseStatus(1)))

	ok, err = core.BacktrackAndContinue()
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestScenarioS3ThreeWaySplit: a three-case constraint is backtracked twice,
// trying each alternative phase before the constraint is exhausted.
func TestScenarioS3ThreeWaySplit(t *testing.T) {
	ctx := NewContext()
	bm := NewBoundManager(ctx, nil)
	engine := &noopEngine{}
	core := NewSmtCore(ctx, engine, bm, WithViolationThreshold(1))

	m := NewMaxConstraint(0, []Variable{1, 2, 3})
	m.InitializeCDOs(ctx)

	core.ReportViolatedConstraint(m)
	require.NoError(t, core.Decide())
	require.Equal(t, 1, ctx.Level())

	ok, err := core.BacktrackAndContinue()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, ctx.Level())
	assert.True(t, containsPhase(m.InfeasibleCases(), PhaseStatus(1)))

	ok, err = core.BacktrackAndContinue()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, ctx.Level())
	assert.True(t, containsPhase(m.InfeasibleCases(), PhaseStatus(2)))

	ok, err = core.BacktrackAndContinue()
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestScenarioS4BoundTighteningPropagation: a bound tightened inside a
// pushed level is rolled back to its outer value on pop.
func TestScenarioS4BoundTighteningPropagation(t *testing.T) {
	ctx := NewContext()
	bm := NewBoundManager(ctx, nil)
	bm.Initialize(8)
	v := Variable(7)

	require.True(t, bm.SetLowerBound(v, 2.0))
	assert.False(t, bm.SetLowerBound(v, 1.0))

	ctx.Push()
	require.True(t, bm.SetLowerBound(v, 3.0))
	assert.Equal(t, 3.0, bm.GetLowerBound(v))
	ctx.Pop()
	assert.Equal(t, 2.0, bm.GetLowerBound(v))
}

// TestScenarioS5ViolationCounterHeuristic: a constraint only becomes the
// chosen split once its own violation count crosses the threshold,
// independent of how many times other constraints were reported.
func TestScenarioS5ViolationCounterHeuristic(t *testing.T) {
	ctx := NewContext()
	bm := NewBoundManager(ctx, nil)
	engine := &noopEngine{}
	core := NewSmtCore(ctx, engine, bm, WithViolationThreshold(3))

	c1 := NewDisjunctionConstraint(nil, []CaseSplit{{}, {}})
	c1.InitializeCDOs(ctx)
	c2 := NewDisjunctionConstraint(nil, []CaseSplit{{}, {}})
	c2.InitializeCDOs(ctx)

	reportNTimes(core, c1, 2)
	assert.False(t, core.NeedToSplit())

	core.ReportViolatedConstraint(c2)
	core.ReportViolatedConstraint(c2)
	assert.False(t, core.NeedToSplit())
	core.ReportViolatedConstraint(c2)
	assert.True(t, core.NeedToSplit())
	assert.True(t, core.ChosenConstraint() == PwlConstraint(c2))
}

// TestScenarioS6InactiveChosenConstraint: a constraint deactivated after
// being chosen but before Decide runs is skipped rather than split on.
func TestScenarioS6InactiveChosenConstraint(t *testing.T) {
	ctx := NewContext()
	bm := NewBoundManager(ctx, nil)
	engine := &noopEngine{}
	core := NewSmtCore(ctx, engine, bm, WithViolationThreshold(1))

	c := NewDisjunctionConstraint(nil, []CaseSplit{{}, {}})
	c.InitializeCDOs(ctx)

	core.ReportViolatedConstraint(c)
	require.True(t, core.NeedToSplit())

	c.SetActive(false)
	require.NoError(t, core.Decide())

	assert.False(t, core.NeedToSplit())
	assert.Nil(t, core.ChosenConstraint())
	assert.Equal(t, 0, ctx.Level())
	assert.Equal(t, 0, core.Trail().Len())
}

func TestSmtCoreDebugSolutionCatchesDivergence(t *testing.T) {
	ctx := NewContext()
	bm := NewBoundManager(ctx, nil)
	bm.Initialize(2)
	engine := &noopEngine{}
	core := NewSmtCore(ctx, engine, bm, WithViolationThreshold(1))
	core.StoreDebuggingSolution(map[Variable]float64{0: -5})

	relu := NewReLUConstraint(0, 1)
	relu.InitializeCDOs(ctx)
	relu.SetBoundManager(bm)

	core.ReportViolatedConstraint(relu)
	require.True(t, core.NeedToSplit())

	panicValue := func() (recovered any) {
		defer func() { recovered = recover() }()
		_ = core.Decide()
		return nil
	}()
	assert.Equal(t, &DebuggingError{
		Constraint: relu, Phase: ReluActive,
		Detail: "variable 0 witness -5.000000 falls below asserted lower bound 0.000000",
	}, panicValue)
}

func TestSmtCoreBacktrackAtLevelZeroReturnsFalse(t *testing.T) {
	ctx := NewContext()
	bm := NewBoundManager(ctx, nil)
	engine := &noopEngine{}
	core := NewSmtCore(ctx, engine, bm)

	ok, err := core.BacktrackAndContinue()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, ctx.Level())
}

func TestSmtCoreMaxDecisionsGuardReturnsIterationLimitError(t *testing.T) {
	ctx := NewContext()
	bm := NewBoundManager(ctx, nil)
	engine := &noopEngine{}
	core := NewSmtCore(ctx, engine, bm, WithViolationThreshold(1), WithMaxDecisions(1))

	c1 := NewDisjunctionConstraint(nil, []CaseSplit{{}, {}})
	c1.InitializeCDOs(ctx)
	c2 := NewDisjunctionConstraint(nil, []CaseSplit{{}, {}})
	c2.InitializeCDOs(ctx)

	core.ReportViolatedConstraint(c1)
	require.NoError(t, core.Decide())

	core.ReportViolatedConstraint(c2)
	err := core.Decide()
	var limitErr *IterationLimitError
	require.ErrorAs(t, err, &limitErr)
}
