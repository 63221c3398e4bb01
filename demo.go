//go:build ignore

package main

import (
	"fmt"
	"log/slog"
	"os"

	smtcore "github.com/plsolve/smtcore"
)

// demoTableau is a toy direct-assignment tableau: it has no linear algebra,
// it just stores one value per variable and lets ApplySplit overwrite it
// according to whatever tightenings and equations a case asserts. It exists
// only to give the demo something to drive; it is not a simplex engine.
type demoTableau struct {
	values map[smtcore.Variable]float64
}

func (t *demoTableau) ValueOf(v smtcore.Variable) float64 { return t.values[v] }

func (t *demoTableau) NotifyLowerBound(v smtcore.Variable, value float64) {
	if t.values[v] < value {
		t.values[v] = value
	}
}

func (t *demoTableau) NotifyUpperBound(v smtcore.Variable, value float64) {
	if t.values[v] > value {
		t.values[v] = value
	}
}

func (t *demoTableau) NotifyVariableValue(v smtcore.Variable, value float64) {
	t.values[v] = value
}

// demoEngine wires a BoundManager and a flat tableau together, and applies
// every case split to both. StoreState/RestoreState are no-ops: this engine
// rewinds purely through the BoundManager's own CDOs.
type demoEngine struct {
	bm  *smtcore.BoundManager
	tab *demoTableau
}

func (e *demoEngine) ApplySplit(split smtcore.CaseSplit) {
	for _, t := range split.Tightenings {
		switch t.Kind {
		case smtcore.LowerBound:
			e.bm.TightenLowerBound(t.Variable, t.Value)
		case smtcore.UpperBound:
			e.bm.TightenUpperBound(t.Variable, t.Value)
		}
	}
	for _, eq := range split.Equations {
		e.resolveEquation(eq)
	}
}

// resolveEquation solves a linear equation for one of its variables given a
// demo tableau's current values, standing in for what a real tableau would
// do by pivoting. It solves for whichever variable map iteration yields
// first; Go's map order is unspecified, so that is not necessarily the
// constraint's output variable.
func (e *demoEngine) resolveEquation(eq smtcore.Equation) {
	var solveFor smtcore.Variable
	var solveCoeff float64
	found := false
	rest := eq.Scalar
	for v, c := range eq.Coefficients {
		if !found {
			solveFor, solveCoeff, found = v, c, true
			continue
		}
		rest -= c * e.tab.ValueOf(v)
	}
	if found && solveCoeff != 0 {
		e.tab.NotifyVariableValue(solveFor, rest/solveCoeff)
	}
}

func (e *demoEngine) StoreState(bool) smtcore.EngineState    { return nil }
func (e *demoEngine) RestoreState(smtcore.EngineState)       {}
func (e *demoEngine) PickSplitPLConstraint() (smtcore.PwlConstraint, bool) { return nil, false }

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx := smtcore.NewContext()
	bm := smtcore.NewBoundManager(ctx, logger)
	b := bm.RegisterNewVariable()
	f := bm.RegisterNewVariable()
	bm.Initialize(0)

	tab := &demoTableau{values: map[smtcore.Variable]float64{b: -3, f: 0}}
	bm.RegisterTableau(tab)
	engine := &demoEngine{bm: bm, tab: tab}

	relu := smtcore.NewReLUConstraint(b, f)
	relu.InitializeCDOs(ctx)
	relu.SetBoundManager(bm)
	relu.SetTableau(tab)

	core := smtcore.NewSmtCore(ctx, engine, bm,
		smtcore.WithViolationThreshold(1),
		smtcore.WithLogger(logger),
	)

	fmt.Println("=== ReLU case-split demo ===")
	fmt.Printf("initial: b=%v f=%v satisfied=%v\n", tab.ValueOf(b), tab.ValueOf(f), relu.Satisfied())

	core.ReportViolatedConstraint(relu)
	if core.NeedToSplit() {
		if err := core.Decide(); err != nil {
			outcome, line := smtcore.Diagnose(false, err)
			fmt.Println(outcome, line)
			return
		}
	}
	fmt.Printf("after decide: level=%d phase=%v\n", ctx.Level(), relu.Phase())

	ok, err := core.BacktrackAndContinue()
	if err != nil {
		outcome, line := smtcore.Diagnose(false, err)
		fmt.Println(outcome, line)
		return
	}
	fmt.Printf("after backtrack: ok=%v level=%d infeasible=%v\n", ok, ctx.Level(), relu.InfeasibleCases())

	if err := smtcore.CheckLevelAgreement(core); err != nil {
		fmt.Println("invariant check failed:", err)
	}
}
