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

// Package smtcore is a search-control core for case-splitting over
// piecewise-linear constraints (ReLU, Abs, Max, and arbitrary disjunctions).
// It owns the decision trail, the per-variable bound stack, and the
// backtracking protocol; it knows nothing about linear algebra, simplex
// pivoting, or how a concrete Engine decides a node is infeasible.
//
// Basic usage:
//
//	ctx := smtcore.NewContext()
//	bm := smtcore.NewBoundManager(ctx, logger)
//	bm.Initialize(numVariables)
//
//	core := smtcore.NewSmtCore(ctx, engine, bm,
//	    smtcore.WithViolationThreshold(20),
//	    smtcore.WithSplittingHeuristic(smtcore.SplittingHeuristicReLUViolation),
//	)
//
//	relu := smtcore.NewReLUConstraint(b, f)
//	relu.InitializeCDOs(ctx)
//	relu.SetBoundManager(bm)
//
//	for {
//	    if sat, err := engine.CheckSat(); err != nil {
//	        outcome, line := smtcore.Diagnose(false, err)
//	        return outcome, line
//	    } else if sat {
//	        return smtcore.Diagnose(true, nil)
//	    }
//	    core.ReportViolatedConstraint(relu)
//	    if core.NeedToSplit() {
//	        if err := core.Decide(); err != nil {
//	            return smtcore.Diagnose(false, err)
//	        }
//	        continue
//	    }
//	    ok, err := core.BacktrackAndContinue()
//	    if err != nil {
//	        return smtcore.Diagnose(false, err)
//	    }
//	    if !ok {
//	        return smtcore.Diagnose(false, nil)
//	    }
//	}
package smtcore
