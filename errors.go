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

import "fmt"

// InfeasibleQueryError is returned when the preprocessor proves the query
// unsat before search begins. It is a terminal outcome; there is nothing to
// backtrack from.
type InfeasibleQueryError struct {
	Reason string
}

// Error implements the error interface.
func (e *InfeasibleQueryError) Error() string {
	if e.Reason == "" {
		return "query is infeasible"
	}
	return fmt.Sprintf("query is infeasible: %s", e.Reason)
}

// NotInitializedError indicates an operation was attempted on a PwlConstraint
// whose context-dependent state was never allocated via InitializeCDOs. This
// is a programming error in the embedding Engine, not a search outcome.
//
// Example:
//
//	var nie *NotInitializedError
//	if errors.As(err, &nie) {
//	    log.Fatalf("constraint %v used before registration", nie.Constraint)
//	}
type NotInitializedError struct {
	Constraint PwlConstraint
	Operation  string
}

// Error implements the error interface.
func (e *NotInitializedError) Error() string {
	return fmt.Sprintf("operation %q on constraint %v before InitializeCDOs", e.Operation, e.Constraint.Kind())
}

// DebuggingError indicates the search diverged from a supplied witness
// solution (see WithDebugSolution). It is fatal: it signals a bug either in
// the core or in the constraint family under test, not a normal search
// outcome.
type DebuggingError struct {
	Constraint PwlConstraint
	Phase      PhaseStatus
	Detail     string
}

// Error implements the error interface.
func (e *DebuggingError) Error() string {
	return fmt.Sprintf("debugging solution violated by asserting phase %d on %v: %s", e.Phase, e.Constraint.Kind(), e.Detail)
}

// UnreachableError guards defensive branches that a correct caller can never
// trigger (e.g. a constraint reporting a phase outside its own case set).
// Encountering one always indicates a programming error.
type UnreachableError struct {
	Detail string
}

// Error implements the error interface.
func (e *UnreachableError) Error() string {
	return fmt.Sprintf("unreachable: %s", e.Detail)
}

// IterationLimitError is returned when the search exceeds its configured
// MaxDecisions guard. This is an ambient safety valve, not part of the
// specified decision procedure: it exists so an embedding Engine cannot spin
// forever on a pathological input.
type IterationLimitError struct {
	MaxDecisions int
}

// Error implements the error interface.
func (e *IterationLimitError) Error() string {
	return fmt.Sprintf("search exceeded %d decisions", e.MaxDecisions)
}

var (
	_ error = (*InfeasibleQueryError)(nil)
	_ error = (*NotInitializedError)(nil)
	_ error = (*DebuggingError)(nil)
	_ error = (*UnreachableError)(nil)
	_ error = (*IterationLimitError)(nil)
)
