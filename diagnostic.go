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

// Outcome is one of the four terminal states a driver embedding SmtCore
// reports to its caller.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeSAT
	OutcomeUNSAT
	OutcomeError
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case OutcomeSAT:
		return "SAT"
	case OutcomeUNSAT:
		return "UNSAT"
	case OutcomeError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Diagnose translates a terminal error (or nil) into an Outcome plus at most
// one human-readable line, matching the "translate terminal states into
// SAT | UNSAT | UNKNOWN | ERROR and write at most a single diagnostic line"
// contract an outer driver needs.
//
// A nil err with sat true is SAT; a nil err with sat false is UNSAT. Any
// non-nil err is ERROR, regardless of sat, since the search could not
// legitimately reach either conclusion.
func Diagnose(sat bool, err error) (Outcome, string) {
	if err != nil {
		return OutcomeError, diagnosticLine(err)
	}
	if sat {
		return OutcomeSAT, ""
	}
	return OutcomeUNSAT, ""
}

// diagnosticLine renders a single line describing the terminal error. It
// never recurses into the error's chain: the contract is one line, not a
// trace.
func diagnosticLine(err error) string {
	switch e := err.(type) {
	case *InfeasibleQueryError:
		return fmt.Sprintf("infeasible query: %s", e.Error())
	case *NotInitializedError:
		return fmt.Sprintf("internal error: %s", e.Error())
	case *DebuggingError:
		return fmt.Sprintf("internal error: %s", e.Error())
	case *UnreachableError:
		return fmt.Sprintf("internal error: %s", e.Error())
	case *IterationLimitError:
		return fmt.Sprintf("search aborted: %s", e.Error())
	default:
		return err.Error()
	}
}
