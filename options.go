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

import "log/slog"

// SplittingHeuristic selects how SmtCore picks which violated constraint to
// split on.
type SplittingHeuristic int

const (
	// SplittingHeuristicReLUViolation always splits on the most recently
	// reported violated constraint.
	SplittingHeuristicReLUViolation SplittingHeuristic = iota
	// SplittingHeuristicEngine delegates the choice to the Engine's
	// PickSplitPLConstraint, falling back to the most recently reported
	// constraint if the Engine declines to pick one.
	SplittingHeuristicEngine
)

const defaultViolationThreshold = 20

// Config configures one SmtCore instance. There is no package-level mutable
// configuration anywhere in this package; every knob is threaded in here at
// construction.
type Config struct {
	// ViolationThreshold is the number of reportViolatedConstraint calls a
	// single constraint must accumulate before the core considers
	// splitting on it. Default: 20.
	ViolationThreshold int

	// SplittingHeuristic selects the split-constraint heuristic. Default:
	// SplittingHeuristicReLUViolation.
	SplittingHeuristic SplittingHeuristic

	// UseLeastFix records whether the embedding driver wants the
	// least-violated constraint (smallest violation count, ties broken by
	// iteration order) among reported violations. SmtCore itself does not
	// read this field: ReportViolatedConstraint's choice is unaffected, and
	// PickLeastViolated applies the least-violated rule whenever it is
	// called.
	UseLeastFix bool

	// MaxDecisions bounds the number of decision levels the core will
	// open before giving up with an IterationLimitError. Zero disables
	// the guard. This is an ambient safety valve against a runaway
	// search, not part of the decision procedure itself.
	MaxDecisions int

	// DebugSolution, if non-nil, is a witness assignment the core checks
	// every asserted split against; a divergence raises DebuggingError.
	DebugSolution map[Variable]float64

	// Logger receives structured debug logging. Nil disables logging.
	Logger *slog.Logger
}

// Option is a functional option for configuring a SmtCore.
type Option func(*Config)

// defaultConfig returns the default SmtCore configuration.
func defaultConfig() Config {
	return Config{
		ViolationThreshold: defaultViolationThreshold,
		SplittingHeuristic: SplittingHeuristicReLUViolation,
	}
}

// WithViolationThreshold sets the per-constraint violation count required
// before the core will consider splitting on it.
func WithViolationThreshold(threshold int) Option {
	return func(c *Config) {
		if threshold > 0 {
			c.ViolationThreshold = threshold
		}
	}
}

// WithSplittingHeuristic selects the split-constraint heuristic.
func WithSplittingHeuristic(h SplittingHeuristic) Option {
	return func(c *Config) {
		c.SplittingHeuristic = h
	}
}

// WithLeastFix sets Config.UseLeastFix. SmtCore does not consult the flag;
// see UseLeastFix.
func WithLeastFix(enabled bool) Option {
	return func(c *Config) {
		c.UseLeastFix = enabled
	}
}

// WithMaxDecisions bounds the number of decision levels the core will open.
// Use 0 to disable the limit.
func WithMaxDecisions(max int) Option {
	return func(c *Config) {
		if max <= 0 {
			c.MaxDecisions = 0
		} else {
			c.MaxDecisions = max
		}
	}
}

// WithDebugSolution installs a witness solution checked against every
// asserted split.
func WithDebugSolution(solution map[Variable]float64) Option {
	return func(c *Config) {
		c.DebugSolution = solution
	}
}

// WithLogger sets a structured logger for search diagnostics.
//
// Example:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	core := NewSmtCore(ctx, engine, bm, WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
