// Copyright 2024 The University of Queensland
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

var (
	negInf = math.Inf(-1)
	posInf = math.Inf(1)
)

// floatBound represents either a lower or upper bound of a real interval.
// Bounds can be finite (with a specific value), or infinite (unbounded).
//
// The `infinite` field uses sentinel values:
//   - boundNegativeInfinity (-1): represents -∞ (no lower limit)
//   - boundFinite (0): represents a specific value
//   - boundPositiveInfinity (1): represents +∞ (no upper limit)
//
// Finite bounds built from BoundManager values are inclusive; exclusive
// finite bounds arise from floatIntervalSet.Complement. NaN never reaches a
// floatBound; callers at the BoundManager boundary reject it before
// constructing one.
type floatBound struct {
	value     float64
	inclusive bool
	infinite  int
}

const (
	boundNegativeInfinity = -1
	boundFinite           = 0
	boundPositiveInfinity = 1
)

// newLowerBound creates a finite, inclusive-or-exclusive lower bound.
func newLowerBound(value float64, inclusive bool) floatBound {
	return floatBound{value: value, inclusive: inclusive}
}

// newUpperBound creates a finite, inclusive-or-exclusive upper bound.
func newUpperBound(value float64, inclusive bool) floatBound {
	return floatBound{value: value, inclusive: inclusive}
}

// negativeInfinityBound returns a bound representing -∞.
func negativeInfinityBound() floatBound {
	return floatBound{infinite: boundNegativeInfinity, inclusive: true}
}

// positiveInfinityBound returns a bound representing +∞.
func positiveInfinityBound() floatBound {
	return floatBound{infinite: boundPositiveInfinity, inclusive: true}
}

// isNegInfinity returns true if this bound represents -∞.
func (b floatBound) isNegInfinity() bool {
	return b.infinite == boundNegativeInfinity
}

// isPosInfinity returns true if this bound represents +∞.
func (b floatBound) isPosInfinity() bool {
	return b.infinite == boundPositiveInfinity
}

// isFinite returns true if this bound represents a specific value.
func (b floatBound) isFinite() bool {
	return b.infinite == boundFinite
}

// compareLower compares two lower bounds.
// Returns negative if a < b, zero if equal, positive if a > b.
// For lower bounds: inclusive comes before exclusive when values are equal.
func compareLower(a, b floatBound) int {
	switch {
	case a.infinite == boundNegativeInfinity && b.infinite == boundNegativeInfinity:
		return 0
	case a.infinite == boundNegativeInfinity:
		return -1
	case b.infinite == boundNegativeInfinity:
		return 1
	case a.infinite == boundPositiveInfinity && b.infinite == boundPositiveInfinity:
		return 0
	case a.infinite == boundPositiveInfinity:
		return 1
	case b.infinite == boundPositiveInfinity:
		return -1
	default:
		if cmp := compareValue(a.value, b.value); cmp != 0 {
			return cmp
		}
		if a.inclusive == b.inclusive {
			return 0
		}
		if a.inclusive {
			return -1
		}
		return 1
	}
}

// compareUpper compares two upper bounds.
// Returns negative if a < b, zero if equal, positive if a > b.
// For upper bounds: inclusive comes after exclusive when values are equal.
func compareUpper(a, b floatBound) int {
	switch {
	case a.infinite == boundPositiveInfinity && b.infinite == boundPositiveInfinity:
		return 0
	case a.infinite == boundPositiveInfinity:
		return 1
	case b.infinite == boundPositiveInfinity:
		return -1
	case a.infinite == boundNegativeInfinity && b.infinite == boundNegativeInfinity:
		return 0
	case a.infinite == boundNegativeInfinity:
		return -1
	case b.infinite == boundNegativeInfinity:
		return 1
	default:
		if cmp := compareValue(a.value, b.value); cmp != 0 {
			return cmp
		}
		if a.inclusive == b.inclusive {
			return 0
		}
		if a.inclusive {
			return 1
		}
		return -1
	}
}

// compareValue totally orders two finite, non-NaN float64s.
func compareValue(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
