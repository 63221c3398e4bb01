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

func TestFloatBoundCompareLowerOrdersInfinitiesCorrectly(t *testing.T) {
	assert.True(t, compareLower(negativeInfinityBound(), newLowerBound(0, true)) < 0)
	assert.True(t, compareLower(newLowerBound(0, true), positiveInfinityBound()) < 0)
	assert.Equal(t, 0, compareLower(negativeInfinityBound(), negativeInfinityBound()))
}

func TestFloatBoundCompareLowerInclusiveBeforeExclusive(t *testing.T) {
	inclusive := newLowerBound(1, true)
	exclusive := newLowerBound(1, false)
	assert.True(t, compareLower(inclusive, exclusive) < 0, "[1 should sort before (1 as a lower bound")
}

func TestFloatBoundCompareUpperExclusiveBeforeInclusive(t *testing.T) {
	inclusive := newUpperBound(1, true)
	exclusive := newUpperBound(1, false)
	assert.True(t, compareUpper(exclusive, inclusive) < 0, "1) should sort before 1] as an upper bound")
}

func TestIntervalEmptyDetection(t *testing.T) {
	_, ok := newInterval(newLowerBound(5, true), newUpperBound(1, true))
	assert.False(t, ok, "lower above upper must be empty")

	_, ok = newInterval(newLowerBound(1, false), newUpperBound(1, true))
	assert.False(t, ok, "(1, 1] is empty")

	iv, ok := newInterval(newLowerBound(1, true), newUpperBound(1, true))
	require.True(t, ok)
	assert.True(t, iv.contains(1))
}

func TestIntervalContains(t *testing.T) {
	iv, ok := newInterval(newLowerBound(0, true), newUpperBound(10, false))
	require.True(t, ok)
	assert.True(t, iv.contains(0))
	assert.True(t, iv.contains(9.999))
	assert.False(t, iv.contains(10))
	assert.False(t, iv.contains(-0.001))
}

func TestIntervalTouchesAndMerge(t *testing.T) {
	a, _ := newInterval(newLowerBound(0, true), newUpperBound(5, true))
	b, _ := newInterval(newLowerBound(5, false), newUpperBound(10, true))
	require.True(t, a.touches(b), "adjacent closed/open intervals at the same point touch")

	merged := a.merge(b)
	assert.True(t, merged.contains(0))
	assert.True(t, merged.contains(10))
}

func TestNormalizeIntervalsMergesOverlaps(t *testing.T) {
	a, _ := newInterval(newLowerBound(0, true), newUpperBound(5, true))
	b, _ := newInterval(newLowerBound(3, true), newUpperBound(8, true))
	c, _ := newInterval(newLowerBound(20, true), newUpperBound(30, true))

	got := normalizeIntervals([]floatInterval{c, a, b})
	require.Len(t, got, 2)
	assert.True(t, got[0].contains(0))
	assert.True(t, got[0].contains(8))
	assert.True(t, got[1].contains(25))
}

func TestFloatIntervalSetUnionIntersectionComplement(t *testing.T) {
	a, _ := newInterval(newLowerBound(0, true), newUpperBound(5, true))
	b, _ := newInterval(newLowerBound(10, true), newUpperBound(15, true))
	setA := newFloatIntervalSet([]floatInterval{a})
	setB := newFloatIntervalSet([]floatInterval{b})

	union := setA.Union(setB)
	assert.True(t, union.Contains(2))
	assert.True(t, union.Contains(12))
	assert.False(t, union.Contains(7))

	inter := setA.Intersection(setB)
	assert.True(t, inter.IsEmpty())

	comp := setA.Complement()
	assert.False(t, comp.Contains(2))
	assert.True(t, comp.Contains(7))
	assert.True(t, comp.Contains(-100))
}

func TestFloatIntervalSetBoundsReportsSpan(t *testing.T) {
	a, _ := newInterval(newLowerBound(1, true), newUpperBound(2, true))
	b, _ := newInterval(newLowerBound(4, true), newUpperBound(6, true))
	set := newFloatIntervalSet([]floatInterval{a, b})

	lo, hi, ok := set.Bounds()
	require.True(t, ok)
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 6.0, hi)

	_, _, ok = emptyFloatIntervalSet().Bounds()
	assert.False(t, ok)
}
