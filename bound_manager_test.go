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

func TestBoundManagerFreshVariableIsUnbounded(t *testing.T) {
	ctx := NewContext()
	bm := NewBoundManager(ctx, nil)
	v := bm.RegisterNewVariable()

	assert.Equal(t, negInf, bm.GetLowerBound(v))
	assert.Equal(t, posInf, bm.GetUpperBound(v))
}

func TestBoundManagerTightenRejectsNonTighterBound(t *testing.T) {
	ctx := NewContext()
	bm := NewBoundManager(ctx, nil)
	v := bm.RegisterNewVariable()

	require.True(t, bm.SetLowerBound(v, 0))
	assert.False(t, bm.SetLowerBound(v, 0), "setLowerBound(v, currentLow) must report not-tighter")
	assert.False(t, bm.SetLowerBound(v, -1), "a looser bound must be rejected")
}

func TestBoundManagerInconsistencyDetectedAndReverts(t *testing.T) {
	ctx := NewContext()
	bm := NewBoundManager(ctx, nil)
	v := bm.RegisterNewVariable()

	require.True(t, bm.SetUpperBound(v, 5))
	ctx.Push()
	require.True(t, bm.SetLowerBound(v, 5+1))
	assert.False(t, bm.ConsistentBounds())

	bad, ok := bm.FirstInconsistency()
	require.True(t, ok)
	assert.Equal(t, v, bad)

	ctx.Pop()
	_, ok = bm.FirstInconsistency()
	assert.False(t, ok, "inconsistency must revert once the offending level pops")
	assert.True(t, bm.ConsistentBounds())
}

func TestBoundManagerPopRestoresBounds(t *testing.T) {
	ctx := NewContext()
	bm := NewBoundManager(ctx, nil)
	v := bm.RegisterNewVariable()
	require.True(t, bm.SetLowerBound(v, -1))
	require.True(t, bm.SetUpperBound(v, 1))

	before := SnapshotBounds(bm, 1)

	ctx.Push()
	bm.TightenLowerBound(v, 0)
	bm.TightenUpperBound(v, 0.5)
	ctx.Pop()

	after := SnapshotBounds(bm, 1)
	require.NoError(t, CheckPopRestoration(before, after))
}

func TestBoundManagerRejectsNaN(t *testing.T) {
	ctx := NewContext()
	bm := NewBoundManager(ctx, nil)
	v := bm.RegisterNewVariable()
	nan := posInf - posInf // Inf - Inf is NaN, avoids importing math just for this
	assert.False(t, bm.SetLowerBound(v, nan))
}

func TestBoundManagerGetTighteningsDrains(t *testing.T) {
	ctx := NewContext()
	bm := NewBoundManager(ctx, nil)
	v := bm.RegisterNewVariable()
	bm.SetLowerBound(v, 1)
	bm.SetUpperBound(v, 10)

	got := bm.GetTightenings()
	assert.Len(t, got, 2)
	assert.Empty(t, bm.GetTightenings(), "a second call must return nothing new")
}

func TestBoundManagerLocalBoundsRoundTrip(t *testing.T) {
	ctx := NewContext()
	bm := NewBoundManager(ctx, nil)
	v := bm.RegisterNewVariable()
	bm.SetLowerBound(v, 2)
	bm.SetUpperBound(v, 9)

	bm.StoreLocalBounds()
	bm.SetLowerBound(v, 4)
	bm.SetUpperBound(v, 6)
	bm.RestoreLocalBounds()

	assert.Equal(t, 2.0, bm.GetLowerBound(v))
	assert.Equal(t, 9.0, bm.GetUpperBound(v))

	bm.ClearLocalBoundsHashMap()
}
