// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/vevote/thor"
)

type point struct {
	Ts    uint64
	Value uint64
}

func TestArray_PushAt(t *testing.T) {
	ctx := newTestContext(t)
	arr := NewArray[point](ctx, thor.NameToSlot("points"))

	n, err := arr.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)

	_, ok, err := arr.Last()
	require.NoError(t, err)
	assert.False(t, ok)

	for i := uint64(0); i < 5; i++ {
		idx, err := arr.Push(point{Ts: i * 10, Value: i})
		require.NoError(t, err)
		assert.Equal(t, i, idx)
	}

	n, err = arr.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), n)

	p, err := arr.At(2)
	require.NoError(t, err)
	assert.Equal(t, point{Ts: 20, Value: 2}, p)

	last, ok, err := arr.Last()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, point{Ts: 40, Value: 4}, last)

	_, err = arr.At(5)
	assert.ErrorIs(t, err, errIndexOutOfRange)
}

func TestArray_Search(t *testing.T) {
	ctx := newTestContext(t)
	arr := NewArray[point](ctx, thor.NameToSlot("points"))

	_, _, ok, err := arr.Search(func(p point) bool { return true })
	require.NoError(t, err)
	assert.False(t, ok)

	// duplicated timestamps, the last one wins
	for _, ts := range []uint64{10, 20, 20, 30} {
		_, err := arr.Push(point{Ts: ts, Value: ts})
		require.NoError(t, err)
	}

	tests := []struct {
		at    uint64
		ok    bool
		index uint64
	}{
		{5, false, 0},
		{10, true, 0},
		{19, true, 0},
		{20, true, 2},
		{29, true, 2},
		{100, true, 3},
	}
	for _, tt := range tests {
		idx, _, ok, err := arr.Search(func(p point) bool { return p.Ts <= tt.at })
		require.NoError(t, err)
		assert.Equal(t, tt.ok, ok, "at %d", tt.at)
		if tt.ok {
			assert.Equal(t, tt.index, idx, "at %d", tt.at)
		}
	}
}

func TestArrayMapping(t *testing.T) {
	ctx := newTestContext(t)
	m := NewArrayMapping[Uint64Key, point](ctx, thor.NameToSlot("history"))

	_, err := m.Of(1).Push(point{Ts: 1})
	require.NoError(t, err)

	n, err := m.Of(2).Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)

	n, err = m.Of(1).Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}
