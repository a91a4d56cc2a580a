package parallel

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialCollective(t *testing.T) {
	s := NewSerial()
	assert.Equal(t, 1, s.Size())
	assert.Equal(t, 0, s.Rank())
	assert.Equal(t, 42, s.MaxInt(42))
	assert.Equal(t, []int{7}, s.GatherInt(7))
}

func TestGroupCollective(t *testing.T) {
	const np = 4
	ranks := NewGroup(np)
	var (
		wg   sync.WaitGroup
		maxs [np]int
	)
	for n := 0; n < np; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			maxs[n] = ranks[n].MaxInt(10 * n)
		}(n)
	}
	wg.Wait()
	for n := 0; n < np; n++ {
		assert.Equal(t, 30, maxs[n])
	}
}

func newComm(coll Collective, nRows, globalOffset int) *Communication {
	idx := &IndexSet{}
	for i := 0; i < nRows; i++ {
		idx.Add(globalOffset+i, Owner, true)
	}
	return NewCommunication(coll, idx, nil)
}

func TestExtendWithWellsSerial(t *testing.T) {
	comm := newComm(NewSerial(), 4, 0)

	// nw = 0 degenerates to a pure copy
	ext, err := ExtendWithWells(comm, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, ext.Idx.Len())
	assert.Equal(t, comm.Idx.Entries, ext.Idx.Entries)

	ext, err = ExtendWithWells(comm, 2)
	require.NoError(t, err)
	require.Equal(t, 6, ext.Idx.Len())
	// Original entries unchanged, well ids appended after gmax
	assert.Equal(t, comm.Idx.Entries, ext.Idx.Entries[:4])
	assert.Equal(t, 4, ext.Idx.Entries[4].Global)
	assert.Equal(t, 5, ext.Idx.Entries[5].Global)
	assert.Equal(t, Owner, ext.Idx.Entries[4].Attr)
	assert.True(t, ext.Idx.Entries[4].Public)
	// Source set not mutated
	assert.Equal(t, 4, comm.Idx.Len())
}

func TestExtendWithWellsGroup(t *testing.T) {
	const np = 3
	var (
		ranks   = NewGroup(np)
		wells   = []int{2, 0, 3} // differing local well counts
		rows    = 4
		wg      sync.WaitGroup
		exts    [np]*Communication
		errs    [np]error
	)
	for n := 0; n < np; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			comm := newComm(ranks[n], rows, n*rows)
			exts[n], errs[n] = ExtendWithWells(comm, wells[n])
		}(n)
	}
	wg.Wait()

	var (
		gmax      = np*rows - 1
		maxNW     = 3
		seen      = make(map[int]bool)
		upperOpen = gmax + 1 + maxNW*np
	)
	for n := 0; n < np; n++ {
		require.NoError(t, errs[n])
		require.Equal(t, rows+wells[n], exts[n].Idx.Len())
		for _, e := range exts[n].Idx.Entries[rows:] {
			// Pairwise distinct across all ranks, inside the reserved band
			assert.False(t, seen[e.Global], "duplicate well id %d", e.Global)
			seen[e.Global] = true
			assert.GreaterOrEqual(t, e.Global, gmax+1)
			assert.Less(t, e.Global, upperOpen+wells[n])
		}
	}
	assert.Equal(t, 5, len(seen))
}
