package mitraillette

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryDB(t *testing.T) {
	db := NewInMemoryDB()
	state := NewState(100, 250, 4)
	_, ok := db.Get(state)
	assert.False(t, ok)

	sol := Solution{Value: 412.5, Bound: 12, Converged: true}
	require.NoError(t, db.Put(state, sol))
	got, ok := db.Get(state)
	require.True(t, ok)
	assert.Equal(t, sol, got)
	assert.Equal(t, 1, db.Len())
	assert.NoError(t, db.Close())
}

func TestFileLayout(t *testing.T) {
	layout := newFileLayout(1000)
	assert.Equal(t, 6*21*21, layout.numStates())

	seen := make(map[int]bool)
	for nDice := 1; nDice <= maxNumDice; nDice++ {
		for score := 0; score <= 1000; score += ScoreIncrement {
			for stake := 0; stake <= 1000; stake += ScoreIncrement {
				id, ok := layout.offset(State{Score: score, Stake: stake, NumDice: nDice})
				require.True(t, ok)
				require.False(t, seen[id])
				require.Less(t, id, layout.numStates())
				seen[id] = true
			}
		}
	}

	for _, state := range []State{
		{Score: 0, Stake: 1050, NumDice: 6},
		{Score: 1050, Stake: 0, NumDice: 6},
		{Score: 0, Stake: 75, NumDice: 6},
		{Score: 0, Stake: 0, NumDice: 7},
	} {
		_, ok := layout.offset(state)
		assert.False(t, ok, "%v", state)
	}
}

func TestFileDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := NewFileDB(path, 1000)
	require.NoError(t, err)

	state := NewState(200, 350, 3)
	_, ok := db.Get(state)
	assert.False(t, ok)

	sol := Solution{Value: 612.25, Bound: 9, Converged: true}
	require.NoError(t, db.Put(state, sol))
	got, ok := db.Get(state)
	require.True(t, ok)
	assert.Equal(t, sol, got)
	assert.Equal(t, 1, db.NumWritten())

	// Same value again is fine, a different one means the solver is broken.
	require.NoError(t, db.Put(state, sol))
	assert.Panics(t, func() { db.Put(state, Solution{Value: 1, Bound: 9}) })

	// States outside of the file are silently dropped.
	outside := NewState(0, 2000, 6)
	require.NoError(t, db.Put(outside, sol))
	_, ok = db.Get(outside)
	assert.False(t, ok)
	require.NoError(t, db.Close())

	// Values and bounds share one record per state, in a single file.
	stat, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(recordSize*newFileLayout(1000).numStates()), stat.Size())
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	reopened, err := NewFileDB(path, 1000)
	require.NoError(t, err)
	got, ok = reopened.Get(state)
	require.True(t, ok)
	assert.Equal(t, sol, got)
	assert.Equal(t, 0, reopened.NumWritten())
	require.NoError(t, reopened.Close())

	_, err = NewFileDB(path, 2000)
	assert.ErrorContains(t, err, "not the correct size")
}

func TestNewFileDBInvalidTarget(t *testing.T) {
	_, err := NewFileDB(filepath.Join(t.TempDir(), "test.db"), 0)
	assert.Error(t, err)
	_, err = NewFileDB(filepath.Join(t.TempDir(), "test.db"), 1025)
	assert.Error(t, err)
}

func TestPebbleDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pebble")
	db, err := NewPebbleDB(path)
	require.NoError(t, err)

	state := NewState(0, 15000, 2)
	_, ok := db.Get(state)
	assert.False(t, ok)

	sol := Solution{Value: 15123.5, Bound: 3, Converged: true}
	require.NoError(t, db.Put(state, sol))
	got, ok := db.Get(state)
	require.True(t, ok)
	assert.Equal(t, sol, got)
	require.NoError(t, db.Close())

	reopened, err := NewPebbleDB(path)
	require.NoError(t, err)
	got, ok = reopened.Get(state)
	require.True(t, ok)
	assert.Equal(t, sol, got)
	require.NoError(t, reopened.Close())
}

func TestSolverWithFileDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solver.db")
	db, err := NewFileDB(path, 1000)
	require.NoError(t, err)
	defer db.Close()

	s := newTestSolver(t, testRules(1000), db)
	value := s.ExpectedValueAt(500, 100, 5)
	got, ok := db.Get(NewState(500, 100, 5))
	require.True(t, ok)
	assert.Equal(t, value, got.Value)
	assert.Greater(t, got.Bound, 0)
}

func TestOpenDB(t *testing.T) {
	dir := t.TempDir()
	for _, kind := range []string{"memory", "file", "pebble"} {
		db, err := OpenDB(kind, filepath.Join(dir, kind), 1000)
		require.NoError(t, err, kind)
		require.NoError(t, db.Close(), kind)
	}

	_, err := OpenDB("bolt", filepath.Join(dir, "bolt"), 1000)
	assert.Error(t, err)
}

func TestRecordRoundTrip(t *testing.T) {
	buf := make([]byte, recordSize)
	encodeRecord(buf, Solution{Value: unsetValue})
	assert.Equal(t, Solution{Value: unsetValue}, decodeRecord(buf))

	encodeRecord(buf, Solution{Value: 1234.5, Bound: 42, Converged: true})
	assert.Equal(t, Solution{Value: 1234.5, Bound: 42}, decodeRecord(buf))
}

func TestBitMask(t *testing.T) {
	bm := newBitMask(130)
	assert.Len(t, bm, 3)
	for _, i := range []int{0, 63, 64, 129} {
		assert.False(t, bm.IsSet(i))
		bm.Set(i)
		assert.True(t, bm.IsSet(i))
	}
	bm.Set(64)
	assert.False(t, bm.IsSet(1))
	assert.Equal(t, 4, bm.Count())
}
