package mitraillette

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"math/bits"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/golang/glog"
	"golang.org/x/sys/unix"
)

const unsetValue = -1.0

// DB stores converged solutions, so that they can be reused across solvers and runs.
// A DB is only meaningful for the Rules the solutions were computed under.
type DB interface {
	// Store the converged solution for a state.
	Put(state State, sol Solution) error
	// Retrieve a stored solution for the given state.
	// Returns the result (if found), and a bool indicating whether or not it was found.
	Get(state State) (Solution, bool)
	io.Closer
}

// DB that keeps results in a map.
type InMemoryDB struct {
	solutions map[State]Solution
}

func NewInMemoryDB() *InMemoryDB {
	return &InMemoryDB{solutions: make(map[State]Solution)}
}

func (db *InMemoryDB) Put(state State, sol Solution) error {
	db.solutions[state] = sol
	return nil
}

func (db *InMemoryDB) Get(state State) (Solution, bool) {
	sol, ok := db.solutions[state]
	return sol, ok
}

func (db *InMemoryDB) Len() int {
	return len(db.solutions)
}

func (db *InMemoryDB) Close() error {
	return nil
}

// Dense index of every state with a score and stake up to a target score.
type fileLayout struct {
	numLevels int
}

func newFileLayout(targetScore int) fileLayout {
	return fileLayout{numLevels: targetScore/ScoreIncrement + 1}
}

func (l fileLayout) numStates() int {
	return maxNumDice * l.numLevels * l.numLevels
}

func (l fileLayout) offset(s State) (int, bool) {
	if s.Score%ScoreIncrement != 0 || s.Stake%ScoreIncrement != 0 {
		return 0, false
	}
	score, stake := s.Score/ScoreIncrement, s.Stake/ScoreIncrement
	if score >= l.numLevels || stake >= l.numLevels || s.NumDice < 1 || s.NumDice > maxNumDice {
		return 0, false
	}

	// First dimension is number of dice to roll, then score, then stake.
	return ((s.NumDice-1)*l.numLevels+score)*l.numLevels + stake, true
}

// Each FileDB record holds the value followed by the bound it converged at.
const recordSize = 16

// DB that stores results in a memory-mapped flat file of fixed-size records.
// Only states whose score and stake are multiples of 50 up to the target score
// can be stored; other states are never found.
type FileDB struct {
	f      *os.File
	mmap   []byte
	layout fileLayout
	// Records written since the file was opened.
	written bitMask

	nPuts int
}

func NewFileDB(path string, targetScore int) (*FileDB, error) {
	if targetScore <= 0 || targetScore%ScoreIncrement != 0 {
		return nil, errors.Newf("file database needs a positive target score "+
			"that is a multiple of %d, got %d", ScoreIncrement, targetScore)
	}

	layout := newFileLayout(targetScore)
	numEntries := layout.numStates()
	fileSize := int64(recordSize * numEntries)

	var f *os.File
	stat, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		// Initialize a new empty database with all values unset.
		f, err = os.Create(path)
		if err != nil {
			return nil, errors.Wrapf(err, "creating %s", path)
		}
		glog.Infof("Initializing new database at %s with %d entries", path, numEntries)
		if err := fillUnset(f, numEntries); err != nil {
			_ = f.Close()
			return nil, errors.Wrapf(err, "initializing %s", path)
		}
	} else if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	} else if stat.Size() != fileSize {
		return nil, errors.Newf(
			"%s is not the correct size for target score %d: "+
				"got %d, expected %d", path, targetScore, stat.Size(), fileSize)
	} else {
		f, err = os.OpenFile(path, os.O_RDWR, 0644)
		if err != nil {
			return nil, errors.Wrapf(err, "opening %s", path)
		}
	}

	flags := unix.MAP_SHARED
	prot := unix.PROT_READ | unix.PROT_WRITE
	mmap, err := unix.Mmap(int(f.Fd()), 0, int(fileSize), prot, flags)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "mapping %s", path)
	}

	return &FileDB{
		f:       f,
		mmap:    mmap,
		layout:  layout,
		written: newBitMask(numEntries),
	}, nil
}

func fillUnset(f *os.File, numEntries int) error {
	w := bufio.NewWriterSize(f, 4*1024*1024)
	unset := make([]byte, recordSize)
	encodeRecord(unset, Solution{Value: unsetValue})
	for i := 0; i < numEntries; i++ {
		if _, err := w.Write(unset); err != nil {
			return err
		}
	}
	return w.Flush()
}

func encodeRecord(buf []byte, sol Solution) {
	binary.LittleEndian.PutUint64(buf[:8], math.Float64bits(sol.Value))
	binary.LittleEndian.PutUint64(buf[8:recordSize], uint64(sol.Bound))
}

func decodeRecord(buf []byte) Solution {
	return Solution{
		Value: math.Float64frombits(binary.LittleEndian.Uint64(buf[:8])),
		Bound: int(binary.LittleEndian.Uint64(buf[8:recordSize])),
	}
}

func (db *FileDB) record(id int) []byte {
	return db.mmap[recordSize*id : recordSize*(id+1)]
}

func (db *FileDB) Put(state State, sol Solution) error {
	id, ok := db.layout.offset(state)
	if !ok {
		glog.V(2).Infof("Not storing %v: outside of database", state)
		return nil
	}

	buf := db.record(id)
	if db.written.IsSet(id) {
		if old := decodeRecord(buf); old.Value != sol.Value {
			panic(errors.AssertionFailedf(
				"%v already stored with value %v, now %v", state, old.Value, sol.Value))
		}
	}

	encodeRecord(buf, sol)
	db.written.Set(id)

	db.nPuts++
	if db.nPuts%10000 == 0 {
		glog.Infof("Database has %d new entries. Last put: %v -> %v",
			db.nPuts, state, sol.Value)
	}
	return nil
}

func (db *FileDB) Get(state State) (Solution, bool) {
	id, ok := db.layout.offset(state)
	if !ok {
		return Solution{}, false
	}

	sol := decodeRecord(db.record(id))
	if sol.Value < 0 {
		return Solution{}, false
	}

	sol.Converged = true
	return sol, true
}

// NumWritten is the number of entries stored since the database was opened.
func (db *FileDB) NumWritten() int {
	return db.written.Count()
}

func (db *FileDB) Close() error {
	defer db.f.Close()

	if err := unix.Msync(db.mmap, unix.MS_SYNC); err != nil {
		return errors.Wrap(err, "syncing database")
	}
	if err := unix.Munmap(db.mmap); err != nil {
		return errors.Wrap(err, "unmapping database")
	}

	return db.f.Close()
}

// Fixed-size set of record ids, one bit per record.
type bitMask []uint64

func newBitMask(n int) bitMask {
	return make(bitMask, (n+63)/64)
}

func (bm bitMask) Set(id int) {
	bm[id>>6] |= 1 << uint(id&63)
}

func (bm bitMask) IsSet(id int) bool {
	return bm[id>>6]&(1<<uint(id&63)) != 0
}

func (bm bitMask) Count() int {
	n := 0
	for _, word := range bm {
		n += bits.OnesCount64(word)
	}
	return n
}

// OpenDB opens a database of the given kind: "memory", "file" or "pebble".
// File databases only hold states under targetScore.
func OpenDB(kind, path string, targetScore int) (DB, error) {
	switch kind {
	case "memory":
		return NewInMemoryDB(), nil
	case "file":
		return NewFileDB(path, targetScore)
	case "pebble":
		return NewPebbleDB(path)
	}
	return nil, errors.Newf("unknown database kind %q", kind)
}
