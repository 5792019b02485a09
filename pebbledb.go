package mitraillette

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/golang/glog"
)

const (
	pebbleKeySize   = 12
	pebbleValueSize = 16
)

// DB that stores results in a Pebble key-value store. Unlike FileDB it can hold
// any state, including uncapped games.
type PebbleDB struct {
	db *pebble.DB
}

func NewPebbleDB(path string) (*PebbleDB, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "opening pebble database at %s", path)
	}
	return &PebbleDB{db: db}, nil
}

// Keys sort by dice count, then score, then stake.
func pebbleKey(state State) []byte {
	key := make([]byte, pebbleKeySize)
	binary.BigEndian.PutUint32(key[0:4], uint32(state.NumDice))
	binary.BigEndian.PutUint32(key[4:8], uint32(state.Score))
	binary.BigEndian.PutUint32(key[8:12], uint32(state.Stake))
	return key
}

func (db *PebbleDB) Put(state State, sol Solution) error {
	value := make([]byte, pebbleValueSize)
	binary.LittleEndian.PutUint64(value[0:8], math.Float64bits(sol.Value))
	binary.LittleEndian.PutUint64(value[8:16], uint64(sol.Bound))
	if err := db.db.Set(pebbleKey(state), value, pebble.NoSync); err != nil {
		return errors.Wrapf(err, "storing %v", state)
	}
	return nil
}

func (db *PebbleDB) Get(state State) (Solution, bool) {
	value, closer, err := db.db.Get(pebbleKey(state))
	if errors.Is(err, pebble.ErrNotFound) {
		return Solution{}, false
	} else if err != nil {
		glog.Errorf("Error reading %v: %v", state, err)
		return Solution{}, false
	}
	defer closer.Close()

	if len(value) != pebbleValueSize {
		glog.Errorf("Corrupt entry for %v: %d bytes", state, len(value))
		return Solution{}, false
	}

	return Solution{
		Value:     math.Float64frombits(binary.LittleEndian.Uint64(value[0:8])),
		Bound:     int(binary.LittleEndian.Uint64(value[8:16])),
		Converged: true,
	}, true
}

func (db *PebbleDB) Close() error {
	if err := db.db.Flush(); err != nil {
		_ = db.db.Close()
		return errors.Wrap(err, "flushing pebble database")
	}
	return db.db.Close()
}
