package state

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"

	dbm "github.com/cosmos/cosmos-db"

	"github.com/subhasisjena1643/tapnad/internal/race"
)

const dbName = "tapnad"

var (
	// stateKey stores the JSON-encoded State.
	stateKey = []byte{0x01}

	// ResultKeyPrefix stores finished races: ResultKeyPrefix || u64be(raceNumber).
	ResultKeyPrefix = []byte{0x02}
)

func ResultKey(raceNumber uint64) []byte {
	bz := make([]byte, 1+8)
	bz[0] = ResultKeyPrefix[0]
	binary.BigEndian.PutUint64(bz[1:], raceNumber)
	return bz
}

// prefixEnd returns the exclusive upper bound for iterating prefix.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

// Store persists committed state and the archive of finished races.
type Store struct {
	db dbm.DB
}

// OpenStore opens the state database under <home>/data with the given
// cosmos-db backend (goleveldb, memdb).
func OpenStore(home, backend string) (*Store, error) {
	if backend == "" {
		backend = string(dbm.GoLevelDBBackend)
	}
	db, err := dbm.NewDB(dbName, dbm.BackendType(backend), filepath.Join(home, "data"))
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", backend, err)
	}
	return &Store{db: db}, nil
}

// NewMemStore returns a store backed by an in-memory database.
func NewMemStore() *Store {
	return &Store{db: dbm.NewMemDB()}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// LoadState returns the last committed state, or a fresh one on first start.
func (s *Store) LoadState() (*State, error) {
	b, err := s.db.Get(stateKey)
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	if b == nil {
		return NewState(), nil
	}
	return decodeState(b)
}

// Commit atomically writes the state together with any newly finished races.
func (s *Store) Commit(st *State, finished []race.Result) error {
	if st == nil {
		return fmt.Errorf("state is nil")
	}
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	batch := s.db.NewBatch()
	defer func() { _ = batch.Close() }()

	if err := batch.Set(stateKey, b); err != nil {
		return fmt.Errorf("stage state: %w", err)
	}
	for _, r := range finished {
		rb, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode result %d: %w", r.RaceNumber, err)
		}
		if err := batch.Set(ResultKey(r.RaceNumber), rb); err != nil {
			return fmt.Errorf("stage result %d: %w", r.RaceNumber, err)
		}
	}
	if err := batch.WriteSync(); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// Result returns the archived result of a finished race, or nil.
func (s *Store) Result(raceNumber uint64) (*race.Result, error) {
	b, err := s.db.Get(ResultKey(raceNumber))
	if err != nil {
		return nil, fmt.Errorf("read result %d: %w", raceNumber, err)
	}
	if b == nil {
		return nil, nil
	}
	var r race.Result
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode result %d: %w", raceNumber, err)
	}
	return &r, nil
}

// IterateResults walks archived results in race order until cb returns true.
func (s *Store) IterateResults(cb func(r race.Result) (stop bool)) error {
	it, err := s.db.Iterator(ResultKeyPrefix, prefixEnd(ResultKeyPrefix))
	if err != nil {
		return fmt.Errorf("iterate results: %w", err)
	}
	defer it.Close()

	for ; it.Valid(); it.Next() {
		key := it.Key()
		if len(key) != 1+8 || key[0] != ResultKeyPrefix[0] {
			continue
		}
		var r race.Result
		if err := json.Unmarshal(it.Value(), &r); err != nil {
			return fmt.Errorf("decode result %d: %w", binary.BigEndian.Uint64(key[1:]), err)
		}
		if cb(r) {
			break
		}
	}
	return it.Error()
}

// Results returns every archived result in race order.
func (s *Store) Results() ([]race.Result, error) {
	out := []race.Result{}
	err := s.IterateResults(func(r race.Result) bool {
		out = append(out, r)
		return false
	})
	return out, err
}
