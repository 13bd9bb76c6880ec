package extract

import (
	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

// Set remembers the positions a run has already emitted. Memory use of the
// in-memory sets grows with the number of distinct positions.
type Set interface {
	// Add records key and reports whether it was new.
	Add(key string) (bool, error)
	Len() int
	Close() error
}

// NewSet returns the set for mode.
func NewSet(mode DedupeMode, dir string) (Set, error) {
	switch mode {
	case DedupeExact, "":
		return make(exactSet), nil
	case DedupeHashed:
		return make(hashedSet), nil
	case DedupeDisk:
		return openDiskSet(badger.DefaultOptions(dir))
	case DedupeNone:
		return nopSet{}, nil
	}
	return nil, errors.Errorf("unknown dedupe mode %q", mode)
}

type exactSet map[string]struct{}

func (s exactSet) Add(key string) (bool, error) {
	if _, ok := s[key]; ok {
		return false, nil
	}
	s[key] = struct{}{}
	return true, nil
}

func (s exactSet) Len() int     { return len(s) }
func (s exactSet) Close() error { return nil }

// hashedSet keeps 8 bytes per position. Distinct positions whose hashes
// collide are treated as duplicates.
type hashedSet map[uint64]struct{}

func (s hashedSet) Add(key string) (bool, error) {
	h := xxhash.Sum64String(key)
	if _, ok := s[h]; ok {
		return false, nil
	}
	s[h] = struct{}{}
	return true, nil
}

func (s hashedSet) Len() int     { return len(s) }
func (s hashedSet) Close() error { return nil }

type nopSet struct{}

func (nopSet) Add(string) (bool, error) { return true, nil }
func (nopSet) Len() int                 { return 0 }
func (nopSet) Close() error             { return nil }

// diskSet stores keys in a badger database so memory stays bounded.
type diskSet struct {
	db *badger.DB
	n  int
}

func openDiskSet(opts badger.Options) (*diskSet, error) {
	db, err := badger.Open(opts.WithLogger(nil))
	if err != nil {
		return nil, errors.Wrapf(err, "open dedupe store %q", opts.Dir)
	}
	// keys from an earlier run must not suppress this one
	if err := db.DropAll(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "clear dedupe store")
	}
	return &diskSet{db: db}, nil
}

func (s *diskSet) Add(key string) (bool, error) {
	k := []byte(key)
	added := false
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(k)
		if err == nil {
			return nil
		}
		if err != badger.ErrKeyNotFound {
			return err
		}
		added = true
		return txn.Set(k, nil)
	})
	if err != nil {
		return false, errors.Wrap(err, "dedupe store")
	}
	if added {
		s.n++
	}
	return added, nil
}

func (s *diskSet) Len() int { return s.n }

func (s *diskSet) Close() error {
	return errors.Wrap(s.db.Close(), "close dedupe store")
}
