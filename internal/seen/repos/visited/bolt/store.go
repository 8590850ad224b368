package bolt

import (
	"encoding/binary"
	"errors"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/rr-seen/internal/seen/repos/visited"
)

var (
	bucketVisited = []byte("visited")
	bucketMeta    = []byte("meta")

	metaUpdated = []byte("updated")
)

var ErrEmptyKey = errors.New("visited key must not be empty")

// boltStore implements visited.Store using bbolt.
// Keys map to the 8-byte big-endian unix time of their first visit.
type boltStore struct {
	db *bbolt.DB
}

// bucketCreator is the subset of *bbolt.Tx used to create buckets.
type bucketCreator interface {
	CreateBucketIfNotExists(name []byte) (*bbolt.Bucket, error)
}

func ensureBuckets(tx bucketCreator) error {
	for _, name := range [][]byte{bucketVisited, bucketMeta} {
		if _, err := tx.CreateBucketIfNotExists(name); err != nil {
			return err
		}
	}
	return nil
}

// ensureBucketsFn is a seam for tests.
var ensureBucketsFn = func(tx bucketCreator) error { return ensureBuckets(tx) }

// New opens (or creates) a Bolt database at path and ensures buckets exist.
func New(path string) (visited.Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error { return ensureBucketsFn(tx) }); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &boltStore{db: db}, nil
}

func (s *boltStore) Close() error { return s.db.Close() }

func (s *boltStore) Exists(key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	var present bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketVisited); b != nil {
			present = b.Get([]byte(key)) != nil
		}
		return nil
	})
	return present, err
}

// Put records key. An existing key keeps its first-visit time.
func (s *boltStore) Put(key string, visitedUnix int64) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVisited)
		if b.Get([]byte(key)) != nil {
			return nil
		}
		if err := b.Put([]byte(key), encodeUnix(visitedUnix)); err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(metaUpdated, encodeUnix(visitedUnix))
	})
}

// ForEach visits keys in byte order until visit returns false.
func (s *boltStore) ForEach(visit func(key string) bool) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVisited)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if !visit(string(k)) {
				return nil
			}
		}
		return nil
	})
}

// VisitedAt returns the first-visit time recorded for key.
func (s *boltStore) VisitedAt(key string) (int64, bool, error) {
	var (
		ts    int64
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketVisited).Get([]byte(key)); len(v) == 8 {
			ts, found = decodeUnix(v), true
		}
		return nil
	})
	return ts, found, err
}

func (s *boltStore) Stats() visited.StoreStats {
	st := visited.StoreStats{}
	_ = s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketVisited); b != nil {
			st.Keys = uint64(b.Stats().KeyN)
		}
		if b := tx.Bucket(bucketMeta); b != nil {
			if v := b.Get(metaUpdated); len(v) == 8 {
				st.UpdatedUnix = decodeUnix(v)
			}
		}
		return nil
	})
	return st
}

func encodeUnix(ts int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(ts))
	return buf
}

func decodeUnix(b []byte) int64 { return int64(binary.BigEndian.Uint64(b)) }

var _ visited.Store = (*boltStore)(nil)
