// Package bolt keeps the last good authority snapshot on disk so the feed can
// serve stale data when its primary source is unavailable.
package bolt

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"
	bberrors "go.etcd.io/bbolt/errors"

	"github.com/haukened/callguard/internal/guard/domain"
)

var (
	bucketNumbers = []byte("numbers")
	bucketMeta    = []byte("meta")

	keyVersion = []byte("version")
	keyUpdated = []byte("updated")
)

// StoreStats describes the mirrored snapshot.
type StoreStats struct {
	Count       uint64
	Version     uint64
	UpdatedUnix int64
}

// Store is a bbolt-backed authority snapshot. Entries are keyed by their
// position so Load returns them in the order they were saved.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) a Bolt database at path and ensures buckets exist.
func New(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketNumbers); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketMeta); err != nil {
			return err
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// RebuildAll replaces the stored snapshot with entries in a single transaction.
func (s *Store) RebuildAll(entries []domain.ListedNumber, version uint64, updatedUnix int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketNumbers); err != nil && !errors.Is(err, bberrors.ErrBucketNotFound) {
			return err
		}
		b, err := tx.CreateBucket(bucketNumbers)
		if err != nil {
			return err
		}
		for i, n := range entries {
			v, err := json.Marshal(n)
			if err != nil {
				return fmt.Errorf("encode %s: %w", n.Number, err)
			}
			if err := b.Put(positionKey(uint64(i)), v); err != nil {
				return err
			}
		}

		meta := tx.Bucket(bucketMeta)
		vbuf := make([]byte, 8)
		ubuf := make([]byte, 8)
		binary.BigEndian.PutUint64(vbuf, version)
		binary.BigEndian.PutUint64(ubuf, uint64(updatedUnix))
		if err := meta.Put(keyVersion, vbuf); err != nil {
			return err
		}
		return meta.Put(keyUpdated, ubuf)
	})
}

// Load returns the stored snapshot in saved order. An empty store yields no
// entries and no error.
func (s *Store) Load() ([]domain.ListedNumber, error) {
	var out []domain.ListedNumber
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketNumbers)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var n domain.ListedNumber
			if err := json.Unmarshal(v, &n); err != nil {
				return fmt.Errorf("decode entry %x: %w", k, err)
			}
			out = append(out, n)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Stats() StoreStats {
	st := StoreStats{}
	_ = s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketNumbers); b != nil {
			st.Count = uint64(b.Stats().KeyN)
		}
		if b := tx.Bucket(bucketMeta); b != nil {
			if v := b.Get(keyVersion); len(v) == 8 {
				st.Version = binary.BigEndian.Uint64(v)
			}
			if v := b.Get(keyUpdated); len(v) == 8 {
				st.UpdatedUnix = int64(binary.BigEndian.Uint64(v))
			}
		}
		return nil
	})
	return st
}

func positionKey(i uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, i)
	return k
}
