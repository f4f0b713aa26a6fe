package bolt

import (
	"context"
	"encoding/binary"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"priceScope/internal/storage"
)

var (
	metaBucket   = []byte("__meta")
	lastBlockKey = []byte("last_block")
)

// Snapshot keeps the committed value of every store key and the last
// processed block on local disk so processing can resume.
type Snapshot struct {
	db *bolt.DB
}

func Open(path string) (*Snapshot, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	return &Snapshot{db: db}, nil
}

func (s *Snapshot) Name() string { return "bolt" }

// Publish applies the batch in a single write transaction.
func (s *Snapshot) Publish(_ context.Context, batch storage.BlockDeltas) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, d := range batch.Deltas {
			b, err := tx.CreateBucketIfNotExists([]byte(d.Store))
			if err != nil {
				return fmt.Errorf("bucket %s: %w", d.Store, err)
			}
			if err := b.Put([]byte(d.Key), d.NewValue); err != nil {
				return fmt.Errorf("put %s/%s: %w", d.Store, d.Key, err)
			}
		}
		meta, err := tx.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return err
		}
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], batch.BlockNumber)
		return meta.Put(lastBlockKey, buf[:])
	})
}

// LastBlock returns the last block recorded, if any.
func (s *Snapshot) LastBlock() (uint64, bool, error) {
	var (
		height uint64
		found  bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		if meta == nil {
			return nil
		}
		v := meta.Get(lastBlockKey)
		if len(v) != 8 {
			return nil
		}
		height = binary.BigEndian.Uint64(v)
		found = true
		return nil
	})
	return height, found, err
}

// Load calls fn for every committed key of the named store.
func (s *Snapshot) Load(store string, fn func(key string, value []byte)) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(store))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			value := make([]byte, len(v))
			copy(value, v)
			fn(string(k), value)
			return nil
		})
	})
}

func (s *Snapshot) Close() error { return s.db.Close() }
