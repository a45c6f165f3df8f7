package bolt

import (
	"context"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

const sequenceBucket = "sequences"

// SequenceAllocator is the single-node/dev-deployment C3 backend. Each
// named sequence gets its own nested bucket under `sequences`, whose
// bbolt auto-increment counter is advanced inside a single read-write
// transaction so concurrent callers within this process never observe
// the same value twice.
type SequenceAllocator struct {
	db *DB
}

// NewSequenceAllocator wraps an already-open DB, creating the parent
// sequences bucket if it does not yet exist.
func NewSequenceAllocator(db *DB) (*SequenceAllocator, error) {
	if err := db.CreateBucket(sequenceBucket); err != nil {
		return nil, err
	}
	return &SequenceAllocator{db: db}, nil
}

func (a *SequenceAllocator) Next(_ context.Context, name string) (int64, error) {
	var next int64
	err := a.db.Update(func(tx *bolt.Tx) error {
		parent := tx.Bucket([]byte(sequenceBucket))
		if parent == nil {
			return fmt.Errorf("bucket not found: %s", sequenceBucket)
		}
		named, err := parent.CreateBucketIfNotExists([]byte(name))
		if err != nil {
			return fmt.Errorf("failed to open sequence bucket %s: %w", name, err)
		}
		seq, err := named.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate sequence %s: %w", name, err)
		}
		next = int64(seq)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}
