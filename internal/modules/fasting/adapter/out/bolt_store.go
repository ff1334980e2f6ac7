package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	apperrors "fastflow/internal/platform/errors"
)

const boltBucket = "fastflow"

type BoltBlobStore struct {
	db *bbolt.DB
}

func NewBoltBlobStore(path string) (*BoltBlobStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket %s: %w", boltBucket, err)
	}
	return &BoltBlobStore{db: db}, nil
}

func (s *BoltBlobStore) Get(ctx context.Context, slot string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		value := tx.Bucket([]byte(boltBucket)).Get([]byte(slot))
		if value == nil {
			return apperrors.ErrNotFound
		}
		// bolt values are only valid inside the transaction
		out = append([]byte(nil), value...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BoltBlobStore) Put(ctx context.Context, slot string, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return tx.Bucket([]byte(boltBucket)).Put([]byte(slot), value)
	})
}

func (s *BoltBlobStore) Close() error {
	return s.db.Close()
}
