package out

import (
	"context"
	"sync"

	apperrors "fastflow/internal/platform/errors"
)

// MemoryBlobStore is a process-local store. Nothing survives a restart.
type MemoryBlobStore struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{slots: map[string][]byte{}}
}

func (s *MemoryBlobStore) Get(ctx context.Context, slot string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.slots[slot]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *MemoryBlobStore) Put(ctx context.Context, slot string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slot] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryBlobStore) Close() error { return nil }
