package out

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	apperrors "fastflow/internal/platform/errors"
)

// FileBlobStore keeps one <slot>.json file per slot under dir.
type FileBlobStore struct {
	dir string
}

func NewFileBlobStore(dir string) (*FileBlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create slot dir: %w", err)
	}
	return &FileBlobStore{dir: dir}, nil
}

func (s *FileBlobStore) path(slot string) string {
	return filepath.Join(s.dir, slot+".json")
}

func (s *FileBlobStore) Get(ctx context.Context, slot string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.path(slot))
	if errors.Is(err, os.ErrNotExist) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read slot file: %w", err)
	}
	return raw, nil
}

// Put writes through a temp file and rename so a crash never leaves a
// truncated slot behind.
func (s *FileBlobStore) Put(ctx context.Context, slot string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, slot+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp slot file: %w", err)
	}
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write slot file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close slot file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(slot)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace slot file: %w", err)
	}
	return nil
}

func (s *FileBlobStore) Close() error { return nil }
