package out_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"

	fastingadapter "fastflow/internal/modules/fasting/adapter/out"
	fastingout "fastflow/internal/modules/fasting/port/out"
	apperrors "fastflow/internal/platform/errors"
)

func openStores(t *testing.T) map[string]fastingout.BlobStore {
	t.Helper()
	dir := t.TempDir()

	bolt, err := fastingadapter.NewBoltBlobStore(filepath.Join(dir, "bolt", "fastflow.db"))
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	files, err := fastingadapter.NewFileBlobStore(filepath.Join(dir, "slots"))
	if err != nil {
		t.Fatalf("open file store: %v", err)
	}
	sqlite, err := fastingadapter.NewSQLiteBlobStore(filepath.Join(dir, "sqlite", "fastflow.sqlite"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	mr := miniredis.RunT(t)
	redis, err := fastingadapter.NewRedisBlobStore(fastingadapter.RedisOptions{Addr: mr.Addr(), KeyPrefix: "test:"})
	if err != nil {
		t.Fatalf("open redis: %v", err)
	}

	stores := map[string]fastingout.BlobStore{
		"bolt":   bolt,
		"file":   files,
		"sqlite": sqlite,
		"redis":  redis,
		"memory": fastingadapter.NewMemoryBlobStore(),
	}
	t.Cleanup(func() {
		for _, store := range stores {
			_ = store.Close()
		}
	})
	return stores
}

func TestBlobStoresRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	for name, store := range openStores(t) {
		if _, err := store.Get(ctx, "fasts"); !errors.Is(err, apperrors.ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound for absent slot, got %v", name, err)
		}
		if err := store.Put(ctx, "fasts", []byte(`[1]`)); err != nil {
			t.Fatalf("%s: put: %v", name, err)
		}
		if err := store.Put(ctx, "fasts", []byte(`[1,2]`)); err != nil {
			t.Fatalf("%s: overwrite: %v", name, err)
		}
		got, err := store.Get(ctx, "fasts")
		if err != nil {
			t.Fatalf("%s: get: %v", name, err)
		}
		if string(got) != `[1,2]` {
			t.Fatalf("%s: expected last write, got %s", name, got)
		}
		if _, err := store.Get(ctx, "settings"); !errors.Is(err, apperrors.ErrNotFound) {
			t.Fatalf("%s: slots must be independent, got %v", name, err)
		}
	}
}

func TestBlobStoresHonorCancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for name, store := range openStores(t) {
		if err := store.Put(ctx, "fasts", []byte(`[]`)); err == nil {
			t.Fatalf("%s: expected error for cancelled context", name)
		}
	}
}

func TestBoltBlobStorePersistsAcrossReopen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "fastflow.db")
	store, err := fastingadapter.NewBoltBlobStore(path)
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	if err := store.Put(context.Background(), "settings", []byte(`{"use24h":false}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	reopened, err := fastingadapter.NewBoltBlobStore(path)
	if err != nil {
		t.Fatalf("reopen bolt: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	got, err := reopened.Get(context.Background(), "settings")
	if err != nil || string(got) != `{"use24h":false}` {
		t.Fatalf("expected persisted value, got %s err=%v", got, err)
	}
}

func TestRedisBlobStoreUsesKeyPrefix(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	store, err := fastingadapter.NewRedisBlobStore(fastingadapter.RedisOptions{Addr: mr.Addr(), KeyPrefix: "fastflow:"})
	if err != nil {
		t.Fatalf("open redis: %v", err)
	}
	defer func() { _ = store.Close() }()
	if err := store.Put(context.Background(), "settings", []byte(`{}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := mr.Get("fastflow:settings")
	if err != nil || got != `{}` {
		t.Fatalf("expected prefixed key, got %q err=%v", got, err)
	}
}

func TestRedisBlobStoreFailsWhenUnreachable(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	if _, err := fastingadapter.NewRedisBlobStore(fastingadapter.RedisOptions{Addr: addr}); err == nil {
		t.Fatalf("expected ping failure")
	}
}
