package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	fastingadapter "fastflow/internal/modules/fasting/adapter/out"
	"fastflow/internal/modules/fasting/domain"
	"fastflow/internal/modules/fasting/service"
	apperrors "fastflow/internal/platform/errors"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fakeID struct {
	mu   sync.Mutex
	next int
}

func (f *fakeID) New() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	return fmt.Sprintf("fast-%d", f.next)
}

// failingStore fails every Put while fail is set.
type failingStore struct {
	*fastingadapter.MemoryBlobStore
	mu   sync.Mutex
	fail bool
}

func (s *failingStore) setFail(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = v
}

func (s *failingStore) Put(ctx context.Context, slot string, value []byte) error {
	s.mu.Lock()
	fail := s.fail
	s.mu.Unlock()
	if fail {
		return errors.New("disk full")
	}
	return s.MemoryBlobStore.Put(ctx, slot, value)
}

func newService(t *testing.T, start time.Time) (*service.FastingService, *fakeClock, *failingStore) {
	t.Helper()
	clk := &fakeClock{now: start}
	store := &failingStore{MemoryBlobStore: fastingadapter.NewMemoryBlobStore()}
	svc := service.NewFastingService(clk, &fakeID{}, fastingadapter.NewBlobRepository(store), zerolog.Nop())
	t.Cleanup(svc.Close)
	return svc, clk, store
}

func hydrated(t *testing.T, start time.Time) (*service.FastingService, *fakeClock, *failingStore) {
	t.Helper()
	svc, clk, store := newService(t, start)
	if err := svc.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return svc, clk, store
}

func TestSnapshotBeforeInit(t *testing.T) {
	t.Parallel()
	svc, _, _ := newService(t, time.UnixMilli(0))
	if _, err := svc.Snapshot(); !errors.Is(err, apperrors.ErrNotHydrated) {
		t.Fatalf("expected ErrNotHydrated, got %v", err)
	}
	if _, err := svc.StartFast(context.Background(), 16, "16/8"); !errors.Is(err, apperrors.ErrNotHydrated) {
		t.Fatalf("expected mutations to fail before init, got %v", err)
	}
}

func TestInitIsIdempotentAndLoadsDefaults(t *testing.T) {
	t.Parallel()
	svc, _, _ := hydrated(t, time.UnixMilli(0))
	if err := svc.Init(context.Background()); err != nil {
		t.Fatalf("second init: %v", err)
	}
	state, err := svc.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if state.FastCount() != 0 || !reflect.DeepEqual(state.Settings, domain.DefaultSettings()) {
		t.Fatalf("unexpected initial state %+v", state)
	}
}

func TestStartEndPersistsAndRehydrates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, clk, store := hydrated(t, time.UnixMilli(0))

	active, err := svc.StartFast(ctx, 16, "16/8")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if active.ID != "fast-1" || active.StartAt.UnixMilli() != 0 {
		t.Fatalf("unexpected active fast %+v", active)
	}
	if _, err := svc.StartFast(ctx, 18, "18/6"); !errors.Is(err, apperrors.ErrActiveFastExists) {
		t.Fatalf("expected ErrActiveFastExists, got %v", err)
	}

	clk.Set(time.UnixMilli(1000))
	ended, ok, err := svc.EndFast(ctx)
	if err != nil || !ok {
		t.Fatalf("end: ok=%v err=%v", ok, err)
	}
	if ended.EndAt.UnixMilli() != 1000 {
		t.Fatalf("unexpected end %d", ended.EndAt.UnixMilli())
	}
	if err := svc.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	reloaded := service.NewFastingService(clk, &fakeID{}, fastingadapter.NewBlobRepository(store), zerolog.Nop())
	defer reloaded.Close()
	if err := reloaded.Init(ctx); err != nil {
		t.Fatalf("reload init: %v", err)
	}
	state, _ := reloaded.Snapshot()
	if state.Active != nil || len(state.Completed) != 1 {
		t.Fatalf("unexpected reloaded fasts %+v", state)
	}
	if state.Settings.Eating == nil || state.Settings.Eating.StartAt.UnixMilli() != 1000 || state.Settings.Eating.TargetHours != 8 {
		t.Fatalf("unexpected reloaded eating window %+v", state.Settings.Eating)
	}
}

func TestNoopsWithoutActiveFast(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := hydrated(t, time.UnixMilli(0))
	if _, ok, err := svc.EndFast(ctx); ok || err != nil {
		t.Fatalf("expected no-op end, ok=%v err=%v", ok, err)
	}
	if ok, err := svc.UpdateCurrentStart(ctx, time.UnixMilli(0)); ok || err != nil {
		t.Fatalf("expected no-op adjust, ok=%v err=%v", ok, err)
	}
}

func TestUpdateFastTimesValidationLeavesStateUnchanged(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, clk, _ := hydrated(t, time.UnixMilli(0))
	if _, err := svc.StartFast(ctx, 16, "16/8"); err != nil {
		t.Fatalf("start: %v", err)
	}
	clk.Set(time.UnixMilli(20 * 3_600_000))
	ended, _, _ := svc.EndFast(ctx)
	before, _ := svc.Snapshot()

	end := time.UnixMilli(5)
	_, err := svc.UpdateFastTimes(ctx, domain.FastTimesEdit{ID: ended.ID, StartAt: time.UnixMilli(10), EndAt: &end})
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected validation error, got %v", err)
	}
	after, _ := svc.Snapshot()
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("state changed after rejected edit")
	}
}

func TestImportInvalidJSONLeavesStateUnchanged(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := hydrated(t, time.UnixMilli(0))
	if _, err := svc.StartFast(ctx, 16, "16/8"); err != nil {
		t.Fatalf("start: %v", err)
	}
	before, _ := svc.Snapshot()
	err := svc.ImportJSON(ctx, []byte("not json"))
	var perr *apperrors.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	after, _ := svc.Snapshot()
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("state changed after failed import")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, clk, _ := hydrated(t, time.UnixMilli(0))
	if _, err := svc.StartFast(ctx, 18, "18/6"); err != nil {
		t.Fatalf("start: %v", err)
	}
	clk.Set(time.UnixMilli(18 * 3_600_000))
	if _, _, err := svc.EndFast(ctx); err != nil {
		t.Fatalf("end: %v", err)
	}
	clk.Set(time.UnixMilli(24 * 3_600_000))
	if _, err := svc.StartFast(ctx, 16, "16/8"); err != nil {
		t.Fatalf("start second: %v", err)
	}

	exported, err := svc.ExportJSON()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(exported, &generic); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	beforeDoc, _ := svc.ExportDocument()
	if err := svc.ImportJSON(ctx, exported); err != nil {
		t.Fatalf("import: %v", err)
	}
	afterDoc, _ := svc.ExportDocument()
	if !reflect.DeepEqual(beforeDoc, afterDoc) {
		t.Fatalf("round trip mismatch\nbefore %+v\nafter  %+v", beforeDoc, afterDoc)
	}
	state, _ := svc.Snapshot()
	if state.Active == nil || state.Active.ID != "fast-2" {
		t.Fatalf("expected current fast retained, got %+v", state.Active)
	}
}

func TestImportPersistenceFailureKeepsMemoryState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, store := hydrated(t, time.UnixMilli(100_000))
	store.setFail(true)

	err := svc.ImportJSON(ctx, []byte(`{"fasts":[{"id":"x","startAt":0,"endAt":1000,"targetHours":16,"plan":"16/8"}]}`))
	var perr *apperrors.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	state, _ := svc.Snapshot()
	if len(state.Completed) != 1 || state.Completed[0].ID != "x" {
		t.Fatalf("in-memory state should hold the import, got %+v", state)
	}
	if svc.PersistFailures() == 0 {
		t.Fatalf("expected failures to be counted")
	}
}

func TestFireAndForgetFailureDoesNotSurface(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, store := hydrated(t, time.UnixMilli(0))
	store.setFail(true)
	if _, err := svc.StartFast(ctx, 16, "16/8"); err != nil {
		t.Fatalf("start should not report persistence failures: %v", err)
	}
	if err := svc.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := svc.PersistFailures(); got != 2 {
		t.Fatalf("expected two failed writes, got %d", got)
	}
	state, _ := svc.Snapshot()
	if state.Active == nil {
		t.Fatalf("memory stays the source of truth")
	}
}

func TestConcurrentMutationsKeepSingleActiveFast(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := hydrated(t, time.UnixMilli(0))
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = svc.StartFast(ctx, 16, "16/8")
			} else {
				_, _, _ = svc.EndFast(ctx)
			}
			state, err := svc.Snapshot()
			if err != nil {
				t.Errorf("snapshot: %v", err)
				return
			}
			open := 0
			for _, r := range domain.ToRecords(state) {
				if r.EndAt == nil {
					open++
				}
			}
			if open > 1 {
				t.Errorf("found %d open fasts", open)
			}
		}(i)
	}
	wg.Wait()
	if err := svc.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

func TestCloseIsIdempotentAndDropsLateWrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := hydrated(t, time.UnixMilli(0))
	svc.Close()
	svc.Close()
	if _, err := svc.StartFast(ctx, 16, "16/8"); err != nil {
		t.Fatalf("start after close still updates memory: %v", err)
	}
	if err := svc.Flush(ctx); err != nil {
		t.Fatalf("flush after close: %v", err)
	}
}

func TestInitReportsCorruptSlot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := fastingadapter.NewMemoryBlobStore()
	_ = store.Put(ctx, "fasts", []byte(`[{"id":"a","startAt":1},{"id":"b","startAt":2}]`))
	svc := service.NewFastingService(&fakeClock{}, &fakeID{}, fastingadapter.NewBlobRepository(store), zerolog.Nop())
	defer svc.Close()
	err := svc.Init(ctx)
	var perr *apperrors.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if _, err := svc.Snapshot(); !errors.Is(err, apperrors.ErrNotHydrated) {
		t.Fatalf("failed init must leave the store unhydrated, got %v", err)
	}
}
