package domain_test

import (
	"errors"
	"testing"
	"time"

	"fastflow/internal/modules/fasting/domain"
	apperrors "fastflow/internal/platform/errors"
)

var epoch = time.UnixMilli(0).UTC()

func at(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func ptr[T any](v T) *T { return &v }

func activeCount(s domain.State) int {
	if s.Active != nil {
		return 1
	}
	return 0
}

func TestStartThenEnd(t *testing.T) {
	t.Parallel()
	state, change, err := domain.Start(domain.NewState(), "f1", 16, domain.Plan16x8, epoch)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !change.Has(domain.ChangeFasts) || !change.Has(domain.ChangeSettings) {
		t.Fatalf("start should touch both slots, got %b", change)
	}
	state, change = domain.End(state, at(1000))
	if change != domain.ChangeAll {
		t.Fatalf("end should touch both slots, got %b", change)
	}
	if state.Active != nil {
		t.Fatalf("expected no active fast after end")
	}
	if len(state.Completed) != 1 {
		t.Fatalf("expected one completed fast, got %d", len(state.Completed))
	}
	fast := state.Completed[0]
	if fast.StartAt.UnixMilli() != 0 || fast.EndAt.UnixMilli() != 1000 || fast.TargetHours != 16 {
		t.Fatalf("unexpected completed fast %+v", fast)
	}
	if state.Settings.Eating == nil || !state.Settings.Eating.StartAt.Equal(at(1000)) {
		t.Fatalf("expected eating window to start at end time, got %+v", state.Settings.Eating)
	}
	if state.Settings.Eating.TargetHours != 8 {
		t.Fatalf("expected eating target 8, got %v", state.Settings.Eating.TargetHours)
	}
}

func TestEndEatingWindowFloor(t *testing.T) {
	t.Parallel()
	state, _, err := domain.Start(domain.NewState(), "omad", 23.5, domain.PlanOMAD, epoch)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	state, _ = domain.End(state, at(5000))
	if state.Settings.Eating.TargetHours != 1 {
		t.Fatalf("expected one hour floor, got %v", state.Settings.Eating.TargetHours)
	}
}

func TestStartRejectsSecondActiveFast(t *testing.T) {
	t.Parallel()
	state, _, err := domain.Start(domain.NewState(), "f1", 16, domain.Plan16x8, epoch)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	next, change, err := domain.Start(state, "f2", 18, domain.Plan18x6, at(10))
	if !errors.Is(err, apperrors.ErrActiveFastExists) {
		t.Fatalf("expected ErrActiveFastExists, got %v", err)
	}
	if change != domain.ChangeNone || next.Active.ID != "f1" || activeCount(next) != 1 {
		t.Fatalf("rejected start must leave state untouched")
	}
}

func TestStartClearsEatingWindowAndDefaultsPlan(t *testing.T) {
	t.Parallel()
	state := domain.NewState()
	state.Settings.DefaultPlan = domain.Plan20x4
	state.Settings.Eating = &domain.EatingWindow{StartAt: epoch, TargetHours: 8}
	next, _, err := domain.Start(state, "f1", 20, "", at(100))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if next.Settings.Eating != nil {
		t.Fatalf("expected eating window cleared")
	}
	if next.Active.Plan != domain.Plan20x4 {
		t.Fatalf("expected default plan, got %q", next.Active.Plan)
	}
	if state.Settings.Eating == nil {
		t.Fatalf("input state must not be mutated")
	}
}

func TestStartValidatesTarget(t *testing.T) {
	t.Parallel()
	for _, target := range []float64{0, -1, 49} {
		if _, _, err := domain.Start(domain.NewState(), "f", target, "x", epoch); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Fatalf("target %v: expected validation error, got %v", target, err)
		}
	}
}

func TestEndAndAdjustWithoutActiveAreNoops(t *testing.T) {
	t.Parallel()
	state := domain.NewState()
	if _, change := domain.End(state, epoch); change != domain.ChangeNone {
		t.Fatalf("end without active should be a no-op")
	}
	if _, change := domain.UpdateCurrentStart(state, epoch, epoch); change != domain.ChangeNone {
		t.Fatalf("adjust without active should be a no-op")
	}
}

func TestUpdateCurrentStartClampsToNow(t *testing.T) {
	t.Parallel()
	state, _, _ := domain.Start(domain.NewState(), "f1", 16, domain.Plan16x8, at(10_000))
	next, change := domain.UpdateCurrentStart(state, at(50_000), at(20_000))
	if change != domain.ChangeFasts {
		t.Fatalf("expected fasts change only, got %b", change)
	}
	if next.Active.StartAt.UnixMilli() != 20_000 {
		t.Fatalf("expected start clamped to now, got %d", next.Active.StartAt.UnixMilli())
	}
	next, _ = domain.UpdateCurrentStart(state, at(1_000), at(20_000))
	if next.Active.StartAt.UnixMilli() != 1_000 {
		t.Fatalf("expected earlier start to be kept, got %d", next.Active.StartAt.UnixMilli())
	}
}

func historyState() domain.State {
	state := domain.NewState()
	state.Completed = []domain.CompletedFast{
		{ID: "a", StartAt: at(0), EndAt: at(16 * 3_600_000), TargetHours: 16, Plan: domain.Plan16x8},
		{ID: "b", StartAt: at(30 * 3_600_000), EndAt: at(50 * 3_600_000), TargetHours: 20, Plan: domain.Plan20x4},
	}
	state.Settings.Eating = &domain.EatingWindow{StartAt: at(50 * 3_600_000), TargetHours: 4}
	return state
}

func TestUpdateFastTimesRecomputesEatingWindow(t *testing.T) {
	t.Parallel()
	nowTime := at(100 * 3_600_000)
	next, change, err := domain.UpdateFastTimes(historyState(), domain.FastTimesEdit{
		ID: "b", StartAt: at(30 * 3_600_000), EndAt: ptr(at(48 * 3_600_000)),
	}, nowTime)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if change != domain.ChangeAll {
		t.Fatalf("expected fasts and settings change, got %b", change)
	}
	if next.Completed[1].EndAt.UnixMilli() != 48*3_600_000 {
		t.Fatalf("end not updated")
	}
	if !next.Settings.Eating.StartAt.Equal(at(48*3_600_000)) || next.Settings.Eating.TargetHours != domain.EatingTargetHours(20) {
		t.Fatalf("unexpected eating window %+v", next.Settings.Eating)
	}
}

func TestUpdateFastTimesLatestByEndAt(t *testing.T) {
	t.Parallel()
	nowTime := at(100 * 3_600_000)
	next, _, err := domain.UpdateFastTimes(historyState(), domain.FastTimesEdit{
		ID: "a", StartAt: at(60 * 3_600_000), EndAt: ptr(at(80 * 3_600_000)),
	}, nowTime)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !next.Settings.Eating.StartAt.Equal(at(80*3_600_000)) || next.Settings.Eating.TargetHours != 8 {
		t.Fatalf("expected eating window from fast a, got %+v", next.Settings.Eating)
	}
}

func TestUpdateFastTimesValidation(t *testing.T) {
	t.Parallel()
	nowTime := at(100 * 3_600_000)
	state := historyState()
	cases := map[string]domain.FastTimesEdit{
		"end before start": {ID: "a", StartAt: at(10), EndAt: ptr(at(5))},
		"future start":     {ID: "a", StartAt: at(101 * 3_600_000), EndAt: ptr(at(102 * 3_600_000))},
		"future end":       {ID: "a", StartAt: at(10), EndAt: ptr(at(101 * 3_600_000))},
		"reopen completed": {ID: "a", StartAt: at(10)},
		"empty id":         {StartAt: at(10), EndAt: ptr(at(20))},
	}
	for name, edit := range cases {
		next, change, err := domain.UpdateFastTimes(state, edit, nowTime)
		var verr *apperrors.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
		if change != domain.ChangeNone || next.Completed[0].StartAt.UnixMilli() != 0 {
			t.Fatalf("%s: state must be unchanged", name)
		}
	}
}

func TestUpdateFastTimesUnknownIDIsNoop(t *testing.T) {
	t.Parallel()
	_, change, err := domain.UpdateFastTimes(historyState(), domain.FastTimesEdit{ID: "zzz", StartAt: at(1), EndAt: ptr(at(2))}, at(10))
	if err != nil || change != domain.ChangeNone {
		t.Fatalf("expected no-op for unknown id, got change=%b err=%v", change, err)
	}
}

func TestUpdateFastTimesOnActiveFast(t *testing.T) {
	t.Parallel()
	state := historyState()
	state, _, err := domain.Start(state, "live", 18, domain.Plan18x6, at(60*3_600_000))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	nowTime := at(90 * 3_600_000)

	moved, change, err := domain.UpdateFastTimes(state, domain.FastTimesEdit{ID: "live", StartAt: at(58 * 3_600_000)}, nowTime)
	if err != nil {
		t.Fatalf("move active start: %v", err)
	}
	if change != domain.ChangeFasts || moved.Active == nil || moved.Active.StartAt.UnixMilli() != 58*3_600_000 {
		t.Fatalf("expected active start moved, got %+v change=%b", moved.Active, change)
	}
	if moved.Settings.Eating != nil {
		t.Fatalf("eating window stays cleared while a fast is active")
	}

	ended, change, err := domain.UpdateFastTimes(state, domain.FastTimesEdit{ID: "live", StartAt: at(60 * 3_600_000), EndAt: ptr(at(80 * 3_600_000))}, nowTime)
	if err != nil {
		t.Fatalf("complete active: %v", err)
	}
	if change != domain.ChangeAll || ended.Active != nil || len(ended.Completed) != 3 {
		t.Fatalf("expected active fast to complete")
	}
	if ended.Settings.Eating == nil || ended.Settings.Eating.TargetHours != 6 {
		t.Fatalf("expected eating window from completed live fast, got %+v", ended.Settings.Eating)
	}
}

func TestUpdateSettings(t *testing.T) {
	t.Parallel()
	state := domain.NewState()
	next, change, err := domain.UpdateSettings(state, domain.SettingsPatch{DefaultTargetHours: ptr(18.0), Use24h: ptr(false)})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if change != domain.ChangeSettings {
		t.Fatalf("expected settings change, got %b", change)
	}
	if next.Settings.DefaultTargetHours != 18 || next.Settings.Use24h || next.Settings.DefaultPlan != domain.Plan16x8 {
		t.Fatalf("unexpected merge result %+v", next.Settings)
	}
	if _, _, err := domain.UpdateSettings(state, domain.SettingsPatch{DefaultTargetHours: ptr(0.0)}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, change, _ := domain.UpdateSettings(state, domain.SettingsPatch{}); change != domain.ChangeNone {
		t.Fatalf("empty patch should be a no-op")
	}
}

func TestSingleActiveInvariantAcrossSequence(t *testing.T) {
	t.Parallel()
	state := domain.NewState()
	clock := epoch
	step := func() time.Time {
		clock = clock.Add(time.Hour)
		return clock
	}
	ids := []string{"a", "b", "c", "d"}
	for _, id := range ids {
		var err error
		state, _, err = domain.Start(state, id, 16, domain.Plan16x8, step())
		if err != nil {
			t.Fatalf("start %s: %v", id, err)
		}
		state, _, _ = domain.Start(state, id+"-dup", 16, domain.Plan16x8, step())
		state, _ = domain.UpdateCurrentStart(state, clock.Add(-30*time.Minute), step())
		if activeCount(state) != 1 {
			t.Fatalf("expected exactly one active fast")
		}
		state, _ = domain.End(state, step())
		state, _ = domain.End(state, step())
		if activeCount(state) != 0 {
			t.Fatalf("expected no active fast")
		}
	}
	records := domain.ToRecords(state)
	open := 0
	for _, r := range records {
		if r.EndAt == nil {
			open++
		}
	}
	if open != 0 || len(records) != len(ids) {
		t.Fatalf("unexpected records %+v", records)
	}
}
