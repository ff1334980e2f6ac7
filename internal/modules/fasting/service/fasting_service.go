package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"fastflow/internal/modules/fasting/domain"
	fastingout "fastflow/internal/modules/fasting/port/out"
	"fastflow/internal/platform/clock"
	apperrors "fastflow/internal/platform/errors"
	"fastflow/internal/platform/id"
)

const persistBuffer = 64

// FastingService owns the tracker state. Mutations run under one lock and
// update memory synchronously; the matching slot writes go to a background
// writer and are not awaited, except by ImportJSON.
type FastingService struct {
	clock  clock.Clock
	idGen  id.Generator
	repo   fastingout.Repository
	writer *persistWriter
	logger zerolog.Logger

	mu       sync.Mutex
	state    domain.State
	hydrated bool
}

func NewFastingService(clock clock.Clock, idGen id.Generator, repo fastingout.Repository, logger zerolog.Logger) *FastingService {
	return &FastingService{
		clock:  clock,
		idGen:  idGen,
		repo:   repo,
		writer: newPersistWriter(logger.With().Str("component", "persist").Logger(), persistBuffer),
		logger: logger,
		state:  domain.NewState(),
	}
}

// Init hydrates the state from the repository. Later calls are no-ops.
func (s *FastingService) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hydrated {
		return nil
	}
	records, err := s.repo.LoadFasts(ctx)
	if err != nil {
		return fmt.Errorf("load fasts: %w", err)
	}
	settings, err := s.repo.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	completed, active, err := domain.FromRecords(records)
	if err != nil {
		return fmt.Errorf("load fasts: %w", &apperrors.PersistenceError{Slot: fastingout.SlotFasts, Op: "decode", Err: err})
	}
	s.state = domain.State{Completed: completed, Active: active, Settings: settings}
	s.hydrated = true
	s.logger.Debug().Int("fasts", s.state.FastCount()).Bool("active", active != nil).Msg("store hydrated")
	return nil
}

// Snapshot returns a copy of the state, or ErrNotHydrated before Init.
func (s *FastingService) Snapshot() (domain.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hydrated {
		return domain.State{}, apperrors.ErrNotHydrated
	}
	return s.state.Clone(), nil
}

func (s *FastingService) StartFast(_ context.Context, targetHours float64, plan string) (domain.ActiveFast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hydrated {
		return domain.ActiveFast{}, apperrors.ErrNotHydrated
	}
	next, change, err := domain.Start(s.state, s.idGen.New(), targetHours, plan, s.clock.Now())
	if err != nil {
		return domain.ActiveFast{}, err
	}
	s.commit(next, change)
	s.logger.Info().Str("fast_id", next.Active.ID).Str("plan", next.Active.Plan).Float64("target_hours", targetHours).Msg("fast started")
	return *next.Active, nil
}

// EndFast reports false when no fast was active.
func (s *FastingService) EndFast(_ context.Context) (domain.CompletedFast, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hydrated {
		return domain.CompletedFast{}, false, apperrors.ErrNotHydrated
	}
	next, change := domain.End(s.state, s.clock.Now())
	if change == domain.ChangeNone {
		return domain.CompletedFast{}, false, nil
	}
	s.commit(next, change)
	ended := next.Completed[len(next.Completed)-1]
	s.logger.Info().Str("fast_id", ended.ID).Dur("duration", ended.Duration()).Msg("fast ended")
	return ended, true, nil
}

func (s *FastingService) UpdateCurrentStart(_ context.Context, newStart time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hydrated {
		return false, apperrors.ErrNotHydrated
	}
	next, change := domain.UpdateCurrentStart(s.state, newStart, s.clock.Now())
	if change == domain.ChangeNone {
		return false, nil
	}
	s.commit(next, change)
	return true, nil
}

// UpdateFastTimes reports false when no fast has the edited id.
func (s *FastingService) UpdateFastTimes(_ context.Context, edit domain.FastTimesEdit) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hydrated {
		return false, apperrors.ErrNotHydrated
	}
	next, change, err := domain.UpdateFastTimes(s.state, edit, s.clock.Now())
	if err != nil {
		return false, err
	}
	if change == domain.ChangeNone {
		return false, nil
	}
	s.commit(next, change)
	s.logger.Info().Str("fast_id", edit.ID).Msg("fast times edited")
	return true, nil
}

func (s *FastingService) UpdateSettings(_ context.Context, patch domain.SettingsPatch) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hydrated {
		return domain.Settings{}, apperrors.ErrNotHydrated
	}
	next, change, err := domain.UpdateSettings(s.state, patch)
	if err != nil {
		return domain.Settings{}, err
	}
	s.commit(next, change)
	return next.Settings.Clone(), nil
}

func (s *FastingService) ExportDocument() (domain.Document, error) {
	state, err := s.Snapshot()
	if err != nil {
		return domain.Document{}, err
	}
	return domain.ExportDocument(state), nil
}

// ExportJSON renders the bulk export format with a two-space indent.
func (s *FastingService) ExportJSON() ([]byte, error) {
	doc, err := s.ExportDocument()
	if err != nil {
		return nil, err
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return raw, nil
}

// ImportJSON replaces fasts and settings wholesale. A malformed payload is a
// ParseError and leaves the state untouched. Both slots are written before
// returning; a failed write surfaces as a PersistenceError while the
// imported state stays in memory.
func (s *FastingService) ImportJSON(ctx context.Context, data []byte) error {
	doc, err := domain.ParseDocument(data)
	if err != nil {
		return &apperrors.ParseError{Err: err}
	}

	s.mu.Lock()
	if !s.hydrated {
		s.mu.Unlock()
		return apperrors.ErrNotHydrated
	}
	next, err := domain.Replace(s.state, doc)
	if err != nil {
		s.mu.Unlock()
		return &apperrors.ParseError{Err: err}
	}
	s.state = next
	results := s.persist(next, domain.ChangeAll, true)
	s.mu.Unlock()
	s.logger.Info().Int("fasts", next.FastCount()).Msg("data imported")

	var firstErr error
	for _, done := range results {
		select {
		case err := <-done:
			if err != nil && firstErr == nil {
				firstErr = err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return firstErr
}

// Flush blocks until every write enqueued so far has been applied.
func (s *FastingService) Flush(ctx context.Context) error {
	return s.writer.flush(ctx)
}

// PersistFailures counts slot writes that failed since startup.
func (s *FastingService) PersistFailures() int64 {
	return s.writer.failureCount()
}

// Close drains pending writes and stops the writer.
func (s *FastingService) Close() {
	s.writer.close()
}

// commit must be called with mu held.
func (s *FastingService) commit(next domain.State, change domain.Change) {
	s.state = next
	s.persist(next, change, false)
}

// persist enqueues the writes for the slots in change, encoding from the
// given snapshot so later mutations cannot leak into an earlier write.
func (s *FastingService) persist(state domain.State, change domain.Change, wait bool) []chan error {
	var results []chan error
	newDone := func() chan error {
		if !wait {
			return nil
		}
		done := make(chan error, 1)
		results = append(results, done)
		return done
	}
	if change.Has(domain.ChangeFasts) {
		records := domain.ToRecords(state)
		done := newDone()
		if !s.writer.enqueue(persistJob{
			slot:  fastingout.SlotFasts,
			write: func(ctx context.Context) error { return s.repo.SaveFasts(ctx, records) },
			done:  done,
		}) && done != nil {
			done <- &apperrors.PersistenceError{Slot: fastingout.SlotFasts, Op: "save", Err: errWriterClosed}
		}
	}
	if change.Has(domain.ChangeSettings) {
		settings := state.Settings.Clone()
		done := newDone()
		if !s.writer.enqueue(persistJob{
			slot:  fastingout.SlotSettings,
			write: func(ctx context.Context) error { return s.repo.SaveSettings(ctx, settings) },
			done:  done,
		}) && done != nil {
			done <- &apperrors.PersistenceError{Slot: fastingout.SlotSettings, Op: "save", Err: errWriterClosed}
		}
	}
	return results
}
