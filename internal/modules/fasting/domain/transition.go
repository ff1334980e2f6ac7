package domain

import (
	"strings"
	"time"

	apperrors "fastflow/internal/platform/errors"
)

// Change reports which persisted slots a transition touched.
type Change uint8

const (
	ChangeFasts Change = 1 << iota
	ChangeSettings

	ChangeNone Change = 0
	ChangeAll         = ChangeFasts | ChangeSettings
)

func (c Change) Has(other Change) bool { return c&other == other && other != 0 }

// Start opens a new fast at now and clears the eating window.
func Start(s State, id string, targetHours float64, plan string, now time.Time) (State, Change, error) {
	if s.Active != nil {
		return s, ChangeNone, apperrors.ErrActiveFastExists
	}
	if strings.TrimSpace(id) == "" {
		return s, ChangeNone, apperrors.NewValidation("id", "must not be empty")
	}
	if err := ValidateTargetHours("targetHours", targetHours); err != nil {
		return s, ChangeNone, err
	}
	if strings.TrimSpace(plan) == "" {
		plan = s.Settings.DefaultPlan
	}
	next := s.Clone()
	next.Active = &ActiveFast{
		ID:          id,
		StartAt:     Instant(now),
		TargetHours: targetHours,
		Plan:        plan,
	}
	next.Settings.Eating = nil
	return next, ChangeAll, nil
}

// End completes the active fast at now and opens the eating window. It is a
// no-op without an active fast.
func End(s State, now time.Time) (State, Change) {
	if s.Active == nil {
		return s, ChangeNone
	}
	next := s.Clone()
	ended := next.Active.Complete(now)
	next.Completed = append(next.Completed, ended)
	next.Active = nil
	next.Settings.Eating = &EatingWindow{
		StartAt:     ended.EndAt,
		TargetHours: EatingTargetHours(ended.TargetHours),
	}
	return next, ChangeAll
}

// UpdateCurrentStart moves the active fast's start, never past now. It is a
// no-op without an active fast.
func UpdateCurrentStart(s State, newStart, now time.Time) (State, Change) {
	if s.Active == nil {
		return s, ChangeNone
	}
	if newStart.After(now) {
		newStart = now
	}
	next := s.Clone()
	next.Active.StartAt = Instant(newStart)
	return next, ChangeFasts
}

// FastTimesEdit rewrites the times of one fast. A nil EndAt keeps an active
// fast running; it is rejected for a completed fast.
type FastTimesEdit struct {
	ID      string
	StartAt time.Time
	EndAt   *time.Time
}

// UpdateFastTimes applies edit to the fast with the matching id. Unknown ids
// are a no-op. When no fast is active afterwards the eating window is
// recomputed from the latest completed fast, or cleared when none remain.
func UpdateFastTimes(s State, edit FastTimesEdit, now time.Time) (State, Change, error) {
	if err := validateTimes(edit, now); err != nil {
		return s, ChangeNone, err
	}
	start := Instant(edit.StartAt)
	next := s.Clone()

	switch {
	case next.Active != nil && next.Active.ID == edit.ID:
		next.Active.StartAt = start
		if edit.EndAt != nil {
			next.Completed = append(next.Completed, next.Active.Complete(*edit.EndAt))
			next.Active = nil
		}
	default:
		idx := next.completedIndex(edit.ID)
		if idx < 0 {
			return s, ChangeNone, nil
		}
		if edit.EndAt == nil {
			return s, ChangeNone, apperrors.NewValidation("endAt", "a completed fast cannot be reopened")
		}
		next.Completed[idx].StartAt = start
		next.Completed[idx].EndAt = Instant(*edit.EndAt)
	}

	if next.Active != nil {
		return next, ChangeFasts, nil
	}
	next.Settings.Eating = eatingWindowFrom(next)
	return next, ChangeAll, nil
}

func validateTimes(edit FastTimesEdit, now time.Time) error {
	if strings.TrimSpace(edit.ID) == "" {
		return apperrors.NewValidation("id", "must not be empty")
	}
	if edit.StartAt.IsZero() {
		return apperrors.NewValidation("startAt", "is required")
	}
	if edit.StartAt.After(now) {
		return apperrors.NewValidation("startAt", "cannot be in the future")
	}
	if edit.EndAt == nil {
		return nil
	}
	if edit.EndAt.After(now) {
		return apperrors.NewValidation("endAt", "cannot be in the future")
	}
	if edit.EndAt.Before(edit.StartAt) {
		return apperrors.NewValidation("endAt", "must not be before startAt")
	}
	return nil
}

func eatingWindowFrom(s State) *EatingWindow {
	latest, ok := s.LatestCompleted()
	if !ok {
		return nil
	}
	return &EatingWindow{
		StartAt:     latest.EndAt,
		TargetHours: EatingTargetHours(latest.TargetHours),
	}
}

// UpdateSettings shallow-merges patch into the settings.
func UpdateSettings(s State, patch SettingsPatch) (State, Change, error) {
	if err := patch.Validate(); err != nil {
		return s, ChangeNone, err
	}
	if patch.Empty() {
		return s, ChangeNone, nil
	}
	next := s.Clone()
	next.Settings = next.Settings.Apply(patch)
	return next, ChangeSettings, nil
}

// Replace swaps fasts and settings wholesale, as an import does. Settings
// fields absent from doc keep their current values. An imported current
// fast closes any eating window, as Start does.
func Replace(s State, doc Document) (State, error) {
	completed, active, err := FromRecords(doc.Fasts)
	if err != nil {
		return s, err
	}
	next := State{
		Completed: completed,
		Active:    active,
		Settings:  s.Settings.Clone(),
	}
	if doc.Settings != nil {
		next.Settings = doc.Settings.merge(next.Settings)
	}
	if next.Active != nil {
		next.Settings.Eating = nil
	}
	return next, nil
}
