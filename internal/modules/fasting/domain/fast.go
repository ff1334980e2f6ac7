package domain

import "time"

// ActiveFast is the in-progress fast. A State holds at most one.
type ActiveFast struct {
	ID          string
	StartAt     time.Time
	TargetHours float64
	Plan        string
	Notes       string
}

// Elapsed is clamped at zero so a start edited past now never reads negative.
func (f ActiveFast) Elapsed(now time.Time) time.Duration {
	d := now.Sub(f.StartAt)
	if d < 0 {
		return 0
	}
	return d
}

func (f ActiveFast) Complete(endAt time.Time) CompletedFast {
	return CompletedFast{
		ID:          f.ID,
		StartAt:     f.StartAt,
		EndAt:       Instant(endAt),
		TargetHours: f.TargetHours,
		Plan:        f.Plan,
		Notes:       f.Notes,
	}
}

type CompletedFast struct {
	ID          string
	StartAt     time.Time
	EndAt       time.Time
	TargetHours float64
	Plan        string
	Notes       string
}

func (f CompletedFast) Duration() time.Duration {
	d := f.EndAt.Sub(f.StartAt)
	if d < 0 {
		return 0
	}
	return d
}

func (f CompletedFast) Hours() float64 {
	return MsToHours(f.Duration().Milliseconds())
}

// Instant truncates t to the millisecond precision of the stored format.
func Instant(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli()).In(t.Location())
}
