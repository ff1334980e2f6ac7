package domain

import (
	"math"
	"time"

	apperrors "fastflow/internal/platform/errors"
)

const (
	DefaultPlan        = Plan16x8
	DefaultTargetHours = 16.0
	MaxTargetHours     = 48.0
)

type EatingWindow struct {
	StartAt     time.Time
	TargetHours float64
}

type Settings struct {
	DefaultPlan        string
	DefaultTargetHours float64
	Use24h             bool
	Eating             *EatingWindow
}

func DefaultSettings() Settings {
	return Settings{
		DefaultPlan:        DefaultPlan,
		DefaultTargetHours: DefaultTargetHours,
		Use24h:             true,
	}
}

// SettingsPatch is a shallow update. Nil fields are left untouched.
type SettingsPatch struct {
	DefaultPlan        *string
	DefaultTargetHours *float64
	Use24h             *bool
}

func (p SettingsPatch) Empty() bool {
	return p.DefaultPlan == nil && p.DefaultTargetHours == nil && p.Use24h == nil
}

func (p SettingsPatch) Validate() error {
	if p.DefaultPlan != nil && *p.DefaultPlan == "" {
		return apperrors.NewValidation("defaultPlan", "must not be empty")
	}
	if p.DefaultTargetHours != nil {
		if err := ValidateTargetHours("defaultTargetHours", *p.DefaultTargetHours); err != nil {
			return err
		}
	}
	return nil
}

func (s Settings) Apply(p SettingsPatch) Settings {
	if p.DefaultPlan != nil {
		s.DefaultPlan = *p.DefaultPlan
	}
	if p.DefaultTargetHours != nil {
		s.DefaultTargetHours = *p.DefaultTargetHours
	}
	if p.Use24h != nil {
		s.Use24h = *p.Use24h
	}
	return s
}

func (s Settings) Clone() Settings {
	if s.Eating != nil {
		eating := *s.Eating
		s.Eating = &eating
	}
	return s
}

// EatingTargetHours is the eating window following a fast of targetHours,
// floored at one hour.
func EatingTargetHours(targetHours float64) float64 {
	return math.Max(1, 24-targetHours)
}

func ValidateTargetHours(field string, hours float64) error {
	if math.IsNaN(hours) || hours <= 0 {
		return apperrors.NewValidation(field, "must be greater than zero")
	}
	if hours > MaxTargetHours {
		return apperrors.NewValidation(field, "must be at most 48 hours")
	}
	return nil
}
