package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Record is the stored and exported form of a fast. Timestamps are epoch
// milliseconds and a missing endAt marks the active fast.
type Record struct {
	ID          string  `json:"id" yaml:"id"`
	StartAt     int64   `json:"startAt" yaml:"startAt"`
	EndAt       *int64  `json:"endAt,omitempty" yaml:"endAt,omitempty"`
	TargetHours float64 `json:"targetHours" yaml:"targetHours"`
	Plan        string  `json:"plan" yaml:"plan"`
	Notes       string  `json:"notes,omitempty" yaml:"notes,omitempty"`
}

type SettingsRecord struct {
	DefaultPlan        *string  `json:"defaultPlan,omitempty" yaml:"defaultPlan,omitempty"`
	DefaultTargetHours *float64 `json:"defaultTargetHours,omitempty" yaml:"defaultTargetHours,omitempty"`
	Use24h             *bool    `json:"use24h,omitempty" yaml:"use24h,omitempty"`
	EatingStartAt      *int64   `json:"eatingStartAt,omitempty" yaml:"eatingStartAt,omitempty"`
	EatingTargetHours  *float64 `json:"eatingTargetHours,omitempty" yaml:"eatingTargetHours,omitempty"`
}

// Document is the bulk export and import payload.
type Document struct {
	Fasts    []Record        `json:"fasts" yaml:"fasts"`
	Settings *SettingsRecord `json:"settings,omitempty" yaml:"settings,omitempty"`
}

func ToRecords(s State) []Record {
	out := make([]Record, 0, s.FastCount())
	for _, f := range s.Completed {
		end := f.EndAt.UnixMilli()
		out = append(out, Record{
			ID:          f.ID,
			StartAt:     f.StartAt.UnixMilli(),
			EndAt:       &end,
			TargetHours: f.TargetHours,
			Plan:        f.Plan,
			Notes:       f.Notes,
		})
	}
	if s.Active != nil {
		out = append(out, Record{
			ID:          s.Active.ID,
			StartAt:     s.Active.StartAt.UnixMilli(),
			TargetHours: s.Active.TargetHours,
			Plan:        s.Active.Plan,
			Notes:       s.Active.Notes,
		})
	}
	return out
}

// FromRecords splits records into completed fasts and the single active one,
// rejecting collections that break the fast invariants.
func FromRecords(records []Record) ([]CompletedFast, *ActiveFast, error) {
	completed := make([]CompletedFast, 0, len(records))
	var active *ActiveFast
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		if strings.TrimSpace(r.ID) == "" {
			return nil, nil, fmt.Errorf("fast %d: id is required", i)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, nil, fmt.Errorf("fast %d: duplicate id %q", i, r.ID)
		}
		seen[r.ID] = struct{}{}
		start := time.UnixMilli(r.StartAt)
		if r.EndAt == nil {
			if active != nil {
				return nil, nil, fmt.Errorf("fast %d: more than one fast without endAt", i)
			}
			active = &ActiveFast{ID: r.ID, StartAt: start, TargetHours: r.TargetHours, Plan: r.Plan, Notes: r.Notes}
			continue
		}
		if *r.EndAt < r.StartAt {
			return nil, nil, fmt.Errorf("fast %d: endAt before startAt", i)
		}
		completed = append(completed, CompletedFast{
			ID:          r.ID,
			StartAt:     start,
			EndAt:       time.UnixMilli(*r.EndAt),
			TargetHours: r.TargetHours,
			Plan:        r.Plan,
			Notes:       r.Notes,
		})
	}
	return completed, active, nil
}

func ToSettingsRecord(s Settings) SettingsRecord {
	plan := s.DefaultPlan
	target := s.DefaultTargetHours
	use24h := s.Use24h
	rec := SettingsRecord{DefaultPlan: &plan, DefaultTargetHours: &target, Use24h: &use24h}
	if s.Eating != nil {
		start := s.Eating.StartAt.UnixMilli()
		eatingTarget := s.Eating.TargetHours
		rec.EatingStartAt = &start
		rec.EatingTargetHours = &eatingTarget
	}
	return rec
}

// merge overlays the fields present in r onto base.
func (r SettingsRecord) merge(base Settings) Settings {
	out := base.Clone()
	if r.DefaultPlan != nil {
		out.DefaultPlan = *r.DefaultPlan
	}
	if r.DefaultTargetHours != nil {
		out.DefaultTargetHours = *r.DefaultTargetHours
	}
	if r.Use24h != nil {
		out.Use24h = *r.Use24h
	}
	if r.EatingStartAt != nil {
		window := EatingWindow{StartAt: time.UnixMilli(*r.EatingStartAt)}
		if out.Eating != nil {
			window.TargetHours = out.Eating.TargetHours
		}
		out.Eating = &window
	}
	if r.EatingTargetHours != nil && out.Eating != nil {
		out.Eating.TargetHours = *r.EatingTargetHours
	}
	return out
}

// SettingsFromRecord fills absent fields from the defaults.
func SettingsFromRecord(r SettingsRecord) Settings {
	return r.merge(DefaultSettings())
}

func ExportDocument(s State) Document {
	settings := ToSettingsRecord(s.Settings)
	return Document{Fasts: ToRecords(s), Settings: &settings}
}

// ParseDocument decodes an import payload. Unknown fields are ignored; a
// JSON null or a non-object top level is rejected.
func ParseDocument(data []byte) (Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Document{}, fmt.Errorf("expected a JSON object")
	}
	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return Document{}, err
	}
	if _, _, err := FromRecords(doc.Fasts); err != nil {
		return Document{}, err
	}
	return doc, nil
}
