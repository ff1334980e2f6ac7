package dto

import "time"

type StartInput struct {
	Plan        string
	TargetHours float64
}

type PhaseOutput struct {
	Hours   float64
	Label   string
	Icon    string
	Reached bool
	Current bool
}

type ActiveFastOutput struct {
	ID          string
	Plan        string
	Notes       string
	StartAt     time.Time
	TargetAt    time.Time
	TargetHours float64
	Elapsed     time.Duration
	ElapsedText string
	Progress    float64
	Phase       *PhaseOutput
	NextPhase   *PhaseOutput
}

type FastOutput struct {
	ID           string
	Plan         string
	Notes        string
	StartAt      time.Time
	EndAt        time.Time
	TargetHours  float64
	Hours        float64
	DurationText string
	ReachedGoal  bool
}

type EndOutput struct {
	Ended             bool
	Fast              FastOutput
	EatingTargetHours float64
}

type AdjustStartInput struct {
	StartAt time.Time
}

type AdjustStartOutput struct {
	Adjusted bool
	StartAt  time.Time
}

type EditFastInput struct {
	ID      string
	StartAt time.Time
	EndAt   *time.Time
}

type EditFastOutput struct {
	Updated bool
}

type SettingsInput struct {
	DefaultPlan        *string
	DefaultTargetHours *float64
	Use24h             *bool
}

type EatingWindowOutput struct {
	StartAt     time.Time
	TargetHours float64
	Elapsed     time.Duration
	ElapsedText string
	Progress    float64
}

type SettingsOutput struct {
	DefaultPlan        string
	DefaultTargetHours float64
	Use24h             bool
}

type StatusOutput struct {
	Now             time.Time
	Active          *ActiveFastOutput
	Eating          *EatingWindowOutput
	Streak          int
	BestStreak      int
	StreakMinHours  float64
	TotalFasts      int
	Settings        SettingsOutput
	PersistFailures int64
}

type HistoryInput struct {
	Limit int
}

type HistoryOutput struct {
	Fasts []FastOutput
}

type StatsInput struct {
	MinHours float64
}

type DayBucketOutput struct {
	Date  time.Time
	Label string
	Hours float64
}

type StatsOutput struct {
	Days         []DayBucketOutput
	Streak       int
	BestStreak   int
	MinHours     float64
	TotalFasts   int
	TotalHours   float64
	AverageHours float64
	LongestHours float64
}

type CalendarInput struct {
	Month    time.Time
	MinHours float64
}

type CalendarDayOutput struct {
	Date   time.Time
	Status string
	Hours  float64
	Fasts  []FastOutput
}

type CalendarOutput struct {
	Month time.Time
	Days  []CalendarDayOutput
}

type PhasesOutput struct {
	Active       bool
	ElapsedHours float64
	Phases       []PhaseOutput
}

type ExportInput struct {
	Format string
}

type ExportOutput struct {
	Format string
	Data   []byte
}

type ImportInput struct {
	Data []byte
}

type ImportOutput struct {
	Fasts  int
	Active bool
}
