package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"fastflow/internal/modules/fasting/domain"
	"fastflow/internal/modules/fasting/dto"
	fastingin "fastflow/internal/modules/fasting/port/in"
	"fastflow/internal/modules/fasting/service"
	"fastflow/internal/platform/clock"
	apperrors "fastflow/internal/platform/errors"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"

	defaultHistoryLimit = 50
)

type Interactor struct {
	svc            *service.FastingService
	clock          clock.Clock
	streakMinHours float64
}

func NewInteractor(svc *service.FastingService, clock clock.Clock, streakMinHours float64) fastingin.Usecase {
	if streakMinHours <= 0 {
		streakMinHours = domain.DefaultStreakMinHours
	}
	return &Interactor{svc: svc, clock: clock, streakMinHours: streakMinHours}
}

func (i *Interactor) Init(ctx context.Context) error {
	return i.svc.Init(ctx)
}

// Start resolves an empty plan to the default plan and a zero target to the
// plan's hours, falling back to the default target for custom plans.
func (i *Interactor) Start(ctx context.Context, input dto.StartInput) (dto.ActiveFastOutput, error) {
	state, err := i.svc.Snapshot()
	if err != nil {
		return dto.ActiveFastOutput{}, err
	}
	plan := strings.TrimSpace(input.Plan)
	if plan == "" {
		plan = state.Settings.DefaultPlan
	}
	target := input.TargetHours
	if target == 0 {
		target = domain.PlanHours(plan, state.Settings.DefaultTargetHours)
	}
	active, err := i.svc.StartFast(ctx, target, plan)
	if err != nil {
		return dto.ActiveFastOutput{}, err
	}
	return toActiveOutput(active, i.clock.Now()), nil
}

func (i *Interactor) End(ctx context.Context) (dto.EndOutput, error) {
	ended, ok, err := i.svc.EndFast(ctx)
	if err != nil || !ok {
		return dto.EndOutput{}, err
	}
	return dto.EndOutput{
		Ended:             true,
		Fast:              toFastOutput(ended),
		EatingTargetHours: domain.EatingTargetHours(ended.TargetHours),
	}, nil
}

func (i *Interactor) AdjustStart(ctx context.Context, input dto.AdjustStartInput) (dto.AdjustStartOutput, error) {
	if input.StartAt.IsZero() {
		return dto.AdjustStartOutput{}, apperrors.NewValidation("startAt", "is required")
	}
	adjusted, err := i.svc.UpdateCurrentStart(ctx, input.StartAt)
	if err != nil || !adjusted {
		return dto.AdjustStartOutput{}, err
	}
	state, err := i.svc.Snapshot()
	if err != nil {
		return dto.AdjustStartOutput{}, err
	}
	out := dto.AdjustStartOutput{Adjusted: true}
	if state.Active != nil {
		out.StartAt = state.Active.StartAt
	}
	return out, nil
}

func (i *Interactor) EditFast(ctx context.Context, input dto.EditFastInput) (dto.EditFastOutput, error) {
	updated, err := i.svc.UpdateFastTimes(ctx, domain.FastTimesEdit{
		ID:      strings.TrimSpace(input.ID),
		StartAt: input.StartAt,
		EndAt:   input.EndAt,
	})
	if err != nil {
		return dto.EditFastOutput{}, err
	}
	return dto.EditFastOutput{Updated: updated}, nil
}

func (i *Interactor) Settings(_ context.Context) (dto.SettingsOutput, error) {
	state, err := i.svc.Snapshot()
	if err != nil {
		return dto.SettingsOutput{}, err
	}
	return toSettingsOutput(state.Settings), nil
}

func (i *Interactor) UpdateSettings(ctx context.Context, input dto.SettingsInput) (dto.SettingsOutput, error) {
	settings, err := i.svc.UpdateSettings(ctx, domain.SettingsPatch{
		DefaultPlan:        input.DefaultPlan,
		DefaultTargetHours: input.DefaultTargetHours,
		Use24h:             input.Use24h,
	})
	if err != nil {
		return dto.SettingsOutput{}, err
	}
	return toSettingsOutput(settings), nil
}

func (i *Interactor) Status(_ context.Context) (dto.StatusOutput, error) {
	state, err := i.svc.Snapshot()
	if err != nil {
		return dto.StatusOutput{}, err
	}
	now := i.clock.Now()
	out := dto.StatusOutput{
		Now:             now,
		BestStreak:      domain.ComputeBestStreak(state.Completed, i.streakMinHours, now.Location()),
		StreakMinHours:  i.streakMinHours,
		TotalFasts:      len(state.Completed),
		Settings:        toSettingsOutput(state.Settings),
		PersistFailures: i.svc.PersistFailures(),
	}
	var ongoing time.Duration
	if active, ok := state.Current(); ok {
		view := toActiveOutput(active, now)
		out.Active = &view
		ongoing = view.Elapsed
	}
	out.Streak = domain.ComputeStreak(state.Completed, i.streakMinHours, ongoing, now)
	// an ongoing fast can extend the current run past any finished one
	out.BestStreak = max(out.BestStreak, out.Streak)
	if state.Active == nil && state.Settings.Eating != nil {
		eating := state.Settings.Eating
		elapsed := now.Sub(eating.StartAt)
		if elapsed < 0 {
			elapsed = 0
		}
		out.Eating = &dto.EatingWindowOutput{
			StartAt:     eating.StartAt,
			TargetHours: eating.TargetHours,
			Elapsed:     elapsed,
			ElapsedText: domain.FormatElapsed(elapsed),
			Progress:    domain.Progress(elapsed, eating.TargetHours),
		}
	}
	return out, nil
}

func (i *Interactor) History(_ context.Context, input dto.HistoryInput) (dto.HistoryOutput, error) {
	state, err := i.svc.Snapshot()
	if err != nil {
		return dto.HistoryOutput{}, err
	}
	limit := input.Limit
	if limit == 0 {
		limit = defaultHistoryLimit
	}
	past := domain.PastFasts(state.Completed, limit)
	out := dto.HistoryOutput{Fasts: make([]dto.FastOutput, 0, len(past))}
	for _, f := range past {
		out.Fasts = append(out.Fasts, toFastOutput(f))
	}
	return out, nil
}

func (i *Interactor) Stats(_ context.Context, input dto.StatsInput) (dto.StatsOutput, error) {
	state, err := i.svc.Snapshot()
	if err != nil {
		return dto.StatsOutput{}, err
	}
	minHours := i.minHours(input.MinHours)
	now := i.clock.Now()

	var ongoing time.Duration
	if active, ok := state.Current(); ok {
		ongoing = active.Elapsed(now)
	}
	out := dto.StatsOutput{
		Streak:     domain.ComputeStreak(state.Completed, minHours, ongoing, now),
		BestStreak: domain.ComputeBestStreak(state.Completed, minHours, now.Location()),
		MinHours:   minHours,
		TotalFasts: len(state.Completed),
	}
	out.BestStreak = max(out.BestStreak, out.Streak)
	for _, b := range domain.Last7DaysBuckets(state.Completed, now) {
		out.Days = append(out.Days, dto.DayBucketOutput{Date: b.Date, Label: b.Label, Hours: b.Hours})
	}
	var total time.Duration
	for _, f := range state.Completed {
		total += f.Duration()
		out.LongestHours = math.Max(out.LongestHours, f.Hours())
	}
	out.TotalHours = roundTenth(total.Hours())
	out.LongestHours = roundTenth(out.LongestHours)
	if out.TotalFasts > 0 {
		out.AverageHours = roundTenth(total.Hours() / float64(out.TotalFasts))
	}
	return out, nil
}

func (i *Interactor) Calendar(_ context.Context, input dto.CalendarInput) (dto.CalendarOutput, error) {
	state, err := i.svc.Snapshot()
	if err != nil {
		return dto.CalendarOutput{}, err
	}
	month := input.Month
	if month.IsZero() {
		month = i.clock.Now()
	}
	days := domain.MonthCalendar(state.Completed, month, i.minHours(input.MinHours))
	out := dto.CalendarOutput{Month: time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())}
	for _, d := range days {
		day := dto.CalendarDayOutput{Date: d.Date, Status: d.Status, Hours: d.Hours}
		for _, f := range d.Fasts {
			day.Fasts = append(day.Fasts, toFastOutput(f))
		}
		out.Days = append(out.Days, day)
	}
	return out, nil
}

func (i *Interactor) Phases(_ context.Context) (dto.PhasesOutput, error) {
	state, err := i.svc.Snapshot()
	if err != nil {
		return dto.PhasesOutput{}, err
	}
	var hours float64
	active, ok := state.Current()
	if ok {
		hours = active.Elapsed(i.clock.Now()).Hours()
	}
	out := dto.PhasesOutput{Active: ok, ElapsedHours: hours}
	for _, p := range domain.PhaseStatuses(hours) {
		out.Phases = append(out.Phases, dto.PhaseOutput{
			Hours:   p.Hours,
			Label:   p.Label,
			Icon:    p.Icon,
			Reached: ok && p.Reached,
			Current: ok && p.Current,
		})
	}
	return out, nil
}

func (i *Interactor) Export(_ context.Context, input dto.ExportInput) (dto.ExportOutput, error) {
	format := strings.ToLower(strings.TrimSpace(input.Format))
	switch format {
	case "", FormatJSON:
		data, err := i.svc.ExportJSON()
		if err != nil {
			return dto.ExportOutput{}, err
		}
		return dto.ExportOutput{Format: FormatJSON, Data: append(data, '\n')}, nil
	case FormatYAML, "yml":
		doc, err := i.svc.ExportDocument()
		if err != nil {
			return dto.ExportOutput{}, err
		}
		data, err := yaml.Marshal(doc)
		if err != nil {
			return dto.ExportOutput{}, fmt.Errorf("encode yaml export: %w", err)
		}
		return dto.ExportOutput{Format: FormatYAML, Data: data}, nil
	default:
		return dto.ExportOutput{}, apperrors.NewValidation("format", fmt.Sprintf("unsupported export format %q", input.Format))
	}
}

func (i *Interactor) Import(ctx context.Context, input dto.ImportInput) (dto.ImportOutput, error) {
	if err := i.svc.ImportJSON(ctx, input.Data); err != nil {
		return dto.ImportOutput{}, err
	}
	state, err := i.svc.Snapshot()
	if err != nil {
		return dto.ImportOutput{}, err
	}
	return dto.ImportOutput{Fasts: state.FastCount(), Active: state.Active != nil}, nil
}

func (i *Interactor) Flush(ctx context.Context) error {
	return i.svc.Flush(ctx)
}

func (i *Interactor) minHours(override float64) float64 {
	if override > 0 {
		return override
	}
	return i.streakMinHours
}

func toActiveOutput(active domain.ActiveFast, now time.Time) dto.ActiveFastOutput {
	elapsed := active.Elapsed(now)
	hours := elapsed.Hours()
	out := dto.ActiveFastOutput{
		ID:          active.ID,
		Plan:        active.Plan,
		Notes:       active.Notes,
		StartAt:     active.StartAt,
		TargetAt:    active.StartAt.Add(time.Duration(active.TargetHours * float64(time.Hour))),
		TargetHours: active.TargetHours,
		Elapsed:     elapsed,
		ElapsedText: domain.FormatElapsed(elapsed),
		Progress:    domain.Progress(elapsed, active.TargetHours),
	}
	if phase, ok := domain.CurrentPhase(hours); ok {
		out.Phase = &dto.PhaseOutput{Hours: phase.Hours, Label: phase.Label, Icon: phase.Icon, Reached: true, Current: true}
	}
	if next, ok := domain.NextPhase(hours); ok {
		out.NextPhase = &dto.PhaseOutput{Hours: next.Hours, Label: next.Label, Icon: next.Icon}
	}
	return out
}

func toFastOutput(f domain.CompletedFast) dto.FastOutput {
	return dto.FastOutput{
		ID:           f.ID,
		Plan:         f.Plan,
		Notes:        f.Notes,
		StartAt:      f.StartAt,
		EndAt:        f.EndAt,
		TargetHours:  f.TargetHours,
		Hours:        roundTenth(f.Hours()),
		DurationText: domain.FormatElapsed(f.Duration()),
		ReachedGoal:  f.Hours() >= f.TargetHours,
	}
}

func toSettingsOutput(s domain.Settings) dto.SettingsOutput {
	return dto.SettingsOutput{
		DefaultPlan:        s.DefaultPlan,
		DefaultTargetHours: s.DefaultTargetHours,
		Use24h:             s.Use24h,
	}
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
