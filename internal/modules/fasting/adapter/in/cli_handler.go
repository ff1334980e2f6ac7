package in

import (
	"context"
	"time"

	fastingdto "fastflow/internal/modules/fasting/dto"
	fastingin "fastflow/internal/modules/fasting/port/in"
)

type CLIHandler struct {
	usecase fastingin.Usecase
}

func NewCLIHandler(usecase fastingin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Init(ctx context.Context) error {
	return h.usecase.Init(ctx)
}

func (h CLIHandler) Start(ctx context.Context, plan string, targetHours float64) (fastingdto.ActiveFastOutput, error) {
	return h.usecase.Start(ctx, fastingdto.StartInput{Plan: plan, TargetHours: targetHours})
}

func (h CLIHandler) End(ctx context.Context) (fastingdto.EndOutput, error) {
	return h.usecase.End(ctx)
}

func (h CLIHandler) AdjustStart(ctx context.Context, startAt time.Time) (fastingdto.AdjustStartOutput, error) {
	return h.usecase.AdjustStart(ctx, fastingdto.AdjustStartInput{StartAt: startAt})
}

func (h CLIHandler) EditFast(ctx context.Context, id string, startAt time.Time, endAt *time.Time) (fastingdto.EditFastOutput, error) {
	return h.usecase.EditFast(ctx, fastingdto.EditFastInput{ID: id, StartAt: startAt, EndAt: endAt})
}

func (h CLIHandler) Settings(ctx context.Context) (fastingdto.SettingsOutput, error) {
	return h.usecase.Settings(ctx)
}

func (h CLIHandler) UpdateSettings(ctx context.Context, plan *string, targetHours *float64, use24h *bool) (fastingdto.SettingsOutput, error) {
	return h.usecase.UpdateSettings(ctx, fastingdto.SettingsInput{DefaultPlan: plan, DefaultTargetHours: targetHours, Use24h: use24h})
}

func (h CLIHandler) Status(ctx context.Context) (fastingdto.StatusOutput, error) {
	return h.usecase.Status(ctx)
}

func (h CLIHandler) History(ctx context.Context, limit int) (fastingdto.HistoryOutput, error) {
	return h.usecase.History(ctx, fastingdto.HistoryInput{Limit: limit})
}

func (h CLIHandler) Stats(ctx context.Context, minHours float64) (fastingdto.StatsOutput, error) {
	return h.usecase.Stats(ctx, fastingdto.StatsInput{MinHours: minHours})
}

func (h CLIHandler) Calendar(ctx context.Context, month time.Time, minHours float64) (fastingdto.CalendarOutput, error) {
	return h.usecase.Calendar(ctx, fastingdto.CalendarInput{Month: month, MinHours: minHours})
}

func (h CLIHandler) Phases(ctx context.Context) (fastingdto.PhasesOutput, error) {
	return h.usecase.Phases(ctx)
}

func (h CLIHandler) Export(ctx context.Context, format string) (fastingdto.ExportOutput, error) {
	return h.usecase.Export(ctx, fastingdto.ExportInput{Format: format})
}

func (h CLIHandler) Import(ctx context.Context, data []byte) (fastingdto.ImportOutput, error) {
	return h.usecase.Import(ctx, fastingdto.ImportInput{Data: data})
}

func (h CLIHandler) Flush(ctx context.Context) error {
	return h.usecase.Flush(ctx)
}
