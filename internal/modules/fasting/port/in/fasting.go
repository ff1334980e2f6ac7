package in

import (
	"context"

	"fastflow/internal/modules/fasting/dto"
)

type Usecase interface {
	Init(ctx context.Context) error
	Start(ctx context.Context, input dto.StartInput) (dto.ActiveFastOutput, error)
	End(ctx context.Context) (dto.EndOutput, error)
	AdjustStart(ctx context.Context, input dto.AdjustStartInput) (dto.AdjustStartOutput, error)
	EditFast(ctx context.Context, input dto.EditFastInput) (dto.EditFastOutput, error)
	Settings(ctx context.Context) (dto.SettingsOutput, error)
	UpdateSettings(ctx context.Context, input dto.SettingsInput) (dto.SettingsOutput, error)
	Status(ctx context.Context) (dto.StatusOutput, error)
	History(ctx context.Context, input dto.HistoryInput) (dto.HistoryOutput, error)
	Stats(ctx context.Context, input dto.StatsInput) (dto.StatsOutput, error)
	Calendar(ctx context.Context, input dto.CalendarInput) (dto.CalendarOutput, error)
	Phases(ctx context.Context) (dto.PhasesOutput, error)
	Export(ctx context.Context, input dto.ExportInput) (dto.ExportOutput, error)
	Import(ctx context.Context, input dto.ImportInput) (dto.ImportOutput, error)
	Flush(ctx context.Context) error
}
