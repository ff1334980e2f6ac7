package out

import (
	"context"

	"fastflow/internal/modules/fasting/domain"
)

const (
	SlotFasts    = "fasts"
	SlotSettings = "settings"
)

// BlobStore holds opaque values under fixed slot names. Get reports an
// absent slot with apperrors.ErrNotFound.
type BlobStore interface {
	Get(ctx context.Context, slot string) ([]byte, error)
	Put(ctx context.Context, slot string, value []byte) error
	Close() error
}

// Repository loads and saves the two persisted slots. Absent slots load as
// an empty list and the default settings.
type Repository interface {
	LoadFasts(ctx context.Context) ([]domain.Record, error)
	SaveFasts(ctx context.Context, fasts []domain.Record) error
	LoadSettings(ctx context.Context) (domain.Settings, error)
	SaveSettings(ctx context.Context, settings domain.Settings) error
}
