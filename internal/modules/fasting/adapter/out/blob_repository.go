package out

import (
	"context"
	"encoding/json"
	"errors"

	"fastflow/internal/modules/fasting/domain"
	fastingout "fastflow/internal/modules/fasting/port/out"
	apperrors "fastflow/internal/platform/errors"
)

// BlobRepository stores each slot as a JSON document in a BlobStore.
type BlobRepository struct {
	store fastingout.BlobStore
}

func NewBlobRepository(store fastingout.BlobStore) *BlobRepository {
	return &BlobRepository{store: store}
}

func (r *BlobRepository) LoadFasts(ctx context.Context) ([]domain.Record, error) {
	var records []domain.Record
	found, err := r.load(ctx, fastingout.SlotFasts, &records)
	if err != nil {
		return nil, err
	}
	if !found || records == nil {
		return []domain.Record{}, nil
	}
	return records, nil
}

func (r *BlobRepository) SaveFasts(ctx context.Context, fasts []domain.Record) error {
	if fasts == nil {
		fasts = []domain.Record{}
	}
	return r.save(ctx, fastingout.SlotFasts, fasts)
}

func (r *BlobRepository) LoadSettings(ctx context.Context) (domain.Settings, error) {
	var record domain.SettingsRecord
	found, err := r.load(ctx, fastingout.SlotSettings, &record)
	if err != nil {
		return domain.Settings{}, err
	}
	if !found {
		return domain.DefaultSettings(), nil
	}
	return domain.SettingsFromRecord(record), nil
}

func (r *BlobRepository) SaveSettings(ctx context.Context, settings domain.Settings) error {
	return r.save(ctx, fastingout.SlotSettings, domain.ToSettingsRecord(settings))
}

func (r *BlobRepository) load(ctx context.Context, slot string, out any) (bool, error) {
	raw, err := r.store.Get(ctx, slot)
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, &apperrors.PersistenceError{Slot: slot, Op: "load", Err: err}
	}
	if len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, &apperrors.PersistenceError{Slot: slot, Op: "decode", Err: err}
	}
	return true, nil
}

func (r *BlobRepository) save(ctx context.Context, slot string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return &apperrors.PersistenceError{Slot: slot, Op: "encode", Err: err}
	}
	if err := r.store.Put(ctx, slot, raw); err != nil {
		return &apperrors.PersistenceError{Slot: slot, Op: "save", Err: err}
	}
	return nil
}
