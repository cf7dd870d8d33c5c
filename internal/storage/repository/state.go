// Package repository содержит репозитории для работы с базой данных.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"hookbot/internal/model"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// StateRepository реализует интерфейс для работы с сохраненным состоянием плейлиста
type StateRepository struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewStateRepository создает новый репозиторий состояния плейлиста
func NewStateRepository(db *bun.DB, logger *zap.Logger) *StateRepository {
	return &StateRepository{
		db:     db,
		logger: logger,
	}
}

var _ model.StateRepository = (*StateRepository)(nil)

// SaveTrack сохраняет запись трека. Записи неизменяемы, поэтому повторная
// вставка с тем же track_id - no-op, а не обновление.
func (r *StateRepository) SaveTrack(ctx context.Context, track *model.TrackRecord) error {
	_, err := r.db.NewInsert().
		Model(track).
		On("CONFLICT (track_id) DO NOTHING").
		Exec(ctx)

	if err != nil {
		return &model.StorageUnavailableError{Op: "save track", Err: err}
	}

	return nil
}

// RemoveTrack удаляет запись трека; отсутствующий id не является ошибкой
func (r *StateRepository) RemoveTrack(ctx context.Context, trackID string) error {
	_, err := r.db.NewDelete().
		Model((*model.TrackRecord)(nil)).
		Where("track_id = ?", trackID).
		Where("is_marker = ?", false).
		Exec(ctx)

	if err != nil {
		return &model.StorageUnavailableError{Op: "remove track", Err: err}
	}

	return nil
}

// AllTracks возвращает все известные записи треков без строки-маркера
func (r *StateRepository) AllTracks(ctx context.Context) ([]model.TrackRecord, error) {
	var tracks []model.TrackRecord

	err := r.db.NewSelect().
		Model(&tracks).
		Where("is_marker = ?", false).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, &model.StorageUnavailableError{Op: "load tracks", Err: err}
	}

	return tracks, nil
}

// SaveSnapshotID сохраняет последний обработанный snapshot id в строке-маркере
func (r *StateRepository) SaveSnapshotID(ctx context.Context, snapshotID string) error {
	marker := &model.TrackRecord{
		TrackID:    model.SnapshotMarkerID,
		Title:      model.SnapshotMarkerID,
		IsMarker:   true,
		SnapshotID: snapshotID,
	}

	_, err := r.db.NewInsert().
		Model(marker).
		On("CONFLICT (track_id) DO UPDATE").
		Set("snapshot_id = EXCLUDED.snapshot_id").
		Exec(ctx)

	if err != nil {
		return &model.StorageUnavailableError{Op: "save snapshot id", Err: err}
	}

	return nil
}

// GetSnapshotID возвращает последний обработанный snapshot id, "" если маркера нет
func (r *StateRepository) GetSnapshotID(ctx context.Context) (string, error) {
	marker := new(model.TrackRecord)

	err := r.db.NewSelect().
		Model(marker).
		Where("track_id = ?", model.SnapshotMarkerID).
		Where("is_marker = ?", true).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", &model.StorageUnavailableError{Op: "load snapshot id", Err: err}
	}

	return marker.SnapshotID, nil
}
