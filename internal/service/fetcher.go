// Package service содержит бизнес-логику приложения.
package service

import (
	"context"
	"fmt"

	"hookbot/internal/external/spotify"
	"hookbot/internal/model"

	"go.uber.org/zap"
)

// PageSize - размер страницы треков у источника
const PageSize = 100

// Fetcher получает полное состояние плейлиста из источника
type Fetcher struct {
	source spotify.Interface
	logger *zap.Logger
}

// NewFetcher создает новый fetcher
func NewFetcher(source spotify.Interface, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		source: source,
		logger: logger,
	}
}

// ResolveByName ищет плейлист по имени. Поиск неоднозначный: источник
// возвращает подстрочные совпадения, побеждает первый результат.
func (f *Fetcher) ResolveByName(ctx context.Context, name string) (*model.PlaylistRef, error) {
	ref, err := f.source.SearchPlaylistByName(ctx, name)
	if err != nil {
		return nil, err
	}

	return ref, nil
}

// FetchSnapshot получает snapshot id и полный список треков плейлиста.
// Треки собираются постранично с сохранением порядка источника.
func (f *Fetcher) FetchSnapshot(ctx context.Context, playlistID string) (*model.PlaylistSnapshot, error) {
	ref, err := f.source.GetPlaylistByID(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("Starting pagination to get all playlist tracks",
		zap.String("playlist_id", playlistID),
		zap.String("snapshot_id", ref.SnapshotID),
		zap.Int("reported_total", ref.TotalTracks))

	var tracks []model.TrackRecord
	var malformed int
	seen := 0
	total := ref.TotalTracks

	for seen < total {
		page, err := f.source.GetPlaylistTracksPage(ctx, playlistID, PageSize, seen)
		if err != nil {
			return nil, err
		}

		// Пустая страница до достижения total: плейлист сократился во время
		// обхода. Расхождение допустимо, не повторяем запросы.
		if len(page.Items) == 0 {
			f.logger.Warn("Source returned empty page before reported total",
				zap.String("playlist_id", playlistID),
				zap.Int("seen", seen),
				zap.Int("reported_total", total))
			break
		}

		for _, raw := range page.Items {
			record, err := model.NewTrackRecord(raw)
			if err != nil {
				// Некорректная запись отбрасывается, остальная выборка продолжается
				malformed++
				f.logger.Warn("Skipping malformed track record",
					zap.String("playlist_id", playlistID),
					zap.String("raw_id", raw.ID),
					zap.Error(err))
				continue
			}
			tracks = append(tracks, *record)
		}

		seen += len(page.Items)
		total = page.Total
	}

	if len(tracks) == 0 && malformed > 0 {
		return nil, fmt.Errorf("no valid track records in playlist %s: %d malformed items", playlistID, malformed)
	}

	f.logger.Info("Successfully retrieved all tracks from playlist",
		zap.String("playlist_id", playlistID),
		zap.Int("total_tracks", len(tracks)),
		zap.Int("malformed", malformed))

	return &model.PlaylistSnapshot{
		PlaylistID:  ref.ID,
		Name:        ref.Name,
		ExternalURL: ref.ExternalURL,
		SnapshotID:  ref.SnapshotID,
		Tracks:      tracks,
	}, nil
}
