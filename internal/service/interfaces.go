// Package service содержит интерфейсы сервисного слоя.
package service

import (
	"context"

	"hookbot/internal/model"
)

// SnapshotFetcher определяет интерфейс получения состояния плейлиста из источника
type SnapshotFetcher interface {
	// ResolveByName ищет плейлист по имени, первый результат побеждает
	ResolveByName(ctx context.Context, name string) (*model.PlaylistRef, error)

	// FetchSnapshot получает snapshot id и полный список треков плейлиста
	FetchSnapshot(ctx context.Context, playlistID string) (*model.PlaylistSnapshot, error)
}

// Notifier определяет интерфейс отправки уведомлений об изменениях плейлиста
type Notifier interface {
	// NotifyTrack отправляет уведомление об одном добавленном или удаленном треке
	NotifyTrack(ctx context.Context, track model.TrackRecord, added bool) error
}
