// Package spotify реализует интерфейсы для работы с Spotify Web API.
package spotify

import (
	"context"

	"hookbot/internal/model"
)

// Interface определяет интерфейс для работы с Spotify API
type Interface interface {
	// SearchPlaylistByName ищет плейлист по имени и возвращает первый результат
	SearchPlaylistByName(ctx context.Context, name string) (*model.PlaylistRef, error)

	// GetPlaylistByID возвращает плейлист по его ID
	GetPlaylistByID(ctx context.Context, playlistID string) (*model.PlaylistRef, error)

	// GetPlaylistTracksPage возвращает одну страницу треков плейлиста
	GetPlaylistTracksPage(ctx context.Context, playlistID string, limit, offset int) (*TracksPage, error)

	// GetArtistGenres возвращает жанры исполнителя
	GetArtistGenres(ctx context.Context, artistID string) ([]string, error)
}
