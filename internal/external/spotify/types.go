// Package spotify содержит типы для работы с Spotify API.
package spotify

import "hookbot/internal/model"

// TracksPage представляет одну страницу треков плейлиста
type TracksPage struct {
	Items []model.RawTrack
	Total int
}
