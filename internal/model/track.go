// Package model содержит модели данных.
//
// Группа: ENTITIES - Основные сущности
// Содержит: TrackRecord, PlaylistSnapshot, StateRepository
package model

import (
	"context"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// SnapshotMarkerID - зарезервированный идентификатор строки-маркера со snapshot id.
// Треки и маркер живут в одной таблице и различаются полем is_marker.
const SnapshotMarkerID = "__snapshot_marker__"

// RawTrack представляет сырые данные трека из источника до нормализации
type RawTrack struct {
	ID          string
	Title       string
	ArtistNames []string
	ArtistIDs   []string
	AlbumName   string
	AlbumArtURL string
	ExternalURL string
	AddedBy     string
	AddedAt     string
}

// TrackRecord представляет нормализованную запись трека плейлиста
type TrackRecord struct {
	bun.BaseModel `bun:"table:playlist_state"`

	TrackID     string     `bun:"track_id,pk" json:"track_id"`
	Title       string     `bun:"title,notnull" json:"title"`
	ArtistNames []string   `bun:"artist_names,array" json:"artist_names"`
	ArtistIDs   []string   `bun:"artist_ids,array" json:"artist_ids"`
	AlbumName   string     `bun:"album_name" json:"album_name"`
	AlbumArtURL string     `bun:"album_art_url" json:"album_art_url"`
	ExternalURL string     `bun:"external_url" json:"external_url"`
	AddedBy     string     `bun:"added_by" json:"added_by"`
	AddedAt     *time.Time `bun:"added_at" json:"added_at"`
	IsMarker    bool       `bun:"is_marker,notnull,default:false" json:"is_marker"`
	SnapshotID  string     `bun:"snapshot_id" json:"snapshot_id"`
	CreatedAt   time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// NewTrackRecord строит нормализованную запись трека из сырых данных источника.
// Сырые данные не изменяются; запись после построения неизменяема.
func NewTrackRecord(raw RawTrack) (*TrackRecord, error) {
	if raw.ID == "" {
		return nil, &MalformedRecordError{Field: "id", Value: raw.ID}
	}
	if raw.Title == "" {
		return nil, &MalformedRecordError{Field: "title", Value: raw.Title}
	}

	addedAt, err := parseSourceTime(raw.AddedAt)
	if err != nil {
		return nil, &MalformedRecordError{Field: "added_at", Value: raw.AddedAt}
	}

	return &TrackRecord{
		TrackID:     raw.ID,
		Title:       raw.Title,
		ArtistNames: append([]string(nil), raw.ArtistNames...),
		ArtistIDs:   append([]string(nil), raw.ArtistIDs...),
		AlbumName:   raw.AlbumName,
		AlbumArtURL: raw.AlbumArtURL,
		ExternalURL: raw.ExternalURL,
		AddedBy:     raw.AddedBy,
		AddedAt:     addedAt,
	}, nil
}

// ArtistLine возвращает строку с именами исполнителей через запятую
func (t *TrackRecord) ArtistLine() string {
	return strings.Join(t.ArtistNames, ", ")
}

// parseSourceTime разбирает варианты ISO-8601, которые отдает источник.
// Пустое значение допустимо: дата добавления неизвестна для старых треков.
func parseSourceTime(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	// Источник использует суффикс 'Z', иногда отдает время без таймзоны
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}

	var lastErr error
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			utc := parsed.UTC()
			return &utc, nil
		}
		lastErr = err
	}

	return nil, lastErr
}

// PlaylistSnapshot представляет полное состояние плейлиста на момент запроса
type PlaylistSnapshot struct {
	PlaylistID  string
	Name        string
	ExternalURL string
	SnapshotID  string
	Tracks      []TrackRecord
}

// PlaylistRef представляет разрешенный плейлист источника без списка треков
type PlaylistRef struct {
	ID          string
	Name        string
	ExternalURL string
	SnapshotID  string
	TotalTracks int
}

// StateRepository определяет интерфейс для работы с сохраненным состоянием плейлиста
type StateRepository interface {
	// SaveTrack сохраняет запись трека; повторный вызов с тем же id - no-op
	SaveTrack(ctx context.Context, track *TrackRecord) error

	// RemoveTrack удаляет запись трека; отсутствующий id не является ошибкой
	RemoveTrack(ctx context.Context, trackID string) error

	// AllTracks возвращает все известные записи треков
	AllTracks(ctx context.Context) ([]TrackRecord, error)

	// SaveSnapshotID сохраняет последний обработанный snapshot id
	SaveSnapshotID(ctx context.Context, snapshotID string) error

	// GetSnapshotID возвращает последний обработанный snapshot id, "" если его нет
	GetSnapshotID(ctx context.Context) (string, error)
}
