package telegram

import (
	"context"
	"fmt"
	"testing"
	"time"

	"hookbot/internal/external/spotify"
	"hookbot/internal/model"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// fakeGenreSource реализует spotify.Interface для тестов форматирования
type fakeGenreSource struct {
	genres    []string
	genresErr error
}

func (s *fakeGenreSource) SearchPlaylistByName(ctx context.Context, name string) (*model.PlaylistRef, error) {
	return nil, nil
}

func (s *fakeGenreSource) GetPlaylistByID(ctx context.Context, playlistID string) (*model.PlaylistRef, error) {
	return nil, nil
}

func (s *fakeGenreSource) GetPlaylistTracksPage(ctx context.Context, playlistID string, limit, offset int) (*spotify.TracksPage, error) {
	return nil, nil
}

func (s *fakeGenreSource) GetArtistGenres(ctx context.Context, artistID string) ([]string, error) {
	return s.genres, s.genresErr
}

func testNotifier(source spotify.Interface) *Notifier {
	return NewNotifier(nil, source, 100, "Test Playlist", zap.NewNop())
}

func TestNotifier_FormatTrackCard(t *testing.T) {
	addedAt := time.Date(2024, 1, 15, 12, 30, 0, 0, time.UTC)

	track := model.TrackRecord{
		TrackID:     "abc",
		Title:       "Test Song",
		ArtistNames: []string{"Artist A", "Artist B"},
		ArtistIDs:   []string{"artist-a"},
		AlbumName:   "Test Album",
		ExternalURL: "https://open.spotify.com/track/abc",
		AddedBy:     "user1",
		AddedAt:     &addedAt,
	}

	t.Run("added track card", func(t *testing.T) {
		n := testNotifier(&fakeGenreSource{genres: []string{"k-pop", "dance pop"}})

		card := n.FormatTrackCard(context.Background(), track, true)

		assert.Contains(t, card, "🎵 Song added to \"Test Playlist\"")
		assert.Contains(t, card, "*Test Song*")
		assert.Contains(t, card, "Artist A, Artist B")
		assert.Contains(t, card, "_Test Album_")
		assert.Contains(t, card, "Added by user1 at 2024-01-15 12:30 UTC")
		assert.Contains(t, card, "https://open.spotify.com/track/abc")
		assert.Contains(t, card, "Potential genres: k-pop • dance pop")
	})

	t.Run("removed track card", func(t *testing.T) {
		n := testNotifier(&fakeGenreSource{genres: []string{"k-pop"}})

		card := n.FormatTrackCard(context.Background(), track, false)

		assert.Contains(t, card, "🗑 Song removed from \"Test Playlist\"")
		assert.NotContains(t, card, "Added by")
		assert.NotContains(t, card, "Potential genres")
	})

	t.Run("genre lookup failure is not fatal", func(t *testing.T) {
		n := testNotifier(&fakeGenreSource{genresErr: fmt.Errorf("rate limited")})

		card := n.FormatTrackCard(context.Background(), track, true)

		assert.Contains(t, card, "*Test Song*")
		assert.NotContains(t, card, "Potential genres")
	})

	t.Run("genres are capped", func(t *testing.T) {
		n := testNotifier(&fakeGenreSource{genres: []string{"a", "b", "c", "d", "e", "f"}})

		card := n.FormatTrackCard(context.Background(), track, true)

		assert.Contains(t, card, "Potential genres: a • b • c • d")
		assert.NotContains(t, card, "• e")
	})

	t.Run("missing optional fields", func(t *testing.T) {
		n := testNotifier(&fakeGenreSource{})

		bare := model.TrackRecord{TrackID: "x", Title: "Bare"}
		card := n.FormatTrackCard(context.Background(), bare, true)

		assert.Contains(t, card, "*Bare*")
		assert.NotContains(t, card, "Added by")
	})
}

func TestNotifier_FormatTrackCard_EscapesMarkdown(t *testing.T) {
	// Спецсимволы Markdown в метаданных не должны ломать разметку сообщения
	track := model.TrackRecord{
		TrackID:     "abc",
		Title:       "she_loves*control [remix]",
		ArtistNames: []string{"a_r*tist"},
		AlbumName:   "the_album",
	}

	n := testNotifier(&fakeGenreSource{})

	card := n.FormatTrackCard(context.Background(), track, true)

	assert.Contains(t, card, `*she\_loves\*control \[remix]*`)
	assert.Contains(t, card, `a\_r\*tist`)
	assert.Contains(t, card, `_the\_album_`)
}

func TestNotifier_NotifyTrack_RequiresChat(t *testing.T) {
	n := NewNotifier(nil, &fakeGenreSource{}, 0, "Test Playlist", zap.NewNop())

	err := n.NotifyTrack(context.Background(), model.TrackRecord{TrackID: "x", Title: "T"}, true)
	assert.Error(t, err)
}
