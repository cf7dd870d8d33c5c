// Package telegram содержит отправку уведомлений об изменениях плейлиста.
package telegram

import (
	"context"
	"fmt"
	"strings"

	"hookbot/internal/external/spotify"
	"hookbot/internal/model"
	"hookbot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// maxGenres - максимум жанров в уведомлении о добавленном треке
const maxGenres = 4

// Notifier отправляет уведомления об изменениях плейлиста в чат
type Notifier struct {
	client       *Client
	source       spotify.Interface
	chatID       int64
	playlistName string
	logger       *zap.Logger
}

var _ service.Notifier = (*Notifier)(nil)

// NewNotifier создает новый notifier
func NewNotifier(client *Client, source spotify.Interface, chatID int64, playlistName string, logger *zap.Logger) *Notifier {
	return &Notifier{
		client:       client,
		source:       source,
		chatID:       chatID,
		playlistName: playlistName,
		logger:       logger,
	}
}

// NotifyTrack отправляет уведомление об одном добавленном или удаленном треке
func (n *Notifier) NotifyTrack(ctx context.Context, track model.TrackRecord, added bool) error {
	if n.chatID == 0 {
		return fmt.Errorf("notification chat is not configured")
	}

	text := n.FormatTrackCard(ctx, track, added)
	if err := n.client.SendMessage(n.chatID, text); err != nil {
		return fmt.Errorf("failed to notify about track %s: %w", track.TrackID, err)
	}

	return nil
}

// FormatTrackCard форматирует карточку трека для отправки в чат.
// Сообщение уходит с ParseMode=Markdown, поэтому все поля из источника
// экранируются: спецсимвол в названии не должен ронять отправку.
func (n *Notifier) FormatTrackCard(ctx context.Context, track model.TrackRecord, added bool) string {
	var b strings.Builder

	if added {
		b.WriteString(fmt.Sprintf("🎵 Song added to \"%s\"\n\n", escapeMarkdown(n.playlistName)))
	} else {
		b.WriteString(fmt.Sprintf("🗑 Song removed from \"%s\"\n\n", escapeMarkdown(n.playlistName)))
	}

	b.WriteString(fmt.Sprintf("*%s*\n", escapeMarkdown(track.Title)))
	b.WriteString(escapeMarkdown(track.ArtistLine()))
	if track.AlbumName != "" {
		b.WriteString(fmt.Sprintf(" • _%s_", escapeMarkdown(track.AlbumName)))
	}
	b.WriteString("\n")

	if added && track.AddedAt != nil {
		line := fmt.Sprintf("Added at %s", track.AddedAt.Format("2006-01-02 15:04 UTC"))
		if track.AddedBy != "" {
			line = fmt.Sprintf("Added by %s at %s", escapeMarkdown(track.AddedBy), track.AddedAt.Format("2006-01-02 15:04 UTC"))
		}
		b.WriteString(line + "\n")
	}

	if track.ExternalURL != "" {
		b.WriteString(track.ExternalURL + "\n")
	}

	// Жанры - только украшение: ошибка обогащения не мешает уведомлению
	if added {
		if genres := n.lookupGenres(ctx, track); len(genres) > 0 {
			b.WriteString("\nPotential genres: " + escapeMarkdown(strings.Join(genres, " • ")))
		}
	}

	return b.String()
}

// escapeMarkdown экранирует спецсимволы Markdown в тексте из источника
func escapeMarkdown(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, text)
}

// lookupGenres возвращает жанры первого исполнителя трека
func (n *Notifier) lookupGenres(ctx context.Context, track model.TrackRecord) []string {
	if len(track.ArtistIDs) == 0 {
		return nil
	}

	genres, err := n.source.GetArtistGenres(ctx, track.ArtistIDs[0])
	if err != nil {
		n.logger.Warn("Failed to get artist genres",
			zap.String("artist_id", track.ArtistIDs[0]),
			zap.Error(err))
		return nil
	}

	if len(genres) > maxGenres {
		genres = genres[:maxGenres]
	}

	return genres
}
