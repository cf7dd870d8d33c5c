// Package handlers содержит обработчики пользовательских команд.
package handlers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// checkTimeout ограничивает внеочередной цикл сверки
const checkTimeout = 10 * time.Minute

// Start обрабатывает команду start
func (h *Handlers) Start(message *tgbotapi.Message) {
	text := fmt.Sprintf("Слежу за плейлистом \"%s\". Используйте %shelp для списка команд.",
		h.services.Reconciler.PlaylistName(), h.config.GetCommandPrefix())
	h.sendMessage(message.Chat.ID, text)
}

// Help обрабатывает команду help
func (h *Handlers) Help(message *tgbotapi.Message) {
	p := h.config.GetCommandPrefix()
	text := "Доступные команды:\n" +
		fmt.Sprintf("\n%sstart - Начать работу с ботом", p) +
		fmt.Sprintf("\n%shelp - Показать это сообщение", p) +
		fmt.Sprintf("\n%scheck - Проверить плейлист на изменения", p) +
		fmt.Sprintf("\n%splaylist - Ссылка на отслеживаемый плейлист", p) +
		fmt.Sprintf("\n%strack [номер] - Показать трек плейлиста, без номера - последний", p) +
		fmt.Sprintf("\n%sinterval <минуты> - Изменить интервал проверок", p) +
		fmt.Sprintf("\n%sprefix <префикс> - Изменить префикс команд", p)
	h.sendMessage(message.Chat.ID, text)
}

// Check обрабатывает команду check: запускает внеочередной цикл сверки
func (h *Handlers) Check(message *tgbotapi.Message) {
	h.sendMessage(message.Chat.ID, "Проверяю плейлист...")

	// Цикл может занять время (пагинация + отправки), не блокируем обработку обновлений
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		defer cancel()

		result, err := h.services.Watcher.TriggerNow(ctx)
		if err != nil {
			h.logger.Error("Manual check failed", zap.Error(err))
			h.sendMessage(message.Chat.ID, "Ошибка при проверке плейлиста, см. логи.")
			return
		}

		switch {
		case !result.Changed:
			h.sendMessage(message.Chat.ID, "Изменений с последней проверки нет.")
		case result.Baseline:
			h.sendMessage(message.Chat.ID, fmt.Sprintf("Плейлист сохранен как отправная точка: %d треков.", len(result.Added)))
		default:
			h.sendMessage(message.Chat.ID, fmt.Sprintf("Проверка завершена: добавлено %d, удалено %d.",
				len(result.Added), len(result.Removed)))
		}
	}()
}

// Playlist обрабатывает команду playlist: отправляет ссылку на плейлист
func (h *Handlers) Playlist(message *tgbotapi.Message) {
	url := h.services.Reconciler.PlaylistURL()
	if url == "" {
		h.sendMessage(message.Chat.ID, "Плейлист еще не загружен, попробуйте позже.")
		return
	}

	h.sendMessage(message.Chat.ID, url)
}

// Track обрабатывает команду track: показывает трек плейлиста по номеру
func (h *Handlers) Track(message *tgbotapi.Message, args []string) {
	snapshot := h.services.Reconciler.LastSnapshot()
	if snapshot == nil || len(snapshot.Tracks) == 0 {
		h.sendMessage(message.Chat.ID, "Плейлист еще не загружен, попробуйте позже.")
		return
	}

	offset, ok := resolveTrackOffset(args, len(snapshot.Tracks))
	if !ok {
		h.sendMessage(message.Chat.ID, fmt.Sprintf("Укажите номер трека от 0 до %d.", len(snapshot.Tracks)-1))
		return
	}

	track := snapshot.Tracks[offset]

	text := fmt.Sprintf("*%s*\n%s",
		tgbotapi.EscapeText(tgbotapi.ModeMarkdown, track.Title),
		tgbotapi.EscapeText(tgbotapi.ModeMarkdown, track.ArtistLine()))
	if track.AlbumName != "" {
		text += fmt.Sprintf(" • _%s_", tgbotapi.EscapeText(tgbotapi.ModeMarkdown, track.AlbumName))
	}
	if track.ExternalURL != "" {
		text += "\n" + track.ExternalURL
	}

	h.sendMessage(message.Chat.ID, text)
}

// resolveTrackOffset выбирает номер трека: без аргумента показывается
// последний трек плейлиста, то есть самое свежее добавление
func resolveTrackOffset(args []string, count int) (int, bool) {
	if len(args) == 0 {
		return count - 1, true
	}

	parsed, err := strconv.Atoi(args[0])
	if err != nil || parsed < 0 || parsed >= count {
		return 0, false
	}

	return parsed, true
}
