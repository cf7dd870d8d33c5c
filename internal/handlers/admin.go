// Package handlers содержит обработчики административных команд.
package handlers

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Interval обрабатывает команду interval: меняет интервал проверок
func (h *Handlers) Interval(message *tgbotapi.Message, args []string) {
	if !h.isAdmin(message.From) {
		h.sendMessage(message.Chat.ID, "Команда доступна только администратору.")
		return
	}

	if len(args) == 0 {
		h.sendMessage(message.Chat.ID, fmt.Sprintf("Текущий интервал проверок: %v.", h.services.Watcher.Interval()))
		return
	}

	minutes, err := strconv.ParseFloat(args[0], 64)
	if err != nil || minutes <= 0 {
		h.sendMessage(message.Chat.ID, "Укажите интервал в минутах, например: interval 20")
		return
	}

	if err := h.config.SetCheckIntervalMinutes(minutes); err != nil {
		h.sendMessage(message.Chat.ID, fmt.Sprintf("Ошибка: %v", err))
		return
	}

	if err := h.services.Watcher.SetInterval(h.config.CheckInterval()); err != nil {
		h.logger.Error("Failed to update watcher interval", zap.Error(err))
		h.sendMessage(message.Chat.ID, "Не удалось изменить интервал, см. логи.")
		return
	}

	h.sendMessage(message.Chat.ID, fmt.Sprintf("Интервал проверок изменен на %v минут.", minutes))
}

// Prefix обрабатывает команду prefix: меняет префикс команд
func (h *Handlers) Prefix(message *tgbotapi.Message, args []string) {
	if !h.isAdmin(message.From) {
		h.sendMessage(message.Chat.ID, "Команда доступна только администратору.")
		return
	}

	if len(args) == 0 {
		h.sendMessage(message.Chat.ID, fmt.Sprintf("Текущий префикс команд: %s", h.config.GetCommandPrefix()))
		return
	}

	if err := h.config.SetCommandPrefix(args[0]); err != nil {
		h.sendMessage(message.Chat.ID, fmt.Sprintf("Ошибка: %v", err))
		return
	}

	h.sendMessage(message.Chat.ID, fmt.Sprintf("Префикс команд изменен на %s", args[0]))
}
