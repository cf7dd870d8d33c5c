// Package middleware содержит middleware для логирования запросов.
package middleware

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// LoggingMiddleware логирует входящие команды с контекстом
func LoggingMiddleware(logger *zap.Logger) func(update tgbotapi.Update, next func(tgbotapi.Update)) {
	return func(update tgbotapi.Update, next func(tgbotapi.Update)) {
		if update.Message == nil {
			next(update)
			return
		}

		startTime := time.Now()
		requestID := fmt.Sprintf("%d-%d", update.UpdateID, startTime.UnixNano())
		command := firstWord(update.Message.Text)
		user := getUserIdentifier(update.Message.From)

		var userID int64
		if update.Message.From != nil {
			userID = update.Message.From.ID
		}

		logger.Info("Processing command",
			zap.String("request_id", requestID),
			zap.String("command", command),
			zap.Int64("user_id", userID),
			zap.Int64("chat_id", update.Message.Chat.ID),
			zap.String("user", user),
			zap.Int("update_id", update.UpdateID))

		next(update)

		logger.Info("Command completed",
			zap.String("request_id", requestID),
			zap.String("command", command),
			zap.Duration("duration", time.Since(startTime)))
	}
}

// firstWord возвращает первое слово текста сообщения
func firstWord(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// getUserIdentifier возвращает идентификатор пользователя
func getUserIdentifier(user *tgbotapi.User) string {
	if user == nil {
		return "unknown"
	}

	if user.UserName != "" {
		return "@" + user.UserName
	}

	if user.FirstName != "" {
		if user.LastName != "" {
			return user.FirstName + " " + user.LastName
		}
		return user.FirstName
	}

	return fmt.Sprintf("user_%d", user.ID)
}
