// Package middleware содержит middleware компоненты.
package middleware

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Middleware представляет цепочку middleware для входящих обновлений
type Middleware struct {
	rateLimiter RateLimiterInterface
	logger      *zap.Logger
}

// New создает новый middleware
func New(logger *zap.Logger) *Middleware {
	// 10 запросов в минуту на пользователя
	rateLimiter := NewRateLimiter(10, 60*time.Second, logger)

	return &Middleware{
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// ProcessWithMiddleware применяет все middleware к обновлению
func (m *Middleware) ProcessWithMiddleware(update tgbotapi.Update, handler func(tgbotapi.Update)) {
	RecoveryMiddleware(m.logger)(update, func(update tgbotapi.Update) {
		LoggingMiddleware(m.logger)(update, func(update tgbotapi.Update) {
			if update.Message != nil && update.Message.From != nil && !m.rateLimiter.Allow(update.Message.From.ID) {
				m.logger.Warn("Rate limit exceeded, dropping update",
					zap.Int64("user_id", update.Message.From.ID),
					zap.Int("update_id", update.UpdateID))
				return
			}
			handler(update)
		})
	})
}

// Cleanup очищает устаревшие записи rate limiter
func (m *Middleware) Cleanup() {
	m.rateLimiter.Cleanup()
}
