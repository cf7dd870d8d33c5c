// Package app содержит основную логику приложения.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"hookbot/internal/config"
	"hookbot/internal/external/telegram"
	"hookbot/internal/handlers"
	"hookbot/internal/health"
	"hookbot/internal/middleware"
	"hookbot/internal/service"
	"hookbot/internal/storage"

	"go.uber.org/zap"
)

// Bot представляет основную логику бота
type Bot struct {
	config     *config.Config
	logger     *zap.Logger
	db         *storage.Postgres
	telegram   *telegram.Client
	health     *health.Server
	services   *service.Services
	middleware *middleware.Middleware
	handlers   *handlers.Handlers
	stopChan   chan struct{}
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewBot создает новый экземпляр бота
func NewBot(cfg *config.Config, logger *zap.Logger) (*Bot, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	ctx, cancel := context.WithCancel(context.Background())

	bot := &Bot{
		config:   cfg,
		logger:   logger,
		stopChan: make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}

	logger.Info("Bot structure created successfully")
	return bot, nil
}

// NewBotWithFactory создает новый экземпляр бота через фабрику
func NewBotWithFactory(cfg *config.Config, logger *zap.Logger) (*Bot, error) {
	factory := NewComponentFactory(cfg, logger)
	return factory.CreateBot()
}

// Start запускает бота
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting bot")

	// Разрешение плейлиста на старте: ошибка фатальна для запуска процесса
	resolveCtx, resolveCancel := context.WithTimeout(ctx, 2*time.Minute)
	ref, err := b.services.Reconciler.Resolve(resolveCtx)
	resolveCancel()
	if err != nil {
		return fmt.Errorf("failed to resolve playlist %q: %w", b.config.PlaylistName, err)
	}

	b.logger.Info("Watching playlist",
		zap.String("playlist_name", ref.Name),
		zap.String("playlist_id", ref.ID),
		zap.Int("tracks", ref.TotalTracks))

	// Запускаем health check сервер
	if b.health != nil {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			if err := b.health.Start(); err != nil {
				if err.Error() == "http: Server closed" {
					b.logger.Info("Health check server stopped normally")
				} else {
					b.logger.Error("Health check server failed", zap.Error(err))
				}
			}
		}()
	}

	// Запускаем очистку middleware
	if b.middleware != nil {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					b.middleware.Cleanup()
				case <-b.ctx.Done():
					b.logger.Info("Middleware cleanup stopped by context")
					return
				case <-b.stopChan:
					b.logger.Info("Middleware cleanup stopped by stop signal")
					return
				}
			}
		}()
	}

	// Первый цикл сверки на старте: при пустом хранилище записывает базовую
	// линию без уведомлений, иначе доносит пропущенные за время простоя изменения
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		checkCtx, checkCancel := context.WithTimeout(b.ctx, 30*time.Minute)
		defer checkCancel()

		b.logger.Info("Running initial check on startup...")
		result, err := b.services.Reconciler.Check(checkCtx)
		if err != nil {
			b.logger.Error("Initial check failed", zap.Error(err))
			return
		}

		b.logger.Info("Initial check completed",
			zap.Bool("changed", result.Changed),
			zap.Bool("baseline", result.Baseline),
			zap.Int("added", len(result.Added)),
			zap.Int("removed", len(result.Removed)))
	}()

	// Запускаем периодические проверки
	if err := b.services.Watcher.Start(); err != nil {
		b.logger.Error("Failed to start watcher", zap.Error(err))
	} else {
		b.logger.Info("Watcher started successfully")
	}

	b.logger.Info("Bot started successfully")

	// Основной цикл обработки обновлений
	maxRestartAttempts := 10
	restartAttempts := 0
	restartDelay := 10 * time.Second

	for {
		select {
		case <-b.ctx.Done():
			b.logger.Info("Bot main loop cancelled by context")
			return b.ctx.Err()
		case <-ctx.Done():
			b.logger.Info("Bot main loop cancelled by caller context")
			return nil
		case <-b.stopChan:
			b.logger.Info("Bot main loop stopped by stop signal")
			return nil
		default:
			if err := b.runUpdateLoop(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					b.logger.Info("Update loop stopped due to context cancellation")
					return nil
				}

				restartAttempts++
				b.logger.Error("Update loop error",
					zap.Error(err),
					zap.Int("restart_attempt", restartAttempts),
					zap.Int("max_attempts", maxRestartAttempts))

				if restartAttempts > maxRestartAttempts {
					return fmt.Errorf("max restart attempts reached: %w", err)
				}

				delay := time.Duration(restartAttempts) * restartDelay
				if delay > 5*time.Minute {
					delay = 5 * time.Minute
				}

				b.logger.Info("Waiting before restart", zap.Duration("delay", delay))
				select {
				case <-b.ctx.Done():
					return b.ctx.Err()
				case <-time.After(delay):
					continue
				}
			} else {
				restartAttempts = 0
			}
		}
	}
}

// Stop gracefully останавливает бота
func (b *Bot) Stop() error {
	b.logger.Info("Stopping bot gracefully")

	// Останавливаем периодические проверки
	if b.services != nil && b.services.Watcher != nil {
		b.services.Watcher.Stop()
	}

	// Отменяем контекст для остановки всех горутин
	if b.cancel != nil {
		b.cancel()
	}

	select {
	case <-b.stopChan:
	default:
		close(b.stopChan)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Останавливаем health check сервер
	if b.health != nil {
		go func() {
			if err := b.health.Stop(); err != nil {
				b.logger.Error("Failed to stop health check server", zap.Error(err))
			}
		}()
	}

	// Ждем завершения всех горутин с таймаутом
	done := make(chan struct{})
	go func() {
		defer close(done)
		b.wg.Wait()
	}()

	select {
	case <-done:
		b.logger.Info("All goroutines stopped successfully")
	case <-shutdownCtx.Done():
		b.logger.Warn("Graceful shutdown timeout exceeded, forcing stop")
	}

	// Закрытие соединения с базой данных
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			b.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	b.logger.Info("Bot stopped successfully")
	return nil
}

// runUpdateLoop запускает цикл обработки обновлений
func (b *Bot) runUpdateLoop(ctx context.Context) error {
	b.logger.Info("Starting update loop")
	return b.telegram.Start(ctx, b.handlers)
}
