// Package app содержит фабрику компонентов приложения.
package app

import (
	"fmt"

	"hookbot/internal/config"
	"hookbot/internal/external/spotify"
	"hookbot/internal/external/telegram"
	"hookbot/internal/handlers"
	"hookbot/internal/health"
	"hookbot/internal/middleware"
	"hookbot/internal/service"
	"hookbot/internal/storage"

	"go.uber.org/zap"
)

// ComponentFactory создает компоненты приложения
type ComponentFactory struct {
	config *config.Config
	logger *zap.Logger
}

// NewComponentFactory создает новую фабрику компонентов
func NewComponentFactory(config *config.Config, logger *zap.Logger) *ComponentFactory {
	if config == nil {
		logger.Fatal("Config cannot be nil")
	}
	if logger == nil {
		panic("Logger cannot be nil")
	}

	return &ComponentFactory{
		config: config,
		logger: logger,
	}
}

// CreateDatabase создает подключение к базе данных
func (f *ComponentFactory) CreateDatabase() (*storage.Postgres, error) {
	db, err := storage.NewPostgres(f.config.StorageConnectionString, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	f.logger.Info("Database connection created successfully")
	return db, nil
}

// CreateSpotifyClient создает Spotify клиент
func (f *ComponentFactory) CreateSpotifyClient() (*spotify.Client, error) {
	client, err := spotify.NewClient(f.config.SpotifyClientID, f.config.SpotifyClientSecret, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create spotify client: %w", err)
	}

	if f.config.HeadlessAuth {
		f.logger.Info("Headless auth requested; client credentials flow needs no browser")
	}

	return client, nil
}

// CreateTelegramClient создает клиент Telegram
func (f *ComponentFactory) CreateTelegramClient() (*telegram.Client, error) {
	client, err := telegram.NewClient(f.config.BotToken, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}

	f.logger.Info("Telegram client created successfully")
	return client, nil
}

// cycleStateReporter адаптирует состояние reconciler для health сервера
type cycleStateReporter struct {
	reconciler *service.Reconciler
}

func (c cycleStateReporter) State() string {
	return string(c.reconciler.State())
}

// CreateBot создает полный экземпляр бота со всеми зависимостями
func (f *ComponentFactory) CreateBot() (*Bot, error) {
	db, err := f.CreateDatabase()
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	spotifyClient, err := f.CreateSpotifyClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create spotify client: %w", err)
	}

	tgClient, err := f.CreateTelegramClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}

	if f.config.ChatID == 0 {
		f.logger.Warn("CHAT_ID is not configured, change notifications will not be delivered")
	}

	notifier := telegram.NewNotifier(tgClient, spotifyClient, f.config.ChatID, f.config.PlaylistName, f.logger)

	services := service.NewServices(db.GetStateRepository(), spotifyClient, notifier, f.config, f.logger)

	middlewareManager := middleware.New(f.logger)

	handlersManager := handlers.New(services, f.config, tgClient, middlewareManager, f.logger)

	var healthServer *health.Server
	if f.config.HealthCheckEnabled {
		healthServer = health.NewServer(f.config.HealthPort, f.logger,
			db, cycleStateReporter{reconciler: services.Reconciler})
		f.logger.Info("Health check server created", zap.String("port", f.config.HealthPort))
	} else {
		f.logger.Info("Health check server is disabled")
	}

	bot, err := NewBot(f.config, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	bot.db = db
	bot.telegram = tgClient
	bot.health = healthServer
	bot.services = services
	bot.middleware = middlewareManager
	bot.handlers = handlersManager

	f.logger.Info("Bot created successfully with all dependencies")
	return bot, nil
}
