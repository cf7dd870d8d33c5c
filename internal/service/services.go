// Package service содержит бизнес-логику приложения.
package service

import (
	"hookbot/internal/config"
	"hookbot/internal/external/spotify"
	"hookbot/internal/model"

	"go.uber.org/zap"
)

// Services содержит все сервисы приложения
type Services struct {
	Fetcher    *Fetcher
	Reconciler *Reconciler
	Watcher    *Watcher
}

// NewServices создает все сервисы
func NewServices(repo model.StateRepository, source spotify.Interface, notifier Notifier, cfg *config.Config, logger *zap.Logger) *Services {
	fetcher := NewFetcher(source, logger)
	reconciler := NewReconciler(fetcher, repo, notifier, cfg.PlaylistName, cfg.ReportRemovals, logger)
	watcher := NewWatcher(reconciler, cfg.CheckInterval(), logger)

	return &Services{
		Fetcher:    fetcher,
		Reconciler: reconciler,
		Watcher:    watcher,
	}
}
