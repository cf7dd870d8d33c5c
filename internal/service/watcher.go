// Package service содержит планировщик циклов сверки.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Watcher запускает циклы сверки по расписанию. Немедленный запуск и запуск
// по таймеру сериализуются замком самого Reconciler.
type Watcher struct {
	reconciler *Reconciler
	cron       *cron.Cron
	interval   time.Duration
	logger     *zap.Logger
	mu         sync.Mutex
	running    bool
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWatcher создает новый watcher
func NewWatcher(reconciler *Reconciler, interval time.Duration, logger *zap.Logger) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		reconciler: reconciler,
		cron:       cron.New(cron.WithLocation(time.UTC)),
		interval:   interval,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start запускает периодические проверки
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher is already running")
	}

	w.cron.Schedule(cron.Every(w.interval), cron.FuncJob(w.runCheck))
	w.cron.Start()
	w.running = true

	w.logger.Info("Watcher started", zap.Duration("interval", w.interval))
	return nil
}

// Stop останавливает периодические проверки
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	w.logger.Info("Stopping watcher")

	w.cancel()
	w.cron.Stop()
	w.running = false

	w.logger.Info("Watcher stopped")
}

// SetInterval меняет интервал проверок. Cron пересоздается с новым
// расписанием, текущий выполняющийся цикл не прерывается.
func (w *Watcher) SetInterval(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", interval)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.interval = interval

	if !w.running {
		return nil
	}

	w.cron.Stop()
	w.cron = cron.New(cron.WithLocation(time.UTC))
	w.cron.Schedule(cron.Every(w.interval), cron.FuncJob(w.runCheck))
	w.cron.Start()

	w.logger.Info("Watcher interval updated", zap.Duration("interval", interval))
	return nil
}

// Interval возвращает текущий интервал проверок
func (w *Watcher) Interval() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.interval
}

// TriggerNow запускает внеочередной цикл сверки
func (w *Watcher) TriggerNow(ctx context.Context) (*CheckResult, error) {
	w.logger.Info("Manual check triggered")
	return w.reconciler.Check(ctx)
}

// runCheck выполняет один плановый цикл сверки
func (w *Watcher) runCheck() {
	ctx, cancel := context.WithTimeout(w.ctx, 30*time.Minute)
	defer cancel()

	result, err := w.reconciler.Check(ctx)
	if err != nil {
		// Ошибка цикла не фатальна: состояние не изменилось, повтор по расписанию
		w.logger.Error("Scheduled check failed", zap.Error(err))
		return
	}

	if !result.Changed {
		w.logger.Debug("Scheduled check completed, no changes")
		return
	}

	w.logger.Info("Scheduled check completed",
		zap.String("snapshot_id", result.SnapshotID),
		zap.Int("added", len(result.Added)),
		zap.Int("removed", len(result.Removed)),
		zap.Int("announced", result.Announced))
}
