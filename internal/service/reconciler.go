// Package service содержит бизнес-логику приложения.
package service

import (
	"context"
	"sync"

	"hookbot/internal/model"

	"go.uber.org/zap"
)

// CycleState представляет фазу цикла сверки
type CycleState string

const (
	StateIdle       CycleState = "idle"
	StateFetching   CycleState = "fetching"
	StateDiffing    CycleState = "diffing"
	StatePersisting CycleState = "persisting"
	StateEmitting   CycleState = "emitting"
)

// CheckResult представляет результат одного цикла сверки
type CheckResult struct {
	SnapshotID string
	Changed    bool
	Baseline   bool
	Removed    []model.TrackRecord
	Added      []model.TrackRecord
	Announced  int
}

// Reconciler выполняет цикл сверки: fetch -> diff -> persist -> emit.
// Snapshot id продвигается только после того, как все изменения треков
// записаны в хранилище и уведомления отправлены.
type Reconciler struct {
	fetcher        SnapshotFetcher
	repo           model.StateRepository
	notifier       Notifier
	playlistName   string
	reportRemovals bool
	logger         *zap.Logger

	// mu покрывает весь цикл Check: конкурирующий вызов ждет завершения текущего
	mu sync.Mutex

	stateMu      sync.RWMutex
	state        CycleState
	playlistID   string
	playlistURL  string
	lastSnapshot *model.PlaylistSnapshot
}

// NewReconciler создает новый reconciler
func NewReconciler(fetcher SnapshotFetcher, repo model.StateRepository, notifier Notifier, playlistName string, reportRemovals bool, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		fetcher:        fetcher,
		repo:           repo,
		notifier:       notifier,
		playlistName:   playlistName,
		reportRemovals: reportRemovals,
		logger:         logger,
		state:          StateIdle,
	}
}

// Resolve разрешает имя плейлиста в id источника. Вызывается на старте;
// ошибка разрешения фатальна для запуска процесса.
func (r *Reconciler) Resolve(ctx context.Context) (*model.PlaylistRef, error) {
	ref, err := r.fetcher.ResolveByName(ctx, r.playlistName)
	if err != nil {
		return nil, err
	}

	r.stateMu.Lock()
	r.playlistID = ref.ID
	r.playlistURL = ref.ExternalURL
	r.stateMu.Unlock()

	r.logger.Info("Playlist resolved",
		zap.String("playlist_name", r.playlistName),
		zap.String("playlist_id", ref.ID))

	return ref, nil
}

// Check выполняет один цикл сверки. Вызовы взаимоисключающие: пришедший во
// время выполнения цикла вызов встает в очередь за замком.
func (r *Reconciler) Check(ctx context.Context) (*CheckResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.setState(StateIdle)

	r.setState(StateFetching)

	// Предпочитаем ранее разрешенный id повторному неоднозначному поиску по имени
	playlistID := r.getPlaylistID()
	if playlistID == "" {
		ref, err := r.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		playlistID = ref.ID
	}

	snapshot, err := r.fetcher.FetchSnapshot(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	r.stateMu.Lock()
	r.lastSnapshot = snapshot
	if snapshot.ExternalURL != "" {
		r.playlistURL = snapshot.ExternalURL
	}
	r.stateMu.Unlock()

	lastSnapshotID, err := r.repo.GetSnapshotID(ctx)
	if err != nil {
		return nil, err
	}

	// Частый случай: плейлист не менялся, цикл завершается без записей и отправок
	if snapshot.SnapshotID == lastSnapshotID {
		r.logger.Debug("Snapshot unchanged, nothing to do",
			zap.String("snapshot_id", snapshot.SnapshotID))
		return &CheckResult{SnapshotID: snapshot.SnapshotID}, nil
	}

	baseline := lastSnapshotID == ""

	r.setState(StateDiffing)

	known, err := r.repo.AllTracks(ctx)
	if err != nil {
		return nil, err
	}

	removed, added := Diff(known, snapshot)

	r.logger.Info("Playlist changed",
		zap.String("old_snapshot_id", lastSnapshotID),
		zap.String("new_snapshot_id", snapshot.SnapshotID),
		zap.Int("added", len(added)),
		zap.Int("removed", len(removed)))

	r.setState(StatePersisting)

	// Сначала удаления, затем добавления; любая ошибка хранилища прерывает
	// цикл до продвижения snapshot id, повтор на следующем цикле идемпотентен
	for _, track := range removed {
		if err := r.repo.RemoveTrack(ctx, track.TrackID); err != nil {
			return nil, err
		}
	}

	for i := range added {
		if err := r.repo.SaveTrack(ctx, &added[i]); err != nil {
			return nil, err
		}
	}

	r.setState(StateEmitting)

	// Уведомления идут из diff текущего цикла до продвижения snapshot id:
	// при сбое записи id следующий цикл получит пустой diff и не продублирует
	// отправленное. Первый снимок служит базовой линией и не анонсируется.
	announced := 0
	if !baseline {
		announced = r.emit(ctx, removed, added)
	} else {
		r.logger.Info("First observed snapshot, recording baseline without announcements",
			zap.String("snapshot_id", snapshot.SnapshotID),
			zap.Int("tracks", len(added)))
	}

	if err := r.repo.SaveSnapshotID(ctx, snapshot.SnapshotID); err != nil {
		return nil, err
	}

	return &CheckResult{
		SnapshotID: snapshot.SnapshotID,
		Changed:    true,
		Baseline:   baseline,
		Removed:    removed,
		Added:      added,
		Announced:  announced,
	}, nil
}

// emit отправляет уведомления: сначала удаленные, затем добавленные.
// Ошибка отправки логируется и пропускается, цикл не прерывается.
func (r *Reconciler) emit(ctx context.Context, removed, added []model.TrackRecord) int {
	announced := 0

	if r.reportRemovals {
		for _, track := range removed {
			if err := r.notifier.NotifyTrack(ctx, track, false); err != nil {
				r.logger.Error("Failed to send removal notification",
					zap.String("track_id", track.TrackID),
					zap.String("title", track.Title),
					zap.Error(err))
				continue
			}
			announced++
		}
	}

	for _, track := range added {
		if err := r.notifier.NotifyTrack(ctx, track, true); err != nil {
			r.logger.Error("Failed to send addition notification",
				zap.String("track_id", track.TrackID),
				zap.String("title", track.Title),
				zap.Error(err))
			continue
		}
		announced++
	}

	return announced
}

// State возвращает текущую фазу цикла сверки
func (r *Reconciler) State() CycleState {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.state
}

// PlaylistURL возвращает ссылку на отслеживаемый плейлист
func (r *Reconciler) PlaylistURL() string {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.playlistURL
}

// PlaylistName возвращает имя отслеживаемого плейлиста
func (r *Reconciler) PlaylistName() string {
	return r.playlistName
}

// LastSnapshot возвращает последний полученный снимок плейлиста
func (r *Reconciler) LastSnapshot() *model.PlaylistSnapshot {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.lastSnapshot
}

func (r *Reconciler) setState(state CycleState) {
	r.stateMu.Lock()
	r.state = state
	r.stateMu.Unlock()
}

func (r *Reconciler) getPlaylistID() string {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.playlistID
}
