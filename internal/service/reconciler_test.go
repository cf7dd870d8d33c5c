package service

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"hookbot/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeFetcher реализует SnapshotFetcher для тестов
type fakeFetcher struct {
	ref        *model.PlaylistRef
	snapshot   *model.PlaylistSnapshot
	resolveErr error
	fetchErr   error
}

func (f *fakeFetcher) ResolveByName(ctx context.Context, name string) (*model.PlaylistRef, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return f.ref, nil
}

func (f *fakeFetcher) FetchSnapshot(ctx context.Context, playlistID string) (*model.PlaylistSnapshot, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.snapshot, nil
}

// fakeRepo реализует model.StateRepository в памяти
type fakeRepo struct {
	tracks     map[string]model.TrackRecord
	snapshotID string

	saveCalls       int
	removeCalls     int
	saveTrackErr    error
	saveSnapshotErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{tracks: make(map[string]model.TrackRecord)}
}

func (r *fakeRepo) SaveTrack(ctx context.Context, track *model.TrackRecord) error {
	if r.saveTrackErr != nil {
		return r.saveTrackErr
	}
	r.saveCalls++
	if _, ok := r.tracks[track.TrackID]; !ok {
		r.tracks[track.TrackID] = *track
	}
	return nil
}

func (r *fakeRepo) RemoveTrack(ctx context.Context, trackID string) error {
	r.removeCalls++
	delete(r.tracks, trackID)
	return nil
}

func (r *fakeRepo) AllTracks(ctx context.Context) ([]model.TrackRecord, error) {
	var out []model.TrackRecord
	for _, tr := range r.tracks {
		out = append(out, tr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TrackID < out[j].TrackID })
	return out, nil
}

func (r *fakeRepo) SaveSnapshotID(ctx context.Context, snapshotID string) error {
	if r.saveSnapshotErr != nil {
		return r.saveSnapshotErr
	}
	r.snapshotID = snapshotID
	return nil
}

func (r *fakeRepo) GetSnapshotID(ctx context.Context) (string, error) {
	return r.snapshotID, nil
}

// fakeNotifier реализует Notifier и записывает отправленные уведомления
type fakeNotifier struct {
	sent    []string
	sendErr error
}

func (n *fakeNotifier) NotifyTrack(ctx context.Context, track model.TrackRecord, added bool) error {
	if n.sendErr != nil {
		return n.sendErr
	}
	kind := "removed"
	if added {
		kind = "added"
	}
	n.sent = append(n.sent, kind+":"+track.TrackID)
	return nil
}

func testReconciler(fetcher *fakeFetcher, repo *fakeRepo, notifier *fakeNotifier, reportRemovals bool) *Reconciler {
	return NewReconciler(fetcher, repo, notifier, "Test Playlist", reportRemovals, zap.NewNop())
}

func TestReconciler_Check_UnchangedSnapshot(t *testing.T) {
	repo := newFakeRepo()
	repo.snapshotID = "snap1"
	repo.tracks["a"] = track("a", "A")

	fetcher := &fakeFetcher{
		ref:      &model.PlaylistRef{ID: "pl1"},
		snapshot: snapshot(track("a", "A")),
	}
	notifier := &fakeNotifier{}

	r := testReconciler(fetcher, repo, notifier, false)

	result, err := r.Check(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Changed)
	assert.Equal(t, "snap1", result.SnapshotID)
	assert.Zero(t, repo.saveCalls)
	assert.Zero(t, repo.removeCalls)
	assert.Empty(t, notifier.sent)
}

func TestReconciler_Check_BaselineWithoutAnnouncements(t *testing.T) {
	repo := newFakeRepo()
	fetcher := &fakeFetcher{
		ref:      &model.PlaylistRef{ID: "pl1"},
		snapshot: snapshot(track("a", "A"), track("b", "B")),
	}
	notifier := &fakeNotifier{}

	r := testReconciler(fetcher, repo, notifier, true)

	result, err := r.Check(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.True(t, result.Baseline)
	assert.Len(t, result.Added, 2)
	assert.Empty(t, notifier.sent)
	assert.Equal(t, "snap1", repo.snapshotID)
	assert.Len(t, repo.tracks, 2)
}

func TestReconciler_Check_AddsAndRemoves(t *testing.T) {
	repo := newFakeRepo()
	repo.snapshotID = "snap0"
	repo.tracks["a"] = track("a", "A")
	repo.tracks["b"] = track("b", "B")

	fetcher := &fakeFetcher{
		ref:      &model.PlaylistRef{ID: "pl1"},
		snapshot: snapshot(track("b", "B"), track("c", "C")),
	}
	notifier := &fakeNotifier{}

	r := testReconciler(fetcher, repo, notifier, true)

	result, err := r.Check(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.False(t, result.Baseline)
	assert.Len(t, result.Added, 1)
	assert.Len(t, result.Removed, 1)
	assert.Equal(t, "c", result.Added[0].TrackID)
	assert.Equal(t, "a", result.Removed[0].TrackID)

	assert.Equal(t, []string{"removed:a", "added:c"}, notifier.sent)
	assert.Equal(t, "snap1", repo.snapshotID)

	_, hasA := repo.tracks["a"]
	_, hasC := repo.tracks["c"]
	assert.False(t, hasA)
	assert.True(t, hasC)
}

func TestReconciler_Check_RemovalsNotReportedByDefault(t *testing.T) {
	repo := newFakeRepo()
	repo.snapshotID = "snap0"
	repo.tracks["a"] = track("a", "A")

	fetcher := &fakeFetcher{
		ref:      &model.PlaylistRef{ID: "pl1"},
		snapshot: snapshot(track("b", "B")),
	}
	notifier := &fakeNotifier{}

	r := testReconciler(fetcher, repo, notifier, false)

	result, err := r.Check(context.Background())
	require.NoError(t, err)

	// Удаление записано в хранилище, но не анонсировано
	assert.Len(t, result.Removed, 1)
	assert.Equal(t, []string{"added:b"}, notifier.sent)
	_, hasA := repo.tracks["a"]
	assert.False(t, hasA)
}

func TestReconciler_Check_SnapshotSaveFailureNoDuplicates(t *testing.T) {
	repo := newFakeRepo()
	repo.snapshotID = "snap0"
	repo.tracks["a"] = track("a", "A")

	fetcher := &fakeFetcher{
		ref:      &model.PlaylistRef{ID: "pl1"},
		snapshot: snapshot(track("a", "A"), track("b", "B")),
	}
	notifier := &fakeNotifier{}

	r := testReconciler(fetcher, repo, notifier, true)

	// Первый цикл: треки записаны, уведомления отправлены, запись snapshot id падает
	repo.saveSnapshotErr = fmt.Errorf("connection reset")
	_, err := r.Check(context.Background())
	require.Error(t, err)

	assert.Equal(t, []string{"added:b"}, notifier.sent)
	assert.Equal(t, "snap0", repo.snapshotID)

	// Повторный цикл: snapshot id все еще отличается, но diff пуст,
	// дубликатов уведомлений нет
	repo.saveSnapshotErr = nil
	result, err := r.Check(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Empty(t, result.Added)
	assert.Empty(t, result.Removed)
	assert.Equal(t, []string{"added:b"}, notifier.sent)
	assert.Equal(t, "snap1", repo.snapshotID)
}

func TestReconciler_Check_NotifierErrorDoesNotAbortCycle(t *testing.T) {
	repo := newFakeRepo()
	repo.snapshotID = "snap0"

	fetcher := &fakeFetcher{
		ref:      &model.PlaylistRef{ID: "pl1"},
		snapshot: snapshot(track("a", "A")),
	}
	notifier := &fakeNotifier{sendErr: fmt.Errorf("telegram unavailable")}

	r := testReconciler(fetcher, repo, notifier, false)

	result, err := r.Check(context.Background())
	require.NoError(t, err)

	// Ошибка отправки логируется и пропускается, snapshot id продвигается
	assert.Zero(t, result.Announced)
	assert.Equal(t, "snap1", repo.snapshotID)
}

func TestReconciler_Check_SaveTrackFailureAbortsBeforeSnapshotID(t *testing.T) {
	repo := newFakeRepo()
	repo.snapshotID = "snap0"
	repo.saveTrackErr = &model.StorageUnavailableError{Op: "save", Err: fmt.Errorf("down")}

	fetcher := &fakeFetcher{
		ref:      &model.PlaylistRef{ID: "pl1"},
		snapshot: snapshot(track("a", "A")),
	}
	notifier := &fakeNotifier{}

	r := testReconciler(fetcher, repo, notifier, false)

	_, err := r.Check(context.Background())
	require.Error(t, err)
	assert.True(t, model.IsStorageUnavailable(err))

	assert.Empty(t, notifier.sent)
	assert.Equal(t, "snap0", repo.snapshotID)
}

func TestReconciler_Resolve(t *testing.T) {
	fetcher := &fakeFetcher{
		ref: &model.PlaylistRef{ID: "pl1", Name: "Test Playlist", ExternalURL: "https://open.spotify.com/playlist/pl1"},
	}

	r := testReconciler(fetcher, newFakeRepo(), &fakeNotifier{}, false)

	ref, err := r.Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "pl1", ref.ID)
	assert.Equal(t, "https://open.spotify.com/playlist/pl1", r.PlaylistURL())
}

func TestReconciler_Resolve_NotFound(t *testing.T) {
	fetcher := &fakeFetcher{
		resolveErr: &model.SourceLookupError{Kind: model.LookupNotFound, Query: "Missing"},
	}

	r := testReconciler(fetcher, newFakeRepo(), &fakeNotifier{}, false)

	_, err := r.Resolve(context.Background())
	require.Error(t, err)
	assert.True(t, model.IsNotFound(err))
}

func TestReconciler_StateReturnsToIdle(t *testing.T) {
	repo := newFakeRepo()
	fetcher := &fakeFetcher{
		ref:      &model.PlaylistRef{ID: "pl1"},
		snapshot: snapshot(track("a", "A")),
	}

	r := testReconciler(fetcher, repo, &fakeNotifier{}, false)

	assert.Equal(t, StateIdle, r.State())

	_, err := r.Check(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateIdle, r.State())
}
