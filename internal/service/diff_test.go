package service

import (
	"testing"

	"hookbot/internal/model"

	"github.com/stretchr/testify/assert"
)

func track(id, title string) model.TrackRecord {
	return model.TrackRecord{TrackID: id, Title: title}
}

func snapshot(tracks ...model.TrackRecord) *model.PlaylistSnapshot {
	return &model.PlaylistSnapshot{
		PlaylistID: "pl1",
		SnapshotID: "snap1",
		Tracks:     tracks,
	}
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name        string
		old         []model.TrackRecord
		new         *model.PlaylistSnapshot
		wantAdded   []string
		wantRemoved []string
	}{
		{
			name:        "no changes",
			old:         []model.TrackRecord{track("a", "A"), track("b", "B")},
			new:         snapshot(track("a", "A"), track("b", "B")),
			wantAdded:   nil,
			wantRemoved: nil,
		},
		{
			name:        "track added",
			old:         []model.TrackRecord{track("a", "A")},
			new:         snapshot(track("a", "A"), track("b", "B")),
			wantAdded:   []string{"b"},
			wantRemoved: nil,
		},
		{
			name:        "track removed",
			old:         []model.TrackRecord{track("a", "A"), track("b", "B")},
			new:         snapshot(track("a", "A")),
			wantAdded:   nil,
			wantRemoved: []string{"b"},
		},
		{
			name:        "replacement",
			old:         []model.TrackRecord{track("a", "A"), track("b", "B")},
			new:         snapshot(track("b", "B"), track("c", "C")),
			wantAdded:   []string{"c"},
			wantRemoved: []string{"a"},
		},
		{
			name:        "empty state yields all tracks as added",
			old:         nil,
			new:         snapshot(track("a", "A"), track("b", "B")),
			wantAdded:   []string{"a", "b"},
			wantRemoved: nil,
		},
		{
			name:        "empty snapshot yields all tracks as removed",
			old:         []model.TrackRecord{track("a", "A")},
			new:         snapshot(),
			wantAdded:   nil,
			wantRemoved: []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			removed, added := Diff(tt.old, tt.new)

			var addedIDs, removedIDs []string
			for _, tr := range added {
				addedIDs = append(addedIDs, tr.TrackID)
			}
			for _, tr := range removed {
				removedIDs = append(removedIDs, tr.TrackID)
			}

			assert.Equal(t, tt.wantAdded, addedIDs)
			assert.ElementsMatch(t, tt.wantRemoved, removedIDs)
		})
	}
}

func TestDiff_Symmetry(t *testing.T) {
	// Прямая и обратная разность меняют местами removed и added
	setA := []model.TrackRecord{track("a", "A"), track("b", "B")}
	setB := []model.TrackRecord{track("b", "B"), track("c", "C")}

	removedAB, addedAB := Diff(setA, snapshot(setB...))
	removedBA, addedBA := Diff(setB, snapshot(setA...))

	assert.ElementsMatch(t, removedAB, addedBA)
	assert.ElementsMatch(t, addedAB, removedBA)
}

func TestDiff_IdentityOnly(t *testing.T) {
	// Изменение метаданных при совпадающем id не считается изменением
	old := []model.TrackRecord{{TrackID: "a", Title: "Old Title", AlbumName: "Old Album"}}
	new := snapshot(model.TrackRecord{TrackID: "a", Title: "New Title", AlbumName: "New Album"})

	removed, added := Diff(old, new)

	assert.Empty(t, added)
	assert.Empty(t, removed)
}

func TestDiff_AddedPreservesSnapshotOrder(t *testing.T) {
	new := snapshot(track("c", "C"), track("a", "A"), track("b", "B"))

	_, added := Diff(nil, new)

	var ids []string
	for _, tr := range added {
		ids = append(ids, tr.TrackID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}
