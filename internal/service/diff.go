// Package service содержит бизнес-логику приложения.
package service

import "hookbot/internal/model"

// Diff вычисляет симметричную разность двух наборов треков по идентичности.
// Трек считается добавленным, если его id отсутствует в старом наборе, и
// удаленным, если его id отсутствует в новом снимке. Различия метаданных при
// совпадающем id не учитываются.
//
// Порядок added повторяет порядок треков в снимке; порядок removed не определен.
func Diff(old []model.TrackRecord, snapshot *model.PlaylistSnapshot) (removed, added []model.TrackRecord) {
	oldByID := make(map[string]model.TrackRecord, len(old))
	for _, track := range old {
		oldByID[track.TrackID] = track
	}

	newByID := make(map[string]struct{}, len(snapshot.Tracks))
	for _, track := range snapshot.Tracks {
		newByID[track.TrackID] = struct{}{}

		if _, ok := oldByID[track.TrackID]; !ok {
			added = append(added, track)
		}
	}

	for id, track := range oldByID {
		if _, ok := newByID[id]; !ok {
			removed = append(removed, track)
		}
	}

	return removed, added
}
