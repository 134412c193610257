// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package resolver implements the Playlist Resolver (spec §4.6): a pure
// function over persisted state that computes a device's single effective
// playlist. It has no teacher analog in the example pack; written directly
// from spec.md's algorithm.
package resolver

import (
	"sort"

	"github.com/signagefleet/kioskd/internal/models"
)

// Store is the narrow slice of the Persistence Adapter the resolver needs.
// Implemented by internal/database.DB.
type Store interface {
	DeviceSurrogateID(deviceID string) (int64, bool)
	AssignmentsForDevice(deviceSurrogateID int64) []models.DevicePlaylistAssignment
	Playlist(playlistID int64) (models.Playlist, bool)
	ItemsForPlaylist(playlistID int64) []models.PlaylistItem
}

// Resolve returns deviceID's effective playlist items, sorted by
// OrderIndex ascending (I4), or nil if there is no device, no
// assignments, or no active assigned playlist. Among multiple active
// assigned playlists, the one with the lowest id wins (spec §3, §9 —
// Open Question resolved in favor of spec's own recommended tie-break).
func Resolve(store Store, deviceID string) []models.ResolvedItem {
	surrogateID, ok := store.DeviceSurrogateID(deviceID)
	if !ok {
		return nil
	}

	assignments := store.AssignmentsForDevice(surrogateID)
	if len(assignments) == 0 {
		return nil
	}

	var chosen *models.Playlist
	for _, a := range assignments {
		pl, ok := store.Playlist(a.PlaylistID)
		if !ok || !pl.IsActive {
			continue
		}
		if chosen == nil || pl.ID < chosen.ID {
			p := pl
			chosen = &p
		}
	}
	if chosen == nil {
		return nil
	}

	items := append([]models.PlaylistItem(nil), store.ItemsForPlaylist(chosen.ID)...)
	sort.Slice(items, func(i, j int) bool { return items[i].OrderIndex < items[j].OrderIndex })
	return items
}
