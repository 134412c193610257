// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/signagefleet/kioskd/internal/models"
)

type fakeStore struct {
	surrogates  map[string]int64
	assignments map[int64][]models.DevicePlaylistAssignment
	playlists   map[int64]models.Playlist
	items       map[int64][]models.PlaylistItem
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		surrogates:  map[string]int64{},
		assignments: map[int64][]models.DevicePlaylistAssignment{},
		playlists:   map[int64]models.Playlist{},
		items:       map[int64][]models.PlaylistItem{},
	}
}

func (f *fakeStore) DeviceSurrogateID(deviceID string) (int64, bool) {
	id, ok := f.surrogates[deviceID]
	return id, ok
}

func (f *fakeStore) AssignmentsForDevice(surrogateID int64) []models.DevicePlaylistAssignment {
	return f.assignments[surrogateID]
}

func (f *fakeStore) Playlist(playlistID int64) (models.Playlist, bool) {
	p, ok := f.playlists[playlistID]
	return p, ok
}

func (f *fakeStore) ItemsForPlaylist(playlistID int64) []models.PlaylistItem {
	return f.items[playlistID]
}

func TestResolveUnknownDeviceReturnsNil(t *testing.T) {
	store := newFakeStore()
	assert.Nil(t, Resolve(store, "unknown"))
}

func TestResolveNoAssignmentsReturnsNil(t *testing.T) {
	store := newFakeStore()
	store.surrogates["kiosk-1"] = 1

	assert.Nil(t, Resolve(store, "kiosk-1"))
}

func TestResolveSkipsInactivePlaylists(t *testing.T) {
	store := newFakeStore()
	store.surrogates["kiosk-1"] = 1
	store.assignments[1] = []models.DevicePlaylistAssignment{{PlaylistID: 10}}
	store.playlists[10] = models.Playlist{ID: 10, IsActive: false}

	assert.Nil(t, Resolve(store, "kiosk-1"))
}

func TestResolveLowestIDWinsAmongActiveAssignments(t *testing.T) {
	store := newFakeStore()
	store.surrogates["kiosk-1"] = 1
	store.assignments[1] = []models.DevicePlaylistAssignment{{PlaylistID: 20}, {PlaylistID: 5}}
	store.playlists[20] = models.Playlist{ID: 20, IsActive: true}
	store.playlists[5] = models.Playlist{ID: 5, IsActive: true}
	store.items[5] = []models.PlaylistItem{{ID: 1, PlaylistID: 5, OrderIndex: 0}}

	items := Resolve(store, "kiosk-1")
	require := assert.New(t)
	require.Len(items, 1)
	require.Equal(int64(5), items[0].PlaylistID)
}

func TestResolveOrdersItemsByOrderIndex(t *testing.T) {
	store := newFakeStore()
	store.surrogates["kiosk-1"] = 1
	store.assignments[1] = []models.DevicePlaylistAssignment{{PlaylistID: 1}}
	store.playlists[1] = models.Playlist{ID: 1, IsActive: true}
	store.items[1] = []models.PlaylistItem{
		{ID: 3, PlaylistID: 1, OrderIndex: 2},
		{ID: 1, PlaylistID: 1, OrderIndex: 0},
		{ID: 2, PlaylistID: 1, OrderIndex: 1},
	}

	items := Resolve(store, "kiosk-1")
	assert.Equal(t, []int64{1, 2, 3}, []int64{items[0].ID, items[1].ID, items[2].ID})
}
