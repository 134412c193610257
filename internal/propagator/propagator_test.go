// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package propagator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signagefleet/kioskd/internal/events"
	"github.com/signagefleet/kioskd/internal/models"
	"github.com/signagefleet/kioskd/internal/registry"
)

var errStoreFailed = errors.New("propagator test: store failed")

type fakeStore struct {
	surrogates       map[string]int64
	assignments      map[int64][]models.DevicePlaylistAssignment
	playlists        map[int64]models.Playlist
	items            map[int64][]models.PlaylistItem
	devicesByPlaylist map[int64][]string
	itemPlaylist     map[int64]int64
	deviceForSurrogate map[int64]string

	failDevicesAssignedToPlaylist bool
	failItemPlaylistID            bool
	failDeviceIDForSurrogate      bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		surrogates:         map[string]int64{},
		assignments:        map[int64][]models.DevicePlaylistAssignment{},
		playlists:          map[int64]models.Playlist{},
		items:              map[int64][]models.PlaylistItem{},
		devicesByPlaylist:  map[int64][]string{},
		itemPlaylist:       map[int64]int64{},
		deviceForSurrogate: map[int64]string{},
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

func (f *fakeStore) DevicesAssignedToPlaylist(ctx context.Context, playlistID int64) ([]string, error) {
	if f.failDevicesAssignedToPlaylist {
		return nil, errStoreFailed
	}
	return f.devicesByPlaylist[playlistID], nil
}

func (f *fakeStore) ItemPlaylistID(ctx context.Context, itemID int64) (int64, error) {
	if f.failItemPlaylistID {
		return 0, errStoreFailed
	}
	return f.itemPlaylist[itemID], nil
}

func (f *fakeStore) DeviceIDForSurrogate(ctx context.Context, surrogateID int64) (string, error) {
	if f.failDeviceIDForSurrogate {
		return "", errStoreFailed
	}
	return f.deviceForSurrogate[surrogateID], nil
}

// passthroughGuard runs fn unguarded, exactly what *database.DB's Guarded
// does when the breaker is closed.
type passthroughGuard struct{}

func (passthroughGuard) Guarded(fn func() error) error { return fn() }

type fakePusher struct {
	sent []sentPush
}

type sentPush struct {
	deviceID string
	event    string
	payload  any
}

func (f *fakePusher) SendToDevice(deviceID, event string, payload any) registry.DeliveryResult {
	f.sent = append(f.sent, sentPush{deviceID: deviceID, event: event, payload: payload})
	if deviceID == "offline-kiosk" {
		return registry.Offline
	}
	return registry.Delivered
}

func TestOnAssignmentMutatedPushesContentUpdateForResolvedPlaylist(t *testing.T) {
	store := newFakeStore()
	store.deviceForSurrogate[1] = "kiosk-1"
	store.surrogates["kiosk-1"] = 1
	store.assignments[1] = []models.DevicePlaylistAssignment{{PlaylistID: 5}}
	store.playlists[5] = models.Playlist{ID: 5, IsActive: true}
	store.items[5] = []models.PlaylistItem{{ID: 1, PlaylistID: 5, OrderIndex: 0}}

	pusher := &fakePusher{}
	p := New(store, passthroughGuard{}, pusher)

	p.OnAssignmentMutated(context.Background(), 1)

	require.Len(t, pusher.sent, 1)
	push := pusher.sent[0]
	assert.Equal(t, "kiosk-1", push.deviceID)
	assert.Equal(t, events.ContentUpdate, push.event)

	body, ok := push.payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(5), body["playlistId"])
	items, ok := body["items"].([]models.ResolvedItem)
	require.True(t, ok)
	assert.Len(t, items, 1)
}

func TestOnAssignmentMutatedSkipsOfflineDeviceWithoutError(t *testing.T) {
	store := newFakeStore()
	store.deviceForSurrogate[1] = "offline-kiosk"
	store.surrogates["offline-kiosk"] = 1
	store.assignments[1] = []models.DevicePlaylistAssignment{{PlaylistID: 5}}
	store.playlists[5] = models.Playlist{ID: 5, IsActive: true}
	store.items[5] = []models.PlaylistItem{{ID: 1, PlaylistID: 5, OrderIndex: 0}}

	pusher := &fakePusher{}
	p := New(store, passthroughGuard{}, pusher)

	assert.NotPanics(t, func() {
		p.OnAssignmentMutated(context.Background(), 1)
	})
	assert.Len(t, pusher.sent, 1)
}

func TestOnAssignmentMutatedStoreFailureIsLoggedAndSkipped(t *testing.T) {
	store := newFakeStore()
	store.failDeviceIDForSurrogate = true

	pusher := &fakePusher{}
	p := New(store, passthroughGuard{}, pusher)

	assert.NotPanics(t, func() {
		p.OnAssignmentMutated(context.Background(), 1)
	})
	assert.Empty(t, pusher.sent)
}

func TestOnPlaylistMutatedPushesToEveryAssignedDevice(t *testing.T) {
	store := newFakeStore()
	store.devicesByPlaylist[5] = []string{"kiosk-1", "kiosk-2"}
	store.surrogates["kiosk-1"] = 1
	store.surrogates["kiosk-2"] = 2
	store.assignments[1] = []models.DevicePlaylistAssignment{{PlaylistID: 5}}
	store.assignments[2] = []models.DevicePlaylistAssignment{{PlaylistID: 5}}
	store.playlists[5] = models.Playlist{ID: 5, IsActive: true}
	store.items[5] = []models.PlaylistItem{{ID: 1, PlaylistID: 5, OrderIndex: 0}}

	pusher := &fakePusher{}
	p := New(store, passthroughGuard{}, pusher)

	p.OnPlaylistMutated(context.Background(), 5)

	require.Len(t, pusher.sent, 2)
	deviceIDs := []string{pusher.sent[0].deviceID, pusher.sent[1].deviceID}
	assert.ElementsMatch(t, []string{"kiosk-1", "kiosk-2"}, deviceIDs)
}

func TestOnPlaylistMutatedStoreFailureSkipsPush(t *testing.T) {
	store := newFakeStore()
	store.failDevicesAssignedToPlaylist = true

	pusher := &fakePusher{}
	p := New(store, passthroughGuard{}, pusher)

	p.OnPlaylistMutated(context.Background(), 5)

	assert.Empty(t, pusher.sent)
}

func TestOnItemMutatedResolvesOwningPlaylistThenPushes(t *testing.T) {
	store := newFakeStore()
	store.itemPlaylist[42] = 5
	store.devicesByPlaylist[5] = []string{"kiosk-1"}
	store.surrogates["kiosk-1"] = 1
	store.assignments[1] = []models.DevicePlaylistAssignment{{PlaylistID: 5}}
	store.playlists[5] = models.Playlist{ID: 5, IsActive: true}
	store.items[5] = []models.PlaylistItem{{ID: 1, PlaylistID: 5, OrderIndex: 0}}

	pusher := &fakePusher{}
	p := New(store, passthroughGuard{}, pusher)

	p.OnItemMutated(context.Background(), 42)

	require.Len(t, pusher.sent, 1)
	assert.Equal(t, "kiosk-1", pusher.sent[0].deviceID)
}

func TestOnItemMutatedStoreFailureSkipsPush(t *testing.T) {
	store := newFakeStore()
	store.failItemPlaylistID = true

	pusher := &fakePusher{}
	p := New(store, passthroughGuard{}, pusher)

	p.OnItemMutated(context.Background(), 42)

	assert.Empty(t, pusher.sent)
}
