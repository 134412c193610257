// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package propagator implements the Assignment Propagator (spec §4.5): the
// component invoked after any playlist, item, or assignment mutation that
// recomputes the affected devices' effective playlists and pushes
// content:update to whichever of them are online. It sits strictly above
// the registry and the resolver (spec §9's note on cyclic service
// references forbids the reverse).
package propagator

import (
	"context"

	"github.com/signagefleet/kioskd/internal/events"
	"github.com/signagefleet/kioskd/internal/logging"
	"github.com/signagefleet/kioskd/internal/models"
	"github.com/signagefleet/kioskd/internal/registry"
	"github.com/signagefleet/kioskd/internal/resolver"
)

// Store is the slice of the Persistence Adapter the propagator needs beyond
// resolver.Store: the affected-device lookups for each mutation kind.
type Store interface {
	resolver.Store
	DevicesAssignedToPlaylist(ctx context.Context, playlistID int64) ([]string, error)
	ItemPlaylistID(ctx context.Context, itemID int64) (int64, error)
	DeviceIDForSurrogate(ctx context.Context, surrogateID int64) (string, error)
}

// Guard runs fn through the store's circuit breaker (spec §7's persistence
// failure paragraph). *database.DB satisfies this via its Guarded method.
type Guard interface {
	Guarded(fn func() error) error
}

// Pusher is the registry capability the propagator pushes content:update
// through. *registry.Registry satisfies this.
type Pusher interface {
	SendToDevice(deviceID, event string, payload any) registry.DeliveryResult
}

// Propagator is the Assignment Propagator.
type Propagator struct {
	store  Store
	guard  Guard
	pusher Pusher
}

// New constructs a Propagator.
func New(store Store, guard Guard, pusher Pusher) *Propagator {
	return &Propagator{store: store, guard: guard, pusher: pusher}
}

// OnPlaylistMutated recomputes and pushes content:update to every device
// assigned to playlistID (spec §4.5 step 1: playlist create/update/delete).
func (p *Propagator) OnPlaylistMutated(ctx context.Context, playlistID int64) {
	var deviceIDs []string
	err := p.guard.Guarded(func() error {
		ids, err := p.store.DevicesAssignedToPlaylist(ctx, playlistID)
		deviceIDs = ids
		return err
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("playlistId", playlistID).Msg("propagator: resolve affected devices for playlist failed")
		return
	}
	p.pushAll(ctx, deviceIDs)
}

// OnItemMutated recomputes and pushes content:update to every device
// assigned to the playlist that owns itemID (spec §4.5 step 1: item
// add/update/delete).
func (p *Propagator) OnItemMutated(ctx context.Context, itemID int64) {
	var playlistID int64
	err := p.guard.Guarded(func() error {
		id, err := p.store.ItemPlaylistID(ctx, itemID)
		playlistID = id
		return err
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("itemId", itemID).Msg("propagator: resolve owning playlist for item failed")
		return
	}
	p.OnPlaylistMutated(ctx, playlistID)
}

// OnAssignmentMutated recomputes and pushes content:update to the single
// device identified by deviceSurrogateID (spec §4.5 step 1: assignment
// create/delete).
func (p *Propagator) OnAssignmentMutated(ctx context.Context, deviceSurrogateID int64) {
	var deviceID string
	err := p.guard.Guarded(func() error {
		id, err := p.store.DeviceIDForSurrogate(ctx, deviceSurrogateID)
		deviceID = id
		return err
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("deviceSurrogateId", deviceSurrogateID).Msg("propagator: resolve device for assignment failed")
		return
	}
	p.pushAll(ctx, []string{deviceID})
}

// pushAll resolves and pushes content:update to each device, skipping ones
// currently offline (spec §4.5 step 3 — the registry's non-blocking
// SendToDevice already reports Offline without buffering).
func (p *Propagator) pushAll(ctx context.Context, deviceIDs []string) {
	for _, deviceID := range deviceIDs {
		var items []models.ResolvedItem
		err := p.guard.Guarded(func() error {
			items = resolver.Resolve(p.store, deviceID)
			return nil
		})
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("deviceId", deviceID).Msg("propagator: resolve effective playlist failed")
			continue
		}

		var playlistID int64
		if len(items) > 0 {
			playlistID = items[0].PlaylistID
		}
		result := p.pusher.SendToDevice(deviceID, events.ContentUpdate, map[string]any{"playlistId": playlistID, "items": items})
		if result == registry.Offline {
			logging.Ctx(ctx).Debug().Str("deviceId", deviceID).Msg("propagator: device offline, skipping push")
		}
	}
}
