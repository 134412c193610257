// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package broadcast implements the server-side Broadcast Coordinator (spec
// §4.8): an at-most-one, in-memory fleet-wide override that fans out to
// every connected device and is cleared only by an explicit End; a Start
// while one is active is rejected. This is distinct from internal/executor's
// device-side overlay logic, which is what actually renders the override
// once a device receives broadcast:start.
package broadcast

import (
	"errors"
	"sync"
	"time"

	"github.com/signagefleet/kioskd/internal/events"
	"github.com/signagefleet/kioskd/internal/models"
)

// ErrAlreadyActive is returned by Start when a broadcast is already in
// progress (spec §4.8 / P6: at most one active broadcast at a time, 409 on
// conflict).
var ErrAlreadyActive = errors.New("broadcast: already active")

// Pusher is the registry capability the coordinator fans broadcasts out
// through.
type Pusher interface {
	BroadcastToDevices(event string, payload any)
}

// Now is overridable in tests; defaults to time.Now.
type Now func() time.Time

// Coordinator is the Broadcast Coordinator.
type Coordinator struct {
	mu     sync.Mutex
	active *models.Broadcast
	pusher Pusher
	now    Now
}

// New constructs a Coordinator with no active broadcast.
func New(pusher Pusher) *Coordinator {
	return &Coordinator{pusher: pusher, now: time.Now}
}

// Start begins a fleet-wide broadcast. Rejects with ErrAlreadyActive if one
// is already in progress (spec §4.8: the operator must End the current one
// first; the coordinator never auto-replaces).
func (c *Coordinator) Start(bt models.BroadcastType, urlOrMessage string, durationMs int64) (models.Broadcast, error) {
	c.mu.Lock()
	if c.active != nil {
		c.mu.Unlock()
		return models.Broadcast{}, ErrAlreadyActive
	}
	b := models.Broadcast{
		Type:       bt,
		DurationMs: durationMs,
		StartedAt:  c.now(),
	}
	if bt == models.BroadcastTypeURL {
		b.URL = urlOrMessage
	} else {
		b.Message = urlOrMessage
	}
	c.active = &b
	c.mu.Unlock()

	c.pusher.BroadcastToDevices(events.BroadcastStart, b)
	return b, nil
}

// End clears the active broadcast and tells every connected device to
// restore its own playlist. A no-op (not an error) if nothing is active —
// operators may call End defensively.
func (c *Coordinator) End() {
	c.mu.Lock()
	if c.active == nil {
		c.mu.Unlock()
		return
	}
	c.active = nil
	c.mu.Unlock()

	c.pusher.BroadcastToDevices(events.BroadcastEnd, struct{}{})
}

// Active returns the currently active broadcast, if any.
func (c *Coordinator) Active() (models.Broadcast, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return models.Broadcast{}, false
	}
	return *c.active, true
}
