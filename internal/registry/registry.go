// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package registry implements the Session Registry (spec §4.2): the
// in-memory authoritative map of live device and admin sessions. It depends
// on nothing above it — callers hand it sessions and read results back
// through narrow interfaces, never the other way around (spec §9's note on
// cyclic service references).
//
// Pattern is a guarded map plus per-session outbound queues that the
// registry itself never holds a lock across: Send calls happen after the
// session reference is copied out from under the lock, so a slow client
// never blocks another caller's registry operation.
package registry

import (
	"sort"
	"sync"

	"github.com/signagefleet/kioskd/internal/events"
	"github.com/signagefleet/kioskd/internal/logging"
)

// Sender is what the registry needs from a session's transport: a
// non-blocking way to push an event, and a way to tear it down. Both
// internal/transport.Client and test doubles satisfy this.
type Sender interface {
	Send(event string, payload any) error
	Close()
}

// DeviceSession is the registry's record of one connected device.
type DeviceSession struct {
	DeviceID string
	Conn     Sender
}

// AdminSession is the registry's record of one connected admin. Multiple
// sessions per admin user are allowed; SessionSeq disambiguates them for
// deterministic iteration order.
type AdminSession struct {
	UserID    string
	SessionSeq uint64
	Conn      Sender
}

// DeliveryResult is the outcome of a SendToDevice call.
type DeliveryResult string

const (
	Delivered DeliveryResult = "delivered"
	Offline   DeliveryResult = "offline"
)

// LifecycleObserver is notified when a device joins or leaves, so the
// Assignment Propagator and other collaborators can react without the
// registry depending on them directly.
type LifecycleObserver interface {
	OnDeviceConnected(deviceID string)
	OnDeviceDisconnected(deviceID string)
}

// Registry is the Session Registry. Zero value is not usable; use New.
type Registry struct {
	mu       sync.RWMutex
	devices  map[string]*DeviceSession
	admins   map[uint64]*AdminSession
	adminSeq uint64

	observers []LifecycleObserver
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{
		devices: make(map[string]*DeviceSession),
		admins:  make(map[uint64]*AdminSession),
	}
}

// Observe registers a LifecycleObserver. Not safe to call concurrently with
// AddDevice/Remove; call during startup wiring only.
func (r *Registry) Observe(o LifecycleObserver) {
	r.observers = append(r.observers, o)
}

// AddDevice installs a session for deviceID, replacing any prior session for
// the same id (I1). The new session is visible to lookups as soon as it is
// installed; only after that is the prior session closed and admins sent a
// disconnect for it, followed by the connect for the new one.
func (r *Registry) AddDevice(deviceID string, conn Sender) {
	r.mu.Lock()
	prev, existed := r.devices[deviceID]
	r.devices[deviceID] = &DeviceSession{DeviceID: deviceID, Conn: conn}
	admins := r.snapshotAdminsLocked()
	r.mu.Unlock()

	if existed {
		prev.Conn.Close()
		r.notify(admins, events.AdminDeviceDisconnected, map[string]string{"deviceId": deviceID})
	}

	r.notify(admins, events.AdminDeviceConnected, map[string]string{"deviceId": deviceID})
	for _, o := range r.observers {
		o.OnDeviceConnected(deviceID)
	}
}

// AddAdmin appends an admin session and immediately sends it the current
// set of online device ids.
func (r *Registry) AddAdmin(userID string, conn Sender) uint64 {
	r.mu.Lock()
	r.adminSeq++
	seq := r.adminSeq
	r.admins[seq] = &AdminSession{UserID: userID, SessionSeq: seq, Conn: conn}
	deviceIDs := r.connectedDeviceIDsLocked()
	r.mu.Unlock()

	if err := conn.Send(events.AdminDevicesSync, map[string]any{"deviceIds": deviceIDs}); err != nil {
		logging.Logger().Warn().Err(err).Str("userId", userID).Msg("failed to send initial device sync to admin")
	}
	return seq
}

// RemoveDevice removes the device session for deviceID if conn is still the
// current holder, and notifies admins. Removing a session that has already
// been superseded by AddDevice is a no-op (idempotent close).
func (r *Registry) RemoveDevice(deviceID string, conn Sender) {
	r.mu.Lock()
	cur, ok := r.devices[deviceID]
	if !ok || cur.Conn != conn {
		r.mu.Unlock()
		return
	}
	delete(r.devices, deviceID)
	admins := r.snapshotAdminsLocked()
	r.mu.Unlock()

	r.notify(admins, events.AdminDeviceDisconnected, map[string]string{"deviceId": deviceID})
	for _, o := range r.observers {
		o.OnDeviceDisconnected(deviceID)
	}
}

// RemoveAdmin removes the admin session identified by seq.
func (r *Registry) RemoveAdmin(seq uint64) {
	r.mu.Lock()
	delete(r.admins, seq)
	r.mu.Unlock()
}

// SendToDevice pushes event/payload to the device's current session.
// Non-blocking: if the device is offline, returns Offline and buffers
// nothing (spec §4.2).
func (r *Registry) SendToDevice(deviceID, event string, payload any) DeliveryResult {
	r.mu.RLock()
	sess, ok := r.devices[deviceID]
	r.mu.RUnlock()
	if !ok {
		return Offline
	}
	if err := sess.Conn.Send(event, payload); err != nil {
		logging.Logger().Debug().Err(err).Str("deviceId", deviceID).Str("event", event).Msg("send to device failed, treating as offline")
		return Offline
	}
	return Delivered
}

// BroadcastToAdmins is best-effort: one admin's failure never affects
// delivery to the others.
func (r *Registry) BroadcastToAdmins(event string, payload any) {
	r.mu.RLock()
	admins := r.snapshotAdminsLocked()
	r.mu.RUnlock()
	r.notify(admins, event, payload)
}

// BroadcastToDevices sends event/payload to every currently connected
// device, in ascending deviceId order for deterministic fan-out (used by
// the Broadcast Coordinator). Best-effort; a failure on one device does not
// stop delivery to the rest.
func (r *Registry) BroadcastToDevices(event string, payload any) {
	r.mu.RLock()
	ids := r.connectedDeviceIDsLocked()
	sessions := make([]*DeviceSession, 0, len(ids))
	for _, id := range ids {
		sessions = append(sessions, r.devices[id])
	}
	r.mu.RUnlock()

	for _, sess := range sessions {
		if err := sess.Conn.Send(event, payload); err != nil {
			logging.Logger().Debug().Err(err).Str("deviceId", sess.DeviceID).Msg("broadcast send failed")
		}
	}
}

// IsConnected reports whether a device currently has a live session.
func (r *Registry) IsConnected(deviceID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.devices[deviceID]
	return ok
}

// ConnectedDeviceIds returns the currently connected device ids, sorted.
func (r *Registry) ConnectedDeviceIds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.connectedDeviceIDsLocked()
}

// ConnectedDeviceCount returns the number of currently connected devices.
func (r *Registry) ConnectedDeviceCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// AdminCount returns the number of currently connected admin sessions.
func (r *Registry) AdminCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.admins)
}

func (r *Registry) connectedDeviceIDsLocked() []string {
	ids := make([]string, 0, len(r.devices))
	for id := range r.devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) snapshotAdminsLocked() []*AdminSession {
	out := make([]*AdminSession, 0, len(r.admins))
	for _, a := range r.admins {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionSeq < out[j].SessionSeq })
	return out
}

func (r *Registry) notify(admins []*AdminSession, event string, payload any) {
	for _, a := range admins {
		if err := a.Conn.Send(event, payload); err != nil {
			logging.Logger().Debug().Err(err).Str("userId", a.UserID).Str("event", event).Msg("admin notify failed")
		}
	}
}
