// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSendFailed = errors.New("registry test: send failed")

// fakeSender is a registry.Sender test double that records every event
// sent to it and can simulate a dead connection.
type fakeSender struct {
	mu     sync.Mutex
	events []string
	closed bool
	failOn string
}

func (f *fakeSender) Send(event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || event == f.failOn {
		return errSendFailed
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeSender) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSender) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	copy(out, f.events)
	return out
}

func TestAddDeviceEvictsPriorSession(t *testing.T) {
	r := New()
	admin := &fakeSender{}
	r.AddAdmin("alice", admin)

	first := &fakeSender{}
	second := &fakeSender{}

	r.AddDevice("kiosk-1", first)
	r.AddDevice("kiosk-1", second)

	assert.True(t, first.closed, "prior session should be closed on eviction")
	assert.True(t, r.IsConnected("kiosk-1"))

	events := admin.received()
	require.Contains(t, events, "admin:device:connected")
}

func TestSendToDeviceOfflineWhenUnknown(t *testing.T) {
	r := New()
	result := r.SendToDevice("ghost", "content:update", map[string]any{})
	assert.Equal(t, Offline, result)
}

func TestSendToDeviceDeliversToConnectedSession(t *testing.T) {
	r := New()
	dev := &fakeSender{}
	r.AddDevice("kiosk-1", dev)

	result := r.SendToDevice("kiosk-1", "content:update", map[string]any{"items": []int{}})

	assert.Equal(t, Delivered, result)
	assert.Contains(t, dev.received(), "content:update")
}

func TestSendToDeviceTreatsWriteFailureAsOffline(t *testing.T) {
	r := New()
	dev := &fakeSender{failOn: "content:update"}
	r.AddDevice("kiosk-1", dev)

	result := r.SendToDevice("kiosk-1", "content:update", nil)

	assert.Equal(t, Offline, result)
}

func TestRemoveDeviceIsNoOpForSupersededSession(t *testing.T) {
	r := New()
	stale := &fakeSender{}
	current := &fakeSender{}

	r.AddDevice("kiosk-1", stale)
	r.AddDevice("kiosk-1", current)

	r.RemoveDevice("kiosk-1", stale)
	assert.True(t, r.IsConnected("kiosk-1"), "removing a superseded session must not evict the current one")

	r.RemoveDevice("kiosk-1", current)
	assert.False(t, r.IsConnected("kiosk-1"))
}

func TestBroadcastToDevicesFansOutToEveryConnectedDevice(t *testing.T) {
	r := New()
	a := &fakeSender{}
	b := &fakeSender{}
	r.AddDevice("kiosk-a", a)
	r.AddDevice("kiosk-b", b)

	r.BroadcastToDevices("broadcast:start", map[string]any{"type": "message"})

	assert.Contains(t, a.received(), "broadcast:start")
	assert.Contains(t, b.received(), "broadcast:start")
}

func TestAddAdminSendsInitialDeviceSync(t *testing.T) {
	r := New()
	r.AddDevice("kiosk-1", &fakeSender{})

	admin := &fakeSender{}
	r.AddAdmin("alice", admin)

	assert.Contains(t, admin.received(), "admin:devices:sync")
}

func TestConnectedDeviceCountAndAdminCount(t *testing.T) {
	r := New()
	r.AddDevice("kiosk-1", &fakeSender{})
	r.AddDevice("kiosk-2", &fakeSender{})
	r.AddAdmin("alice", &fakeSender{})

	assert.Equal(t, 2, r.ConnectedDeviceCount())
	assert.Equal(t, 1, r.AdminCount())
}
