// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signagefleet/kioskd/internal/events"
	"github.com/signagefleet/kioskd/internal/models"
)

type fakePusher struct {
	sent []sentBroadcast
}

type sentBroadcast struct {
	event   string
	payload any
}

func (f *fakePusher) BroadcastToDevices(event string, payload any) {
	f.sent = append(f.sent, sentBroadcast{event: event, payload: payload})
}

func fixedNow() time.Time {
	return time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
}

func newTestCoordinator(pusher Pusher) *Coordinator {
	c := New(pusher)
	c.now = fixedNow
	return c
}

func TestStartFansOutBroadcastStartToDevices(t *testing.T) {
	pusher := &fakePusher{}
	c := newTestCoordinator(pusher)

	b, err := c.Start(models.BroadcastTypeMessage, "evacuate the building", 5000)
	require.NoError(t, err)
	assert.Equal(t, models.BroadcastTypeMessage, b.Type)
	assert.Equal(t, "evacuate the building", b.Message)
	assert.Empty(t, b.URL)

	require.Len(t, pusher.sent, 1)
	assert.Equal(t, events.BroadcastStart, pusher.sent[0].event)
}

func TestStartWithURLTypeSetsURLNotMessage(t *testing.T) {
	pusher := &fakePusher{}
	c := newTestCoordinator(pusher)

	b, err := c.Start(models.BroadcastTypeURL, "https://example.com/alert", 0)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/alert", b.URL)
	assert.Empty(t, b.Message)
}

func TestStartRejectsWhenAlreadyActive(t *testing.T) {
	pusher := &fakePusher{}
	c := newTestCoordinator(pusher)

	_, err := c.Start(models.BroadcastTypeMessage, "first", 0)
	require.NoError(t, err)

	_, err = c.Start(models.BroadcastTypeMessage, "second", 0)
	assert.ErrorIs(t, err, ErrAlreadyActive)
	assert.Len(t, pusher.sent, 1, "rejected Start must not fan out a second broadcast:start")
}

func TestEndIsNoOpWhenNothingActive(t *testing.T) {
	pusher := &fakePusher{}
	c := newTestCoordinator(pusher)

	c.End()
	assert.Empty(t, pusher.sent)

	_, active := c.Active()
	assert.False(t, active)
}

func TestEndClearsActiveAndFansOutBroadcastEnd(t *testing.T) {
	pusher := &fakePusher{}
	c := newTestCoordinator(pusher)

	_, err := c.Start(models.BroadcastTypeMessage, "hello", 0)
	require.NoError(t, err)

	c.End()
	require.Len(t, pusher.sent, 2)
	assert.Equal(t, events.BroadcastEnd, pusher.sent[1].event)

	_, active := c.Active()
	assert.False(t, active)
}

func TestStartAfterEndSucceeds(t *testing.T) {
	pusher := &fakePusher{}
	c := newTestCoordinator(pusher)

	_, err := c.Start(models.BroadcastTypeMessage, "first", 0)
	require.NoError(t, err)
	c.End()

	_, err = c.Start(models.BroadcastTypeMessage, "second", 0)
	assert.NoError(t, err)
}

func TestActiveReturnsCurrentBroadcast(t *testing.T) {
	pusher := &fakePusher{}
	c := newTestCoordinator(pusher)

	_, active := c.Active()
	assert.False(t, active)

	started, err := c.Start(models.BroadcastTypeMessage, "hello", 1000)
	require.NoError(t, err)

	got, active := c.Active()
	require.True(t, active)
	assert.Equal(t, started, got)
	assert.Equal(t, fixedNow(), got.StartedAt)
}
