// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package executor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signagefleet/kioskd/internal/models"
)

type fakeDriver struct {
	mu          sync.Mutex
	navigated   []string
	rendered    []string
	screenshots int
}

func (f *fakeDriver) Navigate(url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navigated = append(f.navigated, url)
	return nil
}

func (f *fakeDriver) RenderMessage(escapedText string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rendered = append(f.rendered, escapedText)
	return nil
}

func (f *fakeDriver) Screenshot() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screenshots++
	return "", nil
}

func (f *fakeDriver) screenshotCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.screenshots
}

func (f *fakeDriver) navigations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.navigated))
	copy(out, f.navigated)
	return out
}

type fakeSender struct {
	mu     sync.Mutex
	states []models.PlaybackState
	errors []string
}

func (f *fakeSender) SendPlaybackState(state models.PlaybackState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, state)
}

func (f *fakeSender) SendErrorReport(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, message)
}

func (f *fakeSender) lastState() models.PlaybackState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.states[len(f.states)-1]
}

func (f *fakeSender) stateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.states)
}

// fakeCache is a minimal ContentCache: GetLocalPath consults a pre-seeded
// map (the "already fetched" fast path), WaitForCache returns waitResult
// after optionally respecting ctx cancellation/timeout.
type fakeCache struct {
	mu          sync.Mutex
	cached      map[string]string
	waitResult  string
	waitCalls   int
	blockUntil  <-chan struct{}
}

func (f *fakeCache) IsCacheable(url string) bool {
	return len(url) > 7 && url[:7] == "http://" || len(url) > 8 && url[:8] == "https://"
}

func (f *fakeCache) GetLocalPath(url string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cached[url]
}

func (f *fakeCache) WaitForCache(ctx context.Context, url string, timeout time.Duration) string {
	f.mu.Lock()
	f.waitCalls++
	f.mu.Unlock()
	if f.blockUntil != nil {
		select {
		case <-f.blockUntil:
		case <-time.After(timeout):
			return ""
		case <-ctx.Done():
			return ""
		}
	}
	return f.waitResult
}

func (f *fakeCache) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waitCalls
}

func item(id int64, orderIndex int, durationMs int64) models.PlaylistItem {
	return models.PlaylistItem{
		ID:              id,
		PlaylistID:      1,
		OrderIndex:      orderIndex,
		DisplayDuration: durationMs,
		Content:         models.Content{URL: "https://example.com/item"},
	}
}

func newTestExecutor(t *testing.T, driver *fakeDriver, sender *fakeSender) (*Executor, func()) {
	t.Helper()
	return newTestExecutorWithCache(t, driver, nil, sender, Config{
		DefaultRotationMs: 100,
		StarvationRetry:   50 * time.Millisecond,
		ScreenshotDelay:   0,
		StateEmitInterval: time.Hour,
	})
}

func newTestExecutorWithCache(t *testing.T, driver *fakeDriver, cache ContentCache, sender *fakeSender, cfg Config) (*Executor, func()) {
	t.Helper()
	e := New("kiosk-1", driver, cache, sender, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	go e.Run(ctx)
	return e, cancel
}

func TestStartDisplaysFirstItem(t *testing.T) {
	driver := &fakeDriver{}
	sender := &fakeSender{}
	e, cancel := newTestExecutor(t, driver, sender)
	defer cancel()

	e.LoadPlaylist([]models.PlaylistItem{item(1, 0, 1000), item(2, 1, 1000)}, 1)
	e.Start()

	state := e.CurrentState()
	assert.True(t, state.IsPlaying)
	assert.Equal(t, int64(1), state.CurrentItemID)
	assert.Len(t, driver.navigations(), 1)
}

func TestNextAdvancesToFollowingItem(t *testing.T) {
	driver := &fakeDriver{}
	sender := &fakeSender{}
	e, cancel := newTestExecutor(t, driver, sender)
	defer cancel()

	e.LoadPlaylist([]models.PlaylistItem{item(1, 0, 10_000), item(2, 1, 10_000)}, 1)
	e.Start()
	require.Equal(t, int64(1), e.CurrentState().CurrentItemID)

	e.Next(false)
	assert.Equal(t, int64(2), e.CurrentState().CurrentItemID)
}

func TestPreviousStepsBackToPriorItem(t *testing.T) {
	driver := &fakeDriver{}
	sender := &fakeSender{}
	e, cancel := newTestExecutor(t, driver, sender)
	defer cancel()

	e.LoadPlaylist([]models.PlaylistItem{item(1, 0, 10_000), item(2, 1, 10_000), item(3, 2, 10_000)}, 1)
	e.Start()
	e.Next(false)
	require.Equal(t, int64(2), e.CurrentState().CurrentItemID)

	e.Previous(false)
	assert.Equal(t, int64(1), e.CurrentState().CurrentItemID)
}

func TestPauseThenResumeReentersSameItem(t *testing.T) {
	driver := &fakeDriver{}
	sender := &fakeSender{}
	e, cancel := newTestExecutor(t, driver, sender)
	defer cancel()

	e.LoadPlaylist([]models.PlaylistItem{item(1, 0, 10_000)}, 1)
	e.Start()

	e.Pause()
	paused := e.CurrentState()
	assert.True(t, paused.IsPaused)
	assert.False(t, paused.IsPlaying)
	require.NotNil(t, paused.TimeRemainingMs)

	e.Resume()
	resumed := e.CurrentState()
	assert.False(t, resumed.IsPaused)
	assert.True(t, resumed.IsPlaying)
	assert.Equal(t, int64(1), resumed.CurrentItemID)
}

func TestPauseWhenNotRunningIsNoOp(t *testing.T) {
	driver := &fakeDriver{}
	sender := &fakeSender{}
	e, cancel := newTestExecutor(t, driver, sender)
	defer cancel()

	before := sender.stateCount()
	e.Pause()
	assert.Equal(t, before, sender.stateCount(), "pausing a stopped executor must not emit state")
}

func TestRotationAdvancesAutomaticallyAfterDuration(t *testing.T) {
	driver := &fakeDriver{}
	sender := &fakeSender{}
	e, cancel := newTestExecutor(t, driver, sender)
	defer cancel()

	e.LoadPlaylist([]models.PlaylistItem{item(1, 0, 20), item(2, 1, 20)}, 1)
	e.Start()
	require.Equal(t, int64(1), e.CurrentState().CurrentItemID)

	assert.Eventually(t, func() bool {
		return e.CurrentState().CurrentItemID == 2
	}, time.Second, 5*time.Millisecond)
}

func TestStartBroadcastOverlaysThenEndBroadcastRestores(t *testing.T) {
	driver := &fakeDriver{}
	sender := &fakeSender{}
	e, cancel := newTestExecutor(t, driver, sender)
	defer cancel()

	e.LoadPlaylist([]models.PlaylistItem{item(1, 0, 10_000), item(2, 1, 10_000)}, 1)
	e.Start()
	require.Equal(t, int64(1), e.CurrentState().CurrentItemID)

	e.StartBroadcast(models.BroadcastTypeMessage, "<script>evil</script>", 0)
	during := e.CurrentState()
	assert.True(t, during.IsBroadcasting)
	require.Len(t, driver.rendered, 1)
	assert.NotContains(t, driver.rendered[0], "<script>", "broadcast message text must be html-escaped")

	e.EndBroadcast()
	after := e.CurrentState()
	assert.False(t, after.IsBroadcasting)
	assert.Equal(t, int64(1), after.CurrentItemID)
}

func TestEndBroadcastWhenNotBroadcastingIsNoOp(t *testing.T) {
	driver := &fakeDriver{}
	sender := &fakeSender{}
	e, cancel := newTestExecutor(t, driver, sender)
	defer cancel()

	e.LoadPlaylist([]models.PlaylistItem{item(1, 0, 10_000)}, 1)
	e.Start()

	assert.NotPanics(t, func() { e.EndBroadcast() })
	assert.False(t, e.CurrentState().IsBroadcasting)
}

func TestStopEmitsFinalStateAndHaltsRotation(t *testing.T) {
	driver := &fakeDriver{}
	sender := &fakeSender{}
	e, cancel := newTestExecutor(t, driver, sender)
	defer cancel()

	e.LoadPlaylist([]models.PlaylistItem{item(1, 0, 20)}, 1)
	e.Start()

	e.Stop()
	final := e.CurrentState()
	assert.False(t, final.IsPlaying)
	assert.Equal(t, final, sender.lastState())
}

func TestLoadPlaylistNoOpForUnchangedPermanentSingleItem(t *testing.T) {
	driver := &fakeDriver{}
	sender := &fakeSender{}
	e, cancel := newTestExecutor(t, driver, sender)
	defer cancel()

	permanent := item(1, 0, 0)
	e.LoadPlaylist([]models.PlaylistItem{permanent}, 1)
	e.Start()
	require.Len(t, driver.navigations(), 1)

	e.LoadPlaylist([]models.PlaylistItem{permanent}, 1)
	assert.Len(t, driver.navigations(), 1, "reloading the identical permanent item must not re-navigate")
}

func TestEmitTickerCapturesScreenshotForPermanentSingleItem(t *testing.T) {
	driver := &fakeDriver{}
	sender := &fakeSender{}
	e, cancel := newTestExecutorWithCache(t, driver, nil, sender, Config{
		DefaultRotationMs: 100,
		StateEmitInterval: 10 * time.Millisecond,
	})
	defer cancel()

	e.LoadPlaylist([]models.PlaylistItem{item(1, 0, 0)}, 1) // permanent single item
	e.Start()

	assert.Eventually(t, func() bool {
		return driver.screenshotCount() > 0
	}, time.Second, 5*time.Millisecond, "a permanent display must receive periodic screenshot captures")
}

func TestEmitTickerSkipsScreenshotForMultiItemRotation(t *testing.T) {
	driver := &fakeDriver{}
	sender := &fakeSender{}
	e, cancel := newTestExecutorWithCache(t, driver, nil, sender, Config{
		DefaultRotationMs: 10_000,
		StateEmitInterval: 10 * time.Millisecond,
	})
	defer cancel()

	e.LoadPlaylist([]models.PlaylistItem{item(1, 0, 10_000), item(2, 1, 10_000)}, 1)
	e.Start()

	assert.Eventually(t, func() bool {
		return sender.stateCount() >= 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, driver.screenshotCount(), "a multi-item timed rotation relies on per-item captures, not periodic ones")
}

func TestDisplayUsesAlreadyCachedPathWithoutWaiting(t *testing.T) {
	driver := &fakeDriver{}
	sender := &fakeSender{}
	c := &fakeCache{cached: map[string]string{"https://example.com/item": "/local/item.mp4"}}
	e, cancel := newTestExecutorWithCache(t, driver, c, sender, Config{
		DefaultRotationMs: 100,
		StateEmitInterval: time.Hour,
		CacheWaitTimeout:  time.Second,
	})
	defer cancel()

	e.LoadPlaylist([]models.PlaylistItem{item(1, 0, 10_000)}, 1)
	e.Start()

	require.Len(t, driver.navigations(), 1)
	assert.Equal(t, "/local/item.mp4", driver.navigations()[0])
	assert.Equal(t, 0, c.calls(), "an already-cached path must not invoke WaitForCache")
}

func TestDisplayWaitsForCacheThenNavigatesToFetchedPath(t *testing.T) {
	driver := &fakeDriver{}
	sender := &fakeSender{}
	c := &fakeCache{cached: map[string]string{}, waitResult: "/local/fetched.mp4"}
	e, cancel := newTestExecutorWithCache(t, driver, c, sender, Config{
		DefaultRotationMs: 100,
		StateEmitInterval: time.Hour,
		CacheWaitTimeout:  time.Second,
	})
	defer cancel()

	e.LoadPlaylist([]models.PlaylistItem{item(1, 0, 10_000)}, 1)
	e.Start()

	require.Len(t, driver.navigations(), 1)
	assert.Equal(t, "/local/fetched.mp4", driver.navigations()[0])
	assert.Equal(t, 1, c.calls())
}

func TestDisplayFallsBackToRemoteURLWhenCacheWaitTimesOut(t *testing.T) {
	driver := &fakeDriver{}
	sender := &fakeSender{}
	block := make(chan struct{}) // never closed: forces the timeout branch
	c := &fakeCache{cached: map[string]string{}, waitResult: "/should-not-be-used.mp4", blockUntil: block}
	e, cancel := newTestExecutorWithCache(t, driver, c, sender, Config{
		DefaultRotationMs: 100,
		StateEmitInterval: time.Hour,
		CacheWaitTimeout:  10 * time.Millisecond,
	})
	defer cancel()

	e.LoadPlaylist([]models.PlaylistItem{item(1, 0, 10_000)}, 1)
	e.Start()

	require.Len(t, driver.navigations(), 1)
	assert.Equal(t, "https://example.com/item", driver.navigations()[0])
}

func TestLoadPlaylistFullRestartWhenCurrentItemRemoved(t *testing.T) {
	driver := &fakeDriver{}
	sender := &fakeSender{}
	e, cancel := newTestExecutor(t, driver, sender)
	defer cancel()

	e.LoadPlaylist([]models.PlaylistItem{item(1, 0, 10_000), item(2, 1, 10_000)}, 1)
	e.Start()
	require.Equal(t, int64(1), e.CurrentState().CurrentItemID)

	e.LoadPlaylist([]models.PlaylistItem{item(3, 0, 10_000)}, 2)
	assert.Equal(t, int64(3), e.CurrentState().CurrentItemID)
}
