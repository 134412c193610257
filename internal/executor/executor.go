// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package executor implements the device-side Playlist Executor (spec
// §4.7), the rotation engine that loads an item list, advances through it
// respecting per-item duration and time/day constraints, supports
// pause/resume/next/previous, overlays broadcasts, and emits periodic
// playback-state reports.
//
// It is single-threaded cooperative (spec §5): one logical worker drives
// timers, display commands, and outbound messaging. Grounded on the
// other_examples Sonos-hub scene-executor's single-goroutine command-queue
// shape and on the teacher's hub.go Run-loop pattern — every public method
// enqueues a closure onto a command channel that Run's single goroutine
// drains serially, so no lock is ever held across a display-driver call.
package executor

import (
	"context"
	"html"
	"sort"
	"time"

	"github.com/signagefleet/kioskd/internal/displaydriver"
	"github.com/signagefleet/kioskd/internal/models"
)

// ContentCache is the narrow device-local cache capability the executor
// consults before navigating (spec §9's Design Notes).
type ContentCache interface {
	IsCacheable(url string) bool
	GetLocalPath(url string) string
	WaitForCache(ctx context.Context, url string, timeout time.Duration) string
}

// EventSender is how the executor reports playback state and display
// errors back to the server.
type EventSender interface {
	SendPlaybackState(state models.PlaybackState)
	SendErrorReport(message string)
}

// Config holds the executor's tunable timing constants.
type Config struct {
	DefaultRotationMs int64
	StarvationRetry   time.Duration
	ScreenshotDelay   time.Duration
	StateEmitInterval time.Duration
	CacheWaitTimeout  time.Duration
}

// Executor is the device-side Playlist Executor.
type Executor struct {
	deviceID string
	driver   displaydriver.Driver
	cache    ContentCache
	sender   EventSender
	cfg      Config
	now      func() time.Time
	ctx      context.Context

	cmds chan func()
	done chan struct{}

	// State variables per spec §4.7.
	items        []models.PlaylistItem
	index        int // next to display
	running      bool
	paused       bool
	broadcasting bool

	currentItemID         int64
	currentItemStartTime  time.Time
	remainingDuration     time.Duration
	playlistID            int64

	savedItems []models.PlaylistItem
	savedIndex int

	rotationTimer   *time.Timer
	starvationTimer *time.Timer
	emitTicker      *time.Ticker

	screenshotEnabled bool
}

// New constructs an Executor. Call Run in its own goroutine before issuing
// any commands.
func New(deviceID string, driver displaydriver.Driver, cache ContentCache, sender EventSender, cfg Config) *Executor {
	return &Executor{
		deviceID: deviceID,
		driver:   driver,
		cache:    cache,
		sender:   sender,
		cfg:      cfg,
		now:      time.Now,
		ctx:      context.Background(),
		cmds:     make(chan func(), 64),
		done:     make(chan struct{}),
	}
}

// Run drains commands until ctx is cancelled. It is the executor's single
// logical worker; every state mutation happens here.
func (e *Executor) Run(ctx context.Context) {
	defer close(e.done)
	e.ctx = ctx
	for {
		select {
		case <-ctx.Done():
			e.stopTimersLocked()
			return
		case fn := <-e.cmds:
			fn()
		}
	}
}

// enqueue posts fn to the command loop and blocks until it has run, so
// callers observe a consistent state after the call returns.
func (e *Executor) enqueue(fn func()) {
	done := make(chan struct{})
	e.cmds <- func() {
		fn()
		close(done)
	}
	<-done
}

// LoadPlaylist installs a new item list per the restart policy (spec
// §4.7): (a) no-op if unchanged single-permanent-item; (b) silent adopt if
// the currently displayed item survives and the new list isn't a
// permanent single item; (c) full restart otherwise.
func (e *Executor) LoadPlaylist(items []models.PlaylistItem, playlistID int64) {
	e.enqueue(func() {
		newItems := append([]models.PlaylistItem(nil), items...)
		sort.Slice(newItems, func(i, j int) bool { return newItems[i].OrderIndex < newItems[j].OrderIndex })

		prevPermanent := len(e.items) == 1 && e.items[0].DisplayDuration == 0
		newPermanent := len(newItems) == 1 && newItems[0].DisplayDuration == 0

		if prevPermanent && newPermanent && e.items[0].ID == newItems[0].ID {
			return // (a)
		}

		stillExistsIdx := -1
		if e.running {
			for idx, it := range newItems {
				if it.ID == e.currentItemID {
					stillExistsIdx = idx
					break
				}
			}
		}

		if stillExistsIdx >= 0 && !newPermanent {
			// (b) keep displaying, adopt silently.
			e.items = newItems
			e.playlistID = playlistID
			e.index = (stillExistsIdx + 1) % len(newItems)
			e.updateScreenshotPolicyLocked()
			return
		}

		// (c) full restart.
		e.items = newItems
		e.playlistID = playlistID
		e.index = 0
		e.currentItemID = 0
		if e.running {
			e.stopRotationTimerLocked()
			e.rotateLocked()
		}
	})
}

// Start begins execution. Requires a non-empty item list.
func (e *Executor) Start() {
	e.enqueue(func() {
		if len(e.items) == 0 {
			return
		}
		e.running = true
		e.paused = false
		e.index = 0
		e.startEmitTickerLocked()
		e.rotateLocked()
	})
}

// Stop halts execution, cancels all timers, and emits one final state.
func (e *Executor) Stop() {
	e.enqueue(func() {
		e.stopTimersLocked()
		e.running = false
		e.paused = false
		e.emitStateLocked()
	})
}

// Pause is legal only when running and not already paused.
func (e *Executor) Pause() {
	e.enqueue(func() {
		if !e.running || e.paused {
			return
		}
		elapsed := e.now().Sub(e.currentItemStartTime)
		remaining := e.currentItemDurationLocked() - elapsed
		if remaining < 0 {
			remaining = 0
		}
		e.remainingDuration = remaining
		e.stopRotationTimerLocked()
		e.paused = true
		e.emitStateLocked()
	})
}

// Resume is legal only when running and paused.
func (e *Executor) Resume() {
	e.enqueue(func() {
		if !e.running || !e.paused {
			return
		}
		e.paused = false
		if e.remainingDuration > 0 {
			e.currentItemStartTime = e.now()
			e.armRotationTimerLocked(e.remainingDuration)
			e.emitStateLocked()
			return
		}
		e.rotateLocked()
	})
}

// Next advances to the next item, optionally skipping constraint-invalid
// ones.
func (e *Executor) Next(respectConstraints bool) {
	e.enqueue(func() {
		e.stopRotationTimerLocked()
		e.paused = false
		if respectConstraints {
			e.rotateLocked()
			return
		}
		n := len(e.items)
		if n == 0 {
			return
		}
		e.showItemLocked(e.index % n)
	})
}

// Previous searches backward for the first valid item.
func (e *Executor) Previous(respectConstraints bool) {
	e.enqueue(func() {
		e.stopRotationTimerLocked()
		e.paused = false
		n := len(e.items)
		if n == 0 {
			return
		}
		// e.index is "next to display"; the currently-shown item is one
		// behind it, so start the backward search two behind.
		start := (e.index - 2 + 2*n) % n
		for step := 0; step < n; step++ {
			idx := (start - step + n) % n
			if !respectConstraints || e.isValidNowLocked(e.items[idx]) {
				e.showItemLocked(idx)
				return
			}
		}
	})
}

// CurrentState returns a snapshot of the current playback state, used for
// the periodic emission and on every state-changing operation.
func (e *Executor) CurrentState() models.PlaybackState {
	ch := make(chan models.PlaybackState, 1)
	e.enqueue(func() { ch <- e.buildStateLocked() })
	return <-ch
}
