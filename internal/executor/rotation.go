// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package executor

import (
	"time"

	"github.com/signagefleet/kioskd/internal/models"
)

// rotateLocked implements the rotation algorithm of spec §4.7: scan
// forward from the current cursor for the first constraint-valid item; if
// none is valid, reschedule the scan in StarvationRetry without blanking
// the display (spec §4.7 step 1, §7's "item constraint starvation").
func (e *Executor) rotateLocked() {
	n := len(e.items)
	if n == 0 {
		return
	}
	for k := 0; k < n; k++ {
		idx := (e.index + k) % n
		if e.isValidNowLocked(e.items[idx]) {
			e.showItemLocked(idx)
			return
		}
	}
	e.armStarvationTimerLocked()
}

// showItemLocked displays items[idx], advances the cursor past it (step 2),
// emits state, and arms whatever timer the rotation algorithm's step 4
// dictates.
func (e *Executor) showItemLocked(idx int) {
	n := len(e.items)
	item := e.items[idx]
	e.index = (idx + 1) % n

	e.displayLocked(item)
	e.currentItemID = item.ID
	e.currentItemStartTime = e.now()
	e.remainingDuration = 0
	e.updateScreenshotPolicyLocked()
	e.emitStateLocked()

	d := item.DisplayDuration
	switch {
	case d == 0 && n > 1:
		d = e.cfg.DefaultRotationMs
	case d == 0 && n == 1:
		// Permanent display: no rotation trigger from this item (spec §4.7
		// step 4). Timer stays nil.
		return
	case n == 1 && d > 0:
		// Single-item loop: the index math above already put the cursor
		// back at idx (mod 1), so the same item reshows after d with no
		// extra bookkeeping.
	}
	e.armRotationTimerLocked(time.Duration(d) * time.Millisecond)
}

// isValidNowLocked implements the per-item constraint check of spec §4.7:
// daysOfWeek (empty/absent = no restriction, per DESIGN.md's Open Question
// decision) and an inclusive "HH:MM" time window compared as zero-padded
// strings.
func (e *Executor) isValidNowLocked(item models.PlaylistItem) bool {
	now := e.now()
	if len(item.DaysOfWeek) > 0 {
		today := int(now.Weekday())
		found := false
		for _, d := range item.DaysOfWeek {
			if d == today {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if item.TimeWindowStart != "" && item.TimeWindowEnd != "" {
		cur := now.Format("15:04")
		if cur < item.TimeWindowStart || cur > item.TimeWindowEnd {
			return false
		}
	}
	return true
}

// displayLocked resolves the item's content to a local cached path if
// ready, commands the driver to navigate, and schedules a single
// screenshot capture (spec §4.7's display action). Failures are logged,
// never fatal to rotation.
//
// The cache wait is one of the device's named suspension points (spec
// §5): if the content isn't already cached, this blocks the command loop
// up to CacheWaitTimeout before falling back to the remote URL.
func (e *Executor) displayLocked(item models.PlaylistItem) {
	url := item.Content.URL
	if e.cache != nil && e.cache.IsCacheable(url) {
		if local := e.cache.GetLocalPath(url); local != "" {
			url = local
		} else if local := e.cache.WaitForCache(e.ctx, url, e.cfg.CacheWaitTimeout); local != "" {
			url = local
		}
	}
	if err := e.driver.Navigate(url); err != nil && e.sender != nil {
		e.sender.SendErrorReport("display navigation failed: " + err.Error())
	}
	e.scheduleScreenshotLocked()
}

// scheduleScreenshotLocked fires a single screenshot capture
// ScreenshotDelay after the current display action (spec §4.7).
func (e *Executor) scheduleScreenshotLocked() {
	if e.cfg.ScreenshotDelay <= 0 {
		return
	}
	time.AfterFunc(e.cfg.ScreenshotDelay, func() {
		e.enqueue(func() {
			if _, err := e.driver.Screenshot(); err != nil && e.sender != nil {
				e.sender.SendErrorReport("screenshot capture failed: " + err.Error())
			}
		})
	})
}

// updateScreenshotPolicyLocked implements spec §4.7's screenshot policy:
// enable periodic capture for a single-item or any permanent-duration
// item; rotations already trigger per-item captures otherwise. Periodic
// capture itself piggybacks on the emission ticker (timers.go's
// emitStateLocked checks screenshotEnabled on every tick).
func (e *Executor) updateScreenshotPolicyLocked() {
	n := len(e.items)
	permanent := false
	for _, it := range e.items {
		if it.DisplayDuration == 0 {
			permanent = true
			break
		}
	}
	e.screenshotEnabled = n == 1 || permanent
}

// currentDisplayedIndexLocked returns the position of the item currently on
// screen. e.index always points one past it ("next to display"), so this
// is only meaningful while running.
func (e *Executor) currentDisplayedIndexLocked() int {
	n := len(e.items)
	if n == 0 {
		return 0
	}
	return (e.index - 1 + n) % n
}

// currentItemDurationLocked returns the configured duration of the item
// currently on screen, used by Pause to compute remaining time.
func (e *Executor) currentItemDurationLocked() time.Duration {
	for _, it := range e.items {
		if it.ID == e.currentItemID {
			d := it.DisplayDuration
			if d == 0 {
				if len(e.items) > 1 {
					d = e.cfg.DefaultRotationMs
				} else {
					return 0
				}
			}
			return time.Duration(d) * time.Millisecond
		}
	}
	return 0
}
