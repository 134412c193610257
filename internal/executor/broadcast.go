// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package executor

import (
	"html"
	"time"

	"github.com/signagefleet/kioskd/internal/models"
)

// StartBroadcast overlays a fleet-wide broadcast (spec §4.7): snapshots the
// current list/cursor, cancels the active timer, and navigates to the
// broadcast's url or a fixed message template. If durationMs > 0, schedules
// EndBroadcast at that offset — though the server itself never enforces
// this (spec §4.8); it is purely the device's own auto-end.
func (e *Executor) StartBroadcast(bt models.BroadcastType, urlOrMessage string, durationMs int64) {
	e.enqueue(func() {
		e.savedItems = append([]models.PlaylistItem(nil), e.items...)
		e.savedIndex = e.currentDisplayedIndexLocked()
		e.broadcasting = true
		e.stopRotationTimerLocked()

		if bt == models.BroadcastTypeURL {
			if err := e.driver.Navigate(urlOrMessage); err != nil && e.sender != nil {
				e.sender.SendErrorReport("broadcast navigation failed: " + err.Error())
			}
		} else {
			escaped := html.EscapeString(urlOrMessage)
			if err := e.driver.RenderMessage(escaped); err != nil && e.sender != nil {
				e.sender.SendErrorReport("broadcast render failed: " + err.Error())
			}
		}
		e.emitStateLocked()

		if durationMs > 0 {
			time.AfterFunc(time.Duration(durationMs)*time.Millisecond, func() {
				e.enqueue(e.endBroadcastLocked)
			})
		}
	})
}

// EndBroadcast restores the snapshotted list/cursor and, if running,
// re-enters the rotation algorithm immediately (spec §4.7, P7).
func (e *Executor) EndBroadcast() {
	e.enqueue(e.endBroadcastLocked)
}

func (e *Executor) endBroadcastLocked() {
	if !e.broadcasting {
		return
	}
	e.items = e.savedItems
	e.index = e.savedIndex
	e.broadcasting = false
	if e.running {
		e.rotateLocked()
	} else {
		e.emitStateLocked()
	}
}
