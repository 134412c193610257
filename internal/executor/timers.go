// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package executor

import (
	"time"

	"github.com/signagefleet/kioskd/internal/models"
)

func (e *Executor) armRotationTimerLocked(d time.Duration) {
	e.stopRotationTimerLocked()
	e.rotationTimer = time.AfterFunc(d, func() {
		e.enqueue(e.rotateLocked)
	})
}

// armStarvationTimerLocked reschedules the rotation scan StarvationRetry
// from now, per spec §4.7 step 1 / §7's "item constraint starvation".
func (e *Executor) armStarvationTimerLocked() {
	e.stopRotationTimerLocked()
	retry := e.cfg.StarvationRetry
	if retry <= 0 {
		retry = 60 * time.Second
	}
	e.starvationTimer = time.AfterFunc(retry, func() {
		e.enqueue(e.rotateLocked)
	})
}

func (e *Executor) stopRotationTimerLocked() {
	if e.rotationTimer != nil {
		e.rotationTimer.Stop()
		e.rotationTimer = nil
	}
	if e.starvationTimer != nil {
		e.starvationTimer.Stop()
		e.starvationTimer = nil
	}
}

func (e *Executor) startEmitTickerLocked() {
	e.stopEmitTickerLocked()
	interval := e.cfg.StateEmitInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	e.emitTicker = time.NewTicker(interval)
	ticker := e.emitTicker
	go func() {
		for range ticker.C {
			e.enqueue(e.emitStateLocked)
		}
	}()
}

func (e *Executor) stopEmitTickerLocked() {
	if e.emitTicker != nil {
		e.emitTicker.Stop()
		e.emitTicker = nil
	}
}

func (e *Executor) stopTimersLocked() {
	e.stopRotationTimerLocked()
	e.stopEmitTickerLocked()
}

func (e *Executor) emitStateLocked() {
	if e.sender != nil {
		e.sender.SendPlaybackState(e.buildStateLocked())
	}
	if e.running && e.screenshotEnabled {
		if _, err := e.driver.Screenshot(); err != nil && e.sender != nil {
			e.sender.SendErrorReport("periodic screenshot capture failed: " + err.Error())
		}
	}
}

func (e *Executor) buildStateLocked() models.PlaybackState {
	var remaining *int64
	if e.paused {
		ms := e.remainingDuration.Milliseconds()
		remaining = &ms
	}
	var currentURL string
	currentIndex := -1
	if e.running {
		for idx, it := range e.items {
			if it.ID == e.currentItemID {
				currentURL = it.Content.URL
				currentIndex = idx
				break
			}
		}
	}
	return models.PlaybackState{
		DeviceID:         e.deviceID,
		IsPlaying:        e.running && !e.paused,
		IsPaused:         e.paused,
		IsBroadcasting:   e.broadcasting,
		CurrentItemID:    e.currentItemID,
		CurrentItemIndex: currentIndex,
		PlaylistID:       e.playlistID,
		TotalItems:       len(e.items),
		CurrentURL:       currentURL,
		TimeRemainingMs:  remaining,
	}
}
