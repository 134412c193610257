// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

// PlaybackState is a compact snapshot of what a device is currently
// showing. It is device-owned and mirrored to admins on every
// state-changing operation plus once every 5 seconds regardless of change.
type PlaybackState struct {
	DeviceID         string `json:"deviceId"`
	IsPlaying        bool   `json:"isPlaying"`
	IsPaused         bool   `json:"isPaused"`
	IsBroadcasting   bool   `json:"isBroadcasting"`
	CurrentItemID    int64  `json:"currentItemId,omitempty"`
	CurrentItemIndex int    `json:"currentItemIndex"`
	PlaylistID       int64  `json:"playlistId,omitempty"`
	TotalItems       int    `json:"totalItems"`
	CurrentURL       string `json:"currentUrl,omitempty"`
	// TimeRemainingMs holds the time left on the current item while playback
	// is paused; otherwise it is null. The field is always present in JSON.
	TimeRemainingMs *int64 `json:"timeRemainingMs"`
}
