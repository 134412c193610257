// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import "time"

// Playlist is a named, ordered collection of items. A device may have many
// playlists assigned but at most one is effective: the active one with the
// lowest ID (see internal/resolver).
type Playlist struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// PlaylistItem belongs to exactly one playlist and references exactly one
// Content. DisplayDuration is in milliseconds; 0 means "permanent" (see
// internal/executor's rotation algorithm for the exact semantics of that).
type PlaylistItem struct {
	ID              int64   `json:"id"`
	PlaylistID      int64   `json:"playlistId"`
	ContentID       int64   `json:"contentId"`
	OrderIndex      int     `json:"orderIndex"`
	DisplayDuration int64   `json:"displayDuration"`
	TimeWindowStart string  `json:"timeWindowStart,omitempty"` // "HH:MM", zero-padded
	TimeWindowEnd   string  `json:"timeWindowEnd,omitempty"`
	DaysOfWeek      []int   `json:"daysOfWeek,omitempty"` // subset of 0..6, 0=Sunday
	Content         Content `json:"content"`
}

// DevicePlaylistAssignment makes a playlist eligible for a device's
// resolver. It has no bearing on rotation itself.
type DevicePlaylistAssignment struct {
	ID         int64     `json:"id"`
	DeviceID   int64     `json:"deviceId"`
	PlaylistID int64     `json:"playlistId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ResolvedItem is a PlaylistItem joined with the playlist it came from, as
// returned by the resolver and carried on a content:update push.
type ResolvedItem = PlaylistItem
