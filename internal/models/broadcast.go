// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import "time"

// BroadcastType selects how a fleet-wide broadcast is rendered on devices.
type BroadcastType string

const (
	BroadcastTypeURL     BroadcastType = "url"
	BroadcastTypeMessage BroadcastType = "message"
)

// Broadcast is an in-memory, at-most-one fleet-wide override. DurationMs is
// the device's auto-end hint; the server never enforces it (see
// internal/broadcast).
type Broadcast struct {
	Type       BroadcastType `json:"type"`
	URL        string        `json:"url,omitempty"`
	Message    string        `json:"message,omitempty"`
	DurationMs int64         `json:"durationMs,omitempty"`
	StartedAt  time.Time     `json:"startedAt"`
}
