// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package models defines the data structures shared across the coordination
// server: devices, content, playlists, assignments, sessions, broadcasts, and
// the playback state mirrored from running kiosks.
package models

import "time"

// DeviceStatus is the last-known health state of a device.
type DeviceStatus string

const (
	DeviceStatusOnline  DeviceStatus = "online"
	DeviceStatusOffline DeviceStatus = "offline"
	DeviceStatusError   DeviceStatus = "error"
)

// Device is a registered kiosk. DeviceID is the stable, human-chosen string
// identity used on the wire and in REST paths; ID is the numeric surrogate
// used internally (persistence, resolver joins).
type Device struct {
	ID          int64        `json:"id"`
	DeviceID    string       `json:"deviceId"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Location    string       `json:"location,omitempty"`
	Status      DeviceStatus `json:"status"`
	LastSeen    time.Time    `json:"lastSeen"`
	Metadata    *DeviceMeta  `json:"metadata,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// DeviceMeta is client-reported environment detail. Nothing in the server
// fills it in yet: registration and health reports leave Device.Metadata
// nil, and the persistence layer neither stores nor loads it.
type DeviceMeta struct {
	ScreenResolution string `json:"screenResolution,omitempty"`
	OSVersion        string `json:"osVersion,omitempty"`
	ClientVersion    string `json:"clientVersion,omitempty"`
	IPAddress        string `json:"ipAddress,omitempty"`
}
