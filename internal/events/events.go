// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package events defines the wire frame format and the full set of event
// names exchanged over the duplex session channel (spec §6), grounded on
// the teacher's websocket Message/MessageType shape but generalized from one
// client kind to the device/admin split this protocol needs.
package events

import goccyjson "github.com/goccy/go-json"

// Frame is the on-wire shape of every message on the duplex channel:
// {"event": "...", "payload": {...}}.
type Frame struct {
	Event   string          `json:"event"`
	Payload goccyjson.RawMessage `json:"payload,omitempty"`
}

// Device -> Server
const (
	DeviceRegister       = "device:register"
	HealthReport         = "health:report"
	DeviceStatus         = "device:status"
	ErrorReport          = "error:report"
	ScreenshotUpload     = "screenshot:upload"
	PlaybackStateUpdate  = "playback:state:update"
	ScreencastFrame      = "screencast:frame"
)

// Server -> Device
const (
	ContentUpdate    = "content:update"
	DisplayNavigate  = "display:navigate"
	DisplayRefresh   = "display:refresh"
	ScreenshotReq    = "screenshot:request"
	ConfigUpdate     = "config:update"
	DeviceRestart    = "device:restart"
	ScreencastStart  = "screencast:start"
	ScreencastStop   = "screencast:stop"
	RemoteClick      = "remote:click"
	RemoteType       = "remote:type"
	RemoteKey        = "remote:key"
	RemoteScroll     = "remote:scroll"
	PlaylistPause    = "playlist:pause"
	PlaylistResume   = "playlist:resume"
	PlaylistNext     = "playlist:next"
	PlaylistPrevious = "playlist:previous"
	BroadcastStart   = "broadcast:start"
	BroadcastEnd     = "broadcast:end"
)

// Server -> Admin
const (
	AdminDevicesSync       = "admin:devices:sync"
	AdminDeviceConnected   = "admin:device:connected"
	AdminDeviceDisconnected = "admin:device:disconnected"
	AdminDeviceStatus      = "admin:device:status"
	AdminDeviceHealth      = "admin:device:health"
	AdminScreenshotReceived = "admin:screenshot:received"
	AdminError             = "admin:error"
	AdminScreencastFrame   = "admin:screencast:frame"
	AdminPlaybackState     = "admin:playback:state"
)

// Encode marshals an event name and payload into a Frame's wire bytes.
func Encode(event string, payload any) ([]byte, error) {
	raw, err := goccyjson.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return goccyjson.Marshal(Frame{Event: event, Payload: raw})
}

// Decode parses wire bytes into a Frame.
func Decode(data []byte) (Frame, error) {
	var f Frame
	err := goccyjson.Unmarshal(data, &f)
	return f, err
}
