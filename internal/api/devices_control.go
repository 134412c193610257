// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/signagefleet/kioskd/internal/audit"
	"github.com/signagefleet/kioskd/internal/events"
	"github.com/signagefleet/kioskd/internal/registry"
)

// send pushes event/payload to the device named by the deviceId path
// param, responding 204 on delivery and 409 device_offline if the device
// has no live connection (spec §4.9).
func (s *Server) send(w http.ResponseWriter, r *http.Request, event string, payload any) {
	deviceID := chi.URLParam(r, "deviceId")
	result := s.registry.SendToDevice(deviceID, event, payload)
	if result == registry.Offline {
		fail(w, r, errDeviceOffline)
		return
	}
	noContent(w)
}

func (s *Server) deviceNavigate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(r, &body); err != nil {
		fail(w, r, err)
		return
	}
	s.recordAudit(r, audit.EventTypeDeviceNavigate, audit.OutcomeSuccess, &audit.Target{ID: chi.URLParam(r, "deviceId"), Type: "device"}, "navigate device")
	s.send(w, r, events.DisplayNavigate, body)
}

func (s *Server) deviceRefresh(w http.ResponseWriter, r *http.Request) {
	s.send(w, r, events.DisplayRefresh, struct{}{})
}

func (s *Server) deviceScreenshotRequest(w http.ResponseWriter, r *http.Request) {
	s.send(w, r, events.ScreenshotReq, struct{}{})
}

func (s *Server) deviceRestart(w http.ResponseWriter, r *http.Request) {
	s.recordAudit(r, audit.EventTypeDeviceRestart, audit.OutcomeSuccess, &audit.Target{ID: chi.URLParam(r, "deviceId"), Type: "device"}, "restart device")
	s.send(w, r, events.DeviceRestart, struct{}{})
}

// deviceRemote returns a handler forwarding the request body verbatim as
// the payload of a remote-control event (remote:click/type/key/scroll).
func (s *Server) deviceRemote(event string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := decodeJSON(r, &body); err != nil {
			fail(w, r, err)
			return
		}
		s.send(w, r, event, body)
	}
}

// devicePlaylistControl returns a handler for the parameterless playlist
// transport controls (pause/resume/next/previous).
func (s *Server) devicePlaylistControl(event string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.send(w, r, event, struct{}{})
	}
}

// deviceScreencast returns a handler for screencast:start/stop.
func (s *Server) deviceScreencast(event string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.send(w, r, event, struct{}{})
	}
}
