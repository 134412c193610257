// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/signagefleet/kioskd/internal/audit"
)

type claimDeviceRequest struct {
	DeviceID    string `json:"deviceId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

type claimDeviceResponse struct {
	DeviceID string `json:"deviceId"`
	Token    string `json:"token"`
}

// claimDevice creates or adopts a device row keyed on the operator-chosen
// deviceId and mints its long-lived device bearer token — the supplemented
// claim/unclaim flow (spec.md's Non-goals don't exclude device
// provisioning; it's implied by the REST surface's /devices endpoints and
// grounded on the teacher's claim-or-adopt device_handlers.go path).
func (s *Server) claimDevice(w http.ResponseWriter, r *http.Request) {
	var req claimDeviceRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if req.DeviceID == "" || req.Name == "" {
		fail(w, r, errBadRequest)
		return
	}

	device, err := s.db.UpsertDevice(r.Context(), req.DeviceID, req.Name, req.Description, req.Location)
	if err != nil {
		fail(w, r, err)
		return
	}

	token, err := s.auth.IssueDeviceToken(device.DeviceID, device.ID)
	if err != nil {
		fail(w, r, err)
		return
	}

	s.recordAudit(r, audit.EventTypeDeviceClaimed, audit.OutcomeSuccess, &audit.Target{ID: device.DeviceID, Type: "device"}, "claim device")
	s.secLog.LogDeviceTokenIssued(device.DeviceID, r.RemoteAddr)
	ok(w, http.StatusCreated, claimDeviceResponse{DeviceID: device.DeviceID, Token: token})
}

func (s *Server) listDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.db.ListDevices(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, devices)
}

func (s *Server) getDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceId")
	device, err := s.db.GetDeviceByDeviceID(r.Context(), deviceID)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, device)
}

func (s *Server) deleteDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceId")
	if err := s.db.DeleteDevice(r.Context(), deviceID); err != nil {
		fail(w, r, err)
		return
	}
	s.recordAudit(r, audit.EventTypeDeviceDeleted, audit.OutcomeSuccess, &audit.Target{ID: deviceID, Type: "device"}, "delete device")
	noContent(w)
}
