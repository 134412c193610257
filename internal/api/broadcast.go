// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/signagefleet/kioskd/internal/audit"
	"github.com/signagefleet/kioskd/internal/models"
)

type broadcastStartRequest struct {
	Type       models.BroadcastType `json:"type"`
	URL        string               `json:"url"`
	Message    string               `json:"message"`
	DurationMs int64                `json:"durationMs"`
}

// broadcastStart starts a fleet-wide override (spec §4.8). Rejects with 409
// if one is already active — the operator must end it first.
func (s *Server) broadcastStart(w http.ResponseWriter, r *http.Request) {
	var req broadcastStartRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if req.Type != models.BroadcastTypeURL && req.Type != models.BroadcastTypeMessage {
		fail(w, r, errBadRequest)
		return
	}
	payload := req.URL
	if req.Type == models.BroadcastTypeMessage {
		payload = req.Message
	}
	b, err := s.broadcaster.Start(req.Type, payload, req.DurationMs)
	if err != nil {
		fail(w, r, err)
		return
	}
	s.recordAudit(r, audit.EventTypeBroadcastStarted, audit.OutcomeSuccess, nil, "start broadcast")
	ok(w, http.StatusCreated, b)
}

func (s *Server) broadcastEnd(w http.ResponseWriter, r *http.Request) {
	s.broadcaster.End()
	s.recordAudit(r, audit.EventTypeBroadcastEnded, audit.OutcomeSuccess, nil, "end broadcast")
	noContent(w)
}

func (s *Server) broadcastActive(w http.ResponseWriter, r *http.Request) {
	b, active := s.broadcaster.Active()
	if !active {
		ok(w, http.StatusOK, nil)
		return
	}
	ok(w, http.StatusOK, b)
}
