// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the REST control surface (spec §6): device,
// content, playlist, assignment, broadcast, and auth endpoints, plus the
// websocket upgrade endpoints that hand a connection off to
// internal/transport and internal/registry. Grounded on the teacher's
// internal/api response-envelope and error-mapping conventions.
package api

import (
	"errors"
	"net/http"

	goccyjson "github.com/goccy/go-json"

	"github.com/signagefleet/kioskd/internal/broadcast"
	"github.com/signagefleet/kioskd/internal/database"
	"github.com/signagefleet/kioskd/internal/logging"
)

// Envelope is the uniform response shape for every REST endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := goccyjson.NewEncoder(w).Encode(v); err != nil {
		logging.Logger().Error().Err(err).Msg("failed to encode response body")
	}
}

func ok(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Success: true, Data: data})
}

func noContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// fail maps a handler error to the taxonomy in spec §7: persistence
// failures surface as 500, not-found as 404, and domain-specific sentinel
// errors (duplicate assignment, broadcast conflict, device offline) as 409.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, database.ErrDuplicateAssignment):
		status = http.StatusConflict
	case errors.Is(err, broadcast.ErrAlreadyActive):
		status = http.StatusConflict
	case errors.Is(err, errDeviceOffline):
		status = http.StatusConflict
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, errUnauthorized):
		status = http.StatusUnauthorized
	}
	if status == http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, Envelope{Success: false, Error: err.Error()})
}

func decodeJSON(r *http.Request, v any) error {
	if err := goccyjson.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadRequest
	}
	return nil
}
