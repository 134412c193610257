// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) latestScreenshot(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceId")
	shot, err := s.db.LatestScreenshot(r.Context(), deviceID)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, shot)
}
