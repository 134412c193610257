// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import "net/http"

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ok(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ok(w, http.StatusOK, map[string]any{
		"connectedDevices": s.registry.ConnectedDeviceCount(),
		"connectedAdmins":  s.registry.AdminCount(),
	})
}
