// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/signagefleet/kioskd/internal/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// handleLogin checks username/password against the configured admin users
// and mints a bearer token on success. There is no session store: the
// token itself, once issued, is the entire credential (spec §4.1).
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}

	hash, exists := s.cfg.Security.AdminUsers[req.Username]
	if !exists || !auth.CheckPassword(hash, req.Password) {
		s.secLog.LogLoginFailure(req.Username, r.RemoteAddr, r.UserAgent(), "invalid credentials")
		fail(w, r, errUnauthorized)
		return
	}

	token, err := s.auth.IssueAdminToken(req.Username)
	if err != nil {
		fail(w, r, err)
		return
	}
	s.secLog.LogLoginSuccess(req.Username, r.RemoteAddr, r.UserAgent())
	ok(w, http.StatusOK, tokenResponse{Token: token})
}

// handleRefresh mints a fresh token for the already-authenticated caller,
// extending their session without requiring credentials again.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	sub, _ := subjectFromContext(r.Context())
	token, err := s.auth.IssueAdminToken(sub.AdminUserID)
	if err != nil {
		s.secLog.LogTokenRefresh(sub.AdminUserID, r.RemoteAddr, false, err.Error())
		fail(w, r, err)
		return
	}
	s.secLog.LogTokenRefresh(sub.AdminUserID, r.RemoteAddr, true, "")
	ok(w, http.StatusOK, tokenResponse{Token: token})
}
