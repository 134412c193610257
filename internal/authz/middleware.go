// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package authz

import (
	"net/http"

	"github.com/signagefleet/kioskd/internal/logging"
)

// methodToAction maps an HTTP method to the Casbin action used by the
// policy, grounded on the teacher's internal/authz/middleware.go.
func methodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead:
		return "read"
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return "write"
	default:
		return "*"
	}
}

// Authorize returns middleware that enforces sub (typically "admin") may
// act on the request path before calling next.
func (e *Enforcer) Authorize(sub string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		allowed, err := e.Enforce(sub, r.URL.Path, methodToAction(r.Method))
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("authz enforce failed")
			http.Error(w, "authorization error", http.StatusInternalServerError)
			return
		}
		if !allowed {
			e.secLog.LogAuthzDenied(sub, r.URL.Path, r.RemoteAddr)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}
