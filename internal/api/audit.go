// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/signagefleet/kioskd/internal/audit"
)

// recordAudit saves an audit event attributed to the authenticated admin on
// the request, if any. Best-effort: a logging failure never fails the
// request it describes.
func (s *Server) recordAudit(r *http.Request, eventType audit.EventType, outcome audit.Outcome, target *audit.Target, action string) {
	if s.audit == nil {
		return
	}
	sub, _ := subjectFromContext(r.Context())
	actorID := sub.AdminUserID
	if actorID == "" {
		actorID = "unknown"
	}
	_ = s.audit.Save(r.Context(), audit.Event{
		Type:     eventType,
		Severity: audit.SeverityInfo,
		Outcome:  outcome,
		Actor:    audit.Actor{ID: actorID, Type: "admin"},
		Target:   target,
		Action:   action,
	})
}
