// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit caps requests per remote IP, guarding the REST surface against
// a runaway admin client or misbehaving device firmware. Websocket upgrade
// requests pass through once; the per-connection heartbeat budget in
// internal/transport governs everything after the handshake.
func RateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)
}
