// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package middleware holds the chi HTTP middleware stack: request
// correlation ids, structured access logging, compression, rate limiting,
// CORS, and Prometheus request instrumentation. Adapted from the teacher's
// internal/middleware package, narrowed to what a fleet-control API needs.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/signagefleet/kioskd/internal/logging"
)

// RequestID assigns a request id to every request (from the X-Request-ID
// header if the caller supplied one, else a fresh uuid), stores it together
// with a freshly generated correlation id in the request context, and echoes
// the request id back in the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		ctx := logging.ContextWithRequestID(r.Context(), reqID)
		ctx = logging.ContextWithNewCorrelationID(ctx)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
