// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/signagefleet/kioskd/internal/models"
)

// Subject is the normalized result of a successful session handshake:
// role plus the identity to attribute every subsequent inbound message to.
// For devices, DeviceID is the only identity that matters from here on —
// never a client-supplied value in a later payload (I2, P8).
type Subject struct {
	Role              models.Role
	DeviceID          string
	DeviceSurrogateID int64
	AdminUserID       string
}

// FromClaims converts verified JWT claims into a Subject.
func FromClaims(c *Claims) Subject {
	return Subject{
		Role:              c.Role,
		DeviceID:          c.DeviceID,
		DeviceSurrogateID: c.DeviceSurrogateID,
		AdminUserID:       c.Subject,
	}
}

// ExtractToken implements spec §6's handshake: either an
// "Authorization: Bearer <token>" header, or an "auth" query subfield of the
// connection URL (used by clients that cannot set headers on a websocket
// upgrade request). Header takes precedence when both are present.
func ExtractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if strings.HasPrefix(h, "Bearer ") {
			return strings.TrimPrefix(h, "Bearer ")
		}
	}
	return r.URL.Query().Get("auth")
}

// ExtractRole reads the declared role query parameter for the connection
// (spec §6: role in {device, admin}). The declared role is only ever used
// to pick which validation path to run; the authoritative role always comes
// from the verified token claims.
func ExtractRole(r *http.Request) models.Role {
	return models.Role(r.URL.Query().Get("role"))
}

// BuildWSURL is a small helper for the device client (cmd/kiosk) to attach
// its bearer token as a query subfield when dialing, since outbound
// websocket dials cannot always carry custom headers through every proxy.
func BuildWSURL(base, token string, role models.Role) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("auth", token)
	q.Set("role", string(role))
	u.RawQuery = q.Encode()
	return u.String()
}
