// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth implements the Bearer Validator (spec §4.1): signature and
// expiry verification of the short-lived token presented at session start,
// and extraction of a principal (device or admin) and role. Grounded on the
// teacher's internal/auth/jwt.go and jwt_authenticator.go, narrowed from a
// multi-provider login surface to the spec's single bearer-token mechanism
// shared by both roles.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/signagefleet/kioskd/internal/models"
)

var (
	ErrAuthRejected = errors.New("auth: token rejected")
)

// Claims is the JWT payload. Role is always "device" or "admin" (spec §4.1);
// DeviceID and DeviceSurrogateID are only populated for device tokens,
// Subject is the admin user id for admin tokens.
type Claims struct {
	Role              models.Role `json:"role"`
	DeviceID          string      `json:"deviceId,omitempty"`
	DeviceSurrogateID int64       `json:"deviceSurrogateId,omitempty"`
	jwt.RegisteredClaims
}

// Manager issues and validates HMAC-signed tokens. Only HMAC signing
// methods are accepted on validation, closing off algorithm-confusion
// attacks regardless of what a forged token's header claims.
type Manager struct {
	secret  []byte
	timeout time.Duration
}

// NewManager constructs a Manager. secret must be non-empty; timeout is the
// token lifetime used by IssueDeviceToken/IssueAdminToken, and a
// non-positive timeout is replaced by one hour.
func NewManager(secret []byte, timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = time.Hour
	}
	return &Manager{secret: secret, timeout: timeout}
}

// IssueDeviceToken mints a token attributing every future inbound message
// on this session to deviceID/surrogateID — never to a client-supplied
// value (I2, P8).
func (m *Manager) IssueDeviceToken(deviceID string, surrogateID int64) (string, error) {
	claims := Claims{
		Role:              models.RoleDevice,
		DeviceID:          deviceID,
		DeviceSurrogateID: surrogateID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   deviceID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.timeout)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// IssueAdminToken mints a token for an already-authenticated admin user.
func (m *Manager) IssueAdminToken(userID string) (string, error) {
	claims := Claims{
		Role: models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.timeout)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Validate checks signature and expiry and returns the embedded claims.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrAuthRejected
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrAuthRejected
	}
	if claims.Role != models.RoleDevice && claims.Role != models.RoleAdmin {
		return nil, ErrAuthRejected
	}
	return claims, nil
}
