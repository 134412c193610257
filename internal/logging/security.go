// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// SecurityEvent represents a security-relevant event for audit logging:
// admin login, token refresh, device-token issuance, or an authorization
// denial from the Casbin enforcer.
type SecurityEvent struct {
	// Event is the type of event (e.g., "login_success", "authz_denied").
	Event string
	// ActorID is the admin username or device ID the event concerns.
	ActorID string
	// Role is "admin" or "device".
	Role string
	// IPAddress is the client's IP address.
	IPAddress string
	// UserAgent is the client's user agent (truncated).
	UserAgent string
	// Success indicates if the operation was successful.
	Success bool
	// Error is the error message if the operation failed.
	Error string
	// Details contains additional sanitized details.
	Details map[string]string
}

// SecurityLogger provides secure logging for authentication and
// authorization events. It automatically sanitizes sensitive data before
// logging.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger creates a new security logger.
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{
		logger: With().Str("component", "auth").Logger(),
	}
}

// NewSecurityLoggerWithLogger creates a security logger with a custom zerolog logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{
		logger: logger,
	}
}

// LogEvent logs a security event with automatic sanitization.
func (l *SecurityLogger) LogEvent(event *SecurityEvent) {
	e := l.logger.Info().
		Str("event", event.Event)

	if event.Success {
		e = e.Str("status", "success")
	} else {
		e = e.Str("status", "failed")
	}

	if event.ActorID != "" {
		e = e.Str("actor_id", SanitizeUserID(event.ActorID))
	}

	if event.Role != "" {
		e = e.Str("role", event.Role)
	}

	if event.IPAddress != "" {
		e = e.Str("ip", event.IPAddress)
	}

	if event.UserAgent != "" {
		e = e.Str("user_agent", truncateString(event.UserAgent, 100))
	}

	if event.Error != "" && !event.Success {
		e = e.Str("error", SanitizeError(event.Error))
	}

	for k, v := range event.Details {
		e = e.Str(k, SanitizeValue(k, v))
	}

	e.Msg("")
}

// Debug logs a debug-level message with the security logger's component tag.
func (l *SecurityLogger) Debug(msg string, fields ...interface{}) {
	addFieldPairs(l.logger.Debug(), fields...).Msg(msg)
}

// Info logs an info-level message with the security logger's component tag.
func (l *SecurityLogger) Info(msg string, fields ...interface{}) {
	addFieldPairs(l.logger.Info(), fields...).Msg(msg)
}

// Warn logs a warn-level message with the security logger's component tag.
func (l *SecurityLogger) Warn(msg string, fields ...interface{}) {
	addFieldPairs(l.logger.Warn(), fields...).Msg(msg)
}

// Error logs an error-level message with the security logger's component tag.
func (l *SecurityLogger) Error(msg string, fields ...interface{}) {
	addFieldPairs(l.logger.Error(), fields...).Msg(msg)
}

// addFieldPairs adds alternating key/value pairs to a zerolog event.
func addFieldPairs(e *zerolog.Event, fields ...interface{}) *zerolog.Event {
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, fields[i+1])
	}
	return e
}

// ============================================================
// Pre-defined Security Events
// ============================================================

// LogLoginSuccess logs a successful admin password login.
func (l *SecurityLogger) LogLoginSuccess(username, ip, userAgent string) {
	l.LogEvent(&SecurityEvent{
		Event:     "login_success",
		ActorID:   username,
		Role:      "admin",
		IPAddress: ip,
		UserAgent: userAgent,
		Success:   true,
	})
}

// LogLoginFailure logs a failed admin password login.
func (l *SecurityLogger) LogLoginFailure(username, ip, userAgent, reason string) {
	l.LogEvent(&SecurityEvent{
		Event:     "login_failed",
		ActorID:   username,
		Role:      "admin",
		IPAddress: ip,
		UserAgent: userAgent,
		Success:   false,
		Error:     reason,
	})
}

// LogTokenRefresh logs an admin bearer-token refresh.
func (l *SecurityLogger) LogTokenRefresh(username, ip string, success bool, errMsg string) {
	l.LogEvent(&SecurityEvent{
		Event:     "token_refresh",
		ActorID:   username,
		Role:      "admin",
		IPAddress: ip,
		Success:   success,
		Error:     errMsg,
	})
}

// LogDeviceTokenIssued logs the long-lived device bearer token minted when
// an operator claims a device.
func (l *SecurityLogger) LogDeviceTokenIssued(deviceID, ip string) {
	l.LogEvent(&SecurityEvent{
		Event:     "device_token_issued",
		ActorID:   deviceID,
		Role:      "device",
		IPAddress: ip,
		Success:   true,
	})
}

// LogAuthzDenied logs a Casbin authorization denial.
func (l *SecurityLogger) LogAuthzDenied(role, path, ip string) {
	l.LogEvent(&SecurityEvent{
		Event:     "authz_denied",
		Role:      role,
		IPAddress: ip,
		Success:   false,
		Details: map[string]string{
			"path": path,
		},
	})
}

// ============================================================
// Sanitization Functions
// ============================================================

// SanitizeToken masks a token, showing only first and last 4 characters.
// Example: "eyJhbGciOiJIUzI1NiJ9.payload.signature" -> "eyJh...ture"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeUserID masks an actor ID (admin username or device ID) for privacy.
// Example: "user-12345678" -> "user...5678"
func SanitizeUserID(userID string) string {
	if userID == "" {
		return ""
	}
	if len(userID) <= 8 {
		return "***"
	}
	return userID[:4] + "..." + userID[len(userID)-4:]
}

// SanitizeError removes potentially sensitive information from error messages.
func SanitizeError(err string) string {
	sensitivePatterns := []string{
		"password",
		"secret",
		"token",
		"key",
		"bearer",
		"authorization",
		"cookie",
	}

	lowerErr := strings.ToLower(err)
	for _, pattern := range sensitivePatterns {
		if strings.Contains(lowerErr, pattern) {
			return "authentication error"
		}
	}

	return truncateString(err, 200)
}

// SanitizeValue sanitizes a value based on its key name.
func SanitizeValue(key, value string) string {
	lowerKey := strings.ToLower(key)

	sensitiveKeys := map[string]bool{
		"access_token":  true,
		"refresh_token": true,
		"id_token":      true,
		"token":         true,
		"password":      true,
		"secret":        true,
		"api_key":       true,
		"apikey":        true,
		"authorization": true,
		"bearer":        true,
		"cookie":        true,
	}

	if sensitiveKeys[lowerKey] {
		return SanitizeToken(value)
	}

	return value
}

// truncateString truncates a string to a maximum length.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
