// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"

	goccyjson "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/signagefleet/kioskd/internal/auth"
	"github.com/signagefleet/kioskd/internal/events"
	"github.com/signagefleet/kioskd/internal/logging"
	"github.com/signagefleet/kioskd/internal/metrics"
	"github.com/signagefleet/kioskd/internal/models"
	"github.com/signagefleet/kioskd/internal/registry"
	"github.com/signagefleet/kioskd/internal/transport"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleDeviceWS upgrades and authenticates a device session (spec §4.1,
// §6): the token must carry the device role, and the device identity for
// every subsequent inbound message comes from the verified claims, never a
// client-supplied field (I2, P8).
func (s *Server) handleDeviceWS(w http.ResponseWriter, r *http.Request) {
	token := auth.ExtractToken(r)
	claims, err := s.auth.Validate(token)
	if err != nil || claims.Role != models.RoleDevice {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Logger().Warn().Err(err).Msg("device websocket upgrade failed")
		return
	}

	router := &eventRouter{
		server:            s,
		role:              models.RoleDevice,
		deviceID:          claims.DeviceID,
		deviceSurrogateID: claims.DeviceSurrogateID,
	}
	client := transport.NewClient(conn, router, router)
	router.client = client

	s.registry.AddDevice(claims.DeviceID, client)
	metrics.ConnectedDevices.Set(float64(s.registry.ConnectedDeviceCount()))
	s.propagator.OnAssignmentMutated(context.Background(), claims.DeviceSurrogateID)

	client.Start()
}

// handleAdminWS upgrades an admin session. requireAdmin has already
// validated the bearer token and role by the time this runs.
func (s *Server) handleAdminWS(w http.ResponseWriter, r *http.Request) {
	sub, _ := subjectFromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Logger().Warn().Err(err).Msg("admin websocket upgrade failed")
		return
	}

	router := &eventRouter{server: s, role: models.RoleAdmin, adminUserID: sub.AdminUserID}
	client := transport.NewClient(conn, router, router)
	router.client = client

	seq := s.registry.AddAdmin(sub.AdminUserID, client)
	router.adminSeq = seq
	metrics.ConnectedAdmins.Set(float64(s.registry.AdminCount()))

	client.Start()
}

// eventRouter is the Event Router (spec §4.4): one per session, dispatching
// inbound frames by event name and forwarding admin-facing notifications.
// It implements both transport.Handler and transport.CloseNotifier.
type eventRouter struct {
	server *Server
	client *transport.Client

	role              models.Role
	deviceID          string
	deviceSurrogateID int64
	adminUserID       string
	adminSeq          uint64
}

func (e *eventRouter) HandleInbound(sess *transport.Client, event string, payload []byte) {
	metrics.InboundEvents.WithLabelValues(event).Inc()

	switch event {
	case events.DeviceRegister:
		// Registration is established at connect time (spec §4.4); nothing
		// further to do.
	case events.HealthReport:
		e.forwardStamped(events.AdminDeviceHealth, payload)
	case events.DeviceStatus:
		e.handleDeviceStatus(payload)
	case events.ErrorReport:
		e.forwardStamped(events.AdminError, payload)
	case events.ScreenshotUpload:
		e.handleScreenshotUpload(payload)
	case events.PlaybackStateUpdate:
		e.handlePlaybackState(payload)
	case events.ScreencastFrame:
		e.forwardStamped(events.AdminScreencastFrame, payload)
	default:
		logging.Logger().Debug().Str("event", event).Msg("unknown inbound event, dropping")
	}
}

// OnClose cleans up registry state when either pump exits.
func (e *eventRouter) OnClose(sess *transport.Client) {
	switch e.role {
	case models.RoleDevice:
		e.server.registry.RemoveDevice(e.deviceID, sess)
		metrics.ConnectedDevices.Set(float64(e.server.registry.ConnectedDeviceCount()))
	case models.RoleAdmin:
		e.server.registry.RemoveAdmin(e.adminSeq)
		metrics.ConnectedAdmins.Set(float64(e.server.registry.AdminCount()))
	}
}

// forwardStamped decodes payload as a JSON object, stamps deviceId onto it,
// and relays it to every connected admin. Malformed payloads are dropped.
func (e *eventRouter) forwardStamped(event string, payload []byte) {
	var body map[string]any
	if err := decodeRaw(payload, &body); err != nil {
		logging.Logger().Debug().Err(err).Str("event", event).Msg("malformed payload, dropping")
		return
	}
	if body == nil {
		body = map[string]any{}
	}
	body["deviceId"] = e.deviceID
	e.server.registry.BroadcastToAdmins(event, body)
}

func (e *eventRouter) handleDeviceStatus(payload []byte) {
	var body struct {
		Status models.DeviceStatus `json:"status"`
	}
	if err := decodeRaw(payload, &body); err != nil {
		logging.Logger().Debug().Err(err).Msg("malformed device:status payload")
		return
	}
	if err := e.server.db.UpdateDeviceStatus(context.Background(), e.deviceID, body.Status); err != nil {
		logging.Logger().Warn().Err(err).Str("deviceId", e.deviceID).Msg("failed to record device status")
	}
	e.forwardStamped(events.AdminDeviceStatus, payload)
}

func (e *eventRouter) handleScreenshotUpload(payload []byte) {
	var body struct {
		URL       string `json:"url"`
		Timestamp int64  `json:"timestamp"`
	}
	if err := decodeRaw(payload, &body); err != nil {
		logging.Logger().Debug().Err(err).Msg("malformed screenshot:upload payload")
		return
	}
	shot, err := e.server.db.SaveScreenshot(context.Background(), models.Screenshot{
		DeviceID:  e.deviceID,
		URL:       body.URL,
		Timestamp: body.Timestamp,
	})
	if err != nil {
		logging.Logger().Warn().Err(err).Str("deviceId", e.deviceID).Msg("failed to save screenshot")
		return
	}
	e.server.registry.BroadcastToAdmins(events.AdminScreenshotReceived, map[string]any{
		"deviceId":     e.deviceID,
		"screenshotId": shot.ID,
	})
}

func (e *eventRouter) handlePlaybackState(payload []byte) {
	var state models.PlaybackState
	if err := decodeRaw(payload, &state); err != nil {
		logging.Logger().Debug().Err(err).Msg("malformed playback:state:update payload")
		return
	}
	state.DeviceID = e.deviceID
	e.server.registry.BroadcastToAdmins(events.AdminPlaybackState, state)
}

func decodeRaw(payload []byte, v any) error {
	if len(payload) == 0 {
		return nil
	}
	return goccyjson.Unmarshal(payload, v)
}

var _ registry.Sender = (*transport.Client)(nil)
