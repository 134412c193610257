// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signagefleet/kioskd/internal/auth"
	"github.com/signagefleet/kioskd/internal/authz"
	"github.com/signagefleet/kioskd/internal/broadcast"
	"github.com/signagefleet/kioskd/internal/config"
	"github.com/signagefleet/kioskd/internal/database"
	"github.com/signagefleet/kioskd/internal/propagator"
	"github.com/signagefleet/kioskd/internal/registry"
)

const testAdminPassword = "hunter2-correct-horse"

type testHarness struct {
	srv    *httptest.Server
	db     *database.DB
	reg    *registry.Registry
	bc     *broadcast.Coordinator
	client *http.Client
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	db, err := database.Open(":memory:", 0, 5, 30*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	hash, err := auth.HashPassword(testAdminPassword)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Security.JWTSecret = "test-secret"
	cfg.Security.AdminUsers = map[string]string{"admin": hash}

	authManager := auth.NewManager([]byte(cfg.Security.JWTSecret), cfg.Security.TokenLifetime)
	enforcer, err := authz.New("")
	require.NoError(t, err)

	reg := registry.New()
	bc := broadcast.New(reg)
	prop := propagator.New(db, db, reg)

	server := New(cfg, db, reg, authManager, enforcer, prop, bc, nil)
	srv := httptest.NewServer(server.Router())
	t.Cleanup(srv.Close)

	return &testHarness{srv: srv, db: db, reg: reg, bc: bc, client: srv.Client()}
}

func (h *testHarness) adminToken(t *testing.T) string {
	t.Helper()
	body, _ := json.Marshal(loginRequest{Username: "admin", Password: testAdminPassword})
	resp, err := h.client.Post(h.srv.URL+"/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env Envelope
	var tok tokenResponse
	env.Data = &tok
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	require.NotEmpty(t, tok.Token)
	return tok.Token
}

func (h *testHarness) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, h.srv.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.client.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response, data any) Envelope {
	t.Helper()
	defer resp.Body.Close()
	env := Envelope{Data: data}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func TestLoginSucceedsWithCorrectCredentials(t *testing.T) {
	h := newTestHarness(t)
	token := h.adminToken(t)
	assert.NotEmpty(t, token)
}

func TestLoginFailsWithWrongPasswordReturns401(t *testing.T) {
	h := newTestHarness(t)
	resp := h.do(t, http.MethodPost, "/auth/login", "", loginRequest{Username: "admin", Password: "wrong"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginFailsWithUnknownUserReturns401(t *testing.T) {
	h := newTestHarness(t)
	resp := h.do(t, http.MethodPost, "/auth/login", "", loginRequest{Username: "ghost", Password: "whatever"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminRouteWithoutTokenReturns401(t *testing.T) {
	h := newTestHarness(t)
	resp := h.do(t, http.MethodGet, "/devices/", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminRouteWithDeviceTokenReturns401(t *testing.T) {
	h := newTestHarness(t)
	deviceToken, err := auth.NewManager([]byte("test-secret"), time.Hour).IssueDeviceToken("kiosk-1", 1)
	require.NoError(t, err)

	resp := h.do(t, http.MethodGet, "/devices/", deviceToken, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestClaimDeviceThenListDevices(t *testing.T) {
	h := newTestHarness(t)
	token := h.adminToken(t)

	resp := h.do(t, http.MethodPost, "/devices/claim", token, claimDeviceRequest{DeviceID: "kiosk-1", Name: "Lobby"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var claimed claimDeviceResponse
	decodeEnvelope(t, resp, &claimed)
	assert.Equal(t, "kiosk-1", claimed.DeviceID)
	assert.NotEmpty(t, claimed.Token)

	listResp := h.do(t, http.MethodGet, "/devices/", token, nil)
	defer listResp.Body.Close()
	assert.Equal(t, http.StatusOK, listResp.StatusCode)
}

func TestClaimDeviceMissingFieldsReturns400(t *testing.T) {
	h := newTestHarness(t)
	token := h.adminToken(t)

	resp := h.do(t, http.MethodPost, "/devices/claim", token, claimDeviceRequest{})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetUnknownDeviceReturns404(t *testing.T) {
	h := newTestHarness(t)
	token := h.adminToken(t)

	resp := h.do(t, http.MethodGet, "/devices/ghost", token, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAssignPlaylistThenDuplicateReturns409(t *testing.T) {
	h := newTestHarness(t)
	token := h.adminToken(t)

	claimResp := h.do(t, http.MethodPost, "/devices/claim", token, claimDeviceRequest{DeviceID: "kiosk-1", Name: "Lobby"})
	decodeEnvelope(t, claimResp, &claimDeviceResponse{})

	dev, err := h.db.GetDeviceByDeviceID(context.Background(), "kiosk-1")
	require.NoError(t, err)

	playlistResp := h.do(t, http.MethodPost, "/playlists/", token, playlistRequest{Name: "Main", IsActive: true})
	var playlist struct {
		ID int64 `json:"id"`
	}
	decodeEnvelope(t, playlistResp, &playlist)

	assignBody := assignRequest{DeviceID: dev.ID, PlaylistID: playlist.ID}

	first := h.do(t, http.MethodPost, "/playlists/assign", token, assignBody)
	defer first.Body.Close()
	assert.Equal(t, http.StatusCreated, first.StatusCode)

	second := h.do(t, http.MethodPost, "/playlists/assign", token, assignBody)
	defer second.Body.Close()
	assert.Equal(t, http.StatusConflict, second.StatusCode)
}

func TestDeviceControlEndpointReturns409WhenOffline(t *testing.T) {
	h := newTestHarness(t)
	token := h.adminToken(t)

	resp := h.do(t, http.MethodPost, "/devices/claim", token, claimDeviceRequest{DeviceID: "kiosk-1", Name: "Lobby"})
	decodeEnvelope(t, resp, &claimDeviceResponse{})

	navResp := h.do(t, http.MethodPost, "/devices/kiosk-1/navigate", token, map[string]string{"url": "https://example.com"})
	defer navResp.Body.Close()
	assert.Equal(t, http.StatusConflict, navResp.StatusCode)
}

func TestBroadcastStartThenActiveThenConflictThenEnd(t *testing.T) {
	h := newTestHarness(t)
	token := h.adminToken(t)

	start := h.do(t, http.MethodPost, "/broadcast/start", token, broadcastStartRequest{Type: "message", Message: "evacuate"})
	defer start.Body.Close()
	require.Equal(t, http.StatusCreated, start.StatusCode)

	active := h.do(t, http.MethodGet, "/broadcast/active", token, nil)
	defer active.Body.Close()
	assert.Equal(t, http.StatusOK, active.StatusCode)

	conflict := h.do(t, http.MethodPost, "/broadcast/start", token, broadcastStartRequest{Type: "message", Message: "second"})
	defer conflict.Body.Close()
	assert.Equal(t, http.StatusConflict, conflict.StatusCode)

	end := h.do(t, http.MethodPost, "/broadcast/end", token, nil)
	defer end.Body.Close()
	assert.Equal(t, http.StatusNoContent, end.StatusCode)
}

func TestHealthzAndReadyzAreUnauthenticated(t *testing.T) {
	h := newTestHarness(t)

	healthz := h.do(t, http.MethodGet, "/healthz", "", nil)
	defer healthz.Body.Close()
	assert.Equal(t, http.StatusOK, healthz.StatusCode)

	readyz := h.do(t, http.MethodGet, "/readyz", "", nil)
	defer readyz.Body.Close()
	assert.Equal(t, http.StatusOK, readyz.StatusCode)
}
