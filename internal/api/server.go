// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/signagefleet/kioskd/internal/audit"
	"github.com/signagefleet/kioskd/internal/auth"
	"github.com/signagefleet/kioskd/internal/authz"
	"github.com/signagefleet/kioskd/internal/broadcast"
	"github.com/signagefleet/kioskd/internal/config"
	"github.com/signagefleet/kioskd/internal/database"
	"github.com/signagefleet/kioskd/internal/logging"
	mw "github.com/signagefleet/kioskd/internal/middleware"
	"github.com/signagefleet/kioskd/internal/propagator"
	"github.com/signagefleet/kioskd/internal/registry"
)

// Server holds every collaborator the REST and websocket surface needs.
type Server struct {
	cfg         config.Config
	db          *database.DB
	registry    *registry.Registry
	auth        *auth.Manager
	authz       *authz.Enforcer
	propagator  *propagator.Propagator
	broadcaster *broadcast.Coordinator
	audit       audit.Store
	secLog      *logging.SecurityLogger
}

// New constructs a Server.
func New(
	cfg config.Config,
	db *database.DB,
	reg *registry.Registry,
	authManager *auth.Manager,
	enforcer *authz.Enforcer,
	prop *propagator.Propagator,
	bc *broadcast.Coordinator,
	auditStore audit.Store,
) *Server {
	return &Server{
		cfg:         cfg,
		db:          db,
		registry:    reg,
		auth:        authManager,
		authz:       enforcer,
		propagator:  prop,
		broadcaster: bc,
		audit:       auditStore,
		secLog:      logging.NewSecurityLogger(),
	}
}

// Router builds the full chi router: middleware stack, public auth/health
// routes, admin-authorized REST routes, and the websocket upgrade
// endpoints.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(mw.Recoverer)
	r.Use(mw.RequestID)
	r.Use(mw.AccessLog)
	r.Use(mw.Prometheus)
	r.Use(mw.Compression)
	r.Use(mw.CORS(s.cfg.Server.CORSOrigins))
	r.Use(mw.RateLimit(300))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/refresh", s.requireAdmin(s.handleRefresh))

	r.Get("/ws/device", s.handleDeviceWS)
	r.Get("/ws/admin", s.requireAdmin(s.handleAdminWS))

	r.Route("/devices", func(r chi.Router) {
		r.Get("/", s.requireAdmin(s.listDevices))
		r.Post("/claim", s.requireAdmin(s.claimDevice))
		r.Get("/{deviceId}", s.requireAdmin(s.getDevice))
		r.Delete("/{deviceId}", s.requireAdmin(s.deleteDevice))
		r.Post("/{deviceId}/navigate", s.requireAdmin(s.deviceNavigate))
		r.Post("/{deviceId}/refresh", s.requireAdmin(s.deviceRefresh))
		r.Post("/{deviceId}/screenshot", s.requireAdmin(s.deviceScreenshotRequest))
		r.Post("/{deviceId}/restart", s.requireAdmin(s.deviceRestart))
		r.Post("/{deviceId}/click", s.requireAdmin(s.deviceRemote("remote:click")))
		r.Post("/{deviceId}/type", s.requireAdmin(s.deviceRemote("remote:type")))
		r.Post("/{deviceId}/key", s.requireAdmin(s.deviceRemote("remote:key")))
		r.Post("/{deviceId}/scroll", s.requireAdmin(s.deviceRemote("remote:scroll")))
		r.Post("/{deviceId}/playlist/pause", s.requireAdmin(s.devicePlaylistControl("playlist:pause")))
		r.Post("/{deviceId}/playlist/resume", s.requireAdmin(s.devicePlaylistControl("playlist:resume")))
		r.Post("/{deviceId}/playlist/next", s.requireAdmin(s.devicePlaylistControl("playlist:next")))
		r.Post("/{deviceId}/playlist/previous", s.requireAdmin(s.devicePlaylistControl("playlist:previous")))
		r.Post("/{deviceId}/screencast/start", s.requireAdmin(s.deviceScreencast("screencast:start")))
		r.Post("/{deviceId}/screencast/stop", s.requireAdmin(s.deviceScreencast("screencast:stop")))
	})

	r.Route("/content", func(r chi.Router) {
		r.Get("/", s.requireAdmin(s.listContent))
		r.Post("/", s.requireAdmin(s.createContent))
		r.Get("/{id}", s.requireAdmin(s.getContent))
		r.Delete("/{id}", s.requireAdmin(s.deleteContent))
	})

	r.Route("/playlists", func(r chi.Router) {
		r.Get("/", s.requireAdmin(s.listPlaylists))
		r.Post("/", s.requireAdmin(s.createPlaylist))
		r.Get("/{id}", s.requireAdmin(s.getPlaylist))
		r.Put("/{id}", s.requireAdmin(s.updatePlaylist))
		r.Delete("/{id}", s.requireAdmin(s.deletePlaylist))
		r.Get("/{id}/items", s.requireAdmin(s.listItems))
		r.Post("/{id}/items", s.requireAdmin(s.addItem))
		r.Get("/{id}/devices", s.requireAdmin(s.playlistDevices))
		r.Post("/assign", s.requireAdmin(s.assignPlaylist))
		r.Post("/assign/device/{deviceId}/playlist/{playlistId}", s.requireAdmin(s.assignPlaylistPath))
		r.Delete("/assign/device/{deviceId}/playlist/{playlistId}", s.requireAdmin(s.unassignPlaylist))
		r.Get("/device/{deviceId}", s.requireAdmin(s.devicePlaylists))
	})

	r.Route("/playlists/items", func(r chi.Router) {
		r.Put("/{id}", s.requireAdmin(s.updateItem))
		r.Delete("/{id}", s.requireAdmin(s.deleteItem))
	})

	r.Route("/screenshots", func(r chi.Router) {
		r.Get("/device/{deviceId}/latest", s.requireAdmin(s.latestScreenshot))
	})

	r.Route("/broadcast", func(r chi.Router) {
		r.Post("/start", s.requireAdmin(s.broadcastStart))
		r.Post("/end", s.requireAdmin(s.broadcastEnd))
		r.Get("/active", s.requireAdmin(s.broadcastActive))
	})

	return r
}
