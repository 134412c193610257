// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command server runs the fleet coordination server: the REST control
// surface, the device/admin websocket endpoints, and the background
// services (health polling, persistence breaker sampling) that keep the
// Session Registry and Assignment Propagator healthy. Grounded on the
// teacher's cmd/server/main.go wiring order: config, then logging, then
// every collaborator in dependency order, then serve.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signagefleet/kioskd/internal/api"
	"github.com/signagefleet/kioskd/internal/audit"
	"github.com/signagefleet/kioskd/internal/auth"
	"github.com/signagefleet/kioskd/internal/authz"
	"github.com/signagefleet/kioskd/internal/broadcast"
	"github.com/signagefleet/kioskd/internal/config"
	"github.com/signagefleet/kioskd/internal/database"
	"github.com/signagefleet/kioskd/internal/logging"
	"github.com/signagefleet/kioskd/internal/metrics"
	"github.com/signagefleet/kioskd/internal/propagator"
	"github.com/signagefleet/kioskd/internal/registry"
	"github.com/signagefleet/kioskd/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		logging.Logger().Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfgPath := os.Getenv("KIOSKD_CONFIG_FILE")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	log := logging.Logger()

	db, err := database.Open(cfg.Database.Path, cfg.Database.MaxOpenConnections, cfg.Database.CircuitBreakerTrip, cfg.Database.CircuitOpenTimeout)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	auditStore, err := audit.NewDuckDBStore(db.Conn())
	if err != nil {
		return fmt.Errorf("open audit store: %w", err)
	}

	if cfg.Security.JWTSecret == "" {
		return errors.New("security.jwt_secret is required")
	}
	authManager := auth.NewManager([]byte(cfg.Security.JWTSecret), cfg.Security.TokenLifetime)

	enforcer, err := authz.New(cfg.Security.PolicyPath)
	if err != nil {
		return fmt.Errorf("build authorizer: %w", err)
	}

	reg := registry.New()
	bc := broadcast.New(reg)
	prop := propagator.New(db, db, reg)

	tree := supervisor.NewTree(supervisor.DefaultTreeConfig())
	tree.Fleet.Add(&supervisor.HealthPoller{
		Interval: 15 * time.Second,
		Probe:    db.BreakerOpen,
	})
	tree.Fleet.Add(&supervisor.GaugeSampler{
		Name:     "connected-devices-sampler",
		Interval: 30 * time.Second,
		Sample:   func() float64 { return float64(reg.ConnectedDeviceCount()) },
		Gauge:    metrics.ConnectedDevices,
	})
	tree.Fleet.Add(&supervisor.GaugeSampler{
		Name:     "connected-admins-sampler",
		Interval: 30 * time.Second,
		Sample:   func() float64 { return float64(reg.AdminCount()) },
		Gauge:    metrics.ConnectedAdmins,
	})

	server := api.New(*cfg, db, reg, authManager, enforcer, prop, bc, auditStore)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.Router(),
	}

	metricsServer := &http.Server{
		Addr:    cfg.Fleet.MetricsAddr,
		Handler: promhttp.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go tree.Serve(ctx)

	errCh := make(chan error, 2)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("serving REST and websocket endpoints")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		log.Info().Str("addr", cfg.Fleet.MetricsAddr).Msg("serving prometheus metrics")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("server error, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	return nil
}
