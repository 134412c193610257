// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command kiosk is the device-side client: it dials the server's websocket
// endpoint, authenticates with its long-lived device token, and drives the
// Playlist Executor against a display driver and local content cache. No
// teacher analog exists for this binary; it is built fresh to exercise
// internal/executor end-to-end the way a real kiosk device would.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goccyjson "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/signagefleet/kioskd/internal/auth"
	"github.com/signagefleet/kioskd/internal/cache"
	"github.com/signagefleet/kioskd/internal/config"
	"github.com/signagefleet/kioskd/internal/displaydriver"
	"github.com/signagefleet/kioskd/internal/events"
	"github.com/signagefleet/kioskd/internal/executor"
	"github.com/signagefleet/kioskd/internal/logging"
	"github.com/signagefleet/kioskd/internal/models"
	"github.com/signagefleet/kioskd/internal/transport"
)

func main() {
	if err := run(); err != nil {
		logging.Logger().Fatal().Err(err).Msg("kiosk exited")
	}
}

func run() error {
	cfgPath := os.Getenv("KIOSKD_CONFIG_FILE")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Caller: cfg.Logging.Caller})
	log := logging.Logger()

	serverURL := os.Getenv("KIOSKD_SERVER_URL")
	token := os.Getenv("KIOSKD_DEVICE_TOKEN")
	if serverURL == "" || token == "" {
		return errors.New("KIOSKD_SERVER_URL and KIOSKD_DEVICE_TOKEN must be set")
	}
	deviceID := os.Getenv("KIOSKD_DEVICE_ID")

	cacheDir := os.Getenv("KIOSKD_CACHE_DIR")
	if cacheDir == "" {
		cacheDir = "./kiosk-cache"
	}
	store, err := cache.Open(cacheDir, unsupportedFetcher{})
	if err != nil {
		return fmt.Errorf("open content cache: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// One reconnect attempt every 5s on average, with bursts up to 3 for
	// the brief flurry of retries after a network blip, so a dead server
	// doesn't get hammered by a tight loop of failed dials.
	reconnect := rate.NewLimiter(rate.Every(5*time.Second), 3)

	for {
		if err := reconnect.Wait(ctx); err != nil {
			return nil
		}
		if err := connectAndRun(ctx, *cfg, serverURL, token, deviceID, store); err != nil {
			log.Warn().Err(err).Msg("session ended, reconnecting")
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func connectAndRun(ctx context.Context, cfg config.Config, serverURL, token, deviceID string, store *cache.Store) error {
	wsURL := auth.BuildWSURL(serverURL, token, models.RoleDevice)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial server: %w", err)
	}

	router := &deviceRouter{}
	client := transport.NewClient(conn, router, router)
	router.client = client

	exec := executor.New(deviceID, displaydriver.LoggingStub{}, store, &sender{client: client}, executor.Config{
		DefaultRotationMs: cfg.Executor.DefaultRotationMs,
		StarvationRetry:   cfg.Executor.StarvationRetry,
		ScreenshotDelay:   cfg.Executor.ScreenshotDelay,
		StateEmitInterval: cfg.Executor.StateEmitInterval,
		CacheWaitTimeout:  cfg.Executor.CacheWaitTimeout,
	})
	router.exec = exec

	execCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go exec.Run(execCtx)
	exec.Start()

	_ = client.Send(events.DeviceRegister, map[string]string{"deviceId": deviceID})

	client.Start()
	return nil
}

// sender adapts a transport.Client to executor.EventSender.
type sender struct {
	client *transport.Client
}

func (s *sender) SendPlaybackState(state models.PlaybackState) {
	_ = s.client.Send(events.PlaybackStateUpdate, state)
}

func (s *sender) SendErrorReport(message string) {
	_ = s.client.Send(events.ErrorReport, map[string]string{"message": message})
}

// deviceRouter dispatches server-pushed control events into the Executor.
type deviceRouter struct {
	client *transport.Client
	exec   *executor.Executor
}

func (r *deviceRouter) HandleInbound(sess *transport.Client, event string, payload []byte) {
	switch event {
	case events.ContentUpdate:
		var body struct {
			PlaylistID int64                  `json:"playlistId"`
			Items      []models.PlaylistItem  `json:"items"`
		}
		if err := decodePayload(payload, &body); err != nil {
			return
		}
		r.exec.LoadPlaylist(body.Items, body.PlaylistID)
	case events.DisplayNavigate:
		var body struct {
			URL string `json:"url"`
		}
		_ = decodePayload(payload, &body)
	case events.DisplayRefresh:
		// handled by the display driver directly; nothing to route.
	case events.DeviceRestart:
		r.client.Close()
	case events.PlaylistPause:
		r.exec.Pause()
	case events.PlaylistResume:
		r.exec.Resume()
	case events.PlaylistNext:
		r.exec.Next(true)
	case events.PlaylistPrevious:
		r.exec.Previous(true)
	case events.BroadcastStart:
		var b models.Broadcast
		if err := decodePayload(payload, &b); err != nil {
			return
		}
		r.exec.StartBroadcast(b.Type, firstNonEmpty(b.URL, b.Message), b.DurationMs)
	case events.BroadcastEnd:
		r.exec.EndBroadcast()
	default:
		logging.Logger().Debug().Str("event", event).Msg("unknown server event, dropping")
	}
}

func (r *deviceRouter) OnClose(sess *transport.Client) {
	r.exec.Stop()
}

func decodePayload(payload []byte, v any) error {
	if len(payload) == 0 {
		return nil
	}
	return goccyjson.Unmarshal(payload, v)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// unsupportedFetcher is the device-local cache's pluggable fetch strategy.
// Downloading and storing content files on-device is out of scope (spec's
// Non-goals); every fetch attempt fails and the executor falls back to
// navigating the remote URL directly.
type unsupportedFetcher struct{}

func (unsupportedFetcher) Fetch(ctx context.Context, url string) (string, error) {
	return "", errors.New("cache: local content fetching not implemented")
}
