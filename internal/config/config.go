// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads server configuration through a layered koanf stack:
// struct defaults, an optional YAML file, then environment variables
// (highest priority). Grounded on the teacher's internal/config/koanf.go
// wiring, trimmed to the concerns this server actually has.
package config

import "time"

// Config is the root configuration object, grouped by concern.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Database DatabaseConfig `koanf:"database"`
	Logging  LoggingConfig  `koanf:"logging"`
	Registry RegistryConfig `koanf:"registry"`
	Executor ExecutorConfig `koanf:"executor"`
	Fleet    FleetConfig    `koanf:"fleet"`
}

// ServerConfig controls the HTTP/WS listener.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// SecurityConfig controls the Bearer Validator.
type SecurityConfig struct {
	JWTSecret     string            `koanf:"jwt_secret"`
	TokenLifetime time.Duration     `koanf:"token_lifetime"`
	PolicyPath    string            `koanf:"policy_path"`
	AdminUsers    map[string]string `koanf:"admin_users"` // username -> bcrypt hash
}

// DatabaseConfig controls the Persistence Adapter.
type DatabaseConfig struct {
	Path               string        `koanf:"path"`
	MaxOpenConnections int           `koanf:"max_open_connections"`
	CircuitBreakerTrip uint32        `koanf:"circuit_breaker_trip"`
	CircuitOpenTimeout time.Duration `koanf:"circuit_open_timeout"`
}

// LoggingConfig controls internal/logging.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// RegistryConfig controls Session Transport heartbeat/queue behavior.
type RegistryConfig struct {
	HeartbeatInterval time.Duration `koanf:"heartbeat_interval"`
	OutboundQueueSize int           `koanf:"outbound_queue_size"`
}

// ExecutorConfig controls device-side Playlist Executor defaults.
type ExecutorConfig struct {
	DefaultRotationMs   int64         `koanf:"default_rotation_ms"`
	StarvationRetry     time.Duration `koanf:"starvation_retry"`
	ScreenshotDelay      time.Duration `koanf:"screenshot_delay"`
	StateEmitInterval    time.Duration `koanf:"state_emit_interval"`
	CacheWaitTimeout     time.Duration `koanf:"cache_wait_timeout"`
}

// FleetConfig controls metrics/supervisor behavior.
type FleetConfig struct {
	MetricsAddr string `koanf:"metrics_addr"`
}

// Default returns the built-in defaults, the first layer koanf merges.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			TokenLifetime: 24 * time.Hour,
			PolicyPath:    "",
		},
		Database: DatabaseConfig{
			Path:               "kioskd.duckdb",
			MaxOpenConnections: 4,
			CircuitBreakerTrip: 5,
			CircuitOpenTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Registry: RegistryConfig{
			HeartbeatInterval: 30 * time.Second,
			OutboundQueueSize: 256,
		},
		Executor: ExecutorConfig{
			DefaultRotationMs: 15000,
			StarvationRetry:   60 * time.Second,
			ScreenshotDelay:   4 * time.Second,
			StateEmitInterval: 5 * time.Second,
			CacheWaitTimeout:  5 * time.Minute,
		},
		Fleet: FleetConfig{
			MetricsAddr: ":9090",
		},
	}
}
