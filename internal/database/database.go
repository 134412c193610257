// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package database is the Persistence Adapter (spec §2.10): a synchronous
// store for devices, content, playlists, items, assignments, and
// screenshots, backed by an embedded DuckDB file. Grounded on the teacher's
// internal/database/database.go connection/pragma pattern. Calls made from
// the Assignment Propagator go through a gobreaker circuit breaker so a
// degraded store opens the breaker instead of blocking every device push
// (spec §7's "persistence failure during propagation" paragraph).
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/sony/gobreaker/v2"
)

// DB is the Persistence Adapter.
type DB struct {
	conn    *sql.DB
	breaker *gobreaker.CircuitBreaker[any]
}

// Open creates or attaches the DuckDB file at path and ensures schema.
func Open(path string, maxOpenConns int, breakerTrip uint32, breakerOpenTimeout time.Duration) (*DB, error) {
	conn, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}
	if maxOpenConns > 0 {
		conn.SetMaxOpenConns(maxOpenConns)
	}

	settings := gobreaker.Settings{
		Name:    "persistence-adapter",
		Timeout: breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTrip
		},
	}
	cb := gobreaker.NewCircuitBreaker[any](settings)

	db := &DB{conn: conn, breaker: cb}
	if err := db.ensureSchema(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn exposes the underlying *sql.DB for collaborators — such as
// internal/audit — that need their own table on the same database file but
// don't participate in the Persistence Adapter's breaker wiring.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE SEQUENCE IF NOT EXISTS devices_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS devices (
			id BIGINT PRIMARY KEY DEFAULT nextval('devices_id_seq'),
			device_id VARCHAR UNIQUE NOT NULL,
			name VARCHAR NOT NULL,
			description VARCHAR,
			location VARCHAR,
			status VARCHAR NOT NULL DEFAULT 'offline',
			last_seen TIMESTAMP,
			screen_resolution VARCHAR,
			os_version VARCHAR,
			client_version VARCHAR,
			ip_address VARCHAR,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,
		`CREATE SEQUENCE IF NOT EXISTS content_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS content (
			id BIGINT PRIMARY KEY DEFAULT nextval('content_id_seq'),
			name VARCHAR NOT NULL,
			url VARCHAR NOT NULL,
			description VARCHAR,
			interactive BOOLEAN NOT NULL DEFAULT false,
			thumbnail_url VARCHAR
		)`,
		`CREATE SEQUENCE IF NOT EXISTS playlists_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS playlists (
			id BIGINT PRIMARY KEY DEFAULT nextval('playlists_id_seq'),
			name VARCHAR NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,
		`CREATE SEQUENCE IF NOT EXISTS playlist_items_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS playlist_items (
			id BIGINT PRIMARY KEY DEFAULT nextval('playlist_items_id_seq'),
			playlist_id BIGINT NOT NULL REFERENCES playlists(id),
			content_id BIGINT NOT NULL REFERENCES content(id),
			order_index INTEGER NOT NULL,
			display_duration BIGINT NOT NULL DEFAULT 0,
			time_window_start VARCHAR,
			time_window_end VARCHAR,
			days_of_week VARCHAR
		)`,
		`CREATE SEQUENCE IF NOT EXISTS device_playlists_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS device_playlists (
			id BIGINT PRIMARY KEY DEFAULT nextval('device_playlists_id_seq'),
			device_id BIGINT NOT NULL REFERENCES devices(id),
			playlist_id BIGINT NOT NULL REFERENCES playlists(id),
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			UNIQUE(device_id, playlist_id)
		)`,
		`CREATE SEQUENCE IF NOT EXISTS screenshots_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS screenshots (
			id BIGINT PRIMARY KEY DEFAULT nextval('screenshots_id_seq'),
			device_id VARCHAR NOT NULL,
			url VARCHAR NOT NULL,
			taken_at BIGINT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("database: ensure schema: %w", err)
		}
	}
	return nil
}

// Guarded runs a persistence read through the circuit breaker, used by the
// Assignment Propagator when resolving affected devices so a degraded
// store opens the breaker instead of blocking every device push.
func (db *DB) Guarded(fn func() error) error {
	_, err := db.breaker.Execute(func() (any, error) {
		return nil, fn()
	})
	return err
}

// BreakerOpen reports whether the persistence circuit breaker is currently
// open, for the health poller's gauge sample.
func (db *DB) BreakerOpen() bool {
	return db.breaker.State() == gobreaker.StateOpen
}
