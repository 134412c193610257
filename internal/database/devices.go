// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/signagefleet/kioskd/internal/models"
)

var ErrNotFound = errors.New("database: not found")

// UpsertDevice creates a device row or adopts an existing one keyed on
// deviceId (the supplemented claim/unclaim flow, spec grounded on the
// Stationmaster device_handlers.go create-or-adopt path).
func (db *DB) UpsertDevice(ctx context.Context, deviceID, name, description, location string) (models.Device, error) {
	row := db.conn.QueryRowContext(ctx, `
		INSERT INTO devices (device_id, name, description, location, status, created_at)
		VALUES ($1, $2, $3, $4, 'offline', current_timestamp)
		ON CONFLICT (device_id) DO UPDATE SET name = excluded.name
		RETURNING id, device_id, name, description, location, status, last_seen, created_at
	`, deviceID, name, description, location)
	return scanDevice(row)
}

// GetDeviceByDeviceID looks up a device by its stable string id.
func (db *DB) GetDeviceByDeviceID(ctx context.Context, deviceID string) (models.Device, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, device_id, name, description, location, status, last_seen, created_at
		FROM devices WHERE device_id = $1
	`, deviceID)
	return scanDevice(row)
}

// ListDevices returns every device, ordered by id.
func (db *DB) ListDevices(ctx context.Context) ([]models.Device, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, device_id, name, description, location, status, last_seen, created_at
		FROM devices ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("database: list devices: %w", err)
	}
	defer rows.Close()

	var out []models.Device
	for rows.Next() {
		d, err := scanDeviceRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteDevice removes a device and cascades to its assignments (I3),
// atomically.
func (db *DB) DeleteDevice(ctx context.Context, deviceID string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("database: delete device: %w", err)
	}
	defer tx.Rollback()

	var surrogateID int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM devices WHERE device_id = $1`, deviceID).Scan(&surrogateID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("database: delete device: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM device_playlists WHERE device_id = $1`, surrogateID); err != nil {
		return fmt.Errorf("database: delete device: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM devices WHERE id = $1`, surrogateID); err != nil {
		return fmt.Errorf("database: delete device: %w", err)
	}
	return tx.Commit()
}

// UpdateDeviceStatus records a status/last-seen transition from the
// connection lifecycle or a health report.
func (db *DB) UpdateDeviceStatus(ctx context.Context, deviceID string, status models.DeviceStatus) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE devices SET status = $1, last_seen = $2 WHERE device_id = $3
	`, string(status), time.Now().UTC(), deviceID)
	if err != nil {
		return fmt.Errorf("database: update device status: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (models.Device, error) {
	var d models.Device
	var desc, loc sql.NullString
	var lastSeen sql.NullTime
	err := row.Scan(&d.ID, &d.DeviceID, &d.Name, &desc, &loc, &d.Status, &lastSeen, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Device{}, ErrNotFound
		}
		return models.Device{}, fmt.Errorf("database: scan device: %w", err)
	}
	d.Description = desc.String
	d.Location = loc.String
	if lastSeen.Valid {
		d.LastSeen = lastSeen.Time
	}
	return d, nil
}

func scanDeviceRows(rows *sql.Rows) (models.Device, error) {
	return scanDevice(rows)
}
