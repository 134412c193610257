// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/signagefleet/kioskd/internal/models"
)

// SaveScreenshot persists a screenshot record uploaded over the device's
// duplex channel (spec §4.4: screenshot:upload).
func (db *DB) SaveScreenshot(ctx context.Context, s models.Screenshot) (models.Screenshot, error) {
	row := db.conn.QueryRowContext(ctx, `
		INSERT INTO screenshots (device_id, url, taken_at) VALUES ($1, $2, $3)
		RETURNING id, device_id, url, taken_at
	`, s.DeviceID, s.URL, s.Timestamp)
	var out models.Screenshot
	if err := row.Scan(&out.ID, &out.DeviceID, &out.URL, &out.Timestamp); err != nil {
		return models.Screenshot{}, fmt.Errorf("database: save screenshot: %w", err)
	}
	return out, nil
}

// LatestScreenshot returns the most recently uploaded screenshot for a
// device.
func (db *DB) LatestScreenshot(ctx context.Context, deviceID string) (models.Screenshot, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, device_id, url, taken_at FROM screenshots
		WHERE device_id = $1 ORDER BY taken_at DESC LIMIT 1
	`, deviceID)
	var out models.Screenshot
	err := row.Scan(&out.ID, &out.DeviceID, &out.URL, &out.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Screenshot{}, ErrNotFound
	}
	if err != nil {
		return models.Screenshot{}, fmt.Errorf("database: latest screenshot: %w", err)
	}
	return out, nil
}
