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

var ErrDuplicateAssignment = errors.New("database: device already assigned to playlist")

// AssignPlaylist creates a (deviceId, playlistId) assignment. Returns
// ErrDuplicateAssignment on a repeat of an existing pair (spec S6: 409 on
// double-assign).
func (db *DB) AssignPlaylist(ctx context.Context, deviceSurrogateID, playlistID int64) (models.DevicePlaylistAssignment, error) {
	row := db.conn.QueryRowContext(ctx, `
		INSERT INTO device_playlists (device_id, playlist_id, created_at)
		VALUES ($1, $2, current_timestamp)
		ON CONFLICT (device_id, playlist_id) DO NOTHING
		RETURNING id, device_id, playlist_id, created_at
	`, deviceSurrogateID, playlistID)

	var a models.DevicePlaylistAssignment
	err := row.Scan(&a.ID, &a.DeviceID, &a.PlaylistID, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DevicePlaylistAssignment{}, ErrDuplicateAssignment
	}
	if err != nil {
		return models.DevicePlaylistAssignment{}, fmt.Errorf("database: assign playlist: %w", err)
	}
	return a, nil
}

// UnassignPlaylist removes a (deviceId, playlistId) assignment.
func (db *DB) UnassignPlaylist(ctx context.Context, deviceSurrogateID, playlistID int64) error {
	res, err := db.conn.ExecContext(ctx, `
		DELETE FROM device_playlists WHERE device_id = $1 AND playlist_id = $2
	`, deviceSurrogateID, playlistID)
	if err != nil {
		return fmt.Errorf("database: unassign playlist: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeviceSurrogateID looks up the numeric id for a device's string id.
// Satisfies resolver.Store.
func (db *DB) DeviceSurrogateID(deviceID string) (int64, bool) {
	var id int64
	err := db.conn.QueryRowContext(context.Background(), `SELECT id FROM devices WHERE device_id = $1`, deviceID).Scan(&id)
	return id, err == nil
}

// AssignmentsForDevice returns every assignment for a device. Satisfies
// resolver.Store.
func (db *DB) AssignmentsForDevice(deviceSurrogateID int64) []models.DevicePlaylistAssignment {
	rows, err := db.conn.QueryContext(context.Background(), `
		SELECT id, device_id, playlist_id, created_at FROM device_playlists WHERE device_id = $1
	`, deviceSurrogateID)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []models.DevicePlaylistAssignment
	for rows.Next() {
		var a models.DevicePlaylistAssignment
		if err := rows.Scan(&a.ID, &a.DeviceID, &a.PlaylistID, &a.CreatedAt); err == nil {
			out = append(out, a)
		}
	}
	return out
}

// DevicesAssignedToPlaylist returns the string deviceIds assigned to a
// playlist (spec §4.5 step 1: playlist/item mutation affected-devices).
func (db *DB) DevicesAssignedToPlaylist(ctx context.Context, playlistID int64) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT d.device_id FROM devices d
		JOIN device_playlists dp ON dp.device_id = d.id
		WHERE dp.playlist_id = $1
	`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("database: devices for playlist: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err == nil {
			out = append(out, id)
		}
	}
	return out, rows.Err()
}

// DeviceIDForSurrogate is the reverse of DeviceSurrogateID, used when an
// assignment mutation only carries the numeric id.
func (db *DB) DeviceIDForSurrogate(ctx context.Context, surrogateID int64) (string, error) {
	var id string
	err := db.conn.QueryRowContext(ctx, `SELECT device_id FROM devices WHERE id = $1`, surrogateID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return id, err
}
