// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/signagefleet/kioskd/internal/models"
)

// CreatePlaylist inserts a new playlist.
func (db *DB) CreatePlaylist(ctx context.Context, name string, isActive bool) (models.Playlist, error) {
	row := db.conn.QueryRowContext(ctx, `
		INSERT INTO playlists (name, is_active, created_at) VALUES ($1, $2, current_timestamp)
		RETURNING id, name, is_active, created_at
	`, name, isActive)
	return scanPlaylist(row)
}

// UpdatePlaylist mutates name/isActive on an existing playlist.
func (db *DB) UpdatePlaylist(ctx context.Context, id int64, name string, isActive bool) (models.Playlist, error) {
	row := db.conn.QueryRowContext(ctx, `
		UPDATE playlists SET name = $1, is_active = $2 WHERE id = $3
		RETURNING id, name, is_active, created_at
	`, name, isActive, id)
	return scanPlaylist(row)
}

// DeletePlaylist removes a playlist and its items.
func (db *DB) DeletePlaylist(ctx context.Context, id int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("database: delete playlist: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM playlist_items WHERE playlist_id = $1`, id); err != nil {
		return fmt.Errorf("database: delete playlist: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM device_playlists WHERE playlist_id = $1`, id); err != nil {
		return fmt.Errorf("database: delete playlist: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM playlists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("database: delete playlist: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// Playlist fetches one playlist by id, satisfying resolver.Store.
func (db *DB) Playlist(id int64) (models.Playlist, bool) {
	row := db.conn.QueryRowContext(context.Background(), `
		SELECT id, name, is_active, created_at FROM playlists WHERE id = $1
	`, id)
	p, err := scanPlaylist(row)
	if err != nil {
		return models.Playlist{}, false
	}
	return p, true
}

// ListPlaylists returns every playlist, ordered by id.
func (db *DB) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name, is_active, created_at FROM playlists ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("database: list playlists: %w", err)
	}
	defer rows.Close()
	var out []models.Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AddItem appends an item to a playlist.
func (db *DB) AddItem(ctx context.Context, item models.PlaylistItem) (models.PlaylistItem, error) {
	row := db.conn.QueryRowContext(ctx, `
		INSERT INTO playlist_items (playlist_id, content_id, order_index, display_duration, time_window_start, time_window_end, days_of_week)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, playlist_id, content_id, order_index, display_duration, time_window_start, time_window_end, days_of_week
	`, item.PlaylistID, item.ContentID, item.OrderIndex, item.DisplayDuration, item.TimeWindowStart, item.TimeWindowEnd, encodeDays(item.DaysOfWeek))
	it, err := scanItem(row)
	if err != nil {
		return models.PlaylistItem{}, err
	}
	content, err := db.GetContent(ctx, it.ContentID)
	if err == nil {
		it.Content = content
	}
	return it, nil
}

// UpdateItem mutates an existing playlist item.
func (db *DB) UpdateItem(ctx context.Context, item models.PlaylistItem) (models.PlaylistItem, error) {
	row := db.conn.QueryRowContext(ctx, `
		UPDATE playlist_items SET content_id=$1, order_index=$2, display_duration=$3,
			time_window_start=$4, time_window_end=$5, days_of_week=$6
		WHERE id = $7
		RETURNING id, playlist_id, content_id, order_index, display_duration, time_window_start, time_window_end, days_of_week
	`, item.ContentID, item.OrderIndex, item.DisplayDuration, item.TimeWindowStart, item.TimeWindowEnd, encodeDays(item.DaysOfWeek), item.ID)
	return scanItem(row)
}

// DeleteItem removes a playlist item by id.
func (db *DB) DeleteItem(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM playlist_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("database: delete item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ItemPlaylistID returns the playlist id an item belongs to, used by
// callers that only have an item id (item mutation affected-devices step,
// spec §4.5).
func (db *DB) ItemPlaylistID(ctx context.Context, itemID int64) (int64, error) {
	var playlistID int64
	err := db.conn.QueryRowContext(ctx, `SELECT playlist_id FROM playlist_items WHERE id = $1`, itemID).Scan(&playlistID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return playlistID, err
}

// ItemsForPlaylist returns every item of a playlist, joined with its
// content, sorted by order index (I4). Satisfies resolver.Store.
func (db *DB) ItemsForPlaylist(playlistID int64) []models.PlaylistItem {
	rows, err := db.conn.QueryContext(context.Background(), `
		SELECT id, playlist_id, content_id, order_index, display_duration, time_window_start, time_window_end, days_of_week
		FROM playlist_items WHERE playlist_id = $1 ORDER BY order_index ASC
	`, playlistID)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []models.PlaylistItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			continue
		}
		if content, err := db.GetContent(context.Background(), it.ContentID); err == nil {
			it.Content = content
		}
		out = append(out, it)
	}
	return out
}

func scanPlaylist(row rowScanner) (models.Playlist, error) {
	var p models.Playlist
	err := row.Scan(&p.ID, &p.Name, &p.IsActive, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Playlist{}, ErrNotFound
		}
		return models.Playlist{}, fmt.Errorf("database: scan playlist: %w", err)
	}
	return p, nil
}

func scanItem(row rowScanner) (models.PlaylistItem, error) {
	var it models.PlaylistItem
	var winStart, winEnd, days sql.NullString
	err := row.Scan(&it.ID, &it.PlaylistID, &it.ContentID, &it.OrderIndex, &it.DisplayDuration, &winStart, &winEnd, &days)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PlaylistItem{}, ErrNotFound
		}
		return models.PlaylistItem{}, fmt.Errorf("database: scan item: %w", err)
	}
	it.TimeWindowStart = winStart.String
	it.TimeWindowEnd = winEnd.String
	it.DaysOfWeek = decodeDays(days.String)
	return it, nil
}

func encodeDays(days []int) string {
	if days == nil {
		return ""
	}
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

// decodeDays returns nil both for an absent column and for an empty string
// (encodeDays writes nil and empty slices alike as ""), so "not set" and
// "set to empty" read back the same (see DESIGN.md's Open Question
// decision: both are treated as "no restriction" by internal/executor).
func decodeDays(s string) []int {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if n, err := strconv.Atoi(p); err == nil {
			out = append(out, n)
		}
	}
	return out
}
