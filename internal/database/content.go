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

// CreateContent inserts a new content row.
func (db *DB) CreateContent(ctx context.Context, c models.Content) (models.Content, error) {
	row := db.conn.QueryRowContext(ctx, `
		INSERT INTO content (name, url, description, interactive, thumbnail_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, url, description, interactive, thumbnail_url
	`, c.Name, c.URL, c.Description, c.Interactive, c.ThumbnailURL)
	return scanContent(row)
}

// GetContent fetches one content row by id.
func (db *DB) GetContent(ctx context.Context, id int64) (models.Content, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, name, url, description, interactive, thumbnail_url FROM content WHERE id = $1
	`, id)
	return scanContent(row)
}

// ListContent returns every content row, ordered by id.
func (db *DB) ListContent(ctx context.Context) ([]models.Content, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, url, description, interactive, thumbnail_url FROM content ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("database: list content: %w", err)
	}
	defer rows.Close()

	var out []models.Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteContent removes a content row by id.
func (db *DB) DeleteContent(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM content WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("database: delete content: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanContent(row rowScanner) (models.Content, error) {
	var c models.Content
	var desc, thumb sql.NullString
	err := row.Scan(&c.ID, &c.Name, &c.URL, &desc, &c.Interactive, &thumb)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Content{}, ErrNotFound
		}
		return models.Content{}, fmt.Errorf("database: scan content: %w", err)
	}
	c.Description = desc.String
	c.ThumbnailURL = thumb.String
	return c, nil
}
