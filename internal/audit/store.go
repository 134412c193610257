// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DuckDBStore persists audit events to the same embedded DuckDB file the
// Persistence Adapter uses, in its own table. A fresh, far smaller
// replacement for the teacher's duckdb_store.go, which queried across a
// dozen unrelated entity tables this domain doesn't have.
type DuckDBStore struct {
	conn *sql.DB
}

// NewDuckDBStore wraps an already-open *sql.DB and ensures the audit table
// exists. Takes the raw *sql.DB rather than *database.DB so this package
// doesn't need to depend on the Persistence Adapter's breaker wiring —
// audit writes are best-effort and never gate a control-plane operation.
func NewDuckDBStore(conn *sql.DB) (*DuckDBStore, error) {
	s := &DuckDBStore{conn: conn}
	if _, err := conn.ExecContext(context.Background(), `
		CREATE TABLE IF NOT EXISTS audit_events (
			id VARCHAR PRIMARY KEY,
			occurred_at TIMESTAMP NOT NULL,
			event_type VARCHAR NOT NULL,
			severity VARCHAR NOT NULL,
			outcome VARCHAR NOT NULL,
			actor_id VARCHAR NOT NULL,
			actor_type VARCHAR NOT NULL,
			target_id VARCHAR,
			target_type VARCHAR,
			action VARCHAR NOT NULL,
			description VARCHAR,
			metadata VARCHAR,
			correlation_id VARCHAR
		)
	`); err != nil {
		return nil, fmt.Errorf("audit: ensure schema: %w", err)
	}
	return s, nil
}

// Save persists event, assigning it a fresh id if it doesn't have one.
func (s *DuckDBStore) Save(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	var targetID, targetType sql.NullString
	if event.Target != nil {
		targetID = sql.NullString{String: event.Target.ID, Valid: true}
		targetType = sql.NullString{String: event.Target.Type, Valid: true}
	}

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO audit_events (
			id, occurred_at, event_type, severity, outcome,
			actor_id, actor_type, target_id, target_type,
			action, description, metadata, correlation_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		event.ID, event.Timestamp, string(event.Type), string(event.Severity), string(event.Outcome),
		event.Actor.ID, event.Actor.Type, targetID, targetType,
		event.Action, event.Description, string(event.Metadata), event.CorrelationID,
	)
	if err != nil {
		return fmt.Errorf("audit: save: %w", err)
	}
	return nil
}

// Query returns events matching filter, most recent first.
func (s *DuckDBStore) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, occurred_at, event_type, severity, outcome,
		actor_id, actor_type, target_id, target_type, action, description, metadata, correlation_id
		FROM audit_events WHERE 1=1`
	var args []any
	argN := 1

	if filter.ActorID != "" {
		query += fmt.Sprintf(" AND actor_id = $%d", argN)
		args = append(args, filter.ActorID)
		argN++
	}
	if filter.TargetID != "" {
		query += fmt.Sprintf(" AND target_id = $%d", argN)
		args = append(args, filter.TargetID)
		argN++
	}
	if !filter.Since.IsZero() {
		query += fmt.Sprintf(" AND occurred_at >= $%d", argN)
		args = append(args, filter.Since)
		argN++
	}
	if !filter.Until.IsZero() {
		query += fmt.Sprintf(" AND occurred_at <= $%d", argN)
		args = append(args, filter.Until)
		argN++
	}
	query += fmt.Sprintf(" ORDER BY occurred_at DESC LIMIT %d", limit)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: query: %w", err)
	}
	defer rows.Close()

	typeSet := make(map[EventType]bool, len(filter.Types))
	for _, t := range filter.Types {
		typeSet[t] = true
	}

	var out []Event
	for rows.Next() {
		var e Event
		var targetID, targetType sql.NullString
		var metadata string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Type, &e.Severity, &e.Outcome,
			&e.Actor.ID, &e.Actor.Type, &targetID, &targetType, &e.Action, &e.Description, &metadata, &e.CorrelationID); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		if len(typeSet) > 0 && !typeSet[e.Type] {
			continue
		}
		if targetID.Valid {
			e.Target = &Target{ID: targetID.String, Type: targetType.String}
		}
		e.Metadata = []byte(metadata)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes events older than olderThan (retention sweep).
func (s *DuckDBStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM audit_events WHERE occurred_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("audit: delete: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
