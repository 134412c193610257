// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audit records security- and fleet-control-relevant events for
// forensic review: who did what to which device or playlist, and whether
// it succeeded. Narrowed from the teacher's internal/audit package (which
// covers login/detection/user-management events from an unrelated domain)
// down to the event types this control plane actually emits.
package audit

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// EventType categorizes an audit event.
type EventType string

const (
	EventTypeAuthSuccess EventType = "auth.success"
	EventTypeAuthFailure EventType = "auth.failure"

	EventTypeAuthzDenied EventType = "authz.denied"

	EventTypeDeviceClaimed    EventType = "device.claimed"
	EventTypeDeviceDeleted    EventType = "device.deleted"
	EventTypeDeviceNavigate   EventType = "device.navigate"
	EventTypeDeviceRestart    EventType = "device.restart"
	EventTypePlaylistAssigned EventType = "playlist.assigned"
	EventTypePlaylistUnassigned EventType = "playlist.unassigned"
	EventTypeBroadcastStarted EventType = "broadcast.started"
	EventTypeBroadcastEnded   EventType = "broadcast.ended"
)

// Severity is how loudly an event should be surfaced.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Outcome records whether the action this event describes succeeded.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Actor identifies who performed the action: an admin user or a device
// acting on its own session.
type Actor struct {
	ID   string `json:"id"`
	Type string `json:"type"` // "admin" or "device"
}

// Target identifies what the action was performed against.
type Target struct {
	ID   string `json:"id"`
	Type string `json:"type"` // "device", "playlist", "content", "broadcast"
}

// Event is one recorded audit entry.
type Event struct {
	ID            string          `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	Type          EventType       `json:"type"`
	Severity      Severity        `json:"severity"`
	Outcome       Outcome         `json:"outcome"`
	Actor         Actor           `json:"actor"`
	Target        *Target         `json:"target,omitempty"`
	Action        string          `json:"action"`
	Description   string          `json:"description"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
}

// QueryFilter narrows Query results.
type QueryFilter struct {
	Types     []EventType
	ActorID   string
	TargetID  string
	Since     time.Time
	Until     time.Time
	Limit     int
}

// DefaultQueryFilter caps an unbounded query at a sane page size.
func DefaultQueryFilter() QueryFilter {
	return QueryFilter{Limit: 100}
}

// Store persists and retrieves audit events.
type Store interface {
	Save(ctx context.Context, event Event) error
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)
	Delete(ctx context.Context, olderThan time.Time) (int64, error)
}
