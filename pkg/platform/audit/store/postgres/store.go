package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "candlepin/pkg/domain"
	audit "candlepin/pkg/platform/audit"
	txcontext "candlepin/pkg/platform/tx"
)

// Store implements audit.Store using the transactional outbox pattern.
// Append writes to the outbox inside the caller's transaction (when one is in
// context) so a consumer status update and its change event commit together.
// A relay outside this service drains the outbox.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// outboxPayload is the JSON structure relayed to subscribers.
type outboxPayload struct {
	ID             string   `json:"id"`
	Category       string   `json:"category"`
	Timestamp      string   `json:"timestamp"`
	ConsumerID     string   `json:"consumer_id,omitempty"`
	OwnerID        string   `json:"owner_id,omitempty"`
	Subject        string   `json:"subject,omitempty"`
	Action         string   `json:"action"`
	Status         string   `json:"status,omitempty"`
	PreviousStatus string   `json:"previous_status,omitempty"`
	Hash           string   `json:"hash,omitempty"`
	Reasons        []string `json:"reasons,omitempty"`
	RequestID      string   `json:"request_id,omitempty"`
}

// Append writes an audit event to the outbox table and the queryable
// audit_events table.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()
	category := audit.AuditEvent(event.Action).Category()

	payload := outboxPayload{
		ID:             eventID.String(),
		Category:       string(category),
		Timestamp:      event.Timestamp.Format(time.RFC3339Nano),
		Subject:        event.Subject,
		Action:         event.Action,
		Status:         event.Status,
		PreviousStatus: event.PreviousStatus,
		Hash:           event.Hash,
		Reasons:        event.Reasons,
		RequestID:      event.RequestID,
	}
	aggregateType := "audit"
	aggregateID := eventID.String()
	if !event.ConsumerID.IsNil() {
		payload.ConsumerID = event.ConsumerID.String()
		aggregateType = "consumer"
		aggregateID = event.ConsumerID.String()
	}
	if !event.OwnerID.IsNil() {
		payload.OwnerID = event.OwnerID.String()
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	exec := txcontext.Execer(ctx, s.db)
	_, err = exec.ExecContext(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New(), aggregateType, aggregateID, event.Action, payloadBytes, time.Now())
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}

	_, err = exec.ExecContext(ctx, `
		INSERT INTO audit_events (
			id, category, timestamp, consumer_id, owner_id, subject, action,
			status, previous_status, hash, reasons, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`,
		eventID,
		string(category),
		event.Timestamp,
		nullableUUID(uuid.UUID(event.ConsumerID)),
		nullableUUID(uuid.UUID(event.OwnerID)),
		event.Subject,
		event.Action,
		event.Status,
		event.PreviousStatus,
		event.Hash,
		pq.Array(event.Reasons),
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByConsumer returns events for a consumer, newest first.
func (s *Store) ListByConsumer(ctx context.Context, consumerID id.ConsumerID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, timestamp, consumer_id, owner_id, subject, action,
			   status, previous_status, hash, reasons, request_id
		FROM audit_events
		WHERE consumer_id = $1
		ORDER BY timestamp DESC
	`, uuid.UUID(consumerID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, timestamp, consumer_id, owner_id, subject, action,
			   status, previous_status, hash, reasons, request_id
		FROM audit_events
		ORDER BY timestamp DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event

	for rows.Next() {
		var (
			category   string
			event      audit.Event
			consumerID *uuid.UUID
			ownerID    *uuid.UUID
		)

		err := rows.Scan(
			&category,
			&event.Timestamp,
			&consumerID,
			&ownerID,
			&event.Subject,
			&event.Action,
			&event.Status,
			&event.PreviousStatus,
			&event.Hash,
			pq.Array(&event.Reasons),
			&event.RequestID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}

		event.Category = audit.EventCategory(category)
		if consumerID != nil {
			event.ConsumerID = id.ConsumerID(*consumerID)
		}
		if ownerID != nil {
			event.OwnerID = id.OwnerID(*ownerID)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}

	return events, nil
}

func nullableUUID(u uuid.UUID) *uuid.UUID {
	if u == uuid.Nil {
		return nil
	}
	return &u
}
