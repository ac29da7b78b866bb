package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Row is the subset of pgx query methods the store needs.
type Row interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore persists domain events in PostgreSQL.
type PGStore struct {
	DB Row
}

// InsertDomainEvent appends an event to the domain_events table.
func (s *PGStore) InsertDomainEvent(ctx context.Context, topic, aggregateID string, payload []byte) (Event, error) {
	ev := Event{
		ID:          uuid.NewString(),
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     payload,
	}
	row := s.DB.QueryRow(ctx,
		`INSERT INTO domain_events (id, topic, aggregate_id, payload) VALUES ($1, $2, $3, $4) RETURNING occurred_at`,
		ev.ID, topic, aggregateID, payload)
	var occurredAt time.Time
	if err := row.Scan(&occurredAt); err != nil {
		return Event{}, fmt.Errorf("insert domain event: %w", err)
	}
	ev.OccurredAt = occurredAt
	return ev, nil
}
