package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-billing/internal/events"
)

// EventsRepo persists the domain event trail.
type EventsRepo struct {
	Pool *pgxpool.Pool
}

// InsertEvent appends one event and returns the stored row.
func (r EventsRepo) InsertEvent(ctx context.Context, topic, aggregateID string, payload []byte) (events.Event, error) {
	var (
		ev         events.Event
		occurredAt pgtype.Timestamptz
	)
	err := r.Pool.QueryRow(ctx, `
		INSERT INTO domain_events (topic, aggregate_id, payload)
		VALUES ($1, $2, $3)
		RETURNING id, topic, aggregate_id, payload, occurred_at`,
		topic, aggregateID, payload,
	).Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &ev.Payload, &occurredAt)
	if err != nil {
		return events.Event{}, err
	}
	ev.OccurredAt = occurredAt.Time
	return ev, nil
}

// ListEvents returns a page of events, newest first. An empty topic matches all.
func (r EventsRepo) ListEvents(ctx context.Context, topic string, limit, offset int) ([]events.Event, int64, error) {
	var total int64
	err := r.Pool.QueryRow(ctx,
		`SELECT count(*) FROM domain_events WHERE ($1 = '' OR topic = $1)`,
		topic,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.Pool.Query(ctx, `
		SELECT id, topic, aggregate_id, payload, occurred_at
		FROM domain_events
		WHERE ($1 = '' OR topic = $1)
		ORDER BY id DESC
		LIMIT $2 OFFSET $3`,
		topic, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []events.Event{}
	for rows.Next() {
		var (
			ev         events.Event
			occurredAt pgtype.Timestamptz
		)
		if err := rows.Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &ev.Payload, &occurredAt); err != nil {
			return nil, 0, err
		}
		ev.OccurredAt = occurredAt.Time
		items = append(items, ev)
	}
	return items, total, rows.Err()
}
