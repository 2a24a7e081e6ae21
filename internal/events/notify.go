package events

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier mirrors every emitted event into the structured log.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n LogNotifier) Notify(_ context.Context, event Event) error {
	n.Logger.Info().
		Str("topic", event.Topic).
		Str("aggregate_id", event.AggregateID).
		Int64("event_id", event.ID).
		Msg("domain event")
	return nil
}
