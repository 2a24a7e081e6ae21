package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-billing/internal/events"
)

type stubStore struct {
	inserted []events.Event
	nextID   int64
}

func (s *stubStore) InsertEvent(_ context.Context, topic, aggregateID string, payload []byte) (events.Event, error) {
	s.nextID++
	ev := events.Event{
		ID:          s.nextID,
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     payload,
		OccurredAt:  time.Now(),
	}
	s.inserted = append(s.inserted, ev)
	return ev, nil
}

func (s *stubStore) ListEvents(_ context.Context, topic string, limit, offset int) ([]events.Event, int64, error) {
	return s.inserted, int64(len(s.inserted)), nil
}

type captureNotifier struct {
	events []events.Event
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return c.err
}

func TestEmitPersistsEvent(t *testing.T) {
	store := &stubStore{}
	notifier := &captureNotifier{}
	bus := events.Bus{Store: store, Notifiers: []events.Notifier{notifier}}

	invoiceID := uuid.NewString()
	payload := map[string]any{"invoiceNo": "INV-2026-000042", "final": "566"}
	event, err := bus.Emit(context.Background(), events.TopicInvoiceFinalized, invoiceID, payload)
	require.NoError(t, err)
	require.Equal(t, int64(1), event.ID)
	require.Equal(t, events.TopicInvoiceFinalized, event.Topic)
	require.Equal(t, invoiceID, event.AggregateID)
	require.Len(t, notifier.events, 1)
	require.Equal(t, event.ID, notifier.events[0].ID)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	require.Equal(t, "INV-2026-000042", decoded["invoiceNo"])
}

func TestEmitValidation(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}
	ctx := context.Background()

	_, err := bus.Emit(ctx, "  ", "inv-1", nil)
	require.Error(t, err)

	_, err = bus.Emit(ctx, events.TopicStockReceived, "", nil)
	require.Error(t, err)

	_, err = bus.Emit(ctx, events.TopicStockReceived, "entry-1", []byte("not json"))
	require.Error(t, err)
}

func TestEmitSurvivesNotifierFailure(t *testing.T) {
	store := &stubStore{}
	failing := &captureNotifier{err: errors.New("sink down")}
	bus := events.Bus{Store: store, Notifiers: []events.Notifier{failing}}

	_, err := bus.Emit(context.Background(), events.TopicStockReceived, "entry-1", nil)
	require.Error(t, err)
	// The event is still persisted even when a notifier fails.
	require.Len(t, store.inserted, 1)
	require.JSONEq(t, `{}`, string(store.inserted[0].Payload))
}
