package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/velora-hq/backend-salon/internal/events"
)

type stubStore struct {
	lastTopic     string
	lastAggregate string
	lastPayload   []byte
}

func (s *stubStore) InsertDomainEvent(_ context.Context, topic, aggregateID string, payload []byte) (events.Event, error) {
	s.lastTopic = topic
	s.lastAggregate = aggregateID
	s.lastPayload = payload
	return events.Event{
		ID:          uuid.NewString(),
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     payload,
		OccurredAt:  time.Now(),
	}, nil
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

	event, err := bus.Emit(context.Background(), events.TopicBookingCreated, "booking-1", map[string]any{"bookingId": "booking-1"})
	require.NoError(t, err)
	require.Equal(t, events.TopicBookingCreated, store.lastTopic)
	require.Equal(t, "booking-1", store.lastAggregate)
	require.JSONEq(t, `{"bookingId":"booking-1"}`, string(store.lastPayload))
	require.Len(t, notifier.events, 1)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	require.Equal(t, "booking-1", decoded["bookingId"])
}

func TestEmitRequiresTopicAndAggregate(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}
	_, err := bus.Emit(context.Background(), "", "booking-1", nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicBookingCreated, " ", nil)
	require.Error(t, err)
}

func TestEmitNotifierFailureStillPersists(t *testing.T) {
	store := &stubStore{}
	notifier := &captureNotifier{err: errors.New("smtp down")}
	bus := events.Bus{Store: store, Notifiers: []events.Notifier{notifier}}

	_, err := bus.Emit(context.Background(), events.TopicBookingCreated, "booking-1", nil)
	require.Error(t, err)
	require.Equal(t, events.TopicBookingCreated, store.lastTopic)
}

func TestEmitRejectsInvalidJSONPayload(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}
	_, err := bus.Emit(context.Background(), events.TopicBookingCreated, "booking-1", []byte("{not json"))
	require.Error(t, err)
}
