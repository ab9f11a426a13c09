package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/amirhzm/backend-kedai/internal/events"
	"github.com/amirhzm/backend-kedai/internal/store"
)

type stubStore struct {
	lastTopic   string
	lastPayload []byte
	err         error
}

func (s *stubStore) InsertDomainEvent(_ context.Context, topic string, aggregateID pgtype.UUID, payload []byte) (store.DomainEvent, error) {
	s.lastTopic = topic
	s.lastPayload = payload
	if s.err != nil {
		return store.DomainEvent{}, s.err
	}
	id := uuid.New()
	return store.DomainEvent{
		ID:          pgtype.UUID{Bytes: id, Valid: true},
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     payload,
		OccurredAt:  pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}, nil
}

type captureNotifier struct {
	events []store.DomainEvent
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, event store.DomainEvent) error {
	c.events = append(c.events, event)
	return c.err
}

func toUUID(u uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: u, Valid: true}
}

func TestEmitPersistsAndFansOut(t *testing.T) {
	st := &stubStore{}
	notifier := &captureNotifier{}
	bus := events.Bus{Store: st, Notifiers: []events.Notifier{notifier}}

	aggregate := uuid.New()
	event, err := bus.Emit(context.Background(), events.TopicOrderPaid, toUUID(aggregate), map[string]any{"orderId": "123"})
	require.NoError(t, err)
	require.Equal(t, events.TopicOrderPaid, st.lastTopic)
	require.JSONEq(t, `{"orderId":"123"}`, string(st.lastPayload))
	require.Len(t, notifier.events, 1)
	require.Equal(t, event.ID, notifier.events[0].ID)
}

func TestEmitRequiresTopicAndAggregate(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}

	_, err := bus.Emit(context.Background(), "  ", toUUID(uuid.New()), nil)
	require.Error(t, err)

	_, err = bus.Emit(context.Background(), events.TopicOrderPaid, pgtype.UUID{}, nil)
	require.Error(t, err)
}

func TestEmitNilPayloadDefaultsToEmptyObject(t *testing.T) {
	st := &stubStore{}
	bus := events.Bus{Store: st}

	_, err := bus.Emit(context.Background(), events.TopicPaymentFailed, toUUID(uuid.New()), nil)
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(st.lastPayload))
}

func TestEmitRejectsInvalidJSONString(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}

	_, err := bus.Emit(context.Background(), events.TopicOrderPaid, toUUID(uuid.New()), "{not json")
	require.Error(t, err)
}

func TestEmitNotifierErrorStillReturnsEvent(t *testing.T) {
	st := &stubStore{}
	notifier := &captureNotifier{err: errors.New("smtp down")}
	bus := events.Bus{Store: st, Notifiers: []events.Notifier{notifier}}

	event, err := bus.Emit(context.Background(), events.TopicOrderPaid, toUUID(uuid.New()), nil)
	require.Error(t, err)
	require.True(t, event.ID.Valid)
	require.Len(t, notifier.events, 1)
}
