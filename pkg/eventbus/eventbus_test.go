package eventbus

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/branch-crm/pkg/logging"
)

type wonEvent struct {
	amount int
}

type lostEvent struct{}

func TestPublish_NoMatchingSubscriberLogs(t *testing.T) {
	buf := bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetLevel(logrus.WarnLevel)

	bus := NewEventPublisher(log)
	bus.Subscribe(func(e *wonEvent) {
		t.Error("should not be called")
	})
	bus.Publish(&lostEvent{})

	require.Contains(t, buf.String(), "no matching subscribers")
}

func TestPublishE_CallsMatchingHandlersWithContext(t *testing.T) {
	bus := NewEventPublisher(logging.ConsoleLogger(logrus.WarnLevel))
	total := 0
	bus.Subscribe(func(ctx context.Context, e *wonEvent) error {
		total += e.amount
		return nil
	})
	bus.Subscribe(func(ctx context.Context, e *wonEvent) {
		total += e.amount
	})
	bus.Subscribe(func(ctx context.Context, e *lostEvent) error {
		t.Error("should not be called")
		return nil
	})

	require.NoError(t, bus.PublishE(context.Background(), &wonEvent{amount: 5}))
	require.Equal(t, 10, total)
	require.Equal(t, 3, bus.SubscribersCount())
}

func TestPublishE_JoinsErrorsAndRecoversPanics(t *testing.T) {
	bus := NewEventPublisher(nil)
	boom := errors.New("boom")
	bus.Subscribe(func(e *wonEvent) error { return boom })
	bus.Subscribe(func(e *wonEvent) error { panic("kaboom") })
	bus.Subscribe(func(e *wonEvent) (int, error) { return 0, nil })

	err := bus.PublishE(&wonEvent{})
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, err, ErrInvalidHandlerReturn)
	require.ErrorContains(t, err, "panicked")
}

func TestPublishE_NoSubscribers(t *testing.T) {
	bus := NewEventPublisher(nil)
	require.ErrorIs(t, bus.PublishE(&wonEvent{}), ErrNoSubscribers)
}

func TestMatchSignature(t *testing.T) {
	handler := func(ctx context.Context, e *wonEvent) {}
	require.True(t, MatchSignature(handler, []any{context.Background(), &wonEvent{}}))
	require.False(t, MatchSignature(handler, []any{context.Background(), &lostEvent{}}))
	require.False(t, MatchSignature(handler, []any{context.Background()}))
	require.True(t, MatchSignature(handler, []any{context.Background(), nil}))
	require.False(t, MatchSignature("not a func", nil))
}
