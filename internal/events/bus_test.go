package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBusDeliversToSubscriber(t *testing.T) {
	bus := NewBus(zap.NewNop(), 16)
	defer bus.Shutdown(context.Background())

	received := make(chan Event, 1)
	bus.SubscribeFunc(TradeExecuted, func(_ context.Context, e Event) error {
		received <- e
		return nil
	})

	require.NoError(t, bus.Publish(TradeExecutedEvent{BaseEvent: NewBase(TradeExecuted)}))

	select {
	case e := <-received:
		assert.Equal(t, TradeExecuted, e.Type())
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus(zap.NewNop(), 16)
	defer bus.Shutdown(context.Background())

	received := make(chan Event, 4)
	sub := bus.SubscribeFunc(StateUpdated, func(_ context.Context, e Event) error {
		received <- e
		return nil
	})
	sub.Unsubscribe()

	require.NoError(t, bus.PublishSync(context.Background(), StateUpdatedEvent{BaseEvent: NewBase(StateUpdated)}))
	assert.Empty(t, received)
}

func TestBusFansOut(t *testing.T) {
	bus := NewBus(zap.NewNop(), 16)
	defer bus.Shutdown(context.Background())

	counts := make(chan struct{}, 8)
	for i := 0; i < 3; i++ {
		bus.SubscribeFunc(CommentPosted, func(_ context.Context, _ Event) error {
			counts <- struct{}{}
			return nil
		})
	}

	require.NoError(t, bus.PublishSync(context.Background(), CommentPostedEvent{BaseEvent: NewBase(CommentPosted)}))
	assert.Len(t, counts, 3, "every subscriber sees the event")
}

func TestBusRejectsPublishAfterShutdown(t *testing.T) {
	bus := NewBus(zap.NewNop(), 1)
	require.NoError(t, bus.Shutdown(context.Background()))

	assert.Error(t, bus.Publish(TokenCreatedEvent{BaseEvent: NewBase(TokenCreated)}))
}
