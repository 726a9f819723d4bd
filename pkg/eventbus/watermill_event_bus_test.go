package eventbus_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/flowforge/pkg/channels/gochannel"
	"github.com/dukex/flowforge/pkg/eventbus"
	"github.com/dukex/flowforge/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NewSlogLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() {
		assert.NoError(t, bus.Close())
	})

	return bus
}

func TestWatermillEventBus_PublishAndSubscribe(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *events.FlowPublished, 1)

	require.NoError(t, bus.Handle(events.FlowPublishedEvent, func(ctx context.Context, event any) error {
		if published, ok := event.(*events.FlowPublished); ok {
			received <- published
		}

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	sent := events.FlowPublished{
		BaseEvent:   events.NewBaseEvent(events.FlowPublishedEvent, "FLOW-1", "org"),
		VersionCode: "FLOWVERSION-1",
		Enabled:     true,
		Rollback:    true,
	}
	require.NoError(t, bus.Publish(ctx, "FLOW-1", sent))

	select {
	case event := <-received:
		assert.Equal(t, sent.ID, event.ID)
		assert.Equal(t, "FLOW-1", event.FlowCode)
		assert.Equal(t, "FLOWVERSION-1", event.VersionCode)
		assert.True(t, event.Rollback)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBus_RoutesByType(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	saved := make(chan *events.FlowSaved, 1)
	published := make(chan *events.FlowPublished, 1)

	require.NoError(t, bus.Handle(events.FlowSavedEvent, func(ctx context.Context, event any) error {
		saved <- event.(*events.FlowSaved)

		return nil
	}))
	require.NoError(t, bus.Handle(events.FlowPublishedEvent, func(ctx context.Context, event any) error {
		published <- event.(*events.FlowPublished)

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	require.NoError(t, bus.Publish(ctx, "FLOW-1", events.FlowSaved{
		BaseEvent: events.NewBaseEvent(events.FlowSavedEvent, "FLOW-1", ""),
		Created:   true,
	}))

	select {
	case event := <-saved:
		assert.True(t, event.Created)
	case <-time.After(5 * time.Second):
		t.Fatal("saved event was not delivered")
	}

	assert.Empty(t, published)
}

func TestWatermillEventBus_UnhandledTypeIsAcked(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	done := make(chan error, 1)
	go func() {
		done <- bus.Publish(ctx, "FLOW-1", events.FlowDeleted{
			BaseEvent: events.NewBaseEvent(events.FlowDeletedEvent, "FLOW-1", ""),
		})
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("publish blocked on an unhandled event")
	}
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	bus := newTestBus(t)

	assert.NotEmpty(t, bus.GenerateID())
	assert.NotEqual(t, bus.GenerateID(), bus.GenerateID())
}
