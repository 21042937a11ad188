package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"codedrop/contexts/distribution/claim-allocation-engine/ports"
)

func TestKafkaDeliversToEverySubscriber(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus, err := NewKafka([]string{"localhost:9092"}, nil)
	require.NoError(t, err)

	ctx := context.Background()
	first := make(chan ports.EventEnvelope, 1)
	second := make(chan ports.EventEnvelope, 1)
	require.NoError(t, bus.Subscribe(ctx, "codedrop.claim_recorded", "group-a", func(_ context.Context, event ports.EventEnvelope) error {
		first <- event
		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx, "codedrop.claim_recorded", "group-b", func(_ context.Context, event ports.EventEnvelope) error {
		second <- event
		return errors.New("handler errors are logged, not fatal")
	}))

	require.NoError(t, bus.Publish(ctx, "codedrop.claim_recorded", ports.EventEnvelope{EventID: "evt_1", EventType: "codedrop.claim_recorded"}))
	require.NoError(t, bus.Publish(ctx, "codedrop.other", ports.EventEnvelope{EventID: "evt_2"}))

	for _, ch := range []chan ports.EventEnvelope{first, second} {
		select {
		case event := <-ch:
			require.Equal(t, "evt_1", event.EventID)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for delivery")
		}
	}

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())
	require.ErrorIs(t, bus.Publish(ctx, "codedrop.claim_recorded", ports.EventEnvelope{}), ErrBusClosed)
	require.ErrorIs(t, bus.Subscribe(ctx, "codedrop.claim_recorded", "late", func(context.Context, ports.EventEnvelope) error { return nil }), ErrBusClosed)
}

func TestKafkaSubscriptionEndsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus, err := NewKafka(nil, nil)
	require.NoError(t, err)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, bus.Subscribe(ctx, "topic", "group", func(context.Context, ports.EventEnvelope) error { return nil }))
	cancel()

	require.Eventually(t, func() bool {
		bus.mu.RLock()
		defer bus.mu.RUnlock()
		return len(bus.subscribers["topic"]) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestKafkaDropsEventsForFullSubscriber(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus, err := NewKafka(nil, nil)
	require.NoError(t, err)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	require.NoError(t, bus.Subscribe(context.Background(), "slow", "group", func(context.Context, ports.EventEnvelope) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	}))

	require.NoError(t, bus.Publish(context.Background(), "slow", ports.EventEnvelope{EventID: "first"}))
	<-started
	for i := 0; i < subscriberBuffer+10; i++ {
		require.NoError(t, bus.Publish(context.Background(), "slow", ports.EventEnvelope{EventID: "burst"}))
	}

	close(release)
	require.NoError(t, bus.Close())
}
