package outbox

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domoutbox "github.com/Zhima-Mochi/vending-machine/internal/domain/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingEvent struct{ n int }

func (pingEvent) EventName() string { return "test.ping" }

func TestPublishFansOutToEverySubscriber(t *testing.T) {
	bus := NewBus(nil, nil)
	var mu sync.Mutex
	got := map[string]int{}
	for _, name := range []string{"a", "b"} {
		bus.Subscribe("test.ping", func(_ context.Context, e domoutbox.Event) error {
			mu.Lock()
			defer mu.Unlock()
			got[name] += e.(pingEvent).n
			return nil
		})
	}
	ctx := context.Background()
	bus.Start(ctx)

	require.NoError(t, bus.Publish(ctx, pingEvent{n: 2}))
	require.NoError(t, bus.Publish(ctx, pingEvent{n: 3}))
	require.NoError(t, bus.Stop(ctx))

	assert.Equal(t, map[string]int{"a": 5, "b": 5}, got)
}

func TestHandlerFailuresDoNotStopDelivery(t *testing.T) {
	bus := NewBus(nil, nil)
	var calls atomic.Int32
	bus.Subscribe("test.ping", func(context.Context, domoutbox.Event) error {
		calls.Add(1)
		panic("boom")
	})
	bus.Subscribe("test.ping", func(context.Context, domoutbox.Event) error {
		calls.Add(1)
		return errors.New("nope")
	})
	ctx := context.Background()
	bus.Start(ctx)

	require.NoError(t, bus.Publish(ctx, pingEvent{}))
	require.NoError(t, bus.Publish(ctx, pingEvent{}))
	require.NoError(t, bus.Stop(ctx))

	assert.EqualValues(t, 4, calls.Load())
}

func TestPublishAfterStop(t *testing.T) {
	bus := NewBus(nil, nil)
	ctx := context.Background()
	bus.Start(ctx)
	require.NoError(t, bus.Stop(ctx))

	assert.ErrorIs(t, bus.Publish(ctx, pingEvent{}), ErrClosed)
	assert.NoError(t, bus.Publish(ctx, nil))
	assert.NoError(t, bus.Stop(ctx))
}

func TestStopWithoutStart(t *testing.T) {
	bus := NewBus(nil, nil)
	require.NoError(t, bus.Publish(context.Background(), pingEvent{}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, bus.Stop(ctx))
}

func TestEventsWithoutSubscribersAreDropped(t *testing.T) {
	bus := NewBus(nil, nil)
	ctx := context.Background()
	bus.Start(ctx)
	assert.NoError(t, bus.Publish(ctx, pingEvent{}))
	assert.NoError(t, bus.Stop(ctx))
}
