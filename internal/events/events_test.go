package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/effectiveacceleration/marketplace/internal/db/models"
)

func waitTimeout(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for event handler")
	}
}

func TestEventSystem(t *testing.T) {
	t.Run("Subscribe and Publish", func(t *testing.T) {
		bus := NewBus(EventChannelSize)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		bus.Start(ctx)

		var wg sync.WaitGroup
		wg.Add(1)
		var received Event
		bus.Subscribe(models.JobEventTaken, func(ctx context.Context, event Event) error {
			received = event
			wg.Done()
			return nil
		})

		ok := bus.Publish(Event{
			JobEvent: models.JobEvent{JobID: 42, Index: 1, Type: models.JobEventTaken, Actor: "0xbb"},
			Phase:    models.JobPhaseDeliveryPending,
		})
		require.True(t, ok)
		waitTimeout(t, &wg)

		assert.Equal(t, uint(42), received.JobID)
		assert.Equal(t, uint64(1), received.Index)
		assert.Equal(t, models.JobPhaseDeliveryPending, received.Phase)
	})

	t.Run("Handlers only see their type", func(t *testing.T) {
		bus := NewBus(EventChannelSize)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		bus.Start(ctx)

		var mu sync.Mutex
		var typed, all []models.JobEventType
		var wg sync.WaitGroup
		wg.Add(3)
		bus.Subscribe(models.JobEventCreated, func(ctx context.Context, e Event) error {
			mu.Lock()
			typed = append(typed, e.Type)
			mu.Unlock()
			wg.Done()
			return nil
		})
		bus.SubscribeAll(func(ctx context.Context, e Event) error {
			mu.Lock()
			all = append(all, e.Type)
			mu.Unlock()
			wg.Done()
			return nil
		})

		bus.Publish(Event{JobEvent: models.JobEvent{JobID: 1, Type: models.JobEventCreated}})
		bus.Publish(Event{JobEvent: models.JobEvent{JobID: 1, Index: 1, Type: models.JobEventUpdated}})
		waitTimeout(t, &wg)

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []models.JobEventType{models.JobEventCreated}, typed)
		assert.ElementsMatch(t, []models.JobEventType{models.JobEventCreated, models.JobEventUpdated}, all)
	})

	t.Run("Publish never blocks", func(t *testing.T) {
		bus := NewBus(1)
		assert.True(t, bus.Publish(Event{JobEvent: models.JobEvent{JobID: 1}}))
		assert.False(t, bus.Publish(Event{JobEvent: models.JobEvent{JobID: 1, Index: 1}}))
	})

	t.Run("Handler errors do not stop the loop", func(t *testing.T) {
		bus := NewBus(EventChannelSize)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		bus.Start(ctx)

		var wg sync.WaitGroup
		wg.Add(2)
		bus.Subscribe(models.JobEventRated, func(ctx context.Context, e Event) error {
			wg.Done()
			return assert.AnError
		})
		bus.Publish(Event{JobEvent: models.JobEvent{JobID: 3, Type: models.JobEventRated}})
		bus.Publish(Event{JobEvent: models.JobEvent{JobID: 3, Index: 1, Type: models.JobEventRated}})
		waitTimeout(t, &wg)
	})

	t.Run("Subscribers see publish order", func(t *testing.T) {
		bus := NewBus(EventChannelSize)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		bus.Start(ctx)

		const total = 50
		var mu sync.Mutex
		var seen []uint64
		var wg sync.WaitGroup
		wg.Add(total)
		bus.SubscribeAll(func(ctx context.Context, e Event) error {
			mu.Lock()
			seen = append(seen, e.Index)
			mu.Unlock()
			wg.Done()
			return nil
		})

		want := make([]uint64, total)
		for i := range want {
			want[i] = uint64(i)
			require.True(t, bus.Publish(Event{JobEvent: models.JobEvent{JobID: 7, Index: uint64(i), Type: models.JobEventUpdated}}))
		}
		waitTimeout(t, &wg)

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, want, seen)
	})

	t.Run("LogHandler", func(t *testing.T) {
		assert.NoError(t, LogHandler(context.Background(), Event{JobEvent: models.JobEvent{JobID: 1}}))
	})
}
