package event_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/littlelemon/pkg/event"
	"github.com/shashiranjanraj/littlelemon/pkg/workerpool"
)

func TestFireDeliversToListenersInOrder(t *testing.T) {
	bus := event.NewBus()
	var got []string
	bus.Listen("order.placed", func(_ context.Context, e event.Event) {
		got = append(got, "first:"+e.Payload.(string))
	})
	bus.Listen("order.placed", func(_ context.Context, e event.Event) {
		got = append(got, "second:"+e.Payload.(string))
	})
	bus.Listen("order.deleted", func(_ context.Context, e event.Event) {
		got = append(got, "wrong")
	})

	bus.Fire(context.Background(), "order.placed", "7")
	assert.Equal(t, []string{"first:7", "second:7"}, got)
}

func TestFireSurvivesPanickingListener(t *testing.T) {
	bus := event.NewBus()
	called := false
	bus.Listen("x", func(context.Context, event.Event) { panic("boom") })
	bus.Listen("x", func(context.Context, event.Event) { called = true })

	bus.Fire(context.Background(), "x", nil)
	assert.True(t, called)
}

func TestFireAsyncOutlivesCancelledContext(t *testing.T) {
	bus := event.NewBus()
	var wg sync.WaitGroup
	wg.Add(1)
	var ctxErr error
	bus.Listen("x", func(ctx context.Context, _ event.Event) {
		defer wg.Done()
		ctxErr = ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.FireAsync(ctx, "x", nil)

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener not called")
	}
	require.NoError(t, ctxErr)
}

func TestFlush(t *testing.T) {
	bus := event.NewBus()
	called := false
	bus.Listen("x", func(context.Context, event.Event) { called = true })
	bus.Flush()
	bus.Fire(context.Background(), "x", nil)
	assert.False(t, called)
}

func TestFireAsyncOnPool(t *testing.T) {
	pool := workerpool.New(2, 8)
	bus := event.NewBus()
	bus.UsePool(pool)

	var got []any
	var mu sync.Mutex
	bus.Listen("order.placed", func(_ context.Context, e event.Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.Payload)
	})

	bus.FireAsync(context.Background(), "order.placed", 1)
	bus.FireAsync(context.Background(), "order.placed", 2)
	pool.Shutdown()

	assert.ElementsMatch(t, []any{1, 2}, got)
}
