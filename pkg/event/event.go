// Package event is an in-process publish/subscribe dispatcher.
package event

import (
	"context"
	"sync"

	"github.com/shashiranjanraj/littlelemon/pkg/logger"
	"github.com/shashiranjanraj/littlelemon/pkg/workerpool"
)

// Event is what listeners receive.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"payload"`
}

// Handler is a listener callback.
type Handler func(ctx context.Context, e Event)

// Bus holds listeners keyed by event name.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	pool     *workerpool.Pool
}

func NewBus() *Bus {
	return &Bus{handlers: map[string][]Handler{}}
}

// Listen registers a handler for the given event name.
func (b *Bus) Listen(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

func (b *Bus) listeners(name string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	hs := make([]Handler, len(b.handlers[name]))
	copy(hs, b.handlers[name])
	return hs
}

// Fire dispatches synchronously to every listener of name. A panicking
// listener is logged and does not stop the others.
func (b *Bus) Fire(ctx context.Context, name string, payload any) {
	e := Event{Name: name, Payload: payload}
	for _, h := range b.listeners(name) {
		call(ctx, h, e)
	}
}

// UsePool runs FireAsync listeners on p instead of one goroutine each. When
// p is full the listener call is dropped and logged.
func (b *Bus) UsePool(p *workerpool.Pool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pool = p
}

// FireAsync dispatches to every listener off the caller's goroutine and
// returns immediately. Listeners get a context detached from the caller's
// cancellation so they outlive the request.
func (b *Bus) FireAsync(ctx context.Context, name string, payload any) {
	e := Event{Name: name, Payload: payload}
	detached := context.WithoutCancel(ctx)

	b.mu.RLock()
	pool := b.pool
	b.mu.RUnlock()

	for _, h := range b.listeners(name) {
		h := h
		if pool == nil {
			go call(detached, h, e)
			continue
		}
		if err := pool.Submit(func() { call(detached, h, e) }); err != nil {
			logger.WithCtx(ctx).Warn("event dropped", "event", name, "error", err)
		}
	}
}

// Flush removes all listeners.
func (b *Bus) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = map[string][]Handler{}
}

func call(ctx context.Context, h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithCtx(ctx).Error("event listener panicked", "event", e.Name, "panic", r)
		}
	}()
	h(ctx, e)
}
