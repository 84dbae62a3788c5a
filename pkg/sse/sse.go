// Package sse streams published messages to Server-Sent Events clients.
//
//	broker := sse.NewBroker()
//	router.Get("/orders/stream", "orders.stream", func(w http.ResponseWriter, r *http.Request) {
//	    broker.Serve(w, r, principal)
//	})
//	broker.Publish(payload, func(subject any) bool { return true })
package sse

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shashiranjanraj/littlelemon/pkg/logger"
)

const (
	sendBuffer        = 16
	heartbeatInterval = 25 * time.Second
)

type subscriber struct {
	subject any
	send    chan []byte
}

// Broker fans published messages out to every connected stream.
type Broker struct {
	mu   sync.RWMutex
	subs map[*subscriber]struct{}

	// Heartbeat is the keepalive comment interval.
	Heartbeat time.Duration
}

func NewBroker() *Broker {
	return &Broker{subs: map[*subscriber]struct{}{}, Heartbeat: heartbeatInterval}
}

// Publish queues data for every subscriber whose subject passes allow. A
// nil allow delivers to everyone. A subscriber whose buffer is full misses
// the message.
func (b *Broker) Publish(data []byte, allow func(subject any) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs {
		if allow != nil && !allow(s.subject) {
			continue
		}
		select {
		case s.send <- data:
		default:
			logger.Warn("sse: slow subscriber, message dropped")
		}
	}
}

// Subscribers returns the number of open streams.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broker) subscribe(subject any) *subscriber {
	s := &subscriber{subject: subject, send: make(chan []byte, sendBuffer)}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

func (b *Broker) unsubscribe(s *subscriber) {
	b.mu.Lock()
	delete(b.subs, s)
	b.mu.Unlock()
}

// Serve streams messages to the client as "data:" events until the request
// context ends. w may be wrapped by middleware as long as the wrappers
// expose Unwrap.
func (b *Broker) Serve(w http.ResponseWriter, r *http.Request, subject any) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		logger.WithCtx(r.Context()).Error("sse: streaming unsupported", "error", err)
		return
	}

	s := b.subscribe(subject)
	defer b.unsubscribe(s)

	heartbeat := time.NewTicker(b.Heartbeat)
	defer heartbeat.Stop()

	log := logger.WithCtx(r.Context())
	log.Info("sse: client connected")
	for {
		select {
		case <-r.Context().Done():
			log.Info("sse: client disconnected")
			return
		case data := <-s.send:
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				log.Warn("sse: write", "error", err)
				return
			}
			_ = rc.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			_ = rc.Flush()
		}
	}
}
