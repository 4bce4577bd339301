package eventbus

import (
	"log/slog"
	"sync"
)

// DefaultBufferSize is the default channel buffer size for subscribers.
const DefaultBufferSize = 100

type subscriberEntry struct {
	ch chan Event
}

// Router is a channel-based pub/sub hub: producers (the supervisor's log
// pump, the ban registry, the vote engine) call Emit; consumers (the
// Dashboard) call Subscribe.
type Router struct {
	log *slog.Logger

	mu          sync.RWMutex
	subscribers []subscriberEntry
	bufferSize  int
	closed      bool
}

// NewRouter creates a router using bufferSize for new subscriptions
// created via Subscribe. A non-positive bufferSize falls back to
// DefaultBufferSize.
func NewRouter(log *slog.Logger, bufferSize int) *Router {
	if log == nil {
		log = slog.Default()
	}
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Router{log: log, bufferSize: bufferSize}
}

// Emit publishes an event to all subscribers, non-blocking. A subscriber
// whose channel is full has the event dropped for it, with a warning
// logged. Safe to call concurrently, and a no-op after Close.
func (r *Router) Emit(event Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return
	}
	for _, sub := range r.subscribers {
		select {
		case sub.ch <- event:
		default:
			r.log.Warn("event dropped: subscriber channel full", "type", event.Type(), "source", event.Source())
		}
	}
}

// Subscribe returns a channel receiving every event emitted after this
// call, buffered at the router's default size.
func (r *Router) Subscribe() <-chan Event {
	return r.SubscribeBuffered(r.bufferSize)
}

// SubscribeBuffered is like Subscribe but with an explicit buffer size.
func (r *Router) SubscribeBuffered(size int) <-chan Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}
	ch := make(chan Event, size)
	r.subscribers = append(r.subscribers, subscriberEntry{ch: ch})
	return ch
}

// Unsubscribe removes a subscription and closes its channel. Safe to
// call with a channel that was never subscribed or already removed.
func (r *Router) Unsubscribe(ch <-chan Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, sub := range r.subscribers {
		if sub.ch == ch {
			r.subscribers = append(r.subscribers[:i], r.subscribers[i+1:]...)
			close(sub.ch)
			return
		}
	}
}

// Close closes every subscriber channel and marks the router closed.
// Safe to call multiple times.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	for _, sub := range r.subscribers {
		close(sub.ch)
	}
	r.subscribers = nil
}
