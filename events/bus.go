package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const defaultHistory = 1000

// InMemoryBus is a thread-safe in-process event bus.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]handlerEntry // userID -> handlers
	history  []*Event
	maxHist  int
	nextID   int
	metrics  *metricsProvider
}

type handlerEntry struct {
	id      int
	handler Handler
}

// NewInMemoryBus creates an InMemoryBus with a 1000-event history cap.
// registry may be nil, in which case no metrics are recorded.
func NewInMemoryBus(registry *prometheus.Registry) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]handlerEntry),
		maxHist:  defaultHistory,
		metrics:  newMetricsProvider(registry),
	}
}

// Publish appends ev to the history and delivers it to the subscribers of
// ev.UserID. Handlers run on the caller's goroutine, outside the lock.
func (b *InMemoryBus) Publish(ctx context.Context, ev *Event) error {
	b.mu.Lock()
	b.history = append(b.history, ev)
	if len(b.history) > b.maxHist {
		b.history = b.history[len(b.history)-b.maxHist:]
	}
	entries := b.handlers[ev.UserID]
	targets := make([]Handler, 0, len(entries))
	for _, e := range entries {
		targets = append(targets, e.handler)
	}
	b.mu.Unlock()

	b.metrics.incPublished(ev.Type)

	var errs []error
	for _, h := range targets {
		if err := h(ctx, ev); err != nil {
			errs = append(errs, err)
			continue
		}
		b.metrics.incDelivered(ev.Type)
	}
	if len(errs) > 0 {
		return fmt.Errorf("publish %s: %d handler error(s): %w", ev.Type, len(errs), errs[0])
	}
	return nil
}

// Subscribe registers a handler for events owned by userID.
// The returned function unsubscribes the handler.
func (b *InMemoryBus) Subscribe(userID string, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[userID] = append(b.handlers[userID], handlerEntry{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		entries := b.handlers[userID]
		filtered := entries[:0]
		for _, e := range entries {
			if e.id != id {
				filtered = append(filtered, e)
			}
		}
		if len(filtered) == 0 {
			delete(b.handlers, userID)
		} else {
			b.handlers[userID] = filtered
		}
	}
}

// History returns the most recent limit events owned by userID in
// chronological order. A non-positive limit returns everything retained.
func (b *InMemoryBus) History(userID string, limit int) ([]*Event, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var result []*Event
	for i := len(b.history) - 1; i >= 0; i-- {
		ev := b.history[i]
		if ev.UserID != userID {
			continue
		}
		result = append(result, ev)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	for l, r := 0, len(result)-1; l < r; l, r = l+1, r-1 {
		result[l], result[r] = result[r], result[l]
	}
	return result, nil
}
