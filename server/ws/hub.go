// Package ws implements a Server-Sent Events (SSE) hub for live task updates.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/GoCodeAlone/todochat/events"
)

// client represents a single SSE connection.
type client struct {
	userID string
	ch     chan []byte
}

// Hub streams each user's task events to that user's SSE connections.
type Hub struct {
	bus     events.Bus
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  *slog.Logger
}

// NewHub creates a Hub fed by bus.
func NewHub(bus events.Bus, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		bus:     bus,
		clients: make(map[*client]struct{}),
		logger:  logger,
	}
}

// Clients returns the number of open connections.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeSSE streams userID's events until the request is cancelled.
func (h *Hub) ServeSSE(w http.ResponseWriter, r *http.Request, userID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	c := &client{userID: userID, ch: make(chan []byte, 64)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	unsubscribe := func() {}
	if h.bus != nil {
		unsubscribe = h.bus.Subscribe(userID, func(_ context.Context, ev *events.Event) error {
			data, err := json.Marshal(ev)
			if err != nil {
				return fmt.Errorf("marshal event: %w", err)
			}
			select {
			case c.ch <- data:
			default:
				// Drop event if client is slow
				h.logger.Warn("sse client lagging, event dropped",
					slog.String("user_id", userID),
					slog.String("event_id", ev.ID),
				)
			}
			return nil
		})
	}

	// The channel is left open: a publish already in flight may still send
	// to it after unsubscribe returns.
	defer func() {
		unsubscribe()
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
	}()

	fmt.Fprintf(w, "data: {\"type\":\"connected\"}\n\n") //nolint:errcheck
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case data := <-c.ch:
			// Each SSE "data:" line must not contain newlines
			for _, line := range strings.Split(string(data), "\n") {
				fmt.Fprintf(w, "data: %s\n", line) //nolint:errcheck
			}
			fmt.Fprintln(w) //nolint:errcheck
			flusher.Flush()
		}
	}
}
