package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType names a recipe change.
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// RecipeEvent is broadcast to feed subscribers.
type RecipeEvent struct {
	Type     EventType
	RecipeID uuid.UUID
	Title    string
	At       time.Time
}

// String renders an event for logs and the CLI feed.
func (e RecipeEvent) String() string {
	return fmt.Sprintf("%s %s %q", e.Type, e.RecipeID, e.Title)
}

// DefaultSubscriberBuffer is the per-subscriber queue length.
const DefaultSubscriberBuffer = 16

// Hub fans recipe events out to subscribers. A subscriber whose queue is
// full is dropped and its channel closed.
type Hub struct {
	buffer int
	logger *slog.Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]chan RecipeEvent
}

// NewHub creates a hub. buffer <= 0 uses DefaultSubscriberBuffer.
func NewHub(buffer int, log *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		buffer: buffer,
		logger: log.With("component", "hub"),
		subs:   make(map[int]chan RecipeEvent),
	}
}

// Subscribe returns a channel of events that is closed when ctx ends or the
// subscriber falls behind.
func (h *Hub) Subscribe(ctx context.Context) <-chan RecipeEvent {
	ch := make(chan RecipeEvent, h.buffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.remove(id)
	}()
	return ch
}

func (h *Hub) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Publish delivers ev to every subscriber without blocking.
// A nil *Hub ignores events.
func (h *Hub) Publish(ev RecipeEvent) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.logger.Warn("dropping slow subscriber", "subscriber", id)
			delete(h.subs, id)
			close(ch)
		}
	}
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
