// Package notify publishes user-facing notifications: persisted into
// the capped store buffer and fanned out live to stream subscribers.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"mocdesk.org/internal/domain"
	"mocdesk.org/internal/store"
)

// Hub persists notifications and fan-outs them to all active
// subscribers (SSE clients).
type Hub struct {
	buffer store.NotificationStore
	now    func() time.Time

	mu   sync.RWMutex
	subs map[int]chan domain.Notification
	next int
}

// Option configures a Hub.
type Option func(*Hub)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(h *Hub) {
		if fn != nil {
			h.now = fn
		}
	}
}

// NewHub builds a Hub on top of the persisted buffer.
func NewHub(buffer store.NotificationStore, opts ...Option) *Hub {
	h := &Hub{
		buffer: buffer,
		now:    time.Now,
		subs:   make(map[int]chan domain.Notification),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Publish assigns id and timestamp, appends the notification to the
// buffer and delivers it to every subscriber. Slow subscribers drop
// the event rather than block the publisher.
func (h *Hub) Publish(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	n.ID = uuid.NewString()
	n.Timestamp = h.now().UTC()
	if err := h.buffer.Append(ctx, n); err != nil {
		return domain.Notification{}, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- n:
		default:
		}
	}
	return n, nil
}

// Subscribe registers a subscriber and returns a channel that receives
// published notifications. The channel is closed when ctx ends.
func (h *Hub) Subscribe(ctx context.Context) <-chan domain.Notification {
	ch := make(chan domain.Notification, 16)

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, id)
		close(ch)
		h.mu.Unlock()
	}()

	return ch
}

// List returns the buffered notifications, newest first.
func (h *Hub) List(ctx context.Context) ([]domain.Notification, error) {
	return h.buffer.List(ctx)
}

// MarkRead flags one notification as read.
func (h *Hub) MarkRead(ctx context.Context, id string) error {
	return h.buffer.MarkRead(ctx, id)
}

// MarkAllRead flags every buffered notification as read.
func (h *Hub) MarkAllRead(ctx context.Context) error {
	return h.buffer.MarkAllRead(ctx)
}

// Clear drops the buffer.
func (h *Hub) Clear(ctx context.Context) error {
	return h.buffer.Clear(ctx)
}
