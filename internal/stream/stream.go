// Package stream fans committed notifications out to live subscribers of the
// recipient (SSE clients).
package stream

import (
	"context"
	"sync"

	"confportal.org/internal/portal"
)

const subscriberBuffer = 16

// Hub delivers each notification to every subscriber of its recipient.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[int]chan portal.Notification
	next int
}

// New initialises an empty hub.
func New() *Hub {
	return &Hub{subs: make(map[string]map[int]chan portal.Notification)}
}

// Subscribe registers a subscriber for userID. The channel is closed when ctx ends.
func (h *Hub) Subscribe(ctx context.Context, userID string) <-chan portal.Notification {
	ch := make(chan portal.Notification, subscriberBuffer)

	h.mu.Lock()
	id := h.next
	h.next++
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[int]chan portal.Notification)
	}
	h.subs[userID][id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs[userID], id)
		if len(h.subs[userID]) == 0 {
			delete(h.subs, userID)
		}
		close(ch)
		h.mu.Unlock()
	}()

	return ch
}

// Publish never blocks; slow subscribers miss the notification.
func (h *Hub) Publish(n portal.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs[n.UserID] {
		select {
		case ch <- n:
		default:
		}
	}
}

// Subscribers reports how many live subscriptions userID has.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}
