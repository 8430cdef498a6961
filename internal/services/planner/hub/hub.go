// Package hub fans processing outcomes out to live subscribers.
package hub

import (
	"log"
	"sort"
	"sync"

	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/planner/domain"
)

// Subscriber receives one terminal outcome per processed item.
type Subscriber func(outcome domain.Outcome)

// Hub delivers outcomes synchronously and best-effort. A panicking
// subscriber is logged and skipped; it never blocks the rest.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]Subscriber
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{subscribers: make(map[string]Subscriber)}
}

// Subscribe registers fn under id, replacing any previous registration.
func (h *Hub) Subscribe(id string, fn Subscriber) {
	if h == nil || id == "" || fn == nil {
		return
	}
	h.mu.Lock()
	h.subscribers[id] = fn
	h.mu.Unlock()
}

// Unsubscribe removes the registration for id.
func (h *Hub) Unsubscribe(id string) {
	if h == nil {
		return
	}
	h.mu.Lock()
	delete(h.subscribers, id)
	h.mu.Unlock()
}

// Len returns the number of live subscribers.
func (h *Hub) Len() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Broadcast delivers outcome to every subscriber in stable id order.
func (h *Hub) Broadcast(outcome domain.Outcome) {
	if h == nil {
		return
	}
	h.mu.RLock()
	ids := make([]string, 0, len(h.subscribers))
	for id := range h.subscribers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	fns := make([]Subscriber, len(ids))
	for i, id := range ids {
		fns[i] = h.subscribers[id]
	}
	h.mu.RUnlock()

	for i, fn := range fns {
		deliver(ids[i], fn, outcome)
	}
}

func deliver(id string, fn Subscriber, outcome domain.Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("outcome subscriber %q panicked: %v", id, rec)
		}
	}()
	fn(outcome)
}
