package relay

import (
	"sync"

	"github.com/inauto/garage-booking/internal/metrics"
)

// Hub fans change events out to in-process subscribers. Delivery is
// synchronous from the publisher's goroutine, so events for one entity reach
// every subscriber in publish order. Delivery is at-most-once: missed events
// are never replayed, observers reconcile by re-fetching when they subscribe.
type Hub struct {
	mu   sync.RWMutex
	subs map[Entity][]*Subscription
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[Entity][]*Subscription),
	}
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	hub    *Hub
	entity Entity
	fn     func(Event)
	once   sync.Once
}

// Subscribe registers fn for every event on the given entity. fn runs on the
// publisher's goroutine and must not block.
func (h *Hub) Subscribe(entity Entity, fn func(Event)) *Subscription {
	sub := &Subscription{hub: h, entity: entity, fn: fn}

	h.mu.Lock()
	h.subs[entity] = append(h.subs[entity], sub)
	h.mu.Unlock()

	return sub
}

// Unsubscribe stops further deliveries. A callback already in flight is not
// interrupted.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		defer h.mu.Unlock()

		list := h.subs[s.entity]
		for i, sub := range list {
			if sub == s {
				h.subs[s.entity] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	})
}

// Publish delivers ev to every active subscriber of its entity, in
// registration order.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	list := make([]*Subscription, len(h.subs[ev.Entity]))
	copy(list, h.subs[ev.Entity])
	h.mu.RUnlock()

	for _, sub := range list {
		sub.fn(ev)
	}

	if len(list) > 0 {
		metrics.RelayEventsDelivered.WithLabelValues(string(ev.Entity)).Add(float64(len(list)))
	}
}
