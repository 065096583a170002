package notify

import (
	"sync"

	"agrimarket-be/internal/logger"
	"agrimarket-be/internal/metrics"

	"go.uber.org/zap"
)

// Event is a row-level change notification. Delivery is at-least-once and
// unordered relative to the writer; clients refetch rather than apply deltas.
type Event struct {
	Table string `json:"table"`
	Op    string `json:"op"` // INSERT, UPDATE, DELETE
	ID    string `json:"id"`
}

type Publisher interface {
	Publish(evt Event)
}

// Nop discards events; used where no hub is wired (tests, migrate tool).
type Nop struct{}

func (Nop) Publish(Event) {}

type subscriber struct {
	ch     chan Event
	tables map[string]bool // empty = all tables
}

// Hub fans change events out to subscribed clients. A subscriber that
// cannot keep up has events dropped rather than blocking the writer.
type Hub struct {
	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*subscriber]struct{})}
}

const subscriberBuffer = 64

// Subscription is a live change feed. Close must be called when done.
type Subscription struct {
	C   <-chan Event
	hub *Hub
	sub *subscriber
}

func (s *Subscription) Close() {
	s.hub.mu.Lock()
	delete(s.hub.subs, s.sub)
	s.hub.mu.Unlock()
	close(s.sub.ch)
}

// Subscribe registers a feed for the given tables; no tables means all.
func (h *Hub) Subscribe(tables ...string) *Subscription {
	sub := &subscriber{
		ch:     make(chan Event, subscriberBuffer),
		tables: make(map[string]bool, len(tables)),
	}
	for _, t := range tables {
		if t != "" {
			sub.tables[t] = true
		}
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	return &Subscription{C: sub.ch, hub: h, sub: sub}
}

func (h *Hub) Publish(evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		if len(sub.tables) > 0 && !sub.tables[evt.Table] {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			metrics.EventsDropped.Inc()
			logger.L().Warn("change event dropped for slow subscriber",
				zap.String("table", evt.Table),
				zap.String("op", evt.Op),
			)
		}
	}
}
