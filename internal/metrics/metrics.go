package metrics

import (
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Process-wide counters, exposed on /healthz.
var (
	OrdersPlaced     Counter
	OrderTransitions Counter
	ReviewsSubmitted Counter
	BatchTransfers   Counter
	EventsDropped    Counter
)

func Snapshot() map[string]uint64 {
	return map[string]uint64{
		"orders_placed":     OrdersPlaced.Load(),
		"order_transitions": OrderTransitions.Load(),
		"reviews_submitted": ReviewsSubmitted.Load(),
		"batch_transfers":   BatchTransfers.Load(),
		"events_dropped":    EventsDropped.Load(),
	}
}
