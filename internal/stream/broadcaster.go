// Package stream fans report events out to in-process subscribers such as
// gRPC streams and websocket clients.
package stream

import (
	"sync"
	"sync/atomic"

	"github.com/mr1hm/go-ocean-hazards/internal/models"
)

const subscriberBuffer = 100

// Filter decides whether a subscriber wants an event. nil accepts everything.
type Filter func(ev *models.ReportEvent) bool

type subscriber struct {
	ch     chan *models.ReportEvent
	filter Filter
}

type Broadcaster struct {
	subscribers map[uint64]subscriber
	nextID      atomic.Uint64
	dropped     atomic.Uint64
	mu          sync.RWMutex
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]subscriber),
	}
}

func (b *Broadcaster) Subscribe(filter Filter) (uint64, <-chan *models.ReportEvent) {
	id := b.nextID.Add(1)
	ch := make(chan *models.ReportEvent, subscriberBuffer)

	b.mu.Lock()
	b.subscribers[id] = subscriber{ch: ch, filter: filter}
	b.mu.Unlock()

	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if sub, ok := b.subscribers[id]; ok {
		close(sub.ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Broadcaster) Broadcast(ev *models.ReportEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		if sub.filter != nil && !sub.filter(ev) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			// Skip slow subscribers
			b.dropped.Add(1)
		}
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Dropped is the number of deliveries skipped because a subscriber was full.
func (b *Broadcaster) Dropped() uint64 {
	return b.dropped.Load()
}

// Close closes all subscriber channels, causing streams to exit gracefully
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, sub := range b.subscribers {
		close(sub.ch)
		delete(b.subscribers, id)
	}
}

// MinSeverity builds a filter that passes events at or above sev, optionally
// restricted to one hazard type.
func MinSeverity(sev models.Severity, typ models.HazardType) Filter {
	return func(ev *models.ReportEvent) bool {
		if typ != "" && ev.Report.Type != typ {
			return false
		}
		return ev.Report.Severity.Rank() >= sev.Rank()
	}
}
