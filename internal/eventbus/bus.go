// Package eventbus carries lifecycle signals between the reminder pipeline
// stages (schedule, scan, deliver) without coupling them to each other.
package eventbus

import (
	"sync"
	"time"
)

// Event types emitted along the reminder pipeline.
const (
	// TypeReminderScheduled fires when the inbound handler accepts a command.
	TypeReminderScheduled = "reminder.scheduled"
	// TypeScanDue fires when a sweep finds due reminders.
	TypeScanDue = "scan.due"
	// TypeDeliverySent and TypeDeliveryFailed record terminal push outcomes.
	TypeDeliverySent   = "delivery.sent"
	TypeDeliveryFailed = "delivery.failed"
)

// Event is a small in-memory signal. Data should stay compact; subscribers
// may log or serialize it.
type Event struct {
	Type string
	Time time.Time
	Data any
}

// Bus fans events out to subscribers. Publish never blocks: a subscriber
// with a full buffer misses the event rather than stalling the pipeline.
type Bus interface {
	Publish(e Event)
	Subscribe(buffer int) (ch <-chan Event, unsubscribe func())
}

// New returns an in-memory Bus. It owns no goroutines.
func New() Bus {
	return &fanout{subs: map[uint64]chan Event{}}
}

type fanout struct {
	mu   sync.RWMutex
	subs map[uint64]chan Event
	next uint64
}

func (b *fanout) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	// Sends are non-blocking, so holding the read lock here is cheap and
	// guarantees no send races an Unsubscribe close.
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			// Subscriber is behind; drop.
		}
	}
}

func (b *fanout) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	b.next++
	id := b.next
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
		})
	}
	return ch, unsub
}
