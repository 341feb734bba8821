package eventbus

import (
	"testing"
	"time"
)

func TestPublishReachesSubscribers(t *testing.T) {
	t.Parallel()
	b := New()

	ch, unsub := b.Subscribe(4)
	defer unsub()

	b.Publish(Event{Type: TypeScanDue, Data: 3})

	select {
	case e := <-ch:
		if e.Type != TypeScanDue {
			t.Fatalf("type = %q", e.Type)
		}
		if e.Time.IsZero() {
			t.Fatal("expected Publish to stamp a time")
		}
	case <-time.After(time.Second):
		t.Fatal("event not received")
	}
}

func TestPublishDropsWhenSubscriberIsFull(t *testing.T) {
	t.Parallel()
	b := New()

	ch, unsub := b.Subscribe(1)
	defer unsub()

	// Second publish must not block even though nobody is reading.
	b.Publish(Event{Type: TypeDeliverySent})
	b.Publish(Event{Type: TypeDeliveryFailed})

	if got := len(ch); got != 1 {
		t.Fatalf("buffered events = %d, want 1 (overflow dropped)", got)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()
	b := New()

	ch, unsub := b.Subscribe(1)
	unsub()
	unsub() // idempotent

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after unsubscribe")
	}

	// Publishing after unsubscribe must not panic or deliver.
	b.Publish(Event{Type: TypeReminderScheduled})
}
