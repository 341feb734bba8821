package remind

import (
	"sync"
	"testing"
	"time"
)

func TestStoreExtractDuePartitions(t *testing.T) {
	t.Parallel()
	now := time.Now()
	s := NewStore()

	s.Insert(Reminder{FireAt: now.Add(-time.Minute), Text: "past"})
	s.Insert(Reminder{FireAt: now, Text: "exactly now"})
	s.Insert(Reminder{FireAt: now.Add(time.Hour), Text: "future"})

	due := s.ExtractDue(now)
	if len(due) != 2 {
		t.Fatalf("expected 2 due reminders, got %d", len(due))
	}
	if s.Pending() != 1 {
		t.Fatalf("expected 1 pending reminder, got %d", s.Pending())
	}

	// Idempotent removal: nothing left to extract.
	if again := s.ExtractDue(now); len(again) != 0 {
		t.Fatalf("second extract returned %d reminders, want 0", len(again))
	}
}

func TestStoreDuplicatesAreIndependent(t *testing.T) {
	t.Parallel()
	now := time.Now()
	s := NewStore()

	r := Reminder{FireAt: now.Add(-time.Second), Text: "call mom", ContextID: "ctx-1"}
	s.Insert(r)
	s.Insert(r)

	due := s.ExtractDue(now)
	if len(due) != 2 {
		t.Fatalf("expected both duplicate reminders extracted, got %d", len(due))
	}
}

func TestStoreConcurrentInsertExtract(t *testing.T) {
	t.Parallel()
	s := NewStore()
	now := time.Now()

	const n = 200
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			s.Insert(Reminder{FireAt: now.Add(-time.Minute), Text: "due"})
		}
	}()
	extracted := 0
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			extracted += len(s.ExtractDue(now))
		}
	}()
	wg.Wait()

	extracted += len(s.ExtractDue(now))
	if extracted != n {
		t.Fatalf("extracted %d reminders total, want %d", extracted, n)
	}
}
