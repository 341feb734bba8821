package remind

import (
	"sync"
	"time"
)

// Store is the single shared mutable resource in the process: request handlers
// insert, the scanner extracts. All access is serialized behind one mutex.
type Store struct {
	mu      sync.Mutex
	pending []Reminder
}

func NewStore() *Store {
	return &Store{}
}

// Insert adds a reminder. Duplicates are legal and independent.
func (s *Store) Insert(r Reminder) {
	s.mu.Lock()
	s.pending = append(s.pending, r)
	s.mu.Unlock()
}

// ExtractDue atomically removes and returns every reminder with
// FireAt <= now. Reminders not yet due are retained. A reminder is extracted
// exactly once; calling ExtractDue again without intervening inserts returns
// nothing.
func (s *Store) ExtractDue(now time.Time) []Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []Reminder
	keep := s.pending[:0]
	for _, r := range s.pending {
		if !r.FireAt.After(now) {
			due = append(due, r)
		} else {
			keep = append(keep, r)
		}
	}
	// Zero the tail so extracted entries don't linger in the backing array.
	for i := len(keep); i < len(s.pending); i++ {
		s.pending[i] = Reminder{}
	}
	s.pending = keep
	return due
}

// Pending reports the number of reminders currently waiting to fire.
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
