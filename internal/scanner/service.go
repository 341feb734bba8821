// Package scanner periodically sweeps the reminder store and hands due
// reminders to the delivery dispatcher.
package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"ronbot/internal/eventbus"
	"ronbot/internal/remind"
	logx "ronbot/pkg/logx"
)

// Dispatcher receives a batch of due reminders for independent, concurrent
// delivery. Dispatch must not block on the deliveries themselves.
type Dispatcher interface {
	Dispatch(batch []remind.Reminder)
}

// Event is emitted on the event bus whenever a tick finds due reminders.
type Event struct {
	Count int       `json:"count"`
	At    time.Time `json:"at"`
}

type Service struct {
	mu sync.Mutex

	log   logx.Logger
	bus   eventbus.Bus
	store *remind.Store
	disp  Dispatcher

	interval time.Duration
	c        *cron.Cron

	now func() time.Time // injectable clock for tests
}

func New(interval time.Duration, store *remind.Store, disp Dispatcher, log logx.Logger, bus eventbus.Bus) *Service {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Service{
		log:      log,
		bus:      bus,
		store:    store,
		disp:     disp,
		interval: interval,
		now:      time.Now,
	}
}

// Apply updates the scan interval. If the scanner is running, the schedule is
// restarted with the new cadence.
func (s *Service) Apply(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	s.mu.Lock()
	changed := interval != s.interval
	running := s.c != nil
	s.interval = interval
	s.mu.Unlock()

	if changed && running {
		s.Stop(ctx)
		s.Start(ctx)
	}
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		// already running
		return
	}
	c := cron.New()
	c.Schedule(cron.Every(s.interval), cron.FuncJob(s.tick))
	c.Start()
	s.c = c
	s.log.Info("scanner started", logx.Duration("interval", s.interval))
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	// Wait for a tick in progress; the tick itself never waits on deliveries.
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
	s.log.Info("scanner stopped")
}

// tick extracts everything due and hands it to the dispatcher. It returns
// without waiting for the deliveries; fan-out is unordered.
func (s *Service) tick() {
	now := s.now()
	due := s.store.ExtractDue(now)
	if len(due) == 0 {
		return
	}

	s.log.Info("due reminders found", logx.Int("count", len(due)))
	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: eventbus.TypeScanDue, Time: now, Data: Event{Count: len(due), At: now}})
	}
	s.disp.Dispatch(due)
}
