package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"ronbot/internal/a2a"
	"ronbot/internal/eventbus"
	"ronbot/internal/remind"
	logx "ronbot/pkg/logx"
)

// textPrefix marks pushed reminder text so the receiving chat can tell it apart
// from ordinary agent replies.
const textPrefix = "🔔 REMINDER: "

// Service owns the shared outbound HTTP client. The client lives for the whole
// process: created in Start, released in Stop, safe for concurrent use by
// simultaneous deliveries.
type Service struct {
	mu  sync.Mutex
	log logx.Logger
	bus eventbus.Bus

	cfg     Config
	limiter *rate.Limiter

	client    *http.Client
	runCtx    context.Context
	runCancel context.CancelFunc
	sendWG    sync.WaitGroup

	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, log logx.Logger, bus eventbus.Bus) *Service {
	s := &Service{log: log, bus: bus}
	s.applyLocked(cfg)
	return s
}

// Apply updates tunables at runtime (config hot reload). Safe to call
// concurrently with in-flight deliveries.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

func (s *Service) applyLocked(cfg Config) {
	// Defaults
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 100
	}
	s.cfg = cfg
	if cfg.RatePerSec > 0 {
		// Token bucket: burst = rate per sec, so short spikes don't block too hard.
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	} else {
		s.limiter = nil
	}
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		// already running
		return
	}
	s.client = &http.Client{}
	// In-flight sends must survive the run context being canceled so the
	// drain in Stop can finish them; only Stop cancels this context, after
	// its deadline.
	s.runCtx, s.runCancel = context.WithCancel(context.WithoutCancel(ctx))
	s.log.Info("delivery client ready")
}

// Stop blocks new dispatches and waits for in-flight deliveries until the ctx
// deadline. In-flight sends past the deadline are abandoned via context cancel.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	client := s.client
	cancel := s.runCancel
	s.client = nil
	s.runCancel = nil
	s.runCtx = nil
	s.mu.Unlock()

	if client == nil {
		return
	}

	done := make(chan struct{})
	go func() {
		s.sendWG.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
	if cancel != nil {
		cancel()
	}
	client.CloseIdleConnections()
	s.log.Info("delivery client closed")
}

// Dispatch fans out one goroutine per due reminder and returns immediately.
// One reminder's failure never affects its siblings.
func (s *Service) Dispatch(batch []remind.Reminder) {
	for _, r := range batch {
		r := r
		s.sendWG.Add(1)
		go func() {
			defer s.sendWG.Done()
			defer func() {
				if rec := recover(); rec != nil {
					s.log.Error("panic in delivery", logx.Any("panic", rec), logx.String("stack", string(debug.Stack())))
				}
			}()
			s.Deliver(r)
		}()
	}
}

// Deliver makes the single outbound attempt for one reminder. The outcome is
// terminal either way: success is logged and recorded, failure is logged and
// the reminder is dropped.
func (s *Service) Deliver(r remind.Reminder) {
	s.mu.Lock()
	client := s.client
	runCtx := s.runCtx
	lim := s.limiter
	timeout := s.cfg.Timeout
	s.mu.Unlock()

	if client == nil {
		// Startup-ordering violation: Deliver before Start.
		s.log.Error("http client not initialized; skipping delivery", logx.String("context_id", r.ContextID))
		return
	}
	if runCtx == nil {
		runCtx = context.Background()
	}

	if lim != nil {
		if err := lim.Wait(runCtx); err != nil {
			return
		}
	}

	err := s.post(runCtx, client, timeout, r)
	now := time.Now()
	if err != nil {
		s.log.Warn("reminder delivery failed",
			logx.String("context_id", r.ContextID),
			logx.String("url", r.CallbackURL),
			logx.Err(err),
		)
		s.appendHistory(HistoryItem{At: now, ContextID: r.ContextID, Text: r.Text, Error: err.Error()})
		if s.bus != nil {
			s.bus.Publish(eventbus.Event{Type: eventbus.TypeDeliveryFailed, Time: now, Data: Event{ContextID: r.ContextID, URL: r.CallbackURL, At: now, Error: err.Error()}})
		}
		return
	}

	s.log.Info("reminder delivered", logx.String("context_id", r.ContextID), logx.String("text", r.Text))
	s.appendHistory(HistoryItem{At: now, ContextID: r.ContextID, Text: r.Text, OK: true})
	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: eventbus.TypeDeliverySent, Time: now, Data: Event{ContextID: r.ContextID, URL: r.CallbackURL, At: now}})
	}
}

func (s *Service) post(runCtx context.Context, client *http.Client, timeout time.Duration, r remind.Reminder) error {
	push := a2a.NewPushRequest(r.ContextID, a2a.NewAgentText(textPrefix+r.Text))
	body, err := json.Marshal(push)
	if err != nil {
		return fmt.Errorf("encode push: %w", err)
	}

	ctx, cancel := context.WithTimeout(runCtx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.CallbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("callback returned %s", resp.Status)
	}
	return nil
}

// Snapshot returns a copy of the recent delivery history (newest last).
func (s *Service) Snapshot() []HistoryItem {
	s.hmu.Lock()
	out := append([]HistoryItem(nil), s.history...)
	s.hmu.Unlock()
	return out
}

func (s *Service) appendHistory(it HistoryItem) {
	s.mu.Lock()
	max := s.cfg.HistorySize
	s.mu.Unlock()

	s.hmu.Lock()
	s.history = append(s.history, it)
	if len(s.history) > max {
		s.history = s.history[len(s.history)-max:]
	}
	s.hmu.Unlock()
}
