// Package httpapi exposes the inbound HTTP surface: the A2A JSON-RPC endpoint
// plus liveness and status probes.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"ronbot/internal/delivery"
	"ronbot/internal/eventbus"
	"ronbot/internal/remind"
	"ronbot/internal/runtime/supervisor"
	logx "ronbot/pkg/logx"
)

// Config controls the inbound HTTP listener.
type Config struct {
	Addr string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Deps are the collaborators the handlers reach into. Counters may be nil.
type Deps struct {
	Store      *remind.Store
	Deliveries *delivery.Service
	Bus        eventbus.Bus
	Counters   func() supervisor.Counters
}

type Service struct {
	mu  sync.Mutex
	log logx.Logger
	cfg Config

	deps Deps

	ln  net.Listener
	srv *http.Server

	now func() time.Time // injectable clock for tests
}

func New(cfg Config, deps Deps, log logx.Logger) *Service {
	return &Service{cfg: cfg, deps: deps, log: log, now: time.Now}
}

func (s *Service) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.handleHealth)
	r.GET("/status", s.handleStatus)
	r.POST("/a2a/ron", s.handleA2A)
	return r
}

func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		// already running
		return nil
	}

	addr := s.cfg.Addr
	if addr == "" {
		addr = ":8000"
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:      s.router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	s.ln = ln
	s.srv = srv

	go func() {
		err := srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server stopped with error", logx.Err(err))
		}
	}()

	s.log.Info("http server started", logx.String("addr", ln.Addr().String()))
	return nil
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	srv := s.srv
	ln := s.ln
	s.srv = nil
	s.ln = nil
	s.mu.Unlock()

	if srv == nil {
		return
	}
	if err := srv.Shutdown(ctx); err != nil {
		// Shutdown deadline hit; close remaining connections hard.
		_ = srv.Close()
	}
	if ln != nil {
		_ = ln.Close()
	}
	s.log.Info("http server stopped")
}
