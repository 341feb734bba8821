// Package app wires configuration, logging, the reminder store, and the
// scanner/delivery/http services into one process lifecycle.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"ronbot/internal/config"
	"ronbot/internal/delivery"
	"ronbot/internal/eventbus"
	"ronbot/internal/httpapi"
	"ronbot/internal/remind"
	"ronbot/internal/runtime/supervisor"
	"ronbot/internal/scanner"
	logx "ronbot/pkg/logx"
)

type App struct {
	cfgPath string

	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service
	bus  eventbus.Bus

	store *remind.Store
	deliv *delivery.Service
	scan  *scanner.Service
	api   *httpapi.Service
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))

	bus := eventbus.New()
	store := remind.NewStore()

	dcfg, err := mapDeliveryConfig(cfg)
	if err != nil {
		return nil, err
	}
	delivSvc := delivery.New(dcfg, log.With(logx.String("comp", "delivery")), bus)

	interval, err := config.ParseDurationOrDefault("scanner.interval", cfg.Scanner.Interval, 60*time.Second)
	if err != nil {
		return nil, err
	}
	scanSvc := scanner.New(interval, store, delivSvc, log.With(logx.String("comp", "scanner")), bus)

	a := &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		bus:     bus,
		store:   store,
		deliv:   delivSvc,
		scan:    scanSvc,
	}

	scfg, err := mapServerConfig(cfg)
	if err != nil {
		return nil, err
	}
	a.api = httpapi.New(scfg, httpapi.Deps{
		Store:      store,
		Deliveries: delivSvc,
		Bus:        bus,
		Counters:   a.counters,
	}, log.With(logx.String("comp", "http")))

	return a, nil
}

func (a *App) counters() supervisor.Counters {
	if a.sup == nil {
		return supervisor.Counters{}
	}
	return a.sup.Counters()
}

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	// transactional config reload: validate before commit/publish
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		return validate(cfg)
	})

	// Deliveries must be able to fire before the first scan tick.
	a.deliv.Start(a.sup.Context())
	a.scan.Start(a.sup.Context())
	if err := a.api.Start(a.sup.Context()); err != nil {
		return err
	}

	// Log component events for observability/debug.
	events, unsub := a.bus.Subscribe(128)
	a.sup.Go0("eventbus.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
			}
		}
	})

	// hot reload config fan-out
	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(c, sub, a.cfgm.Get())
	})

	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	// Best-effort systemd readiness; a no-op outside systemd units.
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Debug("sd_notify failed", logx.Err(err))
	}

	a.log.Info("app started")
	return nil
}

func (a *App) reloadLoop(c context.Context, sub chan *config.Config, prev *config.Config) {
	for {
		select {
		case <-c.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
			// Coalesce bursts: keep only the latest config in the channel.
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						newCfg = newer
					}
				default:
					goto APPLY
				}
			}
		APPLY:
			a.applyConfig(c, newCfg, prev)
			prev = newCfg
		}
	}
}

func (a *App) applyConfig(c context.Context, cfg, prev *config.Config) {
	// apply logging updates
	a.logs.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	// apply delivery updates (live)
	if dcfg, err := mapDeliveryConfig(cfg); err != nil {
		a.log.Warn("invalid delivery config; keeping previous", logx.Err(err))
	} else {
		a.deliv.Apply(dcfg)
	}

	// apply scanner interval (live; restarts the schedule when changed)
	if interval, err := config.ParseDurationOrDefault("scanner.interval", cfg.Scanner.Interval, 60*time.Second); err != nil {
		a.log.Warn("invalid scanner config; keeping previous", logx.Err(err))
	} else {
		a.scan.Apply(c, interval)
	}

	// Server address changes need a process restart; don't silently ignore them.
	if prev != nil && cfg.Server.Addr != prev.Server.Addr {
		a.log.Warn("server.addr changed; restart required to take effect",
			logx.String("addr", cfg.Server.Addr))
	}
	a.log.Info("config reloaded")
}

func (a *App) Stop(ctx context.Context) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping")
	if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
		a.log.Debug("sd_notify failed", logx.Err(err))
	}

	// Cancel the run context so background loops start unwinding immediately.
	a.sup.Cancel()

	// Run a shutdown step with an upper bound so one component can't stall the whole stop.
	step := func(name string, max time.Duration, fn func(context.Context)) {
		start := time.Now()
		stepCtx := ctx
		var cancel context.CancelFunc
		if max > 0 {
			stepCtx, cancel = context.WithTimeout(ctx, max)
		}
		done := make(chan struct{})
		go func() {
			defer close(done)
			defer func() {
				if r := recover(); r != nil {
					a.log.Warn("panic in stop step", logx.String("name", name), logx.Any("panic", r))
				}
			}()
			fn(stepCtx)
		}()
		select {
		case <-done:
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)", logx.String("name", name), logx.Duration("elapsed", time.Since(start)))
		}
		if cancel != nil {
			cancel()
		}
	}

	// Stop intake first, then the sweep, then drain outbound deliveries.
	step("http", 2*time.Second, func(c context.Context) { a.api.Stop(c) })
	step("scanner", 2*time.Second, func(c context.Context) { a.scan.Stop(c) })
	step("delivery", 5*time.Second, func(c context.Context) { a.deliv.Stop(c) })

	// Finally, wait for supervised goroutines (config watch/reload, eventbus log).
	step("supervisor", 2*time.Second, func(c context.Context) { _ = a.sup.Wait(c) })

	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}
