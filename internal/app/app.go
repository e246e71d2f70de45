// Package app wires configuration, logging, persistence, the clock, the
// servo driver and the feeder core into one runnable daemon.
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"

	"petfeeder/internal/clock"
	"petfeeder/internal/config"
	"petfeeder/internal/eventbus"
	"petfeeder/internal/feeder"
	"petfeeder/internal/httpapi"
	"petfeeder/internal/servo"
	"petfeeder/internal/storage"
	logx "petfeeder/pkg/logx"
)

type App struct {
	cfgm *config.Manager
	logs *logx.Service
	log  logx.Logger

	store  storage.Store // may be nil
	bus    eventbus.Bus
	clk    clock.Clock
	ntp    *clock.NTP // non-nil only for the ntp source
	driver servo.Driver

	svc  *feeder.Service
	http *httpapi.Server

	mu     sync.Mutex
	runner *cron.Cron
	pollID cron.EntryID

	runCtx    context.Context
	runCancel context.CancelFunc
	wg        sync.WaitGroup
	cfgCh     chan *config.Config
	evUnsub   func()
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfgm.SetValidator(func(ctx context.Context, cfg *config.Config) error {
		_ = ctx
		return cfg.Validate()
	})
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
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
	cfgm.SetLogger(logSvc.Logger().With(logx.String("comp", "config")))

	store, err := openStorage(cfg, logSvc.Logger())
	if err != nil {
		return nil, err
	}

	clk, ntp := buildClock(cfg, logSvc.Logger())

	hold, err := cfg.Servo.HoldDuration()
	if err != nil {
		return nil, err
	}
	driver, err := servo.New(servo.Config{
		Driver: cfg.Servo.Driver,
		Pin:    cfg.Servo.Pin,
	}, logSvc.Logger().With(logx.String("comp", "servo")))
	if err != nil {
		return nil, err
	}

	bus := eventbus.New()
	svc := feeder.NewService(feeder.Deps{
		Persist: store,
		Clock:   clk,
		Driver:  driver,
		Bus:     bus,
		Hold:    hold,
		Log:     logSvc.Logger(),
	})

	return &App{
		cfgm:   cfgm,
		logs:   logSvc,
		log:    log,
		store:  store,
		bus:    bus,
		clk:    clk,
		ntp:    ntp,
		driver: driver,
		svc:    svc,
		http:   httpapi.New(svc, logSvc.Logger()),
	}, nil
}

func openStorage(cfg *config.Config, log logx.Logger) (storage.Store, error) {
	if cfg.Storage == nil {
		return nil, nil
	}
	busy, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return nil, err
	}
	return storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}, log.With(logx.String("comp", "storage")))
}

func buildClock(cfg *config.Config, log logx.Logger) (clock.Clock, *clock.NTP) {
	if strings.EqualFold(strings.TrimSpace(cfg.Clock.Source), "ntp") {
		n := clock.NewNTP(cfg.Clock.EffectiveServer(), log.With(logx.String("comp", "clock")))
		return n, n
	}
	return clock.System{}, nil
}

func (a *App) Start(ctx context.Context) error {
	cfg := a.cfgm.Get()

	a.runCtx, a.runCancel = context.WithCancel(context.Background())

	// Load the persisted schedule before anything can tick.
	a.svc.Start(ctx)

	a.http.Apply(ctx, httpConfig(cfg))

	// Persist a best-effort audit row for every dispense.
	evCh, evUnsub := a.bus.Subscribe(16)
	a.evUnsub = evUnsub
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.auditLoop(evCh)
	}()

	if err := a.startRunner(cfg); err != nil {
		return err
	}

	// Config hot-reload.
	a.cfgCh = a.cfgm.Subscribe(4)
	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		_ = a.cfgm.Watch(a.runCtx)
	}()
	go func() {
		defer a.wg.Done()
		a.reloadLoop()
	}()

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Warn("sd_notify failed", logx.Err(err))
	} else if sent {
		a.log.Debug("sd_notify ready sent")
	}

	a.log.Info("feederd started")
	return nil
}

func (a *App) startRunner(cfg *config.Config) error {
	poll, err := cfg.Feeder.Interval()
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	c := cron.New(cron.WithSeconds())

	id, err := c.AddFunc(everySpec(poll), func() {
		a.svc.Tick(a.runCtx)
	})
	if err != nil {
		return fmt.Errorf("schedule poll job: %w", err)
	}
	a.pollID = id

	if a.ntp != nil {
		syncEvery, err := cfg.Clock.Interval()
		if err != nil {
			return err
		}
		if _, err := c.AddFunc(everySpec(syncEvery), func() {
			if err := a.ntp.Sync(a.runCtx); err == nil && a.bus != nil {
				a.bus.Publish(eventbus.Event{Type: eventbus.TypeClockSynced})
			}
		}); err != nil {
			return fmt.Errorf("schedule ntp sync job: %w", err)
		}
		// Sync once up front so the matcher isn't blind for a whole interval.
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			_ = a.ntp.Sync(a.runCtx)
		}()
	}

	// systemd watchdog pings, when the unit asks for them.
	if wd, err := daemon.SdWatchdogEnabled(false); err == nil && wd > 0 {
		if _, err := c.AddFunc(everySpec(wd/2), func() {
			_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
		}); err != nil {
			return fmt.Errorf("schedule watchdog job: %w", err)
		}
	}

	c.Start()
	a.runner = c
	a.log.Info("poll loop started", logx.Duration("interval", poll))
	return nil
}

func everySpec(d time.Duration) string {
	return "@every " + d.String()
}

// auditLoop persists dispense events. Failures are logged, never surfaced:
// the in-memory ring stays the source of truth for clients.
func (a *App) auditLoop(ch <-chan eventbus.Event) {
	for ev := range ch {
		if ev.Type != eventbus.TypeFeedDispensed || a.store == nil {
			continue
		}
		fe, ok := ev.Data.(feeder.FeedEvent)
		if !ok {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := a.store.AppendFeed(ctx, storage.FeedRecord{
			At:        fe.At,
			Kind:      fe.Reason.String(),
			TimeKnown: fe.TimeKnown,
			Text:      fe.Text,
		})
		cancel()
		if err != nil {
			a.log.Warn("feed audit write failed", logx.Err(err))
		}
	}
}

// reloadLoop applies committed config changes at runtime. The schedule
// itself is not config: it lives in storage and only changes via
// set-schedule.
func (a *App) reloadLoop() {
	for cfg := range a.cfgCh {
		if cfg == nil {
			continue
		}
		a.logs.Apply(logx.Config{
			Level:   cfg.Logging.Level,
			Console: cfg.Logging.Console,
			File: logx.FileConfig{
				Enabled: cfg.Logging.File.Enabled,
				Path:    cfg.Logging.File.Path,
			},
		})
		a.http.Apply(a.runCtx, httpConfig(cfg))

		if hold, err := cfg.Servo.HoldDuration(); err == nil {
			a.svc.SetHold(hold)
		}
		if poll, err := cfg.Feeder.Interval(); err == nil {
			a.reschedulePoll(poll)
		}

		if a.bus != nil {
			a.bus.Publish(eventbus.Event{Type: eventbus.TypeConfigApplied})
		}
		a.log.Info("config applied")
	}
}

func (a *App) reschedulePoll(poll time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runner == nil {
		return
	}
	a.runner.Remove(a.pollID)
	id, err := a.runner.AddFunc(everySpec(poll), func() {
		a.svc.Tick(a.runCtx)
	})
	if err != nil {
		a.log.Warn("poll reschedule failed", logx.Err(err), logx.Duration("interval", poll))
		return
	}
	a.pollID = id
	a.log.Info("poll interval updated", logx.Duration("interval", poll))
}

func httpConfig(cfg *config.Config) httpapi.Config {
	return httpapi.Config{
		Enabled:    cfg.HTTP.Enabled,
		Address:    cfg.HTTP.EffectiveAddress(),
		FeedPerMin: cfg.HTTP.FeedPerMin,
		FeedBurst:  cfg.HTTP.FeedBurst,
	}
}

func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	if a.runCancel != nil {
		a.runCancel()
	}

	a.mu.Lock()
	c := a.runner
	a.runner = nil
	a.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}

	a.http.Stop(ctx)

	if a.cfgCh != nil {
		a.cfgm.Unsubscribe(a.cfgCh)
		a.cfgCh = nil
	}
	if a.evUnsub != nil {
		// Closes the audit channel so auditLoop drains and exits.
		a.evUnsub()
		a.evUnsub = nil
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}

	if a.store != nil {
		_ = a.store.Close()
	}
	if a.driver != nil {
		_ = a.driver.Close()
	}
	a.log.Info("feederd stopped")
	_ = a.logs.Close()
	return nil
}
