// Package app wires configuration, logging, transport, and the services
// into one runnable daemon.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"silentping/internal/config"
	"silentping/internal/services/blast"
	"silentping/internal/services/delivery"
	"silentping/internal/storage"
	"silentping/internal/transport/telegram"
	"silentping/pkg/logx"
)

type App struct {
	cfgm *config.Manager

	log  logx.Logger
	logs *logx.Service

	store    storage.Store
	sender   *telegram.Adapter
	delivery *delivery.Service
	blasts   *blast.Service

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(logxConfig(cfg))
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(logSvc.Logger().With(logx.String("comp", "config")))
	cfgm.SetValidator(func(ctx context.Context, cfg *config.Config) error {
		// Config.Validate ran during Parse; cron specs need the scheduler's
		// parser, so they are checked here.
		for _, b := range cfg.Blasts {
			if b.Cron == "" {
				continue
			}
			if _, err := blast.ParseSpec(b.Cron); err != nil {
				return fmt.Errorf("blast %q: %w", b.Name, err)
			}
		}
		return nil
	})

	sender, err := telegram.New(telegram.Config{Token: cfg.Telegram.Token},
		logSvc.Logger().With(logx.String("comp", "telegram")))
	if err != nil {
		_ = logSvc.Close()
		return nil, fmt.Errorf("telegram: %w", err)
	}

	store, err := storage.Open(storageConfig(cfg), logSvc.Logger().With(logx.String("comp", "storage")))
	if err != nil {
		_ = logSvc.Close()
		return nil, fmt.Errorf("storage: %w", err)
	}

	var recorder delivery.Recorder
	if store != nil {
		recorder = store
	}
	dcfg, err := deliveryConfig(cfg)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	dsvc := delivery.New(dcfg, sender, recorder, logSvc.Logger().With(logx.String("comp", "delivery")))
	bsvc := blast.New(dsvc, logSvc.Logger().With(logx.String("comp", "blast")))

	return &App{
		cfgm:     cfgm,
		log:      log,
		logs:     logSvc,
		store:    store,
		sender:   sender,
		delivery: dsvc,
		blasts:   bsvc,
	}, nil
}

// Start brings up the services, begins watching the config file, and
// reports readiness to systemd when running under it.
func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	cfg := a.cfgm.Get()

	if a.delivery.Enabled() {
		a.delivery.Start(runCtx)
	} else {
		a.log.Warn("delivery disabled; blasts will be dropped")
	}
	blasts, err := blastDefs(cfg)
	if err != nil {
		return err
	}
	if err := a.blasts.Apply(runCtx, blasts); err != nil {
		return err
	}
	a.blasts.Start(runCtx)

	sub := a.cfgm.Subscribe(1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-runCtx.Done():
				a.cfgm.Unsubscribe(sub)
				return
			case cfg, ok := <-sub:
				if !ok {
					return
				}
				a.applyConfig(runCtx, cfg)
			}
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.cfgm.Watch(runCtx); err != nil {
			a.log.Warn("config watch stopped", logx.Err(err))
		}
	}()

	if a.store != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.pruneLoop(runCtx)
		}()
	}

	a.notifySystemd(runCtx)
	a.log.Info("started", logx.Int("blasts", len(blasts)))
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}
	a.blasts.Stop(ctx)
	a.delivery.Stop(ctx)
	a.wg.Wait()
	if a.store != nil {
		_ = a.store.Close()
	}
	a.log.Info("stopped")
	return a.logs.Close()
}

// RunBlast builds and delivers one configured blast synchronously. Used by
// the -blast CLI mode.
func (a *App) RunBlast(ctx context.Context, name string) (delivery.Report, error) {
	cfg := a.cfgm.Get()
	bc, ok := cfg.Blast(name)
	if !ok {
		return delivery.Report{}, fmt.Errorf("unknown blast %q", name)
	}
	def, err := blastDef(bc, cfg.Limits)
	if err != nil {
		return delivery.Report{}, err
	}
	payloads, err := blast.Build(def)
	if err != nil {
		return delivery.Report{}, err
	}
	return a.delivery.Deliver(ctx, name, payloads), nil
}

func (a *App) applyConfig(ctx context.Context, cfg *config.Config) {
	a.logs.Apply(logxConfig(cfg))
	dcfg, err := deliveryConfig(cfg)
	if err != nil {
		a.log.Warn("delivery config rejected", logx.Err(err))
	} else {
		a.delivery.Apply(dcfg)
	}
	blasts, err := blastDefs(cfg)
	if err != nil {
		a.log.Warn("blast definitions rejected", logx.Err(err))
		return
	}
	if err := a.blasts.Apply(ctx, blasts); err != nil {
		a.log.Warn("blast schedule rejected", logx.Err(err))
	}
}

// pruneLoop trims old delivery-log rows daily.
func (a *App) pruneLoop(ctx context.Context) {
	const retention = 30 * 24 * time.Hour
	t := time.NewTicker(24 * time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := a.store.PruneDeliveries(ctx, now.Add(-retention))
			if err != nil {
				a.log.Warn("delivery log prune failed", logx.Err(err))
				continue
			}
			if n > 0 {
				a.log.Debug("delivery log pruned", logx.Int64("rows", n))
			}
		}
	}
}

// notifySystemd reports READY and keeps the watchdog fed when the process
// runs as a Type=notify unit. Outside systemd both calls are no-ops.
func (a *App) notifySystemd(ctx context.Context) {
	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Warn("sd_notify failed", logx.Err(err))
	} else if ok {
		a.log.Debug("systemd notified ready")
	}

	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		t := time.NewTicker(interval / 2)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			}
		}
	}()
}
