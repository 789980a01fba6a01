package app

import (
	"fmt"

	"silentping/internal/config"
	"silentping/internal/services/blast"
	"silentping/internal/services/delivery"
	"silentping/internal/storage"
	"silentping/pkg/logx"
)

// The config package keeps wire-friendly types (duration strings, loose
// template field bags); these helpers map them onto what the services take.

func logxConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func deliveryConfig(cfg *config.Config) (delivery.Config, error) {
	out := delivery.Config{Enabled: true}
	d := cfg.Delivery
	if d == nil {
		return out, nil
	}
	if d.Enabled != nil {
		out.Enabled = *d.Enabled
	}
	delay, err := config.Duration("delivery.send_delay", d.SendDelay)
	if err != nil {
		return delivery.Config{}, err
	}
	ttl, err := config.Duration("delivery.status_ttl", d.StatusTTL)
	if err != nil {
		return delivery.Config{}, err
	}
	out.SendDelay = delay
	out.StatusTTL = ttl
	out.StatusMax = d.StatusMax
	return out, nil
}

func storageConfig(cfg *config.Config) storage.Config {
	s := cfg.Storage
	if s == nil {
		return storage.Config{}
	}
	busy, err := config.Duration("storage.busy_timeout", s.BusyTimeout)
	if err != nil {
		// Validate() already rejected malformed durations; keep the default.
		busy = 0
	}
	return storage.Config{Enabled: s.Enabled, Path: s.Path, BusyTimeout: busy}
}

func blastDefs(cfg *config.Config) ([]blast.Blast, error) {
	out := make([]blast.Blast, 0, len(cfg.Blasts))
	for i := range cfg.Blasts {
		def, err := blastDef(&cfg.Blasts[i], cfg.Limits)
		if err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	return out, nil
}

func blastDef(bc *config.BlastConfig, global *config.LimitsConfig) (blast.Blast, error) {
	tmpl, err := bc.Template.Template()
	if err != nil {
		return blast.Blast{}, fmt.Errorf("blast %q: %w", bc.Name, err)
	}

	// A blast's own limits section replaces the global one entirely.
	limits := bc.Limits
	if limits == nil {
		limits = global
	}
	lim, err := limits.Limits()
	if err != nil {
		return blast.Blast{}, fmt.Errorf("blast %q: %w", bc.Name, err)
	}

	return blast.Blast{
		Name:       bc.Name,
		Cron:       bc.Cron,
		Chat:       bc.Chat.Chat(),
		Recipients: bc.Recipients,
		Template:   tmpl,
		Limits:     lim,
	}, nil
}
