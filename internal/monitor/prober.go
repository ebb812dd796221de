package monitor

import (
	"context"
	"time"

	"github.com/lshigami/quizsync/config"
	"github.com/rs/zerolog/log"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Prober feeds the monitor with the result of periodic health checks.
type Prober struct {
	pinger   Pinger
	monitor  *Monitor
	interval time.Duration
}

func NewProber(pinger Pinger, monitor *Monitor, cfg *config.Config) *Prober {
	return &Prober{pinger: pinger, monitor: monitor, interval: cfg.Sync.ProbeInterval}
}

func (p *Prober) Probe(ctx context.Context) bool {
	timeout := p.interval
	if timeout <= 0 || timeout > 5*time.Second {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := p.pinger.Ping(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("Health probe failed")
		p.monitor.SetOnline(false)
		return false
	}
	p.monitor.SetOnline(true)
	return true
}

// Run probes until ctx is done. A non-positive interval disables probing.
func (p *Prober) Run(ctx context.Context) {
	if p.interval <= 0 {
		return
	}
	p.Probe(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Probe(ctx)
		}
	}
}
