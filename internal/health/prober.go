package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/storefront/internal/infra/api/metrics"
)

// DefaultProbeInterval is how often Run pings the API.
const DefaultProbeInterval = 30 * time.Second

// Pinger checks that the API answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Prober tracks whether the API is reachable. It starts out assuming the
// API is online until a probe says otherwise.
type Prober struct {
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration

	mu         sync.RWMutex
	online     bool
	lastErr    error
	lastProbe  time.Time
	lastChange time.Time
	listeners  []func(online bool)
}

// NewProber creates a prober. A non-positive interval uses DefaultProbeInterval.
func NewProber(pinger Pinger, interval time.Duration) *Prober {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	metrics.APIOnline.Set(1)
	return &Prober{
		pinger:   pinger,
		interval: interval,
		timeout:  10 * time.Second,
		online:   true,
	}
}

// OnChange registers fn for online/offline transitions.
func (p *Prober) OnChange(fn func(online bool)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Online reports the result of the latest probe.
func (p *Prober) Online() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.online
}

// LastError returns the error of the latest failed probe, or nil when online.
func (p *Prober) LastError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}

// LastProbe returns when the API was last probed.
func (p *Prober) LastProbe() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastProbe
}

// LastChange returns when connectivity last changed.
func (p *Prober) LastChange() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastChange
}

// Check probes once and returns whether the API is online.
func (p *Prober) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	err := p.pinger.Ping(ctx)

	p.mu.Lock()
	was := p.online
	p.online = err == nil
	p.lastErr = err
	p.lastProbe = time.Now()
	changed := was != p.online
	if changed {
		p.lastChange = p.lastProbe
	}
	online := p.online
	listeners := append([]func(bool){}, p.listeners...)
	p.mu.Unlock()

	if online {
		metrics.APIOnline.Set(1)
	} else {
		metrics.APIOnline.Set(0)
	}

	if changed {
		if online {
			slog.Info("API is back online")
		} else {
			slog.Warn("API is offline", "error", err)
		}
		for _, fn := range listeners {
			fn(online)
		}
	}
	return online
}

// Run probes immediately and then on every interval until ctx is done.
func (p *Prober) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Check(ctx)
		}
	}
}
