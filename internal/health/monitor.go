package health

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/storefront/internal/infra/api/transport"
)

// StatsSource reports transport statistics.
type StatsSource interface {
	Stats() transport.MonitorStats
}

// Monitor aggregates health status from the prober and the transport.
type Monitor struct {
	baseURL    string
	prober     *Prober
	stats      StatsSource
	maxAge     time.Duration
	mu         sync.Mutex
	lastReport *HealthReport
	lastCheck  time.Time
}

// NewMonitor creates a new health monitor.
func NewMonitor(baseURL string, prober *Prober, stats StatsSource) *Monitor {
	return &Monitor{
		baseURL: baseURL,
		prober:  prober,
		stats:   stats,
		maxAge:  10 * time.Second,
	}
}

// CheckHealth returns the current report. The API is probed when the latest
// probe is older than 10s.
func (m *Monitor) CheckHealth(ctx context.Context) HealthReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Rate limit reports to avoid pinging the API on every request
	if m.lastReport != nil && time.Since(m.lastCheck) < m.maxAge {
		return *m.lastReport
	}

	if time.Since(m.prober.LastProbe()) >= m.maxAge {
		m.prober.Check(ctx)
	}

	api := APIHealth{
		BaseURL:    m.baseURL,
		Status:     StatusHealthy,
		Online:     m.prober.Online(),
		LastProbe:  m.prober.LastProbe(),
		LastChange: m.prober.LastChange(),
	}
	if err := m.prober.LastError(); err != nil {
		api.LastError = err.Error()
	}
	if m.stats != nil {
		api.Transport = m.stats.Stats()
	}

	switch {
	case !api.Online || api.Transport.Status == transport.StatusUnreachable:
		api.Status = StatusCritical
	case api.Transport.Status == transport.StatusDegraded || api.Transport.Status == transport.StatusThrottled:
		api.Status = StatusDegraded
	}

	report := HealthReport{SystemStatus: api.Status, API: api}
	m.lastReport = &report
	m.lastCheck = time.Now()
	return report
}
