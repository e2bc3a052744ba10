package transport

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Status represents the health state of the API as seen by the executor.
type Status int

const (
	StatusHealthy     Status = iota // API is answering normally
	StatusDegraded                  // API is slow or erroring intermittently
	StatusThrottled                 // API is rate limiting this client
	StatusUnreachable               // consecutive transport failures
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusThrottled:
		return "throttled"
	case StatusUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// MonitorStats holds monitoring statistics for the executor.
type MonitorStats struct {
	Status              Status        `json:"-"`
	StatusName          string        `json:"status"`
	AverageLatency      time.Duration `json:"average_latency"`
	Requests            int           `json:"requests"`
	Failures            int           `json:"failures"`
	ThrottleCount429    int           `json:"throttle_count_429"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	LastSuccessAt       time.Time     `json:"last_success_at"`
	LastFailureAt       time.Time     `json:"last_failure_at"`
}

// Monitor tracks latency, failures and throttling.
type Monitor struct {
	mu sync.RWMutex

	recentLatencies  []time.Duration
	maxLatencyWindow int

	requests            int
	failures            int
	consecutiveFailures int
	lastSuccessAt       time.Time
	lastFailureAt       time.Time

	status429Count     int
	lastThrottleTime   time.Time
	retryAfterDuration time.Duration

	slowResponseThreshold time.Duration
	unreachableAfter      int
	degradedErrorRate     float64
}

// NewMonitor creates a new monitor with default settings.
func NewMonitor() *Monitor {
	return &Monitor{
		recentLatencies:       make([]time.Duration, 0, 100),
		maxLatencyWindow:      100,
		slowResponseThreshold: 3 * time.Second,
		unreachableAfter:      3,
		degradedErrorRate:     0.3,
	}
}

// RecordRequest records an answered request with its latency.
func (m *Monitor) RecordRequest(latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.recentLatencies = append(m.recentLatencies, latency)
	if len(m.recentLatencies) > m.maxLatencyWindow {
		m.recentLatencies = m.recentLatencies[1:]
	}

	m.requests++
	m.consecutiveFailures = 0
	m.lastSuccessAt = time.Now()
}

// RecordFailure records a transport failure or a 5xx.
func (m *Monitor) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests++
	m.failures++
	m.consecutiveFailures++
	m.lastFailureAt = time.Now()
}

// RecordThrottle records a 429 and its Retry-After hint.
func (m *Monitor) RecordThrottle(retryAfter string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests++
	m.status429Count++
	m.lastThrottleTime = time.Now()
	m.retryAfterDuration = parseRetryAfter(retryAfter)
}

// Status returns the current status.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statusLocked()
}

func (m *Monitor) statusLocked() Status {
	if m.consecutiveFailures >= m.unreachableAfter {
		return StatusUnreachable
	}

	if m.status429Count > 0 && time.Since(m.lastThrottleTime) < m.retryAfterDuration {
		return StatusThrottled
	}

	if len(m.recentLatencies) > 10 && m.averageLatencyLocked() > m.slowResponseThreshold {
		return StatusDegraded
	}

	if m.requests >= 10 && float64(m.failures)/float64(m.requests) > m.degradedErrorRate {
		return StatusDegraded
	}

	return StatusHealthy
}

// RetryAfter returns the remaining time before the API accepts requests again.
func (m *Monitor) RetryAfter() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	remaining := m.retryAfterDuration - time.Since(m.lastThrottleTime)
	if remaining > 0 {
		return remaining
	}
	return 0
}

// AverageLatency returns the average latency of recent requests.
func (m *Monitor) AverageLatency() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.averageLatencyLocked()
}

func (m *Monitor) averageLatencyLocked() time.Duration {
	if len(m.recentLatencies) == 0 {
		return 0
	}

	var total time.Duration
	for _, lat := range m.recentLatencies {
		total += lat
	}
	return total / time.Duration(len(m.recentLatencies))
}

// Stats returns current monitoring statistics.
func (m *Monitor) Stats() MonitorStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := m.statusLocked()
	return MonitorStats{
		Status:              status,
		StatusName:          status.String(),
		AverageLatency:      m.averageLatencyLocked(),
		Requests:            m.requests,
		Failures:            m.failures,
		ThrottleCount429:    m.status429Count,
		ConsecutiveFailures: m.consecutiveFailures,
		LastSuccessAt:       m.lastSuccessAt,
		LastFailureAt:       m.lastFailureAt,
	}
}

// parseRetryAfter understands both delta-seconds and HTTP-date forms.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return time.Minute
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
		return 0
	}
	return time.Minute
}
