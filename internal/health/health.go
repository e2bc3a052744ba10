// Package health provides API connectivity tracking and status reporting.
package health

import (
	"time"

	"github.com/vietddude/storefront/internal/infra/api/transport"
)

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// APIHealth contains connectivity and transport metrics for the marketplace API.
type APIHealth struct {
	BaseURL    string                 `json:"base_url"`
	Status     SystemStatus           `json:"status"`
	Online     bool                   `json:"online"`
	LastProbe  time.Time              `json:"last_probe"`
	LastChange time.Time              `json:"last_change"`
	LastError  string                 `json:"last_error,omitempty"`
	Transport  transport.MonitorStats `json:"transport"`
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus SystemStatus `json:"system_status"`
	API          APIHealth    `json:"api"`
}
