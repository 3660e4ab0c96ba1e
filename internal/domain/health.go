package domain

import "time"

// Subsystem health classifications. Degraded means the subsystem answered
// but outside its latency budget or while the breaker is recovering.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthSnapshot is the composite health signal recomputed on every
// monitor cycle. It is read by load balancers through /readyz and by the
// grpc health server; it is never persisted.
type HealthSnapshot struct {
	CacheStatus       string    `json:"cache_status"`
	BroadcastStatus   string    `json:"broadcast_status"`
	ActiveConnections int       `json:"active_connections"`
	ProbeLatencyMS    int64     `json:"probe_latency_ms"`
	LastCheckedAt     time.Time `json:"last_checked_at"`
	Overall           string    `json:"overall"`
}

// WorstOf folds component statuses into the composite status.
func WorstOf(statuses ...string) string {
	overall := StatusHealthy
	for _, s := range statuses {
		switch s {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			overall = StatusDegraded
		}
	}
	return overall
}
