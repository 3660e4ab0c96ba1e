package application

import (
	"context"

	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/domain"
)

// GetHealth returns the monitor's latest composite snapshot. It takes no
// actor: load balancers poll it unauthenticated.
func (s *Service) GetHealth(context.Context) (domain.HealthSnapshot, error) {
	if s.health == nil {
		return domain.HealthSnapshot{
			CacheStatus:     domain.StatusDegraded,
			BroadcastStatus: domain.StatusDegraded,
			Overall:         domain.StatusDegraded,
		}, nil
	}
	return s.health.Snapshot(), nil
}

// GetMetrics returns the current counter readings without resetting them;
// the flush cycle owns the reset.
func (s *Service) GetMetrics(_ context.Context, actor Actor) (map[string]int64, error) {
	if actor.Claims.TenantID == "" {
		return nil, domain.ErrUnauthorized
	}
	if s.metrics == nil {
		return map[string]int64{}, nil
	}
	return s.metrics.Snapshot(), nil
}

// Uptime reports seconds since boot for the liveness payload.
func (s *Service) Uptime() int64 {
	return int64(s.nowFn().Sub(s.startedAt).Seconds())
}

// ServiceName exposes the configured identity for response envelopes.
func (s *Service) ServiceName() string { return s.cfg.ServiceName }

// Version exposes the configured build version.
func (s *Service) Version() string { return s.cfg.Version }
