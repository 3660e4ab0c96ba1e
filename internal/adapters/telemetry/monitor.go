package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/domain"
	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/ports"
)

func monitorLogger() *slog.Logger {
	return slog.Default().With(
		"service", "M20-Storefront-Data-Access",
		"module", "telemetry",
		"layer", "adapter",
	)
}

// MonitorConfig tunes the health/metrics cycle.
type MonitorConfig struct {
	HealthInterval time.Duration
	FlushInterval  time.Duration
	// ProbeTimeout bounds the synthetic round-trip.
	ProbeTimeout time.Duration
	// DegradedLatency is the probe latency above which the cache tier is
	// classified degraded rather than healthy.
	DegradedLatency time.Duration
}

// Monitor periodically exercises the distributed tier with a synthetic
// set/get/delete round-trip, inspects the hub, flushes counters to the
// sink, and keeps the latest composite HealthSnapshot for /readyz and the
// grpc health server.
type Monitor struct {
	remote    ports.CacheTier
	breakerFn func() string
	backplane ports.Backplane
	hub       ports.Broadcaster
	counters  *Counters
	sink      ports.MetricsSink
	cfg       MonitorConfig

	mu       sync.RWMutex
	snapshot domain.HealthSnapshot

	nowFn func() time.Time
}

func NewMonitor(remote ports.CacheTier, breakerFn func() string, backplane ports.Backplane, hub ports.Broadcaster, counters *Counters, sink ports.MetricsSink, cfg MonitorConfig) *Monitor {
	if cfg.HealthInterval <= 0 {
		cfg.HealthInterval = 15 * time.Second
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Minute
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 2 * time.Second
	}
	if cfg.DegradedLatency <= 0 {
		cfg.DegradedLatency = 200 * time.Millisecond
	}
	return &Monitor{
		remote:    remote,
		breakerFn: breakerFn,
		backplane: backplane,
		hub:       hub,
		counters:  counters,
		sink:      sink,
		cfg:       cfg,
		snapshot: domain.HealthSnapshot{
			CacheStatus:     domain.StatusDegraded,
			BroadcastStatus: domain.StatusDegraded,
			Overall:         domain.StatusDegraded,
		},
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

// Snapshot returns the latest composite health signal.
func (m *Monitor) Snapshot() domain.HealthSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// Run drives the health and flush cycles until ctx ends. A final flush on
// shutdown keeps the last partial interval from vanishing.
func (m *Monitor) Run(ctx context.Context) error {
	m.CheckNow(ctx)

	healthTicker := time.NewTicker(m.cfg.HealthInterval)
	flushTicker := time.NewTicker(m.cfg.FlushInterval)
	defer healthTicker.Stop()
	defer flushTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			m.flush(flushCtx)
			cancel()
			return ctx.Err()
		case <-healthTicker.C:
			m.CheckNow(ctx)
		case <-flushTicker.C:
			m.flush(ctx)
		}
	}
}

// CheckNow performs one health cycle immediately.
func (m *Monitor) CheckNow(ctx context.Context) {
	now := m.nowFn()
	cacheStatus, latency := m.probeCache(ctx)
	broadcastStatus := m.probeBroadcast(ctx)

	snap := domain.HealthSnapshot{
		CacheStatus:       cacheStatus,
		BroadcastStatus:   broadcastStatus,
		ActiveConnections: m.hub.ActiveConnections(),
		ProbeLatencyMS:    latency.Milliseconds(),
		LastCheckedAt:     now,
		Overall:           domain.WorstOf(cacheStatus, broadcastStatus),
	}
	m.mu.Lock()
	m.snapshot = snap
	m.mu.Unlock()

	if snap.Overall != domain.StatusHealthy {
		monitorLogger().Warn("health check completed",
			"operation", "health_check",
			"outcome", snap.Overall,
			"cache_status", cacheStatus,
			"broadcast_status", broadcastStatus,
			"probe_latency_ms", snap.ProbeLatencyMS,
		)
	}
}

// probeCache runs the synthetic set/get/delete round-trip through the same
// breaker-wrapped tier the read path uses, so an open breaker shows up
// here instead of being masked by a direct client.
func (m *Monitor) probeCache(ctx context.Context) (string, time.Duration) {
	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.ProbeTimeout)
	defer cancel()

	key := domain.NewCacheKey("m20-health", "probe", uuid.NewString(), "").String()
	want := []byte("ok")
	start := m.nowFn()

	if err := m.remote.Set(probeCtx, key, want, 30*time.Second); err != nil {
		return domain.StatusUnhealthy, m.nowFn().Sub(start)
	}
	got, found, err := m.remote.Get(probeCtx, key)
	if err != nil || !found || !bytes.Equal(got, want) {
		return domain.StatusUnhealthy, m.nowFn().Sub(start)
	}
	if err := m.remote.Delete(probeCtx, key); err != nil {
		return domain.StatusUnhealthy, m.nowFn().Sub(start)
	}
	elapsed := m.nowFn().Sub(start)

	if m.breakerFn != nil && m.breakerFn() != "closed" {
		return domain.StatusDegraded, elapsed
	}
	if elapsed > m.cfg.DegradedLatency {
		return domain.StatusDegraded, elapsed
	}
	return domain.StatusHealthy, elapsed
}

func (m *Monitor) probeBroadcast(ctx context.Context) string {
	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.ProbeTimeout)
	defer cancel()
	if err := m.backplane.Ping(probeCtx); err != nil {
		return domain.StatusUnhealthy
	}
	return domain.StatusHealthy
}

func (m *Monitor) flush(ctx context.Context) {
	samples := m.counters.Flush(m.nowFn())
	if err := m.sink.Emit(ctx, samples); err != nil {
		monitorLogger().Warn("metrics emission failed",
			"operation", "metrics_flush",
			"outcome", "failure",
			"error", err.Error(),
		)
	}
}
