package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/domain"
	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/ports"
)

// probeTier stores the probe value so the round-trip check passes.
type probeTier struct {
	mu      sync.Mutex
	entries map[string][]byte
	fail    bool
}

func newProbeTier() *probeTier { return &probeTier{entries: map[string][]byte{}} }

var errProbe = errors.New("tier down")

func (p *probeTier) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return nil, false, errProbe
	}
	v, ok := p.entries[key]
	return v, ok, nil
}

func (p *probeTier) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errProbe
	}
	p.entries[key] = value
	return nil
}

func (p *probeTier) Delete(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errProbe
	}
	delete(p.entries, key)
	return nil
}

func (p *probeTier) DeletePattern(context.Context, string) (int, error) { return 0, nil }

type pingBackplane struct {
	fail bool
}

func (b *pingBackplane) Publish(context.Context, string, []byte) error { return nil }
func (b *pingBackplane) Subscribe(ctx context.Context, _ func(string, []byte)) error {
	<-ctx.Done()
	return ctx.Err()
}
func (b *pingBackplane) Close() error { return nil }

func (b *pingBackplane) Ping(context.Context) error {
	if b.fail {
		return errors.New("backplane unreachable")
	}
	return nil
}

type staticHub struct {
	conns int
}

func (h *staticHub) Publish(context.Context, string, domain.Topic, domain.UpdateEvent) {}
func (h *staticHub) ActiveConnections() int                                            { return h.conns }

type captureSink struct {
	mu      sync.Mutex
	batches [][]ports.MetricSample
}

func (s *captureSink) Emit(_ context.Context, samples []ports.MetricSample) error {
	s.mu.Lock()
	s.batches = append(s.batches, samples)
	s.mu.Unlock()
	return nil
}

func newTestMonitor(tier ports.CacheTier, breakerState string, bp ports.Backplane) *Monitor {
	return NewMonitor(
		tier,
		func() string { return breakerState },
		bp,
		&staticHub{conns: 7},
		NewCounters(),
		&captureSink{},
		MonitorConfig{},
	)
}

func TestMonitorHealthy(t *testing.T) {
	m := newTestMonitor(newProbeTier(), "closed", &pingBackplane{})
	m.CheckNow(context.Background())

	snap := m.Snapshot()
	if snap.Overall != domain.StatusHealthy {
		t.Fatalf("expected healthy, got %+v", snap)
	}
	if snap.ActiveConnections != 7 {
		t.Fatalf("expected connection count in snapshot, got %d", snap.ActiveConnections)
	}
	if snap.LastCheckedAt.IsZero() {
		t.Fatal("expected check timestamp")
	}
}

func TestMonitorDegradedWhileBreakerOpen(t *testing.T) {
	m := newTestMonitor(newProbeTier(), "open", &pingBackplane{})
	m.CheckNow(context.Background())

	snap := m.Snapshot()
	if snap.CacheStatus != domain.StatusDegraded || snap.Overall != domain.StatusDegraded {
		t.Fatalf("expected degraded while breaker recovers, got %+v", snap)
	}
}

func TestMonitorUnhealthyCacheProbe(t *testing.T) {
	tier := newProbeTier()
	tier.fail = true
	m := newTestMonitor(tier, "closed", &pingBackplane{})
	m.CheckNow(context.Background())

	snap := m.Snapshot()
	if snap.CacheStatus != domain.StatusUnhealthy || snap.Overall != domain.StatusUnhealthy {
		t.Fatalf("expected unhealthy cache, got %+v", snap)
	}
}

func TestMonitorUnhealthyBackplane(t *testing.T) {
	m := newTestMonitor(newProbeTier(), "closed", &pingBackplane{fail: true})
	m.CheckNow(context.Background())

	snap := m.Snapshot()
	if snap.BroadcastStatus != domain.StatusUnhealthy || snap.Overall != domain.StatusUnhealthy {
		t.Fatalf("expected unhealthy broadcast, got %+v", snap)
	}
	if snap.CacheStatus != domain.StatusHealthy {
		t.Fatalf("cache probe should still pass, got %+v", snap)
	}
}

func TestMonitorFlushEmitsAndResets(t *testing.T) {
	counters := NewCounters()
	sink := &captureSink{}
	m := NewMonitor(newProbeTier(), nil, &pingBackplane{}, &staticHub{}, counters, sink, MonitorConfig{})

	counters.RecordHit(domain.SourceRemote)
	counters.RecordMiss()
	m.flush(context.Background())

	sink.mu.Lock()
	batches := len(sink.batches)
	var hit int64 = -1
	if batches > 0 {
		for _, s := range sink.batches[0] {
			if s.Name == "cache_hits_remote" {
				hit = s.Value
			}
		}
	}
	sink.mu.Unlock()
	if batches != 1 || hit != 1 {
		t.Fatalf("expected one batch with the hit sample, batches=%d hit=%d", batches, hit)
	}

	if snap := counters.Snapshot(); snap["cache_hits_remote"] != 0 {
		t.Fatalf("expected counters reset after flush, got %+v", snap)
	}
}

func TestMonitorInitialSnapshotIsDegraded(t *testing.T) {
	m := newTestMonitor(newProbeTier(), "closed", &pingBackplane{})
	if snap := m.Snapshot(); snap.Overall != domain.StatusDegraded {
		t.Fatalf("before the first check the service must not report healthy, got %+v", snap)
	}
}
