package telemetry

import (
	"sync/atomic"
	"time"

	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/domain"
	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/ports"
)

// Counters accumulates hot-path activity between sink flushes. Every
// field is an atomic so recording never takes a lock on the read path.
// Flush drains and resets: the sink sees per-interval rates, not
// cumulative totals.
type Counters struct {
	remoteHits   atomic.Int64
	localHits    atomic.Int64
	misses       atomic.Int64
	sets         atomic.Int64
	deletes      atomic.Int64
	cacheErrors  atomic.Int64
	loaderLoads  atomic.Int64
	publishes    atomic.Int64
	publishFails atomic.Int64
	dropped      atomic.Int64
	deniedSubs   atomic.Int64
}

func NewCounters() *Counters { return &Counters{} }

var _ ports.Counters = (*Counters)(nil)

func (c *Counters) RecordHit(source string) {
	if source == domain.SourceLocal {
		c.localHits.Add(1)
		return
	}
	c.remoteHits.Add(1)
}

func (c *Counters) RecordMiss()                  { c.misses.Add(1) }
func (c *Counters) RecordSet()                   { c.sets.Add(1) }
func (c *Counters) RecordDelete(count int)       { c.deletes.Add(int64(count)) }
func (c *Counters) RecordCacheError()            { c.cacheErrors.Add(1) }
func (c *Counters) RecordLoaderLoad()            { c.loaderLoads.Add(1) }
func (c *Counters) RecordPublish()               { c.publishes.Add(1) }
func (c *Counters) RecordPublishError()          { c.publishFails.Add(1) }
func (c *Counters) RecordDropped()               { c.dropped.Add(1) }
func (c *Counters) RecordUnauthorizedSubscribe() { c.deniedSubs.Add(1) }

// Snapshot reads the counters without resetting, for the metrics API.
func (c *Counters) Snapshot() map[string]int64 {
	return map[string]int64{
		"cache_hits_remote":       c.remoteHits.Load(),
		"cache_hits_local":        c.localHits.Load(),
		"cache_misses":            c.misses.Load(),
		"cache_sets":              c.sets.Load(),
		"cache_deletes":           c.deletes.Load(),
		"cache_errors":            c.cacheErrors.Load(),
		"loader_loads":            c.loaderLoads.Load(),
		"realtime_publishes":      c.publishes.Load(),
		"realtime_publish_errors": c.publishFails.Load(),
		"realtime_dropped_frames": c.dropped.Load(),
		"realtime_denied_subs":    c.deniedSubs.Load(),
	}
}

// Flush drains every counter into sink samples stamped at now.
func (c *Counters) Flush(now time.Time) []ports.MetricSample {
	drain := func(v *atomic.Int64) int64 { return v.Swap(0) }
	fields := []struct {
		name string
		v    *atomic.Int64
	}{
		{"cache_hits_remote", &c.remoteHits},
		{"cache_hits_local", &c.localHits},
		{"cache_misses", &c.misses},
		{"cache_sets", &c.sets},
		{"cache_deletes", &c.deletes},
		{"cache_errors", &c.cacheErrors},
		{"loader_loads", &c.loaderLoads},
		{"realtime_publishes", &c.publishes},
		{"realtime_publish_errors", &c.publishFails},
		{"realtime_dropped_frames", &c.dropped},
		{"realtime_denied_subs", &c.deniedSubs},
	}
	samples := make([]ports.MetricSample, 0, len(fields))
	for _, f := range fields {
		samples = append(samples, ports.MetricSample{
			Name:      f.name,
			Value:     drain(f.v),
			Unit:      "count",
			Timestamp: now,
		})
	}
	return samples
}
