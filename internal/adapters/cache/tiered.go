package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/domain"
	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/ports"
)

func cacheLogger() *slog.Logger {
	return slog.Default().With(
		"service", "M20-Storefront-Data-Access",
		"module", "cache",
		"layer", "adapter",
	)
}

// TieredConfig tunes the composition of the two cache levels.
type TieredConfig struct {
	// RemoteTimeout bounds every round-trip to the distributed tier. On
	// timeout the degradation path applies: local tier, then loader.
	RemoteTimeout time.Duration
	// LocalCeiling is the longest a local copy may live, regardless of the
	// remote TTL it shadows.
	LocalCeiling time.Duration
}

// TieredStore composes the distributed tier (behind the breaker) with the
// local in-process tier into the cache-aside surface the application
// uses. The distributed result wins whenever both tiers hold a key; the
// local tier is a fallback, not an authority.
type TieredStore struct {
	remote   ports.CacheTier
	local    ports.CacheTier
	counters ports.Counters
	cfg      TieredConfig
}

func NewTieredStore(remote, local ports.CacheTier, counters ports.Counters, cfg TieredConfig) *TieredStore {
	if cfg.RemoteTimeout <= 0 {
		cfg.RemoteTimeout = 250 * time.Millisecond
	}
	if cfg.LocalCeiling <= 0 {
		cfg.LocalCeiling = time.Minute
	}
	return &TieredStore{remote: remote, local: local, counters: counters, cfg: cfg}
}

// Get consults remote → local → loader. Tier failures are downgraded to
// misses and recorded; only a loader failure is returned to the caller.
func (s *TieredStore) Get(ctx context.Context, key string, ttl time.Duration, loader ports.Loader) (domain.CacheItem, error) {
	remoteCtx, cancel := context.WithTimeout(ctx, s.cfg.RemoteTimeout)
	value, found, err := s.remote.Get(remoteCtx, key)
	cancel()
	switch {
	case err == nil && found:
		s.counters.RecordHit(domain.SourceRemote)
		// Opportunistic refresh keeps the hot key warm for lock-free reads.
		_ = s.local.Set(ctx, key, value, s.localTTL(ttl))
		return domain.CacheItem{Key: key, Value: value, Found: true, Source: domain.SourceRemote, TTL: ttl}, nil
	case err != nil:
		s.recordRemoteFailure("get", key, err)
	}

	if value, found, localErr := s.local.Get(ctx, key); localErr == nil && found {
		s.counters.RecordHit(domain.SourceLocal)
		return domain.CacheItem{Key: key, Value: value, Found: true, Source: domain.SourceLocal, TTL: s.localTTL(ttl)}, nil
	}

	s.counters.RecordMiss()
	if loader == nil {
		return domain.CacheItem{Key: key, Found: false}, nil
	}

	loaded, err := loader.Load(ctx)
	if err != nil {
		// No cached substitute exists for a failed authoritative read.
		return domain.CacheItem{}, err
	}
	s.counters.RecordLoaderLoad()
	s.storeBothTiers(ctx, key, loaded, ttl)
	return domain.CacheItem{Key: key, Value: loaded, Found: true, Source: domain.SourceLoader, TTL: ttl}, nil
}

// Set writes through to the distributed tier best-effort and to the local
// tier unconditionally. A remote write failure is logged and counted; the
// caller never sees it.
func (s *TieredStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.counters.RecordSet()
	s.storeBothTiers(ctx, key, value, ttl)
	return nil
}

func (s *TieredStore) storeBothTiers(ctx context.Context, key string, value []byte, ttl time.Duration) {
	remoteCtx, cancel := context.WithTimeout(ctx, s.cfg.RemoteTimeout)
	if err := s.remote.Set(remoteCtx, key, value, ttl); err != nil {
		s.recordRemoteFailure("set", key, err)
	}
	cancel()
	_ = s.local.Set(ctx, key, value, s.localTTL(ttl))
}

func (s *TieredStore) Delete(ctx context.Context, key string) error {
	s.counters.RecordDelete(1)
	remoteCtx, cancel := context.WithTimeout(ctx, s.cfg.RemoteTimeout)
	if err := s.remote.Delete(remoteCtx, key); err != nil {
		s.recordRemoteFailure("delete", key, err)
	}
	cancel()
	return s.local.Delete(ctx, key)
}

// DeletePattern sweeps the distributed tier first, then the local one.
// The sweep is not atomic across tiers or processes; other processes keep
// their local copies until the local ceiling expires them.
func (s *TieredStore) DeletePattern(ctx context.Context, pattern string) (int, error) {
	remoteCtx, cancel := context.WithTimeout(ctx, 5*s.cfg.RemoteTimeout)
	removed, err := s.remote.DeletePattern(remoteCtx, pattern)
	cancel()
	if err != nil {
		s.recordRemoteFailure("delete_pattern", pattern, err)
	}
	localRemoved, _ := s.local.DeletePattern(ctx, pattern)
	if localRemoved > removed {
		removed = localRemoved
	}
	s.counters.RecordDelete(removed)
	return removed, nil
}

func (s *TieredStore) localTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > s.cfg.LocalCeiling {
		return s.cfg.LocalCeiling
	}
	return ttl
}

func (s *TieredStore) recordRemoteFailure(op, key string, err error) {
	s.counters.RecordCacheError()
	if errors.Is(err, domain.ErrCircuitOpen) {
		// Short-circuited calls are expected while the breaker cools down.
		return
	}
	cacheLogger().Warn("remote tier unavailable",
		"operation", "cache_"+op,
		"outcome", "degraded",
		"key", key,
		"error", err.Error(),
	)
}
