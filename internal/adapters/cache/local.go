package cache

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/domain"
)

const localShardCount = 16

// LocalTier is the bounded in-process cache level. It is sharded so
// unrelated keys never contend on one lock, and expiry is lazy: an entry
// past its deadline is dropped on the access that finds it, never before.
type LocalTier struct {
	shards      [localShardCount]*localShard
	ttlCeiling  time.Duration
	maxPerShard int
	nowFn       func() time.Time
}

type localShard struct {
	mu      sync.RWMutex
	entries map[string]localEntry
}

type localEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewLocalTier builds a local tier holding at most maxEntries values with
// per-entry TTL clamped to ttlCeiling. The ceiling keeps a process-local
// copy from outliving the shared one by a wide margin.
func NewLocalTier(maxEntries int, ttlCeiling time.Duration) *LocalTier {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	if ttlCeiling <= 0 {
		ttlCeiling = time.Minute
	}
	t := &LocalTier{
		ttlCeiling:  ttlCeiling,
		maxPerShard: maxEntries / localShardCount,
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
	if t.maxPerShard < 1 {
		t.maxPerShard = 1
	}
	for i := range t.shards {
		t.shards[i] = &localShard{entries: map[string]localEntry{}}
	}
	return t
}

func (t *LocalTier) shard(key string) *localShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return t.shards[h.Sum32()%localShardCount]
}

func (t *LocalTier) Get(_ context.Context, key string) ([]byte, bool, error) {
	s := t.shard(key)
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if t.nowFn().After(entry.expiresAt) {
		s.mu.Lock()
		if cur, still := s.entries[key]; still && t.nowFn().After(cur.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return append([]byte(nil), entry.value...), true, nil
}

func (t *LocalTier) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 || ttl > t.ttlCeiling {
		ttl = t.ttlCeiling
	}
	now := t.nowFn()
	s := t.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[key]; !exists && len(s.entries) >= t.maxPerShard {
		s.evictOne(now)
	}
	s.entries[key] = localEntry{
		value:     append([]byte(nil), value...),
		expiresAt: now.Add(ttl),
	}
	return nil
}

// evictOne removes one expired entry if any exists, otherwise the entry
// closest to expiry. Called with the shard lock held.
func (s *localShard) evictOne(now time.Time) {
	var victim string
	var victimExpiry time.Time
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
			return
		}
		if victim == "" || e.expiresAt.Before(victimExpiry) {
			victim = k
			victimExpiry = e.expiresAt
		}
	}
	if victim != "" {
		delete(s.entries, victim)
	}
}

func (t *LocalTier) Delete(_ context.Context, key string) error {
	s := t.shard(key)
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

func (t *LocalTier) DeletePattern(_ context.Context, pattern string) (int, error) {
	removed := 0
	for _, s := range t.shards {
		s.mu.Lock()
		for k := range s.entries {
			if domain.MatchKeyPattern(pattern, k) {
				delete(s.entries, k)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed, nil
}

// Len reports the number of live entries, counting lazily-expired ones
// until an access drops them.
func (t *LocalTier) Len() int {
	n := 0
	for _, s := range t.shards {
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}
