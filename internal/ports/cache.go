package ports

import (
	"context"
	"time"

	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/domain"
)

// CacheTier is a single cache level. The remote Redis tier, the local
// in-process tier, and the circuit breaker wrapping the remote tier all
// satisfy it, which is what lets the tiered store compose them freely.
type CacheTier interface {
	// Get returns the stored value and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeletePattern removes every key matching the glob pattern and
	// reports how many were removed.
	DeletePattern(ctx context.Context, pattern string) (int, error)
}

// Loader produces the authoritative value for a key on a full cache miss.
// A Loader error propagates verbatim to the caller; there is no cached
// substitute for a failed authoritative read.
type Loader interface {
	Load(ctx context.Context) ([]byte, error)
}

// LoaderFunc adapts a closure to the Loader capability.
type LoaderFunc func(ctx context.Context) ([]byte, error)

func (f LoaderFunc) Load(ctx context.Context) ([]byte, error) { return f(ctx) }

// CacheStore is the tiered cache-aside surface used by the application
// layer. Implementations never fail a Get because a tier is unavailable;
// only a Loader failure surfaces as an error.
type CacheStore interface {
	Get(ctx context.Context, key string, ttl time.Duration, loader Loader) (domain.CacheItem, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) (int, error)
}
