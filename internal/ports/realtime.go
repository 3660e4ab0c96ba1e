package ports

import (
	"context"

	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/domain"
)

// Backplane is the shared pub/sub channel that lets every process deliver
// to the same logical subscriber set. Any implementation that provides
// at-least-once delivery per channel and preserves per-channel publish
// order can replace the Redis one without changing hub semantics.
type Backplane interface {
	// Publish sends a payload on a channel. Failures are non-fatal to the
	// caller: realtime degrades to "client re-fetches on demand".
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe blocks, invoking handler for every message on every
	// channel of the hub's namespace, until ctx is cancelled.
	Subscribe(ctx context.Context, handler func(channel string, payload []byte)) error
	// Ping verifies the backplane is reachable, for health probing.
	Ping(ctx context.Context) error
	Close() error
}

// Broadcaster is the hub surface the application layer publishes through.
type Broadcaster interface {
	Publish(ctx context.Context, tenantID string, topic domain.Topic, event domain.UpdateEvent)
	ActiveConnections() int
}
