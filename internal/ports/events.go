package ports

import "context"

// EventPublisher pushes storefront events onto the platform event stream.
// Partition keys keep per-tenant ordering on the stream side.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
}
