package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Topic is a realtime channel a connection can subscribe to. Topics are
// always implicitly scoped to the connection's tenant; the rendered form
// never carries the tenant id.
type Topic string

const (
	// TopicTenantDashboard carries tenant-wide activity for admin dashboards.
	TopicTenantDashboard Topic = "tenant-dashboard"

	topicProductPrefix = "product:"
	topicOrderPrefix   = "order:"
)

// ParseTopic validates a client-supplied topic string.
func ParseTopic(raw string) (Topic, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == string(TopicTenantDashboard):
		return TopicTenantDashboard, nil
	case strings.HasPrefix(raw, topicProductPrefix) && len(raw) > len(topicProductPrefix):
		return Topic(raw), nil
	case strings.HasPrefix(raw, topicOrderPrefix) && len(raw) > len(topicOrderPrefix):
		return Topic(raw), nil
	default:
		return "", ErrInvalidInput
	}
}

// Permission returns the capability a caller must hold to subscribe to the
// topic. Authorization failures are dropped silently upstream so topic
// names cannot be used to probe for resource existence.
func (t Topic) Permission() string {
	switch {
	case t == TopicTenantDashboard:
		return "dashboard:read"
	case strings.HasPrefix(string(t), topicOrderPrefix):
		return "orders:read"
	default:
		return "catalog:read"
	}
}

// ProductTopic renders the per-product topic.
func ProductTopic(productID string) Topic {
	return Topic(topicProductPrefix + productID)
}

// OrderTopic renders the per-order topic.
func OrderTopic(orderID string) Topic {
	return Topic(topicOrderPrefix + orderID)
}

// UpdateEvent is the typed frame pushed to realtime subscribers. Delivery
// is at-most-once; a client that was disconnected when the event fired
// re-derives state through the read path on reconnect.
type UpdateEvent struct {
	Topic     string          `json:"topic"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Update event types emitted by the write path.
const (
	EventProductUpdated = "product.updated"
	EventCacheFlushed   = "cache.flushed"
)
