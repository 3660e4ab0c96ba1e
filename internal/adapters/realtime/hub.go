package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/domain"
	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/ports"
)

func hubLogger() *slog.Logger {
	return slog.Default().With(
		"service", "M20-Storefront-Data-Access",
		"module", "realtime",
		"layer", "adapter",
	)
}

// Hub owns this process's subscription table and fans events out to the
// connections it holds. Cross-process delivery goes through the
// backplane: every publish is pushed onto it, and every process delivers
// from its own backplane subscription, so a publish from process A
// reaches a socket held by process B without either knowing about the
// other.
type Hub struct {
	backplane ports.Backplane
	counters  ports.Counters

	mu    sync.RWMutex
	subs  map[string]map[*Client]struct{}
	conns map[*Client]struct{}
}

func NewHub(backplane ports.Backplane, counters ports.Counters) *Hub {
	return &Hub{
		backplane: backplane,
		counters:  counters,
		subs:      map[string]map[*Client]struct{}{},
		conns:     map[*Client]struct{}{},
	}
}

// scope is the tenant-qualified subscription key. Clients only ever
// subscribe within their own tenant, so two tenants using the same topic
// name can never see each other's events.
func scope(tenantID string, topic domain.Topic) string {
	return tenantID + "/" + string(topic)
}

// Register attaches a connection to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
}

// Subscribe adds a connection to a topic after checking the capability the
// topic implies. Unauthorized attempts are dropped without any signal to
// the client: an error channel here would leak resource existence.
func (h *Hub) Subscribe(c *Client, topic domain.Topic) {
	if !c.claims.HasPermission(topic.Permission()) {
		h.counters.RecordUnauthorizedSubscribe()
		hubLogger().Debug("subscribe dropped",
			"operation", "hub_subscribe",
			"outcome", "unauthorized",
			"connection_id", c.id,
			"topic", string(topic),
		)
		return
	}
	key := scope(c.claims.TenantID, topic)
	h.mu.Lock()
	set, ok := h.subs[key]
	if !ok {
		set = map[*Client]struct{}{}
		h.subs[key] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
}

// Unsubscribe removes a connection from a topic. Unsubscribing from a
// topic that was never subscribed is a no-op.
func (h *Hub) Unsubscribe(c *Client, topic domain.Topic) {
	key := scope(c.claims.TenantID, topic)
	h.mu.Lock()
	if set, ok := h.subs[key]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, key)
		}
	}
	h.mu.Unlock()
}

// Drop removes a connection and all of its subscriptions. Called on
// connection termination; subscriptions have no life beyond the socket.
func (h *Hub) Drop(c *Client) {
	h.mu.Lock()
	delete(h.conns, c)
	for key, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, key)
		}
	}
	h.mu.Unlock()
}

// ActiveConnections reports how many sockets this process holds.
func (h *Hub) ActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Subscribed reports whether the connection holds a subscription on the
// topic within its tenant.
func (h *Hub) Subscribed(c *Client, topic domain.Topic) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	set, ok := h.subs[scope(c.claims.TenantID, topic)]
	if !ok {
		return false
	}
	_, ok = set[c]
	return ok
}

// Publish pushes an event onto the backplane. Local delivery also happens
// through the backplane echo, so every process runs the same path. A
// backplane failure is logged and the event dropped; clients re-derive
// state through the read path.
func (h *Hub) Publish(ctx context.Context, tenantID string, topic domain.Topic, event domain.UpdateEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.counters.RecordPublishError()
		return
	}
	if err := h.backplane.Publish(ctx, scope(tenantID, topic), payload); err != nil {
		h.counters.RecordPublishError()
		hubLogger().Warn("backplane publish failed",
			"operation", "hub_publish",
			"outcome", "dropped",
			"topic", string(topic),
			"error", err.Error(),
		)
		return
	}
	h.counters.RecordPublish()
}

// Run pumps backplane traffic into local connections until ctx ends.
func (h *Hub) Run(ctx context.Context) error {
	return h.backplane.Subscribe(ctx, h.deliver)
}

func (h *Hub) deliver(channel string, payload []byte) {
	h.mu.RLock()
	set, ok := h.subs[channel]
	if !ok {
		h.mu.RUnlock()
		return
	}
	targets := make([]*Client, 0, len(set))
	for c := range set {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.enqueue(payload) {
			h.counters.RecordDropped()
		}
	}
}
