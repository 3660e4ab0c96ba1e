package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/domain"
	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/ports"
)

// memBackplane fans publishes out to every attached subscriber in the
// same process, standing in for redis pub/sub across two hubs.
type memBackplane struct {
	mu       sync.Mutex
	handlers []func(channel string, payload []byte)
}

func (b *memBackplane) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	handlers := append([]func(string, []byte){}, b.handlers...)
	b.mu.Unlock()
	for _, h := range handlers {
		h(channel, payload)
	}
	return nil
}

func (b *memBackplane) Subscribe(ctx context.Context, handler func(channel string, payload []byte)) error {
	b.mu.Lock()
	b.handlers = append(b.handlers, handler)
	b.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (b *memBackplane) Ping(context.Context) error { return nil }
func (b *memBackplane) Close() error               { return nil }

func (b *memBackplane) subscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}

type fakeCounters struct {
	mu         sync.Mutex
	publishes  int
	dropped    int
	deniedSubs int
}

func (c *fakeCounters) RecordHit(string)    {}
func (c *fakeCounters) RecordMiss()         {}
func (c *fakeCounters) RecordSet()          {}
func (c *fakeCounters) RecordDelete(int)    {}
func (c *fakeCounters) RecordCacheError()   {}
func (c *fakeCounters) RecordLoaderLoad()   {}
func (c *fakeCounters) RecordPublishError() {}

func (c *fakeCounters) RecordPublish() {
	c.mu.Lock()
	c.publishes++
	c.mu.Unlock()
}

func (c *fakeCounters) RecordDropped() {
	c.mu.Lock()
	c.dropped++
	c.mu.Unlock()
}

func (c *fakeCounters) RecordUnauthorizedSubscribe() {
	c.mu.Lock()
	c.deniedSubs++
	c.mu.Unlock()
}

func newTestClient(hub *Hub, tenantID string, perms ...string) *Client {
	return NewClient(hub, nil, ports.AuthClaims{TenantID: tenantID, Permissions: perms}, 10, 20)
}

func startHub(t *testing.T, bp *memBackplane, counters ports.Counters) *Hub {
	t.Helper()
	hub := NewHub(bp, counters)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = hub.Run(ctx) }()
	return hub
}

func waitForSubscribers(t *testing.T, bp *memBackplane, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for bp.subscriberCount() < want {
		if time.Now().After(deadline) {
			t.Fatalf("backplane never reached %d subscribers", want)
		}
		time.Sleep(time.Millisecond)
	}
}

func receiveEvent(t *testing.T, c *Client) domain.UpdateEvent {
	t.Helper()
	select {
	case payload := <-c.send:
		var event domain.UpdateEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		return event
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
		return domain.UpdateEvent{}
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.send:
		t.Fatalf("unexpected frame delivered: %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubCrossProcessDelivery(t *testing.T) {
	bp := &memBackplane{}
	counters := &fakeCounters{}
	hubA := startHub(t, bp, counters)
	hubB := startHub(t, bp, counters)
	waitForSubscribers(t, bp, 2)

	topic := domain.ProductTopic("p1")
	clientA := newTestClient(hubA, "t1", "catalog:read")
	clientB := newTestClient(hubB, "t1", "catalog:read")
	hubA.Register(clientA)
	hubB.Register(clientB)
	hubA.Subscribe(clientA, topic)
	hubB.Subscribe(clientB, topic)

	hubA.Publish(context.Background(), "t1", topic, domain.UpdateEvent{
		Topic: string(topic),
		Type:  domain.EventProductUpdated,
	})

	// The echo path delivers to the publishing process and the peer alike.
	for _, c := range []*Client{clientA, clientB} {
		event := receiveEvent(t, c)
		if event.Type != domain.EventProductUpdated || event.Topic != string(topic) {
			t.Fatalf("unexpected event: %+v", event)
		}
	}
	counters.mu.Lock()
	publishes := counters.publishes
	counters.mu.Unlock()
	if publishes != 1 {
		t.Fatalf("expected one publish recorded, got %d", publishes)
	}
}

func TestHubUnauthorizedSubscribeSilentlyDropped(t *testing.T) {
	bp := &memBackplane{}
	counters := &fakeCounters{}
	hub := startHub(t, bp, counters)
	waitForSubscribers(t, bp, 1)

	client := newTestClient(hub, "t1", "catalog:read")
	hub.Register(client)
	hub.Subscribe(client, domain.TopicTenantDashboard)

	if hub.Subscribed(client, domain.TopicTenantDashboard) {
		t.Fatal("subscription must not be created without dashboard:read")
	}
	counters.mu.Lock()
	deniedSubs := counters.deniedSubs
	counters.mu.Unlock()
	if deniedSubs != 1 {
		t.Fatalf("expected denied subscribe recorded, got %d", deniedSubs)
	}

	hub.Publish(context.Background(), "t1", domain.TopicTenantDashboard, domain.UpdateEvent{
		Topic: string(domain.TopicTenantDashboard),
		Type:  domain.EventCacheFlushed,
	})
	assertNoEvent(t, client)
}

func TestHubTenantIsolation(t *testing.T) {
	bp := &memBackplane{}
	hub := startHub(t, bp, &fakeCounters{})
	waitForSubscribers(t, bp, 1)

	topic := domain.ProductTopic("p1")
	tenant1 := newTestClient(hub, "t1", "catalog:read")
	tenant2 := newTestClient(hub, "t2", "catalog:read")
	hub.Register(tenant1)
	hub.Register(tenant2)
	hub.Subscribe(tenant1, topic)
	hub.Subscribe(tenant2, topic)

	hub.Publish(context.Background(), "t1", topic, domain.UpdateEvent{
		Topic: string(topic),
		Type:  domain.EventProductUpdated,
	})

	receiveEvent(t, tenant1)
	assertNoEvent(t, tenant2)
}

func TestHubSlowClientFramesDropped(t *testing.T) {
	bp := &memBackplane{}
	counters := &fakeCounters{}
	hub := startHub(t, bp, counters)
	waitForSubscribers(t, bp, 1)

	topic := domain.ProductTopic("p1")
	client := newTestClient(hub, "t1", "catalog:read")
	hub.Register(client)
	hub.Subscribe(client, topic)

	// Nothing drains client.send, so everything past the buffer is dropped.
	event := domain.UpdateEvent{Topic: string(topic), Type: domain.EventProductUpdated}
	for i := 0; i < sendBufferSize+5; i++ {
		hub.Publish(context.Background(), "t1", topic, event)
	}

	counters.mu.Lock()
	dropped := counters.dropped
	counters.mu.Unlock()
	if dropped != 5 {
		t.Fatalf("expected 5 dropped frames, got %d", dropped)
	}
}

func TestHubDropDetachesSubscriptions(t *testing.T) {
	bp := &memBackplane{}
	hub := startHub(t, bp, &fakeCounters{})
	waitForSubscribers(t, bp, 1)

	topic := domain.ProductTopic("p1")
	client := newTestClient(hub, "t1", "catalog:read")
	hub.Register(client)
	hub.Subscribe(client, topic)
	if hub.ActiveConnections() != 1 {
		t.Fatalf("expected one connection, got %d", hub.ActiveConnections())
	}

	hub.Drop(client)
	if hub.ActiveConnections() != 0 {
		t.Fatalf("expected no connections, got %d", hub.ActiveConnections())
	}
	if hub.Subscribed(client, topic) {
		t.Fatal("drop must remove subscriptions")
	}

	hub.Publish(context.Background(), "t1", topic, domain.UpdateEvent{Topic: string(topic)})
	assertNoEvent(t, client)
}
