package realtime

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
)

// channelPrefix namespaces hub traffic on the shared redis deployment so
// the backplane never collides with cache keys or other services.
const channelPrefix = "m20:rt:"

// RedisBackplane fans hub publishes out across every service process over
// redis pub/sub. Redis preserves publish order per channel, which is what
// gives subscribers per-topic ordering in practice.
type RedisBackplane struct {
	client *redis.Client
}

func NewRedisBackplane(client *redis.Client) *RedisBackplane {
	return &RedisBackplane{client: client}
}

func (b *RedisBackplane) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.client.Publish(ctx, channelPrefix+channel, payload).Err()
}

// Subscribe blocks delivering hub traffic until ctx is cancelled. Every
// process subscribes to the whole namespace; the hub filters by its own
// subscription table.
func (b *RedisBackplane) Subscribe(ctx context.Context, handler func(channel string, payload []byte)) error {
	pubsub := b.client.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			handler(strings.TrimPrefix(msg.Channel, channelPrefix), []byte(msg.Payload))
		}
	}
}

func (b *RedisBackplane) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBackplane) Close() error {
	return b.client.Close()
}
