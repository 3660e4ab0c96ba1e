package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect builds a redis client from either a redis:// URL or a bare
// host:port address.
func Connect(_ context.Context, redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") {
		opt, parseErr := redis.ParseURL(redisURL)
		if parseErr != nil {
			return nil, fmt.Errorf("parse redis url: %w", parseErr)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// RemoteTier is the distributed cache level shared by every service
// process. It is the authoritative tier between processes; the local tier
// is only an accelerator in front of it.
type RemoteTier struct {
	client *redis.Client
}

func NewRemoteTier(client *redis.Client) *RemoteTier {
	return &RemoteTier{client: client}
}

func (t *RemoteTier) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := t.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return raw, true, nil
}

func (t *RemoteTier) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return t.client.Set(ctx, key, value, ttl).Err()
}

func (t *RemoteTier) Delete(ctx context.Context, key string) error {
	return t.client.Del(ctx, key).Err()
}

// DeletePattern walks the keyspace with SCAN and deletes matches in
// batches. SCAN keeps the sweep incremental so a large pattern never
// blocks the server the way KEYS would.
func (t *RemoteTier) DeletePattern(ctx context.Context, pattern string) (int, error) {
	removed := 0
	iter := t.client.Scan(ctx, 0, pattern, 256).Iterator()
	batch := make([]string, 0, 256)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := t.client.Del(ctx, batch...).Result()
		removed += int(n)
		batch = batch[:0]
		return err
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= 256 {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, err
	}
	if err := flush(); err != nil {
		return removed, err
	}
	return removed, nil
}

// Ping exposes connectivity for the health monitor's synthetic probe.
func (t *RemoteTier) Ping(ctx context.Context) error {
	return t.client.Ping(ctx).Err()
}
