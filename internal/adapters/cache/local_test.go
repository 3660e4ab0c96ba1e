package cache

import (
	"context"
	"testing"
	"time"
)

func TestLocalTierSetGet(t *testing.T) {
	tier := NewLocalTier(64, time.Minute)
	ctx := context.Background()

	if err := tier.Set(ctx, "{t1}:product:p1", []byte("v1"), 30*time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	value, found, err := tier.Get(ctx, "{t1}:product:p1")
	if err != nil || !found {
		t.Fatalf("expected hit, found=%v err=%v", found, err)
	}
	if string(value) != "v1" {
		t.Fatalf("unexpected value: %s", value)
	}

	_, found, _ = tier.Get(ctx, "{t1}:product:missing")
	if found {
		t.Fatal("expected miss for absent key")
	}
}

func TestLocalTierLazyExpiry(t *testing.T) {
	tier := NewLocalTier(64, time.Minute)
	now := time.Now().UTC()
	tier.nowFn = func() time.Time { return now }
	ctx := context.Background()

	_ = tier.Set(ctx, "{t1}:product:p1", []byte("v1"), 10*time.Second)

	now = now.Add(11 * time.Second)
	if _, found, _ := tier.Get(ctx, "{t1}:product:p1"); found {
		t.Fatal("expected expired entry to read as a miss")
	}
	if tier.Len() != 0 {
		t.Fatalf("expected expired entry to be dropped on access, len=%d", tier.Len())
	}
}

func TestLocalTierTTLCeiling(t *testing.T) {
	tier := NewLocalTier(64, 5*time.Second)
	now := time.Now().UTC()
	tier.nowFn = func() time.Time { return now }
	ctx := context.Background()

	// TTL above the ceiling is clamped, never honored.
	_ = tier.Set(ctx, "{t1}:product:p1", []byte("v1"), time.Hour)
	now = now.Add(6 * time.Second)
	if _, found, _ := tier.Get(ctx, "{t1}:product:p1"); found {
		t.Fatal("expected entry to expire at the ceiling")
	}
}

func TestLocalTierEviction(t *testing.T) {
	// One entry per shard forces an eviction on the second write that
	// lands on an occupied shard.
	tier := NewLocalTier(localShardCount, time.Minute)
	ctx := context.Background()

	for i := 0; i < localShardCount*4; i++ {
		key := "{t1}:product:p" + string(rune('a'+i%26)) + string(rune('a'+i/26))
		_ = tier.Set(ctx, key, []byte("v"), time.Minute)
	}
	if got := tier.Len(); got > localShardCount {
		t.Fatalf("expected bounded tier, len=%d max=%d", got, localShardCount)
	}
}

func TestLocalTierDeletePattern(t *testing.T) {
	tier := NewLocalTier(64, time.Minute)
	ctx := context.Background()

	_ = tier.Set(ctx, "{t1}:products:list:page1", []byte("a"), time.Minute)
	_ = tier.Set(ctx, "{t1}:products:list:page2", []byte("b"), time.Minute)
	_ = tier.Set(ctx, "{t1}:product:p1", []byte("c"), time.Minute)
	_ = tier.Set(ctx, "{t2}:products:list:page1", []byte("d"), time.Minute)

	removed, err := tier.DeletePattern(ctx, "{t1}:products:*")
	if err != nil {
		t.Fatalf("delete pattern failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removals, got %d", removed)
	}
	if _, found, _ := tier.Get(ctx, "{t1}:product:p1"); !found {
		t.Fatal("entity key must survive a list pattern sweep")
	}
	if _, found, _ := tier.Get(ctx, "{t2}:products:list:page1"); !found {
		t.Fatal("other tenant's key must survive the sweep")
	}
}
