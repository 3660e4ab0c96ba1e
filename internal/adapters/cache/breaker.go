package cache

import (
	"context"
	"sync"
	"time"

	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/domain"
	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/ports"
)

// CircuitState enumerates the breaker states.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// BreakerConfig tunes the failure-isolation state machine.
type BreakerConfig struct {
	// FailureThreshold is the consecutive-failure count that trips the
	// breaker from closed to open.
	FailureThreshold int
	// Cooldown is how long open-state calls are rejected before a single
	// half-open trial is allowed through.
	Cooldown time.Duration
}

// Breaker wraps the remote tier and fails fast while it is degraded, so a
// broken Redis cluster costs the hot path a state check instead of a
// network timeout. State transitions:
//
//	closed --(threshold consecutive failures)--> open
//	open   --(cooldown elapsed)--> half-open (one trial call)
//	half-open --success--> closed, counter reset
//	half-open --failure--> open, cooldown clock reset
type Breaker struct {
	next ports.CacheTier
	cfg  BreakerConfig

	mu              sync.Mutex
	state           CircuitState
	failureCount    int
	lastFailureTime time.Time
	trialInFlight   bool

	nowFn func() time.Time
}

func NewBreaker(next ports.CacheTier, cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	return &Breaker{
		next:  next,
		cfg:   cfg,
		state: CircuitClosed,
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

// State reports the current circuit state for health classification.
func (b *Breaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// allow decides whether a call may proceed. It returns domain.ErrCircuitOpen
// without touching the network when the circuit is open.
func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case CircuitClosed:
		return nil
	case CircuitOpen:
		if b.nowFn().Sub(b.lastFailureTime) < b.cfg.Cooldown {
			return domain.ErrCircuitOpen
		}
		b.state = CircuitHalfOpen
		b.trialInFlight = true
		return nil
	default: // half-open: exactly one trial at a time
		if b.trialInFlight {
			return domain.ErrCircuitOpen
		}
		b.trialInFlight = true
		return nil
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == CircuitHalfOpen {
		b.trialInFlight = false
	}
	if err == nil {
		b.state = CircuitClosed
		b.failureCount = 0
		return
	}
	b.lastFailureTime = b.nowFn()
	if b.state == CircuitHalfOpen {
		b.state = CircuitOpen
		return
	}
	b.failureCount++
	if b.failureCount >= b.cfg.FailureThreshold {
		b.state = CircuitOpen
	}
}

func (b *Breaker) do(op func() error) error {
	if err := b.allow(); err != nil {
		return err
	}
	err := op()
	b.record(err)
	return err
}

func (b *Breaker) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	var found bool
	err := b.do(func() error {
		var opErr error
		value, found, opErr = b.next.Get(ctx, key)
		return opErr
	})
	return value, found, err
}

func (b *Breaker) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.do(func() error {
		return b.next.Set(ctx, key, value, ttl)
	})
}

func (b *Breaker) Delete(ctx context.Context, key string) error {
	return b.do(func() error {
		return b.next.Delete(ctx, key)
	})
}

func (b *Breaker) DeletePattern(ctx context.Context, pattern string) (int, error) {
	var removed int
	err := b.do(func() error {
		var opErr error
		removed, opErr = b.next.DeletePattern(ctx, pattern)
		return opErr
	})
	return removed, err
}
