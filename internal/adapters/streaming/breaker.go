package streaming

import (
	"errors"
	"sync"
	"time"

	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
)

// BreakerState is the state of a Breaker
type BreakerState int

const (
	// BreakerClosed lets every batch through
	BreakerClosed BreakerState = iota
	// BreakerOpen skips batches until the cooldown has passed
	BreakerOpen
	// BreakerHalfOpen lets one trial batch through
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// ErrBreakerOpen is returned for batches skipped while the broker is considered down
var ErrBreakerOpen = errors.New("snapshot stream paused after repeated failures")

// Breaker stops the tick loop from waiting on a write timeout every checkpoint
// while the brokers are unreachable.
type Breaker struct {
	mu          sync.Mutex
	maxFailures int
	cooldown    time.Duration
	clock       shared.Clock
	state       BreakerState
	failures    int
	openedAt    time.Time
}

// NewBreaker opens after maxFailures consecutive failures. A nil clock means the real clock.
func NewBreaker(maxFailures int, cooldown time.Duration, clock shared.Clock) *Breaker {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Breaker{maxFailures: max(maxFailures, 1), cooldown: cooldown, clock: clock}
}

// Call runs fn unless the breaker is open. fn runs without the lock held.
func (b *Breaker) Call(fn func() error) error {
	b.mu.Lock()
	if b.state == BreakerOpen {
		if b.clock.Since(b.openedAt) < b.cooldown {
			b.mu.Unlock()
			return ErrBreakerOpen
		}
		b.state = BreakerHalfOpen
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.failures = 0
		b.state = BreakerClosed
		return nil
	}
	b.failures++
	if b.state == BreakerHalfOpen || b.failures >= b.maxFailures {
		b.state = BreakerOpen
		b.openedAt = b.clock.Now()
	}
	return err
}

// State returns the current state
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
