// Package resilience provides reliability patterns for outbound API calls.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the circuit breaker is rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Breaker is a consecutive-failure circuit breaker for the console's
// outbound API calls. After threshold consecutive failures it rejects
// calls for the cooldown window, then admits exactly one probe; the
// probe's outcome closes or reopens the circuit. Context cancellation is
// neutral: a user abort neither counts toward the failure streak nor
// resets it.
type Breaker struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration

	failures  int
	openUntil time.Time // zero while closed
	probing   bool

	now func() time.Time // for testing
}

// NewBreaker creates a circuit breaker with the given consecutive-failure
// threshold and open-state cooldown.
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// Execute runs fn unless the circuit is rejecting calls, and folds fn's
// outcome back into the circuit state.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := fn()
	b.settle(err)
	return err
}

// admit decides whether a call may proceed. After the cooldown only one
// probe is in flight at a time.
func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.openUntil.IsZero() {
		return nil
	}
	if b.now().Before(b.openUntil) {
		return ErrCircuitOpen
	}
	if b.probing {
		return ErrCircuitOpen
	}
	b.probing = true
	return nil
}

// settle records the call outcome.
func (b *Breaker) settle(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wasProbe := b.probing
	b.probing = false

	switch {
	case err == nil:
		b.failures = 0
		b.openUntil = time.Time{}
	case errors.Is(err, context.Canceled):
		// A user abort says nothing about backend health. A cancelled
		// probe leaves the circuit open; the next call probes again.
	default:
		b.failures++
		if wasProbe || b.failures >= b.threshold {
			b.openUntil = b.now().Add(b.cooldown)
		}
	}
}
