// Package counter provides a concurrency-safe counter that callers can block
// on until it drains to zero.
package counter

import (
	"sync"
	"time"

	srvErrors "github.com/godispatch/core/pkg/errors"
)

// Blocking is a non-negative counter with a bounded wait-for-zero operation.
//
// The zero channel is closed whenever the count is zero and replaced by a fresh
// one on the 0 → 1 transition, so waiters never poll.
type Blocking struct {
	mu       sync.Mutex
	count    int
	zero     chan struct{}
	disposed bool
}

func NewBlocking() *Blocking {
	zero := make(chan struct{})
	close(zero)
	return &Blocking{zero: zero}
}

func (b *Blocking) Increment() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 && !b.disposed {
		b.zero = make(chan struct{})
	}
	b.count++
}

// Decrement panics with ErrNegativeCounter when called without a matching Increment.
func (b *Blocking) Decrement() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		panic(srvErrors.ErrNegativeCounter)
	}
	b.count--
	if b.count == 0 && !b.disposed {
		close(b.zero)
	}
}

func (b *Blocking) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Wait blocks until the counter reaches zero or the timeout elapses.
// It reports whether zero was reached. A non-positive timeout only checks the
// current value.
func (b *Blocking) Wait(timeout time.Duration) bool {
	b.mu.Lock()
	if b.count == 0 {
		b.mu.Unlock()
		return true
	}
	zero := b.zero
	b.mu.Unlock()

	if timeout <= 0 {
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-zero:
		b.mu.Lock()
		defer b.mu.Unlock()
		return !b.disposed || b.count == 0
	case <-timer.C:
		return false
	}
}

// Dispose releases every blocked waiter. Waiters released this way observe
// the current count, which may still be positive.
func (b *Blocking) Dispose() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.disposed {
		return
	}
	b.disposed = true
	if b.count > 0 {
		close(b.zero)
	}
}
