package api

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

const (
	limiterBaseDelay = 5 * time.Millisecond
	limiterMaxDelay  = 50 * time.Millisecond
)

// RequestLimiter caps the number of upstream requests in flight at once.
// Permits are counted with compare-and-swap so Acquire never blocks on a lock.
type RequestLimiter struct {
	max            int64
	inFlight       int64
	acquireTimeout time.Duration

	acquired int64
	rejected int64
}

// LimiterStats is a point-in-time view of a RequestLimiter.
type LimiterStats struct {
	MaxInFlight int   `json:"max_in_flight"`
	InFlight    int   `json:"in_flight"`
	Acquired    int64 `json:"acquired"`
	Rejected    int64 `json:"rejected"`
}

// NewRequestLimiter creates a limiter admitting max concurrent requests.
// A non-positive max disables the limit.
func NewRequestLimiter(max int, acquireTimeout time.Duration) *RequestLimiter {
	if acquireTimeout <= 0 {
		acquireTimeout = 30 * time.Second
	}
	return &RequestLimiter{max: int64(max), acquireTimeout: acquireTimeout}
}

// Acquire waits for a permit until the acquire timeout or ctx ends.
func (l *RequestLimiter) Acquire(ctx context.Context) error {
	if l.tryAcquire() {
		return nil
	}

	deadline := time.NewTimer(l.acquireTimeout)
	defer deadline.Stop()

	for attempt := 1; ; attempt++ {
		delay := time.Duration(attempt) * limiterBaseDelay
		if delay > limiterMaxDelay {
			delay = limiterMaxDelay
		}

		select {
		case <-ctx.Done():
			atomic.AddInt64(&l.rejected, 1)
			return ctx.Err()
		case <-deadline.C:
			atomic.AddInt64(&l.rejected, 1)
			return fmt.Errorf("no upstream request slot within %v (%d in flight)",
				l.acquireTimeout, atomic.LoadInt64(&l.inFlight))
		case <-time.After(delay):
		}

		if l.tryAcquire() {
			return nil
		}
	}
}

func (l *RequestLimiter) tryAcquire() bool {
	for {
		current := atomic.LoadInt64(&l.inFlight)
		if l.max > 0 && current >= l.max {
			return false
		}
		if atomic.CompareAndSwapInt64(&l.inFlight, current, current+1) {
			atomic.AddInt64(&l.acquired, 1)
			return true
		}
	}
}

// Release returns a permit taken by Acquire.
func (l *RequestLimiter) Release() {
	for {
		current := atomic.LoadInt64(&l.inFlight)
		if current <= 0 {
			return
		}
		if atomic.CompareAndSwapInt64(&l.inFlight, current, current-1) {
			return
		}
	}
}

// Stats returns the current limiter counters.
func (l *RequestLimiter) Stats() LimiterStats {
	return LimiterStats{
		MaxInFlight: int(l.max),
		InFlight:    int(atomic.LoadInt64(&l.inFlight)),
		Acquired:    atomic.LoadInt64(&l.acquired),
		Rejected:    atomic.LoadInt64(&l.rejected),
	}
}
