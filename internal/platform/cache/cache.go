// Package cache provides a single-slot, time-boxed memoization used for the
// conditions aggregate. The slot is advisory, not authoritative: writers must
// call Invalidate after a successful write batch.
package cache

import (
	"sync"
	"time"
)

// Slot memoizes one value with a TTL. The zero value is not usable; construct
// with NewSlot so the TTL and clock are injectable for tests.
type Slot[T any] struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	value     T
	fetchedAt time.Time
	populated bool
}

func NewSlot[T any](ttl time.Duration) *Slot[T] {
	return &Slot[T]{ttl: ttl, now: time.Now}
}

// SetClock replaces the slot's clock. Test hook.
func (s *Slot[T]) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Get returns the cached value when it is populated, younger than the TTL and
// force is false; otherwise it invokes refresh and caches the result. A failed
// refresh leaves the slot empty so the next call retries.
func (s *Slot[T]) Get(force bool, refresh func() (T, error)) (T, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !force && s.populated && s.now().Sub(s.fetchedAt) < s.ttl {
		return s.value, true, nil
	}

	val, err := refresh()
	if err != nil {
		var zero T
		s.value = zero
		s.populated = false
		return zero, false, err
	}

	s.value = val
	s.fetchedAt = s.now()
	s.populated = true
	return val, false, nil
}

// Invalidate clears the slot unconditionally.
func (s *Slot[T]) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	s.value = zero
	s.populated = false
}
