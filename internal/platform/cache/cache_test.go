package cache

import (
	"errors"
	"testing"
	"time"
)

func TestSlot_ServesWithinTTL(t *testing.T) {
	s := NewSlot[int](30 * time.Second)
	clock := time.Now()
	s.SetClock(func() time.Time { return clock })

	calls := 0
	refresh := func() (int, error) { calls++; return calls, nil }

	v, hit, err := s.Get(false, refresh)
	if err != nil || hit || v != 1 {
		t.Fatalf("first get: v=%d hit=%v err=%v", v, hit, err)
	}

	clock = clock.Add(10 * time.Second)
	v, hit, err = s.Get(false, refresh)
	if err != nil || !hit || v != 1 {
		t.Fatalf("second get should hit: v=%d hit=%v err=%v", v, hit, err)
	}
	if calls != 1 {
		t.Errorf("expected 1 refresh call, got %d", calls)
	}
}

func TestSlot_ExpiresAfterTTL(t *testing.T) {
	s := NewSlot[int](30 * time.Second)
	clock := time.Now()
	s.SetClock(func() time.Time { return clock })

	calls := 0
	refresh := func() (int, error) { calls++; return calls, nil }

	s.Get(false, refresh)
	clock = clock.Add(31 * time.Second)
	v, hit, _ := s.Get(false, refresh)
	if hit || v != 2 {
		t.Errorf("expected refresh after TTL, got v=%d hit=%v", v, hit)
	}
}

func TestSlot_ForceBypassesCache(t *testing.T) {
	s := NewSlot[int](time.Hour)
	calls := 0
	refresh := func() (int, error) { calls++; return calls, nil }

	s.Get(false, refresh)
	v, hit, _ := s.Get(true, refresh)
	if hit || v != 2 {
		t.Errorf("force should bypass cache, got v=%d hit=%v", v, hit)
	}
}

func TestSlot_InvalidateClears(t *testing.T) {
	s := NewSlot[int](time.Hour)
	calls := 0
	refresh := func() (int, error) { calls++; return calls, nil }

	s.Get(false, refresh)
	s.Invalidate()
	_, hit, _ := s.Get(false, refresh)
	if hit {
		t.Error("read after invalidate must not hit the stale snapshot")
	}
	if calls != 2 {
		t.Errorf("expected 2 refresh calls, got %d", calls)
	}
}

func TestSlot_FailedRefreshLeavesEmpty(t *testing.T) {
	s := NewSlot[int](time.Hour)
	boom := errors.New("store down")
	_, _, err := s.Get(false, func() (int, error) { return 0, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected refresh error, got %v", err)
	}
	v, hit, err := s.Get(false, func() (int, error) { return 7, nil })
	if err != nil || hit || v != 7 {
		t.Errorf("expected retry after failed refresh, got v=%d hit=%v err=%v", v, hit, err)
	}
}
