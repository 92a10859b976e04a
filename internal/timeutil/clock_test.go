package timeutil

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", now, before, after)
	}
}

func TestRealClock_Since(t *testing.T) {
	clock := RealClock{}
	past := time.Now().Add(-time.Second)
	d := clock.Since(past)

	if d < time.Second {
		t.Errorf("Since() returned %v, expected >= 1s", d)
	}
}

func TestRealClock_AfterFunc(t *testing.T) {
	clock := RealClock{}
	done := make(chan struct{})
	timer := clock.AfterFunc(10*time.Millisecond, func() { close(done) })
	defer timer.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("callback did not run")
	}
}

func TestRealClock_AfterFuncStop(t *testing.T) {
	clock := RealClock{}
	var calls int32
	timer := clock.AfterFunc(50*time.Millisecond, func() { atomic.AddInt32(&calls, 1) })

	if !timer.Stop() {
		t.Fatal("Stop() on a pending timer should return true")
	}
	time.Sleep(100 * time.Millisecond)
	if atomic.LoadInt32(&calls) != 0 {
		t.Error("stopped timer should not fire")
	}
}

func TestMockClock_Now(t *testing.T) {
	fixedTime := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	clock := NewMockClock(fixedTime)

	if !clock.Now().Equal(fixedTime) {
		t.Errorf("got %v, want %v", clock.Now(), fixedTime)
	}
}

func TestMockClock_Set(t *testing.T) {
	clock := NewMockClock(time.Time{})
	newTime := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	clock.Set(newTime)

	if !clock.Now().Equal(newTime) {
		t.Errorf("got %v, want %v", clock.Now(), newTime)
	}
}

func TestMockClock_AdvanceFiresDueTimers(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	var order []string
	clock.AfterFunc(150*time.Millisecond, func() { order = append(order, "late") })
	clock.AfterFunc(50*time.Millisecond, func() { order = append(order, "early") })

	clock.Advance(100 * time.Millisecond)
	if len(order) != 1 || order[0] != "early" {
		t.Fatalf("after 100ms fired %v, want [early]", order)
	}
	if clock.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", clock.Pending())
	}

	clock.Advance(50 * time.Millisecond)
	if len(order) != 2 || order[1] != "late" {
		t.Fatalf("after 150ms fired %v, want [early late]", order)
	}
	if got := clock.Since(start); got != 150*time.Millisecond {
		t.Errorf("Since(start) = %v, want 150ms", got)
	}
}

func TestMockClock_NowDuringCallback(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	var seen time.Time
	clock.AfterFunc(30*time.Millisecond, func() { seen = clock.Now() })
	clock.Advance(time.Second)

	if want := start.Add(30 * time.Millisecond); !seen.Equal(want) {
		t.Errorf("Now() inside callback = %v, want %v", seen, want)
	}
}

func TestMockTimer_Stop(t *testing.T) {
	clock := NewMockClock(time.Time{})
	fired := false
	timer := clock.AfterFunc(10*time.Millisecond, func() { fired = true })

	if !timer.Stop() {
		t.Error("Stop() should report the timer was active")
	}
	if timer.Stop() {
		t.Error("second Stop() should report false")
	}

	clock.Advance(time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
	if clock.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", clock.Pending())
	}
}

func TestMockTimer_Fired(t *testing.T) {
	clock := NewMockClock(time.Time{})
	timer := clock.AfterFunc(10*time.Millisecond, func() {})

	mt := timer.(*MockTimer)
	if mt.Fired() {
		t.Error("timer reported fired before Advance")
	}
	clock.Advance(10 * time.Millisecond)
	if !mt.Fired() {
		t.Error("timer should fire when the deadline is reached exactly")
	}
	if timer.Stop() {
		t.Error("Stop() after firing should return false")
	}
}

func TestMockClock_CallbackSchedulesTimer(t *testing.T) {
	clock := NewMockClock(time.Time{})
	count := 0
	var reschedule func()
	reschedule = func() {
		count++
		if count < 3 {
			clock.AfterFunc(10*time.Millisecond, reschedule)
		}
	}
	clock.AfterFunc(10*time.Millisecond, reschedule)

	clock.Advance(100 * time.Millisecond)
	if count != 3 {
		t.Errorf("chained callbacks ran %d times, want 3", count)
	}
}
