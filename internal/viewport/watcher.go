// Package viewport coalesces bursts of visible-range changes into a single
// delayed callback.
package viewport

import (
	"sync"
	"time"

	"github.com/banshee-data/trendview/internal/timeutil"
)

// DefaultDelay is the quiet period after the last change before the
// callback fires.
const DefaultDelay = 150 * time.Millisecond

// Watcher is a restartable single-shot timer. Every Notify replaces the
// pending bounds and reschedules the callback, so a burst of changes fires
// once with the bounds of the last change.
type Watcher struct {
	clock timeutil.Clock
	delay time.Duration
	fire  func(lo, hi float64)

	mu      sync.Mutex
	timer   timeutil.Timer
	gen     uint64
	pending bool
	lo, hi  float64
}

// NewWatcher returns a watcher that calls fire delay after the last
// Notify. A nil clock means the real clock; delay <= 0 means DefaultDelay.
func NewWatcher(clock timeutil.Clock, delay time.Duration, fire func(lo, hi float64)) *Watcher {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Watcher{clock: clock, delay: delay, fire: fire}
}

// Notify records the latest visible range and restarts the quiet period.
func (w *Watcher) Notify(lo, hi float64) {
	if lo > hi {
		lo, hi = hi, lo
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.gen++
	gen := w.gen
	w.lo, w.hi = lo, hi
	w.pending = true
	w.timer = w.clock.AfterFunc(w.delay, func() { w.expire(gen) })
}

// Cancel drops any pending callback.
func (w *Watcher) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.gen++
	w.pending = false
}

// Pending reports whether a callback is scheduled.
func (w *Watcher) Pending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}

// Delay returns the quiet period.
func (w *Watcher) Delay() time.Duration {
	return w.delay
}

func (w *Watcher) expire(gen uint64) {
	w.mu.Lock()
	// a timer that lost the race with Stop, or a later Notify, is stale
	if gen != w.gen || !w.pending {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.timer = nil
	lo, hi := w.lo, w.hi
	w.mu.Unlock()

	if w.fire != nil {
		w.fire(lo, hi)
	}
}
