package search

import (
	"sync"
	"time"
)

// Debouncer is a single-slot cancellable delayed task: Trigger cancels any
// pending run and schedules a new one after the quiet interval, so at most
// one run is ever live. Cancellation on every Trigger is the correctness
// contract, not an optimization: the function must only fire for the most
// recent trigger.
type Debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
	seq      uint64
}

// NewDebouncer returns a debouncer with the given quiet interval. A zero or
// negative interval makes Trigger run the function synchronously.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	d.seq++
	seq := d.seq

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	if d.interval <= 0 {
		d.mu.Unlock()
		fn()
		return
	}

	d.timer = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		live := seq == d.seq
		d.mu.Unlock()
		if live {
			fn()
		}
	})
	d.mu.Unlock()
}

// Stop invalidates any pending run. Safe to call at any time, including
// after the timer has fired.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
