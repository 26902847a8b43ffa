package composer

import (
	"sync"
	"time"
)

// DefaultDebounce is the autosave quiet period.
const DefaultDebounce = 800 * time.Millisecond

// debouncer runs fn once after delay has passed without another Trigger.
// Only the trailing edge fires.
type debouncer struct {
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *time.Timer
	running int
	closed  bool
	wg      sync.WaitGroup
}

func newDebouncer(delay time.Duration, fn func()) *debouncer {
	return &debouncer{delay: delay, fn: fn}
}

// Trigger (re)starts the quiet period.
func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.stopLocked()
	d.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.mu.Lock()
		if d.timer == t {
			d.timer = nil
		}
		d.running++
		d.mu.Unlock()
		defer func() {
			d.mu.Lock()
			d.running--
			d.mu.Unlock()
		}()
		d.fn()
	})
	d.timer = t
}

// Cancel drops a pending run.
func (d *debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

// Pending reports whether a run is scheduled and has not started.
func (d *debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Running reports whether fn is executing.
func (d *debouncer) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running > 0
}

// stopLocked stops the timer. A timer that already fired owns its Done call.
func (d *debouncer) stopLocked() {
	if d.timer == nil {
		return
	}
	if d.timer.Stop() {
		d.wg.Done()
	}
	d.timer = nil
}

// Close drops a pending run and waits for a running one to return.
// The caller must not hold locks fn acquires.
func (d *debouncer) Close() {
	d.mu.Lock()
	d.closed = true
	d.stopLocked()
	d.mu.Unlock()
	d.wg.Wait()
}
