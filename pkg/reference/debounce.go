package reference

import (
	"sync"
	"time"
)

const DefaultDebounce = 300 * time.Millisecond

// Timer is the handle returned by a Scheduler.
type Timer interface {
	Stop() bool
}

// Scheduler runs fn once after d. The real one wraps time.AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Debouncer keeps at most one pending call. Scheduling replaces whatever was
// pending, so only the last call of a burst runs.
type Debouncer struct {
	delay     time.Duration
	scheduler Scheduler

	mu      sync.Mutex
	pending Timer
	gen     uint64
}

func NewDebouncer(delay time.Duration, scheduler Scheduler) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	if scheduler == nil {
		scheduler = realScheduler{}
	}
	return &Debouncer{delay: delay, scheduler: scheduler}
}

func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = d.scheduler.AfterFunc(d.delay, func() {
		// a timer that fired while being replaced must not run
		d.mu.Lock()
		if gen != d.gen {
			d.mu.Unlock()
			return
		}
		d.pending = nil
		d.mu.Unlock()
		fn()
	})
}

// CancelPending drops the scheduled call, if any.
func (d *Debouncer) CancelPending() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
	d.gen++
}

func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}
