package client

import "time"

// Debouncer runs fn once delay has passed without another Trigger.
//
// It is not safe for concurrent use. Every method must be called from the
// goroutine that schedule delivers to; timer expiry is handed to schedule so
// fn runs there too. An expiry that arrives after a newer Trigger or a Stop is
// dropped, so at most one timer is ever live.
type Debouncer struct {
	delay    time.Duration
	schedule func(func())
	fn       func()

	timer *time.Timer
	seq   uint64
}

func NewDebouncer(delay time.Duration, schedule func(func()), fn func()) *Debouncer {
	return &Debouncer{delay: delay, schedule: schedule, fn: fn}
}

// Trigger (re)starts the countdown.
func (d *Debouncer) Trigger() {
	d.stopTimer()
	d.seq++
	seq := d.seq
	d.timer = time.AfterFunc(d.delay, func() {
		d.schedule(func() { d.fire(seq) })
	})
}

// Stop cancels a pending countdown without running fn.
func (d *Debouncer) Stop() {
	d.stopTimer()
	d.seq++
}

// Flush runs fn immediately if a countdown is pending and reports whether it
// did.
func (d *Debouncer) Flush() bool {
	if d.timer == nil {
		return false
	}
	d.Stop()
	d.fn()
	return true
}

func (d *Debouncer) Pending() bool {
	return d.timer != nil
}

func (d *Debouncer) fire(seq uint64) {
	if seq != d.seq || d.timer == nil {
		return
	}
	d.timer = nil
	d.fn()
}

func (d *Debouncer) stopTimer() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
