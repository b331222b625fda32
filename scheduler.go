package ripple

import (
	"time"

	"github.com/zoobzio/clockz"
)

// deferral schedules at most one deferred callback at a time.
//
// arm cancels any outstanding callback and schedules a fresh one, so a
// callback only ever fires one full window after the most recent arm.
// The generation counter is the ownership token for the outstanding
// callback: a timer that fires after it has been superseded is ignored.
type deferral struct {
	clock  clockz.Clock
	window time.Duration

	gen    uint64
	timer  clockz.Timer
	cancel chan struct{}
}

func newDeferral(clock clockz.Clock, window time.Duration) *deferral {
	return &deferral{clock: clock, window: window}
}

// arm schedules fn to run after the window, canceling any outstanding
// scheduled callback first. The superseded callback never runs.
// fn is invoked with the generation it was armed under.
//
// Callers must serialize arm/stop; the Store mutex provides this.
func (d *deferral) arm(fn func(gen uint64)) {
	d.stop()

	d.gen++
	gen := d.gen
	timer := d.clock.NewTimer(d.window)
	cancel := make(chan struct{})
	d.timer = timer
	d.cancel = cancel

	go func() {
		select {
		case <-timer.C():
			fn(gen)
		case <-cancel:
		}
	}()
}

// stop cancels the outstanding scheduled callback, if any, and releases
// its wait goroutine.
func (d *deferral) stop() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		close(d.cancel)
		d.cancel = nil
	}
}

// owns reports whether gen is the current outstanding generation.
func (d *deferral) owns(gen uint64) bool {
	return gen == d.gen
}
