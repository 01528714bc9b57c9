package dialog

import (
	"sync"
	"time"
)

// Countdown is a cancellable repeating timer: it ticks once per interval,
// counting down from a starting value to zero, then stops itself. The
// handle must be stopped whenever the view that started it goes away so a
// stale countdown never keeps running.
type Countdown struct {
	mu      sync.Mutex
	stopped bool
	done    chan struct{}
}

// StartCountdown ticks once per interval: onTick receives from-1, from-2,
// ... 0. Stop is safe to call at any point, including after the countdown
// has finished.
func StartCountdown(from int, interval time.Duration, onTick func(remaining int)) *Countdown {
	c := &Countdown{done: make(chan struct{})}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		remaining := from
		for remaining > 0 {
			select {
			case <-ticker.C:
				remaining--
				onTick(remaining)
			case <-c.done:
				return
			}
		}
		c.Stop()
	}()

	return c
}

// Stop cancels the countdown. Idempotent.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	close(c.done)
}

// Running reports whether the countdown has not yet stopped or finished.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.stopped
}
