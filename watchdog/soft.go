package watchdog

import (
	"sync"
	"time"

	"libdb.so/wdtblink/clock"
)

// Soft is a watchdog implemented on top of a clock. It stands in for the
// hardware watchdog on the host: instead of restarting the processor, it
// calls a reset hook, which usually cancels the boot cycle so it can be
// started over.
type Soft struct {
	clock   clock.Clock
	onReset func()

	mu       sync.Mutex
	state    State
	timeout  time.Duration
	lastFeed time.Time
	resetAt  time.Time
	feeds    int
	timer    clock.Timer
	gen      uint64
	done     chan struct{}
}

var _ Controller = (*Soft)(nil)

// NewSoft creates a new unarmed software watchdog. onReset may be nil.
func NewSoft(c clock.Clock, onReset func()) *Soft {
	return &Soft{
		clock:   c,
		onReset: onReset,
		done:    make(chan struct{}),
	}
}

// Start implements Controller.
func (w *Soft) Start(timeout time.Duration) error {
	if timeout <= 0 {
		return ErrInvalidTimeout
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != Unarmed {
		return ErrAlreadyStarted
	}

	w.state = Armed
	w.timeout = timeout
	w.lastFeed = w.clock.Now()
	w.arm()
	return nil
}

// Feed implements Controller.
func (w *Soft) Feed() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.state.Running() {
		return
	}

	w.state = Fed
	w.feeds++
	w.lastFeed = w.clock.Now()
	w.timer.Stop()
	w.arm()
}

func (w *Soft) arm() {
	w.gen++
	gen := w.gen
	w.timer = w.clock.AfterFunc(w.timeout, func() { w.expire(gen) })
}

func (w *Soft) expire(gen uint64) {
	w.mu.Lock()
	// A feed may have raced with the timer firing.
	if gen != w.gen || !w.state.Running() {
		w.mu.Unlock()
		return
	}
	w.state = Reset
	w.resetAt = w.clock.Now()
	close(w.done)
	w.mu.Unlock()

	if w.onReset != nil {
		w.onReset()
	}
}

// State returns the current state.
func (w *Soft) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Timeout returns the timeout given to Start.
func (w *Soft) Timeout() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.timeout
}

// LastFeed returns the time of the last Feed, or of Start if never fed.
func (w *Soft) LastFeed() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastFeed
}

// Feeds returns the number of feeds accepted while running.
func (w *Soft) Feeds() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.feeds
}

// ResetAt returns the time the watchdog expired. It is zero unless the state
// is Reset.
func (w *Soft) ResetAt() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.resetAt
}

// Done returns a channel that is closed when the watchdog resets.
func (w *Soft) Done() <-chan struct{} {
	return w.done
}
