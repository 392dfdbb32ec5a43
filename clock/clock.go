// Package clock provides the time capability used by the tasks: sleeping,
// reading the time and scheduling callbacks. Real is backed by the wall clock
// and Sim by a deterministic simulated clock.
package clock

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Clock is the time source a task runs against.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// Sleep suspends the caller for d. It returns early with ctx.Err() if the
	// context is done.
	Sleep(ctx context.Context, d time.Duration) error
	// AfterFunc calls f in its own goroutine once d has elapsed.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc call.
type Timer interface {
	// Stop prevents the timer from firing. It returns false if the timer
	// already fired or was stopped.
	Stop() bool
}

// Tracker is implemented by clocks that need to know which goroutines take
// part in the passage of time. Sim uses it to advance only once every
// registered goroutine is asleep.
type Tracker interface {
	// Enter registers n goroutines.
	Enter(n int)
	// Exit unregisters one goroutine.
	Exit()
}

// Spawn starts every task on g. If c is a Tracker, all tasks are registered
// before any of them starts, and each unregisters itself when it returns.
func Spawn(g *errgroup.Group, c Clock, tasks ...func() error) {
	tracker, ok := c.(Tracker)
	if !ok {
		for _, task := range tasks {
			g.Go(task)
		}
		return
	}

	tracker.Enter(len(tasks))
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			defer tracker.Exit()
			return task()
		})
	}
}

// Real is the wall clock.
type Real struct{}

var _ Clock = Real{}

// Now implements Clock.
func (Real) Now() time.Time { return time.Now() }

// Sleep implements Clock.
func (Real) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AfterFunc implements Clock.
func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
