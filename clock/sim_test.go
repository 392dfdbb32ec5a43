package clock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type stamp struct {
	who string
	at  time.Duration
}

type stampLog struct {
	mu     sync.Mutex
	stamps []stamp
}

func (l *stampLog) add(who string, at time.Duration) {
	l.mu.Lock()
	l.stamps = append(l.stamps, stamp{who, at})
	l.mu.Unlock()
}

func TestSimInterleavesSleepers(t *testing.T) {
	clk := NewSim()
	ctx := context.Background()

	var log stampLog
	ticker := func(who string, period time.Duration, n int) func() error {
		return func() error {
			for i := 0; i < n; i++ {
				if err := clk.Sleep(ctx, period); err != nil {
					return err
				}
				log.add(who, clk.Elapsed())
			}
			return nil
		}
	}

	var g errgroup.Group
	Spawn(&g, clk, ticker("fast", 300*time.Millisecond, 4), ticker("slow", 500*time.Millisecond, 2))
	require.NoError(t, g.Wait())

	assert.Equal(t, []stamp{
		{"fast", 300 * time.Millisecond},
		{"slow", 500 * time.Millisecond},
		{"fast", 600 * time.Millisecond},
		{"fast", 900 * time.Millisecond},
		{"slow", 1000 * time.Millisecond},
		{"fast", 1200 * time.Millisecond},
	}, log.stamps)
	assert.Equal(t, 1200*time.Millisecond, clk.Elapsed())
}

func TestSimTimerOrdering(t *testing.T) {
	clk := NewSim()
	ctx := context.Background()

	var log stampLog
	clk.AfterFunc(time.Second, func() { log.add("timer", clk.Elapsed()) })
	stopped := clk.AfterFunc(500*time.Millisecond, func() { log.add("stopped", clk.Elapsed()) })
	assert.True(t, stopped.Stop())
	assert.False(t, stopped.Stop())

	clk.Enter(1)
	require.NoError(t, clk.Sleep(ctx, time.Second))
	log.add("sleeper", clk.Elapsed())
	require.NoError(t, clk.Sleep(ctx, time.Millisecond))
	clk.Exit()

	// A sleeper due at the same instant as a timer runs first.
	assert.Equal(t, []stamp{
		{"sleeper", time.Second},
		{"timer", time.Second},
	}, log.stamps)
}

func TestSimSleepCancel(t *testing.T) {
	clk := NewSim()
	ctx, cancel := context.WithCancel(context.Background())

	clk.AfterFunc(250*time.Millisecond, cancel)

	clk.Enter(1)
	defer clk.Exit()

	err := clk.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 250*time.Millisecond, clk.Elapsed())

	assert.ErrorIs(t, clk.Sleep(ctx, time.Second), context.Canceled)
	assert.Equal(t, 250*time.Millisecond, clk.Elapsed())
}

func TestRealSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, Real{}.Sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, Real{}.Sleep(context.Background(), time.Millisecond))

	fired := make(chan struct{})
	Real{}.AfterFunc(time.Millisecond, func() { close(fired) })
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
}
