package stopchan

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryReceiveEmpty(t *testing.T) {
	c := New(DefaultCapacity)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := c.TryReceive()
		assert.ErrorIs(t, err, ErrEmpty)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("TryReceive blocked on an empty channel")
	}
}

func TestSingleDelivery(t *testing.T) {
	c := New(DefaultCapacity)
	require.NoError(t, c.Send(context.Background(), Stop))
	assert.Equal(t, 1, c.Len())

	tok, err := c.TryReceive()
	require.NoError(t, err)
	assert.Equal(t, Stop, tok)

	for i := 0; i < 10; i++ {
		_, err := c.TryReceive()
		assert.ErrorIs(t, err, ErrEmpty)
	}
}

func TestOverflow(t *testing.T) {
	c := New(0)
	assert.Equal(t, 1, c.Cap())

	require.NoError(t, c.TrySend(Stop))
	assert.ErrorIs(t, c.TrySend(Stop), ErrFull)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.Send(ctx, Stop)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "Send should block until the deadline, got %v", err)
	assert.Equal(t, 1, c.Len())
}

func TestSendUnblocksOnReceive(t *testing.T) {
	c := New(1)
	require.NoError(t, c.TrySend(Stop))

	sent := make(chan error, 1)
	go func() { sent <- c.Send(context.Background(), Stop) }()

	// Drain until the blocked sender gets through.
	var received int
	deadline := time.After(time.Second)
	for received < 2 {
		select {
		case <-deadline:
			t.Fatal("blocked Send never completed")
		default:
		}
		if _, err := c.TryReceive(); err == nil {
			received++
		} else {
			time.Sleep(time.Millisecond)
		}
	}

	assert.NoError(t, <-sent)
}

func TestConcurrentProducersConsumers(t *testing.T) {
	const producers = 8
	c := New(producers)

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Send(context.Background(), Stop))
		}()
	}
	wg.Wait()

	var got atomic.Int32
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if _, err := c.TryReceive(); err != nil {
					return
				}
				got.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(producers), got.Load())
}
