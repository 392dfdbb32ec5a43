package sequencer

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"libdb.so/wdtblink/clock"
	"libdb.so/wdtblink/led"
	"libdb.so/wdtblink/stopchan"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type frame struct {
	At    time.Duration
	Color led.RGBColor
}

// recorder records the first color of every frame and cancels once it has
// seen limit frames.
type recorder struct {
	mu     sync.Mutex
	clock  *clock.Sim
	frames []frame
	limit  int
	cancel context.CancelFunc
	fail   error
}

func (r *recorder) Write(ctx context.Context, leds led.LEDs) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frames = append(r.frames, frame{r.clock.Elapsed(), leds[0]})
	if len(r.frames) == r.limit {
		r.cancel()
	}
	return r.fail
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func expectedFrames(blinks int) []frame {
	frames := []frame{
		{ms(0), led.Blue},
		{ms(2000), led.Off},
	}
	at := 2500
	for i := 0; i < 5; i++ {
		for _, c := range []led.RGBColor{led.Green, led.Off, led.White, led.Off} {
			frames = append(frames, frame{ms(at), c})
			at += 500
		}
	}
	for i := 0; i < blinks; i++ {
		c := led.Red
		if i%2 == 1 {
			c = led.Off
		}
		frames = append(frames, frame{ms(at), c})
		at += 100
	}
	return frames
}

func TestDefaultScript(t *testing.T) {
	script := DefaultScript()
	assert.Len(t, script, 22)
	assert.Equal(t, 12500*time.Millisecond, script.Duration())
	assert.Equal(t, 200*time.Millisecond, BlinkScript().Duration())
}

func runSequencer(t *testing.T, limit int, fail error) (*recorder, *stopchan.Chan, error) {
	clk := clock.NewSim()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{clock: clk, limit: limit, cancel: cancel, fail: fail}
	ch := stopchan.New(stopchan.DefaultCapacity)

	s := &Sequencer{
		LED:     rec,
		Clock:   clk,
		Stop:    ch,
		Logger:  discard,
		NumLEDs: 3,
	}

	clk.Enter(1)
	err := s.Run(ctx)
	clk.Exit()

	return rec, ch, err
}

func TestSequenceIsDeterministic(t *testing.T) {
	const blinks = 8
	want := expectedFrames(blinks)

	for run := 0; run < 3; run++ {
		rec, ch, err := runSequencer(t, len(want), nil)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, want, rec.frames)

		// Exactly one token was sent after the script.
		_, err = ch.TryReceive()
		require.NoError(t, err)
		_, err = ch.TryReceive()
		assert.ErrorIs(t, err, stopchan.ErrEmpty)
	}
}

func TestSequenceIgnoresWriteErrors(t *testing.T) {
	want := expectedFrames(2)

	rec, ch, err := runSequencer(t, len(want), errors.New("led unplugged"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, want, rec.frames)
	assert.Equal(t, 1, ch.Len())
}

type brokenSender struct{}

func (brokenSender) Send(context.Context, stopchan.Token) error { return stopchan.ErrFull }
func (brokenSender) TrySend(stopchan.Token) error               { return stopchan.ErrFull }

func TestSequenceSendFailureIsFatal(t *testing.T) {
	clk := clock.NewSim()
	s := &Sequencer{
		LED:    led.LogDriver{Logger: discard},
		Clock:  clk,
		Stop:   brokenSender{},
		Logger: discard,
		Script: Script{{"BLUE/ON", led.Blue, time.Second}},
	}

	clk.Enter(1)
	err := s.Run(context.Background())
	clk.Exit()

	assert.ErrorIs(t, err, stopchan.ErrFull)
	assert.Equal(t, time.Second, clk.Elapsed())
}

func TestEmptyScriptsUseDefaults(t *testing.T) {
	clk := clock.NewSim()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	want := expectedFrames(2)
	rec := &recorder{clock: clk, limit: len(want), cancel: cancel}
	ch := stopchan.New(1)

	s := &Sequencer{
		LED:    rec,
		Clock:  clk,
		Stop:   ch,
		Logger: discard,
		Script: Script{},
		Blink:  Script{},
	}

	clk.Enter(1)
	err := s.Run(ctx)
	clk.Exit()

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, want, rec.frames)
	assert.Equal(t, 1, ch.Len())
}
