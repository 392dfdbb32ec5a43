// Package wdtblink is a watchdog demonstration: an LED plays a color sequence
// while a second task feeds the watchdog. When the sequence ends the feeder is
// told to stop, the LED blinks red, and the watchdog resets the device.
package wdtblink

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"libdb.so/wdtblink/clock"
	"libdb.so/wdtblink/internal/feeder"
	"libdb.so/wdtblink/internal/sequencer"
	"libdb.so/wdtblink/led"
	"libdb.so/wdtblink/stopchan"
	"libdb.so/wdtblink/watchdog"
)

// Board is the set of peripherals a boot cycle runs against.
type Board struct {
	Clock    clock.Clock
	Watchdog watchdog.Controller
	LED      led.Driver
	Logger   *slog.Logger
}

func (b Board) validate() error {
	switch {
	case b.Clock == nil:
		return errors.New("missing clock")
	case b.Watchdog == nil:
		return errors.New("missing watchdog")
	case b.LED == nil:
		return errors.New("missing LED driver")
	case b.Logger == nil:
		return errors.New("missing logger")
	}
	return nil
}

// Firmware is one boot cycle of the demo.
type Firmware struct {
	cfg   *Config
	board Board
}

// New creates a new boot cycle.
func New(cfg *Config, board Board) (*Firmware, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	if err := board.validate(); err != nil {
		return nil, errors.Wrap(err, "invalid board")
	}

	return &Firmware{
		cfg:   cfg,
		board: board,
	}, nil
}

// Boot arms the watchdog and runs the feeder and the LED sequencer until ctx
// is done. On a device it never returns: the watchdog resets the processor
// instead. Software watchdogs end the cycle by cancelling ctx, in which case
// the context error is returned.
func (f *Firmware) Boot(ctx context.Context) error {
	logger := f.board.Logger
	timeout := time.Duration(f.cfg.WatchdogTimeout)

	logger.Info("start")

	if err := f.board.Watchdog.Start(timeout); err != nil {
		return errors.Wrap(err, "failed to start watchdog")
	}
	logger.Info("started the watchdog timer", "timeout", timeout)

	stop := stopchan.New(f.cfg.ChannelCapacity)

	feed := &feeder.Feeder{
		Watchdog: f.board.Watchdog,
		Clock:    f.board.Clock,
		Stop:     stop,
		Period:   time.Duration(f.cfg.FeedPeriod),
		Logger:   logger.With("task", "feeder"),
	}

	seq := &sequencer.Sequencer{
		LED:         f.board.LED,
		Clock:       f.board.Clock,
		Stop:        stop,
		Logger:      logger.With("task", "sequencer"),
		NumLEDs:     f.cfg.NumLEDs,
		ResetWindow: timeout,
	}

	errg, ctx := errgroup.WithContext(ctx)
	clock.Spawn(errg, f.board.Clock,
		func() error { return feed.Run(ctx) },
		func() error { return seq.Run(ctx) },
	)

	return errg.Wait()
}
