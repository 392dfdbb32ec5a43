// Package feeder implements the task that keeps the watchdog fed until it is
// told to stop.
package feeder

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"libdb.so/wdtblink/clock"
	"libdb.so/wdtblink/stopchan"
	"libdb.so/wdtblink/watchdog"
)

// DefaultPeriod is how often the watchdog is fed. It must be comfortably
// shorter than the watchdog timeout.
const DefaultPeriod = 750 * time.Millisecond

// Feeder feeds a watchdog on a fixed period and polls a stop channel after
// every sleep.
type Feeder struct {
	Watchdog watchdog.Controller
	Clock    clock.Clock
	Stop     stopchan.Receiver
	Period   time.Duration
	Logger   *slog.Logger
}

// Run feeds the watchdog until a stop token is received, in which case it
// returns nil, or until ctx is done. An empty channel is the normal state
// while the sequence plays and is never a reason to stop feeding; neither is
// any other receive error, since starving the watchdog early resets the
// device.
func (f *Feeder) Run(ctx context.Context) error {
	period := f.Period
	if period <= 0 {
		period = DefaultPeriod
	}

	for {
		f.Logger.Debug("feeding watchdog")
		f.Watchdog.Feed()

		if err := f.Clock.Sleep(ctx, period); err != nil {
			return err
		}

		_, err := f.Stop.TryReceive()
		switch {
		case err == nil:
			f.Logger.Info("stop requested, no longer feeding watchdog")
			return nil
		case errors.Is(err, stopchan.ErrEmpty):
			// still running
		default:
			f.Logger.Warn(
				"unexpected error polling stop channel, still feeding",
				"error", err)
		}
	}
}
