// Package sequencer plays the LED color script and tells the watchdog feeder
// to stop once it is done.
package sequencer

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"libdb.so/wdtblink/clock"
	"libdb.so/wdtblink/led"
	"libdb.so/wdtblink/stopchan"
)

// Sequencer drives the LEDs through Script, sends a stop token, then loops
// Blink forever.
type Sequencer struct {
	LED    led.Driver
	Clock  clock.Clock
	Stop   stopchan.Sender
	Logger *slog.Logger

	// NumLEDs is the length of the LED chain. Every LED shows the same
	// color. Zero means one.
	NumLEDs int
	// Script is played once. Defaults to DefaultScript when empty.
	Script Script
	// Blink is looped after the stop token is sent. Defaults to BlinkScript
	// when empty.
	Blink Script
	// ResetWindow is logged as the time left before the watchdog resets.
	ResetWindow time.Duration
}

// Run plays the sequence. It only returns once ctx is done, or if the stop
// token cannot be sent, which is fatal: the feeder would then never stop.
func (s *Sequencer) Run(ctx context.Context) error {
	numLEDs := s.NumLEDs
	if numLEDs < 1 {
		numLEDs = 1
	}

	script := s.Script
	if len(script) == 0 {
		script = DefaultScript()
	}

	blink := s.Blink
	if len(blink) == 0 {
		blink = BlinkScript()
	}

	leds := led.NewLEDs(numLEDs)

	s.Logger.Info("playing sequence", "steps", len(script), "duration", script.Duration())
	if err := s.play(ctx, leds, script); err != nil {
		return err
	}

	if err := s.Stop.Send(ctx, stopchan.Stop); err != nil {
		return errors.Wrap(err, "failed to send stop token")
	}
	s.Logger.Info(
		"stopped feeding, device will reset",
		"within", s.ResetWindow)

	for {
		if err := s.play(ctx, leds, blink); err != nil {
			return err
		}
	}
}

func (s *Sequencer) play(ctx context.Context, leds led.LEDs, script Script) error {
	for _, step := range script {
		s.Logger.Debug("step", "name", step.Name, "color", step.Color, "hold", step.Hold)

		leds.Fill(step.Color)
		if err := s.LED.Write(ctx, leds); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// The LED is cosmetic; the watchdog cycle goes on regardless.
			s.Logger.Warn(
				"failed to write LEDs",
				"step", step.Name,
				"error", err)
		}

		if err := s.Clock.Sleep(ctx, step.Hold); err != nil {
			return err
		}
	}
	return nil
}
