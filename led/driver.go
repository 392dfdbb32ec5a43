package led

import (
	"context"
	"log/slog"
)

// Driver transmits colors to a chain of LEDs.
type Driver interface {
	// Write sends one color per LED, in chain order, and returns once the
	// transmission is complete. The driver must not keep leds after Write
	// returns.
	Write(ctx context.Context, leds LEDs) error
}

// LogDriver is a Driver that has no LEDs attached and logs every frame
// instead.
type LogDriver struct {
	Logger *slog.Logger
}

var _ Driver = LogDriver{}

// Write implements Driver.
func (d LogDriver) Write(ctx context.Context, leds LEDs) error {
	if len(leds) == 0 {
		return nil
	}

	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Most frames are a single color across the chain.
	uniform := true
	for _, c := range leds[1:] {
		if c != leds[0] {
			uniform = false
			break
		}
	}

	if uniform {
		logger.InfoContext(ctx, "led frame", "color", leds[0], "leds", len(leds))
	} else {
		logger.InfoContext(ctx, "led frame", "colors", leds)
	}
	return nil
}
