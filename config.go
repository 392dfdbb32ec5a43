package wdtblink

import (
	"encoding"
	"time"

	"github.com/pkg/errors"
	"libdb.so/wdtblink/internal/feeder"
	"libdb.so/wdtblink/stopchan"
)

// DefaultWatchdogTimeout is the watchdog timeout armed at boot.
const DefaultWatchdogTimeout = 1050 * time.Millisecond

// Config is the configuration for a boot cycle. The firmware always runs with
// DefaultConfig; the host harness may read one from a TOML file, see
// ParseConfig.
type Config struct {
	// WatchdogTimeout is how long the watchdog waits for a feed before it
	// resets the device.
	WatchdogTimeout TOMLDuration `toml:"watchdog_timeout"`
	// FeedPeriod is how often the feeder feeds the watchdog. It must be
	// shorter than WatchdogTimeout.
	FeedPeriod TOMLDuration `toml:"feed_period"`
	// ChannelCapacity is the capacity of the stop channel.
	ChannelCapacity int `toml:"channel_capacity"`
	// NumLEDs is the number of LEDs in the chain.
	NumLEDs int `toml:"leds"`

	// Link is the serial LED link used by the host harness.
	Link LinkConfig `toml:"link"`
	// Sim configures the host harness.
	Sim SimConfig `toml:"sim"`
}

// LinkConfig is the configuration for the serial LED link.
type LinkConfig struct {
	// Device is the path to the serial device of the LED controller.
	// This is usually /dev/ttyUSB0 or /dev/ttyACM0. If empty, LED frames are
	// logged instead.
	Device string `toml:"device"`
	// Baud is the baud rate for the serial connection.
	Baud int `toml:"baud"`
}

// SimConfig is the configuration for the host harness.
type SimConfig struct {
	// Simulate runs boot cycles on a simulated clock instead of the wall
	// clock.
	Simulate bool `toml:"simulate"`
	// Boots is the number of boot cycles to run. Zero means forever.
	Boots int `toml:"boots"`
}

// DefaultConfig returns the configuration the firmware is built with.
func DefaultConfig() *Config {
	return &Config{
		WatchdogTimeout: TOMLDuration(DefaultWatchdogTimeout),
		FeedPeriod:      TOMLDuration(feeder.DefaultPeriod),
		ChannelCapacity: stopchan.DefaultCapacity,
		NumLEDs:         1,
		Link: LinkConfig{
			Baud: 115200,
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.WatchdogTimeout <= 0 {
		return errors.New("watchdog_timeout must be positive")
	}
	if c.FeedPeriod <= 0 {
		return errors.New("feed_period must be positive")
	}
	if c.FeedPeriod >= c.WatchdogTimeout {
		return errors.Errorf(
			"feed_period %s must be shorter than watchdog_timeout %s",
			time.Duration(c.FeedPeriod), time.Duration(c.WatchdogTimeout))
	}
	if c.ChannelCapacity < 1 {
		return errors.New("channel_capacity must be at least 1")
	}
	if c.NumLEDs < 1 {
		return errors.New("no LEDs configured")
	}
	if c.NumLEDs > 0xFFFF {
		return errors.Errorf("too many LEDs: %d", c.NumLEDs)
	}
	if c.Link.Device != "" && c.Link.Baud <= 0 {
		return errors.New("link.baud must be positive")
	}
	if c.Sim.Boots < 0 {
		return errors.New("sim.boots must not be negative")
	}
	return nil
}

// TOMLDuration is a duration that can be parsed from TOML.
type TOMLDuration time.Duration

var (
	_ encoding.TextUnmarshaler = (*TOMLDuration)(nil)
	_ encoding.TextMarshaler   = (*TOMLDuration)(nil)
)

func (d *TOMLDuration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = TOMLDuration(duration)
	return nil
}

func (d TOMLDuration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}
