//go:build !tinygo

package wdtblink

import (
	"io"

	"github.com/pelletier/go-toml"
)

// ParseConfig parses a configuration from a reader. Keys missing from the
// file keep their DefaultConfig values; keys present are taken as is, zero
// included, and left for Validate to judge.
func ParseConfig(r io.Reader) (*Config, error) {
	tree, err := toml.LoadReader(r)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := tree.Unmarshal(&config); err != nil {
		return nil, err
	}

	def := DefaultConfig()
	if !tree.HasPath([]string{"watchdog_timeout"}) {
		config.WatchdogTimeout = def.WatchdogTimeout
	}
	if !tree.HasPath([]string{"feed_period"}) {
		config.FeedPeriod = def.FeedPeriod
	}
	if !tree.HasPath([]string{"channel_capacity"}) {
		config.ChannelCapacity = def.ChannelCapacity
	}
	if !tree.HasPath([]string{"leds"}) {
		config.NumLEDs = def.NumLEDs
	}
	if !tree.HasPath([]string{"link", "baud"}) {
		config.Link.Baud = def.Link.Baud
	}

	return &config, nil
}
