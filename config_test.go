package wdtblink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1050*time.Millisecond, time.Duration(cfg.WatchdogTimeout))
	assert.Equal(t, 750*time.Millisecond, time.Duration(cfg.FeedPeriod))
	assert.Equal(t, 64, cfg.ChannelCapacity)
	assert.Equal(t, 1, cfg.NumLEDs)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"feed not shorter than timeout", func(c *Config) { c.FeedPeriod = c.WatchdogTimeout }},
		{"no timeout", func(c *Config) { c.WatchdogTimeout = 0 }},
		{"no channel", func(c *Config) { c.ChannelCapacity = 0 }},
		{"no leds", func(c *Config) { c.NumLEDs = 0 }},
		{"link without baud", func(c *Config) { c.Link = LinkConfig{Device: "/dev/ttyUSB0"} }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := DefaultConfig()
			test.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
