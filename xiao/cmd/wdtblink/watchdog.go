package main

import (
	"machine"
	"time"

	"github.com/pkg/errors"
	"libdb.so/wdtblink/watchdog"
)

// hardwareWatchdog is the RP2040 watchdog. Once started, the only way out is
// a reset.
type hardwareWatchdog struct{}

var _ watchdog.Controller = hardwareWatchdog{}

func (hardwareWatchdog) Start(timeout time.Duration) error {
	if timeout <= 0 {
		return watchdog.ErrInvalidTimeout
	}

	err := machine.Watchdog.Configure(machine.WatchdogConfig{
		TimeoutMillis: uint32(timeout / time.Millisecond),
	})
	if err != nil {
		return errors.Wrap(err, "failed to configure watchdog")
	}

	if err := machine.Watchdog.Start(); err != nil {
		return errors.Wrap(err, "failed to start watchdog")
	}
	return nil
}

func (hardwareWatchdog) Feed() {
	machine.Watchdog.Update()
}
