// Command wdtblink is the watchdog demo firmware for the Seeed XIAO RP2040.
// It plays the color sequence on the onboard LED, stops feeding the watchdog
// and is reset by it roughly a second later, over and over.
package main

import (
	"context"
	"log/slog"
	"machine"
	"time"

	"libdb.so/wdtblink"
	"libdb.so/wdtblink/clock"
	"libdb.so/wdtblink/xiao/board"
)

func main() {
	// Wait for USB to initialize.
	time.Sleep(time.Second)

	logger := slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	fw, err := wdtblink.New(wdtblink.DefaultConfig(), wdtblink.Board{
		Clock:    clock.Real{},
		Watchdog: hardwareWatchdog{},
		LED:      board.NewMainLED(),
		Logger:   logger,
	})
	if err != nil {
		halt(logger, err)
	}

	// Boot only returns if the watchdog could not be started.
	halt(logger, fw.Boot(context.Background()))
}

// halt reports err and waits for the watchdog, if armed, to reset the board.
func halt(logger *slog.Logger, err error) {
	for {
		logger.Error("firmware halted", "error", err)
		time.Sleep(5 * time.Second)
	}
}
