package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/pflag"
	"libdb.so/wdtblink"
	"libdb.so/wdtblink/clock"
	"libdb.so/wdtblink/led"
	"libdb.so/wdtblink/ledlink"
	"libdb.so/wdtblink/watchdog"
)

var (
	config   = ""
	verbose  = false
	simulate = false
	boots    = -1
)

func init() {
	pflag.StringVarP(&config, "config", "c", config, "configuration file (optional)")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose output")
	pflag.BoolVarP(&simulate, "simulate", "s", simulate, "run on a simulated clock")
	pflag.IntVarP(&boots, "boots", "n", boots, "number of boot cycles, 0 for forever (default from config)")
}

func main() {
	pflag.Parse()

	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}

	if pflag.CommandLine.Changed("simulate") {
		cfg.Sim.Simulate = simulate
	}
	if boots >= 0 {
		cfg.Sim.Boots = boots
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var driver led.Driver = led.LogDriver{Logger: slog.Default()}
	if cfg.Link.Device != "" {
		link, err := ledlink.Open(ctx, cfg.Link.Device, cfg.Link.Baud, cfg.NumLEDs, slog.Default())
		if err != nil {
			return fmt.Errorf("failed to open LED link: %w", err)
		}
		defer link.Close()
		driver = link
	}

	for n := 1; cfg.Sim.Boots == 0 || n <= cfg.Sim.Boots; n++ {
		if err := bootOnce(ctx, cfg, driver, n); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}

	return nil
}

func readConfig() (*wdtblink.Config, error) {
	if config == "" {
		return wdtblink.DefaultConfig(), nil
	}

	f, err := os.Open(config)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	return wdtblink.ParseConfig(f)
}

// bootOnce runs one boot cycle until the watchdog resets it. Nothing but the
// LED driver survives a reset.
func bootOnce(ctx context.Context, cfg *wdtblink.Config, driver led.Driver, n int) error {
	var clk clock.Clock = clock.Real{}
	if cfg.Sim.Simulate {
		clk = clock.NewSim()
	}

	bootCtx, reset := context.WithCancel(ctx)
	defer reset()

	logger := slog.Default().With("boot", n)
	wd := watchdog.NewSoft(clk, reset)
	start := clk.Now()

	fw, err := wdtblink.New(cfg, wdtblink.Board{
		Clock:    clk,
		Watchdog: wd,
		LED:      driver,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create firmware: %w", err)
	}

	err = fw.Boot(bootCtx)

	select {
	case <-wd.Done():
		logger.Warn(
			"watchdog reset",
			"last_feed", wd.LastFeed().Sub(start),
			"reset_at", wd.ResetAt().Sub(start),
			"feeds", wd.Feeds())
		return nil
	default:
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("boot %d failed: %w", n, err)
	}
	return ctx.Err()
}
