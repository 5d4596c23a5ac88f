// Command minersched keeps a fleet of LuxOS miners on a daily schedule of
// performance profiles and power modes.
//
// Usage:
//
//	minersched [flags]
//
// Flags:
//
//	--config string            YAML configuration file
//	--api-url string           Control API base URL (default "http://127.0.0.1:5000")
//	--devices strings          Miner addresses, comma separated
//	--request-timeout duration Per-call timeout (default 5s)
//	--login-retries int        Retries for unreachable logins (default 0)
//	--max-recoveries int       Session recoveries per pass, 0 = fleet size
//	--demo                     Cycle through the demo tasks
//	--status-interval duration Print the fleet table periodically
//	--event-log string         Write a CBOR event log to this path
//	--log-level string         debug, info, warn, error (default "info")
//	-i, --interactive          Start the operator console
//
// Examples:
//
//	# Run against the local simulator with the demo cycle
//	minersched --demo --status-interval 5s
//
//	# Production schedule from a config file, with an event log
//	minersched --config /etc/minersched.yaml --event-log /var/log/minersched.mlog
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/minersched/minersched/cmd/minersched/interactive"
	"github.com/minersched/minersched/pkg/config"
	"github.com/minersched/minersched/pkg/device"
	"github.com/minersched/minersched/pkg/fleet"
	"github.com/minersched/minersched/pkg/log"
	"github.com/minersched/minersched/pkg/luxapi"
	"github.com/minersched/minersched/pkg/schedule"
	"github.com/minersched/minersched/pkg/session"
	"github.com/minersched/minersched/pkg/transition"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configFile  string
	interactive bool
}

func run(args []string) error {
	cfg, opts, err := loadConfig(args)
	if err != nil {
		return err
	}
	if cfg == nil {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var console *interactive.Console
	var out, errOut io.Writer = os.Stdout, os.Stderr

	// The console must exist before the logger so log lines go through
	// readline and do not clobber the prompt.
	if opts.interactive {
		console, err = interactive.New(interactive.Config{})
		if err != nil {
			return err
		}
		defer console.Close()
		out, errOut = console.Stdout(), console.Stderr()
	}

	logger := newLogger(errOut, cfg.LogLevel)
	slog.SetDefault(logger)

	events, closeEvents, err := newEventLogger(cfg, logger)
	if err != nil {
		return err
	}
	defer closeEvents()

	f, err := device.NewFleet(cfg.Devices)
	if err != nil {
		return err
	}

	client, err := luxapi.NewClient(luxapi.Config{
		BaseURL:     cfg.APIURL,
		Timeout:     cfg.RequestTimeout,
		EventLogger: events,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	coord := fleet.NewCoordinator(f, fleet.Config{
		Sessions: session.NewManager(client, session.Config{
			LoginRetries: cfg.LoginRetries,
			EventLogger:  events,
			Logger:       logger,
		}),
		Applier: transition.NewApplier(client, transition.Config{
			EventLogger: events,
			Logger:      logger,
		}),
		MaxRecoveries: cfg.MaxRecoveries,
		EventLogger:   events,
		Logger:        logger,
	})
	runner := fleet.NewRunner(coord, fleet.RunnerConfig{QueueSize: cfg.QueueSize, Logger: logger})

	table := schedule.NewTable(cfg.Entries(), schedule.Config{Logger: logger})
	var cycler *schedule.Cycler
	if cfg.Demo.Enabled {
		cycler, err = schedule.NewCycler(cfg.DemoTasks(), cfg.Demo.Interval, schedule.Config{Logger: logger})
		if err != nil {
			return err
		}
	}

	logger.Info("minersched starting",
		"api_url", cfg.APIURL,
		"devices", f.Len(),
		"schedule", len(cfg.Schedule),
		"demo", cfg.Demo.Enabled)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runner.Run(ctx) })
	g.Go(func() error { return table.Run(ctx, runner) })
	if cycler != nil {
		g.Go(func() error { return cycler.Run(ctx, runner) })
	}
	if cfg.StatusInterval > 0 {
		g.Go(func() error { return printStatusEvery(ctx, out, cfg.StatusInterval, coord.Snapshot) })
	}
	if console != nil {
		console.Configure(interactive.Config{
			Runner:   runner,
			Status:   func(w io.Writer) { writeStatus(w, coord.Snapshot()) },
			Schedule: table,
			Demo:     cycler,
		})
		g.Go(func() error { return console.Run(ctx, cancel) })
	}

	err = g.Wait()
	logger.Info("minersched stopped")
	return err
}

// loadConfig parses flags and builds the effective configuration. A nil
// config with a nil error means help was printed.
func loadConfig(args []string) (*config.Config, options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("minersched", pflag.ContinueOnError)
	flagSet.StringVar(&opts.configFile, "config", "", "YAML configuration file")
	flagSet.BoolVarP(&opts.interactive, "interactive", "i", false, "start the operator console")

	def := config.Default()
	apiURL := flagSet.String("api-url", def.APIURL, "control API base URL")
	devices := flagSet.StringSlice("devices", def.Devices, "miner addresses")
	timeout := flagSet.Duration("request-timeout", def.RequestTimeout, "per-call timeout")
	retries := flagSet.Int("login-retries", def.LoginRetries, "retries for unreachable logins")
	recoveries := flagSet.Int("max-recoveries", def.MaxRecoveries, "session recoveries per pass (0 = fleet size)")
	demo := flagSet.Bool("demo", def.Demo.Enabled, "cycle through the demo tasks")
	statusInterval := flagSet.Duration("status-interval", def.StatusInterval, "print the fleet table periodically (0 = off)")
	eventLog := flagSet.String("event-log", def.EventLog, "write a CBOR event log to this path")
	logLevel := flagSet.String("log-level", def.LogLevel, "log level: debug, info, warn, error")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil, opts, nil
		}
		return nil, opts, err
	}
	if flagSet.NArg() > 0 {
		return nil, opts, fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}

	cfg := def
	if opts.configFile != "" {
		loaded, err := config.Load(opts.configFile)
		if err != nil {
			return nil, opts, err
		}
		cfg = loaded
	}

	// Flags given explicitly override the file.
	flagSet.Visit(func(fl *pflag.Flag) {
		switch fl.Name {
		case "api-url":
			cfg.APIURL = *apiURL
		case "devices":
			cfg.Devices = *devices
		case "request-timeout":
			cfg.RequestTimeout = *timeout
		case "login-retries":
			cfg.LoginRetries = *retries
		case "max-recoveries":
			cfg.MaxRecoveries = *recoveries
		case "demo":
			cfg.Demo.Enabled = *demo
		case "status-interval":
			cfg.StatusInterval = *statusInterval
		case "event-log":
			cfg.EventLog = *eventLog
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, opts, err
	}
	return cfg, opts, nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// newEventLogger builds the event sink: the CBOR file when configured, plus
// the slog adapter at debug level.
func newEventLogger(cfg *config.Config, logger *slog.Logger) (log.Logger, func(), error) {
	var sinks []log.Logger
	closeFn := func() {}

	if cfg.EventLog != "" {
		fl, err := log.NewFileLogger(cfg.EventLog)
		if err != nil {
			return nil, nil, fmt.Errorf("event log: %w", err)
		}
		sinks = append(sinks, fl)
		closeFn = func() {
			if n := fl.Dropped(); n > 0 {
				logger.Warn("event log dropped events", "count", n)
			}
			if err := fl.Close(); err != nil {
				logger.Warn("event log close failed", "error", err)
			}
		}
		logger.Info("writing event log", "path", fl.Path())
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		sinks = append(sinks, log.NewSlogAdapter(logger))
	}

	if len(sinks) == 0 {
		return log.NoopLogger{}, closeFn, nil
	}
	return log.NewMultiLogger(sinks...), closeFn, nil
}
