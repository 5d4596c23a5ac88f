// Command minersched-log views and summarizes minersched event logs.
//
// Event logs are written by minersched when started with --event-log.
//
// Usage:
//
//	minersched-log <command> [flags] <file.mlog>
//
// Commands:
//
//	view     Print events in human-readable form
//	stats    Summarize passes, devices and outcomes
//
// Examples:
//
//	# Everything one miner saw
//	minersched-log view --device 10.1.1.3 events.mlog
//
//	# Only failed operations
//	minersched-log view --category error events.mlog
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/minersched/minersched/cmd/minersched-log/commands"
	"github.com/minersched/minersched/pkg/log"
)

const usage = `minersched-log - Miner Scheduler Event Log Viewer

Usage:
  minersched-log <command> [flags] <file.mlog>

Commands:
  view     Print events in human-readable form
  stats    Summarize passes, devices and outcomes

Use "minersched-log <command> --help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "view":
		err = runCommand("view", "Print events in human-readable form", args, commands.RunView)
	case "stats":
		err = runCommand("stats", "Summarize passes, devices and outcomes", args, commands.RunStats)
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runCommand(name, summary string, args []string, run func(string, log.Filter, io.Writer) error) error {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "minersched-log %s - %s\n\nUsage:\n  minersched-log %s [flags] <file.mlog>\n\nFlags:\n", name, summary, name)
		fs.PrintDefaults()
	}

	var ff commands.FilterFlags
	fs.StringVar(&ff.Layer, "layer", "", "filter by layer (api, session, fleet)")
	fs.StringVar(&ff.Direction, "direction", "", "filter by direction (in, out, local)")
	fs.StringVar(&ff.Category, "category", "", "filter by category (message, state, pass, error)")
	fs.StringVar(&ff.Device, "device", "", "filter by miner address")
	fs.StringVar(&ff.Pass, "pass", "", "filter by pass ID")
	fs.StringVar(&ff.Since, "since", "", "only events at or after this RFC 3339 time")
	fs.StringVar(&ff.Until, "until", "", "only events before this RFC 3339 time")

	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("log file path required")
	}

	filter, err := ff.Build()
	if err != nil {
		return err
	}
	return run(fs.Arg(0), filter, os.Stdout)
}
