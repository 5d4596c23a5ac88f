// Package interactive provides the operator console for minersched.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/minersched/minersched/pkg/device"
	"github.com/minersched/minersched/pkg/fleet"
	"github.com/minersched/minersched/pkg/schedule"
)

// Submitter queues fleet passes.
type Submitter interface {
	Submit(target string, kind device.Kind) (<-chan fleet.Report, error)
}

// Config wires the console to the scheduler.
type Config struct {
	Runner Submitter

	// Status writes the fleet table.
	Status func(w io.Writer)

	// Schedule is the daily table shown by the schedule command.
	Schedule *schedule.Table

	// Demo is the demo cycler, nil when the demo is off.
	Demo *schedule.Cycler
}

// Console is a readline command loop.
type Console struct {
	cfg Config
	rl  *readline.Instance
}

// New creates a console on the terminal.
func New(cfg Config) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "minersched> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("status"),
			readline.PcItem("profile",
				readline.PcItem("normal"),
				readline.PcItem("overclock"),
				readline.PcItem("underclock"),
			),
			readline.PcItem("mode",
				readline.PcItem("active"),
				readline.PcItem("sleep"),
			),
			readline.PcItem("schedule"),
			readline.PcItem("help"),
			readline.PcItem("quit"),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{cfg: cfg, rl: rl}, nil
}

// Configure replaces the console wiring. It must be called before Run.
func (c *Console) Configure(cfg Config) {
	c.cfg = cfg
}

// Stdout returns a writer that keeps output from clobbering the prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Stderr returns a writer that keeps output from clobbering the prompt.
func (c *Console) Stderr() io.Writer {
	return c.rl.Stderr()
}

// Close releases the terminal.
func (c *Console) Close() error {
	return c.rl.Close()
}

// Run reads commands until quit, EOF, or ctx is done. cancel is called
// when the operator quits.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) error {
	defer c.rl.Close()

	go func() {
		<-ctx.Done()
		c.rl.Close()
	}()

	c.printHelp()
	for {
		line, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) && ctx.Err() == nil {
				continue
			}
			if ctx.Err() == nil {
				fmt.Fprintln(c.rl.Stdout(), "Exiting...")
				cancel()
			}
			return nil
		}
		if quit := c.Exec(ctx, line); quit {
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return nil
		}
	}
}

// Exec runs one command line and reports whether the operator quit.
func (c *Console) Exec(ctx context.Context, line string) bool {
	out := c.rl.Stdout()
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd, args := strings.ToLower(parts[0]), parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()
	case "status", "s":
		c.cfg.Status(out)
	case "profile", "p":
		c.cmdApply(ctx, out, device.KindProfile, args)
	case "mode", "m":
		c.cmdApply(ctx, out, device.KindMode, args)
	case "schedule":
		c.cmdSchedule(out)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (c *Console) cmdApply(ctx context.Context, out io.Writer, kind device.Kind, args []string) {
	if len(args) != 1 {
		fmt.Fprintf(out, "Usage: %s <value>\n", kind)
		return
	}
	ch, err := c.cfg.Runner.Submit(args[0], kind)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(out, "Queued %s=%s\n", kind, args[0])

	select {
	case <-ctx.Done():
	case rep, ok := <-ch:
		if !ok {
			fmt.Fprintln(out, "Pass abandoned: scheduler stopping")
			return
		}
		WriteReport(out, rep)
	}
}

func (c *Console) cmdSchedule(out io.Writer) {
	if c.cfg.Schedule != nil {
		now := time.Now()
		fmt.Fprintln(out, "Daily schedule:")
		for _, e := range c.cfg.Schedule.Entries() {
			fmt.Fprintf(out, "  %s  %-20s next %s\n", e.At, e.Task, e.At.Next(now).Format(time.DateTime))
		}
	}
	if c.cfg.Demo != nil {
		fmt.Fprintf(out, "Demo cycle active, next step %d\n", c.cfg.Demo.Position()+1)
	}
}

// WriteReport prints a pass summary with one line per device that failed.
func WriteReport(out io.Writer, rep fleet.Report) {
	fmt.Fprintf(out, "Pass %s %s=%s: %d/%d ok in %s\n",
		shortID(rep.PassID), rep.Kind, rep.Target,
		len(rep.Results)-rep.Failed(), len(rep.Results),
		rep.Duration().Round(time.Millisecond))
	for _, r := range rep.Results {
		if r.Status == fleet.StatusOK {
			continue
		}
		fmt.Fprintf(out, "  %-15s %s", r.Address, r.Status)
		if r.Err != nil {
			fmt.Fprintf(out, ": %v", r.Err)
		}
		fmt.Fprintln(out)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
Miner Scheduler Commands:
  status             - Show fleet state
  profile <value>    - Run a profile pass (normal, overclock, underclock)
  mode <value>       - Run a mode pass (active, sleep)
  schedule           - Show the daily schedule
  help               - Show this help
  quit               - Exit`)
}
