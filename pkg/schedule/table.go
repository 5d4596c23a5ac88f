package schedule

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

// Entry fires Task every day at At.
type Entry struct {
	At   TimeOfDay
	Task Task
}

// Config configures the schedulers.
type Config struct {
	// Clock overrides wall-clock time (tests).
	Clock Clock

	// Logger is the operational logger. Nil means slog.Default().
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Clock == nil {
		c.Clock = realClock{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Table is a daily schedule.
type Table struct {
	entries []Entry
	clock   Clock
	logger  *slog.Logger
}

// NewTable creates a table. Entries are kept sorted by time of day; entries
// sharing a time fire in the given order.
func NewTable(entries []Entry, cfg Config) *Table {
	cfg = cfg.withDefaults()
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].At, sorted[j].At
		if a.Hour != b.Hour {
			return a.Hour < b.Hour
		}
		return a.Minute < b.Minute
	})
	return &Table{entries: sorted, clock: cfg.Clock, logger: cfg.Logger}
}

// Entries returns the entries sorted by time of day.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Next returns the entries due at the earliest upcoming time after now.
func (t *Table) Next(now time.Time) ([]Entry, time.Time) {
	var (
		due []Entry
		at  time.Time
	)
	for _, e := range t.entries {
		next := e.At.Next(now)
		switch {
		case due == nil || next.Before(at):
			due = []Entry{e}
			at = next
		case next.Equal(at):
			due = append(due, e)
		}
	}
	return due, at
}

// Run submits entries as they come due until ctx is done.
func (t *Table) Run(ctx context.Context, sub Submitter) error {
	if len(t.entries) == 0 {
		<-ctx.Done()
		return nil
	}
	for {
		due, at := t.Next(t.clock.Now())
		t.logger.Debug("next scheduled pass", "at", at, "entries", len(due))

		if err := sleep(ctx, t.clock, at.Sub(t.clock.Now())); err != nil {
			return nil
		}
		for _, e := range due {
			submit(sub, e.Task, t.logger, "scheduled pass")
		}
	}
}

func submit(sub Submitter, task Task, logger *slog.Logger, what string) {
	if _, err := sub.Submit(task.Target, task.Kind); err != nil {
		logger.Warn(what+" not queued",
			"kind", task.Kind.String(),
			"target", task.Target,
			"error", err)
		return
	}
	logger.Info(what+" queued", "kind", task.Kind.String(), "target", task.Target)
}
