package schedule

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrNoTasks is returned by NewCycler for an empty task list.
var ErrNoTasks = errors.New("cycler needs at least one task")

// Cycler submits a fixed list of tasks in turn, one per interval.
type Cycler struct {
	tasks    []Task
	interval time.Duration
	clock    Clock
	logger   *slog.Logger

	mu   sync.Mutex
	next int
}

// NewCycler creates a cycler. The first task is submitted one interval
// after Run starts.
func NewCycler(tasks []Task, interval time.Duration, cfg Config) (*Cycler, error) {
	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}
	if interval <= 0 {
		return nil, errors.New("cycler interval must be positive")
	}
	cfg = cfg.withDefaults()
	return &Cycler{
		tasks:    append([]Task(nil), tasks...),
		interval: interval,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
	}, nil
}

// Position returns the index of the task submitted next.
func (c *Cycler) Position() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}

// Step submits the current task and advances, wrapping at the end.
func (c *Cycler) Step(sub Submitter) Task {
	c.mu.Lock()
	task := c.tasks[c.next]
	c.next = (c.next + 1) % len(c.tasks)
	c.mu.Unlock()

	submit(sub, task, c.logger, "demo pass")
	return task
}

// Run steps once per interval until ctx is done.
func (c *Cycler) Run(ctx context.Context, sub Submitter) error {
	for {
		if err := sleep(ctx, c.clock, c.interval); err != nil {
			return nil
		}
		c.Step(sub)
	}
}
