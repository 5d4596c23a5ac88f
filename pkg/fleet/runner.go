package fleet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/minersched/minersched/pkg/device"
	"github.com/minersched/minersched/pkg/log"
)

// DefaultQueueSize is the number of jobs that may wait for the worker.
const DefaultQueueSize = 16

// Runner errors.
var (
	ErrQueueFull     = errors.New("pass queue full")
	ErrRunnerStopped = errors.New("runner stopped")
)

// Reconciler runs one pass.
type Reconciler interface {
	Reconcile(ctx context.Context, target string, kind device.Kind) Report
}

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	// QueueSize bounds pending jobs. Zero means DefaultQueueSize.
	QueueSize int

	// Logger is the operational logger. Nil means slog.Default().
	Logger *slog.Logger
}

type job struct {
	passID string
	target string
	kind   device.Kind
	reply  chan Report
}

// Runner executes passes one at a time in submission order.
type Runner struct {
	rec    Reconciler
	queue  chan job
	logger *slog.Logger

	mu      sync.Mutex
	stopped bool
}

// NewRunner creates a runner feeding rec.
func NewRunner(rec Reconciler, cfg RunnerConfig) *Runner {
	size := cfg.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	r := &Runner{
		rec:    rec,
		queue:  make(chan job, size),
		logger: cfg.Logger,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Submit queues a pass. The returned channel receives the report once the
// pass has run; it is closed without a value if the runner stops first.
func (r *Runner) Submit(target string, kind device.Kind) (<-chan Report, error) {
	if kind != device.KindProfile && kind != device.KindMode {
		return nil, fmt.Errorf("unknown transition kind %d", kind)
	}

	j := job{
		passID: uuid.New().String(),
		target: target,
		kind:   kind,
		reply:  make(chan Report, 1),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return nil, ErrRunnerStopped
	}
	select {
	case r.queue <- j:
	default:
		return nil, ErrQueueFull
	}

	r.logger.Debug("pass queued", "pass_id", j.passID, "kind", kind.String(), "target", target)
	return j.reply, nil
}

// Run executes queued passes until ctx is cancelled. Jobs still queued at
// that point are abandoned and later submissions fail with
// ErrRunnerStopped. Run returns nil on cancellation.
func (r *Runner) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return ErrRunnerStopped
	}
	r.mu.Unlock()

	defer r.stop()

	for {
		if ctx.Err() != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case j := <-r.queue:
			passCtx := log.ContextWithPassID(ctx, j.passID)
			j.reply <- r.rec.Reconcile(passCtx, j.target, j.kind)
			close(j.reply)
		}
	}
}

func (r *Runner) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	for {
		select {
		case j := <-r.queue:
			r.logger.Warn("pass dropped at shutdown", "pass_id", j.passID, "target", j.target)
			close(j.reply)
		default:
			return
		}
	}
}
