package fleet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/minersched/minersched/pkg/device"
	"github.com/minersched/minersched/pkg/log"
	"github.com/minersched/minersched/pkg/session"
	"github.com/minersched/minersched/pkg/transition"
)

// SessionProvider acquires device sessions.
type SessionProvider interface {
	EnsureSession(ctx context.Context, d *device.Device) (session.Result, error)
}

// Transitioner applies profile and mode changes.
type Transitioner interface {
	ApplyProfile(ctx context.Context, d *device.Device, p device.Profile) error
	ApplyMode(ctx context.Context, d *device.Device, m device.Mode) error
}

// Config configures a Coordinator.
type Config struct {
	Sessions SessionProvider
	Applier  Transitioner

	// MaxRecoveries caps session re-acquisitions after an unauthorized
	// change within one pass. Zero or less means the fleet size.
	MaxRecoveries int

	// EventLogger receives pass lifecycle and error events. Nil disables
	// capture.
	EventLogger log.Logger

	// Logger is the operational logger. Nil means slog.Default().
	Logger *slog.Logger
}

// Coordinator runs reconciliation passes over a fleet.
type Coordinator struct {
	fleet         *device.Fleet
	sessions      SessionProvider
	applier       Transitioner
	maxRecoveries int
	events        log.Logger
	logger        *slog.Logger
}

// NewCoordinator creates a coordinator for f.
func NewCoordinator(f *device.Fleet, cfg Config) *Coordinator {
	c := &Coordinator{
		fleet:         f,
		sessions:      cfg.Sessions,
		applier:       cfg.Applier,
		maxRecoveries: cfg.MaxRecoveries,
		events:        log.OrNoop(cfg.EventLogger),
		logger:        cfg.Logger,
	}
	if c.maxRecoveries <= 0 {
		c.maxRecoveries = f.Len()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Snapshot returns the current state of every device in fleet order.
func (c *Coordinator) Snapshot() []device.State {
	return c.fleet.Snapshot()
}

// Reconcile drives every device toward target and reports per device.
//
// The pass ID is taken from ctx (see log.ContextWithPassID) or generated.
// Cancellation is checked before each device; devices not reached are
// reported as skipped. Reconcile never returns an error: every failure is
// logged and recorded in the report.
func (c *Coordinator) Reconcile(ctx context.Context, target string, kind device.Kind) Report {
	passID := log.PassIDFromContext(ctx)
	if passID == "" {
		passID = uuid.New().String()
		ctx = log.ContextWithPassID(ctx, passID)
	}

	devices := c.fleet.Devices()
	report := Report{
		PassID:  passID,
		Target:  target,
		Kind:    kind,
		Started: time.Now(),
		Results: make([]DeviceResult, 0, len(devices)),
	}
	logger := c.logger.With("pass_id", passID, "kind", kind.String(), "target", target)

	c.logPass(ctx, log.PassStarted, report, len(devices))
	logger.Info("pass started", "devices", len(devices))

	recoveries := 0
	for i, d := range devices {
		if err := ctx.Err(); err != nil {
			for _, rest := range devices[i:] {
				report.Results = append(report.Results, DeviceResult{
					Address: rest.Address(),
					Status:  StatusSkipped,
					Err:     err,
				})
			}
			logger.Warn("pass cancelled", "skipped", len(devices)-i, "error", err)
			break
		}

		res := c.reconcileDevice(ctx, d, target, kind, &recoveries)
		if res.Err != nil {
			logger.Warn("device not reconciled",
				"device", res.Address,
				"status", string(res.Status),
				"error", res.Err)
			c.logError(ctx, d, res)
		}
		report.Results = append(report.Results, res)
	}

	report.Finished = time.Now()
	c.logPass(ctx, log.PassFinished, report, len(devices))
	logger.Info("pass finished",
		"failed", report.Failed(),
		"recoveries", recoveries,
		"duration", report.Duration())
	return report
}

func (c *Coordinator) reconcileDevice(ctx context.Context, d *device.Device, target string, kind device.Kind, recoveries *int) DeviceResult {
	res := DeviceResult{Address: d.Address()}

	if _, err := c.sessions.EnsureSession(ctx, d); err != nil {
		res.Err = err
		res.Status = StatusOf(err)
		return res
	}

	err := c.apply(ctx, d, target, kind)
	if errors.Is(err, transition.ErrSessionExpired) {
		if *recoveries >= c.maxRecoveries {
			c.logger.Warn("session recovery limit reached",
				"device", d.Address(),
				"pass_id", log.PassIDFromContext(ctx),
				"limit", c.maxRecoveries)
		} else {
			*recoveries++
			res.Recovered = true
			c.logger.Info("session expired, logging in again",
				"device", d.Address(),
				"pass_id", log.PassIDFromContext(ctx))
			if _, serr := c.sessions.EnsureSession(ctx, d); serr != nil {
				err = serr
			} else {
				err = c.apply(ctx, d, target, kind)
			}
		}
	}

	res.Err = err
	res.Status = StatusOf(err)
	return res
}

func (c *Coordinator) apply(ctx context.Context, d *device.Device, target string, kind device.Kind) error {
	switch kind {
	case device.KindProfile:
		return c.applier.ApplyProfile(ctx, d, device.Profile(target))
	case device.KindMode:
		return c.applier.ApplyMode(ctx, d, device.Mode(target))
	default:
		return fmt.Errorf("unknown transition kind %d", kind)
	}
}

func (c *Coordinator) logPass(ctx context.Context, phase log.PassPhase, r Report, devices int) {
	ev := &log.PassEvent{
		Phase:   phase,
		Target:  r.Target,
		Kind:    r.Kind.String(),
		Devices: devices,
	}
	if phase == log.PassFinished {
		ev.Failed = r.Failed()
	}
	c.events.Log(log.Event{
		Timestamp: time.Now(),
		PassID:    r.PassID,
		Direction: log.DirectionLocal,
		Layer:     log.LayerFleet,
		Category:  log.CategoryPass,
		Pass:      ev,
	})
}

func (c *Coordinator) logError(ctx context.Context, d *device.Device, res DeviceResult) {
	c.events.Log(log.Event{
		Timestamp:  time.Now(),
		PassID:     log.PassIDFromContext(ctx),
		Direction:  log.DirectionLocal,
		Layer:      log.LayerFleet,
		Category:   log.CategoryError,
		DeviceAddr: d.Address(),
		Error: &log.ErrorEventData{
			Layer:   log.LayerFleet,
			Message: res.Err.Error(),
			Context: string(res.Status),
		},
	})
}
