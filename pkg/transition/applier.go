package transition

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/minersched/minersched/pkg/device"
	"github.com/minersched/minersched/pkg/log"
	"github.com/minersched/minersched/pkg/luxapi"
)

// Changer sends change requests to the control API.
type Changer interface {
	SetProfile(ctx context.Context, token, profile string) (luxapi.Result, error)
	SetMode(ctx context.Context, token, mode string) (luxapi.Result, error)
}

// Config configures an Applier.
type Config struct {
	// EventLogger receives profile and mode changes. Nil disables capture.
	EventLogger log.Logger

	// Logger is the operational logger. Nil means slog.Default().
	Logger *slog.Logger
}

// Applier applies transitions to devices.
type Applier struct {
	api    Changer
	events log.Logger
	logger *slog.Logger
}

// NewApplier creates an applier sending requests through api.
func NewApplier(api Changer, cfg Config) *Applier {
	a := &Applier{
		api:    api,
		events: log.OrNoop(cfg.EventLogger),
		logger: cfg.Logger,
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// ApplyProfile moves d to profile p and wakes it if it is not active.
func (a *Applier) ApplyProfile(ctx context.Context, d *device.Device, p device.Profile) error {
	ctx = luxapi.ContextWithDevice(ctx, d.Address())

	res, err := a.api.SetProfile(ctx, d.Token(), string(p))
	if err != nil {
		return fmt.Errorf("set profile %s on %s: %w", p, d.Address(), err)
	}
	if err := a.check(d, device.KindProfile, string(p), res); err != nil {
		return err
	}

	old := d.Profile()
	d.SetProfile(p)
	a.logChange(ctx, d, log.StateFieldProfile, old.String(), p.String(), res.Outcome)

	if d.Mode() != device.ModeActive {
		a.logger.Debug("waking device after profile change",
			"device", d.Address(),
			"target", string(p),
			"mode", d.Mode().String())
		return a.ApplyMode(ctx, d, device.ModeActive)
	}
	return nil
}

// ApplyMode moves d to mode m.
func (a *Applier) ApplyMode(ctx context.Context, d *device.Device, m device.Mode) error {
	ctx = luxapi.ContextWithDevice(ctx, d.Address())

	res, err := a.api.SetMode(ctx, d.Token(), string(m))
	if err != nil {
		return fmt.Errorf("set mode %s on %s: %w", m, d.Address(), err)
	}
	if err := a.check(d, device.KindMode, string(m), res); err != nil {
		return err
	}

	old := d.Mode()
	d.SetMode(m)
	a.logChange(ctx, d, log.StateFieldMode, old.String(), m.String(), res.Outcome)
	return nil
}

// check turns a non-confirming outcome into an error.
func (a *Applier) check(d *device.Device, kind device.Kind, target string, res luxapi.Result) error {
	switch res.Outcome {
	case luxapi.OutcomeApplied, luxapi.OutcomeAlreadyInState:
		return nil
	case luxapi.OutcomeInvalidValue:
		return &InvalidTargetError{Kind: kind, Target: target, Message: res.Message}
	case luxapi.OutcomeUnauthorized:
		return fmt.Errorf("set %s %s on %s: %w", kind, target, d.Address(), ErrSessionExpired)
	default:
		return fmt.Errorf("set %s %s on %s: unexpected outcome %s", kind, target, d.Address(), res.Outcome)
	}
}

func (a *Applier) logChange(ctx context.Context, d *device.Device, field log.StateField, from, to string, outcome luxapi.Outcome) {
	a.events.Log(log.Event{
		Timestamp:  time.Now(),
		PassID:     log.PassIDFromContext(ctx),
		Direction:  log.DirectionLocal,
		Layer:      log.LayerFleet,
		Category:   log.CategoryState,
		DeviceAddr: d.Address(),
		StateChange: &log.StateChangeEvent{
			Field:    field,
			OldState: from,
			NewState: to,
			Reason:   outcome.String(),
		},
	})
	a.logger.Info("device updated",
		"device", d.Address(),
		"field", field.String(),
		"target", to,
		"outcome", outcome.String())
}
