// Package session acquires control API sessions for fleet devices.
//
// A session is a bearer token obtained by logging in with the miner's
// address. The manager stores the token on the device record only after the
// control API confirmed the login. It never predicts expiry: the expiry the
// API reports is kept for display, and an expired token is discovered when
// a change request comes back unauthorized.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/minersched/minersched/pkg/backoff"
	"github.com/minersched/minersched/pkg/device"
	"github.com/minersched/minersched/pkg/log"
	"github.com/minersched/minersched/pkg/luxapi"
)

// ErrAuthRejected means the control API refused the login.
var ErrAuthRejected = errors.New("login rejected")

// Authenticator opens control API sessions.
type Authenticator interface {
	Login(ctx context.Context, address string) (luxapi.LoginResult, error)
}

// Result describes a successful session acquisition.
type Result struct {
	Token string

	// Reused is set when the miner reported an existing session. The
	// device's previous expiry is kept in that case.
	Reused bool

	// Expiry is the expiry recorded on the device after the login.
	Expiry time.Time
}

// Config configures a Manager.
type Config struct {
	// LoginRetries is how many times a login that failed at the transport
	// level is re-attempted. Zero means a single attempt.
	LoginRetries int

	// Backoff paces retries. Zero value means the backoff defaults.
	Backoff backoff.Config

	// EventLogger receives session state changes. Nil disables capture.
	EventLogger log.Logger

	// Logger is the operational logger. Nil means slog.Default().
	Logger *slog.Logger
}

// Manager acquires sessions.
type Manager struct {
	auth    Authenticator
	retries int
	backoff backoff.Config
	events  log.Logger
	logger  *slog.Logger
}

// NewManager creates a session manager backed by auth.
func NewManager(auth Authenticator, cfg Config) *Manager {
	m := &Manager{
		auth:    auth,
		retries: cfg.LoginRetries,
		backoff: cfg.Backoff,
		events:  log.OrNoop(cfg.EventLogger),
		logger:  cfg.Logger,
	}
	if m.retries < 0 {
		m.retries = 0
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// EnsureSession logs in to d and records the token on success.
//
// Errors wrap ErrAuthRejected for a non-OK login status, luxapi.ErrTransport
// when the miner could not be reached, or luxapi.ErrMalformedResponse. The
// device is left untouched on any error.
func (m *Manager) EnsureSession(ctx context.Context, d *device.Device) (Result, error) {
	res, err := m.login(ctx, d.Address())
	if err != nil {
		m.logError(ctx, d, err, 0)
		return Result{}, err
	}

	if !res.OK() {
		err := fmt.Errorf("%w: %s: status %d: %s", ErrAuthRejected, d.Address(), res.StatusCode, res.Message)
		m.logError(ctx, d, err, res.StatusCode)
		return Result{}, err
	}

	old := d.Token()
	reused := res.AlreadyLoggedIn
	if reused || res.TTL == nil {
		d.SetToken(res.Token)
	} else {
		d.SetSession(res.Token, *res.TTL)
	}
	expiry := d.SessionExpiry()

	if old != res.Token {
		reason := "login"
		if reused {
			reason = "existing session"
		}
		m.events.Log(log.Event{
			Timestamp:  time.Now(),
			PassID:     log.PassIDFromContext(ctx),
			Direction:  log.DirectionLocal,
			Layer:      log.LayerSession,
			Category:   log.CategoryState,
			DeviceAddr: d.Address(),
			StateChange: &log.StateChangeEvent{
				Field:    log.StateFieldSession,
				OldState: old,
				NewState: res.Token,
				Reason:   reason,
			},
		})
	}

	m.logger.Debug("session acquired",
		"device", d.Address(),
		"reused", reused,
		"expiry", expiry)

	return Result{Token: res.Token, Reused: reused, Expiry: expiry}, nil
}

// login performs the login, retrying transport failures.
func (m *Manager) login(ctx context.Context, address string) (luxapi.LoginResult, error) {
	var b *backoff.Backoff
	for attempt := 0; ; attempt++ {
		res, err := m.auth.Login(ctx, address)
		if err == nil || !errors.Is(err, luxapi.ErrTransport) || attempt >= m.retries {
			return res, err
		}

		if b == nil {
			b = backoff.NewWithConfig(m.backoff)
		}
		m.logger.Info("login unreachable, retrying",
			"device", address,
			"attempt", attempt+1,
			"error", err)
		if werr := b.Wait(ctx); werr != nil {
			return luxapi.LoginResult{}, err
		}
	}
}

func (m *Manager) logError(ctx context.Context, d *device.Device, err error, status int) {
	data := &log.ErrorEventData{
		Layer:   log.LayerSession,
		Message: err.Error(),
		Context: "login",
	}
	if status != 0 {
		data.Code = &status
	}
	m.events.Log(log.Event{
		Timestamp:  time.Now(),
		PassID:     log.PassIDFromContext(ctx),
		Direction:  log.DirectionLocal,
		Layer:      log.LayerSession,
		Category:   log.CategoryError,
		DeviceAddr: d.Address(),
		Error:      data,
	})
}
