package fleet

import (
	"context"
	"errors"
	"time"

	"github.com/minersched/minersched/pkg/device"
	"github.com/minersched/minersched/pkg/luxapi"
	"github.com/minersched/minersched/pkg/session"
	"github.com/minersched/minersched/pkg/transition"
)

// Status is the per-device outcome of a pass.
type Status string

const (
	StatusOK             Status = "ok"
	StatusUnreachable    Status = "transport-unreachable"
	StatusAuthRejected   Status = "auth-rejected"
	StatusInvalidTarget  Status = "invalid-target"
	StatusSessionExpired Status = "session-expired"
	StatusSkipped        Status = "skipped"
	StatusFailed         Status = "failed"
)

// StatusOf maps a device error to its Status.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, luxapi.ErrTransport):
		return StatusUnreachable
	case errors.Is(err, session.ErrAuthRejected):
		return StatusAuthRejected
	case errors.Is(err, transition.ErrInvalidTarget):
		return StatusInvalidTarget
	case errors.Is(err, transition.ErrSessionExpired):
		return StatusSessionExpired
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StatusSkipped
	default:
		return StatusFailed
	}
}

// DeviceResult is the outcome for one device.
type DeviceResult struct {
	Address string
	Status  Status
	Err     error

	// Recovered is set when the session was re-acquired during the pass.
	Recovered bool
}

// Report summarizes a pass.
type Report struct {
	PassID   string
	Target   string
	Kind     device.Kind
	Started  time.Time
	Finished time.Time
	Results  []DeviceResult
}

// Failed returns how many devices did not reach the target.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Status != StatusOK {
			n++
		}
	}
	return n
}

// Count returns how many devices ended with status s.
func (r Report) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Result returns the entry for address.
func (r Report) Result(address string) (DeviceResult, bool) {
	for _, res := range r.Results {
		if res.Address == address {
			return res, true
		}
	}
	return DeviceResult{}, false
}

// Duration returns how long the pass ran.
func (r Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}
