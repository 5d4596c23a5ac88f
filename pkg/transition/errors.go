package transition

import (
	"errors"
	"fmt"

	"github.com/minersched/minersched/pkg/device"
)

var (
	// ErrInvalidTarget means the control API rejected the target value.
	ErrInvalidTarget = errors.New("invalid target value")

	// ErrSessionExpired means the change request was unauthorized.
	ErrSessionExpired = errors.New("session expired")
)

// InvalidTargetError names the rejected value.
type InvalidTargetError struct {
	Kind    device.Kind
	Target  string
	Message string
}

func (e *InvalidTargetError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("invalid %s %q", e.Kind, e.Target)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Kind, e.Target, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidTarget.
func (e *InvalidTargetError) Unwrap() error {
	return ErrInvalidTarget
}
