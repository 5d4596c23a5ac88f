package schedule

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/minersched/minersched/pkg/device"
	"github.com/minersched/minersched/pkg/fleet"
)

// ErrInvalidTimeOfDay is returned for times not in 24-hour HH:MM form.
var ErrInvalidTimeOfDay = errors.New("invalid time of day")

// Submitter queues a pass.
type Submitter interface {
	Submit(target string, kind device.Kind) (<-chan fleet.Report, error)
}

// Task is one pass request.
type Task struct {
	Target string
	Kind   device.Kind
}

func (t Task) String() string {
	return t.Kind.String() + "=" + t.Target
}

// TimeOfDay is a wall-clock time with minute resolution.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (24-hour clock).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Next returns the first occurrence of t strictly after now, in now's
// location.
func (t TimeOfDay) Next(now time.Time) time.Time {
	y, mo, d := now.Date()
	at := time.Date(y, mo, d, t.Hour, t.Minute, 0, 0, now.Location())
	if !at.After(now) {
		at = time.Date(y, mo, d+1, t.Hour, t.Minute, 0, 0, now.Location())
	}
	return at
}

// Clock abstracts time for the schedulers.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// sleep waits for d on clock, or until ctx is done.
func sleep(ctx context.Context, clock Clock, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-clock.After(d):
		return nil
	}
}
