package device

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Profile is a performance tier of a miner.
// Unrecognized values are kept verbatim so the control API can reject them.
type Profile string

const (
	// ProfileUnknown means no profile has been confirmed yet.
	ProfileUnknown Profile = ""
	// ProfileNormal is the stock performance tier.
	ProfileNormal Profile = "normal"
	// ProfileOverclock runs the miner above stock.
	ProfileOverclock Profile = "overclock"
	// ProfileUnderclock runs the miner below stock.
	ProfileUnderclock Profile = "underclock"
)

// String returns the profile name, or "unknown".
func (p Profile) String() string {
	if p == ProfileUnknown {
		return "unknown"
	}
	return string(p)
}

// Mode is the power/curtailment state of a miner.
type Mode string

const (
	// ModeUnknown means no mode has been confirmed yet.
	ModeUnknown Mode = ""
	// ModeActive means the miner is hashing.
	ModeActive Mode = "active"
	// ModeSleep means the miner is curtailed.
	ModeSleep Mode = "sleep"
)

// String returns the mode name, or "unknown".
func (m Mode) String() string {
	if m == ModeUnknown {
		return "unknown"
	}
	return string(m)
}

// Kind selects which dimension a transition changes.
type Kind uint8

const (
	// KindProfile changes the performance profile.
	KindProfile Kind = iota + 1
	// KindMode changes the power mode.
	KindMode
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindProfile:
		return "profile"
	case KindMode:
		return "mode"
	default:
		return "unknown"
	}
}

// ParseKind parses "profile" or "mode" (case-insensitive).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "profile":
		return KindProfile, nil
	case "mode":
		return KindMode, nil
	default:
		return 0, fmt.Errorf("unknown transition kind %q: expected profile or mode", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k != KindProfile && k != KindMode {
		return nil, fmt.Errorf("invalid transition kind %d", k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// State is an immutable snapshot of a Device.
type State struct {
	Address       string
	Profile       Profile
	Mode          Mode
	SessionToken  string
	SessionExpiry time.Time
}

// Device is the controller's record of one miner.
type Device struct {
	mu sync.RWMutex

	address string
	profile Profile
	mode    Mode

	// Session credential. The expiry is advisory; expiry is detected
	// from the control API's unauthorized response.
	token  string
	expiry time.Time
}

// New creates a record for the miner at address with nothing confirmed.
func New(address string) *Device {
	return &Device{address: address}
}

// Address returns the miner's network address.
func (d *Device) Address() string {
	return d.address
}

// Profile returns the last confirmed profile.
func (d *Device) Profile() Profile {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.profile
}

// Mode returns the last confirmed mode.
func (d *Device) Mode() Mode {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.mode
}

// Token returns the current session token (empty before the first login).
func (d *Device) Token() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.token
}

// SessionExpiry returns the last expiry the control API issued.
func (d *Device) SessionExpiry() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.expiry
}

// SetProfile records a confirmed profile.
func (d *Device) SetProfile(p Profile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.profile = p
}

// SetMode records a confirmed mode.
func (d *Device) SetMode(m Mode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mode = m
}

// SetToken replaces the session token and keeps the previous expiry.
func (d *Device) SetToken(token string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.token = token
}

// SetSession replaces both the session token and its expiry.
func (d *Device) SetSession(token string, expiry time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.token = token
	d.expiry = expiry
}

// State returns a snapshot of the record.
func (d *Device) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return State{
		Address:       d.address,
		Profile:       d.profile,
		Mode:          d.mode,
		SessionToken:  d.token,
		SessionExpiry: d.expiry,
	}
}
