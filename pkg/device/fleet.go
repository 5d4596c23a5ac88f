package device

import (
	"errors"
	"fmt"
	"strings"
)

// Fleet errors.
var (
	ErrEmptyAddress     = errors.New("empty device address")
	ErrDuplicateAddress = errors.New("duplicate device address")
)

// Fleet is the ordered set of devices a controller manages.
// The order is fixed at construction and every pass walks it front to back.
type Fleet struct {
	devices []*Device
	byAddr  map[string]*Device
}

// NewFleet creates a fleet with one record per address, in the given order.
func NewFleet(addresses []string) (*Fleet, error) {
	f := &Fleet{
		devices: make([]*Device, 0, len(addresses)),
		byAddr:  make(map[string]*Device, len(addresses)),
	}
	for i, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			return nil, fmt.Errorf("device %d: %w", i, ErrEmptyAddress)
		}
		if _, exists := f.byAddr[addr]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAddress, addr)
		}
		d := New(addr)
		f.devices = append(f.devices, d)
		f.byAddr[addr] = d
	}
	return f, nil
}

// Len returns the number of devices.
func (f *Fleet) Len() int {
	return len(f.devices)
}

// Devices returns the devices in fleet order.
// The slice is a copy; the records are shared.
func (f *Fleet) Devices() []*Device {
	out := make([]*Device, len(f.devices))
	copy(out, f.devices)
	return out
}

// Get returns the device with the given address, or nil.
func (f *Fleet) Get(address string) *Device {
	return f.byAddr[address]
}

// Snapshot returns the state of every device in fleet order.
func (f *Fleet) Snapshot() []State {
	out := make([]State, 0, len(f.devices))
	for _, d := range f.devices {
		out = append(out, d.State())
	}
	return out
}
