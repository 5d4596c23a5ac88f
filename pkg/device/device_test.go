package device

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNewDeviceStartsUnknown(t *testing.T) {
	d := New("10.1.1.1")

	if d.Address() != "10.1.1.1" {
		t.Errorf("Address: got %q, want %q", d.Address(), "10.1.1.1")
	}
	if d.Profile() != ProfileUnknown {
		t.Errorf("Profile: got %q, want unknown", d.Profile())
	}
	if d.Mode() != ModeUnknown {
		t.Errorf("Mode: got %q, want unknown", d.Mode())
	}
	if d.Token() != "" {
		t.Errorf("Token: got %q, want empty", d.Token())
	}
	if !d.SessionExpiry().IsZero() {
		t.Errorf("SessionExpiry: got %v, want zero", d.SessionExpiry())
	}
}

func TestSetTokenKeepsExpiry(t *testing.T) {
	d := New("10.1.1.1")
	expiry := time.Date(2024, 2, 29, 20, 10, 56, 0, time.UTC)

	d.SetSession("T0", expiry)
	d.SetToken("T1")

	if d.Token() != "T1" {
		t.Errorf("Token: got %q, want %q", d.Token(), "T1")
	}
	if !d.SessionExpiry().Equal(expiry) {
		t.Errorf("SessionExpiry: got %v, want %v", d.SessionExpiry(), expiry)
	}
}

func TestProfileAndModeIndependent(t *testing.T) {
	d := New("10.1.1.1")

	d.SetProfile(ProfileOverclock)
	if d.Mode() != ModeUnknown {
		t.Errorf("SetProfile changed mode to %q", d.Mode())
	}

	d.SetMode(ModeSleep)
	if d.Profile() != ProfileOverclock {
		t.Errorf("SetMode changed profile to %q", d.Profile())
	}
}

func TestStateSnapshot(t *testing.T) {
	d := New("10.1.1.2")
	expiry := time.Now().Add(time.Minute)
	d.SetSession("tok", expiry)
	d.SetProfile(ProfileNormal)
	d.SetMode(ModeActive)

	s := d.State()
	want := State{
		Address:       "10.1.1.2",
		Profile:       ProfileNormal,
		Mode:          ModeActive,
		SessionToken:  "tok",
		SessionExpiry: expiry,
	}
	if s != want {
		t.Errorf("State: got %+v, want %+v", s, want)
	}

	// Snapshot is detached from the record
	d.SetMode(ModeSleep)
	if s.Mode != ModeActive {
		t.Errorf("snapshot changed after SetMode: %q", s.Mode)
	}
}

func TestStringers(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{ProfileUnknown.String(), "unknown"},
		{ProfileUnderclock.String(), "underclock"},
		{ModeUnknown.String(), "unknown"},
		{ModeSleep.String(), "sleep"},
		{KindProfile.String(), "profile"},
		{KindMode.String(), "mode"},
		{Kind(0).String(), "unknown"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"profile", KindProfile, false},
		{"Mode", KindMode, false},
		{" mode ", KindMode, false},
		{"power", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestKindText(t *testing.T) {
	var k Kind
	if err := k.UnmarshalText([]byte("mode")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if k != KindMode {
		t.Errorf("UnmarshalText: got %v, want mode", k)
	}
	if _, err := Kind(9).MarshalText(); err == nil {
		t.Error("MarshalText accepted an invalid kind")
	}
}

func TestDeviceConcurrentAccess(t *testing.T) {
	d := New("10.1.1.1")
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			d.SetProfile(ProfileNormal)
			d.SetSession("tok", time.Now())
		}()
		go func() {
			defer wg.Done()
			_ = d.State()
		}()
	}
	wg.Wait()
}

func TestNewFleetOrder(t *testing.T) {
	addrs := []string{"10.1.1.3", "10.1.1.1", "10.1.1.2"}
	f, err := NewFleet(addrs)
	if err != nil {
		t.Fatalf("NewFleet: %v", err)
	}
	if f.Len() != 3 {
		t.Fatalf("Len: got %d, want 3", f.Len())
	}
	for i, d := range f.Devices() {
		if d.Address() != addrs[i] {
			t.Errorf("device %d: got %q, want %q", i, d.Address(), addrs[i])
		}
	}
	if f.Get("10.1.1.2") == nil {
		t.Error("Get returned nil for known address")
	}
	if f.Get("10.9.9.9") != nil {
		t.Error("Get returned a device for unknown address")
	}
}

func TestNewFleetRejectsBadAddresses(t *testing.T) {
	if _, err := NewFleet([]string{"10.1.1.1", " "}); !errors.Is(err, ErrEmptyAddress) {
		t.Errorf("empty address: got %v, want ErrEmptyAddress", err)
	}
	if _, err := NewFleet([]string{"10.1.1.1", "10.1.1.1"}); !errors.Is(err, ErrDuplicateAddress) {
		t.Errorf("duplicate address: got %v, want ErrDuplicateAddress", err)
	}
}

func TestFleetSnapshot(t *testing.T) {
	f, err := NewFleet([]string{"a", "b"})
	if err != nil {
		t.Fatalf("NewFleet: %v", err)
	}
	f.Get("b").SetMode(ModeSleep)

	snap := f.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Snapshot: got %d entries, want 2", len(snap))
	}
	if snap[0].Address != "a" || snap[1].Address != "b" {
		t.Errorf("Snapshot order: got %q, %q", snap[0].Address, snap[1].Address)
	}
	if snap[1].Mode != ModeSleep {
		t.Errorf("Snapshot mode: got %q, want sleep", snap[1].Mode)
	}
}
