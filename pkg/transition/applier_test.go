package transition

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/minersched/minersched/internal/luxsim"
	"github.com/minersched/minersched/pkg/device"
	"github.com/minersched/minersched/pkg/log"
	"github.com/minersched/minersched/pkg/luxapi"
	"github.com/minersched/minersched/pkg/luxapi/mocks"
)

type recordingLogger struct {
	events []log.Event
}

func (r *recordingLogger) Log(e log.Event) { r.events = append(r.events, e) }

func newDevice(p device.Profile, m device.Mode) *device.Device {
	d := device.New("10.1.1.1")
	d.SetToken("T1")
	d.SetProfile(p)
	d.SetMode(m)
	return d
}

func result(status int, msg string) luxapi.Result {
	return luxapi.Result{StatusCode: status, Message: msg, Outcome: luxapi.Classify(status, msg)}
}

func TestApplyProfileApplied(t *testing.T) {
	api := mocks.NewControlAPI(t)
	api.EXPECT().SetProfile(mock.Anything, "T1", "underclock").
		Return(result(200, "Miner set to underclock."), nil).Once()

	events := &recordingLogger{}
	d := newDevice(device.ProfileNormal, device.ModeActive)
	err := NewApplier(api, Config{EventLogger: events}).ApplyProfile(context.Background(), d, device.ProfileUnderclock)
	require.NoError(t, err)

	assert.Equal(t, device.ProfileUnderclock, d.Profile())
	assert.Equal(t, device.ModeActive, d.Mode())

	require.Len(t, events.events, 1)
	sc := events.events[0].StateChange
	require.NotNil(t, sc)
	assert.Equal(t, log.StateFieldProfile, sc.Field)
	assert.Equal(t, "normal", sc.OldState)
	assert.Equal(t, "underclock", sc.NewState)
	assert.Equal(t, "APPLIED", sc.Reason)
}

func TestApplyProfileAlreadyInStateWakesSleepingDevice(t *testing.T) {
	api := mocks.NewControlAPI(t)
	api.EXPECT().SetProfile(mock.Anything, "T1", "overclock").
		Return(result(400, "Miner is already in overclock"), nil).Once()
	api.EXPECT().SetMode(mock.Anything, "T1", "active").
		Return(result(200, "Miner set to active."), nil).Once()

	d := newDevice(device.ProfileNormal, device.ModeSleep)
	err := NewApplier(api, Config{}).ApplyProfile(context.Background(), d, device.ProfileOverclock)
	require.NoError(t, err)

	assert.Equal(t, device.ProfileOverclock, d.Profile())
	assert.Equal(t, device.ModeActive, d.Mode())
}

func TestApplyProfileWakesUnknownMode(t *testing.T) {
	api := mocks.NewControlAPI(t)
	api.EXPECT().SetProfile(mock.Anything, "T1", "normal").
		Return(result(200, "Miner set to normal."), nil).Once()
	api.EXPECT().SetMode(mock.Anything, "T1", "active").
		Return(result(400, "Miner is already in active."), nil).Once()

	d := device.New("10.1.1.1")
	d.SetToken("T1")
	require.NoError(t, NewApplier(api, Config{}).ApplyProfile(context.Background(), d, device.ProfileNormal))
	assert.Equal(t, device.ModeActive, d.Mode())
}

func TestApplyProfileActiveDeviceSkipsWake(t *testing.T) {
	api := mocks.NewControlAPI(t)
	api.EXPECT().SetProfile(mock.Anything, "T1", "overclock").
		Return(result(200, "Miner set to overclock."), nil).Once()

	d := newDevice(device.ProfileNormal, device.ModeActive)
	require.NoError(t, NewApplier(api, Config{}).ApplyProfile(context.Background(), d, device.ProfileOverclock))
	api.AssertNotCalled(t, "SetMode", mock.Anything, mock.Anything, mock.Anything)
}

func TestApplyProfileInvalid(t *testing.T) {
	api := mocks.NewControlAPI(t)
	api.EXPECT().SetProfile(mock.Anything, "T1", "badprof").
		Return(result(400, "Invalid performance profile."), nil).Once()

	d := newDevice(device.ProfileNormal, device.ModeSleep)
	err := NewApplier(api, Config{}).ApplyProfile(context.Background(), d, device.Profile("badprof"))

	require.ErrorIs(t, err, ErrInvalidTarget)
	var invalid *InvalidTargetError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, device.KindProfile, invalid.Kind)
	assert.Equal(t, "badprof", invalid.Target)

	assert.Equal(t, device.ProfileNormal, d.Profile())
	assert.Equal(t, device.ModeSleep, d.Mode(), "a rejected profile must not wake the device")
}

func TestApplyModeInvalid(t *testing.T) {
	api := mocks.NewControlAPI(t)
	api.EXPECT().SetMode(mock.Anything, "T1", "badmode").
		Return(result(400, "Invalid power mode."), nil).Once()

	d := newDevice(device.ProfileNormal, device.ModeActive)
	err := NewApplier(api, Config{}).ApplyMode(context.Background(), d, device.Mode("badmode"))

	assert.ErrorIs(t, err, ErrInvalidTarget)
	assert.Contains(t, err.Error(), "badmode")
	assert.Equal(t, device.ModeActive, d.Mode())
}

func TestApplyModeNeverChangesProfile(t *testing.T) {
	api := mocks.NewControlAPI(t)
	api.EXPECT().SetMode(mock.Anything, "T1", "sleep").
		Return(result(200, "Miner set to sleep."), nil).Once()
	api.EXPECT().SetMode(mock.Anything, "T1", "active").
		Return(result(200, "Miner set to active."), nil).Once()

	a := NewApplier(api, Config{})
	d := newDevice(device.ProfileUnderclock, device.ModeActive)

	require.NoError(t, a.ApplyMode(context.Background(), d, device.ModeSleep))
	assert.Equal(t, device.ModeSleep, d.Mode())
	assert.Equal(t, device.ProfileUnderclock, d.Profile())

	require.NoError(t, a.ApplyMode(context.Background(), d, device.ModeActive))
	assert.Equal(t, device.ProfileUnderclock, d.Profile())
}

func TestUnauthorizedReturnsSessionExpired(t *testing.T) {
	api := mocks.NewControlAPI(t)
	api.EXPECT().SetProfile(mock.Anything, "T1", "overclock").
		Return(result(401, "Token expired."), nil).Once()
	api.EXPECT().SetMode(mock.Anything, "T1", "sleep").
		Return(result(401, "Token expired."), nil).Once()

	a := NewApplier(api, Config{})
	d := newDevice(device.ProfileNormal, device.ModeActive)

	assert.ErrorIs(t, a.ApplyProfile(context.Background(), d, device.ProfileOverclock), ErrSessionExpired)
	assert.ErrorIs(t, a.ApplyMode(context.Background(), d, device.ModeSleep), ErrSessionExpired)
	assert.Equal(t, device.ProfileNormal, d.Profile())
	assert.Equal(t, device.ModeActive, d.Mode())
}

func TestWakeExpiryPropagates(t *testing.T) {
	api := mocks.NewControlAPI(t)
	api.EXPECT().SetProfile(mock.Anything, "T1", "overclock").
		Return(result(200, "Miner set to overclock."), nil).Once()
	api.EXPECT().SetMode(mock.Anything, "T1", "active").
		Return(result(401, "Token expired."), nil).Once()

	d := newDevice(device.ProfileNormal, device.ModeSleep)
	err := NewApplier(api, Config{}).ApplyProfile(context.Background(), d, device.ProfileOverclock)

	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, device.ProfileOverclock, d.Profile())
	assert.Equal(t, device.ModeSleep, d.Mode())
}

func TestTransportFailureLeavesDevice(t *testing.T) {
	api := mocks.NewControlAPI(t)
	transportErr := fmt.Errorf("%w: connection reset", luxapi.ErrTransport)
	api.EXPECT().SetProfile(mock.Anything, "T1", "overclock").Return(luxapi.Result{}, transportErr).Once()
	api.EXPECT().SetMode(mock.Anything, "T1", "sleep").Return(luxapi.Result{}, transportErr).Once()

	a := NewApplier(api, Config{})
	d := newDevice(device.ProfileNormal, device.ModeActive)

	err := a.ApplyProfile(context.Background(), d, device.ProfileOverclock)
	assert.ErrorIs(t, err, luxapi.ErrTransport)
	assert.NotErrorIs(t, err, ErrSessionExpired)

	assert.ErrorIs(t, a.ApplyMode(context.Background(), d, device.ModeSleep), luxapi.ErrTransport)
	assert.Equal(t, device.ProfileNormal, d.Profile())
	assert.Equal(t, device.ModeActive, d.Mode())
}

func TestApplyAgainstSimulator(t *testing.T) {
	sim := luxsim.New(luxsim.Config{Miners: []string{"10.1.1.1"}, TTL: time.Hour})
	srv := httptest.NewServer(sim)
	defer srv.Close()
	sim.SetState("10.1.1.1", "normal", "sleep")

	client, err := luxapi.NewClient(luxapi.Config{BaseURL: srv.URL, Timeout: time.Second})
	require.NoError(t, err)

	login, err := client.Login(context.Background(), "10.1.1.1")
	require.NoError(t, err)

	d := device.New("10.1.1.1")
	d.SetToken(login.Token)

	a := NewApplier(client, Config{})
	require.NoError(t, a.ApplyProfile(context.Background(), d, device.ProfileOverclock))

	m, _ := sim.Miner("10.1.1.1")
	assert.Equal(t, "overclock", m.Profile)
	assert.Equal(t, "active", m.Mode)
	assert.Equal(t, device.ProfileOverclock, d.Profile())
	assert.Equal(t, device.ModeActive, d.Mode())

	// Same profile again: "already in" is a success.
	require.NoError(t, a.ApplyProfile(context.Background(), d, device.ProfileOverclock))

	err = a.ApplyMode(context.Background(), d, device.Mode("badmode"))
	assert.ErrorIs(t, err, ErrInvalidTarget)
	assert.Equal(t, device.ModeActive, d.Mode())
}
