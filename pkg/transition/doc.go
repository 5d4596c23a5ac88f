// Package transition applies profile and mode changes to a single device.
//
// The applier sends one change request with the device's current session
// token and maps the classified response onto the device record:
//
//   - Applied or AlreadyInState: the target is recorded as confirmed.
//   - InvalidValue: nothing changes; an InvalidTargetError is returned.
//   - Unauthorized: nothing changes; ErrSessionExpired is returned so the
//     caller can re-acquire the session and retry.
//   - Transport failure: nothing changes; the luxapi.ErrTransport error is
//     returned.
//
// A confirmed profile change wakes a sleeping miner: when the recorded mode
// is not active afterwards, ApplyProfile follows up with ApplyMode(active).
// The coupling is one-directional. ApplyMode never touches the profile.
package transition
