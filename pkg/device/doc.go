// Package device holds the in-memory records for the miners of a fleet.
//
// A [Device] tracks what the controller last confirmed about one miner: its
// performance profile, its power mode and the session credential used to
// drive the control API. Records are created once from the configured
// address list and mutated in place for the life of the process.
//
// # Profiles and Modes
//
// Profile and mode are independent dimensions:
//
//   - Profile: normal, overclock, underclock (performance tier)
//   - Mode: active, sleep (curtailment state)
//
// Both start out unknown. A value is only recorded once the remote side has
// confirmed it was applied or was already in effect, so the record never
// runs ahead of the miner.
//
// # Concurrency
//
// Every Device guards its fields with its own mutex. Observability layers
// read a [State] snapshot and never see a half-written record.
package device
