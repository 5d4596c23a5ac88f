// Package fleet reconciles every device of a fleet toward one target.
//
// A pass walks the fleet in its fixed order. For each device it acquires a
// session, then applies the profile or mode transition. Failures are
// confined to the device they happen on: the device is reported and the
// pass moves on. There is no rollback.
//
// When a change request comes back unauthorized the coordinator logs the
// device in again and retries that one transition once. The number of such
// recoveries per pass is capped, so a control API that keeps rejecting
// tokens cannot keep a pass running.
//
// Runner serializes passes. Callers submit (target, kind) jobs from any
// goroutine; a single worker runs them one at a time so two passes never
// touch the same device record concurrently.
package fleet
