// Package schedule triggers fleet passes from wall-clock time.
//
// Table fires each entry once per day at its time of day. Cycler walks a
// fixed list of tasks at a constant interval, wrapping around, and is used
// for demonstrations. Both hand passes to a Submitter (normally a
// fleet.Runner) and never wait for them to complete.
package schedule
