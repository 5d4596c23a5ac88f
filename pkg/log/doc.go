// Package log provides structured event capture for control API traffic.
//
// This package defines the Logger interface and Event types for recording
// what the controller sent to each miner, what came back, and which device
// fields changed as a result. It is separate from operational logging
// (slog): the event trace is machine-readable and complete, suitable for
// replaying a fleet pass after the fact.
//
// # Basic Usage
//
// Components accept a Logger in their config:
//
//	// For development: log to console via slog
//	cfg.EventLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.EventLogger, _ = log.NewFileLogger("/var/log/minersched/events.mlog")
//
//	// Both: use MultiLogger
//	cfg.EventLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events are captured at three layers:
//   - API: HTTP exchanges with the control API (ExchangeEvent)
//   - Session: token acquisition (StateChangeEvent on the session field)
//   - Fleet: pass lifecycle (PassEvent) and confirmed device state
//     changes (StateChangeEvent)
//
// Errors at any layer have a dedicated event type. Every event carries the
// pass ID of the fleet pass that produced it, propagated via
// [ContextWithPassID].
//
// # File Format
//
// Log files use CBOR encoding with .mlog extension. The minersched-log CLI
// tool provides viewing, filtering and statistics.
package log
