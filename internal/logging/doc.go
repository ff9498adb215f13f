// Package logging assembles structured slog loggers and formatting helpers used
// across pagesmith.
//
// It owns the console and JSON handlers, tees run output into the log file,
// applies per-stage level overrides, and exposes context-aware helpers so
// stage code tags every line with the content digest, source path, stage, and
// correlation ID. A no-op logger is provided for tests and for wiring code
// that must not fail.
package logging
