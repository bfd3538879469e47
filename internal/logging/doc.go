// Package logging assembles the structured slog loggers used by bif.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context helpers so scan code tags every line with the
// scan identifier. A no-op logger is provided for tests and for wiring code
// that runs before configuration is loaded.
package logging
