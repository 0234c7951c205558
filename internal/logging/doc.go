// Package logging assembles structured slog loggers and formatting helpers used
// across mkvbatch.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context helpers so worker code tags every line with
// the run ID and job index. The package also provides a no-op logger for tests
// and wiring code that cannot fail.
package logging
