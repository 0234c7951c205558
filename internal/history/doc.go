// Package history persists the outcome of each mux run in SQLite.
//
// One row per run records when it started and stopped, how it ended, and the
// job counters; one row per job records its pairing, sizes, and failure
// message. Settings are never stored.
package history
