// Package muxerr defines the error taxonomy shared by the file matcher, the
// job queue, and the muxing worker.
//
// Errors are tagged with sentinel markers via Wrap so callers can branch with
// errors.Is, and Kind reduces any error to a stable string for structured logs
// and the run history.
package muxerr
