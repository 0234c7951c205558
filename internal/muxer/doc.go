// Package muxer runs the job queue through mkvtoolnix one job at a time.
//
// A Worker owns the queue while it runs. It reports everything it does as
// Events on a buffered channel, polls pause and cancel requests only between
// jobs, and suspends once per run to ask whether eligible jobs should be
// edited in place or remuxed. Per-job failures are recorded on the queue and
// surfaced as events; they never escape the worker as errors.
package muxer
