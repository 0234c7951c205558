// Package queue holds the in-memory job queue of a mux run.
//
// Build pairs videos with subtitles and chapters by position: job i gets the
// subtitle and chapter at index i when those lists are long enough. No name
// matching is attempted. After Build, only the worker that holds the queue
// (Acquire/Release) mutates progress, status, sizes, and failure messages;
// Build, Clear, and SetSubtitleOptions are refused with muxerr.ErrQueueBusy
// while the queue is held.
//
// The overall percentage is maintained incrementally by Aggregate so each
// progress tick is O(1) regardless of queue length.
package queue
