package muxer

// EventType identifies a worker event.
type EventType string

const (
	EventJobStarted            EventType = "job_started"
	EventProgress              EventType = "progress"
	EventJobSucceeded          EventType = "job_succeeded"
	EventJobFailed             EventType = "job_failed"
	EventQueueProgress         EventType = "queue_progress"
	EventQueueSizeChanged      EventType = "queue_size_changed"
	EventPaused                EventType = "paused"
	EventCancelled             EventType = "cancelled"
	EventFinishedAllJobs       EventType = "finished_all_jobs"
	EventConfirmStrategyNeeded EventType = "confirm_strategy_needed"
)

// PauseReason explains why a run stopped in a paused state.
type PauseReason string

const (
	PauseRequested PauseReason = "requested"
	PauseError     PauseReason = "error"
	PauseConfirm   PauseReason = "confirm"
)

// Event is one notification from the worker. Only the fields relevant to
// Type are set.
type Event struct {
	Type EventType

	// Index is the job index for job scoped events.
	Index int

	// Percent, IsError and Message describe a Progress event. Message is
	// also set on JobFailed.
	Percent int
	IsError bool
	Message string

	// Err is the classified failure on JobFailed.
	Err error

	// Overall is set on QueueProgress.
	Overall int

	// JobCount and DoneCount are set on QueueSizeChanged.
	JobCount  int
	DoneCount int

	// Reason is set on Paused.
	Reason PauseReason

	// UsedMetadataEdit is set on JobSucceeded.
	UsedMetadataEdit bool
}
