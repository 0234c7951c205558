package queue

// Status represents the lifecycle of a job.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Finished reports whether the worker has passed the job.
func (s Status) Finished() bool {
	return s == StatusDone || s == StatusFailed
}

// TrackOptions are the settings applied to a paired subtitle track.
type TrackOptions struct {
	DelaySeconds float64
	Language     string
	TrackName    string
	SetDefault   bool
	SetForced    bool
}

// DelayMillis returns the delay rounded to whole milliseconds, the unit
// mkvmerge's --sync option takes.
func (o TrackOptions) DelayMillis() int64 {
	ms := o.DelaySeconds * 1000
	if ms < 0 {
		return int64(ms - 0.5)
	}
	return int64(ms + 0.5)
}

// Job is one video and its positional partners.
type Job struct {
	Index     int
	VideoName string
	VideoPath string

	SubtitleFound bool
	SubtitleName  string
	SubtitlePath  string
	Track         TrackOptions

	ChapterFound bool
	ChapterName  string
	ChapterPath  string

	SizeBefore       uint64
	SizeAfter        uint64
	Progress         int
	Status           Status
	UsedMetadataEdit bool
	FailureMessage   string
}

// State is a point-in-time copy of the queue.
type State struct {
	Jobs          []Job
	TotalProgress int
	JobCount      int
	DoneCount     int
	Empty         bool
}

// Overall returns the aggregate percentage for the snapshot.
func (s State) Overall() int {
	if s.JobCount <= 0 {
		return 0
	}
	return s.TotalProgress / s.JobCount
}

// FailedCount counts failed jobs in the snapshot.
func (s State) FailedCount() int {
	n := 0
	for _, job := range s.Jobs {
		if job.Status == StatusFailed {
			n++
		}
	}
	return n
}
