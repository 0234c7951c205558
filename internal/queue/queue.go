package queue

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"mkvbatch/internal/files"
	"mkvbatch/internal/muxerr"
)

// ErrUnknownJob is returned for an index outside [0, Len()).
var ErrUnknownJob = errors.New("unknown job index")

// Queue is safe for concurrent use. The zero value is not usable; call New.
type Queue struct {
	mu   sync.RWMutex
	jobs []Job
	agg  Aggregate
	held bool
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{}
}

// Build replaces the queue with one pending job per video. Subtitle and
// chapter partners are attached by index. SizeBefore is read from disk and
// falls back to the listed size when the video cannot be stat'd.
func (q *Queue) Build(videos, subtitles, chapters []files.Entry, track TrackOptions) (State, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.held {
		return State{}, muxerr.Wrap(muxerr.ErrQueueBusy, "queue", "build", "worker is active", nil)
	}

	jobs := make([]Job, len(videos))
	for i, video := range videos {
		job := Job{
			Index:      i,
			VideoName:  video.Name,
			VideoPath:  video.Path,
			SizeBefore: video.Size,
			Status:     StatusPending,
		}
		if info, err := os.Stat(video.Path); err == nil {
			job.SizeBefore = uint64(info.Size())
		}
		if i < len(subtitles) {
			job.SubtitleFound = true
			job.SubtitleName = subtitles[i].Name
			job.SubtitlePath = subtitles[i].Path
			job.Track = track
		}
		if i < len(chapters) {
			job.ChapterFound = true
			job.ChapterName = chapters[i].Name
			job.ChapterPath = chapters[i].Path
		}
		jobs[i] = job
	}

	q.jobs = jobs
	q.agg = Aggregate{JobCount: len(jobs)}
	return q.snapshotLocked(), nil
}

// Clear discards every job and resets the counters. Clearing an empty queue
// is a no-op.
func (q *Queue) Clear() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.held {
		return muxerr.Wrap(muxerr.ErrQueueBusy, "queue", "clear", "worker is active", nil)
	}
	q.jobs = nil
	q.agg = Aggregate{}
	return nil
}

// Acquire marks the queue as owned by a worker. Only one holder is allowed.
func (q *Queue) Acquire() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.held {
		return muxerr.Wrap(muxerr.ErrQueueBusy, "queue", "acquire", "already held", nil)
	}
	q.held = true
	return nil
}

// Release gives up worker ownership.
func (q *Queue) Release() {
	q.mu.Lock()
	q.held = false
	q.mu.Unlock()
}

// Held reports whether a worker currently owns the queue.
func (q *Queue) Held() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.held
}

// SetSubtitleOptions overrides the track options of one job while the queue
// is idle. Jobs without a subtitle cannot take options.
func (q *Queue) SetSubtitleOptions(i int, opts TrackOptions) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.held {
		return muxerr.Wrap(muxerr.ErrQueueBusy, "queue", "set subtitle options", "worker is active", nil)
	}
	job, err := q.jobLocked(i)
	if err != nil {
		return err
	}
	if !job.SubtitleFound {
		return fmt.Errorf("job %d has no subtitle", i)
	}
	if job.Status != StatusPending {
		return fmt.Errorf("job %d is %s", i, job.Status)
	}
	job.Track = opts
	return nil
}

// MarkRunning moves a pending job to running.
func (q *Queue) MarkRunning(i int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, err := q.jobLocked(i)
	if err != nil {
		return err
	}
	if job.Status != StatusPending {
		return fmt.Errorf("job %d is %s, not pending", i, job.Status)
	}
	job.Status = StatusRunning
	return nil
}

// SetProgress records a progress value for a running job and returns the
// overall percentage. Values are clamped to [0, 100]; a value lower than the
// current progress is ignored. changed is false when nothing was recorded.
func (q *Queue) SetProgress(i, percent int) (overall int, changed bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, err := q.jobLocked(i)
	if err != nil || job.Status != StatusRunning {
		return q.agg.Percent(), false
	}
	percent = clampPercent(percent)
	if percent <= job.Progress {
		return q.agg.Percent(), false
	}
	prev := job.Progress
	job.Progress = percent
	return q.agg.Apply(prev, percent), true
}

// Succeed completes a running job. Its progress is completed to 100 and the
// done counter advances. It returns the overall percentage and done count.
func (q *Queue) Succeed(i int, sizeAfter uint64, usedMetadataEdit bool) (overall, doneCount int, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, err := q.jobLocked(i)
	if err != nil {
		return q.agg.Percent(), q.agg.DoneCount, err
	}
	if job.Status != StatusRunning {
		return q.agg.Percent(), q.agg.DoneCount, fmt.Errorf("job %d is %s, not running", i, job.Status)
	}
	prev := job.Progress
	job.Progress = 100
	job.Status = StatusDone
	job.SizeAfter = sizeAfter
	job.UsedMetadataEdit = usedMetadataEdit
	q.agg.DoneCount++
	return q.agg.Apply(prev, 100), q.agg.DoneCount, nil
}

// Fail marks a running job failed, forcing its progress to 0. Failing an
// already failed job keeps the first message and only updates SizeAfter, so
// the worker can fail a job on an error token and again on process exit.
func (q *Queue) Fail(i int, message string, sizeAfter uint64) (overall int, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, err := q.jobLocked(i)
	if err != nil {
		return q.agg.Percent(), err
	}
	switch job.Status {
	case StatusRunning:
		prev := job.Progress
		job.Progress = 0
		job.Status = StatusFailed
		job.FailureMessage = strings.TrimSpace(message)
		job.SizeAfter = sizeAfter
		return q.agg.Apply(prev, 0), nil
	case StatusFailed:
		if job.FailureMessage == "" {
			job.FailureMessage = strings.TrimSpace(message)
		}
		job.SizeAfter = sizeAfter
		return q.agg.Percent(), nil
	default:
		return q.agg.Percent(), fmt.Errorf("job %d is %s, cannot fail", i, job.Status)
	}
}

// State returns a deep copy of the queue.
func (q *Queue) State() State {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.snapshotLocked()
}

// Job returns a copy of job i.
func (q *Queue) Job(i int) (Job, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if i < 0 || i >= len(q.jobs) {
		return Job{}, false
	}
	return q.jobs[i], true
}

// Len returns the number of jobs.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.jobs)
}

// Pending returns the indices of pending jobs in ascending order.
func (q *Queue) Pending() []int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	var out []int
	for _, job := range q.jobs {
		if job.Status == StatusPending {
			out = append(out, job.Index)
		}
	}
	return out
}

// Counts returns the job count and the number of successfully finished jobs.
func (q *Queue) Counts() (jobCount, doneCount int) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.agg.JobCount, q.agg.DoneCount
}

// Overall returns the current overall percentage.
func (q *Queue) Overall() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.agg.Percent()
}

func (q *Queue) jobLocked(i int) (*Job, error) {
	if i < 0 || i >= len(q.jobs) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownJob, i)
	}
	return &q.jobs[i], nil
}

func (q *Queue) snapshotLocked() State {
	jobs := make([]Job, len(q.jobs))
	copy(jobs, q.jobs)
	return State{
		Jobs:          jobs,
		TotalProgress: q.agg.Total,
		JobCount:      q.agg.JobCount,
		DoneCount:     q.agg.DoneCount,
		Empty:         len(q.jobs) == 0,
	}
}

func clampPercent(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
