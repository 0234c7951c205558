package muxer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"mkvbatch/internal/logging"
	"mkvbatch/internal/mkvtoolnix"
	"mkvbatch/internal/muxerr"
	"mkvbatch/internal/queue"
)

// ErrAlreadyRunning is returned by Start while a run is active.
var ErrAlreadyRunning = errors.New("worker already running")

// ErrNotAwaitingConfirm is returned by Confirm when no prompt is open.
var ErrNotAwaitingConfirm = errors.New("worker is not awaiting a strategy decision")

// DefaultEventBuffer is the size of the event channel.
const DefaultEventBuffer = 1024

// RunState is the worker's lifecycle position.
type RunState int

const (
	StateIdle RunState = iota
	StateRunning
	StateAwaitingConfirm
	StatePaused
	StatePausedFromError
	StateCancelledBeforeStart
	StateCancelled
	StateFinished
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateAwaitingConfirm:
		return "awaiting_confirm"
	case StatePaused:
		return "paused"
	case StatePausedFromError:
		return "paused_from_error"
	case StateCancelledBeforeStart:
		return "cancelled_before_start"
	case StateCancelled:
		return "cancelled"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Active reports whether a goroutine owns the queue in this state.
func (s RunState) Active() bool {
	return s == StateRunning || s == StateAwaitingConfirm
}

// Tool is the subset of *mkvtoolnix.Client the worker drives.
type Tool interface {
	Merge(ctx context.Context, req mkvtoolnix.MergeRequest, onProgress func(mkvtoolnix.Progress)) (mkvtoolnix.Result, error)
	PropEdit(ctx context.Context, req mkvtoolnix.PropEditRequest, onProgress func(mkvtoolnix.Progress)) (mkvtoolnix.Result, error)
}

// Options configure a worker.
type Options struct {
	Destination           string
	AbortOnErrors         bool
	Strategy              string
	MetadataEditAvailable bool
	Edits                 mkvtoolnix.TrackEdits
	Attachments           []string
	DiscardAttachments    bool

	// Eligible decides whether a job may be edited in place. Nil means
	// DefaultEligibility.
	Eligible func(queue.Job) bool

	// RunID tags every log line of the run.
	RunID string

	// EventBuffer overrides DefaultEventBuffer when positive.
	EventBuffer int
}

// Worker processes queued jobs sequentially on one background goroutine.
type Worker struct {
	queue  *queue.Queue
	tool   Tool
	opts   Options
	logger *slog.Logger

	events  chan Event
	confirm chan Decision

	pauseRequested  atomic.Bool
	cancelRequested atomic.Bool

	mu       sync.Mutex
	state    RunState
	running  bool
	done     chan struct{}
	decision Decision
}

// New constructs a worker over q. The queue must outlive the worker.
func New(q *queue.Queue, tool Tool, opts Options, logger *slog.Logger) (*Worker, error) {
	if q == nil {
		return nil, errors.New("muxer: queue required")
	}
	if tool == nil {
		return nil, errors.New("muxer: tool required")
	}
	if strings.TrimSpace(opts.Destination) == "" {
		return nil, muxerr.Wrap(muxerr.ErrInvalidPath, "muxer", "new", "destination required", nil)
	}
	if opts.Eligible == nil {
		opts.Eligible = DefaultEligibility(opts)
	}
	buffer := opts.EventBuffer
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Worker{
		queue:   q,
		tool:    tool,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "muxer"),
		events:  make(chan Event, buffer),
		confirm: make(chan Decision, 1),
		state:   StateIdle,
	}, nil
}

// Events returns the event stream. The channel is never closed. Sends block
// when the buffer is full, so the consumer must keep draining it.
func (w *Worker) Events() <-chan Event {
	return w.events
}

// Start begins processing the pending jobs. Resuming a paused run is Start
// again; finished and failed jobs are skipped.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrAlreadyRunning
	}
	if err := w.queue.Acquire(); err != nil {
		w.mu.Unlock()
		return err
	}
	w.pauseRequested.Store(false)
	w.cancelRequested.Store(false)
	w.drainConfirm()
	w.running = true
	w.state = StateRunning
	done := make(chan struct{})
	w.done = done
	w.mu.Unlock()

	if w.opts.RunID != "" {
		ctx = logging.WithRunID(ctx, w.opts.RunID)
	}
	go w.run(ctx, done)
	return nil
}

// Pause asks the worker to stop before the next job.
func (w *Worker) Pause() {
	w.pauseRequested.Store(true)
}

// Cancel asks the worker to stop before the next job. An open strategy
// prompt is closed and the run ends cancelled, never paused.
func (w *Worker) Cancel() {
	w.cancelRequested.Store(true)
	w.mu.Lock()
	awaiting := w.state == StateAwaitingConfirm
	w.mu.Unlock()
	if awaiting {
		select {
		case w.confirm <- DecisionCancel:
		default:
		}
	}
}

// Confirm answers an open strategy prompt.
func (w *Worker) Confirm(d Decision) error {
	if d == DecisionNone {
		return errors.New("muxer: decision required")
	}
	w.mu.Lock()
	awaiting := w.state == StateAwaitingConfirm
	w.mu.Unlock()
	if !awaiting {
		return ErrNotAwaitingConfirm
	}
	select {
	case w.confirm <- d:
		return nil
	default:
		return errors.New("muxer: decision already pending")
	}
}

// State returns the current lifecycle state.
func (w *Worker) State() RunState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Wait blocks until the active run ends and returns its final state.
func (w *Worker) Wait() RunState {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()
	if done != nil {
		<-done
	}
	return w.State()
}

// Decision returns the cached strategy decision.
func (w *Worker) Decision() Decision {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.decision
}

// ResetDecision forgets the cached strategy decision so the next eligible
// job prompts again.
func (w *Worker) ResetDecision() {
	w.mu.Lock()
	w.decision = DecisionNone
	w.mu.Unlock()
}

func (w *Worker) run(ctx context.Context, done chan struct{}) {
	final := StateFinished
	defer func() {
		w.queue.Release()
		w.mu.Lock()
		w.state = final
		w.running = false
		w.mu.Unlock()
		close(done)
	}()

	logger := logging.WithContext(ctx, w.logger)
	jobCount, doneCount := w.queue.Counts()
	w.emit(Event{Type: EventQueueSizeChanged, JobCount: jobCount, DoneCount: doneCount})
	w.emit(Event{Type: EventQueueProgress, Overall: w.queue.Overall()})

	pending := w.queue.Pending()
	logger.Info("mux run started",
		logging.String(logging.FieldEventType, "run_started"),
		logging.Int("pending", len(pending)),
		logging.Int("jobs", jobCount),
	)

	for _, index := range pending {
		if state, ok := w.boundary(ctx); ok {
			final = state
			w.logStop(logger, state)
			return
		}

		outcome := w.runJob(ctx, index)
		switch outcome {
		case jobCancelledBeforeStart:
			final = StateCancelledBeforeStart
			w.emit(Event{Type: EventCancelled})
			w.logStop(logger, final)
			return
		case jobCancelled:
			final = StateCancelled
			w.emit(Event{Type: EventCancelled})
			w.logStop(logger, final)
			return
		case jobPausedOnConfirm:
			final = StatePaused
			w.emit(Event{Type: EventPaused, Reason: PauseConfirm})
			w.logStop(logger, final)
			return
		case jobFailed:
			if w.opts.AbortOnErrors {
				final = StatePausedFromError
				w.emit(Event{Type: EventPaused, Reason: PauseError})
				w.logStop(logger, final)
				return
			}
		}
	}

	w.emit(Event{Type: EventFinishedAllJobs})
	jobCount, doneCount = w.queue.Counts()
	logger.Info("mux run finished",
		logging.String(logging.FieldEventType, "run_finished"),
		logging.Int("jobs", jobCount),
		logging.Int("succeeded", doneCount),
	)
}

// boundary polls the cooperative flags between jobs.
func (w *Worker) boundary(ctx context.Context) (RunState, bool) {
	if w.pauseRequested.Load() {
		w.emit(Event{Type: EventPaused, Reason: PauseRequested})
		return StatePaused, true
	}
	if w.cancelRequested.Load() || ctx.Err() != nil {
		w.emit(Event{Type: EventCancelled})
		return StateCancelled, true
	}
	return StateRunning, false
}

func (w *Worker) logStop(logger *slog.Logger, state RunState) {
	logger.Info("mux run stopped",
		logging.String(logging.FieldEventType, "run_stopped"),
		logging.String("state", state.String()),
	)
}

type jobOutcome int

const (
	jobSucceeded jobOutcome = iota
	jobFailed
	jobCancelledBeforeStart
	jobCancelled
	jobPausedOnConfirm
)

func (w *Worker) runJob(ctx context.Context, index int) jobOutcome {
	job, ok := w.queue.Job(index)
	if !ok {
		return jobFailed
	}
	jobCtx := logging.WithJobIndex(ctx, index)
	logger := logging.WithContext(jobCtx, w.logger).With(logging.String(logging.FieldVideo, job.VideoName))

	w.emit(Event{Type: EventJobStarted, Index: index})

	decision := w.strategyFor(ctx, job, logger)
	if decision == DecisionCancel {
		switch {
		case index == 0:
			return jobCancelledBeforeStart
		case w.cancelRequested.Load() || ctx.Err() != nil:
			return jobCancelled
		}
		return jobPausedOnConfirm
	}
	useEdit := decision == DecisionMetadataEdit

	if err := w.queue.MarkRunning(index); err != nil {
		logging.WarnWithContext(logger, "job could not start", "job_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "queue changed while the worker was running"),
		)
		return jobFailed
	}

	outputPath := job.VideoPath
	if !useEdit {
		outputPath = OutputPath(w.opts.Destination, job.VideoName)
	}
	logger.Info("job started",
		logging.String(logging.FieldEventType, "job_started"),
		logging.String("output", outputPath),
		logging.Bool("metadata_edit", useEdit),
	)

	var (
		tokenFailed  bool
		tokenMessage string
	)
	sampler := logging.NewProgressSampler(5)
	onProgress := func(p mkvtoolnix.Progress) {
		switch {
		case p.Error:
			if !tokenFailed {
				tokenFailed = true
				tokenMessage = p.Message
			}
			overall, _ := w.queue.Fail(index, p.Message, 0)
			w.emit(Event{Type: EventProgress, Index: index, Percent: 0, IsError: true, Message: p.Message})
			w.emit(Event{Type: EventQueueProgress, Overall: overall})
		case p.Warning:
			logger.Warn("tool warning",
				logging.String(logging.FieldEventType, "tool_warning"),
				logging.String("message", p.Message),
			)
		default:
			if tokenFailed {
				return
			}
			overall, changed := w.queue.SetProgress(index, p.Percent)
			if !changed {
				return
			}
			if sampler.Sample(index, p.Percent) {
				logger.Debug("job progress", logging.Int("percent", p.Percent))
			}
			w.emit(Event{Type: EventProgress, Index: index, Percent: p.Percent})
			w.emit(Event{Type: EventQueueProgress, Overall: overall})
		}
	}

	var (
		result mkvtoolnix.Result
		err    error
	)
	// The subprocess is never interrupted; cancellation is honoured between jobs.
	toolCtx := context.WithoutCancel(jobCtx)
	if useEdit {
		result, err = w.tool.PropEdit(toolCtx, mkvtoolnix.PropEditRequest{
			Path:  job.VideoPath,
			Edits: w.opts.Edits,
		}, onProgress)
	} else if samePath(outputPath, job.VideoPath) {
		err = muxerr.Wrap(muxerr.ErrInvalidPath, "muxer", "remux", "output would overwrite source "+outputPath, nil)
	} else {
		result, err = w.tool.Merge(toolCtx, w.mergeRequest(job, outputPath), onProgress)
	}

	for _, unmatched := range result.Unmatched {
		logger.Warn("no track matches default edit",
			logging.String(logging.FieldEventType, "edit_unmatched"),
			logging.String("edit", unmatched),
			logging.String(logging.FieldErrorHint, "check edits.default_audio_language and edits.default_subtitle_language"),
		)
	}

	size := outputSize(outputPath, !useEdit, logger)

	if err != nil || tokenFailed {
		message := tokenMessage
		if message == "" {
			message = err.Error()
		}
		if err == nil {
			err = muxerr.Wrap(muxerr.ErrToolExecution, "muxer", "mux", tokenMessage, nil)
		}
		overall, failErr := w.queue.Fail(index, message, size)
		if failErr != nil {
			logger.Debug("fail transition rejected", logging.Error(failErr))
		}
		logging.ErrorWithContext(logger, "job failed", "job_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, muxerr.Kind(err)),
			logging.String(logging.FieldErrorHint, "see tool output in the log file"),
		)
		w.emit(Event{Type: EventQueueProgress, Overall: overall})
		w.emit(Event{Type: EventJobFailed, Index: index, Message: message, Err: err})
		return jobFailed
	}

	overall, doneCount, succeedErr := w.queue.Succeed(index, size, useEdit)
	if succeedErr != nil {
		logger.Debug("succeed transition rejected", logging.Error(succeedErr))
	}
	w.emit(Event{Type: EventProgress, Index: index, Percent: 100})
	w.emit(Event{Type: EventQueueProgress, Overall: overall})
	w.emit(Event{Type: EventJobSucceeded, Index: index, UsedMetadataEdit: useEdit})
	jobCount, _ := w.queue.Counts()
	w.emit(Event{Type: EventQueueSizeChanged, JobCount: jobCount, DoneCount: doneCount})
	logger.Info("job succeeded",
		logging.String(logging.FieldEventType, "job_succeeded"),
		logging.Uint64("size_after", size),
		logging.Int("warnings", len(result.Warnings)),
	)
	return jobSucceeded
}

// strategyFor returns the decision for one job, prompting the operator the
// first time an eligible job is reached in "ask" mode.
func (w *Worker) strategyFor(ctx context.Context, job queue.Job, logger *slog.Logger) Decision {
	if !w.opts.MetadataEditAvailable || !w.opts.Eligible(job) {
		return DecisionFullRemux
	}
	if fixed := decisionForStrategy(w.opts.Strategy); fixed != DecisionNone {
		return fixed
	}

	w.mu.Lock()
	cached := w.decision
	if cached == DecisionNone {
		w.state = StateAwaitingConfirm
	}
	w.mu.Unlock()
	if cached != DecisionNone {
		return cached
	}

	w.emit(Event{Type: EventConfirmStrategyNeeded, Index: job.Index})
	var decision Decision
	select {
	case decision = <-w.confirm:
	case <-ctx.Done():
		decision = DecisionCancel
	}

	w.mu.Lock()
	w.state = StateRunning
	if decision != DecisionCancel {
		w.decision = decision
	}
	w.mu.Unlock()

	logger.Info("strategy decision", logging.Args(logging.DecisionAttrs("mux_strategy", decision.String(), "operator")...)...)
	return decision
}

func (w *Worker) mergeRequest(job queue.Job, output string) mkvtoolnix.MergeRequest {
	req := mkvtoolnix.MergeRequest{
		Output:             output,
		Video:              job.VideoPath,
		Attachments:        w.opts.Attachments,
		DiscardAttachments: w.opts.DiscardAttachments,
		Edits:              w.opts.Edits,
	}
	if job.SubtitleFound {
		req.Subtitle = &mkvtoolnix.SubtitleTrack{
			Path:        job.SubtitlePath,
			Language:    job.Track.Language,
			TrackName:   job.Track.TrackName,
			DelayMillis: job.Track.DelayMillis(),
			Default:     job.Track.SetDefault,
			Forced:      job.Track.SetForced,
		}
	}
	if job.ChapterFound {
		req.Chapters = job.ChapterPath
	}
	return req
}

func (w *Worker) emit(event Event) {
	w.events <- event
}

func (w *Worker) drainConfirm() {
	for {
		select {
		case <-w.confirm:
		default:
			return
		}
	}
}

// OutputPath is where a remux of videoName is written.
func OutputPath(destination, videoName string) string {
	base := filepath.Base(videoName)
	return filepath.Join(destination, strings.TrimSuffix(base, filepath.Ext(base))+".mkv")
}

// OutputCollisions groups video names whose remux outputs would land on the
// same file, such as "a.mp4" and "a.avi". Groups keep listing order and
// names without a collision are left out.
func OutputCollisions(destination string, videoNames []string) [][]string {
	byOutput := make(map[string][]string, len(videoNames))
	var order []string
	for _, name := range videoNames {
		output := OutputPath(destination, name)
		if _, seen := byOutput[output]; !seen {
			order = append(order, output)
		}
		byOutput[output] = append(byOutput[output], name)
	}
	var groups [][]string
	for _, output := range order {
		if names := byOutput[output]; len(names) > 1 {
			groups = append(groups, names)
		}
	}
	return groups
}

// outputSize stats the output. A missing or empty remux output is removed and
// reported as 0 bytes. In-place edits never delete the source.
func outputSize(path string, removable bool, logger *slog.Logger) uint64 {
	info, err := os.Stat(path)
	if err == nil && info.Size() > 0 {
		return uint64(info.Size())
	}
	if !removable {
		return 0
	}
	if removeErr := os.Remove(path); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
		logger.Warn("failed to remove empty output",
			logging.String(logging.FieldEventType, "zero_byte_cleanup_failed"),
			logging.String("path", path),
			logging.Error(removeErr),
			logging.String(logging.FieldErrorHint, "delete the file manually"),
		)
		return 0
	}
	if err == nil {
		logger.Warn("removed empty output",
			logging.String(logging.FieldEventType, "zero_byte_output"),
			logging.String("path", path),
			logging.String(logging.FieldErrorKind, muxerr.Kind(muxerr.ErrZeroByteOutput)),
		)
	}
	return 0
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
