package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"

	"mkvbatch/internal/files"
	"mkvbatch/internal/history"
	"mkvbatch/internal/logging"
	"mkvbatch/internal/muxer"
	"mkvbatch/internal/muxerr"
	"mkvbatch/internal/queue"
)

// muxSession is the foreground side of a run: it renders worker events,
// answers prompts, and turns signals into pause and cancel requests.
type muxSession struct {
	out         io.Writer
	colorize    bool
	interactive bool
	answers     <-chan string
	signals     <-chan os.Signal
	worker      *muxer.Worker
	queue       *queue.Queue
	logger      *slog.Logger

	sampler         *logging.ProgressSampler
	overall         int
	kinds           map[int]string
	interrupts      int
	cancelRequested bool
}

func newMuxSession(out io.Writer, in io.Reader, interactive bool, signals <-chan os.Signal, w *muxer.Worker, q *queue.Queue, logger *slog.Logger) *muxSession {
	s := &muxSession{
		out:         out,
		colorize:    shouldColorize(out),
		interactive: interactive,
		signals:     signals,
		worker:      w,
		queue:       q,
		logger:      logger,
		sampler:     logging.NewProgressSampler(25),
		kinds:       make(map[int]string),
	}
	if interactive {
		s.answers = readLines(in)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	return s
}

// readLines feeds lines from r into a channel that is closed at EOF.
func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

// run drives the worker until the run finishes, is cancelled, or stays
// paused. It returns a history outcome.
func (s *muxSession) run(ctx context.Context) (string, error) {
	for {
		if err := s.worker.Start(ctx); err != nil {
			return "", err
		}
		terminal := s.runOnce()
		switch terminal.Type {
		case muxer.EventFinishedAllJobs:
			return history.OutcomeFinished, nil
		case muxer.EventCancelled:
			return history.OutcomeCancelled, nil
		}

		if s.cancelRequested {
			return history.OutcomeCancelled, nil
		}
		if terminal.Reason == muxer.PauseConfirm || !s.interactive {
			return history.OutcomePaused, nil
		}
		remaining := len(s.queue.Pending())
		if remaining == 0 || !s.confirm(fmt.Sprintf("Resume the remaining %d job(s)? [y/N] ", remaining)) {
			return history.OutcomePaused, nil
		}
		s.interrupts = 0
		s.logger.Info("resuming run",
			logging.String(logging.FieldEventType, "run_resumed"),
			logging.Int("pending", remaining),
		)
	}
}

func (s *muxSession) runOnce() muxer.Event {
	for {
		select {
		case ev := <-s.worker.Events():
			s.render(ev)
			switch ev.Type {
			case muxer.EventConfirmStrategyNeeded:
				s.answerStrategy(ev.Index)
			case muxer.EventPaused, muxer.EventCancelled, muxer.EventFinishedAllJobs:
				s.worker.Wait()
				return ev
			}
		case sig := <-s.signals:
			s.interrupt(sig)
		}
	}
}

func (s *muxSession) interrupt(sig os.Signal) {
	s.interrupts++
	if sig == syscall.SIGTERM || s.interrupts > 1 {
		s.cancelRequested = true
		s.worker.Cancel()
		s.println("Cancelling after the current job")
		return
	}
	s.worker.Pause()
	s.println("Pausing after the current job (interrupt again to cancel)")
}

func (s *muxSession) answerStrategy(index int) {
	if !s.interactive {
		s.println("No terminal for the strategy prompt; using a full remux")
		s.confirmDecision(muxer.DecisionFullRemux)
		return
	}
	job, _ := s.queue.Job(index)
	fmt.Fprintf(s.out, "%s only needs default-track edits.\n", job.VideoName)
	for {
		fmt.Fprint(s.out, "Edit files in place with mkvpropedit [e], remux with mkvmerge [r], or cancel [c]? ")
		select {
		case line, ok := <-s.answers:
			if !ok {
				s.println("")
				s.confirmDecision(muxer.DecisionFullRemux)
				return
			}
			if decision, valid := parseDecision(line); valid {
				s.confirmDecision(decision)
				return
			}
		case sig := <-s.signals:
			// Cancel answers the open prompt itself.
			s.println("")
			s.interrupts = 1
			s.interrupt(sig)
			return
		}
	}
}

func (s *muxSession) confirmDecision(d muxer.Decision) {
	if err := s.worker.Confirm(d); err != nil {
		s.logger.Debug("strategy answer dropped", logging.Error(err))
	}
}

func parseDecision(answer string) (muxer.Decision, bool) {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "e", "edit":
		return muxer.DecisionMetadataEdit, true
	case "r", "remux":
		return muxer.DecisionFullRemux, true
	case "c", "cancel":
		return muxer.DecisionCancel, true
	default:
		return muxer.DecisionNone, false
	}
}

func (s *muxSession) confirm(prompt string) bool {
	fmt.Fprint(s.out, prompt)
	select {
	case line, ok := <-s.answers:
		if !ok {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	case <-s.signals:
		s.println("")
		return false
	}
}

func (s *muxSession) render(ev muxer.Event) {
	switch ev.Type {
	case muxer.EventJobStarted:
		job, _ := s.queue.Job(ev.Index)
		jobCount, _ := s.queue.Counts()
		s.sampler.Reset()
		fmt.Fprintf(s.out, "[%d/%d] %s\n", ev.Index+1, jobCount, job.VideoName)
	case muxer.EventProgress:
		if ev.IsError {
			s.println(renderStatusLine("tool", statusError, ev.Message, s.colorize))
			return
		}
		if s.sampler.Sample(ev.Index, ev.Percent) {
			fmt.Fprintf(s.out, "%s%3d%%  (overall %d%%)\n", statusIndent, ev.Percent, s.overall)
		}
	case muxer.EventQueueProgress:
		s.overall = ev.Overall
	case muxer.EventJobSucceeded:
		job, _ := s.queue.Job(ev.Index)
		detail := files.HumanSize(job.SizeAfter)
		if ev.UsedMetadataEdit {
			detail += ", edited in place"
		}
		s.println(renderStatusLine(job.VideoName, statusOK, detail, s.colorize))
	case muxer.EventJobFailed:
		job, _ := s.queue.Job(ev.Index)
		s.kinds[ev.Index] = muxerr.Kind(ev.Err)
		s.println(renderStatusLine(job.VideoName, statusError, truncate(ev.Message, maxMessageWidth), s.colorize))
	case muxer.EventPaused:
		switch ev.Reason {
		case muxer.PauseError:
			s.println("Paused after a failed job (abort on errors)")
		case muxer.PauseConfirm:
			s.println("Paused; completed jobs are kept")
		default:
			s.println("Paused")
		}
	case muxer.EventCancelled:
		s.println("Cancelled")
	case muxer.EventFinishedAllJobs:
		s.println("All jobs processed")
	}
}

func (s *muxSession) println(line string) {
	fmt.Fprintln(s.out, line)
}
