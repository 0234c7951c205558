package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mkvbatch/internal/config"
	"mkvbatch/internal/deps"
	"mkvbatch/internal/files"
	"mkvbatch/internal/history"
	"mkvbatch/internal/logging"
	"mkvbatch/internal/mkvtoolnix"
	"mkvbatch/internal/muxer"
	"mkvbatch/internal/preflight"
	"mkvbatch/internal/queue"
	"mkvbatch/internal/runlock"
)

func newMuxCommand(ctx *commandContext) *cobra.Command {
	var folders folderOptions
	var settings settingFlags

	cmd := &cobra.Command{
		Use:   "mux",
		Short: "Mux every video with its paired subtitle and chapter file",
		Long: `Pair videos with subtitles and chapters by sorted position and write one
Matroska file per video into the destination folder.

Interrupt once to pause after the current job, twice to cancel.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := settings.apply(cmd, cfg); err != nil {
				return err
			}

			logger, closer, err := ctx.newLogger(cfg)
			if err != nil {
				return fmt.Errorf("open log: %w", err)
			}
			defer func() { _ = closer.Close() }()

			report := preflight.RunAll(cfg, folders.preflightFolders())
			if !report.Ready() {
				return fmt.Errorf("preflight failed: %s", strings.Join(report.Failures(), "; "))
			}

			lock, err := runlock.Acquire(cfg.Paths.DestinationDir)
			if err != nil {
				return err
			}
			defer func() { _ = lock.Release() }()

			q, sel, err := buildQueue(cfg, &folders, settings.subtitleOverrides)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			state := q.State()
			if state.Empty {
				fmt.Fprintln(out, "No video files found")
				return nil
			}
			fmt.Fprintln(out, renderJobTable(state, false))
			if summary := attachmentSummary(sel.attachments); summary != "" {
				fmt.Fprintln(out, summary)
			}
			warnings := append(unpairedWarnings(sel), collisionWarnings(sel, cfg.Paths.DestinationDir)...)
			for _, warning := range warnings {
				fmt.Fprintln(out, "Warning: "+warning)
			}

			signals := make(chan os.Signal, 2)
			signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(signals)

			return runMux(cmd.Context(), muxRun{
				cfg:         cfg,
				report:      report,
				queue:       q,
				attachments: sel.attachments,
				out:         out,
				in:          cmd.InOrStdin(),
				interactive: isInteractive(cmd.InOrStdin()),
				signals:     signals,
				logger:      logger,
			})
		},
	}
	folders.register(cmd)
	settings.register(cmd)
	return cmd
}

// muxRun carries everything a run needs once the queue is built.
type muxRun struct {
	cfg         *config.Config
	report      preflight.Report
	queue       *queue.Queue
	attachments []files.Entry
	out         io.Writer
	in          io.Reader
	interactive bool
	signals     <-chan os.Signal
	logger      *slog.Logger
}

func runMux(ctx context.Context, run muxRun) error {
	cfg := run.cfg
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, run.logger)

	client, err := newToolClient(run.report, logger)
	if err != nil {
		return err
	}

	worker, err := muxer.New(run.queue, client, muxer.Options{
		Destination:           cfg.Paths.DestinationDir,
		AbortOnErrors:         cfg.Mux.AbortOnErrors,
		Strategy:              cfg.Mux.Strategy,
		MetadataEditAvailable: run.report.MetadataEditAvailable(),
		Edits: mkvtoolnix.TrackEdits{
			DefaultAudioLanguage:    cfg.Edits.DefaultAudioLanguage,
			DefaultSubtitleLanguage: cfg.Edits.DefaultSubtitleLanguage,
		},
		Attachments:        files.Paths(run.attachments),
		DiscardAttachments: cfg.Attachments.DiscardExisting,
		RunID:              runID,
	}, logger)
	if err != nil {
		return err
	}

	logger.Info("mux run starting",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("jobs", run.queue.Len()),
		logging.String("destination", cfg.Paths.DestinationDir),
		logging.String("strategy", cfg.Mux.Strategy),
	)

	session := newMuxSession(run.out, run.in, run.interactive, run.signals, worker, run.queue, logger)
	started := time.Now()
	outcome, runErr := session.run(ctx)
	finished := time.Now()
	if runErr != nil {
		return runErr
	}

	final := run.queue.State()
	logger.Info("mux run ended",
		logging.String(logging.FieldEventType, "run_end"),
		logging.String("outcome", outcome),
		logging.Int("done", final.DoneCount),
		logging.Int("failed", final.FailedCount()),
		logging.Duration("elapsed", finished.Sub(started)),
	)

	if cfg.History.Enabled {
		record := history.NewRun(runID, started, finished, outcome, cfg.Paths.DestinationDir, final, session.kinds)
		if err := recordHistory(ctx, cfg.Paths.HistoryDB, record); err != nil {
			logging.WarnWithContext(logger, "run history not recorded", "history_record_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "run is missing from mkvbatch history"),
			)
			fmt.Fprintln(run.out, "Warning: run history not recorded: "+err.Error())
		}
	}

	fmt.Fprintln(run.out)
	fmt.Fprintln(run.out, renderJobTable(final, true))
	fmt.Fprintf(run.out, "Run %s %s: %d of %d job(s) done, %d failed\n",
		runID, outcome, final.DoneCount, final.JobCount, final.FailedCount())

	if failed := final.FailedCount(); failed > 0 {
		return fmt.Errorf("%d job(s) failed; details in %s", failed, cfg.LogFilePath())
	}
	return nil
}

func newToolClient(report preflight.Report, logger *slog.Logger) (*mkvtoolnix.Client, error) {
	merge, ok := deps.Find(report.Binaries, preflight.NameMKVMerge)
	if !ok || !merge.Available {
		return nil, fmt.Errorf("%s not available", preflight.NameMKVMerge)
	}
	var propEdit string
	if status, ok := deps.Find(report.Binaries, preflight.NameMKVPropEdit); ok && status.Available {
		propEdit = status.Path
	}
	return mkvtoolnix.New(merge.Path, propEdit, mkvtoolnix.WithLogger(logger))
}

func recordHistory(ctx context.Context, path string, run history.Run) error {
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return store.Record(ctx, run)
}
