package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mkvbatch/internal/files"
	"mkvbatch/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [RUN_ID]",
		Short: "Show recorded mux runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return errors.New("run history is disabled (history.enabled = false)")
			}
			store, err := history.Open(cfg.Paths.HistoryDB)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				run, err := store.Run(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %s not found", args[0])
				}
				fmt.Fprintf(out, "Run %s: %s, %d/%d succeeded, %d failed (%s)\n",
					run.ID, run.Outcome, run.DoneCount, run.JobCount, run.FailedCount,
					run.FinishedAt.Sub(run.StartedAt).Round(time.Second))
				fmt.Fprintln(out, renderRunJobs(run.Jobs))
				return nil
			}

			runs, err := store.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderRuns(runs, time.Now()))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	return cmd
}

func renderRuns(runs []history.Run, now time.Time) string {
	columns := []column{
		{title: "Run ID"},
		{title: "Started"},
		{title: "Duration", align: alignRight},
		{title: "Outcome"},
		{title: "Jobs", align: alignRight},
		{title: "Done", align: alignRight},
		{title: "Failed", align: alignRight},
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			humanize.RelTime(run.StartedAt, now, "ago", "from now"),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String(),
			run.Outcome,
			strconv.Itoa(run.JobCount),
			strconv.Itoa(run.DoneCount),
			strconv.Itoa(run.FailedCount),
		})
	}
	return renderTable(columns, rows)
}

func renderRunJobs(jobs []history.JobOutcome) string {
	columns := []column{
		{title: "#", align: alignRight},
		{title: "Video"},
		{title: "Subtitle"},
		{title: "Chapter"},
		{title: "Size Before", align: alignRight},
		{title: "Size After", align: alignRight},
		{title: "Status"},
		{title: "Kind"},
		{title: "Message", maxWidth: maxMessageWidth},
	}
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		status := string(job.Status)
		if job.UsedMetadataEdit {
			status += " (edited)"
		}
		rows = append(rows, []string{
			strconv.Itoa(job.Index + 1),
			job.VideoName,
			partnerCell(job.SubtitleName != "", job.SubtitleName),
			partnerCell(job.ChapterName != "", job.ChapterName),
			files.HumanSize(job.SizeBefore),
			files.HumanSize(job.SizeAfter),
			status,
			job.FailureKind,
			job.FailureMessage,
		})
	}
	return renderTable(columns, rows)
}
