package history_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"mkvbatch/internal/history"
	"mkvbatch/internal/queue"
	"mkvbatch/internal/testsupport"
)

func sampleState() queue.State {
	return queue.State{
		Jobs: []queue.Job{
			{Index: 0, VideoName: "e1.mp4", SubtitleName: "e1.srt", Status: queue.StatusDone, Progress: 100, SizeBefore: 1000, SizeAfter: 1200},
			{Index: 1, VideoName: "e2.mp4", Status: queue.StatusFailed, SizeBefore: 900, FailureMessage: "Error: broken"},
			{Index: 2, VideoName: "e3.mkv", ChapterName: "e3.xml", Status: queue.StatusPending, SizeBefore: 800},
		},
		TotalProgress: 100,
		JobCount:      3,
		DoneCount:     1,
	}
}

func TestRecordAndLoadRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	run := history.NewRun("run-1", started, started.Add(time.Minute), history.OutcomePaused, "/dest",
		sampleState(), map[int]string{1: "tool_execution", 0: "ignored"})

	if run.FailedCount != 1 || run.DoneCount != 1 || run.JobCount != 3 {
		t.Fatalf("unexpected counters: %+v", run)
	}
	if run.Jobs[0].FailureKind != "" {
		t.Fatal("kind must only be kept for failed jobs")
	}
	if err := store.Record(ctx, run); err != nil {
		t.Fatalf("Record: %v", err)
	}

	loaded, err := store.Run(ctx, "run-1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected run to load")
	}
	if !loaded.StartedAt.Equal(started) || loaded.Outcome != history.OutcomePaused || loaded.Destination != "/dest" {
		t.Fatalf("unexpected run: %+v", loaded)
	}
	if len(loaded.Jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(loaded.Jobs))
	}
	failed := loaded.Jobs[1]
	if failed.Status != queue.StatusFailed || failed.FailureMessage != "Error: broken" || failed.FailureKind != "tool_execution" {
		t.Fatalf("unexpected failed job: %+v", failed)
	}
	if loaded.Jobs[0].SubtitleName != "e1.srt" || loaded.Jobs[0].SizeAfter != 1200 {
		t.Fatalf("unexpected first job: %+v", loaded.Jobs[0])
	}
	if loaded.Jobs[2].ChapterName != "e3.xml" {
		t.Fatalf("unexpected chapter: %+v", loaded.Jobs[2])
	}
}

func TestRecordReplacesResumedRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	started := time.Now()
	state := sampleState()
	if err := store.Record(ctx, history.NewRun("run-1", started, started, history.OutcomePaused, "", state, nil)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	state.Jobs[2].Status = queue.StatusDone
	state.DoneCount = 2
	if err := store.Record(ctx, history.NewRun("run-1", started, started.Add(time.Second), history.OutcomeFinished, "", state, nil)); err != nil {
		t.Fatalf("Record again: %v", err)
	}

	runs, err := store.Runs(ctx, 0)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Outcome != history.OutcomeFinished || runs[0].DoneCount != 2 {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	jobs, err := store.Jobs(ctx, "run-1")
	if err != nil {
		t.Fatalf("Jobs: %v", err)
	}
	if len(jobs) != 3 || jobs[2].Status != queue.StatusDone {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}
}

func TestRunsNewestFirstWithLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		started := base.Add(time.Duration(i) * time.Hour)
		if err := store.Record(ctx, history.Run{ID: id, StartedAt: started, FinishedAt: started, Outcome: history.OutcomeFinished}); err != nil {
			t.Fatalf("Record %s: %v", id, err)
		}
	}

	runs, err := store.Runs(ctx, 2)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Fatalf("unexpected order: %+v", runs)
	}
	if runs[0].Jobs != nil {
		t.Fatal("Runs must not load jobs")
	}
}

func TestUnknownRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	run, err := store.Run(context.Background(), "missing")
	if err != nil || run != nil {
		t.Fatalf("expected nil run, got %+v, %v", run, err)
	}
	if err := store.Record(context.Background(), history.Run{}); err == nil {
		t.Fatal("expected error for empty run id")
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", cfg.Paths.HistoryDB)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := history.Open(cfg.Paths.HistoryDB); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := history.Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
