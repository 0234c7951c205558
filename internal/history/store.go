package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mkvbatch/internal/muxerr"
	"mkvbatch/internal/queue"
)

// Run outcomes.
const (
	OutcomeFinished  = "finished"
	OutcomePaused    = "paused"
	OutcomeCancelled = "cancelled"
)

// Run is one invocation of the muxing worker, possibly spanning resumes.
type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	Outcome     string
	Destination string
	JobCount    int
	DoneCount   int
	FailedCount int
	Jobs        []JobOutcome
}

// JobOutcome is the recorded result of one job.
type JobOutcome struct {
	Index            int
	VideoName        string
	SubtitleName     string
	ChapterName      string
	Status           queue.Status
	SizeBefore       uint64
	SizeAfter        uint64
	UsedMetadataEdit bool
	FailureMessage   string
	FailureKind      string
}

// NewRun builds a run record from a queue snapshot. kinds maps job index to
// a muxerr.Kind classification for failed jobs.
func NewRun(id string, started, finished time.Time, outcome, destination string, state queue.State, kinds map[int]string) Run {
	run := Run{
		ID:          id,
		StartedAt:   started,
		FinishedAt:  finished,
		Outcome:     outcome,
		Destination: destination,
		JobCount:    state.JobCount,
		DoneCount:   state.DoneCount,
		FailedCount: state.FailedCount(),
		Jobs:        make([]JobOutcome, 0, len(state.Jobs)),
	}
	for _, job := range state.Jobs {
		rec := JobOutcome{
			Index:            job.Index,
			VideoName:        job.VideoName,
			SubtitleName:     job.SubtitleName,
			ChapterName:      job.ChapterName,
			Status:           job.Status,
			SizeBefore:       job.SizeBefore,
			SizeAfter:        job.SizeAfter,
			UsedMetadataEdit: job.UsedMetadataEdit,
			FailureMessage:   job.FailureMessage,
		}
		if job.Status == queue.StatusFailed {
			rec.FailureKind = kinds[job.Index]
		}
		run.Jobs = append(run.Jobs, rec)
	}
	return run
}

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, muxerr.Wrap(muxerr.ErrConfiguration, "history", "open", "database path required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Connection pragmas below must hold for every statement.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Record stores a run and its jobs in one transaction. Recording the same
// run ID again replaces the earlier row, which is how resumed runs update.
func (s *Store) Record(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_jobs WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("clear run jobs: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (
            id, started_at, finished_at, outcome, destination, job_count, done_count, failed_count
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            started_at = excluded.started_at,
            finished_at = excluded.finished_at,
            outcome = excluded.outcome,
            destination = excluded.destination,
            job_count = excluded.job_count,
            done_count = excluded.done_count,
            failed_count = excluded.failed_count`,
		run.ID,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		run.Outcome,
		nullableString(run.Destination),
		run.JobCount,
		run.DoneCount,
		run.FailedCount,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_jobs (
            run_id, job_index, video_name, subtitle_name, chapter_name, status,
            size_before, size_after, used_metadata_edit, failure_message, failure_kind
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare job insert: %w", err)
	}
	defer stmt.Close()

	for _, job := range run.Jobs {
		if _, err := stmt.ExecContext(ctx,
			run.ID,
			job.Index,
			job.VideoName,
			nullableString(job.SubtitleName),
			nullableString(job.ChapterName),
			string(job.Status),
			int64(job.SizeBefore),
			int64(job.SizeAfter),
			boolToInt(job.UsedMetadataEdit),
			nullableString(job.FailureMessage),
			nullableString(job.FailureKind),
		); err != nil {
			return fmt.Errorf("insert job %d: %w", job.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// Runs lists recorded runs newest first. Jobs are not loaded. A limit <= 0
// returns every run.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, started_at, finished_at, outcome, destination, job_count, done_count, failed_count
        FROM runs ORDER BY started_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Run loads one run with its jobs. It returns nil when the ID is unknown.
func (s *Store) Run(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, outcome, destination, job_count, done_count, failed_count
        FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	jobs, err := s.Jobs(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Jobs = jobs
	return &run, nil
}

// Jobs lists the job outcomes of one run in index order.
func (s *Store) Jobs(ctx context.Context, runID string) ([]JobOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT job_index, video_name, subtitle_name, chapter_name, status,
            size_before, size_after, used_metadata_edit, failure_message, failure_kind
        FROM run_jobs WHERE run_id = ? ORDER BY job_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []JobOutcome
	for rows.Next() {
		var (
			job                             JobOutcome
			subtitle, chapter, msg, kind    sql.NullString
			status                          string
			sizeBefore, sizeAfter, usedEdit int64
		)
		if err := rows.Scan(&job.Index, &job.VideoName, &subtitle, &chapter, &status,
			&sizeBefore, &sizeAfter, &usedEdit, &msg, &kind); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		job.SubtitleName = subtitle.String
		job.ChapterName = chapter.String
		job.Status = queue.Status(status)
		job.SizeBefore = uint64(sizeBefore)
		job.SizeAfter = uint64(sizeAfter)
		job.UsedMetadataEdit = usedEdit != 0
		job.FailureMessage = msg.String
		job.FailureKind = kind.String
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run               Run
		started, finished string
		destination       sql.NullString
	)
	if err := row.Scan(&run.ID, &started, &finished, &run.Outcome, &destination,
		&run.JobCount, &run.DoneCount, &run.FailedCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Destination = destination.String
	var err error
	if run.StartedAt, err = parseTimeString(started); err != nil {
		return Run{}, fmt.Errorf("parse started_at: %w", err)
	}
	if run.FinishedAt, err = parseTimeString(finished); err != nil {
		return Run{}, fmt.Errorf("parse finished_at: %w", err)
	}
	return run, nil
}

// timeLayout has a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(value time.Time) string {
	if value.IsZero() {
		value = time.Now()
	}
	return value.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
