package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mkvbatch/internal/config"
	"mkvbatch/internal/logging"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")

	logger, closer, err := logging.NewFromConfig(&cfg, false)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	defer closer.Close()

	logger.Info("queue built", logging.Int("job_count", 3))

	data, err := os.ReadFile(cfg.LogFilePath())
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "queue built") || !strings.Contains(string(data), "job_count=3") {
		t.Fatalf("unexpected log contents: %q", data)
	}
}

func TestConsoleLoggerFormatsComponentAndJob(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, closer, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer closer.Close()

	ctx := logging.WithJobIndex(logging.WithRunID(context.Background(), "run-1"), 1)
	jobLogger := logging.WithContext(ctx, logging.NewComponentLogger(logger, "muxer"))
	jobLogger.Info("job started", logging.String("video", "episode 2.mkv"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, " INFO muxer [job 2]: job started") {
		t.Fatalf("expected component and job subject, got %q", line)
	}
	if !strings.Contains(line, "run_id=run-1") {
		t.Fatalf("expected run_id field, got %q", line)
	}
	if !strings.Contains(line, `video="episode 2.mkv"`) {
		t.Fatalf("expected quoted value, got %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller at info level, got %q", line)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "debug.log")
	logger, closer, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer closer.Close()

	logger.Debug("tool output", logging.String("line", "#GUI#progress 10%"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", data)
	}
}

func TestJSONLoggerUsesShortKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, closer, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer closer.Close()

	logger.Warn("job failed", logging.Error(errors.New("exit status 2")))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, data)
	}
	if entry["level"] != "warn" || entry["msg"] != "job failed" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key: %v", entry)
	}
	if entry["error"] != "exit status 2" {
		t.Fatalf("unexpected error field: %v", entry["error"])
	}
}

func TestJSONLoggerDropsEmptyStrings(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, closer, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer closer.Close()

	logger.Info("job started", logging.String("subtitle", ""), logging.String("video", "e1.mkv"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, data)
	}
	if _, ok := entry["subtitle"]; ok {
		t.Fatalf("expected empty subtitle to be dropped: %v", entry)
	}
	if entry["video"] != "e1.mkv" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, closer, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer closer.Close()

	logging.WarnWithContext(logger, "zero-byte output removed", "zero_byte_output", logging.String(logging.FieldImpact, "job has no output"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	for _, want := range []string{"event_type=zero_byte_output", "error_hint=", `impact="job has no output"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

func TestContextFields(t *testing.T) {
	if fields := logging.ContextFields(context.Background()); len(fields) != 0 {
		t.Fatalf("expected no fields, got %v", fields)
	}
	ctx := logging.WithJobIndex(logging.WithRunID(context.Background(), "abc"), 0)
	fields := logging.ContextFields(ctx)
	if len(fields) != 2 {
		t.Fatalf("expected two fields, got %v", fields)
	}
	if fields[0].Key != logging.FieldRunID || fields[1].Key != logging.FieldJobIndex {
		t.Fatalf("unexpected field keys: %v", fields)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("nop logger should not be enabled")
	}
}
