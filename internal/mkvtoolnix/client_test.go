package mkvtoolnix_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"mkvbatch/internal/mkvtoolnix"
	"mkvbatch/internal/muxerr"
)

type stubRun struct {
	lines  []string
	stderr []string
	err    error
}

type stubExecutor struct {
	runs     map[string]stubRun
	binaries []string
	args     [][]string
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string, onLine func(mkvtoolnix.Stream, string)) error {
	s.binaries = append(s.binaries, binary)
	s.args = append(s.args, append([]string(nil), args...))
	key := binary
	if len(args) > 0 && args[0] == "-J" {
		key = "identify"
	}
	run := s.runs[key]
	for _, line := range run.stderr {
		onLine(mkvtoolnix.Stderr, line)
	}
	for _, line := range run.lines {
		onLine(mkvtoolnix.Stdout, line)
	}
	return run.err
}

const identifyJSON = `{
  "container": {"type": "Matroska", "recognized": true, "supported": true},
  "tracks": [
    {"id": 0, "type": "video", "codec": "AVC", "properties": {"number": 1, "default_track": true}},
    {"id": 1, "type": "audio", "codec": "AAC", "properties": {"number": 2, "language": "eng", "default_track": true}},
    {"id": 2, "type": "audio", "codec": "AAC", "properties": {"number": 3, "language": "jpn", "default_track": false}},
    {"id": 3, "type": "subtitles", "codec": "SRT", "properties": {"number": 4, "language": "eng", "default_track": false}}
  ]
}`

func identifyLines() []string {
	return strings.Split(identifyJSON, "\n")
}

func TestMergeArgsFullRequest(t *testing.T) {
	req := mkvtoolnix.MergeRequest{
		Output: "/out/e1.mkv",
		Video:  "/in/e1.mp4",
		Subtitle: &mkvtoolnix.SubtitleTrack{
			Path:        "/subs/e1.srt",
			Language:    "en",
			TrackName:   "Signs",
			DelayMillis: -250,
			Default:     true,
		},
		Chapters:           "/chapters/e1.xml",
		Attachments:        []string{"/fonts/a.ttf", " ", "/fonts/b.otf"},
		DiscardAttachments: true,
	}
	flags := []mkvtoolnix.FlagChange{{ID: 2, Default: true}, {ID: 1, Default: false}}
	got := mkvtoolnix.MergeArgs(req, flags)
	want := []string{
		"--gui-mode", "-o", "/out/e1.mkv",
		"--no-attachments",
		"--default-track", "2:yes",
		"--default-track", "1:no",
		"/in/e1.mp4",
		"--language", "0:eng",
		"--track-name", "0:Signs",
		"--sync", "0:-250",
		"--default-track", "0:yes",
		"--forced-track", "0:no",
		"/subs/e1.srt",
		"--chapters", "/chapters/e1.xml",
		"--attach-file", "/fonts/a.ttf",
		"--attach-file", "/fonts/b.otf",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("MergeArgs mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestMergeArgsVideoOnly(t *testing.T) {
	got := mkvtoolnix.MergeArgs(mkvtoolnix.MergeRequest{Output: "/o.mkv", Video: "/v.mkv"}, nil)
	want := []string{"--gui-mode", "-o", "/o.mkv", "/v.mkv"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestMergeReportsProgressAndTreatsWarningsAsSuccess(t *testing.T) {
	exec := &stubExecutor{runs: map[string]stubRun{
		"mkvmerge": {
			lines: []string{"mkvmerge v80", "#GUI#progress 10%", "#GUI#warning odd timestamps", "#GUI#progress 100%"},
			err:   &mkvtoolnix.ExitStatusError{Code: 1},
		},
	}}
	client, err := mkvtoolnix.New("mkvmerge", "mkvpropedit", mkvtoolnix.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var seen []mkvtoolnix.Progress
	result, err := client.Merge(context.Background(), mkvtoolnix.MergeRequest{Output: "/o.mkv", Video: "/v.mkv"}, func(p mkvtoolnix.Progress) {
		seen = append(seen, p)
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if result.ExitCode != 1 || len(result.Warnings) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(seen) != 3 || seen[0].Percent != 10 || !seen[1].Warning || seen[2].Percent != 100 {
		t.Fatalf("unexpected progress stream %+v", seen)
	}
	if len(exec.binaries) != 1 {
		t.Fatalf("expected no identify call without edits, got %v", exec.binaries)
	}
}

func TestMergeFailureCapturesDiagnostics(t *testing.T) {
	exec := &stubExecutor{runs: map[string]stubRun{
		"mkvmerge": {
			lines: []string{"#GUI#progress 3%", "#GUI#warning first", "#GUI#error The file could not be opened"},
			err:   &mkvtoolnix.ExitStatusError{Code: 2},
		},
	}}
	client, _ := mkvtoolnix.New("mkvmerge", "", mkvtoolnix.WithExecutor(exec))

	_, err := client.Merge(context.Background(), mkvtoolnix.MergeRequest{Output: "/o.mkv", Video: "/v.mkv"}, nil)
	if !errors.Is(err, muxerr.ErrToolExecution) {
		t.Fatalf("expected ErrToolExecution, got %v", err)
	}
	var toolErr *mkvtoolnix.ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected ToolError, got %T", err)
	}
	if toolErr.Tool != "mkvmerge" || toolErr.Code != 2 {
		t.Fatalf("unexpected tool error %+v", toolErr)
	}
	if toolErr.Output != "#GUI#warning first\n#GUI#error The file could not be opened" {
		t.Fatalf("unexpected output %q", toolErr.Output)
	}
}

func TestMergeWithEditsResolvesTrackIDs(t *testing.T) {
	exec := &stubExecutor{runs: map[string]stubRun{
		"identify": {lines: identifyLines()},
		"mkvmerge": {lines: []string{"#GUI#progress 100%"}},
	}}
	client, _ := mkvtoolnix.New("mkvmerge", "mkvpropedit", mkvtoolnix.WithExecutor(exec))

	result, err := client.Merge(context.Background(), mkvtoolnix.MergeRequest{
		Output: "/o.mkv",
		Video:  "/v.mkv",
		Edits:  mkvtoolnix.TrackEdits{DefaultAudioLanguage: "ja", DefaultSubtitleLanguage: "fr"},
	}, nil)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !reflect.DeepEqual(result.Unmatched, []string{"subtitles:fr"}) {
		t.Fatalf("unexpected unmatched %v", result.Unmatched)
	}
	if len(exec.args) != 2 || exec.args[0][0] != "-J" {
		t.Fatalf("expected identify then merge, got %q", exec.args)
	}
	joined := strings.Join(exec.args[1], " ")
	if !strings.Contains(joined, "--default-track 1:no --default-track 2:yes /v.mkv") {
		t.Fatalf("unexpected merge args %q", joined)
	}
}

func TestPropEditArgsAndRun(t *testing.T) {
	exec := &stubExecutor{runs: map[string]stubRun{
		"identify":    {lines: identifyLines()},
		"mkvpropedit": {lines: []string{"#GUI#progress 50%", "#GUI#progress 100%"}},
	}}
	client, _ := mkvtoolnix.New("mkvmerge", "mkvpropedit", mkvtoolnix.WithExecutor(exec))

	var last int
	_, err := client.PropEdit(context.Background(), mkvtoolnix.PropEditRequest{
		Path:  "/v.mkv",
		Edits: mkvtoolnix.TrackEdits{DefaultSubtitleLanguage: "eng"},
	}, func(p mkvtoolnix.Progress) { last = p.Percent })
	if err != nil {
		t.Fatalf("PropEdit: %v", err)
	}
	if last != 100 {
		t.Fatalf("expected final progress 100, got %d", last)
	}
	want := []string{"--gui-mode", "/v.mkv", "--edit", "track:@4", "--set", "flag-default=1"}
	if exec.binaries[1] != "mkvpropedit" || !reflect.DeepEqual(exec.args[1], want) {
		t.Fatalf("unexpected propedit call %s %q", exec.binaries[1], exec.args[1])
	}
}

func TestPropEditSkipsWhenNothingChanges(t *testing.T) {
	exec := &stubExecutor{runs: map[string]stubRun{"identify": {lines: identifyLines()}}}
	client, _ := mkvtoolnix.New("mkvmerge", "mkvpropedit", mkvtoolnix.WithExecutor(exec))

	var last int
	if _, err := client.PropEdit(context.Background(), mkvtoolnix.PropEditRequest{
		Path:  "/v.mkv",
		Edits: mkvtoolnix.TrackEdits{DefaultAudioLanguage: "en"},
	}, func(p mkvtoolnix.Progress) { last = p.Percent }); err != nil {
		t.Fatalf("PropEdit: %v", err)
	}
	if len(exec.binaries) != 1 || last != 100 {
		t.Fatalf("expected identify only and 100%%, got %v last=%d", exec.binaries, last)
	}
}

func TestPropEditRequiresBinary(t *testing.T) {
	client, _ := mkvtoolnix.New("mkvmerge", "", mkvtoolnix.WithExecutor(&stubExecutor{}))
	_, err := client.PropEdit(context.Background(), mkvtoolnix.PropEditRequest{Path: "/v.mkv"}, nil)
	if !errors.Is(err, muxerr.ErrToolLaunch) {
		t.Fatalf("expected ErrToolLaunch, got %v", err)
	}
}

func TestIdentifyDecodesTracks(t *testing.T) {
	exec := &stubExecutor{runs: map[string]stubRun{"identify": {lines: identifyLines()}}}
	client, _ := mkvtoolnix.New("mkvmerge", "", mkvtoolnix.WithExecutor(exec))

	info, err := client.Identify(context.Background(), "/v.mkv")
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if !info.IsMatroska() || len(info.Tracks) != 4 {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.Tracks[2].Language() != "jpn" || info.Tracks[2].Properties.Number != 3 {
		t.Fatalf("unexpected track %+v", info.Tracks[2])
	}
}

func TestIdentifyIgnoresStderr(t *testing.T) {
	exec := &stubExecutor{runs: map[string]stubRun{"identify": {
		lines:  identifyLines(),
		stderr: []string{"Warning: The locale could not be set properly."},
	}}}
	client, _ := mkvtoolnix.New("mkvmerge", "", mkvtoolnix.WithExecutor(exec))

	info, err := client.Identify(context.Background(), "/v.mkv")
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if len(info.Tracks) != 4 {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestIdentifyWithStderrFromRealProcess(t *testing.T) {
	body := "echo 'Warning: The locale could not be set properly.' 1>&2\ncat <<'JSON'\n" + identifyJSON + "\nJSON\n"
	client, _ := mkvtoolnix.New(writeScript(t, body), "")

	info, err := client.Identify(context.Background(), "/x.mkv")
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if !info.IsMatroska() || len(info.Tracks) != 4 {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestIdentifyFailureReportsStderr(t *testing.T) {
	exec := &stubExecutor{runs: map[string]stubRun{"identify": {
		stderr: []string{"Error: the file could not be opened"},
		err:    &mkvtoolnix.ExitStatusError{Code: 2},
	}}}
	client, _ := mkvtoolnix.New("mkvmerge", "", mkvtoolnix.WithExecutor(exec))

	_, err := client.Identify(context.Background(), "/v.mkv")
	var toolErr *mkvtoolnix.ToolError
	if !errors.As(err, &toolErr) || !strings.Contains(toolErr.Output, "could not be opened") {
		t.Fatalf("expected stderr in tool error, got %v", err)
	}
}

func TestNewRequiresMerge(t *testing.T) {
	if _, err := mkvtoolnix.New(" ", "mkvpropedit"); err == nil {
		t.Fatal("expected error for empty mkvmerge binary")
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-mkvmerge")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestCommandExecutorStreamsLinesAndExitCodes(t *testing.T) {
	script := writeScript(t, "echo '#GUI#progress 20%'\necho '#GUI#error broken' 1>&2\nexit 2\n")
	client, _ := mkvtoolnix.New(script, "")

	var percents []int
	_, err := client.Merge(context.Background(), mkvtoolnix.MergeRequest{Output: "/o.mkv", Video: "/v.mkv"}, func(p mkvtoolnix.Progress) {
		if !p.Error {
			percents = append(percents, p.Percent)
		}
	})
	var toolErr *mkvtoolnix.ToolError
	if !errors.As(err, &toolErr) || toolErr.Code != 2 || toolErr.Output != "#GUI#error broken" {
		t.Fatalf("unexpected error %v", err)
	}
	if !reflect.DeepEqual(percents, []int{20}) {
		t.Fatalf("unexpected percents %v", percents)
	}
}

func TestCommandExecutorLaunchFailure(t *testing.T) {
	client, _ := mkvtoolnix.New(filepath.Join(t.TempDir(), "missing-mkvmerge"), "")
	_, err := client.Merge(context.Background(), mkvtoolnix.MergeRequest{Output: "/o.mkv", Video: "/v.mkv"}, nil)
	if !errors.Is(err, muxerr.ErrToolLaunch) {
		t.Fatalf("expected ErrToolLaunch, got %v", err)
	}
}
