package mkvtoolnix_test

import (
	"testing"

	"mkvbatch/internal/mkvtoolnix"
)

func TestParseProgress(t *testing.T) {
	tests := []struct {
		line string
		want mkvtoolnix.Progress
		ok   bool
	}{
		{"#GUI#progress 42%", mkvtoolnix.Progress{Percent: 42}, true},
		{"  Progress: 7%  ", mkvtoolnix.Progress{Percent: 7}, true},
		{"#GUI#progress 140%", mkvtoolnix.Progress{Percent: 100}, true},
		{"#GUI#progress abc%", mkvtoolnix.Progress{}, false},
		{"#GUI#error The file 'x.srt' could not be opened", mkvtoolnix.Progress{Error: true, Message: "#GUI#error The file 'x.srt' could not be opened"}, true},
		{"Error: no tracks", mkvtoolnix.Progress{Error: true, Message: "Error: no tracks"}, true},
		{"#GUI#warning chapters ignored", mkvtoolnix.Progress{Warning: true, Message: "#GUI#warning chapters ignored"}, true},
		{"Warning: timestamps", mkvtoolnix.Progress{Warning: true, Message: "Warning: timestamps"}, true},
		{"mkvmerge v80.0 ('Roundabout') 64-bit", mkvtoolnix.Progress{}, false},
		{"", mkvtoolnix.Progress{}, false},
	}
	for _, tt := range tests {
		got, ok := mkvtoolnix.ParseProgress(tt.line)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseProgress(%q) = (%+v, %v), want (%+v, %v)", tt.line, got, ok, tt.want, tt.ok)
		}
	}
}

func TestIsMatroska(t *testing.T) {
	for path, want := range map[string]bool{
		"/v/a.mkv":  true,
		"/v/a.MKV":  true,
		"/v/a.webm": true,
		"/v/a.mp4":  false,
		"/v/a":      false,
	} {
		if got := mkvtoolnix.IsMatroska(path); got != want {
			t.Errorf("IsMatroska(%q) = %v, want %v", path, got, want)
		}
	}
}
