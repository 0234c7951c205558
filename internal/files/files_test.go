package files_test

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"mkvbatch/internal/files"
	"mkvbatch/internal/muxerr"
	"mkvbatch/internal/testsupport"
)

func TestListSortsNaturallyAndSkipsEmptyFiles(t *testing.T) {
	base := t.TempDir()
	folder := testsupport.Folder(t, base, "videos", "f10.mkv", "f2.mkv", "F1.mkv", "notes.txt")
	testsupport.WriteEmpty(t, filepath.Join(folder, "empty.mkv"))
	testsupport.WriteFile(t, filepath.Join(folder, "extras", "bonus.mkv"), 10)

	entries, err := files.List(folder, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"F1.mkv", "f2.mkv", "f10.mkv", "notes.txt"}
	if got := files.Names(entries); !reflect.DeepEqual(got, want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
	if entries[0].Path != filepath.Join(folder, "F1.mkv") {
		t.Fatalf("unexpected path %q", entries[0].Path)
	}
	if entries[0].Size != 1026 {
		t.Fatalf("unexpected size %d", entries[0].Size)
	}
}

func TestListFiltersExtensionsCaseInsensitively(t *testing.T) {
	base := t.TempDir()
	folder := testsupport.Folder(t, base, "subs", "a.SRT", "b.ass", "c.srt.bak", "d.txt", "e")

	entries, err := files.List(folder, []string{".srt", "ASS"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"a.SRT", "b.ass"}
	if got := files.Names(entries); !reflect.DeepEqual(got, want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
}

func TestListEmptyFolder(t *testing.T) {
	entries, err := files.List(t.TempDir(), []string{"srt"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %v", entries)
	}
}

func TestListInvalidPath(t *testing.T) {
	base := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(base, "plain.mkv"), 5)

	for _, folder := range []string{"", filepath.Join(base, "missing"), filepath.Join(base, "plain.mkv")} {
		_, err := files.List(folder, nil)
		if !errors.Is(err, muxerr.ErrInvalidPath) {
			t.Fatalf("List(%q) error = %v, want ErrInvalidPath", folder, err)
		}
	}
}

func TestSortNaturalBreaksTiesBytewise(t *testing.T) {
	entries := []files.Entry{{Name: "b.srt"}, {Name: "B.srt"}, {Name: "a10.srt"}, {Name: "a9.srt"}}
	files.SortNatural(entries)
	want := []string{"a9.srt", "a10.srt", "B.srt", "b.srt"}
	if got := files.Names(entries); !reflect.DeepEqual(got, want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
}

func TestMoveToTop(t *testing.T) {
	entries := []files.Entry{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	files.MoveToTop(entries, 2)
	if got := files.Names(entries); !reflect.DeepEqual(got, []string{"c", "b", "a"}) {
		t.Fatalf("unexpected order %v", got)
	}
	files.MoveToTop(entries, 7)
	files.MoveToTop(entries, 0)
	if got := files.Names(entries); !reflect.DeepEqual(got, []string{"c", "b", "a"}) {
		t.Fatalf("out-of-range move changed order: %v", got)
	}
	if files.IndexOf(entries, "b") != 1 || files.IndexOf(entries, "z") != -1 {
		t.Fatal("IndexOf returned unexpected positions")
	}
}

func TestTotalSizeAndHumanSize(t *testing.T) {
	entries := []files.Entry{{Size: 1000}, {Size: 500}}
	if got := files.TotalSize(entries); got != 1500 {
		t.Fatalf("TotalSize = %d", got)
	}
	if got := files.HumanSize(1500); got != "1.5 kB" {
		t.Fatalf("HumanSize = %q", got)
	}
	if got := files.Paths([]files.Entry{{Path: "/x"}}); !reflect.DeepEqual(got, []string{"/x"}) {
		t.Fatalf("Paths = %v", got)
	}
}
