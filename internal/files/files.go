package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"mkvbatch/internal/muxerr"
)

// Entry is a regular, non-empty file found in an input folder.
type Entry struct {
	Name string
	Path string
	Size uint64
}

// List returns the non-empty regular files in folder, naturally sorted. When
// extensions is non-empty only files whose extension matches one of them
// (case-insensitive, with or without a leading dot) are returned.
func List(folder string, extensions []string) ([]Entry, error) {
	folder = strings.TrimSpace(folder)
	if folder == "" {
		return nil, muxerr.Wrap(muxerr.ErrInvalidPath, "files", "list", "folder not set", nil)
	}
	info, err := os.Stat(folder)
	if err != nil {
		return nil, muxerr.Wrap(muxerr.ErrInvalidPath, "files", "list", folder, err)
	}
	if !info.IsDir() {
		return nil, muxerr.Wrap(muxerr.ErrInvalidPath, "files", "list", fmt.Sprintf("%s is not a directory", folder), nil)
	}

	dirEntries, err := os.ReadDir(folder)
	if err != nil {
		return nil, muxerr.Wrap(muxerr.ErrInvalidPath, "files", "read dir", folder, err)
	}

	allowed := extensionSet(extensions)
	entries := make([]Entry, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		name := dirEntry.Name()
		if allowed != nil {
			if _, ok := allowed[extensionOf(name)]; !ok {
				continue
			}
		}
		path := filepath.Join(folder, name)
		// Stat rather than dirEntry.Info so symlinks resolve to their target.
		fileInfo, err := os.Stat(path)
		if err != nil || !fileInfo.Mode().IsRegular() || fileInfo.Size() <= 0 {
			continue
		}
		entries = append(entries, Entry{Name: name, Path: path, Size: uint64(fileInfo.Size())})
	}

	SortNatural(entries)
	return entries, nil
}

// SortNatural orders entries by name with digit runs compared numerically and
// case ignored. Names that collate equal fall back to byte order so the
// result is deterministic.
func SortNatural(entries []Entry) {
	collator := collate.New(language.Und, collate.Numeric, collate.IgnoreCase)
	sort.SliceStable(entries, func(i, j int) bool {
		if c := collator.CompareString(entries[i].Name, entries[j].Name); c != 0 {
			return c < 0
		}
		return entries[i].Name < entries[j].Name
	})
}

// MoveToTop swaps entry i with the first entry, the way a user promotes the
// subtitle or chapter that belongs to the first video. Out-of-range indices
// leave the slice unchanged.
func MoveToTop(entries []Entry, i int) {
	if i <= 0 || i >= len(entries) {
		return
	}
	entries[0], entries[i] = entries[i], entries[0]
}

// IndexOf returns the position of the entry named name, or -1.
func IndexOf(entries []Entry, name string) int {
	for i, entry := range entries {
		if entry.Name == name {
			return i
		}
	}
	return -1
}

// TotalSize sums the sizes of entries.
func TotalSize(entries []Entry) uint64 {
	var total uint64
	for _, entry := range entries {
		total += entry.Size
	}
	return total
}

// Names returns the entry names in order.
func Names(entries []Entry) []string {
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name
	}
	return names
}

// Paths returns the entry paths in order.
func Paths(entries []Entry) []string {
	paths := make([]string, len(entries))
	for i, entry := range entries {
		paths[i] = entry.Path
	}
	return paths
}

// HumanSize renders a byte count for tables, e.g. "1.2 GB".
func HumanSize(bytes uint64) string {
	return humanize.Bytes(bytes)
}

func extensionSet(extensions []string) map[string]struct{} {
	if len(extensions) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimLeft(strings.TrimSpace(ext), "."))
		if ext != "" {
			set[ext] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

func extensionOf(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}
