package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path with size bytes of filler content, creating parent
// directories as needed. A size <= 0 writes a single byte so the file is
// never mistaken for an empty placeholder.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	writeFiller(t, path, max(size, 1))
}

// WriteEmpty creates a zero-byte file, which listings are expected to skip.
func WriteEmpty(t testing.TB, path string) {
	t.Helper()
	writeFiller(t, path, 0)
}

// Folder creates base/dir and writes one file per name. The i-th file holds
// 1024+i bytes so sizes differ between entries.
func Folder(t testing.TB, base, dir string, names ...string) string {
	t.Helper()

	folder := filepath.Join(base, dir)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", folder, err)
	}
	for i, name := range names {
		WriteFile(t, filepath.Join(folder, name), int64(1024+i))
	}
	return folder
}

func writeFiller(t testing.TB, path string, size int64) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{'B'}, int(size)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
