package runlock_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mkvbatch/internal/runlock"
)

func TestAcquireIsExclusive(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out")

	first, err := runlock.Acquire(dest)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := os.Stat(first.Path()); err != nil {
		t.Fatalf("lock file missing: %v", err)
	}

	if _, err := runlock.Acquire(dest); !errors.Is(err, runlock.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
	if _, err := os.Stat(first.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("lock file should be removed, stat err = %v", err)
	}

	again, err := runlock.Acquire(dest)
	if err != nil {
		t.Fatalf("re-Acquire: %v", err)
	}
	_ = again.Release()
}

func TestAcquireRequiresDestination(t *testing.T) {
	if _, err := runlock.Acquire(" "); err == nil {
		t.Fatal("expected error for empty destination")
	}
	var nilLock *runlock.Lock
	if err := nilLock.Release(); err != nil {
		t.Fatalf("nil Release: %v", err)
	}
}
