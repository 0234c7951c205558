// Package runlock keeps two mkvbatch runs from writing into the same
// destination at once.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// FileName is the lock file created inside the destination directory.
const FileName = ".mkvbatch.lock"

// ErrLocked is returned when another process holds the destination.
var ErrLocked = errors.New("destination is locked by another mkvbatch run")

// Lock is an acquired destination lock.
type Lock struct {
	path string
	lock *flock.Flock
}

// Acquire takes the lock for destination without blocking.
func Acquire(destination string) (*Lock, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, errors.New("destination required")
	}
	if err := os.MkdirAll(destination, 0o755); err != nil {
		return nil, fmt.Errorf("create destination: %w", err)
	}
	path := filepath.Join(destination, FileName)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, path)
	}
	return &Lock{path: path, lock: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release unlocks and removes the lock file. It is safe to call twice.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if !l.lock.Locked() {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}
