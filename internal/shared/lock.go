package shared

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// RunLock is an exclusive file lock held for the duration of a playlist update.
type RunLock struct {
	lock *flock.Flock
}

// AcquireRunLock takes the lock file in dir without blocking.
// Returns [ErrLocked] when another process holds it.
func AcquireRunLock(dir string) (*RunLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, "update.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", lock.Path(), err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: lock held at %s", ErrLocked, lock.Path())
	}
	return &RunLock{lock: lock}, nil
}

// Path returns the lock file path.
func (l *RunLock) Path() string { return l.lock.Path() }

// Release unlocks the file. Safe to call more than once.
func (l *RunLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
