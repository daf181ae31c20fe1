// Package lock keeps two mutating runs from working on the same tree at once.
package lock

import (
	"fmt"
	"path/filepath"

	"fjacquet/invoice-reconciler/internal/apperror"
	"fjacquet/invoice-reconciler/internal/fileutils"

	"github.com/gofrs/flock"
)

// FileName is the lock file created in the locked directory.
const FileName = ".invoice-reconciler.lock"

// RunLock is an exclusive, non-blocking, process-level lock on a directory.
type RunLock struct {
	flock *flock.Flock
	path  string
}

// New creates a lock for dir. Nothing is acquired yet.
func New(dir string) *RunLock {
	path := filepath.Join(dir, FileName)
	return &RunLock{flock: flock.New(path), path: path}
}

// Path returns the lock file path.
func (l *RunLock) Path() string { return l.path }

// Acquire takes the lock or fails at once with a StateError when another
// process holds it.
func (l *RunLock) Acquire() error {
	if err := fileutils.EnsureDirectoryExists(filepath.Dir(l.path)); err != nil {
		return err
	}
	ok, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to try lock on %s: %w", l.path, err)
	}
	if !ok {
		return &apperror.StateError{Operation: "lock", Reason: "another run holds " + l.path}
	}
	return nil
}

// Release drops the lock. Releasing an unheld lock is a no-op.
func (l *RunLock) Release() error {
	if !l.flock.Locked() {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}
