// Package filelock guards an output directory against concurrent export runs
// and writes generated files atomically.
package filelock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is the lock file created inside a locked output directory.
const LockFileName = ".cadbatch.lock"

// ErrLocked is returned when another process already holds the lock.
var ErrLocked = errors.New("output directory is in use by another export run")

// DirLock is an exclusive, non-blocking lock on an output directory.
type DirLock struct {
	flock *flock.Flock
	dir   string
}

// LockDir creates dir if needed and takes its lock without waiting.
// It fails with ErrLocked while another run holds the lock.
func LockDir(dir string) (*DirLock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	fl := flock.New(filepath.Join(dir, LockFileName))
	acquired, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to try lock on %s: %w", dir, err)
	}
	if !acquired {
		return nil, fmt.Errorf("%s: %w", dir, ErrLocked)
	}
	return &DirLock{flock: fl, dir: dir}, nil
}

// Dir returns the locked directory.
func (l *DirLock) Dir() string {
	return l.dir
}

// Unlock releases the lock and removes the lock file. Unlocking twice is a
// no-op.
func (l *DirLock) Unlock() error {
	if !l.flock.Locked() {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", l.dir, err)
	}
	// Another run may already have re-created the file; losing the race
	// only leaves an unlocked file behind.
	_ = os.Remove(l.flock.Path())
	return nil
}

// AtomicWrite writes data to path through a temp file in the same directory
// and a rename, so readers never see a partial file. Parent directories are
// created as needed; on failure an existing file is left untouched.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	committed := false
	defer func() {
		if !committed {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	committed = true
	return nil
}
