// filesystem/lock.go
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrLockTimeout is returned when a bounded lock wait runs out.
var ErrLockTimeout = errors.New("timed out waiting for lock")

const lockPollInterval = 10 * time.Millisecond

// Locker serializes writers. Lock blocks until the lock is held and returns
// the function that releases it.
type Locker interface {
	Lock(ctx context.Context) (unlock func() error, err error)
}

// FileLock is an exclusive advisory lock on a file, respected by every
// process that takes the same lock. Each Lock call opens its own handle,
// so goroutines of one process exclude each other too.
type FileLock struct {
	path    string
	timeout time.Duration
}

// NewFileLock returns a lock on path. A timeout of zero waits forever.
func NewFileLock(path string, timeout time.Duration) *FileLock {
	return &FileLock{path: path, timeout: timeout}
}

// LockPath is the sidecar lock file used for a log stored at path.
func LockPath(path string) string {
	return path + ".lock"
}

func (l *FileLock) Lock(ctx context.Context) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %s: %w", l.path, err)
	}

	if err := l.acquire(ctx, f); err != nil {
		f.Close()
		return nil, err
	}

	return func() error {
		errUnlock := unlockFile(f)
		errClose := f.Close()
		if errUnlock != nil {
			return fmt.Errorf("failed to unlock %s: %w", l.path, errUnlock)
		}
		return errClose
	}, nil
}

func (l *FileLock) acquire(ctx context.Context, f *os.File) error {
	if l.timeout <= 0 {
		if err := lockFile(f); err != nil {
			return fmt.Errorf("failed to lock %s: %w", l.path, err)
		}
		return nil
	}

	deadline := time.Now().Add(l.timeout)
	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		ok, err := tryLockFile(f)
		if err != nil {
			return fmt.Errorf("failed to lock %s: %w", l.path, err)
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%s: %w", l.path, ErrLockTimeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
