package lock

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const fileLockRetryDelay = 50 * time.Millisecond

// FileLock is an flock(2) lock on a hidden file in the output directory.
// It guards exports when the source is a file and no database is available.
type FileLock struct {
	lock    *flock.Flock
	timeout time.Duration
}

var _ Locker = (*FileLock)(nil)

// NewFileLock creates a lock for exportName inside dir.
func NewFileLock(dir, exportName string) *FileLock {
	return &FileLock{
		lock:    flock.New(FileLockPath(dir, exportName)),
		timeout: TimeoutShort * time.Second,
	}
}

// FileLockPath returns the lock file used for exportName inside dir.
func FileLockPath(dir, exportName string) string {
	return filepath.Join(dir, "."+sanitizeLockName(exportName)+".lock")
}

// AcquireOrFail takes the lock, retrying until the lock timeout passes.
func (f *FileLock) AcquireOrFail(ctx context.Context) error {
	if f.IsHeld() {
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	locked, err := f.lock.TryLockContext(waitCtx, fileLockRetryDelay)
	if locked {
		return nil
	}
	if err != nil && (ctx.Err() != nil || !errors.Is(err, context.DeadlineExceeded)) {
		return fmt.Errorf("failed to lock %s: %w", f.lock.Path(), err)
	}
	return fmt.Errorf("%w: lock %q is held by another instance", ErrLockTimeout, f.lock.Path())
}

// Release unlocks the file. The file itself is left in place.
func (f *FileLock) Release(_ context.Context) error {
	if !f.IsHeld() {
		return nil
	}
	if err := f.lock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock %s: %w", f.lock.Path(), err)
	}
	return nil
}

// IsHeld returns true if this instance holds the lock.
func (f *FileLock) IsHeld() bool {
	return f.lock.Locked()
}

// Name returns the lock file path.
func (f *FileLock) Name() string {
	return f.lock.Path()
}
