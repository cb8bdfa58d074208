// Package lock keeps two visitexport runs from writing the same export at once.
package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrLockTimeout is returned when lock acquisition times out because
// another instance is holding the lock.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// Common timeout values for lock acquisition (in seconds).
const (
	// TimeoutImmediate returns immediately if lock cannot be acquired (no wait).
	TimeoutImmediate = 0

	// TimeoutShort is suitable for fast-failing duplicate export detection.
	TimeoutShort = 1
)

// Locker guards a single export.
type Locker interface {
	// AcquireOrFail takes the lock or returns an error wrapping ErrLockTimeout.
	AcquireOrFail(ctx context.Context) error
	// Release gives the lock back. Releasing a lock that is not held is a no-op.
	Release(ctx context.Context) error
	// Name identifies the lock in messages.
	Name() string
}

// AdvisoryLock is a MySQL GET_LOCK() lock. MySQL ties named locks to a
// session, so the lock pins one pooled connection from acquisition until
// release.
type AdvisoryLock struct {
	db       *sql.DB
	conn     *sql.Conn
	lockName string
	timeout  int
}

var _ Locker = (*AdvisoryLock)(nil)

// NewAdvisoryLock creates a new advisory lock with the given name.
// The lock is not acquired until AcquireLock is called.
func NewAdvisoryLock(db *sql.DB, lockName string) *AdvisoryLock {
	return &AdvisoryLock{
		db:       db,
		lockName: lockName,
		timeout:  TimeoutShort,
	}
}

// NewExportLock creates the advisory lock for a named export.
func NewExportLock(db *sql.DB, exportName string) *AdvisoryLock {
	return NewAdvisoryLock(db, GenerateExportLockName(exportName))
}

// AcquireLock attempts to acquire the advisory lock with the specified timeout.
// Returns true if the lock was acquired, false if timeout was reached.
//
// MySQL GET_LOCK() return values:
//   - 1: Lock was obtained successfully
//   - 0: Timeout was reached without obtaining the lock
//   - NULL: An error occurred (e.g., out of memory, thread killed)
func (a *AdvisoryLock) AcquireLock(ctx context.Context, timeoutSeconds int) (bool, error) {
	if a.IsHeld() {
		return true, nil
	}
	if a.db == nil {
		return false, fmt.Errorf("no database for lock %q", a.lockName)
	}

	conn, err := a.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to reserve connection for lock %q: %w", a.lockName, err)
	}

	var result sql.NullInt64
	err = conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", a.lockName, timeoutSeconds).Scan(&result)
	if err != nil {
		conn.Close()
		return false, fmt.Errorf("failed to execute GET_LOCK: %w", err)
	}
	if !result.Valid {
		conn.Close()
		return false, fmt.Errorf("GET_LOCK returned NULL for lock %q (possible database error)", a.lockName)
	}

	switch result.Int64 {
	case 1:
		a.conn = conn
		return true, nil
	case 0:
		conn.Close()
		return false, nil
	default:
		conn.Close()
		return false, fmt.Errorf("unexpected GET_LOCK return value: %d", result.Int64)
	}
}

// ReleaseLock releases the advisory lock and returns its connection to the
// pool. Returns false if the lock was not held.
//
// MySQL RELEASE_LOCK() return values:
//   - 1: Lock was released successfully
//   - 0: Lock was not established by this thread (not held)
//   - NULL: Named lock did not exist
func (a *AdvisoryLock) ReleaseLock(ctx context.Context) (bool, error) {
	if !a.IsHeld() {
		return false, nil
	}
	conn := a.conn
	a.conn = nil
	defer conn.Close()

	var result sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?)", a.lockName).Scan(&result); err != nil {
		return false, fmt.Errorf("failed to execute RELEASE_LOCK: %w", err)
	}
	if !result.Valid {
		return false, fmt.Errorf("RELEASE_LOCK returned NULL for lock %q (lock did not exist)", a.lockName)
	}

	switch result.Int64 {
	case 1:
		return true, nil
	case 0:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected RELEASE_LOCK return value: %d", result.Int64)
	}
}

// IsHeld returns true if this lock is currently held by this instance.
func (a *AdvisoryLock) IsHeld() bool {
	return a.conn != nil
}

// Name returns the name of the advisory lock.
func (a *AdvisoryLock) Name() string {
	return a.lockName
}

// AcquireOrFail acquires the lock waiting at most TimeoutShort.
// Returns ErrLockTimeout if another instance is holding the lock.
func (a *AdvisoryLock) AcquireOrFail(ctx context.Context) error {
	acquired, err := a.AcquireLock(ctx, a.timeout)
	if err != nil {
		return err
	}
	if !acquired {
		return fmt.Errorf("%w: lock %q is held by another instance", ErrLockTimeout, a.lockName)
	}
	return nil
}

// Release releases the lock, ignoring whether it was still held.
func (a *AdvisoryLock) Release(ctx context.Context) error {
	_, err := a.ReleaseLock(ctx)
	return err
}

// GenerateExportLockName creates a consistent lock name for an export.
// Lock names follow the format "visitexport:export:{exportName}".
//
// Example: GenerateExportLockName("corner shop") -> "visitexport:export:corner_shop"
func GenerateExportLockName(exportName string) string {
	return "visitexport:export:" + sanitizeLockName(exportName)
}

func sanitizeLockName(name string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, name)
}

// IsExportRunning reports whether another instance holds the export's lock.
// The check is not atomic: the state can change right after it returns.
func IsExportRunning(ctx context.Context, db *sql.DB, exportName string) (bool, error) {
	lock := NewExportLock(db, exportName)

	acquired, err := lock.AcquireLock(ctx, TimeoutImmediate)
	if err != nil {
		return false, fmt.Errorf("failed to check if export %q is running: %w", exportName, err)
	}
	if acquired {
		// Auto-released with the connection if this fails.
		_, _ = lock.ReleaseLock(ctx)
		return false, nil
	}
	return true, nil
}

// WithLock runs fn while holding l. The lock is released however fn exits,
// including by panic.
func WithLock(ctx context.Context, l Locker, fn func() error) error {
	if err := l.AcquireOrFail(ctx); err != nil {
		return err
	}

	defer func() {
		// Release on a fresh context so cancellation of ctx cannot leak the lock.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = l.Release(releaseCtx)
	}()

	return fn()
}
