package lock

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLockPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/out", ".corner_shop.lock"), FileLockPath("/out", "corner shop"))
}

func TestFileLock_AcquireAndRelease(t *testing.T) {
	dir := t.TempDir()
	lock := NewFileLock(dir, "daily")

	require.NoError(t, lock.AcquireOrFail(context.Background()))
	assert.True(t, lock.IsHeld())
	assert.Equal(t, FileLockPath(dir, "daily"), lock.Name())

	// Re-acquiring a held lock is a no-op.
	require.NoError(t, lock.AcquireOrFail(context.Background()))

	require.NoError(t, lock.Release(context.Background()))
	assert.False(t, lock.IsHeld())

	// Releasing twice is harmless.
	assert.NoError(t, lock.Release(context.Background()))
}

func TestFileLock_Contention(t *testing.T) {
	dir := t.TempDir()
	first := NewFileLock(dir, "daily")
	second := NewFileLock(dir, "daily")
	second.timeout = 100 * time.Millisecond

	require.NoError(t, first.AcquireOrFail(context.Background()))
	defer first.Release(context.Background())

	err := second.AcquireOrFail(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.False(t, second.IsHeld())

	require.NoError(t, first.Release(context.Background()))
	assert.NoError(t, second.AcquireOrFail(context.Background()))
	assert.NoError(t, second.Release(context.Background()))
}

func TestFileLock_DifferentExportsIndependent(t *testing.T) {
	dir := t.TempDir()
	a := NewFileLock(dir, "a")
	b := NewFileLock(dir, "b")

	require.NoError(t, a.AcquireOrFail(context.Background()))
	require.NoError(t, b.AcquireOrFail(context.Background()))
	assert.NoError(t, a.Release(context.Background()))
	assert.NoError(t, b.Release(context.Background()))
}

func TestFileLock_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	holder := NewFileLock(dir, "c")
	require.NoError(t, holder.AcquireOrFail(context.Background()))
	defer holder.Release(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewFileLock(dir, "c").AcquireOrFail(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLockTimeout)
}

func TestWithLock_FileLock(t *testing.T) {
	dir := t.TempDir()
	lock := NewFileLock(dir, "w")

	err := WithLock(context.Background(), lock, func() error {
		assert.True(t, lock.IsHeld())
		return nil
	})
	require.NoError(t, err)
	assert.False(t, lock.IsHeld())
}
