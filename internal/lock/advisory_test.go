package lock

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	getLockQuery     = `SELECT GET_LOCK\(\?, \?\)`
	releaseLockQuery = `SELECT RELEASE_LOCK\(\?\)`
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func lockRows(v interface{}) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"result"}).AddRow(v)
}

func TestGenerateExportLockName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "corner_shop", "visitexport:export:corner_shop"},
		{"spaces", "corner shop", "visitexport:export:corner_shop"},
		{"dash kept", "north-region", "visitexport:export:north-region"},
		{"quotes and separators", "a'b/c;d", "visitexport:export:a_b_c_d"},
		{"empty", "", "visitexport:export:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GenerateExportLockName(tt.input))
		})
	}
}

func TestNewExportLock(t *testing.T) {
	db, _ := newMockDB(t)

	lock := NewExportLock(db, "corner shop")
	assert.Equal(t, "visitexport:export:corner_shop", lock.Name())
	assert.False(t, lock.IsHeld())
}

func TestAdvisoryLock_AcquireAndRelease(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(getLockQuery).WithArgs("visitexport:export:x", TimeoutShort).WillReturnRows(lockRows(1))
	mock.ExpectQuery(releaseLockQuery).WithArgs("visitexport:export:x").WillReturnRows(lockRows(1))

	lock := NewExportLock(db, "x")
	require.NoError(t, lock.AcquireOrFail(context.Background()))
	assert.True(t, lock.IsHeld())

	released, err := lock.ReleaseLock(context.Background())
	require.NoError(t, err)
	assert.True(t, released)
	assert.False(t, lock.IsHeld())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvisoryLock_AcquireLock_AlreadyHeld(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(getLockQuery).WillReturnRows(lockRows(1))

	lock := NewAdvisoryLock(db, "held")
	acquired, err := lock.AcquireLock(context.Background(), TimeoutImmediate)
	require.NoError(t, err)
	require.True(t, acquired)

	// Second call must not hit the database again.
	acquired, err = lock.AcquireLock(context.Background(), TimeoutImmediate)
	require.NoError(t, err)
	assert.True(t, acquired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvisoryLock_AcquireOrFail_Timeout(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(getLockQuery).WillReturnRows(lockRows(0))

	lock := NewExportLock(db, "busy")
	err := lock.AcquireOrFail(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLockTimeout))
	assert.Contains(t, err.Error(), "visitexport:export:busy")
	assert.False(t, lock.IsHeld())
}

func TestAdvisoryLock_AcquireLock_NullResult(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(getLockQuery).WillReturnRows(lockRows(nil))

	acquired, err := NewAdvisoryLock(db, "n").AcquireLock(context.Background(), TimeoutShort)
	assert.False(t, acquired)
	assert.ErrorContains(t, err, "returned NULL")
}

func TestAdvisoryLock_AcquireLock_QueryError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(getLockQuery).WillReturnError(errors.New("connection reset"))

	acquired, err := NewAdvisoryLock(db, "e").AcquireLock(context.Background(), TimeoutShort)
	assert.False(t, acquired)
	assert.ErrorContains(t, err, "connection reset")
	assert.False(t, errors.Is(err, ErrLockTimeout))
}

func TestAdvisoryLock_AcquireLock_NilDatabase(t *testing.T) {
	acquired, err := NewAdvisoryLock(nil, "nodb").AcquireLock(context.Background(), TimeoutShort)
	assert.False(t, acquired)
	assert.Error(t, err)
}

func TestAdvisoryLock_ReleaseLock_NotHeld(t *testing.T) {
	db, mock := newMockDB(t)

	released, err := NewAdvisoryLock(db, "idle").ReleaseLock(context.Background())
	require.NoError(t, err)
	assert.False(t, released)
	assert.NoError(t, NewAdvisoryLock(db, "idle").Release(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvisoryLock_ReleaseLock_NullResult(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(getLockQuery).WillReturnRows(lockRows(1))
	mock.ExpectQuery(releaseLockQuery).WillReturnRows(lockRows(nil))

	lock := NewAdvisoryLock(db, "gone")
	require.NoError(t, lock.AcquireOrFail(context.Background()))

	released, err := lock.ReleaseLock(context.Background())
	assert.False(t, released)
	assert.ErrorContains(t, err, "did not exist")
	assert.False(t, lock.IsHeld())
}

func TestIsExportRunning(t *testing.T) {
	t.Run("not running", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(getLockQuery).WithArgs("visitexport:export:daily", TimeoutImmediate).WillReturnRows(lockRows(1))
		mock.ExpectQuery(releaseLockQuery).WillReturnRows(lockRows(1))

		running, err := IsExportRunning(context.Background(), db, "daily")
		require.NoError(t, err)
		assert.False(t, running)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("running", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(getLockQuery).WillReturnRows(lockRows(0))

		running, err := IsExportRunning(context.Background(), db, "daily")
		require.NoError(t, err)
		assert.True(t, running)
	})

	t.Run("database error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(getLockQuery).WillReturnError(errors.New("boom"))

		_, err := IsExportRunning(context.Background(), db, "daily")
		assert.ErrorContains(t, err, `export "daily"`)
	})
}

func TestWithLock(t *testing.T) {
	t.Run("runs and releases", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(getLockQuery).WillReturnRows(lockRows(1))
		mock.ExpectQuery(releaseLockQuery).WillReturnRows(lockRows(1))

		lock := NewExportLock(db, "w")
		called := false
		err := WithLock(context.Background(), lock, func() error {
			called = true
			assert.True(t, lock.IsHeld())
			return nil
		})

		require.NoError(t, err)
		assert.True(t, called)
		assert.False(t, lock.IsHeld())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(getLockQuery).WillReturnRows(lockRows(1))
		mock.ExpectQuery(releaseLockQuery).WillReturnRows(lockRows(1))

		errExport := errors.New("export failed")
		err := WithLock(context.Background(), NewExportLock(db, "w"), func() error {
			return errExport
		})
		assert.ErrorIs(t, err, errExport)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("releases on panic", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(getLockQuery).WillReturnRows(lockRows(1))
		mock.ExpectQuery(releaseLockQuery).WillReturnRows(lockRows(1))

		lock := NewExportLock(db, "p")
		assert.Panics(t, func() {
			_ = WithLock(context.Background(), lock, func() error {
				panic("boom")
			})
		})
		assert.False(t, lock.IsHeld())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("does not run when busy", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(getLockQuery).WillReturnRows(lockRows(0))

		called := false
		err := WithLock(context.Background(), NewExportLock(db, "b"), func() error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, ErrLockTimeout)
		assert.False(t, called)
	})
}
