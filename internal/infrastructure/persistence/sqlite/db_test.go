package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	conn, err := sqlx.Open("sqlite3", "file::memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Exec(`CREATE TABLE residents (user_id TEXT PRIMARY KEY, room TEXT)`)
	require.NoError(t, err)

	db := NewDB(conn, zap.NewNop())
	db.backoff = 0
	return db
}

func countResidents(t *testing.T, db *DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM residents`))
	return n
}

func TestWithTransaction_CommitAndRollback(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.WithTransaction(ctx, func(ctx context.Context) error {
		assert.True(t, InTransaction(ctx))
		_, err := db.Executor(ctx).ExecContext(ctx, `INSERT INTO residents VALUES ('r-1', 'A-101')`)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countResidents(t, db))

	err = db.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := db.Executor(ctx).ExecContext(ctx, `INSERT INTO residents VALUES ('r-2', 'A-102')`); err != nil {
			return err
		}
		return errors.New("roster rejected")
	})
	assert.EqualError(t, err, "roster rejected")
	assert.Equal(t, 1, countResidents(t, db))
	assert.False(t, InTransaction(ctx))
}

func TestWithTransaction_NestedJoinsOuter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.WithTransaction(ctx, func(outer context.Context) error {
		if err := db.WithTransaction(outer, func(inner context.Context) error {
			assert.Same(t, txFrom(outer), txFrom(inner))
			_, err := db.Executor(inner).ExecContext(inner, `INSERT INTO residents VALUES ('r-3', 'B-1')`)
			return err
		}); err != nil {
			return err
		}
		return fmt.Errorf("outer failed")
	})
	require.Error(t, err)
	assert.Equal(t, 0, countResidents(t, db), "inner work rolls back with the outer transaction")
}

func TestWithTransaction_PanicRollsBack(t *testing.T) {
	db := newTestDB(t)

	assert.Panics(t, func() {
		_ = db.WithTransaction(context.Background(), func(ctx context.Context) error {
			_, _ = db.Executor(ctx).ExecContext(ctx, `INSERT INTO residents VALUES ('r-4', 'C-1')`)
			panic("boom")
		})
	})
	assert.Equal(t, 0, countResidents(t, db))
}

func TestWithTransaction_RetriesWhenBusy(t *testing.T) {
	db := newTestDB(t)
	busy := sqlite3.Error{Code: sqlite3.ErrBusy}

	calls := 0
	err := db.WithTransaction(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return fmt.Errorf("insert resident: %w", busy)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = db.WithTransaction(context.Background(), func(ctx context.Context) error {
		calls++
		return busy
	})
	assert.True(t, IsBusy(err))
	assert.Equal(t, busyAttempts, calls)
}

func TestIsBusy(t *testing.T) {
	assert.True(t, IsBusy(sqlite3.Error{Code: sqlite3.ErrLocked}))
	assert.False(t, IsBusy(sqlite3.Error{Code: sqlite3.ErrConstraint}))
	assert.False(t, IsBusy(errors.New("busy")))
	assert.False(t, IsBusy(nil))
}
