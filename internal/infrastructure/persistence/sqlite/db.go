package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/port"
)

type txKeyType struct{}

var txKey txKeyType

// busyAttempts bounds how often a transaction is retried when SQLite reports
// the database as busy or locked
const busyAttempts = 3

// DB is the transaction manager the repositories share
type DB struct {
	*sqlx.DB
	logger  *zap.Logger
	backoff time.Duration
}

// NewDB creates the transaction manager on an open connection
func NewDB(sqlDB *sqlx.DB, logger *zap.Logger) *DB {
	return &DB{
		DB:      sqlDB,
		logger:  logger,
		backoff: 25 * time.Millisecond,
	}
}

// WithTransaction implements port.TransactionManager.
// Nested calls join the transaction already carried by ctx. An outermost
// transaction that fails because the database is busy is rolled back and
// run again, up to busyAttempts times.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTransaction(ctx) {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= busyAttempts; attempt++ {
		err = db.runTx(ctx, fn)
		if !IsBusy(err) || attempt == busyAttempts {
			return err
		}

		db.logger.Warn("Database busy, retrying transaction",
			zap.Int("attempt", attempt),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * db.backoff):
		}
	}
	return err
}

func (db *DB) runTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		db.logger.Error("Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			db.logger.Error("Transaction panicked, rolled back", zap.Any("panic", p))
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		db.logger.Error("Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// InTransaction reports whether ctx carries an open transaction
func InTransaction(ctx context.Context) bool {
	return txFrom(ctx) != nil
}

func txFrom(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(txKey).(*sqlx.Tx)
	return tx
}

// IsBusy reports whether err is SQLite refusing work because another
// connection holds the lock
func IsBusy(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
}

// Executor returns the transaction carried by ctx, or the database
func (db *DB) Executor(ctx context.Context) Executor {
	if tx := txFrom(ctx); tx != nil {
		return tx
	}
	return db.DB
}

// Executor covers both *sqlx.DB and *sqlx.Tx
type Executor interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

var _ port.TransactionManager = (*DB)(nil)
