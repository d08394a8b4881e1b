package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"stockroom/internal/apperr"
)

// ErrClosed is returned by Conn and Tx after Close.
var ErrClosed = errors.New("database is closed")

const defaultBusyTimeout = 10000

// DB owns the SQLite file. Ordinary calls borrow one connection at a time
// through Conn or Tx; Exclusive waits for them to finish, closes every
// connection and hands the bare file to its callback.
type DB struct {
	path        string
	busyTimeout int

	mu sync.RWMutex
	x  *sqlx.DB
}

// Option configures Open.
type Option func(*DB)

// WithBusyTimeout sets how long a connection waits on a locked database, in milliseconds.
func WithBusyTimeout(ms int) Option {
	return func(d *DB) {
		if ms > 0 {
			d.busyTimeout = ms
		}
	}
}

// Open opens (creating if needed) the database file at path. The parent
// directory is created when absent.
func Open(path string, opts ...Option) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path is required")
	}
	d := &DB{path: path, busyTimeout: defaultBusyTimeout}
	for _, opt := range opts {
		opt(d)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, apperr.Storage("create database directory", err)
		}
	}

	x, err := d.open()
	if err != nil {
		return nil, err
	}
	d.x = x
	return d, nil
}

func (d *DB) dsn() string {
	sep := "?"
	if strings.Contains(d.path, "?") {
		sep = "&"
	}
	return d.path + sep + fmt.Sprintf(
		"_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", d.busyTimeout)
}

func (d *DB) open() (*sqlx.DB, error) {
	x, err := sqlx.Open("sqlite", d.dsn())
	if err != nil {
		return nil, apperr.Storage("open database", err)
	}
	x.SetMaxOpenConns(4)
	x.SetMaxIdleConns(2)
	if err := x.Ping(); err != nil {
		x.Close()
		return nil, apperr.Storage("open database", err)
	}
	return x, nil
}

// Path returns the database file path.
func (d *DB) Path() string { return d.path }

// Close releases every connection. Further calls fail with ErrClosed.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.x == nil {
		return nil
	}
	err := d.x.Close()
	d.x = nil
	return err
}

// Conn runs fn on a dedicated connection and releases it on every exit path.
func (d *DB) Conn(ctx context.Context, fn func(*sqlx.Conn) error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.x == nil {
		return apperr.Storage("acquire connection", ErrClosed)
	}

	conn, err := d.x.Connx(ctx)
	if err != nil {
		return apperr.Storage("acquire connection", err)
	}
	defer conn.Close()

	return fn(conn)
}

// Tx runs fn inside a transaction on a dedicated connection. The transaction
// commits when fn returns nil and rolls back otherwise, including on panic.
func (d *DB) Tx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return d.Conn(ctx, func(conn *sqlx.Conn) (err error) {
		tx, err := conn.BeginTxx(ctx, nil)
		if err != nil {
			return apperr.Storage("begin transaction", err)
		}
		defer func() {
			if p := recover(); p != nil {
				_ = tx.Rollback()
				panic(p)
			}
		}()

		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return apperr.Storage("commit transaction", err)
		}
		return nil
	})
}

// Exclusive checkpoints the WAL, closes all connections and calls fn with the
// database file path while no statement can run. The database is reopened
// afterwards, so fn may replace the file. When the file is missing the pool
// stays open during fn and is only replaced if fn created the file; reopening
// would otherwise create an empty database in its place.
func (d *DB) Exclusive(ctx context.Context, fn func(path string) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.x != nil && fileExists(d.path) {
		if _, err := d.x.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			return apperr.Storage("checkpoint", err)
		}
		if err := d.x.Close(); err != nil {
			return apperr.Storage("close database", err)
		}
		d.x = nil
	}

	fnErr := fn(d.path)

	if d.x != nil {
		if !fileExists(d.path) {
			return fnErr
		}
		_ = d.x.Close()
		d.x = nil
	}

	x, err := d.open()
	if err != nil {
		return errors.Join(fnErr, err)
	}
	d.x = x
	return fnErr
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint failure.
func IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsForeignKeyViolation reports whether err is a FOREIGN KEY constraint failure.
func IsForeignKeyViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
