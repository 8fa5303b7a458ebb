// Package sqlite provides SQLite-based persistent storage for clickquest.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/clickquest/clickquest/internal/infra/metrics"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DBFile is the database file name inside the data directory.
const DBFile = "clickquest.db"

// DB wraps a SQLite connection with WAL mode and migrations.
// Read methods come from the embedded store; writes that touch more than
// one aggregate go through InTx.
type DB struct {
	store
	db *sqlx.DB

	maxRetries uint64
	onRetry    func(err error, wait time.Duration)
}

// Tx is a single SQLite transaction exposing the same repository methods.
type Tx struct {
	store
}

// Open creates or opens the SQLite database at dir/clickquest.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, DBFile)
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	d := &DB{store: store{q: db}, db: db, maxRetries: 5}
	if err := d.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	// SQLite is single-writer. Code running inside InTx must only use the
	// Tx it is handed, never the DB, or it waits on its own connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// SetRetryHook registers a callback invoked before a busy transaction is retried.
func (d *DB) SetRetryHook(fn func(err error, wait time.Duration)) {
	d.onRetry = fn
}

// migrate applies the embedded goose migrations.
func (d *DB) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations dir: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, d.db.DB, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// InTx runs fn inside one transaction. Either every write fn makes is
// committed or none is. Busy/locked failures re-run the whole of fn with
// exponential backoff; any other error is returned as-is.
func (d *DB) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond

	op := func() error {
		err := d.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		if isBusy(err) {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		metrics.TxRetries.Inc()
		if d.onRetry != nil {
			d.onRetry(err, wait)
		}
	}

	return backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(b, d.maxRetries), ctx), notify)
}

func (d *DB) runTx(ctx context.Context, fn func(tx *Tx) error) (err error) {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&Tx{store: store{q: tx}}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// isBusy reports whether err is SQLite lock contention worth retrying.
func isBusy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "sqlite_busy") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "sqlite_locked")
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// store holds the repository methods shared by DB and Tx.
type store struct {
	q sqlx.ExtContext
}

func unixOrZero(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0)
}
