// Package store is the transactional layer over the shared SQLite database.
// The database file is the sole coordination point between workers: it is
// the task queue, the per-video state machine, and the report log at once.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const (
	busyBackoffBase  = 25 * time.Millisecond
	busyBackoffScale = 1.618
	busyBackoffCap   = 1 * time.Second
	busyBudget       = 30 * time.Second
)

// Store owns the SQLite handle. All operations are safe for concurrent use;
// writers are serialized by SQLite itself, and transient busy errors are
// retried internally before surfacing ErrUnavailable.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path, applies the
// connection pragmas, and runs pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", pragma, err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("store opened", "path", path)
	return s, nil
}

// OpenWithRetry calls Open up to retries times with golden-ratio backoff.
// Worker daemons use this at startup so they survive a database file that
// lives on storage still coming up.
func OpenWithRetry(ctx context.Context, path string, retries int) (*Store, error) {
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for i := 0; i < retries; i++ {
		s, err := Open(ctx, path)
		if err == nil {
			return s, nil
		}
		lastErr = err

		backoff := time.Duration(float64(busyBackoffBase*40) * math.Pow(busyBackoffScale, float64(i)))
		slog.Warn("store open failed, retrying", "error", err, "backoff", backoff)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return nil, fmt.Errorf("store: open after %d attempts: %w", retries, lastErr)
}

// migrate runs the embedded goose migrations up to the latest version.
func (s *Store) migrate(ctx context.Context) error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("store: set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the raw handle for migration tooling.
func (s *Store) DB() *sql.DB { return s.db }

// withRetry runs op, retrying transient busy/locked errors with bounded
// exponential backoff (cap ~1s, total budget ~30s). Any other error is
// returned as-is; an exhausted budget surfaces ErrUnavailable.
func (s *Store) withRetry(ctx context.Context, op func() error) error {
	deadline := time.Now().Add(busyBudget)
	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = op()
		if !isBusy(lastErr) {
			return lastErr
		}
		if time.Now().After(deadline) {
			break
		}

		backoff := time.Duration(float64(busyBackoffBase) * math.Pow(busyBackoffScale, float64(attempt)))
		if backoff > busyBackoffCap {
			backoff = busyBackoffCap
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func nowMilli() int64 {
	return time.Now().UnixMilli()
}
