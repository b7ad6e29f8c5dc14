// Package sqlite provides SQLite-based persistent storage for sidekick's
// launch history. Uses WAL mode so the launcher, the watcher and the API
// can append concurrently from separate processes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/sidekick-screensaver/sidekick/internal/domain"
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the SQLite database at dir/state.db.
// Enables WAL mode and a 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "state.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{db: db, now: time.Now}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

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

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id         TEXT PRIMARY KEY,
			kind       TEXT NOT NULL,
			widget     TEXT NOT NULL DEFAULT '',
			pid        INTEGER NOT NULL DEFAULT 0,
			detail     TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_created ON events(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind)`,

		// Small key-value table for "last seen" markers.
		`CREATE TABLE IF NOT EXISTS state (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Event Repository ───────────────────────────────────────────────────────

// RecordEvent appends ev to the history. Missing IDs and timestamps are
// filled in.
func (d *DB) RecordEvent(ctx context.Context, ev domain.Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = d.now()
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO events (id, kind, widget, pid, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, string(ev.Kind), ev.Widget, ev.PID, ev.Detail, ev.CreatedAt.UnixMilli(),
	)
	return err
}

// ListEvents returns up to limit events, newest first. An empty kind
// returns every kind.
func (d *DB) ListEvents(ctx context.Context, kind domain.EventKind, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, kind, widget, pid, detail, created_at
		 FROM events
		 WHERE (? = '' OR kind = ?)
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		string(kind), string(kind), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

// LastEvent returns the most recent event of the given kind, or nil.
func (d *DB) LastEvent(ctx context.Context, kind domain.EventKind) (*domain.Event, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT id, kind, widget, pid, detail, created_at
		 FROM events WHERE kind = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT 1`, string(kind),
	)
	return scanEvent(row)
}

// CountEvents returns the number of events per kind.
func (d *DB) CountEvents(ctx context.Context) (map[domain.EventKind]int, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM events GROUP BY kind`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.EventKind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[domain.EventKind(kind)] = n
	}
	return counts, rows.Err()
}

// PruneEvents deletes events older than the given age and returns how many
// were removed.
func (d *DB) PruneEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := d.now().Add(-olderThan).UnixMilli()
	result, err := d.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ─── State ──────────────────────────────────────────────────────────────────

// SetState stores a key-value pair.
func (d *DB) SetState(ctx context.Context, key, value string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, value,
	)
	return err
}

// GetState retrieves a value, or "" when the key is unset.
func (d *DB) GetState(ctx context.Context, key string) (string, error) {
	var value string
	err := d.db.QueryRowContext(ctx, `SELECT value FROM state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (*domain.Event, error) {
	var ev domain.Event
	var kind string
	var createdAt int64

	err := s.Scan(&ev.ID, &kind, &ev.Widget, &ev.PID, &ev.Detail, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil // Not found, no error
	}
	if err != nil {
		return nil, err
	}

	ev.Kind = domain.EventKind(kind)
	ev.CreatedAt = time.UnixMilli(createdAt)
	return &ev, nil
}
