// Package audit persists tool invocation records to SQLite.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"coderd/internal/domain"

	_ "modernc.org/sqlite"
)

// Record is one persisted invocation row.
type Record struct {
	ID         int64
	TraceID    string
	Tool       string
	Success    bool
	Kind       string
	Error      string
	DurationMS int64
	CreatedAt  time.Time
}

// Store writes invocation events to SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewStore(dbPath string, logger *slog.Logger) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db, logger: logger}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS invocations (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		trace_id    TEXT NOT NULL,
		tool_name   TEXT NOT NULL,
		success     INTEGER NOT NULL,
		error_kind  TEXT,
		error       TEXT,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_invocations_time ON invocations(created_at);
	CREATE INDEX IF NOT EXISTS idx_invocations_tool ON invocations(tool_name);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Insert records one invocation event.
func (s *Store) Insert(ctx context.Context, ev domain.InvocationEvent) error {
	success := 0
	if ev.Success {
		success = 1
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invocations (trace_id, tool_name, success, error_kind, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.TraceID, ev.Tool, success, string(ev.Kind), ev.Error, ev.Duration.Milliseconds(), at,
	)
	return err
}

// Recent returns the newest records, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, trace_id, tool_name, success, error_kind, error, duration_ms, created_at
		 FROM invocations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var success int
		if err := rows.Scan(&r.ID, &r.TraceID, &r.Tool, &success, &r.Kind, &r.Error, &r.DurationMS, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Success = success != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// Consume drains events from ch until it closes, recording each one.
// Run it on its own goroutine; it returns when the bus shuts down.
func (s *Store) Consume(ch <-chan domain.InvocationEvent) {
	for ev := range ch {
		if err := s.Insert(context.Background(), ev); err != nil {
			s.logger.Error("failed to record invocation",
				"tool", ev.Tool, "trace_id", ev.TraceID, "error", err)
		}
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}
