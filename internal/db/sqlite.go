package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// schemaSQL is the single source of truth for the run log schema.
//
//go:embed schema.sql
var schemaSQL string

// DB wraps a SQLite database connection with write serialization
type DB struct {
	conn    *sql.DB
	writeMu sync.Mutex // Serializes all write operations to prevent transaction conflicts
}

// Connect opens a SQLite database with WAL mode and foreign keys enabled
func Connect(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		log.Printf("Warning: failed to set synchronous mode: %v", err)
	}

	log.Printf("Connected to SQLite database: %s", dbPath)
	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the connection
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// LockWrite acquires the write mutex. Must be paired with UnlockWrite.
func (db *DB) LockWrite() {
	db.writeMu.Lock()
}

// UnlockWrite releases the write mutex.
func (db *DB) UnlockWrite() {
	db.writeMu.Unlock()
}

// EnsureSchema creates tables if they don't exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	db.LockWrite()
	defer db.UnlockWrite()

	if _, err := db.conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	log.Println("Database schema ensured (from embedded schema.sql)")
	return nil
}

// RecordRun stores a run and its line fetches in one transaction
func (db *DB) RecordRun(ctx context.Context, run *Run) error {
	if run.RunID == "" {
		run.RunID = NewRunID()
	}

	db.LockWrite()
	defer db.UnlockWrite()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO vl_runs (run_id, started_at, finished_at, lines_requested,
			lines_loaded, feature_count, composite_icon_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.RunID, formatTime(run.StartedAt), formatTime(run.FinishedAt),
		run.LinesRequested, run.LinesLoaded, run.FeatureCount, run.CompositeIconCount)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vl_run_lines (run_id, line, status, feature_count, total_meters, error)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare line statement: %w", err)
	}
	defer stmt.Close()

	for _, l := range run.Lines {
		if _, err := stmt.ExecContext(ctx, run.RunID, l.Line, l.Status, l.FeatureCount, l.TotalMeters, nullableError(l.Error)); err != nil {
			return fmt.Errorf("failed to insert line %d of run %s: %w", l.Line, run.RunID, err)
		}
	}

	return tx.Commit()
}

// RecentRuns returns the latest runs, newest first, with their line fetches
func (db *DB) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT run_id, started_at, finished_at, lines_requested, lines_loaded,
			feature_count, composite_icon_count
		FROM vl_runs
		ORDER BY started_at DESC, run_id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.RunID, &started, &finished, &r.LinesRequested, &r.LinesLoaded,
			&r.FeatureCount, &r.CompositeIconCount); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}
	rows.Close()

	for i := range runs {
		lines, err := db.runLines(ctx, runs[i].RunID)
		if err != nil {
			return nil, err
		}
		runs[i].Lines = lines
	}

	return runs, nil
}

func (db *DB) runLines(ctx context.Context, runID string) ([]LineFetch, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT line, status, feature_count, total_meters, error
		FROM vl_run_lines
		WHERE run_id = ?
		ORDER BY line
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines of run %s: %w", runID, err)
	}
	defer rows.Close()

	var lines []LineFetch
	for rows.Next() {
		var l LineFetch
		var errText sql.NullString
		if err := rows.Scan(&l.Line, &l.Status, &l.FeatureCount, &l.TotalMeters, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan line row: %w", err)
		}
		l.Error = errText.String
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// Cleanup deletes runs older than the retention duration
func (db *DB) Cleanup(ctx context.Context, retention time.Duration) error {
	cutoff := formatTime(time.Now().Add(-retention))

	db.LockWrite()
	defer db.UnlockWrite()

	if _, err := db.conn.ExecContext(ctx,
		"DELETE FROM vl_run_lines WHERE run_id IN (SELECT run_id FROM vl_runs WHERE started_at < ?)", cutoff); err != nil {
		return fmt.Errorf("failed to cleanup run lines: %w", err)
	}

	result, err := db.conn.ExecContext(ctx, "DELETE FROM vl_runs WHERE started_at < ?", cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup runs: %w", err)
	}

	if rows, _ := result.RowsAffected(); rows > 0 {
		log.Printf("Cleanup: deleted %d runs older than %s", rows, cutoff)
	}
	return nil
}
