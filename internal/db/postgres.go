package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDB stores runs in Postgres
type PostgresDB struct {
	pool *pgxpool.Pool
}

// ConnectPostgres opens a connection pool and checks it
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresDB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Connected to Postgres database")
	return &PostgresDB{pool: pool}, nil
}

// Close closes the pool
func (p *PostgresDB) Close() error {
	p.pool.Close()
	return nil
}

// Ping checks the connection
func (p *PostgresDB) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// EnsureSchema creates tables if they don't exist. The SQLite schema is
// portable to Postgres.
func (p *PostgresDB) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	log.Println("Database schema ensured (from embedded schema.sql)")
	return nil
}

// RecordRun stores a run and its line fetches in one transaction
func (p *PostgresDB) RecordRun(ctx context.Context, run *Run) error {
	if run.RunID == "" {
		run.RunID = NewRunID()
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO vl_runs (run_id, started_at, finished_at, lines_requested,
			lines_loaded, feature_count, composite_icon_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, run.RunID, formatTime(run.StartedAt), formatTime(run.FinishedAt),
		run.LinesRequested, run.LinesLoaded, run.FeatureCount, run.CompositeIconCount)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.RunID, err)
	}

	batch := &pgx.Batch{}
	for _, l := range run.Lines {
		batch.Queue(`
			INSERT INTO vl_run_lines (run_id, line, status, feature_count, total_meters, error)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, run.RunID, l.Line, l.Status, l.FeatureCount, l.TotalMeters, nullableError(l.Error))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert lines of run %s: %w", run.RunID, err)
	}

	return tx.Commit(ctx)
}

// RecentRuns returns the latest runs, newest first, with their line fetches
func (p *PostgresDB) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := p.pool.Query(ctx, `
		SELECT run_id, started_at, finished_at, lines_requested, lines_loaded,
			feature_count, composite_icon_count
		FROM vl_runs
		ORDER BY started_at DESC, run_id
		LIMIT $1
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
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}

	for i := range runs {
		lines, err := p.runLines(ctx, runs[i].RunID)
		if err != nil {
			return nil, err
		}
		runs[i].Lines = lines
	}
	return runs, nil
}

func (p *PostgresDB) runLines(ctx context.Context, runID string) ([]LineFetch, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT line, status, feature_count, total_meters, error
		FROM vl_run_lines
		WHERE run_id = $1
		ORDER BY line
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines of run %s: %w", runID, err)
	}
	defer rows.Close()

	var lines []LineFetch
	for rows.Next() {
		var l LineFetch
		var errText *string
		if err := rows.Scan(&l.Line, &l.Status, &l.FeatureCount, &l.TotalMeters, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan line row: %w", err)
		}
		if errText != nil {
			l.Error = *errText
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// Cleanup deletes runs older than the retention duration
func (p *PostgresDB) Cleanup(ctx context.Context, retention time.Duration) error {
	cutoff := formatTime(time.Now().Add(-retention))

	tag, err := p.pool.Exec(ctx, "DELETE FROM vl_runs WHERE started_at < $1", cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup runs: %w", err)
	}
	if tag.RowsAffected() > 0 {
		log.Printf("Cleanup: deleted %d runs older than %s", tag.RowsAffected(), cutoff)
	}
	return nil
}
