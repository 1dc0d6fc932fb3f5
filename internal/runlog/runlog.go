// Package runlog persists run history in a local SQLite database.
package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"longform/internal/check"
)

// Record is one persisted run.
type Record struct {
	RunID         string
	CreatedAt     time.Time
	Instruction   string
	ChunkCount    int
	OutputLength  int
	FailedEntries int
	ElapsedMS     int64
	Metrics       *check.Metrics
}

type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			created_at TIMESTAMP,
			instruction TEXT,
			chunk_count INTEGER,
			output_length INTEGER,
			failed_entries INTEGER,
			elapsed_ms INTEGER,
			metrics JSON
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// Save inserts or replaces one run record.
func (s *Store) Save(ctx context.Context, rec Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	var metrics []byte
	if rec.Metrics != nil {
		metrics, _ = json.Marshal(rec.Metrics)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, created_at, instruction, chunk_count, output_length, failed_entries, elapsed_ms, metrics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			created_at=excluded.created_at,
			instruction=excluded.instruction,
			chunk_count=excluded.chunk_count,
			output_length=excluded.output_length,
			failed_entries=excluded.failed_entries,
			elapsed_ms=excluded.elapsed_ms,
			metrics=excluded.metrics
	`, rec.RunID, rec.CreatedAt, rec.Instruction, rec.ChunkCount, rec.OutputLength, rec.FailedEntries, rec.ElapsedMS, metrics)

	return err
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, created_at, instruction, chunk_count, output_length, failed_entries, elapsed_ms, metrics
		FROM runs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var metrics []byte
		if err := rows.Scan(&rec.RunID, &rec.CreatedAt, &rec.Instruction, &rec.ChunkCount, &rec.OutputLength, &rec.FailedEntries, &rec.ElapsedMS, &metrics); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if len(metrics) > 0 {
			var m check.Metrics
			if err := json.Unmarshal(metrics, &m); err == nil {
				rec.Metrics = &m
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
