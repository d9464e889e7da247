// Package storage provides the SQLite implementation of the Journal interface.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/shastralib/granthalaya/internal/models"
)

// SQLiteJournal implements Journal using SQLite.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteJournal{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS ingestions (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		status TEXT NOT NULL,
		chapters INTEGER NOT NULL DEFAULT 0,
		verses INTEGER NOT NULL DEFAULT 0,
		error_count INTEGER NOT NULL DEFAULT 0,
		detail TEXT NOT NULL DEFAULT '',
		raw_path TEXT NOT NULL DEFAULT '',
		normalized_path TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ingestions_status ON ingestions(status);
	CREATE INDEX IF NOT EXISTS idx_ingestions_started_at ON ingestions(started_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Record appends one ingestion outcome.
func (s *SQLiteJournal) Record(ctx context.Context, rec *models.IngestionRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingestions (id, source, status, chapters, verses, error_count,
		                         detail, raw_path, normalized_path, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Source, rec.Status, rec.Chapters, rec.Verses, rec.ErrorCount,
		rec.Detail, rec.RawPath, rec.NormalizedPath, rec.StartedAt, rec.FinishedAt,
	)
	return err
}

// Get returns a single record by ingestion ID.
func (s *SQLiteJournal) Get(ctx context.Context, id string) (*models.IngestionRecord, error) {
	var rec models.IngestionRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, status, chapters, verses, error_count,
		        detail, raw_path, normalized_path, started_at, finished_at
		 FROM ingestions WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Source, &rec.Status, &rec.Chapters, &rec.Verses, &rec.ErrorCount,
		&rec.Detail, &rec.RawPath, &rec.NormalizedPath, &rec.StartedAt, &rec.FinishedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("ingestion not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns the most recent records, newest first.
func (s *SQLiteJournal) List(ctx context.Context, limit int) ([]*models.IngestionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, status, chapters, verses, error_count,
		        detail, raw_path, normalized_path, started_at, finished_at
		 FROM ingestions ORDER BY started_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.IngestionRecord
	for rows.Next() {
		var rec models.IngestionRecord
		if err := rows.Scan(&rec.ID, &rec.Source, &rec.Status, &rec.Chapters, &rec.Verses, &rec.ErrorCount,
			&rec.Detail, &rec.RawPath, &rec.NormalizedPath, &rec.StartedAt, &rec.FinishedAt); err != nil {
			return nil, err
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// Counts aggregates all records by status.
func (s *SQLiteJournal) Counts(ctx context.Context) (models.IngestionCounts, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM ingestions GROUP BY status`,
	)
	if err != nil {
		return models.IngestionCounts{}, err
	}
	defer rows.Close()

	var counts models.IngestionCounts
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return models.IngestionCounts{}, err
		}
		counts.Total += n
		switch status {
		case models.IngestionAccepted:
			counts.Accepted = n
		case models.IngestionRejected:
			counts.Rejected = n
		case models.IngestionFailed:
			counts.Failed = n
		case models.IngestionPartial:
			counts.Partial = n
		}
	}
	return counts, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteJournal) Close() error {
	return s.db.Close()
}
