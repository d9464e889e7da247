// Package storage defines the persistence interface for the ingestion journal.
package storage

import (
	"context"

	"github.com/shastralib/granthalaya/internal/models"
)

// Journal records the outcome of every ingestion attempt, successful or not.
// The journal is an audit trail: rows are only ever inserted.
type Journal interface {
	// Record appends one ingestion outcome.
	Record(ctx context.Context, rec *models.IngestionRecord) error

	// Get returns a single record by ingestion ID.
	Get(ctx context.Context, id string) (*models.IngestionRecord, error)

	// List returns the most recent records, newest first.
	List(ctx context.Context, limit int) ([]*models.IngestionRecord, error)

	// Counts aggregates all records by status.
	Counts(ctx context.Context) (models.IngestionCounts, error)

	Close() error
}
