package models

import "time"

// Ingestion statuses recorded in the journal.
const (
	IngestionAccepted = "accepted"
	IngestionRejected = "rejected"
	IngestionFailed   = "failed"
	IngestionPartial  = "partial"
)

// IngestionRecord is one journal row: the audit record of a single ingestion
// attempt. Partial means the raw artifact was written but the normalized
// artifact was not, the inconsistency window monitoring watches for.
type IngestionRecord struct {
	ID             string    `json:"id"`
	Source         string    `json:"source"`
	Status         string    `json:"status"`
	Chapters       int       `json:"chapters"`
	Verses         int       `json:"verses"`
	ErrorCount     int       `json:"error_count"`
	Detail         string    `json:"detail,omitempty"`
	RawPath        string    `json:"raw_path,omitempty"`
	NormalizedPath string    `json:"normalized_path,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

// IngestionCounts aggregates journal rows by status.
type IngestionCounts struct {
	Total    int64 `json:"total"`
	Accepted int64 `json:"accepted"`
	Rejected int64 `json:"rejected"`
	Failed   int64 `json:"failed"`
	Partial  int64 `json:"partial"`
}

// Summary is what a successful ingestion reports back: counts computed from
// map sizes plus the two artifact locations.
type Summary struct {
	ID             string `json:"id"`
	Chapters       int    `json:"chapters"`
	Verses         int    `json:"verses"`
	RawPath        string `json:"raw_path"`
	NormalizedPath string `json:"normalized_path"`
}
