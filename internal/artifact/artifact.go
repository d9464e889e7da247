// Package artifact persists ingestion outputs on disk: an append-only raw
// archive of every accepted submission and a single normalized scripture
// document at a fixed, atomically replaced path.
package artifact

import "errors"

// ErrNotFound reports that no normalized scripture has been persisted yet.
var ErrNotFound = errors.New("normalized scripture not found")

// Store is the persistence contract the ingestion pipeline writes through
// and the library reads through.
type Store interface {
	// WriteRaw archives one accepted submission under its ingestion ID.
	// Raw artifacts are immutable: writing an existing ID fails.
	WriteRaw(id string, data []byte) (string, error)

	// WriteNormalized replaces the normalized scripture document in one
	// atomic step. Readers never observe a partial document.
	WriteNormalized(data []byte) (string, error)

	// ReadNormalized returns the current normalized document, or ErrNotFound
	// if nothing has been ingested.
	ReadNormalized() ([]byte, error)

	// NormalizedPath is the fixed location of the normalized document.
	NormalizedPath() string

	// UsageBytes reports the total size of all stored artifacts.
	UsageBytes() (int64, error)
}
