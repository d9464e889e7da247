// Package ingest implements the scripture ingestion workflow: validate the
// submission, archive the accepted document, normalize, persist, journal the
// outcome, and notify read-side listeners.
package ingest

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/shastralib/granthalaya/internal/artifact"
	"github.com/shastralib/granthalaya/internal/models"
	"github.com/shastralib/granthalaya/internal/schema"
	"github.com/shastralib/granthalaya/internal/shastra"
	"github.com/shastralib/granthalaya/internal/storage"
)

// Persistence stages reported by PersistError.
const (
	StageRaw        = "raw"
	StageNormalized = "normalized"
)

// RejectedError reports structural validation failure. Nothing was written;
// Errors lists every finding in document order.
type RejectedError struct {
	Errors []schema.Error
}

func (e *RejectedError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("document rejected: %s", e.Errors[0])
	}
	return fmt.Sprintf("document rejected: %d findings, first: %s", len(e.Errors), e.Errors[0])
}

// PersistError reports an artifact write failure. Stage distinguishes a clean
// failure (raw: nothing stored) from the partial window where the raw archive
// grew but the normalized document was not replaced.
type PersistError struct {
	Stage   string
	RawPath string
	Err     error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persistence failed at %s artifact: %v", e.Stage, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Pipeline runs ingestions one at a time. The mutex serializes writers so the
// raw archive, the normalized document, and the journal always advance
// together.
type Pipeline struct {
	store   artifact.Store
	journal storage.Journal
	logger  *zap.Logger

	mu    sync.Mutex
	hooks []func(*models.NormalizedScripture)
}

// New creates a Pipeline writing through store and journal.
func New(store artifact.Store, journal storage.Journal, logger *zap.Logger) *Pipeline {
	return &Pipeline{store: store, journal: journal, logger: logger}
}

// OnPersisted registers fn to run after each successful ingestion, before the
// next one can start. Register hooks during wiring, not while ingesting.
func (p *Pipeline) OnPersisted(fn func(*models.NormalizedScripture)) {
	p.hooks = append(p.hooks, fn)
}

// Ingest runs one submission through the full workflow. On success it returns
// a summary with counts and both artifact locations. On failure the error is
// a *RejectedError (structural findings, nothing written) or a *PersistError
// (artifact write failed); either way the journal records the attempt.
func (p *Pipeline) Ingest(ctx context.Context, source string, data []byte) (*models.Summary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := newIngestionID()
	started := time.Now().UTC()

	res := shastra.ValidateBytes(data)
	if !res.OK {
		p.journalOutcome(ctx, &models.IngestionRecord{
			ID:         id,
			Source:     source,
			Status:     models.IngestionRejected,
			ErrorCount: len(res.Errors),
			Detail:     res.Errors[0].Error(),
			StartedAt:  started,
			FinishedAt: time.Now().UTC(),
		})
		if p.logger != nil {
			p.logger.Info("Ingestion rejected",
				zap.String("id", id),
				zap.String("source", source),
				zap.Int("findings", len(res.Errors)))
		}
		return nil, &RejectedError{Errors: res.Errors}
	}

	accepted, err := shastra.MarshalCanonical(res.Doc)
	if err != nil {
		return nil, p.fail(ctx, id, source, started, &PersistError{Stage: StageRaw, Err: err})
	}
	rawPath, err := p.store.WriteRaw(id, accepted)
	if err != nil {
		return nil, p.fail(ctx, id, source, started, &PersistError{Stage: StageRaw, Err: err})
	}

	normalized := shastra.Normalize(res.Doc)
	payload, err := shastra.MarshalCanonical(normalized)
	if err != nil {
		return nil, p.fail(ctx, id, source, started, &PersistError{Stage: StageNormalized, RawPath: rawPath, Err: err})
	}
	normalizedPath, err := p.store.WriteNormalized(payload)
	if err != nil {
		return nil, p.fail(ctx, id, source, started, &PersistError{Stage: StageNormalized, RawPath: rawPath, Err: err})
	}

	summary := &models.Summary{
		ID:             id,
		Chapters:       len(normalized.Chapters),
		Verses:         normalized.VerseCount(),
		RawPath:        rawPath,
		NormalizedPath: normalizedPath,
	}
	p.journalOutcome(ctx, &models.IngestionRecord{
		ID:             id,
		Source:         source,
		Status:         models.IngestionAccepted,
		Chapters:       summary.Chapters,
		Verses:         summary.Verses,
		RawPath:        rawPath,
		NormalizedPath: normalizedPath,
		StartedAt:      started,
		FinishedAt:     time.Now().UTC(),
	})
	if p.logger != nil {
		p.logger.Info("Scripture ingested",
			zap.String("id", id),
			zap.String("source", source),
			zap.Int("chapters", summary.Chapters),
			zap.Int("verses", summary.Verses))
	}

	for _, fn := range p.hooks {
		fn(normalized)
	}
	return summary, nil
}

// fail journals a persistence failure and returns perr. A raw-stage failure is
// a clean miss; a normalized-stage failure leaves the partial window the
// journal exists to expose.
func (p *Pipeline) fail(ctx context.Context, id, source string, started time.Time, perr *PersistError) error {
	status := models.IngestionFailed
	if perr.Stage == StageNormalized {
		status = models.IngestionPartial
	}
	p.journalOutcome(ctx, &models.IngestionRecord{
		ID:         id,
		Source:     source,
		Status:     status,
		Detail:     perr.Error(),
		RawPath:    perr.RawPath,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	})
	if p.logger != nil {
		p.logger.Error("Ingestion persistence failed",
			zap.String("id", id),
			zap.String("source", source),
			zap.String("stage", perr.Stage),
			zap.Error(perr.Err))
	}
	return perr
}

// journalOutcome records the attempt. The journal is an audit trail, not a
// gate: a record failure is logged and the ingestion outcome stands.
func (p *Pipeline) journalOutcome(ctx context.Context, rec *models.IngestionRecord) {
	if err := p.journal.Record(ctx, rec); err != nil && p.logger != nil {
		p.logger.Warn("Failed to journal ingestion",
			zap.String("id", rec.ID),
			zap.String("status", rec.Status),
			zap.Error(err))
	}
}

func newIngestionID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
