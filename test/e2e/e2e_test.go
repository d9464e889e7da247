package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/shastralib/granthalaya/internal/artifact"
	"github.com/shastralib/granthalaya/internal/ingest"
	"github.com/shastralib/granthalaya/internal/library"
	"github.com/shastralib/granthalaya/internal/models"
	"github.com/shastralib/granthalaya/internal/schema"
	"github.com/shastralib/granthalaya/internal/search"
	"github.com/shastralib/granthalaya/internal/storage"
)

const e2eSearchLimit = 30

type stack struct {
	store    *artifact.DiskStore
	journal  storage.Journal
	index    *search.VerseIndex
	library  *library.Library
	pipeline *ingest.Pipeline
}

func newStack(t *testing.T) *stack {
	t.Helper()
	dir := t.TempDir()
	logger := zap.NewNop()

	store, err := artifact.NewDiskStore(filepath.Join(dir, "artifacts"), logger)
	if err != nil {
		t.Fatal(err)
	}

	journal, err := storage.NewSQLiteJournal(filepath.Join(dir, "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = journal.Close() })

	index, err := search.NewVerseIndex(filepath.Join(dir, "verses.bleve"), 160, 2, logger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = index.Close() })

	lib := library.New(store, logger)

	pipeline := ingest.New(store, journal, logger)
	pipeline.OnPersisted(func(doc *models.NormalizedScripture) {
		if err := index.Rebuild(context.Background(), doc); err != nil {
			t.Errorf("rebuild index: %v", err)
		}
		lib.Invalidate()
	})

	return &stack{store: store, journal: journal, index: index, library: lib, pipeline: pipeline}
}

func TestE2E_IngestAndSearchCorpus(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	corpus := BuildCorpus()

	summary, err := s.pipeline.Ingest(ctx, "e2e", corpus.Payload())
	if err != nil {
		t.Fatalf("ingest corpus: %v", err)
	}
	if summary.Chapters != corpus.TotalChapters {
		t.Errorf("summary chapters = %d, want %d", summary.Chapters, corpus.TotalChapters)
	}
	if summary.Verses != corpus.TotalVerses {
		t.Errorf("summary verses = %d, want %d", summary.Verses, corpus.TotalVerses)
	}

	count, err := s.index.DocCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != uint64(corpus.TotalVerses) {
		t.Errorf("index holds %d verses, want %d", count, corpus.TotalVerses)
	}

	t.Logf("ingested %d chapters / %d verses; running %d query cases",
		corpus.TotalChapters, corpus.TotalVerses, corpus.TotalQueries)

	for _, tc := range corpus.TestCases {
		t.Run(tc.Description, func(t *testing.T) {
			resp, err := s.index.Search(ctx, models.VerseQuery{Query: tc.Query, Limit: e2eSearchLimit})
			if err != nil {
				t.Fatalf("search failed: %v", err)
			}
			got := locationsFromResponse(resp)
			if !containsAnyLocation(got, tc.Expected) {
				t.Errorf("query %q: expected one of %v in results, got %d hits (%v)",
					tc.Query, tc.Expected, len(got), got)
			}
		})
	}
}

func TestE2E_FuzzySearchToleratesTypo(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	corpus := BuildCorpus()
	if _, err := s.pipeline.Ingest(ctx, "e2e", corpus.Payload()); err != nil {
		t.Fatal(err)
	}

	resp, err := s.index.Search(ctx, models.VerseQuery{Query: "aparigrahaa", Limit: e2eSearchLimit, Fuzzy: true})
	if err != nil {
		t.Fatal(err)
	}
	got := locationsFromResponse(resp)
	want := locationsContaining(corpus.Entries, "aparigraha")
	if !containsAnyLocation(got, want) {
		t.Errorf("fuzzy query: expected one of %v in results, got %v", want, got)
	}
}

func TestE2E_ReadingOrderWalk(t *testing.T) {
	s := newStack(t)
	corpus := BuildCorpus()
	if _, err := s.pipeline.Ingest(context.Background(), "e2e", corpus.Payload()); err != nil {
		t.Fatal(err)
	}

	// Entries are built chapter by chapter in ascending number order, which
	// is exactly the reading order the library must produce.
	want := make([]models.Location, len(corpus.Entries))
	for i, e := range corpus.Entries {
		want[i] = e.Location
	}

	first, err := s.library.Neighbors(want[0].Chapter, want[0].Verse)
	if err != nil {
		t.Fatal(err)
	}
	if first.Prev != nil {
		t.Errorf("first verse should have no predecessor, got %v", *first.Prev)
	}

	var walked []models.Location
	cur := &want[0]
	for cur != nil {
		walked = append(walked, *cur)
		if len(walked) > len(want) {
			t.Fatalf("walk visited more than %d verses without terminating", len(want))
		}
		nb, err := s.library.Neighbors(cur.Chapter, cur.Verse)
		if err != nil {
			t.Fatalf("neighbors of %d:%d: %v", cur.Chapter, cur.Verse, err)
		}
		cur = nb.Next
	}
	if !reflect.DeepEqual(walked, want) {
		t.Errorf("walk visited %d verses, want %d", len(walked), len(want))
		for i := range walked {
			if i < len(want) && walked[i] != want[i] {
				t.Errorf("first divergence at step %d: got %d:%d, want %d:%d",
					i, walked[i].Chapter, walked[i].Verse, want[i].Chapter, want[i].Verse)
				break
			}
		}
	}

	// Gaps are stepped over, not filled in: chapter 4 skips verse 3, and
	// chapter 8 does not exist.
	nb, err := s.library.Neighbors(4, 2)
	if err != nil {
		t.Fatal(err)
	}
	if nb.Next == nil || *nb.Next != (models.Location{Chapter: 4, Verse: 4}) {
		t.Errorf("after 4:2 expected 4:4, got %v", nb.Next)
	}
	nb, err = s.library.Neighbors(7, 6)
	if err != nil {
		t.Fatal(err)
	}
	if nb.Next == nil || *nb.Next != (models.Location{Chapter: 9, Verse: 1}) {
		t.Errorf("after 7:6 expected 9:1, got %v", nb.Next)
	}
	last := want[len(want)-1]
	nb, err = s.library.Neighbors(last.Chapter, last.Verse)
	if err != nil {
		t.Fatal(err)
	}
	if nb.Next != nil {
		t.Errorf("last verse should have no successor, got %v", *nb.Next)
	}
}

func TestE2E_ReingestReplacesScripture(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	corpus := BuildCorpus()
	if _, err := s.pipeline.Ingest(ctx, "e2e", corpus.Payload()); err != nil {
		t.Fatal(err)
	}

	revision, err := json.Marshal(ScripturePayload(
		ChapterPayload(1, "Condensed Opening",
			VersePayload(1, "The revised edition keeps only the granthasara essence.", "granthasara iti"),
			VersePayload(2, "Everything else awaits a later volume.", "shesham uttara-granthe"),
		),
	))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.pipeline.Ingest(ctx, "e2e", revision); err != nil {
		t.Fatalf("ingest revision: %v", err)
	}

	chapters, err := s.library.Chapters()
	if err != nil {
		t.Fatal(err)
	}
	if len(chapters) != 1 || chapters[0].Number != 1 || chapters[0].Verses != 2 {
		t.Errorf("library should serve the revision only, got %+v", chapters)
	}

	count, err := s.index.DocCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("index holds %d verses, want 2", count)
	}

	resp, err := s.index.Search(ctx, models.VerseQuery{Query: "sthitaprajna", Limit: e2eSearchLimit})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 0 {
		t.Errorf("replaced content still searchable: %d hits", resp.Total)
	}
	resp, err = s.index.Search(ctx, models.VerseQuery{Query: "granthasara", Limit: e2eSearchLimit})
	if err != nil {
		t.Fatal(err)
	}
	if !containsAnyLocation(locationsFromResponse(resp), []models.Location{{Chapter: 1, Verse: 1}}) {
		t.Errorf("revision content not searchable, got %v", locationsFromResponse(resp))
	}

	counts, err := s.journal.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts.Accepted != 2 || counts.Total != 2 {
		t.Errorf("journal counts = %+v, want 2 accepted of 2", counts)
	}

	// The raw archive is append-only: both submissions stay on disk.
	files, err := os.ReadDir(s.store.RawDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Errorf("raw archive holds %d files, want 2", len(files))
	}
}

func TestE2E_RejectedIngestLeavesLibraryIntact(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	corpus := BuildCorpus()
	if _, err := s.pipeline.Ingest(ctx, "e2e", corpus.Payload()); err != nil {
		t.Fatal(err)
	}

	// Fresh maps so the good corpus payload is not mutated.
	bad := BuildCorpus().Document
	ch2 := bad["chapters"].(map[string]any)["2"].(map[string]any)
	ch2["number"] = 5
	verse1 := ch2["verses"].(map[string]any)["1"].(map[string]any)
	delete(verse1, "languages")
	data, err := json.Marshal(bad)
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.pipeline.Ingest(ctx, "e2e", data)
	var rejected *ingest.RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected rejection, got %v", err)
	}
	wantFindings := []schema.Error{
		{Path: "chapters.2.verses.1.languages", Reason: schema.ReasonMissing},
		{Path: "chapters.2", Reason: schema.ReasonKeyMismatch},
	}
	if !reflect.DeepEqual(rejected.Errors, wantFindings) {
		t.Errorf("findings = %v, want %v", rejected.Errors, wantFindings)
	}

	// Nothing moved: library, index, and raw archive still hold the good
	// document alone.
	chapters, err := s.library.Chapters()
	if err != nil {
		t.Fatal(err)
	}
	total := 0
	for _, ch := range chapters {
		total += ch.Verses
	}
	if len(chapters) != corpus.TotalChapters || total != corpus.TotalVerses {
		t.Errorf("library changed after rejection: %d chapters / %d verses", len(chapters), total)
	}

	count, err := s.index.DocCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != uint64(corpus.TotalVerses) {
		t.Errorf("index changed after rejection: %d verses", count)
	}

	files, err := os.ReadDir(s.store.RawDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Errorf("raw archive holds %d files after rejection, want 1", len(files))
	}

	// The journal records the attempt with its finding count.
	counts, err := s.journal.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts.Accepted != 1 || counts.Rejected != 1 {
		t.Errorf("journal counts = %+v, want 1 accepted and 1 rejected", counts)
	}
	records, err := s.journal.List(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Status != models.IngestionRejected {
		t.Fatalf("newest journal record should be the rejection, got %+v", records)
	}
	if records[0].ErrorCount != len(wantFindings) {
		t.Errorf("rejection record error count = %d, want %d", records[0].ErrorCount, len(wantFindings))
	}
}

func locationsFromResponse(resp *models.SearchResponse) []models.Location {
	locs := make([]models.Location, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		locs = append(locs, h.Location)
	}
	return locs
}

func containsAnyLocation(got, expected []models.Location) bool {
	set := make(map[models.Location]bool)
	for _, l := range got {
		set[l] = true
	}
	for _, l := range expected {
		if set[l] {
			return true
		}
	}
	return false
}
