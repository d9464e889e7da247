package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shastralib/granthalaya/internal/ingest"
	"github.com/shastralib/granthalaya/internal/models"
	"github.com/shastralib/granthalaya/internal/schema"
)

type stubIngestor struct {
	mu      sync.Mutex
	sources []string
	bodies  [][]byte
	err     error
}

func (s *stubIngestor) Ingest(ctx context.Context, source string, data []byte) (*models.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = append(s.sources, source)
	s.bodies = append(s.bodies, data)
	if s.err != nil {
		return nil, s.err
	}
	return &models.Summary{ID: "01TEST", Chapters: 1, Verses: 1}, nil
}

func (s *stubIngestor) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sources)
}

func startWatcher(t *testing.T, dir string, ing Ingestor) *Watcher {
	t.Helper()
	w := New(dir, ing, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(w.Stop)
	return w
}

func TestWatcherProcessesDroppedFile(t *testing.T) {
	dir := t.TempDir()
	ing := &stubIngestor{}
	startWatcher(t, dir, ing)

	dropped := filepath.Join(dir, "gita.json")
	if err := os.WriteFile(dropped, []byte(`{"chapters":{}}`), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(500 * time.Millisecond)

	if got := ing.calls(); got != 1 {
		t.Fatalf("expected 1 ingestion, got %d", got)
	}
	ing.mu.Lock()
	source := ing.sources[0]
	ing.mu.Unlock()
	if source != "watch" {
		t.Errorf("source: got %q, want watch", source)
	}
	if _, err := os.Stat(dropped); !os.IsNotExist(err) {
		t.Error("dropped file should have been moved away")
	}
	if _, err := os.Stat(filepath.Join(dir, "processed", "gita.json")); err != nil {
		t.Errorf("expected file under processed/: %v", err)
	}
}

func TestWatcherMovesRejectedToFailed(t *testing.T) {
	dir := t.TempDir()
	ing := &stubIngestor{err: &ingest.RejectedError{
		Errors: []schema.Error{{Path: "chapters", Reason: schema.ReasonMissing}},
	}}
	startWatcher(t, dir, ing)

	dropped := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(dropped, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(500 * time.Millisecond)

	if got := ing.calls(); got != 1 {
		t.Fatalf("expected 1 ingestion, got %d", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "failed", "bad.json")); err != nil {
		t.Errorf("expected file under failed/: %v", err)
	}
}

func TestWatcherMovesPersistFailureToFailed(t *testing.T) {
	dir := t.TempDir()
	ing := &stubIngestor{err: &ingest.PersistError{Stage: ingest.StageRaw, Err: errors.New("disk full")}}
	startWatcher(t, dir, ing)

	if err := os.WriteFile(filepath.Join(dir, "gita.json"), []byte(`{"chapters":{}}`), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(500 * time.Millisecond)

	if _, err := os.Stat(filepath.Join(dir, "failed", "gita.json")); err != nil {
		t.Errorf("expected file under failed/: %v", err)
	}
}

func TestWatcherIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	ing := &stubIngestor{}
	startWatcher(t, dir, ing)

	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("not scripture"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	if got := ing.calls(); got != 0 {
		t.Errorf("expected no ingestions, got %d", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("non-json file should stay put: %v", err)
	}
}

func TestWatcherDebounceCoalescesWrites(t *testing.T) {
	dir := t.TempDir()
	ing := &stubIngestor{}
	startWatcher(t, dir, ing)

	path := filepath.Join(dir, "gita.json")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte(`{"chapters":{}}`), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(500 * time.Millisecond)

	if got := ing.calls(); got != 1 {
		t.Errorf("expected writes to coalesce into 1 ingestion, got %d", got)
	}
}

func TestWatcherSyncExisting(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.json"), []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ignore.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	ing := &stubIngestor{}
	w := startWatcher(t, dir, ing)
	w.SyncExisting()

	if got := ing.calls(); got != 2 {
		t.Errorf("expected 2 ingestions, got %d", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "ignore.txt")); err != nil {
		t.Errorf("non-json file should stay put: %v", err)
	}
}

func TestWatcherStartCreatesMissingDirectory(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "incoming")

	w := New(dir, &stubIngestor{})
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("drop directory should exist after Start: %v", err)
	}
	if w.Directory() != dir {
		t.Errorf("Directory: got %q", w.Directory())
	}
}

func TestWatcherMoveCollisionKeepsBoth(t *testing.T) {
	dir := t.TempDir()
	ing := &stubIngestor{}
	w := New(dir, ing, WithDebounce(50*time.Millisecond))

	if err := os.WriteFile(filepath.Join(dir, "gita.json"), []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	w.SyncExisting()
	if err := os.WriteFile(filepath.Join(dir, "gita.json"), []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	w.SyncExisting()

	entries, err := os.ReadDir(filepath.Join(dir, "processed"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("expected both files kept under processed/, got %d", len(entries))
	}
}
