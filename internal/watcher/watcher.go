// Package watcher feeds files dropped into an incoming directory through the
// ingestion pipeline. Accepted files move to processed/, rejected or failed
// ones to failed/; both subdirectories sit outside the watch so the moves do
// not retrigger events.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/shastralib/granthalaya/internal/ingest"
	"github.com/shastralib/granthalaya/internal/models"
)

const (
	defaultDebounce  = 400 * time.Millisecond
	processedDirName = "processed"
	failedDirName    = "failed"
)

// Ingestor runs one raw document through the ingestion pipeline.
type Ingestor interface {
	Ingest(ctx context.Context, source string, data []byte) (*models.Summary, error)
}

// Watcher watches one drop directory and ingests settled .json files.
type Watcher struct {
	dir         string
	ingestor    Ingestor
	debounce    time.Duration
	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	debounceMap map[string]*time.Timer
	done        chan struct{}
	started     bool
	stopOnce    sync.Once
	logger      *zap.Logger // optional; when set, logs events
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for event output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce overrides how long a file must stay quiet before ingestion.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New creates a watcher over dir that hands settled files to ingestor.
func New(dir string, ingestor Ingestor, opts ...Option) *Watcher {
	w := &Watcher{
		dir:         filepath.Clean(dir),
		ingestor:    ingestor,
		debounce:    defaultDebounce,
		debounceMap: make(map[string]*time.Timer),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
// The drop directory is created if missing.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	if _, err := os.Stat(w.dir); os.IsNotExist(err) {
		if err := os.MkdirAll(w.dir, 0755); err != nil {
			w.mu.Unlock()
			return fmt.Errorf("failed to create drop directory: %w", err)
		}
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := watcher.Add(w.dir); err != nil {
		_ = watcher.Close()
		w.mu.Unlock()
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.watcher = watcher
	w.started = true
	if w.logger != nil {
		w.logger.Info("Watching drop directory", zap.String("dir", w.dir))
	}
	w.mu.Unlock()
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil && w.logger != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := ev.Name
	if filepath.Dir(filepath.Clean(path)) != w.dir || !isJSON(path) {
		return
	}
	if w.logger != nil {
		w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	}
	switch ev.Op {
	case fsnotify.Create, fsnotify.Write:
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			return
		}
		w.debounceProcess(path)
	case fsnotify.Remove, fsnotify.Rename:
		w.cancelDebounce(path)
	}
}

// debounceProcess defers ingestion until the file has stopped changing, so a
// slow copy is read once, after it settles.
func (w *Watcher) debounceProcess(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
	}
	t := time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()
		w.processFile(path)
	})
	w.debounceMap[path] = t
}

func (w *Watcher) cancelDebounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
		delete(w.debounceMap, path)
	}
}

func (w *Watcher) processFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if w.logger != nil && !os.IsNotExist(err) {
			w.logger.Warn("Failed to read dropped file", zap.String("file", path), zap.Error(err))
		}
		return
	}

	summary, err := w.ingestor.Ingest(context.Background(), "watch", data)
	if err != nil {
		var rejected *ingest.RejectedError
		if errors.As(err, &rejected) {
			if w.logger != nil {
				w.logger.Warn("Dropped file rejected",
					zap.String("file", path),
					zap.Int("errors", len(rejected.Errors)))
			}
		} else if w.logger != nil {
			w.logger.Error("Dropped file ingestion failed", zap.String("file", path), zap.Error(err))
		}
		w.moveTo(path, failedDirName)
		return
	}

	if w.logger != nil {
		w.logger.Info("Dropped file ingested",
			zap.String("file", path),
			zap.String("id", summary.ID),
			zap.Int("chapters", summary.Chapters),
			zap.Int("verses", summary.Verses))
	}
	w.moveTo(path, processedDirName)
}

// moveTo relocates a handled file into sub, keeping the original name unless
// it would collide.
func (w *Watcher) moveTo(path, sub string) {
	dir := filepath.Join(w.dir, sub)
	if err := os.MkdirAll(dir, 0755); err != nil {
		if w.logger != nil {
			w.logger.Warn("Failed to create directory", zap.String("dir", dir), zap.Error(err))
		}
		return
	}
	target := filepath.Join(dir, filepath.Base(path))
	if _, err := os.Stat(target); err == nil {
		target = filepath.Join(dir, fmt.Sprintf("%d-%s", time.Now().UnixMilli(), filepath.Base(path)))
	}
	if err := os.Rename(path, target); err != nil {
		if w.logger != nil {
			w.logger.Warn("Failed to move dropped file", zap.String("file", path), zap.Error(err))
		}
	}
}

// SyncExisting ingests files that were already in the drop directory when the
// watcher started.
func (w *Watcher) SyncExisting() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if w.logger != nil {
			w.logger.Warn("Failed to read drop directory", zap.String("dir", w.dir), zap.Error(err))
		}
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !isJSON(entry.Name()) {
			continue
		}
		w.processFile(filepath.Join(w.dir, entry.Name()))
	}
}

// Directory returns the watched drop directory.
func (w *Watcher) Directory() string {
	return w.dir
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.debounceMap {
		t.Stop()
		delete(w.debounceMap, path)
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
