// Package library serves the normalized scripture to readers. It decodes the
// persisted document through an injected source, caches the result, and
// answers chapter, verse, and neighbor lookups until invalidated.
package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/shastralib/granthalaya/internal/artifact"
	"github.com/shastralib/granthalaya/internal/models"
)

// Lookup errors. ErrNotIngested means no scripture has been persisted yet;
// the other two are ordinary misses inside an ingested document.
var (
	ErrNotIngested     = errors.New("no scripture ingested")
	ErrChapterNotFound = errors.New("chapter not found")
	ErrVerseNotFound   = errors.New("verse not found")
)

// Source supplies the persisted normalized document. The artifact store
// satisfies this, and tests substitute their own.
type Source interface {
	ReadNormalized() ([]byte, error)
}

// ChapterSummary is the chapter listing entry: heading data plus the verse
// count, without the verse bodies.
type ChapterSummary struct {
	Number int               `json:"number"`
	Title  map[string]string `json:"title"`
	Verses int               `json:"verses"`
}

// Neighbors locates the verses reading order visits immediately before and
// after a verse. Nil ends mean the scripture starts or ends there.
type Neighbors struct {
	Prev *models.Location `json:"prev,omitempty"`
	Next *models.Location `json:"next,omitempty"`
}

// snapshot is one decoded document plus its derived orderings. Chapter and
// verse numbering may have gaps, so reading order follows the sorted numbers
// actually present.
type snapshot struct {
	doc         *models.NormalizedScripture
	chapterNums []int
	verseNums   map[int][]int
}

// Library is the cached read side. All methods are safe for concurrent use.
type Library struct {
	source Source
	logger *zap.Logger

	mu   sync.RWMutex
	snap *snapshot
}

// New creates a Library reading through source. Nothing is loaded until the
// first lookup.
func New(source Source, logger *zap.Logger) *Library {
	return &Library{source: source, logger: logger}
}

// Invalidate drops the cached document so the next lookup reloads it. The
// ingestion pipeline calls this after persisting a replacement.
func (l *Library) Invalidate() {
	l.mu.Lock()
	l.snap = nil
	l.mu.Unlock()
	if l.logger != nil {
		l.logger.Debug("Library cache invalidated")
	}
}

// Scripture returns the full normalized document.
func (l *Library) Scripture() (*models.NormalizedScripture, error) {
	snap, err := l.load()
	if err != nil {
		return nil, err
	}
	return snap.doc, nil
}

// Chapters lists all chapters in reading order.
func (l *Library) Chapters() ([]ChapterSummary, error) {
	snap, err := l.load()
	if err != nil {
		return nil, err
	}
	summaries := make([]ChapterSummary, 0, len(snap.chapterNums))
	for _, num := range snap.chapterNums {
		ch := snap.doc.Chapters[strconv.Itoa(num)]
		summaries = append(summaries, ChapterSummary{
			Number: ch.Number,
			Title:  ch.Title,
			Verses: len(ch.Verses),
		})
	}
	return summaries, nil
}

// Chapter returns one chapter with its verses.
func (l *Library) Chapter(number int) (*models.NormalizedChapter, error) {
	snap, err := l.load()
	if err != nil {
		return nil, err
	}
	ch, ok := snap.doc.Chapters[strconv.Itoa(number)]
	if !ok {
		return nil, ErrChapterNotFound
	}
	return &ch, nil
}

// Verse returns one verse by location.
func (l *Library) Verse(chapter, verse int) (*models.NormalizedVerse, error) {
	snap, err := l.load()
	if err != nil {
		return nil, err
	}
	return snap.verse(chapter, verse)
}

// Neighbors returns the locations before and after a verse in reading order,
// crossing chapter boundaries and skipping gaps in the numbering.
func (l *Library) Neighbors(chapter, verse int) (*Neighbors, error) {
	snap, err := l.load()
	if err != nil {
		return nil, err
	}
	if _, err := snap.verse(chapter, verse); err != nil {
		return nil, err
	}

	chapterIdx := sort.SearchInts(snap.chapterNums, chapter)
	verses := snap.verseNums[chapter]
	verseIdx := sort.SearchInts(verses, verse)

	var n Neighbors
	if verseIdx > 0 {
		n.Prev = &models.Location{Chapter: chapter, Verse: verses[verseIdx-1]}
	} else {
		for i := chapterIdx - 1; i >= 0 && n.Prev == nil; i-- {
			prev := snap.verseNums[snap.chapterNums[i]]
			if len(prev) > 0 {
				n.Prev = &models.Location{Chapter: snap.chapterNums[i], Verse: prev[len(prev)-1]}
			}
		}
	}
	if verseIdx < len(verses)-1 {
		n.Next = &models.Location{Chapter: chapter, Verse: verses[verseIdx+1]}
	} else {
		for i := chapterIdx + 1; i < len(snap.chapterNums) && n.Next == nil; i++ {
			next := snap.verseNums[snap.chapterNums[i]]
			if len(next) > 0 {
				n.Next = &models.Location{Chapter: snap.chapterNums[i], Verse: next[0]}
			}
		}
	}
	return &n, nil
}

func (l *Library) load() (*snapshot, error) {
	l.mu.RLock()
	snap := l.snap
	l.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.snap != nil {
		return l.snap, nil
	}

	data, err := l.source.ReadNormalized()
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			return nil, ErrNotIngested
		}
		return nil, fmt.Errorf("failed to load scripture: %w", err)
	}
	var doc models.NormalizedScripture
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode scripture: %w", err)
	}

	l.snap = buildSnapshot(&doc)
	if l.logger != nil {
		l.logger.Debug("Scripture loaded",
			zap.Int("chapters", len(doc.Chapters)),
			zap.Int("verses", doc.VerseCount()))
	}
	return l.snap, nil
}

func buildSnapshot(doc *models.NormalizedScripture) *snapshot {
	snap := &snapshot{
		doc:       doc,
		verseNums: make(map[int][]int, len(doc.Chapters)),
	}
	for _, ch := range doc.Chapters {
		snap.chapterNums = append(snap.chapterNums, ch.Number)
		nums := make([]int, 0, len(ch.Verses))
		for _, v := range ch.Verses {
			nums = append(nums, v.Number)
		}
		sort.Ints(nums)
		snap.verseNums[ch.Number] = nums
	}
	sort.Ints(snap.chapterNums)
	return snap
}

func (s *snapshot) verse(chapter, verse int) (*models.NormalizedVerse, error) {
	ch, ok := s.doc.Chapters[strconv.Itoa(chapter)]
	if !ok {
		return nil, ErrChapterNotFound
	}
	v, ok := ch.Verses[strconv.Itoa(verse)]
	if !ok {
		return nil, ErrVerseNotFound
	}
	return &v, nil
}
