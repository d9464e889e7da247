// Package search provides the Bleve-backed verse index. The index is a
// derived view of the normalized scripture: it is rebuilt wholesale after
// every ingestion and can always be reconstructed from the artifact store.
package search

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"

	"github.com/shastralib/granthalaya/internal/models"
	"github.com/shastralib/granthalaya/pkg/utils"
)

// verseDoc is the indexed form of one verse. Text carries every language
// rendering and transliteration so a query can match any of them.
type verseDoc struct {
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
	Text    string `json:"text"`
}

// VerseIndex indexes verses by location ("chapter:verse") for keyword and
// fuzzy search.
type VerseIndex struct {
	index      bleve.Index
	logger     *zap.Logger
	snippetLen int
	fuzziness  int
	dict       termDict

	mu sync.Mutex // serializes rebuilds
}

// NewVerseIndex creates or opens a Bleve index at path. An existing index is
// reused; remove the directory to force a clean build on next start.
func NewVerseIndex(path string, snippetLen, fuzziness int, logger *zap.Logger) (*VerseIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming): transliterated
	// Sanskrit does not survive English stemming.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("text", textFieldMapping)
	numericFieldMapping := bleve.NewNumericFieldMapping()
	docMapping.AddFieldMappingsAt("chapter", numericFieldMapping)
	docMapping.AddFieldMappingsAt("verse", numericFieldMapping)
	im.AddDocumentMapping("verse", docMapping)
	im.DefaultType = "verse"
	im.DefaultMapping = docMapping

	var index bleve.Index
	if _, err := os.Stat(path); err == nil {
		index, err = bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open verse index: %w", err)
		}
	} else {
		index, err = bleve.New(path, im)
		if err != nil {
			return nil, fmt.Errorf("failed to create verse index: %w", err)
		}
	}
	if snippetLen <= 0 {
		snippetLen = 160
	}
	if fuzziness <= 0 {
		fuzziness = 2
	}
	return &VerseIndex{index: index, logger: logger, snippetLen: snippetLen, fuzziness: fuzziness}, nil
}

// Rebuild reindexes every verse of doc and removes entries for verses that no
// longer exist. The replacement is applied as one batch.
func (x *VerseIndex) Rebuild(ctx context.Context, doc *models.NormalizedScripture) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	batch := x.index.NewBatch()
	current := make(map[string]struct{})
	for chKey, ch := range doc.Chapters {
		for vKey, v := range ch.Verses {
			id := chKey + ":" + vKey
			current[id] = struct{}{}
			if err := batch.Index(id, verseDoc{
				Chapter: v.Location.Chapter,
				Verse:   v.Location.Verse,
				Text:    verseText(v),
			}); err != nil {
				return fmt.Errorf("failed to index verse %s: %w", id, err)
			}
		}
	}

	stale, err := x.allIDs()
	if err != nil {
		return err
	}
	removed := 0
	for _, id := range stale {
		if _, keep := current[id]; !keep {
			batch.Delete(id)
			removed++
		}
	}

	if err := x.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to apply index batch: %w", err)
	}
	x.dict.invalidate()
	if x.logger != nil {
		x.logger.Info("Verse index rebuilt",
			zap.Int("verses", len(current)),
			zap.Int("removed", removed))
	}
	return nil
}

// Search runs q against the index. The query must already be validated.
func (x *VerseIndex) Search(ctx context.Context, q models.VerseQuery) (*models.SearchResponse, error) {
	start := time.Now()

	var query blevequery.Query
	if q.Fuzzy {
		query = x.buildFuzzyQuery(q.Query)
	} else {
		mq := bleve.NewMatchQuery(q.Query)
		mq.SetField("text")
		query = mq
	}

	req := bleve.NewSearchRequest(query)
	req.Size = q.Limit
	req.Fields = []string{"*"}
	results, err := x.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("verse search failed: %w", err)
	}

	hits := make([]*models.VerseHit, 0, len(results.Hits))
	for _, hit := range results.Hits {
		loc, ok := parseVerseID(hit.ID)
		if !ok {
			continue
		}
		snippet := ""
		if text, ok := hit.Fields["text"].(string); ok {
			snippet = utils.Truncate(utils.NormalizeSpace(text), x.snippetLen)
		}
		hits = append(hits, &models.VerseHit{
			Location: loc,
			Score:    hit.Score,
			Snippet:  snippet,
		})
	}

	resp := &models.SearchResponse{
		Query:     q.Query,
		Total:     int(results.Total),
		Hits:      hits,
		Fuzzy:     q.Fuzzy,
		QueryTime: time.Since(start).Milliseconds(),
	}
	if resp.Total == 0 {
		resp.Suggestions = x.Suggest(q.Query)
	}
	return resp, nil
}

// DocCount returns the number of indexed verses.
func (x *VerseIndex) DocCount() (uint64, error) {
	return x.index.DocCount()
}

// Close closes the underlying index.
func (x *VerseIndex) Close() error {
	return x.index.Close()
}

// buildFuzzyQuery combines a fuzzy query per term with OR semantics, so any
// term may match with typo tolerance.
func (x *VerseIndex) buildFuzzyQuery(queryStr string) blevequery.Query {
	terms := queryTerms(queryStr)
	if len(terms) == 0 {
		mq := bleve.NewMatchQuery(queryStr)
		mq.SetField("text")
		return mq
	}
	if len(terms) == 1 {
		fq := bleve.NewFuzzyQuery(terms[0])
		fq.SetFuzziness(x.fuzziness)
		fq.SetField("text")
		return fq
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(x.fuzziness)
		fq.SetField("text")
		queries = append(queries, fq)
	}
	return bleve.NewDisjunctionQuery(queries...)
}

func (x *VerseIndex) allIDs() ([]string, error) {
	count, err := x.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("failed to count indexed verses: %w", err)
	}
	if count == 0 {
		return nil, nil
	}
	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = int(count)
	results, err := x.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexed verses: %w", err)
	}
	ids := make([]string, 0, len(results.Hits))
	for _, hit := range results.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

func verseText(v models.NormalizedVerse) string {
	parts := make([]string, 0, 2*len(v.Languages))
	for _, lang := range utils.SortedKeys(v.Languages) {
		text := v.Languages[lang]
		parts = append(parts, text.Text)
		if text.Transliteration != "" {
			parts = append(parts, text.Transliteration)
		}
	}
	for _, author := range utils.SortedKeys(v.Commentaries) {
		c := v.Commentaries[author]
		for _, lang := range utils.SortedKeys(c.Languages) {
			parts = append(parts, c.Languages[lang].Text)
		}
	}
	return strings.Join(parts, "\n")
}

func parseVerseID(id string) (models.Location, bool) {
	ch, v, ok := strings.Cut(id, ":")
	if !ok {
		return models.Location{}, false
	}
	chapter, err := strconv.Atoi(ch)
	if err != nil {
		return models.Location{}, false
	}
	verse, err := strconv.Atoi(v)
	if err != nil {
		return models.Location{}, false
	}
	return models.Location{Chapter: chapter, Verse: verse}, true
}
