package shastra

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shastralib/granthalaya/internal/models"
)

// Normalize derives the canonical enriched form of a validated document.
// Chapter and verse numbers are re-derived from the container keys, and every
// verse is stamped with its location so a verse object is self-describing
// once it leaves its parent maps. The input is never mutated; the output
// shares no maps with it. Normalizing an already normalized document yields
// an equal result.
//
// Normalize panics if a container key is not a canonical positive integer.
// Validation guarantees that never happens; reaching the panic means a caller
// skipped validation.
func Normalize(doc *models.Shastra) *models.NormalizedScripture {
	out := &models.NormalizedScripture{
		Chapters: make(map[string]models.NormalizedChapter, len(doc.Chapters)),
	}
	for chKey, ch := range doc.Chapters {
		chNum := mustKeyNumber(chKey)
		verses := make(map[string]models.NormalizedVerse, len(ch.Verses))
		for vKey, v := range ch.Verses {
			vNum := mustKeyNumber(vKey)
			verses[strconv.Itoa(vNum)] = models.NormalizedVerse{
				Number:       vNum,
				Location:     models.Location{Chapter: chNum, Verse: vNum},
				Languages:    copyVerseTexts(v.Languages),
				Commentaries: copyCommentaries(v.Commentaries),
			}
		}
		out.Chapters[strconv.Itoa(chNum)] = models.NormalizedChapter{
			Number: chNum,
			Title:  copyStrings(ch.Title),
			Verses: verses,
		}
	}
	return out
}

// MarshalCanonical serializes v with two-space indentation and the sorted
// map-key order encoding/json guarantees, so equal documents always produce
// byte-identical artifacts.
func MarshalCanonical(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return append(data, '\n'), nil
}

func mustKeyNumber(key string) int {
	n, err := strconv.Atoi(key)
	if err != nil || n < 1 || strconv.Itoa(n) != key {
		panic(fmt.Sprintf("shastra: non-canonical container key %q reached normalization", key))
	}
	return n
}

func copyStrings(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyVerseTexts(m map[string]models.VerseText) map[string]models.VerseText {
	out := make(map[string]models.VerseText, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyCommentaries(m map[string]models.Commentary) map[string]models.Commentary {
	if m == nil {
		return nil
	}
	out := make(map[string]models.Commentary, len(m))
	for k, c := range m {
		langs := make(map[string]models.CommentaryText, len(c.Languages))
		for lk, lv := range c.Languages {
			langs[lk] = lv
		}
		out[k] = models.Commentary{Author: c.Author, Languages: langs}
	}
	return out
}
