// Package models defines core data structures for scripture documents, the
// book catalog, verse search, and ingestion records.
package models

// Shastra is a validated scripture document: the accepted input shape once
// structural validation has passed. Map keys for chapters and verses are
// canonical positive-integer strings; commentary keys are author ids.
type Shastra struct {
	Chapters map[string]Chapter `json:"chapters"`
}

// Chapter holds one chapter's title and its verses keyed by verse number.
type Chapter struct {
	Number int               `json:"number"`
	Title  map[string]string `json:"title"`
	Verses map[string]Verse  `json:"verses"`
}

// Verse holds the multilingual text payloads and optional commentaries for
// one verse.
type Verse struct {
	Number       int                   `json:"number"`
	Languages    map[string]VerseText  `json:"languages"`
	Commentaries map[string]Commentary `json:"commentaries,omitempty"`
}

// VerseText is one language's rendering of a verse.
type VerseText struct {
	Text            string `json:"text"`
	Transliteration string `json:"transliteration,omitempty"`
}

// Commentary is a per-verse, per-author scholarly annotation.
type Commentary struct {
	Author    Author                    `json:"author"`
	Languages map[string]CommentaryText `json:"languages"`
}

// Author identifies a commentator.
type Author struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Tradition string `json:"tradition"`
}

// CommentaryText is one language's rendering of a commentary.
type CommentaryText struct {
	Text string `json:"text"`
}

// NormalizedScripture is the persisted canonical artifact: the Shastra shape
// with a location stamp on every verse, derived from container keys so
// readers never re-derive position from map traversal.
type NormalizedScripture struct {
	Chapters map[string]NormalizedChapter `json:"chapters"`
}

// NormalizedChapter mirrors Chapter with normalized verses.
type NormalizedChapter struct {
	Number int                        `json:"number"`
	Title  map[string]string          `json:"title"`
	Verses map[string]NormalizedVerse `json:"verses"`
}

// NormalizedVerse is a verse carrying its location stamp.
type NormalizedVerse struct {
	Number       int                   `json:"number"`
	Location     Location              `json:"location"`
	Languages    map[string]VerseText  `json:"languages"`
	Commentaries map[string]Commentary `json:"commentaries,omitempty"`
}

// Location is the {chapter, verse} stamp embedded on every normalized verse.
type Location struct {
	Chapter int `json:"chapter"`
	Verse   int `json:"verse"`
}

// VerseCount returns the sum of verse-map sizes across all chapters.
// Counts always come from map sizes, never from author-supplied fields.
func (n *NormalizedScripture) VerseCount() int {
	total := 0
	for _, ch := range n.Chapters {
		total += len(ch.Verses)
	}
	return total
}
