package models

import "fmt"

// VerseQuery represents a verse search request.
type VerseQuery struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
	Fuzzy bool   `json:"fuzzy,omitempty"`
}

// Validate ensures the query has valid fields and applies limit bounds.
// Returns an error if the query text is empty.
func (q *VerseQuery) Validate(defaultLimit, maxLimit int) error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return nil
}

// VerseHit is a single verse search result.
type VerseHit struct {
	Location Location `json:"location"`
	Score    float64  `json:"score"`
	Snippet  string   `json:"snippet,omitempty"`
}

// SearchResponse is the result of a verse search.
type SearchResponse struct {
	Query     string      `json:"query"`
	Total     int         `json:"total"`
	Hits      []*VerseHit `json:"hits"`
	Fuzzy     bool        `json:"fuzzy,omitempty"`
	QueryTime int64       `json:"query_time_ms"`

	// Suggestions contains "Did you mean?" corrected queries, set only when
	// the search found nothing and close indexed terms exist.
	Suggestions []string `json:"suggestions,omitempty"`
}
