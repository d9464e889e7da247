package search

import (
	"fmt"
	"strings"
	"sync"
)

// termDict caches the indexed term dictionary for "did you mean" lookups.
// Rebuild invalidates it; the next suggestion reloads it from the index.
type termDict struct {
	mu      sync.RWMutex
	valid   bool
	entries []termCount
	known   map[string]struct{}
}

// termCount is one dictionary term with the number of verses containing it.
type termCount struct {
	term  string
	count uint64
}

func (d *termDict) invalidate() {
	d.mu.Lock()
	d.valid = false
	d.mu.Unlock()
}

// snapshot returns the cached dictionary, loading it via fill when stale.
func (d *termDict) snapshot(fill func() ([]termCount, error)) ([]termCount, map[string]struct{}, error) {
	d.mu.RLock()
	if d.valid {
		entries, known := d.entries, d.known
		d.mu.RUnlock()
		return entries, known, nil
	}
	d.mu.RUnlock()

	entries, err := fill()
	if err != nil {
		return nil, nil, err
	}
	known := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		known[e.term] = struct{}{}
	}

	d.mu.Lock()
	d.entries = entries
	d.known = known
	d.valid = true
	d.mu.Unlock()
	return entries, known, nil
}

// Suggest builds a "did you mean" correction for a query, replacing each
// term the index has never seen with the closest indexed term. Returns nil
// when every term is already indexed or nothing close enough exists.
func (x *VerseIndex) Suggest(query string) []string {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return nil
	}
	entries, known, err := x.dict.snapshot(x.readTermDict)
	if err != nil || len(entries) == 0 {
		return nil
	}

	corrected := make([]string, 0, len(terms))
	changed := false
	for _, term := range terms {
		if _, ok := known[term]; ok {
			corrected = append(corrected, term)
			continue
		}
		if best := closestTerm(term, entries, x.fuzziness); best != "" {
			corrected = append(corrected, best)
			changed = true
			continue
		}
		corrected = append(corrected, term)
	}
	if !changed {
		return nil
	}
	return []string{strings.Join(corrected, " ")}
}

// readTermDict lists every term of the text field with its frequency.
func (x *VerseIndex) readTermDict() ([]termCount, error) {
	dict, err := x.index.FieldDict("text")
	if err != nil {
		return nil, fmt.Errorf("failed to read term dictionary: %w", err)
	}
	defer dict.Close()

	entries := make([]termCount, 0)
	for {
		entry, err := dict.Next()
		if err != nil || entry == nil {
			break
		}
		entries = append(entries, termCount{term: entry.Term, count: entry.Count})
	}
	return entries, nil
}

// closestTerm picks the dictionary term with the fewest edits from term,
// breaking distance ties by how many verses contain the candidate. Returns
// "" when nothing is within maxDistance edits.
func closestTerm(term string, entries []termCount, maxDistance int) string {
	best := ""
	bestDistance := maxDistance + 1
	var bestCount uint64
	for _, e := range entries {
		// Terms whose lengths differ by more than maxDistance cannot be
		// within reach; skip them before the full distance computation.
		lenDiff := len(e.term) - len(term)
		if lenDiff < 0 {
			lenDiff = -lenDiff
		}
		if lenDiff > maxDistance {
			continue
		}
		distance := levenshtein(term, e.term)
		if distance > maxDistance {
			continue
		}
		if distance < bestDistance || (distance == bestDistance && e.count > bestCount) {
			best = e.term
			bestDistance = distance
			bestCount = e.count
		}
	}
	return best
}

// queryTerms lowercases and splits a query on whitespace, mirroring how the
// standard analyzer folds indexed text.
func queryTerms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// levenshtein computes the edit distance over runes, keeping two rolling
// rows instead of the full matrix.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
