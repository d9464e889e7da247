// Package e2e provides end-to-end tests that run the full ingestion and
// lookup stack against a large generated scripture; this file builds untyped
// document payloads in the shape the validator accepts.
package e2e

import "strconv"

// ScripturePayload wraps chapter payloads into a full document. Keys are the
// canonical string forms of the chapter numbers.
func ScripturePayload(chapters ...map[string]any) map[string]any {
	m := make(map[string]any, len(chapters))
	for _, ch := range chapters {
		m[strconv.Itoa(ch["number"].(int))] = ch
	}
	return map[string]any{"chapters": m}
}

// ChapterPayload builds one chapter with an English title. Verse keys are the
// canonical string forms of the verse numbers.
func ChapterPayload(number int, title string, verses ...map[string]any) map[string]any {
	vm := make(map[string]any, len(verses))
	for _, v := range verses {
		vm[strconv.Itoa(v["number"].(int))] = v
	}
	return map[string]any{
		"number": number,
		"title":  map[string]any{"en": title},
		"verses": vm,
	}
}

// VersePayload builds one verse with an English text and a Sanskrit
// transliteration.
func VersePayload(number int, english, transliteration string) map[string]any {
	return map[string]any{
		"number": number,
		"languages": map[string]any{
			"en": map[string]any{"text": english},
			"sa": map[string]any{"text": transliteration, "transliteration": transliteration},
		},
	}
}

// WithCommentary attaches a commentary by the given author to a verse payload
// and returns the verse.
func WithCommentary(verse map[string]any, authorID, authorName, tradition, text string) map[string]any {
	verse["commentaries"] = map[string]any{
		authorID: map[string]any{
			"author": map[string]any{
				"id":        authorID,
				"name":      authorName,
				"tradition": tradition,
			},
			"languages": map[string]any{
				"en": map[string]any{"text": text},
			},
		},
	}
	return verse
}
