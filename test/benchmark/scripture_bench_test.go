package benchmark

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"testing"

	"go.uber.org/zap"

	"github.com/shastralib/granthalaya/internal/models"
	"github.com/shastralib/granthalaya/internal/search"
	"github.com/shastralib/granthalaya/internal/shastra"
)

// buildDocument assembles an untyped scripture at the scale of a full Gita:
// 18 chapters of 39 verses is about 700 verses.
func buildDocument(chapters, versesPer int) map[string]any {
	lines := []string{
		"dharmakshetre kurukshetre samaveta yuyutsavah",
		"karmany evadhikaras te ma phaleshu kadachana",
		"yogasthah kuru karmani sangam tyaktva dhananjaya",
		"shraddhavan labhate jnanam tat-parah samyatendriyah",
	}
	chapterMap := make(map[string]any, chapters)
	for c := 1; c <= chapters; c++ {
		verses := make(map[string]any, versesPer)
		for v := 1; v <= versesPer; v++ {
			line := lines[(c+v)%len(lines)]
			verses[strconv.Itoa(v)] = map[string]any{
				"number": v,
				"languages": map[string]any{
					"en": map[string]any{"text": fmt.Sprintf("Verse %d of discourse %d speaks of the steady mind.", v, c)},
					"sa": map[string]any{"text": line, "transliteration": line},
				},
			}
		}
		chapterMap[strconv.Itoa(c)] = map[string]any{
			"number": c,
			"title":  map[string]any{"en": fmt.Sprintf("Discourse %d", c)},
			"verses": verses,
		}
	}
	return map[string]any{"chapters": chapterMap}
}

func BenchmarkValidate(b *testing.B) {
	doc := buildDocument(18, 39)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if res := shastra.Validate(doc); !res.OK {
			b.Fatalf("document should validate: %v", res.Errors)
		}
	}
}

func BenchmarkValidateBytes(b *testing.B) {
	data, err := json.Marshal(buildDocument(18, 39))
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if res := shastra.ValidateBytes(data); !res.OK {
			b.Fatal("document should validate")
		}
	}
}

func BenchmarkNormalize(b *testing.B) {
	res := shastra.Validate(buildDocument(18, 39))
	if !res.OK {
		b.Fatal("document should validate")
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = shastra.Normalize(res.Doc)
	}
}

func BenchmarkVerseIndexRebuild(b *testing.B) {
	res := shastra.Validate(buildDocument(2, 10))
	if !res.OK {
		b.Fatal("document should validate")
	}
	normalized := shastra.Normalize(res.Doc)

	index, err := search.NewVerseIndex(filepath.Join(b.TempDir(), "verses.bleve"), 160, 2, zap.NewNop())
	if err != nil {
		b.Fatal(err)
	}
	defer func() { _ = index.Close() }()

	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := index.Rebuild(ctx, normalized); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkVerseIndexSearch(b *testing.B) {
	res := shastra.Validate(buildDocument(18, 39))
	if !res.OK {
		b.Fatal("document should validate")
	}
	normalized := shastra.Normalize(res.Doc)

	index, err := search.NewVerseIndex(filepath.Join(b.TempDir(), "verses.bleve"), 160, 2, zap.NewNop())
	if err != nil {
		b.Fatal(err)
	}
	defer func() { _ = index.Close() }()
	if err := index.Rebuild(context.Background(), normalized); err != nil {
		b.Fatal(err)
	}

	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := index.Search(ctx, models.VerseQuery{Query: "steady mind", Limit: 10}); err != nil {
			b.Fatal(err)
		}
	}
}
