// Package shastra defines the scripture document shape and implements the
// two halves of the ingestion core: structural validation of untrusted input
// and normalization into the canonical persisted form.
package shastra

import (
	"encoding/json"
	"fmt"

	"github.com/shastralib/granthalaya/internal/models"
	"github.com/shastralib/granthalaya/internal/schema"
)

// docSpec declares the accepted scripture document shape. Chapter and verse
// keys must be canonical positive integers whose value's number field agrees;
// commentary keys must equal the commentary's author.id. Requiring a new
// field is an edit to this literal.
var docSpec = &schema.Spec{
	Kind: schema.Object,
	Fields: []schema.Field{
		{Name: "chapters", Spec: &schema.Spec{
			Kind:     schema.Map,
			Keys:     schema.KeyNumber,
			MatchKey: &schema.MatchRule{Path: []string{"number"}, Numeric: true},
			Values:   chapterSpec,
		}},
	},
}

var chapterSpec = &schema.Spec{
	Kind: schema.Object,
	Fields: []schema.Field{
		{Name: "number", Spec: &schema.Spec{Kind: schema.Int}},
		{Name: "title", Spec: &schema.Spec{
			Kind:   schema.Map,
			Keys:   schema.KeyString,
			Values: &schema.Spec{Kind: schema.String},
		}},
		{Name: "verses", Spec: &schema.Spec{
			Kind:     schema.Map,
			Keys:     schema.KeyNumber,
			MatchKey: &schema.MatchRule{Path: []string{"number"}, Numeric: true},
			Values:   verseSpec,
		}},
	},
}

var verseSpec = &schema.Spec{
	Kind: schema.Object,
	Fields: []schema.Field{
		{Name: "number", Spec: &schema.Spec{Kind: schema.Int}},
		{Name: "languages", Spec: &schema.Spec{
			Kind:   schema.Map,
			Keys:   schema.KeyString,
			MinLen: 1,
			Values: &schema.Spec{
				Kind: schema.Object,
				Fields: []schema.Field{
					{Name: "text", Spec: &schema.Spec{Kind: schema.String, MinLen: 1}},
					{Name: "transliteration", Optional: true, Spec: &schema.Spec{Kind: schema.String}},
				},
			},
		}},
		{Name: "commentaries", Optional: true, Spec: &schema.Spec{
			Kind:     schema.Map,
			Keys:     schema.KeyString,
			MatchKey: &schema.MatchRule{Path: []string{"author", "id"}},
			Values:   commentarySpec,
		}},
	},
}

var commentarySpec = &schema.Spec{
	Kind: schema.Object,
	Fields: []schema.Field{
		{Name: "author", Spec: &schema.Spec{
			Kind: schema.Object,
			Fields: []schema.Field{
				{Name: "id", Spec: &schema.Spec{Kind: schema.String, MinLen: 1}},
				{Name: "name", Spec: &schema.Spec{Kind: schema.String}},
				{Name: "tradition", Spec: &schema.Spec{Kind: schema.String}},
			},
		}},
		{Name: "languages", Spec: &schema.Spec{
			Kind:   schema.Map,
			Keys:   schema.KeyString,
			MinLen: 1,
			Values: &schema.Spec{
				Kind: schema.Object,
				Fields: []schema.Field{
					{Name: "text", Spec: &schema.Spec{Kind: schema.String, MinLen: 1}},
				},
			},
		}},
	},
}

// Result carries the outcome of validation: either a typed document or the
// complete ordered list of structural findings. Exactly one of Doc and
// Errors is set.
type Result struct {
	OK     bool            `json:"ok"`
	Doc    *models.Shastra `json:"-"`
	Errors []schema.Error  `json:"errors,omitempty"`
}

// Validate checks an untyped value against the scripture document shape.
// It never mutates its input and never fails part-way: all findings from a
// single pass are returned together, so a caller can report every problem
// at once. Structural errors are data, not panics.
func Validate(doc any) Result {
	errs := schema.Validate(doc, docSpec)
	if len(errs) > 0 {
		return Result{Errors: errs}
	}
	typed, err := toShastra(doc)
	if err != nil {
		// A validated document that cannot decode into the typed form means
		// the spec literal and the models disagree. That is a bug here, not
		// bad input.
		panic(fmt.Sprintf("shastra: validated document failed typed decode: %v", err))
	}
	return Result{OK: true, Doc: typed}
}

// ValidateBytes decodes raw JSON strictly (duplicate keys are findings, not
// silent overwrites) and validates the result. Malformed JSON yields a
// single root finding.
func ValidateBytes(data []byte) Result {
	value, decodeErrs := ValidateJSON(data)
	if value == nil {
		return Result{Errors: decodeErrs}
	}
	res := Validate(value)
	if len(decodeErrs) > 0 {
		res.OK = false
		res.Doc = nil
		res.Errors = append(decodeErrs, res.Errors...)
	}
	return res
}

// ValidateJSON decodes data strictly and returns the untyped value plus any
// decode-phase findings (duplicate keys, malformed JSON). A nil value means
// the input was not valid JSON.
func ValidateJSON(data []byte) (any, []schema.Error) {
	return schema.DecodeStrict(data)
}

func toShastra(doc any) (*models.Shastra, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var s models.Shastra
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
