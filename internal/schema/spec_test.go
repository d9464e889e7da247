package schema

import (
	"encoding/json"
	"reflect"
	"testing"
)

// itemsSpec is a small document shape exercising every rule: a required
// numeric-keyed map whose entries carry a matching "n" field and a non-empty
// "label", plus an optional string-keyed map of non-empty notes.
func itemsSpec() *Spec {
	return &Spec{
		Kind: Object,
		Fields: []Field{
			{Name: "items", Spec: &Spec{
				Kind:     Map,
				Keys:     KeyNumber,
				MatchKey: &MatchRule{Path: []string{"n"}, Numeric: true},
				Values: &Spec{
					Kind: Object,
					Fields: []Field{
						{Name: "n", Spec: &Spec{Kind: Int}},
						{Name: "label", Spec: &Spec{Kind: String, MinLen: 1}},
					},
				},
			}},
			{Name: "notes", Optional: true, Spec: &Spec{
				Kind:     Map,
				Keys:     KeyString,
				MinLen:   1,
				MatchKey: &MatchRule{Path: []string{"id"}},
				Values: &Spec{
					Kind:   Object,
					Fields: []Field{{Name: "id", Spec: &Spec{Kind: String, MinLen: 1}}},
				},
			}},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected []Error
	}{
		{
			name: "conforming document",
			value: map[string]any{
				"items": map[string]any{
					"1":  map[string]any{"n": 1, "label": "one"},
					"12": map[string]any{"n": 12, "label": "twelve"},
				},
			},
			expected: nil,
		},
		{
			name:     "root not an object",
			value:    []any{"x"},
			expected: []Error{{Path: "", Reason: ReasonWrongType}},
		},
		{
			name:     "required field missing",
			value:    map[string]any{},
			expected: []Error{{Path: "items", Reason: ReasonMissing}},
		},
		{
			name:     "map of wrong shape stops the walk",
			value:    map[string]any{"items": "not a map"},
			expected: []Error{{Path: "items", Reason: ReasonWrongType}},
		},
		{
			name: "non-canonical keys rejected not coerced",
			value: map[string]any{
				"items": map[string]any{
					"0":   map[string]any{"n": 0, "label": "zero"},
					"007": map[string]any{"n": 7, "label": "seven"},
					"x":   map[string]any{"n": 1, "label": "ex"},
				},
			},
			expected: []Error{
				{Path: "items.0", Reason: ReasonInvalidKey},
				{Path: "items.007", Reason: ReasonInvalidKey},
				{Path: "items.x", Reason: ReasonInvalidKey},
			},
		},
		{
			name: "key value mismatch reported at the entry",
			value: map[string]any{
				"items": map[string]any{
					"2": map[string]any{"n": 3, "label": "drift"},
				},
			},
			expected: []Error{{Path: "items.2", Reason: ReasonKeyMismatch}},
		},
		{
			name: "numeric string field is wrong type not coerced",
			value: map[string]any{
				"items": map[string]any{
					"2": map[string]any{"n": "2", "label": "stringy"},
				},
			},
			expected: []Error{{Path: "items.2.n", Reason: ReasonWrongType}},
		},
		{
			name: "float literal field is wrong type",
			value: map[string]any{
				"items": map[string]any{
					"2": map[string]any{"n": json.Number("2.0"), "label": "floaty"},
				},
			},
			expected: []Error{{Path: "items.2.n", Reason: ReasonWrongType}},
		},
		{
			name: "empty label reported as empty",
			value: map[string]any{
				"items": map[string]any{
					"1": map[string]any{"n": 1, "label": ""},
				},
			},
			expected: []Error{{Path: "items.1.label", Reason: ReasonEmpty}},
		},
		{
			name: "empty map below MinLen",
			value: map[string]any{
				"items": map[string]any{"1": map[string]any{"n": 1, "label": "one"}},
				"notes": map[string]any{},
			},
			expected: []Error{{Path: "notes", Reason: ReasonEmpty}},
		},
		{
			name: "string keyed map with id mismatch",
			value: map[string]any{
				"items": map[string]any{"1": map[string]any{"n": 1, "label": "one"}},
				"notes": map[string]any{
					"alpha": map[string]any{"id": "beta"},
				},
			},
			expected: []Error{{Path: "notes.alpha", Reason: ReasonKeyMismatch}},
		},
		{
			name: "all findings from one pass in key order",
			value: map[string]any{
				"items": map[string]any{
					"2":   map[string]any{"n": 3, "label": "drift"},
					"10":  map[string]any{"n": 10, "label": ""},
					"bad": map[string]any{"n": 1, "label": "x"},
				},
			},
			expected: []Error{
				{Path: "items.2", Reason: ReasonKeyMismatch},
				{Path: "items.10.label", Reason: ReasonEmpty},
				{Path: "items.bad", Reason: ReasonInvalidKey},
			},
		},
		{
			name: "unknown fields ignored",
			value: map[string]any{
				"items": map[string]any{"1": map[string]any{"n": 1, "label": "one", "extra": true}},
				"junk":  42,
			},
			expected: nil,
		},
		{
			name: "null value is wrong type not missing",
			value: map[string]any{
				"items": nil,
			},
			expected: []Error{{Path: "items", Reason: ReasonWrongType}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.value, itemsSpec())
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Validate() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestValidateOrderIsDeterministic(t *testing.T) {
	value := map[string]any{
		"items": map[string]any{
			"3": map[string]any{"n": 9, "label": "a"},
			"1": map[string]any{"n": 9, "label": "b"},
			"2": map[string]any{"n": 9, "label": "c"},
		},
	}
	first := Validate(value, itemsSpec())
	for i := 0; i < 20; i++ {
		if got := Validate(value, itemsSpec()); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d produced different order: %v vs %v", i, got, first)
		}
	}
	expected := []Error{
		{Path: "items.1", Reason: ReasonKeyMismatch},
		{Path: "items.2", Reason: ReasonKeyMismatch},
		{Path: "items.3", Reason: ReasonKeyMismatch},
	}
	if !reflect.DeepEqual(first, expected) {
		t.Errorf("Validate() = %v, want %v", first, expected)
	}
}

func TestValidKey(t *testing.T) {
	tests := []struct {
		key  string
		rule KeyRule
		ok   bool
	}{
		{"1", KeyNumber, true},
		{"42", KeyNumber, true},
		{"0", KeyNumber, false},
		{"007", KeyNumber, false},
		{"-1", KeyNumber, false},
		{"+1", KeyNumber, false},
		{"1.0", KeyNumber, false},
		{" 1", KeyNumber, false},
		{"abc", KeyNumber, false},
		{"", KeyNumber, false},
		{"shankara", KeyString, true},
		{"", KeyString, false},
	}
	for _, tt := range tests {
		if got := validKey(tt.key, tt.rule); got != tt.ok {
			t.Errorf("validKey(%q, %v) = %t, want %t", tt.key, tt.rule, got, tt.ok)
		}
	}
}

func TestErrorString(t *testing.T) {
	e := Error{Path: "chapters.2", Reason: ReasonKeyMismatch}
	if got := e.Error(); got != "chapters.2: key/value mismatch" {
		t.Errorf("Error() = %q", got)
	}
	root := Error{Path: "", Reason: ReasonWrongType}
	if got := root.Error(); got != "wrong type" {
		t.Errorf("Error() = %q", got)
	}
}
