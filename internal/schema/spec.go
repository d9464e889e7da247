package schema

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/shastralib/granthalaya/pkg/utils"
)

// Kind enumerates the value shapes a Spec can require.
type Kind uint8

const (
	// Object is a mapping with a fixed set of named fields. Fields not named
	// in the spec are ignored, which lets an already-normalized document
	// revalidate cleanly.
	Object Kind = iota
	// Map is a homogeneous mapping with caller-supplied keys.
	Map
	// String is a JSON string.
	String
	// Int is an integer literal. Floats, numeric strings, and non-integral
	// numbers are wrong type; nothing is coerced.
	Int
)

// KeyRule constrains the keys of a Map.
type KeyRule uint8

const (
	// KeyString accepts any non-empty string key.
	KeyString KeyRule = iota
	// KeyNumber accepts only canonical positive-integer keys: "1", "42",
	// never "0", "007", or "abc". Navigation sorts these numerically, so
	// nothing non-numeric may ever reach the normalized artifact.
	KeyNumber
)

// MatchRule requires a field inside each map value to equal the entry's key.
// Numeric compares the field as an integer against the parsed key; otherwise
// the field must be the key string itself. Mismatches are reported at the
// entry path, not the field path.
type MatchRule struct {
	Path    []string
	Numeric bool
}

// Field is one member of an Object spec.
type Field struct {
	Name     string
	Optional bool
	Spec     *Spec
}

// Spec declares the shape of a value.
type Spec struct {
	Kind     Kind
	Fields   []Field    // Object members
	Keys     KeyRule    // Map key constraint
	Values   *Spec      // Map value shape
	MatchKey *MatchRule // Map key/value agreement
	MinLen   int        // Map: minimum entries; String: minimum length
}

// Validate walks value against spec and returns every finding in one pass,
// in deterministic order (map keys are visited numerically where possible).
// Traversal descends no further beneath a value of the wrong shape, so a
// non-mapping chapters field yields one error, not a walk of its contents.
// A nil return means the value conforms.
func Validate(value any, spec *Spec) []Error {
	var errs []Error
	walk(value, spec, "", &errs)
	return errs
}

func walk(value any, spec *Spec, path string, errs *[]Error) {
	switch spec.Kind {
	case Object:
		walkObject(value, spec, path, errs)
	case Map:
		walkMap(value, spec, path, errs)
	case String:
		s, ok := value.(string)
		if !ok {
			*errs = append(*errs, Error{Path: path, Reason: ReasonWrongType})
			return
		}
		if len(s) < spec.MinLen {
			*errs = append(*errs, Error{Path: path, Reason: ReasonEmpty})
		}
	case Int:
		if _, ok := intValue(value); !ok {
			*errs = append(*errs, Error{Path: path, Reason: ReasonWrongType})
		}
	}
}

func walkObject(value any, spec *Spec, path string, errs *[]Error) {
	obj, ok := value.(map[string]any)
	if !ok {
		*errs = append(*errs, Error{Path: path, Reason: ReasonWrongType})
		return
	}
	for _, f := range spec.Fields {
		v, present := obj[f.Name]
		if !present {
			if !f.Optional {
				*errs = append(*errs, Error{Path: joinPath(path, f.Name), Reason: ReasonMissing})
			}
			continue
		}
		walk(v, f.Spec, joinPath(path, f.Name), errs)
	}
}

func walkMap(value any, spec *Spec, path string, errs *[]Error) {
	m, ok := value.(map[string]any)
	if !ok {
		*errs = append(*errs, Error{Path: path, Reason: ReasonWrongType})
		return
	}
	if len(m) < spec.MinLen {
		*errs = append(*errs, Error{Path: path, Reason: ReasonEmpty})
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	utils.SortKeysNumeric(keys)
	for _, k := range keys {
		entryPath := joinPath(path, k)
		keyOK := validKey(k, spec.Keys)
		if !keyOK {
			*errs = append(*errs, Error{Path: entryPath, Reason: ReasonInvalidKey})
		}
		if spec.Values != nil {
			walk(m[k], spec.Values, entryPath, errs)
		}
		if keyOK && spec.MatchKey != nil {
			checkMatch(m[k], k, spec.MatchKey, entryPath, errs)
		}
	}
}

// validKey reports whether key satisfies rule. KeyNumber demands the
// canonical decimal form: strconv.Itoa(n) for some n >= 1.
func validKey(key string, rule KeyRule) bool {
	switch rule {
	case KeyNumber:
		n, err := strconv.Atoi(key)
		if err != nil || n < 1 {
			return false
		}
		return strconv.Itoa(n) == key
	default:
		return key != ""
	}
}

// checkMatch verifies the identifying field inside a map entry equals the
// entry's key. Absent or mistyped fields are left to the value spec to
// report; only a present, well-typed, unequal field is a mismatch.
func checkMatch(value any, key string, rule *MatchRule, entryPath string, errs *[]Error) {
	cur := value
	for _, seg := range rule.Path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return
		}
		cur, ok = obj[seg]
		if !ok {
			return
		}
	}
	if rule.Numeric {
		n, ok := intValue(cur)
		if !ok {
			return
		}
		want, err := strconv.ParseInt(key, 10, 64)
		if err != nil || n != want {
			*errs = append(*errs, Error{Path: entryPath, Reason: ReasonKeyMismatch})
		}
		return
	}
	s, ok := cur.(string)
	if !ok {
		return
	}
	if s != key {
		*errs = append(*errs, Error{Path: entryPath, Reason: ReasonKeyMismatch})
	}
}

// intValue extracts an integer from the representations decoded input can
// carry. json.Number must be an integer literal ("3", not "3.0"); float64
// is accepted only when integral, for documents assembled in code.
func intValue(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if math.Trunc(n) != n || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}
