package utils

import (
	"sort"
	"strconv"
)

// SortKeysNumeric sorts keys in place: keys that parse as integers compare
// numerically ("2" before "10"), non-numeric keys compare lexicographically
// and sort after numeric ones. Gives map walks a stable, human-sensible order.
func SortKeysNumeric(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		a, aok := parseKeyInt(keys[i])
		b, bok := parseKeyInt(keys[j])
		switch {
		case aok && bok:
			return a < b
		case aok:
			return true
		case bok:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
}

func parseKeyInt(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
