package utils

import (
	"sort"
)

// GetKeys returns the keys of m sorted, never nil.
func GetKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
