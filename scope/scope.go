// Package scope combines the fixed filter of a store with the per-call
// filters derived from keys.
package scope

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// OperatorPrefix marks query operators in filters and update documents.
const OperatorPrefix = "$"

var ErrNotDocument = errors.New("filter is not a document")

func IsOperator(key string) bool {
	return strings.HasPrefix(key, OperatorPrefix)
}

// Merge returns a filter matched by exactly the documents matching both
// scope and extra.
//
// Filters with disjoint top level fields are merged field by field, since
// top level fields of a filter are already a conjunction. Any overlap is
// resolved with an explicit $and so neither side can override the other.
func Merge(scope, extra map[string]any) (map[string]any, error) {
	if extra == nil {
		return nil, ErrNotDocument
	}
	if len(scope) == 0 {
		return clone(extra), nil
	}
	if len(extra) == 0 {
		return clone(scope), nil
	}

	for field := range extra {
		if _, collides := scope[field]; collides {
			return map[string]any{
				"$and": []any{clone(scope), clone(extra)},
			}, nil
		}
	}

	merged := clone(scope)
	for field, value := range extra {
		merged[field] = value
	}
	return merged, nil
}

// FindOperator looks for an operator key anywhere in doc, including nested
// documents and arrays. It returns the dot-path of the first one found.
func FindOperator(doc map[string]any) (string, bool) {
	return findOperator("", doc)
}

func findOperator(prefix string, doc map[string]any) (string, bool) {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if IsOperator(key) {
			return path, true
		}
		if found, ok := findOperatorValue(path, doc[key]); ok {
			return found, true
		}
	}
	return "", false
}

func findOperatorValue(path string, value any) (string, bool) {
	switch v := value.(type) {
	case map[string]any:
		return findOperator(path, v)
	case []any:
		for i, item := range v {
			if found, ok := findOperatorValue(fmt.Sprintf("%s.%d", path, i), item); ok {
				return found, true
			}
		}
	}
	return "", false
}

// Literals returns the top level fields of a filter that pin a value with a
// plain equality, leaving out operators and operator expressions. These are
// the fields a document must carry to fall inside the scope.
func Literals(filter map[string]any) map[string]any {
	literals := map[string]any{}
	for field, value := range filter {
		if IsOperator(field) {
			continue
		}
		if m, ok := value.(map[string]any); ok {
			if _, hasOperator := FindOperator(m); hasOperator {
				continue
			}
		}
		literals[field] = value
	}
	return literals
}

func clone(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}
