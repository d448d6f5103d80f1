package collection

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fulldump/kvlens/driver"
	"github.com/fulldump/kvlens/scope"
)

// Documents are stored in their JSON decoded form, the same one filters are
// evaluated on.
func normalizeDocument(doc driver.Document) (driver.Document, error) {
	return scope.NormalizeDocument(doc)
}

func sortDocuments(docs []driver.Document, fields []driver.SortField) {
	if len(fields) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, field := range fields {
			a, _ := lookup(docs[i], field.Field)
			b, _ := lookup(docs[j], field.Field)
			c := compareValues(a, b)
			if c == 0 {
				continue
			}
			if field.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func sortValues(values []any) {
	sort.SliceStable(values, func(i, j int) bool {
		return compareValues(values[i], values[j]) < 0
	})
}

func lookup(doc driver.Document, path string) (any, bool) {
	var current any = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(driver.Document)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// typeRank follows the document database ordering of types: null, numbers,
// strings, documents, arrays, booleans.
func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case float64:
		return 1
	case string:
		return 2
	case driver.Document:
		return 3
	case []any:
		return 4
	case bool:
		return 5
	}
	return 6
}

func compareValues(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return ra - rb
	}
	switch x := a.(type) {
	case float64:
		y := b.(float64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case string:
		return strings.Compare(x, b.(string))
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
