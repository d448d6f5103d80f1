package scope

import (
	"fmt"

	"github.com/SierraSoftworks/connor"
	json2 "github.com/go-json-experiment/json"
)

// connor spells the inclusive range operators differently
var operatorAliases = map[string]string{
	"$gte": "$ge",
	"$lte": "$le",
}

// NormalizeDocument brings a document to its JSON decoded form, so that 3
// and 3.0 are the same number wherever it is compared.
func NormalizeDocument(doc map[string]any) (map[string]any, error) {
	data, err := json2.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("json encode document: %w", err)
	}
	result := map[string]any{}
	err = json2.Unmarshal(data, &result)
	if err != nil {
		return nil, fmt.Errorf("json decode document: %w", err)
	}
	return result, nil
}

// Matcher evaluates a filter against documents already normalized with
// NormalizeDocument.
type Matcher struct {
	filter map[string]any
}

func NewMatcher(filter map[string]any) (*Matcher, error) {
	if len(filter) == 0 {
		return &Matcher{}, nil
	}
	normalized, err := NormalizeDocument(filter)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	return &Matcher{
		filter: translateOperators(normalized).(map[string]any),
	}, nil
}

func (m *Matcher) Match(doc map[string]any) (bool, error) {
	if len(m.filter) == 0 {
		return true, nil
	}
	return connor.Match(m.filter, doc)
}

// Matches tells whether doc, in any value representation, satisfies filter.
func Matches(filter, doc map[string]any) (bool, error) {
	m, err := NewMatcher(filter)
	if err != nil {
		return false, err
	}
	normalized, err := NormalizeDocument(doc)
	if err != nil {
		return false, err
	}
	return m.Match(normalized)
}

func translateOperators(v any) any {
	switch value := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(value))
		for k, item := range value {
			if alias, ok := operatorAliases[k]; ok {
				k = alias
			}
			result[k] = translateOperators(item)
		}
		return result
	case []any:
		result := make([]any, len(value))
		for i, item := range value {
			result[i] = translateOperators(item)
		}
		return result
	}
	return v
}
