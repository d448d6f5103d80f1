// Package projection translates caller field selections ("key fields",
// "value fields") into the field-selection language of a document database.
//
// A Projection maps dot-paths to include (true) or exclude (false). A nil
// Projection means "no restriction". A non-nil empty Projection means
// "project to nothing" and is used for existence checks.
//
// Mixing true and false entries is allowed: as soon as one entry is true the
// projection is an allow-list (plus explicitly excluded paths), otherwise it
// is a deny-list over an implicit allow-all. The identity field is returned
// by allow-lists unless it is explicitly excluded.
package projection

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// IdField is the identity field the database returns unless told otherwise.
const IdField = "_id"

var ErrInvalidProjection = errors.New("invalid projection")

type Projection map[string]bool

type specKind int

const (
	specNone specKind = iota
	specFieldList
	specFieldMap
)

// Spec is what callers hand over: nothing, a list of field names or an
// explicit (possibly nested) inclusion map. It is resolved once into a
// Projection by Normalize.
type Spec struct {
	kind     specKind
	fields   []string
	fieldMap map[string]any
}

func None() Spec {
	return Spec{kind: specNone}
}

// Fields builds an allow-list spec. Fields() with no names projects to
// nothing.
func Fields(fields ...string) Spec {
	return Spec{kind: specFieldList, fields: append([]string{}, fields...)}
}

func Field(field string) Spec {
	return Fields(field)
}

func Map(m map[string]any) Spec {
	return Spec{kind: specFieldMap, fieldMap: m}
}

func (s Spec) IsNone() bool {
	return s.kind == specNone
}

// Parse builds a Spec from a decoded JSON value: null, a field name, a list
// of field names or an inclusion map.
func Parse(v any) (Spec, error) {
	switch value := v.(type) {
	case nil:
		return None(), nil
	case string:
		return Field(value), nil
	case []string:
		return Fields(value...), nil
	case []any:
		fields := make([]string, 0, len(value))
		for _, item := range value {
			field, ok := item.(string)
			if !ok {
				return Spec{}, fmt.Errorf("%w: field names must be strings, got %T", ErrInvalidProjection, item)
			}
			fields = append(fields, field)
		}
		return Fields(fields...), nil
	case map[string]any:
		return Map(value), nil
	case map[string]bool:
		m := make(map[string]any, len(value))
		for k, b := range value {
			m[k] = b
		}
		return Map(m), nil
	case Projection:
		m := make(map[string]any, len(value))
		for k, b := range value {
			m[k] = b
		}
		return Map(m), nil
	}
	return Spec{}, fmt.Errorf("%w: unsupported spec type %T", ErrInvalidProjection, v)
}

// Normalize resolves a Spec into a canonical, dot-path flattened Projection.
func Normalize(spec Spec) (Projection, error) {
	switch spec.kind {
	case specNone:
		return nil, nil
	case specFieldList:
		p := make(Projection, len(spec.fields)+1)
		if len(spec.fields) == 0 {
			return p, nil
		}
		for _, field := range spec.fields {
			p[field] = true
		}
		if _, ok := p[IdField]; !ok {
			p[IdField] = false
		}
		return p, nil
	case specFieldMap:
		p := make(Projection, len(spec.fieldMap))
		for _, pair := range Flatten(spec.fieldMap) {
			include, err := asFlag(pair.Value)
			if err != nil {
				return nil, fmt.Errorf("%w: field '%s': %s", ErrInvalidProjection, pair.Path, err.Error())
			}
			p[pair.Path] = include
		}
		return p, nil
	}
	return nil, fmt.Errorf("%w: unknown spec", ErrInvalidProjection)
}

func asFlag(v any) (bool, error) {
	switch value := v.(type) {
	case bool:
		return value, nil
	case int:
		return value != 0, nil
	case int32:
		return value != 0, nil
	case int64:
		return value != 0, nil
	case float64:
		return value != 0, nil
	}
	return false, fmt.Errorf("flag must be boolean, got %T", v)
}

// Pair is one leaf of a flattened document.
type Pair struct {
	Path  string
	Value any
}

// Flatten walks nested documents and yields one Pair per non-document leaf.
// Keys are visited in lexical order at every level. Arrays are leaves.
func Flatten(doc map[string]any) []Pair {
	pairs := []Pair{}
	flatten("", doc, &pairs)
	return pairs
}

func flatten(prefix string, doc map[string]any, pairs *[]Pair) {
	for _, key := range sortedKeys(doc) {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if child, ok := doc[key].(map[string]any); ok {
			flatten(path, child, pairs)
			continue
		}
		*pairs = append(*pairs, Pair{Path: path, Value: doc[key]})
	}
}

// IsNone is true for the unrestricted projection.
func (p Projection) IsNone() bool {
	return p == nil
}

// IsEmpty is true for the projection to nothing.
func (p Projection) IsEmpty() bool {
	return p != nil && len(p) == 0
}

// Inclusive reports whether p behaves as an allow-list.
func (p Projection) Inclusive() bool {
	for _, include := range p {
		if include {
			return true
		}
	}
	return false
}

// IncludesId reports whether documents shaped by p carry the identity field.
func (p Projection) IncludesId() bool {
	if p == nil {
		return true
	}
	if len(p) == 0 {
		return false
	}
	include, ok := p[IdField]
	return !ok || include
}

// IncludedPaths returns the explicitly included paths in lexical order.
func (p Projection) IncludedPaths() []string {
	paths := []string{}
	for _, path := range sortedKeys(p) {
		if p[path] {
			paths = append(paths, path)
		}
	}
	return paths
}

// ExcludedPaths returns the explicitly excluded paths in lexical order.
func (p Projection) ExcludedPaths() []string {
	paths := []string{}
	for _, path := range sortedKeys(p) {
		if !p[path] {
			paths = append(paths, path)
		}
	}
	return paths
}

func (p Projection) Clone() Projection {
	if p == nil {
		return nil
	}
	c := make(Projection, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Union returns a projection that shows every field visible through p1 or
// through p2.
//
// Two projections of the same kind are merged path by path: a mentioned
// path stays visible when either side shows it. An allow-list merged with a
// deny-list yields a deny-list of the paths hidden by the deny-list and not
// requested by the allow-list.
func Union(p1, p2 Projection) Projection {
	if p1 == nil || p2 == nil {
		return nil
	}
	if len(p1) == 0 {
		return p2.Clone()
	}
	if len(p2) == 0 {
		return p1.Clone()
	}

	in1, in2 := p1.Inclusive(), p2.Inclusive()
	if in1 != in2 {
		allow, deny := p1, p2
		if in2 {
			allow, deny = p2, p1
		}
		result := Projection{}
		for path, include := range deny {
			if !include && !allow[path] {
				result[path] = false
			}
		}
		if len(result) == 0 {
			return nil
		}
		return result
	}

	result := make(Projection, len(p1)+len(p2))
	for _, p := range []Projection{p1, p2} {
		for path := range p {
			visible := p1.visible(path) || p2.visible(path)
			if in1 || !visible {
				result[path] = visible
			}
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// visible tells whether a path mentioned somewhere survives p.
func (p Projection) visible(path string) bool {
	if include, ok := p[path]; ok {
		return include
	}
	if path == IdField {
		return p.IncludesId()
	}
	return !p.Inclusive()
}

func splitPath(path string) []string {
	return strings.Split(path, ".")
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
