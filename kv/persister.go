package kv

import (
	"context"
	"sort"
	"strings"

	json2 "github.com/go-json-experiment/json"

	"github.com/fulldump/kvlens/driver"
	"github.com/fulldump/kvlens/projection"
	"github.com/fulldump/kvlens/scope"
)

type Persister interface {
	Reader

	Set(ctx context.Context, key, value Document) (*WriteResult, error)
	Delete(ctx context.Context, key Document) (*WriteResult, error)
	Append(ctx context.Context, value Document) (*WriteResult, error)
	Extend(ctx context.Context, values []Document) (*WriteResult, error)
	Clear(ctx context.Context) (*WriteResult, error)
	ReplaceAll(ctx context.Context, key Document, values []Document) (*WriteResult, error)
}

type CollectionPersister struct {
	*CollectionReader
}

func NewCollectionPersister(collection driver.Collection, config Config) (*CollectionPersister, error) {
	reader, err := NewCollectionReader(collection, config)
	if err != nil {
		return nil, err
	}
	return &CollectionPersister{
		CollectionReader: reader,
	}, nil
}

// BuildDoc assembles the document written for key and value: the literal
// fields of the scope, then the key, then the value. Dot-path fields are
// written as nested documents. Operator shaped content is rejected, and so
// is any field contradicting the scope or the key. The result must fall
// inside the scope.
func (p *CollectionPersister) BuildDoc(key, value Document) (Document, error) {
	if value == nil {
		return nil, preconditionError("value must be a document")
	}
	if path, found := scope.FindOperator(key); found {
		return nil, &Error{Kind: ErrInvalidKey, Key: key, Reason: "operator '" + path + "' in key"}
	}
	if path, found := scope.FindOperator(value); found {
		return nil, &Error{Kind: ErrInvalidValue, Key: key, Value: value, Reason: "operator '" + path + "' in value"}
	}

	scoped := Document{}
	for _, field := range sortedFields(scope.Literals(p.scope)) {
		if conflict, ok := place(scoped, field, p.scope[field]); !ok {
			return nil, preconditionError("scope field '" + conflict + "' is fixed twice")
		}
	}

	keyed := projection.CopyDocument(scoped)
	for _, field := range sortedFields(key) {
		if conflict, ok := place(keyed, field, key[field]); !ok {
			return nil, &Error{Kind: ErrInvalidKey, Key: key, Reason: "field '" + conflict + "' is fixed by the scope"}
		}
	}

	doc := projection.CopyDocument(keyed)
	for _, field := range sortedFields(value) {
		if conflict, ok := place(doc, field, value[field]); !ok {
			reason := "field '" + conflict + "' is fixed by the key"
			if _, inScope := projection.Lookup(scoped, conflict); inScope {
				reason = "field '" + conflict + "' is fixed by the scope"
			}
			return nil, &Error{Kind: ErrInvalidValue, Key: key, Value: value, Reason: reason}
		}
	}

	if len(p.scope) == 0 {
		return doc, nil
	}
	if inside, err := scope.Matches(p.scope, doc); err != nil || !inside {
		return nil, p.outsideScope(key, value, keyed)
	}

	return doc, nil
}

// outsideScope blames the key when the scope fields it touches already
// reject it, and the value otherwise.
func (p *CollectionPersister) outsideScope(key, value, keyed Document) error {
	roots := map[string]bool{}
	for field := range key {
		roots[rootField(field)] = true
	}
	touched := Document{}
	for field, condition := range p.scope {
		if roots[rootField(field)] {
			touched[field] = condition
		}
	}
	if len(touched) > 0 {
		if ok, err := scope.Matches(touched, keyed); err == nil && !ok {
			return &Error{Kind: ErrInvalidKey, Key: key, Reason: "key is outside the scope"}
		}
	}
	return &Error{Kind: ErrInvalidValue, Key: key, Value: value, Reason: "document is outside the scope"}
}

func rootField(path string) string {
	root, _, _ := strings.Cut(path, ".")
	return root
}

// place writes value at a dot-path of doc, creating nested documents on the
// way. Documents already there are merged field by field, any other value
// already there must be equal. It returns the path of the first conflict.
func place(doc Document, path string, value any) (string, bool) {
	parts := strings.Split(path, ".")
	current := doc
	for i, part := range parts[:len(parts)-1] {
		next, exists := current[part]
		if !exists {
			child := Document{}
			current[part] = child
			current = child
			continue
		}
		child, isDocument := next.(map[string]any)
		if !isDocument {
			return strings.Join(parts[:i+1], "."), false
		}
		current = child
	}

	last := parts[len(parts)-1]
	existing, exists := current[last]
	if !exists {
		if m, isDocument := value.(map[string]any); isDocument {
			value = projection.CopyDocument(m)
		}
		current[last] = value
		return "", true
	}

	existingDoc, existingIsDoc := existing.(map[string]any)
	valueDoc, valueIsDoc := value.(map[string]any)
	if existingIsDoc && valueIsDoc {
		for _, field := range sortedFields(valueDoc) {
			if conflict, ok := place(existingDoc, field, valueDoc[field]); !ok {
				return path + "." + conflict, false
			}
		}
		return "", true
	}
	if !sameValue(existing, value) {
		return path, false
	}
	return "", true
}

func sortedFields(doc Document) []string {
	fields := make([]string, 0, len(doc))
	for field := range doc {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

func sameValue(a, b any) bool {
	ja, err := json2.Marshal(a, json2.Deterministic(true))
	if err != nil {
		return false
	}
	jb, err := json2.Marshal(b, json2.Deterministic(true))
	if err != nil {
		return false
	}
	return string(ja) == string(jb)
}

func validKey(key Document) error {
	if key == nil {
		return preconditionError("key must be a document")
	}
	if len(key) == 0 {
		return &Error{Kind: ErrInvalidKey, Key: key, Reason: "empty key"}
	}
	return nil
}

// Set replaces the document matching key with scope, key and value merged,
// inserting it when nothing matches.
func (p *CollectionPersister) Set(ctx context.Context, key, value Document) (*WriteResult, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	doc, err := p.BuildDoc(key, value)
	if err != nil {
		return nil, err
	}
	filter, err := p.filter(key)
	if err != nil {
		return nil, err
	}

	ack, err := p.collection.ReplaceOne(ctx, filter, doc, true)
	if err != nil {
		return nil, err
	}
	return Normalize(ack)
}

// Delete removes one document matching key. Empty keys are refused.
func (p *CollectionPersister) Delete(ctx context.Context, key Document) (*WriteResult, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	filter, err := p.filter(key)
	if err != nil {
		return nil, err
	}

	ack, err := p.collection.DeleteOne(ctx, filter)
	if err != nil {
		return nil, err
	}
	return Normalize(ack)
}

// Append inserts value, merged with the scope, as a new document.
func (p *CollectionPersister) Append(ctx context.Context, value Document) (*WriteResult, error) {
	doc, err := p.BuildDoc(nil, value)
	if err != nil {
		return nil, err
	}

	ack, err := p.collection.InsertOne(ctx, doc)
	if err != nil {
		return nil, err
	}
	return Normalize(ack)
}

// Extend appends every value in one call. Nothing is written when any of
// them is invalid, and an empty input is a no-op.
func (p *CollectionPersister) Extend(ctx context.Context, values []Document) (*WriteResult, error) {
	if len(values) == 0 {
		return &WriteResult{}, nil
	}

	docs := make([]Document, len(values))
	for i, value := range values {
		doc, err := p.BuildDoc(nil, value)
		if err != nil {
			return nil, err
		}
		docs[i] = doc
	}

	ack, err := p.collection.InsertMany(ctx, docs)
	if err != nil {
		return nil, err
	}
	return Normalize(ack)
}

// Clear removes every document in scope.
func (p *CollectionPersister) Clear(ctx context.Context) (*WriteResult, error) {
	ack, err := p.collection.DeleteMany(ctx, p.scopeFilter())
	if err != nil {
		return nil, err
	}
	return Normalize(ack)
}

// ReplaceAll deletes every document matching key and inserts values fresh.
//
// The two steps are separate calls: a concurrent reader may observe the
// key with no documents at all in between.
func (p *CollectionPersister) ReplaceAll(ctx context.Context, key Document, values []Document) (*WriteResult, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}

	docs := make([]Document, len(values))
	for i, value := range values {
		doc, err := p.BuildDoc(key, value)
		if err != nil {
			return nil, err
		}
		docs[i] = doc
	}

	filter, err := p.filter(key)
	if err != nil {
		return nil, err
	}

	deleted, err := p.collection.DeleteMany(ctx, filter)
	if err != nil {
		return nil, err
	}
	result, err := Normalize(deleted)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return result, nil
	}

	inserted, err := p.collection.InsertMany(ctx, docs)
	if err != nil {
		return nil, err
	}
	insertResult, err := Normalize(inserted)
	if err != nil {
		return nil, err
	}

	return result.Add(insertResult), nil
}
