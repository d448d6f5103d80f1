package service

import (
	"context"
	"fmt"

	"github.com/fulldump/kvlens/driver"
	"github.com/fulldump/kvlens/kv"
	"github.com/fulldump/kvlens/projection"
)

const (
	PolicyUnique   = "unique"
	PolicyFirst    = "first"
	PolicyMultiple = "multiple"
)

// StoreDefinition names a key-value lens over a collection.
type StoreDefinition struct {
	Name        string             `json:"name"`
	Collection  string             `json:"collection"`
	Scope       map[string]any     `json:"scope,omitempty"`
	KeyFields   any                `json:"keyFields,omitempty"`
	ValueFields any                `json:"valueFields,omitempty"`
	Policy      string             `json:"policy"`
	Skip        int64              `json:"skip,omitempty,omitzero"`
	Limit       int64              `json:"limit,omitempty,omitzero"`
	Sort        []driver.SortField `json:"sort,omitempty"`
	NoOverlap   *OverlapRule       `json:"noOverlap,omitempty"`
}

// OverlapRule refuses to set a key whose [start, end] interval overlaps the
// interval of another document with the same group.
type OverlapRule struct {
	Group string `json:"group"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func (d *StoreDefinition) setDefaults() {
	if d.Collection == "" {
		d.Collection = d.Name
	}
	if d.KeyFields == nil {
		d.KeyFields = []any{projection.IdField}
	}
	if d.Policy == "" {
		d.Policy = PolicyUnique
	}
}

func (d *StoreDefinition) config() (kv.Config, error) {
	keyFields, err := projection.Parse(d.KeyFields)
	if err != nil {
		return kv.Config{}, fmt.Errorf("keyFields: %w", err)
	}
	valueFields, err := projection.Parse(d.ValueFields)
	if err != nil {
		return kv.Config{}, fmt.Errorf("valueFields: %w", err)
	}
	return kv.Config{
		Scope:       d.Scope,
		KeyFields:   keyFields,
		ValueFields: valueFields,
		Options: kv.Options{
			Skip:  d.Skip,
			Limit: d.Limit,
			Sort:  d.Sort,
		},
	}, nil
}

// Store is a definition bound to its collection. Lookups and sets go
// through the policy wrapper, everything else through the plain persister.
type Store struct {
	Definition *StoreDefinition
	Persister  *kv.CollectionPersister
	policy     kv.Persister
}

func (d *StoreDefinition) validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrorInvalidStore)
	}
	switch d.Policy {
	case PolicyUnique, PolicyFirst, PolicyMultiple:
	default:
		return fmt.Errorf("%w: unknown policy '%s'", ErrorInvalidStore, d.Policy)
	}
	if r := d.NoOverlap; r != nil {
		if r.Group == "" || r.Start == "" || r.End == "" {
			return fmt.Errorf("%w: noOverlap needs group, start and end", ErrorInvalidStore)
		}
		if d.Policy == PolicyMultiple {
			return fmt.Errorf("%w: noOverlap does not apply to the multiple policy", ErrorInvalidStore)
		}
	}
	_, err := d.config()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrorInvalidStore, err.Error())
	}
	return nil
}

func newStore(collection driver.Collection, definition *StoreDefinition) (*Store, error) {
	config, err := definition.config()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrorInvalidStore, err.Error())
	}

	persister, err := kv.NewCollectionPersister(collection, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrorInvalidStore, err.Error())
	}

	var base kv.Persister = persister
	if r := definition.NoOverlap; r != nil {
		base = kv.NewGuarded(persister, kv.NoOverlap(r.Group, r.Start, r.End))
	}

	var policy kv.Persister
	switch definition.Policy {
	case PolicyFirst:
		policy = &kv.FirstStore{Persister: base}
	case PolicyMultiple:
		policy = &kv.MultipleStore{Persister: base}
	default:
		policy = &kv.UniqueStore{Persister: base}
	}

	return &Store{
		Definition: definition,
		Persister:  persister,
		policy:     policy,
	}, nil
}

// Guarded tells whether sets are checked before being written.
func (s *Store) Guarded() bool {
	return s.Definition.NoOverlap != nil
}

// Lookup returns a single document, or a list of them for the multiple
// policy.
func (s *Store) Lookup(ctx context.Context, key kv.Document) (any, error) {
	switch p := s.policy.(type) {
	case *kv.FirstStore:
		return p.Lookup(ctx, key)
	case *kv.MultipleStore:
		return p.Lookup(ctx, key)
	case *kv.UniqueStore:
		return p.Lookup(ctx, key)
	}
	return nil, fmt.Errorf("%w: unknown policy '%s'", ErrorInvalidStore, s.Definition.Policy)
}

func (s *Store) Set(ctx context.Context, key, value kv.Document) (*kv.WriteResult, error) {
	return s.policy.Set(ctx, key, value)
}

// SetMany is only meaningful for the multiple policy.
func (s *Store) SetMany(ctx context.Context, key kv.Document, values []kv.Document) (*kv.WriteResult, error) {
	multiple, ok := s.policy.(*kv.MultipleStore)
	if !ok {
		return nil, &kv.Error{Kind: kv.ErrWriteNotAllowed, Key: key, Reason: "store policy is " + s.Definition.Policy}
	}
	return multiple.SetMany(ctx, key, values)
}
