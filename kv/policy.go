package kv

import (
	"context"
)

// Cardinality policies decide what "the value of a key" is when a key
// matches several documents.

// LookupUnique reads at most two matches: none is ErrNotFound, two is
// ErrNotUnique.
func LookupUnique(ctx context.Context, r Reader, key Document) (Document, error) {
	c, err := r.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer c.Close(ctx)

	if !c.Next(ctx) {
		if err := c.Err(); err != nil {
			return nil, err
		}
		return nil, &Error{Kind: ErrNotFound, Key: key}
	}
	value := c.Document()

	if c.Next(ctx) {
		return nil, &Error{Kind: ErrNotUnique, Key: key}
	}
	if err := c.Err(); err != nil {
		return nil, err
	}

	return value, nil
}

// LookupFirst returns the first match and ignores the rest.
func LookupFirst(ctx context.Context, r Reader, key Document) (Document, error) {
	c, err := r.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer c.Close(ctx)

	if !c.Next(ctx) {
		if err := c.Err(); err != nil {
			return nil, err
		}
		return nil, &Error{Kind: ErrNotFound, Key: key}
	}

	return c.Document(), nil
}

// LookupMultiple returns every match, possibly none.
func LookupMultiple(ctx context.Context, r Reader, key Document) ([]Document, error) {
	c, err := r.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return c.All(ctx)
}

type Unique struct {
	Reader
}

func (u *Unique) Lookup(ctx context.Context, key Document) (Document, error) {
	return LookupUnique(ctx, u.Reader, key)
}

type First struct {
	Reader
}

func (f *First) Lookup(ctx context.Context, key Document) (Document, error) {
	return LookupFirst(ctx, f.Reader, key)
}

type Multiple struct {
	Reader
}

func (m *Multiple) Lookup(ctx context.Context, key Document) ([]Document, error) {
	return LookupMultiple(ctx, m.Reader, key)
}

type UniqueStore struct {
	Persister
}

func (u *UniqueStore) Lookup(ctx context.Context, key Document) (Document, error) {
	return LookupUnique(ctx, u.Persister, key)
}

type FirstStore struct {
	Persister
}

func (f *FirstStore) Lookup(ctx context.Context, key Document) (Document, error) {
	return LookupFirst(ctx, f.Persister, key)
}

// MultipleStore treats all the documents of a key as its value. Writing a
// key replaces the whole set, which is not atomic.
type MultipleStore struct {
	Persister
}

func (m *MultipleStore) Lookup(ctx context.Context, key Document) ([]Document, error) {
	return LookupMultiple(ctx, m.Persister, key)
}

func (m *MultipleStore) Set(ctx context.Context, key, value Document) (*WriteResult, error) {
	if value == nil {
		return nil, preconditionError("value must be a document")
	}
	return m.Persister.ReplaceAll(ctx, key, []Document{value})
}

func (m *MultipleStore) SetMany(ctx context.Context, key Document, values []Document) (*WriteResult, error) {
	return m.Persister.ReplaceAll(ctx, key, values)
}
