package kv

import (
	"context"
)

// Guard vets a Set before it reaches the collection.
type Guard func(ctx context.Context, r Reader, key, value Document) error

// Guarded runs its guards before every Set of the wrapped persister.
type Guarded struct {
	Persister
	Guards []Guard
}

func NewGuarded(p Persister, guards ...Guard) *Guarded {
	return &Guarded{
		Persister: p,
		Guards:    guards,
	}
}

func (g *Guarded) Set(ctx context.Context, key, value Document) (*WriteResult, error) {
	for _, guard := range g.Guards {
		if err := guard(ctx, g.Persister, key, value); err != nil {
			return nil, err
		}
	}
	return g.Persister.Set(ctx, key, value)
}

// NoOverlap refuses keys whose [start, end] interval overlaps the interval
// of a document already stored with the same group.
func NoOverlap(group, start, end string) Guard {
	return func(ctx context.Context, r Reader, key, value Document) error {
		for _, field := range []string{group, start, end} {
			if _, ok := key[field]; !ok {
				return &Error{Kind: ErrInvalidKey, Key: key, Reason: "missing field '" + field + "'"}
			}
		}

		overlapping, err := r.Contains(ctx, Document{
			group: key[group],
			start: Document{"$lte": key[end]},
			end:   Document{"$gte": key[start]},
		})
		if err != nil {
			return err
		}
		if overlapping {
			return &Error{Kind: ErrWriteNotAllowed, Key: key, Reason: "interval overlaps an existing document"}
		}
		return nil
	}
}
