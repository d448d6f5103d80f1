// Package kv exposes a document collection as a key-value mapping: a
// sub-document is the key, the matching documents (reduced to some fields)
// are the value.
//
// Stores never cache documents and hold no locks. Every call is one or more
// round trips to the collection, which is the only arbiter of concurrent
// writes.
package kv

import (
	"context"
	"errors"

	"github.com/fulldump/kvlens/driver"
	"github.com/fulldump/kvlens/projection"
	"github.com/fulldump/kvlens/scope"
)

type Document = driver.Document

// Options are passed through to the collection on every traversal.
type Options struct {
	Skip  int64
	Limit int64
	Sort  []driver.SortField
	Hint  any
}

// View is a read-only lens over the documents of a collection that match a
// scope, shaped by a projection. It owns no data and is immutable.
type View struct {
	collection driver.Collection
	scope      Document
	projection projection.Projection
	options    Options
}

func NewView(collection driver.Collection, scopeFilter Document, iterate projection.Spec, options Options) (*View, error) {
	if collection == nil {
		return nil, preconditionError("collection is required")
	}
	p, err := projection.Normalize(iterate)
	if err != nil {
		return nil, err
	}

	return &View{
		collection: collection,
		scope:      projection.CopyDocument(scopeFilter),
		projection: p,
		options:    options,
	}, nil
}

func (v *View) Collection() driver.Collection {
	return v.collection
}

func (v *View) Scope() Document {
	return projection.CopyDocument(v.scope)
}

func (v *View) Projection() projection.Projection {
	return v.projection.Clone()
}

// filter merges the scope with a caller filter.
func (v *View) filter(extra Document) (Document, error) {
	filter, err := scope.Merge(v.scope, extra)
	if errors.Is(err, scope.ErrNotDocument) {
		return nil, preconditionError("filter must be a document")
	}
	return filter, err
}

func (v *View) scopeFilter() Document {
	if v.scope == nil {
		return Document{}
	}
	return v.scope
}

func (v *View) find(ctx context.Context, filter Document, p projection.Projection, opts driver.FindOptions) (*Cursor, error) {
	opts.Projection = p
	c, err := v.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return &Cursor{cursor: c}, nil
}

func (v *View) traverse(ctx context.Context, p projection.Projection) (*Cursor, error) {
	return v.find(ctx, v.scopeFilter(), p, driver.FindOptions{
		Skip:  v.options.Skip,
		Limit: v.options.Limit,
		Sort:  v.options.Sort,
		Hint:  v.options.Hint,
	})
}

// Iterate opens a fresh traversal of the view.
func (v *View) Iterate(ctx context.Context) (*Cursor, error) {
	return v.traverse(ctx, v.projection)
}

// Count is consistent with what Iterate yields under the same options.
func (v *View) Count(ctx context.Context) (int64, error) {
	return v.collection.CountDocuments(ctx, v.scopeFilter(), driver.CountOptions{
		Skip:  v.options.Skip,
		Limit: v.options.Limit,
		Hint:  v.options.Hint,
	})
}

// Contains tells whether some document in scope matches candidate. Skip and
// limit do not apply.
func (v *View) Contains(ctx context.Context, candidate Document) (bool, error) {
	filter, err := v.filter(candidate)
	if err != nil {
		return false, err
	}
	return v.exists(ctx, filter)
}

func (v *View) exists(ctx context.Context, filter Document) (bool, error) {
	c, err := v.find(ctx, filter, projection.Projection{}, driver.FindOptions{
		Limit: 1,
		Hint:  v.options.Hint,
	})
	if err != nil {
		return false, err
	}
	defer c.Close(ctx)

	found := c.Next(ctx)
	return found, c.Err()
}

// Head returns the first document Iterate would yield.
func (v *View) Head(ctx context.Context) (Document, error) {
	c, err := v.Iterate(ctx)
	if err != nil {
		return nil, err
	}
	defer c.Close(ctx)

	if !c.Next(ctx) {
		if err := c.Err(); err != nil {
			return nil, err
		}
		return nil, &Error{Kind: ErrNotFound, Reason: "empty view"}
	}
	return c.Document(), nil
}

// Cursor is a single pass, non restartable stream of documents.
type Cursor struct {
	cursor  driver.Cursor
	current Document
}

func (c *Cursor) Next(ctx context.Context) bool {
	if !c.cursor.Next(ctx) {
		c.current = nil
		return false
	}
	c.current = c.cursor.Current()
	return true
}

func (c *Cursor) Document() Document {
	return c.current
}

func (c *Cursor) Err() error {
	return c.cursor.Err()
}

func (c *Cursor) Close(ctx context.Context) error {
	return c.cursor.Close(ctx)
}

// All drains and closes the cursor.
func (c *Cursor) All(ctx context.Context) ([]Document, error) {
	defer c.Close(ctx)

	docs := []Document{}
	for c.Next(ctx) {
		docs = append(docs, c.Document())
	}
	return docs, c.Err()
}

// Traverse calls f for every document until f returns false. The cursor is
// closed afterwards.
func (c *Cursor) Traverse(ctx context.Context, f func(doc Document) bool) error {
	defer c.Close(ctx)

	for c.Next(ctx) {
		if !f(c.Document()) {
			break
		}
	}
	return c.Err()
}
