package kv

import (
	"context"

	"github.com/fulldump/kvlens/driver"
	"github.com/fulldump/kvlens/projection"
)

type Reader interface {
	Iterate(ctx context.Context) (*Cursor, error)
	Count(ctx context.Context) (int64, error)
	Contains(ctx context.Context, key Document) (bool, error)
	Head(ctx context.Context) (Document, error)

	Get(ctx context.Context, key Document) (*Cursor, error)
	Keys(ctx context.Context) (*Cursor, error)
	Values(ctx context.Context) (*Cursor, error)
	Items(ctx context.Context) (*ItemCursor, error)
	ContainsValue(ctx context.Context, value Document) (bool, error)
	ContainsItem(ctx context.Context, key, value Document) (bool, error)
	Distinct(ctx context.Context, field string) ([]any, error)
}

// Config describes a store over a collection.
//
// KeyFields and ValueFields accept field lists or inclusion maps. The
// identity field is hidden from both unless they mention it. With no
// ValueFields, values are whatever the key fields leave out.
type Config struct {
	Scope       Document
	KeyFields   projection.Spec
	ValueFields projection.Spec
	Options     Options
}

// CollectionReader reads keys and values out of the documents of a view.
// Whether a key addresses one or many documents is left to the policies.
type CollectionReader struct {
	*View
	valueProjection projection.Projection
}

func NewCollectionReader(collection driver.Collection, config Config) (*CollectionReader, error) {
	view, err := NewView(collection, config.Scope, config.KeyFields, config.Options)
	if err != nil {
		return nil, err
	}
	view.projection = hideIdentity(view.projection)

	var value projection.Projection
	if config.ValueFields.IsNone() {
		value = complement(view.projection)
	} else {
		value, err = projection.Normalize(config.ValueFields)
		if err != nil {
			return nil, err
		}
		value = hideIdentity(value)
	}

	return &CollectionReader{
		View:            view,
		valueProjection: value,
	}, nil
}

// hideIdentity excludes the identity field from a projection that does not
// talk about it.
func hideIdentity(p projection.Projection) projection.Projection {
	if len(p) == 0 {
		return p
	}
	if _, mentioned := p[projection.IdField]; mentioned {
		return p
	}
	p = p.Clone()
	p[projection.IdField] = false
	return p
}

// complement is the value projection implied by a key projection: every
// field but the key fields and the identity.
func complement(key projection.Projection) projection.Projection {
	if key == nil {
		return nil
	}
	value := projection.Projection{projection.IdField: false}
	for _, path := range key.IncludedPaths() {
		value[path] = false
	}
	return value
}

func (r *CollectionReader) KeyProjection() projection.Projection {
	return r.projection.Clone()
}

func (r *CollectionReader) ValueProjection() projection.Projection {
	return r.valueProjection.Clone()
}

// Get streams every document in scope matching key, shaped as values. A key
// matching nothing yields an empty cursor.
func (r *CollectionReader) Get(ctx context.Context, key Document) (*Cursor, error) {
	if key == nil {
		return nil, preconditionError("key must be a document")
	}
	filter, err := r.filter(key)
	if err != nil {
		return nil, err
	}
	return r.find(ctx, filter, r.valueProjection, driver.FindOptions{
		Sort: r.options.Sort,
		Hint: r.options.Hint,
	})
}

func (r *CollectionReader) Keys(ctx context.Context) (*Cursor, error) {
	return r.Iterate(ctx)
}

func (r *CollectionReader) Values(ctx context.Context) (*Cursor, error) {
	return r.traverse(ctx, r.valueProjection)
}

// Items fetches each document once, with the union of key and value
// projections, and splits it into its key part and its value part.
func (r *CollectionReader) Items(ctx context.Context) (*ItemCursor, error) {
	c, err := r.traverse(ctx, projection.Union(r.projection, r.valueProjection))
	if err != nil {
		return nil, err
	}
	return &ItemCursor{
		cursor:          c,
		keyProjection:   r.projection,
		valueProjection: r.valueProjection,
	}, nil
}

// ContainsValue asks the collection whether some document in scope matches
// value.
func (r *CollectionReader) ContainsValue(ctx context.Context, value Document) (bool, error) {
	if value == nil {
		return false, preconditionError("value must be a document")
	}
	return r.Contains(ctx, value)
}

func (r *CollectionReader) ContainsItem(ctx context.Context, key, value Document) (bool, error) {
	if key == nil || value == nil {
		return false, preconditionError("key and value must be documents")
	}
	filter, err := r.filter(key)
	if err != nil {
		return false, err
	}
	if len(value) > 0 {
		filter = Document{"$and": []any{filter, value}}
	}
	return r.exists(ctx, filter)
}

func (r *CollectionReader) Distinct(ctx context.Context, field string) ([]any, error) {
	return r.collection.Distinct(ctx, field, r.scopeFilter())
}

type Item struct {
	Key   Document `json:"key"`
	Value Document `json:"value"`
}

type ItemCursor struct {
	cursor          *Cursor
	keyProjection   projection.Projection
	valueProjection projection.Projection
	current         *Item
}

func (c *ItemCursor) Next(ctx context.Context) bool {
	if !c.cursor.Next(ctx) {
		c.current = nil
		return false
	}
	key, rest := projection.Split(c.cursor.Document(), c.keyProjection)
	c.current = &Item{
		Key:   key,
		Value: c.valueProjection.Apply(rest),
	}
	return true
}

func (c *ItemCursor) Item() *Item {
	return c.current
}

func (c *ItemCursor) Err() error {
	return c.cursor.Err()
}

func (c *ItemCursor) Close(ctx context.Context) error {
	return c.cursor.Close(ctx)
}

func (c *ItemCursor) All(ctx context.Context) ([]*Item, error) {
	defer c.Close(ctx)

	items := []*Item{}
	for c.Next(ctx) {
		items = append(items, c.Item())
	}
	return items, c.Err()
}
