package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fulldump/kvlens/driver"
	"github.com/fulldump/kvlens/projection"
)

var _ driver.Collection = &Collection{}

// Collection adapts a *mongo.Collection to driver.Collection.
type Collection struct {
	collection *mongo.Collection
}

func NewCollection(c *mongo.Collection) *Collection {
	return &Collection{collection: c}
}

func (c *Collection) Name() string {
	return c.collection.Name()
}

func (c *Collection) Find(ctx context.Context, filter driver.Document, opts driver.FindOptions) (driver.Cursor, error) {
	findOptions := options.Find()
	if opts.Projection != nil {
		findOptions.SetProjection(findProjection(opts.Projection))
	}
	if opts.Skip > 0 {
		findOptions.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOptions.SetLimit(opts.Limit)
	}
	if len(opts.Sort) > 0 {
		findOptions.SetSort(sortDocument(opts.Sort))
	}
	if opts.Hint != nil {
		findOptions.SetHint(opts.Hint)
	}

	cursor, err := c.collection.Find(ctx, nonNil(filter), findOptions)
	if err != nil {
		return nil, err
	}

	return &Cursor{
		cursor:     cursor,
		projection: opts.Projection,
	}, nil
}

func (c *Collection) CountDocuments(ctx context.Context, filter driver.Document, opts driver.CountOptions) (int64, error) {
	countOptions := options.Count()
	if opts.Skip > 0 {
		countOptions.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		countOptions.SetLimit(opts.Limit)
	}
	if opts.Hint != nil {
		countOptions.SetHint(opts.Hint)
	}
	return c.collection.CountDocuments(ctx, nonNil(filter), countOptions)
}

func (c *Collection) Distinct(ctx context.Context, field string, filter driver.Document) ([]any, error) {
	values, err := c.collection.Distinct(ctx, field, nonNil(filter))
	if err != nil {
		return nil, err
	}
	result := make([]any, len(values))
	for i, value := range values {
		result[i] = fromBson(value)
	}
	return result, nil
}

func (c *Collection) InsertOne(ctx context.Context, doc driver.Document) (*driver.InsertOneAck, error) {
	result, err := c.collection.InsertOne(ctx, doc)
	if err != nil {
		return nil, err
	}
	return insertOneAck(result), nil
}

func (c *Collection) InsertMany(ctx context.Context, docs []driver.Document) (*driver.InsertManyAck, error) {
	if len(docs) == 0 {
		return &driver.InsertManyAck{InsertedIDs: []any{}}, nil
	}
	items := make([]any, len(docs))
	for i, doc := range docs {
		items[i] = doc
	}
	result, err := c.collection.InsertMany(ctx, items)
	if err != nil {
		return nil, err
	}
	return insertManyAck(result), nil
}

func (c *Collection) DeleteOne(ctx context.Context, filter driver.Document) (*driver.DeleteAck, error) {
	result, err := c.collection.DeleteOne(ctx, nonNil(filter))
	if err != nil {
		return nil, err
	}
	return deleteAck(result), nil
}

func (c *Collection) DeleteMany(ctx context.Context, filter driver.Document) (*driver.DeleteAck, error) {
	result, err := c.collection.DeleteMany(ctx, nonNil(filter))
	if err != nil {
		return nil, err
	}
	return deleteAck(result), nil
}

func (c *Collection) ReplaceOne(ctx context.Context, filter, replacement driver.Document, upsert bool) (*driver.UpdateAck, error) {
	result, err := c.collection.ReplaceOne(ctx, nonNil(filter), replacement, options.Replace().SetUpsert(upsert))
	if err != nil {
		return nil, err
	}
	return updateAck(result), nil
}

func (c *Collection) BulkWrite(ctx context.Context, models []driver.WriteModel) (*driver.BulkAck, error) {
	if len(models) == 0 {
		return &driver.BulkAck{UpsertedIDs: map[int64]any{}}, nil
	}
	writes, err := writeModels(models)
	if err != nil {
		return nil, err
	}
	result, err := c.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return nil, err
	}
	return bulkAck(result), nil
}

func nonNil(filter driver.Document) any {
	if filter == nil {
		return bson.D{}
	}
	return filter
}

// Cursor decodes every document into plain maps and finishes the
// projection the server could not express.
type Cursor struct {
	cursor     *mongo.Cursor
	projection projection.Projection
	current    driver.Document
	err        error
}

func (c *Cursor) Next(ctx context.Context) bool {
	c.current = nil
	if c.err != nil {
		return false
	}
	if !c.cursor.Next(ctx) {
		return false
	}

	raw := bson.M{}
	if err := c.cursor.Decode(&raw); err != nil {
		c.err = err
		return false
	}

	doc := fromBson(raw).(driver.Document)
	if c.projection != nil {
		doc = c.projection.Apply(doc)
	}
	c.current = doc
	return true
}

func (c *Cursor) Current() driver.Document {
	return c.current
}

func (c *Cursor) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.cursor.Err()
}

func (c *Cursor) Close(ctx context.Context) error {
	return c.cursor.Close(ctx)
}
