// Package driver is the contract between the key-value lens and a document
// collection. Both the embedded collection and the MongoDB adapter satisfy
// it.
package driver

import (
	"context"
	"errors"

	"github.com/fulldump/kvlens/projection"
)

type Document = map[string]any

var ErrCursorClosed = errors.New("cursor closed")

type SortField struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending"`
}

type FindOptions struct {
	Projection projection.Projection
	Skip       int64
	Limit      int64 // 0 means no limit
	Sort       []SortField
	Hint       any
}

type CountOptions struct {
	Skip  int64
	Limit int64
	Hint  any
}

// Cursor streams documents lazily. Next must be called before each Current.
type Cursor interface {
	Next(ctx context.Context) bool
	Current() Document
	Err() error
	Close(ctx context.Context) error
}

type Collection interface {
	Name() string

	Find(ctx context.Context, filter Document, opts FindOptions) (Cursor, error)
	CountDocuments(ctx context.Context, filter Document, opts CountOptions) (int64, error)
	Distinct(ctx context.Context, field string, filter Document) ([]any, error)

	InsertOne(ctx context.Context, doc Document) (*InsertOneAck, error)
	InsertMany(ctx context.Context, docs []Document) (*InsertManyAck, error)
	DeleteOne(ctx context.Context, filter Document) (*DeleteAck, error)
	DeleteMany(ctx context.Context, filter Document) (*DeleteAck, error)
	ReplaceOne(ctx context.Context, filter Document, replacement Document, upsert bool) (*UpdateAck, error)
	BulkWrite(ctx context.Context, models []WriteModel) (*BulkAck, error)
}

// WriteModel is one operation of a bulk write.
type WriteModel interface {
	writeModel()
}

type InsertOneModel struct {
	Document Document
}

type DeleteOneModel struct {
	Filter Document
}

type DeleteManyModel struct {
	Filter Document
}

type ReplaceOneModel struct {
	Filter      Document
	Replacement Document
	Upsert      bool
}

func (*InsertOneModel) writeModel()  {}
func (*DeleteOneModel) writeModel()  {}
func (*DeleteManyModel) writeModel() {}
func (*ReplaceOneModel) writeModel() {}

// Ack is the acknowledgement of a write. The set of shapes is closed.
type Ack interface {
	ack()
}

type InsertOneAck struct {
	InsertedID any
}

type InsertManyAck struct {
	InsertedIDs []any
}

type DeleteAck struct {
	Deleted int64
}

type UpdateAck struct {
	Matched    int64
	Modified   int64
	Upserted   int64
	UpsertedID any
}

type BulkAck struct {
	Inserted    int64
	Matched     int64
	Modified    int64
	Deleted     int64
	Upserted    int64
	UpsertedIDs map[int64]any
}

func (*InsertOneAck) ack()  {}
func (*InsertManyAck) ack() {}
func (*DeleteAck) ack()     {}
func (*UpdateAck) ack()     {}
func (*BulkAck) ack()       {}
