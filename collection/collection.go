package collection

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	json2 "github.com/go-json-experiment/json"
	"github.com/google/uuid"

	"github.com/fulldump/kvlens/driver"
	"github.com/fulldump/kvlens/projection"
	"github.com/fulldump/kvlens/scope"
)

var (
	ErrDuplicateId = errors.New("duplicate _id")
	ErrImmutableId = errors.New("_id cannot be changed by a replacement")
)

var _ driver.Collection = &Collection{}

// Collection is an embedded document collection: rows live in memory, in
// insertion order, and every mutation is handed to a Storage.
type Collection struct {
	name    string
	storage Storage
	Rows    RowContainer
	ids     map[string]*Row
	mutex   *sync.RWMutex
	MaxID   int64
}

func OpenCollection(name string, storage Storage) (*Collection, error) {
	c := &Collection{
		name:    name,
		storage: storage,
		Rows:    NewBTreeContainer(),
		ids:     map[string]*Row{},
		mutex:   &sync.RWMutex{},
	}

	err := LoadCollection(c)
	if err != nil {
		storage.Close()
		return nil, fmt.Errorf("load collection: %w", err)
	}

	return c, nil
}

// NewMemoryCollection opens a collection that persists nothing.
func NewMemoryCollection(name string) *Collection {
	c, _ := OpenCollection(name, NewMemoryStorage())
	return c
}

func (c *Collection) Name() string {
	return c.name
}

func (c *Collection) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.Rows.Len()
}

func (c *Collection) Close() error {
	return c.storage.Close()
}

func (c *Collection) Drop() error {
	return c.storage.Drop()
}

func idKey(id any) string {
	data, err := json2.Marshal(id, json2.Deterministic(true))
	if err != nil {
		return fmt.Sprint(id)
	}
	return string(data)
}

// matches returns matching rows in insertion order, at most limit of them
// when limit > 0. Caller must hold the mutex.
func (c *Collection) matches(m *scope.Matcher, limit int) ([]*Row, error) {
	var rows []*Row
	var err error
	c.Rows.Traverse(func(row *Row) bool {
		var match bool
		match, err = m.Match(row.Document)
		if err != nil {
			return false
		}
		if match {
			rows = append(rows, row)
		}
		return limit <= 0 || len(rows) < limit
	})
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}
	return rows, nil
}

func (c *Collection) Find(ctx context.Context, filter driver.Document, opts driver.FindOptions) (driver.Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := scope.NewMatcher(filter)
	if err != nil {
		return nil, err
	}

	// without sorting the scan can stop as soon as the window is full
	window := 0
	if len(opts.Sort) == 0 && opts.Limit > 0 {
		window = int(opts.Skip + opts.Limit)
	}

	c.mutex.RLock()
	rows, err := c.matches(m, window)
	docs := make([]driver.Document, len(rows))
	for i, row := range rows {
		docs[i] = row.Document
	}
	c.mutex.RUnlock()
	if err != nil {
		return nil, err
	}

	sortDocuments(docs, opts.Sort)
	docs = applyWindow(docs, opts.Skip, opts.Limit)

	result := make([]driver.Document, len(docs))
	for i, doc := range docs {
		result[i] = opts.Projection.Apply(doc)
	}

	return driver.NewSliceCursor(result), nil
}

func applyWindow[T any](items []T, skip, limit int64) []T {
	if skip > 0 {
		if skip >= int64(len(items)) {
			return items[:0]
		}
		items = items[skip:]
	}
	if limit > 0 && limit < int64(len(items)) {
		items = items[:limit]
	}
	return items
}

func (c *Collection) CountDocuments(ctx context.Context, filter driver.Document, opts driver.CountOptions) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m, err := scope.NewMatcher(filter)
	if err != nil {
		return 0, err
	}

	window := 0
	if opts.Limit > 0 {
		window = int(opts.Skip + opts.Limit)
	}

	c.mutex.RLock()
	rows, err := c.matches(m, window)
	c.mutex.RUnlock()
	if err != nil {
		return 0, err
	}

	return int64(len(applyWindow(rows, opts.Skip, opts.Limit))), nil
}

// Distinct returns the different values a field takes among matching
// documents. Array values contribute each of their items.
func (c *Collection) Distinct(ctx context.Context, field string, filter driver.Document) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := scope.NewMatcher(filter)
	if err != nil {
		return nil, err
	}

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	rows, err := c.matches(m, 0)
	if err != nil {
		return nil, err
	}

	values := []any{}
	seen := map[string]bool{}
	add := func(v any) {
		key := idKey(v)
		if seen[key] {
			return
		}
		seen[key] = true
		values = append(values, v)
	}
	for _, row := range rows {
		value, found := projection.Lookup(row.Document, field)
		if !found {
			continue
		}
		if list, ok := value.([]any); ok {
			for _, item := range list {
				add(item)
			}
			continue
		}
		add(value)
	}

	sortValues(values)
	return values, nil
}

func (c *Collection) InsertOne(ctx context.Context, doc driver.Document) (*driver.InsertOneAck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	row, err := c.insert(doc)
	if err != nil {
		return nil, err
	}

	return &driver.InsertOneAck{InsertedID: row.Document[projection.IdField]}, nil
}

func (c *Collection) InsertMany(ctx context.Context, docs []driver.Document) (*driver.InsertManyAck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	ack := &driver.InsertManyAck{InsertedIDs: []any{}}
	for i, doc := range docs {
		row, err := c.insert(doc)
		if err != nil {
			return ack, fmt.Errorf("insert document %d: %w", i, err)
		}
		ack.InsertedIDs = append(ack.InsertedIDs, row.Document[projection.IdField])
	}

	return ack, nil
}

// insert adds a new row. Caller must hold the mutex.
func (c *Collection) insert(doc driver.Document) (*Row, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}

	document, err := normalizeDocument(doc)
	if err != nil {
		return nil, err
	}
	if _, ok := document[projection.IdField]; !ok {
		document[projection.IdField] = uuid.NewString()
	}

	key := idKey(document[projection.IdField])
	if _, exists := c.ids[key]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateId, key)
	}

	c.MaxID++
	row := &Row{
		I:        c.MaxID,
		Document: document,
	}

	err = c.persist(CommandInsert, row)
	if err != nil {
		c.MaxID--
		return nil, err
	}

	c.Rows.ReplaceOrInsert(row)
	c.ids[key] = row

	return row, nil
}

func (c *Collection) persist(name string, row *Row) error {
	command, err := NewCommand(name, row)
	if err != nil {
		return err
	}
	err = c.storage.Persist(command)
	if err != nil {
		return fmt.Errorf("persist %s: %w", name, err)
	}
	return nil
}

func (c *Collection) DeleteOne(ctx context.Context, filter driver.Document) (*driver.DeleteAck, error) {
	return c.delete(ctx, filter, 1)
}

func (c *Collection) DeleteMany(ctx context.Context, filter driver.Document) (*driver.DeleteAck, error) {
	return c.delete(ctx, filter, 0)
}

func (c *Collection) delete(ctx context.Context, filter driver.Document, limit int) (*driver.DeleteAck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := scope.NewMatcher(filter)
	if err != nil {
		return nil, err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.deleteMatching(m, limit)
}

// deleteMatching removes matching rows. Caller must hold the mutex.
func (c *Collection) deleteMatching(m *scope.Matcher, limit int) (*driver.DeleteAck, error) {
	rows, err := c.matches(m, limit)
	if err != nil {
		return nil, err
	}

	ack := &driver.DeleteAck{}
	for _, row := range rows {
		err := c.persist(CommandRemove, row)
		if err != nil {
			return ack, err
		}
		c.Rows.Delete(row)
		delete(c.ids, idKey(row.Document[projection.IdField]))
		ack.Deleted++
	}

	return ack, nil
}

// ReplaceOne swaps the first matching document for replacement, keeping
// its _id and its position. With upsert, a replacement matching nothing is
// inserted.
func (c *Collection) ReplaceOne(ctx context.Context, filter driver.Document, replacement driver.Document, upsert bool) (*driver.UpdateAck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := scope.NewMatcher(filter)
	if err != nil {
		return nil, err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.replaceMatching(m, filter, replacement, upsert)
}

// replaceMatching is ReplaceOne with the mutex already held.
func (c *Collection) replaceMatching(m *scope.Matcher, filter, replacement driver.Document, upsert bool) (*driver.UpdateAck, error) {
	if replacement == nil {
		return nil, fmt.Errorf("replacement is nil")
	}

	rows, err := c.matches(m, 1)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		if !upsert {
			return &driver.UpdateAck{}, nil
		}
		doc := replacement
		if _, ok := doc[projection.IdField]; !ok {
			if id, ok := filter[projection.IdField]; ok && !isOperatorExpression(id) {
				doc = copyTop(replacement)
				doc[projection.IdField] = id
			}
		}
		row, err := c.insert(doc)
		if err != nil {
			return nil, err
		}
		return &driver.UpdateAck{
			Upserted:   1,
			UpsertedID: row.Document[projection.IdField],
		}, nil
	}

	row := rows[0]
	document, err := normalizeDocument(replacement)
	if err != nil {
		return nil, err
	}
	id := row.Document[projection.IdField]
	if newId, ok := document[projection.IdField]; ok && idKey(newId) != idKey(id) {
		return nil, ErrImmutableId
	}
	document[projection.IdField] = id

	if reflect.DeepEqual(document, row.Document) {
		return &driver.UpdateAck{Matched: 1}, nil
	}

	replaced := &Row{I: row.I, Document: document}
	err = c.persist(CommandReplace, replaced)
	if err != nil {
		return nil, err
	}
	row.Document = document

	return &driver.UpdateAck{Matched: 1, Modified: 1}, nil
}

// BulkWrite applies models in order and stops at the first failure.
func (c *Collection) BulkWrite(ctx context.Context, models []driver.WriteModel) (*driver.BulkAck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	ack := &driver.BulkAck{UpsertedIDs: map[int64]any{}}
	for i, model := range models {
		err := c.apply(ack, int64(i), model)
		if err != nil {
			return ack, fmt.Errorf("write model %d: %w", i, err)
		}
	}

	return ack, nil
}

func (c *Collection) apply(ack *driver.BulkAck, i int64, model driver.WriteModel) error {
	switch w := model.(type) {
	case *driver.InsertOneModel:
		_, err := c.insert(w.Document)
		if err != nil {
			return err
		}
		ack.Inserted++
	case *driver.DeleteOneModel, *driver.DeleteManyModel:
		filter, limit := driver.Document(nil), 0
		if one, ok := w.(*driver.DeleteOneModel); ok {
			filter, limit = one.Filter, 1
		} else {
			filter = w.(*driver.DeleteManyModel).Filter
		}
		m, err := scope.NewMatcher(filter)
		if err != nil {
			return err
		}
		deleted, err := c.deleteMatching(m, limit)
		if deleted != nil {
			ack.Deleted += deleted.Deleted
		}
		if err != nil {
			return err
		}
	case *driver.ReplaceOneModel:
		m, err := scope.NewMatcher(w.Filter)
		if err != nil {
			return err
		}
		updated, err := c.replaceMatching(m, w.Filter, w.Replacement, w.Upsert)
		if err != nil {
			return err
		}
		ack.Matched += updated.Matched
		ack.Modified += updated.Modified
		ack.Upserted += updated.Upserted
		if updated.Upserted > 0 {
			ack.UpsertedIDs[i] = updated.UpsertedID
		}
	default:
		return fmt.Errorf("unsupported write model %T", model)
	}
	return nil
}

func isOperatorExpression(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	for k := range m {
		if scope.IsOperator(k) {
			return true
		}
	}
	return false
}

func copyTop(doc driver.Document) driver.Document {
	result := make(driver.Document, len(doc)+1)
	for k, v := range doc {
		result[k] = v
	}
	return result
}
