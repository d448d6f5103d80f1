package kv

import (
	"context"
	"sync"

	"github.com/fulldump/kvlens/driver"
)

// Batch records writes and sends them all in a single bulk write on Flush.
// Every write is validated when recorded.
type Batch struct {
	persister *CollectionPersister
	models    []driver.WriteModel
	mutex     sync.Mutex
}

func (p *CollectionPersister) Batch() *Batch {
	return &Batch{
		persister: p,
	}
}

func (b *Batch) add(models ...driver.WriteModel) {
	b.mutex.Lock()
	b.models = append(b.models, models...)
	b.mutex.Unlock()
}

func (b *Batch) Len() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.models)
}

func (b *Batch) Set(key, value Document) error {
	if err := validKey(key); err != nil {
		return err
	}
	doc, err := b.persister.BuildDoc(key, value)
	if err != nil {
		return err
	}
	filter, err := b.persister.filter(key)
	if err != nil {
		return err
	}
	b.add(&driver.ReplaceOneModel{Filter: filter, Replacement: doc, Upsert: true})
	return nil
}

func (b *Batch) Delete(key Document) error {
	if err := validKey(key); err != nil {
		return err
	}
	filter, err := b.persister.filter(key)
	if err != nil {
		return err
	}
	b.add(&driver.DeleteOneModel{Filter: filter})
	return nil
}

func (b *Batch) Append(value Document) error {
	doc, err := b.persister.BuildDoc(nil, value)
	if err != nil {
		return err
	}
	b.add(&driver.InsertOneModel{Document: doc})
	return nil
}

func (b *Batch) Extend(values []Document) error {
	models := make([]driver.WriteModel, 0, len(values))
	for _, value := range values {
		doc, err := b.persister.BuildDoc(nil, value)
		if err != nil {
			return err
		}
		models = append(models, &driver.InsertOneModel{Document: doc})
	}
	b.add(models...)
	return nil
}

// Flush sends the recorded writes, in order, and forgets them.
func (b *Batch) Flush(ctx context.Context) (*WriteResult, error) {
	b.mutex.Lock()
	models := b.models
	b.models = nil
	b.mutex.Unlock()

	if len(models) == 0 {
		return &WriteResult{}, nil
	}

	ack, err := b.persister.collection.BulkWrite(ctx, models)
	if err != nil {
		return nil, err
	}
	return Normalize(ack)
}
