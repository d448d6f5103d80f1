package apistorev1

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fulldump/kvlens/kv"
)

type keyRequest struct {
	Key kv.Document `json:"key"`
}

type valueRequest struct {
	Value kv.Document `json:"value"`
}

type itemRequest struct {
	Key   kv.Document `json:"key"`
	Value kv.Document `json:"value"`
}

type fieldRequest struct {
	Field string `json:"field"`
}

// writeDocuments streams a cursor as one JSON document per line.
func writeDocuments(ctx context.Context, w http.ResponseWriter, c *kv.Cursor) error {
	w.Header().Set("Content-Type", "application/x-ndjson")
	e := json.NewEncoder(w)
	var err error
	traverseErr := c.Traverse(ctx, func(doc kv.Document) bool {
		err = e.Encode(doc)
		return err == nil
	})
	if traverseErr != nil {
		return traverseErr
	}
	return err
}

func keys(ctx context.Context, w http.ResponseWriter) error {
	store, err := currentStore(ctx)
	if err != nil {
		return err
	}
	c, err := store.Persister.Keys(ctx)
	if err != nil {
		return err
	}
	return writeDocuments(ctx, w, c)
}

func values(ctx context.Context, w http.ResponseWriter) error {
	store, err := currentStore(ctx)
	if err != nil {
		return err
	}
	c, err := store.Persister.Values(ctx)
	if err != nil {
		return err
	}
	return writeDocuments(ctx, w, c)
}

func items(ctx context.Context, w http.ResponseWriter) error {
	store, err := currentStore(ctx)
	if err != nil {
		return err
	}
	c, err := store.Persister.Items(ctx)
	if err != nil {
		return err
	}
	defer c.Close(ctx)

	w.Header().Set("Content-Type", "application/x-ndjson")
	e := json.NewEncoder(w)
	for c.Next(ctx) {
		err := e.Encode(c.Item())
		if err != nil {
			return err
		}
	}
	return c.Err()
}

func head(ctx context.Context) (kv.Document, error) {
	store, err := currentStore(ctx)
	if err != nil {
		return nil, err
	}
	return store.Persister.Head(ctx)
}

func count(ctx context.Context) (any, error) {
	store, err := currentStore(ctx)
	if err != nil {
		return nil, err
	}
	n, err := store.Persister.Count(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"count": n}, nil
}

func found(ok bool, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return map[string]any{"found": ok}, nil
}

func contains(ctx context.Context, input *keyRequest) (any, error) {
	store, err := currentStore(ctx)
	if err != nil {
		return nil, err
	}
	return found(store.Persister.Contains(ctx, input.Key))
}

func containsValue(ctx context.Context, input *valueRequest) (any, error) {
	store, err := currentStore(ctx)
	if err != nil {
		return nil, err
	}
	return found(store.Persister.ContainsValue(ctx, input.Value))
}

func containsItem(ctx context.Context, input *itemRequest) (any, error) {
	store, err := currentStore(ctx)
	if err != nil {
		return nil, err
	}
	return found(store.Persister.ContainsItem(ctx, input.Key, input.Value))
}

func lookup(ctx context.Context, input *keyRequest) (any, error) {
	store, err := currentStore(ctx)
	if err != nil {
		return nil, err
	}
	return store.Lookup(ctx, input.Key)
}

func distinct(ctx context.Context, input *fieldRequest) ([]any, error) {
	store, err := currentStore(ctx)
	if err != nil {
		return nil, err
	}
	return store.Persister.Distinct(ctx, input.Field)
}
