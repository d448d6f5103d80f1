package apistorev1

import (
	"context"

	"github.com/fulldump/kvlens/kv"
)

type setRequest struct {
	Key    kv.Document   `json:"key"`
	Value  kv.Document   `json:"value"`
	Values []kv.Document `json:"values"`
}

type extendRequest struct {
	Values []kv.Document `json:"values"`
}

func set(ctx context.Context, input *setRequest) (*kv.WriteResult, error) {
	store, err := currentStore(ctx)
	if err != nil {
		return nil, err
	}
	if input.Values != nil {
		return store.SetMany(ctx, input.Key, input.Values)
	}
	return store.Set(ctx, input.Key, input.Value)
}

func remove(ctx context.Context, input *keyRequest) (*kv.WriteResult, error) {
	store, err := currentStore(ctx)
	if err != nil {
		return nil, err
	}
	return store.Persister.Delete(ctx, input.Key)
}

func appendValue(ctx context.Context, input *valueRequest) (*kv.WriteResult, error) {
	store, err := currentStore(ctx)
	if err != nil {
		return nil, err
	}
	return store.Persister.Append(ctx, input.Value)
}

func extend(ctx context.Context, input *extendRequest) (*kv.WriteResult, error) {
	store, err := currentStore(ctx)
	if err != nil {
		return nil, err
	}
	return store.Persister.Extend(ctx, input.Values)
}

func clearStore(ctx context.Context) (*kv.WriteResult, error) {
	store, err := currentStore(ctx)
	if err != nil {
		return nil, err
	}
	return store.Persister.Clear(ctx)
}
