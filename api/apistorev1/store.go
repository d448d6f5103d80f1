package apistorev1

import (
	"context"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/kvlens/service"
)

type StoreResponse struct {
	*service.StoreDefinition
	Total int64 `json:"total"`
}

func newStoreResponse(ctx context.Context, store *service.Store) (*StoreResponse, error) {
	total, err := store.Persister.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &StoreResponse{
		StoreDefinition: store.Definition,
		Total:           total,
	}, nil
}

func listStores(ctx context.Context) ([]*StoreResponse, error) {

	result := []*StoreResponse{}
	for _, store := range GetServicer(ctx).ListStores() {
		response, err := newStoreResponse(ctx, store)
		if err != nil {
			return nil, err
		}
		result = append(result, response)
	}

	return result, nil
}

func createStore(ctx context.Context, w http.ResponseWriter, input *service.StoreDefinition) (*StoreResponse, error) {

	store, err := GetServicer(ctx).CreateStore(ctx, input)
	if err != nil {
		return nil, err
	}

	response, err := newStoreResponse(ctx, store)
	if err != nil {
		return nil, err
	}

	w.WriteHeader(http.StatusCreated)
	return response, nil
}

func getStore(ctx context.Context) (*StoreResponse, error) {

	store, err := currentStore(ctx)
	if err != nil {
		return nil, err
	}

	return newStoreResponse(ctx, store)
}

func dropStore(ctx context.Context) error {

	storeName := box.GetUrlParameter(ctx, "storeName")

	return GetServicer(ctx).DeleteStore(storeName)
}
