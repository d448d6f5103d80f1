package apistorev1

import (
	"context"
	"fmt"

	"github.com/fulldump/kvlens/kv"
)

type bulkOperation struct {
	Op     string        `json:"op"`
	Key    kv.Document   `json:"key"`
	Value  kv.Document   `json:"value"`
	Values []kv.Document `json:"values"`
}

type bulkRequest struct {
	Operations []bulkOperation `json:"operations"`
}

// bulk records every operation first and writes nothing if any of them is
// invalid.
func bulk(ctx context.Context, input *bulkRequest) (*kv.WriteResult, error) {
	store, err := currentStore(ctx)
	if err != nil {
		return nil, err
	}

	batch := store.Persister.Batch()
	for i, operation := range input.Operations {
		switch operation.Op {
		case "set":
			if store.Guarded() {
				err = &kv.Error{Kind: kv.ErrWriteNotAllowed, Key: operation.Key, Reason: "store checks sets one by one, use :set"}
				break
			}
			err = batch.Set(operation.Key, operation.Value)
		case "delete":
			err = batch.Delete(operation.Key)
		case "append":
			err = batch.Append(operation.Value)
		case "extend":
			err = batch.Extend(operation.Values)
		default:
			err = &kv.Error{Kind: kv.ErrPrecondition, Reason: fmt.Sprintf("unknown operation '%s'", operation.Op)}
		}
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
	}

	return batch.Flush(ctx)
}
