package apistorev1

import (
	"context"
)

// listCollections shows what stores can be created over.
func listCollections(ctx context.Context) ([]string, error) {

	result, err := GetServicer(ctx).ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []string{}
	}

	return result, nil
}
