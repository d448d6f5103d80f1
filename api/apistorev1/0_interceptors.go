package apistorev1

import (
	"context"

	"github.com/fulldump/box"

	"github.com/fulldump/kvlens/service"
)

const ContextServicerKey = "7c1d52a4-3f0e-11ef-8a55-4bcf0e6d9a11"

func SetServicer(ctx context.Context, s service.Servicer) context.Context {
	return context.WithValue(ctx, ContextServicerKey, s)
}

func GetServicer(ctx context.Context) service.Servicer {
	return ctx.Value(ContextServicerKey).(service.Servicer)
}

func currentStore(ctx context.Context) (*service.Store, error) {
	storeName := box.GetUrlParameter(ctx, "storeName")
	return GetServicer(ctx).GetStore(storeName)
}
