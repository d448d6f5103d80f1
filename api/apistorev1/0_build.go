package apistorev1

import (
	"github.com/fulldump/box"
)

func BuildV1Store(v1 *box.R) *box.R {

	stores := v1.Resource("/stores").
		WithActions(
			box.Get(listStores),
			box.Post(createStore),
		)

	v1.Resource("/stores/{storeName}").
		WithActions(
			box.Get(getStore),
			box.ActionPost(keys),
			box.ActionPost(values),
			box.ActionPost(items),
			box.ActionPost(head),
			box.ActionPost(count),
			box.ActionPost(contains),
			box.ActionPost(containsValue),
			box.ActionPost(containsItem),
			box.ActionPost(lookup).WithName("get"),
			box.ActionPost(set),
			box.ActionPost(remove).WithName("delete"),
			box.ActionPost(appendValue).WithName("append"),
			box.ActionPost(extend),
			box.ActionPost(clearStore).WithName("clear"),
			box.ActionPost(distinct),
			box.ActionPost(bulk),
			box.ActionPost(dropStore),
		)

	v1.Resource("/collections").
		WithActions(
			box.Get(listCollections),
		)

	return stores
}
