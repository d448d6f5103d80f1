package service

import (
	"context"
	"errors"
	"os"
	"path"
	"testing"

	. "github.com/fulldump/biff"

	"github.com/fulldump/kvlens/database"
	"github.com/fulldump/kvlens/kv"
)

func newMemoryBackend() *EmbeddedBackend {
	db := database.NewDatabase(&database.Config{Storage: database.StorageMemory})
	if err := db.Load(); err != nil {
		panic(err)
	}
	return NewEmbeddedBackend(db)
}

func TestService(t *testing.T) {

	ctx := context.Background()

	Alternative("Stores file", func(a *A) {

		storesFile := path.Join(t.TempDir(), "stores.json")
		backend := newMemoryBackend()

		s := NewService(backend, storesFile)
		AssertNil(s.LoadStores(ctx))
		AssertEqual(len(s.ListStores()), 0)

		_, err := s.CreateStore(ctx, &StoreDefinition{
			Name:      "users",
			Scope:     map[string]any{"kind": "user"},
			KeyFields: []any{"email"},
		})
		AssertNil(err)

		a.Alternative("Definitions survive a restart", func(a *A) {
			_, err := os.Stat(storesFile)
			AssertNil(err)

			reloaded := NewService(backend, storesFile)
			AssertNil(reloaded.LoadStores(ctx))

			store, err := reloaded.GetStore("users")
			AssertNil(err)
			AssertEqualJson(store.Definition, map[string]any{
				"name":       "users",
				"collection": "users",
				"scope":      map[string]any{"kind": "user"},
				"keyFields":  []any{"email"},
				"policy":     "unique",
			})
		})

		a.Alternative("Delete store", func(a *A) {
			AssertNil(s.DeleteStore("users"))

			reloaded := NewService(backend, storesFile)
			AssertNil(reloaded.LoadStores(ctx))
			_, err := reloaded.GetStore("users")
			AssertEqual(err, ErrorStoreNotFound)

			AssertEqual(s.DeleteStore("users"), ErrorStoreNotFound)
		})
	})

	Alternative("Invalid definitions", func(a *A) {
		s := NewService(newMemoryBackend(), "")

		_, err := s.CreateStore(ctx, &StoreDefinition{})
		AssertTrue(errors.Is(err, ErrorInvalidStore))

		_, err = s.CreateStore(ctx, &StoreDefinition{Name: "x", KeyFields: 42})
		AssertTrue(errors.Is(err, ErrorInvalidStore))

		collections, _ := s.ListCollections(ctx)
		AssertEqual(collections, []string{})
	})
}

func TestStore(t *testing.T) {

	ctx := context.Background()

	Alternative("Policies", func(a *A) {

		s := NewService(newMemoryBackend(), "")

		for _, policy := range []string{PolicyUnique, PolicyFirst, PolicyMultiple} {
			_, err := s.CreateStore(ctx, &StoreDefinition{
				Name:       policy,
				Collection: "shared",
				KeyFields:  "k",
				Policy:     policy,
			})
			AssertNil(err)
		}

		unique, _ := s.GetStore(PolicyUnique)
		_, err := unique.Persister.Extend(ctx, []kv.Document{
			{"k": 1, "v": "a"},
			{"k": 1, "v": "b"},
		})
		AssertNil(err)

		a.Alternative("Unique", func(a *A) {
			_, err := unique.Lookup(ctx, kv.Document{"k": 1})
			AssertTrue(errors.Is(err, kv.ErrNotUnique))
		})

		a.Alternative("First", func(a *A) {
			first, _ := s.GetStore(PolicyFirst)
			value, err := first.Lookup(ctx, kv.Document{"k": 1})
			AssertNil(err)
			AssertEqualJson(value, map[string]any{"v": "a"})
		})

		a.Alternative("Multiple", func(a *A) {
			multiple, _ := s.GetStore(PolicyMultiple)
			values, err := multiple.Lookup(ctx, kv.Document{"k": 1})
			AssertNil(err)
			AssertEqualJson(values, []any{map[string]any{"v": "a"}, map[string]any{"v": "b"}})

			result, err := multiple.Set(ctx, kv.Document{"k": 1}, kv.Document{"v": "c"})
			AssertNil(err)
			AssertEqual(result.N, int64(3))

			values, _ = multiple.Lookup(ctx, kv.Document{"k": 1})
			AssertEqualJson(values, []any{map[string]any{"v": "c"}})
		})

		a.Alternative("SetMany needs the multiple policy", func(a *A) {
			_, err := unique.SetMany(ctx, kv.Document{"k": 1}, []kv.Document{{"v": "z"}})
			AssertTrue(errors.Is(err, kv.ErrWriteNotAllowed))
		})
	})
}

func TestStore_NoOverlap(t *testing.T) {

	ctx := context.Background()

	Alternative("Bookings", func(a *A) {

		s := NewService(newMemoryBackend(), "")
		store, err := s.CreateStore(ctx, &StoreDefinition{
			Name:      "bookings",
			KeyFields: []any{"room", "from", "to"},
			NoOverlap: &OverlapRule{Group: "room", Start: "from", End: "to"},
		})
		AssertNil(err)
		AssertTrue(store.Guarded())

		_, err = store.Set(ctx, kv.Document{"room": "a", "from": 10, "to": 20}, kv.Document{"who": "ann"})
		AssertNil(err)

		a.Alternative("Overlapping interval is refused", func(a *A) {
			_, err := store.Set(ctx, kv.Document{"room": "a", "from": 15, "to": 25}, kv.Document{"who": "bob"})
			AssertTrue(errors.Is(err, kv.ErrWriteNotAllowed))

			n, _ := store.Persister.Count(ctx)
			AssertEqual(n, int64(1))
		})

		a.Alternative("Other rooms are free", func(a *A) {
			_, err := store.Set(ctx, kv.Document{"room": "b", "from": 15, "to": 25}, kv.Document{"who": "bob"})
			AssertNil(err)
		})

		a.Alternative("Adjacent interval is free", func(a *A) {
			_, err := store.Set(ctx, kv.Document{"room": "a", "from": 21, "to": 30}, kv.Document{"who": "cid"})
			AssertNil(err)
		})
	})

	Alternative("Invalid rules", func(a *A) {
		s := NewService(newMemoryBackend(), "")

		_, err := s.CreateStore(ctx, &StoreDefinition{
			Name:      "half",
			NoOverlap: &OverlapRule{Group: "room"},
		})
		AssertTrue(errors.Is(err, ErrorInvalidStore))

		_, err = s.CreateStore(ctx, &StoreDefinition{
			Name:      "many",
			Policy:    PolicyMultiple,
			NoOverlap: &OverlapRule{Group: "room", Start: "from", End: "to"},
		})
		AssertTrue(errors.Is(err, ErrorInvalidStore))
	})
}
