package scope

import (
	"testing"

	. "github.com/fulldump/biff"
)

func TestMerge(t *testing.T) {

	Alternative("Merge", func(a *A) {

		a.Alternative("Empty scope", func(a *A) {
			f, err := Merge(nil, map[string]any{"k": 1})
			AssertNil(err)
			AssertEqual(f, map[string]any{"k": 1})
		})

		a.Alternative("Empty extra", func(a *A) {
			f, err := Merge(map[string]any{"kind": "user"}, map[string]any{})
			AssertNil(err)
			AssertEqual(f, map[string]any{"kind": "user"})
		})

		a.Alternative("Missing extra", func(a *A) {
			_, err := Merge(map[string]any{"kind": "user"}, nil)
			AssertEqual(err, ErrNotDocument)
		})

		a.Alternative("Disjoint fields", func(a *A) {
			f, err := Merge(map[string]any{"kind": "user"}, map[string]any{"name": "Fulanez"})
			AssertNil(err)
			AssertEqual(f, map[string]any{"kind": "user", "name": "Fulanez"})
		})

		a.Alternative("Colliding fields cannot escape the scope", func(a *A) {
			f, err := Merge(map[string]any{"kind": "user"}, map[string]any{"kind": "admin"})
			AssertNil(err)
			AssertEqual(f, map[string]any{
				"$and": []any{
					map[string]any{"kind": "user"},
					map[string]any{"kind": "admin"},
				},
			})
		})

		a.Alternative("Inputs are untouched", func(a *A) {
			s := map[string]any{"kind": "user"}
			Merge(s, map[string]any{"name": "x"})
			AssertEqual(s, map[string]any{"kind": "user"})
		})
	})
}

func TestFindOperator(t *testing.T) {

	path, found := FindOperator(map[string]any{"a": 1, "b": map[string]any{"c": 2}})
	AssertFalse(found)
	AssertEqual(path, "")

	path, found = FindOperator(map[string]any{"b": map[string]any{"$gt": 2}})
	AssertTrue(found)
	AssertEqual(path, "b.$gt")

	path, found = FindOperator(map[string]any{"list": []any{1, map[string]any{"$set": 1}}})
	AssertTrue(found)
	AssertEqual(path, "list.1.$set")
}

func TestLiterals(t *testing.T) {

	l := Literals(map[string]any{
		"kind":  "user",
		"age":   map[string]any{"$gt": 18},
		"$or":   []any{},
		"inner": map[string]any{"x": 1},
	})

	AssertEqual(l, map[string]any{
		"kind":  "user",
		"inner": map[string]any{"x": 1},
	})
}

func TestMatches(t *testing.T) {

	Alternative("Matches", func(a *A) {

		a.Alternative("Numbers compare across representations", func(a *A) {
			ok, err := Matches(map[string]any{"n": 3.0}, map[string]any{"n": 3})
			AssertNil(err)
			AssertTrue(ok)
		})

		a.Alternative("Inclusive range", func(a *A) {
			filter := map[string]any{"n": map[string]any{"$gte": 6}}

			ok, _ := Matches(filter, map[string]any{"n": 6})
			AssertTrue(ok)
			ok, _ = Matches(filter, map[string]any{"n": 5})
			AssertFalse(ok)
		})

		a.Alternative("Dot-path reaches nested documents", func(a *A) {
			ok, err := Matches(
				map[string]any{"meta.kind": "x"},
				map[string]any{"meta": map[string]any{"kind": "x"}},
			)
			AssertNil(err)
			AssertTrue(ok)
		})

		a.Alternative("Empty filter matches everything", func(a *A) {
			ok, err := Matches(nil, map[string]any{"anything": true})
			AssertNil(err)
			AssertTrue(ok)
		})
	})
}
