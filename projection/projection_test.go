package projection

import (
	"testing"

	. "github.com/fulldump/biff"
)

func mustNormalize(spec Spec) Projection {
	p, err := Normalize(spec)
	if err != nil {
		panic(err)
	}
	return p
}

func TestNormalize(t *testing.T) {

	Alternative("Normalize", func(a *A) {

		a.Alternative("None", func(a *A) {
			p, err := Normalize(None())
			AssertNil(err)
			AssertTrue(p == nil)
		})

		a.Alternative("Field list hides identity", func(a *A) {
			p, err := Normalize(Fields("a", "b"))
			AssertNil(err)
			AssertEqual(p, Projection{"a": true, "b": true, "_id": false})
		})

		a.Alternative("Single field", func(a *A) {
			p, err := Normalize(Field("name"))
			AssertNil(err)
			AssertEqual(p, Projection{"name": true, "_id": false})
		})

		a.Alternative("Field list requesting identity", func(a *A) {
			p, err := Normalize(Fields("_id", "a"))
			AssertNil(err)
			AssertEqual(p, Projection{"_id": true, "a": true})
		})

		a.Alternative("Empty field list projects to nothing", func(a *A) {
			p, err := Normalize(Fields())
			AssertNil(err)
			AssertTrue(p.IsEmpty())
			AssertFalse(p.IsNone())
		})

		a.Alternative("Nested map is flattened", func(a *A) {
			p, err := Normalize(Map(map[string]any{
				"a": map[string]any{"b": true, "c": 0},
				"d": 1,
			}))
			AssertNil(err)
			AssertEqual(p, Projection{"a.b": true, "a.c": false, "d": true})
		})

		a.Alternative("Bad leaf", func(a *A) {
			_, err := Normalize(Map(map[string]any{"a": "yes"}))
			AssertNotNil(err)
		})
	})
}

func TestParse(t *testing.T) {

	spec, err := Parse([]any{"x", "y"})
	AssertNil(err)
	AssertEqual(mustNormalize(spec), Projection{"x": true, "y": true, "_id": false})

	spec, err = Parse("x")
	AssertNil(err)
	AssertEqual(mustNormalize(spec), Projection{"x": true, "_id": false})

	spec, err = Parse(nil)
	AssertNil(err)
	AssertTrue(spec.IsNone())

	_, err = Parse([]any{"x", 3})
	AssertNotNil(err)
}

func TestFlatten(t *testing.T) {

	pairs := Flatten(map[string]any{
		"z": 1,
		"a": map[string]any{"c": 2, "b": map[string]any{"x": 3}},
	})

	AssertEqual(pairs, []Pair{
		{Path: "a.b.x", Value: 3},
		{Path: "a.c", Value: 2},
		{Path: "z", Value: 1},
	})
}

func TestUnion(t *testing.T) {

	Alternative("Union", func(a *A) {

		a.Alternative("Idempotent", func(a *A) {
			for _, p := range []Projection{
				{"a": true, "_id": false},
				{"a": false},
				{"a.b": true, "c": true},
				{},
			} {
				AssertEqual(Union(p, p), p)
			}
		})

		a.Alternative("None absorbs", func(a *A) {
			AssertTrue(Union(nil, Projection{"a": true}) == nil)
			AssertTrue(Union(Projection{"a": false}, nil) == nil)
		})

		a.Alternative("Empty is neutral", func(a *A) {
			AssertEqual(Union(Projection{}, Projection{"a": true}), Projection{"a": true})
		})

		a.Alternative("Two allow-lists", func(a *A) {
			p := Union(
				Projection{"k": true, "_id": false},
				Projection{"v": true, "_id": false},
			)
			AssertEqual(p, Projection{"k": true, "v": true, "_id": false})
		})

		a.Alternative("Two allow-lists, identity requested once", func(a *A) {
			p := Union(
				Projection{"k": true, "_id": false},
				Projection{"v": true},
			)
			AssertEqual(p, Projection{"k": true, "v": true, "_id": true})
		})

		a.Alternative("Two deny-lists", func(a *A) {
			p := Union(Projection{"a": false, "b": false}, Projection{"b": false, "c": false})
			AssertEqual(p, Projection{"b": false})
		})

		a.Alternative("Two deny-lists without common path", func(a *A) {
			p := Union(Projection{"a": false}, Projection{"c": false})
			AssertTrue(p == nil)
		})

		a.Alternative("Allow-list exclusions stay hidden", func(a *A) {
			p := Union(
				Projection{"doc": true, "doc.secret": false},
				Projection{"name": true},
			)
			AssertEqual(p, Projection{"doc": true, "doc.secret": false, "name": true})
		})

		a.Alternative("Allow-list with deny-list", func(a *A) {
			p := Union(
				Projection{"k": true, "_id": false},
				Projection{"k": false, "secret": false},
			)
			AssertEqual(p, Projection{"secret": false})
		})

		a.Alternative("Allow-list covering every denied path", func(a *A) {
			p := Union(Projection{"k": true}, Projection{"k": false})
			AssertTrue(p == nil)
		})
	})
}

func TestApply(t *testing.T) {

	doc := map[string]any{
		"_id":  "x1",
		"name": "Fulanez",
		"age":  33,
		"address": map[string]any{
			"city": "Madrid",
			"zip":  "28001",
		},
		"tags": []any{
			map[string]any{"k": "a", "v": 1},
			"loose",
			map[string]any{"k": "b", "v": 2},
		},
	}

	Alternative("Apply", func(a *A) {

		a.Alternative("None copies", func(a *A) {
			AssertEqual(Projection(nil).Apply(doc), doc)
		})

		a.Alternative("Empty yields nothing", func(a *A) {
			AssertEqual(Projection{}.Apply(doc), map[string]any{})
		})

		a.Alternative("Allow-list keeps identity", func(a *A) {
			AssertEqual(Projection{"name": true}.Apply(doc), map[string]any{
				"_id":  "x1",
				"name": "Fulanez",
			})
		})

		a.Alternative("Allow-list without identity", func(a *A) {
			AssertEqual(Projection{"name": true, "_id": false}.Apply(doc), map[string]any{
				"name": "Fulanez",
			})
		})

		a.Alternative("Nested allow-list", func(a *A) {
			AssertEqual(Projection{"address.city": true, "_id": false}.Apply(doc), map[string]any{
				"address": map[string]any{"city": "Madrid"},
			})
		})

		a.Alternative("Allow-list through arrays", func(a *A) {
			AssertEqual(Projection{"tags.k": true, "_id": false}.Apply(doc), map[string]any{
				"tags": []any{
					map[string]any{"k": "a"},
					map[string]any{"k": "b"},
				},
			})
		})

		a.Alternative("Deny-list", func(a *A) {
			AssertEqual(Projection{"_id": false, "tags": false, "address.zip": false}.Apply(doc), map[string]any{
				"name":    "Fulanez",
				"age":     33,
				"address": map[string]any{"city": "Madrid"},
			})
		})

		a.Alternative("Input is untouched", func(a *A) {
			Projection{"address.zip": false}.Apply(doc)
			AssertEqual(doc["address"], map[string]any{"city": "Madrid", "zip": "28001"})
		})
	})
}

func TestSplit(t *testing.T) {

	doc := map[string]any{"_id": "x1", "k": "key", "v": "value", "w": 3}

	Alternative("Split", func(a *A) {

		a.Alternative("Allow-list key", func(a *A) {
			key, rest := Split(doc, Projection{"k": true, "_id": false})
			AssertEqual(key, map[string]any{"k": "key"})
			AssertEqual(rest, map[string]any{"_id": "x1", "v": "value", "w": 3})
		})

		a.Alternative("Allow-list key with identity", func(a *A) {
			key, rest := Split(doc, Projection{"k": true})
			AssertEqual(key, map[string]any{"_id": "x1", "k": "key"})
			AssertEqual(rest, map[string]any{"v": "value", "w": 3})
		})

		a.Alternative("Deny-list key", func(a *A) {
			key, rest := Split(doc, Projection{"v": false, "w": false})
			AssertEqual(key, map[string]any{"_id": "x1", "k": "key"})
			AssertEqual(rest, map[string]any{"v": "value", "w": 3})
		})

		a.Alternative("Unrestricted key takes everything", func(a *A) {
			key, rest := Split(doc, nil)
			AssertEqual(key, doc)
			AssertEqual(rest, map[string]any{})
		})
	})
}
