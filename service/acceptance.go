package service

import (
	"net/http"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"
)

type JSON = map[string]interface{}

// Acceptance runs the HTTP scenarios of the stores API against apiRequest.
func Acceptance(a *biff.A, apiRequest func(method, path string) *apitest.Request) {

	a.Alternative("Create store", func(a *biff.A) {
		resp := apiRequest("POST", "/stores").
			WithBodyJson(JSON{
				"name":       "by-number",
				"collection": "features",
				"scope":      JSON{"color": "red"},
				"keyFields":  []string{"number"},
			}).Do()
		Save(resp, "Create store", `
			A store is a key-value view over the documents of a collection
			that match its scope.
		`)

		biff.AssertEqual(resp.StatusCode, http.StatusCreated)
		expectedStore := JSON{
			"name":       "by-number",
			"collection": "features",
			"scope":      JSON{"color": "red"},
			"keyFields":  []string{"number"},
			"policy":     "unique",
			"total":      0,
		}
		biff.AssertEqualJson(resp.BodyJson(), expectedStore)

		a.Alternative("Retrieve store", func(a *biff.A) {
			resp := apiRequest("GET", "/stores/by-number").Do()
			Save(resp, "Retrieve store", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), expectedStore)
		})

		a.Alternative("List stores", func(a *biff.A) {
			resp := apiRequest("GET", "/stores").Do()
			Save(resp, "List stores", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), []JSON{expectedStore})
		})

		a.Alternative("List collections", func(a *biff.A) {
			resp := apiRequest("GET", "/collections").Do()
			Save(resp, "List collections", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), []string{"features"})
		})

		a.Alternative("Create store twice", func(a *biff.A) {
			resp := apiRequest("POST", "/stores").
				WithBodyJson(JSON{"name": "by-number"}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusConflict)
		})

		a.Alternative("Set key", func(a *biff.A) {
			resp := apiRequest("POST", "/stores/by-number:set").
				WithBodyJson(JSON{
					"key":   JSON{"number": 6},
					"value": JSON{"size": "L"},
				}).Do()
			Save(resp, "Set key", `
				Writes the document made of the scope, the key and the value,
				replacing the one stored under the same key.
			`)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			body := resp.BodyJsonMap()
			biff.AssertEqual(body["ok"], true)
			biff.AssertEqual(body["n"], float64(1))

			a.Alternative("Get key", func(a *biff.A) {
				resp := apiRequest("POST", "/stores/by-number:get").
					WithBodyJson(JSON{"key": JSON{"number": 6}}).Do()
				Save(resp, "Get key", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), JSON{"color": "red", "size": "L"})
			})

			a.Alternative("Keys", func(a *biff.A) {
				resp := apiRequest("POST", "/stores/by-number:keys").Do()
				Save(resp, "Keys", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqual(resp.BodyString(), `{"number":6}`+"\n")
			})

			a.Alternative("Items", func(a *biff.A) {
				resp := apiRequest("POST", "/stores/by-number:items").Do()
				Save(resp, "Items", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqual(resp.BodyString(), `{"key":{"number":6},"value":{"color":"red","size":"L"}}`+"\n")
			})

			a.Alternative("Count", func(a *biff.A) {
				resp := apiRequest("POST", "/stores/by-number:count").Do()

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), JSON{"count": 1})
			})

			a.Alternative("Contains", func(a *biff.A) {
				resp := apiRequest("POST", "/stores/by-number:contains").
					WithBodyJson(JSON{"key": JSON{"number": 6}}).Do()

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), JSON{"found": true})
			})

			a.Alternative("Delete key", func(a *biff.A) {
				resp := apiRequest("POST", "/stores/by-number:delete").
					WithBodyJson(JSON{"key": JSON{"number": 6}}).Do()
				Save(resp, "Delete key", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), JSON{"ok": true, "n": 1})

				resp = apiRequest("POST", "/stores/by-number:count").Do()
				biff.AssertEqualJson(resp.BodyJson(), JSON{"count": 0})
			})

			a.Alternative("Duplicated key", func(a *biff.A) {
				resp := apiRequest("POST", "/stores/by-number:append").
					WithBodyJson(JSON{"value": JSON{"number": 6}}).Do()
				biff.AssertEqual(resp.StatusCode, http.StatusOK)

				resp = apiRequest("POST", "/stores/by-number:get").
					WithBodyJson(JSON{"key": JSON{"number": 6}}).Do()
				Save(resp, "Get key - not unique", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusConflict)
			})

			a.Alternative("Clear", func(a *biff.A) {
				resp := apiRequest("POST", "/stores/by-number:clear").Do()
				Save(resp, "Clear", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), JSON{"ok": true, "n": 1})
			})
		})

		a.Alternative("Get unknown key", func(a *biff.A) {
			resp := apiRequest("POST", "/stores/by-number:get").
				WithBodyJson(JSON{"key": JSON{"number": 99}}).Do()
			Save(resp, "Get key - not found", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
			biff.AssertEqual(resp.BodyJsonMap()["error"].(JSON)["description"], "key not found")
		})

		a.Alternative("Key outside the scope", func(a *biff.A) {
			resp := apiRequest("POST", "/stores/by-number:set").
				WithBodyJson(JSON{
					"key":   JSON{"number": 7, "color": "blue"},
					"value": JSON{},
				}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
		})

		a.Alternative("Operator in key", func(a *biff.A) {
			resp := apiRequest("POST", "/stores/by-number:set").
				WithBodyJson(JSON{
					"key":   JSON{"number": JSON{"$gt": 1}},
					"value": JSON{},
				}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
		})

		a.Alternative("Malformed JSON", func(a *biff.A) {
			resp := apiRequest("POST", "/stores/by-number:get").
				WithBodyString(`{"key":`).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
		})

		a.Alternative("Bulk", func(a *biff.A) {
			resp := apiRequest("POST", "/stores/by-number:bulk").
				WithBodyJson(JSON{
					"operations": []JSON{
						{"op": "set", "key": JSON{"number": 1}, "value": JSON{"size": "S"}},
						{"op": "set", "key": JSON{"number": 2}, "value": JSON{"size": "M"}},
						{"op": "append", "value": JSON{"number": 3}},
						{"op": "delete", "key": JSON{"number": 2}},
					},
				}).Do()
			Save(resp, "Bulk", `
				Operations are validated first and then written in order.
			`)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			body := resp.BodyJsonMap()
			biff.AssertEqual(body["ok"], true)
			biff.AssertEqual(body["n"], float64(4))

			resp = apiRequest("POST", "/stores/by-number:keys").Do()
			biff.AssertEqual(resp.BodyString(), `{"number":1}`+"\n"+`{"number":3}`+"\n")
		})

		a.Alternative("Bulk with an unknown operation", func(a *biff.A) {
			resp := apiRequest("POST", "/stores/by-number:bulk").
				WithBodyJson(JSON{
					"operations": []JSON{
						{"op": "set", "key": JSON{"number": 1}, "value": JSON{"size": "S"}},
						{"op": "explode"},
					},
				}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)

			resp = apiRequest("POST", "/stores/by-number:count").Do()
			biff.AssertEqualJson(resp.BodyJson(), JSON{"count": 0})
		})

		a.Alternative("Drop store", func(a *biff.A) {
			resp := apiRequest("POST", "/stores/by-number:dropStore").Do()
			Save(resp, "Drop store", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)

			a.Alternative("Get dropped store", func(a *biff.A) {
				resp := apiRequest("GET", "/stores/by-number").Do()
				Save(resp, "Get store - not found", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
			})
		})
	})

	a.Alternative("Multiple policy", func(a *biff.A) {
		resp := apiRequest("POST", "/stores").
			WithBodyJson(JSON{
				"name":      "tags",
				"keyFields": "user",
				"policy":    "multiple",
			}).Do()
		biff.AssertEqual(resp.StatusCode, http.StatusCreated)
		biff.AssertEqual(resp.BodyJsonMap()["collection"], "tags")

		resp = apiRequest("POST", "/stores/tags:set").
			WithBodyJson(JSON{
				"key":    JSON{"user": "a"},
				"values": []JSON{{"tag": "x"}, {"tag": "y"}},
			}).Do()
		Save(resp, "Set many values", ``)
		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		biff.AssertEqual(resp.BodyJsonMap()["n"], float64(2))

		resp = apiRequest("POST", "/stores/tags:get").
			WithBodyJson(JSON{"key": JSON{"user": "a"}}).Do()
		Save(resp, "Get many values", ``)
		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		biff.AssertEqualJson(resp.BodyJson(), []JSON{{"tag": "x"}, {"tag": "y"}})

		resp = apiRequest("POST", "/stores/tags:distinct").
			WithBodyJson(JSON{"field": "tag"}).Do()
		biff.AssertEqualJson(resp.BodyJson(), []string{"x", "y"})
	})

	a.Alternative("No overlap", func(a *biff.A) {
		resp := apiRequest("POST", "/stores").
			WithBodyJson(JSON{
				"name":      "bookings",
				"keyFields": []string{"room", "from", "to"},
				"noOverlap": JSON{"group": "room", "start": "from", "end": "to"},
			}).Do()
		Save(resp, "Create store - no overlap", `
			Sets are refused when the key interval overlaps another document
			of the same group.
		`)
		biff.AssertEqual(resp.StatusCode, http.StatusCreated)

		resp = apiRequest("POST", "/stores/bookings:set").
			WithBodyJson(JSON{
				"key":   JSON{"room": "a", "from": 10, "to": 20},
				"value": JSON{"who": "ann"},
			}).Do()
		biff.AssertEqual(resp.StatusCode, http.StatusOK)

		resp = apiRequest("POST", "/stores/bookings:set").
			WithBodyJson(JSON{
				"key":   JSON{"room": "a", "from": 15, "to": 25},
				"value": JSON{"who": "bob"},
			}).Do()
		Save(resp, "Set key - overlapping", ``)
		biff.AssertEqual(resp.StatusCode, http.StatusConflict)

		resp = apiRequest("POST", "/stores/bookings:bulk").
			WithBodyJson(JSON{
				"operations": []JSON{
					{"op": "set", "key": JSON{"room": "a", "from": 15, "to": 25}, "value": JSON{}},
				},
			}).Do()
		biff.AssertEqual(resp.StatusCode, http.StatusConflict)

		resp = apiRequest("POST", "/stores/bookings:count").Do()
		biff.AssertEqualJson(resp.BodyJson(), JSON{"count": 1})
	})

	a.Alternative("Invalid policy", func(a *biff.A) {
		resp := apiRequest("POST", "/stores").
			WithBodyJson(JSON{
				"name":   "bad",
				"policy": "sometimes",
			}).Do()

		biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
	})

	a.Alternative("Unknown store", func(a *biff.A) {
		resp := apiRequest("POST", "/stores/nothing:keys").Do()

		biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
	})
}
