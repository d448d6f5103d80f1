package mongostore

import (
	"context"
	"os"
	"testing"

	. "github.com/fulldump/biff"
	"github.com/google/uuid"

	"github.com/fulldump/kvlens/driver"
	"github.com/fulldump/kvlens/projection"
)

// Runs only when KVLENS_TEST_MONGO points to a reachable deployment.
func TestCollection(t *testing.T) {

	uri := os.Getenv("KVLENS_TEST_MONGO")
	if uri == "" {
		t.Skip("KVLENS_TEST_MONGO not set")
	}

	ctx := context.Background()

	client, err := Connect(ctx, uri)
	AssertNil(err)
	defer client.Disconnect(ctx)

	name := "test_" + uuid.New().String()
	c := client.Collection("kvlens_test", name)
	defer client.DropCollection(ctx, "kvlens_test", name)

	_, err = c.InsertMany(ctx, []driver.Document{
		{"_id": 1, "color": "red", "number": 6},
		{"_id": 2, "color": "blue", "number": 6},
		{"_id": 3, "color": "red", "number": 10},
	})
	AssertNil(err)

	cursor, err := c.Find(ctx, driver.Document{"color": "red"}, driver.FindOptions{
		Projection: projection.Projection{"number": true, "_id": false},
		Sort:       []driver.SortField{{Field: "number", Descending: true}},
	})
	AssertNil(err)
	found := []driver.Document{}
	for cursor.Next(ctx) {
		found = append(found, cursor.Current())
	}
	AssertNil(cursor.Err())
	AssertEqualJson(found, []any{
		map[string]any{"number": 10},
		map[string]any{"number": 6},
	})

	n, err := c.CountDocuments(ctx, driver.Document{"number": 6}, driver.CountOptions{})
	AssertNil(err)
	AssertEqual(n, int64(2))

	update, err := c.ReplaceOne(ctx, driver.Document{"color": "green"}, driver.Document{"color": "green"}, true)
	AssertNil(err)
	AssertEqual(update.Upserted, int64(1))

	deleted, err := c.DeleteMany(ctx, driver.Document{"color": "red"})
	AssertNil(err)
	AssertEqual(deleted.Deleted, int64(2))
}
