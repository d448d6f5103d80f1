package collection

import (
	"context"
	"path/filepath"
	"testing"

	. "github.com/fulldump/biff"

	"github.com/fulldump/kvlens/driver"
)

func exerciseStorage(open func() Storage) {
	ctx := context.Background()

	c, err := OpenCollection("people", open())
	AssertNil(err)

	seed(c,
		driver.Document{"_id": "a", "k": 1, "nested": driver.Document{"n": 10}},
		driver.Document{"_id": "b", "k": 2},
		driver.Document{"_id": "c", "k": 3},
	)
	c.ReplaceOne(ctx, driver.Document{"k": 1}, driver.Document{"k": 1, "v": "replaced"}, false)
	c.DeleteOne(ctx, driver.Document{"k": 2})
	AssertNil(c.Close())

	reopened, err := OpenCollection("people", open())
	AssertNil(err)
	defer reopened.Close()

	AssertEqualJson(find(reopened, driver.Document{}, driver.FindOptions{}), []any{
		map[string]any{"_id": "a", "k": 1, "v": "replaced"},
		map[string]any{"_id": "c", "k": 3},
	})

	// sequence keeps growing after a reload
	ack, err := reopened.InsertOne(ctx, driver.Document{"_id": "d"})
	AssertNil(err)
	AssertEqual(ack.InsertedID, "d")
	AssertEqual(reopened.MaxID, int64(4))

	// identity index survives the reload
	_, err = reopened.InsertOne(ctx, driver.Document{"_id": "c"})
	AssertNotNil(err)
}

func TestJSONStorage_Reload(t *testing.T) {
	Environment(func(filename string) {
		exerciseStorage(func() Storage {
			s, err := NewJSONStorage(filename)
			AssertNil(err)
			return s
		})
	})
}

func TestBoltStorage_Reload(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "people.bolt")
	exerciseStorage(func() Storage {
		s, err := NewBoltStorage(filename)
		AssertNil(err)
		return s
	})
}

func TestJSONStorage_Drop(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "people.json")

	s, err := NewJSONStorage(filename)
	AssertNil(err)
	c, err := OpenCollection("people", s)
	AssertNil(err)
	seed(c, driver.Document{"k": 1})

	AssertNil(c.Drop())

	s, err = NewJSONStorage(filename)
	AssertNil(err)
	c, err = OpenCollection("people", s)
	AssertNil(err)
	defer c.Close()
	AssertEqual(c.Len(), 0)
}
