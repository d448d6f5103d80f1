package database

import (
	"context"
	"errors"
	"testing"

	. "github.com/fulldump/biff"

	"github.com/fulldump/kvlens/driver"
)

func TestDatabase(t *testing.T) {

	ctx := context.Background()

	for _, storage := range []string{StorageJSON, StorageBolt} {

		Alternative("Storage "+storage, func(a *A) {

			dir := t.TempDir()
			db := NewDatabase(&Config{Dir: dir, Storage: storage})
			AssertEqual(db.GetStatus(), StatusOpening)
			AssertNil(db.Load())
			AssertEqual(db.GetStatus(), StatusOperating)

			col, err := db.Collection("features")
			AssertNil(err)
			_, err = col.InsertMany(ctx, []driver.Document{
				{"_id": 1, "color": "red"},
				{"_id": 2, "color": "blue"},
			})
			AssertNil(err)

			a.Alternative("Get or create returns the same collection", func(a *A) {
				again, err := db.Collection("features")
				AssertNil(err)
				AssertTrue(again == col)
			})

			a.Alternative("Create twice", func(a *A) {
				_, err := db.CreateCollection("features")
				AssertTrue(errors.Is(err, ErrCollectionAlreadyExists))
			})

			a.Alternative("Invalid name", func(a *A) {
				_, err := db.Collection("../escape")
				AssertTrue(errors.Is(err, ErrInvalidName))
			})

			a.Alternative("Reload", func(a *A) {
				AssertNil(db.Stop())

				reopened := NewDatabase(&Config{Dir: dir, Storage: storage})
				AssertNil(reopened.Load())
				AssertEqual(reopened.ListCollections(), []string{"features"})

				col, err := reopened.GetCollection("features")
				AssertNil(err)
				AssertEqual(col.Len(), 2)
				reopened.Stop()
			})

			a.Alternative("Drop", func(a *A) {
				AssertNil(db.DropCollection("features"))

				_, err := db.GetCollection("features")
				AssertTrue(errors.Is(err, ErrCollectionNotFound))
				AssertEqual(db.ListCollections(), []string{})

				err = db.DropCollection("features")
				AssertTrue(errors.Is(err, ErrCollectionNotFound))
			})
		})
	}
}

func TestDatabase_Memory(t *testing.T) {
	db := NewDatabase(&Config{Storage: StorageMemory})
	AssertNil(db.Load())
	AssertEqual(db.GetStatus(), StatusOperating)

	_, err := db.Collection("scratch")
	AssertNil(err)
	AssertEqual(db.ListCollections(), []string{"scratch"})
}
